package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"portrait/internal/config"
	"portrait/internal/gateway"
	"portrait/internal/imaging"
	"portrait/internal/models"
)

const plainValueLimit = 64

type imageGetOutput struct {
	Image *string `json:"image" yaml:"image"`
}

type imageSetOutput struct {
	Status models.SyncStatus `json:"status" yaml:"status"`
	Source imaging.Source    `json:"source" yaml:"source"`
	Width  int               `json:"width,omitempty" yaml:"width,omitempty"`
	Height int               `json:"height,omitempty" yaml:"height,omitempty"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
	Detail string            `json:"-" yaml:"-"`
}

type imageStatusOutput struct {
	OriginReachable bool   `json:"origin_reachable" yaml:"origin_reachable"`
	OriginError     string `json:"origin_error,omitempty" yaml:"origin_error,omitempty"`
	OriginHasImage  bool   `json:"origin_has_image" yaml:"origin_has_image"`
	CachePath       string `json:"cache_path" yaml:"cache_path"`
	CachePresent    bool   `json:"cache_present" yaml:"cache_present"`
	CacheError      string `json:"cache_error,omitempty" yaml:"cache_error,omitempty"`
	InSync          bool   `json:"in_sync" yaml:"in_sync"`
}

func newImageCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Read and write the profile image",
	}
	cmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "keep the local copy in memory for this run only")

	cmd.AddCommand(
		newImageGetCmd(cfg, jsonOutput, &noCache),
		newImageSetCmd(cfg, jsonOutput, &noCache),
		newImageClearCacheCmd(cfg),
		newImageStatusCmd(cfg, jsonOutput, &noCache),
	)
	return cmd
}

func newImageGetCmd(cfg *config.Config, jsonOutput, noCache *bool) *cobra.Command {
	var (
		def   string
		local bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current profile image",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGateway(cfg, gatewayOptions{local: local, noCache: *noCache}, func(gw *gateway.Gateway) error {
				out := readImage(cmdContext(cmd), gw, def)
				if *jsonOutput {
					return writeJSON(out)
				}
				if out.Image == nil {
					return nil
				}
				return writePlain("%s\n", *out.Image)
			})
		},
	}

	cmd.Flags().StringVar(&def, "default", "", "value to print when no image is stored")
	cmd.Flags().BoolVar(&local, "local", false, "read the sqlite store directly instead of the API")
	return cmd
}

func newImageSetCmd(cfg *config.Config, jsonOutput, noCache *bool) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "set <file|url|data-url>",
		Short: "Normalize and store a new profile image",
		Args:  requireExactlyArgs(1, "image source is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGateway(cfg, gatewayOptions{local: local, noCache: *noCache}, func(gw *gateway.Gateway) error {
				out, err := saveImage(cmdContext(cmd), gw, newNormalizer(cfg), args[0])
				if err != nil {
					return err
				}
				if out.Status == models.StatusDegraded {
					writeWarning("origin unreachable; image kept in local cache only (%s)", out.Error)
				}
				if *jsonOutput {
					return writeJSON(out)
				}
				return writePlain("%s (%s)\n", out.Status, out.Detail)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "write to the sqlite store directly instead of the API")
	return cmd
}

func newImageClearCacheCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove the local copy of the profile image",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cfg)
			if err != nil {
				return err
			}
			return c.Clear(cmdContext(cmd))
		},
	}
}

func newImageStatusCmd(cfg *config.Config, jsonOutput, noCache *bool) *cobra.Command {
	var yamlOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare the origin and the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "memory"
			if !*noCache {
				resolved, err := cachePath(cfg)
				if err != nil {
					return err
				}
				path = resolved
			}
			return withGateway(cfg, gatewayOptions{noCache: *noCache}, func(gw *gateway.Gateway) error {
				out := imageStatus(cmdContext(cmd), gw)
				out.CachePath = path
				switch {
				case *jsonOutput:
					return writeJSON(out)
				case yamlOutput:
					return writeYAML(out)
				}
				return writeStatusPlain(out)
			})
		},
	}

	cmd.Flags().BoolVar(&yamlOutput, "yaml", false, "output YAML")
	return cmd
}

func readImage(ctx context.Context, gw *gateway.Gateway, def string) imageGetOutput {
	value, ok := gw.GetImage(ctx)
	if !ok {
		if def == "" {
			return imageGetOutput{}
		}
		value = def
	}
	return imageGetOutput{Image: &value}
}

// saveImage returns an error for inputs that could not be normalized or were
// rejected. Degraded writes are not errors.
func saveImage(ctx context.Context, gw *gateway.Gateway, n *imaging.Normalizer, source string) (imageSetOutput, error) {
	normalized, err := n.Normalize(source, nil)
	if err != nil {
		return imageSetOutput{Status: models.StatusRejected, Error: err.Error()}, err
	}

	result := gw.SetImage(ctx, normalized.Value)
	out := imageSetOutput{
		Status: result.Status,
		Source: normalized.Source,
		Width:  normalized.Width,
		Height: normalized.Height,
		Detail: describeSource(normalized),
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}
	if result.Status == models.StatusRejected {
		return out, result.Err
	}
	return out, nil
}

func imageStatus(ctx context.Context, gw *gateway.Gateway) imageStatusOutput {
	var out imageStatusOutput

	originValue, originOK, originErr := gw.OriginImage(ctx)
	if originErr != nil {
		out.OriginError = originErr.Error()
	} else {
		out.OriginReachable = true
		out.OriginHasImage = originOK
	}

	cachedValue, cachedOK, cacheErr := gw.CachedImage(ctx)
	if cacheErr != nil {
		out.CacheError = cacheErr.Error()
	}
	out.CachePresent = cachedOK

	out.InSync = originErr == nil && cacheErr == nil && originOK == cachedOK && originValue == cachedValue
	return out
}

func writeStatusPlain(out imageStatusOutput) error {
	origin := "reachable"
	if !out.OriginReachable {
		origin = "unreachable"
	}
	if err := writePlain("origin: %s\n", origin); err != nil {
		return err
	}
	if out.OriginError != "" {
		if err := writePlain("origin_error: %s\n", abbreviate(out.OriginError, plainValueLimit*2)); err != nil {
			return err
		}
	}
	if err := writePlain("origin_has_image: %t\n", out.OriginHasImage); err != nil {
		return err
	}
	if err := writePlain("cache_path: %s\ncache_present: %t\n", out.CachePath, out.CachePresent); err != nil {
		return err
	}
	return writePlain("in_sync: %t\n", out.InSync)
}

func describeSource(n imaging.Normalized) string {
	if n.Source == imaging.SourceURL {
		return fmt.Sprintf("url %s", abbreviate(n.Value, plainValueLimit))
	}
	return fmt.Sprintf("jpeg %dx%d", n.Width, n.Height)
}
