package main

import (
	"fmt"
	"log/slog"
	"strings"

	"portrait/internal/api"
	"portrait/internal/cache"
	"portrait/internal/config"
	"portrait/internal/gateway"
	"portrait/internal/imaging"
	"portrait/internal/store"
)

func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	return fn(api.NewClient(cfg.APIURL))
}

// gatewayOptions selects the origin and cache used by the image commands.
type gatewayOptions struct {
	local   bool
	noCache bool
}

// withGateway builds the read/write gateway used by the image commands. The
// origin is the HTTP API, or the sqlite store directly when local is set.
// noCache swaps the file cache for a process-local one.
func withGateway(cfg *config.Config, opts gatewayOptions, fn func(*gateway.Gateway) error) error {
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	var localCache gateway.Cache = cache.NewMemoryCache()
	if !opts.noCache {
		fc, err := openCache(cfg)
		if err != nil {
			return err
		}
		localCache = fc
	}
	logger := slog.Default().With("component", "gateway")

	if opts.local {
		if cfg.DBPath == "" {
			return fmt.Errorf("db path is required")
		}
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		return fn(gateway.New(st, localCache, gateway.WithLogger(logger)))
	}

	origin := api.NewOriginClient(api.NewClient(cfg.APIURL))
	return fn(gateway.New(origin, localCache, gateway.WithLogger(logger)))
}

func cachePath(cfg *config.Config) (string, error) {
	if cfg != nil && strings.TrimSpace(cfg.CachePath) != "" {
		return cfg.CachePath, nil
	}
	return cache.DefaultPath()
}

func openCache(cfg *config.Config) (*cache.FileCache, error) {
	path, err := cachePath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}
	return cache.NewFileCache(path)
}

func newNormalizer(cfg *config.Config) *imaging.Normalizer {
	n := imaging.New()
	if cfg == nil {
		return n
	}
	n.MaxDimension = cfg.Image.MaxDimension
	n.Quality = cfg.Image.JPEGQuality
	n.MaxInputBytes = cfg.Image.MaxUploadBytes
	return n
}
