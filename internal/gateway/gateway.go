// Package gateway reconciles the origin store and the local cache for the
// profile image.
//
// Reads prefer the origin and fall back to the cache. Writes go to the origin
// first and degrade to cache-only when it is unreachable. The outcome of every
// write is returned as a models.SaveResult instead of being swallowed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"portrait/internal/models"
)

// Origin is the authoritative store of the profile image.
type Origin interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
}

// Cache is a device-local, non-authoritative mirror.
type Cache interface {
	Read(ctx context.Context) (string, bool, error)
	Write(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

// Gateway applies the cache-aside-with-fallback policy.
type Gateway struct {
	origin Origin
	cache  Cache
	key    string
	logger *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithKey overrides the settings key. Only tests need this.
func WithKey(key string) Option {
	return func(g *Gateway) {
		if strings.TrimSpace(key) != "" {
			g.key = key
		}
	}
}

// New builds a gateway over origin and cache.
func New(origin Origin, cache Cache, opts ...Option) *Gateway {
	g := &Gateway{
		origin: origin,
		cache:  cache,
		key:    models.ProfileImageKey,
		logger: slog.Default().With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetImage returns the current image. It never fails; ok is false when
// neither the origin nor the cache holds a value.
func (g *Gateway) GetImage(ctx context.Context) (string, bool) {
	value, ok, err := g.readOrigin(ctx)
	if err == nil && ok {
		if cacheErr := g.writeCache(ctx, value); cacheErr != nil {
			g.logger.Warn("cache write-through failed", "error", cacheErr)
		}
		return value, true
	}
	if err != nil {
		g.logger.Warn("origin read failed; using local cache", "error", err)
	}

	cached, ok, cacheErr := g.readCache(ctx)
	if cacheErr != nil {
		g.logger.Warn("cache read failed", "error", cacheErr)
		return "", false
	}
	return cached, ok
}

// ImageOrDefault returns the current image or def when none is stored.
func (g *Gateway) ImageOrDefault(ctx context.Context, def string) string {
	if value, ok := g.GetImage(ctx); ok {
		return value
	}
	return def
}

// SetImage writes value to the origin and mirrors it locally.
func (g *Gateway) SetImage(ctx context.Context, value string) models.SaveResult {
	if strings.TrimSpace(value) == "" {
		return models.SaveResult{
			Status: models.StatusRejected,
			Err:    fmt.Errorf("%w: image data is required", models.ErrInvalidInput),
		}
	}

	err := g.writeOrigin(ctx, value)
	switch {
	case err == nil:
		if cacheErr := g.writeCache(ctx, value); cacheErr != nil {
			// The origin holds the value; a stale mirror only affects offline reads.
			g.logger.Warn("cache update after synced write failed", "error", cacheErr)
		}
		g.logger.Debug("profile image synced")
		return models.SaveResult{Status: models.StatusSynced, Value: value}
	case errors.Is(err, models.ErrInvalidInput):
		g.logger.Debug("profile image rejected by origin", "error", err)
		return models.SaveResult{Status: models.StatusRejected, Err: err}
	}

	g.logger.Warn("origin write failed; keeping image in local cache only", "error", err)
	result := models.SaveResult{Status: models.StatusDegraded, Value: value, Err: err}
	if cacheErr := g.writeCache(ctx, value); cacheErr != nil {
		g.logger.Error("local cache write failed during degraded save", "error", cacheErr)
		result.Err = errors.Join(err, fmt.Errorf("cache write: %w", cacheErr))
	}
	return result
}

// ClearCache drops the local copy. The origin record is left untouched.
func (g *Gateway) ClearCache(ctx context.Context) error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Clear(ctx)
}

// CachedImage returns the local copy without consulting the origin.
func (g *Gateway) CachedImage(ctx context.Context) (string, bool, error) {
	return g.readCache(ctx)
}

// OriginImage returns the origin value without touching the cache.
func (g *Gateway) OriginImage(ctx context.Context) (string, bool, error) {
	return g.readOrigin(ctx)
}

func (g *Gateway) readOrigin(ctx context.Context) (string, bool, error) {
	if g.origin == nil {
		return "", false, fmt.Errorf("%w: origin is not configured", models.ErrStoreUnavailable)
	}
	return g.origin.Read(ctx, g.key)
}

func (g *Gateway) writeOrigin(ctx context.Context, value string) error {
	if g.origin == nil {
		return fmt.Errorf("%w: origin is not configured", models.ErrStoreUnavailable)
	}
	return g.origin.Write(ctx, g.key, value)
}

func (g *Gateway) readCache(ctx context.Context) (string, bool, error) {
	if g.cache == nil {
		return "", false, nil
	}
	return g.cache.Read(ctx)
}

func (g *Gateway) writeCache(ctx context.Context, value string) error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Write(ctx, value)
}
