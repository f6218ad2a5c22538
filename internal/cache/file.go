package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDirName  = "portrait"
	defaultFileName = "profile_image"
)

// FileCache mirrors the last known-good profile image in one local file.
type FileCache struct {
	path string
}

// DefaultPath returns the per-user cache location for the profile image mirror.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultDirName, defaultFileName), nil
}

// NewFileCache creates a file cache at path, creating parent directories.
func NewFileCache(path string) (*FileCache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, err
	}
	return &FileCache{path: abs}, nil
}

// Path returns the absolute cache file path.
func (c *FileCache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Read returns the cached value. ok is false when nothing is cached.
func (c *FileCache) Read(ctx context.Context) (string, bool, error) {
	if c == nil {
		return "", false, fmt.Errorf("cache is not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// Write replaces the cached value via temp file and rename so readers never see a partial value.
func (c *FileCache) Write(ctx context.Context, value string) error {
	if c == nil {
		return fmt.Errorf("cache is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.WriteString(value); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Clear removes the cached value. A missing file is not an error.
func (c *FileCache) Clear(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("cache is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
