package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"portrait/internal/models"
)

// GetSetting returns the value stored under key. ok is false when no row exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("%w: key is required", models.ErrInvalidInput)
	}

	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ? LIMIT 1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err)
	}
	if !value.Valid || value.String == "" {
		return "", false, nil
	}
	return value.String, true, nil
}

// UpsertSetting inserts or overwrites one settings row in a single statement.
// Concurrent writers are not coordinated; the last statement to commit wins.
func (s *Store) UpsertSetting(ctx context.Context, key, value string, now time.Time) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is required", models.ErrInvalidInput)
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: value is required", models.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, dbFormatTime(now))
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// SettingUpdatedAt returns when key was last written. Rows from legacy databases have no timestamp.
func (s *Store) SettingUpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM settings WHERE key = ? LIMIT 1", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, unavailable(err)
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, false, nil
	}
	parsed, err := dbParseTime(raw.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed, true, nil
}

// Read implements gateway.Origin.
func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	return s.GetSetting(ctx, key)
}

// Write implements gateway.Origin.
func (s *Store) Write(ctx context.Context, key, value string) error {
	return s.UpsertSetting(ctx, key, value, time.Now().UTC())
}
