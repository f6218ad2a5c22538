package store

import (
	"context"
	"time"
)

// SettingsStore abstracts the durable key/value settings table.
type SettingsStore interface {
	Ping(ctx context.Context) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	UpsertSetting(ctx context.Context, key, value string, now time.Time) error
}

// SessionStore abstracts operator session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, tokenHash string, expiresAt, createdAt time.Time) error
	SessionActive(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	RevokeSession(ctx context.Context, tokenHash string, revokedAt time.Time) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ SettingsStore = (*Store)(nil)
	_ SessionStore  = (*Store)(nil)
)
