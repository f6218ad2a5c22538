package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateSession records one operator browser session by token hash.
func (s *Store) CreateSession(ctx context.Context, tokenHash string, expiresAt, createdAt time.Time) error {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return fmt.Errorf("token hash is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, expires_at, revoked_at, created_at)
		VALUES (?, ?, ?, NULL, ?)
	`, "ps-"+uuid.NewString(), tokenHash, dbFormatTime(expiresAt), dbFormatTime(createdAt))
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// SessionActive reports whether a non-revoked, unexpired session exists for tokenHash.
func (s *Store) SessionActive(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return false, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sessions
		WHERE token_hash = ?
		  AND revoked_at IS NULL
		  AND expires_at > ?
	`, tokenHash, dbFormatTime(now)).Scan(&count)
	if err != nil {
		return false, unavailable(err)
	}
	return count > 0, nil
}

// RevokeSession marks one session revoked by token hash.
func (s *Store) RevokeSession(ctx context.Context, tokenHash string, revokedAt time.Time) error {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET revoked_at = ?
		WHERE token_hash = ?
		  AND revoked_at IS NULL
	`, dbFormatTime(revokedAt), tokenHash)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// PurgeExpiredSessions deletes expired or revoked sessions and returns how many were removed.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE expires_at <= ?
		   OR revoked_at IS NOT NULL
	`, dbFormatTime(now))
	if err != nil {
		return 0, unavailable(err)
	}
	return result.RowsAffected()
}
