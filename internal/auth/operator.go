package auth

import (
	"context"
	"time"

	"portrait/internal/models"
)

// SettingWriter is the slice of the settings store needed to persist the operator hash.
type SettingWriter interface {
	UpsertSetting(ctx context.Context, key, value string, now time.Time) error
}

// StoreOperatorPassword hashes password and stores it as the operator credential.
func StoreOperatorPassword(ctx context.Context, w SettingWriter, password string, now time.Time) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return w.UpsertSetting(ctx, models.OperatorPasswordKey, hash, now)
}
