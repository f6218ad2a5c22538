package api

import (
	"context"
	"errors"
	"fmt"

	"portrait/internal/models"
)

// OriginClient exposes the remote settings row as a gateway origin.
// Transport failures are reported as models.ErrStoreUnavailable.
type OriginClient struct {
	client *Client
}

// NewOriginClient wraps client.
func NewOriginClient(client *Client) *OriginClient {
	return &OriginClient{client: client}
}

// Read fetches the profile image. The HTTP API serves exactly one key.
func (o *OriginClient) Read(ctx context.Context, key string) (string, bool, error) {
	if err := o.checkKey(key); err != nil {
		return "", false, err
	}
	value, ok, err := o.client.GetProfileImage(ctx)
	if err != nil {
		return "", false, classify(err)
	}
	return value, ok, nil
}

// Write uploads the profile image.
func (o *OriginClient) Write(ctx context.Context, key, value string) error {
	if err := o.checkKey(key); err != nil {
		return err
	}
	if _, err := o.client.SaveProfileImage(ctx, value); err != nil {
		return classify(err)
	}
	return nil
}

func (o *OriginClient) checkKey(key string) error {
	if o == nil || o.client == nil {
		return fmt.Errorf("%w: api client is not configured", models.ErrStoreUnavailable)
	}
	if key != models.ProfileImageKey {
		return fmt.Errorf("%w: unsupported key %q", models.ErrInvalidInput, key)
	}
	return nil
}

// classify leaves taxonomy errors alone and marks everything else unavailable.
func classify(err error) error {
	if errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
}
