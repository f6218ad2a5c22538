package models

import (
	"errors"
	"net/url"
	"strings"
)

const (
	// ProfileImageKey is the settings row holding the current profile image.
	ProfileImageKey = "profile_image"
	// OperatorPasswordKey is the settings row holding the operator bcrypt hash.
	OperatorPasswordKey = "operator_password_hash"

	inlineImagePrefix = "data:image/"
)

var (
	// ErrInvalidInput marks caller errors such as a missing or empty image value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable marks transport or storage failures of the origin.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDecodeFailure marks image payloads that could not be decoded.
	ErrDecodeFailure = errors.New("image decode failed")
)

// SyncStatus reports how far a profile image write got.
type SyncStatus string

const (
	// StatusSynced means the origin accepted the write and the local cache mirrors it.
	StatusSynced SyncStatus = "synced"
	// StatusDegraded means the origin was unreachable; the value lives in the local cache only.
	StatusDegraded SyncStatus = "degraded"
	// StatusRejected means the value was refused and nothing was written.
	StatusRejected SyncStatus = "rejected"
)

// SaveResult is the outcome of one profile image write.
type SaveResult struct {
	Status SyncStatus `json:"status"`
	Value  string     `json:"-"`
	Err    error      `json:"-"`
}

// Durable reports whether the write reached the origin store.
func (r SaveResult) Durable() bool {
	return r.Status == StatusSynced
}

// IsRemoteImageURL reports whether raw is an absolute http(s) URL with a host.
func IsRemoteImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsInlineImage reports whether raw is a base64 image data URL.
func IsInlineImage(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(raw), inlineImagePrefix) {
		return false
	}
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return false
	}
	return strings.HasSuffix(strings.ToLower(raw[:comma]), ";base64")
}
