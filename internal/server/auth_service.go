package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	internalauth "portrait/internal/auth"
	"portrait/internal/models"
	"portrait/internal/store"
)

const (
	sessionCookieName = "portrait_session"
	authTypeBearer    = "bearer"
	authTypeSession   = "session"
)

var defaultSessionTTL = 24 * time.Hour

var (
	errUnauthorized             = errors.New("unauthorized")
	errInvalidCredentials       = errors.New("invalid credentials")
	errCredentialsNotConfigured = errors.New("operator credentials not configured")
)

// AuthService encapsulates operator login backed by the settings and session tables.
type AuthService struct {
	settings   store.SettingsStore
	sessions   store.SessionStore
	sessionTTL time.Duration
}

type authLoginResult struct {
	Token     string
	ExpiresAt time.Time
}

func NewAuthService(settings store.SettingsStore, sessions store.SessionStore) *AuthService {
	if settings == nil || sessions == nil {
		return nil
	}
	return &AuthService{settings: settings, sessions: sessions, sessionTTL: defaultSessionTTL}
}

// PasswordConfigured reports whether an operator password hash is stored.
func (a *AuthService) PasswordConfigured(ctx context.Context) (bool, error) {
	if a == nil || a.settings == nil {
		return false, nil
	}
	_, ok, err := a.settings.GetSetting(ctx, models.OperatorPasswordKey)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (a *AuthService) Login(ctx context.Context, password string, now time.Time) (*authLoginResult, error) {
	if a == nil || a.settings == nil {
		return nil, errCredentialsNotConfigured
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	hash, ok, err := a.settings.GetSetting(ctx, models.OperatorPasswordKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errCredentialsNotConfigured
	}
	if !internalauth.VerifyPassword(hash, password) {
		return nil, errInvalidCredentials
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(a.sessionTTL)
	if err := a.sessions.CreateSession(ctx, hashSessionToken(token), expiresAt, now); err != nil {
		return nil, err
	}

	return &authLoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

func (a *AuthService) AuthenticateSessionToken(ctx context.Context, token string, now time.Time) (bool, error) {
	if a == nil || a.sessions == nil {
		return false, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	return a.sessions.SessionActive(ctx, hashSessionToken(token), now)
}

func (a *AuthService) RevokeSessionToken(ctx context.Context, token string, now time.Time) error {
	if a == nil || a.sessions == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return a.sessions.RevokeSession(ctx, hashSessionToken(token), now)
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
