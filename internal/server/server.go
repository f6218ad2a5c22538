package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"portrait/internal/store"
)

const (
	apiTokenEnvKey        = "PORTRAIT_API_TOKEN"
	allowRemoteEnvKey     = "PORTRAIT_ALLOW_REMOTE"
	readHeaderTimeout     = 5 * time.Second
	readTimeout           = 30 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
	sessionPurgeInterval  = time.Hour
	defaultMaxUploadBytes = 10 << 20 // 10 MiB
	defaultCORSOrigin     = "*"

	loginMaxFailures   = 5
	loginFailureWindow = 5 * time.Minute
	loginBlockDuration = 15 * time.Minute
)

// Store is the persistence surface the server needs.
type Store interface {
	store.SettingsStore
	store.SessionStore
}

// Options holds runtime knobs that come from configuration.
type Options struct {
	APIToken       string
	CORSOrigin     string
	StaticDir      string
	MaxUploadBytes int64
}

// Server wraps HTTP handlers for the portrait API.
type Server struct {
	addr           string
	store          Store
	authService    *AuthService
	logger         *slog.Logger
	apiToken       string
	corsOrigin     string
	staticDir      string
	maxUploadBytes int64
	loginLimiter   *loginLimiter
	metrics        *httpMetrics
	validate       *requestValidator
}

// New creates a new server instance.
func New(addr string, st Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:           addr,
		store:          st,
		authService:    NewAuthService(st, st),
		logger:         logger,
		apiToken:       strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
		corsOrigin:     defaultCORSOrigin,
		maxUploadBytes: defaultMaxUploadBytes,
		loginLimiter:   newLoginLimiter(loginMaxFailures, loginFailureWindow, loginBlockDuration),
		metrics:        newHTTPMetrics(),
		validate:       newRequestValidator(),
	}
	s.metrics.trackLoginLimiter(s.loginLimiter)
	return s
}

// Configure applies runtime options. Zero values keep the defaults.
func (s *Server) Configure(opts Options) {
	if token := strings.TrimSpace(opts.APIToken); token != "" {
		s.apiToken = token
	}
	if origin := strings.TrimSpace(opts.CORSOrigin); origin != "" {
		s.corsOrigin = origin
	}
	s.staticDir = strings.TrimSpace(opts.StaticDir)
	if opts.MaxUploadBytes > 0 {
		s.maxUploadBytes = opts.MaxUploadBytes
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go s.purgeSessionsLoop(purgeCtx, sessionPurgeInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) purgeSessionsLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		s.purgeSessions(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) purgeSessions(ctx context.Context) {
	if s.store == nil {
		return
	}
	removed, err := s.store.PurgeExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.log().Warn("purge expired sessions", "error", err)
		}
		return
	}
	if removed > 0 {
		s.log().Debug("purged expired sessions", "count", removed)
	}
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
