package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	// Profile image. The unprefixed paths are kept as aliases.
	for _, prefix := range []string{"/api", ""} {
		mux.HandleFunc("GET "+prefix+"/profile-image", s.handleGetProfileImage)
		mux.Handle("POST "+prefix+"/profile-image", s.requireOperator(http.HandlerFunc(s.handleSaveProfileImage)))
	}

	// Operator auth.
	mux.HandleFunc("POST /api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("GET /api/auth/me", s.handleAuthMe)

	// Single page app.
	if s.staticDir != "" {
		mux.Handle("GET /", s.staticHandler())
	}

	return s.withRequestID(s.withRecover(s.withRequestLogging(s.withMetrics(s.withCORS(mux)))))
}
