package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	internalauth "portrait/internal/auth"
)

type authContextKey struct{}

type authPrincipal struct {
	AuthType string
}

func contextWithAuthPrincipal(ctx context.Context, principal authPrincipal) context.Context {
	return context.WithValue(ctx, authContextKey{}, principal)
}

func authPrincipalFromContext(ctx context.Context) (authPrincipal, bool) {
	if ctx == nil {
		return authPrincipal{}, false
	}
	principal, ok := ctx.Value(authContextKey{}).(authPrincipal)
	return principal, ok
}

// requireOperator guards write routes. With no token and no password configured
// every write is refused, since there is nobody who could be authorized.
func (s *Server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok, err := s.authenticate(r)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		if ok {
			next.ServeHTTP(w, r.WithContext(contextWithAuthPrincipal(r.Context(), principal)))
			return
		}

		configured, err := s.credentialsConfigured(r)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		if !configured {
			s.writeErrorReq(w, r, http.StatusForbidden, forbidden(errCredentialsNotConfigured))
			return
		}
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(errUnauthorized))
	})
}

func (s *Server) authenticate(r *http.Request) (authPrincipal, bool, error) {
	if token := bearerToken(r); token != "" && internalauth.TokenMatches(s.apiToken, token) {
		return authPrincipal{AuthType: authTypeBearer}, true, nil
	}

	token := sessionTokenFromRequest(r)
	if token == "" || s.authService == nil {
		return authPrincipal{}, false, nil
	}
	ok, err := s.authService.AuthenticateSessionToken(r.Context(), token, time.Now().UTC())
	if err != nil {
		return authPrincipal{}, false, err
	}
	if !ok {
		return authPrincipal{}, false, nil
	}
	return authPrincipal{AuthType: authTypeSession}, true, nil
}

func (s *Server) credentialsConfigured(r *http.Request) (bool, error) {
	if s.apiToken != "" {
		return true, nil
	}
	return s.authService.PasswordConfigured(r.Context())
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func sessionTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func requestScheme(r *http.Request) string {
	if r == nil {
		return "http"
	}
	if r.TLS != nil {
		return "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return "http"
}
