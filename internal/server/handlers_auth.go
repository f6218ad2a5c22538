package server

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portrait/internal/api"
)

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req api.AuthLoginRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("password is required"), ErrCodeMissingRequired))
		return
	}

	now := time.Now().UTC()
	limiterKey := loginAttemptKey(r)
	if retryAfter, ok := s.loginLimiter.Check(limiterKey, now); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		s.writeErrorReq(w, r, http.StatusTooManyRequests, tooManyRequests(fmt.Errorf("too many login attempts; retry later")))
		return
	}

	result, err := s.authService.Login(r.Context(), req.Password, now)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidCredentials):
			s.loginLimiter.Fail(limiterKey, now)
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(errInvalidCredentials))
		case errors.Is(err, errCredentialsNotConfigured):
			s.writeErrorReq(w, r, http.StatusForbidden, forbidden(err))
		case strings.Contains(strings.ToLower(err.Error()), "password"):
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeMissingRequired))
		default:
			s.writeStoreError(w, r, err)
		}
		return
	}
	s.loginLimiter.Clear(limiterKey)

	ttlSeconds := int(defaultSessionTTL / time.Second)
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   ttlSeconds,
		Expires:  result.ExpiresAt,
	})

	s.writeJSON(w, http.StatusOK, api.AuthMeResponse{
		Authenticated: true,
		AuthRequired:  true,
		AuthType:      authTypeSession,
	})
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)
	if token != "" && s.authService != nil {
		if err := s.authService.RevokeSessionToken(r.Context(), token, time.Now().UTC()); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	required, err := s.credentialsConfigured(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	principal, ok, err := s.authenticate(r)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := api.AuthMeResponse{
		Authenticated: ok,
		AuthRequired:  required,
	}
	if ok {
		resp.AuthType = principal.AuthType
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// loginAttemptKey buckets attempts per client address. There is one operator
// account, so the address is the only useful dimension.
func loginAttemptKey(r *http.Request) string {
	ip := requestClientIP(r)
	if ip == "" {
		ip = "<unknown>"
	}
	return ip
}

func requestClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err == nil {
		return strings.TrimSpace(host)
	}
	return remote
}
