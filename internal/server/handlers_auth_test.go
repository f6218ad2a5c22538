package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portrait/internal/api"
)

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("expected session cookie on response")
	return nil
}

func decodeAuthMe(t *testing.T, w *httptest.ResponseRecorder) api.AuthMeResponse {
	t.Helper()
	var resp api.AuthMeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode auth me response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestAuthMeOpenMode(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	w := serve(h, http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	resp := decodeAuthMe(t, w)
	if resp.AuthRequired {
		t.Fatal("expected auth_required=false with no credentials configured")
	}
	if resp.Authenticated {
		t.Fatal("expected authenticated=false with no credentials configured")
	}
}

func TestAuthMeBearer(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Configure(Options{APIToken: "token"})
	h := srv.routes()

	resp := decodeAuthMe(t, serve(h, http.MethodGet, "/api/auth/me", "", nil))
	if !resp.AuthRequired || resp.Authenticated {
		t.Fatalf("expected required but unauthenticated, got %+v", resp)
	}

	resp = decodeAuthMe(t, serve(h, http.MethodGet, "/api/auth/me", "", withBearer("token")))
	if !resp.Authenticated || resp.AuthType != authTypeBearer {
		t.Fatalf("expected bearer authentication, got %+v", resp)
	}
}

func TestOperatorSessionLoginFlow(t *testing.T) {
	srv, st := newTestServer(t)
	seedOperatorPassword(t, st, "password-123")
	h := srv.routes()

	loginW := serve(h, http.MethodPost, "/api/auth/login", `{"password":"password-123"}`, nil)
	if loginW.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d (%s)", loginW.Code, loginW.Body.String())
	}
	sessionCookie := sessionCookieFrom(t, loginW)
	if !sessionCookie.HttpOnly {
		t.Fatal("expected HttpOnly session cookie")
	}
	if sessionCookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", sessionCookie.SameSite)
	}

	withCookie := func(r *http.Request) { r.AddCookie(sessionCookie) }

	meResp := decodeAuthMe(t, serve(h, http.MethodGet, "/api/auth/me", "", withCookie))
	if !meResp.AuthRequired || !meResp.Authenticated {
		t.Fatalf("expected authenticated auth-required response, got %+v", meResp)
	}
	if meResp.AuthType != authTypeSession {
		t.Fatalf("expected auth_type %q, got %q", authTypeSession, meResp.AuthType)
	}

	saveW := serve(h, http.MethodPost, "/api/profile-image", `{"image":"session.png"}`, withCookie)
	if saveW.Code != http.StatusOK {
		t.Fatalf("expected session save 200, got %d (%s)", saveW.Code, saveW.Body.String())
	}

	logoutW := serve(h, http.MethodPost, "/api/auth/logout", "", withCookie)
	if logoutW.Code != http.StatusNoContent {
		t.Fatalf("expected logout 204, got %d (%s)", logoutW.Code, logoutW.Body.String())
	}
	if cleared := sessionCookieFrom(t, logoutW); cleared.MaxAge >= 0 {
		t.Fatalf("expected logout to expire the cookie, got MaxAge=%d", cleared.MaxAge)
	}

	afterW := serve(h, http.MethodPost, "/api/profile-image", `{"image":"after.png"}`, withCookie)
	if afterW.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked session to be unauthorized, got %d", afterW.Code)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	srv, st := newTestServer(t)
	seedOperatorPassword(t, st, "password-123")
	h := srv.routes()

	w := serve(h, http.MethodPost, "/api/auth/login", `{"password":"wrong-password"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected login 401, got %d (%s)", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Fatal("failed login must not set a session cookie")
		}
	}
}

func TestAuthLoginMissingPassword(t *testing.T) {
	srv, st := newTestServer(t)
	seedOperatorPassword(t, st, "password-123")

	w := serve(srv.routes(), http.MethodPost, "/api/auth/login", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeMissingRequired {
		t.Fatalf("expected error_code %d, got %d", ErrCodeMissingRequired, errResp.ErrorCode)
	}
}

func TestAuthLoginWithoutPasswordConfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	w := serve(srv.routes(), http.MethodPost, "/api/auth/login", `{"password":"password-123"}`, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestAuthLoginRateLimited(t *testing.T) {
	srv, st := newTestServer(t)
	seedOperatorPassword(t, st, "password-123")
	h := srv.routes()

	for i := 0; i < loginMaxFailures; i++ {
		w := serve(h, http.MethodPost, "/api/auth/login", `{"password":"wrong-password"}`, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}

	w := serve(h, http.MethodPost, "/api/auth/login", `{"password":"password-123"}`, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once blocked, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "900" {
		t.Fatalf("expected Retry-After 900, got %q", got)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeResourceExhausted {
		t.Fatalf("expected error_code %d, got %d", ErrCodeResourceExhausted, errResp.ErrorCode)
	}
}
