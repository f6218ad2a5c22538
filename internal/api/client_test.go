package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portrait/internal/models"
)

func TestHTTPTimeoutFromEnv(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})

	t.Run("duration format", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "45s")
		if got := httpTimeoutFromEnv(); got != 45*time.Second {
			t.Fatalf("expected 45s timeout, got %v", got)
		}
	})

	t.Run("integer seconds", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "25")
		if got := httpTimeoutFromEnv(); got != 25*time.Second {
			t.Fatalf("expected 25s timeout, got %v", got)
		}
	})

	t.Run("invalid falls back", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "invalid")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})
}

// fakeServer mimics the profile image endpoints with an in-memory value.
func fakeServer(t *testing.T, token string) (*httptest.Server, *string) {
	t.Helper()
	var stored *string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profile-image", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ProfileImageResponse{Image: stored})
	})
	mux.HandleFunc("POST /api/profile-image", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "unauthorized", Code: "unauthorized"})
			return
		}
		var req ProfileImageSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Image data is required", Code: "invalid_argument"})
			return
		}
		value := req.Image
		stored = &value
		_ = json.NewEncoder(w).Encode(ProfileImageSaveResponse{Success: true, Message: "saved"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, stored
}

func TestClientProfileImageRoundTrip(t *testing.T) {
	t.Setenv(apiTokenEnvKey, "")
	srv, _ := fakeServer(t, "secret")
	client := NewClient(srv.URL + "/").WithToken("secret")
	ctx := context.Background()

	_, ok, err := client.GetProfileImage(ctx)
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if ok {
		t.Fatal("expected absent image on fresh server")
	}

	resp, err := client.SaveProfileImage(ctx, "data:image/jpeg;base64,AAA")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %+v", resp)
	}

	got, ok, err := client.GetProfileImage(ctx)
	if err != nil || !ok {
		t.Fatalf("get after save: ok=%v err=%v", ok, err)
	}
	if got != "data:image/jpeg;base64,AAA" {
		t.Fatalf("unexpected image %q", got)
	}
}

func TestClientErrorMapping(t *testing.T) {
	t.Setenv(apiTokenEnvKey, "")
	srv, _ := fakeServer(t, "secret")
	ctx := context.Background()

	_, err := NewClient(srv.URL).SaveProfileImage(ctx, "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	_, err = NewClient(srv.URL).WithToken("secret").SaveProfileImage(ctx, "")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecodeErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).GetProfileImage(context.Background())
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected 5xx to map to ErrStoreUnavailable, got %v", err)
	}
}

func TestOriginClientClassifiesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	origin := NewOriginClient(NewClient(url))
	ctx := context.Background()

	if _, _, err := origin.Read(ctx, models.ProfileImageKey); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected unreachable read to be ErrStoreUnavailable, got %v", err)
	}
	if err := origin.Write(ctx, models.ProfileImageKey, "v.png"); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected unreachable write to be ErrStoreUnavailable, got %v", err)
	}
}

func TestOriginClientRejectsOtherKeys(t *testing.T) {
	origin := NewOriginClient(NewClient("http://127.0.0.1:1"))
	if err := origin.Write(context.Background(), "other", "v"); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for foreign key, got %v", err)
	}
}

func TestOriginClientKeepsInvalidInput(t *testing.T) {
	t.Setenv(apiTokenEnvKey, "")
	srv, _ := fakeServer(t, "secret")
	origin := NewOriginClient(NewClient(srv.URL).WithToken("secret"))

	err := origin.Write(context.Background(), models.ProfileImageKey, "")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatal("invalid input must not be reported as unavailable")
	}
}
