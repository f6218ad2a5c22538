package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStaticFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestStaticRoutes(t *testing.T) {
	dir := t.TempDir()
	writeStaticFile(t, dir, "index.html", "<!doctype html><title>portrait</title>")
	writeStaticFile(t, dir, "assets/app.3f9a1c2b7d.js", "console.log('app')")
	writeStaticFile(t, dir, "favicon.ico", "icon")

	srv, _ := newTestServer(t)
	srv.Configure(Options{StaticDir: dir})
	h := srv.routes()

	t.Run("root serves index", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
		}
		if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
			t.Fatalf("expected html content type, got %q", got)
		}
		if got := w.Header().Get("Cache-Control"); got != "no-cache" {
			t.Fatalf("expected no-cache for index, got %q", got)
		}
	})

	t.Run("client routes fall back to index", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/settings/profile", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "<title>portrait</title>") {
			t.Fatalf("expected index body, got %q", w.Body.String())
		}
	})

	t.Run("fingerprinted assets are immutable", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/assets/app.3f9a1c2b7d.js", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("Cache-Control"); got != "public, max-age=31536000, immutable" {
			t.Fatalf("expected immutable cache, got %q", got)
		}
	})

	t.Run("plain assets are revalidated", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/favicon.ico", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("Cache-Control"); got != "no-cache" {
			t.Fatalf("expected no-cache, got %q", got)
		}
	})

	t.Run("api routes still handled as api", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/api/profile-image", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("Content-Type"); got != "application/json" {
			t.Fatalf("expected json content type, got %q", got)
		}
	})
}

func TestStaticDisabledByDefault(t *testing.T) {
	srv, _ := newTestServer(t)
	w := serve(srv.routes(), http.MethodGet, "/", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without static dir, got %d", w.Code)
	}
}

func TestStaticMissingIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Configure(Options{StaticDir: t.TempDir()})
	w := serve(srv.routes(), http.MethodGet, "/anything", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without index.html, got %d", w.Code)
	}
}

func TestIsFingerprintAsset(t *testing.T) {
	cases := map[string]bool{
		"assets/app.3f9a1c2b7d.js": true,
		"app.js":                   false,
		"app.min.js":               false,
		"a.1234567.css":            false,
		"vendor.DEADBEEF00.css":    true,
	}
	for asset, want := range cases {
		if got := isFingerprintAsset(asset); got != want {
			t.Fatalf("isFingerprintAsset(%q) = %v, want %v", asset, got, want)
		}
	}
}
