package server

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

const staticIndexFile = "index.html"

// staticHandler serves the browser client from staticDir. Unknown paths
// outside /api/ get index.html so client-side routes survive a reload.
func (s *Server) staticHandler() http.Handler {
	root := os.DirFS(s.staticDir)
	fileServer := http.FileServerFS(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			s.writeServiceError(w, r, notFound(fmt.Errorf("route not found")))
			return
		}

		asset := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if asset != "" && asset != staticIndexFile {
			if info, err := fs.Stat(root, asset); err == nil && !info.IsDir() {
				if isFingerprintAsset(asset) {
					w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				} else {
					w.Header().Set("Cache-Control", "no-cache")
				}
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		s.serveIndex(w, r, root)
	})
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request, root fs.FS) {
	index, err := fs.ReadFile(root, staticIndexFile)
	if err != nil {
		s.writeServiceError(w, r, notFound(fmt.Errorf("index.html not found in static dir")))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(index)
}

func isFingerprintAsset(assetPath string) bool {
	base := path.Base(strings.TrimSpace(assetPath))
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, ch := range hash {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
