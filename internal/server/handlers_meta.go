package server

import (
	"net/http"

	"portrait/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeErrorReq(w, r, http.StatusServiceUnavailable, storeUnavailable(err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}
