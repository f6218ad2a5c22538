package server

import (
	"errors"
	"net/http"
	"time"

	"portrait/internal/api"
	"portrait/internal/models"
)

const profileImageSavedMessage = "Image saved to SQLite database"

var errImageRequired = errors.New("Image data is required")

func (s *Server) handleGetProfileImage(w http.ResponseWriter, r *http.Request) {
	value, ok, err := s.store.GetSetting(r.Context(), models.ProfileImageKey)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := api.ProfileImageResponse{}
	if ok {
		resp.Image = &value
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveProfileImage(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileImageSaveRequest
	if !s.decodeJSONLimitReq(w, r, s.maxUploadBytes, &req) {
		s.metrics.observeSave(saveOutcomeRejected)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.metrics.observeSave(saveOutcomeRejected)
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(errImageRequired, ErrCodeMissingRequired))
		return
	}

	if err := s.store.UpsertSetting(r.Context(), models.ProfileImageKey, req.Image, time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			s.metrics.observeSave(saveOutcomeRejected)
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(errImageRequired, ErrCodeMissingRequired))
			return
		}
		s.metrics.observeSave(saveOutcomeFailed)
		s.writeStoreError(w, r, err)
		return
	}

	s.metrics.observeSave(saveOutcomeStored)
	s.log().Debug("profile image saved", "bytes", len(req.Image), "request_id", requestIDFromContext(r.Context()))
	s.writeJSON(w, http.StatusOK, api.ProfileImageSaveResponse{
		Success: true,
		Message: profileImageSavedMessage,
	})
}
