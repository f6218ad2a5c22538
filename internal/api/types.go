package api

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ProfileImageResponse is returned by GET /api/profile-image. Image is null when unset.
type ProfileImageResponse struct {
	Image *string `json:"image"`
}

// ProfileImageSaveRequest is the body of POST /api/profile-image.
type ProfileImageSaveRequest struct {
	Image string `json:"image" validate:"required,notblank"`
}

// ProfileImageSaveResponse acknowledges a stored image.
type ProfileImageSaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// AuthLoginRequest is the body of POST /api/auth/login.
type AuthLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AuthMeResponse reports the caller's operator state.
type AuthMeResponse struct {
	Authenticated bool   `json:"authenticated"`
	AuthRequired  bool   `json:"auth_required"`
	AuthType      string `json:"auth_type,omitempty"`
}
