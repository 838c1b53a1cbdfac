package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/render"
	"github.com/couchcryptid/diabetes-care-api/internal/validation"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeValidationError(w http.ResponseWriter, err *validation.RequestValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, err.ToAPIError())
}

// statusFor maps a service error onto its response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed", "path", r.URL.Path, "status", status, "error", err)

	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

type imageBody struct {
	Image  string        `json:"image"`
	Format render.Format `json:"format"`
}

func writeImage(w http.ResponseWriter, format render.Format, img []byte) {
	if format == render.FormatBase64 {
		writeJSON(w, http.StatusOK, imageBody{Image: render.EncodeBase64(img), Format: render.FormatBase64})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img) //nolint:errcheck // client may have gone away
}
