package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cliphub.org/internal/auth"
	"cliphub.org/internal/social"
	"cliphub.org/internal/video"
)

// envelope is the uniform response body. Success mirrors the status code
// so clients can branch without inspecting numbers.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, code int, data any, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    code < 400,
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, nil, message)
}

// writeServiceError maps domain sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenMismatch),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidUser),
		errors.Is(err, video.ErrInvalidInput),
		errors.Is(err, social.ErrInvalidInput),
		errors.Is(err, social.ErrAlreadyRated):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, video.ErrForbidden),
		errors.Is(err, social.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, video.ErrNotFound),
		errors.Is(err, social.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrStoreUnavailable),
		errors.Is(err, video.ErrStoreUnavailable),
		errors.Is(err, social.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
