package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls s.respondError(w, r, err)
//  3. The HTTP status is chosen from the error's identity
//  4. Error is mapped via core.MapError to get a user-friendly message
//  5. Technical error + context is logged with request ID for correlation

import (
	"errors"
	"net/http"

	"github.com/dpmglangsa/gampong/internal/core"
	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/logging"
	"github.com/dpmglangsa/gampong/internal/store"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Detail names the rejected column and value for validation failures.
	Detail string `json:"detail,omitempty"`
}

// statusFor maps an error to the HTTP status returned to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, core.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidValue), errors.Is(err, core.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrProtectedPosition), errors.Is(err, core.ErrNoSecretarySlot),
		errors.Is(err, store.ErrHeaderRegion):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyExports), errors.Is(err, store.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, export.ErrTemplateMissing):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error and writes a coded JSON response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Detail = ve.Error()
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, resp)
}

// writeError writes a JSON error for failures detected in the web layer
// itself, such as malformed requests.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
