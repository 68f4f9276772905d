// Package respond writes JSON success and error responses.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/safecollab/safecollab/internal/apperr"
)

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes data as JSON with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorMessage writes an error envelope with an explicit code and message.
func ErrorMessage(w http.ResponseWriter, statusCode int, code, message string) {
	JSON(w, statusCode, errorEnvelope{
		Error: errorDetail{Code: code, Message: message},
	})
}

// Error maps err to its apperr kind and writes it. Internal failures are
// logged with their cause and reported with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", w.Header().Get("X-Request-ID"),
			"error", err,
		)
	}
	ErrorMessage(w, StatusFor(kind), string(kind), apperr.MessageOf(err))
}

// StatusFor returns the HTTP status code for an error kind.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.BadRequest:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.InvalidOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
