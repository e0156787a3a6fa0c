package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/docsecure/docsecure/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Meta: buildMeta(r)})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Code: code, Message: message, Details: details}, Meta: buildMeta(r)})
}

// ServiceError translates a service-layer failure into its HTTP shape.
// Anything outside the known taxonomy is a 500 with no detail leaked.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPayloadInvalid):
		Error(w, r, http.StatusBadRequest, "invalid_payload", err.Error(), nil)
	case errors.Is(err, service.ErrUnauthenticated):
		Error(w, r, http.StatusUnauthorized, "unauthenticated", err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		Error(w, r, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		Error(w, r, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, service.ErrConflict):
		Error(w, r, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		Error(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func buildMeta(r *http.Request) meta {
	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}
	if id == "" {
		id = "req-unknown"
	}
	return meta{RequestID: id, Timestamp: time.Now().UTC()}
}
