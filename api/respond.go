package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"projector/service"

	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func contextWithLogger(ctx context.Context, entry *log.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

func loggerFrom(r *http.Request) *log.Entry {
	if entry, ok := r.Context().Value(loggerKey{}).(*log.Entry); ok {
		return entry
	}
	return log.NewEntry(log.StandardLogger())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrPersistence), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with its mapped status; internal details are not exposed
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		body.Field = validationErr.Field
	}

	switch status {
	case http.StatusServiceUnavailable:
		loggerFrom(r).WithError(err).Warn("Storage unavailable")
		w.Header().Set("Retry-After", "1")
		body.Error = "storage temporarily unavailable, retry the request"
	case http.StatusInternalServerError:
		loggerFrom(r).WithError(err).Error("Unhandled error")
		body.Error = "internal error"
	}

	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &service.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}
