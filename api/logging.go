package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

type loggerKey struct{}

// requestLogger logs each request with its status and duration and stores a request-scoped entry
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		entry := log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestID": middleware.GetReqID(r.Context()),
		})

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(contextWithLogger(r.Context(), entry))
		next.ServeHTTP(ww, r)

		fields := log.Fields{
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(started),
		}
		switch {
		case ww.Status() >= http.StatusInternalServerError:
			entry.WithFields(fields).Error("Request failed")
		case ww.Status() >= http.StatusBadRequest:
			entry.WithFields(fields).Info("Request rejected")
		default:
			entry.WithFields(fields).Debug("Request served")
		}
	})
}
