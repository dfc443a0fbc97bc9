package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// LogProvider supplies the logger used by the middleware.
type LogProvider interface {
	Logger() *slog.Logger
}

func loggerFrom(provider LogProvider) *slog.Logger {
	if provider != nil {
		if logger := provider.Logger(); logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// RequestLogger logs one debug line per request.
func RequestLogger(provider LogProvider) func(http.Handler) http.Handler {
	logger := loggerFrom(provider)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startedAt := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug(
				"http request",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"status", rec.status,
				"bytes", rec.written,
				"duration_ms", time.Since(startedAt).Milliseconds(),
			)
		})
	}
}

// RecoverJSON turns a handler panic into a 500 with the usual error body.
func RecoverJSON(provider LogProvider) func(http.Handler) http.Handler {
	logger := loggerFrom(provider)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				logger.Error(
					"panic recovered",
					"panic", fmt.Sprint(recovered),
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	n, err := r.ResponseWriter.Write(body)
	r.written += n
	return n, err
}
