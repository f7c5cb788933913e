package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/sampottinger/kipling-package-index/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id tracing assigned to the request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// tracing tags each request with the caller's X-Request-ID or a new UUID
// and echoes it in the response.
func tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status    int
	bytesSent int
	wrote     bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	n, err := w.ResponseWriter.Write(b)
	w.bytesSent += n
	return n, err
}

// loggingMiddleware writes one line per response: error for 5xx, warn for
// 4xx, info otherwise.
func loggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := log.With("request_id", RequestID(ctx))

		l.Debug(ctx, "request", "method", r.Method, "uri", r.RequestURI)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		args := []any{"method", r.Method, "uri", r.RequestURI, "status", sw.status, "bytes_sent", sw.bytesSent}
		switch {
		case sw.status >= http.StatusInternalServerError:
			l.Error(ctx, "response", args...)
		case sw.status >= http.StatusBadRequest:
			l.Warn(ctx, "response", args...)
		default:
			l.Info(ctx, "response", args...)
		}
	})
}

// rescueing turns a handler panic into a 500 envelope.
func rescueing(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				log.Error(r.Context(), "request panic",
					"request_id", RequestID(r.Context()),
					"method", r.Method, "uri", r.RequestURI,
					"panic", p, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, failure(internalMessage))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
