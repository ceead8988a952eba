package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by RequestLogger
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger tags every request with an id, logs its outcome and turns
// panics into 500 responses. http.ErrAbortHandler is passed on to the server.
func RequestLogger(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			entry := log.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			defer func() {
				p := recover()
				if p == http.ErrAbortHandler {
					entry.Warn("Request aborted")
					panic(p)
				}
				if p != nil {
					entry.Errorf("Panic while handling request: %v", p)
					// Headers already sent, the client gets a truncated response
					if !sw.wroteHeader {
						writeError(sw, http.StatusInternalServerError, "internal server error")
					}
				}
				entry.WithFields(logrus.Fields{
					"status":      sw.status,
					"duration_ms": time.Since(start).Milliseconds(),
				}).Info("Request handled")
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
