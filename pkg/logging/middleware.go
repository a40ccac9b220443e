package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id on preview requests and icon
// fetches.
const RequestIDHeader = "X-Request-ID"

// requestID returns the id from h, or a new one when there is none.
func requestID(h http.Header) (id string, generated bool) {
	if id = h.Get(RequestIDHeader); id != "" {
		return id, false
	}
	return uuid.New().String(), true
}

// RequestIDMiddleware tags each preview request with an id and logs its
// outcome. Event streams stay open for the life of a browser tab, so they
// are logged at debug level when they end.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := requestID(r.Header)
		ctx := WithRequestID(r.Context(), id)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, id)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"durationMs", time.Since(start).Milliseconds(),
		}
		switch {
		case rec.status >= 400:
			WarnContext(ctx, "request failed", attrs...)
		case strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"):
			DebugContext(ctx, "event stream closed", attrs...)
		default:
			InfoContext(ctx, "request completed", attrs...)
		}
	})
}

// responseRecorder captures the status and body size of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

// Flush keeps SSE working through the wrapper.
func (rw *responseRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
