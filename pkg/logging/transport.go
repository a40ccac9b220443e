package logging

import (
	"net/http"
	"time"
)

// Transport logs outgoing requests (icon downloads) with a correlation id.
type Transport struct {
	Next http.RoundTripper
}

// NewTransport wraps next, or http.DefaultTransport when next is nil.
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	id, generated := requestID(req.Header)
	if generated {
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}
	ctx := WithRequestID(req.Context(), id)

	start := time.Now()
	DebugContext(ctx, "fetch started", "method", req.Method, "url", req.URL.String())

	resp, err := t.Next.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		WarnContext(ctx, "fetch failed", "url", req.URL.String(), "error", err, "durationMs", duration.Milliseconds())
		return nil, err
	}

	if resp.StatusCode >= 400 {
		WarnContext(ctx, "fetch failed", "url", req.URL.String(), "status", resp.StatusCode, "durationMs", duration.Milliseconds())
	} else {
		InfoContext(ctx, "fetch completed", "url", req.URL.String(), "status", resp.StatusCode, "durationMs", duration.Milliseconds())
	}
	return resp, nil
}
