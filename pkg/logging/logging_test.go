package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Setup(&buf, level, false)
	t.Cleanup(func() { Setup(os.Stderr, slog.LevelInfo, false) })
	return &buf
}

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.With("diagram", "demo").Info("diagram rendered", "path", "out/my demo.png", "durationMs", int64(12), "edges", 3)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[INFO]  "), line)
	assert.Contains(t, line, "diagram rendered | diagram=demo")
	assert.Contains(t, line, `path="out/my demo.png"`)
	assert.Contains(t, line, "duration=12ms")
	assert.Contains(t, line, "edges=3")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestCompactHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]  ")

	buf.Reset()
	l = slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))
	l.Log(context.Background(), LevelTrace, "edge recorded")
	assert.Contains(t, buf.String(), "[TRACE] ")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 3, LevelTrace},
		{"warn", 2, slog.LevelWarn},
		{"ERROR", 0, slog.LevelError},
		{"trace", 0, LevelTrace},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.verbosity, tt.count)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q/%d", tt.verbosity, tt.count)
	}

	_, err := ParseLevel("loud", 0)
	assert.Error(t, err)
}

func TestTransportAddsRequestID(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)

	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(nil)}
	resp, err := client.Get(srv.URL + "/envoy.png")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Len(t, seen, 36)
	assert.Contains(t, buf.String(), "fetch failed")
	assert.Contains(t, buf.String(), "req="+seen[:8])
	assert.Contains(t, buf.String(), "status=404")
}

func TestRequestIDMiddleware(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", GetRequestID(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/diagrams/demo", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "requestID=abc")
}
