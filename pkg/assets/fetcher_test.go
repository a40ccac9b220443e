package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSavesAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("envoy-logo"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(nil, Options{Dir: filepath.Join(dir, "logos")})

	path, err := f.Fetch(context.Background(), Asset{Name: "envoy.png", URL: srv.URL + "/Envoy.png"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logos", "envoy.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "envoy-logo", string(data))
}

func TestFetchReusesExistingFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "envoy.png"), []byte("cached"), 0o644))
	asset := Asset{Name: "envoy.png", URL: srv.URL}

	_, err := NewFetcher(nil, Options{Dir: dir}).Fetch(context.Background(), asset)
	require.NoError(t, err)
	assert.Zero(t, hits.Load())

	path, err := NewFetcher(nil, Options{Dir: dir, Refresh: true}).Fetch(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	data, _ := os.ReadFile(path)
	assert.Equal(t, "fresh", string(data))
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := NewFetcher(nil, Options{Dir: dir}).Fetch(context.Background(), Asset{Name: "x.png", URL: srv.URL})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.Status)

	_, statErr := os.Stat(filepath.Join(dir, "x.png"))
	assert.True(t, os.IsNotExist(statErr), "no partial file may be left behind")
}

func TestFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(nil, Options{Dir: t.TempDir(), Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), Asset{Name: "slow.png", URL: srv.URL})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(nil, Options{Dir: t.TempDir()}).Fetch(context.Background(), Asset{Name: "gone.png", URL: url})
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.Status)
}

func TestFetchAllStopsAtFirstFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(nil, Options{Dir: t.TempDir()})
	paths, err := f.FetchAll(context.Background(), []Asset{
		{Name: "a.png", URL: srv.URL + "/a"},
		{Name: "b.png", URL: srv.URL + "/b"},
	})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Equal(t, f.Path("b.png"), paths["b.png"])

	_, err = f.FetchAll(context.Background(), []Asset{
		{Name: "c.png", URL: srv.URL + "/missing"},
		{Name: "d.png", URL: srv.URL + "/d"},
	})
	assert.Error(t, err)
	_, statErr := os.Stat(f.Path("d.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchRejectsNamesOutsideDir(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	root := t.TempDir()
	f := NewFetcher(nil, Options{Dir: filepath.Join(root, "logos")})

	for _, name := range []string{"../x.png", "sub/x.png", `..\x.png`, "..", ""} {
		_, err := f.Fetch(context.Background(), Asset{Name: name, URL: srv.URL})
		assert.True(t, errors.Is(err, ErrInvalidName), "%q: %v", name, err)
	}
	assert.Equal(t, int32(0), hits.Load())
	_, err := os.Stat(filepath.Join(root, "x.png"))
	assert.True(t, os.IsNotExist(err))
}
