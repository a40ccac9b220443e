// Package assets retrieves remote icon images before a diagram is built.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ritzau/infra-diagrams/pkg/logging"
)

// Asset is a remote file saved under the icon directory as Name.
type Asset struct {
	Name string `json:"name" yaml:"name" hcl:"name,label"`
	URL  string `json:"url" yaml:"url" hcl:"url"`
}

// FetchError reports that an asset could not be retrieved.
type FetchError struct {
	URL    string
	Status int // HTTP status, zero when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Fetcher.
type Options struct {
	Dir     string        // where assets are saved
	Timeout time.Duration // per asset; zero means 10s
	Refresh bool          // re-download even if the file exists
}

// Fetcher downloads assets with plain HTTP GET.
type Fetcher struct {
	client *http.Client
	opts   Options
}

// NewFetcher creates a fetcher. A nil client gets one with a logging transport.
func NewFetcher(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = &http.Client{Transport: logging.NewTransport(nil)}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &Fetcher{client: client, opts: opts}
}

// ErrInvalidName reports an asset name that is not a plain file name.
var ErrInvalidName = errors.New("invalid asset name")

// ValidateName rejects names that would escape the asset directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	return nil
}

// Path returns where an asset with the given name is stored.
func (f *Fetcher) Path(name string) string {
	return filepath.Join(f.opts.Dir, name)
}

// Fetch saves the asset locally and returns its path. An existing file is
// reused unless Refresh is set. The download fails fast once the timeout
// elapses.
func (f *Fetcher) Fetch(ctx context.Context, a Asset) (string, error) {
	if err := ValidateName(a.Name); err != nil {
		return "", err
	}
	path := f.Path(a.Name)
	if !f.opts.Refresh {
		if _, err := os.Stat(path); err == nil {
			logging.Debug("reusing cached asset", "name", a.Name, "path", path)
			return path, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return "", &FetchError{URL: a.URL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: a.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: a.URL, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	if err := save(path, resp.Body); err != nil {
		return "", &FetchError{URL: a.URL, Err: err}
	}
	return path, nil
}

// FetchAll fetches every asset in order and stops at the first failure.
// The result maps asset names to local paths.
func (f *Fetcher) FetchAll(ctx context.Context, assets []Asset) (map[string]string, error) {
	paths := make(map[string]string, len(assets))
	for _, a := range assets {
		path, err := f.Fetch(ctx, a)
		if err != nil {
			return nil, err
		}
		paths[a.Name] = path
	}
	return paths, nil
}

func save(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
