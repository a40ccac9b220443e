package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/infra-diagrams/pkg/pipeline"
	"github.com/ritzau/infra-diagrams/pkg/watcher"
)

const edgeYAML = `diagrams:
  - title: Edge
    nodes:
      - id: lb
        kind: load-balancer
      - id: app
    edges:
      - from: lb
        to: app
`

func writeDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(edgeYAML), 0o644))
	return path
}

func jobNames(jobs []pipeline.Job) []string {
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}
	return names
}

func TestJobsDefaultsToExamples(t *testing.T) {
	jobs, err := (&session{}).jobs()
	require.NoError(t, err)
	assert.Equal(t, []string{"sponsored-agent", "sponsored-agent-mtls"}, jobNames(jobs))
}

func TestJobsMixesExamplesAndFiles(t *testing.T) {
	path := writeDefinition(t)
	s := &session{args: []string{"sponsored-agent-mtls", path}}

	jobs, err := s.jobs()
	require.NoError(t, err)
	assert.Equal(t, []string{"sponsored-agent-mtls", "edge"}, jobNames(jobs))
	assert.Equal(t, path, jobs[1].Source)
	assert.Equal(t, []string{path}, s.watchPaths())
}

func TestJobsUnknownArgument(t *testing.T) {
	_, err := (&session{args: []string{"no-such-diagram"}}).jobs()
	assert.ErrorContains(t, err, `unknown diagram "no-such-diagram"`)
}

func TestFromSources(t *testing.T) {
	jobs := []pipeline.Job{
		{Name: "sponsored-agent"},
		{Name: "edge", Source: "defs/edge.yaml"},
		{Name: "core", Source: "defs/core.hcl"},
	}
	picked := fromSources(jobs, []string{"./defs/core.hcl"})
	assert.Equal(t, []string{"core"}, jobNames(picked))
}

func TestChangedPaths(t *testing.T) {
	batch := []watcher.ChangeEvent{
		{Type: watcher.ChangeTypeDefinition, Paths: []string{"a.yaml", "b.hcl"}},
		{Type: watcher.ChangeTypeIcon, Paths: []string{"logos/envoy.png", "a.yaml"}},
	}
	assert.Equal(t, []string{"a.yaml", "b.hcl", "logos/envoy.png"}, changedPaths(batch))
}

func TestListCommand(t *testing.T) {
	color.NoColor = true
	path := writeDefinition(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"list", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "sponsored-agent       Sponsored Agent Service  (built-in)")
	assert.Contains(t, out, "edge                  Edge  ("+path+")")
}

func TestRefreshIconsOnlyOnFirstRun(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("png"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	iconDir := filepath.Join(dir, "logos")
	require.NoError(t, os.Mkdir(iconDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(iconDir, "envoy.png"), []byte("old"), 0o644))

	def := filepath.Join(dir, "proxy.yaml")
	require.NoError(t, os.WriteFile(def, []byte(`diagrams:
  - title: Proxy
    icons:
      - name: envoy.png
        url: `+srv.URL+`/Envoy.png
    nodes:
      - id: proxy
        icon: envoy.png
`), 0o644))

	t.Setenv("DIAGRAMS_ICON_DIR", iconDir)
	t.Setenv("DIAGRAMS_OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("DIAGRAMS_FORMAT", "dot")
	t.Setenv("DIAGRAMS_REFRESH_ICONS", "true")

	ctx := context.Background()
	s := &session{flags: pflag.NewFlagSet("test", pflag.ContinueOnError), args: []string{def}, out: &bytes.Buffer{}}
	require.NoError(t, s.configure(ctx))

	require.NoError(t, s.run(ctx, "initial build"))
	assert.Equal(t, int32(1), hits.Load(), "the first run refreshes the icon")

	// Rebuilds caused by the watcher must not write into the icon
	// directory again, or every rebuild would trigger the next one.
	require.NoError(t, s.rebuild(ctx, &watcher.RebuildPlan{RebuildAll: true}))
	require.NoError(t, s.rebuild(ctx, &watcher.RebuildPlan{ReloadConfig: true, RebuildAll: true}))
	assert.Equal(t, int32(1), hits.Load())
	assert.FileExists(t, filepath.Join(dir, "out", "proxy.dot"))
}
