package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
		ok   bool
	}{
		{"defs/edge.yaml", ChangeTypeDefinition, true},
		{"defs/edge.YML", ChangeTypeDefinition, true},
		{"defs/edge.hcl", ChangeTypeDefinition, true},
		{"diagrams.toml", ChangeTypeConfig, true},
		{"logos/envoy.png", ChangeTypeIcon, true},
		{"defs/.edge.yaml.swp", 0, false},
		{"defs/edge.yaml~", 0, false},
		{"README.md", 0, false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
}

func TestPlan(t *testing.T) {
	plan := Plan(
		ChangeEvent{Type: ChangeTypeDefinition, Paths: []string{"a.yaml", "b.hcl"}},
		ChangeEvent{Type: ChangeTypeDefinition, Paths: []string{"a.yaml"}},
	)
	assert.False(t, plan.RebuildAll)
	assert.False(t, plan.ReloadConfig)
	assert.Equal(t, []string{"a.yaml", "b.hcl"}, plan.Definitions)

	plan = Plan(ChangeEvent{Type: ChangeTypeIcon, Paths: []string{"logos/envoy.png"}})
	assert.True(t, plan.RebuildAll)
	assert.False(t, plan.ReloadConfig)

	plan = Plan(ChangeEvent{Type: ChangeTypeConfig, Paths: []string{"diagrams.toml"}})
	assert.True(t, plan.ReloadConfig)
	assert.True(t, plan.RebuildAll)

	assert.True(t, Plan().Empty())
}

func TestDebouncerBatchesBurst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 3; i++ {
		input <- ChangeEvent{Type: ChangeTypeDefinition, Paths: []string{"a.yaml"}}
	}

	select {
	case batch := <-d.Output():
		assert.Len(t, batch, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, time.Hour, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeIcon}

	select {
	case batch := <-d.Output():
		assert.Len(t, batch, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("max wait did not release the batch")
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeConfig}
	close(input)

	batch, ok := <-d.Output()
	require.True(t, ok)
	assert.Len(t, batch, 1)
	_, ok = <-d.Output()
	assert.False(t, ok)
}

func TestFileWatcherReportsDefinitionChanges(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "edge.yaml")
	require.NoError(t, os.WriteFile(def, []byte("diagrams: []\n"), 0o644))

	fw, err := NewFileWatcher([]string{def}, "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(def, []byte("diagrams: [] # edited\n"), 0o644))

	select {
	case event := <-fw.Events():
		assert.Equal(t, ChangeTypeDefinition, event.Type)
		assert.Equal(t, []string{def}, event.Paths)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestFileWatcherMissingPath(t *testing.T) {
	fw, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nope.yaml")}, "")
	require.NoError(t, err)
	defer fw.Stop()
	assert.Error(t, fw.Start(context.Background()))
}
