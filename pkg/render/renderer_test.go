package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/infra-diagrams/pkg/diagram"
)

func sampleDiagram(t *testing.T) *diagram.Diagram {
	t.Helper()
	d := diagram.New("Sponsored Agent Service")
	users, err := d.Node("Users", diagram.KindUsers)
	require.NoError(t, err)
	svc, err := d.Node("Service", diagram.KindServer)
	require.NoError(t, err)
	_, err = d.Connect(users, svc, diagram.Metrics("heartbeat"))
	require.NoError(t, err)
	return d
}

func TestRenderWritesArtifactNamedAfterTitle(t *testing.T) {
	dir := t.TempDir()
	mock := &MockExecutor{MockOutput: []byte("\x89PNG fake")}
	r := NewRenderer(mock, Options{OutputDir: dir})

	artifact, err := r.Render(context.Background(), sampleDiagram(t))
	require.NoError(t, err)

	want := filepath.Join(dir, "sponsored_agent_service.png")
	assert.Equal(t, want, artifact.Path)
	assert.Equal(t, FormatPNG, artifact.Format)
	assert.Equal(t, 1, mock.Calls)
	assert.Equal(t, FormatPNG, mock.LastFormat)
	assert.Contains(t, string(mock.LastSource), "heartbeat")

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may remain")
}

func TestRenderTwiceFails(t *testing.T) {
	dir := t.TempDir()
	mock := &MockExecutor{MockOutput: []byte("img")}
	r := NewRenderer(mock, Options{OutputDir: dir})
	d := sampleDiagram(t)

	_, err := r.Render(context.Background(), d)
	require.NoError(t, err)

	_, err = r.Render(context.Background(), d)
	assert.ErrorIs(t, err, diagram.ErrAlreadyRendered)
	assert.Equal(t, 1, mock.Calls)
}

func TestEngineFailureIsRenderErrorWithoutArtifact(t *testing.T) {
	dir := t.TempDir()
	engineErr := errors.New("syntax error in line 3")
	r := NewRenderer(&MockExecutor{MockError: engineErr}, Options{OutputDir: dir, Format: FormatSVG})

	_, err := r.Render(context.Background(), sampleDiagram(t))

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, FormatSVG, renderErr.Format)
	assert.Equal(t, "Sponsored Agent Service", renderErr.Diagram)
	assert.ErrorIs(t, err, engineErr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmptyEngineOutputIsRenderError(t *testing.T) {
	r := NewRenderer(&MockExecutor{}, Options{OutputDir: t.TempDir()})
	_, err := r.Render(context.Background(), sampleDiagram(t))

	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
}

func TestDOTFormatSkipsEngine(t *testing.T) {
	dir := t.TempDir()
	mock := &MockExecutor{}
	r := NewRenderer(mock, Options{OutputDir: dir, Format: FormatDOT})

	artifact, err := r.Render(context.Background(), sampleDiagram(t))
	require.NoError(t, err)
	assert.Zero(t, mock.Calls)

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
	assert.Equal(t, "sponsored_agent_service.dot", filepath.Base(artifact.Path))
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"png", "SVG", "jpg", "pdf", "dot"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("gif")
	assert.Error(t, err)

	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
}
