package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/definition"
	"github.com/ritzau/infra-diagrams/pkg/diagram"
	"github.com/ritzau/infra-diagrams/pkg/render"
	"github.com/ritzau/infra-diagrams/pkg/topology"
)

type recorder struct {
	names []string
	errs  []error
}

func (r *recorder) RecordRender(name, title string, a *render.Artifact, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

type fakePublisher struct{ published []string }

func (p *fakePublisher) Publish(ctx context.Context, a *render.Artifact) (string, error) {
	loc := "s3://bucket/" + a.Name
	p.published = append(p.published, loc)
	return loc, nil
}

func iconServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("icon"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func heartbeatJob() Job {
	return Job{
		Name:  "heartbeat",
		Title: "heartbeat",
		Build: func(icons map[string]string, opts ...diagram.Option) (*diagram.Diagram, error) {
			d := diagram.New("heartbeat", opts...)
			a, err := d.Node("Users", diagram.KindUsers)
			if err != nil {
				return nil, err
			}
			b, err := d.Node("Service", diagram.KindServer)
			if err != nil {
				return nil, err
			}
			if _, err := d.Connect(a, b, diagram.Metrics("heartbeat")); err != nil {
				return nil, err
			}
			return d, nil
		},
	}
}

func TestRunRendersAndReports(t *testing.T) {
	color.NoColor = true
	out := t.TempDir()
	srv := iconServer(t)

	exec := &render.MockExecutor{MockOutput: []byte("png")}
	renderer := render.NewRenderer(exec, render.Options{OutputDir: out})
	fetcher := assets.NewFetcher(nil, assets.Options{Dir: filepath.Join(out, "logos")})
	rec := &recorder{}
	pub := &fakePublisher{}
	var console bytes.Buffer

	example, ok := topology.Lookup("sponsored-agent")
	require.True(t, ok)
	exampleJob := FromExample(example)
	exampleJob.Icons = []assets.Asset{{Name: topology.EnvoyIcon.Name, URL: srv.URL + "/Envoy.png"}}

	runner := NewRunner(fetcher, renderer, Options{Publisher: pub, Observer: rec, Out: &console})
	results, err := runner.Run(context.Background(), "test", []Job{heartbeatJob(), exampleJob})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(out, "heartbeat.png"), results[0].Artifact.Path)
	assert.Equal(t, filepath.Join(out, "sponsored_agent_service.png"), results[1].Artifact.Path)
	assert.NotEmpty(t, results[1].Loops)
	assert.Equal(t, 2, exec.Calls)
	assert.FileExists(t, filepath.Join(out, "logos", "envoy.png"))

	assert.Equal(t, []string{"heartbeat", "sponsored-agent"}, rec.names)
	assert.Equal(t, []string{"s3://bucket/heartbeat", "s3://bucket/sponsored_agent_service"}, pub.published)
	assert.Contains(t, console.String(), "Nodes: 2  Clusters: 0  Edges: 1")
	assert.Contains(t, console.String(), "✓ Published to s3://bucket/heartbeat")
}

func TestRunContinuesAfterFailure(t *testing.T) {
	out := t.TempDir()
	renderer := render.NewRenderer(&render.MockExecutor{MockOutput: []byte("png")}, render.Options{OutputDir: out})
	fetcher := assets.NewFetcher(nil, assets.Options{Dir: out})
	rec := &recorder{}

	broken := Job{
		Name: "broken",
		Build: func(map[string]string, ...diagram.Option) (*diagram.Diagram, error) {
			return nil, diagram.ErrUnknownNode
		},
	}

	results, err := NewRunner(fetcher, renderer, Options{Observer: rec}).
		Run(context.Background(), "test", []Job{broken, heartbeatJob()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diagram.ErrUnknownNode))
	require.Len(t, results, 2)
	assert.Nil(t, results[0].Artifact)
	assert.NotNil(t, results[1].Artifact)
	assert.Error(t, rec.errs[0])
	assert.NoError(t, rec.errs[1])
}

func TestRunEngineFailureLeavesNoArtifact(t *testing.T) {
	out := t.TempDir()
	renderer := render.NewRenderer(&render.MockExecutor{MockError: errors.New("dot crashed")}, render.Options{OutputDir: out})
	fetcher := assets.NewFetcher(nil, assets.Options{Dir: out})

	_, err := NewRunner(fetcher, renderer, Options{}).Run(context.Background(), "test", []Job{heartbeatJob()})
	var renderErr *render.RenderError
	require.ErrorAs(t, err, &renderErr)

	_, statErr := os.Stat(filepath.Join(out, "heartbeat.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFromDefinition(t *testing.T) {
	def := &definition.Definition{
		Title:  "Edge Network",
		Name:   "edge",
		Source: "defs/edge.hcl",
		Icons:  []*assets.Asset{{Name: "envoy.png", URL: "https://example.invalid/envoy.png"}},
		Nodes:  []*definition.NodeDef{{ID: "a"}, {ID: "b", Icon: "envoy.png"}},
		Edges:  []*definition.EdgeDef{{From: definition.IDList{"a"}, To: definition.IDList{"b"}}},
	}

	job := FromDefinition(def)
	assert.Equal(t, "edge", job.Name)
	assert.Equal(t, "defs/edge.hcl", job.Source)
	require.Len(t, job.Icons, 1)

	d, err := job.Build(map[string]string{"envoy.png": "logos/envoy.png"})
	require.NoError(t, err)
	assert.Len(t, d.Graph().Edges, 1)
}
