// Package pipeline drives diagrams from declaration to published artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/cycles"
	"github.com/ritzau/infra-diagrams/pkg/logging"
	"github.com/ritzau/infra-diagrams/pkg/output"
	"github.com/ritzau/infra-diagrams/pkg/render"
)

// Publisher uploads an artifact and returns where it went.
type Publisher interface {
	Publish(ctx context.Context, a *render.Artifact) (string, error)
}

// Observer is told about every render attempt (the preview server).
type Observer interface {
	RecordRender(name, title string, artifact *render.Artifact, err error)
}

// Result is the outcome of one job.
type Result struct {
	Job       Job
	Artifact  *render.Artifact
	Loops     []cycles.Loop
	Published string
	Err       error
}

// Runner runs jobs one at a time. Each run builds fresh diagrams.
type Runner struct {
	fetcher   *assets.Fetcher
	renderer  *render.Renderer
	publisher Publisher
	observer  Observer
	out       io.Writer
	mu        sync.Mutex // Prevent concurrent runs
}

// Options configures a Runner. Publisher, Observer and Out are optional.
type Options struct {
	Publisher Publisher
	Observer  Observer
	Out       io.Writer
}

// NewRunner creates a runner
func NewRunner(fetcher *assets.Fetcher, renderer *render.Renderer, opts Options) *Runner {
	return &Runner{
		fetcher:   fetcher,
		renderer:  renderer,
		publisher: opts.Publisher,
		observer:  opts.Observer,
		out:       opts.Out,
	}
}

// Run processes every job and keeps going after a failure; the returned
// error joins all job errors.
func (r *Runner) Run(ctx context.Context, reason string, jobs []Job) ([]Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logging.Info("starting run", "reason", reason, "diagrams", len(jobs))
	start := time.Now()

	results := make([]Result, 0, len(jobs))
	var errs []error
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		logging.Debug("processing diagram", "step", fmt.Sprintf("%d/%d", i+1, len(jobs)), "diagram", job.Name)

		res := r.runOne(ctx, job)
		if r.observer != nil {
			r.observer.RecordRender(job.Name, job.Title, res.Artifact, res.Err)
		}
		if res.Err != nil {
			logging.Error("diagram failed", "diagram", job.Name, "error", res.Err)
			if r.out != nil {
				output.PrintError(r.out, res.Err)
			}
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}

	logging.Info("run finished", "reason", reason, "failed", len(errs), "durationMs", time.Since(start).Milliseconds())
	return results, errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, job Job) Result {
	res := Result{Job: job}

	icons, err := r.fetcher.FetchAll(ctx, job.Icons)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Name, err)
		return res
	}

	d, err := job.Build(icons)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Name, err)
		return res
	}
	g := d.Graph()
	res.Loops = cycles.FindLoops(g)

	artifact, err := r.renderer.Render(ctx, d)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Name, err)
		return res
	}
	res.Artifact = artifact

	if r.publisher != nil {
		res.Published, err = r.publisher.Publish(ctx, artifact)
		if err != nil {
			res.Err = fmt.Errorf("%s: publish: %w", job.Name, err)
		}
	}

	if r.out != nil {
		output.PrintSummary(r.out, output.Summary{
			Title:     job.Title,
			Path:      artifact.Path,
			Format:    string(artifact.Format),
			Nodes:     len(g.Nodes),
			Clusters:  len(g.Clusters),
			Edges:     len(g.Edges),
			Loops:     res.Loops,
			Duration:  artifact.Duration,
			Published: res.Published,
		})
	}
	return res
}
