// Package render hands finalized diagrams to the layout engine and writes the
// resulting artifact to local storage.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ritzau/infra-diagrams/pkg/diagram"
	"github.com/ritzau/infra-diagrams/pkg/logging"
	"github.com/ritzau/infra-diagrams/pkg/model"
)

// Format is an output artifact format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatJPG Format = "jpg"
	FormatPDF Format = "pdf"
	FormatDOT Format = "dot" // raw document, the engine is not invoked
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG, FormatJPG, FormatPDF, FormatDOT:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want png, svg, jpg, pdf or dot)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatJPG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/vnd.graphviz"
}

// RenderError reports that the layout engine rejected or failed to render a
// diagram. No artifact is written when it is returned.
type RenderError struct {
	Diagram string
	Format  Format
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q as %s: %v", e.Diagram, e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Artifact describes a written output file.
type Artifact struct {
	Title    string        `json:"title"`
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Format   Format        `json:"format"`
	Size     int           `json:"size"`
	Duration time.Duration `json:"duration"`
}

// Options configures a Renderer.
type Options struct {
	OutputDir string
	Format    Format
	Timeout   time.Duration // bounds a single engine invocation; zero means none
}

// Renderer finalizes diagrams and writes their artifacts.
type Renderer struct {
	exec Executor
	opts Options
}

// NewRenderer creates a renderer using the given executor.
func NewRenderer(exec Executor, opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Renderer{exec: exec, opts: opts}
}

// Format returns the configured output format.
func (r *Renderer) Format() Format { return r.opts.Format }

// Render finalizes d and writes its artifact. Finalization errors from the
// builder (ErrAlreadyRendered, ErrContext) are returned as is.
func (r *Renderer) Render(ctx context.Context, d *diagram.Diagram) (*Artifact, error) {
	doc, err := d.Finalize()
	if err != nil {
		return nil, err
	}
	return r.Write(ctx, doc)
}

// Write renders a finalized document to <OutputDir>/<doc.Name>.<format>.
func (r *Renderer) Write(ctx context.Context, doc *model.Document) (*Artifact, error) {
	start := time.Now()
	format := r.opts.Format

	data := doc.Source
	if format != FormatDOT {
		if r.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()
		}

		logging.DebugContext(ctx, "running layout engine", "diagram", doc.Title, "format", format, "bytes", len(doc.Source))
		out, err := r.exec.Run(ctx, format, doc.Source)
		if err != nil {
			return nil, &RenderError{Diagram: doc.Title, Format: format, Err: err}
		}
		if len(out) == 0 {
			return nil, &RenderError{Diagram: doc.Title, Format: format, Err: fmt.Errorf("layout engine produced no output")}
		}
		data = out
	}

	path := filepath.Join(r.opts.OutputDir, doc.Name+"."+string(format))
	if err := writeAtomic(path, data); err != nil {
		return nil, &RenderError{Diagram: doc.Title, Format: format, Err: err}
	}

	artifact := &Artifact{
		Title:    doc.Title,
		Name:     doc.Name,
		Path:     path,
		Format:   format,
		Size:     len(data),
		Duration: time.Since(start),
	}
	logging.InfoContext(ctx, "diagram rendered", "diagram", doc.Title, "path", path, "durationMs", artifact.Duration.Milliseconds())
	return artifact, nil
}

// writeAtomic writes through a temp file in the target directory so that a
// failed write never leaves a truncated artifact behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
