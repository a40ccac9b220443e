package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Executor runs the layout engine on a DOT document.
type Executor interface {
	Run(ctx context.Context, format Format, source []byte) ([]byte, error)
}

// GraphvizExecutor pipes the document through a Graphviz binary.
type GraphvizExecutor struct {
	Binary string // "dot" unless configured otherwise
}

// NewExecutor creates a Graphviz executor for the given binary.
func NewExecutor(binary string) Executor {
	if binary == "" {
		binary = "dot"
	}
	return &GraphvizExecutor{Binary: binary}
}

// Run executes `<binary> -T<format>` with the document on stdin and returns
// the rendered image. It respects the provided context for cancellation.
func (e *GraphvizExecutor) Run(ctx context.Context, format Format, source []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.Binary, "-T"+string(format))
	cmd.Stdin = bytes.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s -T%s failed: %w\nOutput: %s", e.Binary, format, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
