package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/infra-diagrams/pkg/cycles"
)

// Summary describes one rendered diagram.
type Summary struct {
	Title     string
	Path      string
	Format    string
	Nodes     int
	Clusters  int
	Edges     int
	Loops     []cycles.Loop
	Duration  time.Duration
	Published string // remote location, empty when not published
}

// Entry is one line of the diagram listing.
type Entry struct {
	Name   string
	Title  string
	Source string
}

// PrintSummary prints a colored report of a render.
func PrintSummary(w io.Writer, s Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, s.Title)
	bold.Fprintln(w, strings.Repeat("=", len(s.Title)))
	fmt.Fprintf(w, "Nodes: %d  Clusters: %d  Edges: %d\n", s.Nodes, s.Clusters, s.Edges)

	if len(s.Loops) > 0 {
		yellow.Fprintf(w, "Feedback loops: %d\n", len(s.Loops))
		for _, l := range s.Loops {
			cyan.Fprintf(w, "  %s\n", strings.Join(l.Labels, " -> "))
		}
	}

	green.Fprintf(w, "✓ Wrote %s (%s) in %s\n", s.Path, s.Format, s.Duration.Round(time.Millisecond))
	if s.Published != "" {
		green.Fprintf(w, "✓ Published to %s\n", s.Published)
	}
}

// PrintList prints the diagrams available to render.
func PrintList(w io.Writer, entries []Entry) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	if len(entries) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No diagrams found")
		return
	}

	width := 0
	for _, e := range entries {
		width = max(width, len(e.Name))
	}
	for _, e := range entries {
		bold.Fprintf(w, "%-*s", width, e.Name)
		fmt.Fprintf(w, "  %s", e.Title)
		if e.Source != "" {
			cyan.Fprintf(w, "  (%s)", e.Source)
		}
		fmt.Fprintln(w)
	}
}

// PrintAssets prints where each downloaded asset was stored, by name.
func PrintAssets(w io.Writer, paths map[string]string) {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	green := color.New(color.FgGreen)
	for _, name := range names {
		green.Fprintf(w, "✓ %s", name)
		fmt.Fprintf(w, " -> %s\n", paths[name])
	}
}

// PrintError prints a failure the way the summary prints success.
func PrintError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "✗ %v\n", err)
}
