// Package diagram builds topology diagrams: typed nodes, nested clusters and
// styled directed edges, finalized once into a DOT document for a layout
// engine.
//
// A Diagram is built in a single pass and is not safe for concurrent use.
package diagram

import (
	"fmt"
	"strconv"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

// Layout direction of the diagram (Graphviz rankdir).
type Direction string

const (
	LeftToRight Direction = "LR"
	RightToLeft Direction = "RL"
	TopToBottom Direction = "TB"
	BottomToTop Direction = "BT"
)

type state int

const (
	stateOpen state = iota
	stateRendered
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateRendered:
		return "rendered"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	defaultGraphAttrs = model.Attrs{
		"pad":       "2.0",
		"splines":   "ortho",
		"nodesep":   "0.60",
		"ranksep":   "0.75",
		"fontname":  "Sans-Serif",
		"fontsize":  "15",
		"fontcolor": "#2D3436",
	}
	defaultNodeAttrs = model.Attrs{
		"shape":      "box",
		"style":      "rounded",
		"fixedsize":  "true",
		"width":      "1.4",
		"height":     "1.4",
		"labelloc":   "b",
		"imagescale": "true",
		"fontname":   "Sans-Serif",
		"fontsize":   "13",
		"fontcolor":  "#2D3436",
	}
	defaultEdgeAttrs = model.Attrs{
		"color": "#7B8894",
	}
)

type settings struct {
	name       string
	direction  Direction
	graphAttrs model.Attrs
	nodeAttrs  model.Attrs
	edgeAttrs  model.Attrs
	icons      IconResolver
}

// Option configures a Diagram.
type Option func(*settings)

// WithDirection sets the layout direction. The default is LeftToRight.
func WithDirection(dir Direction) Option {
	return func(s *settings) { s.direction = dir }
}

// WithName sets the artifact base name. Empty keeps the name derived from
// the title.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithGraphAttrs overrides graph-level attributes key by key.
func WithGraphAttrs(attrs model.Attrs) Option {
	return func(s *settings) { s.graphAttrs = s.graphAttrs.Merge(attrs) }
}

// WithNodeAttrs overrides the default node attributes key by key.
func WithNodeAttrs(attrs model.Attrs) Option {
	return func(s *settings) { s.nodeAttrs = s.nodeAttrs.Merge(attrs) }
}

// WithEdgeAttrs overrides the default edge attributes key by key.
func WithEdgeAttrs(attrs model.Attrs) Option {
	return func(s *settings) { s.edgeAttrs = s.edgeAttrs.Merge(attrs) }
}

// WithIcons sets the resolver used to pick an icon for each node kind.
func WithIcons(r IconResolver) Option {
	return func(s *settings) { s.icons = r }
}

// Diagram is the root build context. It moves from open to rendered (or
// failed) exactly once; nothing can be added afterwards.
type Diagram struct {
	title   string
	name    string
	graph   *model.Graph
	icons   IconResolver
	state   state
	failure error

	stack       []*Cluster // open clusters, outermost first
	nextNode    int
	nextCluster int
}

// New opens a diagram.
func New(title string, opts ...Option) *Diagram {
	s := &settings{
		direction:  LeftToRight,
		graphAttrs: defaultGraphAttrs.Clone(),
		nodeAttrs:  defaultNodeAttrs.Clone(),
		edgeAttrs:  defaultEdgeAttrs.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}

	g := model.NewGraph(title)
	g.GraphAttrs = s.graphAttrs.Merge(model.Attrs{
		"rankdir":  string(s.direction),
		"label":    title,
		"labelloc": "t",
	})
	g.NodeAttrs = s.nodeAttrs
	g.EdgeAttrs = s.edgeAttrs

	name := s.name
	if name == "" {
		name = model.FileName(title)
	}
	return &Diagram{
		title: title,
		name:  name,
		graph: g,
		icons: s.icons,
	}
}

// Title returns the diagram title.
func (d *Diagram) Title() string { return d.title }

// Name returns the artifact base name.
func (d *Diagram) Name() string { return d.name }

// Graph exposes the accumulated description. It must not be mutated.
func (d *Diagram) Graph() *model.Graph { return d.graph }

// Rendered reports whether the diagram has been finalized.
func (d *Diagram) Rendered() bool { return d.state == stateRendered }

// Err returns the error that abandoned the build, if any.
func (d *Diagram) Err() error { return d.failure }

// Current returns the innermost open cluster, or nil when only the root is open.
func (d *Diagram) Current() *Cluster {
	if len(d.stack) == 0 {
		return nil
	}
	return d.stack[len(d.stack)-1]
}

func (d *Diagram) checkOpen(op string) error {
	if d.state != stateOpen {
		return fmt.Errorf("%w: %s on %s diagram %q", ErrContext, op, d.state, d.title)
	}
	return nil
}

// fail abandons the build. The first failure is kept.
func (d *Diagram) fail(err error) {
	if d.state == stateOpen {
		d.state = stateFailed
		d.failure = err
	}
}

// Node creates a node in the innermost open cluster, or at the root.
func (d *Diagram) Node(label string, kind Kind, opts ...NodeOption) (*Node, error) {
	if err := d.checkOpen("create node"); err != nil {
		return nil, err
	}
	return d.newNode(d.Current(), label, kind, opts)
}

// Custom creates a node drawn with the icon at iconPath.
func (d *Diagram) Custom(label, iconPath string, opts ...NodeOption) (*Node, error) {
	return d.Node(label, KindCustom, append([]NodeOption{Icon(iconPath)}, opts...)...)
}

// OpenCluster opens a cluster inside the innermost open cluster, or at the
// root. The caller must Close it; prefer WithCluster.
func (d *Diagram) OpenCluster(name string, opts ...ClusterOption) (*Cluster, error) {
	if err := d.checkOpen("open cluster"); err != nil {
		return nil, err
	}
	return d.openCluster(d.Current(), name, opts)
}

// WithCluster opens a cluster, runs fn inside it and closes it on every exit
// path. An error or panic from fn abandons the whole diagram so that a
// partially-built cluster can never be rendered.
func (d *Diagram) WithCluster(name string, fn func(*Cluster) error, opts ...ClusterOption) error {
	c, err := d.OpenCluster(name, opts...)
	if err != nil {
		return err
	}
	return c.run(fn)
}

// Finalize closes any clusters still open, encodes the diagram and moves it
// to the rendered state. It succeeds at most once.
func (d *Diagram) Finalize() (*model.Document, error) {
	switch d.state {
	case stateRendered:
		return nil, fmt.Errorf("%w: %q", ErrAlreadyRendered, d.title)
	case stateFailed:
		return nil, fmt.Errorf("%w: diagram %q was abandoned: %v", ErrContext, d.title, d.failure)
	}

	for len(d.stack) > 0 {
		d.stack[0].Close()
	}

	src, err := d.graph.MarshalDOT()
	if err != nil {
		d.fail(err)
		return nil, err
	}
	d.state = stateRendered

	return &model.Document{
		Title:  d.title,
		Name:   d.name,
		Source: src,
		Graph:  d.graph,
	}, nil
}

func nodeID(seq int) string    { return "n" + strconv.Itoa(seq) }
func clusterID(seq int) string { return "cluster_" + strconv.Itoa(seq) }
