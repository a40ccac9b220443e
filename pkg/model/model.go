package model

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/encoding"
)

// Attrs is a set of Graphviz attributes (label, color, style, weight, minlen, ...).
type Attrs map[string]string

// Clone returns a copy of the attribute set. A nil set clones to an empty one.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a new set with the given sets applied over a, in order.
// Later sets win on conflicting keys.
func (a Attrs) Merge(others ...Attrs) Attrs {
	out := a.Clone()
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Attributes implements encoding.Attributer with keys in sorted order so that
// the encoded document is stable.
func (a Attrs) Attributes() []encoding.Attribute {
	if len(a) == 0 {
		return nil
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]encoding.Attribute, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, encoding.Attribute{Key: k, Value: a[k]})
	}
	return attrs
}

// Direction is the arrow direction of an edge relative to its declared
// tail -> head order.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionBack    Direction = "back"
	DirectionBoth    Direction = "both"
)

// Node is one depicted entity: a service, a user group, a piece of infrastructure.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Icon   string `json:"icon,omitempty"`
	Parent string `json:"parent,omitempty"` // ID of the enclosing cluster, empty at the root
	Attrs  Attrs  `json:"attrs,omitempty"`
}

// Cluster is a named visual grouping of nodes and nested clusters.
type Cluster struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Parent   string   `json:"parent,omitempty"`
	Depth    int      `json:"depth"`
	Attrs    Attrs    `json:"attrs,omitempty"`
	Nodes    []string `json:"nodes"`    // direct member node IDs in declaration order
	Clusters []string `json:"clusters"` // direct child cluster IDs in declaration order
}

// Edge is a styled connection between two nodes, recorded in layout order.
// For DirectionBack the data flows from Head to Tail.
type Edge struct {
	Tail      string    `json:"tail"`
	Head      string    `json:"head"`
	Direction Direction `json:"direction"`
	Attrs     Attrs     `json:"attrs,omitempty"`
}

// Flow returns the endpoints in data-flow order.
func (e *Edge) Flow() (from, to string) {
	if e.Direction == DirectionBack {
		return e.Head, e.Tail
	}
	return e.Tail, e.Head
}

// Label returns the edge label, if any.
func (e *Edge) Label() string {
	return e.Attrs["label"]
}

// Document is the finalized output of a diagram build, ready for a layout engine.
type Document struct {
	Title  string
	Name   string // artifact base name derived from Title
	Source []byte // DOT source
	Graph  *Graph
}

// FileName derives an artifact base name from a diagram title:
// whitespace-separated words joined by underscores, lower-cased.
func FileName(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), "_"))
}
