package model

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/multi"
)

// MarshalDOT encodes the graph as a DOT digraph. Clusters become
// "subgraph cluster_*" blocks nested the same way they were declared, and
// every declared edge becomes its own edge statement.
func (g *Graph) MarshalDOT() ([]byte, error) {
	out, err := dot.MarshalMulti(dotGraph{DirectedGraph: g.g, doc: g}, g.Title, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %q as DOT: %w", g.Title, err)
	}
	return out, nil
}

// dotNode is the gonum node stored in the multigraph.
type dotNode struct {
	id   int64
	node *Node
}

func (n dotNode) ID() int64 { return n.id }
func (n dotNode) DOTID() string { return n.node.ID }

func (n dotNode) Attributes() []encoding.Attribute {
	return n.node.Attrs.Merge(Attrs{"label": n.node.Label}).Attributes()
}

// dotLine is one declared edge. Parallel edges between the same pair are
// distinct lines.
type dotLine struct {
	from, to graph.Node
	id       int64
	edge     *Edge
}

func (l dotLine) From() graph.Node { return l.from }
func (l dotLine) To() graph.Node { return l.to }
func (l dotLine) ID() int64 { return l.id }

func (l dotLine) ReversedLine() graph.Line {
	return dotLine{from: l.to, to: l.from, id: l.id, edge: l.edge}
}

func (l dotLine) Attributes() []encoding.Attribute {
	attrs := l.edge.Attrs
	if l.edge.Direction == DirectionBack || l.edge.Direction == DirectionBoth {
		attrs = attrs.Merge(Attrs{"dir": string(l.edge.Direction)})
	}
	return attrs.Attributes()
}

// dotGraph is the root digraph handed to the encoder. MarshalMulti only
// asks for subgraphs through dot.MultiStructurer.
type dotGraph struct {
	*multi.DirectedGraph
	doc *Graph
}

func (d dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return d.doc.GraphAttrs, d.doc.NodeAttrs, d.doc.EdgeAttrs
}

func (d dotGraph) Structure() []dot.Multigraph {
	return d.doc.subgraphs(d.doc.RootGroups)
}

func (g *Graph) subgraphs(ids []string) []dot.Multigraph {
	out := make([]dot.Multigraph, 0, len(ids))
	for _, id := range ids {
		c := g.Clusters[id]
		members := make([]graph.Node, 0, len(c.Nodes))
		for _, nodeID := range c.Nodes {
			members = append(members, g.g.Node(g.ids[nodeID]))
		}
		out = append(out, dotCluster{doc: g, cluster: c, members: members})
	}
	return out
}

// dotCluster is a read-only view of one cluster's direct members. It carries
// no edges: every edge is emitted once at the root.
type dotCluster struct {
	doc     *Graph
	cluster *Cluster
	members []graph.Node
}

func (c dotCluster) DOTID() string { return c.cluster.ID }

func (c dotCluster) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return c.cluster.Attrs.Merge(Attrs{"label": c.cluster.Name}), Attrs(nil), Attrs(nil)
}

func (c dotCluster) Structure() []dot.Multigraph {
	return c.doc.subgraphs(c.cluster.Clusters)
}

func (c dotCluster) Node(id int64) graph.Node {
	for _, n := range c.members {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

func (c dotCluster) Nodes() graph.Nodes {
	if len(c.members) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(c.members)
}

func (c dotCluster) From(int64) graph.Nodes { return graph.Empty }
func (c dotCluster) To(int64) graph.Nodes { return graph.Empty }
func (c dotCluster) HasEdgeBetween(_, _ int64) bool { return false }
func (c dotCluster) HasEdgeFromTo(_, _ int64) bool { return false }
func (c dotCluster) Edge(_, _ int64) graph.Edge { return nil }
func (c dotCluster) Lines(_, _ int64) graph.Lines { return graph.Empty }
