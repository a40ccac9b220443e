package model

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// Graph is the write-once diagram description: nodes, clusters and the
// ordered edge list, mirrored into a gonum multigraph for encoding.
type Graph struct {
	Title      string              `json:"title"`
	GraphAttrs Attrs               `json:"graphAttrs,omitempty"`
	NodeAttrs  Attrs               `json:"nodeAttrs,omitempty"`
	EdgeAttrs  Attrs               `json:"edgeAttrs,omitempty"`
	Nodes      map[string]*Node    `json:"nodes"`
	Clusters   map[string]*Cluster `json:"clusters"`
	RootNodes  []string            `json:"rootNodes"`
	RootGroups []string            `json:"rootClusters"`
	Edges      []*Edge             `json:"edges"`

	g      *multi.DirectedGraph
	ids    map[string]int64 // node ID -> gonum ID
	nextID int64
}

// NewGraph creates a new empty graph.
func NewGraph(title string) *Graph {
	return &Graph{
		Title:      title,
		GraphAttrs: make(Attrs),
		NodeAttrs:  make(Attrs),
		EdgeAttrs:  make(Attrs),
		Nodes:      make(map[string]*Node),
		Clusters:   make(map[string]*Cluster),
		RootNodes:  make([]string, 0),
		RootGroups: make([]string, 0),
		Edges:      make([]*Edge, 0),
		g:          multi.NewDirectedGraph(),
		ids:        make(map[string]int64),
	}
}

// AddNode registers a node under its parent cluster, or at the root when
// Parent is empty.
func (g *Graph) AddNode(node *Node) error {
	if _, exists := g.Nodes[node.ID]; exists {
		return fmt.Errorf("duplicate node id %q", node.ID)
	}
	if node.Parent != "" {
		parent, ok := g.Clusters[node.Parent]
		if !ok {
			return fmt.Errorf("node %q: unknown parent cluster %q", node.ID, node.Parent)
		}
		parent.Nodes = append(parent.Nodes, node.ID)
	} else {
		g.RootNodes = append(g.RootNodes, node.ID)
	}
	if node.Attrs == nil {
		node.Attrs = make(Attrs)
	}

	g.Nodes[node.ID] = node
	g.ids[node.ID] = g.nextID
	g.g.AddNode(dotNode{id: g.nextID, node: node})
	g.nextID++
	return nil
}

// AddCluster registers a cluster under its parent cluster, or at the root.
func (g *Graph) AddCluster(cluster *Cluster) error {
	if _, exists := g.Clusters[cluster.ID]; exists {
		return fmt.Errorf("duplicate cluster id %q", cluster.ID)
	}
	if cluster.Parent != "" {
		parent, ok := g.Clusters[cluster.Parent]
		if !ok {
			return fmt.Errorf("cluster %q: unknown parent cluster %q", cluster.ID, cluster.Parent)
		}
		parent.Clusters = append(parent.Clusters, cluster.ID)
	} else {
		g.RootGroups = append(g.RootGroups, cluster.ID)
	}
	if cluster.Attrs == nil {
		cluster.Attrs = make(Attrs)
	}
	g.Clusters[cluster.ID] = cluster
	return nil
}

// AddEdge appends an edge. Both endpoints must already be registered.
func (g *Graph) AddEdge(edge *Edge) error {
	tail, ok := g.ids[edge.Tail]
	if !ok {
		return fmt.Errorf("edge tail %q is not a node of this graph", edge.Tail)
	}
	head, ok := g.ids[edge.Head]
	if !ok {
		return fmt.Errorf("edge head %q is not a node of this graph", edge.Head)
	}
	if edge.Direction == "" {
		edge.Direction = DirectionForward
	}
	if edge.Attrs == nil {
		edge.Attrs = make(Attrs)
	}

	g.g.SetLine(dotLine{
		from: g.g.Node(tail),
		to:   g.g.Node(head),
		id:   int64(len(g.Edges)),
		edge: edge,
	})
	g.Edges = append(g.Edges, edge)
	return nil
}

// Ancestors returns the chain of cluster IDs enclosing the node, innermost first.
func (g *Graph) Ancestors(nodeID string) []string {
	node, ok := g.Nodes[nodeID]
	if !ok {
		return nil
	}
	var chain []string
	for parent := node.Parent; parent != ""; {
		chain = append(chain, parent)
		parent = g.Clusters[parent].Parent
	}
	return chain
}

// EdgesBetween returns the edges declared with the given tail and head.
func (g *Graph) EdgesBetween(tail, head string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Tail == tail && e.Head == head {
			out = append(out, e)
		}
	}
	return out
}

// Directed returns the underlying multigraph in layout (tail -> head) order.
func (g *Graph) Directed() graph.Directed {
	return g.g
}

// NodeByGraphID maps a gonum node ID back to the diagram node.
func (g *Graph) NodeByGraphID(id int64) *Node {
	n, ok := g.g.Node(id).(dotNode)
	if !ok {
		return nil
	}
	return n.node
}
