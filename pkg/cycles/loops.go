// Package cycles reports feedback loops in a diagram: groups of nodes whose
// edges, followed in the direction the arrows point, lead back to each other.
package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

// Loop is one strongly connected group of nodes.
type Loop struct {
	Nodes  []string // node IDs in edge-list order
	Labels []string // matching node labels
}

// FindLoops returns the feedback loops of g, ordered by whichever member
// appears first in the edge list. Edges drawn in both directions count as a
// loop.
func FindLoops(g *model.Graph) []Loop {
	ordinals := make(map[string]int64)
	names := make([]string, 0)
	ordinal := func(id string) int64 {
		if n, ok := ordinals[id]; ok {
			return n
		}
		n := int64(len(names))
		ordinals[id] = n
		names = append(names, id)
		return n
	}

	sg := simple.NewDirectedGraph()
	selfLoops := make(map[int64]bool)
	connect := func(from, to string) {
		f, t := ordinal(from), ordinal(to)
		if sg.Node(f) == nil {
			sg.AddNode(simple.Node(f))
		}
		if sg.Node(t) == nil {
			sg.AddNode(simple.Node(t))
		}
		if f == t {
			selfLoops[f] = true
			return
		}
		sg.SetEdge(sg.NewEdge(simple.Node(f), simple.Node(t)))
	}

	for _, e := range g.Edges {
		from, to := e.Flow()
		connect(from, to)
		if e.Direction == model.DirectionBoth {
			connect(to, from)
		}
	}

	order := make([]int64, len(names))
	for i := range order {
		order[i] = int64(i)
	}

	sccs := NewTarjanSCC(sg, selfLoops).FindSCCs(order)
	loops := make([]Loop, 0, len(sccs))
	for _, scc := range sccs {
		sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
		loop := Loop{Nodes: make([]string, 0, len(scc)), Labels: make([]string, 0, len(scc))}
		for _, id := range scc {
			name := names[id]
			loop.Nodes = append(loop.Nodes, name)
			if n, ok := g.Nodes[name]; ok {
				loop.Labels = append(loop.Labels, n.Label)
			} else {
				loop.Labels = append(loop.Labels, name)
			}
		}
		loops = append(loops, loop)
	}
	sort.SliceStable(loops, func(i, j int) bool {
		return ordinals[loops[i].Nodes[0]] < ordinals[loops[j].Nodes[0]]
	})
	return loops
}
