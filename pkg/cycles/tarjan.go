package cycles

import (
	"gonum.org/v1/gonum/graph"
)

// TarjanSCC finds strongly connected components with Tarjan's algorithm.
// Components of a single node are reported only when that node has an edge
// to itself.
type TarjanSCC struct {
	graph     graph.Directed
	selfLoops map[int64]bool
	index     int
	stack     []int64
	onStack   map[int64]bool
	indices   map[int64]int
	lowLink   map[int64]int
	sccs      [][]int64
}

// NewTarjanSCC creates a finder over g. selfLoops marks nodes with an edge to
// themselves, which simple gonum graphs cannot hold.
func NewTarjanSCC(g graph.Directed, selfLoops map[int64]bool) *TarjanSCC {
	return &TarjanSCC{
		graph:     g,
		selfLoops: selfLoops,
		stack:     make([]int64, 0),
		onStack:   make(map[int64]bool),
		indices:   make(map[int64]int),
		lowLink:   make(map[int64]int),
		sccs:      make([][]int64, 0),
	}
}

// FindSCCs visits nodes in the given order, so callers control which node
// roots each search.
func (t *TarjanSCC) FindSCCs(order []int64) [][]int64 {
	for _, id := range order {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

func (t *TarjanSCC) strongConnect(nodeID int64) {
	t.indices[nodeID] = t.index
	t.lowLink[nodeID] = t.index
	t.index++

	t.stack = append(t.stack, nodeID)
	t.onStack[nodeID] = true

	successors := t.graph.From(nodeID)
	for successors.Next() {
		successorID := successors.Node().ID()

		if _, visited := t.indices[successorID]; !visited {
			t.strongConnect(successorID)
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.lowLink[successorID])
		} else if t.onStack[successorID] {
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.indices[successorID])
		}
	}

	if t.lowLink[nodeID] != t.indices[nodeID] {
		return
	}

	scc := make([]int64, 0)
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == nodeID {
			break
		}
	}
	if len(scc) > 1 || t.selfLoops[nodeID] {
		t.sccs = append(t.sccs, scc)
	}
}
