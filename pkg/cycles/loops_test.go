package cycles

import (
	"reflect"
	"testing"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

func newGraph(t *testing.T, ids ...string) *model.Graph {
	t.Helper()
	g := model.NewGraph("test")
	for _, id := range ids {
		if err := g.AddNode(&model.Node{ID: id, Label: "label " + id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	return g
}

func addEdge(t *testing.T, g *model.Graph, tail, head string, dir model.Direction) {
	t.Helper()
	if err := g.AddEdge(&model.Edge{Tail: tail, Head: head, Direction: dir}); err != nil {
		t.Fatalf("AddEdge(%s, %s): %v", tail, head, err)
	}
}

func TestFindLoops_NoLoops(t *testing.T) {
	g := newGraph(t, "a", "b", "c")

	// a -> b -> c
	addEdge(t, g, "a", "b", model.DirectionForward)
	addEdge(t, g, "b", "c", model.DirectionForward)

	if loops := FindLoops(g); len(loops) != 0 {
		t.Errorf("Expected no loops, but found %d", len(loops))
	}
}

func TestFindLoops_SimpleLoop(t *testing.T) {
	g := newGraph(t, "a", "b", "c")

	// a -> b -> c -> a
	addEdge(t, g, "a", "b", model.DirectionForward)
	addEdge(t, g, "b", "c", model.DirectionForward)
	addEdge(t, g, "c", "a", model.DirectionForward)

	loops := FindLoops(g)
	if len(loops) != 1 {
		t.Fatalf("Expected 1 loop, but found %d", len(loops))
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(loops[0].Nodes, want) {
		t.Errorf("Nodes = %v, want %v", loops[0].Nodes, want)
	}
	if loops[0].Labels[1] != "label b" {
		t.Errorf("Labels = %v", loops[0].Labels)
	}
}

func TestFindLoops_BackEdgeFollowsArrow(t *testing.T) {
	g := newGraph(t, "a", "b")

	// a -> b declared, plus a <- b declared as a back edge from a to b:
	// both arrows point at b, so there is no loop.
	addEdge(t, g, "a", "b", model.DirectionForward)
	addEdge(t, g, "b", "a", model.DirectionBack)
	if loops := FindLoops(g); len(loops) != 0 {
		t.Fatalf("Expected no loops, but found %v", loops)
	}

	// a <- b written as a back edge from a closes the loop.
	addEdge(t, g, "a", "b", model.DirectionBack)
	if loops := FindLoops(g); len(loops) != 1 {
		t.Fatalf("Expected 1 loop, but found %d", len(loops))
	}
}

func TestFindLoops_BothDirections(t *testing.T) {
	g := newGraph(t, "x", "y", "z")
	addEdge(t, g, "x", "y", model.DirectionBoth)
	addEdge(t, g, "y", "z", model.DirectionForward)

	loops := FindLoops(g)
	if len(loops) != 1 {
		t.Fatalf("Expected 1 loop, but found %d", len(loops))
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(loops[0].Nodes, want) {
		t.Errorf("Nodes = %v, want %v", loops[0].Nodes, want)
	}
}

func TestFindLoops_SelfLoopAndOrdering(t *testing.T) {
	g := newGraph(t, "a", "b", "c", "d")

	addEdge(t, g, "c", "d", model.DirectionForward)
	addEdge(t, g, "d", "c", model.DirectionForward)
	addEdge(t, g, "a", "a", model.DirectionForward)
	addEdge(t, g, "b", "c", model.DirectionForward)

	loops := FindLoops(g)
	if len(loops) != 2 {
		t.Fatalf("Expected 2 loops, but found %d", len(loops))
	}
	if !reflect.DeepEqual(loops[0].Nodes, []string{"c", "d"}) {
		t.Errorf("first loop = %v, want [c d]", loops[0].Nodes)
	}
	if !reflect.DeepEqual(loops[1].Nodes, []string{"a"}) {
		t.Errorf("second loop = %v, want [a]", loops[1].Nodes)
	}
}
