package diagram

import (
	"fmt"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

// Edge is a handle to one recorded edge.
type Edge struct {
	e          *model.Edge
	tail, head *Node
}

// Tail returns the endpoint declared first.
func (e *Edge) Tail() *Node { return e.tail }

// Head returns the endpoint declared second.
func (e *Edge) Head() *Node { return e.head }

// Direction reports how the arrow points relative to Tail -> Head.
func (e *Edge) Direction() model.Direction { return e.e.Direction }

// Label returns the edge label.
func (e *Edge) Label() string { return e.e.Label() }

// Attrs returns a copy of the edge attributes.
func (e *Edge) Attrs() model.Attrs { return e.e.Attrs.Clone() }

// Flow returns the endpoints in the direction data travels.
func (e *Edge) Flow() (from, to *Node) {
	if e.e.Direction == model.DirectionBack {
		return e.head, e.tail
	}
	return e.tail, e.head
}

// Connect declares edges from every node of src to every node of dst, each
// carrying style. If any endpoint is not a node of this diagram nothing is
// recorded.
func (d *Diagram) Connect(src, dst Endpoint, style Style) ([]*Edge, error) {
	return d.connect(src, dst, style, model.DirectionForward)
}

// ConnectBack declares the same edges as Connect with the arrows reversed:
// data flows from dst to src while src stays first in reading order.
func (d *Diagram) ConnectBack(src, dst Endpoint, style Style) ([]*Edge, error) {
	return d.connect(src, dst, style, model.DirectionBack)
}

// ConnectBoth declares a bidirectional relationship as two directed edges per
// pair, one in each direction.
func (d *Diagram) ConnectBoth(src, dst Endpoint, style Style) ([]*Edge, error) {
	if err := d.checkEndpoints("connect", src, dst); err != nil {
		return nil, err
	}
	forward, err := d.connect(src, dst, style, model.DirectionForward)
	if err != nil {
		return nil, err
	}
	back, err := d.connect(src, dst, style, model.DirectionBack)
	if err != nil {
		return nil, err
	}
	return append(forward, back...), nil
}

func (d *Diagram) checkEndpoints(op string, src, dst Endpoint) error {
	if err := d.checkOpen(op); err != nil {
		return err
	}
	for _, side := range []Endpoint{src, dst} {
		if side == nil {
			return fmt.Errorf("%w: nil endpoint", ErrUnknownNode)
		}
		for _, n := range side.nodes() {
			if n == nil {
				return fmt.Errorf("%w: nil node", ErrUnknownNode)
			}
			if n.d != d {
				return fmt.Errorf("%w: %q is not part of diagram %q", ErrUnknownNode, n.Label(), d.title)
			}
		}
	}
	return nil
}

func (d *Diagram) connect(src, dst Endpoint, style Style, dir model.Direction) ([]*Edge, error) {
	if err := d.checkEndpoints("connect", src, dst); err != nil {
		return nil, err
	}

	tails, heads := src.nodes(), dst.nodes()
	edges := make([]*Edge, 0, len(tails)*len(heads))
	for _, tail := range tails {
		for _, head := range heads {
			me := &model.Edge{
				Tail:      tail.ID(),
				Head:      head.ID(),
				Direction: dir,
				Attrs:     style.Attrs(),
			}
			if err := d.graph.AddEdge(me); err != nil {
				// Endpoints were validated above; this is a model invariant failure.
				d.fail(err)
				return nil, err
			}
			edges = append(edges, &Edge{e: me, tail: tail, head: head})
		}
	}
	return edges, nil
}
