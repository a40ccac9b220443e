package diagram

import "errors"

var (
	// ErrContext is returned when an operation is attempted outside a valid
	// build context: on a closed cluster, or on a rendered or abandoned diagram.
	ErrContext = errors.New("no open build context")

	// ErrUnknownNode is returned when an edge references a node that was
	// never registered in the diagram.
	ErrUnknownNode = errors.New("unknown node")

	// ErrAlreadyRendered is returned when a diagram is finalized twice.
	ErrAlreadyRendered = errors.New("diagram already rendered")
)
