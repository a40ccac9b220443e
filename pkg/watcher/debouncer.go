package watcher

import (
	"context"
	"time"

	"github.com/ritzau/infra-diagrams/pkg/logging"
)

// Debouncer batches rapid change events so that a burst of saves triggers a
// single rebuild. A batch is released after quietPeriod without new events,
// or after maxWait since its first event, whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan []ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan []ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet    <-chan time.Time
		deadline <-chan time.Time
		batch    []ChangeEvent
	)

	flush := func() {
		quiet, deadline = nil, nil
		if len(batch) == 0 {
			return
		}
		logging.Debug("flushing accumulated events", "count", len(batch))
		d.output <- batch
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			batch = append(batch, event)
			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced batches
func (d *Debouncer) Output() <-chan []ChangeEvent {
	return d.output
}
