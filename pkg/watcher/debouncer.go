package watcher

import (
	"context"
	"time"

	"github.com/ritzau/jsat-analyzer/pkg/logging"
)

// Debouncer collapses bursts of events into one. An editor saving a file
// typically produces several writes; the document is reloaded once they
// have settled.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer that emits after quietPeriod without new
// events, or after maxWait since the first event of a burst
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run keeps the latest event of a burst and emits it when a timer fires
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	quiet.Stop()
	deadline := time.NewTimer(d.maxWait)
	deadline.Stop()

	var (
		pending *ChangeEvent
		count   int
	)

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "count", count, "type", pending.Type.String())
		select {
		case d.output <- *pending:
		case <-ctx.Done():
		}
		pending, count = nil, 0
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			if pending == nil {
				deadline.Reset(d.maxWait)
			}
			pending = &event
			count++
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
