package watcher

import (
	"context"
	"slices"
	"time"

	"github.com/ritzau/qconvert/pkg/logging"
)

// Debouncer batches rapid file system events so that an editor save, which
// often produces several events, triggers one reload.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A batch is emitted after
// quietPeriod without events, or maxWait after its first event.
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

// stopTimer stops t and drains a pending tick.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	stopTimer(quiet)
	deadline := time.NewTimer(d.maxWait)
	stopTimer(deadline)

	var (
		pending    *ChangeEvent
		eventCount int
	)

	flush := func() {
		stopTimer(quiet)
		stopTimer(deadline)
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "count", eventCount, "type", pending.Type.String())
		d.output <- *pending
		pending, eventCount = nil, 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			// The most recent change decides the batch type
			if pending == nil {
				pending = &ChangeEvent{}
				deadline.Reset(d.maxWait)
			}
			pending.Type = event.Type
			pending.Timestamp = event.Timestamp
			for _, p := range event.Paths {
				if !slices.Contains(pending.Paths, p) {
					pending.Paths = append(pending.Paths, p)
				}
			}
			eventCount++

			stopTimer(quiet)
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
