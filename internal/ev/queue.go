// Package ev provides the deferred event queue that serializes all
// protocol work onto the event loop. Reader goroutines enqueue
// closures; the loop drains them in batches.
package ev

import (
	"errors"

	"deedles.dev/xsync/cq"
)

// Queue is an unbounded concurrent queue of pending events. Receiving
// from Get yields everything queued so far as one batch.
type Queue = cq.BulkQueue[func() error, *Events]

func NewQueue() *Queue {
	return cq.New(func(evs []func() error) *Events {
		return &Events{pending: evs}
	})
}

// Events is one drained batch of queued events.
type Events struct {
	pending []func() error
}

// Flush runs every event in the batch, collecting errors rather than
// stopping at the first one.
func (e *Events) Flush() error {
	var errs []error
	for _, ev := range e.pending {
		if err := ev(); err != nil {
			errs = append(errs, err)
		}
	}
	e.pending = nil
	return errors.Join(errs...)
}
