package jobs

import (
	"context"
)

// Notifier is a single-slot, edge-triggered signal. Set is non-blocking and
// coalesces with any pending edge; Wait consumes one edge. Observers call
// Clear before Wait so that an edge raised between their snapshot read and
// the wait is not lost as a stale wakeup.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

func (n *Notifier) Set() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *Notifier) Clear() {
	select {
	case <-n.ch:
	default:
	}
}

func (n *Notifier) Wait(ctx context.Context) error {
	select {
	case <-n.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
