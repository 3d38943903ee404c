package jobs

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded in-process FIFO of job ids. Enqueue never blocks;
// Dequeue waits up to the given duration for an item. The single-slot
// signal channel coalesces wakeups; dequeuers re-check the list and
// re-raise the signal while items remain so no waiter is stranded.
type Queue struct {
	mu     sync.Mutex
	items  []string
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

func (q *Queue) Enqueue(jobID string) {
	q.mu.Lock()
	q.items = append(q.items, jobID)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue pops the oldest id, waiting up to wait for one to arrive.
// Returns false on timeout or context cancellation.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (string, bool) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			jobID := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				select {
				case q.signal <- struct{}{}:
				default:
				}
			}
			return jobID, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-deadline.C:
			return "", false
		case <-ctx.Done():
			return "", false
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
