package jobs

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	for _, id := range []string{"a", "b", "c"} {
		q.Enqueue(id)
	}
	if got := q.Len(); got != 3 {
		t.Fatalf("Len()=%d, want 3", got)
	}
	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue(ctx, time.Second)
		if !ok || got != want {
			t.Fatalf("Dequeue()=(%q,%v), want (%q,true)", got, ok, want)
		}
	}
}

func TestQueueDequeueTimesOutWhenEmpty(t *testing.T) {
	q := NewQueue()
	start := time.Now()
	_, ok := q.Dequeue(context.Background(), 30*time.Millisecond)
	if ok {
		t.Fatalf("Dequeue on empty queue returned ok")
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("Dequeue returned before the wait elapsed")
	}
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := q.Dequeue(ctx, time.Second); ok {
		t.Fatalf("Dequeue on cancelled context returned ok")
	}
}

func TestQueueWakesBlockedDequeuer(t *testing.T) {
	q := NewQueue()
	done := make(chan string, 1)
	go func() {
		id, ok := q.Dequeue(context.Background(), 2*time.Second)
		if !ok {
			done <- ""
			return
		}
		done <- id
	}()
	time.Sleep(20 * time.Millisecond)
	q.Enqueue("wake")
	select {
	case id := <-done:
		if id != "wake" {
			t.Fatalf("dequeued %q, want %q", id, "wake")
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked dequeuer was never woken")
	}
}

// A burst of enqueues raises fewer signals than items; dequeuers must
// re-raise so every item is eventually drained by concurrent workers.
func TestQueueConcurrentDrain(t *testing.T) {
	q := NewQueue()
	const n = 50
	for i := 0; i < n; i++ {
		q.Enqueue(string(rune('A' + i%26)))
	}

	var mu sync.Mutex
	var got []string
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				id, ok := q.Dequeue(context.Background(), 100*time.Millisecond)
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(got) != n {
		t.Fatalf("drained %d items, want %d", len(got), n)
	}
	var want []string
	for i := 0; i < n; i++ {
		want = append(want, string(rune('A'+i%26)))
	}
	sort.Strings(got)
	sort.Strings(want)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drained item set mismatch at %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
