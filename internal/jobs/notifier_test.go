package jobs

import (
	"context"
	"testing"
	"time"
)

func TestNotifierCoalescesSignals(t *testing.T) {
	n := NewNotifier()
	n.Set()
	n.Set()
	n.Set()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("first Wait returned error: %v", err)
	}

	// The three Sets collapsed into one signal; a second Wait must block.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if err := n.Wait(ctx2); err == nil {
		t.Fatalf("second Wait returned without a new signal")
	}
}

func TestNotifierClearDrainsPendingSignal(t *testing.T) {
	n := NewNotifier()
	n.Set()
	n.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := n.Wait(ctx); err == nil {
		t.Fatalf("Wait returned after Clear drained the signal")
	}
}

func TestNotifierClearOnEmptyIsNoop(t *testing.T) {
	n := NewNotifier()
	n.Clear()
	n.Set()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("Wait after Set returned error: %v", err)
	}
}

func TestNotifierWaitHonorsContext(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Wait(ctx); err == nil {
		t.Fatalf("Wait on cancelled context returned nil")
	}
}
