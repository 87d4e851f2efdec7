package notify

import (
	"testing"
	"time"
)

func TestWatch(t *testing.T) {
	n := New[int]()
	sub := Watch(n, 4)
	defer sub.Close()

	if sub.ch == nil {
		t.Fatal("subscription channel not initialized")
	}

	if n.Len() != 1 {
		t.Errorf("expected watch to register 1 subscriber, got %d", n.Len())
	}

	n.Broadcast(42)

	select {
	case v := <-sub.Ch():
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for value")
	}
}

func TestWatchMinimumBuffer(t *testing.T) {
	n := New[int]()
	sub := Watch(n, 0)
	defer sub.Close()

	if cap(sub.ch) != 1 {
		t.Errorf("expected buffer of 1, got %d", cap(sub.ch))
	}
}

func TestSubscriptionSendFull(t *testing.T) {
	n := New[int]()
	sub := Watch(n, 2)
	defer sub.Close()

	if !sub.Send(1) || !sub.Send(2) {
		t.Fatal("Send failed before buffer was full")
	}

	// Next send should fail (non-blocking)
	if sub.Send(3) {
		t.Error("Send should return false when channel is full")
	}

	// Broadcast must not block on a full subscriber
	done := make(chan struct{})
	go func() {
		n.Broadcast(4)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full subscription")
	}
}

func TestSubscriptionClose(t *testing.T) {
	n := New[int]()
	sub := Watch(n, 4)

	n.Broadcast(7)
	sub.Close()

	if n.Len() != 0 {
		t.Errorf("Close should unsubscribe, got %d subscribers", n.Len())
	}

	// Buffered values are still delivered after close
	select {
	case v, ok := <-sub.Ch():
		if !ok {
			t.Error("channel closed before draining buffered values")
		}
		if v != 7 {
			t.Errorf("expected 7, got %d", v)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout receiving buffered value")
	}

	select {
	case _, ok := <-sub.Ch():
		if ok {
			t.Error("channel not closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout checking channel close")
	}

	if sub.Send(8) {
		t.Error("Send should return false after close")
	}
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	n := New[int]()
	sub := Watch(n, 1)

	// Close multiple times should not panic
	sub.Close()
	sub.Close()
	sub.Close()
}
