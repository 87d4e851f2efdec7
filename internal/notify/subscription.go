package notify

import "sync"

// Subscription feeds broadcast values into a buffered channel
type Subscription[T any] struct {
	mu          sync.Mutex
	ch          chan T
	closed      bool
	unsubscribe func()
}

// Watch subscribes to n and returns a channel-backed subscription.
// Values are dropped when the buffer is full.
func Watch[T any](n *Notifier[T], buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}

	sub := &Subscription[T]{
		ch: make(chan T, buffer),
	}
	sub.unsubscribe = n.Subscribe(func(v T) {
		sub.Send(v)
	})

	return sub
}

// Ch returns the notification channel
func (s *Subscription[T]) Ch() <-chan T {
	return s.ch
}

// Send sends a value to the subscriber
// Returns false if the channel is full or closed
func (s *Subscription[T]) Send(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- v:
		return true
	default:
		// Channel is full, skip this value
		return false
	}
}

// Close detaches the subscription and closes its channel
func (s *Subscription[T]) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
