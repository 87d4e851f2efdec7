// Package notify provides a synchronous publish/subscribe primitive.
package notify

import "sync"

// Notifier delivers broadcast values to registered callbacks.
//
// Callbacks run synchronously on the broadcasting goroutine, in registration
// order, and receive the same value. No lock is held while a callback runs, so
// a callback may subscribe, unsubscribe or broadcast again. A panic raised by a
// callback is not recovered and propagates to the caller of Broadcast.
type Notifier[T any] struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// New creates a new notifier with no subscribers
func New[T any]() *Notifier[T] {
	return &Notifier[T]{
		subscribers: make([]subscriber[T], 0),
	}
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (n *Notifier[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subscribers = append(n.subscribers, subscriber[T]{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.unsubscribe(id) })
	}
}

func (n *Notifier[T]) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subscribers {
		if s.id == id {
			// Keep registration order, no swap-remove here
			n.subscribers = append(n.subscribers[:i:i], n.subscribers[i+1:]...)
			return
		}
	}
}

// Broadcast invokes every registered callback with v
func (n *Notifier[T]) Broadcast(v T) {
	n.mu.Lock()
	// Clone subscribers to avoid holding lock during delivery
	subs := make([]subscriber[T], len(n.subscribers))
	copy(subs, n.subscribers)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of registered callbacks
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers)
}
