// Package notify provides a small typed observer list.
//
// Notifiers deliver events synchronously on the caller's goroutine, in the
// order observers subscribed. Observers are always invoked outside the
// notifier's lock, so an observer may subscribe, unsubscribe or notify
// again without deadlocking.
package notify

import (
	"sync"
)

// Observer is called when an event is delivered.
type Observer[T any] func(event T)

// Subscription represents an active observer subscription.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the observer. It is safe to call more than once
// and on a nil subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// NewSubscription wraps an arbitrary cancel function.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

type entry[T any] struct {
	id       uint64
	observer Observer[T]
}

// Notifier manages subscriptions for events of type T.
// The zero value is ready to use.
type Notifier[T any] struct {
	mu        sync.RWMutex
	observers []entry[T]
	nextID    uint64
	closed    bool
}

// New creates a new Notifier.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{}
}

// Subscribe registers an observer for every event.
// Subscribing to a closed notifier returns an inert subscription.
func (n *Notifier[T]) Subscribe(observer Observer[T]) *Subscription {
	if observer == nil {
		return &Subscription{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return &Subscription{}
	}

	id := n.nextID
	n.nextID++
	n.observers = append(n.observers, entry[T]{id: id, observer: observer})

	return &Subscription{cancel: func() { n.unsubscribe(id) }}
}

// Notify delivers event to all current observers.
func (n *Notifier[T]) Notify(event T) {
	n.mu.RLock()
	if n.closed || len(n.observers) == 0 {
		n.mu.RUnlock()
		return
	}
	observers := make([]Observer[T], len(n.observers))
	for i, e := range n.observers {
		observers[i] = e.observer
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(event)
	}
}

// Len returns the number of active observers.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Close drops every observer. Further notifications are ignored.
// It is safe to call Close multiple times.
func (n *Notifier[T]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.observers = nil
}

// unsubscribe removes an observer by ID.
func (n *Notifier[T]) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, e := range n.observers {
		if e.id == id {
			n.observers = append(n.observers[:i:i], n.observers[i+1:]...)
			return
		}
	}
}
