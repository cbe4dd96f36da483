package auth

import (
	"slices"
	"sync"
)

// Listener receives auth-state changes. A nil user means signed out.
type Listener func(u *User)

// Notifier fans auth-state changes out to listeners. Listeners may be
// called many times with the same user, and may themselves call Publish or
// Subscribe: the listener set is snapshotted and the lock released before
// any listener runs.
type Notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

// NewNotifier creates a notifier with no listeners.
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn Listener) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers u to every listener registered at the time of the call,
// in subscription order.
func (n *Notifier) Publish(u *User) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	snapshot := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		snapshot = append(snapshot, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range snapshot {
		var copied *User
		if u != nil {
			c := *u
			copied = &c
		}
		fn(copied)
	}
}
