package engine

import "sync"

// Notifier is a single-slot change-notification hook. At most one listener
// is registered at a time: the design supports exactly one active
// visualization, and a new registration displaces the previous one. This is
// intentionally not a multi-subscriber broadcast.
type Notifier struct {
	mu       sync.Mutex
	listener func()
}

// SetListener replaces the registered callback. Pass nil to clear it.
func (n *Notifier) SetListener(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listener = fn
}

// Notify invokes the current listener synchronously on the calling
// goroutine, or does nothing if no listener is set. No queuing, no delivery
// guarantees beyond the immediate call.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fn := n.listener
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}
