// Package events provides a window-scoped bus for scroll and resize
// notifications. Listeners hold a Subscription for as long as they need
// events and close it to release the registration.
package events

import (
	"sync"
)

// Kind identifies an event type.
type Kind int

const (
	// KindScroll is emitted when the window or any nested container scrolls.
	KindScroll Kind = iota
	// KindResize is emitted when the window changes size.
	KindResize
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScroll:
		return "scroll"
	case KindResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Event is a single scroll or resize notification.
type Event struct {
	Kind Kind
	// Target names the container that scrolled. Empty means the window itself.
	Target string
}

// Handler receives events.
type Handler func(Event)

type listener struct {
	id      uint64
	handler Handler
	capture bool
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*listener)

// WithCapture delivers scroll events from every target, not only the window.
// This mirrors capture-phase listening on a document root.
func WithCapture() SubscribeOption {
	return func(l *listener) {
		l.capture = true
	}
}

// Bus dispatches events to subscribed handlers. It is safe for concurrent
// use; Publish runs handlers synchronously on the caller's goroutine.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Kind][]*listener
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Kind][]*listener),
	}
}

// Subscribe registers handler for events of the given kind.
func (b *Bus) Subscribe(kind Kind, handler Handler, opts ...SubscribeOption) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	l := &listener{id: b.nextID, handler: handler}
	for _, opt := range opts {
		opt(l)
	}
	b.listeners[kind] = append(b.listeners[kind], l)

	return &Subscription{bus: b, kind: kind, id: l.id}
}

// Publish delivers ev to every matching listener in subscription order.
// Listeners are snapshotted first, so a handler may close its own
// subscription (or others) while being called.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	snapshot := make([]*listener, len(b.listeners[ev.Kind]))
	copy(snapshot, b.listeners[ev.Kind])
	b.mu.Unlock()

	for _, l := range snapshot {
		if ev.Kind == KindScroll && ev.Target != "" && !l.capture {
			continue
		}
		l.handler(ev)
	}
}

// Listeners returns how many handlers are registered for kind.
func (b *Bus) Listeners(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[kind])
}

func (b *Bus) remove(kind Kind, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls := b.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			b.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

// Subscription is a live registration on a Bus.
type Subscription struct {
	bus  *Bus
	kind Kind
	id   uint64

	once sync.Once
}

// Close removes the registration. It is synchronous and idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s.kind, s.id)
	})
}
