// Package events is the in-process cross-view event bus. Its scope is one
// kiosk process only; cross-process signaling goes through the announcement
// channel instead. Views publish QueueUpdated after every successful mutating
// queue call so sibling views refresh immediately instead of waiting for
// their next polling tick.
package events

import "sync"

// QueueUpdated fires after any successful mutating call that affects queue
// state (call next, complete, delete entry, ...).
const QueueUpdated = "queue.updated"

// Bus is a minimal named-event broadcaster. Handlers run synchronously on
// the publishing goroutine.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]func())}
}

// Subscribe registers fn for event and returns an unsubscribe func. Views
// must call it on teardown; a leaked handler keeps refreshing an unmounted
// view.
func (b *Bus) Subscribe(event string, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[event] == nil {
		b.handlers[event] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.handlers[event][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[event], id)
	}
}

// Publish invokes every handler registered for event.
func (b *Bus) Publish(event string) {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.handlers[event]))
	for _, fn := range b.handlers[event] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
