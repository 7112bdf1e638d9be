// ABOUTME: Multi-producer single-consumer event queue with non-blocking drain.
// ABOUTME: Producers Send from any goroutine; the consumer collects everything with TryRecvAll.

package eventbus

import "sync"

// Handler observes events as they are sent.
type Handler[T any] func(T)

// Bus queues events from many producers for a single consumer. Events from
// one producer are received in the order that producer sent them. Send
// never blocks and never fails; the queue is unbounded.
type Bus[T any] struct {
	mu    sync.Mutex
	queue []T
	ready chan struct{}

	hmu      sync.RWMutex
	handlers map[int]Handler[T]
	nextID   int
}

// New creates an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{
		ready:    make(chan struct{}, 1),
		handlers: make(map[int]Handler[T]),
	}
}

// Send enqueues event and wakes the consumer. Subscribed handlers are
// called synchronously on the sender's goroutine.
func (b *Bus[T]) Send(event T) {
	b.mu.Lock()
	b.queue = append(b.queue, event)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}

	b.hmu.RLock()
	// Snapshot handlers to avoid holding lock during callbacks
	snapshot := make([]Handler[T], 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.hmu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

// TryRecvAll removes and returns every queued event without blocking.
// It returns nil when nothing is queued.
func (b *Bus[T]) TryRecvAll() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = nil
	return out
}

// Len returns the number of queued events.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Ready returns a channel that receives a value after one or more Sends.
// Notifications coalesce; an empty TryRecvAll after a wake-up is normal.
func (b *Bus[T]) Ready() <-chan struct{} {
	return b.ready
}

// Subscribe registers a handler and returns an unsubscribe function.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	b.hmu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.hmu.Unlock()

	return func() {
		b.hmu.Lock()
		delete(b.handlers, id)
		b.hmu.Unlock()
	}
}

// Count returns the number of registered handlers.
func (b *Bus[T]) Count() int {
	b.hmu.RLock()
	defer b.hmu.RUnlock()
	return len(b.handlers)
}
