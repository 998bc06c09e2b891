package transport

import (
	"context"
	"errors"
	"sync"
)

// Status is the connection state of a transport.
type Status string

const (
	StatusOffline   Status = "offline"
	StatusSyncing   Status = "syncing"
	StatusConnected Status = "connected"
)

// ErrNotConnected is returned by Send when the transport is not connected.
var ErrNotConnected = errors.New("transport not connected")

// Handler consumes an inbound envelope. Handlers run on the transport's
// delivery goroutine and must not block.
type Handler func(Envelope)

// Transport is a bidirectional collaboration channel. Implementations:
// Loopback (in-process, simulated delays) and Client (WebSocket).
type Transport interface {
	// Connect establishes the channel. The connected event fires on the
	// registered handlers once the transition completes.
	Connect(ctx context.Context) error
	// Send transmits an envelope. Delivery order follows send order; there
	// is no stronger guarantee.
	Send(env Envelope) error
	// On registers a handler for an event type and returns its unsubscribe
	// function.
	On(eventType EventType, fn Handler) (off func())
	// Status reports the current connection state.
	Status() Status
	// Close tears the channel down.
	Close() error
}

// listeners is a per-event-type handler registry shared by transports.
type listeners struct {
	mu      sync.RWMutex
	nextID  int
	byEvent map[EventType]map[int]Handler
}

func newListeners() *listeners {
	return &listeners{
		byEvent: make(map[EventType]map[int]Handler),
	}
}

func (l *listeners) add(eventType EventType, fn Handler) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	if l.byEvent[eventType] == nil {
		l.byEvent[eventType] = make(map[int]Handler)
	}
	l.byEvent[eventType][id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.byEvent[eventType], id)
	}
}

func (l *listeners) dispatch(env Envelope) {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.byEvent[env.Type]))
	for _, fn := range l.byEvent[env.Type] {
		handlers = append(handlers, fn)
	}
	l.mu.RUnlock()

	for _, fn := range handlers {
		fn(env)
	}
}
