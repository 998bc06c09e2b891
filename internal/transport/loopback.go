package transport

import (
	"context"
	"sync"
	"time"
)

const (
	defaultConnectDelay = 10 * time.Millisecond
	defaultAckDelay     = 5 * time.Millisecond
)

// Loopback is an in-process transport: Connect fires the connected event
// after a fixed delay and every Send is echoed back as an ack after a fixed
// delay. It carries no real network I/O; remote traffic is injected by the
// test or the owning process.
type Loopback struct {
	mu           sync.Mutex
	status       Status
	closed       bool
	connectDelay time.Duration
	ackDelay     time.Duration
	listeners    *listeners
	sent         []Envelope
}

// NewLoopback creates a loopback transport with the default delays.
func NewLoopback() *Loopback {
	return &Loopback{
		status:       StatusOffline,
		connectDelay: defaultConnectDelay,
		ackDelay:     defaultAckDelay,
		listeners:    newListeners(),
	}
}

// Connect transitions offline -> syncing, then to connected after the
// connect delay.
func (l *Loopback) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrNotConnected
	}
	l.status = StatusSyncing
	l.mu.Unlock()

	time.AfterFunc(l.connectDelay, func() {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		l.status = StatusConnected
		l.mu.Unlock()

		l.listeners.dispatch(Envelope{Type: EventConnected, SentAt: time.Now()})
	})

	return nil
}

// Send records the envelope and schedules its ack.
func (l *Loopback) Send(env Envelope) error {
	l.mu.Lock()
	if l.status != StatusConnected {
		l.mu.Unlock()
		return ErrNotConnected
	}
	l.sent = append(l.sent, env)
	l.mu.Unlock()

	ack := env.Ack()
	time.AfterFunc(l.ackDelay, func() {
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return
		}
		l.listeners.dispatch(ack)
	})

	return nil
}

// On registers a handler for an event type.
func (l *Loopback) On(eventType EventType, fn Handler) func() {
	return l.listeners.add(eventType, fn)
}

// Status reports the current connection state.
func (l *Loopback) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Close disconnects the transport.
func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.status = StatusOffline
	l.mu.Unlock()

	l.listeners.dispatch(Envelope{Type: EventDisconnected, SentAt: time.Now()})
	return nil
}

// Inject delivers an envelope to the registered handlers as if a remote
// peer had sent it.
func (l *Loopback) Inject(env Envelope) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return
	}
	l.listeners.dispatch(env)
}

// Sent returns a copy of everything sent through the transport, in order.
func (l *Loopback) Sent() []Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Envelope, len(l.sent))
	copy(out, l.sent)
	return out
}
