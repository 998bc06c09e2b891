package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const bridgeChannelPrefix = "collab:"

// bridgeMessage wraps an envelope with the publishing instance's identity
// so an instance can ignore its own traffic.
type bridgeMessage struct {
	Origin   string   `json:"origin"`
	Envelope Envelope `json:"envelope"`
}

// Bridge fans session envelopes out between collabd instances over Redis
// pub/sub. It is optional; a single instance runs without one.
type Bridge struct {
	originID string
	rdb      *redis.Client
	hub      *Hub
	logger   *slog.Logger
}

// NewBridge wires a hub to a Redis client. Local inbound envelopes are
// published; remote envelopes are re-broadcast locally.
func NewBridge(rdb *redis.Client, hub *Hub, logger *slog.Logger) *Bridge {
	b := &Bridge{
		originID: uuid.NewString(),
		rdb:      rdb,
		hub:      hub,
		logger:   logger,
	}
	hub.SetRelay(b.publish)
	return b
}

// Run subscribes to session channels and relays remote envelopes until the
// context is canceled. Lost subscriptions are re-established with backoff.
func (b *Bridge) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0

	operation := func() error {
		if err := b.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			b.logger.Warn("bridge subscription lost, resubscribing", "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil && ctx.Err() == nil {
		return fmt.Errorf("bridge subscribe: %w", err)
	}
	return nil
}

func (b *Bridge) consume(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, bridgeChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("pubsub channel closed")
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *Bridge) deliver(payload string) {
	var msg bridgeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.logger.Warn("bridge received malformed message", "error", err)
		return
	}
	if msg.Origin == b.originID {
		return
	}
	b.hub.Broadcast(msg.Envelope.SessionID, msg.Envelope)
}

func (b *Bridge) publish(env Envelope) {
	data, err := json.Marshal(bridgeMessage{Origin: b.originID, Envelope: env})
	if err != nil {
		b.logger.Error("bridge failed to encode envelope", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, bridgeChannelPrefix+env.SessionID, data).Err(); err != nil {
		b.logger.Warn("bridge publish failed", "session", env.SessionID, "error", err)
	}
}
