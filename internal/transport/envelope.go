package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of payload an envelope carries.
type EventType string

const (
	EventConnected       EventType = "connected"
	EventDisconnected    EventType = "disconnected"
	EventAck             EventType = "ack"
	EventChange          EventType = "change"
	EventCursor          EventType = "cursor"
	EventTyping          EventType = "typing"
	EventComment         EventType = "comment"
	EventCommentResolved EventType = "comment-resolved"
	EventCommentReply    EventType = "comment-reply"
	EventCommentReaction EventType = "comment-reaction"
	EventUserJoined      EventType = "user-joined"
	EventUserLeft        EventType = "user-left"
	EventSync            EventType = "sync"
)

// Envelope is the unit of exchange on a collaboration channel. Ref carries
// the ID of the envelope being acknowledged on ack events.
type Envelope struct {
	ID        string          `json:"id"`
	Ref       string          `json:"ref,omitempty"`
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	SenderID  string          `json:"sender_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	SentAt    time.Time       `json:"sent_at"`
}

// NewEnvelope builds an envelope around a JSON-encodable payload.
func NewEnvelope(eventType EventType, sessionID, senderID string, payload any) (Envelope, error) {
	env := Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		SenderID:  senderID,
		SentAt:    time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encoding payload: %w", err)
		}
		env.Payload = data
	}

	return env, nil
}

// DecodePayload unmarshals an envelope payload into out.
func (e Envelope) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("envelope %s has no payload", e.ID)
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

// Ack builds the acknowledgment envelope for e.
func (e Envelope) Ack() Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Ref:       e.ID,
		Type:      EventAck,
		SessionID: e.SessionID,
		SentAt:    time.Now(),
	}
}
