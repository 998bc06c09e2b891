package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoptal/collabd/internal/collab"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/domain/presence"
	"github.com/zoptal/collabd/internal/domain/session"
	"github.com/zoptal/collabd/internal/repository"
	"github.com/zoptal/collabd/internal/transport"
)

const inboundTimeout = 5 * time.Second

// attachHub installs the hooks that make the hub authoritative: inbound
// envelopes are validated and persisted before fan-out, and peers joining or
// leaving a room are announced to the rest of it.
func (s *Server) attachHub() {
	if s.deps.Hub == nil {
		return
	}

	s.deps.Hub.SetInbound(s.inbound)
	s.deps.Hub.SetPresenceHooks(s.peerJoined, s.peerLeft)
}

// inbound persists the durable event types and updates presence for the
// ephemeral ones. Returning an error drops the envelope before fan-out.
func (s *Server) inbound(env transport.Envelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), inboundTimeout)
	defer cancel()

	switch env.Type {
	case transport.EventChange:
		return s.inboundChange(ctx, env)

	case transport.EventComment:
		var c comment.Comment
		if err := env.DecodePayload(&c); err != nil {
			return fmt.Errorf("malformed comment payload: %w", err)
		}
		c.SessionID = env.SessionID
		return s.deps.Comments.Record(ctx, &c)

	case transport.EventCommentResolved:
		var payload collab.ResolvePayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed resolve payload: %w", err)
		}
		if err := s.deps.Comments.Resolve(ctx, payload.CommentID); err != nil {
			return err
		}
		return nil

	case transport.EventCommentReply:
		var payload collab.ReplyPayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed reply payload: %w", err)
		}
		return s.deps.Comments.RecordReply(ctx, &payload.Reply)

	case transport.EventCommentReaction:
		var payload collab.ReactionPayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed reaction payload: %w", err)
		}
		return s.deps.Comments.React(ctx, payload.CommentID, payload.Emoji, payload.UserID)

	case transport.EventCursor:
		var payload collab.CursorPayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed cursor payload: %w", err)
		}
		s.deps.Presence.UpdateCursor(env.SessionID, env.SenderID, payload.Cursor, payload.Selection)
		return nil

	case transport.EventTyping:
		var payload collab.TypingPayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed typing payload: %w", err)
		}
		s.deps.Presence.SetTyping(env.SessionID, env.SenderID, payload.FilePath, payload.Typing)
		return nil

	case transport.EventUserJoined:
		var payload collab.JoinPayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed join payload: %w", err)
		}
		if payload.User.ID != "" {
			s.deps.Presence.Join(env.SessionID, payload.User)
		}
		return nil

	case transport.EventUserLeft:
		var payload collab.LeavePayload
		if err := env.DecodePayload(&payload); err != nil {
			return fmt.Errorf("malformed leave payload: %w", err)
		}
		s.deps.Presence.Leave(env.SessionID, payload.UserID)
		return nil

	default:
		return nil
	}
}

// inboundChange re-applies a client edit against the authoritative copy and
// records it. A change the applier rejects is still recorded, unapplied, and
// still fans out; only malformed or duplicate-free persistence failures drop
// it.
func (s *Server) inboundChange(ctx context.Context, env transport.Envelope) error {
	var ch change.Change
	if err := env.DecodePayload(&ch); err != nil {
		return fmt.Errorf("malformed change payload: %w", err)
	}
	ch.SessionID = env.SessionID
	ch.UserID = env.SenderID

	sess, err := s.deps.Sessions.Get(ctx, env.SessionID)
	if err != nil {
		return err
	}
	if !sess.Settings.AllowEditing {
		return errors.New("editing disabled for session")
	}

	var file *session.File
	for i := range sess.Files {
		if sess.Files[i].Path == ch.FilePath {
			file = &sess.Files[i]
			break
		}
	}
	if file == nil {
		return fmt.Errorf("file %q not in session", ch.FilePath)
	}

	updated, applyErr := change.Apply(file.Content, ch)
	ch.Applied = applyErr == nil

	if err := s.deps.Changes.Record(ctx, &ch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	if applyErr == nil {
		if err := s.deps.Sessions.SaveFile(ctx, sess.ID, session.File{
			Path:     file.Path,
			Content:  updated,
			Language: file.Language,
		}); err != nil {
			s.deps.Logger.Error("saving applied change failed", "change", ch.ID, "error", err)
		}
	} else {
		s.deps.Logger.Warn("change recorded but not applied",
			"change", ch.ID, "file", ch.FilePath, "error", applyErr)
	}
	return nil
}

// peerJoined registers the peer and announces it to the room.
func (s *Server) peerJoined(sessionID, userID string) {
	joined := s.deps.Presence.Join(sessionID, presence.Participant{ID: userID})
	s.broadcast(transport.EventUserJoined, sessionID, userID, collab.JoinPayload{User: joined})
}

// peerLeft removes the peer and announces the departure.
func (s *Server) peerLeft(sessionID, userID string) {
	s.deps.Presence.Leave(sessionID, userID)
	s.broadcast(transport.EventUserLeft, sessionID, userID, collab.LeavePayload{UserID: userID})
}

func (s *Server) broadcast(eventType transport.EventType, sessionID, senderID string, payload any) {
	if s.deps.Hub == nil {
		return
	}
	env, err := transport.NewEnvelope(eventType, sessionID, senderID, payload)
	if err != nil {
		s.deps.Logger.Error("failed to build broadcast envelope", "type", eventType, "error", err)
		return
	}
	s.deps.Hub.Broadcast(sessionID, env)
}
