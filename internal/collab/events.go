package collab

import (
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/domain/presence"
)

// JoinPayload announces a participant entering a session.
type JoinPayload struct {
	User presence.Participant `json:"user"`
}

// LeavePayload announces a participant leaving a session.
type LeavePayload struct {
	UserID string `json:"user_id"`
}

// CursorPayload carries a cursor move and optional selection.
type CursorPayload struct {
	Cursor    presence.Cursor     `json:"cursor"`
	Selection *presence.Selection `json:"selection,omitempty"`
}

// TypingPayload carries a typing indicator.
type TypingPayload struct {
	FilePath string `json:"file_path,omitempty"`
	Typing   bool   `json:"typing"`
}

// ReplyPayload carries a threaded reply to a comment.
type ReplyPayload struct {
	Reply comment.Reply `json:"reply"`
}

// ReactionPayload carries an emoji reaction on a comment.
type ReactionPayload struct {
	CommentID string `json:"comment_id"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"user_id"`
}

// ResolvePayload identifies a comment being resolved.
type ResolvePayload struct {
	CommentID string `json:"comment_id"`
}

// SyncPayload is the heartbeat sent on the periodic sync tick.
type SyncPayload struct {
	PendingChanges int `json:"pending_changes"`
}
