package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zoptal/collabd/internal/repository"
)

// Service handles comment operations.
type Service struct {
	comments Repository
	logger   *slog.Logger
}

// NewService creates a new comment service.
func NewService(comments Repository, logger *slog.Logger) *Service {
	return &Service{
		comments: comments,
		logger:   logger,
	}
}

// AddRequest describes a new comment.
type AddRequest struct {
	SessionID string
	UserID    string
	FilePath  string
	Line      int
	Column    *int
	Body      string
}

// Add creates a comment on a session file line.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Comment, error) {
	if req.SessionID == "" || req.UserID == "" || req.FilePath == "" || req.Body == "" {
		return nil, ErrInvalidInput
	}
	if req.Line < 0 {
		return nil, ErrInvalidInput
	}

	c := &Comment{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		UserID:    req.UserID,
		FilePath:  req.FilePath,
		Line:      req.Line,
		Column:    req.Column,
		Body:      req.Body,
		CreatedAt: time.Now(),
	}

	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	return c, nil
}

// Record persists a comment that was created elsewhere, keeping its ID and
// timestamps. Recording the same comment twice is a no-op.
func (s *Service) Record(ctx context.Context, c *Comment) error {
	if c.ID == "" || c.SessionID == "" || c.UserID == "" || c.FilePath == "" || c.Body == "" {
		return ErrInvalidInput
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	if err := s.comments.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("recording comment: %w", err)
	}
	return nil
}

// Get retrieves a comment by ID.
func (s *Service) Get(ctx context.Context, id string) (*Comment, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	c, err := s.comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("loading comment: %w", err)
	}
	return c, nil
}

// Resolve marks a comment resolved. Resolution is monotonic: resolving an
// already-resolved comment is a no-op, never a revert.
func (s *Service) Resolve(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}

	if err := s.comments.Resolve(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("resolving comment: %w", err)
	}
	return nil
}

// Reply adds a threaded reply to a comment.
func (s *Service) Reply(ctx context.Context, commentID, userID, body string) (*Reply, error) {
	if commentID == "" || userID == "" || body == "" {
		return nil, ErrInvalidInput
	}

	reply := &Reply{
		ID:        uuid.NewString(),
		CommentID: commentID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.comments.AddReply(ctx, reply); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("adding reply: %w", err)
	}
	return reply, nil
}

// RecordReply persists a reply that was created elsewhere, keeping its ID.
// Recording the same reply twice is a no-op.
func (s *Service) RecordReply(ctx context.Context, reply *Reply) error {
	if reply.ID == "" || reply.CommentID == "" || reply.UserID == "" || reply.Body == "" {
		return ErrInvalidInput
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}

	if err := s.comments.AddReply(ctx, reply); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("recording reply: %w", err)
	}
	return nil
}

// React records an emoji reaction by a user. Reacting twice with the same
// emoji is idempotent.
func (s *Service) React(ctx context.Context, commentID, emoji, userID string) error {
	if commentID == "" || emoji == "" || userID == "" {
		return ErrInvalidInput
	}

	if err := s.comments.AddReaction(ctx, commentID, emoji, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("adding reaction: %w", err)
	}
	return nil
}

// ListBySession returns all comments for a session in creation order.
func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]Comment, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.comments.ListBySession(ctx, sessionID)
}
