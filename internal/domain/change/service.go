package change

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service records changes into the session change log.
type Service struct {
	changes Repository
	logger  *slog.Logger
}

// NewService creates a new change service.
func NewService(changes Repository, logger *slog.Logger) *Service {
	return &Service{
		changes: changes,
		logger:  logger,
	}
}

// Record validates a change, stamps identity and time if unset, and appends
// it to the log. The change is appended exactly once; callers must not
// re-record on retry.
func (s *Service) Record(ctx context.Context, ch *Change) error {
	if ch.SessionID == "" || ch.UserID == "" || ch.FilePath == "" {
		return ErrInvalidInput
	}
	if !ValidKind(ch.Kind) {
		return ErrInvalidInput
	}

	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now()
	}

	if err := s.changes.Append(ctx, ch); err != nil {
		return fmt.Errorf("appending change: %w", err)
	}
	return nil
}

// List returns the change log for a session in arrival order.
func (s *Service) List(ctx context.Context, sessionID string) ([]Change, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.changes.List(ctx, sessionID)
}

// ListByFile returns the changes touching one file of a session.
func (s *Service) ListByFile(ctx context.Context, sessionID, filePath string) ([]Change, error) {
	if sessionID == "" || filePath == "" {
		return nil, ErrInvalidInput
	}
	return s.changes.ListByFile(ctx, sessionID, filePath)
}
