package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zoptal/collabd/internal/repository"
)

// DefaultMaxUsers caps session membership when settings leave it unset.
const DefaultMaxUsers = 10

// Service handles session lifecycle operations.
type Service struct {
	sessions Repository
	logger   *slog.Logger
}

// NewService creates a new session service.
func NewService(sessions Repository, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		logger:   logger,
	}
}

// CreateRequest describes a session creation request.
type CreateRequest struct {
	ProjectID string
	Name      string
	Files     []File
	Settings  Settings
}

// Create creates a new session for a project.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	if req.ProjectID == "" {
		return nil, ErrInvalidInput
	}

	settings := req.Settings
	if settings.MaxUsers <= 0 {
		settings.MaxUsers = DefaultMaxUsers
	}

	now := time.Now()
	sess := &Session{
		ID:           uuid.NewString(),
		ProjectID:    req.ProjectID,
		Name:         req.Name,
		Status:       StatusActive,
		Files:        req.Files,
		Settings:     settings,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return sess, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// GetOrCreate returns the active session for a project, creating one on
// first connect.
func (s *Service) GetOrCreate(ctx context.Context, projectID string) (*Session, error) {
	if projectID == "" {
		return nil, ErrInvalidInput
	}

	sess, err := s.sessions.GetActiveByProject(ctx, projectID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	return s.Create(ctx, CreateRequest{
		ProjectID: projectID,
		Name:      projectID,
		Settings: Settings{
			AllowEditing:  true,
			AllowComments: true,
			MaxUsers:      DefaultMaxUsers,
		},
	})
}

// SaveFile persists the content of a session file.
func (s *Service) SaveFile(ctx context.Context, sessionID string, file File) error {
	if sessionID == "" || file.Path == "" {
		return ErrInvalidInput
	}

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Status == StatusClosed {
		return ErrSessionClosed
	}
	if !sess.Settings.AllowEditing {
		return ErrEditingDisabled
	}

	if err := s.sessions.SaveFile(ctx, sessionID, file); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	return s.Touch(ctx, sessionID)
}

// Touch records activity on a session.
func (s *Service) Touch(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("loading session: %w", err)
	}

	sess.LastActivity = time.Now()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// Close closes a session.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}

	if err := s.sessions.Close(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("closing session: %w", err)
	}
	return nil
}

// ListActive returns summaries of all active sessions.
func (s *Service) ListActive(ctx context.Context) ([]Info, error) {
	return s.sessions.ListActive(ctx)
}
