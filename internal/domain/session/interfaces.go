package session

import "context"

// Repository provides persistence for sessions and their files.
type Repository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	GetActiveByProject(ctx context.Context, projectID string) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	Close(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]Info, error)
	SaveFile(ctx context.Context, sessionID string, file File) error
}
