package change

import "context"

// Repository provides persistence for the session change log.
type Repository interface {
	Append(ctx context.Context, ch *Change) error
	List(ctx context.Context, sessionID string) ([]Change, error)
	ListByFile(ctx context.Context, sessionID, filePath string) ([]Change, error)
}
