package sqlite

import (
	"context"
	"fmt"

	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/repository"
)

// ChangeRepository implements change.Repository for SQLite
type ChangeRepository struct {
	db *DB
}

// NewChangeRepository creates a new ChangeRepository
func NewChangeRepository(db *DB) *ChangeRepository {
	return &ChangeRepository{db: db}
}

// Append appends a change to the session change log
func (r *ChangeRepository) Append(ctx context.Context, ch *change.Change) error {
	query := `
		INSERT INTO changes (
			id, session_id, user_id, kind, file_path, line, col, text,
			applied, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		ch.ID,
		ch.SessionID,
		ch.UserID,
		ch.Kind,
		ch.FilePath,
		ch.Line,
		ch.Column,
		ch.Text,
		boolToInt(ch.Applied),
		ch.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to append change: %w", err)
	}

	return nil
}

// List returns the change log for a session in arrival order
func (r *ChangeRepository) List(ctx context.Context, sessionID string) ([]change.Change, error) {
	query := `
		SELECT id, session_id, user_id, kind, file_path, line, col, text,
		       applied, created_at
		FROM changes
		WHERE session_id = ?
		ORDER BY rowid ASC
	`
	return r.queryChanges(ctx, query, sessionID)
}

// ListByFile returns the changes touching one file of a session
func (r *ChangeRepository) ListByFile(ctx context.Context, sessionID, filePath string) ([]change.Change, error) {
	query := `
		SELECT id, session_id, user_id, kind, file_path, line, col, text,
		       applied, created_at
		FROM changes
		WHERE session_id = ? AND file_path = ?
		ORDER BY rowid ASC
	`
	return r.queryChanges(ctx, query, sessionID, filePath)
}

func (r *ChangeRepository) queryChanges(ctx context.Context, query string, args ...any) ([]change.Change, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	defer rows.Close()

	var changes []change.Change
	for rows.Next() {
		var ch change.Change
		var applied int
		if err := rows.Scan(
			&ch.ID,
			&ch.SessionID,
			&ch.UserID,
			&ch.Kind,
			&ch.FilePath,
			&ch.Line,
			&ch.Column,
			&ch.Text,
			&applied,
			&ch.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		ch.Applied = applied != 0
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating changes: %w", err)
	}

	return changes, nil
}
