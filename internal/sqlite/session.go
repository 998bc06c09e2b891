package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zoptal/collabd/internal/domain/session"
	"github.com/zoptal/collabd/internal/repository"
)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session and its initial files
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, project_id, name, status, allow_editing, allow_comments,
			max_users, public, created_at, last_activity, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		sess.ProjectID,
		sess.Name,
		sess.Status,
		boolToInt(sess.Settings.AllowEditing),
		boolToInt(sess.Settings.AllowComments),
		sess.Settings.MaxUsers,
		boolToInt(sess.Settings.Public),
		sess.CreatedAt,
		sess.LastActivity,
		sess.ClosedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	for _, file := range sess.Files {
		if err := r.SaveFile(ctx, sess.ID, file); err != nil {
			return err
		}
	}

	return nil
}

// Get retrieves a session by ID, including its files
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT
			id, project_id, name, status, allow_editing, allow_comments,
			max_users, public, created_at, last_activity, closed_at
		FROM sessions
		WHERE id = ?
	`
	return r.scanSession(ctx, r.db.QueryRowContext(ctx, query, id))
}

// GetActiveByProject returns the most recent active session for a project
func (r *SessionRepository) GetActiveByProject(ctx context.Context, projectID string) (*session.Session, error) {
	query := `
		SELECT
			id, project_id, name, status, allow_editing, allow_comments,
			max_users, public, created_at, last_activity, closed_at
		FROM sessions
		WHERE project_id = ? AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanSession(ctx, r.db.QueryRowContext(ctx, query, projectID))
}

// Update updates session status, settings, and activity timestamps
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	query := `
		UPDATE sessions
		SET name = ?, status = ?, allow_editing = ?, allow_comments = ?,
		    max_users = ?, public = ?, last_activity = ?, closed_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		sess.Name,
		sess.Status,
		boolToInt(sess.Settings.AllowEditing),
		boolToInt(sess.Settings.AllowComments),
		sess.Settings.MaxUsers,
		boolToInt(sess.Settings.Public),
		sess.LastActivity,
		sess.ClosedAt,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Close marks a session as closed
func (r *SessionRepository) Close(ctx context.Context, id string) error {
	now := time.Now()
	query := `
		UPDATE sessions
		SET status = ?, closed_at = ?, last_activity = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, session.StatusClosed, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListActive returns summaries of active sessions, most recent first
func (r *SessionRepository) ListActive(ctx context.Context) ([]session.Info, error) {
	query := `
		SELECT id, project_id, name, created_at, last_activity
		FROM sessions
		WHERE status = 'active'
		ORDER BY last_activity DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Info
	for rows.Next() {
		var info session.Info
		if err := rows.Scan(&info.SessionID, &info.ProjectID, &info.Name, &info.CreatedAt, &info.LastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan session info: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// SaveFile upserts a session file
func (r *SessionRepository) SaveFile(ctx context.Context, sessionID string, file session.File) error {
	query := `
		INSERT INTO session_files (session_id, path, content, language)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, sessionID, file.Path, file.Content, file.Language)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		if isUniqueViolation(err) {
			updateQuery := `
				UPDATE session_files
				SET content = ?, language = ?
				WHERE session_id = ? AND path = ?
			`
			if _, updateErr := r.db.ExecContext(ctx, updateQuery, file.Content, file.Language, sessionID, file.Path); updateErr != nil {
				return fmt.Errorf("failed to refresh file: %w", updateErr)
			}
			return nil
		}
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

func (r *SessionRepository) scanSession(ctx context.Context, row *sql.Row) (*session.Session, error) {
	var sess session.Session
	var allowEditing, allowComments, public int
	var closedAt sql.NullTime
	err := row.Scan(
		&sess.ID,
		&sess.ProjectID,
		&sess.Name,
		&sess.Status,
		&allowEditing,
		&allowComments,
		&sess.Settings.MaxUsers,
		&public,
		&sess.CreatedAt,
		&sess.LastActivity,
		&closedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.Settings.AllowEditing = allowEditing != 0
	sess.Settings.AllowComments = allowComments != 0
	sess.Settings.Public = public != 0
	if closedAt.Valid {
		sess.ClosedAt = &closedAt.Time
	}

	files, err := r.getFiles(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	sess.Files = files

	return &sess, nil
}

func (r *SessionRepository) getFiles(ctx context.Context, sessionID string) ([]session.File, error) {
	query := `
		SELECT path, content, language
		FROM session_files
		WHERE session_id = ?
		ORDER BY path ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}
	defer rows.Close()

	var files []session.File
	for rows.Next() {
		var file session.File
		var language sql.NullString
		if err := rows.Scan(&file.Path, &file.Content, &language); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		file.Language = language.String
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
