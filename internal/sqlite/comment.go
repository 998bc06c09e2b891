package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/repository"
)

// CommentRepository implements comment.Repository for SQLite
type CommentRepository struct {
	db *DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	query := `
		INSERT INTO comments (
			id, session_id, user_id, file_path, line, col, body, resolved,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.SessionID,
		c.UserID,
		c.FilePath,
		c.Line,
		c.Column,
		c.Body,
		boolToInt(c.Resolved),
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// Get retrieves a comment by ID, including replies and reactions
func (r *CommentRepository) Get(ctx context.Context, id string) (*comment.Comment, error) {
	query := `
		SELECT id, session_id, user_id, file_path, line, col, body,
		       resolved, created_at
		FROM comments
		WHERE id = ?
	`

	var c comment.Comment
	var col sql.NullInt64
	var resolved int
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.SessionID,
		&c.UserID,
		&c.FilePath,
		&c.Line,
		&col,
		&c.Body,
		&resolved,
		&c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	if col.Valid {
		v := int(col.Int64)
		c.Column = &v
	}
	c.Resolved = resolved != 0

	if err := r.loadThread(ctx, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// ListBySession returns all comments for a session in creation order
func (r *CommentRepository) ListBySession(ctx context.Context, sessionID string) ([]comment.Comment, error) {
	query := `
		SELECT id, session_id, user_id, file_path, line, col, body,
		       resolved, created_at
		FROM comments
		WHERE session_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []comment.Comment
	for rows.Next() {
		var c comment.Comment
		var col sql.NullInt64
		var resolved int
		if err := rows.Scan(
			&c.ID,
			&c.SessionID,
			&c.UserID,
			&c.FilePath,
			&c.Line,
			&col,
			&c.Body,
			&resolved,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if col.Valid {
			v := int(col.Int64)
			c.Column = &v
		}
		c.Resolved = resolved != 0
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	for i := range comments {
		if err := r.loadThread(ctx, &comments[i]); err != nil {
			return nil, err
		}
	}

	return comments, nil
}

// Resolve marks a comment resolved. Resolution never reverts; resolving an
// already-resolved comment is a no-op.
func (r *CommentRepository) Resolve(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE comments SET resolved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve comment: %w", err)
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

// AddReply adds a threaded reply to a comment
func (r *CommentRepository) AddReply(ctx context.Context, reply *comment.Reply) error {
	query := `
		INSERT INTO comment_replies (id, comment_id, user_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		reply.ID,
		reply.CommentID,
		reply.UserID,
		reply.Body,
		reply.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to add reply: %w", err)
	}

	return nil
}

// AddReaction records an emoji reaction by a user, idempotently
func (r *CommentRepository) AddReaction(ctx context.Context, commentID, emoji, userID string) error {
	query := `
		INSERT INTO comment_reactions (comment_id, emoji, user_id)
		VALUES (?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, commentID, emoji, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to add reaction: %w", err)
	}

	return nil
}

func (r *CommentRepository) loadThread(ctx context.Context, c *comment.Comment) error {
	replies, err := r.getReplies(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Replies = replies

	reactions, err := r.getReactions(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Reactions = reactions

	return nil
}

func (r *CommentRepository) getReplies(ctx context.Context, commentID string) ([]comment.Reply, error) {
	query := `
		SELECT id, comment_id, user_id, body, created_at
		FROM comment_replies
		WHERE comment_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	defer rows.Close()

	var replies []comment.Reply
	for rows.Next() {
		var reply comment.Reply
		if err := rows.Scan(&reply.ID, &reply.CommentID, &reply.UserID, &reply.Body, &reply.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replies: %w", err)
	}

	return replies, nil
}

func (r *CommentRepository) getReactions(ctx context.Context, commentID string) (map[string][]string, error) {
	query := `
		SELECT emoji, user_id
		FROM comment_reactions
		WHERE comment_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions: %w", err)
	}
	defer rows.Close()

	var reactions map[string][]string
	for rows.Next() {
		var emoji, userID string
		if err := rows.Scan(&emoji, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		if reactions == nil {
			reactions = make(map[string][]string)
		}
		reactions[emoji] = append(reactions[emoji], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}

	return reactions, nil
}
