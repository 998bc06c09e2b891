package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/repository"
)

func newComment(id string) *comment.Comment {
	return &comment.Comment{
		ID:        id,
		SessionID: "s1",
		UserID:    "u1",
		FilePath:  "main.ts",
		Line:      3,
		Body:      "looks wrong",
		CreatedAt: time.Now(),
	}
}

func TestCommentRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewCommentRepository(db)
	c := newComment("cm1")
	col := 7
	c.Column = &col

	require.NoError(t, repo.Create(ctx, c))

	loaded, err := repo.Get(ctx, "cm1")
	require.NoError(t, err)
	require.Equal(t, "looks wrong", loaded.Body)
	require.NotNil(t, loaded.Column)
	require.Equal(t, 7, *loaded.Column)
	require.False(t, loaded.Resolved)
	require.Empty(t, loaded.Replies)
	require.Empty(t, loaded.Reactions)

	_, err = repo.Get(ctx, "missing")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestCommentRepository_ResolveIsMonotonic(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewCommentRepository(db)
	require.NoError(t, repo.Create(ctx, newComment("cm1")))

	require.NoError(t, repo.Resolve(ctx, "cm1"))
	loaded, err := repo.Get(ctx, "cm1")
	require.NoError(t, err)
	require.True(t, loaded.Resolved)

	// Resolving again never reverts.
	require.NoError(t, repo.Resolve(ctx, "cm1"))
	loaded, err = repo.Get(ctx, "cm1")
	require.NoError(t, err)
	require.True(t, loaded.Resolved)

	require.Equal(t, repository.ErrNotFound, repo.Resolve(ctx, "missing"))
}

func TestCommentRepository_Replies(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewCommentRepository(db)
	require.NoError(t, repo.Create(ctx, newComment("cm1")))

	require.NoError(t, repo.AddReply(ctx, &comment.Reply{
		ID:        "r1",
		CommentID: "cm1",
		UserID:    "u2",
		Body:      "agreed",
		CreatedAt: time.Now(),
	}))

	loaded, err := repo.Get(ctx, "cm1")
	require.NoError(t, err)
	require.Len(t, loaded.Replies, 1)
	require.Equal(t, "agreed", loaded.Replies[0].Body)

	err = repo.AddReply(ctx, &comment.Reply{
		ID:        "r2",
		CommentID: "missing",
		UserID:    "u2",
		Body:      "lost",
		CreatedAt: time.Now(),
	})
	require.Equal(t, repository.ErrNotFound, err)
}

func TestCommentRepository_Reactions(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewCommentRepository(db)
	require.NoError(t, repo.Create(ctx, newComment("cm1")))

	require.NoError(t, repo.AddReaction(ctx, "cm1", "👍", "u1"))
	require.NoError(t, repo.AddReaction(ctx, "cm1", "👍", "u2"))
	// Same user reacting twice with the same emoji is idempotent.
	require.NoError(t, repo.AddReaction(ctx, "cm1", "👍", "u1"))

	loaded, err := repo.Get(ctx, "cm1")
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, loaded.Reactions["👍"])

	require.Equal(t, repository.ErrNotFound, repo.AddReaction(ctx, "missing", "👍", "u1"))
}

func TestCommentRepository_ListBySession(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewCommentRepository(db)
	require.NoError(t, repo.Create(ctx, newComment("cm1")))
	require.NoError(t, repo.Create(ctx, newComment("cm2")))

	comments, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "cm1", comments[0].ID)
	require.Equal(t, "cm2", comments[1].ID)
}
