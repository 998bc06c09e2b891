package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/repository"
)

func TestChangeRepository_AppendList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewChangeRepository(db)

	first := &change.Change{
		ID:        "c1",
		SessionID: "s1",
		UserID:    "u1",
		Kind:      change.KindInsert,
		FilePath:  "main.ts",
		Line:      0,
		Column:    0,
		Text:      "X",
		Applied:   true,
		CreatedAt: time.Now(),
	}
	second := &change.Change{
		ID:        "c2",
		SessionID: "s1",
		UserID:    "u2",
		Kind:      change.KindInsert,
		FilePath:  "util.ts",
		Line:      2,
		Column:    4,
		Text:      "y",
		CreatedAt: time.Now(),
	}

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	changes, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.Equal(t, "c1", changes[0].ID)
	require.True(t, changes[0].Applied)
	require.Equal(t, "c2", changes[1].ID)
	require.False(t, changes[1].Applied)
}

func TestChangeRepository_ListByFile(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewChangeRepository(db)
	now := time.Now()
	for i, path := range []string{"a.ts", "b.ts", "a.ts"} {
		require.NoError(t, repo.Append(ctx, &change.Change{
			ID:        string(rune('x' + i)),
			SessionID: "s1",
			UserID:    "u1",
			Kind:      change.KindInsert,
			FilePath:  path,
			CreatedAt: now,
		}))
	}

	changes, err := repo.ListByFile(ctx, "s1", "a.ts")
	require.NoError(t, err)
	require.Len(t, changes, 2)
}

func TestChangeRepository_DuplicateAndOrphan(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "p1")

	repo := NewChangeRepository(db)
	ch := &change.Change{
		ID:        "c1",
		SessionID: "s1",
		UserID:    "u1",
		Kind:      change.KindInsert,
		FilePath:  "main.ts",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Append(ctx, ch))
	require.Equal(t, repository.ErrDuplicate, repo.Append(ctx, ch))

	orphan := &change.Change{
		ID:        "c2",
		SessionID: "missing",
		UserID:    "u1",
		Kind:      change.KindInsert,
		FilePath:  "main.ts",
		CreatedAt: time.Now(),
	}
	require.Equal(t, repository.ErrForeignKeyViolation, repo.Append(ctx, orphan))
}
