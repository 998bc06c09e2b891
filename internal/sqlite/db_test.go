package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoptal/collabd/internal/domain/session"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"sessions",
		"session_files",
		"changes",
		"comments",
		"comment_replies",
		"comment_reactions",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		require.Equal(t, table, name)
	}
}

func insertSession(t *testing.T, db *DB, id, projectID string) {
	t.Helper()
	now := time.Now()
	repo := NewSessionRepository(db)
	err := repo.Create(context.Background(), &session.Session{
		ID:        id,
		ProjectID: projectID,
		Name:      projectID,
		Status:    session.StatusActive,
		Settings: session.Settings{
			AllowEditing:  true,
			AllowComments: true,
			MaxUsers:      10,
		},
		CreatedAt:    now,
		LastActivity: now,
	})
	require.NoError(t, err)
}
