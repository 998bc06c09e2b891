package session_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zoptal/collabd/internal/domain/session"
	"github.com/zoptal/collabd/internal/repository"
	"github.com/zoptal/collabd/internal/repository/mocks"
)

func newService(t *testing.T) (*session.Service, *mocks.SessionRepository) {
	t.Helper()
	repo := &mocks.SessionRepository{}
	svc := session.NewService(repo, slog.Default())
	return svc, repo
}

func TestCreate(t *testing.T) {
	svc, repo := newService(t)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*session.Session")).Return(nil)

	sess, err := svc.Create(context.Background(), session.CreateRequest{
		ProjectID: "proj1",
		Name:      "demo",
		Files:     []session.File{{Path: "main.ts", Content: "abc"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, session.StatusActive, sess.Status)
	require.Equal(t, session.DefaultMaxUsers, sess.Settings.MaxUsers)
	require.False(t, sess.LastActivity.IsZero())
	repo.AssertExpectations(t)
}

func TestCreate_RequiresProject(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), session.CreateRequest{})
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestGet_NotFound(t *testing.T) {
	svc, repo := newService(t)
	repo.On("Get", mock.Anything, "nope").Return(nil, repository.ErrNotFound)

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	svc, repo := newService(t)
	existing := &session.Session{ID: "s1", ProjectID: "proj1", Status: session.StatusActive}
	repo.On("GetActiveByProject", mock.Anything, "proj1").Return(existing, nil)

	sess, err := svc.GetOrCreate(context.Background(), "proj1")
	require.NoError(t, err)
	require.Equal(t, "s1", sess.ID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetOrCreate_CreatesOnFirstConnect(t *testing.T) {
	svc, repo := newService(t)
	repo.On("GetActiveByProject", mock.Anything, "proj1").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*session.Session")).Return(nil)

	sess, err := svc.GetOrCreate(context.Background(), "proj1")
	require.NoError(t, err)
	require.Equal(t, "proj1", sess.ProjectID)
	require.True(t, sess.Settings.AllowEditing)
	require.True(t, sess.Settings.AllowComments)
	repo.AssertExpectations(t)
}

func TestSaveFile_ClosedSession(t *testing.T) {
	svc, repo := newService(t)
	repo.On("Get", mock.Anything, "s1").Return(&session.Session{
		ID:     "s1",
		Status: session.StatusClosed,
	}, nil)

	err := svc.SaveFile(context.Background(), "s1", session.File{Path: "main.ts"})
	require.ErrorIs(t, err, session.ErrSessionClosed)
	repo.AssertNotCalled(t, "SaveFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveFile_EditingDisabled(t *testing.T) {
	svc, repo := newService(t)
	repo.On("Get", mock.Anything, "s1").Return(&session.Session{
		ID:       "s1",
		Status:   session.StatusActive,
		Settings: session.Settings{AllowEditing: false},
	}, nil)

	err := svc.SaveFile(context.Background(), "s1", session.File{Path: "main.ts"})
	require.ErrorIs(t, err, session.ErrEditingDisabled)
}

func TestSaveFile_TouchesSession(t *testing.T) {
	svc, repo := newService(t)
	sess := &session.Session{
		ID:       "s1",
		Status:   session.StatusActive,
		Settings: session.Settings{AllowEditing: true},
	}
	repo.On("Get", mock.Anything, "s1").Return(sess, nil)
	repo.On("SaveFile", mock.Anything, "s1", mock.AnythingOfType("session.File")).Return(nil)
	repo.On("Update", mock.Anything, sess).Return(nil)

	err := svc.SaveFile(context.Background(), "s1", session.File{Path: "main.ts", Content: "Xabc"})
	require.NoError(t, err)
	require.False(t, sess.LastActivity.IsZero())
	repo.AssertExpectations(t)
}

func TestClose_NotFound(t *testing.T) {
	svc, repo := newService(t)
	repo.On("Close", mock.Anything, "nope").Return(repository.ErrNotFound)

	err := svc.Close(context.Background(), "nope")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}
