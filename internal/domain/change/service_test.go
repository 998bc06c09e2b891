package change_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/repository/mocks"
)

func newService(t *testing.T) (*change.Service, *mocks.ChangeRepository) {
	t.Helper()
	repo := &mocks.ChangeRepository{}
	svc := change.NewService(repo, slog.Default())
	return svc, repo
}

func TestRecord_StampsIdentity(t *testing.T) {
	svc, repo := newService(t)
	repo.On("Append", mock.Anything, mock.AnythingOfType("*change.Change")).Return(nil)

	ch := &change.Change{
		SessionID: "s1",
		UserID:    "u1",
		Kind:      change.KindInsert,
		FilePath:  "main.ts",
		Text:      "X",
	}
	require.NoError(t, svc.Record(context.Background(), ch))
	require.NotEmpty(t, ch.ID)
	require.False(t, ch.CreatedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestRecord_Validation(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Record(context.Background(), &change.Change{UserID: "u1", Kind: change.KindInsert, FilePath: "main.ts"})
	require.ErrorIs(t, err, change.ErrInvalidInput)

	err = svc.Record(context.Background(), &change.Change{
		SessionID: "s1", UserID: "u1", Kind: "scribble", FilePath: "main.ts",
	})
	require.ErrorIs(t, err, change.ErrInvalidInput)
}

func TestList_RequiresSession(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.List(context.Background(), "")
	require.ErrorIs(t, err, change.ErrInvalidInput)
}
