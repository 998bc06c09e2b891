package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/domain/session"
)

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) GetActiveByProject(ctx context.Context, projectID string) (*session.Session, error) {
	args := m.Called(ctx, projectID)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Close(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionRepository) ListActive(ctx context.Context) ([]session.Info, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]session.Info); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) SaveFile(ctx context.Context, sessionID string, file session.File) error {
	args := m.Called(ctx, sessionID, file)
	return args.Error(0)
}

// ChangeRepository is a mock for change.Repository.
type ChangeRepository struct {
	mock.Mock
}

func (m *ChangeRepository) Append(ctx context.Context, ch *change.Change) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *ChangeRepository) List(ctx context.Context, sessionID string) ([]change.Change, error) {
	args := m.Called(ctx, sessionID)
	if list, ok := args.Get(0).([]change.Change); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ChangeRepository) ListByFile(ctx context.Context, sessionID, filePath string) ([]change.Change, error) {
	args := m.Called(ctx, sessionID, filePath)
	if list, ok := args.Get(0).([]change.Change); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// CommentRepository is a mock for comment.Repository.
type CommentRepository struct {
	mock.Mock
}

func (m *CommentRepository) Create(ctx context.Context, c *comment.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CommentRepository) Get(ctx context.Context, id string) (*comment.Comment, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*comment.Comment); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CommentRepository) ListBySession(ctx context.Context, sessionID string) ([]comment.Comment, error) {
	args := m.Called(ctx, sessionID)
	if list, ok := args.Get(0).([]comment.Comment); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CommentRepository) Resolve(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CommentRepository) AddReply(ctx context.Context, reply *comment.Reply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

func (m *CommentRepository) AddReaction(ctx context.Context, commentID, emoji, userID string) error {
	args := m.Called(ctx, commentID, emoji, userID)
	return args.Error(0)
}
