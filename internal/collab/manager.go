package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/domain/presence"
	"github.com/zoptal/collabd/internal/domain/session"
	"github.com/zoptal/collabd/internal/transport"
)

// Services groups the domain services a manager drives.
type Services struct {
	Sessions *session.Service
	Changes  *change.Service
	Comments *comment.Service
	Presence *presence.Tracker
}

// Manager owns one participant's view of a collaboration session: the
// roster, the live file contents, the change log, and the pending-change
// queue. It routes inbound transport events to the matching handler and
// applies local edits optimistically before transmitting them.
type Manager struct {
	svc          Services
	tr           transport.Transport
	logger       *slog.Logger
	syncInterval time.Duration

	mu         sync.Mutex
	sess       *session.Session
	self       presence.Participant
	files      map[string]string
	pending    map[string]string // envelope ID -> change ID
	offs       []func()
	done       chan struct{}
	syncActive bool
}

// NewManager creates a manager over the given transport. The transport is
// not connected until Initialize.
func NewManager(svc Services, tr transport.Transport, syncInterval time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		svc:          svc,
		tr:           tr,
		logger:       logger,
		syncInterval: syncInterval,
		files:        make(map[string]string),
		pending:      make(map[string]string),
	}
}

// Initialize joins the active session for a project, connecting the
// transport. Status moves offline -> syncing immediately and to connected
// once the transport reports it.
func (m *Manager) Initialize(ctx context.Context, projectID string, user presence.Participant) error {
	if projectID == "" || user.ID == "" {
		return session.ErrInvalidInput
	}

	m.mu.Lock()
	if m.sess != nil {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.mu.Unlock()

	sess, err := m.svc.Sessions.GetOrCreate(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	if m.svc.Presence.Count(sess.ID) >= sess.Settings.MaxUsers {
		return ErrSessionFull
	}

	m.mu.Lock()
	m.sess = sess
	m.self = user
	for _, f := range sess.Files {
		m.files[f.Path] = f.Content
	}
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.subscribe()

	if err := m.tr.Connect(ctx); err != nil {
		// Roll the join back fully so the caller can retry Initialize.
		m.mu.Lock()
		offs := m.offs
		m.offs = nil
		m.sess = nil
		m.files = make(map[string]string)
		m.done = nil
		m.mu.Unlock()
		for _, off := range offs {
			off()
		}
		return fmt.Errorf("connecting transport: %w", err)
	}
	return nil
}

// Status reports the connection state of the underlying transport.
func (m *Manager) Status() transport.Status {
	return m.tr.Status()
}

// Session returns the managed session, or nil before Initialize.
func (m *Manager) Session() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// FileContent returns the live content of a session file.
func (m *Manager) FileContent(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	return content, ok
}

// Roster returns the current participants of the session.
func (m *Manager) Roster() []presence.Participant {
	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return nil
	}
	return m.svc.Presence.Roster(sess.ID)
}

// PendingChanges returns the number of sent changes awaiting an ack.
func (m *Manager) PendingChanges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// ChangeRequest describes a local edit.
type ChangeRequest struct {
	Kind     change.Kind
	FilePath string
	Line     int
	Column   int
	Text     string
}

// SendChange stamps, applies, records, and transmits a local edit. The
// change is applied optimistically: the local file mutates before the
// transport confirms delivery, and there is no rollback path. The returned
// change carries Applied=true when the applier ran it; an apply failure
// (out-of-range line, unsupported kind) is returned alongside the recorded,
// unapplied change.
func (m *Manager) SendChange(ctx context.Context, req ChangeRequest) (*change.Change, error) {
	m.mu.Lock()
	if m.sess == nil {
		m.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if m.tr.Status() != transport.StatusConnected {
		m.mu.Unlock()
		return nil, transport.ErrNotConnected
	}
	if !m.sess.Settings.AllowEditing {
		m.mu.Unlock()
		return nil, session.ErrEditingDisabled
	}

	content, ok := m.files[req.FilePath]
	if !ok {
		m.mu.Unlock()
		return nil, ErrFileNotFound
	}

	ch := &change.Change{
		ID:        uuid.NewString(),
		SessionID: m.sess.ID,
		UserID:    m.self.ID,
		Kind:      req.Kind,
		FilePath:  req.FilePath,
		Line:      req.Line,
		Column:    req.Column,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}

	updated, applyErr := change.Apply(content, *ch)
	if applyErr == nil {
		ch.Applied = true
		m.files[req.FilePath] = updated
	}
	sessionID := m.sess.ID
	m.mu.Unlock()

	if err := m.svc.Changes.Record(ctx, ch); err != nil {
		return nil, err
	}
	if applyErr == nil {
		if err := m.svc.Sessions.SaveFile(ctx, sessionID, session.File{
			Path:    req.FilePath,
			Content: updated,
		}); err != nil {
			return nil, err
		}
	}

	env, err := transport.NewEnvelope(transport.EventChange, sessionID, m.self.ID, ch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.pending[env.ID] = ch.ID
	m.mu.Unlock()

	if err := m.tr.Send(env); err != nil {
		// Optimistic state stays as-is; only the pending entry is dropped.
		m.mu.Lock()
		delete(m.pending, env.ID)
		m.mu.Unlock()
		return ch, fmt.Errorf("sending change: %w", err)
	}

	if applyErr != nil {
		m.logger.Warn("change recorded but not applied",
			"change", ch.ID, "file", ch.FilePath, "error", applyErr)
		return ch, applyErr
	}
	return ch, nil
}

// UpdateCursor broadcasts a cursor move. Fire-and-forget: no ack is
// tracked and transmit errors are only logged.
func (m *Manager) UpdateCursor(cursor presence.Cursor, selection *presence.Selection) {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	m.mu.Unlock()
	if sess == nil {
		return
	}

	m.svc.Presence.UpdateCursor(sess.ID, userID, cursor, selection)

	env, err := transport.NewEnvelope(transport.EventCursor, sess.ID, userID, CursorPayload{
		Cursor:    cursor,
		Selection: selection,
	})
	if err != nil {
		return
	}
	if err := m.tr.Send(env); err != nil {
		m.logger.Debug("cursor update dropped", "error", err)
	}
}

// SetTyping broadcasts a typing indicator. Fire-and-forget.
func (m *Manager) SetTyping(filePath string, typing bool) {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	m.mu.Unlock()
	if sess == nil {
		return
	}

	m.svc.Presence.SetTyping(sess.ID, userID, filePath, typing)

	env, err := transport.NewEnvelope(transport.EventTyping, sess.ID, userID, TypingPayload{
		FilePath: filePath,
		Typing:   typing,
	})
	if err != nil {
		return
	}
	if err := m.tr.Send(env); err != nil {
		m.logger.Debug("typing update dropped", "error", err)
	}
}

// AddComment creates a comment, applies it locally, and transmits it. Not
// rolled back on transport failure.
func (m *Manager) AddComment(ctx context.Context, filePath string, line int, column *int, body string) (*comment.Comment, error) {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	m.mu.Unlock()
	if sess == nil {
		return nil, ErrNotInitialized
	}
	if !sess.Settings.AllowComments {
		return nil, ErrCommentsDisabled
	}

	c, err := m.svc.Comments.Add(ctx, comment.AddRequest{
		SessionID: sess.ID,
		UserID:    userID,
		FilePath:  filePath,
		Line:      line,
		Column:    column,
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	env, err := transport.NewEnvelope(transport.EventComment, sess.ID, userID, c)
	if err != nil {
		return nil, err
	}
	if err := m.tr.Send(env); err != nil {
		m.logger.Warn("comment not transmitted", "comment", c.ID, "error", err)
	}
	return c, nil
}

// ResolveComment resolves a comment and transmits the resolution. Resolve
// is monotonic; resolving twice is a no-op.
func (m *Manager) ResolveComment(ctx context.Context, commentID string) error {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	m.mu.Unlock()
	if sess == nil {
		return ErrNotInitialized
	}

	if err := m.svc.Comments.Resolve(ctx, commentID); err != nil {
		return err
	}

	env, err := transport.NewEnvelope(transport.EventCommentResolved, sess.ID, userID, ResolvePayload{
		CommentID: commentID,
	})
	if err != nil {
		return err
	}
	if err := m.tr.Send(env); err != nil {
		m.logger.Warn("resolution not transmitted", "comment", commentID, "error", err)
	}
	return nil
}

// ReplyToComment adds a threaded reply and transmits it.
func (m *Manager) ReplyToComment(ctx context.Context, commentID, body string) (*comment.Reply, error) {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	m.mu.Unlock()
	if sess == nil {
		return nil, ErrNotInitialized
	}

	reply, err := m.svc.Comments.Reply(ctx, commentID, userID, body)
	if err != nil {
		return nil, err
	}

	env, err := transport.NewEnvelope(transport.EventCommentReply, sess.ID, userID, ReplyPayload{Reply: *reply})
	if err != nil {
		return nil, err
	}
	if err := m.tr.Send(env); err != nil {
		m.logger.Warn("reply not transmitted", "comment", commentID, "error", err)
	}
	return reply, nil
}

// ReactToComment records an emoji reaction and transmits it. Reacting twice
// with the same emoji is idempotent.
func (m *Manager) ReactToComment(ctx context.Context, commentID, emoji string) error {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	m.mu.Unlock()
	if sess == nil {
		return ErrNotInitialized
	}

	if err := m.svc.Comments.React(ctx, commentID, emoji, userID); err != nil {
		return err
	}

	env, err := transport.NewEnvelope(transport.EventCommentReaction, sess.ID, userID, ReactionPayload{
		CommentID: commentID,
		Emoji:     emoji,
		UserID:    userID,
	})
	if err != nil {
		return err
	}
	if err := m.tr.Send(env); err != nil {
		m.logger.Warn("reaction not transmitted", "comment", commentID, "error", err)
	}
	return nil
}

// Close stops the sync ticker, announces departure, and disconnects the
// transport.
func (m *Manager) Close() error {
	m.mu.Lock()
	sess := m.sess
	userID := m.self.ID
	done := m.done
	offs := m.offs
	m.offs = nil
	m.mu.Unlock()

	if sess == nil {
		return nil
	}

	select {
	case <-done:
	default:
		close(done)
	}

	if env, err := transport.NewEnvelope(transport.EventUserLeft, sess.ID, userID, LeavePayload{UserID: userID}); err == nil {
		_ = m.tr.Send(env)
	}
	m.svc.Presence.Leave(sess.ID, userID)

	for _, off := range offs {
		off()
	}
	return m.tr.Close()
}

func (m *Manager) subscribe() {
	on := func(t transport.EventType, fn transport.Handler) {
		off := m.tr.On(t, fn)
		m.mu.Lock()
		m.offs = append(m.offs, off)
		m.mu.Unlock()
	}

	on(transport.EventConnected, m.handleConnected)
	on(transport.EventAck, m.handleAck)
	on(transport.EventChange, m.handleRemoteChange)
	on(transport.EventUserJoined, m.handleUserJoined)
	on(transport.EventUserLeft, m.handleUserLeft)
	on(transport.EventCursor, m.handleRemoteCursor)
	on(transport.EventTyping, m.handleRemoteTyping)
	on(transport.EventComment, m.handleRemoteComment)
	on(transport.EventCommentResolved, m.handleRemoteResolve)
	on(transport.EventCommentReply, m.handleRemoteReply)
	on(transport.EventCommentReaction, m.handleRemoteReaction)
}

func (m *Manager) handleConnected(_ transport.Envelope) {
	m.mu.Lock()
	sess := m.sess
	self := m.self
	done := m.done
	// A reconnect delivers another connected event; at most one sync loop
	// runs per session.
	startSync := sess != nil && m.syncInterval > 0 && !m.syncActive
	if startSync {
		m.syncActive = true
	}
	m.mu.Unlock()
	if sess == nil {
		return
	}

	joined := m.svc.Presence.Join(sess.ID, self)
	m.mu.Lock()
	m.self = joined
	m.mu.Unlock()

	if env, err := transport.NewEnvelope(transport.EventUserJoined, sess.ID, joined.ID, JoinPayload{User: joined}); err == nil {
		if err := m.tr.Send(env); err != nil {
			m.logger.Warn("join announcement dropped", "error", err)
		}
	}

	m.logger.Info("collaboration connected", "session", sess.ID, "user", joined.ID)
	if startSync {
		go m.syncLoop(done)
	}
}

func (m *Manager) handleAck(env transport.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Duplicate acks are ignored; the entry is gone after the first.
	delete(m.pending, env.Ref)
}

func (m *Manager) handleRemoteChange(env transport.Envelope) {
	m.mu.Lock()
	self := m.self.ID
	m.mu.Unlock()
	if env.SenderID == self {
		return
	}

	var ch change.Change
	if err := env.DecodePayload(&ch); err != nil {
		m.logger.Warn("malformed remote change", "error", err)
		return
	}

	m.mu.Lock()
	content, ok := m.files[ch.FilePath]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("remote change for unknown file", "file", ch.FilePath)
		return
	}

	updated, err := change.Apply(content, ch)
	if err == nil {
		m.files[ch.FilePath] = updated
	}
	m.mu.Unlock()

	if err != nil && !errors.Is(err, change.ErrUnsupportedKind) {
		m.logger.Warn("remote change not applied", "change", ch.ID, "error", err)
	}
}

func (m *Manager) handleUserJoined(env transport.Envelope) {
	var payload JoinPayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil || payload.User.ID == "" {
		return
	}
	m.svc.Presence.Join(sess.ID, payload.User)
}

func (m *Manager) handleUserLeft(env transport.Envelope) {
	var payload LeavePayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return
	}
	m.svc.Presence.Leave(sess.ID, payload.UserID)
}

func (m *Manager) handleRemoteCursor(env transport.Envelope) {
	var payload CursorPayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return
	}
	m.svc.Presence.UpdateCursor(sess.ID, env.SenderID, payload.Cursor, payload.Selection)
}

func (m *Manager) handleRemoteTyping(env transport.Envelope) {
	var payload TypingPayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return
	}
	m.svc.Presence.SetTyping(sess.ID, env.SenderID, payload.FilePath, payload.Typing)
}

func (m *Manager) handleRemoteComment(env transport.Envelope) {
	m.mu.Lock()
	self := m.self.ID
	m.mu.Unlock()
	if env.SenderID == self {
		return
	}

	var c comment.Comment
	if err := env.DecodePayload(&c); err != nil {
		m.logger.Warn("malformed remote comment", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.svc.Comments.Record(ctx, &c); err != nil {
		m.logger.Warn("remote comment not recorded", "comment", c.ID, "error", err)
	}
}

func (m *Manager) handleRemoteResolve(env transport.Envelope) {
	m.mu.Lock()
	self := m.self.ID
	m.mu.Unlock()
	if env.SenderID == self {
		return
	}

	var payload ResolvePayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.svc.Comments.Resolve(ctx, payload.CommentID); err != nil {
		m.logger.Warn("remote resolution not applied", "comment", payload.CommentID, "error", err)
	}
}

func (m *Manager) handleRemoteReply(env transport.Envelope) {
	m.mu.Lock()
	self := m.self.ID
	m.mu.Unlock()
	if env.SenderID == self {
		return
	}

	var payload ReplyPayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.svc.Comments.RecordReply(ctx, &payload.Reply); err != nil {
		m.logger.Warn("remote reply not recorded", "comment", payload.Reply.CommentID, "error", err)
	}
}

func (m *Manager) handleRemoteReaction(env transport.Envelope) {
	m.mu.Lock()
	self := m.self.ID
	m.mu.Unlock()
	if env.SenderID == self {
		return
	}

	var payload ReactionPayload
	if err := env.DecodePayload(&payload); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.svc.Comments.React(ctx, payload.CommentID, payload.Emoji, payload.UserID); err != nil {
		m.logger.Warn("remote reaction not applied", "comment", payload.CommentID, "error", err)
	}
}

func (m *Manager) syncLoop(done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.syncActive = false
		m.mu.Unlock()
	}()

	ticker := time.NewTicker(m.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.mu.Lock()
			sess := m.sess
			userID := m.self.ID
			pending := len(m.pending)
			m.mu.Unlock()
			if sess == nil {
				return
			}

			env, err := transport.NewEnvelope(transport.EventSync, sess.ID, userID, SyncPayload{
				PendingChanges: pending,
			})
			if err == nil {
				if err := m.tr.Send(env); err != nil {
					m.logger.Debug("sync tick dropped", "error", err)
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := m.svc.Sessions.Touch(ctx, sess.ID); err != nil {
				m.logger.Debug("session touch failed", "error", err)
			}
			cancel()
		}
	}
}
