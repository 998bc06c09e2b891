// Package httpapi exposes the collaboration service over HTTP: a REST
// surface for sessions, changes, and comments, a WebSocket endpoint for live
// traffic, and the small public endpoints the site front end calls.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/zoptal/collabd/internal/domain/change"
	"github.com/zoptal/collabd/internal/domain/comment"
	"github.com/zoptal/collabd/internal/domain/presence"
	"github.com/zoptal/collabd/internal/domain/session"
	"github.com/zoptal/collabd/internal/geoip"
	"github.com/zoptal/collabd/internal/newsletter"
	"github.com/zoptal/collabd/internal/transport"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Sessions   *session.Service
	Changes    *change.Service
	Comments   *comment.Service
	Presence   *presence.Tracker
	Hub        *transport.Hub
	Newsletter newsletter.Provider
	Geo        *geoip.Client
	Logger     *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates the router and installs the hub hooks that persist and
// announce live traffic.
func NewServer(deps Deps) *chi.Mux {
	srv := &Server{deps: deps}
	srv.attachHub()

	r := chi.NewRouter()

	r.Get("/health", srv.handleHealth)
	r.Get("/ws", srv.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/newsletter", srv.handleNewsletter)
		r.Get("/location", srv.handleLocation)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", srv.handleCreateSession)
			r.Get("/", srv.handleListSessions)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", srv.handleGetSession)
				r.Delete("/", srv.handleCloseSession)
				r.Get("/roster", srv.handleRoster)
				r.Get("/changes", srv.handleListChanges)
				r.Get("/comments", srv.handleListComments)
				r.Post("/comments", srv.handleAddComment)

				r.Route("/comments/{commentID}", func(r chi.Router) {
					r.Post("/resolve", srv.handleResolveComment)
					r.Post("/replies", srv.handleAddReply)
					r.Post("/reactions", srv.handleAddReaction)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type newsletterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := newsletter.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	err := s.deps.Newsletter.Subscribe(r.Context(), newsletter.Subscription{
		Email:     req.Email,
		FirstName: req.FirstName,
	})
	if err != nil {
		s.deps.Logger.Error("newsletter subscription failed", "error", err)
		writeError(w, http.StatusBadGateway, "subscription failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		ip = clientIP(r)
	}

	loc, err := s.deps.Geo.Lookup(r.Context(), ip)
	if err != nil {
		if errors.Is(err, geoip.ErrInvalidIP) {
			writeError(w, http.StatusBadRequest, "invalid ip address")
			return
		}
		writeError(w, http.StatusBadGateway, "location lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.deps.Sessions.Create(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.Sessions.ListActive(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.deps.Sessions.Get(r.Context(), sessionID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	roster := s.deps.Presence.Roster(sessionID)
	if roster == nil {
		roster = []presence.Participant{}
	}
	writeJSON(w, http.StatusOK, roster)
}

func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.deps.Sessions.Get(r.Context(), sessionID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	var (
		changes []change.Change
		err     error
	)
	if file := r.URL.Query().Get("file"); file != "" {
		changes, err = s.deps.Changes.ListByFile(r.Context(), sessionID, file)
	} else {
		changes, err = s.deps.Changes.List(r.Context(), sessionID)
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if changes == nil {
		changes = []change.Change{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.deps.Sessions.Get(r.Context(), sessionID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	comments, err := s.deps.Comments.ListBySession(r.Context(), sessionID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if comments == nil {
		comments = []comment.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

type addCommentRequest struct {
	UserID   string `json:"user_id"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Column   *int   `json:"column,omitempty"`
	Body     string `json:"body"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.deps.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !sess.Settings.AllowComments {
		writeError(w, http.StatusForbidden, "comments disabled for session")
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.deps.Comments.Add(r.Context(), comment.AddRequest{
		SessionID: sessionID,
		UserID:    req.UserID,
		FilePath:  req.FilePath,
		Line:      req.Line,
		Column:    req.Column,
		Body:      req.Body,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.broadcast(transport.EventComment, sessionID, req.UserID, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleResolveComment(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	commentID := chi.URLParam(r, "commentID")

	if err := s.deps.Comments.Resolve(r.Context(), commentID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.broadcast(transport.EventCommentResolved, sessionID, "", map[string]string{"comment_id": commentID})
	w.WriteHeader(http.StatusNoContent)
}

type addReplyRequest struct {
	UserID string `json:"user_id"`
	Body   string `json:"body"`
}

func (s *Server) handleAddReply(w http.ResponseWriter, r *http.Request) {
	var req addReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.deps.Comments.Reply(r.Context(), chi.URLParam(r, "commentID"), req.UserID, req.Body)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

type addReactionRequest struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	var req addReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.deps.Comments.React(r.Context(), chi.URLParam(r, "commentID"), req.Emoji, req.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWS joins a peer to its session room. The session must exist and be
// open, and the room must have space.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	userID := r.URL.Query().Get("user")
	if sessionID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "session and user are required")
		return
	}

	sess, err := s.deps.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if sess.Status != session.StatusActive {
		writeError(w, http.StatusConflict, "session is closed")
		return
	}
	if s.deps.Presence.Count(sessionID) >= sess.Settings.MaxUsers {
		writeError(w, http.StatusConflict, "session is full")
		return
	}

	s.deps.Hub.ServeWS(w, r, sessionID, userID)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, comment.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, comment.ErrInvalidInput),
		errors.Is(err, change.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionClosed), errors.Is(err, session.ErrEditingDisabled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.deps.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientIP extracts the caller's address, preferring the forwarding header
// set by the reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
