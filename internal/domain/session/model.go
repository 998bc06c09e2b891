package session

import "time"

// Status represents the lifecycle status of a session
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Session represents an in-memory collaboration context grouping files,
// changes, and comments for one project.
type Session struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	Files        []File     `json:"files"`
	Settings     Settings   `json:"settings"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity time.Time  `json:"last_activity"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// File is a shared file inside a session.
type File struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// Settings controls what participants may do in a session.
type Settings struct {
	AllowEditing  bool `json:"allow_editing"`
	AllowComments bool `json:"allow_comments"`
	MaxUsers      int  `json:"max_users"`
	Public        bool `json:"public"`
}

// Info provides summary information about an active session.
type Info struct {
	SessionID    string    `json:"session_id"`
	ProjectID    string    `json:"project_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
