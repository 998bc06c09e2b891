package presence

import "time"

// Participant is a connected user of a collaboration session. Participants
// are ephemeral per-process state; they are never persisted.
type Participant struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Color       string     `json:"color"`
	Cursor      *Cursor    `json:"cursor,omitempty"`
	Selection   *Selection `json:"selection,omitempty"`
	LastActive  time.Time  `json:"last_active"`
	Typing      bool       `json:"typing"`
	CurrentFile string     `json:"current_file,omitempty"`
}

// Cursor is a user's caret position within a file.
type Cursor struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Selection is a user's selected text range.
type Selection struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}
