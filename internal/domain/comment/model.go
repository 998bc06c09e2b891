package comment

import "time"

// Comment is an annotation pinned to a line of a session file. Comments are
// never deleted; Resolved only ever moves false to true.
type Comment struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	FilePath  string    `json:"file_path"`
	Line      int       `json:"line"`
	Column    *int      `json:"column,omitempty"`
	Body      string    `json:"body"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
	Replies   []Reply   `json:"replies,omitempty"`
	// Reactions maps an emoji to the IDs of users who reacted with it.
	Reactions map[string][]string `json:"reactions,omitempty"`
}

// Reply is a threaded response to a comment.
type Reply struct {
	ID        string    `json:"id"`
	CommentID string    `json:"comment_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
