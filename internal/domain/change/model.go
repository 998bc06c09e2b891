package change

import "time"

// Kind discriminates the edit operations carried by a change.
type Kind string

const (
	KindInsert  Kind = "insert"
	KindDelete  Kind = "delete"
	KindReplace Kind = "replace"
)

// Change is a single text edit applied to a session file. A change is
// immutable once created; only Applied transitions, false to true, when the
// applier processes it.
type Change struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	FilePath  string    `json:"file_path"`
	Line      int       `json:"line"`
	Column    int       `json:"column"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Applied   bool      `json:"applied"`
}

// ValidKind reports whether k is a declared change kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindInsert, KindDelete, KindReplace:
		return true
	}
	return false
}
