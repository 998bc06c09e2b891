package presence

import (
	"sort"
	"sync"
	"time"
)

// palette supplies participant colors, assigned round-robin per session.
var palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#FFD93D",
}

type roster struct {
	users  map[string]*Participant
	joined map[string]int // user ID -> join sequence, for stable ordering
	seq    int
}

// Tracker maintains the in-memory roster of each session.
type Tracker struct {
	mu      sync.RWMutex
	rosters map[string]*roster
}

// NewTracker creates an empty presence tracker.
func NewTracker() *Tracker {
	return &Tracker{
		rosters: make(map[string]*roster),
	}
}

// Join adds a participant to a session roster, assigning a color. Joining
// with an ID already on the roster replaces the stale entry instead of
// duplicating it.
func (t *Tracker) Join(sessionID string, p Participant) Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rosters[sessionID]
	if !ok {
		r = &roster{
			users:  make(map[string]*Participant),
			joined: make(map[string]int),
		}
		t.rosters[sessionID] = r
	}

	if _, rejoin := r.users[p.ID]; !rejoin {
		r.joined[p.ID] = r.seq
		p.Color = palette[r.seq%len(palette)]
		r.seq++
	} else {
		p.Color = r.users[p.ID].Color
	}
	p.LastActive = time.Now()
	r.users[p.ID] = &p

	return p
}

// Leave removes a participant from a session roster.
func (t *Tracker) Leave(sessionID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rosters[sessionID]
	if !ok {
		return
	}
	delete(r.users, userID)
	delete(r.joined, userID)
	if len(r.users) == 0 {
		delete(t.rosters, sessionID)
	}
}

// UpdateCursor records a cursor move and optional selection for a user.
// Unknown users are ignored; cursor traffic is fire-and-forget.
func (t *Tracker) UpdateCursor(sessionID, userID string, cursor Cursor, selection *Selection) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.lookup(sessionID, userID)
	if p == nil {
		return
	}
	p.Cursor = &cursor
	p.Selection = selection
	p.CurrentFile = cursor.FilePath
	p.LastActive = time.Now()
}

// SetTyping records whether a user is typing in a file.
func (t *Tracker) SetTyping(sessionID, userID, filePath string, typing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.lookup(sessionID, userID)
	if p == nil {
		return
	}
	p.Typing = typing
	if filePath != "" {
		p.CurrentFile = filePath
	}
	p.LastActive = time.Now()
}

// Roster returns the participants of a session in join order.
func (t *Tracker) Roster(sessionID string) []Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rosters[sessionID]
	if !ok {
		return nil
	}

	out := make([]Participant, 0, len(r.users))
	for _, p := range r.users {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.joined[out[i].ID] < r.joined[out[j].ID]
	})
	return out
}

// Count returns the number of participants in a session.
func (t *Tracker) Count(sessionID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rosters[sessionID]
	if !ok {
		return 0
	}
	return len(r.users)
}

func (t *Tracker) lookup(sessionID, userID string) *Participant {
	r, ok := t.rosters[sessionID]
	if !ok {
		return nil
	}
	return r.users[userID]
}
