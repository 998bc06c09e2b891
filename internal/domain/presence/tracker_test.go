package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_JoinAssignsDistinctColors(t *testing.T) {
	tr := NewTracker()

	a := tr.Join("s1", Participant{ID: "u1", Name: "Ana"})
	b := tr.Join("s1", Participant{ID: "u2", Name: "Ben"})

	require.NotEmpty(t, a.Color)
	require.NotEmpty(t, b.Color)
	require.NotEqual(t, a.Color, b.Color)
}

func TestTracker_RejoinDoesNotDuplicate(t *testing.T) {
	tr := NewTracker()

	first := tr.Join("s1", Participant{ID: "u1", Name: "Ana"})
	again := tr.Join("s1", Participant{ID: "u1", Name: "Ana"})

	require.Equal(t, first.Color, again.Color)
	require.Equal(t, 1, tr.Count("s1"))
	require.Len(t, tr.Roster("s1"), 1)
}

func TestTracker_LeaveRemovesEntry(t *testing.T) {
	tr := NewTracker()
	tr.Join("s1", Participant{ID: "u1"})
	tr.Join("s1", Participant{ID: "u2"})

	tr.Leave("s1", "u1")

	roster := tr.Roster("s1")
	require.Len(t, roster, 1)
	require.Equal(t, "u2", roster[0].ID)

	tr.Leave("s1", "u2")
	require.Equal(t, 0, tr.Count("s1"))
	require.Empty(t, tr.Roster("s1"))
}

func TestTracker_RosterIsJoinOrdered(t *testing.T) {
	tr := NewTracker()
	tr.Join("s1", Participant{ID: "u3"})
	tr.Join("s1", Participant{ID: "u1"})
	tr.Join("s1", Participant{ID: "u2"})

	roster := tr.Roster("s1")
	require.Len(t, roster, 3)
	require.Equal(t, "u3", roster[0].ID)
	require.Equal(t, "u1", roster[1].ID)
	require.Equal(t, "u2", roster[2].ID)
}

func TestTracker_UpdateCursor(t *testing.T) {
	tr := NewTracker()
	tr.Join("s1", Participant{ID: "u1"})

	tr.UpdateCursor("s1", "u1", Cursor{FilePath: "main.ts", Line: 4, Column: 2}, &Selection{
		StartLine: 4, StartColumn: 0, EndLine: 4, EndColumn: 2,
	})

	roster := tr.Roster("s1")
	require.NotNil(t, roster[0].Cursor)
	require.Equal(t, "main.ts", roster[0].Cursor.FilePath)
	require.Equal(t, 4, roster[0].Cursor.Line)
	require.NotNil(t, roster[0].Selection)
	require.Equal(t, "main.ts", roster[0].CurrentFile)

	// Cursor moves for unknown users are dropped silently.
	tr.UpdateCursor("s1", "ghost", Cursor{FilePath: "a"}, nil)
	require.Len(t, tr.Roster("s1"), 1)
}

func TestTracker_SetTyping(t *testing.T) {
	tr := NewTracker()
	tr.Join("s1", Participant{ID: "u1"})

	tr.SetTyping("s1", "u1", "main.ts", true)
	require.True(t, tr.Roster("s1")[0].Typing)

	tr.SetTyping("s1", "u1", "", false)
	require.False(t, tr.Roster("s1")[0].Typing)
	require.Equal(t, "main.ts", tr.Roster("s1")[0].CurrentFile)
}

func TestTracker_SessionsAreIsolated(t *testing.T) {
	tr := NewTracker()
	tr.Join("s1", Participant{ID: "u1"})
	tr.Join("s2", Participant{ID: "u1"})

	tr.Leave("s1", "u1")
	require.Equal(t, 0, tr.Count("s1"))
	require.Equal(t, 1, tr.Count("s2"))
}
