package domain

import "time"

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Placeholder is the displayed name before any draw has settled.
const Placeholder = "Ready?"

// NameList is an ordered sequence of trimmed, non-empty names.
// Duplicates are allowed until removed with Deduplicate.
type NameList []string

// Clone returns a copy that shares no backing array with l.
func (l NameList) Clone() NameList {
	if l == nil {
		return nil
	}
	out := make(NameList, len(l))
	copy(out, l)
	return out
}

// Group is one contiguous slice of a shuffled NameList.
type Group []string

// WinnerRecord is the immutable outcome of one completed draw round.
type WinnerRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// DrawState is the state of a session's draw machine.
type DrawState string

const (
	DrawIdle    DrawState = "idle"
	DrawDrawing DrawState = "drawing"
)
