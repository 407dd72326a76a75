// Package history records position snapshots and answers the repetition and
// fifty-move questions.
package history

// FiftyMovePlies is the number of half-moves without a capture or pawn move
// after which a draw may be claimed.
const FiftyMovePlies = 100

// RepetitionCount is how often a position must occur to claim a draw.
const RepetitionCount = 3

// Snapshot is the canonical arrangement recorded at a given ply.
type Snapshot struct {
	Ply         int
	Arrangement string
}

// History is an append-only sequence of snapshots, one per ply.
type History struct {
	snapshots []Snapshot
}

// FromArrangements rebuilds a history whose first snapshot is at ply 1.
func FromArrangements(arrangements []string) History {
	h := History{snapshots: make([]Snapshot, 0, len(arrangements))}
	for i, a := range arrangements {
		h.snapshots = append(h.snapshots, Snapshot{Ply: i + 1, Arrangement: a})
	}
	return h
}

// Record appends the arrangement reached at ply.
func (h *History) Record(ply int, arrangement string) Snapshot {
	s := Snapshot{Ply: ply, Arrangement: arrangement}
	h.snapshots = append(h.snapshots, s)
	return s
}

// Len is the number of recorded snapshots.
func (h History) Len() int { return len(h.snapshots) }

// Last returns the most recent snapshot.
func (h History) Last() (Snapshot, bool) {
	if len(h.snapshots) == 0 {
		return Snapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// Count returns how many times arrangement has been recorded.
func (h History) Count(arrangement string) int {
	n := 0
	for _, s := range h.snapshots {
		if s.Arrangement == arrangement {
			n++
		}
	}
	return n
}

// Repetition reports whether the current position has occurred at least
// three times.
func (h History) Repetition() bool {
	last, ok := h.Last()
	return ok && h.Count(last.Arrangement) >= RepetitionCount
}

// FiftyMove reports whether a hundred half-moves have passed at ply since the
// last capture or pawn move.
func FiftyMove(ply, lastCaptureOrPawnMovePly int) bool {
	return ply-lastCaptureOrPawnMovePly >= FiftyMovePlies
}

// Arrangements returns the recorded arrangements in order.
func (h History) Arrangements() []string {
	out := make([]string, len(h.snapshots))
	for i, s := range h.snapshots {
		out[i] = s.Arrangement
	}
	return out
}

// Clone returns an independent copy.
func (h History) Clone() History {
	return History{snapshots: append([]Snapshot(nil), h.snapshots...)}
}
