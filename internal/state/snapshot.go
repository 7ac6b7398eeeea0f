package state

import "github.com/five82/scribe/internal/notes"

// Phase is the lifecycle of the initial bulk fetch.
type Phase int

const (
	// PhaseLoading lasts until the one bulk fetch returns.
	PhaseLoading Phase = iota
	// PhaseLoaded means the fetched list replaced the placeholder.
	PhaseLoaded
	// PhaseFailed means the fetch failed; it is terminal for the session.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Snapshot represents the list and load state handed to the view.
type Snapshot struct {
	Notes        []notes.Note
	Phase        Phase
	Err          error // *notes.FetchError once Phase is PhaseFailed
	LastWriteErr error // most recent *notes.WriteError, if any
	FailedWrites int
	Version      uint64
}

// Loading reports whether the initial fetch is still in flight.
func (s Snapshot) Loading() bool {
	return s.Phase == PhaseLoading
}

// Failed reports whether the initial fetch failed.
func (s Snapshot) Failed() bool {
	return s.Phase == PhaseFailed
}

// Pending counts notes whose last write has not been acknowledged.
func (s Snapshot) Pending() int {
	count := 0
	for _, n := range s.Notes {
		if n.Status == notes.SyncPending {
			count++
		}
	}
	return count
}
