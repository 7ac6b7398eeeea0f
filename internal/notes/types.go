package notes

import (
	"errors"
	"strings"
)

// SyncStatus tracks whether the remote store has acknowledged the last local
// write for a note. It never travels over the wire.
type SyncStatus int

const (
	// SyncConfirmed is the zero value: fetched, pushed, or acknowledged.
	SyncConfirmed SyncStatus = iota
	// SyncPending marks an optimistic change whose write is still in flight.
	SyncPending
	// SyncFailed marks an optimistic change whose write failed and was kept.
	SyncFailed
)

func (s SyncStatus) String() string {
	switch s {
	case SyncPending:
		return "pending"
	case SyncFailed:
		return "failed"
	default:
		return "confirmed"
	}
}

// Note is the sole entity of the list.
type Note struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Origin      OriginTag  `json:"clientId,omitempty"`
	Status      SyncStatus `json:"-"`
}

// Patch carries the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Completed *bool `json:"completed,omitempty"`
}

// Apply returns n with the patch fields applied.
func (p Patch) Apply(n Note) Note {
	if p.Completed != nil {
		n.Completed = *p.Completed
	}
	return n
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Completed == nil
}

// CompletedPatch builds a patch that sets the completion flag.
func CompletedPatch(completed bool) Patch {
	return Patch{Completed: &completed}
}

var (
	errNameRequired        = errors.New("name is required")
	errDescriptionRequired = errors.New("description is required")
)

// Draft is the user input behind a create request.
type Draft struct {
	Name        string
	Description string
}

// Validate checks that both fields carry text. The sync core trusts its
// callers to have run this already.
func (d Draft) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errNameRequired)
	}
	if strings.TrimSpace(d.Description) == "" {
		errs = append(errs, errDescriptionRequired)
	}
	return errors.Join(errs...)
}

// IndexOf returns the position of the note with id, or -1.
func IndexOf(list []Note, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy of list. Empty input yields nil.
func Clone(list []Note) []Note {
	if len(list) == 0 {
		return nil
	}
	dup := make([]Note, len(list))
	copy(dup, list)
	return dup
}
