package remote

import (
	"context"
	"errors"

	"github.com/five82/scribe/internal/notes"
)

var (
	// ErrNotFound is returned when a note id is unknown to the store.
	ErrNotFound = errors.New("note not found")
	// ErrConflict is returned when a create reuses an existing id.
	ErrConflict = errors.New("note already exists")
)

// Store is the request/response side of the managed notes API plus its push
// channel. Implementations must be safe for concurrent use.
type Store interface {
	List(ctx context.Context) ([]notes.Note, error)
	Create(ctx context.Context, note notes.Note) error
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, patch notes.Patch) error
	SubscribeOnCreate(ctx context.Context) (Subscription, error)
}

// Subscription yields every note created by any client until closed.
type Subscription interface {
	// Notes is closed once the subscription ends.
	Notes() <-chan notes.Note
	Close() error
}

// ListResponse mirrors GET /api/notes.
type ListResponse struct {
	Items []notes.Note `json:"items"`
}
