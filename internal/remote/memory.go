package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/scribe/internal/notes"
)

// Operation names accepted by Memory.FailNext.
const (
	OpList      = "list"
	OpSubscribe = "subscribe"
)

// Ensure Memory implements Store at compile time.
var _ Store = (*Memory)(nil)

// Memory is an in-process Store. Notes are kept newest-first and every create
// is fanned out to open subscriptions. A subscriber that falls more than its
// buffer behind misses events.
type Memory struct {
	mu       sync.Mutex
	items    []notes.Note
	subs     map[chan notes.Note]struct{}
	failures map[string][]error
}

// NewMemory returns a store seeded with the given notes in order.
func NewMemory(seed ...notes.Note) *Memory {
	items := make([]notes.Note, 0, len(seed))
	for _, n := range seed {
		n.Status = notes.SyncConfirmed
		items = append(items, n)
	}
	return &Memory{
		items:    items,
		subs:     make(map[chan notes.Note]struct{}),
		failures: make(map[string][]error),
	}
}

// FailNext makes the next call of op return err. Calls queue up per op.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

func (m *Memory) takeFailure(op string) error {
	queue := m.failures[op]
	if len(queue) == 0 {
		return nil
	}
	m.failures[op] = queue[1:]
	return queue[0]
}

// List returns a copy of every stored note.
func (m *Memory) List(ctx context.Context) ([]notes.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpList); err != nil {
		return nil, err
	}
	return notes.Clone(m.items), nil
}

// Create stores note at the front and notifies subscribers.
func (m *Memory) Create(ctx context.Context, note notes.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(notes.OpCreate); err != nil {
		return err
	}
	if notes.IndexOf(m.items, note.ID) >= 0 {
		return fmt.Errorf("create %s: %w", note.ID, ErrConflict)
	}
	note.Status = notes.SyncConfirmed
	m.items = append([]notes.Note{note}, m.items...)
	for ch := range m.subs {
		select {
		case ch <- note:
		default:
		}
	}
	return nil
}

// Delete removes the note with id.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(notes.OpDelete); err != nil {
		return err
	}
	idx := notes.IndexOf(m.items, id)
	if idx < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	m.items = append(m.items[:idx:idx], m.items[idx+1:]...)
	return nil
}

// Update applies patch to the note with id.
func (m *Memory) Update(ctx context.Context, id string, patch notes.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(notes.OpUpdate); err != nil {
		return err
	}
	idx := notes.IndexOf(m.items, id)
	if idx < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	m.items[idx] = patch.Apply(m.items[idx])
	return nil
}

// SubscribeOnCreate registers a new subscriber.
func (m *Memory) SubscribeOnCreate(ctx context.Context) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(OpSubscribe); err != nil {
		return nil, err
	}
	ch := make(chan notes.Note, 64)
	m.subs[ch] = struct{}{}
	return &memorySubscription{store: m, ch: ch}, nil
}

// Subscribers reports how many subscriptions are open.
func (m *Memory) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

type memorySubscription struct {
	store *Memory
	ch    chan notes.Note
	once  sync.Once
}

func (s *memorySubscription) Notes() <-chan notes.Note { return s.ch }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs, s.ch)
		close(s.ch)
		s.store.mu.Unlock()
	})
	return nil
}
