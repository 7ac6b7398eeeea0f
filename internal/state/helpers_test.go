package state

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/five82/scribe/internal/notes"
	"github.com/five82/scribe/internal/remote"
)

const selfTag notes.OriginTag = "self"

// gatedStore delays selected calls until the test opens the gate, standing in
// for network latency.
type gatedStore struct {
	*remote.Memory

	listGate   chan struct{}
	createGate chan struct{}
	updateGate chan struct{}
	deleteGate chan struct{}

	deletes atomic.Int32
	updates atomic.Int32
}

func (g *gatedStore) wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedStore) List(ctx context.Context) ([]notes.Note, error) {
	if err := g.wait(ctx, g.listGate); err != nil {
		return nil, err
	}
	return g.Memory.List(ctx)
}

func (g *gatedStore) Create(ctx context.Context, note notes.Note) error {
	if err := g.wait(ctx, g.createGate); err != nil {
		return err
	}
	return g.Memory.Create(ctx, note)
}

func (g *gatedStore) Update(ctx context.Context, id string, patch notes.Patch) error {
	g.updates.Add(1)
	if err := g.wait(ctx, g.updateGate); err != nil {
		return err
	}
	return g.Memory.Update(ctx, id, patch)
}

func (g *gatedStore) Delete(ctx context.Context, id string) error {
	g.deletes.Add(1)
	if err := g.wait(ctx, g.deleteGate); err != nil {
		return err
	}
	return g.Memory.Delete(ctx, id)
}

// push delivers a remote event straight to the loop, bypassing the store.
func push(t *testing.T, c *Core, note notes.Note) {
	t.Helper()
	if err := c.do(func() { c.applyRemoteEvent(note) }); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type harness struct {
	core  *Core
	store *gatedStore
	hook  *test.Hook
}

func newHarness(t *testing.T, store *gatedStore, mutate func(*Options)) *harness {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	opts := Options{
		Origin:       selfTag,
		Remote:       store,
		Logger:       logger,
		WriteTimeout: time.Second,
		NewID:        sequentialIDs("n"),
	}
	if mutate != nil {
		mutate(&opts)
	}
	core, err := New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := core.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return &harness{core: core, store: store, hook: hook}
}

func loadedHarness(t *testing.T, seed ...notes.Note) *harness {
	t.Helper()
	h := newHarness(t, &gatedStore{Memory: remote.NewMemory(seed...)}, nil)
	waitFor(t, h.core, func(s Snapshot) bool { return s.Phase == PhaseLoaded })
	return h
}

func waitFor(t *testing.T, c *Core, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := c.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline; last snapshot %#v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func ids(list []notes.Note) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func assertIDs(t *testing.T, list []notes.Note, want ...string) {
	t.Helper()
	got := ids(list)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func assertUnique(t *testing.T, list []notes.Note) {
	t.Helper()
	seen := make(map[string]bool, len(list))
	for _, n := range list {
		if seen[n.ID] {
			t.Fatalf("duplicate id %q in %v", n.ID, ids(list))
		}
		seen[n.ID] = true
	}
}

func statusOf(t *testing.T, list []notes.Note, id string) notes.SyncStatus {
	t.Helper()
	idx := notes.IndexOf(list, id)
	if idx < 0 {
		t.Fatalf("note %q not in %v", id, ids(list))
	}
	return list[idx].Status
}
