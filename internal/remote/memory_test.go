package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/scribe/internal/notes"
)

func TestMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(notes.Note{ID: "a", Name: "Groceries", Status: notes.SyncPending})

	if err := m.Create(ctx, notes.Note{ID: "b", Name: "Gym"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := m.Create(ctx, notes.Note{ID: "b"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate Create error = %v, want ErrConflict", err)
	}

	items, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "a" {
		t.Fatalf("List = %#v, want newest first", items)
	}
	if items[1].Status != notes.SyncConfirmed {
		t.Fatalf("seeded status = %v, want confirmed", items[1].Status)
	}

	if err := m.Update(ctx, "a", notes.CompletedPatch(true)); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := m.Update(ctx, "zzz", notes.CompletedPatch(true)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing error = %v, want ErrNotFound", err)
	}
	if err := m.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := m.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing error = %v, want ErrNotFound", err)
	}

	items, _ = m.List(ctx)
	if len(items) != 1 || items[0].ID != "a" || !items[0].Completed {
		t.Fatalf("List = %#v, want completed a", items)
	}

	// List hands out copies.
	items[0].Name = "mutated"
	again, _ := m.List(ctx)
	if again[0].Name != "Groceries" {
		t.Fatalf("List should return copies")
	}
}

func TestMemory_FailNextQueuesPerOperation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")
	m.FailNext(notes.OpCreate, boom)
	m.FailNext(OpList, boom)

	if err := m.Create(ctx, notes.Note{ID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("Create error = %v, want boom", err)
	}
	if err := m.Create(ctx, notes.Note{ID: "a"}); err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}
	if _, err := m.List(ctx); !errors.Is(err, boom) {
		t.Fatalf("List error = %v, want boom", err)
	}
	if _, err := m.List(ctx); err != nil {
		t.Fatalf("second List returned error: %v", err)
	}
}

func TestMemory_SubscriptionFanOut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first, err := m.SubscribeOnCreate(ctx)
	if err != nil {
		t.Fatalf("SubscribeOnCreate returned error: %v", err)
	}
	second, err := m.SubscribeOnCreate(ctx)
	if err != nil {
		t.Fatalf("SubscribeOnCreate returned error: %v", err)
	}
	if m.Subscribers() != 2 {
		t.Fatalf("Subscribers = %d, want 2", m.Subscribers())
	}

	if err := m.Create(ctx, notes.Note{ID: "a", Origin: "tag"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	for _, sub := range []Subscription{first, second} {
		select {
		case n := <-sub.Notes():
			if n.ID != "a" || n.Origin != "tag" {
				t.Fatalf("event = %#v, want note a", n)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event")
		}
	}

	_ = first.Close()
	_ = first.Close()
	if m.Subscribers() != 1 {
		t.Fatalf("Subscribers = %d, want 1 after close", m.Subscribers())
	}
	if _, ok := <-first.Notes(); ok {
		t.Fatalf("closed subscription channel should be drained and closed")
	}
	_ = second.Close()
}
