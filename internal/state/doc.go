// Package state implements the optimistic synchronization core of scribe.
//
// # Overview
//
// Core owns the canonical list of notes. It merges three streams into one
// duplicate-free list without ever blocking the view on network latency:
//
//   - local intents from the view (create, delete, toggle)
//   - asynchronous results of the remote writes those intents issue
//   - "note created" events pushed by the remote store
//
// # Concurrency Model
//
// Every mutation runs as a closure on a single loop goroutine:
//
//	 view intent ──> do(step) ──┐
//	 write result ──> post(step) ├──> loop ──> publish ──> Snapshot()/Subscribe()
//	 push event ───> post(step) ─┘
//
// Intents wait only for their local step, which never performs I/O. Network
// calls run on their own goroutines and hand their results back to the loop,
// so no two reconciliation steps race on the list and no lock guards it. The
// published Snapshot is the one piece of shared memory; it sits behind a
// RWMutex and is copied on read.
//
// Push events are applied in delivery order. Issued writes are not cancelled,
// not even by Close; they finish or time out and their results are dropped
// once the loop has stopped.
//
// # Reconciliation Rules
//
//	create      prepend (pending) ─> confirmed | failed | removed (rollback)
//	delete      remove            ─> nothing   | re-inserted (rollback)
//	toggle      flip (pending)    ─> confirmed | failed | restored (rollback)
//	push event  drop own origin, drop known or locally deleted ids, else prepend
//	fetch       replace placeholder, keep local creates and pending toggles
//
// Only the latest write for a note decides its status. Whether a failed write
// is rolled back or left in place marked failed is chosen with
// Options.RollbackOnWriteError; the default keeps the optimistic change.
//
// # Load State
//
// Phase moves Loading -> Loaded or Loading -> Failed exactly once. There is
// no retry; a failed fetch keeps the placeholder list for the session and
// Snapshot.Err carries the *notes.FetchError.
//
// # Lifecycle
//
//	core, err := state.New(state.Options{Origin: notes.NewOriginTag(), Remote: store})
//	if err != nil {
//		return err
//	}
//	if err := core.Start(ctx); err != nil {
//		return err
//	}
//	defer core.Close()
//
//	changes, cancel := core.Subscribe()
//	defer cancel()
//	for range changes {
//		render(core.Snapshot())
//	}
//
// Close releases the push subscription exactly once.
package state
