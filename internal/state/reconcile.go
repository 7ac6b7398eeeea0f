package state

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/five82/scribe/internal/notes"
)

// The loop never edits c.list in place: every step builds a new slice, which
// lets publish hand the slice to the snapshot without copying.

// RequestCreate prepends a new note and sends it to the remote store. The
// note is visible in the next snapshot before any network activity. Inputs
// are expected to be validated already.
func (c *Core) RequestCreate(name, description string) (notes.Note, error) {
	note := notes.Note{
		ID:          c.newID(),
		Name:        name,
		Description: description,
		Origin:      c.origin,
		Status:      notes.SyncPending,
	}
	err := c.do(func() {
		c.list = prepend(c.list, note)
		c.publish()

		wire := note
		wire.Status = notes.SyncConfirmed
		gen := c.beginWrite(note.ID)
		c.goWrite(notes.OpCreate, note.ID, gen,
			func(ctx context.Context) error { return c.remote.Create(ctx, wire) },
			func() {
				if idx := notes.IndexOf(c.list, note.ID); idx >= 0 {
					c.list = without(c.list, idx)
				}
			})
	})
	if err != nil {
		return notes.Note{}, err
	}
	return note, nil
}

// RequestDelete removes the note with id and sends the delete. Unknown ids are
// a no-op.
func (c *Core) RequestDelete(id string) error {
	return c.do(func() {
		idx := notes.IndexOf(c.list, id)
		if idx < 0 {
			return
		}
		removed := c.list[idx]
		c.list = without(c.list, idx)
		c.deleted[id] = struct{}{}
		c.publish()

		if id == c.placeholder {
			return
		}
		gen := c.beginWrite(id)
		c.goWrite(notes.OpDelete, id, gen,
			func(ctx context.Context) error { return c.remote.Delete(ctx, id) },
			func() {
				if notes.IndexOf(c.list, id) >= 0 {
					return
				}
				delete(c.deleted, id)
				removed.Status = notes.SyncConfirmed
				c.list = insertAt(c.list, min(idx, len(c.list)), removed)
			})
	})
}

// RequestToggle flips the completion flag of the note with id and sends the
// update. Unknown ids are a no-op.
func (c *Core) RequestToggle(id string) error {
	return c.do(func() {
		idx := notes.IndexOf(c.list, id)
		if idx < 0 {
			return
		}
		target := c.list[idx]
		prev := target.Completed
		target.Completed = !prev
		if id != c.placeholder {
			target.Status = notes.SyncPending
		}
		c.list = replaced(c.list, idx, target)
		c.publish()

		if id == c.placeholder {
			return
		}
		patch := notes.CompletedPatch(!prev)
		gen := c.beginWrite(id)
		c.goWrite(notes.OpUpdate, id, gen,
			func(ctx context.Context) error { return c.remote.Update(ctx, id, patch) },
			func() {
				if i := notes.IndexOf(c.list, id); i >= 0 {
					restored := c.list[i]
					restored.Completed = prev
					restored.Status = notes.SyncConfirmed
					c.list = replaced(c.list, i, restored)
				}
			})
	})
}

func (c *Core) beginWrite(id string) uint64 {
	c.writeSeq++
	c.writes[id] = c.writeSeq
	return c.writeSeq
}

// finishWrite reconciles a write result. Only the latest write for a note
// decides its status; results of superseded writes are logged and dropped.
func (c *Core) finishWrite(op, id string, gen uint64, err error, undo func()) {
	latest := c.writes[id] == gen
	if latest {
		delete(c.writes, id)
	}
	entry := c.log.WithFields(log.Fields{"op": op, "note": id})

	if err == nil {
		entry.Debug("remote write confirmed")
		if latest && op != notes.OpDelete && c.markStatus(id, notes.SyncConfirmed) {
			c.publish()
		}
		return
	}

	werr := &notes.WriteError{Op: op, ID: id, Err: err}
	entry.WithError(werr).Warn("remote write failed")
	c.lastWriteErr = werr
	c.failedWrites++

	switch {
	case !latest:
	case c.rollback && undo != nil:
		undo()
	case op != notes.OpDelete:
		c.markStatus(id, notes.SyncFailed)
	}
	c.publish()
}

// markStatus reports whether the note was found and changed.
func (c *Core) markStatus(id string, status notes.SyncStatus) bool {
	idx := notes.IndexOf(c.list, id)
	if idx < 0 || c.list[idx].Status == status {
		return false
	}
	n := c.list[idx]
	n.Status = status
	c.list = replaced(c.list, idx, n)
	return true
}

// applyRemoteEvent merges a "note created" push event. Echoes of this
// instance's own creates were applied optimistically already and are dropped.
func (c *Core) applyRemoteEvent(note notes.Note) {
	entry := c.log.WithFields(log.Fields{"note": note.ID, "from": string(note.Origin)})
	switch {
	case note.Origin == c.origin:
		entry.Debug("discarding echo of local create")
		return
	case note.ID == "":
		entry.Warn("discarding push event without id")
		return
	case notes.IndexOf(c.list, note.ID) >= 0:
		entry.Debug("discarding push event for known note")
		return
	}
	if _, gone := c.deleted[note.ID]; gone {
		entry.Debug("discarding push event for locally deleted note")
		return
	}
	note.Status = notes.SyncConfirmed
	c.list = prepend(c.list, note)
	c.publish()
}

// applyFetch reconciles the one bulk fetch. On success the fetched list
// replaces the placeholder; local changes made while the fetch was in flight
// are laid over it.
func (c *Core) applyFetch(items []notes.Note, err error) {
	if err != nil {
		c.fetchErr = &notes.FetchError{Err: err}
		c.phase = PhaseFailed
		c.log.WithError(err).Error("initial fetch failed")
		c.publish()
		return
	}

	local := make(map[string]notes.Note, len(c.list))
	for _, n := range c.list {
		if n.ID != c.placeholder {
			local[n.ID] = n
		}
	}

	merged := make([]notes.Note, 0, len(items)+len(local))
	seen := make(map[string]struct{}, len(items))
	for _, n := range items {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		if _, gone := c.deleted[n.ID]; gone {
			continue
		}
		if mine, ok := local[n.ID]; ok && mine.Status == notes.SyncPending {
			n.Completed = mine.Completed
			n.Status = mine.Status
		} else {
			n.Status = notes.SyncConfirmed
		}
		merged = append(merged, n)
	}

	var overlay []notes.Note
	for _, n := range c.list {
		if n.ID == c.placeholder {
			continue
		}
		if _, ok := seen[n.ID]; !ok {
			overlay = append(overlay, n)
		}
	}

	c.list = append(overlay, merged...)
	c.phase = PhaseLoaded
	c.log.WithField("count", len(c.list)).Info("initial fetch complete")
	c.publish()
}

func prepend(list []notes.Note, n notes.Note) []notes.Note {
	out := make([]notes.Note, 0, len(list)+1)
	out = append(out, n)
	return append(out, list...)
}

func without(list []notes.Note, idx int) []notes.Note {
	out := make([]notes.Note, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...)
}

func replaced(list []notes.Note, idx int, n notes.Note) []notes.Note {
	out := notes.Clone(list)
	out[idx] = n
	return out
}

func insertAt(list []notes.Note, idx int, n notes.Note) []notes.Note {
	out := make([]notes.Note, 0, len(list)+1)
	out = append(out, list[:idx]...)
	out = append(out, n)
	return append(out, list[idx:]...)
}
