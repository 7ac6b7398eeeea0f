// Package ui is the Bubble Tea front end for scribe.
//
// The Model holds no list state of its own. It keeps the last
// state.Snapshot from the sync core, re-reads it whenever the core signals a
// change, and forwards create, delete and toggle intents straight to the
// core. Rendering therefore always reflects the core's view of the list,
// including pending and failed writes.
//
// Views:
//
//   - Notes: the list with a sync marker, a completion box, the name and the
//     description of each note
//   - Logs: a tail of the client log file, refreshed every second while open
//
// A create form (n) and the help overlay (h or ?) are drawn as modals. Theme
// and the hide-completed filter are persisted through the prefs package.
package ui
