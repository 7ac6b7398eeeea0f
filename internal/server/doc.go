// Package server serves the notes HTTP API on top of any remote.Store.
//
// It is the counterpart of remote.Client: the same routes, status codes and
// event stream framing. `scribe serve` runs it against the Redis or in-memory
// backend so several TUI clients can share one list.
package server
