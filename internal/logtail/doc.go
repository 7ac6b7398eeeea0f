// Package logtail reads the tail of scribe's client log for the TUI logs pane.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so a
// long-running session with a large log costs O(maxLines) memory:
//
//	lines, err := logtail.Read(cfg.Log.File, 400)
//
// A missing file yields nil, nil; the client may not have logged anything yet.
// Other I/O errors are wrapped and returned.
//
// # Parsing
//
// The client writes logrus TextFormatter output without colours:
//
//	time="2026-10-17T09:12:01Z" level=warning msg="remote write failed" note=n1 op=create
//
// ParseLine splits such a line into time, level, message and the remaining
// fields so the UI can colour the level and dim the fields. Anything that does
// not look like logrus output (panics, stack traces) is returned verbatim in
// Msg. ParseLine never fails.
package logtail
