// Package app is the composition root for scribe.
//
// Run wires the client: it loads config and prefs, opens the file logger,
// picks the remote store named by [remote] backend (the HTTP notes API,
// Redis directly, or an in-process memory store), starts the sync core under
// a fresh origin tag and hands it to the TUI. Closing the TUI closes the core,
// which releases the create-event subscription.
//
// Serve runs the notes API that the http backend talks to, backed by Redis
// or memory. Redis is dialed with exponential backoff so the server can start
// before its database.
package app
