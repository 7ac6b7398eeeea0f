// Package remote defines the contract of the managed notes API and ships two
// implementations of it.
//
// # Contract
//
// Store covers the request/response side (List, Create, Delete, Update) and
// the push side (SubscribeOnCreate). A Subscription yields every note created
// by any client, including the subscriber's own creations; telling those
// echoes apart is the caller's job.
//
// # Implementations
//
//   - client.go, events.go: HTTP client for the scribe API. Plain JSON
//     requests for the request/response side and a server-sent event stream
//     for created notes.
//   - memory.go: in-process store used for the offline demo backend and as a
//     test double. FailNext injects errors per operation.
//
// The Redis implementation lives in package redisstore.
//
// # HTTP API
//
//	GET    /api/notes           {"items":[...]} in server order
//	POST   /api/notes           full note record, 201
//	PATCH  /api/notes/{id}      {"completed":bool}, 204
//	DELETE /api/notes/{id}      204
//	GET    /api/notes/events    text/event-stream, one "data: <note>" frame per create
//
// Status 404 maps to ErrNotFound and 409 to ErrConflict; other failures are
// wrapped with the request path ("api /api/notes returned status 500").
//
// # Design Rationale
//
// No retries and no caching live here. The sync core decides what a failed
// write means for local state.
package remote
