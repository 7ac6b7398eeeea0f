package notes

import "github.com/google/uuid"

// OriginTag identifies the client instance that created a note.
type OriginTag string

// NewOriginTag returns a tag unique to this running client.
func NewOriginTag() OriginTag {
	return OriginTag(uuid.NewString())
}

// NewID returns a fresh note id, assigned before the remote store sees the note.
func NewID() string {
	return uuid.NewString()
}
