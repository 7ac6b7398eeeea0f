package notes

import "fmt"

// Write operations reported in WriteError.Op.
const (
	OpCreate = "create"
	OpDelete = "delete"
	OpUpdate = "update"
)

// FetchError reports a failed initial bulk load.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch notes: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError reports a create, delete or update that failed after it was
// applied locally.
type WriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s note %s: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
