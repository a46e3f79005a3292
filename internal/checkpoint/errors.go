package checkpoint

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Load and Delete for an unknown thread.
	ErrNotFound = errors.New("checkpoint not found")
	// ErrVersionConflict means another writer saved the thread first.
	ErrVersionConflict = errors.New("checkpoint version conflict")
)

// PersistenceError wraps every storage failure. It is fatal for the turn
// that hit it.
type PersistenceError struct {
	Op       string
	ThreadID string
	Cause    error
}

func (e *PersistenceError) Error() string {
	if e.ThreadID != "" {
		return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.ThreadID, e.Cause)
	}
	return fmt.Sprintf("checkpoint %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func persistenceErr(op, threadID string, cause error) error {
	return &PersistenceError{Op: op, ThreadID: threadID, Cause: cause}
}
