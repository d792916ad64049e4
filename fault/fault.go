// Package fault defines the error taxonomy shared by the data-access core:
// access denials, missing entities and retryable storage faults are kept
// distinct so callers never have to guess from an empty result.
package fault

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
)

// StorageError wraps a backing-store failure. These are retryable from the
// caller's point of view; they must never be collapsed into "no data".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError, annotating it with the failing
// operation. Returns nil when err is nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: pkgerrors.WithStack(err)}
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
