package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no authenticated owner is
	// present for an operation that requires one.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFound is returned when an id does not exist within the
	// owner's records of the given kind.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned on signup with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
)

// StorageError wraps any other retrieval or persistence failure from a
// backend so callers can distinguish it from validation and auth errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storagef wraps err as a StorageError for the named operation.
// Sentinel errors pass through untouched so errors.Is keeps working.
func Storagef(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUnauthenticated) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
