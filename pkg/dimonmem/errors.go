package dimonmem

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("dimonmem: not found")

// ValidationError marks a malformed event. Rejected events are never stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}

// TransientError wraps a store or index failure that is safe to retry at the
// calling layer. Engine operations are idempotent so retries cannot
// double-count.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
