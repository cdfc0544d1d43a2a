package base

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrStorageIO             = errors.New("storage i/o failure")
	ErrSerializationMismatch = errors.New("serialized size does not match declared size")
	ErrCapacityInvariant     = errors.New("node capacity invariant violated")
	ErrCorruption            = errors.New("data corruption detected")
)

// IOError records a failed read, write or sync against the backing store.
// It matches both ErrStorageIO and the underlying cause with errors.Is.
type IOError struct {
	Op   string
	Addr Address
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Op, e.Addr, e.Err)
}

// Unwrap implements the multi-error form understood by errors.Is and errors.As.
func (e *IOError) Unwrap() []error {
	return []error{ErrStorageIO, e.Err}
}

// NewIOError wraps err, or returns nil when err is nil.
func NewIOError(op string, addr Address, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Addr: addr, Err: err}
}
