package device

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected indicates that an operation was attempted on a device
	// handle that has no established connection.
	ErrDisconnected = errors.New("device disconnected")

	// ErrNoFrame indicates that the detector has no frame available to read.
	ErrNoFrame = errors.New("no frame available")

	// ErrInvalidShutterMode indicates that an unsupported shutter operating
	// mode was requested.
	ErrInvalidShutterMode = errors.New("invalid shutter operating mode")
)

// CommError represents a communication fault raised by a device collaborator.
// The acquisition engine maps any CommError to a cycle failure instead of
// propagating it.
type CommError struct {
	Op  string // the device operation that failed
	Err error  // the underlying cause
}

func (e *CommError) Error() string {
	return fmt.Sprintf("device communication fault during %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

// NewCommError wraps err as a communication fault for the given operation.
func NewCommError(op string, err error) error {
	return &CommError{Op: op, Err: err}
}

// IsCommError reports whether err is, or wraps, a CommError.
func IsCommError(err error) bool {
	var ce *CommError
	return errors.As(err, &ce)
}
