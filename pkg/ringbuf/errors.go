package ringbuf

import (
	"fmt"

	"github.com/c360/circbuf/errors"
)

// CapacityError reports a capacity request the buffer cannot honor.
// It matches errors.ErrCapacityExceeded under errors.Is.
type CapacityError struct {
	Requested int
	Max       int
}

// Error implements the error interface
func (e *CapacityError) Error() string {
	if e.Requested < 0 {
		return fmt.Sprintf("requested capacity %d is negative (maximum size %d)", e.Requested, e.Max)
	}
	return fmt.Sprintf("requested capacity %d exceeds maximum size %d", e.Requested, e.Max)
}

// Is reports whether target is errors.ErrCapacityExceeded
func (e *CapacityError) Is(target error) bool {
	return target == errors.ErrCapacityExceeded
}

// RangeError reports a checked access outside [0, Size).
// It matches errors.ErrOutOfRange under errors.Is.
type RangeError struct {
	Position int
	Size     int
}

// Error implements the error interface
func (e *RangeError) Error() string {
	return fmt.Sprintf("position %d out of range for size %d", e.Position, e.Size)
}

// Is reports whether target is errors.ErrOutOfRange
func (e *RangeError) Is(target error) bool {
	return target == errors.ErrOutOfRange
}

// checkCapacity validates n against [0, maxSize] and wraps a CapacityError
// as invalid input for the named operation.
func checkCapacity(method string, n, maxSize int) error {
	if n >= 0 && n <= maxSize {
		return nil
	}
	return errors.WrapInvalid(&CapacityError{Requested: n, Max: maxSize},
		"RingBuffer", method, "capacity check")
}
