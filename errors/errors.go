package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass tells a caller what to do with an error: retry it, fix the
// request, or give up.
type ErrorClass int

const (
	// ErrorTransient marks conditions that may clear on their own, such as a
	// listener that is not up yet or a cancelled context
	ErrorTransient ErrorClass = iota
	// ErrorInvalid marks requests that can never succeed as issued: capacities
	// above the maximum size, positions past the end, malformed configuration
	ErrorInvalid
	// ErrorFatal marks failures of the environment the caller cannot correct
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return fmt.Sprintf("class(%d)", int(ec))
	}
}

// Sentinel errors shared by the circbuf packages
var (
	// Ring buffer requests
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrOutOfRange       = errors.New("position out of range")

	// Server lifecycle
	ErrAlreadyStarted = errors.New("already started")
	ErrAlreadyStopped = errors.New("already stopped")
	ErrUnavailable    = errors.New("resource unavailable")

	// Configuration documents
	ErrInvalidData    = errors.New("invalid data format")
	ErrParsingFailed  = errors.New("parsing failed")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")
)

// sentinelClasses classifies errors that reach Classify without a ClassifiedError
// in their chain. The first match wins.
var sentinelClasses = []struct {
	err   error
	class ErrorClass
}{
	{ErrUnavailable, ErrorTransient},
	{context.DeadlineExceeded, ErrorTransient},
	{context.Canceled, ErrorTransient},
	{ErrCapacityExceeded, ErrorInvalid},
	{ErrOutOfRange, ErrorInvalid},
	{ErrInvalidData, ErrorInvalid},
	{ErrParsingFailed, ErrorInvalid},
	{ErrInvalidConfig, ErrorInvalid},
	{ErrMissingConfig, ErrorInvalid},
	{ErrConfigNotFound, ErrorInvalid},
	{ErrAlreadyStarted, ErrorInvalid},
	{ErrAlreadyStopped, ErrorInvalid},
}

// ClassifiedError carries an explicit class together with the operation that failed
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify returns the class of err and whether one could be determined.
// The outermost ClassifiedError decides; otherwise the first known sentinel
// in the chain does. nil and unrecognised errors report false.
func Classify(err error) (ErrorClass, bool) {
	if err == nil {
		return 0, false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}

	for _, sc := range sentinelClasses {
		if errors.Is(err, sc.err) {
			return sc.class, true
		}
	}
	return 0, false
}

// IsTransient reports whether err may succeed when attempted again
func IsTransient(err error) bool {
	return hasClass(err, ErrorTransient)
}

// IsInvalid reports whether err was caused by the request itself
func IsInvalid(err error) bool {
	return hasClass(err, ErrorInvalid)
}

// IsFatal reports whether err was explicitly classified as fatal.
// Unrecognised errors are not fatal; callers decide how to treat them.
func IsFatal(err error) bool {
	return hasClass(err, ErrorFatal)
}

func hasClass(err error, class ErrorClass) bool {
	got, ok := Classify(err)
	return ok && got == class
}

// Wrap adds context in the form "component.method: action failed: %w"
// without changing the classification of err.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps err with context and classifies it as transient
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps err with context and classifies it as invalid
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps err with context and classifies it as fatal
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}
