// Package errors provides standardized error handling patterns for circbuf packages.
//
// # Overview
//
// Every error leaving a circbuf package belongs to one of three classes:
// Transient (may clear on its own), Invalid (the request can never succeed as
// issued) or Fatal (the environment failed). The class is read from the
// outermost ClassifiedError in the chain, or failing that from the first
// known sentinel. Message text is never inspected.
//
// # Error Classification
//
//   - Transient: ErrUnavailable, context cancellation or deadline
//   - Invalid: ErrCapacityExceeded, ErrOutOfRange, malformed or missing
//     configuration, server lifecycle misuse
//   - Fatal: only errors explicitly wrapped with WrapFatal
//
// Classify reports false for errors it does not recognise:
//
//	class, ok := errors.Classify(err)
//	if !ok {
//	    // unknown origin
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // For retryable errors
//	errors.WrapInvalid(err, "Component", "Method", "action")    // For validation errors
//	errors.WrapFatal(err, "Component", "Method", "action")      // For unrecoverable errors
//
// The generic Wrap() function adds context without setting a class:
//
//	errors.Wrap(err, "Component", "Method", "action")
//
// # Standard Error Variables
//
//   - Ring buffer: ErrCapacityExceeded, ErrOutOfRange
//   - Server lifecycle: ErrAlreadyStarted, ErrAlreadyStopped, ErrUnavailable
//   - Configuration: ErrInvalidData, ErrParsingFailed, ErrInvalidConfig,
//     ErrMissingConfig, ErrConfigNotFound
//
// Typed errors in other packages (for example ringbuf.CapacityError) match these
// variables through an Is method, so callers can test either the sentinel or the type:
//
//	if err := rb.Reserve(n); err != nil {
//	    if errors.Is(err, errors.ErrCapacityExceeded) {
//	        // requested capacity is larger than the buffer's maximum size
//	    }
//	    var capErr *ringbuf.CapacityError
//	    if errors.As(err, &capErr) {
//	        log.Printf("requested %d, max %d", capErr.Requested, capErr.Max)
//	    }
//	}
//
// # Thread Safety
//
// All classification and wrapping operations are safe for concurrent use. The
// ClassifiedError type is safe to share across goroutines after creation.
package errors
