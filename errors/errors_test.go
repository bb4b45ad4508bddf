package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "class(7)", ErrorClass(7).String())
}

func TestClassify_Sentinels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		class ErrorClass
	}{
		{"unavailable", ErrUnavailable, ErrorTransient},
		{"deadline", context.DeadlineExceeded, ErrorTransient},
		{"canceled", context.Canceled, ErrorTransient},
		{"capacity exceeded", ErrCapacityExceeded, ErrorInvalid},
		{"out of range", ErrOutOfRange, ErrorInvalid},
		{"parsing failed", ErrParsingFailed, ErrorInvalid},
		{"invalid config", ErrInvalidConfig, ErrorInvalid},
		{"config not found", ErrConfigNotFound, ErrorInvalid},
		{"already stopped", ErrAlreadyStopped, ErrorInvalid},
		{"wrapped sentinel", fmt.Errorf("reserve: %w", ErrCapacityExceeded), ErrorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, ok := Classify(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestClassify_Unknown(t *testing.T) {
	_, ok := Classify(nil)
	assert.False(t, ok)

	// Message text never decides the class
	_, ok = Classify(fmt.Errorf("connection timeout, server busy"))
	assert.False(t, ok)

	unknown := fmt.Errorf("disk on fire")
	assert.False(t, IsTransient(unknown))
	assert.False(t, IsInvalid(unknown))
	assert.False(t, IsFatal(unknown))
}

func TestClassify_OutermostClassificationWins(t *testing.T) {
	inner := WrapInvalid(ErrCapacityExceeded, "RingBuffer", "Reserve", "capacity check")
	outer := WrapFatal(inner, "Demo", "Run", "reserve scenario capacity")

	class, ok := Classify(outer)
	require.True(t, ok)
	assert.Equal(t, ErrorFatal, class)
	assert.True(t, IsFatal(outer))
	assert.False(t, IsInvalid(outer))

	// A classified error overrides the class its sentinel would imply
	assert.True(t, IsTransient(WrapTransient(ErrInvalidConfig, "Loader", "Load", "fetch layer")))
}

func TestWrap_PreservesClass(t *testing.T) {
	err := Wrap(WrapInvalid(ErrOutOfRange, "RingBuffer", "At", "checked access"), "Demo", "Print", "read newest")

	assert.Equal(t, "Demo.Print: read newest failed: RingBuffer.At: checked access failed: position out of range", err.Error())
	assert.True(t, IsInvalid(err))
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Nil(t, Wrap(nil, "c", "m", "a"))
}

func TestWrapClassified(t *testing.T) {
	base := fmt.Errorf("listener refused")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Server", "Start", "bind")

			var ce *ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "Server", ce.Component)
			assert.Equal(t, "Start", ce.Operation)
			assert.Equal(t, "Server.Start: bind failed: listener refused", err.Error())
			assert.ErrorIs(t, err, base)

			assert.Nil(t, tt.wrap(nil, "Server", "Start", "bind"))
		})
	}
}

func TestClassifiedError_MessageFallback(t *testing.T) {
	ce := &ClassifiedError{Class: ErrorInvalid, Err: ErrOutOfRange}
	assert.Equal(t, "position out of range", ce.Error())
	assert.ErrorIs(t, ce, ErrOutOfRange)
}

func TestSentinelsAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, sc := range sentinelClasses {
		msg := sc.err.Error()
		assert.False(t, seen[msg], "duplicate sentinel message %q", msg)
		seen[msg] = true
	}
}

func BenchmarkClassify(b *testing.B) {
	err := fmt.Errorf("reserve: %w", ErrCapacityExceeded)
	for i := 0; i < b.N; i++ {
		_, _ = Classify(err)
	}
}
