// Package apperr defines the error kinds surfaced by the narration pipeline.
//
// Kinds are sentinels wrapped with %w, so callers match them with errors.Is
// while the message still names the offending input.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports a malformed page expression or an unsupported input.
	ErrFormat = errors.New("format error")
	// ErrNotFound reports a missing input document or voice sample.
	ErrNotFound = errors.New("not found")
	// ErrRange reports a page index outside the document.
	ErrRange = errors.New("range error")
	// ErrIO reports an unreadable, unwritable or invalid audio artifact.
	ErrIO = errors.New("io error")
)

// Format wraps a formatted message with ErrFormat.
func Format(format string, args ...any) error {
	return wrap(ErrFormat, format, args...)
}

// NotFound wraps a formatted message with ErrNotFound.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Range wraps a formatted message with ErrRange.
func Range(format string, args ...any) error {
	return wrap(ErrRange, format, args...)
}

// IO wraps a formatted message with ErrIO.
func IO(format string, args ...any) error {
	return wrap(ErrIO, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", kind, fmt.Errorf(format, args...))
}
