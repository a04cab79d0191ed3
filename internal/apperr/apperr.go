// Package apperr defines the error taxonomy shared by the core, services and handlers.
// Callers wrap one of the sentinels with context and match with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an absent paper, session, question or user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks a transition attempted from the wrong state,
	// e.g. submitting an exam that already has an end time.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation marks malformed input such as an unparseable option payload.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a write that collides with an existing resource.
	ErrConflict = errors.New("conflict")

	// ErrForbidden marks an authenticated caller acting on a resource it does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal marks an unexpected failure that is not the caller's fault.
	ErrInternal = errors.New("internal error")
)

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidState wraps ErrInvalidState with a formatted message.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Forbidden wraps ErrForbidden with a formatted message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Internal wraps ErrInternal with a formatted message.
func Internal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Specific cases callers may want to tell apart. Each still matches its
// general sentinel with errors.Is.
var (
	ErrAlreadySubmitted = fmt.Errorf("%w: exam already submitted", ErrInvalidState)
	ErrNotSubmitted     = fmt.Errorf("%w: exam has not been submitted", ErrInvalidState)
	ErrNoQuestions      = fmt.Errorf("%w: no questions available to generate paper", ErrValidation)
)
