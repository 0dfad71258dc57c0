package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the conversation engine has to
// recover from. Handlers never let one of these propagate to the transport:
// each maps to a re-prompt or a reset with a user-visible message.
var (
	// ErrConflict marks uniqueness violations and unknown choice tokens.
	ErrConflict = errors.New("conflict")

	// ErrPersistence marks failed or timed-out backing store calls.
	ErrPersistence = errors.New("persistence failure")

	// ErrSessionLost marks scratch data missing for a transition.
	ErrSessionLost = errors.New("session context lost")
)

// ValidationError is returned by validators when input fails a field rule.
// Reason is forwarded verbatim to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError with the given reason text.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}
