package client

import "errors"

// ValidationError is shown inline and is fully recoverable. State
// preconditions (submitting while paused, empty answer) surface through the
// same type: the attempt never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds an inline-displayable validation failure.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrNoTeam means the player has no valid team membership. It is not a
// fault: the caller must navigate away from the game view.
var ErrNoTeam = errors.New("player has no team")

// ErrSessionClosed is returned when an operation races session teardown.
var ErrSessionClosed = errors.New("session closed")
