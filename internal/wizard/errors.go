package wizard

import "errors"

var (
	// ErrAvailability wraps every failed availability check.
	ErrAvailability = errors.New("availability check failed")

	// ErrStaleResponse is returned by Refresh when a newer request
	// superseded it and its result was discarded.
	ErrStaleResponse = errors.New("availability response superseded")

	ErrUnknownCar       = errors.New("unknown car")
	ErrCarNotSelectable = errors.New("car is not selectable")
	ErrWrongStep        = errors.New("action not allowed on the current step")
	ErrSubmitted        = errors.New("booking already submitted")
)

// ValidationError is a field-level input error that blocks step advancement.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
