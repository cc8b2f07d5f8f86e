package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// InvalidStateError marks operations rejected because of the target's
// lifecycle state (closing a closed obligation, skipping a reconciled month,
// versioning into an already-closed month). Never causes partial mutation.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

func NewInvalidState(reason string) error {
	return &InvalidStateError{Reason: reason}
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// ValidationError marks rejected input (missing required amounts,
// non-positive amounts, malformed periods).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
