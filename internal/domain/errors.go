package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist or is owned by
// another user. The two cases are indistinguishable to callers.
var ErrNotFound = errors.New("not found")

// ValidationError reports user input that cannot be accepted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
