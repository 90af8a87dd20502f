package errors

import (
	"errors"
	"fmt"
)

// NotFoundError represents an identifier with no record behind it.
// Identifiers are not densely populated, so this is the expected,
// high-frequency outcome during harvesting and must be distinguishable
// from a transport failure.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record for id %s", e.ID)
}

// NewNotFoundError creates a NotFoundError for the given identifier.
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
