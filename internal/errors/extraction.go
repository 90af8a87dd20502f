package errors

import (
	"errors"
	"fmt"
)

// ExtractionError represents a structural expectation violated by a
// fetched page or document (missing cover anchor, section-count
// mismatch, and so on). Fatal only to the current record: callers count
// it, log it, and move on.
type ExtractionError struct {
	ID     string
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("extraction failed for %s (%s): %s", e.ID, e.URL, e.Reason)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.ID, e.Reason)
}

// NewExtractionError creates an ExtractionError for the given record and source URL.
func NewExtractionError(id, url, reason string) *ExtractionError {
	return &ExtractionError{ID: id, URL: url, Reason: reason}
}

// IsExtractionError reports whether err is an ExtractionError (even when wrapped).
func IsExtractionError(err error) bool {
	var exErr *ExtractionError
	return errors.As(err, &exErr)
}
