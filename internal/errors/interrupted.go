package errors

import (
	"context"
	"errors"
	"fmt"
)

// InterruptedError represents a cooperative cancellation observed
// mid-stage. Every stage checks for cancellation before each unit of
// work and propagates this outcome upward; no stage swallows it, and no
// record is left half-merged when it occurs.
type InterruptedError struct {
	Stage string
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("%s interrupted", e.Stage)
}

// NewInterruptedError creates an InterruptedError for the named stage.
func NewInterruptedError(stage string) *InterruptedError {
	return &InterruptedError{Stage: stage}
}

// IsInterruptedError reports whether err is an InterruptedError (even when wrapped).
func IsInterruptedError(err error) bool {
	var intErr *InterruptedError
	return errors.As(err, &intErr)
}

// Interrupted polls ctx and returns an InterruptedError for the named
// stage if cancellation has been requested, nil otherwise. Stages call
// this at every iteration boundary.
func Interrupted(ctx context.Context, stage string) error {
	if ctx.Err() != nil {
		return NewInterruptedError(stage)
	}
	return nil
}
