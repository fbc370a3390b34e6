package graph

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound indicates a node ID lookup found nothing.
var ErrNodeNotFound = errors.New("node not found")

// ValidationError rejects a whole upsert batch. The prior state for the
// file is retained; nothing is partially written.
type ValidationError struct {
	FilePath string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid batch for %s: %s", e.FilePath, e.Reason)
}

func newValidationError(filePath, format string, args ...interface{}) *ValidationError {
	return &ValidationError{FilePath: filePath, Reason: fmt.Sprintf(format, args...)}
}
