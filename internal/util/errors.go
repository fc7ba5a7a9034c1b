package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes
var (
	// ErrCorrupt indicates a catalogue or playlist file is structurally invalid
	ErrCorrupt = errors.New("corrupt file")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an input item is missing required fields
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a name or destination conflict
	ErrConflict = errors.New("conflict")

	// ErrNotInitialized indicates the library directory structure is missing
	ErrNotInitialized = errors.New("library not initialized")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IOError wraps a filesystem failure with the operation and path involved.
// Callers must assume the file named by Path may be partially written.
type IOError struct {
	Op   string // "read", "write", "sync", "rename", "remove", "mkdir"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}
