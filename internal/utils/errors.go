package utils

import "fmt"

// ContainerError is an error with the container object or operation it came from.
type ContainerError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *ContainerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// WrapError creates a contextual error. A nil cause yields nil.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &ContainerError{
		Context: context,
		Cause:   cause,
	}
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *ContainerError) Unwrap() error {
	return e.Cause
}
