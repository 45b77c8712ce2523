package hdf5import

import (
	"errors"
	"fmt"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/internal/datefmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrNoBackend reports that no container backend can open the file.
	ErrNoBackend = container.ErrNoBackend
	// ErrItemNotFound reports a requested item path missing from the file.
	ErrItemNotFound = errors.New("hdf5import: item not found")
)

// ConfigurationError reports an importer that cannot serve the request.
// It is returned before the container is traversed.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// SliceSyntaxError reports caller supplied slice text that does not parse.
// Err matches slicespec.ErrInvalid.
type SliceSyntaxError struct {
	Path string
	Err  error
}

func (e *SliceSyntaxError) Error() string {
	return fmt.Sprintf("slice for %s: %v", e.Path, e.Err)
}

// Unwrap returns the *slicespec.SyntaxError.
func (e *SliceSyntaxError) Unwrap() error { return e.Err }

// DateFormatError reports a date format that cannot be compiled.
// Nothing is written to the document when it occurs.
type DateFormatError struct {
	Format string
	Origin string
	Err    *datefmt.FormatError
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("%s: invalid date format %q: %s", e.Origin, e.Format, e.Err.Reason)
}

// Unwrap returns the *datefmt.FormatError.
func (e *DateFormatError) Unwrap() error { return e.Err }

// ItemError reports a requested item that could not be looked up.
type ItemError struct {
	Item string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.Item, e.Err)
}

// Unwrap returns the lookup error.
func (e *ItemError) Unwrap() error { return e.Err }

// Is matches ErrItemNotFound.
func (e *ItemError) Is(target error) bool { return target == ErrItemNotFound }
