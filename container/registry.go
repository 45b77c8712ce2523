package container

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoBackend is returned by Registry.Open when no registered backend
// accepts the file.
var ErrNoBackend = errors.New("container: no backend for file")

// headerSize is the number of leading bytes handed to Backend.Match.
const headerSize = 8

// Backend opens one container format.
type Backend struct {
	// Name identifies the format in logs and errors.
	Name string
	// Match reports whether the backend can open the file. header holds up to
	// the first 8 bytes of the file and is nil when the file could not be read.
	Match func(filename string, header []byte) bool
	// Open opens the file for reading.
	Open func(filename string) (File, error)
}

// Registry selects a backend for a file.
type Registry struct {
	backends []Backend
}

// NewRegistry returns a registry holding the given backends, consulted in order.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register appends a backend.
func (r *Registry) Register(b Backend) {
	r.backends = append(r.backends, b)
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.backends)
}

// Names returns the registered backend names.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for _, b := range r.backends {
		names = append(names, b.Name)
	}
	return names
}

// Detect returns the first backend whose Match accepts filename.
func (r *Registry) Detect(filename string) (Backend, bool) {
	if r == nil {
		return Backend{}, false
	}
	header := readHeader(filename)
	for _, b := range r.backends {
		if b.Match != nil && b.Match(filename, header) {
			return b, true
		}
	}
	return Backend{}, false
}

// Open opens filename with the first backend whose Match accepts it.
func (r *Registry) Open(filename string) (File, error) {
	b, ok := r.Detect(filename)
	if !ok {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoBackend)
	}
	f, err := b.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", b.Name, filename, err)
	}
	return f, nil
}

func readHeader(filename string) []byte {
	//nolint:gosec // G304: reading a user-selected data file is the purpose
	f, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return nil
	}
	return buf[:n]
}
