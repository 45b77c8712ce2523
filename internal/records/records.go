// Package records holds the raw datasets gathered during one import call.
package records

import "github.com/scigolib/hdf5import/container"

// Record is one dataset read from the container, before conversion.
type Record struct {
	// Origin is the absolute container path the data came from.
	Origin string
	// Data is the sliced and classified array.
	Data *container.Array
	// Options holds the node's embedded directives, prefix stripped.
	Options map[string]any
}

// IsSeries reports whether the record holds rank-1 numeric data.
func (r *Record) IsSeries() bool {
	return r.Data != nil && r.Data.Kind.IsNumeric() && r.Data.Rank() == 1
}

// Map is a name to record map that remembers insertion order.
// Replacing an existing name keeps its position.
type Map struct {
	names []string
	recs  map[string]*Record
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{recs: make(map[string]*Record)}
}

// Len returns the number of records.
func (m *Map) Len() int { return len(m.names) }

// Has reports whether name is present.
func (m *Map) Has(name string) bool {
	_, ok := m.recs[name]
	return ok
}

// Get returns the record stored under name.
func (m *Map) Get(name string) (*Record, bool) {
	r, ok := m.recs[name]
	return r, ok
}

// Set stores r under name.
func (m *Map) Set(name string, r *Record) {
	if _, ok := m.recs[name]; !ok {
		m.names = append(m.names, name)
	}
	m.recs[name] = r
}

// Delete removes name.
func (m *Map) Delete(name string) {
	if _, ok := m.recs[name]; !ok {
		return
	}
	delete(m.recs, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
}

// Names returns a snapshot of the names in insertion order.
func (m *Map) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
