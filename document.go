package hdf5import

import (
	"fmt"

	"github.com/scigolib/hdf5import/series"
)

// Document receives the imported datasets.
type Document interface {
	// SetData stores ds under name, replacing any dataset of that name.
	// link is non-nil when the import was linked to its file.
	SetData(name string, ds series.Dataset, link *LinkedFile) error
}

// MemoryDocument is a Document held in memory. Names are kept in the order
// they were first set.
type MemoryDocument struct {
	names []string
	data  map[string]series.Dataset
	links map[string]*LinkedFile
}

// NewMemoryDocument returns an empty document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		data:  make(map[string]series.Dataset),
		links: make(map[string]*LinkedFile),
	}
}

// SetData implements Document.
func (d *MemoryDocument) SetData(name string, ds series.Dataset, link *LinkedFile) error {
	if ds == nil {
		return fmt.Errorf("dataset %q: nil data", name)
	}
	if _, ok := d.data[name]; !ok {
		d.names = append(d.names, name)
	}
	d.data[name] = ds
	if link != nil {
		d.links[name] = link
	} else {
		delete(d.links, name)
	}
	return nil
}

// Names returns the dataset names.
func (d *MemoryDocument) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Data returns the dataset stored under name.
func (d *MemoryDocument) Data(name string) (series.Dataset, bool) {
	ds, ok := d.data[name]
	return ds, ok
}

// Link returns the linked file of name, or nil.
func (d *MemoryDocument) Link(name string) *LinkedFile {
	return d.links[name]
}

// Len returns the number of datasets.
func (d *MemoryDocument) Len() int { return len(d.names) }
