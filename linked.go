package hdf5import

import (
	"io"
	"maps"
	"slices"
)

// LinkedFile ties imported datasets to the file and parameters they came
// from, so the import can be repeated when the file changes.
// Every dataset emitted by one linked import shares the same LinkedFile.
type LinkedFile struct {
	Filename string
	Params   Params
}

// newLinkedFile copies the item list and per-dataset maps of p.
func newLinkedFile(p Params) *LinkedFile {
	p.Items = slices.Clone(p.Items)
	p.NameMap = maps.Clone(p.NameMap)
	p.Slices = maps.Clone(p.Slices)
	p.Ranges = maps.Clone(p.Ranges)
	p.GridAsSeries = maps.Clone(p.GridAsSeries)
	p.DateTime = maps.Clone(p.DateTime)
	return &LinkedFile{Filename: p.Filename, Params: p}
}

// Reload repeats the import into doc and returns the emitted names.
// A nil importer uses the default HDF5 and NetCDF backends.
func (l *LinkedFile) Reload(imp *Importer, doc Document) ([]string, error) {
	if imp == nil {
		imp = NewImporter()
	}
	return imp.Import(doc, l.Params)
}

// Save writes the parameters of the link as TOML.
func (l *LinkedFile) Save(w io.Writer) error {
	return EncodeParams(w, l.Params, FormatTOML)
}

// LoadLinkedFile reads a link written by Save.
func LoadLinkedFile(r io.Reader) (*LinkedFile, error) {
	p, err := DecodeParams(r, FormatTOML)
	if err != nil {
		return nil, err
	}
	return newLinkedFile(p), nil
}
