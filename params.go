package hdf5import

import (
	"github.com/scigolib/hdf5import/internal/attrs"
	"github.com/scigolib/hdf5import/slicespec"
)

// Params is the complete parameter set of one import.
//
// Every per-dataset map is keyed by the absolute container path of the
// dataset; columns of a compound dataset are addressed as "<dataset>/<column>".
// An entry in one of these maps takes precedence over the directive embedded
// in the file.
type Params struct {
	// Filename is the container to read, resolved through the Importer's Resolver.
	Filename string
	// Items are the container paths to import. "/" imports everything.
	Items []string

	// NameMap renames datasets.
	NameMap map[string]string
	// Slices selects part of a dataset. A nil Spec disables slicing.
	Slices map[string]slicespec.Spec
	// Ranges sets the extent of 2D grids as [minx, miny, maxx, maxy].
	Ranges map[string][4]float64
	// GridAsSeries imports 2D datasets with 2 or 3 columns as a series with
	// error bars.
	GridAsSeries map[string]bool
	// DateTime converts to date/time values. The value is a mode ("unix",
	// "native") for numeric data and a date format for text data.
	DateTime map[string]string

	// Prefix and Suffix are added to every output name.
	Prefix string
	Suffix string
	// Linked attaches a LinkedFile to every emitted dataset.
	Linked bool

	// AttributePrefix is the storage prefix of embedded directives.
	// Empty means attrs.DefaultPrefix.
	AttributePrefix string
}

// Option configures Params.
// This follows the functional options pattern.
//
// Example:
//
//	names, err := hdf5import.Import(doc, "scan.h5", []string{"/"},
//	    hdf5import.WithPrefix("run1_"),
//	    hdf5import.WithSliceText(map[string]string{"/image": "::2, ::2"}),
//	)
type Option func(*Params) error

// NewParams builds Params for filename and items.
func NewParams(filename string, items []string, opts ...Option) (Params, error) {
	p := Params{Filename: filename, Items: items}
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}

func (p *Params) attributePrefix() string {
	if p.AttributePrefix == "" {
		return attrs.DefaultPrefix
	}
	return p.AttributePrefix
}

// WithNameMap renames datasets by container path.
func WithNameMap(names map[string]string) Option {
	return func(p *Params) error {
		p.NameMap = merge(p.NameMap, names)
		return nil
	}
}

// WithSlices sets slices by container path.
func WithSlices(slices map[string]slicespec.Spec) Option {
	return func(p *Params) error {
		p.Slices = merge(p.Slices, slices)
		return nil
	}
}

// WithSliceText sets slices written in the slice language. Text that does
// not parse fails with a *SliceSyntaxError.
func WithSliceText(slices map[string]string) Option {
	return func(p *Params) error {
		parsed, err := parseSlices(slices)
		if err != nil {
			return err
		}
		p.Slices = merge(p.Slices, parsed)
		return nil
	}
}

// WithRanges sets 2D grid extents as [minx, miny, maxx, maxy].
func WithRanges(ranges map[string][4]float64) Option {
	return func(p *Params) error {
		p.Ranges = merge(p.Ranges, ranges)
		return nil
	}
}

// WithGridAsSeries imports the listed 2D datasets as series with error bars.
func WithGridAsSeries(paths ...string) Option {
	return func(p *Params) error {
		if p.GridAsSeries == nil {
			p.GridAsSeries = make(map[string]bool, len(paths))
		}
		for _, path := range paths {
			p.GridAsSeries[path] = true
		}
		return nil
	}
}

// WithDateTime sets date/time conversion modes or formats by container path.
func WithDateTime(modes map[string]string) Option {
	return func(p *Params) error {
		p.DateTime = merge(p.DateTime, modes)
		return nil
	}
}

// WithPrefix sets the output name prefix.
func WithPrefix(prefix string) Option {
	return func(p *Params) error {
		p.Prefix = prefix
		return nil
	}
}

// WithSuffix sets the output name suffix.
func WithSuffix(suffix string) Option {
	return func(p *Params) error {
		p.Suffix = suffix
		return nil
	}
}

// WithLinked links emitted datasets to the file so they can be reloaded.
func WithLinked(linked bool) Option {
	return func(p *Params) error {
		p.Linked = linked
		return nil
	}
}

// WithAttributePrefix changes the storage prefix of embedded directives.
func WithAttributePrefix(prefix string) Option {
	return func(p *Params) error {
		p.AttributePrefix = prefix
		return nil
	}
}

func parseSlices(text map[string]string) (map[string]slicespec.Spec, error) {
	out := make(map[string]slicespec.Spec, len(text))
	for path, s := range text {
		spec, err := slicespec.ParseFields(s)
		if err != nil {
			return nil, &SliceSyntaxError{Path: path, Err: err}
		}
		out[path] = spec
	}
	return out, nil
}

func merge[V any](dst, src map[string]V) map[string]V {
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
