// Package nc adapts NetCDF classic files, read with github.com/ctessum/cdf,
// to the container interfaces. A NetCDF file is a single root group whose
// children are the variables; global attributes belong to the root.
package nc

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/ctessum/cdf"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/internal/attrs"
	"github.com/scigolib/hdf5import/internal/utils"
)

// Format signatures of the classic and 64-bit offset variants.
const (
	MagicClassic = "CDF\x01"
	Magic64      = "CDF\x02"
)

// Backend returns the NetCDF container backend.
func Backend() container.Backend {
	return container.Backend{
		Name: "netcdf",
		Match: func(filename string, header []byte) bool {
			if len(header) > 0 {
				return bytes.HasPrefix(header, []byte(MagicClassic)) || bytes.HasPrefix(header, []byte(Magic64))
			}
			switch strings.ToLower(path.Ext(filename)) {
			case ".nc", ".cdf", ".ncf":
				return true
			}
			return false
		},
		Open: func(filename string) (container.File, error) {
			return Open(filename)
		},
	}
}

// File is an open NetCDF file.
type File struct {
	ff *os.File
	f  *cdf.File
}

// Open opens a NetCDF file for reading.
func Open(filename string) (*File, error) {
	ff, err := os.Open(filename)
	if err != nil {
		return nil, utils.WrapError("open "+filename, err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		_ = ff.Close()
		return nil, utils.WrapError("open "+filename, err)
	}
	return &File{ff: ff, f: f}, nil
}

// Root implements container.File.
func (f *File) Root() container.Group { return &root{f: f.f} }

// Close implements container.File.
func (f *File) Close() error { return f.ff.Close() }

func attributes(h *cdf.Header, v string) *container.Attrs {
	out := container.NewAttrs()
	for _, a := range h.Attributes(v) {
		out.Set(a, h.GetAttribute(v, a))
	}
	return out
}

type root struct {
	f *cdf.File
}

func (r *root) Path() string                       { return "/" }
func (r *root) Attributes() container.AttributeMap { return attributes(r.f.Header, "") }
func (r *root) Keys() []string                     { return r.f.Header.Variables() }

func (r *root) Child(key string) (container.Node, error) {
	for _, v := range r.f.Header.Variables() {
		if v == key {
			return newVariable(r.f, v)
		}
	}
	return nil, fmt.Errorf("/%s: %w", key, container.ErrNotFound)
}

// variable is one NetCDF variable. Character variables are text: their last
// dimension is the string length. Record variables report a zero length
// record dimension and read as empty.
type variable struct {
	f     *cdf.File
	name  string
	kind  container.Kind
	dims  []int
	shape []int
}

func newVariable(f *cdf.File, name string) (*variable, error) {
	lengths := f.Header.Lengths(name)
	dims := make([]uint64, len(lengths))
	for i, l := range lengths {
		if l < 0 {
			return nil, fmt.Errorf("/%s: negative dimension %d", name, l)
		}
		dims[i] = uint64(l)
	}
	if _, err := utils.Shape(dims); err != nil {
		return nil, utils.WrapError("/"+name, err)
	}

	v := &variable{f: f, name: name, dims: lengths, shape: lengths}
	switch f.Header.ZeroValue(name, 0).(type) {
	case []float64, []float32:
		v.kind = container.KindFloat
	case []int32, []int16:
		v.kind = container.KindInt
	case []uint8:
		v.kind = container.KindUint
	case string:
		v.kind = container.KindString
		if len(lengths) > 0 {
			v.shape = lengths[:len(lengths)-1]
		}
	default:
		v.kind = container.KindOther
	}
	return v, nil
}

func (v *variable) Path() string                       { return "/" + v.name }
func (v *variable) Attributes() container.AttributeMap { return attributes(v.f.Header, v.name) }
func (v *variable) Kind() container.Kind               { return v.kind }
func (v *variable) Shape() []int                       { return v.shape }
func (v *variable) Columns() []string                  { return nil }

func (v *variable) Column(string) (container.Dataset, error) {
	return nil, fmt.Errorf("%s: not a compound dataset", v.Path())
}

// Read implements container.Dataset.
func (v *variable) Read() (*container.Array, error) {
	if v.kind == container.KindOther {
		return &container.Array{Kind: v.kind, Shape: v.shape}, nil
	}
	n := container.Size(v.dims)
	r := v.f.Reader(v.name, nil, nil)
	buf := r.Zero(n)
	if n > 0 {
		if _, err := r.Read(buf); err != nil {
			return nil, utils.WrapError(v.Path(), err)
		}
	}

	if data, ok := buf.([]uint8); ok {
		if v.kind == container.KindString {
			return &container.Array{Kind: v.kind, Shape: v.shape, Text: splitChars(string(data), v.dims)}, nil
		}
		values := make([]float64, len(data))
		for i, b := range data {
			values[i] = float64(b)
		}
		return &container.Array{Kind: v.kind, Shape: v.shape, Float: values}, nil
	}
	values, ok := attrs.Floats(buf)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported data type %T", v.Path(), buf)
	}
	return &container.Array{Kind: v.kind, Shape: v.shape, Float: values}, nil
}

// splitChars cuts a character array into strings of the last dimension's
// length, dropping trailing NUL padding.
func splitChars(data string, dims []int) []string {
	if len(dims) == 0 {
		return []string{strings.TrimRight(data, "\x00")}
	}
	width := dims[len(dims)-1]
	if width == 0 {
		return make([]string, container.Size(dims[:len(dims)-1]))
	}
	out := make([]string, 0, len(data)/width)
	for i := 0; i+width <= len(data); i += width {
		out = append(out, strings.TrimRight(data[i:i+width], "\x00"))
	}
	return out
}
