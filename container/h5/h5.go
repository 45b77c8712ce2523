// Package h5 adapts github.com/scigolib/hdf5 to the container interfaces.
package h5

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/internal/attrs"
	"github.com/scigolib/hdf5import/internal/utils"
)

// Magic is the HDF5 format signature.
const Magic = "\x89HDF\r\n\x1a\n"

// Backend returns the HDF5 container backend.
func Backend() container.Backend {
	return container.Backend{
		Name: "hdf5",
		Match: func(filename string, header []byte) bool {
			if len(header) > 0 {
				return bytes.HasPrefix(header, []byte(Magic))
			}
			switch strings.ToLower(path.Ext(filename)) {
			case ".h5", ".hdf5", ".hdf", ".he5":
				return true
			}
			return false
		},
		Open: func(filename string) (container.File, error) {
			return Open(filename)
		},
	}
}

// File is an open HDF5 file.
type File struct {
	f    *hdf5.File
	root *Group
}

// Open opens an HDF5 file for reading.
func Open(filename string) (*File, error) {
	f, err := hdf5.Open(filename)
	if err != nil {
		return nil, utils.WrapError("open "+filename, err)
	}
	return &File{f: f, root: &Group{g: f.Root(), path: "/"}}, nil
}

// Root implements container.File.
func (f *File) Root() container.Group { return f.root }

// Close implements container.File.
func (f *File) Close() error { return f.f.Close() }

// Group wraps an HDF5 group.
type Group struct {
	g     *hdf5.Group
	path  string
	attrs *container.Attrs
}

func (g *Group) Path() string { return g.path }

func (g *Group) Attributes() container.AttributeMap {
	if g.attrs == nil {
		list, err := g.g.Attributes()
		g.attrs = container.NewAttrs()
		if err == nil {
			for _, a := range list {
				if v, err := a.ReadValue(); err == nil {
					g.attrs.Set(a.Name, v)
				}
			}
		}
	}
	return g.attrs
}

// Keys returns child names in storage order.
func (g *Group) Keys() []string {
	children := g.g.Children()
	keys := make([]string, 0, len(children))
	for _, c := range children {
		keys = append(keys, path.Base(c.Name()))
	}
	return keys
}

// Child implements container.Group.
func (g *Group) Child(key string) (container.Node, error) {
	p := container.JoinPath(g.path, key)
	for _, c := range g.g.Children() {
		if path.Base(c.Name()) != key {
			continue
		}
		switch obj := c.(type) {
		case *hdf5.Group:
			return &Group{g: obj, path: p}, nil
		case *hdf5.Dataset:
			return newDataset(obj, p)
		default:
			return nil, fmt.Errorf("%s: unsupported object %T", p, c)
		}
	}
	return nil, fmt.Errorf("%s: %w", p, container.ErrNotFound)
}

// Dataset wraps an HDF5 dataset. Its class and shape come from the dataset
// header summary.
type Dataset struct {
	d     *hdf5.Dataset
	path  string
	kind  container.Kind
	shape []int
	attrs *container.Attrs

	rows    []map[string]interface{}
	columns []string
}

func newDataset(d *hdf5.Dataset, p string) (*Dataset, error) {
	info, err := d.Info()
	if err != nil {
		return nil, utils.WrapError(p, err)
	}
	class, dims, err := parseInfo(info)
	if err != nil {
		return nil, utils.WrapError(p, err)
	}
	shape, err := utils.Shape(dims)
	if err != nil {
		return nil, utils.WrapError(p, err)
	}
	return &Dataset{d: d, path: p, kind: kindOf(class), shape: shape}, nil
}

func (d *Dataset) Path() string         { return d.path }
func (d *Dataset) Kind() container.Kind { return d.kind }
func (d *Dataset) Shape() []int         { return d.shape }

func (d *Dataset) Attributes() container.AttributeMap {
	if d.attrs == nil {
		list, err := d.d.Attributes()
		d.attrs = container.NewAttrs()
		if err == nil {
			for _, a := range list {
				if v, err := a.ReadValue(); err == nil {
					d.attrs.Set(a.Name, v)
				}
			}
		}
	}
	return d.attrs
}

// Read implements container.Dataset.
func (d *Dataset) Read() (*container.Array, error) {
	switch {
	case d.kind.IsNumeric():
		v, err := d.d.Read()
		if err != nil {
			return nil, utils.WrapError(d.path, err)
		}
		return &container.Array{Kind: d.kind, Shape: d.shape, Float: v}, nil
	case d.kind.IsText():
		v, err := d.d.ReadStrings()
		if err != nil {
			return nil, utils.WrapError(d.path, err)
		}
		return &container.Array{Kind: d.kind, Shape: d.shape, Text: v}, nil
	case d.kind == container.KindCompound:
		return nil, fmt.Errorf("%s: compound dataset must be read by column", d.path)
	}
	return &container.Array{Kind: container.KindOther, Shape: d.shape}, nil
}

// ReadSlice implements container.SliceReader with a hyperslab read.
func (d *Dataset) ReadSlice(start, count, stride []int) (*container.Array, error) {
	sel := &hdf5.HyperslabSelection{}
	var err error
	if sel.Start, err = utils.Uint64s(start); err != nil {
		return nil, utils.WrapError(d.path, err)
	}
	if sel.Count, err = utils.Uint64s(count); err != nil {
		return nil, utils.WrapError(d.path, err)
	}
	if sel.Stride, err = utils.Uint64s(stride); err != nil {
		return nil, utils.WrapError(d.path, err)
	}
	raw, err := d.d.ReadHyperslab(sel)
	if err != nil {
		return nil, utils.WrapError(d.path+": hyperslab", err)
	}
	values, ok := attrs.Floats(raw)
	if !ok {
		return nil, fmt.Errorf("%s: hyperslab returned %T", d.path, raw)
	}
	if len(values) != container.Size(count) {
		return nil, fmt.Errorf("%s: hyperslab returned %d values, want %d", d.path, len(values), container.Size(count))
	}
	return &container.Array{Kind: d.kind, Shape: append([]int(nil), count...), Float: values}, nil
}

// Columns lists compound members sorted by name. This is not the order in
// which the members are declared in the file, since the reader returns each
// row as a map.
func (d *Dataset) Columns() []string {
	if d.kind != container.KindCompound {
		return nil
	}
	if err := d.loadRows(); err != nil {
		return nil
	}
	return d.columns
}

func (d *Dataset) loadRows() error {
	if d.rows != nil {
		return nil
	}
	rows, err := d.d.ReadCompound()
	if err != nil {
		return utils.WrapError(d.path, err)
	}
	d.rows = make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		d.rows[i] = r
	}
	d.columns = columnNames(d.rows)
	return nil
}

// columnNames returns the member names found in any row, sorted.
func columnNames(rows []map[string]interface{}) []string {
	var names []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Column implements container.Dataset.
func (d *Dataset) Column(name string) (container.Dataset, error) {
	if d.kind != container.KindCompound {
		return nil, fmt.Errorf("%s: not a compound dataset", d.path)
	}
	if err := d.loadRows(); err != nil {
		return nil, err
	}
	a, err := columnArray(d.rows, name, d.shape)
	if err != nil {
		return nil, utils.WrapError(d.path+"/"+name, err)
	}
	return &column{path: d.path + "/" + name, data: a}, nil
}
