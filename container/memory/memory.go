// Package memory provides an in-memory container tree.
// It backs tests and lets callers import data they already hold in memory.
package memory

import (
	"fmt"

	"github.com/scigolib/hdf5import/container"
)

// File is an in-memory container.
type File struct {
	root   *Group
	Closed int // number of Close calls
}

// NewFile returns an empty container with a root group.
func NewFile() *File {
	return &File{root: newGroup("/")}
}

// Root implements container.File.
func (f *File) Root() container.Group {
	return f.root
}

// Tree returns the root group for building the tree.
func (f *File) Tree() *Group {
	return f.root
}

// Close implements container.File.
func (f *File) Close() error {
	f.Closed++
	return nil
}

// Group is an in-memory group. Keys are reported in insertion order.
type Group struct {
	path     string
	attrs    *container.Attrs
	keys     []string
	children map[string]container.Node
}

func newGroup(path string) *Group {
	return &Group{
		path:     path,
		attrs:    container.NewAttrs(),
		children: make(map[string]container.Node),
	}
}

// Path implements container.Node.
func (g *Group) Path() string { return g.path }

// Attributes implements container.Node.
func (g *Group) Attributes() container.AttributeMap { return g.attrs }

// SetAttr sets a group attribute.
func (g *Group) SetAttr(key string, value any) *Group {
	g.attrs.Set(key, value)
	return g
}

// Keys implements container.Group.
func (g *Group) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Child implements container.Group.
func (g *Group) Child(key string) (container.Node, error) {
	n, ok := g.children[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", container.JoinPath(g.path, key), container.ErrNotFound)
	}
	return n, nil
}

// Group creates (or returns) a child group.
func (g *Group) Group(name string) *Group {
	if n, ok := g.children[name].(*Group); ok {
		return n
	}
	child := newGroup(container.JoinPath(g.path, name))
	g.add(name, child)
	return child
}

// Dataset adds a dataset holding a.
func (g *Group) Dataset(name string, a *container.Array) *Dataset {
	ds := &Dataset{path: container.JoinPath(g.path, name), attrs: container.NewAttrs(), data: a}
	g.add(name, ds)
	return ds
}

// Floats adds a floating point dataset.
func (g *Group) Floats(name string, shape []int, data []float64) *Dataset {
	return g.Dataset(name, container.NewFloat(shape, data))
}

// Strings adds a one-dimensional text dataset.
func (g *Group) Strings(name string, data []string) *Dataset {
	return g.Dataset(name, container.NewText([]int{len(data)}, data))
}

// Compound adds a compound dataset whose columns are given in declaration order.
// Every column array must share the same shape.
func (g *Group) Compound(name string, columns []string, data map[string]*container.Array) *Dataset {
	var shape []int
	if len(columns) > 0 {
		shape = data[columns[0]].Shape
	}
	ds := &Dataset{
		path:    container.JoinPath(g.path, name),
		attrs:   container.NewAttrs(),
		data:    &container.Array{Kind: container.KindCompound, Shape: shape},
		columns: columns,
		fields:  data,
	}
	g.add(name, ds)
	return ds
}

// Detach removes the node behind key while leaving the key listed, as happens
// when a file is modified between enumeration and lookup.
func (g *Group) Detach(key string) {
	delete(g.children, key)
}

func (g *Group) add(name string, n container.Node) {
	if _, ok := g.children[name]; !ok {
		g.keys = append(g.keys, name)
	}
	g.children[name] = n
}

// Dataset is an in-memory dataset.
type Dataset struct {
	path    string
	attrs   *container.Attrs
	data    *container.Array
	columns []string
	fields  map[string]*container.Array

	// ReadErr, when set, is returned by Read and ReadSlice.
	ReadErr error
	// Reads and SliceReads count materializing and hyperslab reads.
	Reads      int
	SliceReads int
}

// Path implements container.Node.
func (d *Dataset) Path() string { return d.path }

// Attributes implements container.Node.
func (d *Dataset) Attributes() container.AttributeMap { return d.attrs }

// SetAttr sets a dataset attribute.
func (d *Dataset) SetAttr(key string, value any) *Dataset {
	d.attrs.Set(key, value)
	return d
}

// Kind implements container.Dataset.
func (d *Dataset) Kind() container.Kind { return d.data.Kind }

// Shape implements container.Dataset.
func (d *Dataset) Shape() []int { return d.data.Shape }

// Columns implements container.Dataset.
func (d *Dataset) Columns() []string { return d.columns }

// Column implements container.Dataset.
func (d *Dataset) Column(name string) (container.Dataset, error) {
	a, ok := d.fields[name]
	if !ok {
		return nil, fmt.Errorf("%s: column %q: %w", d.path, name, container.ErrNotFound)
	}
	return &Dataset{path: d.path + "/" + name, attrs: container.NewAttrs(), data: a}, nil
}

// Read implements container.Dataset.
func (d *Dataset) Read() (*container.Array, error) {
	d.Reads++
	if d.ReadErr != nil {
		return nil, d.ReadErr
	}
	if d.data.Kind == container.KindCompound {
		return nil, fmt.Errorf("%s: compound dataset must be read by column", d.path)
	}
	return clone(d.data), nil
}

// ReadSlice implements container.SliceReader for numeric datasets.
func (d *Dataset) ReadSlice(start, count, stride []int) (*container.Array, error) {
	d.SliceReads++
	if d.ReadErr != nil {
		return nil, d.ReadErr
	}
	shape := d.data.Shape
	if len(start) != len(shape) || len(count) != len(shape) || len(stride) != len(shape) {
		return nil, fmt.Errorf("%s: selection rank %d != dataset rank %d", d.path, len(start), len(shape))
	}
	for i := range shape {
		if count[i] > 0 && start[i]+(count[i]-1)*stride[i] >= shape[i] {
			return nil, fmt.Errorf("%s: selection out of bounds in dimension %d", d.path, i)
		}
	}

	out := &container.Array{Kind: d.data.Kind, Shape: append([]int(nil), count...)}
	out.Float = make([]float64, 0, container.Size(count))
	idx := make([]int, len(count))
	total := container.Size(count)
	for n := 0; n < total; n++ {
		off := 0
		for i := range idx {
			off = off*shape[i] + start[i] + idx[i]*stride[i]
		}
		out.Float = append(out.Float, d.data.Float[off])
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < count[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out, nil
}

func clone(a *container.Array) *container.Array {
	out := &container.Array{Kind: a.Kind, Shape: append([]int(nil), a.Shape...)}
	if a.Float != nil {
		out.Float = append([]float64(nil), a.Float...)
	}
	if a.Text != nil {
		out.Text = append([]string(nil), a.Text...)
	}
	return out
}

// Backend returns a container backend serving the given files by name.
func Backend(files map[string]*File) container.Backend {
	return container.Backend{
		Name: "memory",
		Match: func(filename string, _ []byte) bool {
			_, ok := files[filename]
			return ok
		},
		Open: func(filename string) (container.File, error) {
			f, ok := files[filename]
			if !ok {
				return nil, fmt.Errorf("%s: %w", filename, container.ErrNotFound)
			}
			return f, nil
		},
	}
}
