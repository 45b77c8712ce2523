// Package container defines the capability the importer consumes from a
// hierarchical, self-describing data container: ordered key enumeration,
// attribute maps and n-dimensional reads.
//
// Concrete readers live in subpackages (h5, nc, memory). The importer never
// touches a file format directly; it only walks the interfaces below.
package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Group.Child and Lookup when a key does not
// resolve to a node.
var ErrNotFound = errors.New("container: node not found")

// AttributeMap is an ordered collection of metadata entries attached to a node.
type AttributeMap interface {
	// Keys returns the attribute names in storage order.
	Keys() []string
	// Get returns the decoded value of an attribute.
	Get(key string) (value any, ok bool)
}

// Node is any addressable object in the container.
type Node interface {
	// Path returns the absolute hierarchical path ("/a/b").
	Path() string
	// Attributes returns the node's metadata.
	Attributes() AttributeMap
}

// Group is a node holding named children.
type Group interface {
	Node
	// Keys returns the child names. Order is backend defined.
	Keys() []string
	// Child returns the named child or an error wrapping ErrNotFound.
	Child(key string) (Node, error)
}

// Dataset is a leaf node holding an array of values.
type Dataset interface {
	Node
	// Kind returns the element kind.
	Kind() Kind
	// Shape returns the dimension sizes. A scalar has an empty shape.
	Shape() []int
	// Columns returns the declared column names of a compound dataset in
	// declaration order, or nil for any other kind.
	Columns() []string
	// Column returns one column of a compound dataset as a dataset of its own.
	Column(name string) (Dataset, error)
	// Read materializes the full array.
	Read() (*Array, error)
}

// SliceReader is implemented by datasets that can read a positive-stride
// hyperslab without materializing the whole array. The returned array has
// one dimension per entry of count.
type SliceReader interface {
	ReadSlice(start, count, stride []int) (*Array, error)
}

// File is an open container.
type File interface {
	Root() Group
	Close() error
}

// Lookup descends from root following the slash separated path.
// Empty segments are ignored, so "/", "" and "//a/" are valid.
func Lookup(root Group, path string) (Node, error) {
	var node Node = root
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		g, ok := node.(Group)
		if !ok {
			return nil, fmt.Errorf("%s is not a group: %w", node.Path(), ErrNotFound)
		}
		child, err := g.Child(part)
		if err != nil {
			return nil, err
		}
		node = child
	}
	return node, nil
}

// JoinPath joins a parent path and a child key.
func JoinPath(parent, key string) string {
	if parent == "" || parent == "/" {
		return "/" + key
	}
	return parent + "/" + key
}
