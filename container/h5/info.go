package h5

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/scigolib/hdf5import/container"
	"github.com/scigolib/hdf5import/internal/attrs"
)

// Dataset header summaries look like
// "Dataset: float (size=8 bytes), 2D array [3 x 2], contiguous (...)".
var (
	classRE = regexp.MustCompile(`^Dataset: (\w+) \(size=\d+ bytes\)`)
	spaceRE = regexp.MustCompile(`(\d+)D array \[([0-9 x]*)\]`)
)

func parseInfo(info string) (class string, dims []uint64, err error) {
	m := classRE.FindStringSubmatch(info)
	if m == nil {
		return "", nil, fmt.Errorf("unrecognized dataset summary %q", info)
	}
	class = m[1]

	if strings.Contains(info, ", scalar") || strings.Contains(info, ", null") {
		return class, nil, nil
	}
	s := spaceRE.FindStringSubmatch(info)
	if s == nil {
		return "", nil, fmt.Errorf("unrecognized dataspace in %q", info)
	}
	rank, _ := strconv.Atoi(s[1])
	fields := strings.FieldsFunc(s[2], func(r rune) bool { return r == ' ' || r == 'x' })
	if len(fields) != rank {
		return "", nil, fmt.Errorf("dataspace rank %d does not match %q", rank, s[2])
	}
	dims = make([]uint64, rank)
	for i, f := range fields {
		if dims[i], err = strconv.ParseUint(f, 10, 64); err != nil {
			return "", nil, fmt.Errorf("dataspace dimension %q: %w", f, err)
		}
	}
	return class, dims, nil
}

// kindOf maps a datatype class name to a Kind. Variable-length types have
// no name in the summary and show up as "class_9".
func kindOf(class string) container.Kind {
	switch class {
	case "class_9":
		return container.KindVarString
	case "integer":
		return container.KindInt
	case "float":
		return container.KindFloat
	case "string":
		return container.KindString
	case "compound":
		return container.KindCompound
	}
	return container.KindOther
}

// column is one member of a compound dataset, already materialized.
type column struct {
	path string
	data *container.Array
}

func (c *column) Path() string                       { return c.path }
func (c *column) Attributes() container.AttributeMap { return container.NewAttrs() }
func (c *column) Kind() container.Kind               { return c.data.Kind }
func (c *column) Shape() []int                       { return c.data.Shape }
func (c *column) Columns() []string                  { return nil }
func (c *column) Column(string) (container.Dataset, error) {
	return nil, fmt.Errorf("%s: not a compound dataset", c.path)
}

func (c *column) Read() (*container.Array, error) {
	out := *c.data
	return &out, nil
}

// columnArray extracts one member from compound rows. Numeric members become
// float arrays and text members text arrays; anything else has KindOther.
func columnArray(rows []map[string]interface{}, name string, shape []int) (*container.Array, error) {
	if len(rows) == 0 {
		return container.Empty(), nil
	}
	if _, ok := rows[0][name]; !ok {
		return nil, fmt.Errorf("no member %q: %w", name, container.ErrNotFound)
	}
	if len(shape) == 0 {
		shape = []int{len(rows)}
	}

	if _, isText := rows[0][name].(string); isText {
		text := make([]string, len(rows))
		for i, r := range rows {
			s, ok := r[name].(string)
			if !ok {
				return &container.Array{Kind: container.KindOther, Shape: shape}, nil
			}
			text[i] = s
		}
		return &container.Array{Kind: container.KindString, Shape: shape, Text: text}, nil
	}

	values := make([]float64, len(rows))
	for i, r := range rows {
		f, ok := attrs.Floats(r[name])
		if !ok || len(f) != 1 {
			return &container.Array{Kind: container.KindOther, Shape: shape}, nil
		}
		values[i] = f[0]
	}
	return &container.Array{Kind: container.KindFloat, Shape: shape, Float: values}, nil
}
