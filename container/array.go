package container

import "fmt"

// Kind is the element kind of a dataset.
type Kind int

// Element kinds.
const (
	KindOther Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString    // fixed-length text
	KindVarString // variable-length text
	KindCompound
)

var kindNames = [...]string{
	KindOther:     "other",
	KindBool:      "bool",
	KindInt:       "int",
	KindUint:      "uint",
	KindFloat:     "float",
	KindString:    "string",
	KindVarString: "vlen-string",
	KindCompound:  "compound",
}

// String returns the kind name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsNumeric reports whether values of this kind are stored in Array.Float.
func (k Kind) IsNumeric() bool {
	return k == KindBool || k == KindInt || k == KindUint || k == KindFloat
}

// IsText reports whether values of this kind are stored in Array.Text.
func (k Kind) IsText() bool {
	return k == KindString || k == KindVarString
}

// Array is a materialized n-dimensional array in row-major order.
// Numeric kinds are held as float64 in Float; text kinds in Text.
type Array struct {
	Kind  Kind
	Shape []int
	Float []float64
	Text  []string
}

// NewFloat returns a floating point array.
func NewFloat(shape []int, data []float64) *Array {
	return &Array{Kind: KindFloat, Shape: shape, Float: data}
}

// NewText returns a fixed-length text array.
func NewText(shape []int, data []string) *Array {
	return &Array{Kind: KindString, Shape: shape, Text: data}
}

// Empty returns a one-dimensional floating point array with no elements.
func Empty() *Array {
	return &Array{Kind: KindFloat, Shape: []int{0}, Float: []float64{}}
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Size returns the number of elements implied by the shape.
func (a *Array) Size() int {
	return Size(a.Shape)
}

// Column returns column j of a rank-2 numeric array.
func (a *Array) Column(j int) []float64 {
	rows, cols := a.Shape[0], a.Shape[1]
	out := make([]float64, rows)
	for i := range out {
		out[i] = a.Float[i*cols+j]
	}
	return out
}

// Size returns the product of the dimension sizes (1 for a scalar).
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
