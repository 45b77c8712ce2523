// Package series defines the typed records produced by an import.
package series

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/scigolib/hdf5import/internal/datefmt"
)

// Dataset is implemented by every output variant.
type Dataset interface {
	// Len is the number of values (rows for Grid2D).
	Len() int
	// Describe returns a one-line human readable summary.
	Describe() string
}

// Epoch is the zero point of DateTime1D values.
var Epoch = datefmt.NativeEpoch

// Range is a closed coordinate interval.
type Range struct {
	Min, Max float64
}

// Plain1D is a numeric series with optional error bars.
// Error slices are nil when absent and otherwise as long as Data.
type Plain1D struct {
	Data []float64
	Serr []float64
	Nerr []float64
	Perr []float64
}

// NewPlain1D builds a series, truncating data and error bars to the shortest
// non-nil slice.
func NewPlain1D(data, serr, nerr, perr []float64) *Plain1D {
	n := len(data)
	for _, e := range [][]float64{serr, nerr, perr} {
		if e != nil && len(e) < n {
			n = len(e)
		}
	}
	trunc := func(v []float64) []float64 {
		if v == nil {
			return nil
		}
		return v[:n:n]
	}
	return &Plain1D{Data: trunc(data), Serr: trunc(serr), Nerr: trunc(nerr), Perr: trunc(perr)}
}

// Len returns the number of values.
func (p *Plain1D) Len() int { return len(p.Data) }

// Describe summarizes the size, range and error bars.
func (p *Plain1D) Describe() string {
	s := fmt.Sprintf("numeric, %d values", len(p.Data))
	if r, ok := finiteRange(p.Data); ok {
		s += fmt.Sprintf(", range [%g, %g]", r.Min, r.Max)
	}
	switch {
	case p.Serr != nil:
		s += ", symmetric errors"
	case p.Nerr != nil || p.Perr != nil:
		s += ", asymmetric errors"
	}
	return s
}

// DateTime1D holds seconds since datefmt.NativeEpoch. NaN marks a value that
// could not be interpreted.
type DateTime1D struct {
	Values []float64
}

// Len returns the number of values.
func (d *DateTime1D) Len() int { return len(d.Values) }

// Times converts the values to UTC times. NaN values become the zero Time.
func (d *DateTime1D) Times() []time.Time {
	out := make([]time.Time, len(d.Values))
	for i, v := range d.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sec, frac := math.Modf(v)
		out[i] = datefmt.NativeEpoch.Add(time.Duration(sec)*time.Second + time.Duration(frac*1e9))
	}
	return out
}

// Describe summarizes the size and time span.
func (d *DateTime1D) Describe() string {
	s := fmt.Sprintf("date/time, %d values", len(d.Values))
	if r, ok := finiteRange(d.Values); ok {
		lo := datefmt.NativeEpoch.Add(time.Duration(r.Min * float64(time.Second)))
		hi := datefmt.NativeEpoch.Add(time.Duration(r.Max * float64(time.Second)))
		s += fmt.Sprintf(", %s to %s", lo.Format(time.RFC3339), hi.Format(time.RFC3339))
	}
	return s
}

// Text1D is a series of strings.
type Text1D struct {
	Values []string
}

// Len returns the number of strings.
func (t *Text1D) Len() int { return len(t.Values) }

// Describe summarizes the size.
func (t *Text1D) Describe() string {
	return fmt.Sprintf("text, %d values", len(t.Values))
}

// Grid2D is a two dimensional numeric grid. Data is nil for an empty grid.
// Nil ranges mean the consumer picks pixel coordinates.
type Grid2D struct {
	Data   *mat.Dense
	XRange *Range
	YRange *Range
}

// NewGrid2D wraps row-major values of the given shape.
func NewGrid2D(rows, cols int, values []float64) *Grid2D {
	if rows == 0 || cols == 0 {
		return &Grid2D{}
	}
	return &Grid2D{Data: mat.NewDense(rows, cols, values)}
}

// Dims returns rows and columns.
func (g *Grid2D) Dims() (int, int) {
	if g.Data == nil {
		return 0, 0
	}
	return g.Data.Dims()
}

// Len returns the number of rows.
func (g *Grid2D) Len() int {
	r, _ := g.Dims()
	return r
}

// Describe summarizes the shape and coordinate ranges.
func (g *Grid2D) Describe() string {
	r, c := g.Dims()
	s := fmt.Sprintf("2D grid, %d x %d", r, c)
	if g.XRange != nil && g.YRange != nil {
		s += fmt.Sprintf(", x [%g, %g], y [%g, %g]", g.XRange.Min, g.XRange.Max, g.YRange.Min, g.YRange.Max)
	}
	return s
}

func finiteRange(v []float64) (Range, bool) {
	finite := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		return Range{}, false
	}
	return Range{Min: floats.Min(finite), Max: floats.Max(finite)}, true
}
