package slicespec

import (
	"errors"
	"fmt"

	"github.com/scigolib/hdf5import/container"
)

// axis is the resolved selection along one source dimension.
type axis struct {
	index []int // source indexes, in output order
	keep  bool  // false for single-index fields, which drop the dimension
}

// selection resolves s against shape. It fails on a rank mismatch, an
// out-of-range index or a zero step.
func selection(shape []int, s Spec) ([]axis, error) {
	if len(s) != len(shape) {
		return nil, fmt.Errorf("%d fields for %d dimensions", len(s), len(shape))
	}

	axes := make([]axis, len(s))
	for d, f := range s {
		n := shape[d]
		if f.IsIndex() {
			i := *f.Index
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return nil, fmt.Errorf("index %d out of range for dimension %d of size %d", *f.Index, d, n)
			}
			axes[d] = axis{index: []int{i}}
			continue
		}

		start, stop, step, err := bounds(f, n)
		if err != nil {
			return nil, err
		}
		var idx []int
		if step > 0 {
			for i := start; i < stop; i += step {
				idx = append(idx, i)
			}
		} else {
			for i := start; i > stop; i += step {
				idx = append(idx, i)
			}
		}
		axes[d] = axis{index: idx, keep: true}
	}
	return axes, nil
}

// bounds normalizes a range field against a dimension of length n the way
// Python's slice.indices does.
func bounds(f Field, n int) (start, stop, step int, err error) {
	step = 1
	if f.Step != nil {
		step = *f.Step
	}
	if step == 0 {
		return 0, 0, 0, errors.New("slice step cannot be zero")
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(p *int, def int) int {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}

	if step > 0 {
		return clamp(f.Start, lower), clamp(f.Stop, upper), step, nil
	}
	return clamp(f.Start, upper), clamp(f.Stop, lower), step, nil
}

// Apply selects s from a. Single-index fields remove their dimension.
//
// A nil spec returns a unchanged. Any failure to apply the selection (rank
// mismatch, index out of range, zero step) yields container.Empty() instead
// of an error, so one bad slice does not abort an import.
func Apply(a *container.Array, s Spec) *container.Array {
	if s == nil {
		return a
	}
	axes, err := selection(a.Shape, s)
	if err != nil {
		return container.Empty()
	}
	return gather(a, axes)
}

// gather copies the selected elements of a into a new array.
func gather(a *container.Array, axes []axis) *container.Array {
	out := &container.Array{Kind: a.Kind, Shape: outputShape(axes)}
	total := 1
	for _, ax := range axes {
		total *= len(ax.index)
	}

	text := a.Kind.IsText()
	if text {
		out.Text = make([]string, 0, total)
	} else {
		out.Float = make([]float64, 0, total)
	}
	if total == 0 {
		return out
	}

	strides := make([]int, len(a.Shape))
	stride := 1
	for d := len(a.Shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= a.Shape[d]
	}

	pos := make([]int, len(axes))
	for n := 0; n < total; n++ {
		off := 0
		for d, ax := range axes {
			off += ax.index[pos[d]] * strides[d]
		}
		if text {
			out.Text = append(out.Text, a.Text[off])
		} else {
			out.Float = append(out.Float, a.Float[off])
		}
		for d := len(pos) - 1; d >= 0; d-- {
			pos[d]++
			if pos[d] < len(axes[d].index) {
				break
			}
			pos[d] = 0
		}
	}
	return out
}

func outputShape(axes []axis) []int {
	shape := []int{}
	for _, ax := range axes {
		if ax.keep {
			shape = append(shape, len(ax.index))
		}
	}
	return shape
}

// Read materializes ds with s applied.
//
// Selections without a negative step are pushed down to datasets that
// implement container.SliceReader; if that read fails the full array is
// materialized instead. Reverse selections always work on a full in-memory
// copy, since backing stores need not support reverse-order views.
func Read(ds container.Dataset, s Spec) (*container.Array, error) {
	if s == nil {
		return ds.Read()
	}

	if sr, ok := ds.(container.SliceReader); ok && ds.Kind().IsNumeric() && !s.HasNegativeStep() {
		axes, err := selection(ds.Shape(), s)
		if err != nil {
			return container.Empty(), nil
		}
		if a, ok := readHyperslab(sr, ds.Kind(), axes); ok {
			return a, nil
		}
	}

	a, err := ds.Read()
	if err != nil {
		return nil, err
	}
	return Apply(a, s), nil
}

// readHyperslab reads a forward selection through sr. It reports false when
// the backend could not serve it.
func readHyperslab(sr container.SliceReader, kind container.Kind, axes []axis) (*container.Array, bool) {
	start := make([]int, len(axes))
	count := make([]int, len(axes))
	stride := make([]int, len(axes))
	for d, ax := range axes {
		count[d] = len(ax.index)
		stride[d] = 1
		if count[d] == 0 {
			return &container.Array{Kind: kind, Shape: outputShape(axes), Float: []float64{}}, true
		}
		start[d] = ax.index[0]
		if count[d] > 1 {
			stride[d] = ax.index[1] - ax.index[0]
		}
	}

	a, err := sr.ReadSlice(start, count, stride)
	if err != nil || len(a.Float) != container.Size(count) {
		return nil, false
	}
	a.Shape = outputShape(axes)
	return a, true
}
