// Package convert turns raw container arrays into typed output series.
package convert

import (
	"fmt"

	"github.com/scigolib/hdf5import/container"
)

// ClassificationError reports an array the importer cannot represent.
// It is local to one dataset: the walker skips the dataset and continues.
type ClassificationError struct {
	Kind   container.Kind
	Shape  []int
	Reason string
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%s (kind %s, shape %v)", e.Reason, e.Kind, e.Shape)
}

// Classify checks that a can be imported and normalizes it.
//
// Boolean, integer and floating point arrays of rank 1 or 2 become float64
// arrays. Text arrays must have rank 1. Everything else fails with a
// *ClassificationError.
func Classify(a *container.Array) (*container.Array, error) {
	switch {
	case a.Kind.IsNumeric():
		if a.Rank() == 0 || a.Rank() > 2 {
			return nil, &ClassificationError{Kind: a.Kind, Shape: a.Shape, Reason: "unsupported rank"}
		}
		if len(a.Float) != a.Size() {
			return nil, &ClassificationError{Kind: a.Kind, Shape: a.Shape, Reason: "data does not match shape"}
		}
		return &container.Array{Kind: container.KindFloat, Shape: a.Shape, Float: a.Float}, nil

	case a.Kind.IsText():
		if a.Rank() != 1 {
			return nil, &ClassificationError{Kind: a.Kind, Shape: a.Shape, Reason: "unsupported rank"}
		}
		return a, nil
	}
	return nil, &ClassificationError{Kind: a.Kind, Shape: a.Shape, Reason: "unsupported type"}
}
