// Package errorbars attaches error datasets to the series they belong to.
//
// A rank-1 numeric dataset named "foo (+-)" holds symmetric errors for "foo";
// "foo (+)" and "foo (-)" hold positive and negative errors.
package errorbars

import (
	"strings"

	"github.com/scigolib/hdf5import/internal/records"
)

// Name suffixes of error datasets.
const (
	SuffixPos = " (+)"
	SuffixNeg = " (-)"
	SuffixSym = " (+-)"
)

// Set holds the error arrays of one series. Absent arrays are nil.
type Set struct {
	Sym []float64
	Neg []float64
	Pos []float64
}

// Map maps a series name to its error arrays.
type Map map[string]*Set

// Get returns the errors of name, or an empty Set.
func (m Map) Get(name string) Set {
	if s, ok := m[name]; ok && s != nil {
		return *s
	}
	return Set{}
}

// Base splits an error dataset name into the series name and the suffix.
func Base(name string) (base, suffix string, ok bool) {
	for _, sfx := range []string{SuffixPos, SuffixNeg, SuffixSym} {
		if strings.HasSuffix(name, sfx) {
			return strings.TrimSpace(strings.TrimSuffix(name, sfx)), sfx, true
		}
	}
	return "", "", false
}

// Pair removes error datasets from m and returns them keyed by the series they
// belong to. Records are visited in insertion order; a suffixed record whose
// series is missing, or which is not a rank-1 numeric record, stays in m.
func Pair(m *records.Map) Map {
	out := make(Map)
	for _, name := range m.Names() {
		rec, _ := m.Get(name)
		if !rec.IsSeries() {
			continue
		}
		base, suffix, ok := Base(name)
		if !ok || !m.Has(base) {
			continue
		}
		set, ok := out[base]
		if !ok {
			set = &Set{}
			out[base] = set
		}
		switch suffix {
		case SuffixPos:
			set.Pos = rec.Data.Float
		case SuffixNeg:
			set.Neg = rec.Data.Float
		case SuffixSym:
			set.Sym = rec.Data.Float
		}
		m.Delete(name)
	}
	return out
}
