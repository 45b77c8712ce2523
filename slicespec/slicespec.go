// Package slicespec implements the textual slice language used to select a
// part of a dataset on import, e.g. "0:10:2, :, 3".
//
// Each comma separated field selects along one dimension. A single integer
// picks one index and removes the dimension; "start:stop" or
// "start:stop:step" keep the dimension with Python range semantics, any part
// of which may be left empty.
package slicespec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid matches every *SyntaxError.
var ErrInvalid = errors.New("invalid slice")

// SyntaxError reports slice text that cannot be parsed.
type SyntaxError struct {
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid slice %q: %s", e.Text, e.Reason)
}

// Is lets errors.Is(err, ErrInvalid) match.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrInvalid
}

// Field selects along one dimension: either a single index or a range.
type Field struct {
	Index *int // set for a single index

	Start *int
	Stop  *int
	Step  *int
}

// At returns a field selecting index i.
func At(i int) Field {
	return Field{Index: &i}
}

// Range returns a range field. Nil parts are absent.
func Range(start, stop, step *int) Field {
	return Field{Start: start, Stop: stop, Step: step}
}

// Whole returns the field selecting an entire dimension (":").
func Whole() Field {
	return Field{}
}

// Int returns a pointer to i, for building range fields.
func Int(i int) *int {
	return &i
}

// IsIndex reports whether the field is a single index.
func (f Field) IsIndex() bool {
	return f.Index != nil
}

// IsWhole reports whether the field selects the entire dimension.
func (f Field) IsWhole() bool {
	return f.Index == nil && f.Start == nil && f.Stop == nil && f.Step == nil
}

// String formats the field. A trailing absent step is dropped.
func (f Field) String() string {
	if f.Index != nil {
		return strconv.Itoa(*f.Index)
	}
	parts := []string{formatPart(f.Start), formatPart(f.Stop)}
	if f.Step != nil {
		parts = append(parts, formatPart(f.Step))
	}
	return strings.Join(parts, ":")
}

func formatPart(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// Spec is a per-dimension selection. A nil Spec means no slicing.
type Spec []Field

// String formats the spec in the textual slice language.
// Parse(s.String(), len(s)) reproduces s.
func (s Spec) String() string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.String()
	}
	return strings.Join(out, ", ")
}

// IsWhole reports whether every field selects its entire dimension.
func (s Spec) IsWhole() bool {
	for _, f := range s {
		if !f.IsWhole() {
			return false
		}
	}
	return true
}

// HasNegativeStep reports whether any range walks backwards.
func (s Spec) HasNegativeStep() bool {
	for _, f := range s {
		if f.Step != nil && *f.Step < 0 {
			return true
		}
	}
	return false
}

// Parse converts slice text for an array of ndims dimensions.
//
// Blank text yields a nil Spec. So does text whose every field is ":",
// even though the field count matched. Text with a field count different
// from ndims, or with a malformed field, yields a *SyntaxError.
//
// Example:
//
//	s, _ := slicespec.Parse("0:1:3,:,::-1", 3)
//	// s == Spec{Range(0,1,3), Whole(), Range(nil,nil,-1)}
func Parse(text string, ndims int) (Spec, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	fields := strings.Split(text, ",")
	if len(fields) != ndims {
		return nil, &SyntaxError{
			Text:   text,
			Reason: fmt.Sprintf("%d fields for %d dimensions", len(fields), ndims),
		}
	}

	spec := make(Spec, 0, len(fields))
	for _, field := range fields {
		f, err := parseField(field)
		if err != nil {
			return nil, &SyntaxError{Text: text, Reason: err.Error()}
		}
		spec = append(spec, f)
	}

	if spec.IsWhole() {
		return nil, nil
	}
	return spec, nil
}

// ParseFields parses slice text taking the dimensionality from the number of
// fields. It is used for caller supplied text, which is checked against the
// dataset only when applied.
func ParseFields(text string) (Spec, error) {
	return Parse(text, strings.Count(text, ",")+1)
}

func parseField(text string) (Field, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")

	switch len(parts) {
	case 1:
		i, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Field{}, fmt.Errorf("index %q is not an integer", strings.TrimSpace(parts[0]))
		}
		return At(i), nil
	case 2, 3:
	default:
		return Field{}, fmt.Errorf("field %q has %d parts", strings.TrimSpace(text), len(parts))
	}

	vals := make([]*int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return Field{}, fmt.Errorf("bound %q is not an integer", p)
		}
		vals[i] = &v
	}
	return Range(vals[0], vals[1], vals[2]), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseFields.
func (s *Spec) UnmarshalText(text []byte) error {
	spec, err := ParseFields(string(text))
	if err != nil {
		return err
	}
	*s = spec
	return nil
}
