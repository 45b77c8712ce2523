// Package attrs reads the import directives embedded in container metadata.
//
// Directives are attributes whose name starts with a storage prefix
// (DefaultPrefix unless configured otherwise). Their values come from files
// and are untrusted: every reader here reports whether the value could be
// interpreted instead of failing.
package attrs

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/scigolib/hdf5import/container"
)

// DefaultPrefix is the storage prefix of embedded import directives.
const DefaultPrefix = "vsz_"

// Directive names, without the storage prefix.
const (
	KeyName         = "name"
	KeySlice        = "slice"
	KeyRange        = "range"
	KeyGridAsSeries = "twod_as_oned"
	KeyDateTime     = "convert_datetime"
)

// FilterByColumn derives the attributes of one column of a compound dataset.
// It keeps prefixed keys ending in "_<column>" and strips that suffix, so
// "vsz_name_x" becomes "vsz_name" for column "x".
func FilterByColumn(attrs container.AttributeMap, column, prefix string) container.AttributeMap {
	out := container.NewAttrs()
	if attrs == nil {
		return out
	}
	suffix := "_" + strings.TrimSpace(column)
	for _, k := range attrs.Keys() {
		if !strings.HasPrefix(k, prefix) || !strings.HasSuffix(k, suffix) {
			continue
		}
		v, _ := attrs.Get(k)
		out.Set(strings.TrimSuffix(k, suffix), v)
	}
	return out
}

// Options collects the prefixed attributes with the prefix stripped.
func Options(attrs container.AttributeMap, prefix string) map[string]any {
	opts := make(map[string]any)
	if attrs == nil {
		return opts
	}
	for _, k := range attrs.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v, _ := attrs.Get(k)
		opts[strings.TrimPrefix(k, prefix)] = v
	}
	return opts
}

// Get returns the value of the prefixed directive key.
func Get(attrs container.AttributeMap, prefix, key string) (any, bool) {
	if attrs == nil {
		return nil, false
	}
	return attrs.Get(prefix + key)
}

// String interprets v as text. A one-element list of text is accepted.
func String(v any) (string, bool) {
	switch t := v.(type) {
	case []string:
		if len(t) != 1 {
			return "", false
		}
		return t[0], true
	case []any:
		if len(t) != 1 {
			return "", false
		}
		return String(t[0])
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Floats interprets v as a list of numbers. A single number is a list of one.
func Floats(v any) ([]float64, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
	out := make([]float64, rv.Len())
	for i := range out {
		f, ok := toFloat(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		f, err := cast.ToFloat64E(rv.String())
		return f, err == nil
	}
	return 0, false
}

// Range4 interprets v as [minx, miny, maxx, maxy].
func Range4(v any) ([4]float64, bool) {
	var r [4]float64
	f, ok := Floats(v)
	if !ok || len(f) != 4 {
		return r, false
	}
	copy(r[:], f)
	return r, true
}
