// Package resolve implements the precedence shared by every per-dataset
// setting: a caller override wins over metadata embedded in the file, which
// wins over the structural default.
package resolve

// Find returns the override for key when the caller supplied one, else the
// embedded value when embedded reports one. embedded may be nil and is only
// called when no override exists.
func Find[V any](overrides map[string]V, key string, embedded func() (V, bool)) (V, bool) {
	if v, ok := overrides[key]; ok {
		return v, true
	}
	if embedded != nil {
		if v, ok := embedded(); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Value is Find with a fallback for when neither source has a value.
func Value[V any](overrides map[string]V, key string, embedded func() (V, bool), fallback V) V {
	if v, ok := Find(overrides, key, embedded); ok {
		return v
	}
	return fallback
}
