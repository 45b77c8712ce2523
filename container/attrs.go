package container

// Attrs is an insertion-ordered AttributeMap used by the backends.
type Attrs struct {
	keys   []string
	values map[string]any
}

// NewAttrs returns an empty attribute map.
func NewAttrs() *Attrs {
	return &Attrs{values: make(map[string]any)}
}

// Set stores an attribute, keeping the original position on replacement.
func (a *Attrs) Set(key string, value any) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Keys implements AttributeMap.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Get implements AttributeMap.
func (a *Attrs) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}
