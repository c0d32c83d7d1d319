package uv

// Map is an insertion-ordered string-keyed map. Overwriting an existing
// key preserves its position; new keys are appended. This is the ordering
// contract §3.1 requires of every Map-producing operation.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewOrderedMap returns an empty Map ready to use.
func NewOrderedMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or overwrites key. Overwriting preserves the key's existing
// position in iteration order.
func (m *Map) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key if present, closing the gap in iteration order.
func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in insertion order. The returned slice must not
// be mutated by callers.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Clone returns a shallow copy: the key order and top-level values are
// copied, but nested Maps/Arrays are shared until mutated through Set.
func (m *Map) Clone() *Map {
	out := NewOrderedMap()
	if m == nil {
		return out
	}
	out.keys = append([]string(nil), m.keys...)
	out.values = make(map[string]Value, len(m.values))
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// MapFromPairs builds a Map preserving the given key order: the result
// order matches the argument list, not the source order. Keys for which
// get reports false are left out.
func MapFromPairs(keys []string, get func(string) (Value, bool)) *Map {
	out := NewOrderedMap()
	for _, k := range keys {
		if v, ok := get(k); ok {
			out.Set(k, v)
		}
	}
	return out
}
