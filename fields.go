package bamlbridge

// Fields is an insertion-ordered string-keyed value map. It backs both Map
// and Class values; canonical rendering depends on the insertion order while
// equality does not.
type Fields struct {
	keys []string
	idx  map[string]int
	vals []Value
}

// NewFields returns an empty ordered field map.
func NewFields() *Fields {
	return &Fields{idx: make(map[string]int)}
}

// Set inserts or replaces a key. Insertion order is first-set order; replacing
// a key keeps its original position. Returns the receiver for chaining.
func (f *Fields) Set(key string, v Value) *Fields {
	if i, ok := f.idx[key]; ok {
		f.vals[i] = v
		return f
	}
	f.idx[key] = len(f.keys)
	f.keys = append(f.keys, key)
	f.vals = append(f.vals, v)
	return f
}

// Get looks up a key.
func (f *Fields) Get(key string) (Value, bool) {
	if f == nil {
		return nil, false
	}
	i, ok := f.idx[key]
	if !ok {
		return nil, false
	}
	return f.vals[i], true
}

// Has reports whether a key is present.
func (f *Fields) Has(key string) bool {
	if f == nil {
		return false
	}
	_, ok := f.idx[key]
	return ok
}

// Len returns the number of entries.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in insertion order. The slice is shared; callers must
// not mutate it.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return f.keys
}

// At returns the i-th entry in insertion order.
func (f *Fields) At(i int) (string, Value) {
	return f.keys[i], f.vals[i]
}

func (f *Fields) equalContent(other *Fields) bool {
	if f.Len() != other.Len() {
		return false
	}
	for i, k := range f.Keys() {
		ov, ok := other.Get(k)
		if !ok || !Equal(f.vals[i], ov) {
			return false
		}
	}
	return true
}
