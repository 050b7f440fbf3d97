package protocol

import "strings"

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// Headers is an ordered header list with case-insensitive lookup.
//
// A name is stored once; adding it again replaces the value but keeps the
// casing it was first added with. Iteration follows insertion order.
type Headers struct {
	list  []HttpHeader
	index map[string]int
}

// NewHeaders returns an empty header store.
func NewHeaders() *Headers {
	return &Headers{index: make(map[string]int)}
}

func foldKey(name string) string {
	return strings.ToLower(name)
}

// Get returns the value stored under name.
func (h *Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	i, ok := h.index[foldKey(name)]
	if !ok {
		return "", false
	}
	return h.list[i].Value, true
}

// Value is Get without the presence flag.
func (h *Headers) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Add stores value under name, overwriting any previous value.
func (h *Headers) Add(name, value string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	key := foldKey(name)
	if i, ok := h.index[key]; ok {
		h.list[i].Value = value
		return
	}
	h.index[key] = len(h.list)
	h.list = append(h.list, HttpHeader{Key: name, Value: value})
}

// Remove deletes name and returns the value it held.
func (h *Headers) Remove(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	key := foldKey(name)
	i, ok := h.index[key]
	if !ok {
		return "", false
	}
	removed := h.list[i].Value
	h.list = append(h.list[:i], h.list[i+1:]...)
	delete(h.index, key)
	// entries after i shifted down by one
	for k, j := range h.index {
		if j > i {
			h.index[k] = j - 1
		}
	}
	return removed, true
}

// Len returns the number of stored headers.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.list)
}

// List returns a copy of the headers in insertion order.
func (h *Headers) List() []HttpHeader {
	if h == nil {
		return nil
	}
	out := make([]HttpHeader, len(h.list))
	copy(out, h.list)
	return out
}

// Each calls fn for every header in insertion order.
func (h *Headers) Each(fn func(key, value string)) {
	if h == nil {
		return
	}
	for _, header := range h.list {
		fn(header.Key, header.Value)
	}
}
