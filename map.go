package hive

import (
	"github.com/benbjohnson/immutable"
)

// Map is a persistent, insertion-ordered mapping from keyword names to
// values. Updates return a new Map and leave the receiver untouched.
type Map struct {
	keys    *immutable.List[string]
	entries *immutable.Map[string, *Value]
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{
		keys:    immutable.NewList[string](),
		entries: immutable.NewMap[string, *Value](nil),
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return m.entries.Len()
}

// Get returns the value stored under the keyword name k.
func (m *Map) Get(k string) (*Value, bool) {
	return m.entries.Get(k)
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, ok := m.entries.Get(k)
	return ok
}

// Set returns a map with k bound to v. An existing key keeps its position.
func (m *Map) Set(k string, v *Value) *Map {
	keys := m.keys
	if !m.Has(k) {
		keys = keys.Append(k)
	}
	return &Map{
		keys:    keys,
		entries: m.entries.Set(k, v),
	}
}

// Delete returns a map without k.
func (m *Map) Delete(k string) *Map {
	if !m.Has(k) {
		return m
	}
	b := immutable.NewListBuilder[string]()
	itr := m.keys.Iterator()
	for !itr.Done() {
		_, key := itr.Next()
		if key != k {
			b.Append(key)
		}
	}
	return &Map{
		keys:    b.List(),
		entries: m.entries.Delete(k),
	}
}

// Keys returns the keyword names in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.keys.Len())
	itr := m.keys.Iterator()
	for !itr.Done() {
		_, key := itr.Next()
		keys = append(keys, key)
	}
	return keys
}

// Merge returns a map with the entries of o added to or replacing those of
// m.
func (m *Map) Merge(o *Map) *Map {
	out := m
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		out = out.Set(k, v)
	}
	return out
}
