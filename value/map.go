package value

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/npillmayer/clove"
)

// Map is a map literal. Entries keep their insertion order; keys are
// arbitrary values, compared structurally. Internally entries are keyed by
// the structural hash, so uncomparable Go types (slices, maps) work as keys.
type Map struct {
	entries *linkedhashmap.Map // hash string -> MapEntry
	meta    *Map
	pos     clove.Pos
}

// MapEntry is one key/value pair of a map.
type MapEntry struct {
	Key Value
	Val Value
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: linkedhashmap.New()}
}

// MapOf builds a map from alternating keys and values.
func MapOf(kvs ...Value) *Map {
	if len(kvs)%2 != 0 {
		panic("MapOf requires an even number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(kvs); i += 2 {
		m.Assoc(kvs[i], kvs[i+1])
	}
	return m
}

func (m *Map) Kind() Kind { return MapKind }

// Assoc inserts or replaces the entry for key. Insertion order of first
// occurrence is preserved on replacement.
func (m *Map) Assoc(key, val Value) *Map {
	m.entries.Put(Hash(key), MapEntry{Key: key, Val: val})
	return m
}

// Get looks up key. The second return is false when key is absent.
func (m *Map) Get(key Value) (Value, bool) {
	if m == nil {
		return nil, false
	}
	e, ok := m.entries.Get(Hash(key))
	if !ok {
		return nil, false
	}
	return e.(MapEntry).Val, true
}

// Has is a presence predicate for key.
func (m *Map) Has(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Count returns the number of entries.
func (m *Map) Count() int {
	if m == nil {
		return 0
	}
	return m.entries.Size()
}

// Each walks the entries in insertion order.
func (m *Map) Each(f func(e MapEntry)) {
	if m == nil {
		return
	}
	m.entries.Each(func(_ interface{}, v interface{}) {
		f(v.(MapEntry))
	})
}

// Entries collects the entries in insertion order.
func (m *Map) Entries() []MapEntry {
	var es []MapEntry
	m.Each(func(e MapEntry) {
		es = append(es, e)
	})
	return es
}

// Merge copies the entries of other into m, other's entries winning.
func (m *Map) Merge(other *Map) *Map {
	other.Each(func(e MapEntry) {
		m.Assoc(e.Key, e.Val)
	})
	return m
}

// Copy returns a fresh map with the same entries.
func (m *Map) Copy() *Map {
	dup := NewMap()
	dup.Merge(m)
	return dup
}

func (m *Map) Meta() *Map { return m.meta }

func (m *Map) WithMeta(meta *Map) Value {
	dup := *m
	dup.meta = meta
	return &dup
}

func (m *Map) Pos() clove.Pos { return m.pos }

// At stamps the map with a source position and returns it.
func (m *Map) At(pos clove.Pos) *Map {
	m.pos = pos
	return m
}

// --- Sets -------------------------------------------------------------------

// Set is a set literal #{...}. Elements keep insertion order and are
// deduplicated by structural hash.
type Set struct {
	elems *linkedhashmap.Map // hash string -> Value
	meta  *Map
	pos   clove.Pos
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{elems: linkedhashmap.New()}
}

// SetOf builds a set from values.
func SetOf(vals ...Value) *Set {
	s := NewSet()
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func (s *Set) Kind() Kind { return SetKind }

// Add inserts v. Returns false if v was already present.
func (s *Set) Add(v Value) bool {
	h := Hash(v)
	if _, ok := s.elems.Get(h); ok {
		return false
	}
	s.elems.Put(h, v)
	return true
}

// Has is a presence predicate.
func (s *Set) Has(v Value) bool {
	if s == nil {
		return false
	}
	_, ok := s.elems.Get(Hash(v))
	return ok
}

// Count returns the number of elements.
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return s.elems.Size()
}

// Each walks the elements in insertion order.
func (s *Set) Each(f func(v Value)) {
	if s == nil {
		return
	}
	s.elems.Each(func(_ interface{}, v interface{}) {
		f(v.(Value))
	})
}

// Elems collects the elements in insertion order.
func (s *Set) Elems() []Value {
	var vs []Value
	s.Each(func(v Value) {
		vs = append(vs, v)
	})
	return vs
}

func (s *Set) Meta() *Map { return s.meta }

func (s *Set) WithMeta(meta *Map) Value {
	dup := *s
	dup.meta = meta
	return &dup
}

func (s *Set) Pos() clove.Pos { return s.pos }

// At stamps the set with a source position and returns it.
func (s *Set) At(pos clove.Pos) *Set {
	s.pos = pos
	return s
}
