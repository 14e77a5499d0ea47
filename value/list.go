package value

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/clove"
)

// List is a cons cell. A chain of cells forms a list; a cell with Car == nil
// is the empty list. Lists may carry metadata and a source position on their
// head cell.
type List struct {
	Car  Value
	Cdr  *List
	meta *Map
	pos  clove.Pos
}

func (l *List) Kind() Kind { return ListKind }

// Cons prepends car to cdr.
func Cons(car Value, cdr *List) *List {
	if car == nil {
		panic("cons with nil car")
	}
	if cdr != nil && cdr.IsEmpty() {
		cdr = nil
	}
	return &List{Car: car, Cdr: cdr}
}

// ListOf builds a list from values, in order.
func ListOf(vals ...Value) *List {
	var head, tail *List
	for _, v := range vals {
		cell := &List{Car: v}
		if head == nil {
			head = cell
		} else {
			tail.Cdr = cell
		}
		tail = cell
	}
	if head == nil {
		return &List{} // ()
	}
	return head
}

// IsEmpty is true for the empty list.
func (l *List) IsEmpty() bool {
	return l == nil || l.Car == nil
}

// Length walks the list and counts its cells.
func (l *List) Length() int {
	n := 0
	for !l.IsEmpty() {
		n++
		l = l.Cdr
	}
	return n
}

// First returns the first element, or nil for the empty list.
func (l *List) First() Value {
	if l.IsEmpty() {
		return nil
	}
	return l.Car
}

// Rest returns the list without its first element. Rest of the empty list
// is the empty list.
func (l *List) Rest() *List {
	if l.IsEmpty() || l.Cdr == nil {
		return &List{}
	}
	return l.Cdr
}

// Nth returns element number n (0-based), or nil if the list is shorter.
func (l *List) Nth(n int) Value {
	for i := 0; !l.IsEmpty(); i++ {
		if i == n {
			return l.Car
		}
		l = l.Cdr
	}
	return nil
}

// Cadr is (first (rest l)).
func (l *List) Cadr() Value {
	return l.Rest().First()
}

// Caddr is (first (rest (rest l))).
func (l *List) Caddr() Value {
	return l.Rest().Rest().First()
}

// Cddr is (rest (rest l)).
func (l *List) Cddr() *List {
	return l.Rest().Rest()
}

// Append returns a fresh list with the elements of l followed by vals.
func (l *List) Append(vals ...Value) *List {
	elems := l.Slice()
	elems = append(elems, vals...)
	return ListOf(elems...)
}

// Concat returns a fresh list with the elements of l followed by those of m.
func (l *List) Concat(m *List) *List {
	return l.Append(m.Slice()...)
}

// Slice collects the list elements into a Go slice.
func (l *List) Slice() []Value {
	var elems []Value
	for !l.IsEmpty() {
		elems = append(elems, l.Car)
		l = l.Cdr
	}
	return elems
}

// ForEach walks the list, calling f on every element. Stops early if f
// returns false.
func (l *List) ForEach(f func(v Value) bool) {
	for !l.IsEmpty() {
		if !f(l.Car) {
			return
		}
		l = l.Cdr
	}
}

// Map applies f to every element, building a fresh list of the results.
func (l *List) Map(f func(v Value) Value) *List {
	elems := l.Slice()
	for i, e := range elems {
		elems[i] = f(e)
	}
	return ListOf(elems...)
}

// Meta is part of the MetaCarrier interface.
func (l *List) Meta() *Map {
	if l == nil {
		return nil
	}
	return l.meta
}

// WithMeta returns a copy of the head cell carrying m. The tail is shared.
func (l *List) WithMeta(m *Map) Value {
	if l == nil {
		return &List{meta: m}
	}
	dup := *l
	dup.meta = m
	return &dup
}

// Pos returns the position of the list's opening delimiter.
func (l *List) Pos() clove.Pos {
	if l == nil {
		return clove.Pos{}
	}
	return l.pos
}

// At stamps the list head with a source position and returns it.
func (l *List) At(pos clove.Pos) *List {
	if l == nil {
		return &List{pos: pos}
	}
	l.pos = pos
	return l
}

// --- Vectors ----------------------------------------------------------------

// Vector is an indexed collection literal.
type Vector struct {
	Items []Value
	meta  *Map
	pos   clove.Pos
}

// NewVector builds a vector from values.
func NewVector(vals ...Value) *Vector {
	return &Vector{Items: vals}
}

func (v *Vector) Kind() Kind { return VectorKind }

// Count returns the number of elements.
func (v *Vector) Count() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

// Nth returns element n, or nil when out of range.
func (v *Vector) Nth(n int) Value {
	if v == nil || n < 0 || n >= len(v.Items) {
		return nil
	}
	return v.Items[n]
}

func (v *Vector) Meta() *Map { return v.meta }

func (v *Vector) WithMeta(m *Map) Value {
	dup := *v
	dup.meta = m
	return &dup
}

func (v *Vector) Pos() clove.Pos { return v.pos }

// At stamps the vector with a source position and returns it.
func (v *Vector) At(pos clove.Pos) *Vector {
	v.pos = pos
	return v
}
