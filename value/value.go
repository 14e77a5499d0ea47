package value

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"math/big"

	"github.com/npillmayer/clove"
)

// Kind discriminates the value types of the reader tree.
type Kind int

const (
	NoKind Kind = iota
	NilKind
	BoolKind
	IntKind
	BigIntKind
	RatioKind
	FloatKind
	BigDecKind
	CharKind
	StringKind
	RegexKind
	KeywordKind
	SymbolKind
	ListKind
	VectorKind
	MapKind
	SetKind
	TaggedKind
	CondKind
	HostKind
)

var kindNames = []string{"none", "nil", "bool", "int", "bigint", "ratio",
	"float", "bigdec", "char", "string", "regex", "keyword", "symbol",
	"list", "vector", "map", "set", "tagged", "reader-cond", "host"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind[%d]", int(k))
	}
	return kindNames[k]
}

// Value is the interface common to every node of the reader tree.
type Value interface {
	Kind() Kind
	String() string // canonical printed form, see print.go
}

// MetaCarrier is implemented by symbols and compound values, which may carry
// a metadata map. Atoms are not meta carriers.
type MetaCarrier interface {
	Value
	Meta() *Map
	WithMeta(*Map) Value
}

// Positioned is implemented by values the reader stamps with a source
// position: symbols and compound values.
type Positioned interface {
	Pos() clove.Pos
}

// --- Atoms ------------------------------------------------------------------

// Nil is the nil value.
type Nil struct{}

// Bool is a boolean atom.
type Bool bool

// Int is a fixed-precision integer atom.
type Int int64

// BigInt is an arbitrary-precision integer atom (literal suffix 'N').
type BigInt struct {
	Val *big.Int
}

// Ratio is a rational atom, e.g. 2/3.
type Ratio struct {
	Val *big.Rat
}

// Float is a double-precision float atom.
type Float float64

// BigDec is an arbitrary-precision decimal atom (literal suffix 'M').
// The original literal text is kept for canonical printing.
type BigDec struct {
	Val *big.Float
	Lit string
}

// Char is a character atom.
type Char rune

// String is a string atom.
type String string

// Regex is a regular expression literal. The pattern is kept as source text;
// compilation is the runtime library's business.
type Regex string

// Keyword is a (possibly namespaced) keyword atom. Keywords are comparable
// Go values; equality is structural over NS and Name.
type Keyword struct {
	NS   string
	Name string
}

func (Nil) Kind() Kind     { return NilKind }
func (Bool) Kind() Kind    { return BoolKind }
func (Int) Kind() Kind     { return IntKind }
func (BigInt) Kind() Kind  { return BigIntKind }
func (Ratio) Kind() Kind   { return RatioKind }
func (Float) Kind() Kind   { return FloatKind }
func (BigDec) Kind() Kind  { return BigDecKind }
func (Char) Kind() Kind    { return CharKind }
func (String) Kind() Kind  { return StringKind }
func (Regex) Kind() Kind   { return RegexKind }
func (Keyword) Kind() Kind { return KeywordKind }

// --- Symbols ----------------------------------------------------------------

// Symbol is a (possibly namespaced) symbol. Symbols carry metadata and a
// source position; equality is structural over NS and Name only.
type Symbol struct {
	NS   string
	Name string
	meta *Map
	pos  clove.Pos
}

// Sym creates an unqualified symbol.
func Sym(name string) *Symbol {
	return &Symbol{Name: name}
}

// SymQ creates a qualified symbol.
func SymQ(ns, name string) *Symbol {
	return &Symbol{NS: ns, Name: name}
}

// ParseSym splits a lexeme at the first '/' into namespace and name.
// The lexeme "/" itself names the division function and stays unqualified.
func ParseSym(lexeme string) *Symbol {
	if lexeme == "/" {
		return Sym("/")
	}
	for i := 0; i < len(lexeme); i++ {
		if lexeme[i] == '/' {
			return SymQ(lexeme[:i], lexeme[i+1:])
		}
	}
	return Sym(lexeme)
}

func (s *Symbol) Kind() Kind { return SymbolKind }

// FullName returns ns/name, or just the name for unqualified symbols.
func (s *Symbol) FullName() string {
	if s.NS == "" {
		return s.Name
	}
	return s.NS + "/" + s.Name
}

// IsQualified is true for symbols written with a namespace part.
func (s *Symbol) IsQualified() bool {
	return s.NS != ""
}

// Meta is part of the MetaCarrier interface.
func (s *Symbol) Meta() *Map { return s.meta }

// WithMeta returns a copy of the symbol carrying m.
func (s *Symbol) WithMeta(m *Map) Value {
	dup := *s
	dup.meta = m
	return &dup
}

// Pos returns the symbol's source position.
func (s *Symbol) Pos() clove.Pos { return s.pos }

// At stamps the symbol with a source position and returns it.
func (s *Symbol) At(pos clove.Pos) *Symbol {
	s.pos = pos
	return s
}

// SameSym compares two symbols structurally.
func SameSym(a, b *Symbol) bool {
	return a != nil && b != nil && a.NS == b.NS && a.Name == b.Name
}

// --- Tagged literals and reader conditionals --------------------------------

// Tagged is a tagged literal #tag form, left unresolved when no data reader
// is installed for the tag.
type Tagged struct {
	Tag  *Symbol
	Form Value
	meta *Map
	pos  clove.Pos
}

func (t *Tagged) Kind() Kind { return TaggedKind }
func (t *Tagged) Meta() *Map { return t.meta }
func (t *Tagged) WithMeta(m *Map) Value {
	dup := *t
	dup.meta = m
	return &dup
}
func (t *Tagged) Pos() clove.Pos { return t.pos }

// NewTagged creates a tagged literal value.
func NewTagged(tag *Symbol, form Value, pos clove.Pos) *Tagged {
	return &Tagged{Tag: tag, Form: form, pos: pos}
}

// Cond is a reader-conditional placeholder #?(...) or #?@(...), kept
// unresolved when reading with conditionals in preserve mode.
type Cond struct {
	Splicing bool
	Forms    *List
	pos      clove.Pos
}

func (c *Cond) Kind() Kind     { return CondKind }
func (c *Cond) Pos() clove.Pos { return c.pos }

// NewCond creates a reader-conditional placeholder.
func NewCond(splicing bool, forms *List, pos clove.Pos) *Cond {
	return &Cond{Splicing: splicing, Forms: forms, pos: pos}
}

// Host wraps an opaque host-VM value — a closure, a port, a pid. Host
// values compare by identity.
type Host struct {
	Name string
	Data interface{}
}

func (h *Host) Kind() Kind { return HostKind }

func (h *Host) String() string {
	return fmt.Sprintf("#<%s %p>", h.Name, h)
}

// --- Convenience constructors ------------------------------------------------

// NilV is the nil value.
var NilV = Nil{}

// True and False are the boolean values.
var (
	True  = Bool(true)
	False = Bool(false)
)

// Kw creates an unqualified keyword.
func Kw(name string) Keyword {
	return Keyword{Name: name}
}

// KwQ creates a qualified keyword.
func KwQ(ns, name string) Keyword {
	return Keyword{NS: ns, Name: name}
}

// MkBigInt wraps a big.Int.
func MkBigInt(x *big.Int) BigInt { return BigInt{Val: x} }

// MkRatio wraps a big.Rat.
func MkRatio(x *big.Rat) Ratio { return Ratio{Val: x} }

// Truthy decides Clove truthiness: nil and false are falsey, everything
// else is truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case Nil:
		return false
	case Bool:
		return bool(x)
	}
	return true
}

// IsNil is a predicate for the nil value (and Go nil).
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Nil)
	return ok
}
