package clove

import "fmt"

// --- Source positions -------------------------------------------------------

// Pos locates a point in a source unit. The reader stamps every compound
// value and every symbol with a Pos; analyzer and emitter carry it through
// to diagnostics.
type Pos struct {
	File   string
	Line   int // 1-based
	Col    int // 1-based
	Offset int // byte offset into the source unit
}

// String renders a position the way diagnostics expect it: file:line:col.
func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// IsValid is false for the zero Pos, which marks synthesized forms.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// --- Spans ------------------------------------------------------------------

// Span is a small type capturing a run of input. A span denotes a start
// position and the position just behind the end.
type Span [2]Pos

// From returns the start of a span.
func (s Span) From() Pos {
	return s[0]
}

// To returns the end of a span.
func (s Span) To() Pos {
	return s[1]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

// Extend widens the span to cover other.
func (s Span) Extend(other Span) Span {
	if other[0].Offset < s[0].Offset {
		s[0] = other[0]
	}
	if other[1].Offset > s[1].Offset {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0].Offset, s[1].Offset)
}

// --- A general purpose interface for tokens ---------------------------------

// TokType is a category type for a Token. The reader defines its own
// constants; classification of atom lexemes happens in package reader.
type TokType int

// Tokens represent input tokens as the low-level tokenizer produces them.
// The reader proper assembles them into values.
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}
