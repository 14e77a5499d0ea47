package value

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strconv"
	"strings"
)

// Printing of values in canonical (readable) form. The printer elides
// metadata; read(print(v)) equals v structurally for reader-canonical
// values.

var namedChars = map[rune]string{
	' ':    "space",
	'\t':   "tab",
	'\n':   "newline",
	'\r':   "return",
	'\f':   "formfeed",
	'\b':   "backspace",
	'\x00': "u0000",
}

// PrintString renders v in canonical reader syntax.
func PrintString(v Value) string {
	var sb strings.Builder
	printTo(&sb, v)
	return sb.String()
}

func printTo(sb *strings.Builder, v Value) {
	if v == nil {
		sb.WriteString("nil")
		return
	}
	switch x := v.(type) {
	case Nil:
		sb.WriteString("nil")
	case Bool:
		if x {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Int:
		sb.WriteString(strconv.FormatInt(int64(x), 10))
	case BigInt:
		sb.WriteString(x.Val.String())
		sb.WriteByte('N')
	case Ratio:
		sb.WriteString(x.Val.Num().String())
		sb.WriteByte('/')
		sb.WriteString(x.Val.Denom().String())
	case Float:
		s := strconv.FormatFloat(float64(x), 'g', -1, 64)
		sb.WriteString(s)
		if !strings.ContainsAny(s, ".eE") {
			sb.WriteString(".0")
		}
	case BigDec:
		if x.Lit != "" {
			sb.WriteString(x.Lit)
		} else {
			sb.WriteString(x.Val.Text('g', -1))
		}
		sb.WriteByte('M')
	case Char:
		printChar(sb, rune(x))
	case String:
		sb.WriteString(strconv.Quote(string(x)))
	case Regex:
		sb.WriteString(`#"`)
		sb.WriteString(string(x))
		sb.WriteByte('"')
	case Keyword:
		sb.WriteByte(':')
		if x.NS != "" {
			sb.WriteString(x.NS)
			sb.WriteByte('/')
		}
		sb.WriteString(x.Name)
	case *Symbol:
		sb.WriteString(x.FullName())
	case *List:
		sb.WriteByte('(')
		printSeq(sb, x.Slice())
		sb.WriteByte(')')
	case *Vector:
		sb.WriteByte('[')
		printSeq(sb, x.Items)
		sb.WriteByte(']')
	case *Map:
		sb.WriteByte('{')
		first := true
		x.Each(func(e MapEntry) {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			printTo(sb, e.Key)
			sb.WriteByte(' ')
			printTo(sb, e.Val)
		})
		sb.WriteByte('}')
	case *Set:
		sb.WriteString("#{")
		printSeq(sb, x.Elems())
		sb.WriteByte('}')
	case *Tagged:
		sb.WriteByte('#')
		sb.WriteString(x.Tag.FullName())
		sb.WriteByte(' ')
		printTo(sb, x.Form)
	case *Cond:
		sb.WriteString("#?")
		if x.Splicing {
			sb.WriteByte('@')
		}
		printTo(sb, x.Forms)
	case *Host:
		sb.WriteString(x.String())
	default:
		fmt.Fprintf(sb, "#<%s>", v.Kind())
	}
}

func printSeq(sb *strings.Builder, vals []Value) {
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		printTo(sb, v)
	}
}

func printChar(sb *strings.Builder, r rune) {
	sb.WriteByte('\\')
	if name, ok := namedChars[r]; ok {
		sb.WriteString(name)
		return
	}
	if r < 0x20 || r == 0x7f {
		fmt.Fprintf(sb, "u%04X", r)
		return
	}
	sb.WriteRune(r)
}

// String methods delegate to the canonical printer.

func (Nil) String() string       { return "nil" }
func (b Bool) String() string    { return PrintString(b) }
func (i Int) String() string     { return PrintString(i) }
func (b BigInt) String() string  { return PrintString(b) }
func (r Ratio) String() string   { return PrintString(r) }
func (f Float) String() string   { return PrintString(f) }
func (b BigDec) String() string  { return PrintString(b) }
func (c Char) String() string    { return PrintString(c) }
func (s String) String() string  { return PrintString(s) }
func (r Regex) String() string   { return PrintString(r) }
func (k Keyword) String() string { return PrintString(k) }
func (s *Symbol) String() string { return s.FullName() }
func (l *List) String() string   { return PrintString(l) }
func (v *Vector) String() string { return PrintString(v) }
func (m *Map) String() string    { return PrintString(m) }
func (s *Set) String() string    { return PrintString(s) }
func (t *Tagged) String() string { return PrintString(t) }
func (c *Cond) String() string   { return PrintString(c) }
