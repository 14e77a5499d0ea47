package reader

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/value"
)

// CondMode governs how reader conditionals #?(...) are treated.
type CondMode int

const (
	CondDisallow CondMode = iota // conditionals are an error
	CondAllow                    // conditionals are resolved against Features
	CondPreserve                 // conditionals are kept as value.Cond placeholders
)

// DataReader converts the form following a tagged literal.
type DataReader func(form value.Value) (value.Value, error)

// Resolver supplies the namespace knowledge the reader needs for ::keywords
// and syntax-quote symbol resolution. Package runtime provides the real one;
// a nil Resolver falls back to a fixed "user" namespace with no aliases.
type Resolver interface {
	CurrentNS() string
	ResolveAlias(alias string) (ns string, ok bool)
	ResolveSymbol(sym *value.Symbol) *value.Symbol
}

// Opts configure a Reader.
type Opts struct {
	File           string
	Cond           CondMode
	Features       []value.Keyword // active feature keys, e.g. :clje
	NilPermissive  bool            // unmatched conditional reads as skipped instead of failing
	DataReaders    map[string]DataReader
	DefaultReaders map[string]DataReader // e.g. #inst, #uuid
	ReadEval       bool                  // enables #=(...) — off by default
	Eval           func(value.Value) (value.Value, error)
	Resolver       Resolver
	EOFError       bool // end of input is an error instead of the eof sentinel
}

// Reader reads one top-level value at a time from a character stream.
type Reader struct {
	src     *source
	opts    Opts
	pending []value.Value // queued by top-level splicing conditionals
	gensyms []map[string]*value.Symbol
	args    map[int]*value.Symbol // #() argument registry; nil outside #()
	argMax  int
	counter int // fresh-name counter for gensyms and #() params
}

// New creates a Reader over an input stream.
func New(r io.Reader, opts Opts) *Reader {
	return &Reader{
		src:  newSource(r, opts.File),
		opts: opts,
	}
}

// FromString creates a Reader over a source string.
func FromString(input string, opts Opts) *Reader {
	return New(strings.NewReader(input), opts)
}

// ReadOne returns the next top-level value. At end of input it returns
// (nil, io.EOF), or a reader error when the EOFError option is set.
func (rd *Reader) ReadOne() (value.Value, error) {
	if len(rd.pending) > 0 {
		v := rd.pending[0]
		rd.pending = rd.pending[1:]
		return v, nil
	}
	for {
		forms, err := rd.readForms()
		if err == io.EOF && rd.opts.EOFError {
			return nil, clove.ReadError(clove.NoSubkind, rd.src.pos(), "unexpected end of input")
		}
		if err != nil {
			return nil, err
		}
		if len(forms) == 0 { // splice produced nothing, keep reading
			continue
		}
		if len(forms) > 1 {
			rd.pending = append(rd.pending, forms[1:]...)
		}
		return forms[0], nil
	}
}

// ReadFold consumes the entire stream, folding every read value through f.
func ReadFold(f func(v value.Value, acc interface{}) (interface{}, error),
	src io.Reader, opts Opts, acc interface{}) (interface{}, error) {
	rd := New(src, opts)
	for {
		v, err := rd.ReadOne()
		if err == io.EOF {
			return acc, nil
		}
		if err != nil {
			return acc, err
		}
		if acc, err = f(v, acc); err != nil {
			return acc, err
		}
	}
}

// --- The reader loop --------------------------------------------------------

// readForm reads exactly one form; a splicing conditional in this position
// is an error.
func (rd *Reader) readForm() (value.Value, error) {
	forms, err := rd.readForms()
	if err != nil {
		return nil, err
	}
	for len(forms) == 0 {
		if forms, err = rd.readForms(); err != nil {
			return nil, err
		}
	}
	if len(forms) > 1 {
		return nil, clove.ReadError(clove.NoSubkind, value.PosOf(forms[0]),
			"splicing conditional not inside a sequence")
	}
	return forms[0], nil
}

// readForms reads the next form. It returns zero forms when a conditional
// matched nothing, and possibly several when a splicing conditional matched.
func (rd *Reader) readForms() ([]value.Value, error) {
	rd.skipBlank()
	pos := rd.src.pos()
	r := rd.src.next()
	switch r {
	case eofRune:
		if err := rd.src.ioError(); err != nil {
			return nil, clove.E(clove.IOFailure, pos, "read: %v", err).Wrap(err)
		}
		return nil, io.EOF
	case '(':
		l, err := rd.readSeq(')', pos)
		if err != nil {
			return nil, err
		}
		return one(value.ListOf(l...).At(pos)), nil
	case '[':
		l, err := rd.readSeq(']', pos)
		if err != nil {
			return nil, err
		}
		return one(value.NewVector(l...).At(pos)), nil
	case '{':
		m, err := rd.readMap(pos)
		if err != nil {
			return nil, err
		}
		return one(m), nil
	case ')', ']', '}':
		return nil, clove.ReadError(clove.UnmatchedDelimiter, pos, "unmatched delimiter: %c", r)
	case '"':
		s, err := rd.readString(pos)
		if err != nil {
			return nil, err
		}
		return one(s), nil
	case '\\':
		c, err := rd.readChar(pos)
		if err != nil {
			return nil, err
		}
		return one(c), nil
	case ';':
		rd.skipLine()
		return nil, nil
	case '\'':
		return rd.wrapNext("quote", pos)
	case '@':
		return rd.wrapNextQ(coreNS, "deref", pos)
	case '`':
		form, err := rd.readForm()
		if err != nil {
			return nil, err
		}
		sq, err := rd.syntaxQuote(form, pos)
		if err != nil {
			return nil, err
		}
		return one(sq), nil
	case '~':
		if rd.src.peek() == '@' {
			rd.src.next()
			return rd.wrapNextQ("clojure.core", "unquote-splicing", pos)
		}
		return rd.wrapNextQ("clojure.core", "unquote", pos)
	case '^':
		v, err := rd.readMetaForm(pos)
		if err != nil {
			return nil, err
		}
		return one(v), nil
	case '#':
		return rd.readDispatch(pos)
	default:
		v, err := rd.readAtom(r, pos)
		if err != nil {
			return nil, err
		}
		return one(v), nil
	}
}

func one(v value.Value) []value.Value {
	return []value.Value{v}
}

// wrapNext reads the following form f and returns (sym f).
func (rd *Reader) wrapNext(sym string, pos clove.Pos) ([]value.Value, error) {
	return rd.wrapNextQ("", sym, pos)
}

func (rd *Reader) wrapNextQ(ns, sym string, pos clove.Pos) ([]value.Value, error) {
	form, err := rd.readForm()
	if err != nil {
		if err == io.EOF {
			return nil, clove.ReadError(clove.NoSubkind, pos, "EOF while reading %s form", sym)
		}
		return nil, err
	}
	s := value.SymQ(ns, sym).At(pos)
	return one(value.ListOf(s, form).At(pos)), nil
}

// --- Whitespace and comments ------------------------------------------------

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' || r == ','
}

func (rd *Reader) skipBlank() {
	rd.src.accept(isBlank, nil)
}

func (rd *Reader) skipLine() {
	rd.src.accept(func(r rune) bool { return r != '\n' }, nil)
	rd.src.next() // the newline itself
}

// --- Sequences and maps -----------------------------------------------------

// readSeq reads forms until the closing delimiter, splicing conditionals
// in place.
func (rd *Reader) readSeq(closing rune, open clove.Pos) ([]value.Value, error) {
	var elems []value.Value
	for {
		rd.skipBlank()
		r := rd.src.next()
		if r == closing {
			return elems, nil
		}
		if r == eofRune {
			return nil, clove.ReadError(clove.UnterminatedList, open,
				"EOF while reading, expected %c", closing)
		}
		rd.src.unread()
		forms, err := rd.readForms()
		if err != nil {
			if err == io.EOF {
				return nil, clove.ReadError(clove.UnterminatedList, open,
					"EOF while reading, expected %c", closing)
			}
			return nil, err
		}
		elems = append(elems, forms...)
	}
}

func (rd *Reader) readMap(open clove.Pos) (value.Value, error) {
	elems, err := rd.readSeq('}', open)
	if err != nil {
		return nil, err
	}
	if len(elems)%2 != 0 {
		return nil, clove.ReadError(clove.NoSubkind, open,
			"map literal must contain an even number of forms")
	}
	m := value.NewMap()
	for i := 0; i < len(elems); i += 2 {
		if m.Has(elems[i]) {
			return nil, clove.ReadError(clove.NoSubkind, open,
				"duplicate key: %s", value.PrintString(elems[i]))
		}
		m.Assoc(elems[i], elems[i+1])
	}
	return m.At(open), nil
}

// --- Strings and characters -------------------------------------------------

func (rd *Reader) readString(open clove.Pos) (value.Value, error) {
	var sb strings.Builder
	for {
		r := rd.src.next()
		switch r {
		case eofRune:
			return nil, clove.ReadError(clove.UnterminatedString, open, "EOF while reading string")
		case '"':
			return value.String(sb.String()), nil
		case '\\':
			esc, err := rd.readEscape(open)
			if err != nil {
				return nil, err
			}
			sb.WriteRune(esc)
		default:
			sb.WriteRune(r)
		}
	}
}

func (rd *Reader) readEscape(open clove.Pos) (rune, error) {
	r := rd.src.next()
	switch r {
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'n':
		return '\n', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case '0':
		return 0, nil
	case '\\', '"', '\'':
		return r, nil
	case 'u':
		return rd.readHexRune(4, open)
	case eofRune:
		return 0, clove.ReadError(clove.UnterminatedString, open, "EOF in string escape")
	}
	return 0, clove.ReadError(clove.InvalidEscape, rd.src.pos(), "unsupported escape: \\%c", r)
}

func (rd *Reader) readHexRune(n int, pos clove.Pos) (rune, error) {
	var digits []rune
	for i := 0; i < n; i++ {
		r := rd.src.next()
		if r == eofRune {
			return 0, clove.ReadError(clove.InvalidEscape, pos, "EOF in unicode escape")
		}
		digits = append(digits, r)
	}
	code, err := strconv.ParseUint(string(digits), 16, 32)
	if err != nil {
		return 0, clove.ReadError(clove.InvalidEscape, pos,
			"invalid unicode escape: \\u%s", string(digits))
	}
	return rune(code), nil
}

var charNames = map[string]rune{
	"space":     ' ',
	"tab":       '\t',
	"newline":   '\n',
	"return":    '\r',
	"formfeed":  '\f',
	"backspace": '\b',
}

func (rd *Reader) readChar(pos clove.Pos) (value.Value, error) {
	r := rd.src.next()
	if r == eofRune {
		return nil, clove.ReadError(clove.InvalidEscape, pos, "EOF while reading character")
	}
	rest := rd.src.accept(isTokenRune, nil)
	if len(rest) == 0 {
		return value.Char(r), nil
	}
	name := string(r) + string(rest)
	if c, ok := charNames[name]; ok {
		return value.Char(c), nil
	}
	if r == 'u' && len(rest) == 4 {
		if code, err := strconv.ParseUint(string(rest), 16, 32); err == nil {
			return value.Char(rune(code)), nil
		}
	}
	if r == 'o' && len(rest) >= 1 && len(rest) <= 3 {
		if code, err := strconv.ParseUint(string(rest), 8, 32); err == nil {
			return value.Char(rune(code)), nil
		}
	}
	return nil, clove.ReadError(clove.InvalidEscape, pos, "unsupported character: \\%s", name)
}

// --- Metadata ---------------------------------------------------------------

func (rd *Reader) readMetaForm(pos clove.Pos) (value.Value, error) {
	metaForm, err := rd.readForm()
	if err != nil {
		return nil, err
	}
	meta, err := metaAsMap(metaForm, pos)
	if err != nil {
		return nil, err
	}
	target, err := rd.readForm()
	if err != nil {
		return nil, err
	}
	tpos := value.PosOf(target)
	if tpos.IsValid() {
		meta.Assoc(value.Kw("line"), value.Int(tpos.Line))
		meta.Assoc(value.Kw("column"), value.Int(tpos.Col))
		if tpos.File != "" {
			meta.Assoc(value.Kw("file"), value.String(tpos.File))
		}
	}
	attached, ok := value.AttachMeta(target, meta)
	if !ok {
		return nil, clove.ReadError(clove.NoSubkind, pos,
			"metadata can only be applied to symbols and collections")
	}
	return attached, nil
}

func metaAsMap(form value.Value, pos clove.Pos) (*value.Map, error) {
	switch m := form.(type) {
	case *value.Map:
		return m.Copy(), nil
	case value.Keyword:
		return value.MapOf(m, value.True), nil
	case *value.Symbol:
		return value.MapOf(value.Kw("tag"), m), nil
	case value.String:
		return value.MapOf(value.Kw("tag"), m), nil
	}
	return nil, clove.ReadError(clove.NoSubkind, pos,
		"metadata must be a symbol, keyword, string or map")
}

// --- Dispatch macros (#) ----------------------------------------------------

func (rd *Reader) readDispatch(pos clove.Pos) ([]value.Value, error) {
	r := rd.src.next()
	switch r {
	case '{':
		elems, err := rd.readSeq('}', pos)
		if err != nil {
			return nil, err
		}
		s := value.NewSet()
		for _, e := range elems {
			if !s.Add(e) {
				return nil, clove.ReadError(clove.NoSubkind, pos,
					"duplicate set element: %s", value.PrintString(e))
			}
		}
		return one(s.At(pos)), nil
	case '(':
		fn, err := rd.readAnonFn(pos)
		if err != nil {
			return nil, err
		}
		return one(fn), nil
	case '"':
		return rd.readRegex(pos)
	case '\'':
		return rd.wrapNext("var", pos)
	case '=':
		return rd.readEvalForm(pos)
	case '^':
		v, err := rd.readMetaForm(pos)
		if err != nil {
			return nil, err
		}
		return one(v), nil
	case '_':
		if _, err := rd.readForm(); err != nil { // read and discard
			return nil, err
		}
		return nil, nil
	case '!':
		rd.skipLine()
		return nil, nil
	case '?':
		return rd.readConditional(pos)
	case '#':
		return rd.readSymbolic(pos)
	case eofRune:
		return nil, clove.ReadError(clove.InvalidDispatchChar, pos, "EOF after dispatch macro")
	}
	if isTokenRune(r) {
		rd.src.unread()
		return rd.readTagged(pos)
	}
	return nil, clove.ReadError(clove.InvalidDispatchChar, pos, "invalid dispatch character: %c", r)
}

func (rd *Reader) readRegex(pos clove.Pos) ([]value.Value, error) {
	var sb strings.Builder
	for {
		r := rd.src.next()
		if r == eofRune {
			return nil, clove.ReadError(clove.UnterminatedString, pos, "EOF while reading regex")
		}
		if r == '"' {
			return one(value.Regex(sb.String())), nil
		}
		sb.WriteRune(r)
		if r == '\\' { // escapes stay raw, including \"
			q := rd.src.next()
			if q == eofRune {
				return nil, clove.ReadError(clove.UnterminatedString, pos, "EOF while reading regex")
			}
			sb.WriteRune(q)
		}
	}
}

func (rd *Reader) readEvalForm(pos clove.Pos) ([]value.Value, error) {
	if !rd.opts.ReadEval {
		return nil, clove.ReadError(clove.NoSubkind, pos, "read-eval is disabled")
	}
	form, err := rd.readForm()
	if err != nil {
		return nil, err
	}
	if rd.opts.Eval == nil {
		return nil, clove.ReadError(clove.NoSubkind, pos, "no evaluator for read-eval form")
	}
	v, err := rd.opts.Eval(form)
	if err != nil {
		return nil, clove.ReadError(clove.NoSubkind, pos, "read-eval failed: %v", err)
	}
	return one(v), nil
}

func (rd *Reader) readSymbolic(pos clove.Pos) ([]value.Value, error) {
	lexeme := string(rd.src.accept(isTokenRune, nil))
	switch lexeme {
	case "Inf":
		return one(value.Float(math.Inf(1))), nil
	case "-Inf":
		return one(value.Float(math.Inf(-1))), nil
	case "NaN":
		return one(value.Float(math.NaN())), nil
	}
	return nil, clove.ReadError(clove.InvalidDispatchChar, pos, "unknown symbolic value: ##%s", lexeme)
}

// --- Tagged literals --------------------------------------------------------

func (rd *Reader) readTagged(pos clove.Pos) ([]value.Value, error) {
	tagForm, err := rd.readForm()
	if err != nil {
		return nil, err
	}
	tag, ok := tagForm.(*value.Symbol)
	if !ok {
		return nil, clove.ReadError(clove.InvalidDispatchChar, pos,
			"tagged literal tag must be a symbol, got %s", value.PrintString(tagForm))
	}
	form, err := rd.readForm()
	if err != nil {
		return nil, err
	}
	if dr, ok := rd.opts.DataReaders[tag.FullName()]; ok {
		v, err := dr(form)
		if err != nil {
			return nil, clove.ReadError(clove.NoSubkind, pos, "data reader #%s: %v", tag.FullName(), err)
		}
		return one(v), nil
	}
	if dr, ok := rd.opts.DefaultReaders[tag.FullName()]; ok {
		v, err := dr(form)
		if err != nil {
			return nil, clove.ReadError(clove.NoSubkind, pos, "data reader #%s: %v", tag.FullName(), err)
		}
		return one(v), nil
	}
	// no data reader installed: keep the literal tagged
	return one(value.NewTagged(tag, form, pos)), nil
}

// --- Reader conditionals ----------------------------------------------------

func (rd *Reader) readConditional(pos clove.Pos) ([]value.Value, error) {
	splicing := false
	if rd.src.peek() == '@' {
		rd.src.next()
		splicing = true
	}
	rd.skipBlank()
	if r := rd.src.next(); r != '(' {
		return nil, clove.ReadError(clove.NoSubkind, pos, "reader conditional body must be a list")
	}
	elems, err := rd.readSeq(')', pos)
	if err != nil {
		return nil, err
	}
	switch rd.opts.Cond {
	case CondDisallow:
		return nil, clove.ReadError(clove.NoSubkind, pos, "reader conditionals are not allowed")
	case CondPreserve:
		return one(value.NewCond(splicing, value.ListOf(elems...), pos)), nil
	}
	if len(elems)%2 != 0 {
		return nil, clove.ReadError(clove.NoSubkind, pos,
			"reader conditional requires an even number of forms")
	}
	for i := 0; i < len(elems); i += 2 {
		feat, ok := elems[i].(value.Keyword)
		if !ok {
			return nil, clove.ReadError(clove.NoSubkind, pos,
				"reader conditional feature must be a keyword, got %s", value.PrintString(elems[i]))
		}
		if !rd.featureActive(feat) {
			continue
		}
		if !splicing {
			return one(elems[i+1]), nil
		}
		return spliceable(elems[i+1], pos)
	}
	if rd.opts.NilPermissive {
		return nil, nil // no branch matched, skip the form
	}
	return nil, clove.ReadError(clove.FeatureNotFound, pos,
		"no matching reader conditional branch")
}

func (rd *Reader) featureActive(feat value.Keyword) bool {
	if feat == value.Kw("default") {
		return true
	}
	for _, f := range rd.opts.Features {
		if f == feat {
			return true
		}
	}
	return false
}

func spliceable(form value.Value, pos clove.Pos) ([]value.Value, error) {
	switch s := form.(type) {
	case *value.List:
		return s.Slice(), nil
	case *value.Vector:
		return s.Items, nil
	}
	return nil, clove.ReadError(clove.NoSubkind, pos,
		"splicing conditional body must be sequential")
}

// --- Atoms ------------------------------------------------------------------

func isTokenRune(r rune) bool {
	if isBlank(r) || r == eofRune {
		return false
	}
	switch r {
	case '(', ')', '[', ']', '{', '}', '"', ';', '@', '^', '`', '~', '\\', '\'':
		return false
	}
	return true
}

func (rd *Reader) readAtom(first rune, pos clove.Pos) (value.Value, error) {
	lexeme := string(first) + string(rd.src.accept(isTokenRune, nil))
	typ, err := classify(lexeme, pos)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TokSymbol:
		switch lexeme {
		case "nil":
			return value.NilV, nil
		case "true":
			return value.True, nil
		case "false":
			return value.False, nil
		}
		return value.ParseSym(lexeme).At(pos), nil
	case TokKeyword:
		return rd.parseKeyword(lexeme, pos)
	case TokArg:
		return rd.argSymbol(lexeme, pos)
	default:
		return parseNumber(lexeme, typ, pos)
	}
}

func (rd *Reader) parseKeyword(lexeme string, pos clove.Pos) (value.Value, error) {
	autoresolve := strings.HasPrefix(lexeme, "::")
	name := strings.TrimLeft(lexeme, ":")
	sym := value.ParseSym(name)
	if !autoresolve {
		return value.KwQ(sym.NS, sym.Name), nil
	}
	// ::kw and ::alias/kw resolve against the current namespace
	if sym.NS == "" {
		return value.KwQ(rd.currentNS(), sym.Name), nil
	}
	if rd.opts.Resolver != nil {
		if ns, ok := rd.opts.Resolver.ResolveAlias(sym.NS); ok {
			return value.KwQ(ns, sym.Name), nil
		}
	}
	return nil, clove.ReadError(clove.NoSubkind, pos, "no namespace alias %s for keyword %s", sym.NS, lexeme)
}

func (rd *Reader) currentNS() string {
	if rd.opts.Resolver != nil {
		return rd.opts.Resolver.CurrentNS()
	}
	return "user"
}

func parseNumber(lexeme string, typ clove.TokType, pos clove.Pos) (value.Value, error) {
	switch typ {
	case TokInt:
		if n, err := strconv.ParseInt(lexeme, 0, 64); err == nil {
			return value.Int(n), nil
		}
		// does not fit an Int: fold to a bignum while reading
		if b, ok := new(big.Int).SetString(lexeme, 0); ok {
			return value.MkBigInt(b), nil
		}
	case TokRadixInt:
		idx := strings.IndexAny(lexeme, "rR")
		base, err := strconv.Atoi(strings.TrimLeft(lexeme[:idx], "+-"))
		if err != nil || base < 2 || base > 36 {
			break
		}
		digits := lexeme[idx+1:]
		if b, ok := new(big.Int).SetString(digits, base); ok {
			if strings.HasPrefix(lexeme, "-") {
				b.Neg(b)
			}
			if b.IsInt64() {
				return value.Int(b.Int64()), nil
			}
			return value.MkBigInt(b), nil
		}
	case TokBigInt:
		if b, ok := new(big.Int).SetString(strings.TrimSuffix(lexeme, "N"), 0); ok {
			return value.MkBigInt(b), nil
		}
	case TokFloat:
		if f, err := strconv.ParseFloat(lexeme, 64); err == nil {
			return value.Float(f), nil
		}
	case TokBigDec:
		lit := strings.TrimSuffix(lexeme, "M")
		if f, _, err := big.ParseFloat(lit, 10, 128, big.ToNearestEven); err == nil {
			return value.BigDec{Val: f, Lit: lit}, nil
		}
	case TokRatio:
		if r, ok := new(big.Rat).SetString(lexeme); ok {
			return value.MkRatio(r), nil
		}
	}
	return nil, clove.ReadError(clove.InvalidNumber, pos, "invalid number: %s", lexeme)
}

// --- Anonymous function literals --------------------------------------------

// readAnonFn rewrites #(...) to (fn* [p1 … pN & rest] (...)). The highest
// argument literal seen determines the arity.
func (rd *Reader) readAnonFn(pos clove.Pos) (value.Value, error) {
	if rd.args != nil {
		return nil, clove.ReadError(clove.NoSubkind, pos, "nested #() are not allowed")
	}
	rd.args = make(map[int]*value.Symbol)
	rd.argMax = 0
	defer func() {
		rd.args = nil
		rd.argMax = 0
	}()
	body, err := rd.readSeq(')', pos)
	if err != nil {
		return nil, err
	}
	var params []value.Value
	for i := 1; i <= rd.argMax; i++ {
		sym, ok := rd.args[i]
		if !ok {
			sym = rd.freshSym(fmt.Sprintf("p%d__", i))
			rd.args[i] = sym
		}
		params = append(params, sym)
	}
	if rest, ok := rd.args[-1]; ok {
		params = append(params, value.Sym("&"), rest)
	}
	fn := value.ListOf(
		value.Sym("fn*").At(pos),
		value.NewVector(params...),
		value.ListOf(body...).At(pos),
	)
	return fn.At(pos), nil
}

// argSymbol resolves an argument literal %N / % / %& inside #(...).
func (rd *Reader) argSymbol(lexeme string, pos clove.Pos) (value.Value, error) {
	if rd.args == nil {
		return nil, clove.ReadError(clove.UnsupportedArg, pos,
			"arg literal %s not inside #()", lexeme)
	}
	n := 1
	switch {
	case lexeme == "%":
		n = 1
	case lexeme == "%&":
		n = -1
	default:
		i, err := strconv.Atoi(lexeme[1:])
		if err != nil || i < 1 {
			return nil, clove.ReadError(clove.UnsupportedArg, pos, "invalid arg literal %s", lexeme)
		}
		n = i
	}
	if sym, ok := rd.args[n]; ok {
		return sym, nil
	}
	var sym *value.Symbol
	if n == -1 {
		sym = rd.freshSym("rest__")
	} else {
		sym = rd.freshSym(fmt.Sprintf("p%d__", n))
		if n > rd.argMax {
			rd.argMax = n
		}
	}
	rd.args[n] = sym
	return sym, nil
}

// freshSym produces a unique, unreadable symbol name.
func (rd *Reader) freshSym(prefix string) *value.Symbol {
	rd.counter++
	return value.Sym(fmt.Sprintf("%s%d__auto__", prefix, rd.counter))
}
