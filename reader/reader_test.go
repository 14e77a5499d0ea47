package reader

import (
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/value"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func bigRat(a, b int64) *big.Rat {
	return big.NewRat(a, b)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func readAll(t *testing.T, input string, opts Opts) []value.Value {
	t.Helper()
	rd := FromString(input, opts)
	var vals []value.Value
	for {
		v, err := rd.ReadOne()
		if err == io.EOF {
			return vals
		}
		if err != nil {
			t.Fatalf("read %q: %v", input, err)
		}
		vals = append(vals, v)
	}
}

func readOne(t *testing.T, input string) value.Value {
	t.Helper()
	vals := readAll(t, input, Opts{})
	if len(vals) != 1 {
		t.Fatalf("expected one value from %q, got %d", input, len(vals))
	}
	return vals[0]
}

func readErr(t *testing.T, input string, opts Opts) error {
	t.Helper()
	rd := FromString(input, opts)
	for {
		_, err := rd.ReadOne()
		if err == io.EOF {
			t.Fatalf("expected a read error for %q", input)
		}
		if err != nil {
			return err
		}
	}
}

func TestReadAtoms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.reader")
	defer teardown()
	//
	cases := []struct {
		input string
		want  value.Value
	}{
		{"42", value.Int(42)},
		{"-17", value.Int(-17)},
		{"2r1010", value.Int(10)},
		{"16rFF", value.Int(255)},
		{"0x1F", value.Int(31)},
		{"1.5", value.Float(1.5)},
		{"1e3", value.Float(1000)},
		{"2/3", value.MkRatio(bigRat(2, 3))},
		{"nil", value.NilV},
		{"true", value.True},
		{"false", value.False},
		{`"hi\n"`, value.String("hi\n")},
		{`\a`, value.Char('a')},
		{`\space`, value.Char(' ')},
		{`\u0041`, value.Char('A')},
		{":kw", value.Kw("kw")},
		{":ns/kw", value.KwQ("ns", "kw")},
		{"foo", value.Sym("foo")},
		{"my.ns/foo", value.SymQ("my.ns", "foo")},
	}
	for _, c := range cases {
		got := readOne(t, c.input)
		if !value.Equal(got, c.want) {
			t.Errorf("read %q: got %s, want %s", c.input, value.PrintString(got), value.PrintString(c.want))
		}
	}
}

func TestReadCollections(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.reader")
	defer teardown()
	//
	v := readOne(t, "(f 1 [2 3] {:a 1} #{:x})")
	want := value.ListOf(
		value.Sym("f"), value.Int(1),
		value.NewVector(value.Int(2), value.Int(3)),
		value.MapOf(value.Kw("a"), value.Int(1)),
		value.SetOf(value.Kw("x")),
	)
	if !value.Equal(v, want) {
		t.Errorf("got %s", value.PrintString(v))
	}
}

func TestCommasAreWhitespace(t *testing.T) {
	v := readOne(t, "[1, 2,,3]")
	if !value.Equal(v, value.NewVector(value.Int(1), value.Int(2), value.Int(3))) {
		t.Errorf("got %s", value.PrintString(v))
	}
}

func TestDiscardAndComments(t *testing.T) {
	vals := readAll(t, "; comment\n#_ 1 #_ #_ 2 3 4 ;; tail", Opts{})
	if len(vals) != 1 || !value.Equal(vals[0], value.Int(4)) {
		t.Errorf("expected only 4 to survive, got %v", vals)
	}
}

func TestQuoteFamily(t *testing.T) {
	v := readOne(t, "'x")
	want := value.ListOf(value.Sym("quote"), value.Sym("x"))
	if !value.Equal(v, want) {
		t.Errorf("got %s", value.PrintString(v))
	}
	v = readOne(t, "@x")
	want = value.ListOf(value.SymQ("clojure.core", "deref"), value.Sym("x"))
	if !value.Equal(v, want) {
		t.Errorf("got %s", value.PrintString(v))
	}
	v = readOne(t, "#'x")
	want = value.ListOf(value.Sym("var"), value.Sym("x"))
	if !value.Equal(v, want) {
		t.Errorf("got %s", value.PrintString(v))
	}
}

func TestMetadataAttachment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.reader")
	defer teardown()
	//
	v := readOne(t, "^:private ^{:doc \"d\"} x")
	m := value.MetaOf(v)
	if m == nil {
		t.Fatalf("expected metadata on symbol")
	}
	if got, _ := m.Get(value.Kw("private")); !value.Equal(got, value.True) {
		t.Errorf(":private should be true")
	}
	if got, _ := m.Get(value.Kw("doc")); !value.Equal(got, value.String("d")) {
		t.Errorf(":doc lost in merge, got %v", got)
	}
	if !m.Has(value.Kw("line")) || !m.Has(value.Kw("column")) {
		t.Errorf("expected source position merged into metadata")
	}
}

func TestAnonymousFn(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.reader")
	defer teardown()
	//
	v := readOne(t, "#(+ % %2)")
	l, ok := v.(*value.List)
	if !ok {
		t.Fatalf("expected a list, got %s", value.PrintString(v))
	}
	head, _ := l.First().(*value.Symbol)
	if head == nil || head.Name != "fn*" {
		t.Fatalf("expected fn* head, got %s", value.PrintString(v))
	}
	params, _ := l.Cadr().(*value.Vector)
	if params.Count() != 2 {
		t.Errorf("expected 2 params, got %s", value.PrintString(params))
	}
	body, _ := l.Caddr().(*value.List)
	if body.Length() != 3 {
		t.Errorf("unexpected body %s", value.PrintString(body))
	}
	if !value.Equal(body.Cadr(), params.Nth(0)) {
		t.Errorf("%% should refer to first param")
	}
}

func TestArgOutsideAnonFn(t *testing.T) {
	err := readErr(t, "%1", Opts{})
	if clove.SubkindOf(err) != clove.UnsupportedArg {
		t.Errorf("expected UnsupportedArg, got %v", err)
	}
}

func TestReaderConditional(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.reader")
	defer teardown()
	//
	opts := Opts{Cond: CondAllow, Features: []value.Keyword{value.Kw("clj")}}
	vals := readAll(t, "#?(:clj 1 :cljs 2)", opts)
	if len(vals) != 1 || !value.Equal(vals[0], value.Int(1)) {
		t.Errorf("expected 1, got %v", vals)
	}
	// no matching feature, no :default
	err := readErr(t, "#?(:cljs 2)", opts)
	if clove.SubkindOf(err) != clove.FeatureNotFound {
		t.Errorf("expected FeatureNotFound, got %v", err)
	}
	// :default branch
	vals = readAll(t, "#?(:cljs 2 :default 3)", opts)
	if len(vals) != 1 || !value.Equal(vals[0], value.Int(3)) {
		t.Errorf("expected 3, got %v", vals)
	}
}

func TestSplicingConditional(t *testing.T) {
	opts := Opts{Cond: CondAllow, Features: []value.Keyword{value.Kw("clj")}}
	v := readAll(t, "[1 #?@(:clj [2 3]) 4]", opts)
	want := value.NewVector(value.Int(1), value.Int(2), value.Int(3), value.Int(4))
	if len(v) != 1 || !value.Equal(v[0], want) {
		t.Errorf("got %v", v)
	}
}

func TestConditionalDisallowedInCljFiles(t *testing.T) {
	err := readErr(t, "#?(:clj 1)", Opts{Cond: CondDisallow})
	if clove.KindOf(err) != clove.ReaderError {
		t.Errorf("expected reader error, got %v", err)
	}
}

func TestPreservedConditional(t *testing.T) {
	vals := readAll(t, "#?(:clj 1)", Opts{Cond: CondPreserve})
	if len(vals) != 1 {
		t.Fatalf("expected one preserved form")
	}
	if _, ok := vals[0].(*value.Cond); !ok {
		t.Errorf("expected a Cond placeholder, got %s", value.PrintString(vals[0]))
	}
}

func TestSyntaxQuoteResolvesSymbols(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.reader")
	defer teardown()
	//
	v := readOne(t, "`foo")
	want := value.ListOf(value.Sym("quote"), value.SymQ("user", "foo"))
	if !value.Equal(v, want) {
		t.Errorf("got %s", value.PrintString(v))
	}
	// special forms stay unqualified
	v = readOne(t, "`if")
	want = value.ListOf(value.Sym("quote"), value.Sym("if"))
	if !value.Equal(v, want) {
		t.Errorf("got %s", value.PrintString(v))
	}
}

func TestSyntaxQuoteUnquote(t *testing.T) {
	v := readOne(t, "`(f ~x)")
	s := value.PrintString(v)
	if s != "(clojure.core/seq (clojure.core/concat (clojure.core/list (quote user/f)) (clojure.core/list x)))" {
		t.Errorf("unexpected expansion %s", s)
	}
}

func TestSyntaxQuoteAutoGensym(t *testing.T) {
	v := readOne(t, "`[x# x#]")
	l := value.PrintString(v)
	// both occurrences must expand to the same generated symbol
	vec, ok := v.(*value.List)
	if !ok {
		t.Fatalf("unexpected expansion %s", l)
	}
	_ = vec
	syms := map[string]int{}
	collectQuotedSyms(v, syms)
	for name, n := range syms {
		if n != 2 {
			t.Errorf("auto-gensym occurrences differ: %s seen %d times in %s", name, n, l)
		}
	}
	if len(syms) != 1 {
		t.Errorf("expected exactly one generated symbol, got %v", syms)
	}
}

func collectQuotedSyms(v value.Value, acc map[string]int) {
	switch x := v.(type) {
	case *value.Symbol:
		if x.NS == "" && x.Name != "quote" {
			acc[x.Name]++
		}
	case *value.List:
		x.ForEach(func(e value.Value) bool {
			collectQuotedSyms(e, acc)
			return true
		})
	}
}

func TestUnterminatedForms(t *testing.T) {
	if sub := clove.SubkindOf(readErr(t, "(1 2", Opts{})); sub != clove.UnterminatedList {
		t.Errorf("expected UnterminatedList, got %v", sub)
	}
	if sub := clove.SubkindOf(readErr(t, `"abc`, Opts{})); sub != clove.UnterminatedString {
		t.Errorf("expected UnterminatedString, got %v", sub)
	}
	if sub := clove.SubkindOf(readErr(t, ")", Opts{})); sub != clove.UnmatchedDelimiter {
		t.Errorf("expected UnmatchedDelimiter, got %v", sub)
	}
	if sub := clove.SubkindOf(readErr(t, "12abc", Opts{})); sub != clove.InvalidNumber {
		t.Errorf("expected InvalidNumber, got %v", sub)
	}
}

func TestReadEvalDisabledByDefault(t *testing.T) {
	err := readErr(t, "#=(f)", Opts{})
	if clove.KindOf(err) != clove.ReaderError {
		t.Errorf("expected reader error for #= without opt-in, got %v", err)
	}
}

func TestSourcePositions(t *testing.T) {
	v := readOne(t, "\n  (f x)")
	pos := value.PosOf(v)
	if pos.Line != 2 || pos.Col != 3 {
		t.Errorf("expected list at 2:3, got %v", pos)
	}
}

func TestReadFold(t *testing.T) {
	count, err := ReadFold(func(v value.Value, acc interface{}) (interface{}, error) {
		return acc.(int) + 1, nil
	}, stringsReader("1 2 3"), Opts{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 forms, got %v", count)
	}
}

func TestPrintReadRoundTrip(t *testing.T) {
	inputs := []string{
		"(f 1 [2 3] {:a 1} #{:x} \"s\" \\c :k ns/sym 2/3 7N)",
		"[nil true false 1.5]",
	}
	for _, in := range inputs {
		v := readOne(t, in)
		again := readOne(t, value.PrintString(v))
		if !value.Equal(v, again) {
			t.Errorf("round trip failed for %q: %s vs %s", in,
				value.PrintString(v), value.PrintString(again))
		}
	}
}
