package value

import (
	"math/big"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestSymbolEquality(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.value")
	defer teardown()
	//
	a := SymQ("ex", "foo")
	b := SymQ("ex", "foo")
	if !Equal(a, b) {
		t.Errorf("expected ex/foo to equal ex/foo structurally")
	}
	if Equal(a, Sym("foo")) {
		t.Errorf("qualified and unqualified symbol must differ")
	}
	if Hash(a) != Hash(b) {
		t.Errorf("equal symbols must hash equally")
	}
}

func TestMetaDoesNotAffectEquality(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.value")
	defer teardown()
	//
	plain := Sym("x")
	tagged, ok := AttachMeta(Sym("x"), MapOf(Kw("private"), True))
	if !ok {
		t.Fatalf("symbol should carry metadata")
	}
	if !Equal(plain, tagged) {
		t.Errorf("metadata must not affect equality")
	}
	if Hash(plain) != Hash(tagged) {
		t.Errorf("metadata must not affect hashing")
	}
}

func TestMetaMergesLeftToRight(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.value")
	defer teardown()
	//
	v, _ := AttachMeta(Sym("x"), MapOf(Kw("a"), Int(1), Kw("b"), Int(1)))
	v, _ = AttachMeta(v, MapOf(Kw("b"), Int(2)))
	m := MetaOf(v)
	if m == nil || m.Count() != 2 {
		t.Fatalf("expected merged metadata with 2 entries, got %v", m)
	}
	if got, _ := m.Get(Kw("b")); !Equal(got, Int(2)) {
		t.Errorf("later metadata must win, got %v", got)
	}
}

func TestMapIgnoresInsertionOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.value")
	defer teardown()
	//
	a := MapOf(Kw("x"), Int(1), Kw("y"), Int(2))
	b := MapOf(Kw("y"), Int(2), Kw("x"), Int(1))
	if !Equal(a, b) {
		t.Errorf("map equality must ignore insertion order")
	}
}

func TestCompositeMapKeys(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.value")
	defer teardown()
	//
	m := NewMap()
	m.Assoc(NewVector(Int(1), Int(2)), Kw("hit"))
	if v, ok := m.Get(NewVector(Int(1), Int(2))); !ok || !Equal(v, Kw("hit")) {
		t.Errorf("vector keys must be looked up structurally, got %v", v)
	}
}

func TestListOps(t *testing.T) {
	l := ListOf(Int(1), Int(2), Int(3))
	if l.Length() != 3 {
		t.Errorf("expected length 3, got %d", l.Length())
	}
	if !Equal(l.Cadr(), Int(2)) {
		t.Errorf("cadr of (1 2 3) should be 2")
	}
	if !ListOf().IsEmpty() {
		t.Errorf("() should be empty")
	}
	if ListOf().Rest().Length() != 0 {
		t.Errorf("rest of () should be ()")
	}
	app := l.Append(Int(4))
	if app.Length() != 4 || l.Length() != 3 {
		t.Errorf("append must not mutate the receiver")
	}
}

func TestPrintRoundTripAtoms(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NilV, "nil"},
		{True, "true"},
		{Int(42), "42"},
		{MkBigInt(big.NewInt(7)), "7N"},
		{MkRatio(big.NewRat(2, 3)), "2/3"},
		{Float(1.5), "1.5"},
		{Float(2), "2.0"},
		{Char('a'), `\a`},
		{Char(' '), `\space`},
		{String("hi\n"), `"hi\n"`},
		{Kw("k"), ":k"},
		{KwQ("ns", "k"), ":ns/k"},
		{SymQ("ex", "f"), "ex/f"},
	}
	for _, c := range cases {
		if got := PrintString(c.v); got != c.want {
			t.Errorf("print %v: got %q, want %q", c.v.Kind(), got, c.want)
		}
	}
}

func TestPrintCollections(t *testing.T) {
	l := ListOf(Sym("f"), Int(1), NewVector(Int(2), Int(3)))
	if got := PrintString(l); got != "(f 1 [2 3])" {
		t.Errorf("got %q", got)
	}
	s := SetOf(Int(1), Int(2), Int(1))
	if got := PrintString(s); got != "#{1 2}" {
		t.Errorf("set must deduplicate, got %q", got)
	}
}
