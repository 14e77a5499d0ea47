package emitter

import (
	"testing"

	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func dispatchCase(t *testing.T, mod *coreir.Module, name string, arity int) coreir.Case {
	t.Helper()
	def, ok := mod.Lookup(name, arity)
	if !ok {
		t.Fatalf("missing %s/%d in %s", name, arity, mod.Name)
	}
	cse, ok := def.Fun.Body.(coreir.Case)
	if !ok {
		t.Fatalf("%s/%d body must be a flat case", name, arity)
	}
	return cse
}

func TestDispatchTotality(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.emitter")
	defer teardown()
	//
	fx := newFixture()
	fx.emit(t, `(ns ex)
		(defprotocol P (m [x]))
		(deftype B [] P (m [_] :b))
		(deftype A [] P (m [_] :a))
		(extend-type :integer P (m [x] x))`)
	mods := fx.modules()
	proto := mods["ex.P"]
	if proto == nil {
		t.Fatalf("protocol module not emitted")
	}
	cse := dispatchCase(t, proto, "m", 1)
	// m extending shapes + untagged-record clause + catch-all
	extenders := 3 // :integer, ex.A, ex.B
	if len(cse.Clauses) != extenders+2 {
		t.Fatalf("expected %d clauses, got %d", extenders+2, len(cse.Clauses))
	}
	// primitive clauses precede tagged-record clauses; records alphabetical
	first, ok := cse.Clauses[0].Patterns[0].(coreir.PAtom)
	if !ok || first.Name != "integer" {
		t.Errorf("first clause must be the :integer primitive, got %v", cse.Clauses[0].Patterns[0])
	}
	second, _ := cse.Clauses[1].Patterns[0].(coreir.PAtom)
	third, _ := cse.Clauses[2].Patterns[0].(coreir.PAtom)
	if second.Name != "ex.A" || third.Name != "ex.B" {
		t.Errorf("record clauses must be alphabetical, got %s then %s", second.Name, third.Name)
	}
	// the final clause matches every possible value
	last := cse.Clauses[len(cse.Clauses)-1]
	if _, ok := last.Patterns[0].(coreir.PVar); !ok {
		t.Errorf("catch-all clause must be a variable pattern")
	}
}

func TestSatisfiesAndExtenders(t *testing.T) {
	fx := newFixture()
	fx.emit(t, `(ns ex)
		(defprotocol P (m [x]))
		(deftype T [] P (m [_] 1))
		(extend-type :list P (m [x] x))`)
	mods := fx.modules()
	proto := mods["ex.P"]
	cse := dispatchCase(t, proto, "__satisfies__", 1)
	// one true clause per extender plus the false fallback
	if len(cse.Clauses) != 3 {
		t.Errorf("expected 3 satisfies clauses, got %d", len(cse.Clauses))
	}
	def, ok := proto.Lookup("__extenders__", 0)
	if !ok {
		t.Fatalf("missing __extenders__/0")
	}
	lst, ok := def.Fun.Body.(coreir.ListExpr)
	if !ok || len(lst.Items) != 2 {
		t.Fatalf("extenders must list the static set")
	}
	if atom, _ := lst.Items[0].(coreir.Atom); atom.Name != ":list" {
		t.Errorf("primitive extenders come first, got %v", lst.Items[0])
	}
}

func TestMarkerProtocol(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(ns ex) (defprotocol Marker)")
	mods := fx.modules()
	proto := mods["ex.Marker"]
	if proto == nil {
		t.Fatalf("marker protocol module not emitted")
	}
	if _, ok := proto.Lookup("__satisfies__", 1); !ok {
		t.Errorf("marker protocols are predicate-only modules")
	}
	p := fx.reg.FindProtocol("ex.Marker")
	if p == nil || !p.IsMarker() {
		t.Errorf("marker protocol record expected")
	}
}

func TestReemissionKeepsIdentity(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(ns ex) (defprotocol P (m [x]))")
	before := fx.modules()["ex.P"]
	fx.emit(t, "(extend-type :integer P (m [x] x))")
	after := fx.modules()["ex.P"]
	if before == nil || after == nil {
		t.Fatalf("protocol module must be emitted on both steps")
	}
	if before.Name != after.Name {
		t.Errorf("module identity must be stable across re-emission")
	}
	cb := dispatchCase(t, before, "m", 1)
	ca := dispatchCase(t, after, "m", 1)
	if len(ca.Clauses) != len(cb.Clauses)+1 {
		t.Errorf("extend-type must add exactly one clause: %d -> %d",
			len(cb.Clauses), len(ca.Clauses))
	}
}

func TestDispatchClauseCountProperty(t *testing.T) {
	// random-ish protocols with k methods extended onto m types yield
	// m + primitive-count + 2 clauses per method
	fx := newFixture()
	fx.emit(t, `(ns ex)
		(defprotocol Q (f [x]) (g [x y]))
		(deftype T1 [] Q (f [_] 1) (g [_ y] y))
		(deftype T2 [] Q (f [_] 2) (g [_ y] y))
		(extend-type :integer Q (f [x] x) (g [x y] y))
		(extend-type :nil Q (f [x] x) (g [x y] y))`)
	proto := fx.reg.FindProtocol("ex.Q")
	prims := 0
	for _, p := range runtime.PrimOrder {
		if proto.HasPrim(p) {
			prims++
		}
	}
	types := len(proto.Types())
	mods := fx.modules()
	for _, sig := range []struct {
		name  string
		arity int
	}{{"f", 1}, {"g", 2}} {
		cse := dispatchCase(t, mods["ex.Q"], sig.name, sig.arity)
		want := types + prims + 2
		if len(cse.Clauses) != want {
			t.Errorf("%s/%d: expected %d clauses, got %d", sig.name, sig.arity,
				want, len(cse.Clauses))
		}
	}
}
