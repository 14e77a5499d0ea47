package runtime

import (
	"testing"

	"github.com/npillmayer/clove/value"
)

func TestLexicalLookup(t *testing.T) {
	env := NewEnv(NewRegistry(), "user")
	env.Define(NewLocalBinding(value.Sym("x"), LetBinding))
	if env.Lookup("x") == nil {
		t.Error("cannot find binding in top frame")
	}
	inner := env.PushFrame("body")
	if inner.Lookup("x") == nil {
		t.Error("inner frame must see outer bindings")
	}
	if env.Lookup("y") != nil {
		t.Error("unexpected binding for y")
	}
}

func TestShadowing(t *testing.T) {
	env := NewEnv(NewRegistry(), "user")
	outer := NewLocalBinding(value.Sym("x"), ArgBinding)
	env.Define(outer)
	inner := env.PushFrame("let")
	shadow := NewLocalBinding(value.Sym("x"), LetBinding)
	inner.Define(shadow)
	got := inner.Lookup("x")
	if got != shadow {
		t.Fatalf("innermost binding must win")
	}
	if got.Shadow != outer {
		t.Errorf("shadow chain must link to the outer binding")
	}
	if env.Lookup("x") != outer {
		t.Errorf("pushing a frame must not disturb the caller's env")
	}
}

func TestCopyOnPush(t *testing.T) {
	env := NewEnv(NewRegistry(), "user")
	loop := env.WithLoop(FreshLoopID("loop"), 2)
	if _, _, ok := env.LoopTarget(); ok {
		t.Error("loop target leaked into the parent env")
	}
	if _, arity, ok := loop.LoopTarget(); !ok || arity != 2 {
		t.Error("expected loop target with arity 2")
	}
	masked := loop.NoRecur()
	if _, _, ok := masked.LoopTarget(); ok {
		t.Error("NoRecur must mask the loop target")
	}
}

func TestUnderscoreBinding(t *testing.T) {
	lb := NewLocalBinding(value.Sym("_ignored"), ArgBinding)
	if !lb.Underscore {
		t.Error("_ignored should be marked as underscore binding")
	}
}

func TestInternFirstWriterWins(t *testing.T) {
	reg := NewRegistry()
	ns := reg.FindOrCreate("ex")
	a := ns.Intern("x")
	b := ns.Intern("x")
	if a != b {
		t.Error("second intern must alias the first Var")
	}
}

func TestResolveOrder(t *testing.T) {
	reg := NewRegistry()
	core := reg.FindOrCreate("clojure.core")
	inc := core.Intern("inc")
	user := reg.FindOrCreate("user")
	user.Refer("inc", inc)
	own := user.Intern("inc") // an intern beats a referred mapping
	if got := reg.Resolve(user, value.Sym("inc")); got != own {
		t.Errorf("interned Var must shadow referred mapping")
	}
	if got := reg.Resolve(user, value.SymQ("clojure.core", "inc")); got != inc {
		t.Errorf("qualified resolution failed")
	}
	user.Alias("c", core)
	if got := reg.Resolve(user, value.SymQ("c", "inc")); got != inc {
		t.Errorf("alias resolution failed")
	}
}

func TestVarCountMonotonic(t *testing.T) {
	reg := NewRegistry()
	before := reg.VarCount()
	reg.FindOrCreate("a").Intern("one")
	reg.FindOrCreate("a").Intern("two")
	reg.FindOrCreate("b").Intern("one")
	if reg.VarCount() != before+3 {
		t.Errorf("expected 3 new Vars, got %d", reg.VarCount()-before)
	}
}

func TestDynamicBindings(t *testing.T) {
	v := NewVar("user", "*out*")
	v.SetDynamic()
	v.BindRoot(value.String("root"))
	parent := NewBindings()
	parent.Push(v, value.String("parent"))
	child := parent.Snapshot()
	child.Push(v, value.String("child"))
	if got, _ := parent.Lookup(v); !value.Equal(got.(value.Value), value.String("parent")) {
		t.Errorf("child push leaked into parent, got %v", got)
	}
	if got, _ := child.Lookup(v); !value.Equal(got.(value.Value), value.String("child")) {
		t.Errorf("expected child binding, got %v", got)
	}
	child.Pop(v)
	if got, _ := child.Lookup(v); !value.Equal(got.(value.Value), value.String("parent")) {
		t.Errorf("expected inherited binding after pop, got %v", got)
	}
	other := NewBindings()
	if got, _ := other.Lookup(v); !value.Equal(got.(value.Value), value.String("root")) {
		t.Errorf("expected root fallback, got %v", got)
	}
}

func TestMacroFlagFromMeta(t *testing.T) {
	v := NewVar("user", "when")
	v.SetMeta(value.MapOf(value.Kw("macro"), value.True))
	if !v.IsMacro() {
		t.Error("macro flag should follow metadata")
	}
}
