package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/value"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func compileSrc(t *testing.T, src string) (value.Value, *Compiler, error) {
	t.Helper()
	c := NewCompiler(DefaultConfig())
	val, err := c.CompileString(src, "test.clj")
	return val, c, err
}

func mustCompile(t *testing.T, src string) (value.Value, *Compiler) {
	t.Helper()
	val, c, err := compileSrc(t, src)
	if err != nil {
		t.Fatalf("compiling %q: %v", src, err)
	}
	return val, c
}

func TestDefAndEval(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.compiler")
	defer teardown()
	//
	val, c := mustCompile(t, "(ns ex) (def x 1) x")
	if !value.Equal(val, value.Int(1)) {
		t.Errorf("expected 1, got %s", value.PrintString(val))
	}
	v := c.Registry().Find("ex").FindIntern("x")
	if v == nil {
		t.Fatalf("Var ex/x not interned")
	}
	root, bound := v.Root()
	if !bound || !value.Equal(root.(value.Value), value.Int(1)) {
		t.Errorf("Var root should be 1, got %v", root)
	}
	found := false
	for _, a := range c.Artifacts() {
		if a.Module == "ex" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an artifact for module ex")
	}
}

func TestFnCall(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.compiler")
	defer teardown()
	//
	val, _ := mustCompile(t, "(ns ex) (def inc* (fn [x] (erlang/+ x 1))) (inc* 41)")
	if !value.Equal(val, value.Int(42)) {
		t.Errorf("expected 42, got %s", value.PrintString(val))
	}
}

func TestAnonymousFnApplication(t *testing.T) {
	val, _ := mustCompile(t, "((fn [x] x) 7)")
	if !value.Equal(val, value.Int(7)) {
		t.Errorf("expected 7, got %s", value.PrintString(val))
	}
}

func TestVariadicFn(t *testing.T) {
	val, _ := mustCompile(t, "(ns ex) (def rest* (fn [x & ys] ys)) (rest* 1 2 3)")
	want := value.ListOf(value.Int(2), value.Int(3))
	if !value.Equal(val, want) {
		t.Errorf("expected (2 3), got %s", value.PrintString(val))
	}
}

func TestMultiArity(t *testing.T) {
	val, _ := mustCompile(t, `(ns ex)
		(def f (fn ([x] x) ([x y] y)))
		[(f 1) (f 1 2)]`)
	want := value.NewVector(value.Int(1), value.Int(2))
	if !value.Equal(val, want) {
		t.Errorf("expected [1 2], got %s", value.PrintString(val))
	}
}

func TestLoopRecur(t *testing.T) {
	val, _ := mustCompile(t, "(loop [x 0] (if (erlang/< x 5) (recur (erlang/+ x 1)) x))")
	if !value.Equal(val, value.Int(5)) {
		t.Errorf("expected 5, got %s", value.PrintString(val))
	}
}

func TestTopLevelDoFlattens(t *testing.T) {
	val, _ := mustCompile(t, "(do (ns ex) (def a 1) a)")
	if !value.Equal(val, value.Int(1)) {
		t.Errorf("expected 1, got %s", value.PrintString(val))
	}
}

func TestProtocolDispatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.compiler")
	defer teardown()
	//
	val, c := mustCompile(t, `(ns ex)
		(defprotocol P (m [x]))
		(deftype T [] P (m [_] 42))
		(m (T.))`)
	if !value.Equal(val, value.Int(42)) {
		t.Errorf("expected 42, got %s", value.PrintString(val))
	}
	// the protocol module was produced
	found := false
	for _, a := range c.Artifacts() {
		if a.Module == "ex.P" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected protocol module artifact ex.P")
	}
}

func TestProtocolFields(t *testing.T) {
	val, _ := mustCompile(t, `(ns ex)
		(defprotocol P (m [x]))
		(deftype T [a] P (m [_] a))
		(m (T. 7))`)
	if !value.Equal(val, value.Int(7)) {
		t.Errorf("fields must be visible in method bodies, got %s", value.PrintString(val))
	}
}

func TestProtocolPrimitiveExtension(t *testing.T) {
	val, _ := mustCompile(t, `(ns ex)
		(defprotocol P (m [x]))
		(extend-type :integer P (m [x] (erlang/* x 2)))
		(m 21)`)
	if !value.Equal(val, value.Int(42)) {
		t.Errorf("expected 42 via :integer clause, got %s", value.PrintString(val))
	}
}

func TestNotImplemented(t *testing.T) {
	_, _, err := compileSrc(t, `(ns ex)
		(defprotocol P (m [x]))
		(m 5)`)
	if clove.KindOf(err) != clove.NotImplemented {
		t.Errorf("expected NotImplemented, got %v", err)
	}
}

func TestMacroExpansion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.compiler")
	defer teardown()
	//
	val, _ := mustCompile(t, `(ns ex)
		(def ^:macro unless (fn [test then] (clojure.core/list 'if test nil then)))
		(unless false 42)`)
	if !value.Equal(val, value.Int(42)) {
		t.Errorf("expected 42 from macro expansion, got %s", value.PrintString(val))
	}
}

func TestDynamicVarSetBang(t *testing.T) {
	val, _ := mustCompile(t, "(ns ex) (def ^:dynamic *v* 1) (set! *v* 5) *v*")
	if !value.Equal(val, value.Int(5)) {
		t.Errorf("expected 5 after set!, got %s", value.PrintString(val))
	}
}

func TestThrowCatch(t *testing.T) {
	val, _ := mustCompile(t, "(try (throw 1) (catch :throw e (erlang/+ e 1)))")
	if !value.Equal(val, value.Int(2)) {
		t.Errorf("expected 2, got %s", value.PrintString(val))
	}
	val, _ = mustCompile(t, "(try 10 (catch :default e 0) (finally 99))")
	if !value.Equal(val, value.Int(10)) {
		t.Errorf("expected 10, got %s", value.PrintString(val))
	}
}

func TestNamespaceMonotonicity(t *testing.T) {
	c := NewCompiler(DefaultConfig())
	counts := []int{c.Registry().VarCount()}
	for _, src := range []string{"(ns ex)", "(def a 1)", "(def b 2)", "(def a 3)"} {
		if _, err := c.CompileString(src, "test.clj"); err != nil {
			t.Fatalf("compiling %q: %v", src, err)
		}
		counts = append(counts, c.Registry().VarCount())
	}
	for i := 1; i < len(counts); i++ {
		if counts[i] < counts[i-1] {
			t.Errorf("Var count shrank during batch: %v", counts)
		}
	}
}

func TestErrorsCarryPosition(t *testing.T) {
	_, c, err := compileSrc(t, "\n  nope")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if clove.KindOf(err) != clove.UnresolvedSymbol {
		t.Fatalf("expected UnresolvedSymbol, got %v", err)
	}
	diags := c.Diagnostics()
	if len(diags) == 0 {
		t.Fatalf("error must surface as a diagnostic")
	}
	last := diags[len(diags)-1]
	if last.Pos.Line != 2 || last.Pos.Col != 3 {
		t.Errorf("diagnostic should carry file:line:col, got %v", last.Pos)
	}
}

func TestCompileFilesWritesBytecode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.compiler")
	defer teardown()
	//
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.CompilePath = filepath.Join(dir, "ebin")
	cfg.CompileProtocolsPath = filepath.Join(dir, "protocols")
	cfg.CompileFiles = true
	c := NewCompiler(cfg)
	_, err := c.CompileString(`(ns ex)
		(def x 1)
		(defprotocol P (m [x]))`, "test.clj")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var sawModule, sawProtocol bool
	for _, a := range c.Artifacts() {
		if a.Path == "" {
			continue
		}
		if _, err := os.Stat(a.Path); err != nil {
			t.Errorf("artifact %s not written: %v", a.Path, err)
		}
		if a.Module == "ex" && filepath.Dir(a.Path) == cfg.CompilePath {
			sawModule = true
		}
		if a.Module == "ex.P" && filepath.Dir(a.Path) == cfg.CompileProtocolsPath {
			sawProtocol = true
		}
	}
	if !sawModule {
		t.Errorf("ordinary module must land below compile_path")
	}
	if !sawProtocol {
		t.Errorf("protocol module must land below compile_protocols_path")
	}
}

func TestCompilePathUnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CompileFiles = true
	c := NewCompiler(cfg)
	_, err := c.CompileString("(ns ex) (def x 1)", "test.clj")
	if clove.KindOf(err) != clove.CompilePathUnset {
		t.Errorf("expected CompilePathUnset, got %v", err)
	}
}

func TestLastValueInEnvSlot(t *testing.T) {
	_, c := mustCompile(t, "17")
	if v, ok := c.Env().Eval.(value.Value); !ok || !value.Equal(v, value.Int(17)) {
		t.Errorf("Env.Eval must hold the last value, got %v", c.Env().Eval)
	}
}
