package emitter

import (
	"testing"

	"github.com/npillmayer/clove/analyzer"
	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/reader"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type fixture struct {
	reg  *runtime.Registry
	a    *analyzer.Analyzer
	env  *runtime.Env
	mctx *ModuleContext
	em   *Emitter
}

func newFixture() *fixture {
	reg := runtime.NewRegistry()
	mctx := NewModuleContext()
	return &fixture{
		reg:  reg,
		a:    analyzer.New(reg),
		env:  runtime.NewEnv(reg, "user"),
		mctx: mctx,
		em:   New(reg, mctx),
	}
}

func (fx *fixture) emit(t *testing.T, src string) []coreir.Expr {
	t.Helper()
	rd := reader.FromString(src, reader.Opts{})
	var exprs []coreir.Expr
	for {
		form, err := rd.ReadOne()
		if err != nil {
			return exprs
		}
		node, env, err := fx.a.Analyze(form, fx.env)
		if err != nil {
			t.Fatalf("analyzing %q: %v", src, err)
		}
		fx.env = env
		out, err := fx.em.Emit(node, env)
		if err != nil {
			t.Fatalf("emitting %q: %v", src, err)
		}
		exprs = append(exprs, out...)
	}
}

func (fx *fixture) modules() map[string]*coreir.Module {
	out := make(map[string]*coreir.Module)
	for _, m := range fx.mctx.Flush() {
		out[m.Name] = m
	}
	return out
}

func TestIfLowersToTruthinessCase(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.emitter")
	defer teardown()
	//
	fx := newFixture()
	exprs := fx.emit(t, "(if true 1 2)")
	if len(exprs) != 1 {
		t.Fatalf("expected one expression")
	}
	cse, ok := exprs[0].(coreir.Case)
	if !ok {
		t.Fatalf("expected case, got %T", exprs[0])
	}
	if len(cse.Clauses) != 3 {
		t.Fatalf("expected false/nil/wild clauses, got %d", len(cse.Clauses))
	}
	if _, ok := cse.Clauses[2].Patterns[0].(coreir.PWild); !ok {
		t.Errorf("catch-all clause must be last")
	}
}

func TestLoopBecomesLetRec(t *testing.T) {
	fx := newFixture()
	exprs := fx.emit(t, "(loop [x 1] (if x x (recur x)))")
	lr, ok := exprs[0].(coreir.LetRec)
	if !ok {
		t.Fatalf("expected letrec, got %T", exprs[0])
	}
	if len(lr.Defs) != 1 || lr.Defs[0].Arity != 1 {
		t.Fatalf("expected one loop fun of arity 1")
	}
	app, ok := lr.Body.(coreir.Apply)
	if !ok {
		t.Fatalf("loop body must apply the loop fun")
	}
	ref, ok := app.Fn.(coreir.FnRef)
	if !ok || ref.Name != lr.Defs[0].Name {
		t.Errorf("loop entry must call the letrec fun")
	}
}

func TestDefHoistsFn(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.emitter")
	defer teardown()
	//
	fx := newFixture()
	fx.emit(t, "(ns ex) (def f (fn ([x] x) ([x y] y)))")
	mods := fx.modules()
	ex := mods["ex"]
	if ex == nil {
		t.Fatalf("expected module ex")
	}
	if _, ok := ex.Lookup("f", 1); !ok {
		t.Errorf("missing f/1")
	}
	if _, ok := ex.Lookup("f", 2); !ok {
		t.Errorf("missing f/2")
	}
	v := fx.reg.Find("ex").FindIntern("f")
	if v == nil || v.FnInfo() == nil {
		t.Fatalf("Var must carry fn info")
	}
	if !v.FnInfo().HasArity(1) || !v.FnInfo().HasArity(2) {
		t.Errorf("fn info must record both arities")
	}
}

func TestKnownCallCompilesDirect(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(ns ex) (def f (fn [x] x))")
	exprs := fx.emit(t, "(f 1)")
	call, ok := exprs[0].(coreir.Call)
	if !ok || call.Module != "ex" || call.Function != "f" {
		t.Errorf("call with known arity must be direct, got %#v", exprs[0])
	}
	// unknown arity goes through the function-value protocol
	exprs = fx.emit(t, "(f 1 2 3)")
	call, ok = exprs[0].(coreir.Call)
	if !ok || call.Module != "clove.fn" || call.Function != "apply" {
		t.Errorf("call with unknown arity must be dynamic, got %#v", exprs[0])
	}
}

func TestVariadicDirectCall(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(ns ex) (def g (fn [x & ys] ys))")
	exprs := fx.emit(t, "(g 1 2 3)")
	call, ok := exprs[0].(coreir.Call)
	if !ok || call.Module != "ex" || call.Function != "g" {
		t.Fatalf("expected direct variadic call, got %#v", exprs[0])
	}
	if len(call.Args) != 2 {
		t.Fatalf("variadic call packs rest args, got %d args", len(call.Args))
	}
	if _, ok := call.Args[1].(coreir.ListExpr); !ok {
		t.Errorf("rest args must travel as a list")
	}
}

func TestNonLiteralConstantIsLifted(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.emitter")
	defer teardown()
	//
	fx := newFixture()
	fx.emit(t, "(ns ex)")
	exprs := fx.emit(t, "'(1 2 3)")
	call, ok := exprs[0].(coreir.Call)
	if !ok || call.Module != "ex" {
		t.Fatalf("lifted constant must be fetched from the module, got %#v", exprs[0])
	}
	mods := fx.modules()
	if _, ok := mods["ex"].Lookup(call.Function, 0); !ok {
		t.Errorf("module must hold the constant initializer %s", call.Function)
	}
}

func TestConstantPooling(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(ns ex)")
	a := fx.emit(t, "'(1 2)")
	b := fx.emit(t, "'(1 2)")
	ca := a[0].(coreir.Call)
	cb := b[0].(coreir.Call)
	if ca.Function != cb.Function {
		t.Errorf("equal constants must share one initializer: %s vs %s", ca.Function, cb.Function)
	}
}

func TestMultiArityFnDispatcher(t *testing.T) {
	fx := newFixture()
	exprs := fx.emit(t, "(fn ([x] x) ([x y] y))")
	fun, ok := exprs[0].(coreir.Fun)
	if !ok || !fun.Dispatch {
		t.Fatalf("multi-arity fn must emit a dispatcher, got %#v", exprs[0])
	}
	cse, ok := fun.Body.(coreir.Case)
	if !ok {
		t.Fatalf("dispatcher body must be a case")
	}
	// one clause per arity plus the badarity catch-all
	if len(cse.Clauses) != 3 {
		t.Errorf("expected 3 clauses, got %d", len(cse.Clauses))
	}
}

func TestDefTypeModule(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.emitter")
	defer teardown()
	//
	fx := newFixture()
	fx.emit(t, "(ns ex) (defprotocol P (m [x])) (deftype T [a] P (m [this] a))")
	mods := fx.modules()
	tmod := mods["ex.T"]
	if tmod == nil {
		t.Fatalf("expected type module ex.T")
	}
	if _, ok := tmod.Lookup("__new__", 1); !ok {
		t.Errorf("type module must export its constructor")
	}
	impl := mods["ex.P@ex.T"]
	if impl == nil {
		t.Fatalf("expected impl module ex.P@ex.T")
	}
	if _, ok := impl.Lookup("m", 1); !ok {
		t.Errorf("impl module must hold the method body")
	}
}

func TestTupleAndErlConstructs(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(def x 1)")
	exprs := fx.emit(t, "#erl/tuple [x 2]")
	if _, ok := exprs[0].(coreir.Tuple); !ok {
		t.Errorf("expected tuple expression, got %T", exprs[0])
	}
	exprs = fx.emit(t, "#erl/map {:a x}")
	if _, ok := exprs[0].(coreir.MapExpr); !ok {
		t.Errorf("expected map expression, got %T", exprs[0])
	}
}

func TestThrowAndTry(t *testing.T) {
	fx := newFixture()
	exprs := fx.emit(t, "(try (throw 1) (catch :throw e e))")
	try, ok := exprs[0].(coreir.Try)
	if !ok {
		t.Fatalf("expected try, got %T", exprs[0])
	}
	handler, ok := try.Handler.(coreir.Case)
	if !ok {
		t.Fatalf("handler must dispatch on the raised triple")
	}
	// the catch clause plus the propagating fallback
	if len(handler.Clauses) != 2 {
		t.Errorf("expected 2 handler clauses, got %d", len(handler.Clauses))
	}
}

func TestOnLoadAccumulates(t *testing.T) {
	fx := newFixture()
	fx.emit(t, "(ns ex) (def x 1) (on-load* x)")
	mods := fx.modules()
	if len(mods["ex"].OnLoad) != 1 {
		t.Errorf("on-load body must accumulate on the module")
	}
}
