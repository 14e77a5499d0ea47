package analyzer

import (
	"testing"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/ast"
	"github.com/npillmayer/clove/reader"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type fixture struct {
	a   *Analyzer
	env *runtime.Env
}

func newFixture() *fixture {
	reg := runtime.NewRegistry()
	return &fixture{
		a:   New(reg),
		env: runtime.NewEnv(reg, "user"),
	}
}

func (fx *fixture) analyze(t *testing.T, src string) (ast.Node, error) {
	t.Helper()
	rd := reader.FromString(src, reader.Opts{})
	form, err := rd.ReadOne()
	if err != nil {
		t.Fatalf("reading %q: %v", src, err)
	}
	node, env, err := fx.a.Analyze(form, fx.env)
	if err == nil {
		fx.env = env
	}
	return node, err
}

func (fx *fixture) mustAnalyze(t *testing.T, src string) ast.Node {
	t.Helper()
	node, err := fx.analyze(t, src)
	if err != nil {
		t.Fatalf("analyzing %q: %v", src, err)
	}
	return node
}

func TestConstants(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.analyzer")
	defer teardown()
	//
	fx := newFixture()
	node := fx.mustAnalyze(t, "42")
	c, ok := node.(*ast.ConstantNode)
	if !ok || !value.Equal(c.Val, value.Int(42)) {
		t.Errorf("expected constant 42, got %v", node.Op())
	}
	// constant collections fold to constants
	node = fx.mustAnalyze(t, "[1 2 3]")
	if node.Op() != ast.Constant {
		t.Errorf("constant vector should fold, got %s", node.Op())
	}
	// non-constant collections stay structural
	fx.mustAnalyze(t, "(def x 1)")
	node = fx.mustAnalyze(t, "[x]")
	if node.Op() != ast.Vector {
		t.Errorf("expected vector node, got %s", node.Op())
	}
}

func TestUnresolvedSymbol(t *testing.T) {
	fx := newFixture()
	_, err := fx.analyze(t, "nope")
	if clove.KindOf(err) != clove.UnresolvedSymbol {
		t.Errorf("expected UnresolvedSymbol, got %v", err)
	}
}

func TestDefInternsVar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.analyzer")
	defer teardown()
	//
	fx := newFixture()
	node := fx.mustAnalyze(t, "(def x 1)")
	def, ok := node.(*ast.DefNode)
	if !ok {
		t.Fatalf("expected def node, got %s", node.Op())
	}
	if def.Var == nil || def.Var.NS != "user" || def.Var.Name != "x" {
		t.Errorf("def did not intern user/x")
	}
	// the Var is now resolvable
	node = fx.mustAnalyze(t, "x")
	if node.Op() != ast.VarRef {
		t.Errorf("expected var reference, got %s", node.Op())
	}
}

func TestNamespaceSwitch(t *testing.T) {
	fx := newFixture()
	fx.mustAnalyze(t, "(ns ex)")
	if fx.env.CurrentNS() != "ex" {
		t.Fatalf("expected current ns ex, got %s", fx.env.CurrentNS())
	}
	fx.mustAnalyze(t, "(def x 1)")
	if fx.a.reg.Find("ex").FindIntern("x") == nil {
		t.Errorf("def after ns must intern into ex")
	}
}

func TestFnArities(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.analyzer")
	defer teardown()
	//
	fx := newFixture()
	node := fx.mustAnalyze(t, "(fn ([x] x) ([x y] [x y]))")
	fn, ok := node.(*ast.FnNode)
	if !ok {
		t.Fatalf("expected fn node, got %s", node.Op())
	}
	if fn.Variadic {
		t.Errorf("fn is not variadic")
	}
	if fn.MinFixedArity != 1 || fn.MaxFixedArity != 2 {
		t.Errorf("expected fixed arities [1 2], got min=%d max=%d",
			fn.MinFixedArity, fn.MaxFixedArity)
	}
	if len(fn.Methods) != 2 {
		t.Errorf("expected 2 methods")
	}
}

func TestDuplicateArity(t *testing.T) {
	fx := newFixture()
	_, err := fx.analyze(t, "(fn ([x] x) ([y] y))")
	if clove.KindOf(err) != clove.DuplicateArity {
		t.Errorf("expected DuplicateArity, got %v", err)
	}
}

func TestMultipleVariadic(t *testing.T) {
	fx := newFixture()
	_, err := fx.analyze(t, "(fn ([& xs] xs) ([x & ys] ys))")
	if clove.KindOf(err) != clove.MultipleVariadic {
		t.Errorf("expected MultipleVariadic, got %v", err)
	}
}

func TestInvalidVariadicArity(t *testing.T) {
	fx := newFixture()
	_, err := fx.analyze(t, "(fn ([x y] x) ([& xs] xs))")
	if clove.KindOf(err) != clove.InvalidVariadicArity {
		t.Errorf("expected InvalidVariadicArity, got %v", err)
	}
}

func TestRecurNotInTailPosition(t *testing.T) {
	fx := newFixture()
	// the let body is tail, but there is no enclosing loop target
	_, err := fx.analyze(t, "(let [x 1] (recur x))")
	if clove.KindOf(err) != clove.RecurNotInTailPosition {
		t.Errorf("expected RecurNotInTailPosition, got %v", err)
	}
	// recur in a non-tail position inside a loop
	fx = newFixture()
	_, err = fx.analyze(t, "(loop [x 0] (if (recur x) 1 2))")
	if clove.KindOf(err) != clove.RecurNotInTailPosition {
		t.Errorf("expected RecurNotInTailPosition for test position, got %v", err)
	}
}

func TestRecurArityMismatch(t *testing.T) {
	fx := newFixture()
	_, err := fx.analyze(t, "(loop [x 0] (recur 1 2))")
	if clove.KindOf(err) != clove.RecurArityMismatch {
		t.Errorf("expected RecurArityMismatch, got %v", err)
	}
}

func TestRecurInLoopTail(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.analyzer")
	defer teardown()
	//
	fx := newFixture()
	node := fx.mustAnalyze(t, "(loop [x 0] (if x x (recur x)))")
	loop, ok := node.(*ast.LetNode)
	if !ok || !loop.IsLoop {
		t.Fatalf("expected loop node")
	}
	iff, ok := loop.Body.(*ast.IfNode)
	if !ok {
		t.Fatalf("expected if body")
	}
	rec, ok := iff.Else.(*ast.RecurNode)
	if !ok {
		t.Fatalf("expected recur in else branch")
	}
	if rec.LoopID != loop.LoopID {
		t.Errorf("recur must target the enclosing loop id")
	}
}

func TestRecurInFnMethod(t *testing.T) {
	fx := newFixture()
	node := fx.mustAnalyze(t, "(fn [x] (recur x))")
	fn := node.(*ast.FnNode)
	if len(fn.Methods) != 1 {
		t.Fatalf("expected one method")
	}
	// recur targets the method's own loop id
	rec, ok := fn.Methods[0].Body.(*ast.RecurNode)
	if !ok || rec.LoopID != fn.Methods[0].LoopID {
		t.Errorf("recur must target the method loop id")
	}
}

func TestShadowingProducesDistinctLocals(t *testing.T) {
	fx := newFixture()
	node := fx.mustAnalyze(t, "(let [x 1 x [x]] x)")
	let := node.(*ast.LetNode)
	if len(let.Bindings) != 2 {
		t.Fatalf("expected 2 bindings")
	}
	if let.Bindings[0].Local.ID == let.Bindings[1].Local.ID {
		t.Errorf("shadowing binding must get a fresh id")
	}
	vec := let.Bindings[1].Init.(*ast.VectorNode)
	local := vec.Items[0].(*ast.LocalNode)
	if local.Binding != let.Bindings[0].Local {
		t.Errorf("init of the shadowing binding must see the outer binding")
	}
}

func TestQuoteYieldsConstant(t *testing.T) {
	fx := newFixture()
	node := fx.mustAnalyze(t, "'(f x)")
	q, ok := node.(*ast.QuoteNode)
	if !ok {
		t.Fatalf("expected quote node, got %s", node.Op())
	}
	if q.Expr.Val.Kind() != value.ListKind {
		t.Errorf("quoted form must stay a list")
	}
}

func TestTrySyntax(t *testing.T) {
	fx := newFixture()
	node := fx.mustAnalyze(t, "(try 1 (catch :error e e) (catch :default e 0) (finally 2))")
	try := node.(*ast.TryNode)
	if len(try.Catches) != 2 {
		t.Errorf("expected 2 catches")
	}
	if try.Finally == nil {
		t.Errorf("expected finally body")
	}
	if try.Catches[0].Local == nil {
		t.Errorf("catch binding missing")
	}
}

func TestSetBangRequiresDynamic(t *testing.T) {
	fx := newFixture()
	fx.mustAnalyze(t, "(def x 1)")
	_, err := fx.analyze(t, "(set! x 2)")
	if clove.KindOf(err) != clove.BadSpecialForm {
		t.Errorf("set! on a non-dynamic var must fail, got %v", err)
	}
	fx.mustAnalyze(t, "(def ^:dynamic *y* 1)")
	if _, err := fx.analyze(t, "(set! *y* 2)"); err != nil {
		t.Errorf("set! on a dynamic var should analyze, got %v", err)
	}
}

func TestDefProtocolRegisters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.analyzer")
	defer teardown()
	//
	fx := newFixture()
	fx.mustAnalyze(t, "(ns ex)")
	node := fx.mustAnalyze(t, "(defprotocol P (m [x]))")
	dp := node.(*ast.DefProtocolNode)
	if dp.Name.Name != "ex.P" {
		t.Errorf("protocol name should be qualified, got %s", dp.Name)
	}
	proto := fx.a.reg.FindProtocol("ex.P")
	if proto == nil || len(proto.Methods) != 1 {
		t.Fatalf("protocol not registered")
	}
	// the method is now a callable Var
	if fx.a.reg.Find("ex").FindIntern("m") == nil {
		t.Errorf("protocol method must be interned as a Var")
	}
}

func TestDefTypeAndExtend(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clove.analyzer")
	defer teardown()
	//
	fx := newFixture()
	fx.mustAnalyze(t, "(ns ex)")
	fx.mustAnalyze(t, "(defprotocol P (m [x]))")
	node := fx.mustAnalyze(t, "(deftype T [a] P (m [this] a))")
	dt := node.(*ast.DefTypeNode)
	if dt.Name.Name != "ex.T" {
		t.Errorf("type name should be qualified, got %s", dt.Name)
	}
	if len(dt.Methods) != 1 || dt.Methods[0].Protocol.Name != "ex.P" {
		t.Fatalf("method not attributed to protocol")
	}
	proto := fx.a.reg.FindProtocol("ex.P")
	types := proto.Types()
	if len(types) != 1 || types[0] != "ex.T" {
		t.Errorf("deftype must extend the protocol, got %v", types)
	}
	// extend onto a primitive
	fx.mustAnalyze(t, "(extend-type :integer P (m [x] x))")
	if !proto.HasPrim("integer") {
		t.Errorf("extend-type :integer must register the primitive")
	}
	// method arity must match a declared arity
	_, err := fx.analyze(t, "(extend-type :float P (m [x y] x))")
	if err == nil {
		t.Errorf("arity-mismatched method implementation must fail")
	}
}

func TestNewRequiresKnownType(t *testing.T) {
	fx := newFixture()
	_, err := fx.analyze(t, "(new T)")
	if clove.KindOf(err) != clove.UnresolvedSymbol {
		t.Errorf("expected UnresolvedSymbol for unknown type, got %v", err)
	}
}

func TestCtorSugar(t *testing.T) {
	fx := newFixture()
	fx.mustAnalyze(t, "(ns ex)")
	fx.mustAnalyze(t, "(deftype T [])")
	node := fx.mustAnalyze(t, "(T.)")
	if node.Op() != ast.New {
		t.Errorf("expected new node from (T.), got %s", node.Op())
	}
}

func TestHostInterop(t *testing.T) {
	fx := newFixture()
	node := fx.mustAnalyze(t, "(. lists reverse [1 2])")
	inv := node.(*ast.InvokeNode)
	ef, ok := inv.Target.(*ast.ErlFunNode)
	if !ok || ef.Module != "lists" || ef.Function != "reverse" {
		t.Fatalf("dot form must target a host function, got %#v", inv.Target)
	}
	// qualified symbol on an unknown namespace is a host fun reference
	node = fx.mustAnalyze(t, "(erlang/node)")
	inv = node.(*ast.InvokeNode)
	if ef, ok := inv.Target.(*ast.ErlFunNode); !ok || ef.Module != "erlang" {
		t.Errorf("expected erl fun target")
	}
}

func TestSymbolAsErlFunWarning(t *testing.T) {
	fx := newFixture()
	var warned []string
	fx.a.Warn = func(pos clove.Pos, msg string) {
		warned = append(warned, msg)
	}
	fx.mustAnalyze(t, "(erlang/node)")
	if len(warned) != 1 {
		t.Fatalf("expected one warning, got %v", warned)
	}
	fx.a.NoWarnSymbolAsErlFun = true
	warned = nil
	fx.mustAnalyze(t, "(erlang/self)")
	if len(warned) != 0 {
		t.Errorf("suppressed warning still fired")
	}
}

func TestTopDoSplit(t *testing.T) {
	rd := reader.FromString("(do (def a 1) a)", reader.Opts{})
	form, _ := rd.ReadOne()
	children, ok := SplitTopDo(form)
	if !ok || len(children) != 2 {
		t.Errorf("top-level do must split into children")
	}
}

func TestReceiveClauses(t *testing.T) {
	fx := newFixture()
	node := fx.mustAnalyze(t, "(receive* (msg msg) (after 100 :timeout))")
	recv := node.(*ast.ReceiveNode)
	if len(recv.Clauses) != 1 || recv.After == nil {
		t.Fatalf("expected one clause and an after arm")
	}
	if _, ok := recv.Clauses[0].Pattern.(*ast.ErlAliasNode); !ok {
		t.Errorf("symbol pattern must bind")
	}
}

func TestMonitorFormsAnalyzeToNil(t *testing.T) {
	fx := newFixture()
	fx.mustAnalyze(t, "(def x 1)")
	node := fx.mustAnalyze(t, "(monitor-enter x)")
	do, ok := node.(*ast.DoNode)
	if !ok || do.Ret.Op() != ast.Constant {
		t.Errorf("monitor-enter should lower to a nil-returning do")
	}
}
