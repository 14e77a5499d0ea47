package analyzer

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"strings"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/ast"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

// specialFn analyzes one special form.
type specialFn func(a *Analyzer, l *value.List, env *runtime.Env, tail bool) (ast.Node, error)

// specialForms is the fixed dispatch table. Special forms are never
// macro-expanded, even if a macro of the same name is visible.
var specialForms map[string]specialFn

func init() {
	specialForms = map[string]specialFn{
		"def":           (*Analyzer).analyzeDef,
		"if":            (*Analyzer).analyzeIf,
		"do":            (*Analyzer).analyzeDo,
		"let*":          (*Analyzer).analyzeLet,
		"loop*":         (*Analyzer).analyzeLoop,
		"recur":         (*Analyzer).analyzeRecur,
		"fn*":           (*Analyzer).analyzeFnForm,
		"letfn*":        (*Analyzer).analyzeLetFn,
		"quote":         (*Analyzer).analyzeQuote,
		"var":           (*Analyzer).analyzeVar,
		"throw":         (*Analyzer).analyzeThrow,
		"try":           (*Analyzer).analyzeTry,
		"catch":         (*Analyzer).analyzeStrayCatch,
		"finally":       (*Analyzer).analyzeStrayCatch,
		"new":           (*Analyzer).analyzeNew,
		".":             (*Analyzer).analyzeDot,
		"set!":          (*Analyzer).analyzeSetBang,
		"case*":         (*Analyzer).analyzeCase,
		"reify*":        (*Analyzer).analyzeReify,
		"deftype*":      (*Analyzer).analyzeDefType,
		"deftype":       (*Analyzer).analyzeDefType,
		"defprotocol":   (*Analyzer).analyzeDefProtocol,
		"extend-type":   (*Analyzer).analyzeExtendType,
		"import*":       (*Analyzer).analyzeImport,
		"monitor-enter": (*Analyzer).analyzeMonitor,
		"monitor-exit":  (*Analyzer).analyzeMonitor,
		"receive*":      (*Analyzer).analyzeReceive,
		"on-load*":      (*Analyzer).analyzeOnLoad,
	}
	// surface aliases; the starred names are what macros expand to, the
	// bare names keep hand-written sources readable without a macro layer
	specialForms["fn"] = specialForms["fn*"]
	specialForms["let"] = specialForms["let*"]
	specialForms["loop"] = specialForms["loop*"]
	specialForms["letfn"] = specialForms["letfn*"]
	specialForms["case"] = specialForms["case*"]
	specialForms["receive"] = specialForms["receive*"]
	specialForms["import"] = specialForms["import*"]
	specialForms["on-load"] = specialForms["on-load*"]
}

func badForm(l *value.List, format string, args ...interface{}) error {
	return clove.E(clove.BadSpecialForm, l.Pos(), format, args...)
}

// --- do, if ------------------------------------------------------------------

func (a *Analyzer) analyzeDo(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	body := l.Rest().Slice()
	return a.analyzeBody(l, body, env, tail)
}

// analyzeBody lowers a body sequence to a do node: statements in non-tail
// position, the trailing form inheriting tail.
func (a *Analyzer) analyzeBody(form value.Value, body []value.Value, env *runtime.Env, tail bool) (ast.Node, error) {
	if len(body) == 0 {
		n := &ast.ConstantNode{Val: value.NilV}
		n.At(form, env)
		return n, nil
	}
	if len(body) == 1 {
		return a.analyze(body[0], env, tail)
	}
	node := &ast.DoNode{}
	node.At(form, env)
	for _, stmt := range body[:len(body)-1] {
		n, err := a.analyze(stmt, env, false)
		if err != nil {
			return nil, err
		}
		node.Statements = append(node.Statements, n)
	}
	ret, err := a.analyze(body[len(body)-1], env, tail)
	if err != nil {
		return nil, err
	}
	node.Ret = ret
	return node, nil
}

func (a *Analyzer) analyzeIf(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	n := l.Length()
	if n < 3 || n > 4 {
		return nil, badForm(l, "if expects 2 or 3 arguments, got %d", n-1)
	}
	test, err := a.analyze(l.Cadr(), env, false)
	if err != nil {
		return nil, err
	}
	then, err := a.analyze(l.Caddr(), env, tail)
	if err != nil {
		return nil, err
	}
	var els ast.Node
	if n == 4 {
		if els, err = a.analyze(l.Nth(3), env, tail); err != nil {
			return nil, err
		}
	} else {
		c := &ast.ConstantNode{Val: value.NilV}
		c.At(l, env)
		els = c
	}
	node := &ast.IfNode{Test: test, Then: then, Else: els}
	node.At(l, env)
	return node, nil
}

// --- let*, loop*, recur ------------------------------------------------------

func (a *Analyzer) analyzeLet(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	return a.analyzeLetLike(l, env, tail, false)
}

func (a *Analyzer) analyzeLoop(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	return a.analyzeLetLike(l, env, tail, true)
}

func (a *Analyzer) analyzeLetLike(l *value.List, env *runtime.Env, tail bool, isLoop bool) (ast.Node, error) {
	bvec, ok := l.Cadr().(*value.Vector)
	if !ok {
		return nil, badForm(l, "%s expects a binding vector", l.Car)
	}
	if bvec.Count()%2 != 0 {
		return nil, badForm(l, "binding vector must contain an even number of forms")
	}
	kind := runtime.LetBinding
	if isLoop {
		kind = runtime.LoopBinding
	}
	body := l.Cddr().Slice()
	benv := env.PushFrame("let")
	var bindings []*ast.BindingNode
	for i := 0; i < bvec.Count(); i += 2 {
		name, ok := bvec.Nth(i).(*value.Symbol)
		if !ok || name.IsQualified() {
			return nil, badForm(l, "binding name must be an unqualified symbol, got %s",
				value.PrintString(bvec.Nth(i)))
		}
		init, err := a.analyze(bvec.Nth(i+1), benv, false)
		if err != nil {
			return nil, err
		}
		lb := runtime.NewLocalBinding(name, kind)
		benv.Define(lb)
		bn := &ast.BindingNode{Name: name, Local: lb, Init: init}
		bn.At(name, benv)
		bindings = append(bindings, bn)
	}
	node := &ast.LetNode{IsLoop: isLoop, Bindings: bindings}
	node.At(l, env)
	if isLoop {
		node.LoopID = runtime.FreshLoopID("loop")
		benv = benv.WithLoop(node.LoopID, len(bindings))
		tail = true
	}
	bodyNode, err := a.analyzeBody(l, body, benv, tail)
	if err != nil {
		return nil, err
	}
	node.Body = bodyNode
	return node, nil
}

func (a *Analyzer) analyzeRecur(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if !tail {
		return nil, clove.E(clove.RecurNotInTailPosition, l.Pos(), "recur not in tail position")
	}
	loopID, arity, ok := env.LoopTarget()
	if !ok {
		return nil, clove.E(clove.RecurNotInTailPosition, l.Pos(), "no enclosing recur target")
	}
	args := l.Rest().Slice()
	if len(args) != arity {
		return nil, clove.E(clove.RecurArityMismatch, l.Pos(),
			"recur with %d arguments, loop target expects %d", len(args), arity)
	}
	node := &ast.RecurNode{LoopID: loopID}
	node.At(l, env)
	for _, arg := range args {
		n, err := a.analyze(arg, env, false)
		if err != nil {
			return nil, err
		}
		node.Exprs = append(node.Exprs, n)
	}
	return node, nil
}

// --- quote, var --------------------------------------------------------------

func (a *Analyzer) analyzeQuote(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() != 2 {
		return nil, badForm(l, "quote expects exactly one argument")
	}
	c := a.constant(l.Cadr(), env)
	node := &ast.QuoteNode{Expr: c}
	node.At(l, env)
	return node, nil
}

func (a *Analyzer) analyzeVar(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	sym, ok := l.Cadr().(*value.Symbol)
	if !ok {
		return nil, badForm(l, "var expects a symbol")
	}
	v := a.reg.Resolve(env.Namespace(), sym)
	if v == nil {
		return nil, clove.E(clove.UnresolvedSymbol, sym.Pos(), "no such var: %s", sym.FullName())
	}
	node := &ast.VarNode{Var: v, Literal: true}
	node.At(l, env)
	return node, nil
}

// --- def ---------------------------------------------------------------------

func (a *Analyzer) analyzeDef(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	n := l.Length()
	if n < 2 || n > 4 {
		return nil, badForm(l, "def expects 1 to 3 arguments")
	}
	sym, ok := l.Cadr().(*value.Symbol)
	if !ok {
		return nil, badForm(l, "def name must be a symbol, got %s", value.PrintString(l.Cadr()))
	}
	if sym.IsQualified() && sym.NS != env.CurrentNS() {
		return nil, badForm(l, "cannot def %s outside its namespace", sym.FullName())
	}
	var doc string
	var initForm value.Value
	haveInit := false
	switch n {
	case 3:
		initForm = l.Caddr()
		haveInit = true
	case 4:
		ds, ok := l.Caddr().(value.String)
		if !ok {
			return nil, badForm(l, "def docstring must be a string")
		}
		doc = string(ds)
		initForm = l.Nth(3)
		haveInit = true
	}
	v := env.Namespace().Intern(sym.Name)
	if meta := sym.Meta(); meta != nil {
		v.SetMeta(meta)
	}
	dynamic := v.IsDynamic()
	if earmuffed(sym.Name) && !dynamic {
		if !a.NoWarnDynamicVarName && a.Warn != nil {
			a.Warn(sym.Pos(), sym.Name+" has earmuffs but is not declared :dynamic")
		}
	}
	node := &ast.DefNode{Name: sym, Var: v, Doc: doc, Dynamic: dynamic}
	node.At(l, env)
	if haveInit {
		// the init of a def is analyzed with recur targets masked
		init, err := a.analyze(initForm, env.NoRecur(), false)
		if err != nil {
			return nil, err
		}
		if fn, ok := init.(*ast.FnNode); ok && fn.Name == nil {
			fn.Name = sym
		}
		node.Init = init
	}
	return node, nil
}

func earmuffed(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "*") && strings.HasSuffix(name, "*")
}

// --- throw, try --------------------------------------------------------------

func (a *Analyzer) analyzeThrow(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() != 2 {
		return nil, badForm(l, "throw expects exactly one argument")
	}
	expr, err := a.analyze(l.Cadr(), env, false)
	if err != nil {
		return nil, err
	}
	node := &ast.ThrowNode{Expr: expr}
	node.At(l, env)
	return node, nil
}

func (a *Analyzer) analyzeStrayCatch(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	return nil, badForm(l, "%s used outside try", l.Car)
}

func (a *Analyzer) analyzeTry(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	node := &ast.TryNode{}
	node.At(l, env)
	tenv := env.InTry()
	var body []value.Value
	rest := l.Rest().Slice()
	for i, form := range rest {
		if isListHead(form, "catch") || isListHead(form, "finally") {
			rest = rest[i:]
			goto clauses
		}
		body = append(body, form)
	}
	rest = nil
clauses:
	bodyNode, err := a.analyzeBody(l, body, tenv, false)
	if err != nil {
		return nil, err
	}
	node.Body = bodyNode
	for i, form := range rest {
		if !isListHead(form, "catch") && !isListHead(form, "finally") {
			return nil, badForm(l, "only catch and finally clauses may follow the try body")
		}
		cl := form.(*value.List)
		if isListHead(form, "finally") {
			if i != len(rest)-1 {
				return nil, badForm(l, "finally must be the last try clause")
			}
			fin, err := a.analyzeBody(cl, cl.Rest().Slice(), tenv, false)
			if err != nil {
				return nil, err
			}
			node.Finally = fin
			continue
		}
		catch, err := a.analyzeCatch(cl, env, tail)
		if err != nil {
			return nil, err
		}
		node.Catches = append(node.Catches, catch)
	}
	return node, nil
}

// analyzeCatch lowers (catch Class binding body…) with an optional
// (catch Class binding :stack st body…) stacktrace binding.
func (a *Analyzer) analyzeCatch(l *value.List, env *runtime.Env, tail bool) (*ast.CatchNode, error) {
	if l.Length() < 3 {
		return nil, badForm(l, "catch expects a class and a binding")
	}
	class := l.Cadr()
	switch class.(type) {
	case *value.Symbol, value.Keyword:
	default:
		return nil, badForm(l, "catch class must be a symbol or :default")
	}
	bindSym, ok := l.Caddr().(*value.Symbol)
	if !ok || bindSym.IsQualified() {
		return nil, badForm(l, "catch binding must be an unqualified symbol")
	}
	cenv := env.PushFrame("catch")
	lb := runtime.NewLocalBinding(bindSym, runtime.CatchBinding)
	cenv.Define(lb)
	node := &ast.CatchNode{Class: class}
	node.At(l, env)
	bn := &ast.BindingNode{Name: bindSym, Local: lb}
	bn.At(bindSym, cenv)
	node.Local = bn
	body := l.Cddr().Rest().Slice()
	if len(body) >= 2 {
		if kw, ok := body[0].(value.Keyword); ok && kw.Name == "stack" {
			stSym, ok := body[1].(*value.Symbol)
			if !ok {
				return nil, badForm(l, "stacktrace binding must be a symbol")
			}
			slb := runtime.NewLocalBinding(stSym, runtime.CatchBinding)
			cenv.Define(slb)
			sn := &ast.BindingNode{Name: stSym, Local: slb}
			sn.At(stSym, cenv)
			node.Stack = sn
			body = body[2:]
		}
	}
	// catch bodies are tail positions
	bodyNode, err := a.analyzeBody(l, body, cenv, tail)
	if err != nil {
		return nil, err
	}
	node.Body = bodyNode
	return node, nil
}

func isListHead(form value.Value, name string) bool {
	l, ok := form.(*value.List)
	if !ok || l.IsEmpty() {
		return false
	}
	sym, ok := l.Car.(*value.Symbol)
	return ok && !sym.IsQualified() && sym.Name == name
}

// --- host interop ------------------------------------------------------------

func (a *Analyzer) analyzeNew(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() < 2 {
		return nil, badForm(l, "new expects a type name")
	}
	sym, ok := l.Cadr().(*value.Symbol)
	if !ok {
		return nil, badForm(l, "new expects a type symbol")
	}
	qualified := a.qualifyType(sym, env)
	if imp := env.Namespace().FindImport(sym.Name); imp != nil {
		qualified = imp.Name
	}
	if a.reg.FindTypeInfo(qualified) == nil {
		return nil, clove.E(clove.UnresolvedSymbol, sym.Pos(), "unknown type: %s", sym.FullName())
	}
	node := &ast.NewNode{TypeName: value.Sym(qualified)}
	node.At(l, env)
	for _, arg := range l.Cddr().Slice() {
		n, err := a.analyze(arg, env, false)
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, n)
	}
	return node, nil
}

// analyzeDot lowers (. target method args…) and (. target (method args…))
// to an invocation of the host function target:method.
func (a *Analyzer) analyzeDot(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() < 3 {
		return nil, badForm(l, "malformed host interop form")
	}
	target, ok := l.Cadr().(*value.Symbol)
	if !ok {
		return nil, badForm(l, "host interop target must be a symbol")
	}
	method := l.Caddr()
	args := l.Cddr().Rest().Slice()
	if ml, ok := method.(*value.List); ok && !ml.IsEmpty() {
		method = ml.Car
		args = ml.Rest().Slice()
	}
	msym, ok := method.(*value.Symbol)
	if !ok {
		return nil, badForm(l, "host interop method must be a symbol")
	}
	module := target.Name
	if ti := a.reg.FindTypeInfo(a.qualifyType(target, env)); ti != nil {
		module = ti.Module
	}
	ef := &ast.ErlFunNode{Module: module, Function: msym.Name, Arity: len(args)}
	ef.At(l, env)
	node := &ast.InvokeNode{Target: ef}
	node.At(l, env)
	for _, arg := range args {
		n, err := a.analyze(arg, env, false)
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, n)
	}
	return node, nil
}

func (a *Analyzer) analyzeSetBang(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() != 3 {
		return nil, badForm(l, "set! expects a var and a value")
	}
	sym, ok := l.Cadr().(*value.Symbol)
	if !ok {
		return nil, badForm(l, "set! target must be a symbol")
	}
	v := a.reg.Resolve(env.Namespace(), sym)
	if v == nil {
		return nil, clove.E(clove.UnresolvedSymbol, sym.Pos(), "no such var: %s", sym.FullName())
	}
	if !v.IsDynamic() {
		return nil, badForm(l, "set! requires a dynamic var, %s is not", v)
	}
	expr, err := a.analyze(l.Caddr(), env, false)
	if err != nil {
		return nil, err
	}
	vn := &ast.VarNode{Var: v, Literal: true}
	vn.At(sym, env)
	ef := &ast.ErlFunNode{Module: "clove.var", Function: "set", Arity: 2}
	ef.At(l, env)
	node := &ast.InvokeNode{Target: ef, Args: []ast.Node{vn, expr}}
	node.At(l, env)
	return node, nil
}

func (a *Analyzer) analyzeImport(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() != 2 {
		return nil, badForm(l, "import* expects one type name")
	}
	var qualified string
	switch x := l.Cadr().(type) {
	case *value.Symbol:
		qualified = x.FullName()
	case value.String:
		qualified = string(x)
	default:
		return nil, badForm(l, "import* expects a symbol or string")
	}
	local := qualified
	if idx := strings.LastIndex(qualified, "."); idx >= 0 {
		local = qualified[idx+1:]
	}
	tsym := value.Sym(qualified)
	env.Namespace().Import(local, tsym)
	node := &ast.ImportNode{TypeName: tsym}
	node.At(l, env)
	return node, nil
}

func (a *Analyzer) analyzeMonitor(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() != 2 {
		return nil, badForm(l, "%s expects one argument", l.Car)
	}
	// lock primitives are no-ops on the host; the argument is still analyzed
	arg, err := a.analyze(l.Cadr(), env, false)
	if err != nil {
		return nil, err
	}
	c := &ast.ConstantNode{Val: value.NilV}
	c.At(l, env)
	node := &ast.DoNode{Statements: []ast.Node{arg}, Ret: c}
	node.At(l, env)
	return node, nil
}

// --- case*, receive*, on-load* ----------------------------------------------

// analyzeCase lowers (case* test (pattern expr)… default?). Each clause is
// a two-element list; a trailing non-clause form is the default.
func (a *Analyzer) analyzeCase(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() < 2 {
		return nil, badForm(l, "case* expects a test expression")
	}
	test, err := a.analyze(l.Cadr(), env, false)
	if err != nil {
		return nil, err
	}
	node := &ast.CaseNode{Test: test}
	node.At(l, env)
	rest := l.Cddr().Slice()
	for i, form := range rest {
		cl, ok := form.(*value.List)
		if ok && cl.Length() == 2 && !isListHead(form, "quote") {
			clause, err := a.analyzeCaseClause(cl, env, tail)
			if err != nil {
				return nil, err
			}
			node.Clauses = append(node.Clauses, clause)
			continue
		}
		if i != len(rest)-1 {
			return nil, badForm(l, "case* clause must be a (pattern expression) pair")
		}
		def, err := a.analyze(form, env, tail)
		if err != nil {
			return nil, err
		}
		node.Default = def
	}
	return node, nil
}

func (a *Analyzer) analyzeCaseClause(cl *value.List, env *runtime.Env, tail bool) (ast.CaseClause, error) {
	penv := env.PushFrame("case-clause")
	pattern, err := a.analyzePattern(cl.Car, penv)
	if err != nil {
		return ast.CaseClause{}, err
	}
	// case branches are tail positions
	body, err := a.analyze(cl.Cadr(), penv, tail)
	if err != nil {
		return ast.CaseClause{}, err
	}
	return ast.CaseClause{Pattern: pattern, Body: body}, nil
}

// analyzePattern lowers a match pattern: constants match by equality,
// unqualified symbols bind, vectors match tuples, maps match host maps.
func (a *Analyzer) analyzePattern(form value.Value, env *runtime.Env) (ast.Node, error) {
	switch x := form.(type) {
	case *value.Symbol:
		if x.IsQualified() {
			return nil, clove.E(clove.BadSpecialForm, x.Pos(),
				"pattern binding must be unqualified: %s", x.FullName())
		}
		lb := runtime.NewLocalBinding(x, runtime.LetBinding)
		env.Define(lb)
		node := &ast.ErlAliasNode{Name: x, Local: lb}
		node.At(x, env)
		return node, nil
	case *value.Vector:
		node := &ast.TupleNode{}
		node.At(x, env)
		for _, item := range x.Items {
			p, err := a.analyzePattern(item, env)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, p)
		}
		return node, nil
	case *value.Map:
		node := &ast.ErlMapNode{}
		node.At(x, env)
		var err error
		x.Each(func(e value.MapEntry) {
			if err != nil {
				return
			}
			var kp, vp ast.Node
			if kp, err = a.analyzePattern(e.Key, env); err != nil {
				return
			}
			if vp, err = a.analyzePattern(e.Val, env); err != nil {
				return
			}
			node.Keys = append(node.Keys, kp)
			node.Vals = append(node.Vals, vp)
		})
		if err != nil {
			return nil, err
		}
		return node, nil
	case *value.List:
		if x.Length() == 2 {
			if h, ok := x.Car.(*value.Symbol); ok && h.Name == "quote" {
				return a.constant(x.Cadr(), env), nil
			}
		}
		return nil, clove.E(clove.BadSpecialForm, x.Pos(), "unsupported pattern: %s",
			value.PrintString(x))
	default:
		return a.constant(form, env), nil
	}
}

// analyzeReceive lowers (receive* (pattern body…)… (after timeout body…)?).
func (a *Analyzer) analyzeReceive(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	node := &ast.ReceiveNode{}
	node.At(l, env)
	for _, form := range l.Rest().Slice() {
		cl, ok := form.(*value.List)
		if !ok || cl.IsEmpty() {
			return nil, badForm(l, "receive* clause must be a list")
		}
		if isListHead(form, "after") {
			if node.After != nil {
				return nil, badForm(l, "receive* allows only one after clause")
			}
			if cl.Length() < 2 {
				return nil, badForm(l, "after clause expects a timeout")
			}
			timeout, err := a.analyze(cl.Cadr(), env, false)
			if err != nil {
				return nil, err
			}
			// the after body extends the receive's tail position
			body, err := a.analyzeBody(cl, cl.Cddr().Slice(), env, tail)
			if err != nil {
				return nil, err
			}
			an := &ast.AfterNode{Timeout: timeout, Body: body}
			an.At(cl, env)
			node.After = an
			continue
		}
		penv := env.PushFrame("receive-clause")
		pattern, err := a.analyzePattern(cl.Car, penv)
		if err != nil {
			return nil, err
		}
		body, err := a.analyzeBody(cl, cl.Rest().Slice(), penv, tail)
		if err != nil {
			return nil, err
		}
		node.Clauses = append(node.Clauses, ast.CaseClause{Pattern: pattern, Body: body})
	}
	if len(node.Clauses) == 0 {
		return nil, badForm(l, "receive* expects at least one clause")
	}
	return node, nil
}

func (a *Analyzer) analyzeOnLoad(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	body, err := a.analyzeBody(l, l.Rest().Slice(), env, false)
	if err != nil {
		return nil, err
	}
	node := &ast.OnLoadNode{Body: body}
	node.At(l, env)
	return node, nil
}
