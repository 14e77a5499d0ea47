package emitter

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/ast"
	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

const coreNS = "clojure.core"

// Emitter lowers AST nodes to Core IR.
type Emitter struct {
	reg    *runtime.Registry
	mctx   *ModuleContext
	module string // target module of the form being emitted
}

// New creates an emitter over a registry and a module context.
func New(reg *runtime.Registry, mctx *ModuleContext) *Emitter {
	return &Emitter{reg: reg, mctx: mctx}
}

// Emit translates one top-level AST node into the expressions the driver
// evaluates, registering top-level functions with the module context as a
// side effect. The target module is the current namespace's.
func (em *Emitter) Emit(node ast.Node, env *runtime.Env) ([]coreir.Expr, error) {
	em.module = env.CurrentNS()
	expr, err := em.expr(node)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return nil, nil
	}
	return []coreir.Expr{expr}, nil
}

// expr lowers one node.
func (em *Emitter) expr(node ast.Node) (coreir.Expr, error) {
	switch n := node.(type) {
	case *ast.ConstantNode:
		return em.constExpr(n.Val), nil
	case *ast.QuoteNode:
		return em.constExpr(n.Expr.Val), nil
	case *ast.LocalNode:
		return coreir.Var{Name: localVar(n.Binding)}, nil
	case *ast.VarNode:
		if n.Literal {
			return coreir.Call{Module: "clove.var", Function: "find",
				Args: []coreir.Expr{coreir.Atom{Name: n.Var.NS}, coreir.Atom{Name: n.Var.Name}}}, nil
		}
		return coreir.Call{Module: "clove.var", Function: "deref",
			Args: []coreir.Expr{coreir.Atom{Name: n.Var.NS}, coreir.Atom{Name: n.Var.Name}}}, nil
	case *ast.TypeNode:
		return coreir.Atom{Name: n.Name.FullName()}, nil
	case *ast.ResolveTypeNode:
		return coreir.Call{Module: "clove.ns", Function: "resolve_type",
			Args: []coreir.Expr{coreir.Atom{Name: n.Name.FullName()}}}, nil
	case *ast.ErlFunNode:
		return coreir.ErlFunRef{Module: n.Module, Function: n.Function, Arity: n.Arity}, nil
	case *ast.IfNode:
		return em.emitIf(n)
	case *ast.DoNode:
		return em.emitDo(n)
	case *ast.LetNode:
		return em.emitLet(n)
	case *ast.RecurNode:
		return em.emitRecur(n)
	case *ast.LetFnNode:
		return em.emitLetFn(n)
	case *ast.FnNode:
		return em.emitFn(n)
	case *ast.InvokeNode:
		return em.emitInvoke(n)
	case *ast.CaseNode:
		return em.emitCase(n)
	case *ast.ReceiveNode:
		return em.emitReceive(n)
	case *ast.ThrowNode:
		return em.emitThrow(n)
	case *ast.TryNode:
		return em.emitTry(n)
	case *ast.DefNode:
		return em.emitDef(n)
	case *ast.DefTypeNode:
		return em.emitDefType(n)
	case *ast.DefProtocolNode:
		return em.emitDefProtocol(n)
	case *ast.ExtendTypeNode:
		return em.emitExtendType(n)
	case *ast.NewNode:
		return em.emitNew(n)
	case *ast.ImportNode:
		return coreir.Lit{Val: value.NilV}, nil
	case *ast.OnLoadNode:
		return em.emitOnLoad(n)
	case *ast.VectorNode:
		return em.coreCtor("vector", n.Items)
	case *ast.SetNode:
		return em.coreCtor("hash-set", n.Items)
	case *ast.MapNode:
		return em.emitMapLit(n)
	case *ast.WithMetaNode:
		return em.emitWithMeta(n)
	case *ast.ErlMapNode:
		return em.emitErlMap(n)
	case *ast.ErlListNode:
		return em.emitErlList(n)
	case *ast.TupleNode:
		return em.emitTuple(n)
	case *ast.ErlBinaryNode:
		return em.emitBinary(n)
	case *ast.ErlAliasNode:
		return nil, clove.E(clove.BadSpecialForm, n.Pos,
			"pattern binding %s outside a match context", n.Name)
	}
	return nil, clove.E(clove.BadSpecialForm, node.Base().Pos,
		"emitter: unhandled node %s", node.Op())
}

// --- Constants ---------------------------------------------------------------

// simpleLiteral reports values the host represents as plain literals.
func simpleLiteral(v value.Value) bool {
	switch v.(type) {
	case value.Nil, value.Bool, value.Int, value.Float, value.Char,
		value.String, value.Keyword, *value.Symbol,
		value.BigInt, value.BigDec, value.Ratio:
		return true
	}
	return false
}

// constExpr lowers a constant. Non-literal constants — collections, regex,
// tagged literals — are lifted to a zero-arity initializer function of the
// module; the expression becomes a call to it. The initializer builds the
// value anew on every call and is not run from the module's on-load body.
func (em *Emitter) constExpr(v value.Value) coreir.Expr {
	if v == nil {
		return coreir.Lit{Val: value.NilV}
	}
	if simpleLiteral(v) {
		return coreir.Lit{Val: v}
	}
	name, fresh := em.mctx.Constant(em.module, v)
	if fresh {
		mod := em.mctx.Ensure(em.module)
		mod.Def(name, 0, coreir.Fun{Body: em.construction(v)})
	}
	return coreir.Call{Module: em.module, Function: name}
}

// construction builds the constructor expression for a lifted constant.
func (em *Emitter) construction(v value.Value) coreir.Expr {
	switch x := v.(type) {
	case *value.List:
		return em.coreConst("list", x.Slice())
	case *value.Vector:
		return em.coreConst("vector", x.Items)
	case *value.Set:
		return em.coreConst("hash-set", x.Elems())
	case *value.Map:
		var flat []value.Value
		x.Each(func(e value.MapEntry) {
			flat = append(flat, e.Key, e.Val)
		})
		return em.coreConst("hash-map", flat)
	case value.Regex:
		return coreir.Call{Module: coreNS, Function: "re-pattern",
			Args: []coreir.Expr{coreir.Lit{Val: value.String(string(x))}}}
	case *value.Tagged:
		return coreir.Call{Module: coreNS, Function: "tagged-literal",
			Args: []coreir.Expr{em.construction(x.Tag), em.construction(x.Form)}}
	default:
		return coreir.Lit{Val: v}
	}
}

func (em *Emitter) coreConst(ctor string, items []value.Value) coreir.Expr {
	call := coreir.Call{Module: coreNS, Function: ctor}
	for _, item := range items {
		if simpleLiteral(item) {
			call.Args = append(call.Args, coreir.Lit{Val: item})
		} else {
			call.Args = append(call.Args, em.construction(item))
		}
	}
	return call
}

// --- Control flow -------------------------------------------------------------

// emitIf lowers if to a case over truthiness: nil and false take the else
// branch, everything else the then branch.
func (em *Emitter) emitIf(n *ast.IfNode) (coreir.Expr, error) {
	test, err := em.expr(n.Test)
	if err != nil {
		return nil, err
	}
	then, err := em.expr(n.Then)
	if err != nil {
		return nil, err
	}
	els, err := em.expr(n.Else)
	if err != nil {
		return nil, err
	}
	return coreir.Case{Arg: test, Clauses: []coreir.Clause{
		{Patterns: []coreir.Pat{coreir.PLit{Val: value.False}}, Body: els},
		{Patterns: []coreir.Pat{coreir.PLit{Val: value.NilV}}, Body: els},
		{Patterns: []coreir.Pat{coreir.PWild{}}, Body: then},
	}}, nil
}

func (em *Emitter) emitDo(n *ast.DoNode) (coreir.Expr, error) {
	ret, err := em.expr(n.Ret)
	if err != nil {
		return nil, err
	}
	out := ret
	for i := len(n.Statements) - 1; i >= 0; i-- {
		stmt, err := em.expr(n.Statements[i])
		if err != nil {
			return nil, err
		}
		out = coreir.Seq{First: stmt, Then: out}
	}
	return out, nil
}

// emitLet lowers let* to nested lets; loop* additionally wraps a named
// letrec so recur compiles to a tail call.
func (em *Emitter) emitLet(n *ast.LetNode) (coreir.Expr, error) {
	body, err := em.expr(n.Body)
	if err != nil {
		return nil, err
	}
	if n.IsLoop {
		params := make([]string, len(n.Bindings))
		inits := make([]coreir.Expr, len(n.Bindings))
		for i, b := range n.Bindings {
			params[i] = localVar(b.Local)
			if inits[i], err = em.expr(b.Init); err != nil {
				return nil, err
			}
		}
		loopName := n.LoopID.Name
		return coreir.LetRec{
			Defs: []coreir.FunDef{{
				Name:  loopName,
				Arity: len(params),
				Fun:   coreir.Fun{Name: loopName, Params: params, Body: body},
			}},
			Body: coreir.Apply{
				Fn:   coreir.FnRef{Name: loopName, Arity: len(params)},
				Args: inits,
			},
		}, nil
	}
	out := body
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		init, err := em.expr(b.Init)
		if err != nil {
			return nil, err
		}
		out = coreir.Let{Vars: []string{localVar(b.Local)}, Arg: init, Body: out}
	}
	return out, nil
}

// emitRecur lowers recur to a tail call of the loop's named function.
func (em *Emitter) emitRecur(n *ast.RecurNode) (coreir.Expr, error) {
	args := make([]coreir.Expr, len(n.Exprs))
	for i, e := range n.Exprs {
		var err error
		if args[i], err = em.expr(e); err != nil {
			return nil, err
		}
	}
	return coreir.Apply{
		Fn:   coreir.FnRef{Name: n.LoopID.Name, Arity: len(args)},
		Args: args,
	}, nil
}

func (em *Emitter) emitLetFn(n *ast.LetFnNode) (coreir.Expr, error) {
	body, err := em.expr(n.Body)
	if err != nil {
		return nil, err
	}
	lr := coreir.LetRec{Body: body}
	for _, b := range n.Bindings {
		fn, err := em.expr(b.Init)
		if err != nil {
			return nil, err
		}
		fun, ok := fn.(coreir.Fun)
		if !ok {
			return nil, clove.E(clove.BadSpecialForm, n.Pos, "letfn binding is not a function")
		}
		lr.Defs = append(lr.Defs, coreir.FunDef{
			Name:  localVar(b.Local),
			Arity: len(fun.Params),
			Fun:   fun,
		})
	}
	return lr, nil
}

// --- Functions -----------------------------------------------------------------

// emitFn lowers a fn to a closure. A single fixed-arity method becomes a
// plain fun; multi-arity and variadic fns become a dispatcher which
// pattern-matches on the argument count.
func (em *Emitter) emitFn(n *ast.FnNode) (coreir.Expr, error) {
	selfName := ""
	if n.Self != nil {
		selfName = localVar(n.Self)
	}
	if len(n.Methods) == 1 && !n.Variadic {
		m := n.Methods[0]
		body, err := em.methodBody(m)
		if err != nil {
			return nil, err
		}
		return coreir.Fun{Name: selfName, Params: methodParams(m), Body: body}, nil
	}
	clauses, err := em.dispatchClauses(n.Methods)
	if err != nil {
		return nil, err
	}
	return coreir.Fun{
		Name:     selfName,
		Dispatch: true,
		Body:     coreir.Case{Arg: coreir.Var{Name: coreir.ArgsVar}, Clauses: clauses},
	}, nil
}

// dispatchClauses builds one clause per method, matching the argument list
// by length; the variadic clause binds the rest.
func (em *Emitter) dispatchClauses(methods []*ast.FnMethodNode) ([]coreir.Clause, error) {
	var clauses []coreir.Clause
	for _, m := range methods {
		if m.Variadic {
			continue // variadic clause matches last
		}
		body, err := em.methodBody(m)
		if err != nil {
			return nil, err
		}
		pats := make([]coreir.Pat, len(m.Params))
		for i, p := range m.Params {
			pats[i] = coreir.PVar{Name: localVar(p.Local)}
		}
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{coreir.PList{Items: pats}},
			Body:     body,
		})
	}
	for _, m := range methods {
		if !m.Variadic {
			continue
		}
		body, err := em.methodBody(m)
		if err != nil {
			return nil, err
		}
		fixed := m.Params[:len(m.Params)-1]
		rest := m.Params[len(m.Params)-1]
		pats := make([]coreir.Pat, len(fixed))
		for i, p := range fixed {
			pats[i] = coreir.PVar{Name: localVar(p.Local)}
		}
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{coreir.PList{
				Items: pats,
				Tail:  coreir.PVar{Name: localVar(rest.Local)},
			}},
			Body: body,
		})
	}
	clauses = append(clauses, coreir.Clause{
		Patterns: []coreir.Pat{coreir.PWild{}},
		Body: coreir.Raise{Class: "error", Arg: coreir.Tuple{Items: []coreir.Expr{
			coreir.Atom{Name: "badarity"},
		}}},
	})
	return clauses, nil
}

// methodBody wraps a method body in a letrec named by its loop id, making
// the method a recur target.
func (em *Emitter) methodBody(m *ast.FnMethodNode) (coreir.Expr, error) {
	body, err := em.expr(m.Body)
	if err != nil {
		return nil, err
	}
	params := methodParams(m)
	loopName := m.LoopID.Name
	args := make([]coreir.Expr, len(params))
	for i, p := range params {
		args[i] = coreir.Var{Name: p}
	}
	return coreir.LetRec{
		Defs: []coreir.FunDef{{
			Name:  loopName,
			Arity: len(params),
			Fun:   coreir.Fun{Name: loopName, Params: params, Body: body},
		}},
		Body: coreir.Apply{
			Fn:   coreir.FnRef{Name: loopName, Arity: len(params)},
			Args: args,
		},
	}, nil
}

func methodParams(m *ast.FnMethodNode) []string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = localVar(p.Local)
	}
	return params
}

// --- Invocation ------------------------------------------------------------------

// emitInvoke lowers a call. A callee resolving to a known arity of a known
// function compiles to a direct call; otherwise the call goes through the
// function-value protocol.
func (em *Emitter) emitInvoke(n *ast.InvokeNode) (coreir.Expr, error) {
	args := make([]coreir.Expr, len(n.Args))
	for i, a := range n.Args {
		var err error
		if args[i], err = em.expr(a); err != nil {
			return nil, err
		}
	}
	switch t := n.Target.(type) {
	case *ast.ErlFunNode:
		return coreir.Call{Module: t.Module, Function: t.Function, Args: args}, nil
	case *ast.VarNode:
		if !t.Literal {
			if fs := t.Var.FnInfo(); fs != nil {
				if fs.HasArity(len(args)) {
					return coreir.Call{Module: fs.Module, Function: fs.Name, Args: args}, nil
				}
				if fs.Variadic && len(args) >= fs.VariadicArity {
					fixed := args[:fs.VariadicArity]
					rest := coreir.ListExpr{Items: args[fs.VariadicArity:]}
					return coreir.Call{Module: fs.Module, Function: fs.Name,
						Args: append(append([]coreir.Expr{}, fixed...), rest)}, nil
				}
			}
		}
	}
	target, err := em.expr(n.Target)
	if err != nil {
		return nil, err
	}
	return coreir.Call{Module: "clove.fn", Function: "apply",
		Args: []coreir.Expr{target, coreir.ListExpr{Items: args}}}, nil
}

// --- case*, receive ---------------------------------------------------------------

func (em *Emitter) emitCase(n *ast.CaseNode) (coreir.Expr, error) {
	test, err := em.expr(n.Test)
	if err != nil {
		return nil, err
	}
	clauses, err := em.clauses(n.Clauses)
	if err != nil {
		return nil, err
	}
	if n.Default != nil {
		def, err := em.expr(n.Default)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{coreir.PWild{}},
			Body:     def,
		})
	} else {
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{coreir.PWild{}},
			Body: coreir.Raise{Class: "error", Arg: coreir.Tuple{Items: []coreir.Expr{
				coreir.Atom{Name: "case_clause"},
			}}},
		})
	}
	return coreir.Case{Arg: test, Clauses: clauses}, nil
}

func (em *Emitter) clauses(cs []ast.CaseClause) ([]coreir.Clause, error) {
	var out []coreir.Clause
	for _, c := range cs {
		pat, err := em.pattern(c.Pattern)
		if err != nil {
			return nil, err
		}
		body, err := em.expr(c.Body)
		if err != nil {
			return nil, err
		}
		clause := coreir.Clause{Patterns: []coreir.Pat{pat}, Body: body}
		if c.Guard != nil {
			if clause.Guard, err = em.expr(c.Guard); err != nil {
				return nil, err
			}
		}
		out = append(out, clause)
	}
	return out, nil
}

// pattern lowers a pattern node.
func (em *Emitter) pattern(node ast.Node) (coreir.Pat, error) {
	switch n := node.(type) {
	case *ast.ConstantNode:
		return coreir.PLit{Val: n.Val}, nil
	case *ast.ErlAliasNode:
		if n.Pattern == nil {
			if n.Local.Underscore {
				return coreir.PWild{}, nil
			}
			return coreir.PVar{Name: localVar(n.Local)}, nil
		}
		inner, err := em.pattern(n.Pattern)
		if err != nil {
			return nil, err
		}
		return coreir.PAlias{Name: localVar(n.Local), Pat: inner}, nil
	case *ast.TupleNode:
		items := make([]coreir.Pat, len(n.Items))
		for i, it := range n.Items {
			var err error
			if items[i], err = em.pattern(it); err != nil {
				return nil, err
			}
		}
		return coreir.PTuple{Items: items}, nil
	case *ast.ErlMapNode:
		entries := make([]coreir.PMapEntry, len(n.Keys))
		for i := range n.Keys {
			kp, err := em.pattern(n.Keys[i])
			if err != nil {
				return nil, err
			}
			vp, err := em.pattern(n.Vals[i])
			if err != nil {
				return nil, err
			}
			entries[i] = coreir.PMapEntry{Key: kp, Val: vp}
		}
		return coreir.PMap{Entries: entries}, nil
	}
	return nil, clove.E(clove.BadSpecialForm, node.Base().Pos,
		"unsupported pattern node %s", node.Op())
}

func (em *Emitter) emitReceive(n *ast.ReceiveNode) (coreir.Expr, error) {
	clauses, err := em.clauses(n.Clauses)
	if err != nil {
		return nil, err
	}
	recv := coreir.Receive{Clauses: clauses}
	if n.After != nil {
		if recv.Timeout, err = em.expr(n.After.Timeout); err != nil {
			return nil, err
		}
		if recv.Action, err = em.expr(n.After.Body); err != nil {
			return nil, err
		}
	}
	return recv, nil
}

// --- Exceptions -------------------------------------------------------------------

func (em *Emitter) emitThrow(n *ast.ThrowNode) (coreir.Expr, error) {
	arg, err := em.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return coreir.Raise{Class: "throw", Arg: arg}, nil
}

// emitTry lowers try/catch/finally. Catches become pattern clauses over the
// (class, reason, stack) triple; the first match wins. A finally body runs
// on both paths.
func (em *Emitter) emitTry(n *ast.TryNode) (coreir.Expr, error) {
	body, err := em.expr(n.Body)
	if err != nil {
		return nil, err
	}
	var fin coreir.Expr
	if n.Finally != nil {
		if fin, err = em.expr(n.Finally); err != nil {
			return nil, err
		}
	}
	withFin := func(e coreir.Expr) coreir.Expr {
		if fin == nil {
			return e
		}
		return coreir.Let{Vars: []string{"@tryval"}, Arg: e,
			Body: coreir.Seq{First: fin, Then: coreir.Var{Name: "@tryval"}}}
	}
	var clauses []coreir.Clause
	for _, c := range n.Catches {
		cbody, err := em.expr(c.Body)
		if err != nil {
			return nil, err
		}
		bindVar := localVar(c.Local.Local)
		stackPat := coreir.Pat(coreir.PWild{})
		if c.Stack != nil {
			stackPat = coreir.PVar{Name: localVar(c.Stack.Local)}
		}
		var pat coreir.Pat
		switch cls := c.Class.(type) {
		case value.Keyword:
			if cls.Name == "default" {
				pat = coreir.PTuple{Items: []coreir.Pat{
					coreir.PWild{}, coreir.PVar{Name: bindVar}, stackPat,
				}}
			} else {
				pat = coreir.PTuple{Items: []coreir.Pat{
					coreir.PAtom{Name: cls.Name}, coreir.PVar{Name: bindVar}, stackPat,
				}}
			}
		case *value.Symbol:
			// a type symbol matches raised tagged records of that type
			pat = coreir.PTuple{Items: []coreir.Pat{
				coreir.PWild{},
				coreir.PAlias{Name: bindVar, Pat: coreir.PMap{Entries: []coreir.PMapEntry{{
					Key: coreir.PAtom{Name: "type"},
					Val: coreir.PAtom{Name: cls.FullName()},
				}}}},
				stackPat,
			}}
		}
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{pat},
			Body:     withFin(cbody),
		})
	}
	// unmatched raises propagate, after finally
	reraise := coreir.Expr(coreir.Call{Module: "erlang", Function: "raise", Args: []coreir.Expr{
		coreir.Var{Name: "@class"}, coreir.Var{Name: "@reason"}, coreir.Var{Name: "@stack"},
	}})
	if fin != nil {
		reraise = coreir.Seq{First: fin, Then: reraise}
	}
	clauses = append(clauses, coreir.Clause{
		Patterns: []coreir.Pat{coreir.PTuple{Items: []coreir.Pat{
			coreir.PVar{Name: "@class"}, coreir.PVar{Name: "@reason"}, coreir.PVar{Name: "@stack"},
		}}},
		Body: reraise,
	})
	return coreir.Try{
		Arg:   body,
		Vars:  []string{"@val"},
		Body:  withFin(coreir.Var{Name: "@val"}),
		EVars: []string{"@class", "@reason", "@stack"},
		Handler: coreir.Case{
			Arg: coreir.Tuple{Items: []coreir.Expr{
				coreir.Var{Name: "@class"}, coreir.Var{Name: "@reason"}, coreir.Var{Name: "@stack"},
			}},
			Clauses: clauses,
		},
	}, nil
}

// --- defs, types -------------------------------------------------------------------

// emitDef interns the Var and assigns its root binding. A fn init becomes
// named top-level functions; the Var's root then points at a closure over
// them.
func (em *Emitter) emitDef(n *ast.DefNode) (coreir.Expr, error) {
	em.mctx.Ensure(em.module) // every def contributes to its namespace module
	var root coreir.Expr
	if fn, ok := n.Init.(*ast.FnNode); ok {
		spec, err := em.hoistFn(em.module, n.Name.Name, fn)
		if err != nil {
			return nil, err
		}
		n.Var.SetFnInfo(spec)
		root = fnValue(spec)
	} else if n.Init != nil {
		var err error
		if root, err = em.expr(n.Init); err != nil {
			return nil, err
		}
	}
	args := []coreir.Expr{
		coreir.Atom{Name: n.Var.NS},
		coreir.Atom{Name: n.Var.Name},
	}
	if root != nil {
		args = append(args, root)
	}
	if n.Dynamic {
		args = append(args, coreir.Atom{Name: "dynamic"})
	}
	return coreir.Call{Module: "clove.var", Function: "def", Args: args}, nil
}

// hoistFn registers one top-level function per fn method in module mod.
// The variadic method takes its rest parameter as a final list argument,
// so its host arity is fixed+1.
func (em *Emitter) hoistFn(mod, name string, fn *ast.FnNode) (*runtime.FnSpec, error) {
	m := em.mctx.Ensure(mod)
	spec := &runtime.FnSpec{Module: mod, Name: name}
	for _, method := range fn.Methods {
		body, err := em.methodBody(method)
		if err != nil {
			return nil, err
		}
		arity := len(method.Params)
		m.ReplaceDef(coreir.FunDef{
			Name:  name,
			Arity: arity,
			Fun:   coreir.Fun{Params: methodParams(method), Body: body},
		})
		if method.Variadic {
			spec.Variadic = true
			spec.VariadicArity = method.FixedArity
		} else {
			spec.Arities = append(spec.Arities, arity)
		}
	}
	m.Exports = appendExports(m.Exports, name, fn)
	return spec, nil
}

func appendExports(exports []coreir.Export, name string, fn *ast.FnNode) []coreir.Export {
	for _, method := range fn.Methods {
		arity := len(method.Params)
		dup := false
		for _, e := range exports {
			if e.Name == name && e.Arity == arity {
				dup = true
			}
		}
		if !dup {
			exports = append(exports, coreir.Export{Name: name, Arity: arity})
		}
	}
	return exports
}

// fnValue builds the function-value expression for a hoisted fn.
func fnValue(spec *runtime.FnSpec) coreir.Expr {
	arities := make([]coreir.Expr, len(spec.Arities))
	for i, a := range spec.Arities {
		arities[i] = coreir.Lit{Val: value.Int(a)}
	}
	variadic := coreir.Expr(coreir.Lit{Val: value.False})
	if spec.Variadic {
		variadic = coreir.Lit{Val: value.Int(spec.VariadicArity)}
	}
	return coreir.Call{Module: "clove.fn", Function: "mk", Args: []coreir.Expr{
		coreir.Atom{Name: spec.Module},
		coreir.Atom{Name: spec.Name},
		coreir.ListExpr{Items: arities},
		variadic,
	}}
}

// emitNew instantiates a tagged-record type through its module constructor.
func (em *Emitter) emitNew(n *ast.NewNode) (coreir.Expr, error) {
	ti := em.reg.FindTypeInfo(n.TypeName.FullName())
	if ti == nil {
		return nil, clove.E(clove.UnresolvedSymbol, n.Pos, "unknown type: %s", n.TypeName)
	}
	args := make([]coreir.Expr, len(n.Args))
	for i, a := range n.Args {
		var err error
		if args[i], err = em.expr(a); err != nil {
			return nil, err
		}
	}
	return coreir.Call{Module: ti.Module, Function: "__new__", Args: args}, nil
}

func (em *Emitter) emitOnLoad(n *ast.OnLoadNode) (coreir.Expr, error) {
	body, err := em.expr(n.Body)
	if err != nil {
		return nil, err
	}
	mod := em.mctx.Ensure(em.module)
	mod.OnLoad = append(mod.OnLoad, body)
	return coreir.Lit{Val: value.NilV}, nil
}

// --- Collections --------------------------------------------------------------------

func (em *Emitter) coreCtor(ctor string, items []ast.Node) (coreir.Expr, error) {
	call := coreir.Call{Module: coreNS, Function: ctor}
	for _, item := range items {
		e, err := em.expr(item)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, e)
	}
	return call, nil
}

func (em *Emitter) emitMapLit(n *ast.MapNode) (coreir.Expr, error) {
	call := coreir.Call{Module: coreNS, Function: "hash-map"}
	for i := range n.Keys {
		k, err := em.expr(n.Keys[i])
		if err != nil {
			return nil, err
		}
		v, err := em.expr(n.Vals[i])
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, k, v)
	}
	return call, nil
}

func (em *Emitter) emitWithMeta(n *ast.WithMetaNode) (coreir.Expr, error) {
	expr, err := em.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	meta, err := em.expr(n.Meta)
	if err != nil {
		return nil, err
	}
	return coreir.Call{Module: coreNS, Function: "with-meta",
		Args: []coreir.Expr{expr, meta}}, nil
}

// --- Host constructors ----------------------------------------------------------------

func (em *Emitter) emitErlMap(n *ast.ErlMapNode) (coreir.Expr, error) {
	pairs := make([]coreir.Pair, len(n.Keys))
	for i := range n.Keys {
		k, err := em.expr(n.Keys[i])
		if err != nil {
			return nil, err
		}
		v, err := em.expr(n.Vals[i])
		if err != nil {
			return nil, err
		}
		pairs[i] = coreir.Pair{Key: k, Val: v}
	}
	return coreir.MapExpr{Pairs: pairs}, nil
}

func (em *Emitter) emitErlList(n *ast.ErlListNode) (coreir.Expr, error) {
	items := make([]coreir.Expr, len(n.Items))
	for i, it := range n.Items {
		var err error
		if items[i], err = em.expr(it); err != nil {
			return nil, err
		}
	}
	out := coreir.ListExpr{Items: items}
	if n.Tail != nil {
		tail, err := em.expr(n.Tail)
		if err != nil {
			return nil, err
		}
		out.Tail = tail
	}
	return out, nil
}

func (em *Emitter) emitTuple(n *ast.TupleNode) (coreir.Expr, error) {
	items := make([]coreir.Expr, len(n.Items))
	for i, it := range n.Items {
		var err error
		if items[i], err = em.expr(it); err != nil {
			return nil, err
		}
	}
	return coreir.Tuple{Items: items}, nil
}

func (em *Emitter) emitBinary(n *ast.ErlBinaryNode) (coreir.Expr, error) {
	segs := make([]coreir.Segment, len(n.Segments))
	for i, s := range n.Segments {
		v, err := em.expr(s.Value)
		if err != nil {
			return nil, err
		}
		seg := coreir.Segment{Value: v, Unit: s.Unit, Kind: s.Kind.Name}
		if s.Size != nil {
			if seg.Size, err = em.expr(s.Size); err != nil {
				return nil, err
			}
		}
		for _, f := range s.Flags {
			seg.Flags = append(seg.Flags, f.Name)
		}
		segs[i] = seg
	}
	return coreir.Binary{Segments: segs}, nil
}

// --- Variable naming --------------------------------------------------------------------

// localVar names the Core IR variable of a local binding. Ids keep shadowed
// bindings distinct.
func localVar(lb *runtime.LocalBinding) string {
	return fmt.Sprintf("V%d_%s", lb.ID, sanitize(lb.Name.Name))
}

func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
