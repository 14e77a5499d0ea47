package analyzer

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/ast"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
	"golang.org/x/tools/container/intsets"
)

// analyzeFnForm lowers (fn* name? [params] body…) and
// (fn* name? ([params] body…)+).
func (a *Analyzer) analyzeFnForm(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	return a.analyzeFn(l, env)
}

func (a *Analyzer) analyzeFn(l *value.List, env *runtime.Env) (ast.Node, error) {
	rest := l.Rest().Slice()
	node := &ast.FnNode{}
	node.At(l, env)
	if len(rest) > 0 {
		if name, ok := rest[0].(*value.Symbol); ok && !name.IsQualified() {
			node.Name = name
			rest = rest[1:]
		}
	}
	if len(rest) == 0 {
		return nil, badForm(l, "fn* expects at least one method")
	}
	// single-method shorthand (fn* [x] …)
	var methods []*value.List
	if _, ok := rest[0].(*value.Vector); ok {
		methods = []*value.List{value.ListOf(rest...).At(l.Pos())}
	} else {
		for _, m := range rest {
			ml, ok := m.(*value.List)
			if !ok {
				return nil, badForm(l, "fn* method must be a list, got %s", value.PrintString(m))
			}
			methods = append(methods, ml)
		}
	}
	fenv := env.NoRecur()
	if node.Name != nil {
		// self-binding visible in every method body
		node.Self = runtime.NewLocalBinding(node.Name, runtime.ArgBinding)
		fenv = fenv.PushFrame("fn " + node.Name.Name)
		fenv.Define(node.Self)
	}
	var arities intsets.Sparse
	node.MinFixedArity = -1
	for _, m := range methods {
		method, err := a.analyzeFnMethod(m, fenv)
		if err != nil {
			return nil, err
		}
		if method.Variadic {
			if node.Variadic {
				return nil, clove.E(clove.MultipleVariadic, value.PosOf(m),
					"only one variadic method is allowed")
			}
			node.Variadic = true
			node.VariadicArity = method.FixedArity
		} else {
			if !arities.Insert(method.FixedArity) {
				return nil, clove.E(clove.DuplicateArity, value.PosOf(m),
					"duplicate arity %d", method.FixedArity)
			}
			if node.MinFixedArity < 0 || method.FixedArity < node.MinFixedArity {
				node.MinFixedArity = method.FixedArity
			}
			if method.FixedArity > node.MaxFixedArity {
				node.MaxFixedArity = method.FixedArity
			}
		}
		node.Methods = append(node.Methods, method)
	}
	if node.MinFixedArity < 0 {
		node.MinFixedArity = 0
	}
	if node.Variadic && node.VariadicArity < node.MaxFixedArity {
		return nil, clove.E(clove.InvalidVariadicArity, l.Pos(),
			"variadic method cannot take fewer fixed arguments (%d) than another method (%d)",
			node.VariadicArity, node.MaxFixedArity)
	}
	return node, nil
}

// analyzeFnMethod lowers one ([params] body…) method. The method owns a
// fresh loop id; its body is a tail position and a recur target.
func (a *Analyzer) analyzeFnMethod(m *value.List, env *runtime.Env) (*ast.FnMethodNode, error) {
	params, ok := m.Car.(*value.Vector)
	if !ok {
		return nil, badForm(m, "fn* method expects a parameter vector")
	}
	method := &ast.FnMethodNode{LoopID: runtime.FreshLoopID("fn")}
	method.At(m, env)
	menv := env.PushFrame("fn-method")
	sawAmp := false
	for i := 0; i < params.Count(); i++ {
		psym, ok := params.Nth(i).(*value.Symbol)
		if !ok || psym.IsQualified() {
			return nil, badForm(m, "fn* parameter must be an unqualified symbol, got %s",
				value.PrintString(params.Nth(i)))
		}
		if psym.Name == "&" {
			if sawAmp || i != params.Count()-2 {
				return nil, badForm(m, "misplaced & in parameter vector")
			}
			sawAmp = true
			continue
		}
		lb := runtime.NewLocalBinding(psym, runtime.ArgBinding)
		if sawAmp {
			lb.Variadic = true
			method.Variadic = true
		}
		menv.Define(lb)
		bn := &ast.BindingNode{Name: psym, Local: lb}
		bn.At(psym, menv)
		method.Params = append(method.Params, bn)
	}
	if sawAmp && !method.Variadic {
		return nil, badForm(m, "missing rest parameter after &")
	}
	if method.Variadic {
		method.FixedArity = len(method.Params) - 1
	} else {
		method.FixedArity = len(method.Params)
	}
	// recur in a method re-binds all parameters, the rest parameter included
	menv = menv.WithLoop(method.LoopID, len(method.Params))
	body, err := a.analyzeBody(m, m.Rest().Slice(), menv, true)
	if err != nil {
		return nil, err
	}
	method.Body = body
	return method, nil
}

// analyzeLetFn lowers (letfn* [name (fn* …) …] body…). All names are in
// scope in every function body.
func (a *Analyzer) analyzeLetFn(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	bvec, ok := l.Cadr().(*value.Vector)
	if !ok || bvec.Count()%2 != 0 {
		return nil, badForm(l, "letfn* expects a binding vector of name/function pairs")
	}
	benv := env.PushFrame("letfn")
	var names []*value.Symbol
	var locals []*runtime.LocalBinding
	for i := 0; i < bvec.Count(); i += 2 {
		name, ok := bvec.Nth(i).(*value.Symbol)
		if !ok || name.IsQualified() {
			return nil, badForm(l, "letfn* name must be an unqualified symbol")
		}
		lb := runtime.NewLocalBinding(name, runtime.LetBinding)
		benv.Define(lb)
		names = append(names, name)
		locals = append(locals, lb)
	}
	node := &ast.LetFnNode{}
	node.At(l, env)
	for i := 0; i < bvec.Count(); i += 2 {
		fnForm, ok := bvec.Nth(i + 1).(*value.List)
		if !ok {
			return nil, badForm(l, "letfn* binding must be a fn* form")
		}
		init, err := a.analyzeFn(fnForm, benv)
		if err != nil {
			return nil, err
		}
		bn := &ast.BindingNode{Name: names[i/2], Local: locals[i/2], Init: init}
		bn.At(names[i/2], benv)
		node.Bindings = append(node.Bindings, bn)
	}
	body, err := a.analyzeBody(l, l.Cddr().Slice(), benv, tail)
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}
