package analyzer

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sort"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/ast"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

// Protocol and type forms register their shapes with the registry here; the
// emitter generates dispatch shells and type modules from those records.

// analyzeDefProtocol lowers (defprotocol P (m [x] [x y])…). Each method
// lists one parameter vector per supported arity.
func (a *Analyzer) analyzeDefProtocol(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() < 2 {
		return nil, badForm(l, "defprotocol expects a name")
	}
	name, ok := l.Cadr().(*value.Symbol)
	if !ok || name.IsQualified() {
		return nil, badForm(l, "defprotocol name must be an unqualified symbol")
	}
	qualified := env.CurrentNS() + "." + name.Name
	node := &ast.DefProtocolNode{Name: value.Sym(qualified)}
	node.At(l, env)
	for _, form := range l.Cddr().Slice() {
		sig, ok := form.(*value.List)
		if !ok || sig.IsEmpty() {
			return nil, badForm(l, "protocol method signature must be a list")
		}
		msym, ok := sig.Car.(*value.Symbol)
		if !ok {
			return nil, badForm(l, "protocol method name must be a symbol")
		}
		var arities []int
		for _, pv := range sig.Rest().Slice() {
			params, ok := pv.(*value.Vector)
			if !ok {
				break // docstring or metadata, ignore
			}
			if params.Count() == 0 {
				return nil, badForm(l, "protocol method %s needs at least the dispatch argument",
					msym.Name)
			}
			arities = append(arities, params.Count())
		}
		if len(arities) == 0 {
			return nil, badForm(l, "protocol method %s has no parameter vector", msym.Name)
		}
		sort.Ints(arities)
		node.Methods = append(node.Methods, ast.ProtocolMethod{Name: msym.Name, Arities: arities})
	}
	methods := make([]runtime.ProtoMethod, 0, len(node.Methods))
	for _, m := range node.Methods {
		methods = append(methods, runtime.ProtoMethod{Name: m.Name, Arities: m.Arities})
	}
	a.reg.DefProtocol(qualified, methods)
	// every protocol method becomes a Var in the defining namespace
	ns := env.Namespace()
	for _, m := range node.Methods {
		v := ns.Intern(m.Name)
		v.SetFnInfo(&runtime.FnSpec{Module: qualified, Name: m.Name, Arities: methodArities(m)})
	}
	return node, nil
}

func methodArities(m ast.ProtocolMethod) []int {
	out := make([]int, len(m.Arities))
	copy(out, m.Arities)
	return out
}

// analyzeDefType lowers (deftype* T [fields…] Protocol (m [self …] body)…).
func (a *Analyzer) analyzeDefType(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() < 3 {
		return nil, badForm(l, "deftype expects a name and a field vector")
	}
	name, ok := l.Cadr().(*value.Symbol)
	if !ok || name.IsQualified() {
		return nil, badForm(l, "deftype name must be an unqualified symbol")
	}
	fields, ok := l.Caddr().(*value.Vector)
	if !ok {
		return nil, badForm(l, "deftype expects a field vector")
	}
	qualified := env.CurrentNS() + "." + name.Name
	node := &ast.DefTypeNode{Name: value.Sym(qualified)}
	node.At(l, env)
	// fields are in scope in every method body
	fenv := env.NoRecur()
	fenv = fenv.PushFrame("deftype " + name.Name)
	var fieldNames []string
	for _, f := range fields.Items {
		fsym, ok := f.(*value.Symbol)
		if !ok || fsym.IsQualified() {
			return nil, badForm(l, "deftype field must be an unqualified symbol")
		}
		lb := runtime.NewLocalBinding(fsym, runtime.ArgBinding)
		fenv.Define(lb)
		bn := &ast.BindingNode{Name: fsym, Local: lb}
		bn.At(fsym, fenv)
		node.Fields = append(node.Fields, bn)
		fieldNames = append(fieldNames, fsym.Name)
	}
	ti := &runtime.TypeInfo{Name: qualified, Module: qualified, Fields: fieldNames}
	a.reg.DefTypeInfo(ti)
	methods, protocols, err := a.analyzeImplBlocks(l, l.Cddr().Rest().Slice(), fenv, env)
	if err != nil {
		return nil, err
	}
	node.Methods = methods
	node.Protocols = protocols
	for _, p := range protocols {
		proto := a.reg.FindProtocol(p.Name)
		if proto == nil {
			return nil, clove.E(clove.UnresolvedSymbol, l.Pos(), "unknown protocol: %s", p.Name)
		}
		proto.ExtendType(qualified)
	}
	return node, nil
}

// analyzeImplBlocks walks `Protocol (m [self] body)…` groups shared by
// deftype and extend-type.
func (a *Analyzer) analyzeImplBlocks(l *value.List, forms []value.Value, fenv, env *runtime.Env) (
	[]ast.TypeMethod, []*value.Symbol, error) {
	var methods []ast.TypeMethod
	var protocols []*value.Symbol
	var current *value.Symbol
	for _, form := range forms {
		if psym, ok := form.(*value.Symbol); ok {
			qualified := a.qualifyType(psym, env)
			if a.reg.FindProtocol(qualified) == nil {
				return nil, nil, clove.E(clove.UnresolvedSymbol, psym.Pos(),
					"unknown protocol: %s", psym.FullName())
			}
			current = value.Sym(qualified)
			protocols = append(protocols, current)
			continue
		}
		ml, ok := form.(*value.List)
		if !ok || ml.IsEmpty() {
			return nil, nil, badForm(l, "expected protocol symbol or method implementation")
		}
		if current == nil {
			return nil, nil, badForm(l, "method implementation before any protocol name")
		}
		msym, ok := ml.Car.(*value.Symbol)
		if !ok {
			return nil, nil, badForm(l, "method name must be a symbol")
		}
		method, err := a.analyzeFnMethod(ml.Rest(), fenv)
		if err != nil {
			return nil, nil, err
		}
		if err := a.checkMethodSig(current.Name, msym.Name, method, ml); err != nil {
			return nil, nil, err
		}
		methods = append(methods, ast.TypeMethod{
			Protocol: current,
			Name:     msym,
			Method:   method,
		})
	}
	return methods, protocols, nil
}

// checkMethodSig validates an implementation against the protocol record.
func (a *Analyzer) checkMethodSig(protoName, methodName string, m *ast.FnMethodNode, form *value.List) error {
	proto := a.reg.FindProtocol(protoName)
	if proto == nil {
		return clove.E(clove.UnresolvedSymbol, form.Pos(), "unknown protocol: %s", protoName)
	}
	for _, pm := range proto.Methods {
		if pm.Name != methodName {
			continue
		}
		for _, arity := range pm.Arities {
			if arity == m.FixedArity {
				return nil
			}
		}
		return badForm(form, "method %s/%d does not match any declared arity of %s",
			methodName, m.FixedArity, protoName)
	}
	return badForm(form, "protocol %s declares no method %s", protoName, methodName)
}

// analyzeExtendType lowers (extend-type Target P1 (m …)… P2 …). Target is a
// type symbol or a primitive keyword like :integer.
func (a *Analyzer) analyzeExtendType(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	if l.Length() < 3 {
		return nil, badForm(l, "extend-type expects a target and protocol blocks")
	}
	target := l.Cadr()
	node := &ast.ExtendTypeNode{}
	node.At(l, env)
	fenv := env.NoRecur()
	switch t := target.(type) {
	case *value.Symbol:
		qualified := a.qualifyType(t, env)
		if a.reg.FindTypeInfo(qualified) == nil {
			return nil, clove.E(clove.UnresolvedSymbol, t.Pos(), "unknown type: %s", t.FullName())
		}
		node.Target = value.Sym(qualified)
	case value.Keyword:
		if !validPrim(t.Name) {
			return nil, badForm(l, "unknown primitive shape :%s", t.Name)
		}
		node.Target = t
	default:
		return nil, badForm(l, "extend-type target must be a type symbol or primitive keyword")
	}
	methods, protocols, err := a.analyzeImplBlocks(l, l.Cddr().Slice(), fenv, env)
	if err != nil {
		return nil, err
	}
	node.Methods = methods
	node.Protocols = protocols
	for _, p := range protocols {
		proto := a.reg.FindProtocol(p.Name)
		switch t := node.Target.(type) {
		case *value.Symbol:
			proto.ExtendType(t.Name)
		case value.Keyword:
			proto.ExtendPrim(t.Name)
		}
	}
	return node, nil
}

func validPrim(name string) bool {
	for _, p := range runtime.PrimOrder {
		if p == name {
			return true
		}
	}
	return false
}

// analyzeReify lowers (reify* P (m [self] body)…) to an anonymous type plus
// an instance of it. Locals of the enclosing scope are not captured.
func (a *Analyzer) analyzeReify(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	name := runtime.FreshLoopID("reify")
	qualified := env.CurrentNS() + "." + name.Name
	tnode := &ast.DefTypeNode{Name: value.Sym(qualified)}
	tnode.At(l, env)
	a.reg.DefTypeInfo(&runtime.TypeInfo{Name: qualified, Module: qualified})
	fenv := env.NoRecur()
	methods, protocols, err := a.analyzeImplBlocks(l, l.Rest().Slice(), fenv, env)
	if err != nil {
		return nil, err
	}
	tnode.Methods = methods
	tnode.Protocols = protocols
	for _, p := range protocols {
		if proto := a.reg.FindProtocol(p.Name); proto != nil {
			proto.ExtendType(qualified)
		}
	}
	inst := &ast.NewNode{TypeName: value.Sym(qualified)}
	inst.At(l, env)
	node := &ast.DoNode{Statements: []ast.Node{tnode}, Ret: inst}
	node.At(l, env)
	return node, nil
}
