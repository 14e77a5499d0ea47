package emitter

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/ast"
	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

// Protocol lowering. A protocol P with methods m1/n1 … mk/nk becomes a
// module named P exporting each mi. The body is a flat case over the
// discriminating tag of the first argument: one clause per extending
// primitive (in the frozen host order), one clause per extending
// tagged-record type (alphabetical), one clause for untagged records, and a
// catch-all — both of the latter raise not_implemented. extend-type adds a
// shape and re-emits the module from the protocol record; the module's
// identity is stable across re-emission.

// untaggedRecordTag is the discriminator value for record-shaped tuples
// (a keyword in first position) without a type tag.
const untaggedRecordTag = "__record__"

// implModule names the module holding a shape's implementation of proto.
func implModule(proto, shape string) string {
	return proto + "@" + shape
}

// emitDefProtocol lowers defprotocol to the dispatch shell module.
func (em *Emitter) emitDefProtocol(n *ast.DefProtocolNode) (coreir.Expr, error) {
	proto := em.reg.FindProtocol(n.Name.FullName())
	if proto == nil {
		return nil, clove.E(clove.UnresolvedSymbol, n.Pos, "protocol %s not registered", n.Name)
	}
	em.emitProtocolModule(proto)
	return coreir.Lit{Val: value.NilV}, nil
}

// emitProtocolModule (re)generates the dispatch module for proto.
func (em *Emitter) emitProtocolModule(proto *runtime.Protocol) {
	mod := em.mctx.Ensure(proto.Name)
	mod.Attrs["protocol"] = value.String(proto.Name)
	for _, method := range proto.Methods {
		for _, arity := range method.Arities {
			mod.ReplaceDef(coreir.FunDef{
				Name:  method.Name,
				Arity: arity,
				Fun:   em.dispatchFun(proto, method.Name, arity),
			})
			exportOnce(mod, method.Name, arity)
		}
	}
	mod.ReplaceDef(coreir.FunDef{
		Name:  "__satisfies__",
		Arity: 1,
		Fun:   em.satisfiesFun(proto),
	})
	exportOnce(mod, "__satisfies__", 1)
	mod.ReplaceDef(coreir.FunDef{
		Name:  "__extenders__",
		Arity: 0,
		Fun:   em.extendersFun(proto),
	})
	exportOnce(mod, "__extenders__", 0)
	tracer().P("protocol", proto.Name).Debugf("dispatch module (re)emitted")
}

func exportOnce(mod *coreir.Module, name string, arity int) {
	for _, e := range mod.Exports {
		if e.Name == name && e.Arity == arity {
			return
		}
	}
	mod.Exports = append(mod.Exports, coreir.Export{Name: name, Arity: arity})
}

// dispatchFun builds one method's dispatch function: the discriminator tag
// of the first argument selects the implementing module.
func (em *Emitter) dispatchFun(proto *runtime.Protocol, method string, arity int) coreir.Fun {
	params := make([]string, arity)
	args := make([]coreir.Expr, arity)
	for i := range params {
		params[i] = fmt.Sprintf("X%d", i+1)
		args[i] = coreir.Var{Name: params[i]}
	}
	clauses := em.shapeClauses(proto, func(shape string) coreir.Expr {
		return coreir.Call{Module: implModule(proto.Name, shape), Function: method, Args: args}
	})
	clauses = append(clauses, notImplementedClauses(proto.Name, method)...)
	body := coreir.Case{
		Arg:     discriminator(params[0]),
		Clauses: clauses,
	}
	return coreir.Fun{Params: params, Body: body}
}

// shapeClauses builds the per-shape clauses in the frozen total order:
// primitives by host ordering, then tagged-record types alphabetically.
func (em *Emitter) shapeClauses(proto *runtime.Protocol, body func(shape string) coreir.Expr) []coreir.Clause {
	var clauses []coreir.Clause
	for _, prim := range runtime.PrimOrder {
		if !proto.HasPrim(prim) {
			continue
		}
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{coreir.PAtom{Name: prim}},
			Body:     body(prim),
		})
	}
	for _, typeName := range proto.Types() {
		clauses = append(clauses, coreir.Clause{
			Patterns: []coreir.Pat{coreir.PAtom{Name: typeName}},
			Body:     body(typeName),
		})
	}
	return clauses
}

// discriminator computes the dispatch tag of a value: the :type tag for
// tagged records, the primitive shape name otherwise.
func discriminator(param string) coreir.Expr {
	return coreir.Call{Module: "clove.dispatch", Function: "tag",
		Args: []coreir.Expr{coreir.Var{Name: param}}}
}

// notImplementedClauses are the two mandatory trailing clauses: untagged
// records, then the catch-all.
func notImplementedClauses(proto, method string) []coreir.Clause {
	raise := func() coreir.Expr {
		return coreir.Raise{Class: "error", Arg: coreir.Tuple{Items: []coreir.Expr{
			coreir.Atom{Name: "not_implemented"},
			coreir.Atom{Name: proto},
			coreir.Atom{Name: method},
			coreir.Var{Name: "@tag"},
		}}}
	}
	return []coreir.Clause{
		{
			Patterns: []coreir.Pat{coreir.PAlias{Name: "@tag",
				Pat: coreir.PAtom{Name: untaggedRecordTag}}},
			Body: raise(),
		},
		{
			Patterns: []coreir.Pat{coreir.PVar{Name: "@tag"}},
			Body:     raise(),
		},
	}
}

// satisfiesFun derives the boolean predicate over the same discriminator.
func (em *Emitter) satisfiesFun(proto *runtime.Protocol) coreir.Fun {
	clauses := em.shapeClauses(proto, func(string) coreir.Expr {
		return coreir.Lit{Val: value.True}
	})
	clauses = append(clauses, coreir.Clause{
		Patterns: []coreir.Pat{coreir.PWild{}},
		Body:     coreir.Lit{Val: value.False},
	})
	return coreir.Fun{
		Params: []string{"X"},
		Body:   coreir.Case{Arg: discriminator("X"), Clauses: clauses},
	}
}

// extendersFun returns the static extender set.
func (em *Emitter) extendersFun(proto *runtime.Protocol) coreir.Fun {
	var items []coreir.Expr
	for _, ext := range proto.Extenders(runtime.PrimOrder) {
		items = append(items, coreir.Atom{Name: ext})
	}
	return coreir.Fun{Body: coreir.ListExpr{Items: items}}
}

// --- deftype ------------------------------------------------------------------

// emitDefType produces the type's module: a constructor building the
// tagged record, plus one implementation module per extended protocol.
func (em *Emitter) emitDefType(n *ast.DefTypeNode) (coreir.Expr, error) {
	ti := em.reg.FindTypeInfo(n.Name.FullName())
	if ti == nil {
		return nil, clove.E(clove.UnresolvedSymbol, n.Pos, "type %s not registered", n.Name)
	}
	mod := em.mctx.Ensure(ti.Module)
	mod.Attrs["type"] = value.String(ti.Name)
	// __new__ builds {:type => TypeName, field1 => …, …}
	params := make([]string, len(ti.Fields))
	pairs := []coreir.Pair{{
		Key: coreir.Atom{Name: "type"},
		Val: coreir.Atom{Name: ti.Name},
	}}
	for i, f := range ti.Fields {
		params[i] = fmt.Sprintf("F%d_%s", i+1, sanitize(f))
		pairs = append(pairs, coreir.Pair{
			Key: coreir.Atom{Name: f},
			Val: coreir.Var{Name: params[i]},
		})
	}
	mod.ReplaceDef(coreir.FunDef{
		Name:  "__new__",
		Arity: len(params),
		Fun:   coreir.Fun{Params: params, Body: coreir.MapExpr{Pairs: pairs}},
	})
	exportOnce(mod, "__new__", len(params))
	if err := em.emitImpls(ti.Name, n.Fields, n.Methods); err != nil {
		return nil, err
	}
	for _, p := range n.Protocols {
		if proto := em.reg.FindProtocol(p.FullName()); proto != nil {
			em.emitProtocolModule(proto)
		}
	}
	return coreir.Lit{Val: value.NilV}, nil
}

// emitImpls writes method implementations into per-protocol impl modules.
// Methods of tagged records see the record's fields as locals, bound from
// the self argument.
func (em *Emitter) emitImpls(shape string, fields []*ast.BindingNode, methods []ast.TypeMethod) error {
	for _, tm := range methods {
		mod := em.mctx.Ensure(implModule(tm.Protocol.FullName(), shape))
		mod.Attrs["impl"] = value.String(shape)
		body, err := em.methodBody(tm.Method)
		if err != nil {
			return err
		}
		params := methodParams(tm.Method)
		if len(fields) > 0 && len(params) > 0 {
			body = bindFields(fields, params[0], body)
		}
		arity := len(tm.Method.Params)
		mod.ReplaceDef(coreir.FunDef{
			Name:  tm.Name.Name,
			Arity: arity,
			Fun:   coreir.Fun{Params: params, Body: body},
		})
		exportOnce(mod, tm.Name.Name, arity)
	}
	return nil
}

// bindFields wraps a method body with lets extracting each field from the
// self record.
func bindFields(fields []*ast.BindingNode, selfParam string, body coreir.Expr) coreir.Expr {
	out := body
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		out = coreir.Let{
			Vars: []string{localVar(f.Local)},
			Arg: coreir.Call{Module: "erlang", Function: "map_get", Args: []coreir.Expr{
				coreir.Atom{Name: f.Name.Name},
				coreir.Var{Name: selfParam},
			}},
			Body: out,
		}
	}
	return out
}

// --- extend-type --------------------------------------------------------------

// emitExtendType writes the new implementation modules and re-emits every
// touched protocol's dispatch module.
func (em *Emitter) emitExtendType(n *ast.ExtendTypeNode) (coreir.Expr, error) {
	var shape string
	switch t := n.Target.(type) {
	case *value.Symbol:
		shape = t.FullName()
	case value.Keyword:
		shape = t.Name
	default:
		return nil, clove.E(clove.BadSpecialForm, n.Pos, "invalid extend-type target")
	}
	if err := em.emitImpls(shape, nil, n.Methods); err != nil {
		return nil, err
	}
	for _, p := range n.Protocols {
		proto := em.reg.FindProtocol(p.FullName())
		if proto == nil {
			return nil, clove.E(clove.UnresolvedSymbol, n.Pos, "unknown protocol: %s", p)
		}
		em.emitProtocolModule(proto)
	}
	return coreir.Lit{Val: value.NilV}, nil
}
