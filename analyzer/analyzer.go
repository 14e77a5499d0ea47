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

// MacroEvaluator evaluates a macro Var's function against a form. The
// driver supplies one backed by the loaded world; without one, macros fail
// to expand.
type MacroEvaluator interface {
	EvalMacro(v *runtime.Var, form *value.List, env *runtime.Env) (value.Value, error)
}

// Analyzer lowers reader values to AST nodes.
type Analyzer struct {
	reg       *runtime.Registry
	MacroEval MacroEvaluator
	Warn      func(pos clove.Pos, msg string)

	// analyzer warning suppression flags
	NoWarnSymbolAsErlFun bool
	NoWarnDynamicVarName bool
}

// New creates an analyzer over a namespace registry.
func New(reg *runtime.Registry) *Analyzer {
	return &Analyzer{reg: reg}
}

// maxExpansions bounds runaway macro expansion chains.
const maxExpansions = 512

// SplitTopDo reports whether form is a top-level (do ...) and returns its
// children. The driver analyzes them individually so module side effects
// happen in order.
func SplitTopDo(form value.Value) ([]value.Value, bool) {
	l, ok := form.(*value.List)
	if !ok || l.IsEmpty() {
		return nil, false
	}
	head, ok := l.Car.(*value.Symbol)
	if !ok || head.IsQualified() || head.Name != "do" {
		return nil, false
	}
	return l.Rest().Slice(), true
}

// Analyze lowers one top-level form. It returns the AST node and the
// (possibly updated) environment; (ns …) forms switch the current
// namespace.
func (a *Analyzer) Analyze(form value.Value, env *runtime.Env) (ast.Node, *runtime.Env, error) {
	env.FormCount++
	if nsName, ok := nsForm(form); ok {
		a.reg.FindOrCreate(nsName)
		env2 := env.InNS(nsName)
		tracer().P("ns", nsName).Debugf("switched namespace")
		node := &ast.ConstantNode{Val: value.NilV}
		node.At(form, env2)
		return node, env2, nil
	}
	node, err := a.analyze(form, env, true)
	if err != nil {
		return nil, env, err
	}
	return node, env, nil
}

// nsForm matches (ns name …) and (in-ns 'name).
func nsForm(form value.Value) (string, bool) {
	l, ok := form.(*value.List)
	if !ok || l.IsEmpty() {
		return "", false
	}
	head, ok := l.Car.(*value.Symbol)
	if !ok || head.IsQualified() {
		return "", false
	}
	switch head.Name {
	case "ns":
		if sym, ok := l.Cadr().(*value.Symbol); ok {
			return sym.Name, true
		}
	case "in-ns":
		arg := l.Cadr()
		if q, ok := arg.(*value.List); ok && q.Length() == 2 {
			if h, ok := q.Car.(*value.Symbol); ok && h.Name == "quote" {
				if sym, ok := q.Cadr().(*value.Symbol); ok {
					return sym.Name, true
				}
			}
		}
		if sym, ok := arg.(*value.Symbol); ok {
			return sym.Name, true
		}
	}
	return "", false
}

// analyze dispatches on the value shape. tail tracks whether form sits in
// tail position.
func (a *Analyzer) analyze(form value.Value, env *runtime.Env, tail bool) (ast.Node, error) {
	switch x := form.(type) {
	case nil:
		return a.constant(value.NilV, env), nil
	case *value.Symbol:
		return a.analyzeSymbol(x, env)
	case *value.List:
		if x.IsEmpty() {
			return a.constant(x, env), nil
		}
		return a.analyzeSeq(x, env, tail)
	case *value.Vector:
		return a.analyzeVector(x, env)
	case *value.Map:
		return a.analyzeMap(x, env)
	case *value.Set:
		return a.analyzeSet(x, env)
	case *value.Tagged:
		return a.analyzeTagged(x, env)
	case *value.Cond:
		return nil, clove.E(clove.BadSpecialForm, x.Pos(),
			"unresolved reader conditional reached the analyzer")
	default:
		return a.constant(form, env), nil
	}
}

func (a *Analyzer) constant(v value.Value, env *runtime.Env) *ast.ConstantNode {
	node := &ast.ConstantNode{Val: v}
	node.At(v, env)
	return node
}

// --- Symbols -----------------------------------------------------------------

// analyzeSymbol resolves a bare symbol: local bindings, then the current
// namespace (interns, aliases, referred mappings), then the global registry
// by qualified name, then host types, else Unresolved.
func (a *Analyzer) analyzeSymbol(sym *value.Symbol, env *runtime.Env) (ast.Node, error) {
	if !sym.IsQualified() {
		if lb := env.Lookup(sym.Name); lb != nil {
			node := &ast.LocalNode{Name: sym, Binding: lb}
			node.At(sym, env)
			return node, nil
		}
	}
	ns := env.Namespace()
	if v := a.reg.Resolve(ns, sym); v != nil {
		node := &ast.VarNode{Var: v}
		node.At(sym, env)
		a.applyTag(&node.NodeBase, sym, env)
		return node, nil
	}
	// host types: imported names and registered tagged-record types
	if !sym.IsQualified() {
		if imp := ns.FindImport(sym.Name); imp != nil {
			node := &ast.TypeNode{Name: imp}
			node.At(sym, env)
			return node, nil
		}
	}
	full := sym.FullName()
	if ti := a.reg.FindTypeInfo(a.qualifyType(sym, env)); ti != nil {
		node := &ast.TypeNode{Name: value.Sym(ti.Name)}
		node.At(sym, env)
		return node, nil
	}
	if sym.IsQualified() {
		// Type/static or module:function access on an unknown namespace
		if !a.NoWarnSymbolAsErlFun && a.Warn != nil {
			a.Warn(sym.Pos(), "symbol "+full+" used as a host function")
		}
		node := &ast.ErlFunNode{Module: sym.NS, Function: sym.Name, Arity: -1}
		node.At(sym, env)
		return node, nil
	}
	return nil, clove.E(clove.UnresolvedSymbol, sym.Pos(), "unable to resolve symbol: %s", sym.Name)
}

// qualifyType resolves a type symbol to its registered qualified name.
func (a *Analyzer) qualifyType(sym *value.Symbol, env *runtime.Env) string {
	if sym.IsQualified() {
		return sym.FullName()
	}
	if strings.Contains(sym.Name, ".") {
		return sym.Name
	}
	return env.CurrentNS() + "." + sym.Name
}

// applyTag turns a ^Type hint from the form's metadata into a tag node.
func (a *Analyzer) applyTag(base *ast.NodeBase, form value.Value, env *runtime.Env) {
	meta := value.MetaOf(form)
	if meta == nil {
		return
	}
	tag, ok := meta.Get(value.Kw("tag"))
	if !ok {
		return
	}
	if tsym, ok := tag.(*value.Symbol); ok {
		tn := &ast.TypeNode{Name: tsym}
		tn.At(tag, env)
		base.Tag = tn
	}
}

// --- Sequences ---------------------------------------------------------------

func (a *Analyzer) analyzeSeq(l *value.List, env *runtime.Env, tail bool) (ast.Node, error) {
	expanded, err := a.macroexpand(l, env)
	if err != nil {
		return nil, err
	}
	if expanded != value.Value(l) {
		return a.analyze(expanded, env, tail)
	}
	if head, ok := l.Car.(*value.Symbol); ok && !head.IsQualified() {
		if fn, special := specialForms[head.Name]; special {
			return fn(a, l, env, tail)
		}
	}
	return a.analyzeInvoke(l, env)
}

// macroexpand iterates expansion until a fixed point or a non-list form.
// Special forms are never macro-expanded.
func (a *Analyzer) macroexpand(form value.Value, env *runtime.Env) (value.Value, error) {
	for i := 0; i < maxExpansions; i++ {
		l, ok := form.(*value.List)
		if !ok || l.IsEmpty() {
			return form, nil
		}
		head, ok := l.Car.(*value.Symbol)
		if !ok {
			return form, nil
		}
		if !head.IsQualified() {
			if _, special := specialForms[head.Name]; special {
				return form, nil
			}
		}
		v := a.reg.Resolve(env.Namespace(), head)
		if v == nil || !v.IsMacro() {
			return form, nil
		}
		if a.MacroEval == nil {
			return nil, clove.E(clove.MacroExpansionFailed, head.Pos(),
				"no macro evaluator available for %s", head.FullName())
		}
		tracer().Debugf("expanding macro %s", v)
		expanded, err := a.MacroEval.EvalMacro(v, l, env)
		if err != nil {
			e := clove.E(clove.MacroExpansionFailed, value.PosOf(form),
				"expanding %s in %s", v, value.PrintString(form))
			return nil, e.Wrap(err)
		}
		if value.Equal(expanded, form) {
			return expanded, nil
		}
		form = expanded
	}
	return nil, clove.E(clove.MacroExpansionFailed, value.PosOf(form),
		"macro expansion did not terminate")
}

// analyzeInvoke lowers a function invocation.
func (a *Analyzer) analyzeInvoke(l *value.List, env *runtime.Env) (ast.Node, error) {
	target, err := a.analyzeHead(l, env)
	if err != nil {
		return nil, err
	}
	if head, ok := l.Car.(*value.Symbol); ok && !head.IsQualified() &&
		strings.HasSuffix(head.Name, ".") && len(head.Name) > 1 {
		return target, nil // constructor sugar: target is the complete new node
	}
	var args []ast.Node
	for _, arg := range l.Rest().Slice() {
		n, err := a.analyze(arg, env, false)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	if ef, ok := target.(*ast.ErlFunNode); ok && ef.Arity < 0 {
		ef.Arity = len(args)
	}
	node := &ast.InvokeNode{Target: target, Args: args}
	node.At(l, env)
	return node, nil
}

// analyzeHead analyzes a callee. A symbol head ending in '.' is constructor
// sugar: (T. args) becomes new.
func (a *Analyzer) analyzeHead(l *value.List, env *runtime.Env) (ast.Node, error) {
	if head, ok := l.Car.(*value.Symbol); ok && !head.IsQualified() &&
		strings.HasSuffix(head.Name, ".") && len(head.Name) > 1 {
		return a.ctorSugar(head, l, env)
	}
	return a.analyze(l.Car, env, false)
}

func (a *Analyzer) ctorSugar(head *value.Symbol, l *value.List, env *runtime.Env) (ast.Node, error) {
	tn := value.Sym(strings.TrimSuffix(head.Name, ".")).At(head.Pos())
	args := l.Rest().Slice()
	elems := append([]value.Value{value.Sym("new").At(head.Pos()), tn}, args...)
	return a.analyze(value.ListOf(elems...).At(l.Pos()), env, false)
}

// --- Collections -------------------------------------------------------------

func (a *Analyzer) analyzeVector(v *value.Vector, env *runtime.Env) (ast.Node, error) {
	items, allConst, err := a.analyzeItems(v.Items, env)
	if err != nil {
		return nil, err
	}
	if allConst && v.Meta() == nil {
		return a.constant(v, env), nil
	}
	node := &ast.VectorNode{Items: items}
	node.At(v, env)
	return a.withMeta(node, v.Meta(), env)
}

func (a *Analyzer) analyzeSet(s *value.Set, env *runtime.Env) (ast.Node, error) {
	items, allConst, err := a.analyzeItems(s.Elems(), env)
	if err != nil {
		return nil, err
	}
	if allConst && s.Meta() == nil {
		return a.constant(s, env), nil
	}
	node := &ast.SetNode{Items: items}
	node.At(s, env)
	return a.withMeta(node, s.Meta(), env)
}

func (a *Analyzer) analyzeMap(m *value.Map, env *runtime.Env) (ast.Node, error) {
	var keys, vals []ast.Node
	allConst := true
	var err error
	m.Each(func(e value.MapEntry) {
		if err != nil {
			return
		}
		var kn, vn ast.Node
		if kn, err = a.analyze(e.Key, env, false); err != nil {
			return
		}
		if vn, err = a.analyze(e.Val, env, false); err != nil {
			return
		}
		keys = append(keys, kn)
		vals = append(vals, vn)
		if kn.Op() != ast.Constant || vn.Op() != ast.Constant {
			allConst = false
		}
	})
	if err != nil {
		return nil, err
	}
	if allConst && m.Meta() == nil {
		return a.constant(m, env), nil
	}
	node := &ast.MapNode{Keys: keys, Vals: vals}
	node.At(m, env)
	return a.withMeta(node, m.Meta(), env)
}

func (a *Analyzer) analyzeItems(items []value.Value, env *runtime.Env) ([]ast.Node, bool, error) {
	var nodes []ast.Node
	allConst := true
	for _, item := range items {
		n, err := a.analyze(item, env, false)
		if err != nil {
			return nil, false, err
		}
		if n.Op() != ast.Constant {
			allConst = false
		}
		nodes = append(nodes, n)
	}
	return nodes, allConst, nil
}

func (a *Analyzer) withMeta(node ast.Node, meta *value.Map, env *runtime.Env) (ast.Node, error) {
	if meta == nil {
		return node, nil
	}
	metaNode, err := a.analyzeMap(meta, env)
	if err != nil {
		return nil, err
	}
	wm := &ast.WithMetaNode{Meta: metaNode, Expr: node}
	wm.NodeBase = *node.Base()
	return wm, nil
}

// --- Tagged host constructs ---------------------------------------------------

// analyzeTagged lowers #erl/tuple, #erl/list, #erl/map and #erl/binary
// literals to the host VM's native constructors. Any other tagged literal
// that survived reading is embedded as a constant.
func (a *Analyzer) analyzeTagged(t *value.Tagged, env *runtime.Env) (ast.Node, error) {
	switch t.Tag.FullName() {
	case "erl/tuple":
		vec, ok := t.Form.(*value.Vector)
		if !ok {
			return nil, clove.E(clove.BadSpecialForm, t.Pos(), "#erl/tuple expects a vector")
		}
		items, _, err := a.analyzeItems(vec.Items, env)
		if err != nil {
			return nil, err
		}
		node := &ast.TupleNode{Items: items}
		node.At(t, env)
		return node, nil
	case "erl/list":
		vec, ok := t.Form.(*value.Vector)
		if !ok {
			return nil, clove.E(clove.BadSpecialForm, t.Pos(), "#erl/list expects a vector")
		}
		items, _, err := a.analyzeItems(vec.Items, env)
		if err != nil {
			return nil, err
		}
		node := &ast.ErlListNode{Items: items}
		node.At(t, env)
		return node, nil
	case "erl/map":
		m, ok := t.Form.(*value.Map)
		if !ok {
			return nil, clove.E(clove.BadSpecialForm, t.Pos(), "#erl/map expects a map")
		}
		var keys, vals []ast.Node
		var err error
		m.Each(func(e value.MapEntry) {
			if err != nil {
				return
			}
			var kn, vn ast.Node
			if kn, err = a.analyze(e.Key, env, false); err != nil {
				return
			}
			if vn, err = a.analyze(e.Val, env, false); err != nil {
				return
			}
			keys = append(keys, kn)
			vals = append(vals, vn)
		})
		if err != nil {
			return nil, err
		}
		node := &ast.ErlMapNode{Keys: keys, Vals: vals}
		node.At(t, env)
		return node, nil
	case "erl/binary":
		vec, ok := t.Form.(*value.Vector)
		if !ok {
			return nil, clove.E(clove.BadSpecialForm, t.Pos(), "#erl/binary expects a vector")
		}
		node := &ast.ErlBinaryNode{}
		node.At(t, env)
		for _, seg := range vec.Items {
			sn, err := a.analyzeSegment(seg, env)
			if err != nil {
				return nil, err
			}
			node.Segments = append(node.Segments, sn)
		}
		return node, nil
	}
	return a.constant(t, env), nil
}

// analyzeSegment lowers one binary segment: either a bare expression or
// [expr :size n :type :kw].
func (a *Analyzer) analyzeSegment(seg value.Value, env *runtime.Env) (*ast.BinarySegmentNode, error) {
	node := &ast.BinarySegmentNode{Kind: value.Kw("integer"), Unit: 1}
	node.At(seg, env)
	spec, ok := seg.(*value.Vector)
	if !ok {
		v, err := a.analyze(seg, env, false)
		if err != nil {
			return nil, err
		}
		node.Value = v
		return node, nil
	}
	if spec.Count() == 0 {
		return nil, clove.E(clove.BadSpecialForm, value.PosOf(seg), "empty binary segment")
	}
	v, err := a.analyze(spec.Nth(0), env, false)
	if err != nil {
		return nil, err
	}
	node.Value = v
	for i := 1; i+1 < spec.Count(); i += 2 {
		kw, ok := spec.Nth(i).(value.Keyword)
		if !ok {
			return nil, clove.E(clove.BadSpecialForm, value.PosOf(seg),
				"binary segment option must be a keyword")
		}
		switch kw.Name {
		case "size":
			sz, err := a.analyze(spec.Nth(i+1), env, false)
			if err != nil {
				return nil, err
			}
			node.Size = sz
		case "type":
			if tkw, ok := spec.Nth(i+1).(value.Keyword); ok {
				node.Kind = tkw
			}
		case "unit":
			if u, ok := spec.Nth(i+1).(value.Int); ok {
				node.Unit = int(u)
			}
		default:
			node.Flags = append(node.Flags, kw)
		}
	}
	return node, nil
}
