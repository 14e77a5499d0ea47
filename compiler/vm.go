package compiler

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

// MemoryBackend is the in-process Core IR evaluator. It stands in for the
// host VM: assembled modules are stashed in memory keyed by module name,
// and emitted expressions evaluate against the loaded world. It carries
// just enough of the host's semantics to bootstrap macros and answer the
// value of the last compiled form.
type MemoryBackend struct {
	mu       sync.RWMutex
	modules  map[string]*coreir.Module
	staged   map[string]*coreir.Module
	reg      *runtime.Registry
	bindings *runtime.Bindings
}

var _ coreir.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty backend over a registry.
func NewMemoryBackend(reg *runtime.Registry) *MemoryBackend {
	return &MemoryBackend{
		modules:  make(map[string]*coreir.Module),
		staged:   make(map[string]*coreir.Module),
		reg:      reg,
		bindings: runtime.NewBindings(),
	}
}

// Bindings exposes the driver task's dynamic bindings.
func (vm *MemoryBackend) Bindings() *runtime.Bindings {
	return vm.bindings
}

// Assemble stages the module and returns its textual dump as bytecode.
func (vm *MemoryBackend) Assemble(m *coreir.Module, opts coreir.AssembleOpts) ([]byte, error) {
	if m == nil || m.Name == "" {
		return nil, clove.E(clove.AssemblyFailed, clove.Pos{}, "module tree has no name")
	}
	vm.mu.Lock()
	vm.staged[m.Name] = m
	vm.mu.Unlock()
	return []byte(coreir.DumpString(m)), nil
}

// Load makes a staged module callable. Loading replaces any module of the
// same name (module upgrade).
func (vm *MemoryBackend) Load(name string, bytecode []byte) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	m, ok := vm.staged[name]
	if !ok {
		return clove.E(clove.LoadFailed, clove.Pos{}, "no staged module %s", name)
	}
	delete(vm.staged, name)
	vm.modules[name] = m
	tracer().P("module", name).Debugf("loaded")
	return nil
}

// Eval evaluates top-level expressions, returning the last value.
func (vm *MemoryBackend) Eval(exprs []coreir.Expr) (value.Value, error) {
	var last value.Value = value.NilV
	for _, e := range exprs {
		v, err := vm.eval(e, nil)
		if err != nil {
			return nil, vm.surface(err)
		}
		last = v
	}
	return last, nil
}

// Apply calls a function value with arguments; macros expand through this.
func (vm *MemoryBackend) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	v, err := vm.apply(fn, args)
	if err != nil {
		return nil, vm.surface(err)
	}
	return v, nil
}

// --- Raised terms -------------------------------------------------------------

// raised is a thrown host term travelling as a Go error.
type raised struct {
	class  string
	reason value.Value
	stack  value.Value
}

func (r *raised) Error() string {
	return fmt.Sprintf("%s: %s", r.class, value.PrintString(r.reason))
}

// surface converts an escaped raise into a compiler error kind.
func (vm *MemoryBackend) surface(err error) error {
	r, ok := err.(*raised)
	if !ok {
		return err
	}
	if tup, ok := r.reason.(*value.Vector); ok && tup.Count() > 0 {
		if kw, ok := tup.Nth(0).(value.Keyword); ok && kw.Name == "not_implemented" {
			return clove.E(clove.NotImplemented, clove.Pos{},
				"protocol %s method %s not implemented for %s",
				value.PrintString(tup.Nth(1)), value.PrintString(tup.Nth(2)),
				value.PrintString(tup.Nth(3)))
		}
	}
	return clove.E(clove.LoadFailed, clove.Pos{}, "uncaught %s", r.Error()).Wrap(r)
}

// --- Frames -------------------------------------------------------------------

type frame struct {
	parent *frame
	vars   map[string]value.Value
}

func (f *frame) bind(name string, v value.Value) {
	if f.vars == nil {
		f.vars = make(map[string]value.Value)
	}
	f.vars[name] = v
}

func (f *frame) lookup(name string) (value.Value, bool) {
	for ; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func child(f *frame) *frame {
	return &frame{parent: f}
}

// closure is a Fun plus its captured frame.
type closure struct {
	fun coreir.Fun
	env *frame
}

// modfn is a function value backed by top-level module functions.
type modfn struct {
	module        string
	name          string
	arities       []int
	variadic      bool
	variadicArity int
}

func fnHost(c *closure) *value.Host  { return &value.Host{Name: "fn", Data: c} }
func modHost(m *modfn) *value.Host   { return &value.Host{Name: "modfn", Data: m} }
func varHost(v *runtime.Var) *value.Host {
	return &value.Host{Name: "var", Data: v}
}

// --- Evaluation ----------------------------------------------------------------

func (vm *MemoryBackend) eval(e coreir.Expr, env *frame) (value.Value, error) {
	switch x := e.(type) {
	case nil:
		return value.NilV, nil
	case coreir.Lit:
		return x.Val, nil
	case coreir.Atom:
		return value.Kw(x.Name), nil
	case coreir.Var:
		if v, ok := env.lookup(x.Name); ok {
			return v, nil
		}
		return nil, &raised{class: "error", reason: value.String("unbound variable " + x.Name)}
	case coreir.FnRef:
		if v, ok := env.lookup(x.Name); ok {
			return v, nil
		}
		return nil, &raised{class: "error", reason: value.String("undefined local fun " + x.Name)}
	case coreir.ErlFunRef:
		return modHost(&modfn{module: x.Module, name: x.Function,
			arities: []int{x.Arity}}), nil
	case coreir.Fun:
		return fnHost(&closure{fun: x, env: env}), nil
	case coreir.Apply:
		fn, err := vm.eval(x.Fn, env)
		if err != nil {
			return nil, err
		}
		args, err := vm.evalAll(x.Args, env)
		if err != nil {
			return nil, err
		}
		return vm.apply(fn, args)
	case coreir.Call:
		args, err := vm.evalAll(x.Args, env)
		if err != nil {
			return nil, err
		}
		return vm.call(x.Module, x.Function, args)
	case coreir.Let:
		arg, err := vm.eval(x.Arg, env)
		if err != nil {
			return nil, err
		}
		inner := child(env)
		if len(x.Vars) > 0 {
			inner.bind(x.Vars[0], arg)
		}
		return vm.eval(x.Body, inner)
	case coreir.LetRec:
		inner := child(env)
		for _, d := range x.Defs {
			inner.bind(d.Name, fnHost(&closure{fun: d.Fun, env: inner}))
		}
		return vm.eval(x.Body, inner)
	case coreir.Seq:
		if _, err := vm.eval(x.First, env); err != nil {
			return nil, err
		}
		return vm.eval(x.Then, env)
	case coreir.Case:
		arg, err := vm.eval(x.Arg, env)
		if err != nil {
			return nil, err
		}
		return vm.matchClauses(arg, x.Clauses, env)
	case coreir.Try:
		v, err := vm.eval(x.Arg, env)
		if err == nil {
			inner := child(env)
			if len(x.Vars) > 0 {
				inner.bind(x.Vars[0], v)
			}
			return vm.eval(x.Body, inner)
		}
		r, ok := err.(*raised)
		if !ok {
			return nil, err
		}
		inner := child(env)
		evars := []value.Value{value.Kw(r.class), r.reason, r.stack}
		for i, name := range x.EVars {
			if i < len(evars) {
				ev := evars[i]
				if ev == nil {
					ev = value.NilV
				}
				inner.bind(name, ev)
			}
		}
		return vm.eval(x.Handler, inner)
	case coreir.Raise:
		arg, err := vm.eval(x.Arg, env)
		if err != nil {
			return nil, err
		}
		return nil, &raised{class: x.Class, reason: arg, stack: value.ListOf()}
	case coreir.Receive:
		return nil, &raised{class: "error",
			reason: value.String("receive is not supported by the compile-time evaluator")}
	case coreir.Tuple:
		items, err := vm.evalAll(x.Items, env)
		if err != nil {
			return nil, err
		}
		return value.NewVector(items...), nil
	case coreir.ListExpr:
		items, err := vm.evalAll(x.Items, env)
		if err != nil {
			return nil, err
		}
		if x.Tail != nil {
			tail, err := vm.eval(x.Tail, env)
			if err != nil {
				return nil, err
			}
			if tl, ok := tail.(*value.List); ok {
				return value.ListOf(items...).Concat(tl), nil
			}
		}
		return value.ListOf(items...), nil
	case coreir.MapExpr:
		m := value.NewMap()
		for _, p := range x.Pairs {
			k, err := vm.eval(p.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := vm.eval(p.Val, env)
			if err != nil {
				return nil, err
			}
			m.Assoc(k, v)
		}
		return m, nil
	case coreir.Binary:
		var out []byte
		for _, s := range x.Segments {
			v, err := vm.eval(s.Value, env)
			if err != nil {
				return nil, err
			}
			switch sv := v.(type) {
			case value.String:
				out = append(out, string(sv)...)
			case value.Int:
				out = append(out, byte(sv))
			case value.Char:
				out = append(out, string(rune(sv))...)
			default:
				return nil, &raised{class: "error",
					reason: value.String("unsupported binary segment value")}
			}
		}
		return value.String(out), nil
	}
	return nil, &raised{class: "error",
		reason: value.String(fmt.Sprintf("unhandled Core IR node %T", e))}
}

func (vm *MemoryBackend) evalAll(exprs []coreir.Expr, env *frame) ([]value.Value, error) {
	out := make([]value.Value, len(exprs))
	for i, e := range exprs {
		v, err := vm.eval(e, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// --- Matching -----------------------------------------------------------------

func (vm *MemoryBackend) matchClauses(arg value.Value, clauses []coreir.Clause, env *frame) (value.Value, error) {
	for _, c := range clauses {
		inner := child(env)
		if len(c.Patterns) != 1 || !vm.match(c.Patterns[0], arg, inner) {
			continue
		}
		if c.Guard != nil {
			g, err := vm.eval(c.Guard, inner)
			if err != nil {
				return nil, err
			}
			if !value.Truthy(g) {
				continue
			}
		}
		return vm.eval(c.Body, inner)
	}
	return nil, &raised{class: "error", reason: value.NewVector(value.Kw("case_clause"), arg)}
}

func (vm *MemoryBackend) match(p coreir.Pat, v value.Value, env *frame) bool {
	switch x := p.(type) {
	case coreir.PWild:
		return true
	case coreir.PVar:
		env.bind(x.Name, v)
		return true
	case coreir.PLit:
		return value.Equal(x.Val, v)
	case coreir.PAtom:
		kw, ok := v.(value.Keyword)
		return ok && kw.NS == "" && kw.Name == x.Name
	case coreir.PAlias:
		if !vm.match(x.Pat, v, env) {
			return false
		}
		env.bind(x.Name, v)
		return true
	case coreir.PTuple:
		vec, ok := v.(*value.Vector)
		if !ok || vec.Count() != len(x.Items) {
			return false
		}
		for i, item := range x.Items {
			if !vm.match(item, vec.Nth(i), env) {
				return false
			}
		}
		return true
	case coreir.PList:
		l, ok := v.(*value.List)
		if !ok {
			return false
		}
		for _, item := range x.Items {
			if l.IsEmpty() {
				return false
			}
			if !vm.match(item, l.Car, env) {
				return false
			}
			l = l.Rest()
		}
		if x.Tail != nil {
			return vm.match(x.Tail, l, env)
		}
		return l.IsEmpty()
	case coreir.PMap:
		m, ok := v.(*value.Map)
		if !ok {
			return false
		}
		for _, e := range x.Entries {
			key, ok := patKey(e.Key)
			if !ok {
				return false
			}
			val, present := m.Get(key)
			if !present || !vm.match(e.Val, val, env) {
				return false
			}
		}
		return true
	}
	return false
}

// patKey extracts a literal key from a map pattern entry.
func patKey(p coreir.Pat) (value.Value, bool) {
	switch x := p.(type) {
	case coreir.PAtom:
		return value.Kw(x.Name), true
	case coreir.PLit:
		return x.Val, true
	}
	return nil, false
}

// --- Application ----------------------------------------------------------------

func (vm *MemoryBackend) apply(fn value.Value, args []value.Value) (value.Value, error) {
	switch f := fn.(type) {
	case *value.Host:
		switch d := f.Data.(type) {
		case *closure:
			return vm.applyClosure(d, args)
		case *modfn:
			return vm.applyModFn(d, args)
		case *runtime.Var:
			root, err := vm.deref(d)
			if err != nil {
				return nil, err
			}
			return vm.apply(root, args)
		}
	case value.Keyword:
		// keywords look themselves up in maps
		if len(args) >= 1 {
			if m, ok := args[0].(*value.Map); ok {
				if v, present := m.Get(f); present {
					return v, nil
				}
				if len(args) == 2 {
					return args[1], nil
				}
				return value.NilV, nil
			}
		}
	}
	return nil, &raised{class: "error",
		reason: value.String("not a function: " + value.PrintString(fn))}
}

func (vm *MemoryBackend) applyClosure(c *closure, args []value.Value) (value.Value, error) {
	env := child(c.env)
	if c.fun.Name != "" {
		env.bind(c.fun.Name, fnHost(c))
	}
	if c.fun.Dispatch {
		env.bind(coreir.ArgsVar, value.ListOf(args...))
		return vm.eval(c.fun.Body, env)
	}
	if len(args) != len(c.fun.Params) {
		return nil, &raised{class: "error", reason: value.NewVector(
			value.Kw("badarity"), value.Int(len(args)))}
	}
	for i, p := range c.fun.Params {
		env.bind(p, args[i])
	}
	return vm.eval(c.fun.Body, env)
}

func (vm *MemoryBackend) applyModFn(m *modfn, args []value.Value) (value.Value, error) {
	for _, a := range m.arities {
		if a == len(args) || a < 0 { // negative arity: unchecked host fun reference
			return vm.call(m.module, m.name, args)
		}
	}
	if m.variadic && len(args) >= m.variadicArity {
		fixed := args[:m.variadicArity]
		rest := value.ListOf(args[m.variadicArity:]...)
		return vm.call(m.module, m.name, append(append([]value.Value{}, fixed...), rest))
	}
	return nil, &raised{class: "error", reason: value.NewVector(
		value.Kw("badarity"), value.String(m.module+":"+m.name), value.Int(len(args)))}
}

// call dispatches an inter-module call: the host builtins first, then the
// loaded modules.
func (vm *MemoryBackend) call(module, function string, args []value.Value) (value.Value, error) {
	if fn, ok := builtins[module]; ok {
		return fn(vm, function, args)
	}
	vm.mu.RLock()
	mod, ok := vm.modules[module]
	vm.mu.RUnlock()
	if !ok {
		return nil, &raised{class: "error",
			reason: value.String("undefined module " + module)}
	}
	def, ok := mod.Lookup(function, len(args))
	if !ok {
		return nil, &raised{class: "error", reason: value.String(
			fmt.Sprintf("undefined function %s:%s/%d", module, function, len(args)))}
	}
	env := &frame{}
	for i, p := range def.Fun.Params {
		env.bind(p, args[i])
	}
	return vm.eval(def.Fun.Body, env)
}

func (vm *MemoryBackend) deref(v *runtime.Var) (value.Value, error) {
	root, bound := vm.bindings.Lookup(v)
	if !bound {
		return nil, &raised{class: "error", reason: value.String("unbound var " + v.String())}
	}
	if val, ok := root.(value.Value); ok {
		return val, nil
	}
	return nil, &raised{class: "error", reason: value.String("opaque var root " + v.String())}
}
