package compiler

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

// Host builtin modules of the in-memory backend. The emitter compiles
// against these names; a real host VM provides its own equivalents.

type builtinFn func(vm *MemoryBackend, function string, args []value.Value) (value.Value, error)

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"clove.var":      callVarModule,
		"clove.fn":       callFnModule,
		"clove.ns":       callNsModule,
		"clove.dispatch": callDispatchModule,
		"erlang":         callErlangModule,
		"clojure.core":   callCoreModule,
	}
}

func badCall(module, function string, args []value.Value) error {
	return &raised{class: "error", reason: value.String(
		fmt.Sprintf("undefined function %s:%s/%d", module, function, len(args)))}
}

func kwName(v value.Value) (string, bool) {
	kw, ok := v.(value.Keyword)
	if !ok {
		return "", false
	}
	return kw.Name, true
}

// --- clove.var -----------------------------------------------------------------

func callVarModule(vm *MemoryBackend, function string, args []value.Value) (value.Value, error) {
	switch function {
	case "def":
		if len(args) < 2 {
			return nil, badCall("clove.var", function, args)
		}
		ns, _ := kwName(args[0])
		name, _ := kwName(args[1])
		v := vm.reg.FindOrCreate(ns).Intern(name)
		if len(args) >= 3 {
			v.BindRoot(args[2])
		}
		if len(args) >= 4 {
			if flag, ok := kwName(args[3]); ok && flag == "dynamic" {
				v.SetDynamic()
			}
		}
		return varHost(v), nil
	case "find", "deref":
		if len(args) != 2 {
			return nil, badCall("clove.var", function, args)
		}
		ns, _ := kwName(args[0])
		name, _ := kwName(args[1])
		nsp := vm.reg.Find(ns)
		if nsp == nil {
			return nil, &raised{class: "error",
				reason: value.String("no such namespace " + ns)}
		}
		v := nsp.FindIntern(name)
		if v == nil {
			v = nsp.FindMapping(name)
		}
		if v == nil {
			return nil, &raised{class: "error",
				reason: value.String("no such var " + ns + "/" + name)}
		}
		if function == "find" {
			return varHost(v), nil
		}
		return vm.deref(v)
	case "set":
		if len(args) != 2 {
			return nil, badCall("clove.var", function, args)
		}
		host, ok := args[0].(*value.Host)
		if !ok {
			return nil, badCall("clove.var", function, args)
		}
		v, ok := host.Data.(*runtime.Var)
		if !ok {
			return nil, badCall("clove.var", function, args)
		}
		// replace the innermost task binding, or the root when unbound
		if _, had := vm.bindings.Pop(v); had {
			vm.bindings.Push(v, args[1])
		} else {
			v.BindRoot(args[1])
		}
		return args[1], nil
	}
	return nil, badCall("clove.var", function, args)
}

// --- clove.fn ------------------------------------------------------------------

func callFnModule(vm *MemoryBackend, function string, args []value.Value) (value.Value, error) {
	switch function {
	case "mk":
		if len(args) != 4 {
			return nil, badCall("clove.fn", function, args)
		}
		mod, _ := kwName(args[0])
		name, _ := kwName(args[1])
		m := &modfn{module: mod, name: name}
		if arities, ok := args[2].(*value.List); ok {
			arities.ForEach(func(v value.Value) bool {
				if n, ok := v.(value.Int); ok {
					m.arities = append(m.arities, int(n))
				}
				return true
			})
		}
		if n, ok := args[3].(value.Int); ok {
			m.variadic = true
			m.variadicArity = int(n)
		}
		return modHost(m), nil
	case "apply":
		if len(args) != 2 {
			return nil, badCall("clove.fn", function, args)
		}
		argList, ok := args[1].(*value.List)
		if !ok {
			return nil, badCall("clove.fn", function, args)
		}
		return vm.apply(args[0], argList.Slice())
	}
	return nil, badCall("clove.fn", function, args)
}

// --- clove.ns ------------------------------------------------------------------

func callNsModule(vm *MemoryBackend, function string, args []value.Value) (value.Value, error) {
	switch function {
	case "import":
		return value.NilV, nil
	case "resolve_type":
		if len(args) == 1 {
			if name, ok := kwName(args[0]); ok {
				return value.Kw(name), nil
			}
		}
	}
	return nil, badCall("clove.ns", function, args)
}

// --- clove.dispatch -----------------------------------------------------------

// callDispatchModule computes the dispatch tag of a value: the :type tag
// for tagged records, the primitive shape name otherwise.
func callDispatchModule(vm *MemoryBackend, function string, args []value.Value) (value.Value, error) {
	if function != "tag" || len(args) != 1 {
		return nil, badCall("clove.dispatch", function, args)
	}
	return dispatchTag(args[0]), nil
}

func dispatchTag(v value.Value) value.Keyword {
	switch x := v.(type) {
	case value.Nil, nil:
		return value.Kw("nil")
	case value.Bool:
		return value.Kw("boolean")
	case value.Int, value.BigInt, value.Char:
		return value.Kw("integer")
	case value.Float, value.BigDec:
		return value.Kw("float")
	case value.String:
		return value.Kw("string")
	case value.Keyword, *value.Symbol:
		return value.Kw("atom")
	case value.Regex:
		return value.Kw("reference")
	case *value.List:
		return value.Kw("list")
	case *value.Map:
		if t, ok := x.Get(value.Kw("type")); ok {
			if kw, ok := t.(value.Keyword); ok {
				return kw
			}
		}
		return value.Kw("map")
	case *value.Vector:
		if x.Count() > 0 {
			if _, ok := x.Nth(0).(value.Keyword); ok {
				return value.Kw("__record__")
			}
		}
		return value.Kw("tuple")
	case *value.Host:
		switch x.Data.(type) {
		case *closure, *modfn:
			return value.Kw("fun")
		}
		return value.Kw("reference")
	}
	return value.Kw("reference")
}

// --- erlang --------------------------------------------------------------------

func callErlangModule(vm *MemoryBackend, function string, args []value.Value) (value.Value, error) {
	switch function {
	case "map_get":
		if len(args) == 2 {
			if m, ok := args[1].(*value.Map); ok {
				if v, present := m.Get(args[0]); present {
					return v, nil
				}
				return nil, &raised{class: "error", reason: value.NewVector(
					value.Kw("badkey"), args[0])}
			}
		}
	case "raise":
		if len(args) == 3 {
			class, _ := kwName(args[0])
			return nil, &raised{class: class, reason: args[1], stack: args[2]}
		}
	case "length":
		if len(args) == 1 {
			if l, ok := args[0].(*value.List); ok {
				return value.Int(l.Length()), nil
			}
		}
	case "hd":
		if len(args) == 1 {
			if l, ok := args[0].(*value.List); ok && !l.IsEmpty() {
				return l.Car, nil
			}
		}
	case "tl":
		if len(args) == 1 {
			if l, ok := args[0].(*value.List); ok && !l.IsEmpty() {
				return l.Rest(), nil
			}
		}
	case "+", "-", "*", "div", "rem":
		return arith(function, args)
	case "==", "=:=":
		if len(args) == 2 {
			return value.Bool(value.Equal(args[0], args[1])), nil
		}
	case "<", ">", "=<", ">=":
		return compare(function, args)
	}
	return nil, badCall("erlang", function, args)
}

func numOf(v value.Value) (int64, float64, bool, bool) {
	switch x := v.(type) {
	case value.Int:
		return int64(x), float64(x), false, true
	case value.Float:
		return 0, float64(x), true, true
	case value.BigInt:
		if x.Val.IsInt64() {
			n := x.Val.Int64()
			return n, float64(n), false, true
		}
	}
	return 0, 0, false, false
}

func arith(op string, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, badCall("erlang", op, args)
	}
	ai, af, afl, aok := numOf(args[0])
	bi, bf, bfl, bok := numOf(args[1])
	if !aok || !bok {
		return nil, &raised{class: "error", reason: value.NewVector(value.Kw("badarith"))}
	}
	if afl || bfl {
		switch op {
		case "+":
			return value.Float(af + bf), nil
		case "-":
			return value.Float(af - bf), nil
		case "*":
			return value.Float(af * bf), nil
		}
		return nil, &raised{class: "error", reason: value.NewVector(value.Kw("badarith"))}
	}
	switch op {
	case "+":
		return intOrBig(new(big.Int).Add(big.NewInt(ai), big.NewInt(bi))), nil
	case "-":
		return intOrBig(new(big.Int).Sub(big.NewInt(ai), big.NewInt(bi))), nil
	case "*":
		return intOrBig(new(big.Int).Mul(big.NewInt(ai), big.NewInt(bi))), nil
	case "div":
		if bi == 0 {
			return nil, &raised{class: "error", reason: value.NewVector(value.Kw("badarith"))}
		}
		return value.Int(ai / bi), nil
	case "rem":
		if bi == 0 {
			return nil, &raised{class: "error", reason: value.NewVector(value.Kw("badarith"))}
		}
		return value.Int(ai % bi), nil
	}
	return nil, badCall("erlang", op, args)
}

func intOrBig(x *big.Int) value.Value {
	if x.IsInt64() {
		return value.Int(x.Int64())
	}
	return value.MkBigInt(x)
}

func compare(op string, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, badCall("erlang", op, args)
	}
	_, af, _, aok := numOf(args[0])
	_, bf, _, bok := numOf(args[1])
	if !aok || !bok {
		return nil, &raised{class: "error", reason: value.NewVector(value.Kw("badarith"))}
	}
	switch op {
	case "<":
		return value.Bool(af < bf), nil
	case ">":
		return value.Bool(af > bf), nil
	case "=<":
		return value.Bool(af <= bf), nil
	case ">=":
		return value.Bool(af >= bf), nil
	}
	return nil, badCall("erlang", op, args)
}

// --- clojure.core ----------------------------------------------------------------

// The persistent-collection runtime library is a fixed collaborator; the
// backend carries the slice of it the emitted code reaches for.
func callCoreModule(vm *MemoryBackend, function string, args []value.Value) (value.Value, error) {
	switch function {
	case "list":
		return value.ListOf(args...), nil
	case "vector":
		return value.NewVector(args...), nil
	case "hash-map":
		if len(args)%2 != 0 {
			return nil, badCall("clojure.core", function, args)
		}
		return value.MapOf(args...), nil
	case "hash-set":
		return value.SetOf(args...), nil
	case "seq":
		return coreSeq(args)
	case "concat":
		return coreConcat(args)
	case "first":
		if len(args) == 1 {
			if l, ok := seqable(args[0]); ok {
				v := l.First()
				if v == nil {
					return value.NilV, nil
				}
				return v, nil
			}
		}
	case "rest":
		if len(args) == 1 {
			if l, ok := seqable(args[0]); ok {
				return l.Rest(), nil
			}
		}
	case "cons":
		if len(args) == 2 {
			if l, ok := seqable(args[1]); ok {
				return value.Cons(args[0], l), nil
			}
		}
	case "apply":
		if len(args) >= 2 {
			last, ok := seqable(args[len(args)-1])
			if !ok {
				break
			}
			fnArgs := append(append([]value.Value{}, args[1:len(args)-1]...), last.Slice()...)
			return vm.apply(args[0], fnArgs)
		}
	case "with-meta":
		if len(args) == 2 {
			meta, ok := args[1].(*value.Map)
			if !ok {
				break
			}
			if v, ok := value.AttachMeta(args[0], meta); ok {
				return v, nil
			}
			return args[0], nil
		}
	case "meta":
		if len(args) == 1 {
			if m := value.MetaOf(args[0]); m != nil {
				return m, nil
			}
			return value.NilV, nil
		}
	case "re-pattern":
		if len(args) == 1 {
			if s, ok := args[0].(value.String); ok {
				if _, err := regexp.Compile(string(s)); err != nil {
					return nil, &raised{class: "error",
						reason: value.String("invalid regex: " + err.Error())}
				}
				return value.Regex(string(s)), nil
			}
		}
	case "tagged-literal":
		if len(args) == 2 {
			// construction of an unresolved tagged literal constant
			if sym, ok := args[0].(*value.Symbol); ok {
				return value.NewTagged(sym, args[1], sym.Pos()), nil
			}
		}
	case "symbol":
		if len(args) == 2 {
			ns, _ := args[0].(value.String)
			name, _ := args[1].(value.String)
			return value.SymQ(string(ns), string(name)), nil
		}
	case "=":
		if len(args) == 2 {
			return value.Bool(value.Equal(args[0], args[1])), nil
		}
	case "count":
		if len(args) == 1 {
			switch x := args[0].(type) {
			case *value.List:
				return value.Int(x.Length()), nil
			case *value.Vector:
				return value.Int(x.Count()), nil
			case *value.Map:
				return value.Int(x.Count()), nil
			case *value.Set:
				return value.Int(x.Count()), nil
			}
		}
	case "deref":
		if len(args) == 1 {
			if host, ok := args[0].(*value.Host); ok {
				if v, ok := host.Data.(*runtime.Var); ok {
					return vm.deref(v)
				}
			}
		}
	case "str":
		var out string
		for _, a := range args {
			if s, ok := a.(value.String); ok {
				out += string(s)
			} else if !value.IsNil(a) {
				out += value.PrintString(a)
			}
		}
		return value.String(out), nil
	}
	return nil, badCall("clojure.core", function, args)
}

func seqable(v value.Value) (*value.List, bool) {
	switch x := v.(type) {
	case value.Nil:
		return value.ListOf(), true
	case *value.List:
		return x, true
	case *value.Vector:
		return value.ListOf(x.Items...), true
	case *value.Set:
		return value.ListOf(x.Elems()...), true
	}
	return nil, false
}

func coreSeq(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, badCall("clojure.core", "seq", args)
	}
	l, ok := seqable(args[0])
	if !ok {
		if m, isMap := args[0].(*value.Map); isMap {
			var entries []value.Value
			m.Each(func(e value.MapEntry) {
				entries = append(entries, value.NewVector(e.Key, e.Val))
			})
			l = value.ListOf(entries...)
			ok = true
		}
	}
	if !ok {
		return nil, badCall("clojure.core", "seq", args)
	}
	if l.IsEmpty() {
		return value.NilV, nil
	}
	return l, nil
}

func coreConcat(args []value.Value) (value.Value, error) {
	out := value.ListOf()
	for _, a := range args {
		if value.IsNil(a) {
			continue
		}
		l, ok := seqable(a)
		if !ok {
			return nil, badCall("clojure.core", "concat", args)
		}
		out = out.Concat(l)
	}
	return out, nil
}
