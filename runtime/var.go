package runtime

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/clove/value"
)

// Var is a named, mutable cell living in a namespace. It holds a root
// binding and, for dynamic Vars, per-task dynamic bindings. A Var is created
// on first def and persists for the lifetime of the process.
type Var struct {
	NS   string
	Name string

	mu      sync.RWMutex
	root    interface{}
	bound   bool
	meta    *value.Map
	macro   bool
	dynamic bool
	fnspec  *FnSpec
}

// FnSpec records where a Var's function root lives as compiled code, so
// invocations with a known arity compile to direct calls.
type FnSpec struct {
	Module        string
	Name          string
	Arities       []int // fixed arities with a top-level function each
	Variadic      bool
	VariadicArity int
}

// HasArity reports whether a direct call with n arguments is possible.
func (fs *FnSpec) HasArity(n int) bool {
	for _, a := range fs.Arities {
		if a == n {
			return true
		}
	}
	return false
}

// NewVar creates an unbound Var. Callers go through Namespace.Intern.
func NewVar(ns, name string) *Var {
	return &Var{NS: ns, Name: name}
}

func (v *Var) String() string {
	return fmt.Sprintf("#'%s/%s", v.NS, v.Name)
}

// Sym returns the Var's fully qualified name as a symbol.
func (v *Var) Sym() *value.Symbol {
	return value.SymQ(v.NS, v.Name)
}

// Root returns the root binding. The second return is false while the Var
// is unbound.
func (v *Var) Root() (interface{}, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.root, v.bound
}

// BindRoot assigns the root binding.
func (v *Var) BindRoot(val interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = val
	v.bound = true
}

// Meta returns the Var's metadata map.
func (v *Var) Meta() *value.Map {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta
}

// SetMeta replaces the Var's metadata and refreshes the macro/dynamic flags
// from it.
func (v *Var) SetMeta(m *value.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.meta = m
	if m != nil {
		if mv, ok := m.Get(value.Kw("macro")); ok {
			v.macro = value.Truthy(mv)
		}
		if dv, ok := m.Get(value.Kw("dynamic")); ok {
			v.dynamic = value.Truthy(dv)
		}
	}
}

// IsMacro reports whether the Var holds a macro function.
func (v *Var) IsMacro() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.macro
}

// SetMacro marks the Var as holding a macro.
func (v *Var) SetMacro() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.macro = true
}

// IsDynamic reports whether the Var supports dynamic bindings.
func (v *Var) IsDynamic() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dynamic
}

// SetDynamic marks the Var as dynamic.
func (v *Var) SetDynamic() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dynamic = true
}

// FnInfo returns the Var's compiled-function record, or nil.
func (v *Var) FnInfo() *FnSpec {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fnspec
}

// SetFnInfo records where the Var's function root lives.
func (v *Var) SetFnInfo(fs *FnSpec) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fnspec = fs
}

// --- Dynamic bindings ---------------------------------------------------------

// Bindings is the per-task dynamic binding state: one stack per dynamic
// Var. Each logical task owns its Bindings; a child task inherits a snapshot
// of its parent's at spawn, and pushes stay local.
type Bindings struct {
	stacks map[*Var]*arraystack.Stack
}

// NewBindings creates an empty per-task binding state.
func NewBindings() *Bindings {
	return &Bindings{stacks: make(map[*Var]*arraystack.Stack)}
}

// Snapshot copies the binding state for a freshly spawned task. The stacks
// are copied, so pushes in either task stay invisible to the other.
func (b *Bindings) Snapshot() *Bindings {
	dup := NewBindings()
	for v, st := range b.stacks {
		cp := arraystack.New()
		// arraystack iterates top-down; rebuild bottom-up
		vals := st.Values()
		for i := len(vals) - 1; i >= 0; i-- {
			cp.Push(vals[i])
		}
		dup.stacks[v] = cp
	}
	return dup
}

// Push establishes a dynamic binding for v.
func (b *Bindings) Push(v *Var, val interface{}) {
	st, ok := b.stacks[v]
	if !ok {
		st = arraystack.New()
		b.stacks[v] = st
	}
	st.Push(val)
}

// Pop removes the innermost dynamic binding for v.
func (b *Bindings) Pop(v *Var) (interface{}, bool) {
	st, ok := b.stacks[v]
	if !ok {
		return nil, false
	}
	return st.Pop()
}

// Lookup returns the innermost dynamic binding of v within this task, or
// falls back to the Var's root binding.
func (b *Bindings) Lookup(v *Var) (interface{}, bool) {
	if b != nil {
		if st, ok := b.stacks[v]; ok {
			if val, ok := st.Peek(); ok {
				return val, true
			}
		}
	}
	return v.Root()
}
