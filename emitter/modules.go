package emitter

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"

	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/value"
)

// ModuleContext accumulates functions into in-progress Core IR modules.
// One context lives per compile; it is created for the compile child task
// and flushed when the task's top-level form is fully emitted.
type ModuleContext struct {
	mu      sync.Mutex
	modules map[string]*coreir.Module
	order   []string
	consts  map[string]map[string]string // module -> value hash -> initializer name
}

// NewModuleContext creates an empty context.
func NewModuleContext() *ModuleContext {
	return &ModuleContext{
		modules: make(map[string]*coreir.Module),
		consts:  make(map[string]map[string]string),
	}
}

// Ensure returns the in-progress module named name, creating it on demand.
func (mc *ModuleContext) Ensure(name string) *coreir.Module {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if m, ok := mc.modules[name]; ok {
		return m
	}
	m := &coreir.Module{Name: name, Attrs: make(map[string]value.Value)}
	mc.modules[name] = m
	mc.order = append(mc.order, name)
	tracer().Debugf("module %s now in progress", name)
	return m
}

// Constant pools a lifted constant as a zero-arity initializer of module. The
// pool key is the value's structural hash, so equal constants share one
// initializer. Returns the initializer's function name and whether it was
// freshly created.
func (mc *ModuleContext) Constant(module string, v value.Value) (string, bool) {
	h := value.Hash(v)
	mc.mu.Lock()
	defer mc.mu.Unlock()
	pool, ok := mc.consts[module]
	if !ok {
		pool = make(map[string]string)
		mc.consts[module] = pool
	}
	if name, ok := pool[h]; ok {
		return name, false
	}
	name := fmt.Sprintf("__const_%d__", len(pool))
	pool[h] = name
	return name, true
}

// Flush finalizes every in-progress module, returning one immutable tree
// per key in creation order. The context is reset; it is not reused across
// compiles.
func (mc *ModuleContext) Flush() []*coreir.Module {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	out := make([]*coreir.Module, 0, len(mc.order))
	for _, name := range mc.order {
		out = append(out, mc.modules[name])
	}
	mc.modules = make(map[string]*coreir.Module)
	mc.consts = make(map[string]map[string]string)
	mc.order = nil
	return out
}
