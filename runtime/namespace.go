package runtime

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sort"
	"sync"

	"github.com/npillmayer/clove/value"
)

// Namespace is a named scope mapping unqualified symbols to Vars, aliases
// and referred mappings. Namespaces are owned by the registry and mutated
// only through it.
type Namespace struct {
	Name string

	mu       sync.RWMutex
	interns  map[string]*Var           // Vars homed here
	mappings map[string]*Var           // referred Vars from other namespaces
	aliases  map[string]*Namespace     // alias -> namespace
	imports  map[string]*value.Symbol  // local type name -> qualified type
	macros   map[string]*Var           // referred macros
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		Name:     name,
		interns:  make(map[string]*Var),
		mappings: make(map[string]*Var),
		aliases:  make(map[string]*Namespace),
		imports:  make(map[string]*value.Symbol),
		macros:   make(map[string]*Var),
	}
}

// Intern finds or creates the Var named name, homed in this namespace.
// Interning is first-writer-wins: a second intern returns the existing Var.
func (ns *Namespace) Intern(name string) *Var {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if v, ok := ns.interns[name]; ok {
		return v
	}
	v := NewVar(ns.Name, name)
	ns.interns[name] = v
	tracer().P("ns", ns.Name).Debugf("interned Var %s", v)
	return v
}

// FindIntern returns a Var homed here, or nil.
func (ns *Namespace) FindIntern(name string) *Var {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.interns[name]
}

// Refer maps a Var from another namespace into this one.
func (ns *Namespace) Refer(name string, v *Var) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.mappings[name] = v
	if v.IsMacro() {
		ns.macros[name] = v
	}
}

// FindMapping returns a referred Var, or nil.
func (ns *Namespace) FindMapping(name string) *Var {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.mappings[name]
}

// Alias registers other under alias.
func (ns *Namespace) Alias(alias string, other *Namespace) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.aliases[alias] = other
}

// FindAlias resolves an alias, or returns nil.
func (ns *Namespace) FindAlias(alias string) *Namespace {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.aliases[alias]
}

// Import records a host type under its local name.
func (ns *Namespace) Import(local string, qualified *value.Symbol) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.imports[local] = qualified
}

// FindImport resolves an imported type name, or returns nil.
func (ns *Namespace) FindImport(local string) *value.Symbol {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.imports[local]
}

// Interns lists the names of the Vars homed here, sorted.
func (ns *Namespace) Interns() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	names := make([]string, 0, len(ns.interns))
	for n := range ns.interns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// --- Registry -----------------------------------------------------------------

// Registry is the process-wide namespace registry. It is single-writer by
// virtue of the driver's serial loop; the lock protects readers in user
// tasks.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
	protocols  map[string]*Protocol
	types      map[string]*TypeInfo
}

// NewRegistry creates a registry with no namespaces.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]*Namespace),
		protocols:  make(map[string]*Protocol),
		types:      make(map[string]*TypeInfo),
	}
}

// FindOrCreate returns the namespace named name, creating it on demand.
func (reg *Registry) FindOrCreate(name string) *Namespace {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if ns, ok := reg.namespaces[name]; ok {
		return ns
	}
	ns := newNamespace(name)
	reg.namespaces[name] = ns
	tracer().Debugf("created namespace %s", name)
	return ns
}

// Find returns the namespace named name, or nil.
func (reg *Registry) Find(name string) *Namespace {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.namespaces[name]
}

// Resolve finds the Var a (possibly qualified) symbol denotes, looking in
// ns. Resolution order for bare symbols: interns, then referred mappings.
// Qualified symbols go through aliases first, then the registry.
func (reg *Registry) Resolve(ns *Namespace, sym *value.Symbol) *Var {
	if sym.IsQualified() {
		target := ns.FindAlias(sym.NS)
		if target == nil {
			target = reg.Find(sym.NS)
		}
		if target == nil {
			return nil
		}
		if v := target.FindIntern(sym.Name); v != nil {
			return v
		}
		return nil
	}
	if v := ns.FindIntern(sym.Name); v != nil {
		return v
	}
	return ns.FindMapping(sym.Name)
}

// VarCount counts all interned Vars across all namespaces. The driver uses
// it to check namespace monotonicity during a batch.
func (reg *Registry) VarCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	n := 0
	for _, ns := range reg.namespaces {
		ns.mu.RLock()
		n += len(ns.interns)
		ns.mu.RUnlock()
	}
	return n
}

// Names lists the registered namespace names, sorted.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.namespaces))
	for n := range reg.namespaces {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
