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
)

// PrimOrder is the frozen host ordering of primitive shapes (host type ids
// 1..14). Generated dispatch modules emit primitive clauses in exactly this
// order.
var PrimOrder = []string{
	"integer", "float", "boolean", "atom", "binary", "reference",
	"fun", "port", "pid", "tuple", "map", "list", "string", "nil",
}

// ProtoMethod is one method signature of a protocol.
type ProtoMethod struct {
	Name    string
	Arities []int
}

// Protocol records a protocol's signatures and the set of shapes extending
// it. The dispatch module is regenerated from this record whenever the set
// changes, so re-emission keeps a stable identity.
type Protocol struct {
	Name    string // fully qualified, also the dispatch module name
	Methods []ProtoMethod

	mu    sync.RWMutex
	types map[string]bool // tagged-record types, by qualified name
	prims map[string]bool // primitive shapes, by keyword name
}

// NewProtocol creates a protocol record.
func NewProtocol(name string, methods []ProtoMethod) *Protocol {
	return &Protocol{
		Name:    name,
		Methods: methods,
		types:   make(map[string]bool),
		prims:   make(map[string]bool),
	}
}

// IsMarker reports a protocol without methods.
func (p *Protocol) IsMarker() bool {
	return len(p.Methods) == 0
}

// ExtendType registers a tagged-record type as implementing p. A type may
// implement a protocol at most once; re-extension replaces silently.
func (p *Protocol) ExtendType(typeName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types[typeName] = true
}

// ExtendPrim registers a primitive shape (by keyword name, e.g. "integer").
func (p *Protocol) ExtendPrim(prim string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prims[prim] = true
}

// Types lists extending tagged-record types in alphabetical order; the
// dispatch clause order depends on it.
func (p *Protocol) Types() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.types))
	for n := range p.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasPrim reports whether a primitive shape extends p.
func (p *Protocol) HasPrim(prim string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prims[prim]
}

// Extenders lists every extending shape: primitives in declared host order
// first (as :keyword names), then tagged-record types alphabetically.
func (p *Protocol) Extenders(primOrder []string) []string {
	var out []string
	p.mu.RLock()
	for _, prim := range primOrder {
		if p.prims[prim] {
			out = append(out, ":"+prim)
		}
	}
	p.mu.RUnlock()
	return append(out, p.Types()...)
}

// --- Types --------------------------------------------------------------------

// TypeInfo records a deftype'd tagged-record type.
type TypeInfo struct {
	Name   string // fully qualified
	Module string // host module implementing the type
	Fields []string
}

// --- Registry surface ---------------------------------------------------------

// DefProtocol registers (or replaces the signatures of) a protocol.
func (reg *Registry) DefProtocol(name string, methods []ProtoMethod) *Protocol {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if p, ok := reg.protocols[name]; ok {
		p.Methods = methods
		return p
	}
	p := NewProtocol(name, methods)
	reg.protocols[name] = p
	tracer().Debugf("registered protocol %s with %d methods", name, len(methods))
	return p
}

// FindProtocol returns a protocol, or nil.
func (reg *Registry) FindProtocol(name string) *Protocol {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.protocols[name]
}

// Protocols lists the registered protocol names, sorted.
func (reg *Registry) Protocols() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.protocols))
	for n := range reg.protocols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefTypeInfo registers a tagged-record type.
func (reg *Registry) DefTypeInfo(ti *TypeInfo) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.types[ti.Name] = ti
}

// FindTypeInfo returns a type record, or nil.
func (reg *Registry) FindTypeInfo(name string) *TypeInfo {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.types[name]
}
