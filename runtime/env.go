package runtime

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/npillmayer/clove/value"
)

// --- Local bindings ----------------------------------------------------------

// BindKind classifies how a local binding was introduced.
type BindKind int8

const (
	ArgBinding BindKind = iota
	LetBinding
	LoopBinding
	CatchBinding
)

var bindKindNames = []string{"arg", "let", "loop", "catch"}

func (k BindKind) String() string {
	if k < 0 || int(k) >= len(bindKindNames) {
		return "binding[?]"
	}
	return bindKindNames[k]
}

var bindingSerial int64

// LocalBinding is one lexical binding. Shadow links to the binding this one
// shadows, if any.
type LocalBinding struct {
	Name       *value.Symbol
	ID         int64
	Kind       BindKind
	Variadic   bool
	Underscore bool
	Shadow     *LocalBinding
}

// NewLocalBinding creates a binding with a fresh id.
func NewLocalBinding(name *value.Symbol, kind BindKind) *LocalBinding {
	return &LocalBinding{
		Name:       name,
		ID:         atomic.AddInt64(&bindingSerial, 1),
		Kind:       kind,
		Underscore: strings.HasPrefix(name.Name, "_"),
	}
}

// String is a debug Stringer for bindings.
func (lb *LocalBinding) String() string {
	return fmt.Sprintf("<local '%s':%s>", lb.Name, lb.Kind)
}

// --- Frames -----------------------------------------------------------------

// frame is one lexical scope. Frames link back to a parent frame, forming a
// tree; the environment holds the top of the active path.
type frame struct {
	name      string
	parent    *frame
	locals    map[string]*LocalBinding
	loopID    *value.Symbol // innermost recur target, inherited
	loopArity int
	tryDepth  int
}

func newFrame(nm string, parent *frame) *frame {
	f := &frame{
		name:   nm,
		parent: parent,
		locals: make(map[string]*LocalBinding),
	}
	if parent != nil {
		f.loopID = parent.loopID
		f.loopArity = parent.loopArity
		f.tryDepth = parent.tryDepth
	}
	return f
}

// --- Environment -------------------------------------------------------------

// Env is the analyzer's environment: a stack of lexical frames over the
// namespace registry. Envs are copied on push, so extending an environment
// never disturbs the env a caller holds.
type Env struct {
	tos       *frame
	registry  *Registry
	nsName    string
	Eval      interface{} // result slot of the most recent evaluated expression
	FormCount int         // compilation counters, diagnostics only
}

// NewEnv creates an environment bound to a registry, with the global frame
// pushed and the current namespace set to ns.
func NewEnv(reg *Registry, ns string) *Env {
	env := &Env{
		tos:      newFrame("globals", nil),
		registry: reg,
		nsName:   ns,
	}
	return env
}

// Registry returns the namespace registry this environment resolves in.
func (env *Env) Registry() *Registry {
	return env.registry
}

// CurrentNS returns the name of the current namespace.
func (env *Env) CurrentNS() string {
	return env.nsName
}

// InNS returns a copy of env with the current namespace switched.
func (env *Env) InNS(ns string) *Env {
	dup := *env
	dup.nsName = ns
	return &dup
}

// PushFrame returns a copy of env with a fresh lexical frame on top.
func (env *Env) PushFrame(nm string) *Env {
	dup := *env
	dup.tos = newFrame(nm, env.tos)
	tracer().P("scope", nm).Debugf("pushing new lexical frame")
	return &dup
}

// Define registers a local binding in the top frame. A binding of the same
// name in an outer frame (or earlier in this frame) is recorded as shadowed.
func (env *Env) Define(lb *LocalBinding) {
	if prev := env.Lookup(lb.Name.Name); prev != nil {
		lb.Shadow = prev
	}
	env.tos.locals[lb.Name.Name] = lb
}

// Lookup finds a local binding, innermost frame first. Returns nil when the
// name is not lexically bound.
func (env *Env) Lookup(name string) *LocalBinding {
	for f := env.tos; f != nil; f = f.parent {
		if lb, ok := f.locals[name]; ok {
			return lb
		}
	}
	return nil
}

// WithLoop returns a copy of env whose top frame is a recur target with the
// given loop id and arity.
func (env *Env) WithLoop(loopID *value.Symbol, arity int) *Env {
	dup := env.PushFrame("loop " + loopID.Name)
	dup.tos.loopID = loopID
	dup.tos.loopArity = arity
	return dup
}

// NoRecur returns a copy of env with the recur target masked, for positions
// (like fn bodies nested in a loop) which establish their own targets.
func (env *Env) NoRecur() *Env {
	dup := env.PushFrame("no-recur")
	dup.tos.loopID = nil
	dup.tos.loopArity = 0
	return dup
}

// LoopTarget reports the innermost recur target, if any.
func (env *Env) LoopTarget() (*value.Symbol, int, bool) {
	if env.tos.loopID == nil {
		return nil, 0, false
	}
	return env.tos.loopID, env.tos.loopArity, true
}

// InTry returns a copy of env with the try depth raised.
func (env *Env) InTry() *Env {
	dup := env.PushFrame("try")
	dup.tos.tryDepth++
	return dup
}

// TryDepth returns the current try/catch nesting depth.
func (env *Env) TryDepth() int {
	return env.tos.tryDepth
}

// Namespace returns the current namespace object, creating it on demand.
func (env *Env) Namespace() *Namespace {
	return env.registry.FindOrCreate(env.nsName)
}

// gensymSerial numbers fresh loop ids.
var gensymSerial int64

// FreshLoopID produces a fresh opaque loop id symbol.
func FreshLoopID(prefix string) *value.Symbol {
	n := atomic.AddInt64(&gensymSerial, 1)
	return value.Sym(fmt.Sprintf("%s__%d", prefix, n))
}
