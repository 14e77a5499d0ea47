package coreir

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/clove/value"
)

// Expr is a Core IR expression.
type Expr interface {
	irExpr()
}

// Pat is a Core IR pattern, matched by case clauses and receive.
type Pat interface {
	irPat()
}

// --- Expressions ------------------------------------------------------------

// Lit is a literal expression.
type Lit struct {
	Val value.Value
}

// Atom is a host atom (interned constant name), e.g. a type tag or an
// exception class.
type Atom struct {
	Name string
}

// Var references a Core IR variable.
type Var struct {
	Name string
}

// FnRef references a top-level function of the current module.
type FnRef struct {
	Name  string
	Arity int
}

// ErlFunRef references a function of another module, module:function/arity.
type ErlFunRef struct {
	Module   string
	Function string
	Arity    int
}

// Fun is a function expression. Name, when set, binds the closure itself
// inside Body for self-recursion. A Fun with a nil Params slice and
// Dispatch set receives its whole argument list bound to ArgsVar; fn
// dispatchers pattern-match the list against their arity clauses.
type Fun struct {
	Name     string
	Params   []string
	Dispatch bool
	Body     Expr
}

// ArgsVar is the variable a dispatching Fun binds its argument list to.
const ArgsVar = "@args"

// Apply applies a function value.
type Apply struct {
	Fn   Expr
	Args []Expr
}

// Call is a direct inter-module call.
type Call struct {
	Module   string
	Function string
	Args     []Expr
}

// Let binds the result of Arg to Vars in Body.
type Let struct {
	Vars []string
	Arg  Expr
	Body Expr
}

// LetRec introduces mutually recursive local functions. Loops compile to a
// letrec whose function tail-calls itself.
type LetRec struct {
	Defs []FunDef
	Body Expr
}

// Seq evaluates First for effect, then Then.
type Seq struct {
	First Expr
	Then  Expr
}

// Clause is one arm of a Case or Receive.
type Clause struct {
	Patterns []Pat
	Guard    Expr // nil means always true
	Body     Expr
}

// Case matches Arg against clauses in order.
type Case struct {
	Arg     Expr
	Clauses []Clause
}

// Try evaluates Arg; on success binds Vars in Body, on a raised term binds
// EVars (class, reason, stack) in Handler.
type Try struct {
	Arg     Expr
	Vars    []string
	Body    Expr
	EVars   []string
	Handler Expr
}

// Raise throws a term of the given class (error, throw, exit).
type Raise struct {
	Class string
	Arg   Expr
}

// Receive takes the next matching mailbox message; after Timeout
// milliseconds it evaluates Action instead.
type Receive struct {
	Clauses []Clause
	Timeout Expr // nil means wait forever
	Action  Expr
}

// Tuple is the host's native tuple constructor.
type Tuple struct {
	Items []Expr
}

// ListExpr is the host's native list constructor with an optional improper
// tail.
type ListExpr struct {
	Items []Expr
	Tail  Expr
}

// Pair is one key/value of a MapExpr.
type Pair struct {
	Key Expr
	Val Expr
}

// MapExpr is the host's native map constructor.
type MapExpr struct {
	Pairs []Pair
}

// Segment is one segment of a Binary.
type Segment struct {
	Value Expr
	Size  Expr
	Unit  int
	Kind  string // integer, float, binary, utf8 …
	Flags []string
}

// Binary is the host's native binary constructor.
type Binary struct {
	Segments []Segment
}

func (Lit) irExpr()       {}
func (Atom) irExpr()      {}
func (Var) irExpr()       {}
func (FnRef) irExpr()     {}
func (ErlFunRef) irExpr() {}
func (Fun) irExpr()       {}
func (Apply) irExpr()     {}
func (Call) irExpr()      {}
func (Let) irExpr()       {}
func (LetRec) irExpr()    {}
func (Seq) irExpr()       {}
func (Case) irExpr()      {}
func (Try) irExpr()       {}
func (Raise) irExpr()     {}
func (Receive) irExpr()   {}
func (Tuple) irExpr()     {}
func (ListExpr) irExpr()  {}
func (MapExpr) irExpr()   {}
func (Binary) irExpr()    {}

// --- Patterns ----------------------------------------------------------------

// PLit matches a literal.
type PLit struct {
	Val value.Value
}

// PAtom matches a host atom.
type PAtom struct {
	Name string
}

// PVar binds the matched term to a variable.
type PVar struct {
	Name string
}

// PWild matches anything without binding.
type PWild struct{}

// PTuple matches a tuple of fixed size.
type PTuple struct {
	Items []Pat
}

// PList matches a list; Tail may be a PVar for the rest.
type PList struct {
	Items []Pat
	Tail  Pat
}

// PMapEntry is one required entry of a PMap.
type PMapEntry struct {
	Key Pat
	Val Pat
}

// PMap matches a map containing at least the given entries.
type PMap struct {
	Entries []PMapEntry
}

// PAlias binds the whole matched pattern to a name.
type PAlias struct {
	Name string
	Pat  Pat
}

func (PLit) irPat()   {}
func (PAtom) irPat()  {}
func (PVar) irPat()   {}
func (PWild) irPat()  {}
func (PTuple) irPat() {}
func (PList) irPat()  {}
func (PMap) irPat()   {}
func (PAlias) irPat() {}

// --- Modules -----------------------------------------------------------------

// FunDef is a named top-level function.
type FunDef struct {
	Name  string
	Arity int
	Fun   Fun
}

// Export names a function visible outside its module.
type Export struct {
	Name  string
	Arity int
}

// Module is one loadable Core IR module tree.
type Module struct {
	Name    string
	Exports []Export
	Attrs   map[string]value.Value
	Defs    []FunDef
	OnLoad  []Expr // body run by the loader after the module is in place
}

// Def appends a function definition and exports it.
func (m *Module) Def(name string, arity int, fn Fun) {
	m.Defs = append(m.Defs, FunDef{Name: name, Arity: arity, Fun: fn})
	m.Exports = append(m.Exports, Export{Name: name, Arity: arity})
}

// Lookup finds a definition by name and arity.
func (m *Module) Lookup(name string, arity int) (FunDef, bool) {
	for _, d := range m.Defs {
		if d.Name == name && d.Arity == arity {
			return d, true
		}
	}
	return FunDef{}, false
}

// ReplaceDef swaps a definition in place, or appends it. Protocol modules
// are re-emitted through this on extend-type.
func (m *Module) ReplaceDef(def FunDef) {
	for i, d := range m.Defs {
		if d.Name == def.Name && d.Arity == def.Arity {
			m.Defs[i] = def
			return
		}
	}
	m.Def(def.Name, def.Arity, def.Fun)
}
