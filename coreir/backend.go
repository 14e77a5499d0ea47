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

// AssembleOpts are passed through to the assembler.
type AssembleOpts struct {
	FromCore       bool
	Binary         bool
	ReturnErrors   bool
	ReturnWarnings bool
	Source         string   // source file name, stamped into the bytecode
	Extra          []string // additional assembler options, e.g. from the environment
}

// Backend is the host-VM integration point: it assembles Core IR modules to
// bytecode, loads bytecode, and evaluates top-level expressions against the
// loaded world.
type Backend interface {
	// Assemble compiles one module tree to bytecode.
	Assemble(m *Module, opts AssembleOpts) ([]byte, error)
	// Load makes a previously assembled module available.
	Load(name string, bytecode []byte) error
	// Eval evaluates top-level expressions and returns the last value.
	Eval(exprs []Expr) (value.Value, error)
}
