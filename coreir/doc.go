/*
Package coreir defines the host VM's lambda-calculus intermediate
representation, as the emitter produces it and the assembler consumes it.

A Core IR module is a named collection of top-level functions plus exports,
attributes and an on-load body. Expressions are a small typed lambda
calculus: literals, variables, funs, applications, inter-module calls, lets,
letrecs, case dispatch over patterns, try/catch, receive, and the host's
native data constructors (tuples, lists, maps, binaries).

The package also declares the Backend interface — assemble, load, eval —
which decouples the compiler from the concrete VM. Package compiler ships an
in-memory backend; a real VM backend is an external collaborator.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package coreir

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.coreir'.
func tracer() tracing.Trace {
	return tracing.Select("clove.coreir")
}
