/*
Package compiler drives the pipeline: read one form, analyze, emit, flush
the module context, assemble and load each module, evaluate the emitted
expressions, and bind the result as the value of the form.

Each top-level compilation runs in a freshly spawned child task, so an
uncaught failure cannot corrupt the driver's state; the driver awaits the
child synchronously and re-raises its failure with the child's stack
preserved. Dynamic Var bindings are snapshot-inherited by the child at
spawn. Namespace registry effects of form N are visible to the analyzer of
form N+1.

The package ships an in-memory backend — a small Core IR evaluator — which
lets the compiler bootstrap macros and answer the value of the last form
without an external VM. A real host VM plugs in through coreir.Backend.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package compiler

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.compiler'.
func tracer() tracing.Trace {
	return tracing.Select("clove.compiler")
}
