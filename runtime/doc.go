/*
Package runtime implements the compiler's runtime environment: lexical
scopes with local bindings, the process-wide namespace registry, Vars and
their per-task dynamic bindings.

For a thorough discussion of an interpreter's runtime environment, refer to
"Language Implementation Patterns" by Terence Parr.

Lexical environment

The lexical environment is a stack of frames layered over the namespace
registry. Pushing a frame copies the environment head, so analyzer branches
may extend the environment without disturbing each other.

Namespaces and Vars

The namespace registry is process-wide mutable state, mutated only by the
driver's serial loop. A Var is owned by its home namespace and shared by
reference from every namespace that refers it; interning is first-writer-wins.
Dynamic bindings live on a per-task stack with snapshot inheritance at task
spawn.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package runtime

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.runtime'.
func tracer() tracing.Trace {
	return tracing.Select("clove.runtime")
}
