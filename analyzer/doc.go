/*
Package analyzer lowers reader value trees into the typed AST.

For each top-level form the analyzer macro-expands, resolves names against
the layered lexical/namespace environment, and produces one AST node.
Side effects: def forms intern Vars, deftype/defprotocol/extend-type
register types and protocols, import* records host types. Top-level do
forms are flattened by the driver so these effects happen in source order.

The analyzer tracks tail positions to validate recur placement, and checks
fn arity rules (unique fixed arities, at most one variadic method, variadic
arity not below any fixed arity).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package analyzer

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.analyzer'.
func tracer() tracing.Trace {
	return tracing.Select("clove.analyzer")
}
