/*
Package emitter translates typed AST nodes into Core IR expressions and
module trees.

The emitter recursively lowers one AST node per top-level form. Nodes that
define top-level functions — defs with fn inits, type methods, protocol
dispatch shells — register their functions with the module context, a
per-compile accumulator keyed by target module name. Flushing the context
yields the finished module trees in creation order.

Protocol dispatch is lowered to flat pattern dispatch: a protocol's module
exports one function per method whose body is a single case over the
discriminating tag of the first argument, with one clause per extending
shape, one for untagged records and a catch-all. The module is regenerated
from the protocol record whenever extend-type adds a shape, keeping its
identity stable.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package emitter

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.emitter'.
func tracer() tracing.Trace {
	return tracing.Select("clove.emitter")
}
