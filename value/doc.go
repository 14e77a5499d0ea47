/*
Package value implements the tagged value tree produced by the Clove reader.

Values are reminiscent of Lisp terms: atoms (numbers, strings, characters,
keywords, symbols) and compound values (lists built from cons cells, vectors,
maps, sets, tagged literals). Symbols and compound values may carry metadata;
atoms may not. Keyword and symbol equality is structural over namespace and
name, and hashing is consistent with equality.

Lists are built from cons cells. An empty cell (Car == nil) is the empty
list, and a nil *List is treated as the empty list as well.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package value

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.value'.
func tracer() tracing.Trace {
	return tracing.Select("clove.value")
}
