/*
Package reader tokenizes and parses Clove source text into a tagged value
tree (package value).

The reader consumes a pushback-capable character stream and returns one
top-level value at a time. It honors reader macros (quote, syntax-quote,
unquote, deref, metadata, dispatch forms), reader conditionals, tagged
literals and data readers. Atom lexemes — numbers in all literal shapes,
keywords, symbols — are classified by a lexmachine DFA; everything
context-sensitive (delimiters, strings, characters, dispatch macros) is
handled by the reader loop itself.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package reader

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clove.reader'.
func tracer() tracing.Trace {
	return tracing.Select("clove.reader")
}
