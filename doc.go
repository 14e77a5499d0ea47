/*
Package clove is the front end of Clove, a Clojure dialect compiled to the
Core IR of a concurrent actor VM.

Clove compiles one top-level form at a time through a three-stage pipeline:

■ reader: Package reader tokenizes and parses source text into a tagged value
tree, honoring reader macros, reader conditionals, syntax-quote and metadata.

■ analyzer: Package analyzer macro-expands forms, resolves names against a
layered lexical/namespace environment, and lowers each top-level form into a
typed AST.

■ emitter: Package emitter translates the AST into Core IR module trees,
accumulating top-level functions into in-progress modules.

Supporting packages are value (the reader value tree), ast (the typed AST),
runtime (lexical environments, namespaces and Vars), coreir (the Core IR and
the backend interface) and compiler (the top-level driver loop).

The base package contains source positions, spans, tokens and the error
taxonomy, which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package clove
