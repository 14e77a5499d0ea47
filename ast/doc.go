/*
Package ast defines the typed abstract syntax tree the analyzer produces.

Every node carries its op tag, the source form it was lowered from, a source
position and an optional type-hint node. Node-specific payloads live on the
concrete node structs. The op set is closed; the emitter switches
exhaustively over it.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ast
