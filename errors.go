package clove

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
)

// ErrorKind classifies compilation failures. Every error the pipeline
// produces carries exactly one kind; callers match on kinds, never on
// message text.
type ErrorKind int

const (
	NoError ErrorKind = iota
	IOFailure
	ReaderError
	UnresolvedSymbol
	BadSpecialForm
	DuplicateArity
	MultipleVariadic
	InvalidVariadicArity
	RecurArityMismatch
	RecurNotInTailPosition
	UnknownFeature
	MacroExpansionFailed
	AssemblyFailed
	LoadFailed
	NotImplemented
	CompilePathUnset
)

// Reader error subkinds, set on errors of kind ReaderError.
type ReaderSubkind int

const (
	NoSubkind ReaderSubkind = iota
	UnterminatedList
	UnterminatedString
	InvalidNumber
	InvalidEscape
	UnmatchedDelimiter
	InvalidDispatchChar
	FeatureNotFound
	UnsupportedArg
)

var kindNames = map[ErrorKind]string{
	IOFailure:              "io failure",
	ReaderError:            "reader error",
	UnresolvedSymbol:       "unresolved symbol",
	BadSpecialForm:         "bad special form",
	DuplicateArity:         "duplicate arity",
	MultipleVariadic:       "more than one variadic method",
	InvalidVariadicArity:   "invalid variadic arity",
	RecurArityMismatch:     "recur arity mismatch",
	RecurNotInTailPosition: "recur not in tail position",
	UnknownFeature:         "unknown feature",
	MacroExpansionFailed:   "macro expansion failed",
	AssemblyFailed:         "assembly failed",
	LoadFailed:             "load failed",
	NotImplemented:         "not implemented",
	CompilePathUnset:       "compile path unset",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is the error type shared by reader, analyzer, emitter and driver.
type Error struct {
	Kind    ErrorKind
	Subkind ReaderSubkind // for Kind == ReaderError
	Pos     Pos
	Msg     string
	Cause   error // wrapped inner cause, e.g. for MacroExpansionFailed
}

// E creates a positioned error of the given kind.
func E(kind ErrorKind, pos Pos, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// ReadError creates a reader error with a subkind.
func ReadError(sub ReaderSubkind, pos Pos, format string, args ...interface{}) *Error {
	e := E(ReaderError, pos, format, args...)
	e.Subkind = sub
	return e
}

// Wrap attaches an inner cause and returns the error.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the error kind from err, searching the wrap chain.
// Returns NoError for nil and for foreign error types.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return NoError
}

// SubkindOf extracts a reader error subkind, or NoSubkind.
func SubkindOf(err error) ReaderSubkind {
	var e *Error
	if errors.As(err, &e) {
		return e.Subkind
	}
	return NoSubkind
}
