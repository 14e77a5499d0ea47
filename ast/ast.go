package ast

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

// Op tags an AST node. The set is exhaustive.
type Op int

const (
	Constant Op = iota
	Quote
	Local
	Binding
	Fn
	FnMethod
	Do
	If
	Let
	Loop
	Recur
	LetFn
	Case
	ErlMap
	ErlList
	ErlBinary
	BinarySegment
	Tuple
	Def
	Import
	New
	DefType
	DefProtocol
	ExtendType
	Invoke
	ResolveType
	Throw
	Try
	Catch
	ErlFun
	VarRef
	Type
	WithMeta
	Vector
	Set
	MapLit
	Receive
	After
	ErlAlias
	OnLoad
)

var opNames = []string{"constant", "quote", "local", "binding", "fn",
	"fn_method", "do", "if", "let", "loop", "recur", "letfn", "case",
	"erl_map", "erl_list", "erl_binary", "binary_segment", "tuple", "def",
	"import", "new", "deftype", "defprotocol", "extend_type", "invoke",
	"resolve_type", "throw", "try", "catch", "erl_fun", "var", "type",
	"with_meta", "vector", "set", "map", "receive", "after", "erl_alias",
	"on_load"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "op[?]"
	}
	return opNames[op]
}

// Node is the interface common to all AST nodes.
type Node interface {
	Op() Op
	Base() *NodeBase
}

// NodeBase carries the fields every node shares: the source form, its position,
// a snapshot of the environment it was analyzed in (for diagnostics) and an
// optional type hint, itself an AST node.
type NodeBase struct {
	Form value.Value
	Pos  clove.Pos
	Env  *runtime.Env
	Tag  Node
}

func (b *NodeBase) Base() *NodeBase { return b }

// At fills the base from a source form.
func (b *NodeBase) At(form value.Value, env *runtime.Env) {
	b.Form = form
	b.Pos = value.PosOf(form)
	b.Env = env
}

// --- Leaf nodes ---------------------------------------------------------

// ConstantNode is a self-evaluating constant.
type ConstantNode struct {
	NodeBase
	Val value.Value
}

func (*ConstantNode) Op() Op { return Constant }

// QuoteNode wraps a constant produced by (quote form).
type QuoteNode struct {
	NodeBase
	Expr *ConstantNode
}

func (*QuoteNode) Op() Op { return Quote }

// LocalNode is a reference to a lexical binding.
type LocalNode struct {
	NodeBase
	Name    *value.Symbol
	Binding *runtime.LocalBinding
}

func (*LocalNode) Op() Op { return Local }

// BindingNode introduces a lexical binding: fn parameters, let/loop
// bindings, catch locals and deftype fields.
type BindingNode struct {
	NodeBase
	Name  *value.Symbol
	Local *runtime.LocalBinding
	Init  Node // nil for parameters and fields
}

func (*BindingNode) Op() Op { return Binding }

// VarNode is a reference to a Var. Literal marks the var special form and
// #'x, which evaluate to the Var object itself rather than its value.
type VarNode struct {
	NodeBase
	Var     *runtime.Var
	Literal bool
}

func (*VarNode) Op() Op { return VarRef }

// TypeNode is a reference to a host type by name.
type TypeNode struct {
	NodeBase
	Name *value.Symbol
}

func (*TypeNode) Op() Op { return Type }

// ResolveTypeNode defers a type-name resolution to load time.
type ResolveTypeNode struct {
	NodeBase
	Name *value.Symbol
}

func (*ResolveTypeNode) Op() Op { return ResolveType }

// ErlFunNode is a reference to a host function module:function/arity.
type ErlFunNode struct {
	NodeBase
	Module   string
	Function string
	Arity    int
}

func (*ErlFunNode) Op() Op { return ErlFun }

// --- Functions ------------------------------------------------------------

// FnNode is a (possibly multi-arity) function.
type FnNode struct {
	NodeBase
	Name          *value.Symbol // self-binding name, may be nil
	Self          *runtime.LocalBinding
	Variadic      bool
	MinFixedArity int
	MaxFixedArity int
	VariadicArity int // meaningful only when Variadic
	Once          bool
	Methods       []*FnMethodNode
}

func (*FnNode) Op() Op { return Fn }

// FnMethodNode is one arity of a fn. Each method owns a fresh loop id and
// is a recur target.
type FnMethodNode struct {
	NodeBase
	LoopID     *value.Symbol
	Params     []*BindingNode
	FixedArity int
	Variadic   bool
	Body       Node
}

func (*FnMethodNode) Op() Op { return FnMethod }

// --- Control flow -----------------------------------------------------------

// DoNode is a sequence of statements with a trailing return expression.
type DoNode struct {
	NodeBase
	Statements []Node
	Ret        Node
}

func (*DoNode) Op() Op { return Do }

// IfNode has exactly two branches; a missing else analyzes to nil.
type IfNode struct {
	NodeBase
	Test Node
	Then Node
	Else Node
}

func (*IfNode) Op() Op { return If }

// LetNode covers let* and loop*. A loop owns a loop id and is a recur
// target whose arity is the number of bindings.
type LetNode struct {
	NodeBase
	IsLoop   bool
	LoopID   *value.Symbol
	Bindings []*BindingNode
	Body     Node
}

func (l *LetNode) Op() Op {
	if l.IsLoop {
		return Loop
	}
	return Let
}

// RecurNode re-enters the innermost enclosing loop target.
type RecurNode struct {
	NodeBase
	LoopID *value.Symbol
	Exprs  []Node
}

func (*RecurNode) Op() Op { return Recur }

// LetFnNode is a letfn* group of mutually recursive local functions.
type LetFnNode struct {
	NodeBase
	Bindings []*BindingNode
	Body     Node
}

func (*LetFnNode) Op() Op { return LetFn }

// CaseClause is one (pattern, body) pair of a case* or receive*.
type CaseClause struct {
	Pattern Node
	Guard   Node // nil when unguarded
	Body    Node
}

// CaseNode is a pattern dispatch with an optional default.
type CaseNode struct {
	NodeBase
	Test    Node
	Clauses []CaseClause
	Default Node
}

func (*CaseNode) Op() Op { return Case }

// ReceiveNode is an actor mailbox receive with an optional after clause.
type ReceiveNode struct {
	NodeBase
	Clauses []CaseClause
	After   *AfterNode
}

func (*ReceiveNode) Op() Op { return Receive }

// AfterNode is the timeout arm of a receive.
type AfterNode struct {
	NodeBase
	Timeout Node
	Body    Node
}

func (*AfterNode) Op() Op { return After }

// ErlAliasNode binds a whole pattern to a name inside a case clause.
type ErlAliasNode struct {
	NodeBase
	Name    *value.Symbol
	Local   *runtime.LocalBinding
	Pattern Node
}

func (*ErlAliasNode) Op() Op { return ErlAlias }

// --- Exceptions ------------------------------------------------------------

// ThrowNode raises a value.
type ThrowNode struct {
	NodeBase
	Expr Node
}

func (*ThrowNode) Op() Op { return Throw }

// TryNode has a body, ordered catches and at most one finally.
type TryNode struct {
	NodeBase
	Body    Node
	Catches []*CatchNode
	Finally Node
}

func (*TryNode) Op() Op { return Try }

// CatchNode matches one exception class (a symbol, or :default for all).
type CatchNode struct {
	NodeBase
	Class value.Value
	Local *BindingNode
	Stack *BindingNode // optional stacktrace binding
	Body  Node
}

func (*CatchNode) Op() Op { return Catch }

// --- Collections -------------------------------------------------------------

// VectorNode is a vector literal with non-constant elements.
type VectorNode struct {
	NodeBase
	Items []Node
}

func (*VectorNode) Op() Op { return Vector }

// SetNode is a set literal with non-constant elements.
type SetNode struct {
	NodeBase
	Items []Node
}

func (*SetNode) Op() Op { return Set }

// MapNode is a map literal with non-constant entries.
type MapNode struct {
	NodeBase
	Keys []Node
	Vals []Node
}

func (*MapNode) Op() Op { return MapLit }

// ErlMapNode is a host-VM native map expression.
type ErlMapNode struct {
	NodeBase
	Keys []Node
	Vals []Node
}

func (*ErlMapNode) Op() Op { return ErlMap }

// ErlListNode is a host-VM native list expression, with an optional
// improper tail.
type ErlListNode struct {
	NodeBase
	Items []Node
	Tail  Node
}

func (*ErlListNode) Op() Op { return ErlList }

// TupleNode is a host-VM native tuple expression.
type TupleNode struct {
	NodeBase
	Items []Node
}

func (*TupleNode) Op() Op { return Tuple }

// ErlBinaryNode is a host-VM binary constructor.
type ErlBinaryNode struct {
	NodeBase
	Segments []*BinarySegmentNode
}

func (*ErlBinaryNode) Op() Op { return ErlBinary }

// BinarySegmentNode is one segment of a binary constructor.
type BinarySegmentNode struct {
	NodeBase
	Value Node
	Size  Node
	Unit  int
	Kind  value.Keyword // :integer, :float, :binary, :utf8 …
	Flags []value.Keyword
}

func (*BinarySegmentNode) Op() Op { return BinarySegment }

// --- Top-level forms ---------------------------------------------------------

// DefNode interns a Var and assigns its root binding.
type DefNode struct {
	NodeBase
	Name    *value.Symbol
	Var     *runtime.Var
	Init    Node // nil for declaration-only defs
	Doc     string
	Dynamic bool
}

func (*DefNode) Op() Op { return Def }

// ImportNode records a host type in the current namespace.
type ImportNode struct {
	NodeBase
	TypeName *value.Symbol
}

func (*ImportNode) Op() Op { return Import }

// NewNode instantiates a host type.
type NewNode struct {
	NodeBase
	TypeName *value.Symbol
	Args     []Node
}

func (*NewNode) Op() Op { return New }

// TypeMethod is one protocol-method implementation inside deftype* or
// extend-type.
type TypeMethod struct {
	Protocol *value.Symbol
	Name     *value.Symbol
	Method   *FnMethodNode
}

// DefTypeNode defines a tagged-record type with protocol implementations.
type DefTypeNode struct {
	NodeBase
	Name      *value.Symbol
	Fields    []*BindingNode
	Protocols []*value.Symbol
	Methods   []TypeMethod
}

func (*DefTypeNode) Op() Op { return DefType }

// ProtocolMethod is one method signature of a protocol.
type ProtocolMethod struct {
	Name    string
	Arities []int
}

// DefProtocolNode declares a protocol.
type DefProtocolNode struct {
	NodeBase
	Name    *value.Symbol
	Methods []ProtocolMethod
}

func (*DefProtocolNode) Op() Op { return DefProtocol }

// ExtendTypeNode extends protocols onto an existing type or a primitive.
type ExtendTypeNode struct {
	NodeBase
	Target    value.Value // type symbol or primitive keyword
	Protocols []*value.Symbol
	Methods   []TypeMethod
}

func (*ExtendTypeNode) Op() Op { return ExtendType }

// OnLoadNode registers a body to run when the module is loaded.
type OnLoadNode struct {
	NodeBase
	Body Node
}

func (*OnLoadNode) Op() Op { return OnLoad }

// --- Invocation ---------------------------------------------------------------

// InvokeNode is a call of a function value.
type InvokeNode struct {
	NodeBase
	Target Node
	Args   []Node
}

func (*InvokeNode) Op() Op { return Invoke }

// WithMetaNode attaches evaluated metadata to an expression.
type WithMetaNode struct {
	NodeBase
	Meta Node
	Expr Node
}

func (*WithMetaNode) Op() Op { return WithMeta }
