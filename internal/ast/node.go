package ast

import (
	"keb/internal/arena"
	"keb/internal/source"
)

// NodeTag marks AST handles. The AST has no sentinels.
type NodeTag uint32

func (NodeTag) Band() uint32 { return arena.None }

// Node is a handle into Tree.
type Node = arena.Index[NodeTag]

// NoNode marks an absent child (the else branch of a one-armed if, for example).
const NoNode Node = arena.None

type Kind uint8

const (
	KindBad Kind = iota
	KindRoot
	KindIdent
	KindNumber
	KindTrue
	KindFalse
	KindBinary
	KindLet
	KindMut
	KindAssign
	KindFunction
	KindReturnAscription
	KindAscription
	KindAccess
	KindEmptyParen
	KindParen
	KindTuple
	KindApplication
	KindLoop
	KindIf
	KindIfElse
	KindChain
)

var kindNames = [...]string{
	KindBad:              "Bad",
	KindRoot:             "Root",
	KindIdent:            "Ident",
	KindNumber:           "Number",
	KindTrue:             "True",
	KindFalse:            "False",
	KindBinary:           "Binary",
	KindLet:              "Let",
	KindMut:              "Mut",
	KindAssign:           "Assign",
	KindFunction:         "Function",
	KindReturnAscription: "ReturnAscription",
	KindAscription:       "Ascription",
	KindAccess:           "Access",
	KindEmptyParen:       "EmptyParen",
	KindParen:            "Paren",
	KindTuple:            "Tuple",
	KindApplication:      "Application",
	KindLoop:             "Loop",
	KindIf:               "If",
	KindIfElse:           "IfElse",
	KindChain:            "Chain",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpEq
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	}
	return "?"
}

// NodeData is one syntax node. Children live in A, B, C and List:
//
//	Root              List: items
//	Ident, Number     Text
//	Binary            Op, A: lhs, B: rhs
//	Let               A: pattern, B: value
//	Mut               A: pattern
//	Assign            A: target, B: value
//	Function          A: parameter pattern, B: body
//	ReturnAscription  A: expression, B: type
//	Ascription        A: expression, B: type
//	Access            A: expression, Text: field
//	Paren             A: inner
//	Tuple             List: elements
//	Application       A: callee, B: argument
//	Loop              A: body
//	If                A: condition, B: then
//	IfElse            A: condition, B: then, C: else
//	Chain             List: elements, Closed: trailing ';'
type NodeData struct {
	Kind   Kind
	Span   source.Span
	Text   string
	Op     Op
	A      Node
	B      Node
	C      Node
	List   []Node
	Closed bool
}

// Tree owns the nodes of one file.
type Tree struct {
	File  source.FileID
	Root  Node
	nodes *arena.Arena[NodeTag, NodeData]
}

func NewTree(file source.FileID) *Tree {
	return &Tree{File: file, Root: NoNode, nodes: arena.New[NodeTag, NodeData](256)}
}

// Push appends a node. Callers set unused child slots to NoNode.
func (t *Tree) Push(d NodeData) Node {
	return t.nodes.Push(d)
}

// Get returns the node data. NoNode and dangling handles panic.
func (t *Tree) Get(n Node) *NodeData {
	return t.nodes.MustGet(n)
}

func (t *Tree) Len() int { return t.nodes.Len() }
