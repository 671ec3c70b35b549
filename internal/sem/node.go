package sem

import (
	"fmt"

	"keb/internal/arena"
	"keb/internal/source"
	"keb/internal/types"
)

// NodeTag marks semantic graph handles.
type NodeTag uint32

func (NodeTag) Band() uint32 { return arena.None }

// Node is a handle into Graph.
type Node = arena.Index[NodeTag]

const NoNode Node = arena.None

// ParamName is the name a function body uses to refer to its whole argument.
// Parameter patterns are desugared into bindings over this reference.
const ParamName = "__param"

type Kind uint8

const (
	// KindInvalid stands in for a construct that was reported as malformed.
	KindInvalid Kind = iota
	KindNumber
	KindTrue
	KindFalse
	KindModule
	KindFunction
	KindBinding
	KindMutBinding
	KindAssignment
	KindReference
	KindAccess
	KindApplication
	KindLoop
	KindIf
	KindIfElse
	KindBuildStruct
	KindChainOpen
	KindChainClosed
)

var kindNames = [...]string{
	KindInvalid:     "Invalid",
	KindNumber:      "Number",
	KindTrue:        "True",
	KindFalse:       "False",
	KindModule:      "Module",
	KindFunction:    "Function",
	KindBinding:     "Binding",
	KindMutBinding:  "MutBinding",
	KindAssignment:  "Assignment",
	KindReference:   "Reference",
	KindAccess:      "Access",
	KindApplication: "Application",
	KindLoop:        "Loop",
	KindIf:          "If",
	KindIfElse:      "IfElse",
	KindBuildStruct: "BuildStruct",
	KindChainOpen:   "ChainOpen",
	KindChainClosed: "ChainClosed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ModuleBinding is one top-level `let name = value`.
type ModuleBinding struct {
	Name  string
	Value Node
	Span  source.Span
}

type Module struct {
	Bindings []ModuleBinding
}

type Function struct {
	Argument string
	Body     Node
}

// Binding covers KindBinding and KindMutBinding. Body is the scope in which
// Name is visible.
type Binding struct {
	Name  string
	Value Node
	Body  Node
}

type Assignment struct {
	Name  string
	Value Node
}

type Reference struct {
	Name string
}

type Access struct {
	Field string
	Expr  Node
}

type Application struct {
	Function Node
	Argument Node
}

type Loop struct {
	Body Node
}

// If covers KindIf and KindIfElse; Else is NoNode for the one-armed form.
type If struct {
	Condition Node
	Then      Node
	Else      Node
}

type FieldInit struct {
	Name  string
	Value Node
}

type BuildStruct struct {
	Fields []FieldInit
}

// Chain covers both chain kinds. Result is the final expression of an open
// chain and NoNode for a closed one.
type Chain struct {
	Statements []Node
	Result     Node
}

// NodeData is a tagged union: only the payload matching Kind is meaningful.
type NodeData struct {
	Kind Kind
	Type types.Type
	Span source.Span

	Number      uint32
	Module      Module
	Function    Function
	Binding     Binding
	Assignment  Assignment
	Reference   Reference
	Access      Access
	Application Application
	Loop        Loop
	If          If
	Struct      BuildStruct
	Chain       Chain
}

// Graph is the semantic IR of one module together with the type table its
// slots point into.
type Graph struct {
	Types *types.Types
	Root  Node
	nodes *arena.Arena[NodeTag, NodeData]
}

func NewGraph(ts *types.Types) *Graph {
	return &Graph{Types: ts, Root: NoNode, nodes: arena.New[NodeTag, NodeData](256)}
}

// Push appends a node. Its type slot starts as given by d.Type; use
// types.Unknown for nothing known.
func (g *Graph) Push(d NodeData) Node {
	return g.nodes.Push(d)
}

func (g *Graph) Get(n Node) *NodeData {
	return g.nodes.MustGet(n)
}

func (g *Graph) Type(n Node) types.Type {
	return g.nodes.MustGet(n).Type
}

// SetType overwrites the type slot without combining.
func (g *Graph) SetType(n Node, t types.Type) {
	g.nodes.MustGet(n).Type = t
}

// AddType combines t into the slot. On mismatch the slot is left unchanged.
func (g *Graph) AddType(n Node, t types.Type) error {
	combined, err := g.Types.Combine(g.Type(n), t)
	if err != nil {
		return err
	}
	g.SetType(n, combined)
	return nil
}

func (g *Graph) Len() int { return g.nodes.Len() }

// Bindings returns the top-level bindings of the root module.
func (g *Graph) Bindings() []ModuleBinding {
	if g.Root == NoNode {
		return nil
	}
	return g.Get(g.Root).Module.Bindings
}
