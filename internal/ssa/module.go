package ssa

import (
	"fmt"
	"iter"
	"math"

	"keb/internal/arena"
	"keb/internal/types"
)

type BlockTag uint32

func (BlockTag) Band() uint32 { return arena.None }

type InstTag uint32

func (InstTag) Band() uint32 { return arena.None }

// ConstTag reserves the three topmost handles for the zero-storage constants.
type ConstTag uint32

func (ConstTag) Band() uint32 { return constBand }

const constBand = math.MaxUint32 - 2

type (
	Block = arena.Index[BlockTag]
	Inst  = arena.Index[InstTag]
	Const = arena.Index[ConstTag]
)

const NoBlock Block = arena.None

const (
	ConstUnit Const = constBand + iota
	ConstFalse
	ConstTrue
)

type BlockKind uint8

const (
	// BlockExtern is a function provided by the runtime; it has no body.
	BlockExtern BlockKind = iota + 1
	// BlockFunction is the entry block of a function.
	BlockFunction
	// BlockInterior is a join, branch or loop block inside a function.
	BlockInterior
)

func (k BlockKind) String() string {
	switch k {
	case BlockExtern:
		return "extern"
	case BlockFunction:
		return "fn"
	case BlockInterior:
		return "block"
	}
	return fmt.Sprintf("BlockKind(%d)", k)
}

// BlockData describes one block. Arg is the type of the value every
// predecessor (or caller) hands in; Ret is only set for functions. Func is
// the entry block of the function an interior block belongs to.
type BlockData struct {
	Kind  BlockKind
	Name  string
	Arg   types.Type
	Ret   types.Type
	Func  Block
	Insts []Inst
}

type Op uint8

const (
	OpInvalid Op = iota
	// OpField extracts field Index of Args[0].
	OpField
	// OpRecord builds a product from Args.
	OpRecord
	OpAdd
	OpSub
	OpMul
	OpDiv
	// OpEq yields 1 when both operands are equal and 0 otherwise.
	OpEq
	// OpCall calls Callee with Args[0].
	OpCall
	// OpJump passes Args[0] to Target.
	OpJump
	// OpJumpCondition tests Args[0] and passes Args[1] to Target or Args[2]
	// to Else.
	OpJumpCondition
	// OpReturn returns Args[0] from the enclosing function.
	OpReturn
)

var opNames = [...]string{
	OpInvalid:       "invalid",
	OpField:         "field",
	OpRecord:        "record",
	OpAdd:           "add",
	OpSub:           "sub",
	OpMul:           "mul",
	OpDiv:           "div",
	OpEq:            "eq",
	OpCall:          "call",
	OpJump:          "jump",
	OpJumpCondition: "jump_if",
	OpReturn:        "return",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// IsTerminator reports whether op ends a block.
func (op Op) IsTerminator() bool {
	return op == OpJump || op == OpJumpCondition || op == OpReturn
}

// IsBinary reports whether op is one of the u32 operators.
func (op Op) IsBinary() bool {
	return op >= OpAdd && op <= OpEq
}

// InstData is one instruction. Type is the type of its result; terminators
// have type Unit.
type InstData struct {
	Op     Op
	Type   types.Type
	Args   []Expr
	Index  uint32
	Callee Block
	Target Block
	Else   Block
}

type ConstKind uint8

const (
	ConstKindUint32 ConstKind = iota + 1
	ConstKindProduct
)

type ConstData struct {
	Kind   ConstKind
	Type   types.Type
	Value  uint32
	Fields []Const
}

type ExprKind uint8

const (
	ExprConst ExprKind = iota + 1
	ExprInst
	ExprBlockArg
)

// Expr is an instruction operand.
type Expr struct {
	Kind  ExprKind
	Const Const
	Inst  Inst
	Block Block
}

func ConstExpr(c Const) Expr { return Expr{Kind: ExprConst, Const: c} }

func InstExpr(i Inst) Expr { return Expr{Kind: ExprInst, Inst: i} }

// ArgExpr refers to the incoming argument of b.
func ArgExpr(b Block) Expr { return Expr{Kind: ExprBlockArg, Block: b} }

// Module holds the blocks, instructions and constants of one compiled unit
// together with the type table they refer to.
type Module struct {
	Types  *types.Types
	blocks *arena.Arena[BlockTag, BlockData]
	insts  *arena.Arena[InstTag, InstData]
	consts *arena.Arena[ConstTag, ConstData]
}

func NewModule(ts *types.Types) *Module {
	return &Module{
		Types:  ts,
		blocks: arena.New[BlockTag, BlockData](32),
		insts:  arena.New[InstTag, InstData](256),
		consts: arena.New[ConstTag, ConstData](32),
	}
}

func (m *Module) PushBlock(d BlockData) Block { return m.blocks.Push(d) }

func (m *Module) Block(b Block) *BlockData { return m.blocks.MustGet(b) }

func (m *Module) NumBlocks() int { return m.blocks.Len() }

// HasBlock reports whether b addresses an existing block.
func (m *Module) HasBlock(b Block) bool {
	return m.blocks.Get(b).Kind == arena.Stored
}

// Blocks iterates blocks in creation order.
func (m *Module) Blocks() iter.Seq2[Block, *BlockData] {
	return m.blocks.All()
}

// Append pushes an instruction at the end of block b.
func (m *Module) Append(b Block, d InstData) Inst {
	i := m.insts.Push(d)
	blk := m.Block(b)
	blk.Insts = append(blk.Insts, i)
	return i
}

func (m *Module) Inst(i Inst) *InstData { return m.insts.MustGet(i) }

func (m *Module) NumInsts() int { return m.insts.Len() }

func (m *Module) PushConst(d ConstData) Const { return m.consts.Push(d) }

// Const returns the stored constant; ok is false for the zero-storage ones.
func (m *Module) Const(c Const) (*ConstData, bool) {
	got := m.consts.Get(c)
	switch got.Kind {
	case arena.Stored:
		return got.Value, true
	case arena.SentinelValue:
		return nil, false
	}
	panic(fmt.Errorf("ssa: dangling const handle %#x", c.Raw()))
}

func (m *Module) NumConsts() int { return m.consts.Len() }

// ConstType returns the type of a constant.
func (m *Module) ConstType(c Const) types.Type {
	switch c {
	case ConstUnit:
		return types.Unit
	case ConstFalse:
		return types.False
	case ConstTrue:
		return types.True
	}
	d, _ := m.Const(c)
	return d.Type
}

// ExprType returns the type of an operand.
func (m *Module) ExprType(e Expr) types.Type {
	switch e.Kind {
	case ExprConst:
		return m.ConstType(e.Const)
	case ExprInst:
		return m.Inst(e.Inst).Type
	case ExprBlockArg:
		return m.Block(e.Block).Arg
	}
	panic(fmt.Errorf("ssa: invalid expression kind %d", e.Kind))
}

// Function finds a function or extern block by name.
func (m *Module) Function(name string) (Block, bool) {
	for b, d := range m.blocks.All() {
		if d.Kind != BlockInterior && d.Name == name {
			return b, true
		}
	}
	return NoBlock, false
}
