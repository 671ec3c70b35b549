package ssa

import (
	"errors"
	"fmt"

	"keb/internal/arena"
	"keb/internal/types"
)

// Validate checks the structural invariants of m and returns every violation
// joined into one error.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for b, d := range m.Blocks() {
		if err := validateBlock(m, b, d); err != nil {
			errs = append(errs, fmt.Errorf("@%d: %w", b.Raw(), err))
		}
	}
	return errors.Join(errs...)
}

func validateBlock(m *Module, b Block, d *BlockData) error {
	if d.Kind == BlockExtern {
		if len(d.Insts) != 0 {
			return errors.New("extern block has instructions")
		}
		return nil
	}
	if len(d.Insts) == 0 {
		return errors.New("empty block")
	}
	owner := d.Func
	if d.Kind == BlockFunction {
		owner = b
	}
	if !m.HasBlock(owner) || m.Block(owner).Kind != BlockFunction {
		return fmt.Errorf("block belongs to @%d, which is not a function", owner.Raw())
	}

	var errs []error
	defined := make(map[Inst]bool, len(d.Insts))
	last := len(d.Insts) - 1
	for pos, i := range d.Insts {
		inst := m.Inst(i)
		if inst.Op.IsTerminator() != (pos == last) {
			if pos == last {
				errs = append(errs, fmt.Errorf("%%%d: block does not end with a terminator", i.Raw()))
			} else {
				errs = append(errs, fmt.Errorf("%%%d: %s before the end of the block", i.Raw(), inst.Op))
			}
		}
		local := true
		for _, arg := range inst.Args {
			if err := checkLocal(m, b, defined, arg); err != nil {
				errs = append(errs, fmt.Errorf("%%%d: %w", i.Raw(), err))
				local = false
			}
		}
		if !local {
			defined[i] = true
			continue
		}
		if err := checkInst(m, m.Block(owner), inst); err != nil {
			errs = append(errs, fmt.Errorf("%%%d: %w", i.Raw(), err))
		}
		defined[i] = true
	}
	return errors.Join(errs...)
}

// checkLocal verifies that an operand is visible in block b.
func checkLocal(m *Module, b Block, defined map[Inst]bool, e Expr) error {
	switch e.Kind {
	case ExprConst:
		if m.consts.Get(e.Const).Kind == arena.NotFound {
			return fmt.Errorf("dangling constant $%d", e.Const.Raw())
		}
	case ExprInst:
		if !defined[e.Inst] {
			return fmt.Errorf("%%%d is not defined earlier in this block", e.Inst.Raw())
		}
	case ExprBlockArg:
		if e.Block != b {
			return fmt.Errorf("argument of @%d used outside its block", e.Block.Raw())
		}
	default:
		return fmt.Errorf("invalid operand kind %d", e.Kind)
	}
	return nil
}

func checkInst(m *Module, fn *BlockData, inst *InstData) error {
	ts := m.Types
	arity := map[Op]int{
		OpField: 1, OpAdd: 2, OpSub: 2, OpMul: 2, OpDiv: 2, OpEq: 2,
		OpCall: 1, OpJump: 1, OpJumpCondition: 3, OpReturn: 1,
	}
	if want, ok := arity[inst.Op]; ok && len(inst.Args) != want {
		return fmt.Errorf("%s takes %d operands, has %d", inst.Op, want, len(inst.Args))
	}
	typeOf := func(k int) types.Type { return m.ExprType(inst.Args[k]) }

	switch inst.Op {
	case OpField:
		fields, ok := ts.Fields(typeOf(0))
		if !ok || int(inst.Index) >= len(fields) {
			return fmt.Errorf("field %d of %s", inst.Index, ts.Format(typeOf(0)))
		}
		if !Assignable(ts, inst.Type, fields[inst.Index].Type) {
			return fmt.Errorf("field %d has type %s, instruction says %s", inst.Index, ts.Format(fields[inst.Index].Type), ts.Format(inst.Type))
		}
	case OpRecord:
		fields, ok := ts.Fields(inst.Type)
		if !ok || len(fields) != len(inst.Args) {
			return fmt.Errorf("record of %d values has type %s", len(inst.Args), ts.Format(inst.Type))
		}
		for k, f := range fields {
			if !Assignable(ts, f.Type, typeOf(k)) {
				return fmt.Errorf("record field %d: %s does not fit %s", k, ts.Format(typeOf(k)), ts.Format(f.Type))
			}
		}
	case OpAdd, OpSub, OpMul, OpDiv, OpEq:
		if typeOf(0) != types.Uint32 || typeOf(1) != types.Uint32 {
			return fmt.Errorf("%s of %s and %s", inst.Op, ts.Format(typeOf(0)), ts.Format(typeOf(1)))
		}
	case OpCall:
		if !m.HasBlock(inst.Callee) || m.Block(inst.Callee).Kind == BlockInterior {
			return fmt.Errorf("call target @%d is not a function", inst.Callee.Raw())
		}
		callee := m.Block(inst.Callee)
		if !Assignable(ts, callee.Arg, typeOf(0)) {
			return fmt.Errorf("call of %s with %s, want %s", callee.Name, ts.Format(typeOf(0)), ts.Format(callee.Arg))
		}
	case OpJump:
		return checkEdge(m, inst.Target, typeOf(0))
	case OpJumpCondition:
		if c := typeOf(0); c != types.Uint32 && !types.IsBoolean(c) {
			return fmt.Errorf("condition of type %s", ts.Format(c))
		}
		return errors.Join(checkEdge(m, inst.Target, typeOf(1)), checkEdge(m, inst.Else, typeOf(2)))
	case OpReturn:
		if !Assignable(ts, fn.Ret, typeOf(0)) {
			return fmt.Errorf("%s returns %s, want %s", fn.Name, ts.Format(typeOf(0)), ts.Format(fn.Ret))
		}
	default:
		return fmt.Errorf("unknown op %s", inst.Op)
	}
	return nil
}

func checkEdge(m *Module, target Block, arg types.Type) error {
	if !m.HasBlock(target) {
		return fmt.Errorf("jump to missing block @%d", target.Raw())
	}
	d := m.Block(target)
	if d.Kind != BlockInterior {
		return fmt.Errorf("jump to %s block @%d", d.Kind, target.Raw())
	}
	if !Assignable(m.Types, d.Arg, arg) {
		return fmt.Errorf("jump to @%d passes %s, want %s", target.Raw(), m.Types.Format(arg), m.Types.Format(d.Arg))
	}
	return nil
}

// Assignable reports whether a value of type got may flow where want is
// expected: structurally equal types, a boolean literal type widening to
// bool, and unit in either representation.
func Assignable(ts *types.Types, want, got types.Type) bool {
	if ts.Equals(want, got) {
		return true
	}
	if want == types.Bool && types.IsBoolean(got) {
		return true
	}
	if ts.IsUnit(want) && ts.IsUnit(got) {
		return true
	}
	if want.IsSentinel() || got.IsSentinel() {
		return false
	}
	wd, _ := ts.Lookup(want)
	gd, _ := ts.Lookup(got)
	if wd.Kind != gd.Kind {
		return false
	}
	switch wd.Kind {
	case types.KindProduct:
		if len(wd.Fields) != len(gd.Fields) {
			return false
		}
		for i := range wd.Fields {
			if !Assignable(ts, wd.Fields[i].Type, gd.Fields[i].Type) {
				return false
			}
		}
		return true
	case types.KindFunction:
		return ts.Equals(wd.Arg, gd.Arg) && ts.Equals(wd.Ret, gd.Ret)
	}
	return false
}
