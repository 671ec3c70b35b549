package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"keb/internal/ssa"
)

const (
	// EntryName is the function Run starts at.
	EntryName = "main"

	defaultMaxDepth = 10_000
	// cancelCheckEvery is how many steps pass between context checks.
	cancelCheckEvery = 1024
)

// Options configures execution.
type Options struct {
	// Stdout receives the output of print; nil means os.Stdout.
	Stdout io.Writer
	// MaxSteps bounds the number of executed instructions; 0 means no limit.
	MaxSteps int
	// MaxDepth bounds nested calls; 0 means the default.
	MaxDepth int
	// Trace, when set, receives one line per executed instruction.
	Trace io.Writer
}

// VM executes one module.
type VM struct {
	M     *ssa.Module
	Steps int

	opts  Options
	out   io.Writer
	trace *Tracer
	stack []string
}

func New(m *ssa.Module, opts Options) *VM {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	vm := &VM{M: m, opts: opts, out: out}
	if opts.Trace != nil {
		vm.trace = NewTracer(opts.Trace, m)
	}
	return vm
}

// Run calls main with unit.
func Run(ctx context.Context, m *ssa.Module, opts Options) error {
	_, err := New(m, opts).Call(ctx, EntryName, Unit())
	return err
}

// Call runs the function named name with arg and returns its result.
func (vm *VM) Call(ctx context.Context, name string, arg Value) (Value, error) {
	b, ok := vm.M.Function(name)
	if !ok {
		return Value{}, vm.fail(ErrNoEntry, "function %q not found", name)
	}
	return vm.call(ctx, b, arg)
}

func (vm *VM) fail(code ErrorCode, format string, args ...any) *Error {
	bt := slices.Clone(vm.stack)
	slices.Reverse(bt)
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Backtrace: bt}
}

func (vm *VM) call(ctx context.Context, b ssa.Block, arg Value) (Value, error) {
	fn := vm.M.Block(b)
	if fn.Kind == ssa.BlockExtern {
		return vm.extern(fn, arg)
	}
	if len(vm.stack) >= vm.opts.MaxDepth {
		return Value{}, vm.fail(ErrCallDepth, "call depth exceeds %d", vm.opts.MaxDepth)
	}
	vm.stack = append(vm.stack, fn.Name)
	defer func() { vm.stack = vm.stack[:len(vm.stack)-1] }()

	cur := b
	for {
		next, nextArg, ret, done, err := vm.runBlock(ctx, cur, arg)
		if err != nil {
			return Value{}, err
		}
		if done {
			return ret, nil
		}
		cur, arg = next, nextArg
	}
}

func (vm *VM) extern(fn *ssa.BlockData, arg Value) (Value, error) {
	switch fn.Name {
	case ssa.ExternPrint:
		if arg.Kind != VKU32 {
			return Value{}, vm.fail(ErrTypeMismatch, "%s expects u32, got %s", fn.Name, arg.Kind)
		}
		if _, err := fmt.Fprintf(vm.out, "%d\n", arg.U32); err != nil {
			return Value{}, err
		}
		return Unit(), nil
	}
	return Value{}, vm.fail(ErrUnsupportedExtern, "no implementation for extern %s", fn.Name)
}

// runBlock executes block b with argument arg. It either reports the jump
// target and its argument, or the returned value with done set.
func (vm *VM) runBlock(ctx context.Context, b ssa.Block, arg Value) (next ssa.Block, nextArg, ret Value, done bool, err error) {
	blk := vm.M.Block(b)
	vals := make(map[ssa.Inst]Value, len(blk.Insts))
	operand := func(e ssa.Expr) Value {
		switch e.Kind {
		case ssa.ExprConst:
			return vm.constValue(e.Const)
		case ssa.ExprInst:
			return vals[e.Inst]
		default:
			return arg
		}
	}

	for ip, i := range blk.Insts {
		vm.Steps++
		if vm.opts.MaxSteps > 0 && vm.Steps > vm.opts.MaxSteps {
			return ssa.NoBlock, Value{}, Value{}, false, vm.fail(ErrStepLimit, "step limit of %d exhausted", vm.opts.MaxSteps)
		}
		if vm.Steps%cancelCheckEvery == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return ssa.NoBlock, Value{}, Value{}, false, vm.fail(ErrCanceled, "%v", cerr)
			}
		}
		inst := vm.M.Inst(i)
		vm.trace.Inst(len(vm.stack), b, ip, i)

		args := make([]Value, len(inst.Args))
		for k, e := range inst.Args {
			args[k] = operand(e)
		}

		switch inst.Op {
		case ssa.OpField:
			if args[0].Kind != VKRecord || int(inst.Index) >= len(args[0].Fields) {
				return ssa.NoBlock, Value{}, Value{}, false, vm.fail(ErrTypeMismatch, "field %d of %s", inst.Index, args[0])
			}
			vals[i] = args[0].Fields[inst.Index]
		case ssa.OpRecord:
			vals[i] = Record(args...)
		case ssa.OpAdd, ssa.OpSub, ssa.OpMul, ssa.OpDiv, ssa.OpEq:
			v, aerr := vm.arith(inst.Op, args[0], args[1])
			if aerr != nil {
				return ssa.NoBlock, Value{}, Value{}, false, aerr
			}
			vals[i] = v
		case ssa.OpCall:
			v, cerr := vm.call(ctx, inst.Callee, args[0])
			if cerr != nil {
				return ssa.NoBlock, Value{}, Value{}, false, cerr
			}
			vals[i] = v
		case ssa.OpJump:
			return inst.Target, args[0], Value{}, false, nil
		case ssa.OpJumpCondition:
			taken, terr := vm.truthy(args[0])
			if terr != nil {
				return ssa.NoBlock, Value{}, Value{}, false, terr
			}
			if taken {
				return inst.Target, args[1], Value{}, false, nil
			}
			return inst.Else, args[2], Value{}, false, nil
		case ssa.OpReturn:
			return ssa.NoBlock, Value{}, args[0], true, nil
		default:
			return ssa.NoBlock, Value{}, Value{}, false, vm.fail(ErrMalformed, "unknown op %s", inst.Op)
		}
	}
	return ssa.NoBlock, Value{}, Value{}, false, vm.fail(ErrMalformed, "block @%d ends without a terminator", b.Raw())
}

func (vm *VM) arith(op ssa.Op, lhs, rhs Value) (Value, error) {
	if lhs.Kind != VKU32 || rhs.Kind != VKU32 {
		return Value{}, vm.fail(ErrTypeMismatch, "%s of %s and %s", op, lhs.Kind, rhs.Kind)
	}
	a, b := lhs.U32, rhs.U32
	switch op {
	case ssa.OpAdd:
		return U32(a + b), nil
	case ssa.OpSub:
		return U32(a - b), nil
	case ssa.OpMul:
		return U32(a * b), nil
	case ssa.OpDiv:
		if b == 0 {
			return Value{}, vm.fail(ErrDivisionByZero, "division of %d by zero", a)
		}
		return U32(a / b), nil
	default:
		if a == b {
			return U32(1), nil
		}
		return U32(0), nil
	}
}

// truthy accepts bool conditions and u32 ones, which test for non-zero.
func (vm *VM) truthy(v Value) (bool, error) {
	switch v.Kind {
	case VKBool:
		return v.Bool, nil
	case VKU32:
		return v.U32 != 0, nil
	}
	return false, vm.fail(ErrTypeMismatch, "condition of kind %s", v.Kind)
}

func (vm *VM) constValue(c ssa.Const) Value {
	switch c {
	case ssa.ConstUnit:
		return Unit()
	case ssa.ConstFalse:
		return Bool(false)
	case ssa.ConstTrue:
		return Bool(true)
	}
	d, _ := vm.M.Const(c)
	if d.Kind == ssa.ConstKindUint32 {
		return U32(d.Value)
	}
	fields := make([]Value, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = vm.constValue(f)
	}
	return Record(fields...)
}
