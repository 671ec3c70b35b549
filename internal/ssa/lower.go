package ssa

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"keb/internal/diag"
	"keb/internal/sem"
	"keb/internal/source"
	"keb/internal/types"
)

// ExternPrint is the runtime symbol `print` is bound to.
const ExternPrint = "builtin_print"

type lowerer struct {
	g   *sem.Graph
	ts  *types.Types
	m   *Module
	rep diag.Reporter

	builtins map[string]Block
	funcs    map[string]Block
	// skipped holds top-level names that were reported and have no block.
	skipped map[string]bool
	u32     map[uint32]Const
}

type pendingFunc struct {
	binding sem.ModuleBinding
	block   Block
}

// Lower builds the SSA module of g. Constructs the code generator cannot
// handle are reported to r; lowering goes on with unit placeholders so that
// every declared function still gets a terminated body.
//
// g must have passed Build and Infer without errors: Invalid nodes and
// mismatched shapes panic.
func Lower(g *sem.Graph, r diag.Reporter) *Module {
	l := &lowerer{
		g:        g,
		ts:       g.Types,
		m:        NewModule(g.Types),
		rep:      r,
		builtins: make(map[string]Block),
		funcs:    make(map[string]Block),
		skipped:  make(map[string]bool),
		u32:      make(map[uint32]Const),
	}
	l.declareBuiltins()
	for _, fn := range l.declareFunctions() {
		l.lowerFunction(fn)
	}
	return l.m
}

func (l *lowerer) declareBuiltins() {
	l.builtins[sem.BuiltinPrint] = l.m.PushBlock(BlockData{
		Kind: BlockExtern,
		Name: ExternPrint,
		Arg:  types.Uint32,
		Ret:  types.Unit,
		Func: NoBlock,
	})

	pair := l.ts.Tuple(types.Uint32, types.Uint32)
	for _, op := range []struct {
		name string
		op   Op
	}{
		{sem.BuiltinAdd, OpAdd},
		{sem.BuiltinSub, OpSub},
		{sem.BuiltinMul, OpMul},
		{sem.BuiltinDiv, OpDiv},
		{sem.BuiltinEq, OpEq},
	} {
		b := l.m.PushBlock(BlockData{Kind: BlockFunction, Name: op.name, Arg: pair, Ret: types.Uint32})
		l.m.Block(b).Func = b
		arg := ArgExpr(b)
		lhs := l.m.Append(b, InstData{Op: OpField, Type: types.Uint32, Args: []Expr{arg}, Index: 0})
		rhs := l.m.Append(b, InstData{Op: OpField, Type: types.Uint32, Args: []Expr{arg}, Index: 1})
		res := l.m.Append(b, InstData{Op: op.op, Type: types.Uint32, Args: []Expr{InstExpr(lhs), InstExpr(rhs)}})
		l.m.Append(b, InstData{Op: OpReturn, Type: types.Unit, Args: []Expr{InstExpr(res)}})
		l.builtins[op.name] = b
	}
}

// declareFunctions creates the entry block of every top-level function
// before any body is lowered, so calls may refer to later definitions.
func (l *lowerer) declareFunctions() []pendingFunc {
	var pending []pendingFunc
	for _, b := range l.g.Bindings() {
		d := l.g.Get(b.Value)
		if d.Kind != sem.KindFunction {
			l.errorf(diag.LowerUnsupported, b.Span, "top-level binding `%s` is not a function; only functions can be compiled", b.Name)
			l.skipped[b.Name] = true
			continue
		}
		arg, ret, _ := l.ts.Signature(d.Type)
		if !resolved(l.ts, arg) || !resolved(l.ts, ret) {
			l.errorf(diag.LowerUnresolvedType, b.Span, "cannot infer the type of `%s`: %s", b.Name, l.ts.Format(d.Type))
			l.skipped[b.Name] = true
			continue
		}
		blk := l.m.PushBlock(BlockData{Kind: BlockFunction, Name: b.Name, Arg: arg, Ret: ret})
		l.m.Block(blk).Func = blk
		l.funcs[b.Name] = blk
		pending = append(pending, pendingFunc{binding: b, block: blk})
	}
	return pending
}

func (l *lowerer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportErrorf(l.rep, code, sp, format, args...).Emit()
}

// callee resolves a function name: module functions shadow builtins.
func (l *lowerer) callee(name string) (Block, bool) {
	if b, ok := l.funcs[name]; ok {
		return b, true
	}
	b, ok := l.builtins[name]
	return b, ok
}

func (l *lowerer) u32Const(v uint32) Const {
	if c, ok := l.u32[v]; ok {
		return c
	}
	c := l.m.PushConst(ConstData{Kind: ConstKindUint32, Type: types.Uint32, Value: v})
	l.u32[v] = c
	return c
}

func (l *lowerer) lowerFunction(fn pendingFunc) {
	d := l.g.Get(fn.binding.Value)
	f := &fnLowerer{
		l:     l,
		m:     l.m,
		ts:    l.ts,
		entry: fn.block,
		block: fn.block,
		memo:  make(map[sem.Node]memoEntry),
	}
	f.env = append(f.env, envEntry{
		name: d.Function.Argument,
		expr: ArgExpr(fn.block),
		typ:  l.m.Block(fn.block).Arg,
	})
	v := f.lower(d.Function.Body)
	f.emit(InstData{Op: OpReturn, Type: types.Unit, Args: []Expr{v}})
}

// resolved reports whether t contains no Unknown.
func resolved(ts *types.Types, t types.Type) bool {
	if t == types.Unknown {
		return false
	}
	d, ok := ts.Lookup(t)
	if !ok {
		return true
	}
	switch d.Kind {
	case types.KindFunction:
		return resolved(ts, d.Arg) && resolved(ts, d.Ret)
	case types.KindProduct:
		for _, f := range d.Fields {
			if !resolved(ts, f.Type) {
				return false
			}
		}
	}
	return true
}

func fieldIndex(i int) uint32 {
	idx, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("ssa: field index overflow: %w", err))
	}
	return idx
}

func fieldName(i int) string { return strconv.Itoa(i) }
