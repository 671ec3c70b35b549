package ssa

import (
	"fmt"

	"keb/internal/diag"
	"keb/internal/sem"
	"keb/internal/types"
)

// envEntry is one lexically visible value. Temporaries that must survive a
// block change while a compound expression is evaluated are kept here too,
// under an empty name.
type envEntry struct {
	name string
	expr Expr
	typ  types.Type
}

type memoEntry struct {
	block Block
	expr  Expr
}

type fnLowerer struct {
	l     *lowerer
	m     *Module
	ts    *types.Types
	entry Block
	block Block
	env   []envEntry
	// memo caches values shared by the field accesses of a destructuring
	// pattern, valid while lowering stays in the same block.
	memo map[sem.Node]memoEntry
}

func (f *fnLowerer) emit(d InstData) Expr {
	return InstExpr(f.m.Append(f.block, d))
}

func (f *fnLowerer) unsupported(n sem.Node, format string, args ...any) Expr {
	f.l.errorf(diag.LowerUnsupported, f.l.g.Get(n).Span, format, args...)
	return ConstExpr(ConstUnit)
}

func (f *fnLowerer) lookup(name string) (Expr, bool) {
	for i := len(f.env) - 1; i >= 0; i-- {
		if f.env[i].name == name {
			return f.env[i].expr, true
		}
	}
	return Expr{}, false
}

func (f *fnLowerer) bind(name string, v Expr, typ types.Type) {
	f.env = append(f.env, envEntry{name: name, expr: v, typ: typ})
}

func (f *fnLowerer) unbind() {
	f.env = f.env[:len(f.env)-1]
}

// slotType is the type a bound value keeps across joins: the inferred type of
// its node (which includes every assignment) when known, otherwise the type of
// the lowered value.
func (f *fnLowerer) slotType(n sem.Node, v Expr) types.Type {
	if t := f.l.g.Type(n); resolved(f.ts, t) {
		return t
	}
	return f.m.ExprType(v)
}

// carried lists the environment entries that travel through jumps.
func (f *fnLowerer) carried() []int {
	var idx []int
	for i, e := range f.env {
		if !f.ts.IsUnit(e.typ) {
			idx = append(idx, i)
		}
	}
	return idx
}

// paramType is the argument type of a block entered from the current
// environment, optionally preceded by a value.
func (f *fnLowerer) paramType(value types.Type, hasValue bool) types.Type {
	idx := f.carried()
	if len(idx) == 0 {
		if hasValue {
			return value
		}
		return types.Unit
	}
	fields := make([]types.Field, 0, len(idx)+1)
	if hasValue {
		fields = append(fields, types.Field{Name: fieldName(0), Type: value})
	}
	for _, i := range idx {
		fields = append(fields, types.Field{Name: fieldName(len(fields)), Type: f.env[i].typ})
	}
	return f.ts.Product(fields)
}

// pack builds the jump argument matching paramType.
func (f *fnLowerer) pack(param types.Type, value *Expr) Expr {
	idx := f.carried()
	if len(idx) == 0 {
		if value != nil {
			return *value
		}
		return ConstExpr(ConstUnit)
	}
	args := make([]Expr, 0, len(idx)+1)
	if value != nil {
		args = append(args, *value)
	}
	for _, i := range idx {
		args = append(args, f.env[i].expr)
	}
	return f.emit(InstData{Op: OpRecord, Type: param, Args: args})
}

func (f *fnLowerer) newBlock(param types.Type) Block {
	return f.m.PushBlock(BlockData{Kind: BlockInterior, Arg: param, Func: f.entry})
}

// enter makes b current and rebinds the environment to the values unpacked
// from its argument. It returns the leading value when hasValue is set.
func (f *fnLowerer) enter(b Block, hasValue bool) Expr {
	f.block = b
	idx := f.carried()
	for i := range f.env {
		if f.ts.IsUnit(f.env[i].typ) {
			f.env[i].expr = ConstExpr(ConstUnit)
		}
	}
	base := ArgExpr(b)
	if len(idx) == 0 {
		if hasValue {
			return base
		}
		return ConstExpr(ConstUnit)
	}
	fields, ok := f.ts.Fields(f.m.Block(b).Arg)
	if !ok {
		panic(fmt.Errorf("ssa: block %d carries an environment but has type %s", b, f.ts.Format(f.m.Block(b).Arg)))
	}
	extract := func(pos int) Expr {
		return f.emit(InstData{Op: OpField, Type: fields[pos].Type, Args: []Expr{base}, Index: fieldIndex(pos)})
	}
	value := ConstExpr(ConstUnit)
	pos := 0
	if hasValue {
		value = extract(0)
		pos = 1
	}
	for _, i := range idx {
		f.env[i].expr = extract(pos)
		pos++
	}
	return value
}

func (f *fnLowerer) lower(n sem.Node) Expr {
	d := f.l.g.Get(n)
	switch d.Kind {
	case sem.KindNumber:
		return ConstExpr(f.l.u32Const(d.Number))
	case sem.KindTrue:
		return ConstExpr(ConstTrue)
	case sem.KindFalse:
		return ConstExpr(ConstFalse)
	case sem.KindBinding, sem.KindMutBinding:
		v := f.lower(d.Binding.Value)
		f.bind(d.Binding.Name, v, f.slotType(d.Binding.Value, v))
		res := f.lower(d.Binding.Body)
		f.unbind()
		return res
	case sem.KindAssignment:
		v := f.lower(d.Assignment.Value)
		for i := len(f.env) - 1; i >= 0; i-- {
			if f.env[i].name == d.Assignment.Name {
				f.env[i].expr = v
				return ConstExpr(ConstUnit)
			}
		}
		panic(fmt.Errorf("ssa: assignment to unbound %q", d.Assignment.Name))
	case sem.KindReference:
		return f.lowerReference(n, d)
	case sem.KindAccess:
		return f.lowerAccess(n, d)
	case sem.KindApplication:
		return f.lowerApplication(n, d)
	case sem.KindLoop:
		return f.lowerLoop(d)
	case sem.KindIf:
		return f.lowerIf(d)
	case sem.KindIfElse:
		return f.lowerIfElse(n, d)
	case sem.KindBuildStruct:
		return f.lowerStruct(d)
	case sem.KindChainOpen:
		for _, s := range d.Chain.Statements {
			f.lower(s)
		}
		return f.lower(d.Chain.Result)
	case sem.KindChainClosed:
		for _, s := range d.Chain.Statements {
			f.lower(s)
		}
		return ConstExpr(ConstUnit)
	case sem.KindFunction:
		return f.unsupported(n, "nested functions are not supported; move it to the top level")
	}
	panic(fmt.Errorf("ssa: cannot lower %s node %d", d.Kind, n))
}

func (f *fnLowerer) lowerReference(n sem.Node, d *sem.NodeData) Expr {
	name := d.Reference.Name
	if v, ok := f.lookup(name); ok {
		return v
	}
	if _, ok := f.l.callee(name); ok || f.l.skipped[name] {
		return f.unsupported(n, "function `%s` can only be called, not used as a value", name)
	}
	panic(fmt.Errorf("ssa: unresolved reference %q", name))
}

// lowerShared lowers n once per block.
func (f *fnLowerer) lowerShared(n sem.Node) Expr {
	if e, ok := f.memo[n]; ok && e.block == f.block {
		return e.expr
	}
	v := f.lower(n)
	f.memo[n] = memoEntry{block: f.block, expr: v}
	return v
}

func (f *fnLowerer) lowerAccess(n sem.Node, d *sem.NodeData) Expr {
	base := f.lowerShared(d.Access.Expr)
	bt := f.m.ExprType(base)
	idx, ft, ok := f.ts.FieldIndex(bt, d.Access.Field)
	if !ok || !resolved(f.ts, ft) {
		f.l.errorf(diag.LowerUnresolvedType, d.Span, "cannot resolve field `.%s` of %s", d.Access.Field, f.ts.Format(bt))
		return ConstExpr(ConstUnit)
	}
	return f.emit(InstData{Op: OpField, Type: ft, Args: []Expr{base}, Index: fieldIndex(idx)})
}

func (f *fnLowerer) lowerApplication(n sem.Node, d *sem.NodeData) Expr {
	arg := f.lower(d.Application.Argument)
	callee := f.l.g.Get(d.Application.Function)
	if callee.Kind != sem.KindReference {
		return f.unsupported(d.Application.Function, "only functions named at the top level can be called")
	}
	name := callee.Reference.Name
	if _, local := f.lookup(name); local {
		return f.unsupported(d.Application.Function, "`%s` is a local value; only functions named at the top level can be called", name)
	}
	target, ok := f.l.callee(name)
	if !ok {
		if f.l.skipped[name] {
			return ConstExpr(ConstUnit)
		}
		panic(fmt.Errorf("ssa: call of unresolved %q at node %d", name, n))
	}
	return f.emit(InstData{Op: OpCall, Type: f.m.Block(target).Ret, Args: []Expr{arg}, Callee: target})
}

// lowerStruct evaluates the fields left to right. Each lowered field is parked
// in the environment so that it survives control flow in later fields.
func (f *fnLowerer) lowerStruct(d *sem.NodeData) Expr {
	fields := d.Struct.Fields
	if len(fields) == 0 {
		return ConstExpr(ConstUnit)
	}
	for _, fi := range fields {
		v := f.lower(fi.Value)
		f.bind("", v, f.m.ExprType(v))
	}
	base := len(f.env) - len(fields)
	vals := make([]Expr, len(fields))
	typs := make([]types.Field, len(fields))
	allConst := true
	for i, fi := range fields {
		e := f.env[base+i]
		vals[i] = e.expr
		typs[i] = types.Field{Name: fi.Name, Type: e.typ}
		allConst = allConst && e.expr.Kind == ExprConst
	}
	f.env = f.env[:base]

	pt := f.ts.Product(typs)
	if allConst {
		consts := make([]Const, len(vals))
		for i, v := range vals {
			consts[i] = v.Const
		}
		return ConstExpr(f.m.PushConst(ConstData{Kind: ConstKindProduct, Type: pt, Fields: consts}))
	}
	return f.emit(InstData{Op: OpRecord, Type: pt, Args: vals})
}

func (f *fnLowerer) lowerIf(d *sem.NodeData) Expr {
	cond := f.lower(d.If.Condition)
	pt := f.paramType(types.Unit, false)
	then := f.newBlock(pt)
	after := f.newBlock(pt)
	arg := f.pack(pt, nil)
	f.emit(InstData{Op: OpJumpCondition, Type: types.Unit, Args: []Expr{cond, arg, arg}, Target: then, Else: after})

	f.enter(then, false)
	f.lower(d.If.Then)
	f.emit(InstData{Op: OpJump, Type: types.Unit, Args: []Expr{f.pack(pt, nil)}, Target: after})

	f.enter(after, false)
	return ConstExpr(ConstUnit)
}

func (f *fnLowerer) lowerIfElse(n sem.Node, d *sem.NodeData) Expr {
	cond := f.lower(d.If.Condition)
	pt := f.paramType(types.Unit, false)
	then := f.newBlock(pt)
	els := f.newBlock(pt)
	arg := f.pack(pt, nil)
	f.emit(InstData{Op: OpJumpCondition, Type: types.Unit, Args: []Expr{cond, arg, arg}, Target: then, Else: els})

	f.enter(then, false)
	tv := f.lower(d.If.Then)
	valueType := f.l.g.Type(n)
	if !resolved(f.ts, valueType) {
		valueType = f.m.ExprType(tv)
	}
	afterType := f.paramType(valueType, true)
	after := f.newBlock(afterType)
	f.emit(InstData{Op: OpJump, Type: types.Unit, Args: []Expr{f.pack(afterType, &tv)}, Target: after})

	f.enter(els, false)
	ev := f.lower(d.If.Else)
	f.emit(InstData{Op: OpJump, Type: types.Unit, Args: []Expr{f.pack(afterType, &ev)}, Target: after})

	return f.enter(after, true)
}

// lowerLoop emits a block that jumps to itself. There is no exit edge, so the
// code after the loop continues in a block without predecessors.
func (f *fnLowerer) lowerLoop(d *sem.NodeData) Expr {
	pt := f.paramType(types.Unit, false)
	body := f.newBlock(pt)
	f.emit(InstData{Op: OpJump, Type: types.Unit, Args: []Expr{f.pack(pt, nil)}, Target: body})

	f.enter(body, false)
	f.lower(d.Loop.Body)
	f.emit(InstData{Op: OpJump, Type: types.Unit, Args: []Expr{f.pack(pt, nil)}, Target: body})

	f.enter(f.newBlock(pt), false)
	return ConstExpr(ConstUnit)
}
