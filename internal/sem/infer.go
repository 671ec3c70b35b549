package sem

import (
	"fmt"
	"slices"

	"keb/internal/diag"
	"keb/internal/source"
	"keb/internal/types"
)

type inferer struct {
	g   *Graph
	ts  *types.Types
	rep diag.Reporter
}

// Infer refines the type slots of g in one depth-first pass. Top-level names
// are visible to every binding, so forward references and recursion resolve.
// Mismatches are reported and leave the slot as it was.
func Infer(g *Graph, builtins Builtins, r diag.Reporter) {
	in := &inferer{g: g, ts: g.Types, rep: diag.NewDedupReporter(r)}

	var root *scope
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		root = root.with(name, scopeItem{kind: itemBuiltin, typ: builtins[name]})
	}
	if g.Root != NoNode {
		in.visitModule(g.Root, root)
	}
}

func (in *inferer) format(t types.Type) string { return in.ts.Format(t) }

func (in *inferer) span(n Node) source.Span { return in.g.Get(n).Span }

// addType combines t into n's slot and reports a mismatch at n.
func (in *inferer) addType(n Node, t types.Type) {
	before := in.g.Type(n)
	if err := in.g.AddType(n, t); err != nil {
		diag.ReportErrorf(in.rep, diag.SemaTypeMismatch, in.span(n),
			"type mismatch: expected %s, found %s", in.format(t), in.format(before)).Emit()
	}
}

func (in *inferer) visitModule(n Node, sc *scope) {
	bindings := in.g.Get(n).Module.Bindings
	for _, b := range bindings {
		sc = sc.with(b.Name, scopeItem{kind: itemNode, node: b.Value})
	}
	for _, b := range bindings {
		in.visit(b.Value, sc)
	}
	fields := make([]types.Field, len(bindings))
	for i, b := range bindings {
		fields[i] = types.Field{Name: b.Name, Type: in.g.Type(b.Value)}
	}
	in.g.SetType(n, in.ts.Product(fields))
}

func (in *inferer) visit(n Node, sc *scope) {
	d := in.g.Get(n)
	switch d.Kind {
	case KindInvalid:
	case KindNumber:
		in.addType(n, types.Uint32)
	case KindTrue:
		in.addType(n, types.True)
	case KindFalse:
		in.addType(n, types.False)
	case KindModule:
		in.visitModule(n, sc)
	case KindFunction:
		in.visitFunction(n, sc)
	case KindBinding, KindMutBinding:
		b := d.Binding
		in.visit(b.Value, sc)
		inner := sc.with(b.Name, scopeItem{kind: itemNode, node: b.Value, mutable: d.Kind == KindMutBinding})
		in.visit(b.Body, inner)
		in.addType(n, in.g.Type(b.Body))
	case KindAssignment:
		in.visitAssignment(n, sc)
	case KindReference:
		in.visitReference(n, sc)
	case KindAccess:
		in.visitAccess(n, sc)
	case KindApplication:
		in.visitApplication(n, sc)
	case KindLoop:
		in.visit(d.Loop.Body, sc)
		in.addType(n, types.Unit)
	case KindIf:
		in.visitCondition(d.If.Condition, sc)
		in.visit(d.If.Then, sc)
		if err := in.g.AddType(d.If.Then, types.Unit); err != nil {
			diag.ReportErrorf(in.rep, diag.SemaTypeMismatch, in.span(d.If.Then),
				"`if` without `else` must have type (), but its branch has type %s", in.format(in.g.Type(d.If.Then))).Emit()
		}
		in.addType(n, types.Unit)
	case KindIfElse:
		in.visitIfElse(n, sc)
	case KindBuildStruct:
		fields := make([]types.Field, len(d.Struct.Fields))
		for i, f := range d.Struct.Fields {
			in.visit(f.Value, sc)
			fields[i] = types.Field{Name: f.Name, Type: in.g.Type(f.Value)}
		}
		in.addType(n, in.ts.Product(fields))
	case KindChainOpen:
		for _, stmt := range d.Chain.Statements {
			in.visit(stmt, sc)
		}
		in.visit(d.Chain.Result, sc)
		in.addType(n, in.g.Type(d.Chain.Result))
	case KindChainClosed:
		for _, stmt := range d.Chain.Statements {
			in.visit(stmt, sc)
		}
		in.addType(n, types.Unit)
	default:
		panic(fmt.Errorf("sem: unhandled node kind %s", d.Kind))
	}
}

// visitFunction re-derives the signature before and after visiting the body,
// so that references to the function from inside its own body see the
// declared return type, and callers see the return type the body produced.
func (in *inferer) visitFunction(n Node, sc *scope) {
	d := in.g.Get(n)
	body := d.Function.Body
	inner := sc.with(d.Function.Argument, scopeItem{kind: itemArgument, node: n})

	in.refineSignature(n, body)
	in.visit(body, inner)
	in.refineSignature(n, body)
}

func (in *inferer) refineSignature(fn, body Node) {
	arg, ret, ok := in.ts.Signature(in.g.Type(fn))
	if !ok {
		panic(fmt.Errorf("sem: function node %d has non-function type %s", fn, in.format(in.g.Type(fn))))
	}
	bodyType := in.g.Type(body)
	combined, err := in.ts.Combine(ret, bodyType)
	if err != nil {
		diag.ReportErrorf(in.rep, diag.SemaTypeMismatch, in.span(body),
			"function body has type %s, but the declared return type is %s", in.format(bodyType), in.format(ret)).Emit()
		return
	}
	in.g.SetType(fn, in.ts.Function(arg, combined))
}

func (in *inferer) visitReference(n Node, sc *scope) {
	name := in.g.Get(n).Reference.Name
	item, ok := sc.lookup(name)
	if !ok {
		diag.ReportErrorf(in.rep, diag.SemaUnresolvedName, in.span(n), "cannot find `%s` in this scope", name).Emit()
		return
	}
	var t types.Type
	switch item.kind {
	case itemNode:
		t = in.g.Type(item.node)
	case itemArgument:
		arg, _, ok := in.ts.Signature(in.g.Type(item.node))
		if !ok {
			panic(fmt.Errorf("sem: argument of non-function node %d", item.node))
		}
		t = arg
	case itemBuiltin:
		t = item.typ
	}
	in.addType(n, t)
}

func (in *inferer) visitAssignment(n Node, sc *scope) {
	a := in.g.Get(n).Assignment
	in.visit(a.Value, sc)
	in.addType(n, types.Unit)

	item, ok := sc.lookup(a.Name)
	if !ok {
		diag.ReportErrorf(in.rep, diag.SemaUnresolvedName, in.span(n), "cannot find `%s` in this scope", a.Name).Emit()
		return
	}
	if !item.mutable {
		b := diag.ReportErrorf(in.rep, diag.SemaAssignImmutable, in.span(n), "cannot assign twice to immutable binding `%s`", a.Name)
		if item.kind == itemNode {
			b = b.WithNote(in.span(item.node), "bound here; write `let mut` to allow assignment")
		}
		b.Emit()
		return
	}
	storage := in.g.Type(item.node)
	assigned := in.g.Type(a.Value)
	combined, err := in.ts.Combine(storage, assigned)
	if err != nil {
		diag.ReportErrorf(in.rep, diag.SemaTypeMismatch, in.span(a.Value),
			"cannot assign a value of type %s to `%s` of type %s", in.format(assigned), a.Name, in.format(storage)).Emit()
		return
	}
	in.g.SetType(item.node, combined)
}

func (in *inferer) visitAccess(n Node, sc *scope) {
	a := in.g.Get(n).Access
	in.visit(a.Expr, sc)
	t := in.g.Type(a.Expr)
	if t == types.Unknown {
		return
	}
	_, ft, ok := in.ts.FieldIndex(t, a.Field)
	if !ok {
		if _, isProduct := in.ts.Fields(t); isProduct {
			diag.ReportErrorf(in.rep, diag.SemaFieldNotFound, in.span(n), "type %s has no field `%s`", in.format(t), a.Field).Emit()
		} else {
			diag.ReportErrorf(in.rep, diag.SemaFieldNotFound, in.span(n), "type %s has no fields", in.format(t)).Emit()
		}
		return
	}
	in.addType(n, ft)
}

func (in *inferer) visitApplication(n Node, sc *scope) {
	app := in.g.Get(n).Application
	in.visit(app.Function, sc)
	in.visit(app.Argument, sc)

	callee := in.g.Type(app.Function)
	if callee == types.Unknown {
		return
	}
	param, ret, ok := in.ts.Signature(callee)
	if !ok {
		diag.ReportErrorf(in.rep, diag.SemaNotCallable, in.span(app.Function),
			"expected a function, found a value of type %s", in.format(callee)).Emit()
		return
	}
	if arg := in.g.Type(app.Argument); !fits(in.ts, param, arg) {
		diag.ReportErrorf(in.rep, diag.SemaTypeMismatch, in.span(app.Argument),
			"argument has type %s, but the function takes %s", in.format(arg), in.format(param)).Emit()
	}
	in.addType(n, ret)
}

// visitCondition forces an undetermined condition to bool. A u32 condition
// is accepted and tests for non-zero.
func (in *inferer) visitCondition(cond Node, sc *scope) {
	in.visit(cond, sc)
	t := in.g.Type(cond)
	switch {
	case t == types.Unknown || types.IsBoolean(t):
		in.addType(cond, types.Bool)
	case t == types.Uint32:
	default:
		diag.ReportErrorf(in.rep, diag.SemaBadCondition, in.span(cond),
			"condition must be bool or u32, found %s", in.format(t)).Emit()
	}
}

func (in *inferer) visitIfElse(n Node, sc *scope) {
	branch := in.g.Get(n).If
	in.visitCondition(branch.Condition, sc)
	in.visit(branch.Then, sc)
	in.visit(branch.Else, sc)

	thenType, elseType := in.g.Type(branch.Then), in.g.Type(branch.Else)
	combined, err := in.ts.Combine(thenType, elseType)
	if err != nil {
		diag.ReportErrorf(in.rep, diag.SemaTypeMismatch, in.span(branch.Else),
			"`if` and `else` have incompatible types: %s and %s", in.format(thenType), in.format(elseType)).
			WithNote(in.span(branch.Then), "then branch is here").
			Emit()
		return
	}
	in.g.SetType(branch.Then, combined)
	in.g.SetType(branch.Else, combined)
	in.addType(n, combined)
}

// fits reports whether a value of type got may be passed where want is
// expected. Unknown on either side is accepted; products are compared
// field by field.
func fits(ts *types.Types, want, got types.Type) bool {
	if want == types.Unknown || got == types.Unknown {
		return true
	}
	if want == types.Bool && types.IsBoolean(got) {
		return true
	}
	if ts.IsUnit(want) && ts.IsUnit(got) {
		return true
	}
	if want.IsSentinel() || got.IsSentinel() {
		return want == got
	}
	wd, _ := ts.Lookup(want)
	gd, _ := ts.Lookup(got)
	if wd.Kind != gd.Kind {
		return false
	}
	switch wd.Kind {
	case types.KindFunction:
		return fits(ts, wd.Arg, gd.Arg) && fits(ts, wd.Ret, gd.Ret)
	case types.KindProduct:
		if len(wd.Fields) != len(gd.Fields) {
			return false
		}
		for i := range wd.Fields {
			if !fits(ts, wd.Fields[i].Type, gd.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}
