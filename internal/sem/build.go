package sem

import (
	"strconv"

	"keb/internal/ast"
	"keb/internal/diag"
	"keb/internal/source"
	"keb/internal/types"
)

var operatorBuiltins = map[ast.Op]string{
	ast.OpAdd: BuiltinAdd,
	ast.OpSub: BuiltinSub,
	ast.OpMul: BuiltinMul,
	ast.OpDiv: BuiltinDiv,
	ast.OpEq:  BuiltinEq,
}

type builder struct {
	tree *ast.Tree
	g    *Graph
	rep  diag.Reporter
}

// Build desugars a syntax tree into a semantic graph. Types written in the
// source (ascriptions, literal types, function signatures) are already in the
// slots afterwards; everything else is types.Unknown until Infer runs.
// Malformed constructs are reported and replaced by KindInvalid nodes.
func Build(tree *ast.Tree, ts *types.Types, r diag.Reporter) *Graph {
	b := &builder{tree: tree, g: NewGraph(ts), rep: r}
	b.g.Root = b.buildRoot()
	return b.g
}

func (b *builder) push(d NodeData) Node {
	return b.g.Push(d)
}

func (b *builder) invalid(sp source.Span) Node {
	return b.g.Push(NodeData{Kind: KindInvalid, Type: types.Unknown, Span: sp})
}

func (b *builder) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportErrorf(b.rep, code, sp, format, args...).Emit()
}

// addType narrows a slot with a type written in the source.
func (b *builder) addType(n Node, t types.Type, sp source.Span) {
	if err := b.g.AddType(n, t); err != nil {
		diag.ReportErrorf(b.rep, diag.SemaTypeMismatch, sp,
			"type mismatch: %s does not fit the annotation %s",
			b.g.Types.Format(b.g.Type(n)), b.g.Types.Format(t)).Emit()
	}
}

func (b *builder) buildRoot() Node {
	root := b.tree.Get(b.tree.Root)
	module := Module{}
	seen := make(map[string]source.Span, len(root.List))
	for _, item := range root.List {
		d := b.tree.Get(item)
		if d.Kind == ast.KindBad {
			continue
		}
		if d.Kind != ast.KindLet {
			b.errorf(diag.SemaMalformed, d.Span, "only `let name = value` is allowed at the top level")
			continue
		}
		pattern := b.tree.Get(d.A)
		if pattern.Kind != ast.KindIdent {
			b.errorf(diag.SemaMalformed, pattern.Span, "a top-level binding must bind a plain name")
			continue
		}
		if prev, dup := seen[pattern.Text]; dup {
			diag.ReportErrorf(b.rep, diag.SemaDuplicateBinding, pattern.Span, "`%s` is already defined", pattern.Text).
				WithNote(prev, "first definition").
				Emit()
			continue
		}
		seen[pattern.Text] = pattern.Span
		module.Bindings = append(module.Bindings, ModuleBinding{
			Name:  pattern.Text,
			Value: b.buildExpr(d.B),
			Span:  d.Span,
		})
	}
	return b.g.Push(NodeData{Kind: KindModule, Type: types.Unknown, Span: root.Span, Module: module})
}

func (b *builder) buildExpr(n ast.Node) Node {
	d := b.tree.Get(n)
	switch d.Kind {
	case ast.KindIdent:
		return b.push(NodeData{Kind: KindReference, Type: types.Unknown, Span: d.Span, Reference: Reference{Name: d.Text}})
	case ast.KindNumber:
		v, err := strconv.ParseUint(d.Text, 10, 32)
		if err != nil {
			b.errorf(diag.SemaNumberOverflow, d.Span, "number %s does not fit in u32", d.Text)
		}
		return b.push(NodeData{Kind: KindNumber, Type: types.Uint32, Span: d.Span, Number: uint32(v)})
	case ast.KindTrue:
		return b.push(NodeData{Kind: KindTrue, Type: types.True, Span: d.Span})
	case ast.KindFalse:
		return b.push(NodeData{Kind: KindFalse, Type: types.False, Span: d.Span})
	case ast.KindFunction:
		return b.buildFunction(d)
	case ast.KindBinary:
		return b.buildOperator(d)
	case ast.KindAssign:
		target := b.tree.Get(d.A)
		value := b.buildExpr(d.B)
		if target.Kind != ast.KindIdent {
			b.errorf(diag.SemaMalformed, target.Span, "only a name can be assigned to")
			return b.invalid(d.Span)
		}
		return b.push(NodeData{Kind: KindAssignment, Type: types.Unknown, Span: d.Span, Assignment: Assignment{Name: target.Text, Value: value}})
	case ast.KindApplication:
		fn := b.buildExpr(d.A)
		arg := b.buildExpr(d.B)
		return b.push(NodeData{Kind: KindApplication, Type: types.Unknown, Span: d.Span, Application: Application{Function: fn, Argument: arg}})
	case ast.KindLoop:
		body := b.buildExpr(d.A)
		return b.push(NodeData{Kind: KindLoop, Type: types.Unknown, Span: d.Span, Loop: Loop{Body: body}})
	case ast.KindIf, ast.KindIfElse:
		node := NodeData{Kind: KindIf, Type: types.Unknown, Span: d.Span, If: If{Else: NoNode}}
		node.If.Condition = b.buildExpr(d.A)
		node.If.Then = b.buildExpr(d.B)
		if d.Kind == ast.KindIfElse {
			node.Kind = KindIfElse
			node.If.Else = b.buildExpr(d.C)
		}
		return b.push(node)
	case ast.KindParen:
		return b.buildExpr(d.A)
	case ast.KindEmptyParen:
		return b.push(NodeData{Kind: KindBuildStruct, Type: types.Unknown, Span: d.Span})
	case ast.KindTuple:
		fields := make([]FieldInit, len(d.List))
		for i, elem := range d.List {
			fields[i] = FieldInit{Name: strconv.Itoa(i), Value: b.buildExpr(elem)}
		}
		return b.push(NodeData{Kind: KindBuildStruct, Type: types.Unknown, Span: d.Span, Struct: BuildStruct{Fields: fields}})
	case ast.KindAscription:
		expr := b.buildExpr(d.A)
		b.addType(expr, b.buildType(d.B), d.Span)
		return expr
	case ast.KindAccess:
		expr := b.buildExpr(d.A)
		return b.push(NodeData{Kind: KindAccess, Type: types.Unknown, Span: d.Span, Access: Access{Field: d.Text, Expr: expr}})
	case ast.KindChain:
		return b.buildChain(d.List, d.Closed)
	case ast.KindLet:
		return b.buildChain([]ast.Node{n}, false)
	case ast.KindBad:
		return b.invalid(d.Span)
	case ast.KindMut:
		b.errorf(diag.SemaMalformed, d.Span, "`mut` is only allowed in a let pattern")
		return b.invalid(d.Span)
	case ast.KindReturnAscription:
		b.errorf(diag.SemaMalformed, d.Span, "a return type is only allowed before `=>`")
		return b.invalid(d.Span)
	}
	b.errorf(diag.SemaMalformed, d.Span, "unexpected %s in expression position", d.Kind)
	return b.invalid(d.Span)
}

// buildOperator turns `lhs op rhs` into a call of the operator's builtin with
// the tuple (lhs, rhs).
func (b *builder) buildOperator(d *ast.NodeData) Node {
	lhs := b.buildExpr(d.A)
	rhs := b.buildExpr(d.B)
	pair := b.push(NodeData{Kind: KindBuildStruct, Type: types.Unknown, Span: d.Span, Struct: BuildStruct{Fields: []FieldInit{
		{Name: "0", Value: lhs},
		{Name: "1", Value: rhs},
	}}})
	callee := b.push(NodeData{Kind: KindReference, Type: types.Unknown, Span: d.Span, Reference: Reference{Name: operatorBuiltins[d.Op]}})
	return b.push(NodeData{Kind: KindApplication, Type: types.Unknown, Span: d.Span, Application: Application{Function: callee, Argument: pair}})
}

// buildFunction desugars `pattern -> ret => body`. The argument is always a
// single value named ParamName; the pattern becomes bindings wrapped around
// the body.
func (b *builder) buildFunction(d *ast.NodeData) Node {
	pattern := d.A
	retType := types.Unknown
	if p := b.tree.Get(pattern); p.Kind == ast.KindReturnAscription {
		pattern = p.A
		retType = b.buildType(p.B)
	}
	argType := types.Unknown
	if p := b.tree.Get(pattern); p.Kind == ast.KindAscription {
		argType = b.buildType(p.B)
	}

	param := b.push(NodeData{Kind: KindReference, Type: types.Unknown, Span: b.tree.Get(pattern).Span, Reference: Reference{Name: ParamName}})
	body := b.buildExpr(d.B)
	body, patternType := b.sift(param, pattern, body, false)

	combined, err := b.g.Types.Combine(argType, patternType)
	if err != nil {
		b.errorf(diag.SemaTypeMismatch, b.tree.Get(pattern).Span, "parameter pattern does not match its type: %s", err)
		combined = argType
	}
	fnType := b.g.Types.Function(combined, retType)
	return b.push(NodeData{
		Kind:     KindFunction,
		Type:     fnType,
		Span:     d.Span,
		Function: Function{Argument: ParamName, Body: body},
	})
}

// buildChain builds a `;` sequence. A `let` captures the remaining elements
// as its body; an open chain yields its last element.
func (b *builder) buildChain(elems []ast.Node, closed bool) Node {
	var exprs []Node
	for i, elem := range elems {
		d := b.tree.Get(elem)
		if d.Kind == ast.KindLet {
			value := b.buildExpr(d.B)
			body := b.buildChain(elems[i+1:], closed)
			bound, _ := b.sift(value, d.A, body, false)
			exprs = append(exprs, bound)
			break
		}
		exprs = append(exprs, b.buildExpr(elem))
	}

	sp := b.chainSpan(elems)
	if closed || len(exprs) == 0 {
		return b.push(NodeData{Kind: KindChainClosed, Type: types.Unit, Span: sp, Chain: Chain{Statements: exprs, Result: NoNode}})
	}
	last := len(exprs) - 1
	return b.push(NodeData{Kind: KindChainOpen, Type: types.Unknown, Span: sp, Chain: Chain{Statements: exprs[:last], Result: exprs[last]}})
}

func (b *builder) chainSpan(elems []ast.Node) source.Span {
	if len(elems) == 0 {
		return source.Span{File: b.tree.File}
	}
	sp := b.tree.Get(elems[0]).Span
	return sp.Cover(b.tree.Get(elems[len(elems)-1]).Span)
}

// sift binds value through pattern around body and returns the new body
// together with the type the pattern demands of value.
func (b *builder) sift(value Node, pattern ast.Node, body Node, mutable bool) (Node, types.Type) {
	d := b.tree.Get(pattern)
	switch d.Kind {
	case ast.KindIdent:
		kind := KindBinding
		if mutable {
			kind = KindMutBinding
		}
		return b.push(NodeData{Kind: kind, Type: types.Unknown, Span: d.Span, Binding: Binding{Name: d.Text, Value: value, Body: body}}), types.Unknown
	case ast.KindMut:
		return b.sift(value, d.A, body, true)
	case ast.KindEmptyParen:
		b.addType(value, types.Unit, d.Span)
		return b.discard(value, body), types.Unit
	case ast.KindParen:
		return b.sift(value, d.A, body, mutable)
	case ast.KindAscription:
		t := b.buildType(d.B)
		b.addType(value, t, d.Span)
		bound, _ := b.sift(value, d.A, body, mutable)
		return bound, t
	case ast.KindTuple:
		fields := make([]types.Field, len(d.List))
		for i := len(d.List) - 1; i >= 0; i-- {
			name := strconv.Itoa(i)
			field := b.push(NodeData{Kind: KindAccess, Type: types.Unknown, Span: b.tree.Get(d.List[i]).Span, Access: Access{Field: name, Expr: value}})
			var ft types.Type
			body, ft = b.sift(field, d.List[i], body, mutable)
			fields[i] = types.Field{Name: name, Type: ft}
		}
		return body, b.g.Types.Product(fields)
	case ast.KindBad:
		return body, types.Unknown
	}
	b.errorf(diag.SemaMalformed, d.Span, "%s is not a valid pattern", d.Kind)
	return body, types.Unknown
}

// discard runs value for its effects before body. Names and field reads have
// none and are dropped.
func (b *builder) discard(value, body Node) Node {
	switch b.g.Get(value).Kind {
	case KindReference, KindAccess, KindInvalid:
		return body
	}
	sp := b.g.Get(value).Span.Cover(b.g.Get(body).Span)
	return b.push(NodeData{Kind: KindChainOpen, Type: types.Unknown, Span: sp, Chain: Chain{Statements: []Node{value}, Result: body}})
}

// buildType reads a type written in expression syntax.
func (b *builder) buildType(n ast.Node) types.Type {
	d := b.tree.Get(n)
	switch d.Kind {
	case ast.KindIdent:
		switch d.Text {
		case "u32":
			return types.Uint32
		case "bool":
			return types.Bool
		}
		b.errorf(diag.SemaUnknownType, d.Span, "unknown type `%s`", d.Text)
		return types.Unknown
	case ast.KindEmptyParen:
		return types.Unit
	case ast.KindParen:
		return b.buildType(d.A)
	case ast.KindTuple:
		elems := make([]types.Type, len(d.List))
		for i, elem := range d.List {
			elems[i] = b.buildType(elem)
		}
		return b.g.Types.Tuple(elems...)
	case ast.KindReturnAscription:
		arg := b.buildType(d.A)
		ret := b.buildType(d.B)
		return b.g.Types.Function(arg, ret)
	case ast.KindBad:
		return types.Unknown
	}
	b.errorf(diag.SemaMalformed, d.Span, "expected a type, found %s", d.Kind)
	return types.Unknown
}
