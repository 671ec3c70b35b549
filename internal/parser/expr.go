package parser

import (
	"keb/internal/ast"
	"keb/internal/diag"
	"keb/internal/token"
)

// Precedence, loosest first:
//
//	chain        a; b; c        (only inside parentheses)
//	statement    x = value
//	tuple        a, b
//	function     pattern => body
//	ascription   expr -> type
//	application  f x            (right-nested: f g x is f (g x))
//	comparison   a == b
//	additive     a + b, a - b
//	multiplicative a * b, a / b
//	type         expr : type
//	access       expr.field
//	terminal

// parseChain parses `;`-separated statements up to a closing ')'. A single
// statement without a trailing ';' is returned as is.
func (p *Parser) parseChain() ast.Node {
	first := p.parseStatement()
	if !p.at(token.Semicolon) {
		return first
	}
	chain := p.node(ast.KindChain, p.span(first))
	chain.List = []ast.Node{first}
	for {
		semi, ok := p.eat(token.Semicolon)
		if !ok {
			break
		}
		chain.Span = chain.Span.Cover(semi.Span)
		if p.at(token.RParen) || p.at(token.EOF) {
			chain.Closed = true
			break
		}
		next := p.parseStatement()
		chain.List = append(chain.List, next)
		chain.Span = chain.Span.Cover(p.span(next))
	}
	return p.tree.Push(chain)
}

func (p *Parser) parseStatement() ast.Node {
	target := p.parseTuple()
	if _, ok := p.eat(token.Assign); !ok {
		return target
	}
	return p.assign(target, p.parseTuple())
}

// parseArm reads an if arm or a loop body: a function-level expression or an
// assignment to it. Tuples need parentheses here, so `if c then a else b, d`
// stays a tuple of the if and d.
func (p *Parser) parseArm() ast.Node {
	target := p.parseFunction()
	if _, ok := p.eat(token.Assign); !ok {
		return target
	}
	return p.assign(target, p.parseFunction())
}

func (p *Parser) assign(target, value ast.Node) ast.Node {
	n := p.node(ast.KindAssign, p.span(target).Cover(p.span(value)))
	n.A, n.B = target, value
	return p.tree.Push(n)
}

func (p *Parser) parseTuple() ast.Node {
	first := p.parseFunction()
	if !p.at(token.Comma) {
		return first
	}
	tuple := p.node(ast.KindTuple, p.span(first))
	tuple.List = []ast.Node{first}
	for {
		comma, ok := p.eat(token.Comma)
		if !ok {
			break
		}
		tuple.Span = tuple.Span.Cover(comma.Span)
		if p.at(token.RParen) {
			break
		}
		elem := p.parseFunction()
		tuple.List = append(tuple.List, elem)
		tuple.Span = tuple.Span.Cover(p.span(elem))
	}
	return p.tree.Push(tuple)
}

func (p *Parser) parseFunction() ast.Node {
	pattern := p.parseReturnAscription()
	if _, ok := p.eat(token.FatArrow); !ok {
		return pattern
	}
	body := p.parseFunction()
	n := p.node(ast.KindFunction, p.span(pattern).Cover(p.span(body)))
	n.A, n.B = pattern, body
	return p.tree.Push(n)
}

func (p *Parser) parseReturnAscription() ast.Node {
	expr := p.parseApplication()
	if _, ok := p.eat(token.Arrow); !ok {
		return expr
	}
	ty := p.parseReturnAscription()
	n := p.node(ast.KindReturnAscription, p.span(expr).Cover(p.span(ty)))
	n.A, n.B = expr, ty
	return p.tree.Push(n)
}

func (p *Parser) parseApplication() ast.Node {
	callee := p.parseComparison()
	if !startsArgument(p.peek().Kind) {
		return callee
	}
	arg := p.parseApplication()
	n := p.node(ast.KindApplication, p.span(callee).Cover(p.span(arg)))
	n.A, n.B = callee, arg
	return p.tree.Push(n)
}

func startsArgument(k token.Kind) bool {
	switch k {
	case token.Ident, token.Number, token.KwTrue, token.KwFalse, token.LParen, token.KwIf, token.KwLoop:
		return true
	}
	return false
}

func (p *Parser) binary(next func() ast.Node, ops map[token.Kind]ast.Op) ast.Node {
	lhs := next()
	for {
		op, ok := ops[p.peek().Kind]
		if !ok {
			return lhs
		}
		p.advance()
		rhs := next()
		n := p.node(ast.KindBinary, p.span(lhs).Cover(p.span(rhs)))
		n.Op, n.A, n.B = op, lhs, rhs
		lhs = p.tree.Push(n)
	}
}

var (
	comparisonOps     = map[token.Kind]ast.Op{token.EqEq: ast.OpEq}
	additiveOps       = map[token.Kind]ast.Op{token.Plus: ast.OpAdd, token.Minus: ast.OpSub}
	multiplicativeOps = map[token.Kind]ast.Op{token.Star: ast.OpMul, token.Slash: ast.OpDiv}
)

func (p *Parser) parseComparison() ast.Node {
	return p.binary(p.parseAdditive, comparisonOps)
}

func (p *Parser) parseAdditive() ast.Node {
	return p.binary(p.parseMultiplicative, additiveOps)
}

func (p *Parser) parseMultiplicative() ast.Node {
	return p.binary(p.parseAscription, multiplicativeOps)
}

func (p *Parser) parseAscription() ast.Node {
	expr := p.parseAccess()
	if _, ok := p.eat(token.Colon); !ok {
		return expr
	}
	ty := p.parseAscription()
	n := p.node(ast.KindAscription, p.span(expr).Cover(p.span(ty)))
	n.A, n.B = expr, ty
	return p.tree.Push(n)
}

func (p *Parser) parseAccess() ast.Node {
	expr := p.parseTerminal()
	for p.at(token.Dot) {
		p.advance()
		key := p.peek()
		if key.Kind != token.Ident && key.Kind != token.Number {
			p.errorf(diag.SynExpectFieldName, key.Span, "expected field name or index after '.', found %s", describe(key))
			return expr
		}
		p.advance()
		n := p.node(ast.KindAccess, p.span(expr).Cover(key.Span))
		n.A, n.Text = expr, key.Text
		expr = p.tree.Push(n)
	}
	return expr
}

func (p *Parser) parseTerminal() ast.Node {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident, token.Number:
		p.advance()
		kind := ast.KindIdent
		if tok.Kind == token.Number {
			kind = ast.KindNumber
		}
		n := p.node(kind, tok.Span)
		n.Text = tok.Text
		return p.tree.Push(n)
	case token.KwTrue:
		p.advance()
		return p.tree.Push(p.node(ast.KindTrue, tok.Span))
	case token.KwFalse:
		p.advance()
		return p.tree.Push(p.node(ast.KindFalse, tok.Span))
	case token.KwLet:
		return p.parseLet()
	case token.KwMut:
		p.advance()
		inner := p.parseAscription()
		n := p.node(ast.KindMut, tok.Span.Cover(p.span(inner)))
		n.A = inner
		return p.tree.Push(n)
	case token.KwIf:
		return p.parseIf()
	case token.KwLoop:
		p.advance()
		body := p.parseArm()
		n := p.node(ast.KindLoop, tok.Span.Cover(p.span(body)))
		n.A = body
		return p.tree.Push(n)
	case token.LParen:
		return p.parseParen()
	}
	return p.bad(diag.SynExpectExpression, "expression")
}

// parseLet reads `let pattern = value`. The rest of an enclosing chain becomes
// the binding's scope later, when the semantic graph is built.
func (p *Parser) parseLet() ast.Node {
	kw := p.advance()
	pattern := p.parseTuple()
	n := p.node(ast.KindLet, kw.Span.Cover(p.span(pattern)))
	n.A = pattern
	if _, ok := p.eat(token.Assign); !ok {
		p.errorf(diag.SynExpectEquals, p.peek().Span, "expected '=' after let pattern, found %s", describe(p.peek()))
		n.B = p.tree.Push(p.node(ast.KindBad, p.peek().Span))
		return p.tree.Push(n)
	}
	n.B = p.parseTuple()
	n.Span = n.Span.Cover(p.span(n.B))
	return p.tree.Push(n)
}

func (p *Parser) parseIf() ast.Node {
	kw := p.advance()
	cond := p.parseReturnAscription()
	if _, ok := p.eat(token.KwThen); !ok {
		p.errorf(diag.SynExpectThen, p.peek().Span, "expected 'then' after if condition, found %s", describe(p.peek()))
	}
	then := p.parseArm()
	n := p.node(ast.KindIf, kw.Span.Cover(p.span(then)))
	n.A, n.B = cond, then
	if _, ok := p.eat(token.KwElse); ok {
		n.Kind = ast.KindIfElse
		n.C = p.parseArm()
		n.Span = n.Span.Cover(p.span(n.C))
	}
	return p.tree.Push(n)
}

func (p *Parser) parseParen() ast.Node {
	open := p.advance()
	if closing, ok := p.eat(token.RParen); ok {
		return p.tree.Push(p.node(ast.KindEmptyParen, open.Span.Cover(closing.Span)))
	}
	inner := p.parseChain()
	n := p.node(ast.KindParen, open.Span.Cover(p.span(inner)))
	n.A = inner
	closing, ok := p.eat(token.RParen)
	if !ok {
		p.errorf(diag.SynUnclosedParen, p.peek().Span, "expected ')', found %s", describe(p.peek()))
		return p.tree.Push(n)
	}
	n.Span = n.Span.Cover(closing.Span)
	return p.tree.Push(n)
}
