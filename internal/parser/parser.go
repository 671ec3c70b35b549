package parser

import (
	"fmt"

	"keb/internal/ast"
	"keb/internal/diag"
	"keb/internal/lexer"
	"keb/internal/source"
	"keb/internal/token"
)

type Options struct {
	Reporter diag.Reporter
	// MaxErrors stops parsing after that many syntax errors; 0 means no limit.
	MaxErrors int
}

// Parser holds the state for one file.
type Parser struct {
	toks   []token.Token
	pos    int
	tree   *ast.Tree
	opts   Options
	errors int
}

// ParseFile lexes and parses a whole file. Lexical and syntax errors go to
// opts.Reporter; the returned tree is always usable and contains Bad nodes
// where input could not be parsed.
func ParseFile(file *source.File, opts Options) *ast.Tree {
	counting := &diag.CountingReporter{Next: opts.Reporter}
	p := &Parser{
		toks: lexer.All(file, lexer.Options{Reporter: counting}),
		tree: ast.NewTree(file.ID),
		opts: opts,
	}
	p.opts.Reporter = counting
	p.tree.Root = p.parseRoot()
	return p.tree
}

func (p *Parser) peek() token.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) enough() bool {
	return p.opts.MaxErrors > 0 && p.errors >= p.opts.MaxErrors
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errors++
	if p.opts.Reporter != nil {
		diag.ReportErrorf(p.opts.Reporter, code, sp, format, args...).Emit()
	}
}

func (p *Parser) node(kind ast.Kind, sp source.Span) ast.NodeData {
	return ast.NodeData{Kind: kind, Span: sp, A: ast.NoNode, B: ast.NoNode, C: ast.NoNode}
}

func (p *Parser) span(n ast.Node) source.Span { return p.tree.Get(n).Span }

// bad produces an error node at the current token and consumes it unless it
// closes an enclosing construct.
func (p *Parser) bad(code diag.Code, what string) ast.Node {
	tok := p.peek()
	p.errorf(code, tok.Span, "expected %s, found %s", what, describe(tok))
	switch tok.Kind {
	case token.EOF, token.Semicolon, token.RParen, token.Comma, token.KwThen, token.KwElse:
	default:
		p.advance()
	}
	return p.tree.Push(p.node(ast.KindBad, tok.Span))
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.Ident, token.Number:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	}
	return tok.Kind.String()
}

// parseRoot reads `;`-separated top-level items until EOF. An item with a
// syntax error is skipped up to the next top-level `;`.
func (p *Parser) parseRoot() ast.Node {
	start := p.peek().Span
	root := p.node(ast.KindRoot, start)
	for !p.at(token.EOF) && !p.enough() {
		before := p.errors
		item := p.parseStatement()
		root.List = append(root.List, item)
		if p.errors > before {
			p.resync()
			continue
		}
		if _, ok := p.eat(token.Semicolon); ok {
			continue
		}
		if !p.at(token.EOF) {
			p.errorf(diag.SynExpectSemicolon, p.peek().Span, "expected ';' after top-level item, found %s", describe(p.peek()))
			p.resync()
		}
	}
	root.Span = start.Cover(p.peek().Span)
	return p.tree.Push(root)
}

func (p *Parser) resync() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.LParen:
			depth++
		case token.RParen:
			if depth > 0 {
				depth--
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}
