package lexer

import (
	"unicode"
	"unicode/utf8"

	"keb/internal/diag"
	"keb/internal/source"
	"keb/internal/token"
)

// Options configures a Lexer.
type Options struct {
	// Reporter receives lexical errors. May be nil; lexing continues either way.
	Reporter diag.Reporter
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// Next returns the next significant token. After the end it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	for {
		lx.skipTrivia()
		if lx.cursor.EOF() {
			return token.Token{Kind: token.EOF, Span: lx.cursor.SpanFrom(lx.cursor.Mark())}
		}
		ch := lx.cursor.Peek()
		switch {
		case isDigit(ch):
			return lx.scanNumber()
		case ch == '_' || isASCIILetter(ch) || ch >= utf8.RuneSelf:
			if tok, ok := lx.scanIdent(); ok {
				return tok
			}
		default:
			if tok, ok := lx.scanPunct(); ok {
				return tok
			}
		}
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All lexes the whole file, including the trailing EOF token.
func All(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}

// skipTrivia drops whitespace, `#` line comments and `(# ... #)` block comments.
func (lx *Lexer) skipTrivia() {
	c := &lx.cursor
	for !c.EOF() {
		switch ch := c.Peek(); {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			c.Bump()
		case ch == '#':
			for !c.EOF() && c.Peek() != '\n' {
				c.Bump()
			}
		case ch == '(' && c.PeekAt(1) == '#':
			start := c.Mark()
			c.Bump()
			c.Bump()
			closed := false
			for !c.EOF() {
				if c.Peek() == '#' && c.PeekAt(1) == ')' {
					c.Bump()
					c.Bump()
					closed = true
					break
				}
				c.Bump()
			}
			if !closed {
				lx.report(diag.LexUnterminatedBlockComment, c.SpanFrom(start), "block comment is never closed with '#)'")
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scanNumber() token.Token {
	c := &lx.cursor
	start := c.Mark()
	for isDigit(c.Peek()) {
		c.Bump()
	}
	if c.Peek() == '_' || isASCIILetter(c.Peek()) {
		for c.Peek() == '_' || isASCIILetter(c.Peek()) || isDigit(c.Peek()) {
			c.Bump()
		}
		sp := c.SpanFrom(start)
		lx.report(diag.LexBadNumber, sp, "number literals contain decimal digits only")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.file.Text(sp)}
	}
	sp := c.SpanFrom(start)
	return token.Token{Kind: token.Number, Span: sp, Text: lx.file.Text(sp)}
}

// scanIdent reads a Unicode identifier. A non-letter rune is reported and
// skipped, in which case ok is false.
func (lx *Lexer) scanIdent() (token.Token, bool) {
	c := &lx.cursor
	start := c.Mark()
	first := true
	for !c.EOF() {
		r, size := utf8.DecodeRune(c.File.Content[c.Off:])
		if r == '_' || unicode.IsLetter(r) || (!first && unicode.IsDigit(r)) {
			c.Off += uint32(size) // #nosec G115 -- size <= utf8.UTFMax
			first = false
			continue
		}
		if first {
			c.Off += uint32(size) // #nosec G115 -- size <= utf8.UTFMax
			sp := c.SpanFrom(start)
			lx.report(diag.LexUnknownChar, sp, "unknown character "+quoteRune(r))
			return token.Token{}, false
		}
		break
	}
	sp := c.SpanFrom(start)
	text := lx.file.Text(sp)
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}, true
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}, true
}

func (lx *Lexer) scanPunct() (token.Token, bool) {
	c := &lx.cursor
	start := c.Mark()
	ch := c.Bump()
	kind := token.Invalid
	switch ch {
	case '=':
		switch {
		case c.Eat('>'):
			kind = token.FatArrow
		case c.Eat('='):
			kind = token.EqEq
		default:
			kind = token.Assign
		}
	case '-':
		kind = token.Minus
		if c.Eat('>') {
			kind = token.Arrow
		}
	case '+':
		kind = token.Plus
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semicolon
	case ':':
		kind = token.Colon
	case '.':
		kind = token.Dot
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	}
	sp := c.SpanFrom(start)
	if kind == token.Invalid {
		lx.report(diag.LexUnknownChar, sp, "unknown character "+quoteRune(rune(ch)))
		return token.Token{}, false
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.file.Text(sp)}, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func quoteRune(r rune) string {
	if r == utf8.RuneError {
		return "(invalid UTF-8)"
	}
	return "'" + string(r) + "'"
}
