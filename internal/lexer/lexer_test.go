package lexer_test

import (
	"testing"

	"keb/internal/diag"
	"keb/internal/lexer"
	"keb/internal/source"
	"keb/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.keb", []byte(src))
	bag := diag.NewBag(20)
	toks := lexer.All(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "function",
			src:  "let add = (a: u32) -> u32 => a + 1;",
			want: []token.Kind{
				token.KwLet, token.Ident, token.Assign, token.LParen, token.Ident, token.Colon, token.Ident,
				token.RParen, token.Arrow, token.Ident, token.FatArrow, token.Ident, token.Plus, token.Number,
				token.Semicolon, token.EOF,
			},
		},
		{
			name: "operators",
			src:  "a == b - c * d / e",
			want: []token.Kind{
				token.Ident, token.EqEq, token.Ident, token.Minus, token.Ident, token.Star, token.Ident,
				token.Slash, token.Ident, token.EOF,
			},
		},
		{
			name: "keywords",
			src:  "if true then loop x else mut false",
			want: []token.Kind{
				token.KwIf, token.KwTrue, token.KwThen, token.KwLoop, token.Ident, token.KwElse, token.KwMut,
				token.KwFalse, token.EOF,
			},
		},
		{
			name: "comments",
			src:  "a # line comment\n(# block\ncomment #) b.0",
			want: []token.Kind{token.Ident, token.Ident, token.Dot, token.Number, token.EOF},
		},
		{
			name: "unicode identifier",
			src:  "let café = 1",
			want: []token.Kind{token.KwLet, token.Ident, token.Assign, token.Number, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lex(t, tt.src)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d = %v, want %v (all: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestLexerSpans(t *testing.T) {
	toks, _ := lex(t, "let xy = 12")
	if toks[1].Text != "xy" || toks[1].Span.Start != 4 || toks[1].Span.End != 6 {
		t.Fatalf("ident token = %+v", toks[1])
	}
	if toks[3].Text != "12" {
		t.Fatalf("number token = %+v", toks[3])
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unknown char", "a @ b", diag.LexUnknownChar},
		{"unterminated comment", "a (# never closed", diag.LexUnterminatedBlockComment},
		{"bad number", "12ab", diag.LexBadNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lex(t, tt.src)
			if bag.Len() != 1 || bag.Items()[0].Code != tt.code {
				t.Fatalf("diagnostics = %+v, want one %s", bag.Items(), tt.code.ID())
			}
			if toks[len(toks)-1].Kind != token.EOF {
				t.Fatalf("lexing did not reach EOF")
			}
		})
	}
}
