package token

import "keb/internal/source"

// Token is a lexeme with its location. Comments are dropped by the lexer.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// Is reports whether the token has one of the given kinds.
func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwLet && t.Kind <= KwFalse
}

var keywords = map[string]Kind{
	"let":   KwLet,
	"mut":   KwMut,
	"loop":  KwLoop,
	"if":    KwIf,
	"then":  KwThen,
	"else":  KwElse,
	"true":  KwTrue,
	"false": KwFalse,
}

// LookupKeyword maps an identifier spelling to its keyword kind.
func LookupKeyword(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}
