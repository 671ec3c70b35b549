package token

import "fmt"

// Kind is the category of a token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	Number

	KwLet
	KwMut
	KwLoop
	KwIf
	KwThen
	KwElse
	KwTrue
	KwFalse

	FatArrow // =>
	Arrow    // ->
	Assign   // =
	EqEq     // ==
	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Comma    // ,
	Semicolon
	Colon
	Dot
	LParen
	RParen
	LBrace
	RBrace
)

var kindNames = [...]string{
	Invalid:   "invalid",
	EOF:       "end of file",
	Ident:     "identifier",
	Number:    "number",
	KwLet:     "'let'",
	KwMut:     "'mut'",
	KwLoop:    "'loop'",
	KwIf:      "'if'",
	KwThen:    "'then'",
	KwElse:    "'else'",
	KwTrue:    "'true'",
	KwFalse:   "'false'",
	FatArrow:  "'=>'",
	Arrow:     "'->'",
	Assign:    "'='",
	EqEq:      "'=='",
	Plus:      "'+'",
	Minus:     "'-'",
	Star:      "'*'",
	Slash:     "'/'",
	Comma:     "','",
	Semicolon: "';'",
	Colon:     "':'",
	Dot:       "'.'",
	LParen:    "'('",
	RParen:    "')'",
	LBrace:    "'{'",
	RBrace:    "'}'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}
