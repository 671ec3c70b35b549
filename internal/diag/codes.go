package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// лексер
	LexUnknownChar              Code = 1001
	LexUnterminatedBlockComment Code = 1002
	LexBadNumber                Code = 1003

	// парсер
	SynUnexpectedToken  Code = 2001
	SynExpectExpression Code = 2002
	SynExpectEquals     Code = 2003
	SynExpectThen       Code = 2004
	SynUnclosedParen    Code = 2005
	SynExpectFieldName  Code = 2006
	SynExpectSemicolon  Code = 2007

	// построение и вывод типов
	SemaTypeMismatch     Code = 3001
	SemaNotCallable      Code = 3002
	SemaFieldNotFound    Code = 3003
	SemaMalformed        Code = 3004
	SemaUnresolvedName   Code = 3005
	SemaAssignImmutable  Code = 3006
	SemaBadCondition     Code = 3007
	SemaUnknownType      Code = 3008
	SemaNumberOverflow   Code = 3009
	SemaDuplicateBinding Code = 3010

	// понижение в SSA
	LowerUnresolvedType Code = 4001
	LowerUnsupported    Code = 4002

	IOLoadFileError Code = 5001
	ObsTimings      Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectExpression:         "Expected expression",
	SynExpectEquals:             "Expected '=' after let pattern",
	SynExpectThen:               "Expected 'then' after if condition",
	SynUnclosedParen:            "Unclosed parenthesis",
	SynExpectFieldName:          "Expected field name after '.'",
	SynExpectSemicolon:          "Expected ';' between top-level bindings",
	SemaTypeMismatch:            "Type mismatch",
	SemaNotCallable:             "Value is not callable",
	SemaFieldNotFound:           "Field not found",
	SemaMalformed:               "Malformed construct",
	SemaUnresolvedName:          "Unresolved name",
	SemaAssignImmutable:         "Assignment to immutable binding",
	SemaBadCondition:            "Invalid condition type",
	SemaUnknownType:             "Unknown type name",
	SemaNumberOverflow:          "Number literal out of range",
	SemaDuplicateBinding:        "Duplicate top-level binding",
	LowerUnresolvedType:         "Type could not be inferred",
	LowerUnsupported:            "Construct not supported by code generation",
	IOLoadFileError:             "I/O load file error",
	ObsTimings:                  "Pipeline timings",
}

// ID returns the stable identifier printed next to diagnostics.
func (c Code) ID() string {
	return fmt.Sprintf("KEB%04d", uint16(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
