package vm

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the kind of runtime failure.
type ErrorCode int

// Stable error codes - do not change values.
const (
	ErrDivisionByZero    ErrorCode = 1001 // VM1001: division by zero
	ErrStepLimit         ErrorCode = 1002 // VM1002: step limit exhausted
	ErrCallDepth         ErrorCode = 1003 // VM1003: call stack too deep
	ErrNoEntry           ErrorCode = 1004 // VM1004: entry function missing
	ErrUnsupportedExtern ErrorCode = 1005 // VM1005: extern without implementation
	ErrTypeMismatch      ErrorCode = 1006 // VM1006: operand of unexpected kind
	ErrCanceled          ErrorCode = 1007 // VM1007: context canceled
	ErrMalformed         ErrorCode = 1999 // VM1999: block without terminator
)

// String returns the code as "VM1001".
func (c ErrorCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// Error is a runtime failure. Backtrace lists the active functions from the
// innermost outwards.
type Error struct {
	Code      ErrorCode
	Message   string
	Backtrace []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("panic %s: %s", e.Code, e.Message)
}

// WithBacktrace renders the error followed by its backtrace.
func (e *Error) WithBacktrace() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteByte('\n')
	if len(e.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, fn := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s\n", i, fn)
		}
	}
	return sb.String()
}
