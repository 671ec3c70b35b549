package types

import (
	"fmt"
)

// MismatchError reports two types that can not be merged.
type MismatchError struct {
	Lhs, Rhs Type
	// Text is the rendered form, filled by Combine so callers need not keep
	// the table around to print the error.
	Text string
}

func (e *MismatchError) Error() string {
	return e.Text
}

// Combine merges two partial descriptions of the same value:
//
//   - Unknown yields the other operand;
//   - equal primitives yield themselves;
//   - True and False widen to Bool, with each other or with Bool;
//   - Unit and an empty product are the same type;
//   - two functions combine argument and return pointwise into a new function;
//   - two products yield the left operand unchanged.
//
// Anything else is a *MismatchError.
func (ts *Types) Combine(lhs, rhs Type) (Type, error) {
	if lhs == Unknown {
		return rhs, nil
	}
	if rhs == Unknown {
		return lhs, nil
	}
	if lhs == rhs && lhs.IsSentinel() {
		return lhs, nil
	}
	if IsBoolean(lhs) && IsBoolean(rhs) {
		return Bool, nil
	}
	if ts.IsUnit(lhs) && ts.IsUnit(rhs) {
		return Unit, nil
	}

	ld, lok := ts.Lookup(lhs)
	rd, rok := ts.Lookup(rhs)
	if lok && rok && ld.Kind == rd.Kind {
		switch ld.Kind {
		case KindFunction:
			// Read both before pushing: Push may move the backing slice.
			la, lr, ra, rr := ld.Arg, ld.Ret, rd.Arg, rd.Ret
			arg, err := ts.Combine(la, ra)
			if err != nil {
				return Unknown, err
			}
			ret, err := ts.Combine(lr, rr)
			if err != nil {
				return Unknown, err
			}
			return ts.Function(arg, ret), nil
		case KindProduct:
			// TODO: merge field types once products carry inference holes
			// (e.g. a tuple of an unknown and a u32 meeting a full tuple).
			return lhs, nil
		}
	}
	return Unknown, &MismatchError{
		Lhs:  lhs,
		Rhs:  rhs,
		Text: fmt.Sprintf("cannot combine %s with %s", ts.Format(lhs), ts.Format(rhs)),
	}
}

// Equals is structural equality. Product field names are ignored, order is not.
func (ts *Types) Equals(lhs, rhs Type) bool {
	if lhs.IsSentinel() || rhs.IsSentinel() {
		return lhs == rhs
	}
	if lhs == rhs {
		return true
	}
	ld, _ := ts.Lookup(lhs)
	rd, _ := ts.Lookup(rhs)
	if ld.Kind != rd.Kind {
		return false
	}
	switch ld.Kind {
	case KindFunction:
		return ts.Equals(ld.Arg, rd.Arg) && ts.Equals(ld.Ret, rd.Ret)
	case KindProduct:
		if len(ld.Fields) != len(rd.Fields) {
			return false
		}
		for i := range ld.Fields {
			if !ts.Equals(ld.Fields[i].Type, rd.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}
