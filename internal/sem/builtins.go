package sem

import "keb/internal/types"

const (
	BuiltinPrint = "print"
	BuiltinAdd   = "builtin_add"
	BuiltinSub   = "builtin_sub"
	BuiltinMul   = "builtin_mul"
	BuiltinDiv   = "builtin_div"
	BuiltinEq    = "builtin_eq"
)

// Builtins maps the names visible in every module to their types.
type Builtins map[string]types.Type

// DefaultBuiltins returns print and the operator functions.
func DefaultBuiltins(ts *types.Types) Builtins {
	pair := ts.Tuple(types.Uint32, types.Uint32)
	binary := ts.Function(pair, types.Uint32)
	return Builtins{
		BuiltinPrint: ts.Function(types.Uint32, types.Unit),
		BuiltinAdd:   binary,
		BuiltinSub:   binary,
		BuiltinMul:   binary,
		BuiltinDiv:   binary,
		BuiltinEq:    binary,
	}
}
