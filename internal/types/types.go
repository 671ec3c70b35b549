package types

import (
	"fmt"
	"math"

	"keb/internal/arena"
)

// Primitive is the sentinel marker of the type arena. The six topmost handle
// values are the primitive types; they never occupy a slot.
type Primitive uint32

func (Primitive) Band() uint32 { return primitiveBand }

const primitiveBand = math.MaxUint32 - 5

// Type is a handle into Types. Primitive types are sentinels.
type Type = arena.Index[Primitive]

const (
	// Unknown carries no information yet and is absorbed by Combine.
	Unknown Type = primitiveBand + iota
	Unit
	Uint32
	Bool
	// False and True are the singleton types of the boolean literals.
	False
	True
)

// Kind classifies a stored type.
type Kind uint8

const (
	KindFunction Kind = iota + 1
	KindProduct
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindProduct:
		return "product"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Field is one named component of a product type.
type Field struct {
	Name string
	Type Type
}

// Data is a stored (non-primitive) type. Only the fields of its Kind are set.
type Data struct {
	Kind   Kind
	Arg    Type
	Ret    Type
	Fields []Field
}
