package types

import (
	"fmt"
	"strconv"

	"keb/internal/arena"
)

// Types is the append-only type table. Stored types are immutable; refining
// a type always pushes a new entry.
type Types struct {
	data *arena.Arena[Primitive, Data]
}

func New() *Types {
	return &Types{data: arena.New[Primitive, Data](64)}
}

// Len reports how many stored types exist.
func (ts *Types) Len() int { return ts.data.Len() }

// Lookup returns the stored data for t. Primitive types report false.
func (ts *Types) Lookup(t Type) (*Data, bool) {
	got := ts.data.Get(t)
	switch got.Kind {
	case arena.Stored:
		return got.Value, true
	case arena.SentinelValue:
		return nil, false
	default:
		panic(fmt.Errorf("types: dangling type handle %#x", t.Raw()))
	}
}

// Function pushes a new function type.
func (ts *Types) Function(arg, ret Type) Type {
	return ts.data.Push(Data{Kind: KindFunction, Arg: arg, Ret: ret})
}

// Product pushes a new product type. The fields slice is copied.
func (ts *Types) Product(fields []Field) Type {
	return ts.data.Push(Data{Kind: KindProduct, Fields: append([]Field(nil), fields...)})
}

// Tuple pushes a product whose fields are named "0", "1", ...
func (ts *Types) Tuple(elems ...Type) Type {
	fields := make([]Field, len(elems))
	for i, t := range elems {
		fields[i] = Field{Name: strconv.Itoa(i), Type: t}
	}
	return ts.Product(fields)
}

// Signature returns the argument and return types of a function type.
func (ts *Types) Signature(t Type) (arg, ret Type, ok bool) {
	d, stored := ts.Lookup(t)
	if !stored || d.Kind != KindFunction {
		return Unknown, Unknown, false
	}
	return d.Arg, d.Ret, true
}

// Fields returns the fields of a product type.
func (ts *Types) Fields(t Type) ([]Field, bool) {
	d, stored := ts.Lookup(t)
	if !stored || d.Kind != KindProduct {
		return nil, false
	}
	return d.Fields, true
}

// FieldIndex finds a field of a product type by name.
func (ts *Types) FieldIndex(t Type, name string) (int, Type, bool) {
	fields, ok := ts.Fields(t)
	if !ok {
		return -1, Unknown, false
	}
	for i, f := range fields {
		if f.Name == name {
			return i, f.Type, true
		}
	}
	return -1, Unknown, false
}

// IsUnit reports whether t is the unit sentinel or an empty product.
func (ts *Types) IsUnit(t Type) bool {
	if t == Unit {
		return true
	}
	fields, ok := ts.Fields(t)
	return ok && len(fields) == 0
}

// IsBoolean reports whether t is Bool or one of its literal singletons.
func IsBoolean(t Type) bool {
	return t == Bool || t == True || t == False
}
