// Package vm interprets SSA modules.
package vm

import (
	"fmt"
	"strings"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	VKInvalid ValueKind = iota
	// VKUnit is the only value of the unit type.
	VKUnit
	VKU32
	VKBool
	// VKRecord is a product value; Fields holds its components in order.
	VKRecord
)

func (k ValueKind) String() string {
	switch k {
	case VKUnit:
		return "unit"
	case VKU32:
		return "u32"
	case VKBool:
		return "bool"
	case VKRecord:
		return "record"
	default:
		return "invalid"
	}
}

// Value is a runtime value. Records are immutable once built, so Fields may
// be shared between values.
type Value struct {
	Kind   ValueKind
	U32    uint32
	Bool   bool
	Fields []Value
}

func Unit() Value { return Value{Kind: VKUnit} }

func U32(v uint32) Value { return Value{Kind: VKU32, U32: v} }

func Bool(v bool) Value { return Value{Kind: VKBool, Bool: v} }

func Record(fields ...Value) Value { return Value{Kind: VKRecord, Fields: fields} }

func (v Value) String() string {
	switch v.Kind {
	case VKUnit:
		return "()"
	case VKU32:
		return fmt.Sprint(v.U32)
	case VKBool:
		return fmt.Sprint(v.Bool)
	case VKRecord:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "<invalid>"
}
