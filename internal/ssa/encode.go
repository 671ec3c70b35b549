package ssa

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"keb/internal/types"
)

// Current artifact schema; increment when Artifact changes.
const artifactSchema uint16 = 1

// Artifact is the serialized form of a module handed to the backend. Handles
// are raw arena indices; types are listed in creation order so that
// replaying them reproduces the same handles.
type Artifact struct {
	Schema uint16
	Types  []ArtifactType
	Consts []ConstData
	Blocks []BlockData
	Insts  []InstData
}

type ArtifactType struct {
	Kind   types.Kind
	Arg    types.Type
	Ret    types.Type
	Fields []types.Field
}

// Encode writes m as a msgpack artifact.
func Encode(w io.Writer, m *Module) error {
	a := Artifact{Schema: artifactSchema}
	for i := range m.Types.Len() {
		d, _ := m.Types.Lookup(types.Type(uint32(i))) // #nosec G115 -- bounded by the type table
		a.Types = append(a.Types, ArtifactType{Kind: d.Kind, Arg: d.Arg, Ret: d.Ret, Fields: d.Fields})
	}
	for _, d := range m.consts.All() {
		a.Consts = append(a.Consts, *d)
	}
	for _, d := range m.blocks.All() {
		a.Blocks = append(a.Blocks, *d)
	}
	for _, d := range m.insts.All() {
		a.Insts = append(a.Insts, *d)
	}
	return msgpack.NewEncoder(w).Encode(&a)
}

// Decode reads an artifact written by Encode into a fresh module with its own
// type table.
func Decode(r io.Reader) (*Module, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode ssa artifact: %w", err)
	}
	if a.Schema != artifactSchema {
		return nil, fmt.Errorf("ssa artifact schema %d, want %d", a.Schema, artifactSchema)
	}

	ts := types.New()
	for i, t := range a.Types {
		var got types.Type
		switch t.Kind {
		case types.KindFunction:
			got = ts.Function(t.Arg, t.Ret)
		case types.KindProduct:
			got = ts.Product(t.Fields)
		default:
			return nil, fmt.Errorf("ssa artifact: type %d has kind %s", i, t.Kind)
		}
		if int(got.Raw()) != i {
			return nil, fmt.Errorf("ssa artifact: type %d replayed as %d", i, got.Raw())
		}
	}

	m := NewModule(ts)
	for _, c := range a.Consts {
		m.PushConst(c)
	}
	for n, b := range a.Blocks {
		for _, i := range b.Insts {
			if int(i.Raw()) >= len(a.Insts) {
				return nil, fmt.Errorf("ssa artifact: block %d lists missing instruction %d", n, i.Raw())
			}
		}
		m.PushBlock(b)
	}
	for _, i := range a.Insts {
		m.insts.Push(i)
	}
	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("ssa artifact: %w", err)
	}
	return m, nil
}
