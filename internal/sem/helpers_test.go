package sem_test

import (
	"testing"

	"keb/internal/diag"
	"keb/internal/parser"
	"keb/internal/sem"
	"keb/internal/source"
	"keb/internal/types"
)

// build parses and builds src, failing on syntax errors.
func build(t *testing.T, src string) (*sem.Graph, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.keb", []byte(src))
	bag := diag.NewBag(50)
	r := diag.BagReporter{Bag: bag}
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: r})
	if bag.HasErrors() {
		t.Fatalf("syntax errors: %+v", bag.Items())
	}
	return sem.Build(tree, types.New(), r), bag
}

// analyze builds and infers src.
func analyze(t *testing.T, src string) (*sem.Graph, *diag.Bag) {
	t.Helper()
	g, bag := build(t, src)
	sem.Infer(g, sem.DefaultBuiltins(g.Types), diag.BagReporter{Bag: bag})
	return g, bag
}

func binding(t *testing.T, g *sem.Graph, name string) sem.Node {
	t.Helper()
	for _, b := range g.Bindings() {
		if b.Name == name {
			return b.Value
		}
	}
	t.Fatalf("no top-level binding %q", name)
	return sem.NoNode
}

func typeOf(t *testing.T, g *sem.Graph, name string) string {
	t.Helper()
	return g.Types.Format(g.Type(binding(t, g, name)))
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func expectClean(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}
