package testkit_test

import (
	"testing"

	"keb/internal/diag"
	"keb/internal/parser"
	"keb/internal/source"
	"keb/internal/testkit"
)

func TestSpanInvariantsHold(t *testing.T) {
	inputs := []string{
		"",
		"let main = () => print 1;",
		"let f = (a: u32, b) -> u32 => if a == b then a else (let mut c = a; c = c * 2; c);",
		"let broken = (1, ;; let = ",
		"(# unterminated",
	}
	for _, src := range inputs {
		fs := source.NewFileSet()
		id := fs.AddVirtual("t.keb", []byte(src))
		tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(32)}})
		if err := testkit.CheckSpanInvariants(tree, fs.Get(id)); err != nil {
			t.Errorf("%q: %v", src, err)
		}
	}
}

func TestSpanInvariantsRejectNil(t *testing.T) {
	if err := testkit.CheckSpanInvariants(nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
