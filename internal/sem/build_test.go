package sem_test

import (
	"testing"

	"keb/internal/diag"
	"keb/internal/sem"
	"keb/internal/types"
)

func TestBuildOperatorDesugars(t *testing.T) {
	g, bag := build(t, "let x = 1 + 2;")
	expectClean(t, bag)

	app := g.Get(binding(t, g, "x"))
	if app.Kind != sem.KindApplication {
		t.Fatalf("x is %s, want Application", app.Kind)
	}
	callee := g.Get(app.Application.Function)
	if callee.Kind != sem.KindReference || callee.Reference.Name != sem.BuiltinAdd {
		t.Fatalf("callee = %s %q", callee.Kind, callee.Reference.Name)
	}
	pair := g.Get(app.Application.Argument)
	if pair.Kind != sem.KindBuildStruct || len(pair.Struct.Fields) != 2 {
		t.Fatalf("argument = %s with %d fields", pair.Kind, len(pair.Struct.Fields))
	}
	for i, want := range []uint32{1, 2} {
		f := pair.Struct.Fields[i]
		if f.Name != []string{"0", "1"}[i] || g.Get(f.Value).Number != want {
			t.Fatalf("field %d = %q -> %d", i, f.Name, g.Get(f.Value).Number)
		}
	}
}

func TestBuildOperatorNames(t *testing.T) {
	tests := map[string]string{
		"a - b":  sem.BuiltinSub,
		"a * b":  sem.BuiltinMul,
		"a / b":  sem.BuiltinDiv,
		"a == b": sem.BuiltinEq,
	}
	for src, want := range tests {
		g, _ := build(t, "let x = "+src+";")
		app := g.Get(binding(t, g, "x"))
		if got := g.Get(app.Application.Function).Reference.Name; got != want {
			t.Errorf("%s desugars to %s, want %s", src, got, want)
		}
	}
}

func TestBuildTuplePattern(t *testing.T) {
	g, bag := build(t, "let f = (a: u32, b) => a;")
	expectClean(t, bag)

	fn := g.Get(binding(t, g, "f"))
	if fn.Kind != sem.KindFunction || fn.Function.Argument != sem.ParamName {
		t.Fatalf("f = %s(%s)", fn.Kind, fn.Function.Argument)
	}
	if got := g.Types.Format(fn.Type); got != "(u32, ?) -> ?" {
		t.Fatalf("f : %s", got)
	}

	outer := g.Get(fn.Function.Body)
	if outer.Kind != sem.KindBinding || outer.Binding.Name != "a" {
		t.Fatalf("outer binding = %s %q", outer.Kind, outer.Binding.Name)
	}
	first := g.Get(outer.Binding.Value)
	if first.Kind != sem.KindAccess || first.Access.Field != "0" || first.Type != types.Uint32 {
		t.Fatalf("a binds %s .%s : %s", first.Kind, first.Access.Field, g.Types.Format(first.Type))
	}
	if param := g.Get(first.Access.Expr); param.Reference.Name != sem.ParamName {
		t.Fatalf("access base = %q", param.Reference.Name)
	}
	inner := g.Get(outer.Binding.Body)
	if inner.Kind != sem.KindBinding || inner.Binding.Name != "b" {
		t.Fatalf("inner binding = %s %q", inner.Kind, inner.Binding.Name)
	}
	if body := g.Get(inner.Binding.Body); body.Kind != sem.KindReference || body.Reference.Name != "a" {
		t.Fatalf("innermost body = %s", body.Kind)
	}
}

func TestBuildFunctionSignatures(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"let f = () => 1;", "() -> ?"},
		{"let f = x => x;", "? -> ?"},
		{"let f = x: u32 => x;", "u32 -> ?"},
		{"let f = (x: u32) -> bool => x;", "u32 -> bool"},
		{"let f = (g: (u32 -> u32)) -> () => g;", "(u32 -> u32) -> ()"},
		{"let f = mut x => x;", "? -> ?"},
	}
	for _, tt := range tests {
		g, bag := build(t, tt.src)
		expectClean(t, bag)
		if got := typeOf(t, g, "f"); got != tt.want {
			t.Errorf("%s : %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestBuildChains(t *testing.T) {
	g, bag := build(t, "let main = () => (let mut a = 1; a = 2; a);")
	expectClean(t, bag)

	chain := g.Get(g.Get(binding(t, g, "main")).Function.Body)
	if chain.Kind != sem.KindChainOpen || len(chain.Chain.Statements) != 0 {
		t.Fatalf("body = %s with %d statements", chain.Kind, len(chain.Chain.Statements))
	}
	bound := g.Get(chain.Chain.Result)
	if bound.Kind != sem.KindMutBinding || bound.Binding.Name != "a" {
		t.Fatalf("result = %s %q", bound.Kind, bound.Binding.Name)
	}
	rest := g.Get(bound.Binding.Body)
	if rest.Kind != sem.KindChainOpen || len(rest.Chain.Statements) != 1 {
		t.Fatalf("let body = %s", rest.Kind)
	}
	if assign := g.Get(rest.Chain.Statements[0]); assign.Kind != sem.KindAssignment || assign.Assignment.Name != "a" {
		t.Fatalf("statement = %s", assign.Kind)
	}

	g, bag = build(t, "let main = () => (let a = 1; print a;);")
	expectClean(t, bag)
	closed := g.Get(g.Get(binding(t, g, "main")).Function.Body)
	if closed.Kind != sem.KindChainClosed || closed.Type != types.Unit {
		t.Fatalf("closed chain = %s : %s", closed.Kind, g.Types.Format(closed.Type))
	}
}

func TestBuildTrailingLet(t *testing.T) {
	g, bag := build(t, "let main = () => let a = 1;")
	expectClean(t, bag)
	body := g.Get(g.Get(binding(t, g, "main")).Function.Body)
	bound := g.Get(body.Chain.Result)
	if bound.Kind != sem.KindBinding {
		t.Fatalf("result = %s", bound.Kind)
	}
	if empty := g.Get(bound.Binding.Body); empty.Kind != sem.KindChainClosed || len(empty.Chain.Statements) != 0 {
		t.Fatalf("empty remainder = %s", empty.Kind)
	}
}

func TestBuildDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"bool ascribed u32", "let main = () => print (false: u32);", diag.SemaTypeMismatch},
		{"let ascription", "let main = () => (let x: u32 = true; x);", diag.SemaTypeMismatch},
		{"top-level expression", "1 + 2;", diag.SemaMalformed},
		{"top-level tuple pattern", "let (a, b) = (1, 2);", diag.SemaMalformed},
		{"duplicate", "let a = 1; let a = 2;", diag.SemaDuplicateBinding},
		{"unknown type", "let f = (x: str) => x;", diag.SemaUnknownType},
		{"number overflow", "let n = 4294967296;", diag.SemaNumberOverflow},
		{"assign to field", "let f = t => (t.0 = 1);", diag.SemaMalformed},
		{"unit pattern on a number", "let f = () => (let () = 5; 1);", diag.SemaTypeMismatch},
		{"literal pattern", "let f = () => (let 5 = 5; 1);", diag.SemaMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := build(t, tt.src)
			got := codes(bag)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("diagnostics = %v, want [%s]", bag.Items(), tt.want.ID())
			}
		})
	}
}

func TestBuildUnitPatternKeepsValue(t *testing.T) {
	g, bag := analyze(t, "let main = () => (let () = print 3; print 4);")
	expectClean(t, bag)
	body := g.Get(g.Get(binding(t, g, "main")).Function.Body)
	if body.Kind != sem.KindChainOpen {
		t.Fatalf("body = %s", body.Kind)
	}
	discard := g.Get(body.Chain.Result)
	if discard.Kind != sem.KindChainOpen || len(discard.Chain.Statements) != 1 {
		t.Fatalf("discarded value not kept: %s", discard.Kind)
	}
	stmt := discard.Chain.Statements[0]
	if k := g.Get(stmt).Kind; k != sem.KindApplication {
		t.Fatalf("statement = %s, want application", k)
	}
	if got := g.Types.Format(g.Type(stmt)); got != "()" {
		t.Fatalf("statement type = %s", got)
	}
}
