package sem_test

import (
	"strings"
	"testing"

	"keb/internal/diag"
	"keb/internal/sem"
	"keb/internal/types"
)

func TestInferSignatures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]string
	}{
		{
			name: "add",
			src:  "let add = (a: u32, b: u32) => a + b; let main = () => print (add (8, 4));",
			want: map[string]string{"add": "(u32, u32) -> u32", "main": "() -> ()"},
		},
		{
			name: "fact",
			src:  "let fact = (x: u32) => if x then x * (fact (x - 1)) else 1;",
			want: map[string]string{"fact": "u32 -> u32"},
		},
		{
			name: "forward reference",
			src:  "let main = () => print (twice 2); let twice = (x: u32) => x + x;",
			want: map[string]string{"main": "() -> ()", "twice": "u32 -> u32"},
		},
		{
			name: "tuple access",
			src:  "let t = (1, 2, 3); let a = t.0; let c = t.2;",
			want: map[string]string{"t": "(u32, u32, u32)", "a": "u32", "c": "u32"},
		},
		{
			name: "boolean join",
			src:  "let c = true; let b = if c then true else false;",
			want: map[string]string{"c": "true", "b": "bool"},
		},
		{
			name: "mutable widening",
			src:  "let f = () => (let mut a = false; a = true; a);",
			want: map[string]string{"f": "() -> bool"},
		},
		{
			name: "one-armed if",
			src:  "let f = g => if true then g 1;",
			want: map[string]string{"f": "? -> ()"},
		},
		{
			name: "loop",
			src:  "let f = (x: u32) => loop print x;",
			want: map[string]string{"f": "u32 -> ()"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, bag := analyze(t, tt.src)
			expectClean(t, bag)
			for name, want := range tt.want {
				if got := typeOf(t, g, name); got != want {
					t.Errorf("%s : %s, want %s", name, got, want)
				}
			}
		})
	}
}

func TestInferModuleType(t *testing.T) {
	g, bag := analyze(t, "let add = (a: u32, b: u32) => a + b; let main = () => print (add (8, 4));")
	expectClean(t, bag)
	want := "{add: (u32, u32) -> u32, main: () -> ()}"
	if got := g.Types.Format(g.Type(g.Root)); got != want {
		t.Fatalf("module : %s, want %s", got, want)
	}
}

func TestInferPatternFields(t *testing.T) {
	g, bag := analyze(t, "let f = (a: u32, b: bool) => a;")
	expectClean(t, bag)
	fn := g.Get(binding(t, g, "f"))
	outer := g.Get(fn.Function.Body)
	if got := g.Type(outer.Binding.Value); got != types.Uint32 {
		t.Fatalf("a : %s", g.Types.Format(got))
	}
	inner := g.Get(outer.Binding.Body)
	if got := g.Type(inner.Binding.Value); got != types.Bool {
		t.Fatalf("b : %s", g.Types.Format(got))
	}
}

func TestInferDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"unresolved", "let y = z;", diag.SemaUnresolvedName},
		{"not callable", "let x = 5; let y = x 1;", diag.SemaNotCallable},
		{"missing field", "let t = (1, 2); let y = t.5;", diag.SemaFieldNotFound},
		{"field of scalar", "let n = 5; let y = n.0;", diag.SemaFieldNotFound},
		{"argument", "let main = () => print true;", diag.SemaTypeMismatch},
		{"immutable", "let f = () => (let y = 1; y = 2);", diag.SemaAssignImmutable},
		{"assignment type", "let f = () => (let mut y = 1; y = true);", diag.SemaTypeMismatch},
		{"condition", "let f = (x: u32) => if (x, x) then print x;", diag.SemaBadCondition},
		{"branch not unit", "let f = (x: u32) => if x then 5;", diag.SemaTypeMismatch},
		{"branches differ", "let b = if true then 1 else false;", diag.SemaTypeMismatch},
		{"return type", "let f = (x: u32) -> bool => x;", diag.SemaTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := analyze(t, tt.src)
			got := codes(bag)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("diagnostics = %v, want [%s]", bag.Items(), tt.want.ID())
			}
		})
	}
}

func TestInferKeepsGoingAfterErrors(t *testing.T) {
	g, bag := analyze(t, "let a = z; let b = print true; let c = (x: u32) => x;")
	if bag.Len() != 2 {
		t.Fatalf("diagnostics = %v, want 2", bag.Items())
	}
	if got := typeOf(t, g, "c"); got != "u32 -> u32" {
		t.Fatalf("c : %s", got)
	}
}

func TestDumpMentionsTypes(t *testing.T) {
	g, _ := analyze(t, "let id = (x: u32) => x;")
	var sb strings.Builder
	if err := sem.Dump(&sb, g); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"id: Function __param : u32 -> u32", "Reference __param : u32"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
