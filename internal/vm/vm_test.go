package vm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"keb/internal/diag"
	"keb/internal/parser"
	"keb/internal/sem"
	"keb/internal/source"
	"keb/internal/ssa"
	"keb/internal/types"
	"keb/internal/vm"
)

func compile(t *testing.T, src string) *ssa.Module {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.keb", []byte(src))
	bag := diag.NewBag(50)
	r := diag.BagReporter{Bag: bag}
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: r})
	g := sem.Build(tree, types.New(), r)
	sem.Infer(g, sem.DefaultBuiltins(g.Types), r)
	if bag.HasErrors() {
		t.Fatalf("front-end diagnostics: %+v", bag.Items())
	}
	m := ssa.Lower(g, r)
	if bag.Len() != 0 {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ssa.Validate(m); err != nil {
		t.Fatalf("invalid module: %v", err)
	}
	return m
}

func run(t *testing.T, src string, opts vm.Options) (string, error) {
	t.Helper()
	var out strings.Builder
	opts.Stdout = &out
	err := vm.Run(context.Background(), compile(t, src), opts)
	return out.String(), err
}

func TestRunPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"add", "let add = (a: u32, b: u32) => a + b; let main = () => print add(8, 4);", "12\n"},
		{"if", "let main = () => (let a = false; let x = if a then 8 else 3 + 8; print x);", "11\n"},
		{"fact", "let fact = (x: u32) => if x then x * (fact (x - 1)) else 1; let main = () => print (fact 8);", "40320\n"},
		{"tuple", "let main = () => (let t = (1, 2, 3); print t.0; print t.1; print t.2);", "1\n2\n3\n"},
		{"assigned in branch", "let main = () => (let mut a = 1; if true then a = 2; print a);", "2\n"},
		{"branch not taken", "let main = () => (let mut a = 1; if false then a = 2; print a);", "1\n"},
		{"assigned in both arms", "let main = () => (let mut a = 1; let b = if a == 1 then (a = 5; 7) else (a = 6; 8); print a; print b);", "5\n7\n"},
		{"assigned in else", "let main = () => (let mut a = 1; if a == 2 then a = 5 else a = 6; print a);", "6\n"},
		{"discarded value runs", "let main = () => (let () = print 3; print 4);", "3\n4\n"},
		{"wrapping", "let main = () => print (0 - 1);", "4294967295\n"},
		{"equality", "let main = () => (print (3 == 3); print (3 == 4));", "1\n0\n"},
		{"precedence", "let main = () => print (2 + 3 * 4 - 6 / 2);", "11\n"},
		{"destructure", "let swap = (a: u32, b: u32) => (b, a); let main = () => (let (x, y) = swap (1, 2); print x; print y);", "2\n1\n"},
		{"bool result", "let flip = (c: bool) => if c then false else true; let main = () => print (if flip false then 1 else 0);", "1\n"},
		{"nested branches", "let main = () => print ((if true then 1 else 2) + (if false then 3 else 4));", "5\n"},
		{"forward call", "let main = () => print (twice 4); let twice = (x: u32) => x + x;", "8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src, vm.Options{})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoopStopsAtStepLimit(t *testing.T) {
	got, err := run(t, "let main = () => (let mut i = 0; loop (i = i + 1; print i));", vm.Options{MaxSteps: 500})
	var vmErr *vm.Error
	if !errors.As(err, &vmErr) || vmErr.Code != vm.ErrStepLimit {
		t.Fatalf("err = %v, want step limit", err)
	}
	if !strings.HasPrefix(got, "1\n2\n3\n") {
		t.Fatalf("output = %q", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, "let main = () => print (1 / 0);", vm.Options{})
	var vmErr *vm.Error
	if !errors.As(err, &vmErr) || vmErr.Code != vm.ErrDivisionByZero {
		t.Fatalf("err = %v, want division by zero", err)
	}
	if want := []string{sem.BuiltinDiv, "main"}; strings.Join(vmErr.Backtrace, ",") != strings.Join(want, ",") {
		t.Fatalf("backtrace = %v, want %v", vmErr.Backtrace, want)
	}
	if !strings.Contains(vmErr.WithBacktrace(), "0: builtin_div") {
		t.Fatalf("rendered:\n%s", vmErr.WithBacktrace())
	}
}

func TestCallByName(t *testing.T) {
	m := compile(t, "let fact = (x: u32) => if x then x * (fact (x - 1)) else 1;")
	got, err := vm.New(m, vm.Options{}).Call(context.Background(), "fact", vm.U32(5))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != vm.VKU32 || got.U32 != 120 {
		t.Fatalf("fact 5 = %s", got)
	}
}

func TestMissingEntry(t *testing.T) {
	_, err := run(t, "let helper = (x: u32) => x;", vm.Options{})
	var vmErr *vm.Error
	if !errors.As(err, &vmErr) || vmErr.Code != vm.ErrNoEntry {
		t.Fatalf("err = %v, want missing entry", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out strings.Builder
	err := vm.Run(ctx, compile(t, "let main = () => loop print 1;"), vm.Options{Stdout: &out})
	var vmErr *vm.Error
	if !errors.As(err, &vmErr) || vmErr.Code != vm.ErrCanceled {
		t.Fatalf("err = %v, want canceled", err)
	}
}

func TestCallDepth(t *testing.T) {
	_, err := run(t, "let down = (x: u32) -> u32 => down (x + 1); let main = () => print (down 0);", vm.Options{MaxDepth: 64})
	var vmErr *vm.Error
	if !errors.As(err, &vmErr) || vmErr.Code != vm.ErrCallDepth {
		t.Fatalf("err = %v, want call depth", err)
	}
}

func TestTrace(t *testing.T) {
	var trace strings.Builder
	if _, err := run(t, "let main = () => print 7;", vm.Options{Trace: &trace}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(trace.String(), "[depth=1]") || !strings.Contains(trace.String(), "call") {
		t.Fatalf("trace:\n%s", trace.String())
	}
}
