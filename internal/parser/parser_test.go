package parser_test

import (
	"testing"

	"keb/internal/ast"
	"keb/internal/diag"
	"keb/internal/parser"
	"keb/internal/source"
)

func parse(t *testing.T, src string) (*ast.Tree, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.keb", []byte(src))
	bag := diag.NewBag(50)
	tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return tree, bag
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "application nests to the right",
			src:  "let main = () => print add(8, 4);",
			want: "(let main (function () (application print (application add (paren (tuple 8 4))))))",
		},
		{
			name: "arithmetic precedence",
			src:  "let x = a + b * c - d",
			want: "(let x (- (+ a (* b c)) d))",
		},
		{
			name: "comparison below arithmetic",
			src:  "let x = a + 1 == b",
			want: "(let x (== (+ a 1) b))",
		},
		{
			name: "application below arithmetic",
			src:  "let x = fact x - 1",
			want: "(let x (application fact (- x 1)))",
		},
		{
			name: "typed parameters and return type",
			src:  "let add = (a: u32, b: u32) -> u32 => a + b",
			want: "(let add (function (returnascription (paren (tuple (ascription a u32) (ascription b u32))) u32) (+ a b)))",
		},
		{
			name: "if else",
			src:  "let fact = (x: u32) => if x then x * (fact (x - 1)) else 1",
			want: "(let fact (function (paren (ascription x u32)) (ifelse x (* x (paren (application fact (paren (- x 1))))) 1)))",
		},
		{
			name: "closed chain",
			src:  "let main = () => (let a = false; print a;)",
			want: "(let main (function () (paren (chain; (let a false) (application print a)))))",
		},
		{
			name: "open chain",
			src:  "let main = () => (let mut x = 1; x = x + 1; x)",
			want: "(let main (function () (paren (chain (let (mut x) 1) (assign x (+ x 1)) x))))",
		},
		{
			name: "access chain",
			src:  "let y = t.0.name",
			want: "(let y (.name (.0 t)))",
		},
		{
			name: "loop and one-armed if",
			src:  "let main = () => loop if c then print 1",
			want: "(let main (function () (loop (if c (application print 1)))))",
		},
		{
			name: "assignment in both arms",
			src:  "let main = () => if c then x = 1 else x = 2",
			want: "(let main (function () (ifelse c (assign x 1) (assign x 2))))",
		},
		{
			name: "assignment as loop body",
			src:  "let main = () => loop i = i + 1",
			want: "(let main (function () (loop (assign i (+ i 1)))))",
		},
		{
			name: "else arm ends at comma",
			src:  "let t = (if c then 1 else 2, 3)",
			want: "(let t (paren (tuple (ifelse c 1 2) 3)))",
		},
		{
			name: "trailing comma",
			src:  "let t = (1,)",
			want: "(let t (paren (tuple 1)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, bag := parse(t, tt.src)
			if bag.Len() != 0 {
				t.Fatalf("diagnostics: %+v", bag.Items())
			}
			root := tree.Get(tree.Root)
			if len(root.List) != 1 {
				t.Fatalf("root has %d items", len(root.List))
			}
			if got := ast.Sexpr(tree, root.List[0]); got != tt.want {
				t.Fatalf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestParseRootItems(t *testing.T) {
	tree, bag := parse(t, "let a = 1;\nlet b = 2;\nlet c = 3")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if n := len(tree.Get(tree.Root).List); n != 3 {
		t.Fatalf("items = %d, want 3", n)
	}
}

func TestParseRecovers(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  diag.Code
		items int
	}{
		{"missing expression", "let a = ;\nlet b = 2;", diag.SynExpectExpression, 2},
		{"missing equals", "let a 1;\nlet b = 2;", diag.SynExpectEquals, 2},
		{"unclosed paren", "let a = (1 + 2;\nlet b = 2;", diag.SynUnclosedParen, 1},
		{"missing then", "let a = if x 1 else 2;\nlet b = 2;", diag.SynExpectThen, 2},
		{"missing semicolon", "let a = 1 let b = 2;", diag.SynExpectSemicolon, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, bag := parse(t, tt.src)
			if bag.Len() == 0 || bag.Items()[0].Code != tt.code {
				t.Fatalf("diagnostics = %+v, want first %s", bag.Items(), tt.code.ID())
			}
			if n := len(tree.Get(tree.Root).List); n != tt.items {
				t.Fatalf("items = %d, want %d", n, tt.items)
			}
		})
	}
}
