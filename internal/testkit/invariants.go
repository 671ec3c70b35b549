package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"keb/internal/ast"
	"keb/internal/source"
)

// CheckSpanInvariants walks the tree from its root and checks that every
// reachable node span belongs to sf, is not inverted and stays within the
// file content.
func CheckSpanInvariants(tree *ast.Tree, sf *source.File) error {
	if tree == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	if tree.Root == ast.NoNode {
		return fmt.Errorf("tree has no root")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	seen := make(map[ast.Node]bool, tree.Len())
	stack := []ast.Node{tree.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true

		d := tree.Get(n)
		sp := d.Span
		if sp.File != sf.ID {
			return fmt.Errorf("%s node %d points to file %d, want %d", d.Kind, n.Raw(), sp.File, sf.ID)
		}
		if sp.Start > sp.End {
			return fmt.Errorf("%s node %d has inverted span %v", d.Kind, n.Raw(), sp)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s node %d ends beyond content: %d > %d", d.Kind, n.Raw(), sp.End, lenContent)
		}
		for _, c := range []ast.Node{d.A, d.B, d.C} {
			if c != ast.NoNode {
				stack = append(stack, c)
			}
		}
		stack = append(stack, d.List...)
	}
	return nil
}
