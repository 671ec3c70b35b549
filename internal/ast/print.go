package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the tree as an indented outline.
func Dump(w io.Writer, t *Tree) error {
	var sb strings.Builder
	if t.Root != NoNode {
		dumpNode(&sb, t, t.Root, 0)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Sexpr renders n compactly, for tests and debugging.
func Sexpr(t *Tree, n Node) string {
	var sb strings.Builder
	sexpr(&sb, t, n)
	return sb.String()
}

func dumpNode(sb *strings.Builder, t *Tree, n Node, depth int) {
	d := t.Get(n)
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(d.Kind.String())
	switch d.Kind {
	case KindIdent, KindNumber, KindAccess:
		fmt.Fprintf(sb, " %s", d.Text)
	case KindBinary:
		fmt.Fprintf(sb, " %s", d.Op)
	case KindChain:
		if d.Closed {
			sb.WriteString(" closed")
		}
	}
	fmt.Fprintf(sb, " @%d..%d\n", d.Span.Start, d.Span.End)
	for _, child := range children(d) {
		dumpNode(sb, t, child, depth+1)
	}
}

func children(d *NodeData) []Node {
	if d.List != nil {
		return d.List
	}
	var out []Node
	for _, c := range []Node{d.A, d.B, d.C} {
		if c != NoNode {
			out = append(out, c)
		}
	}
	return out
}

func sexpr(sb *strings.Builder, t *Tree, n Node) {
	if n == NoNode {
		sb.WriteString("_")
		return
	}
	d := t.Get(n)
	switch d.Kind {
	case KindIdent, KindNumber:
		sb.WriteString(d.Text)
		return
	case KindTrue:
		sb.WriteString("true")
		return
	case KindFalse:
		sb.WriteString("false")
		return
	case KindEmptyParen:
		sb.WriteString("()")
		return
	}
	sb.WriteByte('(')
	switch d.Kind {
	case KindBinary:
		sb.WriteString(d.Op.String())
	case KindAccess:
		sb.WriteString("." + d.Text)
	case KindChain:
		if d.Closed {
			sb.WriteString("chain;")
		} else {
			sb.WriteString("chain")
		}
	default:
		sb.WriteString(strings.ToLower(d.Kind.String()))
	}
	for _, child := range children(d) {
		sb.WriteByte(' ')
		sexpr(sb, t, child)
	}
	sb.WriteByte(')')
}
