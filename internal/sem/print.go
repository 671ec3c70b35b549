package sem

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the graph as an indented tree annotated with types.
func Dump(w io.Writer, g *Graph) error {
	p := &printer{g: g}
	if g.Root != NoNode {
		p.node(g.Root, 0, "")
	}
	_, err := io.WriteString(w, p.sb.String())
	return err
}

type printer struct {
	g  *Graph
	sb strings.Builder
}

func (p *printer) line(depth int, label, format string, args ...any) {
	p.sb.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		p.sb.WriteString(label)
		p.sb.WriteString(": ")
	}
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) node(n Node, depth int, label string) {
	d := p.g.Get(n)
	ty := p.g.Types.Format(d.Type)
	switch d.Kind {
	case KindModule:
		p.line(depth, label, "Module : %s", ty)
		for _, b := range d.Module.Bindings {
			p.node(b.Value, depth+1, b.Name)
		}
	case KindNumber:
		p.line(depth, label, "Number %d : %s", d.Number, ty)
	case KindTrue, KindFalse, KindInvalid:
		p.line(depth, label, "%s : %s", d.Kind, ty)
	case KindFunction:
		p.line(depth, label, "Function %s : %s", d.Function.Argument, ty)
		p.node(d.Function.Body, depth+1, "body")
	case KindBinding, KindMutBinding:
		p.line(depth, label, "%s %s : %s", d.Kind, d.Binding.Name, ty)
		p.node(d.Binding.Value, depth+1, "value")
		p.node(d.Binding.Body, depth+1, "body")
	case KindAssignment:
		p.line(depth, label, "Assignment %s : %s", d.Assignment.Name, ty)
		p.node(d.Assignment.Value, depth+1, "value")
	case KindReference:
		p.line(depth, label, "Reference %s : %s", d.Reference.Name, ty)
	case KindAccess:
		p.line(depth, label, "Access .%s : %s", d.Access.Field, ty)
		p.node(d.Access.Expr, depth+1, "")
	case KindApplication:
		p.line(depth, label, "Application : %s", ty)
		p.node(d.Application.Function, depth+1, "function")
		p.node(d.Application.Argument, depth+1, "argument")
	case KindLoop:
		p.line(depth, label, "Loop : %s", ty)
		p.node(d.Loop.Body, depth+1, "")
	case KindIf, KindIfElse:
		p.line(depth, label, "%s : %s", d.Kind, ty)
		p.node(d.If.Condition, depth+1, "condition")
		p.node(d.If.Then, depth+1, "then")
		if d.If.Else != NoNode {
			p.node(d.If.Else, depth+1, "else")
		}
	case KindBuildStruct:
		p.line(depth, label, "BuildStruct : %s", ty)
		for _, f := range d.Struct.Fields {
			p.node(f.Value, depth+1, f.Name)
		}
	case KindChainOpen, KindChainClosed:
		p.line(depth, label, "%s : %s", d.Kind, ty)
		for _, s := range d.Chain.Statements {
			p.node(s, depth+1, "")
		}
		if d.Chain.Result != NoNode {
			p.node(d.Chain.Result, depth+1, "result")
		}
	}
}
