package ssa

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// DumpOptions configures Dump.
type DumpOptions struct {
	Color bool
}

var (
	blockColor = color.New(color.FgCyan, color.Bold)
	opColor    = color.New(color.FgYellow)
)

// Dump writes m in text form: constants as $N, blocks as @N, instructions as
// %N and the argument of the enclosing block as `arg`.
func Dump(w io.Writer, m *Module, opts DumpOptions) error {
	p := &printer{m: m, paint: func(c *color.Color, s string) string { return s }}
	if opts.Color {
		p.paint = func(c *color.Color, s string) string {
			c.EnableColor()
			return c.Sprint(s)
		}
	}
	ts := m.Types
	for i := range m.NumConsts() {
		c := Const(uint32(i)) // #nosec G115 -- bounded by the const arena
		fmt.Fprintf(&p.sb, "$%d = %s : %s\n", i, p.constValue(c), ts.Format(m.ConstType(c)))
	}
	for b, d := range m.Blocks() {
		if p.sb.Len() > 0 {
			p.sb.WriteByte('\n')
		}
		switch d.Kind {
		case BlockExtern:
			fmt.Fprintf(&p.sb, "%s %s(%s) -> %s\n", p.paint(blockColor, fmt.Sprintf("extern @%d", b.Raw())), d.Name, ts.Format(d.Arg), ts.Format(d.Ret))
			continue
		case BlockFunction:
			fmt.Fprintf(&p.sb, "%s %s(%s) -> %s\n", p.paint(blockColor, fmt.Sprintf("fn @%d", b.Raw())), d.Name, ts.Format(d.Arg), ts.Format(d.Ret))
		default:
			fmt.Fprintf(&p.sb, "%s(%s) in @%d\n", p.paint(blockColor, fmt.Sprintf("block @%d", b.Raw())), ts.Format(d.Arg), d.Func.Raw())
		}
		for _, i := range d.Insts {
			p.inst(i)
		}
	}
	_, err := io.WriteString(w, p.sb.String())
	return err
}

type printer struct {
	m     *Module
	sb    strings.Builder
	paint func(*color.Color, string) string
}

func (p *printer) constValue(c Const) string {
	switch c {
	case ConstUnit:
		return "unit"
	case ConstFalse:
		return "false"
	case ConstTrue:
		return "true"
	}
	d, _ := p.m.Const(c)
	if d.Kind == ConstKindUint32 {
		return fmt.Sprint(d.Value)
	}
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = p.expr(ConstExpr(f))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *printer) expr(e Expr) string {
	switch e.Kind {
	case ExprConst:
		if e.Const.IsSentinel() {
			return p.constValue(e.Const)
		}
		return fmt.Sprintf("$%d", e.Const.Raw())
	case ExprInst:
		return fmt.Sprintf("%%%d", e.Inst.Raw())
	case ExprBlockArg:
		return "arg"
	}
	return "?"
}

func (p *printer) exprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = p.expr(e)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) inst(i Inst) {
	d := p.m.Inst(i)
	op := p.paint(opColor, d.Op.String())
	ty := p.m.Types.Format(d.Type)
	switch d.Op {
	case OpField:
		fmt.Fprintf(&p.sb, "  %%%d = %s %s.%d : %s\n", i.Raw(), op, p.expr(d.Args[0]), d.Index, ty)
	case OpCall:
		fmt.Fprintf(&p.sb, "  %%%d = %s @%d(%s) : %s\n", i.Raw(), op, d.Callee.Raw(), p.expr(d.Args[0]), ty)
	case OpJump:
		fmt.Fprintf(&p.sb, "  %s @%d(%s)\n", op, d.Target.Raw(), p.expr(d.Args[0]))
	case OpJumpCondition:
		fmt.Fprintf(&p.sb, "  %s %s, @%d(%s), @%d(%s)\n", op, p.expr(d.Args[0]),
			d.Target.Raw(), p.expr(d.Args[1]), d.Else.Raw(), p.expr(d.Args[2]))
	case OpReturn:
		fmt.Fprintf(&p.sb, "  %s %s\n", op, p.expr(d.Args[0]))
	default:
		fmt.Fprintf(&p.sb, "  %%%d = %s %s : %s\n", i.Raw(), op, p.exprs(d.Args), ty)
	}
}
