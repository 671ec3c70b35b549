package vm

import (
	"fmt"
	"io"

	"keb/internal/ssa"
)

// Tracer writes one line per executed instruction.
// Format: [depth=N] @<block>:ip<ip> %<inst> <op>
type Tracer struct {
	w io.Writer
	m *ssa.Module
}

func NewTracer(w io.Writer, m *ssa.Module) *Tracer {
	return &Tracer{w: w, m: m}
}

func (t *Tracer) Inst(depth int, b ssa.Block, ip int, i ssa.Inst) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] @%d:ip%d %%%d %s\n", depth, b.Raw(), ip, i.Raw(), t.m.Inst(i).Op)
}
