package ssa

import "keb/internal/types"

// Aggregates returns one representative for every structurally distinct
// non-empty product type the module mentions. Components are listed before
// the products that contain them, so a backend can declare them in order.
func Aggregates(m *Module) []types.Type {
	c := &aggregateCollector{ts: m.Types}
	for _, d := range m.Blocks() {
		c.visit(d.Arg)
		if d.Kind != BlockInterior {
			c.visit(d.Ret)
		}
		for _, i := range d.Insts {
			c.visit(m.Inst(i).Type)
		}
	}
	for i := range m.NumConsts() {
		c.visit(m.ConstType(Const(uint32(i)))) // #nosec G115 -- bounded by the const arena
	}
	return c.out
}

type aggregateCollector struct {
	ts  *types.Types
	out []types.Type
}

func (c *aggregateCollector) visit(t types.Type) {
	d, ok := c.ts.Lookup(t)
	if !ok {
		return
	}
	switch d.Kind {
	case types.KindFunction:
		c.visit(d.Arg)
		c.visit(d.Ret)
	case types.KindProduct:
		if len(d.Fields) == 0 {
			return
		}
		for _, f := range d.Fields {
			c.visit(f.Type)
		}
		for _, seen := range c.out {
			if c.ts.Equals(seen, t) {
				return
			}
		}
		c.out = append(c.out, t)
	}
}
