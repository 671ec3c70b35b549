package types

import (
	"strconv"
	"strings"
)

// Format renders t the way it is written in source where possible.
func (ts *Types) Format(t Type) string {
	var sb strings.Builder
	ts.write(&sb, t)
	return sb.String()
}

func (ts *Types) write(sb *strings.Builder, t Type) {
	switch t {
	case Unknown:
		sb.WriteString("?")
		return
	case Unit:
		sb.WriteString("()")
		return
	case Uint32:
		sb.WriteString("u32")
		return
	case Bool:
		sb.WriteString("bool")
		return
	case False:
		sb.WriteString("false")
		return
	case True:
		sb.WriteString("true")
		return
	}
	d, ok := ts.Lookup(t)
	if !ok {
		sb.WriteString("<sentinel " + strconv.FormatUint(uint64(t.Raw()), 16) + ">")
		return
	}
	switch d.Kind {
	case KindFunction:
		if ad, ok := ts.Lookup(d.Arg); ok && ad.Kind == KindFunction {
			sb.WriteByte('(')
			ts.write(sb, d.Arg)
			sb.WriteByte(')')
		} else {
			ts.write(sb, d.Arg)
		}
		sb.WriteString(" -> ")
		ts.write(sb, d.Ret)
	case KindProduct:
		positional := true
		for i, f := range d.Fields {
			if f.Name != strconv.Itoa(i) {
				positional = false
				break
			}
		}
		lp, rp := "(", ")"
		if !positional {
			lp, rp = "{", "}"
		}
		sb.WriteString(lp)
		for i, f := range d.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			if !positional {
				sb.WriteString(f.Name)
				sb.WriteString(": ")
			}
			ts.write(sb, f.Type)
		}
		if positional && len(d.Fields) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteString(rp)
	}
}
