package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"keb/internal/diag"
	"keb/internal/source"
)

type palette struct {
	err, warn, info, gutter, caret, bold *color.Color
}

func newPalette(on bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		bold:   mk(color.Bold),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		head := fmt.Sprintf("%s %s:", d.Severity, d.Code.ID())
		if d.Code == diag.ObsTimings {
			fmt.Fprintf(w, "%s %s\n", p.severity(d.Severity).Sprint(head), d.Message)
			continue
		}
		fmt.Fprintf(w, "%s: %s %s\n", location(fs, d.Primary, opts), p.severity(d.Severity).Sprint(head), p.bold.Sprint(d.Message))
		snippet(w, fs, d.Primary, opts, p)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.info.Sprint("note:"), location(fs, n.Span, opts), n.Msg)
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "... and %d more diagnostics\n", dropped)
	}
}

func location(fs *source.FileSet, sp source.Span, opts PrettyOpts) string {
	f := fs.Get(sp.File)
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, opts.PathMode, opts.BaseDir), start.Line, start.Col)
}

// snippet prints the primary line with preceding context and a caret line.
// Columns are measured in terminal cells, so wide runes keep the caret aligned.
func snippet(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, p palette) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	line := f.Line(start.Line)

	first := start.Line
	if opts.Context > 0 {
		ctx := uint32(opts.Context)
		if ctx >= first {
			first = 1
		} else {
			first -= ctx
		}
	}
	width := len(fmt.Sprint(start.Line))
	for n := first; n <= start.Line; n++ {
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", width, n), f.Line(n))
	}

	col := min(int(start.Col)-1, len(line))
	endCol := len(line)
	if end.Line == start.Line {
		endCol = min(int(end.Col)-1, len(line))
	}
	endCol = max(endCol, col)
	pad := runewidth.StringWidth(line[:col])
	span := max(runewidth.StringWidth(line[col:endCol]), 1)
	underline := "^" + strings.Repeat("~", span-1)
	fmt.Fprintf(w, " %s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), p.caret.Sprint(underline))
}
