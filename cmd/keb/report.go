package main

import (
	"fmt"
	"io"

	"keb/internal/diag"
	"keb/internal/diagfmt"
	"keb/internal/driver"
)

type reportOptions struct {
	format    string // pretty|json
	withNotes bool
	fullPath  bool
}

func (o reportOptions) validate() error {
	switch o.format {
	case "pretty", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q (expected pretty|json)", o.format)
}

// printDiagnostics writes res.Bag in the chosen format. Timing entries are
// printed only with --timings.
func printDiagnostics(w io.Writer, res *driver.Result, ropts reportOptions, g globalOptions) error {
	bag := res.Bag
	bag.Sort()
	bag.Dedup()
	if !g.timings {
		bag = withoutTimings(bag)
	}

	pathMode := diagfmt.PathModeAuto
	if ropts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	if ropts.format == "json" {
		return diagfmt.JSON(w, bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          g.baseDir,
			IncludeNotes:     ropts.withNotes,
		})
	}
	if bag.Len() == 0 {
		return nil
	}
	diagfmt.Pretty(w, bag, res.FileSet, diagfmt.PrettyOpts{
		Color:     g.color,
		Context:   1,
		PathMode:  pathMode,
		BaseDir:   g.baseDir,
		ShowNotes: ropts.withNotes,
	})
	return nil
}

func withoutTimings(bag *diag.Bag) *diag.Bag {
	out := diag.NewBag(bag.Len())
	for _, d := range bag.Items() {
		if d.Code != diag.ObsTimings {
			out.Add(d)
		}
	}
	return out
}
