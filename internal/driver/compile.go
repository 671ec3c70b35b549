package driver

import (
	"context"
	"fmt"
	"time"

	"keb/internal/ast"
	"keb/internal/diag"
	"keb/internal/observ"
	"keb/internal/parser"
	"keb/internal/sem"
	"keb/internal/source"
	"keb/internal/ssa"
	"keb/internal/trace"
	"keb/internal/types"
)

// Options controls a single compilation.
type Options struct {
	StopAfter      Stage
	MaxDiagnostics int
	EnableTimings  bool
	Observer       PhaseObserver
}

// Result holds everything the pipeline produced. Fields of stages that did
// not run stay nil.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	Bag     *diag.Bag
	Tree    *ast.Tree
	Types   *types.Types
	Graph   *sem.Graph
	Module  *ssa.Module
	Timer   *observ.Timer
}

// Failed reports whether any diagnostic is an error.
func (r *Result) Failed() bool { return r.Bag.HasErrors() }

const defaultMaxDiagnostics = 100

// CompileFile loads path and compiles it.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Compile(ctx, fs, id, opts)
}

// Compile runs parse, build, infer, lower and validate over one file. Source
// errors end up in Result.Bag; later stages are skipped once an error is
// reported. The returned error is non-nil only for cancellation or when the
// produced SSA module is malformed.
func Compile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	if opts.StopAfter == "" {
		opts.StopAfter = StageSSA
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = defaultMaxDiagnostics
	}
	res := &Result{
		FileSet: fs,
		File:    fs.Get(id),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	if opts.EnableTimings {
		res.Timer = observ.NewTimer()
	}
	r := &diag.BagReporter{Bag: res.Bag}

	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx))
	defer root.End(res.File.Path)
	p := &phases{res: res, opts: opts, tracer: tracer, parent: root.ID()}

	// stop reports whether the pipeline ends before stage next.
	stop := func(next Stage) bool {
		return !opts.StopAfter.Reaches(next) || res.Failed()
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	p.run("parse", func() string {
		res.Tree = parser.ParseFile(res.File, parser.Options{Reporter: r})
		return fmt.Sprintf("nodes=%d", res.Tree.Len())
	})
	if stop(StageSem) {
		return p.finish(), nil
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Types = types.New()
	p.run("build", func() string {
		res.Graph = sem.Build(res.Tree, res.Types, r)
		return fmt.Sprintf("bindings=%d", len(res.Graph.Bindings()))
	})
	if stop(StageInfer) {
		return p.finish(), nil
	}

	p.run("infer", func() string {
		sem.Infer(res.Graph, sem.DefaultBuiltins(res.Types), r)
		return fmt.Sprintf("types=%d", res.Types.Len())
	})
	if stop(StageSSA) {
		return p.finish(), nil
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	p.run("lower", func() string {
		res.Module = ssa.Lower(res.Graph, r)
		return fmt.Sprintf("blocks=%d insts=%d", res.Module.NumBlocks(), res.Module.NumInsts())
	})
	if res.Failed() {
		res.Module = nil
		return p.finish(), nil
	}

	var verr error
	p.run("validate", func() string {
		verr = ssa.Validate(res.Module)
		return ""
	})
	if verr != nil {
		return p.finish(), fmt.Errorf("internal error: invalid SSA for %s: %w", res.File.Path, verr)
	}
	return p.finish(), nil
}

// phases wraps each pass with a trace span, a timer phase and observer
// notifications.
type phases struct {
	res    *Result
	opts   Options
	tracer trace.Tracer
	parent uint64
}

func (p *phases) run(name string, fn func() string) {
	span := trace.Begin(p.tracer, trace.ScopePass, name, p.parent)
	idx := -1
	if p.res.Timer != nil {
		idx = p.res.Timer.Begin(name)
	}
	if p.opts.Observer != nil {
		p.opts.Observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	note := fn()
	if idx >= 0 {
		p.res.Timer.End(idx, note)
	}
	elapsed := span.End(note)
	if p.opts.Observer != nil {
		p.opts.Observer(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: elapsed})
	}
}

func (p *phases) finish() *Result {
	if p.res.Timer != nil {
		report := p.res.Timer.Report()
		appendTimingDiagnostic(p.res.Bag, timingPayload{
			Path:    p.res.File.Path,
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
	return p.res
}

// Measure lets callers outside the pipeline (run, build) record
// extra phases on the same timer.
func (r *Result) Measure(name string, fn func() string) time.Duration {
	start := time.Now()
	idx := -1
	if r.Timer != nil {
		idx = r.Timer.Begin(name)
	}
	note := fn()
	if idx >= 0 {
		r.Timer.End(idx, note)
	}
	return time.Since(start)
}
