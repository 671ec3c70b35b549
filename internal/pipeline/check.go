package pipeline

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"keb/internal/diag"
	"keb/internal/driver"
)

// Request configures CheckFiles.
type Request struct {
	Options  driver.Options
	Jobs     int // 0 means GOMAXPROCS
	Progress ProgressSink
}

// FileResult is the outcome for one input file. Err is set when the file
// could not be compiled at all; source errors live in Result.Bag.
type FileResult struct {
	Path   string
	Result *driver.Result
	Err    error
}

// Failed reports whether the file has errors of any kind.
func (r FileResult) Failed() bool {
	return r.Err != nil || r.Result == nil || r.Result.Failed()
}

// CheckFiles compiles independent files concurrently. Every file gets its own
// FileSet and arenas. Results come back in input order. The returned error is
// only set when ctx is canceled.
func CheckFiles(ctx context.Context, files []string, req Request) ([]FileResult, error) {
	sink := req.Progress
	if sink == nil {
		sink = NopSink{}
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Status: StatusQueued})
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = checkOne(gctx, file, req.Options, sink)
			if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
				return results[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func checkOne(ctx context.Context, file string, opts driver.Options, sink ProgressSink) FileResult {
	prev := opts.Observer
	opts.Observer = func(ev driver.PhaseEvent) {
		if ev.Status == driver.PhaseStart {
			sink.OnEvent(Event{File: file, Stage: Stage(ev.Name), Status: StatusWorking})
		}
		if prev != nil {
			prev(ev)
		}
	}
	start := time.Now()
	res, err := driver.CompileFile(ctx, file, opts)
	out := FileResult{Path: file, Result: res, Err: err}
	final := Event{File: file, Status: StatusDone, Err: err, Elapsed: time.Since(start)}
	if out.Failed() {
		final.Status = StatusError
	}
	if res != nil {
		for _, d := range res.Bag.Items() {
			if d.Severity >= diag.SevError {
				final.Errors++
			}
		}
	}
	sink.OnEvent(final)
	return out
}
