// Package trace records the passes the compiler runs.
//
// Enable it from the command line:
//
//	keb check --trace=- --trace-level=phase main.keb
//
// Tracers:
//
//   - Nop: used when tracing is off
//   - StreamTracer: writes every event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fans out to several tracers
//
// The level decides which scopes are emitted: LevelPhase shows the driver and
// pass boundaries, LevelDetail adds per-file events, LevelDebug everything.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", parentID)
//	defer span.End("")
package trace
