// Package trace provides event tracing for the Strada runtime and CLI.
//
// The runtime has no logger of its own: bless, inheritance changes, method
// dispatch, destructor runs, thrown exceptions, thread lifecycle and broken
// invariants are all reported as trace events.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	strada run --trace=- --trace-level=object counter
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer, dumped when a run fails
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only faults (broken runtime invariants)
//   - LevelObject: Runtime and object-model events (bless, inherit, DESTROY)
//   - LevelDispatch: Method calls and exceptions as well
//   - LevelDebug: Everything including individual value frees
//
// # Scopes
//
//   - ScopeRuntime: CLI phases, threads, faults
//   - ScopeObject: Package registry and object lifecycle
//   - ScopeDispatch: Method resolution and exceptions
//   - ScopeValue: Per-value events
//
// # Context Propagation
//
// The run command attaches its tracer and a root span to the context; the
// scenario runner nests a span per scenario beneath it:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	run := trace.BeginContext(ctx, trace.ScopeRuntime, "run")
//	ctx = trace.WithSpan(ctx, run)
//	span := trace.BeginContext(ctx, trace.ScopeRuntime, "scenario:counter")
//	defer span.End("ok")
//
// Runtime events do not travel through contexts: package rt emits to the
// tracer installed with rt.SetTracer.
package trace
