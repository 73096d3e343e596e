package main

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"strada/internal/config"
	"strada/internal/trace"
	"strada/rt"
)

// setupTracing builds the tracer described by cfg, attaches it to the
// command context and routes runtime events to it. The cleanup function
// dumps the ring buffer to stderr when failed is set, then flushes and
// closes the tracer.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(failed bool), error) {
	tcfg, err := cfg.TracerConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}

	if tcfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		rt.SetTracer(nil)
		return func(bool) {}, nil
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
	rt.SetTracer(tracer)

	var heartbeat *trace.Heartbeat
	if tcfg.Heartbeat > 0 {
		heartbeat = trace.StartHeartbeat(tracer, tcfg.Heartbeat, runtimeGauges)
	}

	cleanup := func(failed bool) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		rt.SetTracer(nil)

		if failed {
			if ring := ringOf(tracer); ring != nil && ring.Len() > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: last %d runtime events:\n", ring.Len())
				if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
				}
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}

	return cleanup, nil
}

// runtimeGauges feeds heartbeats with the live value count and goroutines.
func runtimeGauges() map[string]string {
	return map[string]string{
		"live":       strconv.FormatInt(rt.LiveValues(), 10),
		"goroutines": strconv.Itoa(runtime.NumGoroutine()),
	}
}

func ringOf(t trace.Tracer) *trace.RingTracer {
	switch t := t.(type) {
	case *trace.RingTracer:
		return t
	case *trace.MultiTracer:
		return t.Ring()
	}
	return nil
}
