package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"strada/internal/observ"
	"strada/internal/trace"
	"strada/rt"
)

// Request describes a scenario run.
type Request struct {
	Scenarios []Scenario
	// Jobs bounds how many scenarios run at once. With one job each
	// scenario gets its own leak check; otherwise the whole run is checked.
	Jobs     int
	Progress Sink
	// Timer, when set, records one phase per scenario.
	Timer *observ.Timer
}

// Result is the outcome of one scenario.
type Result struct {
	Name    string
	Output  string
	Err     error
	Elapsed time.Duration
	Live    int64
}

// Run executes the requested scenarios and returns their results in request
// order. The error joins every scenario failure.
func Run(ctx context.Context, req *Request) ([]Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing scenario request")
	}
	jobs := max(req.Jobs, 1)
	solo := jobs == 1
	results := make([]Result, len(req.Scenarios))
	for _, s := range req.Scenarios {
		emit(req.Progress, Event{Scenario: s.Name, Status: StatusQueued})
	}

	before := rt.LiveValues()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, s := range req.Scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: s.Name, Err: err}
				emit(req.Progress, Event{Scenario: s.Name, Status: StatusFailed, Err: err})
				return nil
			}
			emit(req.Progress, Event{Scenario: s.Name, Status: StatusRunning})
			run := func() error {
				results[i] = runOne(gctx, s, solo)
				return results[i].Err
			}
			if req.Timer != nil {
				_ = req.Timer.Measure(s.Name, run)
			} else {
				_ = run()
			}
			r := results[i]
			status := StatusDone
			if r.Err != nil {
				status = StatusFailed
			}
			emit(req.Progress, Event{Scenario: s.Name, Status: status, Err: r.Err, Elapsed: r.Elapsed, Live: r.Live})
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	if !solo && len(errs) == 0 {
		if delta := rt.LiveValues() - before; delta != 0 {
			errs = append(errs, fmt.Errorf("scenarios leaked %d values", delta))
		}
	}
	return results, errors.Join(errs...)
}

func runOne(ctx context.Context, s Scenario, solo bool) (res Result) {
	var buf bytes.Buffer
	before := rt.LiveValues()
	start := time.Now()
	res.Name = s.Name
	span := trace.BeginContext(ctx, trace.ScopeRuntime, "scenario:"+s.Name)
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*rt.Error)
			if !ok {
				panic(r)
			}
			res.Err = fault
		}
		res.Output = buf.String()
		res.Elapsed = time.Since(start)
		if solo {
			res.Live = rt.LiveValues() - before
			if res.Err == nil && res.Live != 0 {
				res.Err = fmt.Errorf("leaked %d values", res.Live)
			}
		}
		detail := "ok"
		if res.Err != nil {
			detail = res.Err.Error()
		}
		span.End(detail)
	}()

	var runErr error
	thrown := rt.Catch(func() {
		runErr = s.Run(ctx, &buf)
	})
	if thrown != nil {
		var exc *rt.Exception
		if errors.As(thrown, &exc) {
			res.Err = fmt.Errorf("uncaught exception: %s", exc.Error())
			exc.Release()
		}
		return res
	}
	res.Err = runErr
	return res
}
