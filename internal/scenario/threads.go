package scenario

import (
	"context"
	"fmt"
	"io"
	"time"

	"strada/rt"
)

func init() {
	register("threads", "worker threads sharing a mutex-guarded counter", runThreads)
}

const (
	threadWorkers = 4
	threadRounds  = 250
)

func runThreads(ctx context.Context, w io.Writer) error {
	mu := rt.NewMutex()
	total := rt.AnonHash()
	defer rt.Decref(total)
	rt.DerefHash(total).SetTake("n", rt.NewInt(0))
	lock := rt.NewPointer(mu)
	defer rt.Decref(lock)

	worker := rt.NewClosure(func(captures []*rt.Value, _ ...*rt.Value) *rt.Value {
		m, _ := rt.PointerAs[*rt.Mutex](captures[1])
		h := rt.DerefHash(captures[0])
		for range threadRounds {
			m.Lock()
			h.SetTake("n", rt.NewInt(rt.ToInt(h.Get("n"))+1))
			m.Unlock()
		}
		// A throw inside a thread is caught by that thread's own try frame.
		exc := rt.Try(func() { rt.Die("worker done") })
		rt.ClearException()
		defer rt.Decref(exc)
		return rt.NewStr(rt.ToStr(exc))
	}, 0, total, lock)
	defer rt.Decref(worker)

	threads := make([]*rt.Thread, 0, threadWorkers)
	for range threadWorkers {
		th, err := rt.NewThread(worker)
		if err != nil {
			return err
		}
		threads = append(threads, th)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	results, err := rt.JoinAll(ctx, threads...)
	defer func() {
		for _, r := range results {
			rt.Decref(r)
		}
	}()
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}

	for i, r := range results {
		fmt.Fprintf(w, "thread %d: %s\n", i+1, rt.ToStr(r))
	}
	n := rt.ToInt(rt.DerefHash(total).Get("n"))
	fmt.Fprintf(w, "total: %d\n", n)
	if err := check(n == threadWorkers*threadRounds, "total = %d, want %d", n, threadWorkers*threadRounds); err != nil {
		return err
	}
	pending := rt.GetException()
	defer rt.Decref(pending)
	if err := check(rt.ToStr(pending) == "", "worker exception leaked into the caller: %s", rt.ToStr(pending)); err != nil {
		return err
	}
	again := threads[0].Join()
	defer rt.Decref(again)
	return check(!rt.Defined(again), "second join returned %s", rt.ToStr(again))
}
