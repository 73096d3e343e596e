package rt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestThreadJoinReturnsResult(t *testing.T) {
	checkLive(t, func() {
		n := NewInt(21)
		fn := NewClosure(func(captures []*Value, _ ...*Value) *Value {
			return NewInt(ToInt(captures[0]) * 2)
		}, 0, n)
		Decref(n)

		th, err := NewThread(fn)
		if err != nil {
			t.Fatal(err)
		}
		Decref(fn)
		res := th.Join()
		if ToInt(res) != 42 {
			t.Fatalf("result = %d", ToInt(res))
		}
		Decref(res)

		again := th.Join()
		if Defined(again) {
			t.Fatal("second join should be undef")
		}
		Decref(again)
	})
}

func TestThreadDetach(t *testing.T) {
	checkLive(t, func() {
		release := make(chan struct{})
		fn := NewFunc(func(...*Value) *Value {
			<-release
			return NewStr("discarded")
		})
		th, err := NewThread(fn)
		if err != nil {
			t.Fatal(err)
		}
		Decref(fn)
		th.Detach()
		close(release)
		<-th.Done()
		// run releases the result after signalling done
		deadline := time.Now().Add(2 * time.Second)
		for Refcount(fn) != 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		res := th.Join()
		if Defined(res) {
			t.Fatal("join of detached thread should be undef")
		}
		Decref(res)
	})
}

func TestThreadDetachAfterFinish(t *testing.T) {
	checkLive(t, func() {
		fn := NewFunc(func(...*Value) *Value { return NewInt(1) })
		th, _ := NewThread(fn)
		Decref(fn)
		<-th.Done()
		th.Detach()
		th.Detach()
	})
}

func TestNewThreadRejectsNonCallable(t *testing.T) {
	v := NewInt(3)
	defer Decref(v)
	if _, err := NewThread(v); !errors.Is(err, ErrNotCallable) {
		t.Fatalf("err = %v", err)
	}
}

func TestJoinAllWithMutex(t *testing.T) {
	mu := NewMutex()
	shared := NewInt(0)
	var threads []*Thread
	for range 8 {
		fn := NewFunc(func(...*Value) *Value {
			for range 1000 {
				mu.Lock()
				PreIncr(&shared)
				mu.Unlock()
			}
			return NewStr("ok")
		})
		th, err := NewThread(fn)
		if err != nil {
			t.Fatal(err)
		}
		Decref(fn)
		threads = append(threads, th)
	}
	results, err := JoinAll(context.Background(), threads...)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if ToStr(r) != "ok" {
			t.Errorf("thread %d result = %q", i, ToStr(r))
		}
	}
	DecrefAll(results...)
	if ToInt(shared) != 8000 {
		t.Fatalf("counter = %d, want 8000", ToInt(shared))
	}
	Decref(shared)
}

func TestJoinAllContextCancel(t *testing.T) {
	release := make(chan struct{})
	fn := NewFunc(func(...*Value) *Value {
		<-release
		return nil
	})
	th, _ := NewThread(fn)
	Decref(fn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	results, err := JoinAll(ctx, th)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if results[0] != nil {
		t.Fatal("unjoined slot should be nil")
	}
	close(release)
	Decref(th.Join())
}

func TestThreadExceptionsAreIsolated(t *testing.T) {
	fn := NewFunc(func(...*Value) *Value {
		exc := Try(func() { ThrowString("in thread") })
		defer ClearException()
		return exc
	})
	th, _ := NewThread(fn)
	Decref(fn)
	res := th.Join()
	defer Decref(res)
	if ToStr(res) != "in thread" {
		t.Fatalf("thread exception = %q", ToStr(res))
	}
	cur := GetException()
	defer Decref(cur)
	if ToStr(cur) != "" {
		t.Fatalf("exception leaked to joiner: %q", ToStr(cur))
	}
}

func TestObserveThreads(t *testing.T) {
	var mu sync.Mutex
	states := make(map[ThreadState]int)
	cancel := ObserveThreads(func(ev ThreadEvent) {
		mu.Lock()
		states[ev.State]++
		mu.Unlock()
	})
	fn := NewFunc(func(...*Value) *Value { return nil })
	th, _ := NewThread(fn)
	Decref(fn)
	Decref(th.Join())
	cancel()

	mu.Lock()
	defer mu.Unlock()
	for _, s := range []ThreadState{ThreadStarted, ThreadFinished, ThreadJoined} {
		if states[s] != 1 {
			t.Errorf("%s seen %d times", s, states[s])
		}
	}
}

func TestCondSignal(t *testing.T) {
	mu := NewMutex()
	cond := NewCond(mu)
	var ready atomic.Bool
	fn := NewFunc(func(...*Value) *Value {
		mu.Lock()
		for !ready.Load() {
			cond.Wait()
		}
		mu.Unlock()
		return NewStr("woke")
	})
	th, _ := NewThread(fn)
	Decref(fn)
	mu.Lock()
	ready.Store(true)
	cond.Broadcast()
	mu.Unlock()
	res := th.Join()
	defer Decref(res)
	if ToStr(res) != "woke" {
		t.Fatalf("res = %q", ToStr(res))
	}
	if !mu.TryLock() {
		t.Fatal("mutex should be free")
	}
	mu.Unlock()
}

func TestThreadValueRoundTrip(t *testing.T) {
	fn := NewFunc(func(...*Value) *Value { return nil })
	th, _ := NewThread(fn)
	Decref(fn)
	v := ThreadValue(th)
	defer Decref(v)
	got, ok := ThreadFromValue(v)
	if !ok || got != th || got.ID() != th.ID() {
		t.Fatal("thread handle did not round-trip")
	}
	Decref(got.Join())
}
