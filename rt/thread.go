package rt

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ThreadState is a lifecycle step reported to thread observers.
type ThreadState uint8

const (
	ThreadStarted ThreadState = iota + 1
	ThreadFinished
	ThreadJoined
	ThreadDetached
)

func (s ThreadState) String() string {
	switch s {
	case ThreadStarted:
		return "started"
	case ThreadFinished:
		return "finished"
	case ThreadJoined:
		return "joined"
	case ThreadDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// ThreadEvent describes a thread lifecycle step.
type ThreadEvent struct {
	ID      uint64
	State   ThreadState
	Elapsed time.Duration
}

var (
	threadSeq atomic.Uint64

	observers struct {
		sync.RWMutex
		next uint64
		fns  map[uint64]func(ThreadEvent)
	}
)

// ObserveThreads registers fn for every thread lifecycle event and returns a
// function that unregisters it. fn runs on the thread that caused the event.
func ObserveThreads(fn func(ThreadEvent)) (cancel func()) {
	observers.Lock()
	if observers.fns == nil {
		observers.fns = make(map[uint64]func(ThreadEvent))
	}
	observers.next++
	id := observers.next
	observers.fns[id] = fn
	observers.Unlock()
	return func() {
		observers.Lock()
		delete(observers.fns, id)
		observers.Unlock()
	}
}

func notifyThread(ev ThreadEvent) {
	traceThread(ev.ID, ev.State.String())
	observers.RLock()
	defer observers.RUnlock()
	for _, fn := range observers.fns {
		fn(ev)
	}
}

// Thread runs a closure with no arguments on its own goroutine. Each thread
// has its own exception context; an uncaught throw is fatal to the process.
type Thread struct {
	id      uint64
	fn      *Value
	done    chan struct{}
	started time.Time

	mu       sync.Mutex
	result   *Value
	finished bool
	joined   bool
	detached bool
}

// NewThread starts fn, holding a reference to it until Join or Detach.
func NewThread(fn *Value) (*Thread, error) {
	if !Callable(fn) {
		return nil, newError(CodeNotCallable, "thread body is a %s value", fn.Kind())
	}
	Incref(fn)
	t := &Thread{
		id:      threadSeq.Add(1),
		fn:      fn,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	notifyThread(ThreadEvent{ID: t.id, State: ThreadStarted})
	go t.run()
	return t, nil
}

func (t *Thread) run() {
	res, err := Call(t.fn)
	if err != nil {
		res = NewUndef()
	}
	t.mu.Lock()
	t.result = res
	t.finished = true
	detached := t.detached
	t.mu.Unlock()
	close(t.done)
	notifyThread(ThreadEvent{ID: t.id, State: ThreadFinished, Elapsed: time.Since(t.started)})
	if detached {
		Decref(res)
		Decref(t.fn)
	}
}

// ID returns the process-unique thread number.
func (t *Thread) ID() uint64 { return t.id }

// Done is closed when the closure has returned.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Join waits for the thread and returns its result, owned by the caller. The
// thread's hold on its closure is released. Joining twice, or joining a
// detached thread, yields undef.
func (t *Thread) Join() *Value {
	<-t.done
	t.mu.Lock()
	if t.joined || t.detached {
		t.mu.Unlock()
		return NewUndef()
	}
	t.joined = true
	res := t.result
	t.result = nil
	t.mu.Unlock()
	Decref(t.fn)
	notifyThread(ThreadEvent{ID: t.id, State: ThreadJoined, Elapsed: time.Since(t.started)})
	return res
}

// Detach lets the thread run to completion unobserved; its result is discarded.
func (t *Thread) Detach() {
	t.mu.Lock()
	if t.detached || t.joined {
		t.mu.Unlock()
		return
	}
	t.detached = true
	finished := t.finished
	res := t.result
	t.result = nil
	t.mu.Unlock()
	notifyThread(ThreadEvent{ID: t.id, State: ThreadDetached})
	if finished {
		Decref(res)
		Decref(t.fn)
	}
}

// JoinAll joins threads concurrently and returns their results in order.
// If ctx ends first, the threads not yet joined are left running and their
// result slots are nil.
func JoinAll(ctx context.Context, threads ...*Thread) ([]*Value, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]*Value, len(threads))
	for i, t := range threads {
		g.Go(func() error {
			select {
			case <-t.Done():
				results[i] = t.Join()
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return results, g.Wait()
}

// ThreadValue wraps t as a native pointer value for generated code.
func ThreadValue(t *Thread) *Value {
	return NewPointer(t)
}

// ThreadFromValue unwraps a value made by ThreadValue.
func ThreadFromValue(v *Value) (*Thread, bool) {
	return PointerAs[*Thread](v)
}

// Mutex is the opaque lock handle exposed to scripts.
type Mutex struct {
	mu sync.Mutex
}

func NewMutex() *Mutex         { return &Mutex{} }
func (m *Mutex) Lock()         { m.mu.Lock() }
func (m *Mutex) Unlock()       { m.mu.Unlock() }
func (m *Mutex) TryLock() bool { return m.mu.TryLock() }

// Cond is the opaque condition variable handle exposed to scripts.
type Cond struct {
	c *sync.Cond
}

// NewCond binds a condition variable to m.
func NewCond(m *Mutex) *Cond {
	return &Cond{c: sync.NewCond(&m.mu)}
}

// Wait atomically unlocks the mutex, waits, and relocks it.
func (c *Cond) Wait()      { c.c.Wait() }
func (c *Cond) Signal()    { c.c.Signal() }
func (c *Cond) Broadcast() { c.c.Broadcast() }
