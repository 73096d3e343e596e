package rt

import (
	"fmt"
	"io"
	"os"

	"strada/internal/trace"
)

// throwSignal is the panic payload carrying a language exception to the
// nearest Try. The payload itself lives in the goroutine's exception slot.
type throwSignal struct{}

var (
	exitFunc           = os.Exit
	stderr   io.Writer = os.Stderr
)

// Try runs body inside a try frame. If body throws, the frame catches it and
// Try returns the payload (owned by the caller); the slot keeps it until
// ClearException. Other panics pass through.
func Try(body func()) (exc *Value) {
	g := state()
	g.depth++
	defer func() {
		g.depth--
		if r := recover(); r != nil {
			if _, ok := r.(throwSignal); !ok {
				g.settle()
				panic(r)
			}
			if g.exc == nil {
				g.exc = NewUndef()
			}
			Incref(g.exc)
			exc = g.exc
		}
		g.settle()
	}()
	body()
	return nil
}

// Throw raises v, adopting the caller's reference. Without an active try
// frame the exception is fatal: it is printed and the process exits with 1.
func Throw(v *Value) {
	if v == nil {
		v = NewUndef()
	}
	g := state()
	old := g.exc
	g.exc = v
	Decref(old)
	traceThrow(v, g.depth)
	if g.depth == 0 {
		msg := ToStr(v)
		emit(trace.KindFault, trace.ScopeRuntime, "uncaught", msg, nil)
		_ = Tracer().Flush()
		fmt.Fprintf(stderr, "Uncaught exception: %s\n", msg)
		exitFunc(1)
	}
	panic(throwSignal{})
}

// ThrowString raises a string exception.
func ThrowString(msg string) {
	Throw(NewStr(msg))
}

// Die raises msg; it is the runtime form of the language's die.
func Die(msg string) {
	ThrowString(msg)
}

// Warn writes msg to standard error.
func Warn(msg string) {
	fmt.Fprintln(stderr, msg)
}

// GetException returns the current exception (owned by the caller), or an
// empty string when there is none.
func GetException() *Value {
	g := peekState()
	if g == nil || g.exc == nil {
		return NewStr("")
	}
	Incref(g.exc)
	return g.exc
}

// ClearException empties the exception slot.
func ClearException() {
	g := peekState()
	if g == nil {
		return
	}
	old := g.exc
	g.exc = nil
	g.settle()
	Decref(old)
}

// InTry reports whether a try frame is active on this goroutine.
func InTry() bool {
	return TryDepth() > 0
}

// TryDepth returns the number of active try frames on this goroutine.
func TryDepth() int {
	if g := peekState(); g != nil {
		return g.depth
	}
	return 0
}

// Exception is a caught language exception surfaced as a Go error.
type Exception struct {
	// Value holds a reference to the payload; Release drops it.
	Value *Value
}

func (e *Exception) Error() string {
	return ToStr(e.Value)
}

// Release drops the payload reference.
func (e *Exception) Release() {
	if e != nil {
		Decref(e.Value)
		e.Value = nil
	}
}

// Catch runs body and converts a thrown exception into an error, clearing the slot.
func Catch(body func()) error {
	exc := Try(body)
	if exc == nil {
		return nil
	}
	ClearException()
	return &Exception{Value: exc}
}
