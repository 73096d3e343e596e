package rt

import "sync/atomic"

// NativeFunc is the body of a closure: captures is the snapshot taken at
// creation, args are the call arguments. Both are borrowed; the result is
// owned by the caller.
type NativeFunc func(captures []*Value, args ...*Value) *Value

// PlainFunc is a native function reference without captures.
type PlainFunc func(args ...*Value) *Value

// Closure pairs a native body with the values it captured. It is immutable
// after creation and shared between values by refcount.
type Closure struct {
	refs     atomic.Int32
	fn       NativeFunc
	params   int
	captures []*Value
}

// NewClosure captures the current value of each slot (increfing it) and
// returns a closure value. Later rebinding of the captured variables is not
// observed. params < 0 marks a variadic function.
func NewClosure(fn NativeFunc, params int, captures ...*Value) *Value {
	cl := &Closure{fn: fn, params: params, captures: make([]*Value, len(captures))}
	cl.refs.Store(1)
	for i, c := range captures {
		if c == nil {
			c = NewUndef()
		} else {
			Incref(c)
		}
		cl.captures[i] = c
	}
	v := newValue(KindClosure)
	v.cl = cl
	return v
}

// NewFunc wraps a plain native function as a callable value.
func NewFunc(fn PlainFunc) *Value {
	return NewPointer(fn)
}

func (c *Closure) retain() {
	if c != nil {
		c.refs.Add(1)
	}
}

func (c *Closure) release() {
	if c == nil || c.refs.Add(-1) > 0 {
		return
	}
	captures := c.captures
	c.captures = nil
	for _, v := range captures {
		Decref(v)
	}
}

// Params returns the declared parameter count.
func (c *Closure) Params() int {
	if c == nil {
		return 0
	}
	return c.params
}

// Captures returns the captured slots (borrowed).
func (c *Closure) Captures() []*Value {
	if c == nil {
		return nil
	}
	return c.captures
}

// Callable reports whether Call accepts fn.
func Callable(fn *Value) bool {
	if fn.Kind() == KindRef {
		fn = fn.rv
	}
	switch fn.Kind() {
	case KindClosure:
		return fn.cl != nil && fn.cl.fn != nil
	case KindPointer:
		_, ok := fn.ptr.(PlainFunc)
		return ok
	}
	return false
}

// Call invokes a closure (or a reference to one) or a plain native function
// with any number of arguments.
func Call(fn *Value, args ...*Value) (*Value, error) {
	target := fn
	if target.Kind() == KindRef {
		target = target.rv
	}
	var res *Value
	switch target.Kind() {
	case KindClosure:
		cl := target.cl
		if cl == nil || cl.fn == nil {
			return nil, newError(CodeNotCallable, "closure has no body")
		}
		// Hold the closure so a body that drops the last outside reference keeps its captures.
		cl.retain()
		defer cl.release()
		res = cl.fn(cl.captures, args...)
	case KindPointer:
		plain, ok := target.ptr.(PlainFunc)
		if !ok {
			return nil, newError(CodeNotCallable, "native pointer %T is not a function", target.ptr)
		}
		res = plain(args...)
	default:
		return nil, newError(CodeNotCallable, "can't call %s value", target.Kind())
	}
	if res == nil {
		res = NewUndef()
	}
	return res, nil
}

// MustInvoke is Call for generated code: failures become language exceptions.
func MustInvoke(fn *Value, args ...*Value) *Value {
	res, err := Call(fn, args...)
	if err != nil {
		ThrowString(err.Error())
	}
	return res
}
