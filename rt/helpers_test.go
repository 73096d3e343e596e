package rt

import (
	"bytes"
	"testing"
)

// expectFault runs fn and requires it to panic with an *Error of code.
func expectFault(t *testing.T, code ErrorCode, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected %v panic, got nil", code)
		}
		err, ok := r.(*Error)
		if !ok {
			t.Fatalf("unexpected panic type: %T (%v)", r, r)
		}
		if err.Code != code {
			t.Fatalf("expected %v, got %v (%s)", code, err.Code, err.Message)
		}
	}()
	fn()
}

// checkLive fails when the number of live values moved during fn.
func checkLive(t *testing.T, fn func()) {
	t.Helper()
	before := LiveValues()
	fn()
	if after := LiveValues(); after != before {
		t.Fatalf("live values %d -> %d (leak or over-release)", before, after)
	}
}

// captureStderr redirects runtime warnings for the duration of fn.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := stderr
	stderr = &buf
	defer func() { stderr = prev }()
	fn()
	return buf.String()
}

// counterClass registers a Counter-like package under name with new, inc and get.
func counterClass(name string) {
	RegisterMethod(name, "new", func(self *Value, args ...*Value) *Value {
		obj := AnonHash(Entry{Key: "count", Value: nil})
		h := DerefHash(obj)
		start := int64(0)
		if len(args) > 0 {
			start = ToInt(args[0])
		}
		h.SetTake("count", NewInt(start))
		if err := Bless(obj, ToStr(self)); err != nil {
			panic(err)
		}
		return obj
	})
	RegisterMethod(name, "inc", func(self *Value, _ ...*Value) *Value {
		h := DerefHash(self)
		h.SetTake("count", NewInt(ToInt(h.Get("count"))+1))
		return nil
	})
	RegisterMethod(name, "get", func(self *Value, _ ...*Value) *Value {
		v := DerefHash(self).Get("count")
		Incref(v)
		return v
	})
}
