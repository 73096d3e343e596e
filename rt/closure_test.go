package rt

import (
	"errors"
	"testing"
)

func TestClosureSnapshotsCaptures(t *testing.T) {
	checkLive(t, func() {
		x := NewInt(10)
		add := NewClosure(func(captures []*Value, args ...*Value) *Value {
			return NewInt(ToInt(captures[0]) + ToInt(args[0]))
		}, 1, x)

		// Rebinding the variable after creation is not observed.
		slot := x
		PreIncr(&slot)
		defer Decref(slot)

		five := NewInt(5)
		res, err := Call(add, five)
		if err != nil {
			t.Fatal(err)
		}
		if ToInt(res) != 15 {
			t.Fatalf("add(5) = %d, want 15", ToInt(res))
		}
		if ToInt(slot) != 11 {
			t.Fatalf("rebound variable = %d, want 11", ToInt(slot))
		}
		DecrefAll(res, five, add)
	})
}

func TestClosureHoldsCaptureAlive(t *testing.T) {
	checkLive(t, func() {
		s := NewStr("kept")
		get := NewClosure(func(captures []*Value, _ ...*Value) *Value {
			Incref(captures[0])
			return captures[0]
		}, 0, s)
		Decref(s)
		res := MustInvoke(get)
		if ToStr(res) != "kept" {
			t.Fatalf("capture = %q", ToStr(res))
		}
		DecrefAll(res, get)
	})
}

func TestClosureNilCaptureIsUndef(t *testing.T) {
	cl := NewClosure(func(captures []*Value, _ ...*Value) *Value {
		if Defined(captures[0]) {
			return NewStr("defined")
		}
		return NewStr("undef")
	}, 0, nil)
	defer Decref(cl)
	res, _ := Call(cl)
	defer Decref(res)
	if ToStr(res) != "undef" {
		t.Fatalf("nil capture read as %q", ToStr(res))
	}
	if cl.Closure().Params() != 0 || len(cl.Closure().Captures()) != 1 {
		t.Fatal("closure metadata wrong")
	}
}

func TestCallThroughReferenceAndPlainFunc(t *testing.T) {
	checkLive(t, func() {
		cl := NewClosure(func(_ []*Value, args ...*Value) *Value {
			return NewInt(int64(len(args)))
		}, -1)
		ref := RefTake(cl)
		if RefType(ref) != "CODE" {
			t.Fatalf("ref type = %q", RefType(ref))
		}
		a, b := NewInt(1), NewInt(2)
		res, err := Call(ref, a, b)
		if err != nil || ToInt(res) != 2 {
			t.Fatalf("call via ref = %v, %v", res, err)
		}
		Decref(res)

		double := NewFunc(func(args ...*Value) *Value { return NewInt(ToInt(args[0]) * 2) })
		if !Callable(double) {
			t.Fatal("plain func should be callable")
		}
		res, err = Call(double, b)
		if err != nil || ToInt(res) != 4 {
			t.Fatalf("plain func = %v, %v", res, err)
		}
		DecrefAll(res, double, a, b, ref)
	})
}

func TestCallNonCallable(t *testing.T) {
	v := NewStr("not code")
	defer Decref(v)
	if Callable(v) {
		t.Fatal("string reported callable")
	}
	if _, err := Call(v); !errors.Is(err, ErrNotCallable) {
		t.Fatalf("err = %v", err)
	}
	p := NewPointer(42)
	defer Decref(p)
	if _, err := Call(p); !errors.Is(err, ErrNotCallable) {
		t.Fatalf("pointer err = %v", err)
	}
}

func TestClosureSurvivesDroppingLastReferenceDuringCall(t *testing.T) {
	checkLive(t, func() {
		var self *Value
		capture := NewStr("still here")
		cl := NewClosure(func(captures []*Value, _ ...*Value) *Value {
			Decref(self)
			return NewStr(ToStr(captures[0]))
		}, 0, capture)
		Decref(capture)
		self = cl
		res, err := Call(cl)
		if err != nil {
			t.Fatal(err)
		}
		if ToStr(res) != "still here" {
			t.Fatalf("res = %q", ToStr(res))
		}
		Decref(res)
	})
}

func TestIncrDecr(t *testing.T) {
	checkLive(t, func() {
		slot := NewInt(5)
		old := PostIncr(&slot)
		if ToInt(old) != 5 || ToInt(slot) != 6 {
			t.Fatalf("post-incr: old=%d new=%d", ToInt(old), ToInt(slot))
		}
		Decref(old)
		if got := PreDecr(&slot); ToInt(got) != 5 || got != slot {
			t.Fatalf("pre-decr = %d", ToInt(got))
		}
		old = PostDecr(&slot)
		Decref(old)
		if slot.Kind() != KindInt || ToInt(slot) != 4 {
			t.Fatalf("slot = %s %d", TypeOf(slot), ToInt(slot))
		}
		Decref(slot)

		num := NewNum(1.5)
		PreIncr(&num)
		if num.Kind() != KindNum || ToNum(num) != 2.5 {
			t.Fatalf("num incr = %v", ToNum(num))
		}
		Decref(num)

		var undef *Value = NewUndef()
		PreIncr(&undef)
		if undef.Kind() != KindInt || ToInt(undef) != 1 {
			t.Fatalf("undef incr = %s %d", TypeOf(undef), ToInt(undef))
		}
		Decref(undef)
	})
}
