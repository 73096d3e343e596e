package rt

import (
	"errors"
	"testing"
)

func TestFreeExactlyOnce(t *testing.T) {
	before := ReadMemStats().Of(KindStr)

	s := NewStr("payload")
	Incref(s)
	if Refcount(s) != 2 {
		t.Fatalf("refcount = %d, want 2", Refcount(s))
	}
	Decref(s)
	if got := ReadMemStats().Of(KindStr).Frees - before.Frees; got != 0 {
		t.Fatalf("freed early: %d frees", got)
	}
	Decref(s)

	after := ReadMemStats().Of(KindStr)
	if after.Allocs-before.Allocs != 1 || after.Frees-before.Frees != 1 {
		t.Fatalf("allocs=%d frees=%d, want 1/1", after.Allocs-before.Allocs, after.Frees-before.Frees)
	}
	if after.Current != before.Current {
		t.Fatalf("current %d -> %d", before.Current, after.Current)
	}
}

func TestDoubleFreePanics(t *testing.T) {
	v := NewInt(1)
	Decref(v)
	expectFault(t, CodeDoubleFree, func() { Decref(v) })
}

func TestUseAfterFreePanics(t *testing.T) {
	v := NewInt(1)
	Decref(v)
	expectFault(t, CodeUseAfterFree, func() { Incref(v) })
}

func TestNilIsIgnored(t *testing.T) {
	Incref(nil)
	Decref(nil)
	DecrefAll(nil, nil)
	if Refcount(nil) != 0 {
		t.Fatal("nil refcount should be 0")
	}
}

func TestContainerReleasesElements(t *testing.T) {
	checkLive(t, func() {
		arr := NewArray()
		inner := NewHash()
		DerefHash(inner).SetTake("k", NewStr("v"))
		arr.Array().PushTake(inner)
		arr.Array().PushTake(NewInt(3))
		Decref(arr)
	})
}

func TestSharedContainerOutlivesValue(t *testing.T) {
	checkLive(t, func() {
		a := NewArray()
		a.Array().PushTake(NewStr("x"))
		b := NewArrayValue(a.Array())
		Decref(a)
		if b.Array().Len() != 1 || ToStr(b.Array().Get(0)) != "x" {
			t.Fatal("shared container lost its element")
		}
		Decref(b)
	})
}

func TestArrayDoubleReleasePanics(t *testing.T) {
	a := NewArrayOf()
	a.Release()
	expectFault(t, CodeDoubleFree, func() { a.Release() })
}

func TestErrorSentinels(t *testing.T) {
	err := newError(CodeMethodNotFound, "nope")
	if !errors.Is(err, ErrMethodNotFound) {
		t.Fatal("errors.Is should match on code")
	}
	if errors.Is(err, ErrNotBlessed) {
		t.Fatal("different codes must not match")
	}
	if got := err.Error(); got != "RT1002: nope" {
		t.Fatalf("Error() = %q", got)
	}
	if ErrDoubleFree.Error() != "RT1006" {
		t.Fatalf("sentinel Error() = %q", ErrDoubleFree.Error())
	}
}

func TestMemStatsPeakAndReset(t *testing.T) {
	ResetMemStats()
	base := ReadMemStats().Of(KindNum).Current
	vs := []*Value{NewNum(1), NewNum(2), NewNum(3)}
	DecrefAll(vs...)
	s := ReadMemStats().Of(KindNum)
	if s.Peak < base+3 {
		t.Fatalf("peak = %d, want >= %d", s.Peak, base+3)
	}
	if s.Allocs != 3 || s.Frees != 3 {
		t.Fatalf("allocs=%d frees=%d after reset", s.Allocs, s.Frees)
	}
	ResetMemStats()
	if got := ReadMemStats().Of(KindNum).Peak; got != ReadMemStats().Of(KindNum).Current {
		t.Fatalf("reset peak = %d, want current", got)
	}
}
