package scenario

import (
	"context"
	"fmt"
	"io"

	"strada/rt"
)

func init() {
	register("closure", "snapshot captures, generators and shared cells", runClosure)
}

// makeCounter returns a generator whose state lives in its own capture slot.
func makeCounter(start int64) *rt.Value {
	seed := rt.NewInt(start)
	defer rt.Decref(seed)
	return rt.NewClosure(func(captures []*rt.Value, _ ...*rt.Value) *rt.Value {
		v := rt.PreIncr(&captures[0])
		rt.Incref(v)
		return v
	}, 0, seed)
}

// makeAdder captures n by value.
func makeAdder(n *rt.Value) *rt.Value {
	return rt.NewClosure(func(captures []*rt.Value, args ...*rt.Value) *rt.Value {
		return rt.NewInt(rt.ToInt(captures[0]) + rt.ToInt(args[0]))
	}, 1, n)
}

func invokeInt(fn *rt.Value, args ...*rt.Value) int64 {
	v := rt.MustInvoke(fn, args...)
	defer rt.Decref(v)
	return rt.ToInt(v)
}

func runClosure(_ context.Context, w io.Writer) error {
	c1, c2 := makeCounter(0), makeCounter(100)
	defer rt.DecrefAll(c1, c2)
	var seq []int64
	for range 3 {
		seq = append(seq, invokeInt(c1))
	}
	other := invokeInt(c2)
	fmt.Fprintf(w, "counter: %v, independent: %d\n", seq, other)
	if err := check(fmt.Sprint(seq) == "[1 2 3]" && other == 101, "generators share state: %v %d", seq, other); err != nil {
		return err
	}

	// Rebinding x after capture is not seen by the closure.
	x := rt.NewInt(10)
	add := makeAdder(x)
	defer rt.Decref(add)
	rt.PreIncr(&x)
	defer rt.Decref(x)
	five := rt.NewInt(5)
	defer rt.Decref(five)
	sum := invokeInt(add, five)
	fmt.Fprintf(w, "x is now %d, adder(5) = %d\n", rt.ToInt(x), sum)
	if err := check(sum == 15, "adder saw the rebinding: %d", sum); err != nil {
		return err
	}

	// Shared mutable state goes through a reference.
	cell := rt.AnonArray()
	defer rt.Decref(cell)
	push := rt.NewClosure(func(captures []*rt.Value, args ...*rt.Value) *rt.Value {
		rt.DerefArray(captures[0]).Push(args[0])
		return rt.NewInt(int64(rt.DerefArray(captures[0]).Len()))
	}, 1, cell)
	defer rt.Decref(push)
	pushRef := rt.Ref(push)
	defer rt.Decref(pushRef)
	for _, s := range []string{"a", "b"} {
		v := rt.NewStr(s)
		rt.Decref(rt.MustInvoke(pushRef, v))
		rt.Decref(v)
	}
	joined := rt.Join(",", rt.DerefArray(cell))
	defer rt.Decref(joined)
	fmt.Fprintf(w, "cell: %s\n", rt.ToStr(joined))
	if err := check(rt.ToStr(joined) == "a,b", "cell = %q", rt.ToStr(joined)); err != nil {
		return err
	}

	upper := rt.NewFunc(func(args ...*rt.Value) *rt.Value { return rt.Uc(args[0]) })
	defer rt.Decref(upper)
	word := rt.NewStr("strada")
	defer rt.Decref(word)
	shout := rt.MustInvoke(upper, word)
	defer rt.Decref(shout)
	fmt.Fprintf(w, "native: %s\n", rt.ToStr(shout))
	return check(rt.ToStr(shout) == "STRADA", "native function = %q", rt.ToStr(shout))
}
