package scenario

import (
	"context"
	"fmt"
	"io"

	"strada/rt"
)

func init() {
	register("counter", "class with a constructor, accessors and can()", runCounter)
}

func defineCounter() {
	rt.RegisterMethod("Counter", "new", func(class *rt.Value, args ...*rt.Value) *rt.Value {
		start := int64(0)
		if len(args) > 0 {
			start = rt.ToInt(args[0])
		}
		self := rt.AnonHash()
		rt.DerefHash(self).SetTake("count", rt.NewInt(start))
		if err := rt.Bless(self, rt.ToStr(class)); err != nil {
			rt.Decref(self)
			rt.ThrowString(err.Error())
		}
		return self
	})
	rt.RegisterMethod("Counter", "increment", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
		h := rt.DerefHash(self)
		h.SetTake("count", rt.NewInt(rt.ToInt(h.Get("count"))+1))
		return nil
	})
	rt.RegisterMethod("Counter", "get", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
		v := rt.DerefHash(self).Get("count")
		rt.Incref(v)
		return v
	})
}

func runCounter(_ context.Context, w io.Writer) error {
	defineCounter()

	start := rt.NewInt(0)
	obj, err := rt.ClassCall("Counter", "new", start)
	rt.Decref(start)
	if err != nil {
		return err
	}
	defer rt.Decref(obj)

	for range 3 {
		rt.Decref(rt.MustCall(obj, "increment"))
	}
	got := rt.MustCall(obj, "get")
	defer rt.Decref(got)
	fmt.Fprintf(w, "ref: %s\n", rt.Blessed(obj))
	fmt.Fprintf(w, "count: %s\n", rt.ToStr(got))
	fmt.Fprintf(w, "can increment: %t\n", rt.Can(obj, "increment"))
	fmt.Fprintf(w, "can reset: %t\n", rt.Can(obj, "reset"))

	if err := check(rt.ToInt(got) == 3, "count = %d, want 3", rt.ToInt(got)); err != nil {
		return err
	}
	if _, err := rt.MethodCall(obj, "reset"); err == nil {
		return fmt.Errorf("calling a missing method succeeded")
	} else {
		fmt.Fprintf(w, "missing method: %v\n", err)
	}
	return check(rt.Isa(obj, "Counter") && !rt.Can(obj, "reset"), "isa/can disagree with the class")
}
