package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"

	"strada/rt"
)

func init() {
	register("exceptions", "nested try/catch, rethrow and exception objects", runExceptions)
}

func defineErrorClass() {
	rt.RegisterMethod("NotFound", "new", func(class *rt.Value, args ...*rt.Value) *rt.Value {
		self := rt.AnonHash(rt.Entry{Key: "path", Value: args[0]})
		if err := rt.Bless(self, rt.ToStr(class)); err != nil {
			rt.Decref(self)
			rt.ThrowString(err.Error())
		}
		return self
	})
	rt.RegisterMethod("NotFound", "message", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
		return rt.NewStr("not found: " + rt.ToStr(rt.DerefHash(self).Get("path")))
	})
	rt.Inherit("NotFound", "IOError")
}

func runExceptions(_ context.Context, w io.Writer) error {
	defineErrorClass()

	// Plain string exception.
	exc := rt.Try(func() { rt.Die("boom") })
	fmt.Fprintf(w, "caught: %s\n", rt.ToStr(exc))
	ok := rt.ToStr(exc) == "boom"
	rt.Decref(exc)
	rt.ClearException()
	if err := check(ok, "caught the wrong payload"); err != nil {
		return err
	}

	// The inner handler rethrows with context; the outer one sees that.
	depth := 0
	outer := rt.Try(func() {
		inner := rt.Try(func() {
			depth = rt.TryDepth()
			rt.Die("disk")
		})
		msg := "rethrown: " + rt.ToStr(inner)
		rt.Decref(inner)
		rt.ThrowString(msg)
	})
	fmt.Fprintf(w, "outer: %s (inner depth %d)\n", rt.ToStr(outer), depth)
	ok = rt.ToStr(outer) == "rethrown: disk"
	rt.Decref(outer)
	rt.ClearException()
	if err := check(ok, "rethrow lost the message"); err != nil {
		return err
	}

	// Exception objects dispatch like any other object.
	path := rt.NewStr("/etc/strada")
	thrown := rt.Try(func() {
		e, err := rt.ClassCall("NotFound", "new", path)
		if err != nil {
			rt.ThrowString(err.Error())
		}
		rt.Throw(e)
	})
	rt.Decref(path)
	defer rt.Decref(thrown)
	rt.ClearException()
	msg := rt.MustCall(thrown, "message")
	defer rt.Decref(msg)
	fmt.Fprintf(w, "%s isa IOError: %t, message: %s\n", rt.Blessed(thrown), rt.Isa(thrown, "IOError"), rt.ToStr(msg))
	if err := check(rt.Isa(thrown, "IOError") && rt.ToStr(msg) == "not found: /etc/strada", "exception object lost its class"); err != nil {
		return err
	}

	// Catch surfaces an exception as a Go error.
	err := rt.Catch(func() { rt.Die("as error") })
	var e *rt.Exception
	if !errors.As(err, &e) {
		return fmt.Errorf("Catch returned %v", err)
	}
	fmt.Fprintf(w, "error: %v\n", e)
	e.Release()

	// Runtime faults raised by method dispatch become exceptions through MustCall.
	plain := rt.AnonHash()
	defer rt.Decref(plain)
	fault := rt.Try(func() { rt.Decref(rt.MustCall(plain, "missing")) })
	defer rt.Decref(fault)
	rt.ClearException()
	fmt.Fprintf(w, "dispatch fault: %s\n", rt.ToStr(fault))
	return check(fault != nil, "calling a method on an unblessed hash did not throw")
}
