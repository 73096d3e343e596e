package rt

import "fmt"

// invoke runs fn with owner recorded as the executing method's package.
func invoke(owner string, fn Method, self *Value, args []*Value) *Value {
	g := state()
	g.pushMethod(owner)
	defer g.popMethod()
	res := fn(self, args...)
	if res == nil {
		res = NewUndef()
	}
	return res
}

// MethodCall dispatches method on obj through its package hierarchy.
func MethodCall(obj *Value, method string, args ...*Value) (*Value, error) {
	name := Blessed(obj)
	if name == "" {
		return nil, newError(CodeNotBlessed, "can't call method %q on unblessed %s value", method, obj.Kind())
	}
	fn, owner, ok := LookupMethod(name, method)
	if !ok {
		traceDispatchMiss(name, method)
		return nil, newError(CodeMethodNotFound, "can't locate object method %q via package %q", method, name)
	}
	traceDispatch(name, method, owner)
	return invoke(owner, fn, obj, args), nil
}

// ClassCall dispatches a class method (Pkg->method): self is the package
// name as a string value.
func ClassCall(pkg, method string, args ...*Value) (*Value, error) {
	fn, owner, ok := LookupMethod(pkg, method)
	if !ok {
		traceDispatchMiss(pkg, method)
		return nil, newError(CodeMethodNotFound, "can't locate object method %q via package %q", method, pkg)
	}
	traceDispatch(pkg, method, owner)
	self := NewStr(pkg)
	defer Decref(self)
	return invoke(owner, fn, self, args), nil
}

// SuperCall resolves method starting at the direct parents of from, in order,
// and runs it on obj. from is the package that defines the calling method.
func SuperCall(obj *Value, from, method string, args ...*Value) (*Value, error) {
	if Blessed(obj) == "" {
		return nil, newError(CodeNotBlessed, "can't call SUPER::%s on unblessed %s value", method, obj.Kind())
	}
	for _, parent := range Parents(from) {
		if fn, owner, ok := LookupMethod(parent, method); ok {
			traceDispatch(from, "SUPER::"+method, owner)
			return invoke(owner, fn, obj, args), nil
		}
	}
	traceDispatchMiss(from, "SUPER::"+method)
	return nil, newError(CodeMethodNotFound, "can't locate object method %q via package %q", method, from+"::SUPER")
}

// Super is SuperCall from the package of the innermost executing method.
func Super(obj *Value, method string, args ...*Value) (*Value, error) {
	from := MethodPackage()
	if from == "" {
		return nil, newError(CodeNoMethodContext, "SUPER::%s called outside of a method", method)
	}
	return SuperCall(obj, from, method, args...)
}

// MustCall is MethodCall for generated code: failures become language exceptions.
func MustCall(obj *Value, method string, args ...*Value) *Value {
	res, err := MethodCall(obj, method, args...)
	if err != nil {
		ThrowString(err.Error())
	}
	return res
}

// runDestroy invokes DESTROY for a dying object. Exceptions raised by the
// destructor are reported as warnings and do not escape the release.
func runDestroy(obj *Value) {
	fn, owner, ok := LookupMethod(obj.blessed, "DESTROY")
	if !ok {
		return
	}
	traceDestroy(obj.blessed, owner)
	g := state()
	g.pins++
	pending := g.exc
	g.exc = nil
	exc := Try(func() {
		Decref(invoke(owner, fn, obj, nil))
	})
	if exc != nil {
		Warn(fmt.Sprintf("(in cleanup) %s", ToStr(exc)))
		Decref(exc)
		Decref(g.exc)
	}
	g.exc = pending
	g.pins--
	g.settle()
}
