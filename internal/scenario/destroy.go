package scenario

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"strada/rt"
)

func init() {
	register("destroy", "destructors run once, in release order, through inheritance", runDestroy)
}

type destroyLog struct {
	mu    sync.Mutex
	names []string
}

func (l *destroyLog) add(name string) {
	l.mu.Lock()
	l.names = append(l.names, name)
	l.mu.Unlock()
}

func (l *destroyLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.names)
}

func newResource(pkg, name string) *rt.Value {
	obj := rt.AnonHash()
	rt.DerefHash(obj).SetTake("name", rt.NewStr(name))
	if err := rt.Bless(obj, pkg); err != nil {
		rt.Decref(obj)
		rt.ThrowString(err.Error())
	}
	return obj
}

func runDestroy(_ context.Context, w io.Writer) error {
	log := &destroyLog{}
	rt.RegisterMethod("Resource", "DESTROY", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
		name := rt.ToStr(rt.DerefHash(self).Get("name"))
		log.add(name)
		fmt.Fprintf(w, "DESTROY %s\n", name)
		return nil
	})
	rt.Inherit("TempFile", "Resource")

	a := newResource("Resource", "a")
	b := newResource("TempFile", "b")
	alias := b
	rt.Incref(alias)
	holder := rt.AnonArray(a)

	fmt.Fprintln(w, "drop b")
	rt.Decref(b)
	fmt.Fprintln(w, "drop a")
	rt.Decref(a)
	fmt.Fprintln(w, "drop holder")
	rt.Decref(holder)
	fmt.Fprintln(w, "drop alias")
	rt.Decref(alias)

	c := newResource("Resource", "c")
	replacement := rt.NewStr("plain")
	fmt.Fprintln(w, "overwrite c")
	rt.Assign(c, replacement)
	rt.DecrefAll(replacement, c)

	got := log.snapshot()
	return check(slices.Equal(got, []string{"a", "b", "c"}), "destroy order = %v, want [a b c]", got)
}
