package rt

import (
	"sync"

	"strada/internal/trace"
)

// gstate is the per-goroutine runtime context: try depth, the current
// exception and the stack of packages whose methods are executing. It is
// only touched by its own goroutine; the map holding it is shared.
type gstate struct {
	gid     uint64
	depth   int
	exc     *Value
	methods []string
	pins    int
}

// gstates maps goroutine id to *gstate. Each goroutine only reads and
// writes its own key, the access pattern sync.Map is built for, so
// dispatch on different threads never contends on a shared lock.
var gstates sync.Map

// state returns the context of the calling goroutine, creating it on demand.
func state() *gstate {
	gid := trace.GoroutineID()
	if g, ok := gstates.Load(gid); ok {
		return g.(*gstate)
	}
	g, _ := gstates.LoadOrStore(gid, &gstate{gid: gid})
	return g.(*gstate)
}

// peekState returns the context of the calling goroutine or nil.
func peekState() *gstate {
	if g, ok := gstates.Load(trace.GoroutineID()); ok {
		return g.(*gstate)
	}
	return nil
}

// settle forgets g once it holds nothing, so finished goroutines leave no trace.
func (g *gstate) settle() {
	if g.depth > 0 || g.exc != nil || len(g.methods) > 0 || g.pins > 0 {
		return
	}
	gstates.CompareAndDelete(g.gid, g)
}

func (g *gstate) pushMethod(pkg string) {
	g.methods = append(g.methods, pkg)
}

func (g *gstate) popMethod() {
	if n := len(g.methods); n > 0 {
		g.methods = g.methods[:n-1]
	}
	g.settle()
}

// MethodPackage returns the package defining the innermost executing method, or "".
func MethodPackage() string {
	g := peekState()
	if g == nil || len(g.methods) == 0 {
		return ""
	}
	return g.methods[len(g.methods)-1]
}

// WithMethodPackage runs fn as if a method of pkg were executing, so Super
// resolves from pkg. Generated code uses it for inlined method bodies.
func WithMethodPackage(pkg string, fn func()) {
	g := state()
	g.pushMethod(pkg)
	defer g.popMethod()
	fn()
}
