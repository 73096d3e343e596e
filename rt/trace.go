package rt

import (
	"strconv"
	"sync/atomic"
	"time"

	"strada/internal/trace"
)

type tracerHolder struct {
	t trace.Tracer
}

var activeTracer atomic.Pointer[tracerHolder]

// SetTracer routes runtime events to t. Passing nil disables tracing.
func SetTracer(t trace.Tracer) {
	if t == nil {
		t = trace.Nop
	}
	activeTracer.Store(&tracerHolder{t: t})
}

// Tracer returns the tracer runtime events go to.
func Tracer() trace.Tracer {
	if h := activeTracer.Load(); h != nil {
		return h.t
	}
	return trace.Nop
}

func emit(kind trace.Kind, scope trace.Scope, name, detail string, extra map[string]string) {
	t := Tracer()
	if !t.Enabled() {
		return
	}
	if kind != trace.KindFault && !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&trace.Event{
		Time:   time.Now(),
		Kind:   kind,
		Scope:  scope,
		GID:    trace.GoroutineID(),
		Name:   name,
		Detail: detail,
		Extra:  extra,
	})
}

func tracing(scope trace.Scope) bool {
	t := Tracer()
	return t.Enabled() && t.Level().ShouldEmit(scope)
}

func traceFault(err *Error) {
	emit(trace.KindFault, trace.ScopeRuntime, err.Code.String(), err.Message, nil)
}

func traceBless(pkg string) {
	if tracing(trace.ScopeObject) {
		emit(trace.KindPoint, trace.ScopeObject, "bless", pkg, nil)
	}
}

func traceInherit(child, parent string) {
	if tracing(trace.ScopeObject) {
		emit(trace.KindPoint, trace.ScopeObject, "inherit", child+" < "+parent, nil)
	}
}

func traceRegister(pkg, method string) {
	if tracing(trace.ScopeObject) {
		emit(trace.KindPoint, trace.ScopeObject, "register", pkg+"::"+method, nil)
	}
}

func traceDestroy(pkg, owner string) {
	if tracing(trace.ScopeObject) {
		emit(trace.KindPoint, trace.ScopeObject, "destroy", pkg, map[string]string{"via": owner})
	}
}

func traceFree(v *Value) {
	if tracing(trace.ScopeValue) {
		emit(trace.KindPoint, trace.ScopeValue, "free", v.blessed, map[string]string{"kind": v.kind.String()})
	}
}

func traceDispatch(pkg, method, owner string) {
	if tracing(trace.ScopeDispatch) {
		emit(trace.KindPoint, trace.ScopeDispatch, "call", pkg+"->"+method, map[string]string{"via": owner})
	}
}

func traceDispatchMiss(pkg, method string) {
	if tracing(trace.ScopeDispatch) {
		emit(trace.KindPoint, trace.ScopeDispatch, "miss", pkg+"->"+method, nil)
	}
}

func traceThrow(v *Value, depth int) {
	if tracing(trace.ScopeDispatch) {
		emit(trace.KindPoint, trace.ScopeDispatch, "throw", ToStr(v), map[string]string{"depth": strconv.Itoa(depth)})
	}
}

func traceThread(id uint64, state string) {
	if tracing(trace.ScopeRuntime) {
		emit(trace.KindPoint, trace.ScopeRuntime, "thread", state, map[string]string{"id": strconv.FormatUint(id, 10)})
	}
}
