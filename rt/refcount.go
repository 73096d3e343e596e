package rt

// Incref registers an additional owner of v.
func Incref(v *Value) {
	if v == nil {
		return
	}
	if v.refs.Add(1) <= 1 {
		v.refs.Add(-1)
		fault(CodeUseAfterFree, "incref of freed %s value", v.kind)
	}
	mem.rcIncr.Add(1)
}

// Decref drops one owner; the last one frees v.
func Decref(v *Value) {
	if v == nil {
		return
	}
	mem.rcDecr.Add(1)
	n := v.refs.Add(-1)
	switch {
	case n == 0:
		free(v)
	case n < 0:
		v.refs.Add(1)
		fault(CodeDoubleFree, "double free of %s value", v.kind)
	}
}

// DecrefAll releases each value in vs.
func DecrefAll(vs ...*Value) {
	for _, v := range vs {
		Decref(v)
	}
}

func free(v *Value) {
	if v.blessed != "" {
		if v.kind != KindRef {
			fault(CodeCorruptBless, "%s value carries package tag %q", v.kind, v.blessed)
		}
		if !v.destroyed {
			v.destroyed = true
			// DESTROY borrows the object; a destructor that stores it elsewhere keeps it alive.
			v.refs.Store(1)
			runDestroy(v)
			if v.refs.Add(-1) > 0 {
				return
			}
		}
		traceFree(v)
		v.blessed = ""
	}
	kind := v.kind
	p := v.takePayload()
	memFree(kind)
	p.release()
}

// payload is the variant-specific state of a Value, detached from it.
type payload struct {
	kind Kind
	iv   int64
	nv   float64
	sv   []byte
	name string
	av   *Array
	hv   *Hash
	rv   *Value
	res  *resource
	rx   *Regex
	ptr  any
	cl   *Closure
}

// takePayload moves the payload out and leaves v as undef.
func (v *Value) takePayload() payload {
	p := payload{
		kind: v.kind, iv: v.iv, nv: v.nv, sv: v.sv, name: v.name,
		av: v.av, hv: v.hv, rv: v.rv, res: v.res, rx: v.rx, ptr: v.ptr, cl: v.cl,
	}
	v.kind = KindUndef
	v.iv, v.nv, v.sv, v.name = 0, 0, nil, ""
	v.av, v.hv, v.rv, v.res, v.rx, v.ptr, v.cl = nil, nil, nil, nil, nil, nil, nil
	return p
}

// sharePayload copies the payload of v, taking a new hold on every shared part.
// Byte payloads are copied so the two values never alias.
func (v *Value) sharePayload() payload {
	if v == nil {
		return payload{kind: KindUndef}
	}
	p := payload{
		kind: v.kind, iv: v.iv, nv: v.nv, name: v.name,
		av: v.av, hv: v.hv, rv: v.rv, res: v.res, rx: v.rx, ptr: v.ptr, cl: v.cl,
	}
	if v.sv != nil {
		p.sv = append([]byte(nil), v.sv...)
	}
	p.av.Retain()
	p.hv.Retain()
	Incref(p.rv)
	p.res.retain()
	p.cl.retain()
	return p
}

func (v *Value) setPayload(p payload) {
	v.kind = p.kind
	v.iv, v.nv, v.sv, v.name = p.iv, p.nv, p.sv, p.name
	v.av, v.hv, v.rv, v.res, v.rx, v.ptr, v.cl = p.av, p.hv, p.rv, p.res, p.rx, p.ptr, p.cl
}

func (p payload) release() {
	p.av.Release()
	p.hv.Release()
	Decref(p.rv)
	p.res.release()
	p.cl.release()
}
