package rt

// Ref returns a reference sharing target.
func Ref(target *Value) *Value {
	Incref(target)
	return RefTake(target)
}

// RefTake returns a reference adopting the caller's hold on target.
func RefTake(target *Value) *Value {
	if target == nil {
		target = NewUndef()
	}
	v := newValue(KindRef)
	v.rv = target
	return v
}

// IsRef reports whether v is a reference.
func IsRef(v *Value) bool {
	return v.Kind() == KindRef
}

// RefType names what a reference points at, Perl style: SCALAR, ARRAY,
// HASH, CODE, REF, GLOB, Regexp. Non-references yield "".
func RefType(v *Value) string {
	if v.Kind() != KindRef {
		return ""
	}
	switch v.rv.Kind() {
	case KindArray:
		return "ARRAY"
	case KindHash:
		return "HASH"
	case KindRef:
		return "REF"
	case KindClosure:
		return "CODE"
	case KindFileHandle, KindSocket:
		return "GLOB"
	case KindRegex:
		return "Regexp"
	default:
		return "SCALAR"
	}
}

// Deref returns the referent with a new hold for the caller. Non-references
// are returned themselves, increfed.
func Deref(v *Value) *Value {
	if v == nil {
		return NewUndef()
	}
	if v.kind == KindRef {
		Incref(v.rv)
		return v.rv
	}
	Incref(v)
	return v
}

// DerefArray returns the container behind an array reference (borrowed).
// A plain array value is accepted too.
func DerefArray(v *Value) *Array {
	if v.Kind() == KindRef {
		v = v.rv
	}
	return v.Array()
}

// DerefHash returns the container behind a hash reference (borrowed).
func DerefHash(v *Value) *Hash {
	if v.Kind() == KindRef {
		v = v.rv
	}
	return v.Hash()
}

// DerefSet assigns src through ref: the referent takes src's kind and
// payload in place, so every holder of the referent observes the change.
// Containers and nested references are shared, strings copied.
func DerefSet(ref, src *Value) error {
	if ref.Kind() != KindRef {
		return newError(CodeNotReference, "cannot assign through %s value", ref.Kind())
	}
	Assign(ref.rv, src)
	return nil
}

// Assign replaces dst's contents with src's. If dst is a blessed object its
// destructor runs first, since the object it represented is gone.
func Assign(dst, src *Value) {
	if dst == nil || dst == src {
		return
	}
	p := src.sharePayload()
	if dst.blessed != "" && !dst.destroyed {
		dst.destroyed = true
		Incref(dst)
		runDestroy(dst)
		Decref(dst)
	}
	old := dst.takePayload()
	dst.setPayload(p)
	// dst never takes src's blessing; a referent has one blessed holder.
	dst.blessed = ""
	dst.destroyed = false
	memMove(old.kind, dst.kind)
	old.release()
}

// memMove keeps per-kind live counts right when a value changes variant.
func memMove(from, to Kind) {
	if from == to {
		return
	}
	memFree(from)
	memAlloc(to)
}

// AnonArray builds [elems...] as a fresh array reference.
func AnonArray(elems ...*Value) *Value {
	v := newValue(KindArray)
	v.av = NewArrayOf(elems...)
	return RefTake(v)
}

// AnonHash builds {entries...} as a fresh hash reference.
func AnonHash(entries ...Entry) *Value {
	v := newValue(KindHash)
	v.hv = NewHashOf(entries...)
	return RefTake(v)
}

// ArrayFromRef copies the elements behind an array reference into a new
// array value. Elements are shared.
func ArrayFromRef(ref *Value) *Value {
	out := NewArray()
	if a := DerefArray(ref); a != nil {
		out.av.Reserve(a.Len())
		a.Each(func(_ int, e *Value) bool {
			out.av.Push(e)
			return true
		})
	}
	return out
}

// HashFromRef copies the entries behind a hash reference into a new hash value.
func HashFromRef(ref *Value) *Value {
	out := NewHash()
	if h := DerefHash(ref); h != nil {
		out.hv.Reserve(h.Len())
		h.Each(func(k string, e *Value) bool {
			out.hv.Set(k, e)
			return true
		})
	}
	return out
}

// Release drops the referent of ref and leaves ref pointing at undef.
func Release(ref *Value) {
	if ref.Kind() != KindRef {
		return
	}
	old := ref.rv
	ref.rv = NewUndef()
	Decref(old)
}
