package rt

// Clone returns a deep copy of v. Containers and referents are copied
// recursively (shared substructure and cycles are preserved), blessing is
// kept, and resources, regexes, pointers and closures are shared.
func Clone(v *Value) *Value {
	c := cloner{
		values: make(map[*Value]*Value),
		arrays: make(map[*Array]*Array),
		hashes: make(map[*Hash]*Hash),
	}
	return c.value(v)
}

type cloner struct {
	values map[*Value]*Value
	arrays map[*Array]*Array
	hashes map[*Hash]*Hash
}

// value returns a new hold on the copy of v.
func (c *cloner) value(v *Value) *Value {
	if v == nil {
		return NewUndef()
	}
	if out, ok := c.values[v]; ok {
		Incref(out)
		return out
	}
	var out *Value
	switch v.kind {
	case KindArray:
		out = newValue(KindArray)
		c.values[v] = out
		out.av = c.array(v.av)
	case KindHash:
		out = newValue(KindHash)
		c.values[v] = out
		out.hv = c.hash(v.hv)
	case KindRef:
		out = newValue(KindRef)
		c.values[v] = out
		out.blessed = v.blessed
		out.rv = c.value(v.rv)
	default:
		out = newValue(v.kind)
		c.values[v] = out
		p := v.sharePayload()
		out.setPayload(p)
	}
	return out
}

func (c *cloner) array(a *Array) *Array {
	if out, ok := c.arrays[a]; ok {
		out.Retain()
		return out
	}
	out := newArray(max(a.Len(), 1))
	c.arrays[a] = out
	a.Each(func(_ int, e *Value) bool {
		out.PushTake(c.value(e))
		return true
	})
	return out
}

func (c *cloner) hash(h *Hash) *Hash {
	if out, ok := c.hashes[h]; ok {
		out.Retain()
		return out
	}
	out := newHash(max(h.Buckets(), 1))
	c.hashes[h] = out
	h.Each(func(k string, e *Value) bool {
		out.SetTake(k, c.value(e))
		return true
	})
	return out
}
