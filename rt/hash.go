package rt

import "sync/atomic"

type hashEntry struct {
	key   string
	value *Value
	next  *hashEntry
}

// Hash is a refcounted string-keyed table with separate chaining. Iteration
// follows bucket order; callers must not depend on it.
type Hash struct {
	refs    atomic.Int32
	buckets []*hashEntry
	count   int
}

func newHash(buckets int) *Hash {
	if buckets <= 0 {
		buckets = defaultHashCapacity
	}
	h := &Hash{buckets: make([]*hashEntry, buckets)}
	h.refs.Store(1)
	mem.hashAllocs.Add(1)
	return h
}

// NewHashOf builds a container from entries (values increfed).
func NewHashOf(entries ...Entry) *Hash {
	h := newHash(DefaultHashCapacity())
	for _, e := range entries {
		h.Set(e.Key, e.Value)
	}
	return h
}

// Entry is a key/value pair for hash literals.
type Entry struct {
	Key   string
	Value *Value
}

// djb2
func hashKey(key string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(key); i++ {
		h = h*33 + uint64(key[i])
	}
	return h
}

// Retain registers another holder of h.
func (h *Hash) Retain() {
	if h != nil {
		h.refs.Add(1)
	}
}

// Release drops a holder; the last one releases every value.
func (h *Hash) Release() {
	if h == nil {
		return
	}
	n := h.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		h.refs.Add(1)
		fault(CodeDoubleFree, "double free of hash container")
	}
	buckets := h.buckets
	h.buckets = nil
	h.count = 0
	mem.hashFrees.Add(1)
	for _, e := range buckets {
		for ; e != nil; e = e.next {
			Decref(e.value)
		}
	}
}

// Len returns the number of entries.
func (h *Hash) Len() int {
	if h == nil {
		return 0
	}
	return h.count
}

// Buckets returns the current bucket count.
func (h *Hash) Buckets() int {
	if h == nil {
		return 0
	}
	return len(h.buckets)
}

func (h *Hash) find(key string) *hashEntry {
	if h == nil || len(h.buckets) == 0 {
		return nil
	}
	for e := h.buckets[hashKey(key)%uint64(len(h.buckets))]; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	return nil
}

// Get returns the value stored under key without transferring ownership, or nil.
func (h *Hash) Get(key string) *Value {
	if e := h.find(key); e != nil {
		return e.value
	}
	return nil
}

// Exists reports whether key is present.
func (h *Hash) Exists(key string) bool {
	return h.find(key) != nil
}

// Set stores v under key, increfing it and releasing any previous value.
func (h *Hash) Set(key string, v *Value) {
	if v == nil {
		v = NewUndef()
	} else {
		Incref(v)
	}
	h.SetTake(key, v)
}

// SetTake is Set adopting the caller's reference.
func (h *Hash) SetTake(key string, v *Value) {
	if h == nil {
		Decref(v)
		return
	}
	if v == nil {
		v = NewUndef()
	}
	if e := h.find(key); e != nil {
		old := e.value
		e.value = v
		Decref(old)
		return
	}
	if len(h.buckets) == 0 {
		h.buckets = make([]*hashEntry, defaultHashCapacity)
	}
	b := hashKey(key) % uint64(len(h.buckets))
	h.buckets[b] = &hashEntry{key: key, value: v, next: h.buckets[b]}
	h.count++
	if h.count*4 > len(h.buckets)*3 {
		h.rehash(len(h.buckets) * 2)
	}
}

func (h *Hash) rehash(n int) {
	buckets := make([]*hashEntry, n)
	for _, e := range h.buckets {
		for e != nil {
			next := e.next
			b := hashKey(e.key) % uint64(n)
			e.next = buckets[b]
			buckets[b] = e
			e = next
		}
	}
	h.buckets = buckets
}

// Reserve sizes the table so n entries fit without a resize.
func (h *Hash) Reserve(n int) {
	if h == nil {
		return
	}
	size := max(len(h.buckets), 1)
	for n*4 > size*3 {
		size *= 2
	}
	if size != len(h.buckets) {
		h.rehash(size)
	}
}

// Delete removes key and releases its value. It reports whether key was present.
func (h *Hash) Delete(key string) bool {
	if h == nil || len(h.buckets) == 0 {
		return false
	}
	b := hashKey(key) % uint64(len(h.buckets))
	var prev *hashEntry
	for e := h.buckets[b]; e != nil; prev, e = e, e.next {
		if e.key != key {
			continue
		}
		if prev == nil {
			h.buckets[b] = e.next
		} else {
			prev.next = e.next
		}
		h.count--
		Decref(e.value)
		return true
	}
	return false
}

// Each visits entries in bucket order until fn returns false. Values are borrowed.
func (h *Hash) Each(fn func(key string, v *Value) bool) {
	if h == nil {
		return
	}
	for _, e := range h.buckets {
		for ; e != nil; e = e.next {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns a new array of key strings. The caller owns it.
func (h *Hash) Keys() *Array {
	a := newArray(max(h.Len(), 1))
	h.Each(func(key string, _ *Value) bool {
		a.PushTake(NewStr(key))
		return true
	})
	return a
}

// Values returns a new array sharing every value. The caller owns it.
func (h *Hash) Values() *Array {
	a := newArray(max(h.Len(), 1))
	h.Each(func(_ string, v *Value) bool {
		a.Push(v)
		return true
	})
	return a
}
