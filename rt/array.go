package rt

import "sync/atomic"

// Array is a refcounted, growable sequence of owned values. Structural
// mutation is not synchronized; callers that share an array across threads
// serialize access themselves.
type Array struct {
	refs  atomic.Int32
	elems []*Value
}

func newArray(capacity int) *Array {
	if capacity <= 0 {
		capacity = defaultArrayCapacity
	}
	a := &Array{elems: make([]*Value, 0, capacity)}
	a.refs.Store(1)
	mem.arrayAllocs.Add(1)
	return a
}

// NewArrayOf builds a container holding vs (each increfed).
func NewArrayOf(vs ...*Value) *Array {
	a := newArray(max(len(vs), DefaultArrayCapacity()))
	for _, v := range vs {
		a.Push(v)
	}
	return a
}

// Retain registers another holder of a.
func (a *Array) Retain() {
	if a != nil {
		a.refs.Add(1)
	}
}

// Release drops a holder; the last one releases every element.
func (a *Array) Release() {
	if a == nil {
		return
	}
	n := a.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		a.refs.Add(1)
		fault(CodeDoubleFree, "double free of array container")
	}
	elems := a.elems
	a.elems = nil
	mem.arrayFrees.Add(1)
	for _, v := range elems {
		Decref(v)
	}
}

// Len returns the element count.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

// Cap returns the allocated slot count.
func (a *Array) Cap() int {
	if a == nil {
		return 0
	}
	return cap(a.elems)
}

// grow doubles capacity until n elements fit.
func (a *Array) grow(n int) {
	c := cap(a.elems)
	if n <= c {
		return
	}
	if c == 0 {
		c = defaultArrayCapacity
	}
	for c < n {
		c *= 2
	}
	elems := make([]*Value, len(a.elems), c)
	copy(elems, a.elems)
	a.elems = elems
}

// Reserve makes room for n elements without further reallocation.
func (a *Array) Reserve(n int) {
	if a == nil || n <= cap(a.elems) {
		return
	}
	elems := make([]*Value, len(a.elems), n)
	copy(elems, a.elems)
	a.elems = elems
}

// Push appends v, taking a new reference to it.
func (a *Array) Push(v *Value) {
	if v == nil {
		v = NewUndef()
	} else {
		Incref(v)
	}
	a.PushTake(v)
}

// PushTake appends v, adopting the caller's reference.
func (a *Array) PushTake(v *Value) {
	if a == nil {
		Decref(v)
		return
	}
	if v == nil {
		v = NewUndef()
	}
	a.grow(len(a.elems) + 1)
	a.elems = append(a.elems, v)
}

// Pop removes the last element and hands its reference to the caller.
// An empty array yields a fresh undef.
func (a *Array) Pop() *Value {
	if a.Len() == 0 {
		return NewUndef()
	}
	last := len(a.elems) - 1
	v := a.elems[last]
	a.elems[last] = nil
	a.elems = a.elems[:last]
	return v
}

// Shift removes the first element and hands its reference to the caller.
func (a *Array) Shift() *Value {
	if a.Len() == 0 {
		return NewUndef()
	}
	v := a.elems[0]
	copy(a.elems, a.elems[1:])
	last := len(a.elems) - 1
	a.elems[last] = nil
	a.elems = a.elems[:last]
	return v
}

// Unshift prepends v, taking a new reference to it.
func (a *Array) Unshift(v *Value) {
	if a == nil {
		return
	}
	if v == nil {
		v = NewUndef()
	} else {
		Incref(v)
	}
	a.grow(len(a.elems) + 1)
	a.elems = append(a.elems, nil)
	copy(a.elems[1:], a.elems)
	a.elems[0] = v
}

func (a *Array) resolve(i int) (int, bool) {
	if i < 0 {
		i += a.Len()
	}
	return i, i >= 0 && i < a.Len()
}

// Get returns the element at i (negative counts from the end) without
// transferring ownership, or nil when i is out of range.
func (a *Array) Get(i int) *Value {
	i, ok := a.resolve(i)
	if !ok {
		return nil
	}
	return a.elems[i]
}

// Set stores v at i, increfing it. Indexes past the end pad with undef;
// negative indexes before the start are ignored.
func (a *Array) Set(i int, v *Value) {
	if v == nil {
		v = NewUndef()
	} else {
		Incref(v)
	}
	if !a.SetTake(i, v) {
		Decref(v)
	}
}

// SetTake is Set adopting the caller's reference. It reports whether v was stored.
func (a *Array) SetTake(i int, v *Value) bool {
	if a == nil {
		return false
	}
	if i < 0 {
		i += len(a.elems)
		if i < 0 {
			return false
		}
	}
	if v == nil {
		v = NewUndef()
	}
	if i >= len(a.elems) {
		a.grow(i + 1)
		for len(a.elems) < i {
			a.elems = append(a.elems, NewUndef())
		}
		a.elems = append(a.elems, v)
		return true
	}
	old := a.elems[i]
	a.elems[i] = v
	Decref(old)
	return true
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() {
	if a == nil {
		return
	}
	for i, j := 0, len(a.elems)-1; i < j; i, j = i+1, j-1 {
		a.elems[i], a.elems[j] = a.elems[j], a.elems[i]
	}
}

// Clear releases every element and empties the array.
func (a *Array) Clear() {
	if a == nil {
		return
	}
	elems := a.elems
	a.elems = a.elems[:0]
	for i, v := range elems {
		elems[i] = nil
		Decref(v)
	}
}

// Each visits elements in order until fn returns false. Values are borrowed.
func (a *Array) Each(fn func(i int, v *Value) bool) {
	if a == nil {
		return
	}
	for i, v := range a.elems {
		if !fn(i, v) {
			return
		}
	}
}

// Values returns the elements as a borrowed slice copy.
func (a *Array) Values() []*Value {
	if a == nil {
		return nil
	}
	return append([]*Value(nil), a.elems...)
}
