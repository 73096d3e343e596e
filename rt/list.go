package rt

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
)

// Size returns the element count of an array or hash, or the byte length of
// a string, looking through one level of reference.
func Size(v *Value) int {
	if v.Kind() == KindRef {
		v = v.rv
	}
	switch v.Kind() {
	case KindArray:
		return v.av.Len()
	case KindHash:
		return v.hv.Len()
	case KindStr:
		return len(v.sv)
	}
	return 0
}

func sortedCopy(v *Value, less func(a, b *Value) int) *Value {
	out := NewArray()
	src := DerefArray(v)
	if src.Len() == 0 {
		return out
	}
	out.av.Reserve(src.Len())
	src.Each(func(_ int, e *Value) bool {
		out.av.Push(e)
		return true
	})
	slices.SortStableFunc(out.av.elems, less)
	return out
}

// Sort returns a new array with the elements of v (an array or array
// reference) in string order.
func Sort(v *Value) *Value {
	return sortedCopy(v, func(a, b *Value) int {
		return bytes.Compare(strBytes(a), strBytes(b))
	})
}

// NSort returns a new array with the elements of v in numeric order.
func NSort(v *Value) *Value {
	return sortedCopy(v, func(a, b *Value) int {
		return cmp.Compare(ToNum(a), ToNum(b))
	})
}

// strBytes avoids a copy for string values.
func strBytes(v *Value) []byte {
	if v.Kind() == KindStr {
		return v.sv
	}
	return []byte(ToStr(v))
}

// Range returns start..end inclusive, counting down when start > end.
func Range(start, end *Value) *Value {
	lo, hi := floatToInt(ToNum(start)), floatToInt(ToNum(end))
	out := NewArray()
	if lo <= hi {
		if n, ok := index(hi - lo + 1); ok && n > 0 {
			out.av.Reserve(n)
		}
		for i := lo; ; i++ {
			out.av.PushTake(NewInt(i))
			if i == hi {
				break
			}
		}
		return out
	}
	for i := lo; ; i-- {
		out.av.PushTake(NewInt(i))
		if i == hi {
			break
		}
	}
	return out
}

// Join concatenates the string forms of a's elements with sep.
func Join(sep string, a *Array) *Value {
	var b strings.Builder
	a.Each(func(i int, e *Value) bool {
		if i > 0 {
			b.WriteString(sep)
		}
		b.Write(strBytes(e))
		return true
	})
	return NewStr(b.String())
}

// PackArgs collects call arguments into a new array value (the @_ of a call).
func PackArgs(args ...*Value) *Value {
	out := NewArray()
	out.av.Reserve(len(args))
	for _, a := range args {
		out.av.Push(a)
	}
	return out
}
