package rt

// step returns v+delta. Integers (and undef) stay integral, anything else
// goes through ToNum.
func step(v *Value, delta int64) *Value {
	switch v.Kind() {
	case KindInt:
		return NewInt(v.iv + delta)
	case KindUndef:
		return NewInt(delta)
	}
	return NewNum(ToNum(v) + float64(delta))
}

// PreIncr replaces *slot with its successor and returns the new value,
// borrowed from the slot.
func PreIncr(slot **Value) *Value { return preStep(slot, 1) }

// PreDecr replaces *slot with its predecessor and returns the new value,
// borrowed from the slot.
func PreDecr(slot **Value) *Value { return preStep(slot, -1) }

// PostIncr replaces *slot with its successor and returns the old value,
// whose hold passes from the slot to the caller.
func PostIncr(slot **Value) *Value { return postStep(slot, 1) }

// PostDecr is PostIncr counting down.
func PostDecr(slot **Value) *Value { return postStep(slot, -1) }

func preStep(slot **Value, delta int64) *Value {
	if slot == nil {
		return NewUndef()
	}
	old := *slot
	*slot = step(old, delta)
	Decref(old)
	return *slot
}

func postStep(slot **Value, delta int64) *Value {
	if slot == nil {
		return NewUndef()
	}
	old := *slot
	*slot = step(old, delta)
	if old == nil {
		return NewUndef()
	}
	return old
}
