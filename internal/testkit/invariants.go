// Package testkit holds consistency checks shared by tests that build rt
// value graphs.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"strada/rt"
)

// CheckValueInvariants walks every value reachable from root and verifies:
// 1) each value is still live (refcount >= 1)
// 2) each refcount covers the holds found inside the graph
// 3) container lengths agree with their iteration
// Cycles and shared containers are followed once. Holds from outside the
// graph are not visible, so counts may exceed the in-graph total but never
// fall below it.
func CheckValueInvariants(root *rt.Value) error {
	if root == nil {
		return fmt.Errorf("nil root")
	}
	inbound := map[*rt.Value]int{root: 0}
	order := []*rt.Value{root}
	arrays := map[*rt.Array]bool{}
	hashes := map[*rt.Hash]bool{}
	var walkErr error

	visit := func(child *rt.Value) {
		if child == nil {
			walkErr = fmt.Errorf("nil slot inside the graph")
			return
		}
		if _, seen := inbound[child]; !seen {
			order = append(order, child)
		}
		inbound[child]++
	}

	for i := 0; i < len(order) && walkErr == nil; i++ {
		v := order[i]
		if rt.Refcount(v) < 1 {
			return fmt.Errorf("%s value reachable after free", v.Kind())
		}
		switch v.Kind() {
		case rt.KindRef:
			visit(v.Target())
		case rt.KindArray:
			if arrays[v.Array()] {
				continue
			}
			arrays[v.Array()] = true
			n := 0
			v.Array().Each(func(_ int, e *rt.Value) bool {
				n++
				visit(e)
				return walkErr == nil
			})
			if walkErr == nil && n != v.Array().Len() {
				return fmt.Errorf("array iterates %d elements but reports %d", n, v.Array().Len())
			}
		case rt.KindHash:
			if hashes[v.Hash()] {
				continue
			}
			hashes[v.Hash()] = true
			n := 0
			v.Hash().Each(func(_ string, e *rt.Value) bool {
				n++
				visit(e)
				return walkErr == nil
			})
			if walkErr == nil && n != v.Hash().Len() {
				return fmt.Errorf("hash iterates %d entries but reports %d", n, v.Hash().Len())
			}
		case rt.KindClosure:
			for _, c := range v.Closure().Captures() {
				visit(c)
			}
		}
	}
	if walkErr != nil {
		return walkErr
	}

	for v, n := range inbound {
		holds, err := safecast.Conv[int32](n)
		if err != nil {
			return fmt.Errorf("hold count overflow: %w", err)
		}
		if rc := rt.Refcount(v); rc < holds {
			return fmt.Errorf("%s value has refcount %d but %d holds in the graph", v.Kind(), rc, holds)
		}
	}
	return nil
}
