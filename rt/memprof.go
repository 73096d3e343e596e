package rt

import "sync/atomic"

type kindCounters struct {
	allocs  atomic.Uint64
	frees   atomic.Uint64
	current atomic.Int64
	peak    atomic.Int64
}

type memCounters struct {
	kinds [kindCount]kindCounters

	arrayAllocs atomic.Uint64
	arrayFrees  atomic.Uint64
	hashAllocs  atomic.Uint64
	hashFrees   atomic.Uint64
	rcIncr      atomic.Uint64
	rcDecr      atomic.Uint64
}

var mem memCounters

func memAlloc(k Kind) {
	c := &mem.kinds[k]
	c.allocs.Add(1)
	cur := c.current.Add(1)
	for {
		peak := c.peak.Load()
		if cur <= peak || c.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}

func memFree(k Kind) {
	c := &mem.kinds[k]
	c.frees.Add(1)
	c.current.Add(-1)
}

// KindStats is the allocation record of one value kind.
type KindStats struct {
	Kind    Kind
	Allocs  uint64
	Frees   uint64
	Current int64
	Peak    int64
}

// MemStats is a point-in-time copy of the allocation counters.
type MemStats struct {
	Kinds       []KindStats
	ArrayAllocs uint64
	ArrayFrees  uint64
	HashAllocs  uint64
	HashFrees   uint64
	RCIncr      uint64
	RCDecr      uint64
}

// Live is the number of values allocated and not yet freed.
func (s MemStats) Live() int64 {
	var n int64
	for _, k := range s.Kinds {
		n += k.Current
	}
	return n
}

// Of returns the record for kind k.
func (s MemStats) Of(k Kind) KindStats {
	for _, ks := range s.Kinds {
		if ks.Kind == k {
			return ks
		}
	}
	return KindStats{Kind: k}
}

// ReadMemStats snapshots the counters. Counters are read individually, so a
// snapshot taken while other goroutines allocate is only approximately consistent.
func ReadMemStats() MemStats {
	s := MemStats{
		Kinds:       make([]KindStats, 0, kindCount),
		ArrayAllocs: mem.arrayAllocs.Load(),
		ArrayFrees:  mem.arrayFrees.Load(),
		HashAllocs:  mem.hashAllocs.Load(),
		HashFrees:   mem.hashFrees.Load(),
		RCIncr:      mem.rcIncr.Load(),
		RCDecr:      mem.rcDecr.Load(),
	}
	for k := Kind(0); k < kindCount; k++ {
		c := &mem.kinds[k]
		s.Kinds = append(s.Kinds, KindStats{
			Kind:    k,
			Allocs:  c.allocs.Load(),
			Frees:   c.frees.Load(),
			Current: c.current.Load(),
			Peak:    c.peak.Load(),
		})
	}
	return s
}

// LiveValues is a shortcut for ReadMemStats().Live().
func LiveValues() int64 {
	return ReadMemStats().Live()
}

// ResetMemStats zeroes the history counters and rebases peaks on the live counts.
func ResetMemStats() {
	for k := range mem.kinds {
		c := &mem.kinds[k]
		c.allocs.Store(0)
		c.frees.Store(0)
		c.peak.Store(c.current.Load())
	}
	mem.arrayAllocs.Store(0)
	mem.arrayFrees.Store(0)
	mem.hashAllocs.Store(0)
	mem.hashFrees.Store(0)
	mem.rcIncr.Store(0)
	mem.rcDecr.Store(0)
}
