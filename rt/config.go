package rt

import (
	"sync/atomic"

	"strada/internal/trace"
)

// Options tunes process-wide runtime behavior.
type Options struct {
	// ArrayCapacity is the initial slot count of new arrays (0 keeps the current value).
	ArrayCapacity int
	// HashCapacity is the initial bucket count of new hashes (0 keeps the current value).
	HashCapacity int
	// Tracer receives runtime events; nil keeps the current tracer.
	Tracer trace.Tracer
}

const (
	defaultArrayCapacity = 8
	defaultHashCapacity  = 16
)

var (
	arrayCapacity atomic.Int64
	hashCapacity  atomic.Int64
)

func init() {
	arrayCapacity.Store(defaultArrayCapacity)
	hashCapacity.Store(defaultHashCapacity)
}

// Configure applies opts. It is meant to run before generated code starts.
func Configure(opts Options) {
	if opts.ArrayCapacity > 0 {
		arrayCapacity.Store(int64(opts.ArrayCapacity))
	}
	if opts.HashCapacity > 0 {
		hashCapacity.Store(int64(opts.HashCapacity))
	}
	if opts.Tracer != nil {
		SetTracer(opts.Tracer)
	}
}

// DefaultArrayCapacity is the initial capacity of arrays created by NewArray.
func DefaultArrayCapacity() int { return int(arrayCapacity.Load()) }

// DefaultHashCapacity is the initial bucket count of hashes created by NewHash.
func DefaultHashCapacity() int { return int(hashCapacity.Load()) }
