// Package scenario holds self-checking programs written against the rt
// runtime the way compiled Strada code would drive it. Each scenario prints a
// transcript and fails on a wrong result, an uncaught exception or a leak.
package scenario

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
)

// Func runs a scenario, writing its transcript to w.
type Func func(ctx context.Context, w io.Writer) error

// Scenario is a named runtime exercise.
type Scenario struct {
	Name    string
	Summary string
	Run     Func
}

var registry = map[string]Scenario{}

func register(name, summary string, fn Func) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("scenario %q registered twice", name))
	}
	registry[name] = Scenario{Name: name, Summary: summary, Run: fn}
}

// Lookup returns the scenario called name.
func Lookup(name string) (Scenario, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns every registered scenario name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every scenario in name order.
func All() []Scenario {
	names := Names()
	out := make([]Scenario, len(names))
	for i, name := range names {
		out[i] = registry[name]
	}
	return out
}

// Resolve maps names to scenarios, keeping the first occurrence of
// duplicates. An empty list selects everything.
func Resolve(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Scenario, 0, len(names))
	seen := make([]string, 0, len(names))
	for _, name := range names {
		if slices.Contains(seen, name) {
			continue
		}
		s, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (have %v)", name, Names())
		}
		seen = append(seen, name)
		out = append(out, s)
	}
	return out, nil
}

// check turns a failed expectation into an error.
func check(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf(format, args...)
}
