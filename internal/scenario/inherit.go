package scenario

import (
	"context"
	"fmt"
	"io"
	"strings"

	"strada/rt"
)

func init() {
	register("inherit", "diamond inheritance, depth-first lookup and SUPER chains", runInherit)
}

func strMethod(s string) rt.Method {
	return func(*rt.Value, ...*rt.Value) *rt.Value { return rt.NewStr(s) }
}

// defineAnimals builds Duck(Flyer, Swimmer) with both parents inheriting
// Animal.
func defineAnimals() {
	rt.Inherit("Flyer", "Animal")
	rt.Inherit("Swimmer", "Animal")
	rt.Inherit("Duck", "Flyer")
	rt.Inherit("Duck", "Swimmer")

	rt.RegisterMethod("Animal", "speak", strMethod("..."))
	rt.RegisterMethod("Animal", "legs", strMethod("4"))
	rt.RegisterMethod("Flyer", "move", strMethod("flies"))
	rt.RegisterMethod("Swimmer", "move", strMethod("swims"))
	rt.RegisterMethod("Swimmer", "dive", strMethod("dives"))
	rt.RegisterMethod("Flyer", "legs", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
		return rt.NewStr("2")
	})
	rt.RegisterMethod("Duck", "speak", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
		base, err := rt.Super(self, "speak")
		if err != nil {
			rt.ThrowString(err.Error())
		}
		out := rt.NewStr("Quack " + rt.ToStr(base))
		rt.Decref(base)
		return out
	})
}

// defineChain builds Puppy -> Dog -> Beast where each describe appends to
// its SUPER result.
func defineChain() {
	rt.Inherit("Dog", "Beast")
	rt.Inherit("Puppy", "Dog")
	for _, pkg := range []string{"Beast", "Dog", "Puppy"} {
		rt.RegisterMethod(pkg, "describe", func(self *rt.Value, _ ...*rt.Value) *rt.Value {
			if pkg == "Beast" {
				return rt.NewStr(pkg)
			}
			base := func() *rt.Value {
				v, err := rt.Super(self, "describe")
				if err != nil {
					rt.ThrowString(err.Error())
				}
				return v
			}()
			out := rt.NewStr(rt.ToStr(base) + ">" + pkg)
			rt.Decref(base)
			return out
		})
	}
}

func call(obj *rt.Value, method string) string {
	v := rt.MustCall(obj, method)
	defer rt.Decref(v)
	return rt.ToStr(v)
}

func runInherit(_ context.Context, w io.Writer) error {
	defineAnimals()
	defineChain()

	duck := rt.AnonHash()
	defer rt.Decref(duck)
	if err := rt.Bless(duck, "Duck"); err != nil {
		return err
	}
	fmt.Fprintf(w, "Duck ISA: %s\n", strings.Join(rt.Parents("Duck"), " "))

	moves, speech, legs, dive := call(duck, "move"), call(duck, "speak"), call(duck, "legs"), call(duck, "dive")
	fmt.Fprintf(w, "move: %s\nspeak: %s\nlegs: %s\ndive: %s\n", moves, speech, legs, dive)
	for _, pkg := range []string{"Duck", "Flyer", "Swimmer", "Animal", "Counter"} {
		fmt.Fprintf(w, "isa %s: %t\n", pkg, rt.Isa(duck, pkg))
	}

	if err := check(moves == "flies", "move resolved to %q, want the leftmost parent", moves); err != nil {
		return err
	}
	if err := check(speech == "Quack ...", "speak = %q", speech); err != nil {
		return err
	}
	if err := check(legs == "2", "legs = %q, Flyer should win over Animal", legs); err != nil {
		return err
	}
	if err := check(rt.Isa(duck, "Animal") && !rt.Isa(duck, "Counter"), "isa through the diamond is wrong"); err != nil {
		return err
	}

	pup := rt.AnonHash()
	defer rt.Decref(pup)
	if err := rt.Bless(pup, "Puppy"); err != nil {
		return err
	}
	chain := call(pup, "describe")
	fmt.Fprintf(w, "describe: %s\n", chain)
	return check(chain == "Beast>Dog>Puppy", "SUPER chain = %q", chain)
}
