package scenario

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"strada/rt"
)

func init() {
	register("containers", "arrays, hashes, nested references and dumps", runContainers)
	register("structs", "native struct layout and field access", runStructs)
}

func runContainers(_ context.Context, w io.Writer) error {
	nums := rt.NewArray()
	defer rt.Decref(nums)
	a := nums.Array()
	for _, n := range []int64{5, 3, 10, 1} {
		a.PushTake(rt.NewInt(n))
	}
	a.Unshift(rt.NewInt(7))
	last := a.Pop()
	first := a.Shift()
	fmt.Fprintf(w, "pop %s, shift %s, len %d\n", rt.ToStr(last), rt.ToStr(first), a.Len())
	rt.DecrefAll(last, first)

	sorted := rt.Sort(nums)
	nsorted := rt.NSort(nums)
	lex, num := rt.Join(" ", sorted.Array()), rt.Join(" ", nsorted.Array())
	fmt.Fprintf(w, "sort: %s\nnsort: %s\n", rt.ToStr(lex), rt.ToStr(num))
	ok := rt.ToStr(lex) == "10 3 5" && rt.ToStr(num) == "3 5 10"
	rt.DecrefAll(lex, num, sorted, nsorted)
	if err := check(ok, "sort order wrong"); err != nil {
		return err
	}

	ages := rt.NewHash()
	defer rt.Decref(ages)
	h := ages.Hash()
	h.SetTake("alice", rt.NewInt(31))
	h.SetTake("bob", rt.NewInt(27))
	h.SetTake("alice", rt.NewInt(32))
	h.Delete("bob")
	fmt.Fprintf(w, "alice %s, bob exists %t, keys %d\n", rt.ToStr(h.Get("alice")), h.Exists("bob"), h.Len())
	if err := check(h.Len() == 1 && rt.ToInt(h.Get("alice")) == 32, "hash state wrong"); err != nil {
		return err
	}

	// { name => "strada", tags => ["fast", "small"] }
	tags := rt.AnonArray()
	for _, t := range []string{"fast", "small"} {
		rt.DerefArray(tags).PushTake(rt.NewStr(t))
	}
	name := rt.NewStr("strada")
	doc := rt.AnonHash(rt.Entry{Key: "name", Value: name}, rt.Entry{Key: "tags", Value: tags})
	rt.DecrefAll(name, tags)
	defer rt.Decref(doc)
	fmt.Fprintf(w, "ref type: %s, tags: %d\n", rt.RefType(doc), rt.Size(rt.DerefHash(doc).Get("tags")))

	var snap bytes.Buffer
	if err := rt.EncodeSnapshot(&snap, doc); err != nil {
		return err
	}
	back, err := rt.DecodeSnapshot(&snap)
	if err != nil {
		return err
	}
	defer rt.Decref(back)
	io.WriteString(w, rt.DumpString(back))
	bh := rt.DerefHash(back)
	if err := check(rt.ToStr(bh.Get("name")) == "strada" && rt.Size(bh.Get("tags")) == 2, "snapshot round trip changed the value"); err != nil {
		return err
	}

	cp := rt.Clone(doc)
	defer rt.Decref(cp)
	rt.DerefArray(rt.DerefHash(cp).Get("tags")).PushTake(rt.NewStr("extra"))
	return check(rt.Size(rt.DerefHash(doc).Get("tags")) == 2, "clone shares the tag list")
}

func runStructs(_ context.Context, w io.Writer) error {
	def, ok := rt.LookupStruct("point")
	if !ok {
		def = rt.DefineStruct("point")
		for _, f := range []struct{ name, typ string }{{"x", "int"}, {"y", "int"}, {"weight", "double"}} {
			if err := def.AddField(f.name, rt.ParseFieldType(f.typ)); err != nil {
				return err
			}
		}
		def.Finalize()
	}
	p := def.Create()
	defer rt.Decref(p)
	for _, kv := range []struct {
		field string
		val   *rt.Value
	}{{"x", rt.NewInt(3)}, {"y", rt.NewInt(-4)}, {"weight", rt.NewNum(1.5)}} {
		err := def.Set(p, kv.field, kv.val)
		rt.Decref(kv.val)
		if err != nil {
			return err
		}
	}
	x, err := def.Get(p, "x")
	if err != nil {
		return err
	}
	defer rt.Decref(x)
	weight, err := def.Get(p, "weight")
	if err != nil {
		return err
	}
	defer rt.Decref(weight)
	fmt.Fprintf(w, "%s x=%s weight=%s\n", rt.ToStr(p), rt.ToStr(x), rt.ToStr(weight))
	if err := check(rt.ToInt(x) == 3 && rt.ToNum(weight) == 1.5, "struct fields did not round trip"); err != nil {
		return err
	}
	if _, err := def.Get(p, "z"); err == nil {
		return fmt.Errorf("unknown field accepted")
	}
	return nil
}
