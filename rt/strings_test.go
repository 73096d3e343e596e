package rt

import (
	"slices"
	"testing"
)

func strOf(t *testing.T, v *Value) string {
	t.Helper()
	s := ToStr(v)
	Decref(v)
	return s
}

func TestStringOps(t *testing.T) {
	hello := NewStr("héllo wörld")
	defer Decref(hello)
	n := NewInt(42)
	defer Decref(n)

	if got := strOf(t, Concat(hello, n)); got != "héllo wörld42" {
		t.Errorf("concat = %q", got)
	}
	if Length(hello) != 11 {
		t.Errorf("length = %d, want 11 code points", Length(hello))
	}
	if Size(hello) != 13 {
		t.Errorf("size = %d, want 13 bytes", Size(hello))
	}
	if got := strOf(t, Uc(hello)); got != "HÉLLO WÖRLD" {
		t.Errorf("uc = %q", got)
	}
	if got := strOf(t, Ucfirst(hello)); got != "Héllo wörld" {
		t.Errorf("ucfirst = %q", got)
	}
	upper := NewStr("ABC")
	defer Decref(upper)
	if got := strOf(t, Lc(upper)); got != "abc" {
		t.Errorf("lc = %q", got)
	}
	if got := strOf(t, Lcfirst(upper)); got != "aBC" {
		t.Errorf("lcfirst = %q", got)
	}
	if got := strOf(t, Repeat(n, 3)); got != "424242" {
		t.Errorf("repeat = %q", got)
	}
	if got := strOf(t, Repeat(n, -1)); got != "" {
		t.Errorf("repeat(-1) = %q", got)
	}
}

func TestSubstr(t *testing.T) {
	s := NewStr("héllo")
	defer Decref(s)
	cases := []struct {
		off, n int
		want   string
	}{
		{1, 3, "éll"},
		{-2, 10, "lo"},
		{0, -1, "héllo"},
		{9, 1, ""},
		{-9, 2, "hé"},
	}
	for _, tc := range cases {
		if got := strOf(t, Substr(s, tc.off, tc.n)); got != tc.want {
			t.Errorf("substr(%d, %d) = %q, want %q", tc.off, tc.n, got, tc.want)
		}
	}
}

func collect(v *Value) []string {
	var out []string
	DerefArray(v).Each(func(_ int, e *Value) bool {
		out = append(out, ToStr(e))
		return true
	})
	return out
}

func TestSortAndNSort(t *testing.T) {
	checkLive(t, func() {
		src := NewArray()
		for _, n := range []int64{10, 9, 100, 1} {
			src.Array().PushTake(NewInt(n))
		}
		sorted := Sort(src)
		if got := collect(sorted); !slices.Equal(got, []string{"1", "10", "100", "9"}) {
			t.Errorf("sort = %v", got)
		}
		nsorted := NSort(src)
		if got := collect(nsorted); !slices.Equal(got, []string{"1", "9", "10", "100"}) {
			t.Errorf("nsort = %v", got)
		}
		if got := collect(src); !slices.Equal(got, []string{"10", "9", "100", "1"}) {
			t.Errorf("source modified: %v", got)
		}
		DecrefAll(sorted, nsorted, src)
	})
}

func TestRange(t *testing.T) {
	checkLive(t, func() {
		one, five := NewInt(1), NewInt(5)
		up := Range(one, five)
		if got := collect(up); !slices.Equal(got, []string{"1", "2", "3", "4", "5"}) {
			t.Errorf("1..5 = %v", got)
		}
		down := Range(five, one)
		if got := collect(down); !slices.Equal(got, []string{"5", "4", "3", "2", "1"}) {
			t.Errorf("5..1 = %v", got)
		}
		same := Range(one, one)
		if same.Array().Len() != 1 {
			t.Errorf("1..1 has %d elements", same.Array().Len())
		}
		DecrefAll(up, down, same, one, five)
	})
}

func TestJoinAndPackArgs(t *testing.T) {
	checkLive(t, func() {
		a, b := NewStr("x"), NewInt(2)
		args := PackArgs(a, b)
		if got := strOf(t, Join("-", args.Array())); got != "x-2" {
			t.Errorf("join = %q", got)
		}
		if Refcount(a) != 2 {
			t.Errorf("PackArgs should share its arguments, refcount %d", Refcount(a))
		}
		DecrefAll(args, a, b)
	})
}

func TestClonePreservesSharingAndBlessing(t *testing.T) {
	checkLive(t, func() {
		leaf := AnonArray()
		DerefArray(leaf).PushTake(NewStr("leaf"))
		root := AnonHash(Entry{Key: "l", Value: leaf}, Entry{Key: "r", Value: leaf})
		Decref(leaf)
		_ = Bless(root, "TClone")

		cp := Clone(root)
		if cp == root || Blessed(cp) != "TClone" {
			t.Fatal("clone should be a new blessed value")
		}
		ch := DerefHash(cp)
		if ch.Get("l") != ch.Get("r") {
			t.Fatal("shared substructure duplicated")
		}
		if ch.Get("l") == DerefHash(root).Get("l") {
			t.Fatal("clone shares the original's substructure")
		}
		DerefArray(ch.Get("l")).PushTake(NewInt(1))
		if DerefArray(DerefHash(root).Get("l")).Len() != 1 {
			t.Fatal("mutating the clone changed the original")
		}
		DecrefAll(cp, root)
	})
}

func TestCloneCycle(t *testing.T) {
	checkLive(t, func() {
		root := AnonHash()
		DerefHash(root).Set("self", root)
		cp := Clone(root)
		if DerefHash(cp).Get("self") != cp {
			t.Fatal("cycle not preserved")
		}
		DerefHash(cp).Delete("self")
		DerefHash(root).Delete("self")
		DecrefAll(cp, root)
	})
}
