package rt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDumpScalars(t *testing.T) {
	cases := []struct {
		v    *Value
		want string
	}{
		{NewUndef(), "$VAR = undef;\n"},
		{NewInt(-7), "$VAR = -7;\n"},
		{NewNum(0.5), "$VAR = 0.5;\n"},
		{NewStr("a\"b\n"), "$VAR = \"a\\\"b\\n\";\n"},
	}
	for _, tc := range cases {
		if got := DumpString(tc.v); got != tc.want {
			t.Errorf("dump = %q, want %q", got, tc.want)
		}
		Decref(tc.v)
	}
}

func TestDumpNested(t *testing.T) {
	one, two := NewInt(1), NewInt(2)
	inner := AnonArray(one, two)
	DecrefAll(one, two)
	h := AnonHash(Entry{Key: "list", Value: inner})
	Decref(inner)
	defer Decref(h)

	want := "$VAR = \\{\n" +
		"  'list' => \\[\n" +
		"    1,\n" +
		"    2\n" +
		"  ],\n" +
		"};\n"
	if got := DumpString(h); got != want {
		t.Fatalf("dump =\n%s\nwant\n%s", got, want)
	}
}

func TestDumpBlessedAndCycle(t *testing.T) {
	obj := AnonHash()
	_ = Bless(obj, "TDump")
	if got := DumpString(obj); got != "$VAR = bless({\n}, 'TDump');\n" {
		t.Fatalf("blessed dump = %q", got)
	}

	// obj->{self} = obj
	DerefHash(obj).Set("self", obj)
	got := DumpString(obj)
	if !strings.Contains(got, "'self' => CYCLE") {
		t.Fatalf("cycle not marked:\n%s", got)
	}
	// break the cycle so the object can be freed
	DerefHash(obj).Delete("self")
	Decref(obj)
}

func TestDumpOtherKinds(t *testing.T) {
	rx, err := NewRegex("a+b", "i")
	if err != nil {
		t.Fatal(err)
	}
	defer Decref(rx)
	if got := DumpString(rx); got != "$VAR = qr/a+b/i;\n" {
		t.Fatalf("regex dump = %q", got)
	}
	s := NewStruct("point", 16)
	defer Decref(s)
	if got := DumpString(s); got != "$VAR = CSTRUCT(point, 16 bytes);\n" {
		t.Fatalf("struct dump = %q", got)
	}
	fh := NewFileHandle(nil)
	defer Decref(fh)
	if got := DumpString(fh); got != "$VAR = FILEHANDLE(closed);\n" {
		t.Fatalf("filehandle dump = %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDumpReportsWriteError(t *testing.T) {
	v := NewInt(1)
	defer Decref(v)
	if err := Dump(failingWriter{}, v); err == nil {
		t.Fatal("expected write error")
	}
	var buf bytes.Buffer
	if err := Dump(&buf, v); err != nil || buf.String() != "$VAR = 1;\n" {
		t.Fatalf("dump = %q, %v", buf.String(), err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	checkLive(t, func() {
		shared := AnonArray()
		DerefArray(shared).PushTake(NewStr("x"))
		DerefArray(shared).PushTake(NewNum(2.5))
		root := AnonHash(Entry{Key: "a", Value: shared}, Entry{Key: "b", Value: shared})
		Decref(shared)
		DerefHash(root).SetTake("n", NewInt(-3))
		DerefHash(root).Set("me", root)
		_ = Bless(root, "TSnap")

		var buf bytes.Buffer
		if err := EncodeSnapshot(&buf, root); err != nil {
			t.Fatal(err)
		}
		DerefHash(root).Delete("me")
		Decref(root)

		got, err := DecodeSnapshot(&buf)
		if err != nil {
			t.Fatal(err)
		}
		h := DerefHash(got)
		if Blessed(got) != "TSnap" {
			t.Fatalf("blessing lost: %q", Blessed(got))
		}
		if ToInt(h.Get("n")) != -3 {
			t.Fatalf("n = %d", ToInt(h.Get("n")))
		}
		if h.Get("a") != h.Get("b") {
			t.Fatal("shared reference decoded twice")
		}
		arr := DerefArray(h.Get("a"))
		if arr.Len() != 2 || ToStr(arr.Get(0)) != "x" || ToNum(arr.Get(1)) != 2.5 {
			t.Fatalf("array decoded as %s", DumpString(h.Get("a")))
		}
		if h.Get("me") != got {
			t.Fatal("cycle not restored")
		}
		h.Delete("me")
		Decref(got)
	})
}

func TestSnapshotHostKindsBecomeStrings(t *testing.T) {
	p := NewPointer(struct{}{})
	defer Decref(p)
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, p); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer Decref(got)
	if got.Kind() != KindStr || !strings.HasPrefix(ToStr(got), "CPOINTER(") {
		t.Fatalf("decoded %s %q", TypeOf(got), ToStr(got))
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot(strings.NewReader("not msgpack")); err == nil {
		t.Fatal("expected decode error")
	}
}
