package rt

import (
	"errors"
	"testing"
)

func TestStructLayout(t *testing.T) {
	def := DefineStruct("TPoint")
	for _, f := range []struct {
		name string
		typ  string
	}{
		{"x", "int"},
		{"weight", "double"},
		{"label", "string"},
		{"y", "int"},
		{"next", "ptr"},
	} {
		if err := def.AddField(f.name, ParseFieldType(f.typ)); err != nil {
			t.Fatal(err)
		}
	}
	def.Finalize()

	want := map[string]int{"x": 0, "weight": 8, "label": 16, "y": 80, "next": 88}
	for _, f := range def.Fields {
		if want[f.Name] != f.Offset {
			t.Errorf("%s at %d, want %d", f.Name, f.Offset, want[f.Name])
		}
	}
	if def.Size != 96 {
		t.Fatalf("size = %d, want 96", def.Size)
	}
	if err := def.AddField("late", FieldInt); !errors.Is(err, ErrStructLayout) {
		t.Fatalf("add after finalize: %v", err)
	}
	if got, ok := LookupStruct("TPoint"); !ok || got != def {
		t.Fatal("struct not registered")
	}
}

func TestStructFieldRoundTrip(t *testing.T) {
	def := DefineStruct("TRecord")
	_ = def.AddField("id", FieldInt)
	_ = def.AddField("score", FieldNum)
	_ = def.AddField("name", FieldStr)
	if err := def.AddField("id", FieldInt); !errors.Is(err, ErrStructLayout) {
		t.Fatalf("duplicate field: %v", err)
	}
	s := def.Create()
	defer Decref(s)
	if s.StructName() != "TRecord" || len(s.Bytes()) != def.Size {
		t.Fatalf("instance %q of %d bytes", s.StructName(), len(s.Bytes()))
	}

	set := func(name string, v *Value) {
		t.Helper()
		defer Decref(v)
		if err := def.Set(s, name, v); err != nil {
			t.Fatal(err)
		}
	}
	set("id", NewInt(-12))
	set("score", NewNum(9.75))
	set("name", NewStr("ada"))

	get := func(name string) *Value {
		t.Helper()
		v, err := def.Get(s, name)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { Decref(v) })
		return v
	}
	if ToInt(get("id")) != -12 {
		t.Errorf("id = %d", ToInt(get("id")))
	}
	if ToNum(get("score")) != 9.75 {
		t.Errorf("score = %v", ToNum(get("score")))
	}
	if ToStr(get("name")) != "ada" {
		t.Errorf("name = %q", ToStr(get("name")))
	}
	if _, err := def.Get(s, "missing"); !errors.Is(err, ErrStructLayout) {
		t.Errorf("missing field: %v", err)
	}
}

func TestStructStringFieldTruncates(t *testing.T) {
	def := DefineStruct("TLabel")
	_ = def.AddField("text", FieldStr)
	s := def.Create()
	defer Decref(s)
	long := NewStr(string(make([]byte, 100)) + "tail")
	defer Decref(long)
	for i := range long.sv[:100] {
		long.sv[i] = 'a'
	}
	if err := def.Set(s, "text", long); err != nil {
		t.Fatal(err)
	}
	v, _ := def.Get(s, "text")
	defer Decref(v)
	if len(ToStr(v)) != strFieldSize-1 {
		t.Fatalf("stored %d bytes, want %d", len(ToStr(v)), strFieldSize-1)
	}
}

func TestStructBoundsChecked(t *testing.T) {
	s := NewStruct("raw", 8)
	defer Decref(s)
	if err := StructSetField(s, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := StructSetField(s, 6, []byte{1, 2, 3}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("overflowing write: %v", err)
	}
	b, err := StructField(s, 4, 4)
	if err != nil || b[0] != 1 || b[3] != 4 {
		t.Fatalf("read = %v, %v", b, err)
	}
	b[0] = 99
	if s.Bytes()[4] != 1 {
		t.Fatal("StructField must return a copy")
	}
	if _, err := StructField(s, -1, 2); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative offset: %v", err)
	}
	notStruct := NewInt(1)
	defer Decref(notStruct)
	if err := StructSetField(notStruct, 0, nil); !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("non-struct: %v", err)
	}
}
