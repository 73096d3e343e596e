package rt

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"sync"
)

// FieldType is the storage class of a native struct field.
type FieldType uint8

const (
	FieldInt FieldType = iota + 1 // 4 bytes, native int
	FieldNum                      // 8 bytes, double
	FieldStr                      // 64-byte NUL-padded buffer
	FieldPtr                      // 8 bytes, opaque address or handle
)

// strFieldSize is the fixed buffer size of FieldStr.
const strFieldSize = 64

// ParseFieldType maps a declared type name to its storage class. Unknown
// names are stored as int.
func ParseFieldType(name string) FieldType {
	switch strings.ToLower(name) {
	case "num", "double", "float":
		return FieldNum
	case "str", "string":
		return FieldStr
	case "ptr", "pointer":
		return FieldPtr
	default:
		return FieldInt
	}
}

func (t FieldType) layout() (size, align int) {
	switch t {
	case FieldNum, FieldPtr:
		return 8, 8
	case FieldStr:
		return strFieldSize, 1
	default:
		return 4, 4
	}
}

// Field is a laid-out member of a StructDef.
type Field struct {
	Name   string
	Type   FieldType
	Offset int
	Size   int
}

// StructDef describes the byte layout of a native struct.
type StructDef struct {
	Name   string
	Fields []Field
	Size   int
	final  bool
}

var structDefs = struct {
	sync.RWMutex
	m map[string]*StructDef
}{m: make(map[string]*StructDef)}

// DefineStruct starts a layout named name and registers it.
func DefineStruct(name string) *StructDef {
	def := &StructDef{Name: name}
	structDefs.Lock()
	structDefs.m[name] = def
	structDefs.Unlock()
	return def
}

// LookupStruct returns the layout registered under name.
func LookupStruct(name string) (*StructDef, bool) {
	structDefs.RLock()
	defer structDefs.RUnlock()
	def, ok := structDefs.m[name]
	return def, ok
}

// AddField appends a field with natural alignment.
func (d *StructDef) AddField(name string, t FieldType) error {
	if d.final {
		return newError(CodeStructLayout, "struct %s is finalized", d.Name)
	}
	if _, ok := d.field(name); ok {
		return newError(CodeStructLayout, "struct %s already has field %q", d.Name, name)
	}
	size, align := t.layout()
	off := (d.Size + align - 1) / align * align
	d.Fields = append(d.Fields, Field{Name: name, Type: t, Offset: off, Size: size})
	d.Size = off + size
	return nil
}

// Finalize pads the size to a multiple of 8 and freezes the layout.
func (d *StructDef) Finalize() {
	if d.final {
		return
	}
	d.Size = (d.Size + 7) / 8 * 8
	d.final = true
}

func (d *StructDef) field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Create returns a zeroed instance of d.
func (d *StructDef) Create() *Value {
	d.Finalize()
	return NewStruct(d.Name, d.Size)
}

// Set stores the conversion of val into field name of s.
func (d *StructDef) Set(s *Value, name string, val *Value) error {
	f, ok := d.field(name)
	if !ok {
		return newError(CodeStructLayout, "struct %s has no field %q", d.Name, name)
	}
	buf := make([]byte, f.Size)
	switch f.Type {
	case FieldInt:
		binary.NativeEndian.PutUint32(buf, uint32(ToInt32(val)))
	case FieldNum:
		binary.NativeEndian.PutUint64(buf, math.Float64bits(ToNum(val)))
	case FieldPtr:
		binary.NativeEndian.PutUint64(buf, ToUint64(val))
	case FieldStr:
		// one byte is kept for the terminator
		copy(buf[:f.Size-1], ToStr(val))
	}
	return StructSetField(s, f.Offset, buf)
}

// Get reads field name of s as a value.
func (d *StructDef) Get(s *Value, name string) (*Value, error) {
	f, ok := d.field(name)
	if !ok {
		return nil, newError(CodeStructLayout, "struct %s has no field %q", d.Name, name)
	}
	buf, err := StructField(s, f.Offset, f.Size)
	if err != nil {
		return nil, err
	}
	switch f.Type {
	case FieldNum:
		return NewNum(math.Float64frombits(binary.NativeEndian.Uint64(buf))), nil
	case FieldPtr:
		return FromUint64(binary.NativeEndian.Uint64(buf)), nil
	case FieldStr:
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			buf = buf[:i]
		}
		return NewStrBytes(buf), nil
	default:
		return FromInt32(int32(binary.NativeEndian.Uint32(buf))), nil
	}
}

// StructSetField copies data into s at offset.
func StructSetField(s *Value, offset int, data []byte) error {
	if s.Kind() != KindStruct {
		return newError(CodeUnsupportedValue, "%s value is not a native struct", s.Kind())
	}
	if offset < 0 || offset+len(data) > len(s.sv) {
		return newError(CodeOutOfRange, "field [%d,%d) outside struct %s of %d bytes", offset, offset+len(data), s.name, len(s.sv))
	}
	copy(s.sv[offset:], data)
	return nil
}

// StructField returns a copy of size bytes of s at offset.
func StructField(s *Value, offset, size int) ([]byte, error) {
	if s.Kind() != KindStruct {
		return nil, newError(CodeUnsupportedValue, "%s value is not a native struct", s.Kind())
	}
	if offset < 0 || size < 0 || offset+size > len(s.sv) {
		return nil, newError(CodeOutOfRange, "field [%d,%d) outside struct %s of %d bytes", offset, offset+size, s.name, len(s.sv))
	}
	return append([]byte(nil), s.sv[offset:offset+size]...), nil
}
