package rt

import (
	"io"
	"net"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
)

// Kind is the variant tag of a Value.
type Kind uint8

const (
	KindUndef Kind = iota
	KindInt
	KindNum
	KindStr
	KindArray
	KindHash
	KindRef
	KindFileHandle
	KindRegex
	KindSocket
	KindStruct
	KindPointer
	KindClosure

	kindCount
)

var kindNames = [kindCount]string{
	KindUndef:      "undef",
	KindInt:        "int",
	KindNum:        "num",
	KindStr:        "str",
	KindArray:      "array",
	KindHash:       "hash",
	KindRef:        "ref",
	KindFileHandle: "filehandle",
	KindRegex:      "regex",
	KindSocket:     "socket",
	KindStruct:     "cstruct",
	KindPointer:    "cpointer",
	KindClosure:    "closure",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the tagged runtime datum. Every constructor returns a Value with
// refcount 1; the last Decref frees it. A nil *Value reads as undef.
type Value struct {
	refs atomic.Int32
	kind Kind

	// blessed is only valid on KindRef.
	blessed   string
	destroyed bool

	iv   int64
	nv   float64
	sv   []byte // str and cstruct payload
	name string // cstruct name
	av   *Array
	hv   *Hash
	rv   *Value
	res  *resource
	rx   *Regex
	ptr  any
	cl   *Closure
}

func newValue(kind Kind) *Value {
	v := &Value{kind: kind}
	v.refs.Store(1)
	memAlloc(kind)
	return v
}

// NewUndef returns a fresh undef.
func NewUndef() *Value { return newValue(KindUndef) }

// NewInt returns an integer value.
func NewInt(n int64) *Value {
	v := newValue(KindInt)
	v.iv = n
	return v
}

// NewNum returns a floating point value.
func NewNum(f float64) *Value {
	v := newValue(KindNum)
	v.nv = f
	return v
}

// NewStr returns a string value.
func NewStr(s string) *Value {
	v := newValue(KindStr)
	v.sv = []byte(s)
	return v
}

// NewStrBytes copies b into a binary-safe string value.
func NewStrBytes(b []byte) *Value {
	v := newValue(KindStr)
	v.sv = append([]byte(nil), b...)
	return v
}

// NewArray returns an empty array value backed by a fresh container.
func NewArray() *Value {
	v := newValue(KindArray)
	v.av = newArray(DefaultArrayCapacity())
	return v
}

// NewHash returns an empty hash value backed by a fresh container.
func NewHash() *Value {
	v := newValue(KindHash)
	v.hv = newHash(DefaultHashCapacity())
	return v
}

// NewArrayValue wraps an existing container, sharing it.
func NewArrayValue(a *Array) *Value {
	if a == nil {
		return NewArray()
	}
	a.Retain()
	v := newValue(KindArray)
	v.av = a
	return v
}

// NewHashValue wraps an existing container, sharing it.
func NewHashValue(h *Hash) *Value {
	if h == nil {
		return NewHash()
	}
	h.Retain()
	v := newValue(KindHash)
	v.hv = h
	return v
}

// NewFileHandle wraps f. The file is closed with the last holder unless it
// is one of the standard streams.
func NewFileHandle(f *os.File) *Value {
	v := newValue(KindFileHandle)
	if f != nil {
		owned := f != os.Stdin && f != os.Stdout && f != os.Stderr
		v.res = newResource(f, owned)
		v.res.file = f
	}
	return v
}

// NewSocket wraps a connection; it is closed with the last holder.
func NewSocket(c net.Conn) *Value {
	v := newValue(KindSocket)
	if c != nil {
		v.res = newResource(c, true)
		v.res.conn = c
	}
	return v
}

// NewStruct returns a zeroed native struct of size bytes.
func NewStruct(name string, size int) *Value {
	if size < 0 {
		size = 0
	}
	v := newValue(KindStruct)
	v.name = name
	v.sv = make([]byte, size)
	return v
}

// NewPointer wraps an unmanaged host object.
func NewPointer(p any) *Value {
	v := newValue(KindPointer)
	v.ptr = p
	return v
}

// Kind reports the variant; nil reads as KindUndef.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindUndef
	}
	return v.kind
}

// Bytes returns the string or struct payload. The slice is borrowed.
func (v *Value) Bytes() []byte {
	switch v.Kind() {
	case KindStr, KindStruct:
		return v.sv
	}
	return nil
}

// Array returns the backing container of an array value (borrowed).
func (v *Value) Array() *Array {
	if v.Kind() != KindArray {
		return nil
	}
	return v.av
}

// Hash returns the backing container of a hash value (borrowed).
func (v *Value) Hash() *Hash {
	if v.Kind() != KindHash {
		return nil
	}
	return v.hv
}

// Target returns the referent of a reference (borrowed).
func (v *Value) Target() *Value {
	if v.Kind() != KindRef {
		return nil
	}
	return v.rv
}

// File returns the wrapped file of a filehandle.
func (v *Value) File() *os.File {
	if v.Kind() != KindFileHandle || v.res == nil {
		return nil
	}
	return v.res.file
}

// Conn returns the wrapped connection of a socket.
func (v *Value) Conn() net.Conn {
	if v.Kind() != KindSocket || v.res == nil {
		return nil
	}
	return v.res.conn
}

// Regex returns the compiled pattern of a regex value.
func (v *Value) Regex() *Regex {
	if v.Kind() != KindRegex {
		return nil
	}
	return v.rx
}

// StructName returns the declared name of a native struct.
func (v *Value) StructName() string {
	if v.Kind() != KindStruct {
		return ""
	}
	return v.name
}

// Pointer returns the host object of a native pointer.
func (v *Value) Pointer() any {
	if v.Kind() != KindPointer {
		return nil
	}
	return v.ptr
}

// Closure returns the closure payload.
func (v *Value) Closure() *Closure {
	if v.Kind() != KindClosure {
		return nil
	}
	return v.cl
}

// PointerAs unwraps a native pointer holding a T.
func PointerAs[T any](v *Value) (T, bool) {
	p, ok := v.Pointer().(T)
	return p, ok
}

// Refcount returns the current count (0 for nil or freed values).
func Refcount(v *Value) int32 {
	if v == nil {
		return 0
	}
	return v.refs.Load()
}

// Defined reports whether v holds anything but undef.
func Defined(v *Value) bool {
	return v.Kind() != KindUndef
}

// TypeOf names the variant of v.
func TypeOf(v *Value) string {
	return v.Kind().String()
}

// resource is a shared closer for filehandles and sockets.
type resource struct {
	refs   atomic.Int32
	closer io.Closer
	owned  bool
	file   *os.File
	conn   net.Conn
}

func newResource(c io.Closer, owned bool) *resource {
	r := &resource{closer: c, owned: owned}
	r.refs.Store(1)
	return r
}

func (r *resource) retain() {
	if r != nil {
		r.refs.Add(1)
	}
}

func (r *resource) release() {
	if r == nil {
		return
	}
	if r.refs.Add(-1) == 0 && r.owned && r.closer != nil {
		_ = r.closer.Close()
	}
}

// Regex is a compiled pattern together with its source form.
type Regex struct {
	Pattern string
	Flags   string
	re      *regexp.Regexp
}

// Regexp returns the compiled expression.
func (r *Regex) Regexp() *regexp.Regexp {
	if r == nil {
		return nil
	}
	return r.re
}

// NewRegex compiles pattern with Perl-style flags: i (case-insensitive),
// m (multi-line anchors), s (dot matches newline), x (extended whitespace).
func NewRegex(pattern, flags string) (*Value, error) {
	src := pattern
	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			if !strings.ContainsRune(goFlags.String(), f) {
				goFlags.WriteRune(f)
			}
		case 'x':
			src = stripExtended(src)
		case 'g':
			// match-all is a property of the call site, not the pattern
		default:
			return nil, newError(CodeBadRegex, "unknown regex flag %q", f)
		}
	}
	if goFlags.Len() > 0 {
		src = "(?" + goFlags.String() + ")" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, newError(CodeBadRegex, "%s: %v", pattern, err)
	}
	v := newValue(KindRegex)
	v.rx = &Regex{Pattern: pattern, Flags: flags, re: re}
	return v, nil
}

// stripExtended drops unescaped whitespace and # comments outside classes.
func stripExtended(p string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			b.WriteByte(c)
			b.WriteByte(p[i+1])
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
			b.WriteByte(c)
		case c == '[':
			inClass = true
			b.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
		case c == '#':
			for i < len(p) && p[i] != '\n' {
				i++
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
