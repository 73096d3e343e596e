package rt

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Concat joins the string forms of vs into a new string.
func Concat(vs ...*Value) *Value {
	var b bytes.Buffer
	for _, v := range vs {
		b.Write(strBytes(v))
	}
	return NewStrBytes(b.Bytes())
}

// Length counts the code points of v's string form.
func Length(v *Value) int {
	return utf8.RuneCount(strBytes(v))
}

// Uc upper-cases v's string form.
func Uc(v *Value) *Value {
	return NewStrBytes(cases.Upper(language.Und).Bytes(strBytes(v)))
}

// Lc lower-cases v's string form.
func Lc(v *Value) *Value {
	return NewStrBytes(cases.Lower(language.Und).Bytes(strBytes(v)))
}

// Ucfirst upper-cases the first code point.
func Ucfirst(v *Value) *Value {
	return mapFirst(v, cases.Upper(language.Und))
}

// Lcfirst lower-cases the first code point.
func Lcfirst(v *Value) *Value {
	return mapFirst(v, cases.Lower(language.Und))
}

func mapFirst(v *Value, c cases.Caser) *Value {
	b := strBytes(v)
	if len(b) == 0 {
		return NewStr("")
	}
	_, n := utf8.DecodeRune(b)
	head := c.Bytes(b[:n])
	out := make([]byte, 0, len(head)+len(b)-n)
	out = append(out, head...)
	out = append(out, b[n:]...)
	return NewStrBytes(out)
}

// Repeat returns v's string form repeated n times (empty for n <= 0).
func Repeat(v *Value, n int) *Value {
	if n <= 0 {
		return NewStr("")
	}
	return NewStrBytes(bytes.Repeat(strBytes(v), n))
}

// Substr extracts length code points starting at offset. A negative offset
// counts from the end; a negative length, or one running past the end, takes
// the rest of the string.
func Substr(v *Value, offset, length int) *Value {
	b := strBytes(v)
	runes := utf8.RuneCount(b)
	if offset < 0 {
		offset = max(runes+offset, 0)
	}
	if offset >= runes {
		return NewStr("")
	}
	if length < 0 || offset+length > runes {
		length = runes - offset
	}
	start := runeOffset(b, offset)
	end := start + runeOffset(b[start:], length)
	return NewStrBytes(b[start:end])
}

// runeOffset returns the byte offset of the n-th code point of b.
func runeOffset(b []byte, n int) int {
	off := 0
	for ; n > 0 && off < len(b); n-- {
		_, size := utf8.DecodeRune(b[off:])
		off += size
	}
	return off
}
