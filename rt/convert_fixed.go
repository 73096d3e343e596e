package rt

import (
	"fmt"

	"fortio.org/safecast"
)

// Fixed-width conversions for native struct interop. The plain forms
// truncate like a C cast; the Checked forms refuse values that do not fit.

func ToInt8(v *Value) int8     { return int8(ToInt(v)) }
func ToInt16(v *Value) int16   { return int16(ToInt(v)) }
func ToInt32(v *Value) int32   { return int32(ToInt(v)) }
func ToInt64(v *Value) int64   { return ToInt(v) }
func ToUint8(v *Value) uint8   { return uint8(ToInt(v)) }
func ToUint16(v *Value) uint16 { return uint16(ToInt(v)) }
func ToUint32(v *Value) uint32 { return uint32(ToInt(v)) }
func ToUint64(v *Value) uint64 { return uint64(ToInt(v)) }

// ToFloat32 narrows ToNum(v).
func ToFloat32(v *Value) float32 { return float32(ToNum(v)) }

func ToInt8Checked(v *Value) (int8, error)     { return checked[int8](ToInt(v)) }
func ToInt16Checked(v *Value) (int16, error)   { return checked[int16](ToInt(v)) }
func ToInt32Checked(v *Value) (int32, error)   { return checked[int32](ToInt(v)) }
func ToUint8Checked(v *Value) (uint8, error)   { return checked[uint8](ToInt(v)) }
func ToUint16Checked(v *Value) (uint16, error) { return checked[uint16](ToInt(v)) }
func ToUint32Checked(v *Value) (uint32, error) { return checked[uint32](ToInt(v)) }
func ToUint64Checked(v *Value) (uint64, error) { return checked[uint64](ToInt(v)) }

func checked[T int8 | int16 | int32 | uint8 | uint16 | uint32 | uint64](n int64) (T, error) {
	out, err := safecast.Conv[T](n)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	return out, nil
}

func FromInt8(n int8) *Value     { return NewInt(int64(n)) }
func FromInt16(n int16) *Value   { return NewInt(int64(n)) }
func FromInt32(n int32) *Value   { return NewInt(int64(n)) }
func FromInt64(n int64) *Value   { return NewInt(n) }
func FromUint8(n uint8) *Value   { return NewInt(int64(n)) }
func FromUint16(n uint16) *Value { return NewInt(int64(n)) }
func FromUint32(n uint32) *Value { return NewInt(int64(n)) }

// FromUint64 keeps values above MaxInt64 exact-ish by falling back to num.
func FromUint64(n uint64) *Value {
	i, err := safecast.Conv[int64](n)
	if err != nil {
		return NewNum(float64(n))
	}
	return NewInt(i)
}

func FromFloat32(f float32) *Value { return NewNum(float64(f)) }

// ToPointer unwraps a native pointer value.
func ToPointer(v *Value) any { return v.Pointer() }

// FromPointer wraps p, mapping nil to undef.
func FromPointer(p any) *Value {
	if p == nil {
		return NewUndef()
	}
	return NewPointer(p)
}

// index narrows a host int to the int range containers use.
func index(n int64) (int, bool) {
	i, err := safecast.Conv[int](n)
	return i, err == nil
}
