package rt

import (
	"fmt"
	"math"
	"strconv"
)

// ToInt converts following the C runtime rules: strings parse like atoll,
// arrays yield their length, everything else that is not numeric is 0.
func ToInt(v *Value) int64 {
	switch v.Kind() {
	case KindInt:
		return v.iv
	case KindNum:
		return floatToInt(v.nv)
	case KindStr:
		return parseIntPrefix(v.sv)
	case KindArray:
		return int64(v.av.Len())
	default:
		return 0
	}
}

// ToNum converts to float. Strings parse like atof; arrays yield their length;
// hashes and references count as 1.
func ToNum(v *Value) float64 {
	switch v.Kind() {
	case KindInt:
		return float64(v.iv)
	case KindNum:
		return v.nv
	case KindStr:
		return parseFloatPrefix(v.sv)
	case KindArray:
		return float64(v.av.Len())
	case KindHash, KindRef:
		return 1
	default:
		return 0
	}
}

// ToStr stringifies v.
func ToStr(v *Value) string {
	switch v.Kind() {
	case KindUndef:
		return ""
	case KindInt:
		return strconv.FormatInt(v.iv, 10)
	case KindNum:
		return formatNum(v.nv)
	case KindStr:
		return string(v.sv)
	case KindArray:
		return fmt.Sprintf("ARRAY(%p)", v.av)
	case KindHash:
		return fmt.Sprintf("HASH(%p)", v.hv)
	case KindRef:
		s := fmt.Sprintf("%s(%p)", RefType(v), v.rv)
		if v.blessed != "" {
			s = v.blessed + "=" + s
		}
		return s
	case KindFileHandle:
		return fmt.Sprintf("GLOB(%p)", v.res)
	case KindRegex:
		return "(?^" + v.rx.Flags + ":" + v.rx.Pattern + ")"
	case KindSocket:
		if c := v.Conn(); c != nil && c.RemoteAddr() != nil {
			return "SOCKET(" + c.RemoteAddr().String() + ")"
		}
		return "SOCKET(closed)"
	case KindStruct:
		return fmt.Sprintf("CSTRUCT(%s, %p)", v.name, v)
	case KindPointer:
		return fmt.Sprintf("CPOINTER(%p)", v)
	case KindClosure:
		return fmt.Sprintf("CODE(%p)", v.cl)
	}
	return ""
}

// maxRefChain bounds truthiness forwarding through reference cycles.
const maxRefChain = 64

// ToBool applies the truthiness rules: undef is false, numbers compare with
// zero, strings are false when empty or "0", containers when empty, and a
// reference forwards to its referent.
func ToBool(v *Value) bool {
	for range maxRefChain {
		switch v.Kind() {
		case KindUndef:
			return false
		case KindInt:
			return v.iv != 0
		case KindNum:
			return v.nv != 0
		case KindStr:
			return len(v.sv) > 0 && !(len(v.sv) == 1 && v.sv[0] == '0')
		case KindArray:
			return v.av.Len() > 0
		case KindHash:
			return v.hv.Len() > 0
		case KindRef:
			v = v.rv
			continue
		default:
			return true
		}
	}
	return true
}

func formatNum(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

// parseIntPrefix reads an optionally signed decimal prefix, saturating on overflow.
func parseIntPrefix(b []byte) int64 {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	neg := false
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		neg = b[i] == '-'
		i++
	}
	var n uint64
	overflow := false
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		d := uint64(b[i] - '0')
		if n > (math.MaxUint64-d)/10 {
			overflow = true
			continue
		}
		n = n*10 + d
	}
	if neg {
		if overflow || n > 1<<63 {
			return math.MinInt64
		}
		return -int64(n)
	}
	if overflow || n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// parseFloatPrefix reads the longest decimal floating point prefix of b,
// including inf and nan spellings.
func parseFloatPrefix(b []byte) float64 {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	start := i
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}
	if word := matchFold(b[i:], "infinity", "inf", "nan"); word != "" {
		f, _ := strconv.ParseFloat(string(b[start:i])+word, 64)
		return f
	}
	digits := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
		digits++
	}
	if i < len(b) && b[i] == '.' {
		i++
		for i < len(b) && b[i] >= '0' && b[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		j := i + 1
		if j < len(b) && (b[j] == '+' || b[j] == '-') {
			j++
		}
		if j < len(b) && b[j] >= '0' && b[j] <= '9' {
			for j < len(b) && b[j] >= '0' && b[j] <= '9' {
				j++
			}
			i = j
		}
	}
	// ParseFloat returns ±Inf together with a range error, which is what atof yields.
	f, _ := strconv.ParseFloat(string(b[start:i]), 64)
	return f
}

func matchFold(b []byte, words ...string) string {
	for _, w := range words {
		if len(b) < len(w) {
			continue
		}
		ok := true
		for k := 0; k < len(w); k++ {
			c := b[k]
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != w[k] {
				ok = false
				break
			}
		}
		if ok {
			return w
		}
	}
	return ""
}
