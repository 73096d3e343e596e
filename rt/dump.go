package rt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes v in Data::Dumper style: "$VAR = ...;\n".
func Dump(w io.Writer, v *Value) error {
	bw := bufio.NewWriter(w)
	d := dumper{w: bw, active: make(map[*Value]bool)}
	bw.WriteString("$VAR = ")
	d.value(v, 0)
	bw.WriteString(";\n")
	return bw.Flush()
}

// DumpString is Dump into a string.
func DumpString(v *Value) string {
	var sb strings.Builder
	_ = Dump(&sb, v)
	return sb.String()
}

type dumper struct {
	w *bufio.Writer
	// active marks values on the current path; revisiting one means a cycle.
	active map[*Value]bool
}

func (d *dumper) value(v *Value, indent int) {
	if v == nil {
		d.w.WriteString("undef")
		return
	}
	if d.active[v] {
		d.w.WriteString("CYCLE")
		return
	}
	d.active[v] = true
	defer delete(d.active, v)

	pad := strings.Repeat("  ", indent)
	switch v.kind {
	case KindUndef:
		d.w.WriteString("undef")
	case KindInt:
		d.w.WriteString(strconv.FormatInt(v.iv, 10))
	case KindNum:
		d.w.WriteString(formatNum(v.nv))
	case KindStr:
		d.w.WriteString(quote(v.sv))
	case KindArray:
		d.w.WriteString("[\n")
		n := v.av.Len()
		v.av.Each(func(i int, e *Value) bool {
			d.w.WriteString(pad + "  ")
			d.value(e, indent+1)
			if i < n-1 {
				d.w.WriteByte(',')
			}
			d.w.WriteByte('\n')
			return true
		})
		d.w.WriteString(pad + "]")
	case KindHash:
		d.w.WriteString("{\n")
		v.hv.Each(func(k string, e *Value) bool {
			fmt.Fprintf(d.w, "%s  '%s' => ", pad, k)
			d.value(e, indent+1)
			d.w.WriteString(",\n")
			return true
		})
		d.w.WriteString(pad + "}")
	case KindRef:
		if v.blessed != "" {
			d.w.WriteString("bless(")
			d.value(v.rv, indent)
			fmt.Fprintf(d.w, ", '%s')", v.blessed)
			return
		}
		d.w.WriteByte('\\')
		d.value(v.rv, indent)
	case KindFileHandle:
		if f := v.File(); f != nil {
			fmt.Fprintf(d.w, "FILEHANDLE(fd=%d)", f.Fd())
		} else {
			d.w.WriteString("FILEHANDLE(closed)")
		}
	case KindSocket:
		d.w.WriteString(ToStr(v))
	case KindRegex:
		fmt.Fprintf(d.w, "qr/%s/%s", v.rx.Pattern, v.rx.Flags)
	case KindStruct:
		fmt.Fprintf(d.w, "CSTRUCT(%s, %d bytes)", v.name, len(v.sv))
	case KindPointer:
		fmt.Fprintf(d.w, "CPOINTER(%T)", v.ptr)
	case KindClosure:
		fmt.Fprintf(d.w, "CLOSURE(%p)", v.cl)
	default:
		fmt.Fprintf(d.w, "UNKNOWN(type=%d)", v.kind)
	}
}

func quote(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
