package rt

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion is bumped whenever the node layout changes.
const snapshotVersion = 1

// Snapshot is the serialized form of a value graph.
type Snapshot struct {
	Version int           `msgpack:"v"`
	Root    *SnapshotNode `msgpack:"root"`
}

// SnapshotNode is one value of a snapshot. Values reachable more than once
// are written in full at their first occurrence (ID > 0) and as a
// back-reference (Back = ID) afterwards, so sharing and cycles survive.
type SnapshotNode struct {
	Kind    Kind            `msgpack:"k"`
	ID      int             `msgpack:"id,omitempty"`
	Back    int             `msgpack:"back,omitempty"`
	Int     int64           `msgpack:"i,omitempty"`
	Num     float64         `msgpack:"n,omitempty"`
	Str     []byte          `msgpack:"s,omitempty"`
	Name    string          `msgpack:"name,omitempty"`
	Blessed string          `msgpack:"pkg,omitempty"`
	Keys    []string        `msgpack:"keys,omitempty"`
	Elems   []*SnapshotNode `msgpack:"elems,omitempty"`
	Target  *SnapshotNode   `msgpack:"t,omitempty"`
}

// EncodeSnapshot writes the graph reachable from v as msgpack. Host-only
// payloads (filehandles, sockets, pointers, closures) are recorded by their
// string form.
func EncodeSnapshot(w io.Writer, v *Value) error {
	e := snapshotEncoder{ids: make(map[*Value]int)}
	snap := Snapshot{Version: snapshotVersion, Root: e.node(v)}
	return msgpack.NewEncoder(w).Encode(&snap)
}

type snapshotEncoder struct {
	ids  map[*Value]int
	next int
}

func (e *snapshotEncoder) node(v *Value) *SnapshotNode {
	if v == nil {
		return &SnapshotNode{Kind: KindUndef}
	}
	if id, ok := e.ids[v]; ok {
		return &SnapshotNode{Kind: v.kind, Back: id}
	}
	e.next++
	e.ids[v] = e.next
	n := &SnapshotNode{Kind: v.kind, ID: e.next}
	switch v.kind {
	case KindUndef:
	case KindInt:
		n.Int = v.iv
	case KindNum:
		n.Num = v.nv
	case KindStr:
		n.Str = v.sv
	case KindStruct:
		n.Name = v.name
		n.Str = v.sv
	case KindRegex:
		n.Str = []byte(v.rx.Pattern)
		n.Name = v.rx.Flags
	case KindArray:
		n.Elems = make([]*SnapshotNode, 0, v.av.Len())
		v.av.Each(func(_ int, el *Value) bool {
			n.Elems = append(n.Elems, e.node(el))
			return true
		})
	case KindHash:
		n.Keys = make([]string, 0, v.hv.Len())
		n.Elems = make([]*SnapshotNode, 0, v.hv.Len())
		v.hv.Each(func(k string, el *Value) bool {
			n.Keys = append(n.Keys, k)
			n.Elems = append(n.Elems, e.node(el))
			return true
		})
	case KindRef:
		n.Blessed = v.blessed
		n.Target = e.node(v.rv)
	default:
		n.Str = []byte(ToStr(v))
	}
	return n
}

// DecodeSnapshot rebuilds a value graph written by EncodeSnapshot. Host-only
// payloads come back as their recorded string form.
func DecodeSnapshot(r io.Reader) (*Value, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, newError(CodeUnknownSnapshot, "snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	d := snapshotDecoder{byID: make(map[int]*Value)}
	v, err := d.value(snap.Root)
	if err != nil {
		Decref(v)
		return nil, err
	}
	return v, nil
}

type snapshotDecoder struct {
	byID map[int]*Value
}

// value returns a new hold on the value n describes.
func (d *snapshotDecoder) value(n *SnapshotNode) (*Value, error) {
	if n == nil {
		return NewUndef(), nil
	}
	if n.Back != 0 {
		v, ok := d.byID[n.Back]
		if !ok {
			return NewUndef(), newError(CodeUnknownSnapshot, "back-reference to unknown node %d", n.Back)
		}
		Incref(v)
		return v, nil
	}
	var v *Value
	switch n.Kind {
	case KindUndef:
		v = NewUndef()
	case KindInt:
		v = NewInt(n.Int)
	case KindNum:
		v = NewNum(n.Num)
	case KindStr:
		v = NewStrBytes(n.Str)
	case KindStruct:
		v = NewStruct(n.Name, len(n.Str))
		copy(v.sv, n.Str)
	case KindRegex:
		rx, err := NewRegex(string(n.Str), n.Name)
		if err != nil {
			return NewUndef(), err
		}
		v = rx
	case KindArray:
		v = NewArray()
		d.remember(n, v)
		v.av.Reserve(len(n.Elems))
		for _, el := range n.Elems {
			ev, err := d.value(el)
			v.av.PushTake(ev)
			if err != nil {
				return v, err
			}
		}
		return v, nil
	case KindHash:
		if len(n.Keys) != len(n.Elems) {
			return NewUndef(), newError(CodeUnknownSnapshot, "hash node with %d keys and %d values", len(n.Keys), len(n.Elems))
		}
		v = NewHash()
		d.remember(n, v)
		v.hv.Reserve(len(n.Keys))
		for i, el := range n.Elems {
			ev, err := d.value(el)
			v.hv.SetTake(n.Keys[i], ev)
			if err != nil {
				return v, err
			}
		}
		return v, nil
	case KindRef:
		v = newValue(KindRef)
		v.rv = NewUndef()
		d.remember(n, v)
		target, err := d.value(n.Target)
		old := v.rv
		v.rv = target
		Decref(old)
		if err != nil {
			return v, err
		}
		if n.Blessed != "" {
			if err := Bless(v, n.Blessed); err != nil {
				return v, err
			}
		}
		return v, nil
	case KindFileHandle, KindSocket, KindPointer, KindClosure:
		v = NewStrBytes(n.Str)
	default:
		return NewUndef(), newError(CodeUnknownSnapshot, "node kind %d", n.Kind)
	}
	d.remember(n, v)
	return v, nil
}

func (d *snapshotDecoder) remember(n *SnapshotNode, v *Value) {
	if n.ID != 0 {
		d.byID[n.ID] = v
	}
}
