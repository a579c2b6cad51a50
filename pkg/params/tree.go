package params

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	descriptorIDShift     = 3
	descriptorHasChildren = 0x02
)

// Tree maps field ids to values. Order on the wire is not preserved; encoding
// always walks ids in ascending order.
type Tree map[FieldID]Node

// Add inserts node under id. A repeated id turns the existing value into a
// list, keeping the order in which the values arrived.
func (t Tree) Add(id FieldID, node Node) {
	prev, ok := t[id]
	if !ok {
		t[id] = node
		return
	}
	if prev.kind != KindList {
		prev = List(prev)
	}
	prev.items = append(prev.items, node)
	t[id] = prev
}

// IDs returns the field ids in ascending order.
func (t Tree) IDs() []FieldID {
	ids := make([]FieldID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Int returns the scalar stored at id.
func (t Tree) Int(id FieldID) (int64, bool) {
	n, ok := t[id]
	if !ok || n.kind != KindScalar {
		return 0, false
	}
	return n.value, true
}

// Sub returns the tree stored at id.
func (t Tree) Sub(id FieldID) (Tree, bool) {
	n, ok := t[id]
	if !ok || n.kind != KindTree {
		return nil, false
	}
	return n.tree, true
}

func (t Tree) Equal(o Tree) bool {
	if len(t) != len(o) {
		return false
	}
	for id, n := range t {
		m, ok := o[id]
		if !ok || !n.Equal(m) {
			return false
		}
	}
	return true
}

func (t Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Tree) write(b *strings.Builder) {
	b.WriteByte('{')
	for i, id := range t.IDs() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(int64(id), 10))
		b.WriteString(": ")
		t[id].write(b)
	}
	b.WriteByte('}')
}

// DecodeTree parses a sequence of descriptor/value pairs covering all of b.
//
// A descriptor carries the field id in its upper bits and a children flag in
// bit 1. When the flag is set the value is the byte length of a nested tree
// that immediately follows. An empty b is malformed.
func DecodeTree(b []byte) (Tree, error) {
	return decodeTree(b, 0)
}

func decodeTree(b []byte, base int) (Tree, error) {
	t := Tree{}
	off := 0
	for {
		desc, n, err := DecodeVarInt(b[off:])
		if err != nil {
			return nil, decodeErr(base+off, 0, err)
		}
		id := FieldID(desc >> descriptorIDShift)
		hasChildren := desc&descriptorHasChildren != 0
		if id <= 0 {
			return nil, decodeErr(base+off, id, ErrInvalidKey)
		}
		off += n

		value, n, err := DecodeVarInt(b[off:])
		if err != nil {
			return nil, decodeErr(base+off, id, err)
		}
		off += n

		node := Scalar(value)
		if hasChildren {
			if value <= 0 {
				return nil, decodeErr(base+off, id, ErrInvalidChildrenSize)
			}
			if value > int64(len(b)-off) {
				return nil, decodeErr(base+off, id, fmt.Errorf("%w: need %d bytes, have %d", ErrChildrenOutOfBounds, value, len(b)-off))
			}
			end := off + int(value)
			child, err := decodeTree(b[off:end], base+off)
			if err != nil {
				return nil, err
			}
			node = Nested(child)
			off = end
		}
		t.Add(id, node)

		if off >= len(b) {
			return t, nil
		}
	}
}

// EncodeTree serializes t. Lists emit one pair per element under the same id;
// nested trees are written as their byte length followed by their encoding.
func EncodeTree(t Tree) ([]byte, error) {
	return appendTree(nil, t)
}

func appendTree(dst []byte, t Tree) ([]byte, error) {
	for _, id := range t.IDs() {
		if id <= 0 {
			return nil, fmt.Errorf("params: cannot encode field id %d", id)
		}
		err := t[id].Each(func(n Node) error {
			var err error
			dst, err = appendField(dst, id, n)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func appendField(dst []byte, id FieldID, n Node) ([]byte, error) {
	desc := int64(id) << descriptorIDShift
	switch n.kind {
	case KindScalar:
		dst = AppendVarInt(dst, desc)
		return AppendVarInt(dst, n.value), nil
	case KindTree:
		child, err := appendTree(nil, n.tree)
		if err != nil {
			return nil, err
		}
		if len(child) == 0 {
			return nil, fmt.Errorf("params: field %d: empty nested tree cannot be encoded", id)
		}
		dst = AppendVarInt(dst, desc|descriptorHasChildren)
		dst = AppendVarInt(dst, int64(len(child)))
		return append(dst, child...), nil
	case KindList:
		return nil, fmt.Errorf("params: field %d: %w", id, errUnsupportedNestedList)
	default:
		return nil, fmt.Errorf("params: field %d: unknown node kind %d", id, n.kind)
	}
}
