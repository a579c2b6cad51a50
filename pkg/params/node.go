// Package params implements the watch face parameter encoding: variable width
// integers and the recursive key/value trees built from them.
package params

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FieldID identifies a parameter within one tree level. Valid ids are positive.
type FieldID int64

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindScalar Kind = iota
	KindTree
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindTree:
		return "tree"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Node is a parameter value: a scalar, a nested tree, or the list produced when
// a field id repeats within one tree. The zero Node is the scalar 0.
type Node struct {
	kind  Kind
	value int64
	tree  Tree
	items []Node
}

func Scalar(v int64) Node {
	return Node{kind: KindScalar, value: v}
}

// Nested wraps a tree as a node. A nil tree is treated as empty.
func Nested(t Tree) Node {
	if t == nil {
		t = Tree{}
	}
	return Node{kind: KindTree, tree: t}
}

// List builds a list node. Items must not themselves be lists.
func List(items ...Node) Node {
	return Node{kind: KindList, items: items}
}

func (n Node) Kind() Kind { return n.kind }

// Int returns the scalar value; it is 0 for trees and lists.
func (n Node) Int() int64 { return n.value }

// Tree returns the nested tree, or nil when n is not a tree.
func (n Node) Tree() Tree { return n.tree }

// Items returns the list elements, or nil when n is not a list.
func (n Node) Items() []Node { return n.items }

// Each calls fn once for a scalar or tree and once per element for a list.
func (n Node) Each(fn func(Node) error) error {
	if n.kind != KindList {
		return fn(n)
	}
	for _, item := range n.items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

func (n Node) Equal(o Node) bool {
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindScalar:
		return n.value == o.value
	case KindTree:
		return n.tree.Equal(o.tree)
	case KindList:
		return slices.EqualFunc(n.items, o.items, Node.Equal)
	}
	return false
}

func (n Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n Node) write(b *strings.Builder) {
	switch n.kind {
	case KindScalar:
		b.WriteString(strconv.FormatInt(n.value, 10))
	case KindTree:
		n.tree.write(b)
	case KindList:
		b.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteByte(']')
	default:
		fmt.Fprintf(b, "<%s>", n.kind)
	}
}
