package tree_sitter_toon

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// A Node is a single node within a syntax tree.
type Node struct {
	lang       *Language
	kind       uint16
	field      uint16
	startByte  uint
	endByte    uint
	startPoint tree_sitter.Point
	endPoint   tree_sitter.Point
	parent     *Node
	children   []*Node
}

// Kind returns the node's type as a string.
func (n *Node) Kind() string {
	return n.lang.NodeKindForId(n.kind)
}

// KindId returns the node's type as a numerical id.
func (n *Node) KindId() uint16 {
	return n.kind
}

// IsNamed reports whether the node is named. Named nodes correspond to named
// rules in the grammar, whereas anonymous nodes correspond to string
// literals.
func (n *Node) IsNamed() bool {
	return n.lang.NodeKindIsNamed(n.kind)
}

// StartByte returns the byte offset where the node starts.
func (n *Node) StartByte() uint {
	return n.startByte
}

// EndByte returns the byte offset where the node ends.
func (n *Node) EndByte() uint {
	return n.endByte
}

// StartPosition returns the row and column where the node starts.
func (n *Node) StartPosition() tree_sitter.Point {
	return n.startPoint
}

// EndPosition returns the row and column where the node ends.
func (n *Node) EndPosition() tree_sitter.Point {
	return n.endPoint
}

// Range returns the byte and point range of the node.
func (n *Node) Range() tree_sitter.Range {
	return tree_sitter.Range{
		StartByte:  n.startByte,
		EndByte:    n.endByte,
		StartPoint: n.startPoint,
		EndPoint:   n.endPoint,
	}
}

// Parent returns the node's immediate parent, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// ChildCount returns the number of children, named and anonymous.
func (n *Node) ChildCount() uint {
	return uint(len(n.children))
}

// Child returns the node's child at the given index, where zero represents
// the first child. It returns nil if the index is out of range.
func (n *Node) Child(i uint) *Node {
	if i >= uint(len(n.children)) {
		return nil
	}
	return n.children[i]
}

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() uint {
	var count uint
	for _, c := range n.children {
		if c.IsNamed() {
			count++
		}
	}
	return count
}

// NamedChild returns the node's i-th named child, or nil.
func (n *Node) NamedChild(i uint) *Node {
	for _, c := range n.children {
		if !c.IsNamed() {
			continue
		}
		if i == 0 {
			return c
		}
		i--
	}
	return nil
}

// NamedChildren returns the node's named children in order.
func (n *Node) NamedChildren() []*Node {
	var named []*Node
	for _, c := range n.children {
		if c.IsNamed() {
			named = append(named, c)
		}
	}
	return named
}

// ChildByFieldName returns the first child with the given field name, or
// nil.
func (n *Node) ChildByFieldName(name string) *Node {
	id := n.lang.FieldIdForName(name)
	if id == 0 {
		return nil
	}
	for _, c := range n.children {
		if c.field == id {
			return c
		}
	}
	return nil
}

// ChildrenByFieldName returns all children with the given field name.
func (n *Node) ChildrenByFieldName(name string) []*Node {
	id := n.lang.FieldIdForName(name)
	if id == 0 {
		return nil
	}
	var out []*Node
	for _, c := range n.children {
		if c.field == id {
			out = append(out, c)
		}
	}
	return out
}

// FieldNameForChild returns the field name of the child at the given index,
// or an empty string.
func (n *Node) FieldNameForChild(i uint32) string {
	if int(i) >= len(n.children) {
		return ""
	}
	return n.lang.FieldNameForId(n.children[i].field)
}

// Utf8Text returns the source text the node spans.
func (n *Node) Utf8Text(source []byte) string {
	if n.endByte > uint(len(source)) || n.startByte > n.endByte {
		return ""
	}
	return string(source[n.startByte:n.endByte])
}

// ToSexp returns an S-expression of the named nodes below n, with field
// names as prefixes.
func (n *Node) ToSexp() string {
	var b strings.Builder
	n.writeSexp(&b)
	return b.String()
}

// String returns the node as an S-expression.
func (n *Node) String() string {
	return n.ToSexp()
}

func (n *Node) writeSexp(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(n.Kind())
	for _, c := range n.children {
		if !c.IsNamed() {
			continue
		}
		b.WriteByte(' ')
		if c.field != 0 {
			b.WriteString(n.lang.FieldNameForId(c.field))
			b.WriteString(": ")
		}
		c.writeSexp(b)
	}
	b.WriteByte(')')
}

func (n *Node) add(child *Node, field string) {
	child.parent = n
	child.field = n.lang.FieldIdForName(field)
	n.children = append(n.children, child)
}

// walk calls fn for n and each of its descendants, parents first.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
