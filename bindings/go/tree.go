package tree_sitter_toon

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// A Tree is the syntax tree of an entire TOON document.
type Tree struct {
	lang *Language
	root *Node
}

// RootNode returns the source_file node of the tree.
func (t *Tree) RootNode() *Node {
	return t.root
}

// Language returns the language that was used to parse the tree.
func (t *Tree) Language() *Language {
	return t.lang
}

// Edit adjusts the positions of the tree's nodes to stay in sync with source
// code that has been edited. The edit is described in terms of both byte
// offsets and rows and columns.
func (t *Tree) Edit(edit *tree_sitter.InputEdit) {
	t.root.walk(func(n *Node) {
		n.startByte, n.startPoint = editPosition(n.startByte, n.startPoint, edit)
		n.endByte, n.endPoint = editPosition(n.endByte, n.endPoint, edit)
	})
}

func editPosition(b uint, p tree_sitter.Point, edit *tree_sitter.InputEdit) (uint, tree_sitter.Point) {
	switch {
	case b >= edit.OldEndByte:
		return edit.NewEndByte + (b - edit.OldEndByte),
			pointAdd(edit.NewEndPosition, pointSub(p, edit.OldEndPosition))
	case b > edit.StartByte:
		return edit.NewEndByte, edit.NewEndPosition
	}
	return b, p
}

func pointAdd(a, b tree_sitter.Point) tree_sitter.Point {
	if b.Row > 0 {
		return tree_sitter.Point{Row: a.Row + b.Row, Column: b.Column}
	}
	return tree_sitter.Point{Row: a.Row, Column: a.Column + b.Column}
}

func pointSub(a, b tree_sitter.Point) tree_sitter.Point {
	if a.Row > b.Row {
		return tree_sitter.Point{Row: a.Row - b.Row, Column: a.Column}
	}
	return tree_sitter.Point{Row: 0, Column: a.Column - b.Column}
}
