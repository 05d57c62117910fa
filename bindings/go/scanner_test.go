package tree_sitter_toon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func scanKinds(t *testing.T, src string) []tokenKind {
	t.Helper()
	toks, err := Language().scan([]byte(src), newLineIndex([]byte(src)), nil)
	require.NoError(t, err)
	kinds := make([]tokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.kind
	}
	return kinds
}

func TestScanIndentation(t *testing.T) {
	assert.Equal(t, []tokenKind{
		tokText, tokPunct, tokNewline,
		tokIndent, tokText, tokPunct, tokSpace, tokText, tokNewline,
		tokDedent, tokEOF,
	}, scanKinds(t, "a:\n  b: 1\n\n"))

	assert.Equal(t, []tokenKind{
		tokText, tokPunct, tokNewline,
		tokIndent, tokText, tokPunct, tokNewline,
		tokIndent, tokText, tokPunct, tokSpace, tokText, tokNewline,
		tokDedent, tokDedent, tokText, tokPunct, tokSpace, tokText, tokNewline,
		tokEOF,
	}, scanKinds(t, "a:\n  b:\n    \n    c: 1\nd: 2\n"))
}

func TestScanTokens(t *testing.T) {
	src := []byte("- -2, \"x\\\"\"|hello world  \n")
	toks, err := Language().scan(src, newLineIndex(src), nil)
	require.NoError(t, err)

	var got []token
	for _, tok := range toks {
		got = append(got, token{kind: tok.kind, value: tok.value})
	}
	assert.Equal(t, []token{
		{kind: tokDash, value: "-"},
		{kind: tokSpace, value: " "},
		{kind: tokNumber, value: "-2"},
		{kind: tokPunct, value: ","},
		{kind: tokSpace, value: " "},
		{kind: tokString, value: `"x\""`},
		{kind: tokPunct, value: "|"},
		{kind: tokText, value: "hello world"},
		{kind: tokNewline, value: "\n"},
		{kind: tokEOF},
	}, got)

	text := toks[7]
	assert.Equal(t, "hello world", string(src[text.start:text.end]))
}

func TestScanMissingFinalNewline(t *testing.T) {
	toks, err := Language().scan([]byte("a: 1"), newLineIndex([]byte("a: 1")), nil)
	require.NoError(t, err)
	nl := toks[len(toks)-2]
	assert.Equal(t, tokNewline, nl.kind)
	assert.Equal(t, uint(4), nl.start)
	assert.Equal(t, uint(4), nl.end)
}

func TestIndentWidth(t *testing.T) {
	assert.Equal(t, 3, indentWidth("   "))
	assert.Equal(t, 2, indentWidth("\t"))
	assert.Equal(t, 2, indentWidth(" \t"))
	assert.Equal(t, 4, indentWidth("\t\t"))
	assert.Equal(t, 4, indentWidth("  \t"))
}

func TestLineIndexPoint(t *testing.T) {
	lines := newLineIndex([]byte("ab\ncd\n"))
	assert.Equal(t, tree_sitter.Point{Row: 0, Column: 1}, lines.point(1))
	assert.Equal(t, tree_sitter.Point{Row: 1, Column: 0}, lines.point(3))
	assert.Equal(t, tree_sitter.Point{Row: 2, Column: 0}, lines.point(6))
}
