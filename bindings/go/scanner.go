package tree_sitter_toon

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// lexRules are tried in order at every input position. Positive numbers,
// keywords and keys are all Text; the parser classifies them.
var lexRules = []lexer.SimpleRule{
	{Name: "Newline", Pattern: `\r\n|\r|\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "String", Pattern: `"(?:[^"\\\r\n]|\\.)*"`},
	{Name: "Number", Pattern: `-(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Punct", Pattern: `[\[\]{}:,|]`},
	{Name: "Text", Pattern: `[^\s\-:"\[\]{},|][^\r\n\t:"\[\]{},|]*`},
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokSpace
	tokString
	tokNumber
	tokDash
	tokPunct
	tokText
)

var tokenKindNames = map[string]tokenKind{
	"EOF":        tokEOF,
	"Newline":    tokNewline,
	"Whitespace": tokSpace,
	"String":     tokString,
	"Number":     tokNumber,
	"Dash":       tokDash,
	"Punct":      tokPunct,
	"Text":       tokText,
}

func tokenKinds(def *lexer.StatefulDefinition) (map[lexer.TokenType]tokenKind, error) {
	kinds := make(map[lexer.TokenType]tokenKind, len(tokenKindNames))
	for name, typ := range def.Symbols() {
		kind, ok := tokenKindNames[name]
		if !ok {
			return nil, fmt.Errorf("toon: lexer defines unknown token %q", name)
		}
		kinds[typ] = kind
	}
	return kinds, nil
}

type token struct {
	kind  tokenKind
	value string
	start uint
	end   uint
}

func (t token) is(kind tokenKind, value string) bool {
	return t.kind == kind && t.value == value
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "end of line"
	case tokIndent:
		return "indentation"
	case tokDedent:
		return "dedent"
	case tokSpace:
		return "whitespace"
	}
	return fmt.Sprintf("%q", t.value)
}

// lineIndex holds the byte offset at which each row starts.
type lineIndex []uint

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, c := range src {
		if c == '\n' {
			idx = append(idx, uint(i+1))
		}
	}
	return idx
}

func (li lineIndex) point(offset uint) tree_sitter.Point {
	row := sort.Search(len(li), func(i int) bool { return li[i] > offset }) - 1
	if row < 0 {
		row = 0
	}
	return tree_sitter.Point{Row: uint(row), Column: offset - li[row]}
}

// indentWidth measures leading whitespace. A tab advances to the next even
// column.
func indentWidth(ws string) int {
	width := 0
	for _, c := range ws {
		if c == '\t' {
			width = (width + 2) &^ 1
		} else {
			width++
		}
	}
	return width
}

// scan tokenizes src and rewrites its line structure into Indent, Dedent and
// Newline tokens. Blank lines produce no tokens.
func (l *Language) scan(src []byte, lines lineIndex, logger tree_sitter.Logger) ([]token, error) {
	lex, err := l.lexdef.LexString("", string(src))
	if err != nil {
		return nil, err
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		var lerr *lexer.Error
		if errors.As(err, &lerr) {
			return nil, newSyntaxError(lines, uint(lerr.Pos.Offset), "%s", lerr.Msg)
		}
		return nil, err
	}

	kind := func(t lexer.Token) tokenKind { return l.tokens[t.Type] }
	logf := func(format string, args ...any) {
		if logger != nil {
			logger(tree_sitter.LogTypeLex, fmt.Sprintf(format, args...))
		}
	}

	var (
		out     []token
		indents = []int{0}
		end     = uint(len(src))
	)
	for i := 0; kind(raw[i]) != tokEOF; {
		j := i
		for kind(raw[j]) != tokEOF && kind(raw[j]) != tokNewline {
			j++
		}
		line := raw[i:j]
		next := j
		var newline *lexer.Token
		if kind(raw[j]) == tokNewline {
			newline = &raw[j]
			next = j + 1
		}
		i = next

		width := 0
		if len(line) > 0 && kind(line[0]) == tokSpace {
			width = indentWidth(line[0].Value)
			line = line[1:]
		}
		for len(line) > 0 && kind(line[len(line)-1]) == tokSpace {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			continue
		}

		at := uint(line[0].Pos.Offset)
		switch top := indents[len(indents)-1]; {
		case width > top:
			indents = append(indents, width)
			out = append(out, token{kind: tokIndent, start: at, end: at})
			logf("indent %d at row %d", width, lines.point(at).Row)
		case width < top:
			for len(indents) > 1 && width < indents[len(indents)-1] {
				indents = indents[:len(indents)-1]
				out = append(out, token{kind: tokDedent, start: at, end: at})
				logf("dedent to %d at row %d", indents[len(indents)-1], lines.point(at).Row)
			}
			if indents[len(indents)-1] != width {
				return nil, newSyntaxError(lines, at, "unindent does not match any outer indentation level")
			}
		}

		for _, t := range line {
			out = append(out, l.token(kind(t), t))
		}
		if newline != nil {
			start := uint(newline.Pos.Offset)
			out = append(out, token{kind: tokNewline, value: newline.Value, start: start, end: start + uint(len(newline.Value))})
		} else {
			out = append(out, token{kind: tokNewline, start: end, end: end})
		}
	}
	for len(indents) > 1 {
		indents = indents[:len(indents)-1]
		out = append(out, token{kind: tokDedent, start: end, end: end})
		logf("dedent to %d at end of input", indents[len(indents)-1])
	}
	out = append(out, token{kind: tokEOF, start: end, end: end})
	return out, nil
}

func (l *Language) token(kind tokenKind, t lexer.Token) token {
	value := t.Value
	if kind == tokText {
		value = strings.TrimRight(value, " ")
	}
	start := uint(t.Pos.Offset)
	return token{kind: kind, value: value, start: start, end: start + uint(len(value))}
}
