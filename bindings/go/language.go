package tree_sitter_toon

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/exp/ebnf"
)

const languageName = "toon"

// The ABI versions accepted by the tree-sitter runtime this module is built
// against (TREE_SITTER_LANGUAGE_VERSION and
// TREE_SITTER_MIN_COMPATIBLE_LANGUAGE_VERSION in tree_sitter/api.h).
const (
	languageVersion              uint32 = 14
	minCompatibleLanguageVersion uint32 = 13
)

// startProduction is the grammar production a TOON document starts from.
const startProduction = "SourceFile"

type symbol struct {
	name  string
	named bool
}

// symbols is the node kind table. Id 0 is the builtin end symbol.
var symbols = []symbol{
	{"end", false},
	{"source_file", true},
	{"document", true},
	{"object", true},
	{"pair", true},
	{"key", true},
	{"unquoted_key", true},
	{"string", true},
	{"escape_sequence", true},
	{"header", true},
	{"number", true},
	{"delimiter", true},
	{"field_list", true},
	{"field_name", true},
	{"inline_values", true},
	{"value", true},
	{"null", true},
	{"boolean", true},
	{"unquoted_string", true},
	{"array", true},
	{"array_body", true},
	{"row", true},
	{"value_row", true},
	{"row_values", true},
	{"single_value", true},
	{"delimited_values", true},
	{"tabular_row", true},
	{"object_row", true},
	{":", false},
	{"[", false},
	{"]", false},
	{"{", false},
	{"}", false},
	{",", false},
	{"|", false},
	{"\t", false},
	{"-", false},
	{"\"", false},
	{"true", false},
	{"false", false},
}

// fields is the field name table. Id 0 means "no field".
var fields = []string{
	"",
	"delimiter",
	"fields",
	"key",
	"length",
	"value",
}

// A Language is the compiled TOON grammar: its node kinds, field names and
// the token definition the scanner runs on.
type Language struct {
	name    string
	version uint32
	lexdef  *lexer.StatefulDefinition
	tokens  map[lexer.TokenType]tokenKind
}

func newLanguage(grammar []byte) (*Language, error) {
	g, err := ebnf.Parse("grammar.ebnf", bytes.NewReader(grammar))
	if err != nil {
		return nil, fmt.Errorf("toon: parse grammar: %w", err)
	}
	if err := ebnf.Verify(g, startProduction); err != nil {
		return nil, fmt.Errorf("toon: verify grammar: %w", err)
	}
	for _, sym := range symbols {
		if !sym.named {
			continue
		}
		if _, ok := g[productionName(sym.name)]; !ok {
			return nil, fmt.Errorf("toon: grammar has no production for node kind %q", sym.name)
		}
	}

	def, err := lexer.NewSimple(lexRules)
	if err != nil {
		return nil, fmt.Errorf("toon: build lexer: %w", err)
	}
	tokens, err := tokenKinds(def)
	if err != nil {
		return nil, err
	}

	return &Language{
		name:    languageName,
		version: languageVersion,
		lexdef:  def,
		tokens:  tokens,
	}, nil
}

// productionName maps a node kind to its grammar production:
// unquoted_key becomes UnquotedKey.
func productionName(kind string) string {
	var b strings.Builder
	for _, part := range strings.Split(kind, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Name returns the name of the language.
func (l *Language) Name() string {
	return l.name
}

// Version returns the ABI version of the language.
func (l *Language) Version() uint32 {
	return l.version
}

// NodeKindCount returns the number of distinct node kinds in the language.
func (l *Language) NodeKindCount() uint32 {
	return uint32(len(symbols))
}

// NodeKindForId returns the node kind for the given numerical id, or an
// empty string if the id is out of range.
func (l *Language) NodeKindForId(id uint16) string {
	if int(id) >= len(symbols) {
		return ""
	}
	return symbols[id].name
}

// IdForNodeKind returns the numerical id for the given node kind, or 0 if
// the language has no such kind.
func (l *Language) IdForNodeKind(kind string, named bool) uint16 {
	for id, sym := range symbols {
		if sym.name == kind && sym.named == named {
			return uint16(id)
		}
	}
	return 0
}

// NodeKindIsNamed reports whether nodes of the given kind are named.
func (l *Language) NodeKindIsNamed(id uint16) bool {
	return int(id) < len(symbols) && symbols[id].named
}

// FieldCount returns the number of distinct field names in the language.
func (l *Language) FieldCount() uint32 {
	return uint32(len(fields) - 1)
}

// FieldNameForId returns the field name for the given numerical id.
func (l *Language) FieldNameForId(id uint16) string {
	if int(id) >= len(fields) {
		return ""
	}
	return fields[id]
}

// FieldIdForName returns the numerical id for the given field name, or 0.
func (l *Language) FieldIdForName(name string) uint16 {
	if name == "" {
		return 0
	}
	for id, f := range fields {
		if f == name {
			return uint16(id)
		}
	}
	return 0
}

func (l *Language) mustKind(kind string, named bool) uint16 {
	id := l.IdForNodeKind(kind, named)
	if id == 0 {
		panic("toon: unknown node kind " + kind)
	}
	return id
}
