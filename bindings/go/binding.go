// Package tree_sitter_toon provides the TOON (Token-Oriented Object Notation)
// grammar: a language handle, a parser bound to it, the concrete syntax tree
// it produces and a decoder from that tree to Go values.
//
// A document is parsed by binding a parser to the language:
//
//	parser := tree_sitter_toon.NewParser()
//	if err := parser.SetLanguage(tree_sitter_toon.Language()); err != nil {
//		return err
//	}
//	tree, err := parser.Parse(src)
//
// Node kinds and field names are those of the tree-sitter-toon grammar, and
// positions use the go-tree-sitter Point and Range types.
package tree_sitter_toon

import (
	_ "embed"
	"sync"
)

//go:embed grammar.ebnf
var grammarSource []byte

var (
	loadOnce sync.Once
	loaded   *Language
	loadErr  error
)

// LoadLanguage returns the TOON language handle, loading the embedded
// grammar on first use.
func LoadLanguage() (*Language, error) {
	loadOnce.Do(func() {
		loaded, loadErr = newLanguage(grammarSource)
	})
	return loaded, loadErr
}

// Language returns the TOON language handle, or nil if the grammar could not
// be loaded.
func Language() *Language {
	lang, err := LoadLanguage()
	if err != nil {
		return nil
	}
	return lang
}
