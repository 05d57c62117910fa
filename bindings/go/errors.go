package tree_sitter_toon

import (
	"errors"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrNoLanguage is returned when parsing with a parser that has no language.
var ErrNoLanguage = errors.New("toon: parser has no language")

// A LanguageError is returned by SetLanguage when the language's ABI version
// is not supported by the tree-sitter runtime.
type LanguageError struct {
	Version uint32
}

func (e *LanguageError) Error() string {
	return fmt.Sprintf("toon: incompatible language version %d, expected minimum %d, maximum %d",
		e.Version, minCompatibleLanguageVersion, languageVersion)
}

// A SyntaxError reports malformed input. Position is zero-based; Error
// prints it one-based.
type SyntaxError struct {
	Offset   uint
	Position tree_sitter.Point
	Msg      string
}

func newSyntaxError(lines lineIndex, offset uint, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Offset:   offset,
		Position: lines.point(offset),
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Position.Row+1, e.Position.Column+1, e.Msg)
}
