package tree_sitter_toon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLanguage(t *testing.T) {
	lang, err := LoadLanguage()
	require.NoError(t, err)
	again, err := LoadLanguage()
	require.NoError(t, err)
	assert.Same(t, lang, again)

	assert.Equal(t, "toon", lang.Name())
	assert.Equal(t, uint32(14), lang.Version())
}

func TestLanguageSymbols(t *testing.T) {
	lang := Language()
	require.NotNil(t, lang)

	assert.Equal(t, uint32(len(symbols)), lang.NodeKindCount())
	pair := lang.IdForNodeKind("pair", true)
	assert.NotZero(t, pair)
	assert.Equal(t, "pair", lang.NodeKindForId(pair))
	assert.True(t, lang.NodeKindIsNamed(pair))

	colon := lang.IdForNodeKind(":", false)
	assert.NotZero(t, colon)
	assert.False(t, lang.NodeKindIsNamed(colon))
	assert.Zero(t, lang.IdForNodeKind(":", true))
	assert.Zero(t, lang.IdForNodeKind("nope", true))
	assert.Equal(t, "", lang.NodeKindForId(uint16(len(symbols))))

	assert.Equal(t, uint32(5), lang.FieldCount())
	assert.Equal(t, uint16(3), lang.FieldIdForName("key"))
	assert.Equal(t, "value", lang.FieldNameForId(5))
	assert.Zero(t, lang.FieldIdForName(""))
	assert.Zero(t, lang.FieldIdForName("nope"))
	assert.Equal(t, "", lang.FieldNameForId(6))
}

func TestNewLanguageRejectsBadGrammar(t *testing.T) {
	tests := []struct {
		name    string
		grammar string
	}{
		{name: "syntax", grammar: "SourceFile = ( ."},
		{name: "missing production", grammar: "SourceFile = Document ."},
		{name: "unreachable production", grammar: "SourceFile = \"x\" .\nOther = \"y\" ."},
		{name: "missing node kind", grammar: "SourceFile = \"x\" ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, err := newLanguage([]byte(tt.grammar))
			assert.Nil(t, lang)
			assert.ErrorContains(t, err, "toon: ")
		})
	}

	_, err := newLanguage([]byte("SourceFile = \"x\" ."))
	assert.ErrorContains(t, err, `no production for node kind "document"`)
}

func TestProductionName(t *testing.T) {
	assert.Equal(t, "SourceFile", productionName("source_file"))
	assert.Equal(t, "UnquotedKey", productionName("unquoted_key"))
	assert.Equal(t, "Null", productionName("null"))
}

func TestSetLanguageVersion(t *testing.T) {
	parser := NewParser()

	err := parser.SetLanguage(&Language{name: languageName, version: 1})
	var lerr *LanguageError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, uint32(1), lerr.Version)
	assert.EqualError(t, err, "toon: incompatible language version 1, expected minimum 13, maximum 14")
	assert.Nil(t, parser.Language())

	err = parser.SetLanguage(&Language{name: languageName, version: languageVersion + 1})
	assert.Error(t, err)
	require.NoError(t, parser.SetLanguage(&Language{name: languageName, version: minCompatibleLanguageVersion}))

	require.NoError(t, parser.SetLanguage(Language()))
	assert.Same(t, Language(), parser.Language())
}
