package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tree_sitter_toon "github.com/3swordman/tree-sitter-toon/bindings/go"
)

func newRunner(t *testing.T, format string, opts tree_sitter_toon.DecodeOptions) (*runner, *bytes.Buffer) {
	t.Helper()
	parser := tree_sitter_toon.NewParser()
	require.NoError(t, parser.SetLanguage(tree_sitter_toon.Language()))
	var out bytes.Buffer
	return &runner{parser: parser, format: format, opts: opts, out: &out}, &out
}

func TestRunnerSexp(t *testing.T) {
	r, out := newRunner(t, "sexp", tree_sitter_toon.DefaultDecodeOptions)
	require.NoError(t, r.run("x.toon", []byte("a: 1\n")))
	assert.Equal(t, "(source_file (document (object (pair key: (key (unquoted_key)) value: (value (number))))))\n", out.String())
}

func TestRunnerJSON(t *testing.T) {
	r, out := newRunner(t, "json", tree_sitter_toon.DefaultDecodeOptions)
	require.NoError(t, r.run("x.toon", []byte("b[2]: x,y\na: 1\n")))
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    \"x\",\n    \"y\"\n  ]\n}\n", out.String())
}

func TestRunnerErrorsNameTheFile(t *testing.T) {
	r, _ := newRunner(t, "sexp", tree_sitter_toon.DefaultDecodeOptions)
	err := r.run("x.toon", []byte("a: \"\\q\"\n"))
	assert.EqualError(t, err, "x.toon:1:5: invalid escape sequence")

	r, _ = newRunner(t, "json", tree_sitter_toon.DefaultDecodeOptions)
	err = r.run("y.toon", []byte("a[3]: 1,2\n"))
	assert.EqualError(t, err, "y.toon:1:2: array declares 3 items, found 2")
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stdin  string
		status int
		stdout string
		stderr string
	}{
		{
			name:   "stdin sexp",
			stdin:  "a: 1\n",
			stdout: "(source_file (document (object (pair key: (key (unquoted_key)) value: (value (number))))))\n",
		},
		{
			name:   "lax json",
			args:   []string{"-format", "json", "-strict=false"},
			stdin:  "a[3]: 1,2\n",
			stdout: "{\n  \"a\": [\n    1,\n    2\n  ]\n}\n",
		},
		{
			name:   "strict json",
			args:   []string{"-format", "json"},
			stdin:  "a[3]: 1,2\n",
			status: 1,
			stderr: "toon: <stdin>:1:2: array declares 3 items, found 2\n",
		},
		{
			name:   "expand paths",
			args:   []string{"-format", "json", "-expand-paths"},
			stdin:  "a.b: 1\n",
			stdout: "{\n  \"a\": {\n    \"b\": 1\n  }\n}\n",
		},
		{
			name:   "unknown format",
			args:   []string{"-format", "yaml"},
			status: 2,
			stderr: "toon: unknown format \"yaml\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			status := run(tt.args, strings.NewReader(tt.stdin), &stdout, &stderr)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.stdout, stdout.String())
			assert.Equal(t, tt.stderr, stderr.String())
		})
	}
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toon")
	bad := filepath.Join(dir, "bad.toon")
	require.NoError(t, os.WriteFile(good, []byte("a: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("a: \"\\q\"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	status := run([]string{"-format", "json", good, bad, filepath.Join(dir, "missing.toon")}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, status)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", stdout.String())

	lines := strings.Split(strings.TrimSuffix(stderr.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "toon: "+bad+":1:5: invalid escape sequence", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "toon: "), lines[1])
	assert.Contains(t, lines[1], "missing.toon")
}
