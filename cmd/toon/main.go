// Command toon parses TOON documents and prints their syntax trees or their
// JSON equivalent.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_toon "github.com/3swordman/tree-sitter-toon/bindings/go"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns its exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "toon: ", 0)

	flags := flag.NewFlagSet("toon", flag.ContinueOnError)
	flags.SetOutput(stderr)
	format := flags.String("format", "sexp", "output format: sexp or json")
	strict := flags.Bool("strict", true, "validate array lengths, row widths and delimiters")
	expand := flags.Bool("expand-paths", false, "expand dotted keys into nested objects")
	debug := flags.Bool("debug", false, "log lexing and parsing steps to stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *format != "sexp" && *format != "json" {
		logger.Printf("unknown format %q", *format)
		return 2
	}

	parser := tree_sitter_toon.NewParser()
	if err := parser.SetLanguage(tree_sitter_toon.Language()); err != nil {
		logger.Print(err)
		return 1
	}
	if *debug {
		parser.SetLogger(func(typ tree_sitter.LogType, msg string) {
			kind := "parse"
			if typ == tree_sitter.LogTypeLex {
				kind = "lex"
			}
			logger.Printf("%s: %s", kind, msg)
		})
	}

	r := &runner{
		parser: parser,
		format: *format,
		opts:   tree_sitter_toon.DecodeOptions{Strict: *strict, ExpandPaths: *expand},
		out:    stdout,
	}

	files := flags.Args()
	if len(files) == 0 {
		src, err := io.ReadAll(stdin)
		if err == nil {
			err = r.run("<stdin>", src)
		}
		if err != nil {
			logger.Print(err)
			return 1
		}
		return 0
	}

	status := 0
	for _, name := range files {
		src, err := os.ReadFile(name)
		if err == nil {
			err = r.run(name, src)
		}
		if err != nil {
			logger.Print(err)
			status = 1
		}
	}
	return status
}

type runner struct {
	parser *tree_sitter_toon.Parser
	format string
	opts   tree_sitter_toon.DecodeOptions
	out    io.Writer
}

func (r *runner) run(name string, src []byte) error {
	tree, err := r.parser.ParseCtx(context.Background(), src)
	if err != nil {
		return annotate(name, err)
	}
	if r.format == "sexp" {
		_, err := fmt.Fprintln(r.out, tree.RootNode().ToSexp())
		return err
	}

	value, err := tree_sitter_toon.Decode(tree, src, r.opts)
	if err != nil {
		return annotate(name, err)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// annotate prefixes err with the file name, as name:row:col: for syntax
// errors.
func annotate(name string, err error) error {
	var serr *tree_sitter_toon.SyntaxError
	if errors.As(err, &serr) {
		return fmt.Errorf("%s:%w", name, err)
	}
	return fmt.Errorf("%s: %w", name, err)
}
