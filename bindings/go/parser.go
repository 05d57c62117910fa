package tree_sitter_toon

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// A Parser produces syntax trees from TOON source code.
type Parser struct {
	lang   *Language
	logger tree_sitter.Logger
}

// NewParser creates a parser without a language.
func NewParser() *Parser {
	return &Parser{}
}

// SetLanguage binds the parser to a language. It fails if the language is
// nil or was generated for an ABI the tree-sitter runtime does not support.
func (p *Parser) SetLanguage(lang *Language) error {
	if lang == nil {
		return ErrNoLanguage
	}
	if lang.version < minCompatibleLanguageVersion || lang.version > languageVersion {
		return &LanguageError{Version: lang.version}
	}
	p.lang = lang
	return nil
}

// Language returns the parser's current language.
func (p *Parser) Language() *Language {
	return p.lang
}

// SetLogger sets the callback that receives lexing and parsing messages.
// A nil logger disables logging.
func (p *Parser) SetLogger(logger tree_sitter.Logger) {
	p.logger = logger
}

// Parse parses a TOON document.
func (p *Parser) Parse(src []byte) (*Tree, error) {
	return p.ParseCtx(context.Background(), src)
}

// ParseCtx parses a TOON document, giving up with the context's error once
// ctx is done.
func (p *Parser) ParseCtx(ctx context.Context, src []byte) (*Tree, error) {
	if p.lang == nil {
		return nil, ErrNoLanguage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := newLineIndex(src)
	toks, err := p.lang.scan(src, lines, p.logger)
	if err != nil {
		return nil, err
	}

	s := &state{
		ctx:    ctx,
		lang:   p.lang,
		lines:  lines,
		toks:   toks,
		logger: p.logger,
	}
	root, err := s.sourceFile(uint(len(src)))
	if err != nil {
		return nil, err
	}
	return &Tree{lang: p.lang, root: root}, nil
}

var (
	unquotedKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	numberPattern      = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)
)

// cancelCheckInterval is the number of consumed tokens between context
// checks.
const cancelCheckInterval = 256

// state is a recursive descent parser over the scanner's tokens.
type state struct {
	ctx     context.Context
	lang    *Language
	lines   lineIndex
	toks    []token
	pos     int
	lastEnd uint
	steps   int
	logger  tree_sitter.Logger
}

type mark struct {
	pos     int
	lastEnd uint
}

func (s *state) mark() mark {
	return mark{pos: s.pos, lastEnd: s.lastEnd}
}

func (s *state) reset(m mark) {
	s.pos = m.pos
	s.lastEnd = m.lastEnd
}

func (s *state) peek() token {
	return s.toks[s.pos]
}

// peekPast returns the first token at or after index i that is not
// whitespace.
func (s *state) peekPast(i int) (token, int) {
	for i < len(s.toks)-1 && s.toks[i].kind == tokSpace {
		i++
	}
	return s.toks[i], i
}

func (s *state) next() (token, error) {
	t := s.toks[s.pos]
	if t.kind == tokEOF {
		return t, nil
	}
	s.pos++
	if t.kind != tokIndent && t.kind != tokDedent {
		s.lastEnd = t.end
	}
	s.steps++
	if s.steps%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (s *state) skipSpace() error {
	for s.peek().kind == tokSpace {
		if _, err := s.next(); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) errorf(t token, format string, args ...any) error {
	return newSyntaxError(s.lines, t.start, format, args...)
}

func (s *state) unexpected(t token, want string) error {
	return s.errorf(t, "expected %s, found %s", want, t.describe())
}

// open starts a node of the given kind at the next token.
func (s *state) open(kind string) *Node {
	start := s.peek().start
	return &Node{
		lang:       s.lang,
		kind:       s.lang.mustKind(kind, true),
		startByte:  start,
		startPoint: s.lines.point(start),
	}
}

// close ends n after the last consumed token.
func (s *state) close(n *Node) *Node {
	end := s.lastEnd
	if end < n.startByte {
		end = n.startByte
	}
	n.endByte = end
	n.endPoint = s.lines.point(end)
	if s.logger != nil {
		s.logger(tree_sitter.LogTypeParse, fmt.Sprintf("reduce %s %d-%d", n.Kind(), n.startByte, n.endByte))
	}
	return n
}

func (s *state) leaf(kind string, named bool, start, end uint) *Node {
	return &Node{
		lang:       s.lang,
		kind:       s.lang.mustKind(kind, named),
		startByte:  start,
		endByte:    end,
		startPoint: s.lines.point(start),
		endPoint:   s.lines.point(end),
	}
}

// consumeLeaf consumes the next token as a leaf node.
func (s *state) consumeLeaf(kind string, named bool) (*Node, error) {
	t, err := s.next()
	if err != nil {
		return nil, err
	}
	return s.leaf(kind, named, t.start, t.end), nil
}

func (s *state) expectPunct(value string) (*Node, error) {
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if t := s.peek(); !t.is(tokPunct, value) {
		return nil, s.unexpected(t, fmt.Sprintf("%q", value))
	}
	return s.consumeLeaf(value, false)
}

func (s *state) expectNewline() error {
	if err := s.skipSpace(); err != nil {
		return err
	}
	t := s.peek()
	if t.kind != tokNewline {
		return s.unexpected(t, "end of line")
	}
	_, err := s.next()
	return err
}

func (s *state) expectDedent() error {
	if t := s.peek(); t.kind != tokDedent {
		return s.unexpected(t, "dedent")
	}
	_, err := s.next()
	return err
}

// isKey reports whether t can be used as an object key.
func isKey(t token) bool {
	return t.kind == tokString || (t.kind == tokText && unquotedKeyPattern.MatchString(t.value))
}

// pairAt reports whether a pair starts at token index i: a key followed by
// ':' or a header.
func (s *state) pairAt(i int) bool {
	if !isKey(s.toks[i]) {
		return false
	}
	t, _ := s.peekPast(i + 1)
	return t.is(tokPunct, ":") || t.is(tokPunct, "[")
}

func (s *state) sourceFile(size uint) (*Node, error) {
	root := s.leaf("source_file", true, 0, size)
	if s.peek().kind != tokEOF {
		doc, err := s.document()
		if err != nil {
			return nil, err
		}
		root.add(doc, "")
	}
	if t := s.peek(); t.kind != tokEOF {
		return nil, s.unexpected(t, "end of input")
	}
	return root, nil
}

func (s *state) document() (*Node, error) {
	doc := s.open("document")
	var (
		child *Node
		err   error
	)
	switch t := s.peek(); {
	case t.is(tokPunct, "["):
		child, err = s.array()
	case t.kind == tokIndent:
		child, err = s.object(false)
	case s.pairAt(s.pos):
		child, err = s.object(true)
	default:
		child, err = s.value()
		if err == nil {
			err = s.expectNewline()
		}
	}
	if err != nil {
		return nil, err
	}
	doc.add(child, "")
	return s.close(doc), nil
}

// object parses pairs up to the end of input when root is set, and an
// indented block of pairs otherwise.
func (s *state) object(root bool) (*Node, error) {
	if !root {
		if t := s.peek(); t.kind != tokIndent {
			return nil, s.unexpected(t, "indentation")
		}
		if _, err := s.next(); err != nil {
			return nil, err
		}
	}
	obj := s.open("object")
	for {
		t := s.peek()
		if root && t.kind == tokEOF {
			break
		}
		if !root && t.kind == tokDedent {
			if _, err := s.next(); err != nil {
				return nil, err
			}
			break
		}
		pair, err := s.pair(false)
		if err != nil {
			return nil, err
		}
		obj.add(pair, "")
	}
	return s.close(obj), nil
}

// pair parses a key and its value. A first pair sits on the hyphen line of
// a list item and cannot own an indented body.
func (s *state) pair(first bool) (*Node, error) {
	t := s.peek()
	if !s.pairAt(s.pos) {
		return nil, s.unexpected(t, "key")
	}
	pair := s.open("pair")
	key, err := s.key()
	if err != nil {
		return nil, err
	}
	pair.add(key, "key")
	if err := s.skipSpace(); err != nil {
		return nil, err
	}

	if s.peek().is(tokPunct, "[") {
		header, err := s.header()
		if err != nil {
			return nil, err
		}
		pair.add(header, "")
		colon, err := s.expectPunct(":")
		if err != nil {
			return nil, err
		}
		pair.add(colon, "")
		if err := s.arrayContent(pair, "value", !first); err != nil {
			return nil, err
		}
		return s.close(pair), nil
	}

	colon, err := s.expectPunct(":")
	if err != nil {
		return nil, err
	}
	pair.add(colon, "")
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if s.peek().kind == tokNewline {
		if _, err := s.next(); err != nil {
			return nil, err
		}
		if !first && s.peek().kind == tokIndent {
			obj, err := s.object(false)
			if err != nil {
				return nil, err
			}
			pair.add(obj, "value")
		}
		return s.close(pair), nil
	}

	values, n, err := s.values(s.value)
	if err != nil {
		return nil, err
	}
	if n == 1 {
		pair.add(values[0], "value")
	} else {
		pair.add(s.wrap("inline_values", values), "value")
	}
	if err := s.expectNewline(); err != nil {
		return nil, err
	}
	return s.close(pair), nil
}

func (s *state) key() (*Node, error) {
	key := s.open("key")
	t := s.peek()
	var (
		child *Node
		err   error
	)
	if t.kind == tokString {
		child, err = s.string()
	} else {
		child, err = s.consumeLeaf("unquoted_key", true)
	}
	if err != nil {
		return nil, err
	}
	key.add(child, "")
	return s.close(key), nil
}

func (s *state) header() (*Node, error) {
	header := s.open("header")
	open, err := s.consumeLeaf("[", false)
	if err != nil {
		return nil, err
	}
	header.add(open, "")
	if err := s.skipSpace(); err != nil {
		return nil, err
	}

	t := s.peek()
	if !(t.kind == tokText || t.kind == tokNumber) || !numberPattern.MatchString(t.value) {
		return nil, s.unexpected(t, "array length")
	}
	length, err := s.consumeLeaf("number", true)
	if err != nil {
		return nil, err
	}
	header.add(length, "length")

	switch t := s.peek(); {
	case t.is(tokPunct, "|"), t.is(tokSpace, "\t"):
		delim, err := s.consumeLeaf("delimiter", true)
		if err != nil {
			return nil, err
		}
		header.add(delim, "delimiter")
	}

	closing, err := s.expectPunct("]")
	if err != nil {
		return nil, err
	}
	header.add(closing, "")

	if s.peek().is(tokPunct, "{") {
		brace, err := s.consumeLeaf("{", false)
		if err != nil {
			return nil, err
		}
		header.add(brace, "")
		list, err := s.fieldList()
		if err != nil {
			return nil, err
		}
		header.add(list, "fields")
		brace, err = s.expectPunct("}")
		if err != nil {
			return nil, err
		}
		header.add(brace, "")
	}
	return s.close(header), nil
}

func (s *state) fieldList() (*Node, error) {
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	list := s.open("field_list")
	items, _, err := s.values(s.fieldName)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		list.add(item, "")
	}
	return s.close(list), nil
}

func (s *state) fieldName() (*Node, error) {
	t := s.peek()
	if !isKey(t) {
		return nil, s.unexpected(t, "field name")
	}
	name := s.open("field_name")
	var (
		child *Node
		err   error
	)
	if t.kind == tokString {
		child, err = s.string()
	} else {
		child, err = s.consumeLeaf("unquoted_key", true)
	}
	if err != nil {
		return nil, err
	}
	name.add(child, "")
	return s.close(name), nil
}

// delimiter consumes a value delimiter: ',', '|' or a whitespace run that
// contains a tab. It returns nil, leaving the input untouched, if none
// follows.
func (s *state) delimiter() (*Node, error) {
	m := s.mark()
	for {
		t := s.peek()
		switch {
		case t.is(tokPunct, ","), t.is(tokPunct, "|"):
			return s.consumeLeaf(t.value, false)
		case t.kind == tokSpace && strings.Contains(t.value, "\t"):
			if _, err := s.next(); err != nil {
				return nil, err
			}
			at := t.start + uint(strings.IndexByte(t.value, '\t'))
			return s.leaf("\t", false, at, at+1), nil
		case t.kind == tokSpace:
			if _, err := s.next(); err != nil {
				return nil, err
			}
		default:
			s.reset(m)
			return nil, nil
		}
	}
}

// values parses item { delimiter item }. It returns the items interleaved
// with their delimiters, and the number of items.
func (s *state) values(item func() (*Node, error)) ([]*Node, int, error) {
	first, err := item()
	if err != nil {
		return nil, 0, err
	}
	nodes := []*Node{first}
	count := 1
	for {
		delim, err := s.delimiter()
		if err != nil {
			return nil, 0, err
		}
		if delim == nil {
			return nodes, count, nil
		}
		if err := s.skipSpace(); err != nil {
			return nil, 0, err
		}
		next, err := item()
		if err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, delim, next)
		count++
	}
}

// wrap returns a node of the given kind spanning children.
func (s *state) wrap(kind string, children []*Node) *Node {
	first, last := children[0], children[len(children)-1]
	n := s.leaf(kind, true, first.startByte, last.endByte)
	for _, c := range children {
		n.add(c, "")
	}
	return n
}

func (s *state) value() (*Node, error) {
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	t := s.peek()
	value := s.open("value")
	var (
		child *Node
		err   error
	)
	switch t.kind {
	case tokString:
		child, err = s.string()
	case tokNumber:
		child, err = s.consumeLeaf("number", true)
	case tokText:
		switch {
		case t.value == "null":
			child, err = s.consumeLeaf("null", true)
		case t.value == "true", t.value == "false":
			child = s.leaf("boolean", true, t.start, t.end)
			var word *Node
			word, err = s.consumeLeaf(t.value, false)
			if err == nil {
				child.add(word, "")
			}
		case numberPattern.MatchString(t.value):
			child, err = s.consumeLeaf("number", true)
		default:
			child, err = s.consumeLeaf("unquoted_string", true)
		}
	default:
		return nil, s.unexpected(t, "value")
	}
	if err != nil {
		return nil, err
	}
	value.add(child, "")
	return s.close(value), nil
}

func (s *state) string() (*Node, error) {
	t, err := s.next()
	if err != nil {
		return nil, err
	}
	str := s.leaf("string", true, t.start, t.end)
	str.add(s.leaf("\"", false, t.start, t.start+1), "")
	body := t.value[1 : len(t.value)-1]
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			continue
		}
		at := t.start + 1 + uint(i)
		if i+1 >= len(body) || !strings.ContainsRune(`"\nrt`, rune(body[i+1])) {
			return nil, newSyntaxError(s.lines, at, "invalid escape sequence")
		}
		str.add(s.leaf("escape_sequence", true, at, at+2), "")
		i++
	}
	str.add(s.leaf("\"", false, t.end-1, t.end), "")
	return str, nil
}

func (s *state) array() (*Node, error) {
	arr := s.open("array")
	header, err := s.header()
	if err != nil {
		return nil, err
	}
	arr.add(header, "")
	colon, err := s.expectPunct(":")
	if err != nil {
		return nil, err
	}
	arr.add(colon, "")
	if err := s.arrayContent(arr, "", true); err != nil {
		return nil, err
	}
	return s.close(arr), nil
}

// arrayContent parses what follows a header's colon into parent: inline
// values, an indented body (when body is set) or nothing.
func (s *state) arrayContent(parent *Node, field string, body bool) error {
	if err := s.skipSpace(); err != nil {
		return err
	}
	if s.peek().kind != tokNewline {
		values, _, err := s.values(s.value)
		if err != nil {
			return err
		}
		parent.add(s.wrap("inline_values", values), field)
		return s.expectNewline()
	}
	if _, err := s.next(); err != nil {
		return err
	}
	if !body || s.peek().kind != tokIndent {
		return nil
	}
	if _, err := s.next(); err != nil {
		return err
	}
	rows, err := s.arrayBody()
	if err != nil {
		return err
	}
	parent.add(rows, field)
	return s.expectDedent()
}

func (s *state) arrayBody() (*Node, error) {
	body := s.open("array_body")
	for {
		t := s.peek()
		if t.kind == tokDedent || t.kind == tokEOF {
			break
		}
		var (
			row *Node
			err error
		)
		if t.kind == tokDash {
			row, err = s.row()
		} else {
			row, err = s.tabularRow()
		}
		if err != nil {
			return nil, err
		}
		body.add(row, "")
	}
	return s.close(body), nil
}

func (s *state) row() (*Node, error) {
	row := s.open("row")
	after, i := s.peekPast(s.pos + 1)
	var (
		child *Node
		err   error
	)
	switch {
	case after.kind == tokNewline:
		child, err = s.objectRow(false)
	case s.toks[s.pos+1].kind != tokSpace:
		return nil, s.unexpected(s.toks[s.pos+1], "space after '-'")
	case after.is(tokPunct, "["):
		var dash *Node
		if dash, err = s.consumeLeaf("-", false); err != nil {
			return nil, err
		}
		row.add(dash, "")
		if err = s.skipSpace(); err != nil {
			return nil, err
		}
		child, err = s.array()
	case s.pairAt(i):
		child, err = s.objectRow(true)
	default:
		child, err = s.valueRow()
	}
	if err != nil {
		return nil, err
	}
	row.add(child, "")
	return s.close(row), nil
}

func (s *state) valueRow() (*Node, error) {
	row := s.open("value_row")
	dash, err := s.consumeLeaf("-", false)
	if err != nil {
		return nil, err
	}
	row.add(dash, "")
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	values, n, err := s.values(s.value)
	if err != nil {
		return nil, err
	}
	kind := "delimited_values"
	if n == 1 {
		kind = "single_value"
	}
	row.add(s.wrap("row_values", []*Node{s.wrap(kind, values)}), "")
	if err := s.expectNewline(); err != nil {
		return nil, err
	}
	return s.close(row), nil
}

// objectRow parses a list item holding an object, either with its first
// pair on the hyphen line (inline) or entirely on the following lines.
// The object is omitted for an empty item.
func (s *state) objectRow(inline bool) (*Node, error) {
	row := s.open("object_row")
	dash, err := s.consumeLeaf("-", false)
	if err != nil {
		return nil, err
	}
	row.add(dash, "")
	if err := s.skipSpace(); err != nil {
		return nil, err
	}

	if !inline {
		if err := s.expectNewline(); err != nil {
			return nil, err
		}
		// A bare hyphen with nothing indented below it is an empty object.
		if s.peek().kind == tokIndent {
			obj, err := s.object(false)
			if err != nil {
				return nil, err
			}
			row.add(obj, "")
		}
		return s.close(row), nil
	}

	obj := s.open("object")
	first, err := s.pair(true)
	if err != nil {
		return nil, err
	}
	obj.add(first, "")
	if s.peek().kind == tokIndent {
		if _, err := s.next(); err != nil {
			return nil, err
		}
		for s.peek().kind != tokDedent {
			pair, err := s.pair(false)
			if err != nil {
				return nil, err
			}
			obj.add(pair, "")
		}
		if err := s.expectDedent(); err != nil {
			return nil, err
		}
	}
	row.add(s.close(obj), "")
	return s.close(row), nil
}

func (s *state) tabularRow() (*Node, error) {
	row := s.open("tabular_row")
	values, _, err := s.values(s.value)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		row.add(v, "")
	}
	if err := s.expectNewline(); err != nil {
		return nil, err
	}
	return s.close(row), nil
}
