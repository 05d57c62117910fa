package tree_sitter_toon

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DecodeOptions control how a syntax tree is turned into values.
type DecodeOptions struct {
	// Strict rejects documents whose declared array lengths, tabular row
	// widths or delimiters disagree with their contents, and objects with
	// duplicate keys.
	Strict bool
	// ExpandPaths splits dotted unquoted keys such as a.b.c into nested
	// objects.
	ExpandPaths bool
}

// DefaultDecodeOptions are the options used by Unmarshal.
var DefaultDecodeOptions = DecodeOptions{Strict: true}

// Decode converts a syntax tree into Go values. Objects become
// map[string]any, arrays []any, numbers int64 or float64, and null nil.
func Decode(tree *Tree, src []byte, opts DecodeOptions) (any, error) {
	d := &decoder{src: src, lines: newLineIndex(src), opts: opts}
	doc := tree.RootNode().NamedChild(0)
	if doc == nil {
		return map[string]any{}, nil
	}
	return d.document(doc)
}

// DecodeBytes parses src with the TOON language and decodes the result.
func DecodeBytes(ctx context.Context, src []byte, opts DecodeOptions) (any, error) {
	lang, err := LoadLanguage()
	if err != nil {
		return nil, err
	}
	parser := NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}
	tree, err := parser.ParseCtx(ctx, src)
	if err != nil {
		return nil, err
	}
	return Decode(tree, src, opts)
}

// Unmarshal decodes a TOON document into the value pointed to by v, using
// the encoding/json rules for v's type.
func Unmarshal(src []byte, v any) error {
	value, err := DecodeBytes(context.Background(), src, DefaultDecodeOptions)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

type decoder struct {
	src   []byte
	lines lineIndex
	opts  DecodeOptions
}

func (d *decoder) errorf(n *Node, format string, args ...any) error {
	return newSyntaxError(d.lines, n.StartByte(), format, args...)
}

func (d *decoder) document(doc *Node) (any, error) {
	child := doc.NamedChild(0)
	switch child.Kind() {
	case "object":
		return d.object(child)
	case "array":
		return d.array(child)
	}
	return d.value(child)
}

func (d *decoder) object(obj *Node) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range obj.NamedChildren() {
		keyNode := pair.ChildByFieldName("key")
		key, err := d.key(keyNode)
		if err != nil {
			return nil, err
		}
		value, err := d.pair(pair)
		if err != nil {
			return nil, err
		}

		path := []string{key}
		if d.opts.ExpandPaths && keyNode.NamedChild(0).Kind() == "unquoted_key" {
			path = splitPath(key)
		}
		if err := d.set(out, path, value, pair); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var pathSegmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// splitPath splits a dotted key into its segments. A key with any segment
// that is not an identifier stays whole.
func splitPath(key string) []string {
	segments := strings.Split(key, ".")
	for _, segment := range segments {
		if !pathSegmentPattern.MatchString(segment) {
			return []string{key}
		}
	}
	return segments
}

// set stores value under path in obj, creating intermediate objects.
func (d *decoder) set(obj map[string]any, path []string, value any, at *Node) error {
	for _, segment := range path[:len(path)-1] {
		next, ok := obj[segment].(map[string]any)
		if !ok {
			if _, exists := obj[segment]; exists && d.opts.Strict {
				return d.errorf(at, "key %q conflicts with an existing value", segment)
			}
			next = map[string]any{}
			obj[segment] = next
		}
		obj = next
	}

	last := path[len(path)-1]
	existing, exists := obj[last]
	if !exists {
		obj[last] = value
		return nil
	}
	if d.opts.ExpandPaths {
		if dst, ok := existing.(map[string]any); ok {
			if src, ok := value.(map[string]any); ok {
				return d.merge(dst, src, at)
			}
		}
	}
	if d.opts.Strict {
		return d.errorf(at, "duplicate key %q", last)
	}
	obj[last] = value
	return nil
}

func (d *decoder) merge(dst, src map[string]any, at *Node) error {
	for k, v := range src {
		if err := d.set(dst, []string{k}, v, at); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) key(n *Node) (string, error) {
	child := n.NamedChild(0)
	if child.Kind() == "string" {
		return d.string(child)
	}
	return child.Utf8Text(d.src), nil
}

func (d *decoder) pair(pair *Node) (any, error) {
	value := pair.ChildByFieldName("value")
	var header *Node
	for _, c := range pair.NamedChildren() {
		if c.Kind() == "header" {
			header = c
		}
	}
	if header != nil {
		return d.arrayContent(header, value)
	}
	if value == nil {
		return map[string]any{}, nil
	}
	switch value.Kind() {
	case "object":
		return d.object(value)
	case "inline_values":
		return d.list(value, ',')
	}
	return d.value(value)
}

func (d *decoder) array(arr *Node) (any, error) {
	return d.arrayContent(arr.NamedChild(0), arr.NamedChild(1))
}

type header struct {
	length int
	delim  byte
	fields []string
}

func (d *decoder) header(n *Node) (header, error) {
	h := header{delim: ','}
	lengthNode := n.ChildByFieldName("length")
	length, err := strconv.Atoi(lengthNode.Utf8Text(d.src))
	if err != nil || length < 0 {
		return h, d.errorf(lengthNode, "invalid array length %q", lengthNode.Utf8Text(d.src))
	}
	h.length = length
	if delim := n.ChildByFieldName("delimiter"); delim != nil {
		h.delim = d.src[delim.StartByte()]
	}
	if list := n.ChildByFieldName("fields"); list != nil {
		for _, name := range list.NamedChildren() {
			field, err := d.key(name)
			if err != nil {
				return h, err
			}
			h.fields = append(h.fields, field)
		}
		if err := d.checkDelimiters(list, h.delim); err != nil {
			return h, err
		}
	}
	return h, nil
}

// arrayContent decodes the content that follows a header, which is nil for
// an empty array.
func (d *decoder) arrayContent(headerNode, content *Node) ([]any, error) {
	h, err := d.header(headerNode)
	if err != nil {
		return nil, err
	}

	items := []any{}
	if content != nil {
		switch content.Kind() {
		case "inline_values":
			if items, err = d.list(content, h.delim); err != nil {
				return nil, err
			}
		case "array_body":
			for _, row := range content.NamedChildren() {
				item, err := d.row(row, h)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
		}
	}

	if d.opts.Strict && len(items) != h.length {
		return nil, d.errorf(headerNode, "array declares %d items, found %d", h.length, len(items))
	}
	return items, nil
}

func (d *decoder) row(row *Node, h header) (any, error) {
	if row.Kind() == "tabular_row" {
		if err := d.checkDelimiters(row, h.delim); err != nil {
			return nil, err
		}
		values, err := d.values(row)
		if err != nil {
			return nil, err
		}
		if h.fields != nil {
			if d.opts.Strict && len(values) != len(h.fields) {
				return nil, d.errorf(row, "row has %d values, header declares %d fields", len(values), len(h.fields))
			}
			obj := make(map[string]any, len(h.fields))
			for i, field := range h.fields {
				if i < len(values) {
					obj[field] = values[i]
				}
			}
			return obj, nil
		}
		if len(values) == 1 {
			return values[0], nil
		}
		return values, nil
	}

	item := row.NamedChild(0)
	switch item.Kind() {
	case "object_row":
		obj := item.NamedChild(0)
		if obj == nil {
			return map[string]any{}, nil
		}
		return d.object(obj)
	case "array":
		return d.array(item)
	}

	// value_row > row_values > single_value | delimited_values
	inner := item.NamedChild(0).NamedChild(0)
	if inner.Kind() == "single_value" {
		return d.value(inner.NamedChild(0))
	}
	return d.list(inner, h.delim)
}

// list decodes the value children of n, checking its delimiters against
// delim.
func (d *decoder) list(n *Node, delim byte) ([]any, error) {
	if err := d.checkDelimiters(n, delim); err != nil {
		return nil, err
	}
	return d.values(n)
}

func (d *decoder) values(n *Node) ([]any, error) {
	var out []any
	for _, c := range n.NamedChildren() {
		v, err := d.value(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) checkDelimiters(n *Node, delim byte) error {
	if !d.opts.Strict {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			continue
		}
		if got := d.src[c.StartByte()]; got != delim {
			return d.errorf(c, "delimiter %q does not match declared delimiter %q", got, delim)
		}
	}
	return nil
}

func (d *decoder) value(n *Node) (any, error) {
	child := n.NamedChild(0)
	text := child.Utf8Text(d.src)
	switch child.Kind() {
	case "null":
		return nil, nil
	case "boolean":
		return text == "true", nil
	case "number":
		return d.number(child, text)
	case "string":
		return d.string(child)
	}
	return text, nil
}

func (d *decoder) number(n *Node, text string) (any, error) {
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if math.IsInf(f, 0) {
		return nil, d.errorf(n, "number %q out of range", text)
	}
	if err != nil {
		return nil, d.errorf(n, "invalid number %q", text)
	}
	if f == 0 {
		f = 0 // -0
	}
	return f, nil
}

func (d *decoder) string(n *Node) (string, error) {
	text := n.Utf8Text(d.src)
	body := text[1 : len(text)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}
