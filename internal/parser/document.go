package parser

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Document is one YAML document of a stream. Root is nil for an empty document.
type Document struct {
	Root Node
}

// File is a parsed YAML stream with the text it was parsed from.
type File struct {
	Text      string
	Lines     *LineIndex
	Documents []*Document
	// Err is set when the stream stopped parsing early. Documents holds
	// everything decoded before the failure.
	Err error
}

// maxRecoveries bounds how many broken lines Parse blanks out.
const maxRecoveries = 8

var syntaxErrorLine = regexp.MustCompile(`line (\d+):`)

// Parse decodes every document in text. It never fails outright: the first
// syntax error is recorded on the returned File, and the documents are taken
// from the text with the offending lines blanked, so the rest of the stream
// stays usable.
func Parse(text string) *File {
	f := &File{Text: text, Lines: NewLineIndex(text)}

	docs, err := decode(text, f.Lines)
	f.Documents = docs
	if err != nil {
		f.Err = errors.Wrap(err, "failed to parse YAML")
	}

	source := text
	for range maxRecoveries {
		if err == nil {
			break
		}
		line, ok := SyntaxErrorLine(err.Error())
		if !ok {
			break
		}
		next, changed := blankLine(source, line)
		if !changed {
			break
		}
		source = next
		docs, err = decode(source, NewLineIndex(source))
		if len(docs) >= len(f.Documents) {
			f.Documents = docs
		}
	}
	return f
}

// SyntaxErrorLine extracts the zero-based line from a YAML error message.
func SyntaxErrorLine(message string) (int, bool) {
	m := syntaxErrorLine.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// decode converts the documents of text up to the first error.
func decode(text string, lines *LineIndex) ([]*Document, error) {
	b := &builder{text: text, lines: lines}
	var docs []*Document

	dec := yaml.NewDecoder(strings.NewReader(text))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}

		d := &Document{}
		if len(doc.Content) > 0 && !isImplicitNull(doc.Content[0]) {
			d.Root = b.convert(doc.Content[0])
		}
		docs = append(docs, d)
	}
}

// blankLine replaces the content of a line with spaces, keeping every byte
// offset in place. changed is false when there was nothing to blank.
func blankLine(text string, line int) (string, bool) {
	start := 0
	for range line {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return text, false
		}
		start += i + 1
	}
	end := start
	for end < len(text) && text[end] != '\n' && text[end] != '\r' {
		end++
	}
	if strings.TrimSpace(text[start:end]) == "" {
		return text, false
	}
	return text[:start] + strings.Repeat(" ", end-start) + text[end:], true
}

type builder struct {
	text  string
	lines *LineIndex
}

func (b *builder) convert(n *yaml.Node) Node {
	switch n.Kind {
	case yaml.MappingNode:
		return b.mapping(n)
	case yaml.SequenceNode:
		return b.sequence(n)
	case yaml.AliasNode:
		start := b.start(n)
		s := &Scalar{Value: "*" + n.Value, span: Range{Start: start, End: start + 1 + len(n.Value)}}
		if n.Alias != nil {
			s.Tag = n.Alias.ShortTag()
		}
		return s
	default:
		return b.scalar(n)
	}
}

func (b *builder) mapping(n *yaml.Node) *Mapping {
	m := &Mapping{Flow: n.Style&yaml.FlowStyle != 0}
	start := b.start(n)
	end := start
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := b.convert(n.Content[i])
		var value Node
		if !isImplicitNull(n.Content[i+1]) {
			value = b.convert(n.Content[i+1])
		}
		p := NewPair(key, value)
		if value == nil {
			p.span.End = b.indicatorEnd(p.span.End)
		}
		m.Pairs = append(m.Pairs, p)
		end = max(end, p.span.End)
	}
	if m.Flow {
		end = b.closing(start, end, '}')
	}
	m.span = Range{Start: start, End: end}
	return m
}

func (b *builder) sequence(n *yaml.Node) *Sequence {
	s := &Sequence{Flow: n.Style&yaml.FlowStyle != 0}
	start := b.start(n)
	end := start
	for _, item := range n.Content {
		if isImplicitNull(item) {
			continue
		}
		child := b.convert(item)
		s.Items = append(s.Items, child)
		end = max(end, child.Range().End)
	}
	if s.Flow {
		end = b.closing(start, end, ']')
	}
	s.span = Range{Start: start, End: end}
	return s
}

func (b *builder) scalar(n *yaml.Node) *Scalar {
	start := b.start(n)
	at := b.skipProperties(start)
	return &Scalar{
		Value: n.Value,
		Tag:   n.ShortTag(),
		span:  Range{Start: start, End: b.scalarEnd(n, at)},
	}
}

func (b *builder) start(n *yaml.Node) int {
	return b.lines.offsetAtColumn(n.Line, n.Column)
}

// skipProperties moves past anchors and tags written in front of a value.
func (b *builder) skipProperties(at int) int {
	for at < len(b.text) && (b.text[at] == '!' || b.text[at] == '&') {
		for at < len(b.text) && !isBlank(b.text[at]) && b.text[at] != '\n' {
			at++
		}
		for at < len(b.text) && isBlank(b.text[at]) {
			at++
		}
	}
	return at
}

func (b *builder) scalarEnd(n *yaml.Node, at int) int {
	switch {
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return b.quotedEnd(at, '"')
	case n.Style&yaml.SingleQuotedStyle != 0:
		return b.quotedEnd(at, '\'')
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return b.blockEnd(at)
	}
	if n.Value != "" && strings.HasPrefix(b.text[at:], n.Value) {
		return at + len(n.Value)
	}
	return b.plainEnd(at)
}

func (b *builder) quotedEnd(at int, quote byte) int {
	if at >= len(b.text) || b.text[at] != quote {
		return b.plainEnd(at)
	}
	for i := at + 1; i < len(b.text); i++ {
		switch {
		case quote == '"' && b.text[i] == '\\':
			i++
		case b.text[i] == quote:
			if quote == '\'' && i+1 < len(b.text) && b.text[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(b.text)
}

// plainEnd is the fallback for plain scalars whose source text differs from
// their value: the rest of the line minus any comment.
func (b *builder) plainEnd(at int) int {
	end := b.lines.LineEnd(b.lines.LineOf(at))
	if i := strings.Index(b.text[at:end], " #"); i >= 0 {
		end = at + i
	}
	for end > at && isBlank(b.text[end-1]) {
		end--
	}
	return end
}

// blockEnd finds the end of a literal or folded scalar whose indicator starts
// at offset at. Content lines are the ones indented at least as deep as the
// first non-blank line after the indicator.
func (b *builder) blockEnd(at int) int {
	end := at
	for end < len(b.text) && !isBlank(b.text[end]) && b.text[end] != '\n' && b.text[end] != '\r' {
		end++
	}

	indent := -1
	for line := b.lines.LineOf(at) + 1; line < b.lines.LineCount(); line++ {
		content := b.lines.Line(line)
		trimmed := strings.TrimLeft(content, " ")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		lineIndent := len(content) - len(trimmed)
		if indent < 0 {
			if lineIndent <= b.parentIndent(at) {
				break
			}
			indent = lineIndent
		}
		if lineIndent < indent {
			break
		}
		end = b.lines.LineEnd(line)
	}
	return end
}

// parentIndent is the column of the node owning the block scalar at offset
// at: the sequence dash for "- |", otherwise the key in front of it.
func (b *builder) parentIndent(at int) int {
	prefix := b.text[b.lines.LineStart(b.lines.LineOf(at)):at]
	rest := strings.TrimLeft(prefix, " -")
	if rest == "" {
		return strings.LastIndex(prefix, "-")
	}
	return len(prefix) - len(rest)
}

// indicatorEnd returns the offset just past the ':' that follows a key
// ending at from, or from when there is none.
func (b *builder) indicatorEnd(from int) int {
	i := from
	for i < len(b.text) && isBlank(b.text[i]) {
		i++
	}
	if i < len(b.text) && b.text[i] == ':' {
		return i + 1
	}
	return from
}

// closing returns the offset just past the flow collection terminator at or
// after from.
func (b *builder) closing(start, from int, terminator byte) int {
	if from <= start {
		from = start + 1
	}
	if i := strings.IndexByte(b.text[min(from, len(b.text)):], terminator); i >= 0 {
		return from + i + 1
	}
	return from
}

func isImplicitNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" && n.Value == "" && n.Style == 0
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
