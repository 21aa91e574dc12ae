package ansible

import (
	"strings"

	"github.com/mcncl/ansible-ls/internal/parser"
)

const (
	jinjaOpen  = "{{ "
	jinjaClose = " }}"
)

// IsCursorInsideJinjaBrackets reports whether pos sits between a "{{ " and
// the matching " }}" on its line. path is the node path at pos; a scalar
// there must itself contain an expression, which is how quoted templated
// values look once parsed.
func IsCursorInsideJinjaBrackets(f *parser.File, pos parser.Position, path parser.Path) bool {
	switch n := path.Last().(type) {
	case *parser.Scalar:
		if !strings.Contains(n.Value, jinjaOpen) {
			return false
		}
	case *parser.Mapping, *parser.Sequence:
		return false
	}

	offset := f.Lines.OffsetAt(pos)
	lineStart := f.Lines.LineStart(pos.Line)
	lineEnd := f.Lines.LineEnd(pos.Line)
	if offset < lineStart || offset > lineEnd {
		return false
	}

	before := f.Text[lineStart:offset]
	after := f.Text[offset:lineEnd]

	start := strings.LastIndex(before, jinjaOpen)
	if start < 0 || strings.Contains(before[start:], jinjaClose) {
		return false
	}

	end := strings.Index(after, jinjaClose)
	if open := strings.Index(after, jinjaOpen); open >= 0 && open < end {
		// the nearest close belongs to a later expression
		end = -1
	}
	return end >= 0
}
