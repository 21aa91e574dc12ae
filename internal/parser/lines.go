package parser

import (
	"sort"
	"unicode/utf8"
)

// Position is a zero-based line and UTF-16 character offset, the unit used by
// editors speaking LSP.
type Position struct {
	Line      int
	Character int
}

// LineIndex converts between byte offsets and editor positions.
type LineIndex struct {
	text   string
	starts []int
}

func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

func (l *LineIndex) LineCount() int {
	return len(l.starts)
}

// LineStart returns the byte offset of the first byte of line.
func (l *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(l.starts) {
		return len(l.text)
	}
	return l.starts[line]
}

// LineEnd returns the byte offset of the line terminator of line, or the end
// of the text on the last line.
func (l *LineIndex) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line+1 >= len(l.starts) {
		return len(l.text)
	}
	end := l.starts[line+1] - 1
	if end > l.starts[line] && l.text[end-1] == '\r' {
		end--
	}
	return end
}

// Line returns the text of line without its terminator.
func (l *LineIndex) Line(line int) string {
	if line < 0 || line >= len(l.starts) {
		return ""
	}
	return l.text[l.LineStart(line):l.LineEnd(line)]
}

// LineOf returns the zero-based line containing offset.
func (l *LineIndex) LineOf(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
}

// OffsetAt converts a position to a byte offset. Characters past the end of
// the line clamp to the line end.
func (l *LineIndex) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(l.starts) {
		return len(l.text)
	}
	offset := l.starts[pos.Line]
	end := l.LineEnd(pos.Line)
	for units := 0; units < pos.Character && offset < end; {
		r, size := utf8.DecodeRuneInString(l.text[offset:])
		units += utf16Len(r)
		offset += size
	}
	return offset
}

// PositionAt converts a byte offset to a position.
func (l *LineIndex) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(l.text) {
		offset = len(l.text)
	}
	line := l.LineOf(offset)
	return Position{Line: line, Character: l.UTF16Len(l.starts[line], offset)}
}

// UTF16Len counts the UTF-16 code units between two byte offsets.
func (l *LineIndex) UTF16Len(start, end int) int {
	n := 0
	for _, r := range l.text[start:end] {
		n += utf16Len(r)
	}
	return n
}

// offsetAtColumn converts a one-based line and one-based rune column, as
// reported by the YAML decoder, to a byte offset.
func (l *LineIndex) offsetAtColumn(line, column int) int {
	if line < 1 {
		return 0
	}
	if line > len(l.starts) {
		return len(l.text)
	}
	offset := l.starts[line-1]
	for i := 1; i < column && offset < len(l.text); i++ {
		_, size := utf8.DecodeRuneInString(l.text[offset:])
		offset += size
	}
	return offset
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
