package semantic

import (
	"github.com/mcncl/ansible-ls/internal/parser"
)

// Encode packs tokens into the relative form of the LSP semantic tokens
// response: deltaLine, deltaStart, length, type and modifiers per token.
// Tokens must be in source order. A token spanning lines is cut at the end
// of its first line. Encode panics on a type or modifier outside the legend.
func Encode(tokens []Token, lines *parser.LineIndex) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0
	for _, t := range tokens {
		t.Type.mustBeDeclared()
		t.Modifiers.mustBeDeclared()

		start := lines.PositionAt(t.Range.Start)
		end := min(t.Range.End, lines.LineEnd(start.Line))
		length := 0
		if end > t.Range.Start {
			length = lines.UTF16Len(t.Range.Start, end)
		}

		deltaChar := start.Character
		if start.Line == prevLine {
			deltaChar -= prevChar
		}
		data = append(data,
			uint32(start.Line-prevLine),
			uint32(deltaChar),
			uint32(length),
			uint32(t.Type),
			uint32(t.Modifiers),
		)
		prevLine, prevChar = start.Line, start.Character
	}
	return data
}

// Decoded is a token in absolute coordinates.
type Decoded struct {
	Line      int
	Character int
	Length    int
	Type      TokenType
	Modifiers Modifiers
}

// Decode reverses Encode.
func Decode(data []uint32) []Decoded {
	tokens := make([]Decoded, 0, len(data)/5)
	line, char := 0, 0
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += int(data[i])
			char = 0
		}
		char += int(data[i+1])
		tokens = append(tokens, Decoded{
			Line:      line,
			Character: char,
			Length:    int(data[i+2]),
			Type:      TokenType(data[i+3]),
			Modifiers: Modifiers(data[i+4]),
		})
	}
	return tokens
}
