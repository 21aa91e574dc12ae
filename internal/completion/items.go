package completion

import (
	"fmt"
	"strings"

	"github.com/mcncl/ansible-ls/internal/docs"
)

// Sort priorities. Lower sorts first.
const (
	PriorityName           = 1
	PriorityModule         = 2
	PriorityRedirectModule = 3
	PriorityKeyword        = 4

	PriorityRequiredOption = 1
	PriorityOption         = 2
	PriorityAliasOption    = 3

	PriorityDefaultChoice = 1
	PriorityChoice        = 2
)

// SortText orders items by priority, then by name.
func SortText(priority int, name string) string {
	return fmt.Sprintf("%d_%s", priority, name)
}

// IndexedSortText orders items by priority, then by their documented order.
func IndexedSortText(priority, index int) string {
	return fmt.Sprintf("%d%3d", priority, index)
}

// KeywordPriority ranks the name keyword above the rest.
func KeywordPriority(keyword string) int {
	if keyword == "name" {
		return PriorityName
	}
	return PriorityKeyword
}

// OptionPriority ranks required options first and aliases last.
func OptionPriority(e docs.OptionEntry) int {
	switch {
	case e.IsAlias():
		return PriorityAliasOption
	case e.Option.Required:
		return PriorityRequiredOption
	default:
		return PriorityOption
	}
}

// Choice is a value offered for an option.
type Choice struct {
	Label     string
	IsDefault bool
}

// Choices lists the values offered for o: its documented choices, true and
// false for booleans, otherwise just its default.
func Choices(o *docs.Option) []Choice {
	def := o.Default
	if s, ok := def.(string); ok && o.Type == "bool" {
		def = strings.EqualFold(s, "yes")
	}

	var values []any
	switch {
	case len(o.Choices) > 0:
		values = o.Choices
	case o.Type == "bool":
		values = []any{true, false}
	case def != nil:
		values = []any{def}
	}

	choices := make([]Choice, 0, len(values))
	for _, v := range values {
		choices = append(choices, Choice{
			Label:     fmt.Sprint(v),
			IsDefault: def != nil && fmt.Sprint(v) == fmt.Sprint(def),
		})
	}
	return choices
}

// Dummy keys inserted at the cursor so the parser sees the scope the user is
// typing in.
const (
	DummyKey   = "_:"
	DummyValue = "__"
)

// DummyFor picks the dummy text for a cursor preceded by linePrefix on its
// line. After ": " the cursor is in a value, where "_:" would not parse.
func DummyFor(linePrefix string) string {
	if strings.Contains(linePrefix, ": ") {
		return DummyValue
	}
	return DummyKey
}

// AtEndOfLine reports whether nothing follows offset on its line.
func AtEndOfLine(text string, offset int) bool {
	if offset >= len(text) {
		return true
	}
	return text[offset] == '\n' || text[offset] == '\r'
}

// FirstElementOfList reports whether only a list dash precedes the key
// starting at offset on its line.
func FirstElementOfList(text string, offset int) bool {
	offset = min(offset, len(text))
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return strings.TrimSpace(text[lineStart:offset]) == "-"
}
