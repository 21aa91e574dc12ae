package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/parser"
)

// taskListKeys name the play sections listed as document symbols.
var taskListKeys = []string{"pre_tasks", "tasks", "post_tasks", "handlers"}

// documentSymbols outlines plays, blocks and tasks.
func documentSymbols(doc *Document) []protocol.DocumentSymbol {
	f := doc.File()
	symbols := []protocol.DocumentSymbol{}
	for _, d := range f.Documents {
		seq, ok := d.Root.(*parser.Sequence)
		if !ok {
			continue
		}
		for _, item := range seq.Items {
			m, ok := item.(*parser.Mapping)
			if !ok {
				continue
			}
			if isPlayMapping(m) {
				symbols = append(symbols, playSymbol(f.Lines, m))
			} else {
				symbols = append(symbols, taskSymbol(f.Lines, m))
			}
		}
	}
	return symbols
}

func isPlayMapping(m *parser.Mapping) bool {
	for _, key := range m.Keys() {
		if ansible.PlayExclusiveKeywords.Has(key) {
			return true
		}
	}
	return false
}

func playSymbol(lines *parser.LineIndex, m *parser.Mapping) protocol.DocumentSymbol {
	name := scalarValue(m, "name")
	if name == "" {
		name = scalarValue(m, "hosts")
	}
	if name == "" {
		name = "play"
	}

	symbol := newSymbol(lines, m, name, "play", protocol.SymbolKindNamespace)
	for _, key := range taskListKeys {
		symbol.Children = append(symbol.Children, taskSymbols(lines, m, key)...)
	}
	return symbol
}

func taskSymbols(lines *parser.LineIndex, m *parser.Mapping, key string) []protocol.DocumentSymbol {
	pair := m.Get(key)
	if pair == nil {
		return nil
	}
	seq, ok := pair.Value.(*parser.Sequence)
	if !ok {
		return nil
	}
	var symbols []protocol.DocumentSymbol
	for _, item := range seq.Items {
		if task, ok := item.(*parser.Mapping); ok {
			symbols = append(symbols, taskSymbol(lines, task))
		}
	}
	return symbols
}

func taskSymbol(lines *parser.LineIndex, m *parser.Mapping) protocol.DocumentSymbol {
	if m.Has("block") {
		name := scalarValue(m, "name")
		if name == "" {
			name = "block"
		}
		symbol := newSymbol(lines, m, name, "block", protocol.SymbolKindStruct)
		for _, key := range []string{"block", "rescue", "always"} {
			symbol.Children = append(symbol.Children, taskSymbols(lines, m, key)...)
		}
		return symbol
	}

	module := ""
	for _, key := range m.Keys() {
		if !ansible.IsTaskKeyword(key) {
			module = key
			break
		}
	}
	name := scalarValue(m, "name")
	switch {
	case name != "":
	case module != "":
		name = module
	default:
		name = "task"
	}
	return newSymbol(lines, m, name, module, protocol.SymbolKindFunction)
}

func newSymbol(lines *parser.LineIndex, m *parser.Mapping, name, detail string, kind protocol.SymbolKind) protocol.DocumentSymbol {
	selection := m.Range()
	if len(m.Pairs) > 0 {
		selection = m.Pairs[0].Key.Range()
	}
	if pair := m.Get("name"); pair != nil && pair.Value != nil {
		selection = pair.Value.Range()
	}
	return protocol.DocumentSymbol{
		Name:           name,
		Detail:         detail,
		Kind:           kind,
		Range:          toRange(lines, m.Range()),
		SelectionRange: toRange(lines, selection),
	}
}

func scalarValue(m *parser.Mapping, key string) string {
	pair := m.Get(key)
	if pair == nil {
		return ""
	}
	if s, ok := pair.Value.(*parser.Scalar); ok {
		return s.Value
	}
	return ""
}
