package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/config"
	"github.com/mcncl/ansible-ls/internal/docs"
	"github.com/mcncl/ansible-ls/internal/modules"
	"github.com/mcncl/ansible-ls/internal/parser"
)

// HoverProvider documents the key under the cursor.
type HoverProvider struct {
	library  *docs.Library
	resolver *modules.Resolver
}

func NewHoverProvider(library *docs.Library) *HoverProvider {
	return &HoverProvider{library: library, resolver: modules.NewResolver(library)}
}

// GetHover returns nil when the cursor is not on a documented key.
func (hp *HoverProvider) GetHover(posCtx *ansible.PositionContext, settings *config.Settings) *protocol.Hover {
	if posCtx == nil {
		return nil
	}
	path := posCtx.Path
	key, ok := path.Last().(*parser.Scalar)
	if !ok || !key.IsString() {
		return nil
	}
	pair, ok := parser.NewAncestryBuilder(path).Parent(parser.PairKind).Get().(*parser.Pair)
	if !ok || pair.Key != key {
		return nil
	}

	info := ansible.NewAnalyzer(settings.FileHints()).AnalyzeContext(posCtx)

	var value string
	switch {
	case info.IsPlay():
		value, ok = ansible.PlayKeywords.Description(key.Value)
	case info.Type == ansible.ContextBlock:
		value, ok = ansible.BlockKeywords.Description(key.Value)
	case info.Type == ansible.ContextRole:
		value, ok = ansible.RoleKeywords.Description(key.Value)
	case info.IsTask():
		if ansible.IsTaskKeyword(key.Value) {
			value, ok = ansible.TaskKeywords.Description(key.Value)
		} else {
			value, ok = hp.moduleHover(key.Value, info.Collections)
		}
	default:
		if o := hp.resolver.OptionAt(path); o != nil {
			value, ok = docs.FormatOption(o, true), true
		}
	}
	if !ok || value == "" {
		return nil
	}

	rng := toRange(posCtx.File.Lines, key.Range())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: value},
		Range:    &rng,
	}
}

func (hp *HoverProvider) moduleHover(name string, declared []string) (string, bool) {
	if m, fqcn := hp.library.FindModule(name, declared); m != nil {
		var route *docs.Route
		if r, ok := hp.library.Route(fqcn); ok {
			route = &r
		}
		return docs.FormatModule(m, route), true
	}
	for _, candidate := range docs.Candidates(name, declared) {
		if r, ok := hp.library.Route(candidate); ok && r.Tombstone {
			return docs.FormatRemoved(r), true
		}
	}
	return "", false
}
