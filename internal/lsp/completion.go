package lsp

import (
	"path"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/completion"
	"github.com/mcncl/ansible-ls/internal/config"
	"github.com/mcncl/ansible-ls/internal/docs"
	"github.com/mcncl/ansible-ls/internal/modules"
	"github.com/mcncl/ansible-ls/internal/parser"
)

// CompletionProvider handles context-aware completion
type CompletionProvider struct {
	library  *docs.Library
	resolver *modules.Resolver
	fs       afero.Fs
	logger   *zap.SugaredLogger
}

// itemData travels with module and option items to completionItem/resolve.
type itemData struct {
	DocumentURI        string   `json:"documentUri"`
	ModuleFQCN         string   `json:"moduleFqcn,omitempty"`
	InlineCollections  []string `json:"inlineCollections,omitempty"`
	AtEndOfLine        bool     `json:"atEndOfLine"`
	FirstElementOfList bool     `json:"firstElementOfList"`
	Type               string   `json:"type,omitempty"`
}

// NewCompletionProvider creates a new completion provider. fs is used to
// read vars_files referenced by playbooks.
func NewCompletionProvider(library *docs.Library, fs afero.Fs, logger *zap.SugaredLogger) *CompletionProvider {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CompletionProvider{
		library:  library,
		resolver: modules.NewResolver(library),
		fs:       fs,
		logger:   logger,
	}
}

// completionRequest is the state of one completion request. file and path
// come from the text with a dummy key inserted at the cursor; offsets are
// valid in both texts up to the cursor.
type completionRequest struct {
	doc      *Document
	settings *config.Settings
	pos      parser.Position
	offset   int
	dummy    string
	file     *parser.File
	path     parser.Path
}

// GetCompletions returns context-aware completions for the given position
func (cp *CompletionProvider) GetCompletions(doc *Document, position protocol.Position, settings *config.Settings) []protocol.CompletionItem {
	if doc == nil {
		return []protocol.CompletionItem{}
	}

	lines := doc.File().Lines
	pos := toPosition(position)
	offset := lines.OffsetAt(pos)
	dummy := completion.DummyFor(doc.Content[lines.LineStart(pos.Line):offset])

	// The dummy key gives the parser a node at the cursor, so indentation
	// alone decides which mapping the cursor belongs to.
	prepared := doc.Content[:offset] + dummy + doc.Content[offset:]
	f := parser.Parse(prepared)
	p := f.GetPathAt(pos, true)
	if p == nil {
		return []protocol.CompletionItem{}
	}

	r := &completionRequest{
		doc:      doc,
		settings: settings,
		pos:      pos,
		offset:   offset,
		dummy:    dummy,
		file:     f,
		path:     p,
	}

	info := ansible.NewAnalyzer(settings.FileHints()).AnalyzeContext(&ansible.PositionContext{
		URI:      string(doc.URI),
		Position: pos,
		File:     f,
		Path:     p,
	})
	cp.logger.Debugw("Completion context", "uri", doc.URI, "context", info.Type.String(), "keyPath", info.GetKeyPath())

	switch {
	case info.IsPlay():
		return r.keywordItems(ansible.PlayKeywords.All())
	case info.Type == ansible.ContextBlock:
		return r.keywordItems(ansible.BlockKeywords.All())
	case info.Type == ansible.ContextRole:
		return r.keywordItems(ansible.RoleKeywords.All())
	case info.IsTask():
		return cp.taskItems(r, info)
	case info.Type == ansible.ContextJinja:
		if ansible.IsPlaybook(doc.File()) {
			return cp.varsItems(r)
		}
	}

	if items := cp.optionItems(r); items != nil {
		return items
	}
	if items := cp.valueItems(r); items != nil {
		return items
	}
	return []protocol.CompletionItem{}
}

func (r *completionRequest) atEndOfLine() bool {
	return completion.AtEndOfLine(r.doc.Content, r.offset)
}

// nodeRange returns the range of the string node at the cursor in the
// original text, without the dummy.
func (r *completionRequest) nodeRange() (parser.Range, bool) {
	s, ok := r.path.Last().(*parser.Scalar)
	if !ok || !s.IsString() {
		return parser.Range{}, false
	}
	rng := s.Range()
	if strings.Contains(s.Value, r.dummy) {
		rng.End -= len(r.dummy)
	} else {
		rng.End--
	}
	if rng.End < rng.Start || rng.Start > r.offset {
		return parser.Range{}, false
	}
	return rng, true
}

func (r *completionRequest) firstElementOfList() bool {
	rng, ok := r.nodeRange()
	return ok && completion.FirstElementOfList(r.doc.Content, rng.Start)
}

// setText puts text on item, replacing the node at the cursor when there
// is one.
func (r *completionRequest) setText(item *protocol.CompletionItem, text string) {
	if rng, ok := r.nodeRange(); ok {
		item.TextEdit = &protocol.TextEdit{Range: toRange(r.doc.File().Lines, rng), NewText: text}
		return
	}
	item.InsertText = text
}

func (r *completionRequest) providedKeys() map[string]bool {
	provided := make(map[string]bool)
	if m, ok := parser.NewAncestryBuilder(r.path).Parent(parser.MappingKind).Get().(*parser.Mapping); ok {
		for _, key := range m.Keys() {
			provided[key] = true
		}
	}
	return provided
}

func (r *completionRequest) keywordItems(keywords []ansible.Keyword) []protocol.CompletionItem {
	provided := r.providedKeys()
	atEnd := r.atEndOfLine()

	items := make([]protocol.CompletionItem, 0, len(keywords))
	for _, kw := range keywords {
		if provided[kw.Name] {
			continue
		}
		item := protocol.CompletionItem{
			Label:    kw.Name,
			Kind:     protocol.CompletionItemKindProperty,
			SortText: completion.SortText(completion.KeywordPriority(kw.Name), kw.Name),
			Documentation: protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: kw.Description,
			},
		}
		text := kw.Name
		if atEnd {
			text += ":"
		}
		r.setText(&item, text)
		items = append(items, item)
	}
	return items
}

// taskItems offers task keywords and, while the task names no module yet,
// the block keyword and every module.
func (cp *CompletionProvider) taskItems(r *completionRequest, info *ansible.ContextInfo) []protocol.CompletionItem {
	items := r.keywordItems(ansible.TaskKeywords.All())
	if info.Type == ansible.ContextPlayOrTask {
		items = append(items, r.keywordItems(ansible.PlayWithoutTaskKeywords.All())...)
	}

	if cp.resolver.FindProvidedModule(r.path) != nil {
		return items
	}

	description, _ := ansible.BlockKeywords.Description("block")
	items = append(items, r.keywordItems([]ansible.Keyword{{Name: "block", Description: description}})...)
	return append(items, cp.moduleItems(r, info.Collections)...)
}

func (cp *CompletionProvider) moduleItems(r *completionRequest, inlineCollections []string) []protocol.CompletionItem {
	s := r.settings.CompletionSettings()
	atEnd := r.atEndOfLine()
	firstInList := r.firstElementOfList()

	fqcns := cp.library.ModuleFQCNs()
	items := make([]protocol.CompletionItem, 0, len(fqcns))
	for _, fqcn := range fqcns {
		route, _ := cp.library.Route(fqcn)
		redirected := route.Redirect != ""
		if redirected && !r.settings.Completion.ProvideRedirectModules {
			continue
		}
		parsed, ok := docs.ParseFQCN(fqcn)
		if !ok {
			continue
		}

		priority, kind := completion.PriorityModule, protocol.CompletionItemKindClass
		if redirected {
			priority, kind = completion.PriorityRedirectModule, protocol.CompletionItemKindReference
		}

		label, filterText := parsed.Name, parsed.Name+" "+fqcn
		if s.UseFQCN {
			label = fqcn
			filterText = strings.Join([]string{parsed.Name, fqcn, parsed.Collection, parsed.Namespace}, " ")
		}

		data := itemData{
			DocumentURI:        string(r.doc.URI),
			ModuleFQCN:         fqcn,
			InlineCollections:  inlineCollections,
			AtEndOfLine:        atEnd,
			FirstElementOfList: firstInList,
		}
		item := protocol.CompletionItem{
			Label:      label,
			Kind:       kind,
			Detail:     parsed.CollectionName(),
			SortText:   completion.SortText(priority, label),
			FilterText: filterText,
			Data:       data,
		}
		r.setText(&item, completion.Resolve(data.request(""), s).InsertText)
		items = append(items, item)
	}
	return items
}

// optionItems offers the options of the module or option mapping at the
// cursor that are not written yet. It returns nil outside of options.
func (cp *CompletionProvider) optionItems(r *completionRequest) []protocol.CompletionItem {
	options := cp.resolver.PossibleOptionsForPath(r.path)
	if options == nil {
		return nil
	}

	provided := make(map[string]bool)
	if m, ok := parser.NewAncestryBuilder(r.path).ParentOfKey().Get().(*parser.Mapping); ok {
		for _, key := range m.Keys() {
			provided[key] = true
		}
	}

	atEnd := r.atEndOfLine()
	firstInList := r.firstElementOfList()

	items := []protocol.CompletionItem{}
	for _, entry := range options.Entries() {
		if provided[entry.Option.Name] {
			continue
		}
		if entry.IsAlias() && !r.settings.Completion.ProvideModuleOptionAliases {
			continue
		}

		kind := protocol.CompletionItemKindProperty
		if entry.IsAlias() {
			kind = protocol.CompletionItemKindReference
		}
		item := protocol.CompletionItem{
			Label:    entry.Name,
			Detail:   docs.OptionDetails(entry.Option),
			SortText: completion.IndexedSortText(completion.OptionPriority(entry), len(items)),
			Kind:     kind,
			Documentation: protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: docs.FormatOption(entry.Option, false),
			},
			Data: itemData{
				DocumentURI:        string(r.doc.URI),
				Type:               entry.Option.Type,
				AtEndOfLine:        atEnd,
				FirstElementOfList: firstInList,
			},
		}
		text := entry.Name
		if atEnd {
			text += ":"
		}
		r.setText(&item, text)
		items = append(items, item)
	}
	return items
}

// valueItems offers the values of the option whose value is at the cursor.
func (cp *CompletionProvider) valueItems(r *completionRequest) []protocol.CompletionItem {
	var keyPath parser.Path
	if parser.NewAncestryBuilder(r.path).Parent(parser.MappingKind).GetValue() == nil {
		// the dummy opened a nested mapping under the option
		keyPath = parser.NewAncestryBuilder(r.path).Parent(parser.MappingKind).Parent(parser.MappingKind).GetKeyPath()
	} else {
		keyPath = parser.NewAncestryBuilder(r.path).Parent(parser.MappingKind).GetKeyPath()
	}
	key, ok := keyPath.Last().(*parser.Scalar)
	if !ok {
		return nil
	}
	option, ok := cp.resolver.PossibleOptionsForPath(keyPath).Get(key.Value)
	if !ok {
		return nil
	}

	choices := completion.Choices(option)
	items := make([]protocol.CompletionItem, 0, len(choices))
	for i, choice := range choices {
		priority := completion.PriorityChoice
		item := protocol.CompletionItem{
			Label: choice.Label,
			Kind:  protocol.CompletionItemKindValue,
		}
		if choice.IsDefault {
			priority = completion.PriorityDefaultChoice
			item.Detail = "default"
		}
		item.SortText = completion.IndexedSortText(priority, i)
		r.setText(&item, choice.Label)
		items = append(items, item)
	}
	return items
}

type variable struct {
	name     string
	priority int
}

// varsItems offers the variables visible from a Jinja expression: vars of
// every enclosing scope up to the play, then the play's vars_prompt and
// vars_files. Closer scopes sort first.
func (cp *CompletionProvider) varsItems(r *completionRequest) []protocol.CompletionItem {
	hints := r.settings.FileHints()
	documentURI := string(r.doc.URI)

	p := parser.NewAncestryBuilder(r.path).Parent(parser.MappingKind).GetKeyPath()
	if p == nil {
		return []protocol.CompletionItem{}
	}

	var vars []variable
	priority := 0
	for hints.IsPlayParam(p, documentURI) != ansible.Yes {
		priority++
		next := parser.NewAncestryBuilder(p).Parent(parser.MappingKind).Parent(parser.MappingKind).GetKeyPath()
		if !isStringKeyPath(next) {
			next = parser.NewAncestryBuilder(p).
				Parent(parser.MappingKind).
				Parent(parser.SequenceKind).
				Parent(parser.MappingKind).
				GetKeyPath()
		}
		if !isStringKeyPath(next) {
			return variableItems(vars)
		}
		p = next
		if scope, ok := parser.NewAncestryBuilder(p).Parent(parser.MappingKind).Get().(*parser.Mapping); ok {
			vars = append(vars, scopeVars(scope, priority)...)
		}
	}

	play, ok := parser.NewAncestryBuilder(p).Parent(parser.MappingKind).Get().(*parser.Mapping)
	if !ok {
		return variableItems(vars)
	}
	if priority == 0 {
		vars = append(vars, scopeVars(play, priority)...)
	}

	priority++
	if prompts := play.Get("vars_prompt"); prompts != nil {
		if seq, ok := prompts.Value.(*parser.Sequence); ok {
			for _, item := range seq.Items {
				m, ok := item.(*parser.Mapping)
				if !ok {
					continue
				}
				if name := m.Get("name"); name != nil {
					if s, ok := name.Value.(*parser.Scalar); ok {
						vars = append(vars, variable{name: s.Value, priority: priority})
					}
				}
			}
		}
	}

	priority++
	if files := play.Get("vars_files"); files != nil {
		if seq, ok := files.Value.(*parser.Sequence); ok {
			for _, item := range seq.Items {
				if s, ok := item.(*parser.Scalar); ok {
					vars = append(vars, cp.varsFileVars(documentURI, s.Value, priority)...)
				}
			}
		}
	}
	return variableItems(vars)
}

// varsFileVars reads the variable names declared in a vars file, resolved
// relative to the document.
func (cp *CompletionProvider) varsFileVars(documentURI, name string, priority int) []variable {
	if cp.fs == nil || !strings.HasPrefix(documentURI, uri.FileScheme+"://") {
		return nil
	}
	file := name
	if !path.IsAbs(file) {
		file = path.Join(path.Dir(uri.URI(documentURI).Filename()), name)
	}

	data, err := afero.ReadFile(cp.fs, file)
	if err != nil {
		cp.logger.Debugw("Cannot read vars file", "file", file, "error", err)
		return nil
	}
	f := parser.Parse(string(data))
	if len(f.Documents) == 0 || f.Documents[0].Root == nil {
		return nil
	}

	var vars []variable
	switch root := f.Documents[0].Root.(type) {
	case *parser.Mapping:
		for _, key := range root.Keys() {
			vars = append(vars, variable{name: key, priority: priority})
		}
	case *parser.Sequence:
		for _, item := range root.Items {
			if m, ok := item.(*parser.Mapping); ok {
				for _, key := range m.Keys() {
					vars = append(vars, variable{name: key, priority: priority})
				}
			}
		}
	}
	return vars
}

func scopeVars(scope *parser.Mapping, priority int) []variable {
	p := scope.Get("vars")
	if p == nil {
		return nil
	}
	var vars []variable
	add := func(m *parser.Mapping) {
		for _, key := range m.Keys() {
			vars = append(vars, variable{name: key, priority: priority})
		}
	}
	switch v := p.Value.(type) {
	case *parser.Mapping:
		add(v)
	case *parser.Sequence:
		for _, item := range v.Items {
			if m, ok := item.(*parser.Mapping); ok {
				add(m)
			}
		}
	}
	return vars
}

func variableItems(vars []variable) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(vars))
	for _, v := range vars {
		items = append(items, protocol.CompletionItem{
			Label:    v.name,
			SortText: completion.SortText(v.priority, v.name),
			Kind:     protocol.CompletionItemKindVariable,
		})
	}
	return items
}

func isStringKeyPath(p parser.Path) bool {
	s, ok := p.Last().(*parser.Scalar)
	return ok && s.IsString()
}

func (d itemData) request(label string) completion.Request {
	return completion.Request{
		Label:              label,
		ModuleFQCN:         d.ModuleFQCN,
		InlineCollections:  slices.Clone(d.InlineCollections),
		AtEndOfLine:        d.AtEndOfLine,
		FirstElementOfList: d.FirstElementOfList,
		OptionType:         d.Type,
	}
}

// Resolve fills in the insert text and documentation of an item produced
// by GetCompletions.
func (cp *CompletionProvider) Resolve(item protocol.CompletionItem, settings *config.Settings) protocol.CompletionItem {
	data, ok := decodeItemData(item.Data)
	if !ok {
		return item
	}
	s := settings.CompletionSettings()

	if data.ModuleFQCN != "" {
		if m, found := cp.library.Module(data.ModuleFQCN); found {
			setResolvedText(&item, completion.Resolve(data.request(""), s).InsertText)
			var route *docs.Route
			if r, ok := cp.library.Route(data.ModuleFQCN); ok {
				route = &r
			}
			item.Documentation = protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: docs.FormatModule(m, route),
			}
		}
	}

	if data.Type != "" {
		setResolvedText(&item, completion.Resolve(data.request(item.Label), s).InsertText)
	}
	return item
}

func setResolvedText(item *protocol.CompletionItem, text string) {
	if item.TextEdit != nil {
		item.TextEdit.NewText = text
		item.InsertTextFormat = protocol.InsertTextFormatSnippet
		return
	}
	item.InsertText = text
	item.InsertTextFormat = protocol.InsertTextFormatPlainText
}

// decodeItemData recovers itemData from an item that went through the
// client, where it arrives as a generic JSON value.
func decodeItemData(v any) (itemData, bool) {
	var data itemData
	switch d := v.(type) {
	case nil:
		return data, false
	case itemData:
		return d, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return data, false
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, false
	}
	return data, true
}
