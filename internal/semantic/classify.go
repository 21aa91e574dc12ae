package semantic

import (
	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/docs"
	"github.com/mcncl/ansible-ls/internal/modules"
	"github.com/mcncl/ansible-ls/internal/parser"
)

// Token is one highlighted key.
type Token struct {
	Range     parser.Range
	Type      TokenType
	Modifiers Modifiers
}

type step int

const (
	walkNode     step = iota // Ansible structure below node
	walkPair                 // a pair of a structural mapping
	optionPair               // a pair of a module option mapping
	ordinaryNode             // every key below node is ordinary
	ordinaryPair
)

// work is one pending step. Structural steps carry the context gathered on
// the way down, so no step climbs back up the tree.
type work struct {
	step    step
	node    parser.Node
	pair    *parser.Pair
	options *docs.OptionMap

	item        *ansible.ListItem // walkNode: where a sequence item sits
	owner       *parser.Mapping   // walkPair: the mapping holding pair
	scope       ansible.Scope     // walkPair: what owner's keys are
	collections []string          // declared around node or owner
}

// Classifier produces semantic tokens for whole documents.
type Classifier struct {
	resolver *modules.Resolver
	hints    *ansible.FileHints
}

// NewClassifier returns a Classifier resolving modules with resolver. A nil
// hints uses ansible.DefaultFileHints.
func NewClassifier(resolver *modules.Resolver, hints *ansible.FileHints) *Classifier {
	if hints == nil {
		hints = ansible.DefaultFileHints
	}
	return &Classifier{resolver: resolver, hints: hints}
}

// Classify returns the tokens of every document in f in source order.
func (c *Classifier) Classify(f *parser.File, documentURI string) []Token {
	if f == nil {
		return nil
	}
	s := &scan{Classifier: c, uri: documentURI}
	for _, doc := range f.Documents {
		if doc.Root != nil {
			s.run(doc.Root)
		}
	}
	return s.tokens
}

type scan struct {
	*Classifier
	uri    string
	stack  []work
	tokens []Token
}

func (s *scan) run(root parser.Node) {
	s.stack = append(s.stack[:0], work{step: walkNode, node: root, collections: []string{}})
	for len(s.stack) > 0 {
		w := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		switch w.step {
		case walkNode:
			s.walkNode(w)
		case walkPair:
			s.walkPair(w)
		case optionPair:
			s.optionPair(w.pair, w.options)
		case ordinaryNode:
			s.ordinaryNode(w.node)
		case ordinaryPair:
			s.ordinaryPair(w.pair)
		}
	}
}

// push schedules items so that the first one is processed first.
func (s *scan) push(items ...work) {
	for i := len(items) - 1; i >= 0; i-- {
		s.stack = append(s.stack, items[i])
	}
}

func (s *scan) walkNode(w work) {
	switch n := w.node.(type) {
	case *parser.Mapping:
		scope := s.hints.MappingScope(n, w.item, s.uri)
		collections := ansible.DeclaredCollectionsIn(n, w.collections)
		items := make([]work, 0, len(n.Pairs))
		for _, p := range n.Pairs {
			items = append(items, work{step: walkPair, pair: p, owner: n, scope: scope, collections: collections})
		}
		s.push(items...)
	case *parser.Sequence:
		item := &ansible.ListItem{Root: w.item == nil && w.owner == nil && w.pair == nil}
		if w.pair != nil {
			item.Owner, _ = w.pair.KeyName()
		}
		items := make([]work, 0, len(n.Items))
		for _, child := range n.Items {
			items = append(items, work{step: walkNode, node: child, item: item, collections: w.collections})
		}
		s.push(items...)
	}
}

func (s *scan) walkPair(w work) {
	key, ok := w.pair.Key.(*parser.Scalar)
	if !ok {
		s.descend(w)
		return
	}

	switch w.scope {
	case ansible.ScopePlay:
		s.markKeywordIf(key, ansible.PlayKeywords.Has(key.Value))
		s.descend(w)
	case ansible.ScopeBlock:
		s.markKeywordIf(key, ansible.BlockKeywords.Has(key.Value))
		s.descend(w)
	case ansible.ScopeRole:
		s.markKeywordIf(key, ansible.RoleKeywords.Has(key.Value))
		s.descend(w)
	case ansible.ScopeTask:
		s.taskParam(w, key)
	default:
		s.push(work{step: ordinaryPair, pair: w.pair})
	}
}

// taskParam handles a key of a task. Tasks have no deeper Ansible
// structure, so nothing below it is walked as such.
func (s *scan) taskParam(w work, key *parser.Scalar) {
	if ansible.IsTaskKeyword(key.Value) {
		s.mark(key, Keyword, 0)
		var m *docs.Module
		if key.Value == "args" {
			m = s.resolver.FindTaskModule(w.owner, w.collections)
		}
		s.moduleValue(w.pair.Value, m)
		return
	}

	m := s.resolver.FindModuleIn(key.Value, w.collections)
	if m == nil {
		s.push(work{step: ordinaryPair, pair: w.pair})
		return
	}
	s.mark(key, Class, 0)
	s.moduleValue(w.pair.Value, m)
}

// moduleValue schedules the options given to m. Without a module every key
// is ordinary.
func (s *scan) moduleValue(value parser.Node, m *docs.Module) {
	if mapping, ok := value.(*parser.Mapping); ok && m != nil {
		s.pushOptions(mapping, m.Options)
		return
	}
	if value != nil {
		s.push(work{step: ordinaryNode, node: value})
	}
}

func (s *scan) pushOptions(mapping *parser.Mapping, options *docs.OptionMap) {
	items := make([]work, 0, len(mapping.Pairs))
	for _, p := range mapping.Pairs {
		items = append(items, work{step: optionPair, pair: p, options: options})
	}
	s.push(items...)
}

func (s *scan) optionPair(pair *parser.Pair, options *docs.OptionMap) {
	key, ok := pair.Key.(*parser.Scalar)
	if !ok {
		if pair.Value != nil {
			s.push(work{step: ordinaryNode, node: pair.Value})
		}
		return
	}
	o, ok := options.Get(key.Value)
	if !ok {
		s.push(work{step: ordinaryPair, pair: pair})
		return
	}
	s.mark(key, Method, 0)

	switch v := pair.Value.(type) {
	case *parser.Mapping:
		if o.Type == "dict" {
			s.pushOptions(v, o.Suboptions)
			return
		}
	case *parser.Sequence:
		if o.Type == "list" {
			items := make([]work, 0, len(v.Items))
			for _, item := range v.Items {
				if m, ok := item.(*parser.Mapping); ok {
					for _, p := range m.Pairs {
						items = append(items, work{step: optionPair, pair: p, options: o.Suboptions})
					}
					continue
				}
				items = append(items, work{step: ordinaryNode, node: item})
			}
			s.push(items...)
			return
		}
	}
	if pair.Value != nil {
		s.push(work{step: ordinaryNode, node: pair.Value})
	}
}

func (s *scan) ordinaryNode(node parser.Node) {
	switch n := node.(type) {
	case *parser.Mapping:
		items := make([]work, 0, len(n.Pairs))
		for _, p := range n.Pairs {
			items = append(items, work{step: ordinaryPair, pair: p})
		}
		s.push(items...)
	case *parser.Sequence:
		items := make([]work, 0, len(n.Items))
		for _, item := range n.Items {
			items = append(items, work{step: ordinaryNode, node: item})
		}
		s.push(items...)
	}
}

func (s *scan) ordinaryPair(pair *parser.Pair) {
	if key, ok := pair.Key.(*parser.Scalar); ok {
		s.mark(key, Property, Definition)
	}
	if pair.Value != nil {
		s.push(work{step: ordinaryNode, node: pair.Value})
	}
}

// descend walks the value of a structural pair. A sequence found there
// learns its owning key from the pair.
func (s *scan) descend(w work) {
	if w.pair.Value != nil {
		s.push(work{step: walkNode, node: w.pair.Value, pair: w.pair, collections: w.collections})
	}
}

func (s *scan) markKeywordIf(key *parser.Scalar, keyword bool) {
	if keyword {
		s.mark(key, Keyword, 0)
		return
	}
	s.mark(key, Property, Definition)
}

func (s *scan) mark(key *parser.Scalar, t TokenType, m Modifiers) {
	s.tokens = append(s.tokens, Token{Range: key.Range(), Type: t, Modifiers: m})
}
