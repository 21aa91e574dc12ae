package ansible

import (
	"github.com/mcncl/ansible-ls/internal/parser"
)

// Tristate is the answer to a question the document may not settle.
type Tristate int

const (
	No Tristate = iota
	Yes
	Unknown
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// taskListKeys own sequences whose items are tasks.
var taskListKeys = map[string]bool{
	"tasks":      true,
	"pre_tasks":  true,
	"post_tasks": true,
	"block":      true,
	"rescue":     true,
	"always":     true,
	"handlers":   true,
}

// ListItem locates the sequence a mapping is an item of.
type ListItem struct {
	Root  bool   // the sequence is a document root
	Owner string // key of the pair holding the sequence, if any
}

// Scope is the Ansible structure whose parameters a mapping holds.
type Scope int

const (
	ScopeNone Scope = iota
	ScopePlay
	ScopeBlock
	ScopeRole
	ScopeTask
)

// MappingScope classifies the keys of m, an item of the sequence described
// by item (nil when m is not a sequence item). A root item whose play-ness
// is Unknown counts as a task.
func (h *FileHints) MappingScope(m *parser.Mapping, item *ListItem, documentURI string) Scope {
	switch {
	case m == nil || item == nil:
		return ScopeNone
	case item.Root && h.playTristate(m, documentURI) == Yes:
		return ScopePlay
	case m.Has("block"):
		return ScopeBlock
	case item.Owner == "roles":
		return ScopeRole
	case item.Root || taskListKeys[item.Owner]:
		return ScopeTask
	}
	return ScopeNone
}

// enclosing returns the mapping owning the key path ends at, and where that
// mapping sits when it is a sequence item.
func enclosing(path parser.Path) (*parser.Mapping, *ListItem) {
	b := parser.NewAncestryBuilder(path).ParentOfKey()
	m, ok := b.Get().(*parser.Mapping)
	if !ok {
		return nil, nil
	}
	list := b.Parent(parser.SequenceKind).GetPath()
	if list == nil {
		return m, nil
	}
	if len(list) == 1 {
		return m, &ListItem{Root: true}
	}
	return m, &ListItem{Owner: parser.NewAncestryBuilder(list).Parent(parser.MappingKind).GetStringKey()}
}

// IsTaskParam reports whether path ends at a key of a task mapping.
func IsTaskParam(path parser.Path) bool {
	m, item := enclosing(path)
	return DefaultFileHints.MappingScope(m, item, "") == ScopeTask
}

// IsPlayParam reports whether path ends at a key of a play, using the
// default file hints for documentURI.
func IsPlayParam(path parser.Path, documentURI string) Tristate {
	return DefaultFileHints.IsPlayParam(path, documentURI)
}

// IsPlayParam reports whether path ends at a key of a play. Only mappings
// that are items of a root sequence can be plays. A play-only keyword
// settles it; otherwise the document location is consulted, and the answer
// stays Unknown when that does not help either.
func (h *FileHints) IsPlayParam(path parser.Path, documentURI string) Tristate {
	m, item := enclosing(path)
	if item == nil || !item.Root {
		return No
	}
	return h.playTristate(m, documentURI)
}

func (h *FileHints) playTristate(m *parser.Mapping, documentURI string) Tristate {
	for _, key := range m.Keys() {
		if PlayExclusiveKeywords.Has(key) {
			return Yes
		}
	}
	switch {
	case h.IsRoleFile(documentURI):
		return No
	case h.IsPlaybookFile(documentURI):
		return Yes
	}
	return Unknown
}

// IsBlockParam reports whether path ends at a key of a block, a task list
// item carrying the block keyword.
func IsBlockParam(path parser.Path) bool {
	m, item := enclosing(path)
	return item != nil && m.Has("block")
}

// IsRoleParam reports whether path ends at a key of a role entry under a
// play's roles list.
func IsRoleParam(path parser.Path) bool {
	_, item := enclosing(path)
	return item != nil && item.Owner == "roles"
}

// DeclaredCollections returns the collections declared by every mapping
// enclosing path, innermost first, without duplicates.
func DeclaredCollections(path parser.Path) []string {
	collections := []string{}
	for _, n := range path {
		if m, ok := n.(*parser.Mapping); ok {
			collections = DeclaredCollectionsIn(m, collections)
		}
	}
	return collections
}

// DeclaredCollectionsIn puts the collections m declares in front of outer,
// the collections declared around m. Each name is kept once, at its
// innermost declaration. outer is returned unchanged when m declares none.
func DeclaredCollectionsIn(m *parser.Mapping, outer []string) []string {
	p := m.Get("collections")
	if p == nil {
		return outer
	}
	var own []string
	switch v := p.Value.(type) {
	case *parser.Scalar:
		own = append(own, v.Value)
	case *parser.Sequence:
		for _, item := range v.Items {
			if s, ok := item.(*parser.Scalar); ok {
				own = append(own, s.Value)
			}
		}
	}

	collections := make([]string, 0, len(own)+len(outer))
	seen := make(map[string]bool)
	for _, names := range [][]string{own, outer} {
		for _, name := range names {
			if name != "" && !seen[name] {
				seen[name] = true
				collections = append(collections, name)
			}
		}
	}
	return collections
}

// IsPlaybook reports whether the first document of f is a list of plays.
func IsPlaybook(f *parser.File) bool {
	if f == nil || len(f.Documents) == 0 {
		return false
	}
	root, ok := f.Documents[0].Root.(*parser.Sequence)
	if !ok {
		return false
	}
	for _, item := range root.Items {
		m, ok := item.(*parser.Mapping)
		if !ok {
			continue
		}
		for _, key := range m.Keys() {
			if PlayWithoutTaskKeywords.Has(key) {
				return true
			}
		}
	}
	return false
}
