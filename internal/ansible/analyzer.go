package ansible

import (
	"strings"

	"github.com/mcncl/ansible-ls/internal/parser"
)

// CompletionContext represents the kind of mapping the cursor is in
type CompletionContext int

const (
	ContextUnknown    CompletionContext = iota
	ContextPlay                         // Keys of a play
	ContextBlock                        // Keys of a block
	ContextRole                         // Keys of a role entry under roles
	ContextTask                         // Keys of a task
	ContextPlayOrTask                   // Root list item that may be a play or a task
	ContextJinja                        // Inside a {{ }} expression
)

func (c CompletionContext) String() string {
	switch c {
	case ContextPlay:
		return "play"
	case ContextBlock:
		return "block"
	case ContextRole:
		return "role"
	case ContextTask:
		return "task"
	case ContextPlayOrTask:
		return "play-or-task"
	case ContextJinja:
		return "jinja"
	default:
		return "unknown"
	}
}

// ContextInfo provides detailed information about the cursor context
type ContextInfo struct {
	Type        CompletionContext
	Path        parser.Path
	Play        Tristate
	CurrentKey  string
	ParentKeys  []string
	Collections []string
}

// PositionContext is the input to AnalyzeContext. Path may be supplied when
// the caller already resolved it, e.g. against a patched copy of the text.
type PositionContext struct {
	URI      string
	Position parser.Position
	File     *parser.File
	Path     parser.Path
}

// Analyzer classifies cursor positions in Ansible YAML
type Analyzer struct {
	hints *FileHints
}

// NewAnalyzer creates a new context analyzer. A nil hints uses DefaultFileHints.
func NewAnalyzer(hints *FileHints) *Analyzer {
	if hints == nil {
		hints = DefaultFileHints
	}
	return &Analyzer{hints: hints}
}

// AnalyzeContext determines the context at the given position
func (a *Analyzer) AnalyzeContext(posCtx *PositionContext) *ContextInfo {
	if posCtx == nil || posCtx.File == nil {
		return &ContextInfo{Type: ContextUnknown}
	}

	path := posCtx.Path
	if path == nil {
		path = posCtx.File.GetPathAt(posCtx.Position, true)
	}
	if path == nil {
		return &ContextInfo{Type: ContextUnknown}
	}

	info := &ContextInfo{
		Type:        ContextUnknown,
		Path:        path,
		Play:        a.hints.IsPlayParam(path, posCtx.URI),
		CurrentKey:  currentKey(path),
		ParentKeys:  parentKeys(path),
		Collections: DeclaredCollections(path),
	}

	switch {
	case IsCursorInsideJinjaBrackets(posCtx.File, posCtx.Position, path):
		info.Type = ContextJinja
	case info.Play == Yes:
		info.Type = ContextPlay
	case IsBlockParam(path):
		info.Type = ContextBlock
	case IsRoleParam(path):
		info.Type = ContextRole
	case IsTaskParam(path):
		info.Type = ContextTask
		if info.Play == Unknown {
			info.Type = ContextPlayOrTask
		}
	}
	return info
}

// currentKey returns the key the path ends at, if it ends at one.
func currentKey(path parser.Path) string {
	if len(path) < 2 {
		return ""
	}
	if p, ok := path[len(path)-2].(*parser.Pair); ok && p.Key == path.Last() {
		name, _ := p.KeyName()
		return name
	}
	return ""
}

// parentKeys lists the keys of the pairs the path passes through, not
// counting the key it ends at.
func parentKeys(path parser.Path) []string {
	keys := make([]string, 0, len(path)/2)
	for i, n := range path {
		p, ok := n.(*parser.Pair)
		if !ok {
			continue
		}
		if i+1 < len(path) && p.Key == path[i+1] {
			continue
		}
		if name, ok := p.KeyName(); ok {
			keys = append(keys, name)
		}
	}
	return keys
}

// IsTask reports whether the cursor is on a task key
func (info *ContextInfo) IsTask() bool {
	return info.Type == ContextTask || info.Type == ContextPlayOrTask
}

// IsPlay reports whether the cursor is on a play key
func (info *ContextInfo) IsPlay() bool {
	return info.Type == ContextPlay
}

// GetKeyPath returns the full key path as a string
func (info *ContextInfo) GetKeyPath() string {
	if len(info.ParentKeys) == 0 {
		return ""
	}
	return strings.Join(info.ParentKeys, ".")
}
