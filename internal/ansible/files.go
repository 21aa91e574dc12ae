package ansible

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.lsp.dev/uri"
)

var (
	DefaultPlaybookGlobs = []string{
		"**/playbooks/*.{yml,yaml}",
		"**/site.{yml,yaml}",
		"**/*playbook*.{yml,yaml}",
	}
	DefaultRoleGlobs = []string{
		"**/roles/*/tasks/**",
		"**/roles/*/handlers/**",
	}
)

// FileHints classifies documents by their location when the content alone
// cannot tell a play from a task list.
type FileHints struct {
	Playbooks []string
	Roles     []string
}

// DefaultFileHints matches the conventional Ansible project layout.
var DefaultFileHints = &FileHints{Playbooks: DefaultPlaybookGlobs, Roles: DefaultRoleGlobs}

// IsRoleFile reports whether the document lives in a role task or handler
// directory, where the top level is always a task list.
func (h *FileHints) IsRoleFile(documentURI string) bool {
	return matchAny(h.Roles, documentURI)
}

// IsPlaybookFile reports whether the document lives where playbooks do.
func (h *FileHints) IsPlaybookFile(documentURI string) bool {
	return matchAny(h.Playbooks, documentURI)
}

// MatchAny reports whether the path of documentURI matches one of globs.
func MatchAny(globs []string, documentURI string) bool {
	return matchAny(globs, documentURI)
}

func matchAny(globs []string, documentURI string) bool {
	if documentURI == "" {
		return false
	}
	p := documentPath(documentURI)
	for _, g := range globs {
		if ok, err := doublestar.Match(g, p); err == nil && ok {
			return true
		}
	}
	return false
}

// documentPath turns a document URI into a slash separated path without a
// leading slash, the form glob patterns are written against.
func documentPath(documentURI string) string {
	p := documentURI
	if strings.HasPrefix(documentURI, uri.FileScheme+"://") {
		p = uri.URI(documentURI).Filename()
	}
	return strings.TrimPrefix(filepath.ToSlash(p), "/")
}
