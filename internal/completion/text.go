// Package completion builds the text inserted by Ansible completion items.
package completion

import (
	"runtime"
	"slices"

	"github.com/mcncl/ansible-ls/internal/docs"
)

// Request describes a completion item being resolved. ModuleFQCN is set for
// module items; OptionType is set for option items.
type Request struct {
	Label              string
	ModuleFQCN         string
	InlineCollections  []string
	AtEndOfLine        bool
	FirstElementOfList bool
	OptionType         string
}

// Result is the text to insert for a resolved item.
type Result struct {
	InsertText string
}

// Settings are the user preferences that shape insert text.
type Settings struct {
	UseFQCN              bool
	ExecutionEnvironment bool
	EECollections        []string
	EOL                  string
}

// DefaultSettings returns the settings used before the client sends any.
func DefaultSettings() Settings {
	return Settings{UseFQCN: true, EOL: PlatformEOL()}
}

// PlatformEOL returns the line ending of the host platform.
func PlatformEOL() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// ImplicitCollections lists the collections whose modules may be written
// by short name without declaring them.
func (s Settings) ImplicitCollections() []string {
	implicit := []string{docs.BuiltinCollection}
	if s.ExecutionEnvironment {
		implicit = append(implicit, s.EECollections...)
	}
	return implicit
}

// ModuleName returns the name a module is inserted as: its short name when
// FQCNs are not wanted and its collection is in scope, the FQCN otherwise.
func (s Settings) ModuleName(fqcn string, inlineCollections []string) string {
	if s.UseFQCN {
		return fqcn
	}
	parsed, ok := docs.ParseFQCN(fqcn)
	if !ok {
		return fqcn
	}
	collection := parsed.CollectionName()
	if slices.Contains(inlineCollections, collection) || slices.Contains(s.ImplicitCollections(), collection) {
		return parsed.Name
	}
	return fqcn
}

// Resolve computes the insert text of req. It does not modify req.
func Resolve(req Request, s Settings) Result {
	eol := s.EOL
	if eol == "" {
		eol = PlatformEOL()
	}

	if req.ModuleFQCN != "" {
		name := s.ModuleName(req.ModuleFQCN, req.InlineCollections)
		if req.AtEndOfLine {
			return Result{InsertText: name + ":" + eol + "\t"}
		}
		return Result{InsertText: name}
	}

	if req.AtEndOfLine {
		return Result{InsertText: req.Label + Suffix(req.OptionType, req.FirstElementOfList, eol)}
	}
	return Result{InsertText: req.Label}
}

// Suffix is appended to an option name typed at the end of a line. It opens
// the value in the shape the option type expects.
func Suffix(optionType string, firstElementOfList bool, eol string) string {
	switch optionType {
	case "list":
		return ":" + eol + "\t- "
	case "dict":
		if firstElementOfList {
			return ":" + eol + "\t\t"
		}
		return ":" + eol + "\t"
	default:
		return ": "
	}
}
