package docs

import (
	"strings"
)

// BuiltinCollection is searched for every short module name.
const BuiltinCollection = "ansible.builtin"

// FQCN is a parsed fully qualified collection name.
type FQCN struct {
	Namespace  string // e.g. "community"
	Collection string // e.g. "general"
	Name       string // Plugin name, may itself contain dots
}

// ParseFQCN splits a fully qualified name into its parts.
// Examples:
//
//	"ansible.builtin.debug" -> {Namespace: "ansible", Collection: "builtin", Name: "debug"}
//	"community.aws.ec2.instance" -> {Namespace: "community", Collection: "aws", Name: "ec2.instance"}
//	"debug" -> not an FQCN
func ParseFQCN(ref string) (FQCN, bool) {
	parts := strings.SplitN(ref, ".", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return FQCN{}, false
	}
	return FQCN{Namespace: parts[0], Collection: parts[1], Name: parts[2]}, true
}

// IsFQCN reports whether name has at least three dot separated parts.
func IsFQCN(name string) bool {
	_, ok := ParseFQCN(name)
	return ok
}

func (f FQCN) String() string {
	return f.Namespace + "." + f.Collection + "." + f.Name
}

// CollectionName returns "namespace.collection".
func (f FQCN) CollectionName() string {
	return f.Namespace + "." + f.Collection
}

// Candidates lists the fully qualified names a module reference may stand
// for, in lookup order: a qualified name as written, otherwise the builtin
// collection followed by each declared collection.
func Candidates(name string, declared []string) []string {
	if IsFQCN(name) {
		return []string{name}
	}
	candidates := make([]string, 0, len(declared)+1)
	candidates = append(candidates, BuiltinCollection+"."+name)
	for _, c := range declared {
		candidates = append(candidates, c+"."+name)
	}
	return candidates
}
