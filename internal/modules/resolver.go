// Package modules ties task keys in a YAML document to module documentation.
package modules

import (
	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/docs"
	"github.com/mcncl/ansible-ls/internal/parser"
)

// Finder looks modules up by the name written in a task and the collections
// declared around it. *docs.Library implements it.
type Finder interface {
	FindModule(name string, declared []string) (*docs.Module, string)
}

// Value shapes recorded while climbing from an option to its task.
const (
	Dict = "dict"
	List = "list"
)

// Step is one level between a task parameter and a nested option key: the
// key owning the level and whether the level was reached through a
// mapping (Dict) or through a list item (List).
type Step struct {
	Key  string
	Type string
}

// Resolver answers module and option questions about document paths.
type Resolver struct {
	finder Finder
}

func NewResolver(finder Finder) *Resolver {
	return &Resolver{finder: finder}
}

// FindModule resolves name against the collections declared along path.
// It returns nil when no documented module matches.
func (r *Resolver) FindModule(name string, path parser.Path) *docs.Module {
	return r.FindModuleIn(name, ansible.DeclaredCollections(path))
}

// FindModuleIn resolves name against already collected declarations.
func (r *Resolver) FindModuleIn(name string, declared []string) *docs.Module {
	if r == nil || r.finder == nil || name == "" {
		return nil
	}
	m, _ := r.finder.FindModule(name, declared)
	return m
}

// FindProvidedModule returns the module a task names, given the path to any
// of the task's parameter keys. Keys that are task keywords are skipped.
func (r *Resolver) FindProvidedModule(taskParamPath parser.Path) *docs.Module {
	task, ok := parser.NewAncestryBuilder(taskParamPath).Parent(parser.MappingKind).Get().(*parser.Mapping)
	if !ok {
		return nil
	}
	return r.FindTaskModule(task, ansible.DeclaredCollections(taskParamPath))
}

// FindTaskModule returns the module named by a key of task.
func (r *Resolver) FindTaskModule(task *parser.Mapping, declared []string) *docs.Module {
	for _, key := range task.Keys() {
		if ansible.IsTaskKeyword(key) {
			continue
		}
		if m := r.FindModuleIn(key, declared); m != nil {
			return m
		}
	}
	return nil
}

// TaskParamPathWithTrace climbs from the key at the end of path to the task
// parameter it is nested under. The trace lists the levels passed on the
// way, innermost first; its last step is the task parameter itself. Both
// results are nil when the path does not lead to a task.
func TaskParamPathWithTrace(path parser.Path) (parser.Path, []Step) {
	var trace []Step
	for !ansible.IsTaskParam(path) {
		if keyPath := parser.NewAncestryBuilder(path).ParentOfKey().Parent(parser.MappingKind).GetKeyPath(); keyPath != nil {
			if key, ok := stringKey(keyPath); ok {
				trace = append(trace, Step{Key: key, Type: Dict})
				path = keyPath
				continue
			}
		}
		if keyPath := parser.NewAncestryBuilder(path).
			ParentOfKey().
			Parent(parser.SequenceKind).
			Parent(parser.MappingKind).
			GetKeyPath(); keyPath != nil {
			if key, ok := stringKey(keyPath); ok {
				trace = append(trace, Step{Key: key, Type: List})
				path = keyPath
				continue
			}
		}
		return nil, nil
	}
	return path, trace
}

// PossibleOptionsForPath returns the options that may be written at the
// level of the key at the end of path. Options written under the args
// keyword belong to the module named next to it. The result is nil when the
// module is unknown or the nesting does not match its documentation.
func (r *Resolver) PossibleOptionsForPath(path parser.Path) *docs.OptionMap {
	taskParamPath, trace := TaskParamPathWithTrace(path)
	if taskParamPath == nil || len(trace) == 0 {
		return nil
	}

	moduleStep := trace[len(trace)-1]
	if moduleStep.Type != Dict {
		return nil
	}

	var m *docs.Module
	if moduleStep.Key == "args" {
		m = r.FindProvidedModule(taskParamPath)
	} else {
		m = r.FindModule(moduleStep.Key, taskParamPath)
	}
	if m == nil {
		return nil
	}

	options := m.Options
	for i := len(trace) - 2; i >= 0; i-- {
		step := trace[i]
		o, ok := options.Get(step.Key)
		if !ok || o.Type != step.Type || o.Suboptions == nil {
			return nil
		}
		options = o.Suboptions
	}
	return options
}

// OptionAt returns the documented option the key at the end of path names.
func (r *Resolver) OptionAt(path parser.Path) *docs.Option {
	key, ok := path.Last().(*parser.Scalar)
	if !ok {
		return nil
	}
	o, _ := r.PossibleOptionsForPath(path).Get(key.Value)
	return o
}

func stringKey(keyPath parser.Path) (string, bool) {
	s, ok := keyPath.Last().(*parser.Scalar)
	if !ok || !s.IsString() {
		return "", false
	}
	return s.Value, true
}
