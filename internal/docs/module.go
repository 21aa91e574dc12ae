package docs

import "slices"

// Module is the documentation of one Ansible module.
type Module struct {
	FQCN             string
	Namespace        string
	Collection       string
	Name             string
	ShortDescription string
	Description      string
	Options          *OptionMap
}

// CollectionName returns "namespace.collection".
func (m *Module) CollectionName() string {
	return m.Namespace + "." + m.Collection
}

// Option is the documentation of one module option.
type Option struct {
	Name        string
	Description string
	Type        string
	Elements    string
	Required    bool
	Default     any
	Choices     []any
	Aliases     []string
	Suboptions  *OptionMap
}

// Route is a plugin routing entry of a collection.
type Route struct {
	Redirect  string
	Tombstone bool
}

// OptionMap holds options in declaration order and answers lookups by
// name or alias.
type OptionMap struct {
	names   []string
	options map[string]*Option
	aliases map[string]string
}

// OptionEntry is one name an option can be written as.
type OptionEntry struct {
	Name   string
	Option *Option
}

// IsAlias reports whether the entry is an alternative name.
func (e OptionEntry) IsAlias() bool {
	return e.Name != e.Option.Name
}

func NewOptionMap() *OptionMap {
	return &OptionMap{
		options: make(map[string]*Option),
		aliases: make(map[string]string),
	}
}

// Add registers o under its name and aliases. A later option with the same
// name replaces the earlier one in place. Option names take precedence over
// aliases.
func (m *OptionMap) Add(o *Option) {
	if _, exists := m.options[o.Name]; !exists {
		m.names = append(m.names, o.Name)
	}
	m.options[o.Name] = o
	delete(m.aliases, o.Name)
	for _, alias := range o.Aliases {
		if _, taken := m.options[alias]; !taken {
			m.aliases[alias] = o.Name
		}
	}
}

// Get returns the option called name, following aliases.
func (m *OptionMap) Get(name string) (*Option, bool) {
	if m == nil {
		return nil, false
	}
	if o, ok := m.options[name]; ok {
		return o, true
	}
	if canonical, ok := m.aliases[name]; ok {
		return m.options[canonical], true
	}
	return nil, false
}

func (m *OptionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Names returns the canonical option names in declaration order.
func (m *OptionMap) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.names)
}

// Entries lists every option followed by its aliases.
func (m *OptionMap) Entries() []OptionEntry {
	if m == nil {
		return nil
	}
	entries := make([]OptionEntry, 0, len(m.names)+len(m.aliases))
	for _, name := range m.names {
		o := m.options[name]
		entries = append(entries, OptionEntry{Name: name, Option: o})
		for _, alias := range o.Aliases {
			if m.aliases[alias] == name {
				entries = append(entries, OptionEntry{Name: alias, Option: o})
			}
		}
	}
	return entries
}
