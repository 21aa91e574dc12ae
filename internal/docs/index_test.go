package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moduleIndexYAML = `collection: org_1.coll_1
modules:
  - name: module_1
    short_description: Test module
    description:
      - First line.
      - Second line.
    options:
      zeta:
        description: Declared first.
        required: true
        aliases: [z]
      alpha:
        type: dict
        suboptions:
          inner:
            type: list
            elements: dict
            suboptions:
              leaf:
                type: bool
                default: false
      mode:
        type: str
        choices: [a, b]
routing:
  old_name:
    redirect: module_1
  moved:
    redirect: org_2.coll_2.other
  removed:
    tombstone:
      removal_version: "3.0.0"
`

func TestParseIndexYAML(t *testing.T) {
	idx, err := ParseIndex([]byte(moduleIndexYAML), FormatYAML)
	require.NoError(t, err)

	m := idx.Modules["org_1.coll_1.module_1"]
	require.NotNil(t, m)
	assert.Equal(t, "org_1", m.Namespace)
	assert.Equal(t, "coll_1", m.Collection)
	assert.Equal(t, "module_1", m.Name)
	assert.Equal(t, "org_1.coll_1", m.CollectionName())
	assert.Equal(t, "First line.\nSecond line.", m.Description)

	assert.Equal(t, []string{"zeta", "alpha", "mode"}, m.Options.Names())

	zeta, ok := m.Options.Get("z")
	require.True(t, ok)
	assert.Equal(t, "zeta", zeta.Name)
	assert.Equal(t, "str", zeta.Type)
	assert.True(t, zeta.Required)

	alpha, ok := m.Options.Get("alpha")
	require.True(t, ok)
	inner, ok := alpha.Suboptions.Get("inner")
	require.True(t, ok)
	assert.Equal(t, "list", inner.Type)
	assert.Equal(t, "dict", inner.Elements)
	leaf, ok := inner.Suboptions.Get("leaf")
	require.True(t, ok)
	assert.Equal(t, false, leaf.Default)

	mode, _ := m.Options.Get("mode")
	assert.Equal(t, []any{"a", "b"}, mode.Choices)

	assert.Equal(t, Route{Redirect: "org_1.coll_1.module_1"}, idx.Routes["org_1.coll_1.old_name"])
	assert.Equal(t, Route{Redirect: "org_2.coll_2.other"}, idx.Routes["org_1.coll_1.moved"])
	assert.Equal(t, Route{Tombstone: true}, idx.Routes["org_1.coll_1.removed"])
}

func TestParseIndexJSONSortsOptions(t *testing.T) {
	data := []byte(`{"collection": "org_1.coll_1", "modules": [{"name": "m", "options": {"b": {}, "a": {"type": "int"}}}]}`)

	idx, err := ParseIndex(data, FormatJSON)
	require.NoError(t, err)

	m := idx.Modules["org_1.coll_1.m"]
	require.NotNil(t, m)
	assert.Equal(t, []string{"a", "b"}, m.Options.Names())
}

func TestParseIndexErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "bad collection", data: "collection: nodots\n", format: FormatYAML},
		{name: "module without name", data: "collection: a.b\nmodules:\n  - short_description: x\n", format: FormatYAML},
		{name: "options not a mapping", data: "collection: a.b\nmodules:\n  - name: m\n    options: [x]\n", format: FormatYAML},
		{name: "invalid YAML", data: "collection: [a\n", format: FormatYAML},
		{name: "invalid JSON", data: "{", format: FormatJSON},
		{name: "JSON array", data: "[]", format: FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIndex([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON([]byte("collection: a.b\nmodules:\n  - name: m\n"), FormatYAML)
	require.NoError(t, err)
	assert.JSONEq(t, `{"collection": "a.b", "modules": [{"name": "m"}]}`, string(out))

	raw := []byte(`{"collection": "a.b"}`)
	out, err = ToJSON(raw, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestIndexMerge(t *testing.T) {
	first := NewIndex()
	first.Modules["a.b.c"] = &Module{FQCN: "a.b.c", ShortDescription: "first"}
	second := NewIndex()
	second.Modules["a.b.c"] = &Module{FQCN: "a.b.c", ShortDescription: "second"}
	second.Modules["a.b.d"] = &Module{FQCN: "a.b.d"}
	second.Routes["a.b.e"] = Route{Tombstone: true}

	first.Merge(second)
	first.Merge(nil)

	assert.Equal(t, "first", first.Modules["a.b.c"].ShortDescription)
	assert.Contains(t, first.Modules, "a.b.d")
	assert.Contains(t, first.Routes, "a.b.e")
}

func TestFormatOf(t *testing.T) {
	for path, expected := range map[string]bool{
		"docs/a.yml":  true,
		"docs/a.YAML": true,
		"docs/a.json": true,
		"docs/a.md":   false,
		"docs/a":      false,
	} {
		_, ok := FormatOf(path)
		assert.Equal(t, expected, ok, path)
	}
}

func TestOptionMapEntries(t *testing.T) {
	m := NewOptionMap()
	m.Add(&Option{Name: "path", Aliases: []string{"dest", "name"}})
	m.Add(&Option{Name: "state"})
	m.Add(&Option{Name: "name"})

	var names []string
	for _, e := range m.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"path", "dest", "state", "name"}, names)

	o, ok := m.Get("name")
	require.True(t, ok)
	assert.Equal(t, "name", o.Name)

	var nilMap *OptionMap
	_, ok = nilMap.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, nilMap.Len())
}
