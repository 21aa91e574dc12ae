package docs

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Format is the encoding of an index file.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatOf picks the format from a file extension. ok is false for files
// that are not index files.
func FormatOf(path string) (f Format, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return 0, false
}

// Index is the documentation of a set of collections keyed by FQCN.
type Index struct {
	Modules map[string]*Module
	Routes  map[string]Route
}

func NewIndex() *Index {
	return &Index{
		Modules: make(map[string]*Module),
		Routes:  make(map[string]Route),
	}
}

// Merge copies entries of other that idx does not define yet, so the index
// merged first takes precedence.
func (idx *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for fqcn, m := range other.Modules {
		if _, exists := idx.Modules[fqcn]; !exists {
			idx.Modules[fqcn] = m
		}
	}
	for fqcn, r := range other.Routes {
		if _, exists := idx.Routes[fqcn]; !exists {
			idx.Routes[fqcn] = r
		}
	}
}

// ToJSON converts an index file to JSON for schema validation.
func ToJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatJSON {
		return data, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	out, err := json.Marshal(normalize(doc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert YAML to JSON")
	}
	return out, nil
}

// ParseIndex decodes one index file. YAML keeps options in the order they
// are written; JSON objects carry no order, so their keys are sorted.
func ParseIndex(data []byte, format Format) (*Index, error) {
	var root object
	switch format {
	case FormatJSON:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON")
		}
		o, ok := toObject(doc)
		if !ok {
			return nil, errors.New("index must be an object")
		}
		root = o
	default:
		var doc yaml.MapSlice
		if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML")
		}
		root, _ = toObject(doc)
	}

	collection := scalarString(root.get("collection"))
	namespace, name, ok := strings.Cut(collection, ".")
	if !ok || namespace == "" || name == "" || strings.Contains(name, ".") {
		return nil, errors.Newf("invalid collection name %q", collection)
	}

	idx := NewIndex()
	modules, _ := root.get("modules").([]any)
	for i, raw := range modules {
		def, _ := toObject(raw)
		m, err := parseModule(def, namespace, name)
		if err != nil {
			return nil, errors.Wrapf(err, "modules[%d]", i)
		}
		idx.Modules[m.FQCN] = m
	}

	routing, _ := toObject(root.get("routing"))
	for _, f := range routing {
		def, _ := toObject(f.value)
		route := Route{
			Redirect:  scalarString(def.get("redirect")),
			Tombstone: def.get("tombstone") != nil,
		}
		if route.Redirect != "" && !IsFQCN(route.Redirect) {
			route.Redirect = collection + "." + route.Redirect
		}
		idx.Routes[collection+"."+f.key] = route
	}
	return idx, nil
}

func parseModule(def object, namespace, collection string) (*Module, error) {
	name := scalarString(def.get("name"))
	if name == "" {
		return nil, errors.New("module without a name")
	}
	options, err := parseOptions(def.get("options"))
	if err != nil {
		return nil, errors.Wrapf(err, "module %s", name)
	}
	return &Module{
		FQCN:             namespace + "." + collection + "." + name,
		Namespace:        namespace,
		Collection:       collection,
		Name:             name,
		ShortDescription: scalarString(def.get("short_description")),
		Description:      text(def.get("description")),
		Options:          options,
	}, nil
}

func parseOptions(v any) (*OptionMap, error) {
	options := NewOptionMap()
	if v == nil {
		return options, nil
	}
	fields, ok := toObject(v)
	if !ok {
		return nil, errors.New("options must be a mapping")
	}
	for _, f := range fields {
		def, _ := toObject(f.value)
		o := &Option{
			Name:        f.key,
			Description: text(def.get("description")),
			Type:        scalarString(def.get("type")),
			Elements:    scalarString(def.get("elements")),
			Required:    def.get("required") == true,
			Default:     def.get("default"),
			Aliases:     stringList(def.get("aliases")),
		}
		if o.Type == "" {
			o.Type = "str"
		}
		if choices, ok := def.get("choices").([]any); ok {
			o.Choices = choices
		}
		if sub := def.get("suboptions"); sub != nil {
			suboptions, err := parseOptions(sub)
			if err != nil {
				return nil, errors.Wrapf(err, "option %s", f.key)
			}
			o.Suboptions = suboptions
		}
		options.Add(o)
	}
	return options, nil
}

type field struct {
	key   string
	value any
}

// object is a decoded mapping with its keys in a stable order.
type object []field

func (o object) get(key string) any {
	for _, f := range o {
		if f.key == key {
			return f.value
		}
	}
	return nil
}

func toObject(v any) (object, bool) {
	switch t := v.(type) {
	case yaml.MapSlice:
		o := make(object, 0, len(t))
		for _, item := range t {
			o = append(o, field{key: fmt.Sprint(item.Key), value: item.Value})
		}
		return o, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		o := make(object, 0, len(t))
		for _, k := range keys {
			o = append(o, field{key: k, value: t[k]})
		}
		return o, true
	}
	return nil, false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// text accepts a string or a list of lines.
func text(v any) string {
	if lines, ok := v.([]any); ok {
		parts := make([]string, 0, len(lines))
		for _, l := range lines {
			parts = append(parts, scalarString(l))
		}
		return strings.Join(parts, "\n")
	}
	return scalarString(v)
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, scalarString(item))
	}
	return out
}

// normalize rewrites decoded YAML into values the JSON encoder accepts.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case yaml.MapSlice:
		out := make(map[string]any, len(t))
		for _, item := range t {
			out[fmt.Sprint(item.Key)] = normalize(item.Value)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	}
	return v
}
