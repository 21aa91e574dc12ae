package lsp

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/completion"
	"github.com/mcncl/ansible-ls/internal/config"
	"github.com/mcncl/ansible-ls/internal/docs/docstest"
)

func newTestCompletionProvider(t *testing.T) *CompletionProvider {
	t.Helper()
	return NewCompletionProvider(docstest.NewLibrary(t), docstest.NewFs(t), nil)
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	settings, err := config.Load(config.New())
	require.NoError(t, err)
	return settings
}

func complete(t *testing.T, cp *CompletionProvider, uri, fixture string, settings *config.Settings) []protocol.CompletionItem {
	t.Helper()
	text, pos := withCursor(t, fixture)
	doc := &Document{URI: protocol.DocumentURI(uri), LanguageID: LanguageID, Version: 1, Content: text}
	return cp.GetCompletions(doc, pos, settings)
}

func findItem(t *testing.T, items []protocol.CompletionItem, label string) protocol.CompletionItem {
	t.Helper()
	for _, item := range items {
		if item.Label == label {
			return item
		}
	}
	require.Failf(t, "completion item not found", "label %q in %v", label, getLabels(items))
	return protocol.CompletionItem{}
}

func TestCompletionProvider_PlayKeywords(t *testing.T) {
	cp := newTestCompletionProvider(t)
	items := complete(t, cp, "file:///project/deploy.yml", "- hosts: all\n  name: play\n  |", testSettings(t))

	labels := getLabels(items)
	assert.Contains(t, labels, "tasks")
	assert.Contains(t, labels, "vars_files")
	assert.NotContains(t, labels, "hosts", "keys already present are not offered")
	assert.NotContains(t, labels, "name")
	assert.NotContains(t, labels, "ansible.builtin.debug")

	tasks := findItem(t, items, "tasks")
	assert.Equal(t, protocol.CompletionItemKindProperty, tasks.Kind)
	assert.Equal(t, "4_tasks", tasks.SortText)
	require.NotNil(t, tasks.TextEdit)
	assert.Equal(t, "tasks:", tasks.TextEdit.NewText)
	assert.Equal(t, protocol.Position{Line: 2, Character: 2}, tasks.TextEdit.Range.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 2}, tasks.TextEdit.Range.End)
}

func TestCompletionProvider_PartialKeyword(t *testing.T) {
	cp := newTestCompletionProvider(t)
	items := complete(t, cp, "file:///project/deploy.yml", "- hosts: all\n  ta|", testSettings(t))

	tasks := findItem(t, items, "tasks")
	require.NotNil(t, tasks.TextEdit)
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, tasks.TextEdit.Range.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 4}, tasks.TextEdit.Range.End)
}

func TestCompletionProvider_TaskKeywordsAndModules(t *testing.T) {
	cp := newTestCompletionProvider(t)
	fixture := "- hosts: all\n  tasks:\n    - |\n"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, testSettings(t))

	labels := getLabels(items)
	assert.Contains(t, labels, "name")
	assert.Contains(t, labels, "register")
	assert.Contains(t, labels, "block")
	assert.NotContains(t, labels, "hosts")
	assert.Contains(t, labels, "ansible.builtin.debug")
	assert.Contains(t, labels, "org_1.coll_1.module_1")
	assert.Contains(t, labels, "org_1.coll_3.old_module")

	name := findItem(t, items, "name")
	assert.Equal(t, "1_name", name.SortText)

	debug := findItem(t, items, "ansible.builtin.debug")
	assert.Equal(t, protocol.CompletionItemKindClass, debug.Kind)
	assert.Equal(t, "ansible.builtin", debug.Detail)
	assert.Equal(t, "2_ansible.builtin.debug", debug.SortText)
	assert.Equal(t, "debug ansible.builtin.debug builtin ansible", debug.FilterText)
	require.NotNil(t, debug.TextEdit)
	assert.Equal(t, "ansible.builtin.debug:"+completion.PlatformEOL()+"\t", debug.TextEdit.NewText)

	redirect := findItem(t, items, "org_1.coll_3.old_module")
	assert.Equal(t, protocol.CompletionItemKindReference, redirect.Kind)
	assert.Equal(t, "3_org_1.coll_3.old_module", redirect.SortText)
}

func TestCompletionProvider_ModulesHonorSettings(t *testing.T) {
	cp := newTestCompletionProvider(t)
	settings := testSettings(t)
	settings.Ansible.UseFullyQualifiedCollectionNames = false
	settings.Completion.ProvideRedirectModules = false

	fixture := "- hosts: all\n  collections:\n    - org_1.coll_1\n  tasks:\n    - |\n"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, settings)

	labels := getLabels(items)
	assert.Contains(t, labels, "debug")
	assert.Contains(t, labels, "module_1")
	assert.Contains(t, labels, "module_3")
	assert.NotContains(t, labels, "old_module")

	eol := completion.PlatformEOL()
	module1 := findItem(t, items, "module_1")
	assert.Equal(t, "module_1:"+eol+"\t", module1.TextEdit.NewText, "declared collections allow the short name")
	module3 := findItem(t, items, "module_3")
	assert.Equal(t, "org_1.coll_3.module_3:"+eol+"\t", module3.TextEdit.NewText)
	assert.Equal(t, "module_3 org_1.coll_3.module_3", module3.FilterText)
}

func TestCompletionProvider_TaskWithModule(t *testing.T) {
	cp := newTestCompletionProvider(t)
	fixture := "- hosts: all\n  tasks:\n    - ansible.builtin.debug:\n        msg: hi\n      |"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, testSettings(t))

	labels := getLabels(items)
	assert.Contains(t, labels, "register")
	assert.NotContains(t, labels, "block")
	assert.NotContains(t, labels, "ansible.builtin.file")
}

func TestCompletionProvider_PlayOrTask(t *testing.T) {
	cp := newTestCompletionProvider(t)
	items := complete(t, cp, "file:///project/common.yml", "- |\n", testSettings(t))

	labels := getLabels(items)
	assert.Contains(t, labels, "hosts", "a root item may still become a play")
	assert.Contains(t, labels, "register")
	assert.Contains(t, labels, "ansible.builtin.debug")
}

func TestCompletionProvider_RoleTaskFile(t *testing.T) {
	cp := newTestCompletionProvider(t)
	items := complete(t, cp, "file:///project/roles/web/tasks/main.yml", "- |\n", testSettings(t))

	labels := getLabels(items)
	assert.NotContains(t, labels, "hosts")
	assert.Contains(t, labels, "register")
}

func TestCompletionProvider_BlockAndRoleKeywords(t *testing.T) {
	cp := newTestCompletionProvider(t)

	block := complete(t, cp, "file:///project/deploy.yml",
		"- hosts: all\n  tasks:\n    - block:\n        - debug:\n      |", testSettings(t))
	labels := getLabels(block)
	assert.Contains(t, labels, "rescue")
	assert.NotContains(t, labels, "block")
	assert.NotContains(t, labels, "ansible.builtin.debug")

	role := complete(t, cp, "file:///project/deploy.yml",
		"- hosts: all\n  roles:\n    - role: web\n      |", testSettings(t))
	labels = getLabels(role)
	assert.Contains(t, labels, "delegate_to")
	assert.NotContains(t, labels, "rescue")
}

func TestCompletionProvider_Options(t *testing.T) {
	cp := newTestCompletionProvider(t)
	fixture := "- hosts: all\n  tasks:\n    - org_1.coll_1.module_1:\n        |"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, testSettings(t))

	assert.Equal(t, []string{"opt_1", "opt_one", "opt_2", "opt_3"}, getLabels(items))

	opt1 := items[0]
	assert.Equal(t, protocol.CompletionItemKindProperty, opt1.Kind)
	assert.Equal(t, "(required) str", opt1.Detail)
	assert.Equal(t, "1  0", opt1.SortText)
	assert.Equal(t, "opt_1:", opt1.TextEdit.NewText)

	alias := items[1]
	assert.Equal(t, protocol.CompletionItemKindReference, alias.Kind)
	assert.Equal(t, "3  1", alias.SortText)

	doc, ok := items[3].Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Equal(t, protocol.Markdown, doc.Kind)
}

func TestCompletionProvider_OptionsSkipProvidedAndAliases(t *testing.T) {
	cp := newTestCompletionProvider(t)
	settings := testSettings(t)
	settings.Completion.ProvideModuleOptionAliases = false

	fixture := "- hosts: all\n  tasks:\n    - org_1.coll_1.module_1:\n        opt_1: x\n        |"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, settings)

	assert.Equal(t, []string{"opt_2", "opt_3"}, getLabels(items))
}

func TestCompletionProvider_Suboptions(t *testing.T) {
	cp := newTestCompletionProvider(t)
	fixture := "- hosts: all\n  tasks:\n    - org_1.coll_1.module_1:\n        opt_2:\n          sub_opt_2:\n            - |"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, testSettings(t))

	assert.Equal(t, []string{"sub_sub_opt_1"}, getLabels(items))
}

func TestCompletionProvider_Values(t *testing.T) {
	cp := newTestCompletionProvider(t)

	tests := []struct {
		name     string
		fixture  string
		expected []string
		def      string
	}{
		{
			name:     "choices",
			fixture:  "- hosts: all\n  tasks:\n    - ansible.builtin.file:\n        state: |",
			expected: []string{"absent", "directory", "file", "touch"},
			def:      "file",
		},
		{
			name:     "bool",
			fixture:  "- hosts: all\n  tasks:\n    - org_1.coll_3.module_3:\n        opt_1: |",
			expected: []string{"true", "false"},
		},
		{
			name:     "default only",
			fixture:  "- hosts: all\n  tasks:\n    - ansible.builtin.debug:\n        msg: |",
			expected: []string{"Hello world!"},
			def:      "Hello world!",
		},
		{
			name:     "suboption choices",
			fixture:  "- hosts: all\n  tasks:\n    - org_1.coll_1.module_1:\n        opt_2:\n          sub_opt_1: |",
			expected: []string{"choice_1", "choice_2"},
			def:      "choice_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := complete(t, cp, "file:///project/deploy.yml", tt.fixture, testSettings(t))
			assert.Equal(t, tt.expected, getLabels(items))
			for _, item := range items {
				assert.Equal(t, protocol.CompletionItemKindValue, item.Kind)
				if item.Label == tt.def {
					assert.Equal(t, "default", item.Detail)
					assert.Equal(t, "1", item.SortText[:1])
				} else {
					assert.Empty(t, item.Detail)
				}
			}
		})
	}
}

func TestCompletionProvider_Vars(t *testing.T) {
	cp := newTestCompletionProvider(t)
	fixture := `- hosts: all
  vars:
    play_var: a
  tasks:
    - name: task
      ansible.builtin.debug:
        msg: "{{ | }}"
      vars:
        task_var: b
`
	items := complete(t, cp, "file:///project/deploy.yml", fixture, testSettings(t))

	require.Equal(t, []string{"task_var", "play_var"}, getLabels(items))
	assert.Equal(t, "1_task_var", items[0].SortText)
	assert.Equal(t, "2_play_var", items[1].SortText)
	assert.Equal(t, protocol.CompletionItemKindVariable, items[0].Kind)
}

func TestCompletionProvider_VarsFromPromptsAndFiles(t *testing.T) {
	fs := docstest.NewFs(t)
	require.NoError(t, afero.WriteFile(fs, "/project/vars/common.yml", []byte("common_var: 1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/project/vars/list.yml", []byte("- listed_var: 1\n"), 0o644))
	cp := NewCompletionProvider(docstest.NewLibrary(t), fs, nil)

	fixture := `- hosts: all
  vars_prompt:
    - name: prompted_var
      prompt: Value?
  vars_files:
    - vars/common.yml
    - vars/list.yml
    - vars/missing.yml
  tasks:
    - debug:
        msg: "{{ | }}"
`
	items := complete(t, cp, "file:///project/deploy.yml", fixture, testSettings(t))

	require.Equal(t, []string{"prompted_var", "common_var", "listed_var"}, getLabels(items))
	assert.Equal(t, "3_prompted_var", items[0].SortText)
	assert.Equal(t, "4_common_var", items[1].SortText)
}

func TestCompletionProvider_VarsOnlyInPlaybooks(t *testing.T) {
	cp := newTestCompletionProvider(t)
	fixture := "- debug:\n    msg: \"{{ | }}\"\n  vars:\n    v: 1\n"
	items := complete(t, cp, "file:///project/roles/web/tasks/main.yml", fixture, testSettings(t))
	assert.Equal(t, []string{"Hello world!"}, getLabels(items), "the option value is completed instead")
}

func TestCompletionProvider_Resolve(t *testing.T) {
	cp := newTestCompletionProvider(t)
	settings := testSettings(t)
	eol := completion.PlatformEOL()

	fixture := "- hosts: all\n  tasks:\n    - org_1.coll_1.module_1:\n        opt_2:\n          |"
	items := complete(t, cp, "file:///project/deploy.yml", fixture, settings)

	subOpt2 := cp.Resolve(findItem(t, items, "sub_opt_2"), settings)
	assert.Equal(t, "sub_opt_2:"+eol+"\t- ", subOpt2.TextEdit.NewText)
	assert.Equal(t, protocol.InsertTextFormatSnippet, subOpt2.InsertTextFormat)

	subOpt1 := cp.Resolve(findItem(t, items, "sub_opt_1"), settings)
	assert.Equal(t, "sub_opt_1: ", subOpt1.TextEdit.NewText)

	modules := complete(t, cp, "file:///project/deploy.yml", "- hosts: all\n  tasks:\n    - |", settings)
	debug := cp.Resolve(findItem(t, modules, "ansible.builtin.debug"), settings)
	doc, ok := debug.Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, doc.Value, "*Print statements during execution*")
	assert.Contains(t, doc.Value, "Use `msg` for a custom message.")

	redirect := cp.Resolve(findItem(t, modules, "org_1.coll_3.old_module"), settings)
	doc, ok = redirect.Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, doc.Value, "***Redirected to: org_1.coll_3.module_3***")
}

func TestCompletionProvider_ResolveWithoutData(t *testing.T) {
	cp := newTestCompletionProvider(t)
	item := protocol.CompletionItem{Label: "name", InsertText: "name:"}
	assert.Equal(t, item, cp.Resolve(item, testSettings(t)))
}

func TestCompletionProvider_EdgeCases(t *testing.T) {
	cp := newTestCompletionProvider(t)
	settings := testSettings(t)

	assert.Empty(t, cp.GetCompletions(nil, protocol.Position{}, settings))
	assert.Empty(t, complete(t, cp, "file:///project/deploy.yml", "|", settings))
	assert.Empty(t, complete(t, cp, "file:///project/deploy.yml", "# comment\n|", settings))
}
