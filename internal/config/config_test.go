package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/ansible-ls/internal/ansible"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	require.NoError(t, err)

	assert.True(t, s.Ansible.UseFullyQualifiedCollectionNames)
	assert.False(t, s.ExecutionEnvironment.Enabled)
	assert.Empty(t, s.ExecutionEnvironment.Collections)
	assert.True(t, s.Completion.ProvideRedirectModules)
	assert.True(t, s.Completion.ProvideModuleOptionAliases)
	assert.Empty(t, s.Docs.Paths)
	assert.True(t, s.Docs.Watch)
	assert.Equal(t, ansible.DefaultPlaybookGlobs, s.Files.PlaybookGlobs)
	assert.Equal(t, ansible.DefaultRoleGlobs, s.Files.RoleGlobs)
	assert.Equal(t, DefaultAnsibleGlobs, s.Files.AnsibleGlobs)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ANSIBLE_LS_DOCS_WATCH", "false")
	t.Setenv("ANSIBLE_LS_EXECUTIONENVIRONMENT_ENABLED", "true")

	s, err := Load(New())
	require.NoError(t, err)

	assert.False(t, s.Docs.Watch)
	assert.True(t, s.ExecutionEnvironment.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ansible-ls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`ansible:
  useFullyQualifiedCollectionNames: false
executionEnvironment:
  enabled: true
  collections:
    - org_1.coll_1
docs:
  paths:
    - /opt/docs
`), 0o644))

	s, err := LoadFile(New(), path)
	require.NoError(t, err)

	assert.False(t, s.Ansible.UseFullyQualifiedCollectionNames)
	assert.True(t, s.ExecutionEnvironment.Enabled)
	assert.Equal(t, []string{"org_1.coll_1"}, s.ExecutionEnvironment.Collections)
	assert.Equal(t, []string{"/opt/docs"}, s.Docs.Paths)
	assert.True(t, s.Completion.ProvideRedirectModules)

	_, err = LoadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		check   func(t *testing.T, s *Settings)
	}{
		{
			name: "nested under ansible section",
			payload: map[string]any{
				"ansible": map[string]any{
					"ansible":    map[string]any{"useFullyQualifiedCollectionNames": false},
					"completion": map[string]any{"provideRedirectModules": false},
				},
			},
			check: func(t *testing.T, s *Settings) {
				assert.False(t, s.Ansible.UseFullyQualifiedCollectionNames)
				assert.False(t, s.Completion.ProvideRedirectModules)
				assert.True(t, s.Completion.ProvideModuleOptionAliases)
			},
		},
		{
			name: "settings tree",
			payload: map[string]any{
				"ansible": map[string]any{"useFullyQualifiedCollectionNames": false},
				"executionEnvironment": map[string]any{
					"enabled":     true,
					"collections": []any{"org_1.coll_1"},
				},
			},
			check: func(t *testing.T, s *Settings) {
				assert.False(t, s.Ansible.UseFullyQualifiedCollectionNames)
				assert.True(t, s.ExecutionEnvironment.Enabled)
				assert.Equal(t, []string{"org_1.coll_1"}, s.ExecutionEnvironment.Collections)
			},
		},
		{
			name:    "nil payload",
			payload: nil,
			check: func(t *testing.T, s *Settings) {
				assert.True(t, s.Ansible.UseFullyQualifiedCollectionNames)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)

			s, err := Merge(v, tt.payload)
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestSettingsConversions(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	s, err := Merge(v, map[string]any{
		"ansible":              map[string]any{"useFullyQualifiedCollectionNames": false},
		"executionEnvironment": map[string]any{"enabled": true, "collections": []any{"org_1.coll_1"}},
		"files":                map[string]any{"playbookGlobs": []any{"deploy/*.yml"}},
	})
	require.NoError(t, err)

	cs := s.CompletionSettings()
	assert.False(t, cs.UseFQCN)
	assert.True(t, cs.ExecutionEnvironment)
	assert.Equal(t, []string{"org_1.coll_1"}, cs.EECollections)
	assert.NotEmpty(t, cs.EOL)

	hints := s.FileHints()
	assert.True(t, hints.IsPlaybookFile("file:///deploy/app.yml"))
	assert.False(t, hints.IsPlaybookFile("file:///project/site.yml"))
	assert.True(t, hints.IsRoleFile("file:///project/roles/web/tasks/main.yml"))
}
