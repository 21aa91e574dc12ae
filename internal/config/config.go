// Package config holds the user settings of the language server.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/completion"
)

// EnvPrefix prefixes environment variables overriding settings, e.g.
// ANSIBLE_LS_DOCS_WATCH.
const EnvPrefix = "ANSIBLE_LS"

type Settings struct {
	Ansible              AnsibleSettings              `mapstructure:"ansible"`
	ExecutionEnvironment ExecutionEnvironmentSettings `mapstructure:"executionenvironment"`
	Completion           CompletionSettings           `mapstructure:"completion"`
	Docs                 DocsSettings                 `mapstructure:"docs"`
	Files                FilesSettings                `mapstructure:"files"`
}

type AnsibleSettings struct {
	UseFullyQualifiedCollectionNames bool `mapstructure:"usefullyqualifiedcollectionnames"`
}

type ExecutionEnvironmentSettings struct {
	Enabled     bool     `mapstructure:"enabled"`
	Collections []string `mapstructure:"collections"`
}

type CompletionSettings struct {
	ProvideRedirectModules     bool `mapstructure:"provideredirectmodules"`
	ProvideModuleOptionAliases bool `mapstructure:"providemoduleoptionaliases"`
}

// DocsSettings locate the module documentation index files.
type DocsSettings struct {
	Paths []string `mapstructure:"paths"`
	Watch bool     `mapstructure:"watch"`
}

type FilesSettings struct {
	PlaybookGlobs []string `mapstructure:"playbookglobs"`
	RoleGlobs     []string `mapstructure:"roleglobs"`
	AnsibleGlobs  []string `mapstructure:"ansibleglobs"`
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	return &s, nil
}

// LoadFile reads a YAML, JSON or TOML config file into v and decodes the
// result.
func LoadFile(v *viper.Viper, path string) (*Settings, error) {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Load(v)
}

// sections are the top-level keys of the settings tree.
var sections = []string{"ansible", "executionenvironment", "completion", "docs", "files"}

// Merge applies a workspace/didChangeConfiguration payload to v. Clients
// either send the settings tree itself or nest it under an "ansible"
// section, which is how editors group extension settings.
func Merge(v *viper.Viper, payload map[string]any) (*Settings, error) {
	if payload != nil {
		if inner, ok := lookupFold(payload, "ansible").(map[string]any); ok && hasSection(inner) {
			payload = inner
		}
		if err := v.MergeConfigMap(payload); err != nil {
			return nil, errors.Wrap(err, "failed to merge settings")
		}
	}
	return Load(v)
}

func hasSection(m map[string]any) bool {
	for _, s := range sections {
		if s == "ansible" {
			if _, nested := lookupFold(m, s).(map[string]any); nested {
				return true
			}
			continue
		}
		if lookupFold(m, s) != nil {
			return true
		}
	}
	return false
}

func lookupFold(m map[string]any, key string) any {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// CompletionSettings returns the settings the completion text builder
// needs.
func (s *Settings) CompletionSettings() completion.Settings {
	return completion.Settings{
		UseFQCN:              s.Ansible.UseFullyQualifiedCollectionNames,
		ExecutionEnvironment: s.ExecutionEnvironment.Enabled,
		EECollections:        s.ExecutionEnvironment.Collections,
		EOL:                  completion.PlatformEOL(),
	}
}

// FileHints returns the globs that tell playbooks from role files.
func (s *Settings) FileHints() *ansible.FileHints {
	return &ansible.FileHints{Playbooks: s.Files.PlaybookGlobs, Roles: s.Files.RoleGlobs}
}
