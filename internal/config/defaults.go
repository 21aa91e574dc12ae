package config

import (
	"github.com/spf13/viper"

	"github.com/mcncl/ansible-ls/internal/ansible"
)

// DefaultAnsibleGlobs select the files the server treats as Ansible when the
// client does not say so through the language ID.
var DefaultAnsibleGlobs = []string{
	"**/playbooks/**/*.{yml,yaml}",
	"**/roles/**/*.{yml,yaml}",
	"**/tasks/**/*.{yml,yaml}",
	"**/handlers/**/*.{yml,yaml}",
	"**/site.{yml,yaml}",
	"**/*playbook*.{yml,yaml}",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ansible.useFullyQualifiedCollectionNames", true)

	v.SetDefault("executionEnvironment.enabled", false)
	v.SetDefault("executionEnvironment.collections", []string{})

	v.SetDefault("completion.provideRedirectModules", true)
	v.SetDefault("completion.provideModuleOptionAliases", true)

	v.SetDefault("docs.paths", []string{})
	v.SetDefault("docs.watch", true)

	v.SetDefault("files.playbookGlobs", ansible.DefaultPlaybookGlobs)
	v.SetDefault("files.roleGlobs", ansible.DefaultRoleGlobs)
	v.SetDefault("files.ansibleGlobs", DefaultAnsibleGlobs)
}
