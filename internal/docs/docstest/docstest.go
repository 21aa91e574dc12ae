// Package docstest provides a small module documentation set for tests.
package docstest

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/ansible-ls/internal/docs"
)

// Root is the directory Files live under.
const Root = "/docs"

// Files maps paths to index file contents.
var Files = map[string]string{
	"/docs/ansible.builtin.yml": `collection: ansible.builtin
modules:
  - name: debug
    short_description: Print statements during execution
    description:
      - This module prints statements during execution.
      - Use C(msg) for a custom message.
    options:
      msg:
        type: str
        description: The customized message that is printed.
        default: Hello world!
      var:
        type: str
        description: A variable name to debug.
      verbosity:
        type: int
        description: A number that controls when the debug is run.
        default: 0
  - name: file
    short_description: Manage files and file properties
    options:
      path:
        type: path
        required: true
        aliases: [dest, name]
        description: Path to the file being managed.
      state:
        type: str
        choices: [absent, directory, file, touch]
        default: file
        description: Desired state.
      mode:
        type: raw
        description: The permissions the resulting filesystem object should have.
routing:
  include:
    tombstone:
      removal_version: "2.16"
`,
	"/docs/org_1/coll_1.yml": `collection: org_1.coll_1
modules:
  - name: module_1
    short_description: Test module 1
    options:
      opt_1:
        type: str
        required: true
        aliases: [opt_one]
        description: Option 1.
      opt_2:
        type: dict
        description: Option 2.
        suboptions:
          sub_opt_1:
            type: str
            choices: [choice_1, choice_2]
            default: choice_1
          sub_opt_2:
            type: list
            elements: dict
            suboptions:
              sub_sub_opt_1:
                type: bool
      opt_3:
        type: list
        elements: str
`,
	"/docs/org_1/coll_3.json": `{
  "collection": "org_1.coll_3",
  "modules": [
    {
      "name": "module_3",
      "short_description": "Test module 3",
      "options": {"opt_1": {"type": "bool", "description": "Option 1 of module 3."}}
    }
  ],
  "routing": {
    "old_module": {"redirect": "module_3"},
    "gone_module": {"tombstone": {"removal_version": "2.0.0"}}
  }
}
`,
}

// NewFs returns an in-memory filesystem holding Files.
func NewFs(t testing.TB) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range Files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

// NewLibrary returns a library loaded from Files.
func NewLibrary(t testing.TB) *docs.Library {
	t.Helper()
	idx, err := docs.NewLoader(NewFs(t), nil, nil).Load(context.Background(), []string{Root})
	require.NoError(t, err)

	lib := docs.NewLibrary(nil)
	lib.Replace(idx)
	return lib
}
