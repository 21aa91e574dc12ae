package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveModule(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		settings Settings
		expected string
	}{
		{
			name:     "short name for declared collection",
			req:      Request{ModuleFQCN: "org_1.coll_3.module_3", InlineCollections: []string{"org_1.coll_3"}},
			settings: Settings{UseFQCN: false, EOL: "\n"},
			expected: "module_3",
		},
		{
			name:     "FQCN for undeclared collection",
			req:      Request{ModuleFQCN: "org_1.coll_1.module_1", InlineCollections: []string{"org_1.coll_3"}},
			settings: Settings{UseFQCN: false, EOL: "\n"},
			expected: "org_1.coll_1.module_1",
		},
		{
			name:     "FQCN when requested",
			req:      Request{ModuleFQCN: "org_1.coll_3.module_3", InlineCollections: []string{"org_1.coll_3"}},
			settings: Settings{UseFQCN: true, EOL: "\n"},
			expected: "org_1.coll_3.module_3",
		},
		{
			name:     "builtin is implicit",
			req:      Request{ModuleFQCN: "ansible.builtin.debug"},
			settings: Settings{EOL: "\n"},
			expected: "debug",
		},
		{
			name:     "execution environment collection",
			req:      Request{ModuleFQCN: "org_1.coll_1.module_1"},
			settings: Settings{ExecutionEnvironment: true, EECollections: []string{"org_1.coll_1"}, EOL: "\n"},
			expected: "module_1",
		},
		{
			name:     "execution environment disabled",
			req:      Request{ModuleFQCN: "org_1.coll_1.module_1"},
			settings: Settings{EECollections: []string{"org_1.coll_1"}, EOL: "\n"},
			expected: "org_1.coll_1.module_1",
		},
		{
			name:     "end of line",
			req:      Request{ModuleFQCN: "ansible.builtin.debug", AtEndOfLine: true},
			settings: Settings{UseFQCN: true, EOL: "\n"},
			expected: "ansible.builtin.debug:\n\t",
		},
		{
			name:     "end of line with CRLF",
			req:      Request{ModuleFQCN: "ansible.builtin.debug", AtEndOfLine: true, FirstElementOfList: true},
			settings: Settings{EOL: "\r\n"},
			expected: "debug:\r\n\t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.req, tt.settings).InsertText)
		})
	}
}

func TestResolveOption(t *testing.T) {
	eol := Settings{EOL: "\n"}

	tests := []struct {
		name     string
		req      Request
		expected string
	}{
		{name: "list", req: Request{Label: "sub_opt_2", OptionType: "list", AtEndOfLine: true}, expected: "sub_opt_2:\n\t- "},
		{name: "list first in list", req: Request{Label: "opt", OptionType: "list", AtEndOfLine: true, FirstElementOfList: true}, expected: "opt:\n\t- "},
		{name: "dict", req: Request{Label: "opt", OptionType: "dict", AtEndOfLine: true}, expected: "opt:\n\t"},
		{name: "dict first in list", req: Request{Label: "opt", OptionType: "dict", AtEndOfLine: true, FirstElementOfList: true}, expected: "opt:\n\t\t"},
		{name: "scalar", req: Request{Label: "opt", OptionType: "str", AtEndOfLine: true}, expected: "opt: "},
		{name: "mid line", req: Request{Label: "opt", OptionType: "list"}, expected: "opt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.req, eol).InsertText)
		})
	}
}

func TestResolveToggleFQCN(t *testing.T) {
	req := Request{ModuleFQCN: "org_1.coll_3.module_3", InlineCollections: []string{"org_1.coll_3"}}

	short := Resolve(req, Settings{UseFQCN: false})
	long := Resolve(req, Settings{UseFQCN: true})

	assert.Equal(t, "module_3", short.InsertText)
	assert.Equal(t, "org_1.coll_3.module_3", long.InsertText)
	assert.Equal(t, short, Resolve(req, Settings{UseFQCN: false}))
	assert.Equal(t, []string{"org_1.coll_3"}, req.InlineCollections)
}

func TestImplicitCollectionsDoNotAlias(t *testing.T) {
	ee := make([]string, 1, 4)
	ee[0] = "org_1.coll_1"
	s := Settings{ExecutionEnvironment: true, EECollections: ee}

	assert.Equal(t, []string{"ansible.builtin", "org_1.coll_1"}, s.ImplicitCollections())
	assert.Equal(t, []string{"org_1.coll_1"}, s.EECollections)
}

func TestPlatformEOL(t *testing.T) {
	assert.Contains(t, []string{"\n", "\r\n"}, PlatformEOL())
	assert.Equal(t, PlatformEOL(), DefaultSettings().EOL)
	assert.True(t, DefaultSettings().UseFQCN)
}
