package ansible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/ansible-ls/internal/parser"
)

func TestAnalyzeContext(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		uri       string
		line      int
		character int
		want      CompletionContext
	}{
		{name: "play", text: playbookYAML, line: 0, character: 3, want: ContextPlay},
		{name: "task", text: playbookYAML, line: 4, character: 7, want: ContextTask},
		{name: "block", text: playbookYAML, line: 5, character: 7, want: ContextBlock},
		{name: "role", text: playbookYAML, line: 9, character: 7, want: ContextRole},
		{name: "task file", text: taskFileYAML, line: 1, character: 3, want: ContextPlayOrTask},
		{name: "role task file", text: taskFileYAML, uri: "file:///p/roles/web/tasks/main.yml", line: 1, character: 3, want: ContextTask},
		{name: "jinja", text: jinjaYAML, line: 2, character: 14, want: ContextJinja},
		{name: "module option", text: taskFileYAML, line: 2, character: 5, want: ContextUnknown},
	}

	analyzer := NewAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parser.Parse(tt.text)
			require.NoError(t, f.Err)

			info := analyzer.AnalyzeContext(&PositionContext{
				URI:      tt.uri,
				Position: parser.Position{Line: tt.line, Character: tt.character},
				File:     f,
			})
			assert.Equal(t, tt.want, info.Type, "got %s", info.Type)
		})
	}
}

func TestAnalyzeContext_Keys(t *testing.T) {
	f := parser.Parse(playbookYAML)
	info := NewAnalyzer(nil).AnalyzeContext(&PositionContext{
		Position: parser.Position{Line: 6, Character: 11},
		File:     f,
	})

	assert.Equal(t, ContextTask, info.Type)
	assert.True(t, info.IsTask())
	assert.Equal(t, "name", info.CurrentKey)
	assert.Equal(t, []string{"tasks", "block"}, info.ParentKeys)
	assert.Equal(t, "tasks.block", info.GetKeyPath())
}

func TestAnalyzeContext_Nil(t *testing.T) {
	analyzer := NewAnalyzer(nil)
	assert.Equal(t, ContextUnknown, analyzer.AnalyzeContext(nil).Type)
	assert.Equal(t, ContextUnknown, analyzer.AnalyzeContext(&PositionContext{File: parser.Parse("")}).Type)
}
