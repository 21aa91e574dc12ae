package lsp

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/config"
	"github.com/mcncl/ansible-ls/internal/docs/docstest"
)

const playbookURI = "file:///project/site.yml"

const playbook = `- hosts: all
  collections:
    - org_1.coll_1
  tasks:
    - name: first
      module_1:
        opt_1: x
    - org_1.coll_3.old_module:
        opt_1: true
    - include: foo.yml
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(
		WithLibrary(docstest.NewLibrary(t)),
		WithFs(docstest.NewFs(t)),
		WithConfig(config.New()),
	)
}

func openDocument(t *testing.T, server *Server, uri, languageID, text string) {
	t.Helper()
	err := server.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        protocol.DocumentURI(uri),
			LanguageID: protocol.LanguageIdentifier(languageID),
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

// withCursor removes the "|" marking the cursor from text and returns the
// text with the cursor position.
func withCursor(t *testing.T, text string) (string, protocol.Position) {
	t.Helper()
	i := strings.Index(text, "|")
	require.GreaterOrEqual(t, i, 0, "fixture has no cursor")

	before := text[:i]
	line := strings.Count(before, "\n")
	character := i - (strings.LastIndex(before, "\n") + 1)
	return text[:i] + text[i+1:], protocol.Position{Line: uint32(line), Character: uint32(character)}
}

func getLabels(items []protocol.CompletionItem) []string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	return labels
}

func TestServer_Initialize(t *testing.T) {
	server := newTestServer(t)

	result, err := server.Initialize(context.Background(), &protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "test-client", Version: "1.0.0"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	caps := result.Capabilities
	assert.NotNil(t, caps.TextDocumentSync)
	assert.NotNil(t, caps.HoverProvider)
	assert.NotNil(t, caps.DocumentSymbolProvider)
	require.NotNil(t, caps.CompletionProvider)
	assert.True(t, caps.CompletionProvider.ResolveProvider)
	assert.ElementsMatch(t, []string{" ", ":", "-"}, caps.CompletionProvider.TriggerCharacters)

	legend, ok := caps.SemanticTokensProvider.(semanticTokensOptions)
	require.True(t, ok)
	assert.Equal(t, []string{"method", "class", "keyword", "property"}, legend.Legend.TokenTypes)
	assert.Equal(t, []string{"definition"}, legend.Legend.TokenModifiers)
	assert.True(t, legend.Full)

	assert.Equal(t, "ansible-ls", result.ServerInfo.Name)
}

func TestServer_InitializeWithOptions(t *testing.T) {
	server := newTestServer(t)

	_, err := server.Initialize(context.Background(), &protocol.InitializeParams{
		InitializationOptions: map[string]any{
			"ansible": map[string]any{"useFullyQualifiedCollectionNames": false},
		},
	})
	require.NoError(t, err)
	assert.False(t, server.Settings().Ansible.UseFullyQualifiedCollectionNames)
}

func TestServer_Lifecycle(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	assert.NoError(t, server.Initialized(ctx, &protocol.InitializedParams{}))
	assert.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, server.Exit(ctx))
}

func TestServer_DocumentSync(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	uri := protocol.DocumentURI(playbookURI)

	openDocument(t, server, playbookURI, "ansible", "- hosts: all\n")
	doc, exists := server.documentManager.GetDocument(uri)
	require.True(t, exists)
	assert.Equal(t, "ansible", doc.LanguageID)

	err := server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: "- hosts: web\n"},
		},
	})
	require.NoError(t, err)
	doc, _ = server.documentManager.GetDocument(uri)
	assert.Equal(t, "- hosts: web\n", doc.Content)
	assert.Equal(t, int32(2), doc.Version)
	assert.Equal(t, "ansible", doc.LanguageID)

	require.NoError(t, server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	_, exists = server.documentManager.GetDocument(uri)
	assert.False(t, exists)
}

func TestServer_Completion(t *testing.T) {
	server := newTestServer(t)
	text, pos := withCursor(t, "- hosts: all\n  tasks:\n    - |\n")
	openDocument(t, server, playbookURI, "ansible", text)

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: playbookURI},
			Position:     pos,
		},
	})
	require.NoError(t, err)
	labels := getLabels(list.Items)
	assert.Contains(t, labels, "name")
	assert.Contains(t, labels, "ansible.builtin.debug")
}

func TestServer_CompletionIgnoresOtherFiles(t *testing.T) {
	server := newTestServer(t)
	text, pos := withCursor(t, "- |\n")
	openDocument(t, server, "file:///project/.github/workflows/ci.yml", "yaml", text)

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///project/.github/workflows/ci.yml"},
			Position:     pos,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestServer_isAnsibleDocument(t *testing.T) {
	server := newTestServer(t)
	settings := server.Settings()

	tests := []struct {
		uri        string
		languageID string
		expected   bool
	}{
		{"file:///any/file.yml", "ansible", true},
		{"file:///project/playbooks/deploy.yml", "yaml", true},
		{"file:///project/roles/web/tasks/main.yml", "yaml", true},
		{"file:///project/site.yaml", "yaml", true},
		{"file:///project/.github/workflows/ci.yml", "yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			doc := &Document{URI: protocol.DocumentURI(tt.uri), LanguageID: tt.languageID}
			assert.Equal(t, tt.expected, server.isAnsibleDocument(doc, settings))
		})
	}
}

func TestServer_DidChangeConfiguration(t *testing.T) {
	server := newTestServer(t)
	require.True(t, server.Settings().Completion.ProvideRedirectModules)

	err := server.DidChangeConfiguration(context.Background(), &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{
			"ansible": map[string]any{
				"completion": map[string]any{"provideRedirectModules": false},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, server.Settings().Completion.ProvideRedirectModules)
}

func TestServer_DidChangeConfigurationLoadsDocumentation(t *testing.T) {
	server := NewServer(WithFs(docstest.NewFs(t)), WithConfig(config.New()))
	m, _ := server.library.FindModule("debug", nil)
	require.Nil(t, m)

	err := server.DidChangeConfiguration(context.Background(), &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{
			"docs": map[string]any{"paths": []any{docstest.Root}, "watch": false},
		},
	})
	require.NoError(t, err)

	m, fqcn := server.library.FindModule("debug", nil)
	require.NotNil(t, m)
	assert.Equal(t, "ansible.builtin.debug", fqcn)
}

func TestServer_Handler(t *testing.T) {
	server := newTestServer(t)
	assert.NotNil(t, server.Handler())
}

func TestServer_CompletionResolveRoundTrip(t *testing.T) {
	server := newTestServer(t)
	text, pos := withCursor(t, "- hosts: all\n  tasks:\n    - |\n")
	openDocument(t, server, playbookURI, "ansible", text)

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: playbookURI},
			Position:     pos,
		},
	})
	require.NoError(t, err)

	var item *protocol.CompletionItem
	for i := range list.Items {
		if list.Items[i].Label == "org_1.coll_3.module_3" {
			item = &list.Items[i]
		}
	}
	require.NotNil(t, item)

	// the client sends the item back as plain JSON
	raw, err := json.Marshal(item)
	require.NoError(t, err)
	var sent protocol.CompletionItem
	require.NoError(t, json.Unmarshal(raw, &sent))

	resolved, err := server.CompletionResolve(context.Background(), &sent)
	require.NoError(t, err)
	require.NotNil(t, resolved.TextEdit)
	assert.Equal(t, "org_1.coll_3.module_3:"+server.Settings().CompletionSettings().EOL+"\t", resolved.TextEdit.NewText)

	doc, ok := resolved.Documentation.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, doc.Value, "*Test module 3*")
}
