package lsp

import (
	"context"
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/config"
	"github.com/mcncl/ansible-ls/internal/docs"
)

// LanguageID is the language editors assign to Ansible YAML.
const LanguageID = "ansible"

type Server struct {
	conn            jsonrpc2.Conn
	logger          *zap.SugaredLogger
	version         string
	fs              afero.Fs
	background      context.Context
	documentManager *DocumentManager
	library         *docs.Library
	loader          *docs.Loader
	completion      *CompletionProvider
	hover           *HoverProvider

	mu       sync.RWMutex
	v        *viper.Viper
	settings *config.Settings

	watchMu   sync.Mutex
	stopWatch context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithLibrary shares a documentation library with the server.
func WithLibrary(library *docs.Library) Option {
	return func(s *Server) { s.library = library }
}

// WithFs sets the filesystem documentation and vars files are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Server) { s.fs = fs }
}

// WithConfig sets the settings source. Client configuration is merged into it.
func WithConfig(v *viper.Viper) Option {
	return func(s *Server) { s.v = v }
}

// WithContext bounds background work such as the documentation watcher.
func WithContext(ctx context.Context) Option {
	return func(s *Server) { s.background = ctx }
}

func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:     zap.NewNop().Sugar(),
		version:    "dev",
		fs:         afero.NewOsFs(),
		background: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.library == nil {
		s.library = docs.NewLibrary(s.logger)
	}
	if s.v == nil {
		s.v = config.New()
	}

	settings, err := config.Load(s.v)
	if err != nil {
		s.logger.Warnw("Invalid settings, using defaults", "error", err)
		settings, _ = config.Load(config.New())
	}
	s.settings = settings

	s.documentManager = NewDocumentManager()
	s.loader = docs.NewLoader(s.fs, nil, s.logger)
	s.completion = NewCompletionProvider(s.library, s.fs, s.logger)
	s.hover = NewHoverProvider(s.library)
	return s
}

// SetConnection sets the connection notifications are sent on.
func (s *Server) SetConnection(conn jsonrpc2.Conn) {
	s.conn = conn
}

func (s *Server) Logger() *zap.SugaredLogger {
	return s.logger
}

// Settings returns the current settings. The result must not be modified.
func (s *Server) Settings() *config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// LoadDocumentation reloads the library from the configured documentation
// paths and restarts the watcher. Files that fail to load are reported in
// the error while the rest is still installed.
func (s *Server) LoadDocumentation(ctx context.Context) error {
	settings := s.Settings()
	idx, err := s.loader.Load(ctx, settings.Docs.Paths)
	if idx != nil {
		s.library.Replace(idx)
	}
	s.restartWatcher(settings.Docs)
	return err
}

func (s *Server) restartWatcher(d config.DocsSettings) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	if !d.Watch || len(d.Paths) == 0 {
		return
	}

	w, err := docs.NewWatcher(d.Paths, s.loader, s.library, s.logger)
	if err != nil {
		s.logger.Warnw("Documentation watcher not started", "error", err)
		return
	}
	ctx, cancel := context.WithCancel(s.background)
	s.stopWatch = cancel
	go w.Run(ctx)
}

// Close stops background work.
func (s *Server) Close() {
	s.restartWatcher(config.DocsSettings{})
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Infow("Initializing ansible-ls server", "version", s.version)

	if options, ok := params.InitializationOptions.(map[string]any); ok {
		if err := s.applySettings(ctx, options); err != nil {
			s.logger.Warnw("Ignoring initialization options", "error", err)
		}
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			HoverProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider:   true,
				TriggerCharacters: []string{" ", ":", "-"},
			},
			DocumentSymbolProvider: true,
			SemanticTokensProvider: semanticTokensProvider(),
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "ansible-ls",
			Version: s.version,
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.logger.Infow("Server initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Server shutting down")
	s.Close()
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	s.logger.Infow("Server exiting")
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	s.logger.Debugw("Document opened", "uri", item.URI, "languageId", item.LanguageID)
	s.documentManager.OpenDocument(item.URI, string(item.LanguageID), item.Version, item.Text)
	s.validateDocument(ctx, item.URI)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.logger.Debugw("Document changed", "uri", params.TextDocument.URI, "version", params.TextDocument.Version)

	if len(params.ContentChanges) > 0 {
		lastChange := params.ContentChanges[len(params.ContentChanges)-1]
		s.documentManager.UpdateDocument(params.TextDocument.URI, params.TextDocument.Version, lastChange.Text)
		s.validateDocument(ctx, params.TextDocument.URI)
	}
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Debugw("Document closed", "uri", params.TextDocument.URI)
	s.documentManager.CloseDocument(params.TextDocument.URI)
	s.publishDiagnostics(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

func (s *Server) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	payload, ok := params.Settings.(map[string]any)
	if !ok {
		return nil
	}
	return s.applySettings(ctx, payload)
}

// applySettings merges client settings and reloads documentation when its
// paths changed.
func (s *Server) applySettings(ctx context.Context, payload map[string]any) error {
	s.mu.Lock()
	previous := s.settings
	settings, err := config.Merge(s.v, payload)
	if err == nil {
		s.settings = settings
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Infow("Settings updated",
		"fqcn", settings.Ansible.UseFullyQualifiedCollectionNames,
		"docsPaths", settings.Docs.Paths,
	)
	if !slices.Equal(previous.Docs.Paths, settings.Docs.Paths) || previous.Docs.Watch != settings.Docs.Watch {
		if err := s.LoadDocumentation(ctx); err != nil {
			s.logger.Warnw("Documentation loaded with errors", "error", err)
		}
	}
	return nil
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, exists := s.documentManager.GetDocument(params.TextDocument.URI)
	settings := s.Settings()
	if !exists || !s.isAnsibleDocument(doc, settings) {
		return nil, nil
	}
	posCtx := s.documentManager.GetContentAtPosition(params.TextDocument.URI, params.Position)
	return s.hover.GetHover(posCtx, settings), nil
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, exists := s.documentManager.GetDocument(params.TextDocument.URI)
	settings := s.Settings()
	if !exists || !s.isAnsibleDocument(doc, settings) {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}
	items := s.completion.GetCompletions(doc, params.Position, settings)
	return &protocol.CompletionList{Items: items}, nil
}

func (s *Server) CompletionResolve(ctx context.Context, item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	resolved := s.completion.Resolve(*item, s.Settings())
	return &resolved, nil
}

func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	doc, exists := s.documentManager.GetDocument(params.TextDocument.URI)
	if !exists || !s.isAnsibleDocument(doc, s.Settings()) {
		return []protocol.DocumentSymbol{}, nil
	}
	return documentSymbols(doc), nil
}

func (s *Server) validateDocument(ctx context.Context, uri protocol.DocumentURI) {
	doc, exists := s.documentManager.GetDocument(uri)
	if !exists || !s.isAnsibleDocument(doc, s.Settings()) {
		return
	}
	s.publishDiagnostics(ctx, uri, diagnostics(doc))
}

// isAnsibleDocument accepts documents the editor tagged as Ansible and
// YAML files matching the configured globs.
func (s *Server) isAnsibleDocument(doc *Document, settings *config.Settings) bool {
	if doc.LanguageID == LanguageID {
		return true
	}
	return ansible.MatchAny(settings.Files.AnsibleGlobs, string(doc.URI))
}

func (s *Server) Handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debugw("Received method", "method", req.Method())
		switch req.Method() {
		case "initialize":
			var params protocol.InitializeParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				s.logger.Warnw("Error unmarshaling params", "method", req.Method(), "error", err)
				return reply(ctx, nil, err)
			}
			result, err := s.Initialize(ctx, &params)
			return reply(ctx, result, err)

		case "initialized":
			var params protocol.InitializedParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			err := s.Initialized(ctx, &params)
			return reply(ctx, nil, err)

		case "shutdown":
			err := s.Shutdown(ctx)
			return reply(ctx, nil, err)

		case "exit":
			return s.Exit(ctx)

		case "textDocument/didOpen":
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			err := s.DidOpen(ctx, &params)
			return reply(ctx, nil, err)

		case "textDocument/didChange":
			var params protocol.DidChangeTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			err := s.DidChange(ctx, &params)
			return reply(ctx, nil, err)

		case "textDocument/didClose":
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			err := s.DidClose(ctx, &params)
			return reply(ctx, nil, err)

		case "workspace/didChangeConfiguration":
			var params protocol.DidChangeConfigurationParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			err := s.DidChangeConfiguration(ctx, &params)
			return reply(ctx, nil, err)

		case "textDocument/hover":
			var params protocol.HoverParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Hover(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/completion":
			var params protocol.CompletionParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.Completion(ctx, &params)
			return reply(ctx, result, err)

		case "completionItem/resolve":
			var params protocol.CompletionItem
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.CompletionResolve(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/documentSymbol":
			var params protocol.DocumentSymbolParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.DocumentSymbol(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/semanticTokens/full":
			var params SemanticTokensParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.SemanticTokensFull(ctx, &params)
			return reply(ctx, result, err)

		case "textDocument/semanticTokens/range":
			var params SemanticTokensRangeParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, err)
			}
			result, err := s.SemanticTokensRange(ctx, &params)
			return reply(ctx, result, err)

		default:
			return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
		}
	}
}
