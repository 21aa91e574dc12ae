package lsp

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/modules"
	"github.com/mcncl/ansible-ls/internal/parser"
	"github.com/mcncl/ansible-ls/internal/semantic"
)

type semanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

type semanticTokensOptions struct {
	Legend semanticTokensLegend `json:"legend"`
	Range  bool                 `json:"range"`
	Full   bool                 `json:"full"`
}

type SemanticTokensParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
}

type SemanticTokensRangeParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

type SemanticTokens struct {
	Data []uint32 `json:"data"`
}

func semanticTokensProvider() semanticTokensOptions {
	return semanticTokensOptions{
		Legend: semanticTokensLegend{
			TokenTypes:     semantic.TokenTypes(),
			TokenModifiers: semantic.TokenModifiers(),
		},
		Range: true,
		Full:  true,
	}
}

func (s *Server) SemanticTokensFull(ctx context.Context, params *SemanticTokensParams) (*SemanticTokens, error) {
	return s.semanticTokens(params.TextDocument.URI, nil), nil
}

// SemanticTokensRange returns the tokens that overlap the requested range.
func (s *Server) SemanticTokensRange(ctx context.Context, params *SemanticTokensRangeParams) (*SemanticTokens, error) {
	doc, exists := s.documentManager.GetDocument(params.TextDocument.URI)
	if !exists {
		return &SemanticTokens{Data: []uint32{}}, nil
	}
	lines := doc.File().Lines
	want := parser.Range{
		Start: lines.OffsetAt(toPosition(params.Range.Start)),
		End:   lines.OffsetAt(toPosition(params.Range.End)),
	}
	return s.semanticTokens(params.TextDocument.URI, &want), nil
}

func (s *Server) semanticTokens(uri protocol.DocumentURI, within *parser.Range) *SemanticTokens {
	doc, exists := s.documentManager.GetDocument(uri)
	settings := s.Settings()
	if !exists || !s.isAnsibleDocument(doc, settings) {
		return &SemanticTokens{Data: []uint32{}}
	}

	f := doc.File()
	tokens := semantic.NewClassifier(modules.NewResolver(s.library), settings.FileHints()).Classify(f, string(uri))
	if within != nil {
		kept := tokens[:0]
		for _, t := range tokens {
			if t.Range.End > within.Start && t.Range.Start < within.End {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}
	s.logger.Debugw("Semantic tokens", "uri", uri, "count", len(tokens))
	return &SemanticTokens{Data: semantic.Encode(tokens, f.Lines)}
}
