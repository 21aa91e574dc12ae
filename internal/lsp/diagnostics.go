package lsp

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/parser"
)

const diagnosticSource = "ansible-ls"

// diagnostics reports the first YAML syntax error.
func diagnostics(doc *Document) []protocol.Diagnostic {
	f := doc.File()
	if f.Err == nil {
		return []protocol.Diagnostic{}
	}

	message := errors.UnwrapAll(f.Err).Error()
	line := errorLine(message, f.Lines)
	message = strings.TrimPrefix(message, "yaml: ")

	return []protocol.Diagnostic{{
		Range:    toRange(f.Lines, parser.Range{Start: f.Lines.LineStart(line), End: f.Lines.LineEnd(line)}),
		Severity: protocol.DiagnosticSeverityError,
		Code:     "yaml-syntax",
		Source:   diagnosticSource,
		Message:  message,
	}}
}

// errorLine returns the zero-based line of a YAML error message, clamped to
// the document. Errors without a line are reported on the first line.
func errorLine(message string, lines *parser.LineIndex) int {
	n, ok := parser.SyntaxErrorLine(message)
	if !ok {
		return 0
	}
	return min(n, lines.LineCount()-1)
}

func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, diags []protocol.Diagnostic) {
	s.logger.Debugw("Publishing diagnostics", "uri", uri, "count", len(diags))
	if s.conn == nil {
		return
	}
	params := &protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}
	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
		s.logger.Warnw("Failed to publish diagnostics", "uri", uri, "error", err)
	}
}
