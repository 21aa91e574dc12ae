package lsp

import (
	"sync"

	"go.lsp.dev/protocol"

	"github.com/mcncl/ansible-ls/internal/ansible"
	"github.com/mcncl/ansible-ls/internal/parser"
)

// DocumentManager handles document content caching and state management
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document
}

// Document is one version of an open document. A new version replaces the
// Document instead of changing it, so a request keeps a consistent snapshot.
type Document struct {
	URI        protocol.DocumentURI
	LanguageID string
	Version    int32
	Content    string

	once sync.Once
	file *parser.File
}

// File returns the parsed content, parsing it on first use.
func (d *Document) File() *parser.File {
	d.once.Do(func() {
		d.file = parser.Parse(d.Content)
	})
	return d.file
}

// NewDocumentManager creates a new document manager
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[protocol.DocumentURI]*Document),
	}
}

// OpenDocument stores a newly opened document
func (dm *DocumentManager) OpenDocument(uri protocol.DocumentURI, languageID string, version int32, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.documents[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Content:    content,
	}
}

// UpdateDocument replaces the content of a document. Updates older than the
// stored version are ignored.
func (dm *DocumentManager) UpdateDocument(uri protocol.DocumentURI, version int32, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	languageID := ""
	if doc, exists := dm.documents[uri]; exists {
		if version < doc.Version {
			return
		}
		if version == doc.Version && content == doc.Content {
			return
		}
		languageID = doc.LanguageID
	}
	dm.documents[uri] = &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Content:    content,
	}
}

// CloseDocument removes a document from the cache
func (dm *DocumentManager) CloseDocument(uri protocol.DocumentURI) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	delete(dm.documents, uri)
}

// GetDocument retrieves a document by URI
func (dm *DocumentManager) GetDocument(uri protocol.DocumentURI) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	doc, exists := dm.documents[uri]
	return doc, exists
}

// GetContentAtPosition returns the parsed document and the node path at a
// position. It returns nil when the document is not open.
func (dm *DocumentManager) GetContentAtPosition(uri protocol.DocumentURI, position protocol.Position) *ansible.PositionContext {
	doc, exists := dm.GetDocument(uri)
	if !exists {
		return nil
	}

	f := doc.File()
	pos := toPosition(position)
	return &ansible.PositionContext{
		URI:      string(uri),
		Position: pos,
		File:     f,
		Path:     f.GetPathAt(pos, false),
	}
}

func toPosition(p protocol.Position) parser.Position {
	return parser.Position{Line: int(p.Line), Character: int(p.Character)}
}

func fromPosition(p parser.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

// toRange converts a byte range to an editor range.
func toRange(lines *parser.LineIndex, r parser.Range) protocol.Range {
	return protocol.Range{
		Start: fromPosition(lines.PositionAt(r.Start)),
		End:   fromPosition(lines.PositionAt(r.End)),
	}
}
