package parser

import (
	"math"
	"strings"
)

// Path is the chain of nodes from a document root down to the innermost
// node at a cursor. A Pair is always followed by its key or value.
type Path []Node

// Last returns the innermost node of the path.
func (p Path) Last() Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// GetPathAt returns the path to the node at pos, or nil when the position
// falls outside every document.
func (f *File) GetPathAt(pos Position, inclusive bool) Path {
	return f.PathAtOffset(f.Lines.OffsetAt(pos), inclusive)
}

// PathAtOffset is GetPathAt for a byte offset.
func (f *File) PathAtOffset(offset int, inclusive bool) Path {
	for _, doc := range f.Documents {
		if doc.Root == nil {
			continue
		}
		if doc.Root.Range().Contains(offset, inclusive) {
			return f.descend(Path{doc.Root}, offset, inclusive)
		}
		if path := f.trailing(doc.Root, offset); path != nil {
			return path
		}
	}
	return nil
}

func (f *File) descend(path Path, offset int, inclusive bool) Path {
	for {
		switch n := path.Last().(type) {
		case *Mapping:
			next, done := f.stepMapping(n, offset, inclusive)
			if next == nil {
				return path
			}
			path = append(path, next...)
			if done {
				return path
			}
		case *Sequence:
			var item Node
			for _, it := range n.Items {
				if it.Range().Contains(offset, inclusive) {
					item = it
					break
				}
			}
			if item == nil {
				for _, it := range n.Items {
					if tail := f.trailing(it, offset); tail != nil {
						return append(path, tail...)
					}
				}
				return path
			}
			path = append(path, item)
		default:
			return path
		}
	}
}

// stepMapping picks the child of m at offset. done reports that the returned
// nodes end the path, which happens when the offset sits between a key and
// its value.
func (f *File) stepMapping(m *Mapping, offset int, inclusive bool) (next []Node, done bool) {
	for _, p := range m.Pairs {
		if p.Key.Range().Contains(offset, inclusive) {
			return []Node{p, p.Key}, false
		}
		if p.Value != nil && p.Value.Range().Contains(offset, inclusive) {
			return []Node{p, p.Value}, false
		}
	}
	for _, p := range m.Pairs {
		keyEnd := p.Key.Range().End
		if offset < keyEnd {
			continue
		}
		if p.Value != nil {
			if offset < p.Value.Range().Start {
				return []Node{p}, true
			}
			if tail := f.trailing(p.Value, offset); tail != nil {
				return append([]Node{p}, tail...), true
			}
			continue
		}
		if f.sameLine(keyEnd, offset) {
			return []Node{p}, true
		}
	}
	return nil, false
}

// trailing finds a value-less pair that ends n and whose key sits on the
// offset's line before it. Such a pair's range stops at its colon, so the
// offset lies past every container that holds it.
func (f *File) trailing(n Node, offset int) Path {
	switch n := n.(type) {
	case *Mapping:
		if len(n.Pairs) == 0 {
			return nil
		}
		p := n.Pairs[len(n.Pairs)-1]
		if p.Value == nil {
			if keyEnd := p.Key.Range().End; offset >= keyEnd && f.sameLine(keyEnd, offset) {
				return Path{n, p}
			}
			return nil
		}
		if tail := f.trailing(p.Value, offset); tail != nil {
			return append(Path{n, p}, tail...)
		}
	case *Sequence:
		if len(n.Items) == 0 {
			return nil
		}
		if tail := f.trailing(n.Items[len(n.Items)-1], offset); tail != nil {
			return append(Path{n}, tail...)
		}
	}
	return nil
}

func (f *File) sameLine(from, to int) bool {
	return !strings.ContainsAny(f.Text[min(from, len(f.Text)):min(to, len(f.Text))], "\n")
}

const exhausted = math.MinInt32

// AncestryBuilder walks a Path upward from its innermost node. Every step
// can assert the kind of node it expects; a failed assertion exhausts the
// builder so that all further queries return nothing.
type AncestryBuilder struct {
	path  Path
	index int
}

func NewAncestryBuilder(path Path) *AncestryBuilder {
	return &AncestryBuilder{path: path, index: len(path) - 1}
}

// Parent moves one step up. Pairs are skipped unless kind asks for a Pair.
func (b *AncestryBuilder) Parent(kind ...Kind) *AncestryBuilder {
	if b.index < 0 {
		b.index = exhausted
		return b
	}
	b.index--
	if _, ok := b.at(b.index).(*Pair); ok && (len(kind) == 0 || kind[0] != PairKind) {
		b.index--
	}
	if len(kind) > 0 {
		if n := b.at(b.index); n == nil || n.Kind() != kind[0] {
			b.index = exhausted
		}
	}
	return b
}

// ParentOfKey moves from a key to the mapping that owns it. It exhausts the
// builder when the current node is not a key.
func (b *AncestryBuilder) ParentOfKey() *AncestryBuilder {
	node := b.at(b.index)
	b.Parent(PairKind)
	if p, ok := b.at(b.index).(*Pair); ok && node != nil && p.Key == node {
		return b.Parent(MappingKind)
	}
	b.index = exhausted
	return b
}

// Get returns the current node, or nil when the builder is exhausted.
func (b *AncestryBuilder) Get() Node {
	return b.at(b.index)
}

// GetStringKey returns the key of the pair the walk came up through when it
// is a string scalar.
func (b *AncestryBuilder) GetStringKey() string {
	if p, ok := b.at(b.index + 1).(*Pair); ok {
		if name, ok := p.KeyName(); ok {
			return name
		}
	}
	return ""
}

// GetValue returns the value of the pair the walk came up through.
func (b *AncestryBuilder) GetValue() Node {
	if p, ok := b.at(b.index + 1).(*Pair); ok {
		return p.Value
	}
	return nil
}

// GetPath returns the path from the root to the current node.
func (b *AncestryBuilder) GetPath() Path {
	if b.index < 0 {
		return nil
	}
	return append(Path(nil), b.path[:b.index+1]...)
}

// GetKeyPath returns the path to the key of the pair the walk came up
// through.
func (b *AncestryBuilder) GetKeyPath() Path {
	if b.index < 0 {
		return nil
	}
	p, ok := b.at(b.index + 1).(*Pair)
	if !ok {
		return nil
	}
	path := append(Path(nil), b.path[:b.index+1]...)
	return append(path, p, p.Key)
}

func (b *AncestryBuilder) at(i int) Node {
	if i < 0 || i >= len(b.path) {
		return nil
	}
	return b.path[i]
}
