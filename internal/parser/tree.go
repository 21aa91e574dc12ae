package parser

// Kind identifies the variant of a Node.
type Kind int

const (
	ScalarKind Kind = iota + 1
	MappingKind
	SequenceKind
	PairKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	case PairKind:
		return "pair"
	default:
		return "unknown"
	}
}

// Range is a half-open byte span [Start, End) into the document text.
type Range struct {
	Start int
	End   int
}

// Contains reports whether offset lies in the range. With inclusive set the
// offset just past the last byte also counts, which is where a cursor sits
// while a word is being typed.
func (r Range) Contains(offset int, inclusive bool) bool {
	return r.Start <= offset && (offset < r.End || (inclusive && offset <= r.End))
}

// Node is one element of the YAML tree. The set of implementations is closed:
// *Scalar, *Mapping, *Sequence and *Pair.
type Node interface {
	Kind() Kind
	Range() Range
	node()
}

type Scalar struct {
	Value string
	// Tag is the resolved YAML tag, e.g. "!!str" or "!!int".
	Tag  string
	span Range
}

type Mapping struct {
	Pairs []*Pair
	Flow  bool
	span  Range
}

type Sequence struct {
	Items []Node
	Flow  bool
	span  Range
}

// Pair is a single key/value entry of a Mapping. Value is nil when the key
// has no value written after it.
type Pair struct {
	Key   Node
	Value Node
	span  Range
}

func (*Scalar) Kind() Kind   { return ScalarKind }
func (*Mapping) Kind() Kind  { return MappingKind }
func (*Sequence) Kind() Kind { return SequenceKind }
func (*Pair) Kind() Kind     { return PairKind }

func (s *Scalar) Range() Range   { return s.span }
func (m *Mapping) Range() Range  { return m.span }
func (s *Sequence) Range() Range { return s.span }
func (p *Pair) Range() Range     { return p.span }

func (*Scalar) node()   {}
func (*Mapping) node()  {}
func (*Sequence) node() {}
func (*Pair) node()     {}

// IsString reports whether the scalar was read as a YAML string.
func (s *Scalar) IsString() bool {
	return s.Tag == "" || s.Tag == "!!str"
}

// Get returns the pair whose key is the string scalar name.
func (m *Mapping) Get(name string) *Pair {
	for _, p := range m.Pairs {
		if k, ok := p.Key.(*Scalar); ok && k.IsString() && k.Value == name {
			return p
		}
	}
	return nil
}

func (m *Mapping) Has(name string) bool {
	return m.Get(name) != nil
}

// Keys returns the string keys of the mapping in document order.
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		if k, ok := p.Key.(*Scalar); ok && k.IsString() {
			keys = append(keys, k.Value)
		}
	}
	return keys
}

// KeyName returns the key of the pair when it is a string scalar.
func (p *Pair) KeyName() (string, bool) {
	if k, ok := p.Key.(*Scalar); ok && k.IsString() {
		return k.Value, true
	}
	return "", false
}

// NewPair builds a pair covering its key and value.
func NewPair(key, value Node) *Pair {
	p := &Pair{Key: key, Value: value, span: key.Range()}
	if value != nil && value.Range().End > p.span.End {
		p.span.End = value.Range().End
	}
	return p
}
