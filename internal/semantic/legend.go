// Package semantic classifies the keys of Ansible YAML for semantic
// highlighting.
package semantic

import (
	"fmt"
	"slices"
)

// TokenType indexes the token type legend.
type TokenType uint32

const (
	Method TokenType = iota
	Class
	Keyword
	Property
)

// Modifiers is a bit set over the token modifier legend.
type Modifiers uint32

const Definition Modifiers = 1 << 0

var (
	tokenTypes     = [...]string{"method", "class", "keyword", "property"}
	tokenModifiers = [...]string{"definition"}
)

// TokenTypes returns the token type legend advertised to clients.
func TokenTypes() []string {
	return slices.Clone(tokenTypes[:])
}

// TokenModifiers returns the token modifier legend advertised to clients.
func TokenModifiers() []string {
	return slices.Clone(tokenModifiers[:])
}

func (t TokenType) String() string {
	if int(t) >= len(tokenTypes) {
		return fmt.Sprintf("TokenType(%d)", uint32(t))
	}
	return tokenTypes[t]
}

func (t TokenType) mustBeDeclared() {
	if int(t) >= len(tokenTypes) {
		panic(fmt.Sprintf("token type %d is not in the legend", uint32(t)))
	}
}

func (m Modifiers) mustBeDeclared() {
	if m>>len(tokenModifiers) != 0 {
		panic(fmt.Sprintf("token modifiers %b are not in the legend", uint32(m)))
	}
}
