// Package backend defines the parser-construction capability used by the
// parsekit CLI. A Backend compiles a grammar definition into a Parser;
// implementations are registered in a Registry so callers can select one
// by name and tests can substitute fakes.
package backend

import (
	"github.com/spetr/parsekit/pkg/tree"
)

// Backend compiles grammar text into a ready-to-use Parser.
type Backend interface {
	// Name returns the backend name (e.g., "peg", "treesitter").
	Name() string

	// Compile builds a parser from a grammar definition. A malformed
	// grammar yields an error matching types.ErrGrammar.
	Compile(grammarText string) (Parser, error)
}

// Parser parses source text into a parse tree.
type Parser interface {
	// Parse runs the parser over source, producing the full parse tree.
	// Nonconforming input yields an error matching types.ErrSyntax and
	// no partial tree.
	Parse(source string) (*tree.Tree, error)

	// Scan tokenizes source without building a tree. Backends that have
	// no separate lexing phase may return the tree's leaves instead.
	Scan(source string) ([]tree.Token, error)
}
