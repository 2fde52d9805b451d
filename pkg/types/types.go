// Package types contains shared data types used across the parsekit project.
package types

import (
	"strings"
	"unicode/utf8"
)

// Position is a location in a text input. Line and Column are 1-based,
// Offset is the 0-based byte offset.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// PositionAt computes the Position of a byte offset within text.
// Offsets past the end of text are clamped to the end. Columns count
// runes, not bytes, so multi-byte input reports the column an editor
// would show.
func PositionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := utf8.RuneCountInString(before[strings.LastIndexByte(before, '\n')+1:]) + 1
	return Position{Line: line, Column: col, Offset: offset}
}

// SourceText is a fully loaded text input with its origin path.
type SourceText struct {
	Path    string
	Content string
}
