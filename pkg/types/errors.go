package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the fatal condition classes.
var (
	// ErrInvalidInvocation is returned when required arguments or
	// configuration are missing.
	ErrInvalidInvocation = errors.New("invalid invocation")

	// ErrResourceUnavailable is returned when an input file cannot be
	// opened or read.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrGrammar is returned when a grammar definition is not well-formed.
	ErrGrammar = errors.New("grammar error")

	// ErrSyntax is returned when source text does not conform to the grammar.
	ErrSyntax = errors.New("syntax error")
)

// GrammarError describes a problem in a grammar definition.
type GrammarError struct {
	Pos Position
	Msg string
}

func (e *GrammarError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("grammar error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("grammar error: %s", e.Msg)
}

func (e *GrammarError) Is(target error) bool {
	return target == ErrGrammar
}

// SyntaxError describes a parse failure in the source text.
// Expected lists the terminals or literals that would have allowed
// the parse to continue at Pos.
type SyntaxError struct {
	Pos      Position
	Got      string // text found at Pos, empty at end of input
	Expected []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at line %d, column %d", e.Pos.Line, e.Pos.Column)
	if e.Got == "" {
		b.WriteString(": unexpected end of input")
	} else {
		fmt.Fprintf(&b, ": unexpected %q", e.Got)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ", expected %s", strings.Join(e.Expected, " or "))
	}
	return b.String()
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
