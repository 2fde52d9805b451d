// Package grammar implements the grammar-definition language parsekit
// compiles parsers from. The syntax is line-oriented:
//
//	start: item+
//	item: WORD | NUMBER | "(" item ")"
//	WORD: /[a-z]+/
//	NUMBER: /[0-9]+/
//	%ignore /\s+/
//
// Lowercase names define rules, uppercase names define terminals.
// Expansions support sequences, ordered alternation with "|", grouping
// with parentheses, the quantifiers "*", "+" and "?", double-quoted
// string literals and /.../ regular expressions. A line starting with
// "|" continues the previous definition. "//" starts a line comment.
// The %ignore directive names a pattern that is skipped between tokens.
package grammar

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/spetr/parsekit/pkg/types"
)

// DefaultStart is the start rule used when none is configured.
const DefaultStart = "start"

// Grammar is a compiled grammar definition.
type Grammar struct {
	Rules     map[string]*Rule
	Terminals map[string]*Terminal
	Ignore    []Expr
	RuleOrder []string // definition order, for diagnostics
	TermOrder []string
}

// Rule is a parse rule: its derivation becomes an interior tree node.
type Rule struct {
	Name string
	Expr Expr
	Pos  types.Position
}

// Terminal is a named token definition: its match becomes a leaf.
type Terminal struct {
	Name string
	Expr Expr
	Pos  types.Position
}

// Expr is a node of a rule or terminal expansion.
type Expr interface {
	// Desc returns the human-readable form used in diagnostics.
	Desc() string
}

// Seq matches its items in order.
type Seq struct {
	Items []Expr
}

func (e *Seq) Desc() string {
	if len(e.Items) > 0 {
		return e.Items[0].Desc()
	}
	return "empty"
}

// Alt matches the first of its alternatives that succeeds (ordered choice).
type Alt struct {
	Alts []Expr
}

func (e *Alt) Desc() string {
	if len(e.Alts) > 0 {
		return e.Alts[0].Desc()
	}
	return "empty"
}

// Rep matches Expr repeatedly: Min 0/1, Max 1 or Unbounded.
type Rep struct {
	Expr Expr
	Min  int
	Max  int // Unbounded for * and +
}

// Unbounded marks a repetition with no upper limit.
const Unbounded = -1

func (e *Rep) Desc() string { return e.Expr.Desc() }

// Lit matches a literal string.
type Lit struct {
	Value string
}

func (e *Lit) Desc() string { return strconv.Quote(e.Value) }

// Rx matches a regular expression, anchored at the current offset.
type Rx struct {
	Pattern string
	re      *regexp.Regexp
}

func (e *Rx) Desc() string { return "/" + e.Pattern + "/" }

// Match returns the length of the match of e at the start of text,
// or -1 if there is no match.
func (e *Rx) Match(text string) int {
	loc := e.re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[1]
}

// Ref references a rule or terminal by name.
type Ref struct {
	Name string
}

func (e *Ref) Desc() string { return e.Name }

// IsTerminal reports whether e references a terminal definition.
func (e *Ref) IsTerminal() bool { return isTerminalName(e.Name) }

// isTerminalName reports whether name follows the uppercase terminal
// convention. The first letter decides; leading underscores are skipped.
func isTerminalName(name string) bool {
	for _, r := range name {
		if r == '_' {
			continue
		}
		return r >= 'A' && r <= 'Z'
	}
	return false
}

func compileRx(pattern string, pos types.Position) (*Rx, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return nil, &types.GrammarError{Pos: pos, Msg: fmt.Sprintf("bad regular expression /%s/: %v", pattern, err)}
	}
	return &Rx{Pattern: pattern, re: re}, nil
}
