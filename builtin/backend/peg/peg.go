// Package peg implements the built-in grammar backend: a scannerless
// PEG interpreter over a compiled grammar definition. Alternation is
// ordered choice and repetition is greedy; ignore patterns are skipped
// before every token-level match.
package peg

import (
	"fmt"
	"strings"

	"github.com/spetr/parsekit/pkg/backend"
	"github.com/spetr/parsekit/pkg/grammar"
	"github.com/spetr/parsekit/pkg/tree"
	"github.com/spetr/parsekit/pkg/types"
)

// Config contains configuration for the PEG backend.
type Config struct {
	Start string // start rule, default "start"
}

// Backend compiles grammar definitions into PEG parsers.
type Backend struct {
	start string
}

// New creates a new PEG backend.
func New(cfg Config) *Backend {
	start := cfg.Start
	if start == "" {
		start = grammar.DefaultStart
	}
	return &Backend{start: start}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "peg"
}

// Compile parses and validates the grammar text and returns a Parser
// rooted at the configured start rule.
func (b *Backend) Compile(grammarText string) (backend.Parser, error) {
	g, err := grammar.Parse(grammarText)
	if err != nil {
		return nil, err
	}
	if _, ok := g.Rules[b.start]; !ok {
		return nil, &types.GrammarError{Msg: fmt.Sprintf("start rule %s is not defined", b.start)}
	}
	return &Parser{g: g, start: b.start, literals: collectLiterals(g)}, nil
}

// Parser is a compiled grammar ready to parse source text. It is
// stateless across Parse calls.
type Parser struct {
	g        *grammar.Grammar
	start    string
	literals []string // anonymous literals from rule expansions, for Scan
}

// Parse runs the parser over source. On failure it returns a
// *types.SyntaxError for the farthest position reached; no partial
// tree is produced.
func (p *Parser) Parse(source string) (*tree.Tree, error) {
	r := &run{p: p, src: source, farthest: -1, active: make(map[activeKey]bool)}

	nodes, end, ok := r.match(&grammar.Ref{Name: p.start}, 0)
	if ok {
		end = r.skip(end)
		if end == len(source) {
			return nodes[0].(*tree.Tree), nil
		}
		r.fail(end, "end of input")
	}
	return nil, r.syntaxError()
}

type activeKey struct {
	rule string
	pos  int
}

// run holds the state of a single Parse invocation.
type run struct {
	p   *Parser
	src string

	// farthest-failure tracking for diagnostics
	farthest int
	expected []string

	// left-recursion guard: rules currently expanding at an offset
	active map[activeKey]bool
}

// match attempts e at pos, returning the produced nodes and the
// position after the match. Group and quantifier results splice into
// the surrounding rule; only rule references create interior nodes.
func (r *run) match(e grammar.Expr, pos int) ([]tree.Node, int, bool) {
	switch e := e.(type) {
	case *grammar.Lit:
		start := r.skip(pos)
		if !strings.HasPrefix(r.src[start:], e.Value) {
			r.fail(start, e.Desc())
			return nil, pos, false
		}
		tok := tree.Token{Name: e.Desc(), Value: e.Value, Pos: types.PositionAt(r.src, start)}
		return []tree.Node{tok}, start + len(e.Value), true

	case *grammar.Rx:
		start := r.skip(pos)
		n := e.Match(r.src[start:])
		if n < 0 {
			r.fail(start, e.Desc())
			return nil, pos, false
		}
		tok := tree.Token{Name: e.Desc(), Value: r.src[start : start+n], Pos: types.PositionAt(r.src, start)}
		return []tree.Node{tok}, start + n, true

	case *grammar.Ref:
		if e.IsTerminal() {
			start := r.skip(pos)
			end, ok := r.matchTerm(r.p.g.Terminals[e.Name].Expr, start)
			if !ok {
				r.fail(start, e.Name)
				return nil, pos, false
			}
			tok := tree.Token{Name: e.Name, Value: r.src[start:end], Pos: types.PositionAt(r.src, start)}
			return []tree.Node{tok}, end, true
		}
		key := activeKey{rule: e.Name, pos: pos}
		if r.active[key] {
			// left recursion: fail this alternative instead of looping
			return nil, pos, false
		}
		r.active[key] = true
		nodes, end, ok := r.match(r.p.g.Rules[e.Name].Expr, pos)
		delete(r.active, key)
		if !ok {
			return nil, pos, false
		}
		return []tree.Node{&tree.Tree{Rule: e.Name, Children: nodes}}, end, true

	case *grammar.Seq:
		var nodes []tree.Node
		cur := pos
		for _, item := range e.Items {
			sub, next, ok := r.match(item, cur)
			if !ok {
				return nil, pos, false
			}
			nodes = append(nodes, sub...)
			cur = next
		}
		return nodes, cur, true

	case *grammar.Alt:
		for _, alt := range e.Alts {
			if nodes, next, ok := r.match(alt, pos); ok {
				return nodes, next, true
			}
		}
		return nil, pos, false

	case *grammar.Rep:
		var nodes []tree.Node
		cur := pos
		count := 0
		for e.Max == grammar.Unbounded || count < e.Max {
			sub, next, ok := r.match(e.Expr, cur)
			if !ok {
				break
			}
			if next == cur {
				// zero-length match, stop instead of looping
				break
			}
			nodes = append(nodes, sub...)
			cur = next
			count++
		}
		if count < e.Min {
			return nil, pos, false
		}
		return nodes, cur, true
	}
	return nil, pos, false
}

// matchTerm matches e contiguously at pos, with no ignore skipping.
// Used inside terminal definitions and for ignore patterns.
func (r *run) matchTerm(e grammar.Expr, pos int) (int, bool) {
	switch e := e.(type) {
	case *grammar.Lit:
		if !strings.HasPrefix(r.src[pos:], e.Value) {
			return pos, false
		}
		return pos + len(e.Value), true
	case *grammar.Rx:
		n := e.Match(r.src[pos:])
		if n < 0 {
			return pos, false
		}
		return pos + n, true
	case *grammar.Ref:
		return r.matchTerm(r.p.g.Terminals[e.Name].Expr, pos)
	case *grammar.Seq:
		cur := pos
		for _, item := range e.Items {
			next, ok := r.matchTerm(item, cur)
			if !ok {
				return pos, false
			}
			cur = next
		}
		return cur, true
	case *grammar.Alt:
		for _, alt := range e.Alts {
			if next, ok := r.matchTerm(alt, pos); ok {
				return next, true
			}
		}
		return pos, false
	case *grammar.Rep:
		cur := pos
		count := 0
		for e.Max == grammar.Unbounded || count < e.Max {
			next, ok := r.matchTerm(e.Expr, cur)
			if !ok || next == cur {
				break
			}
			cur = next
			count++
		}
		if count < e.Min {
			return pos, false
		}
		return cur, true
	}
	return pos, false
}

// skip advances pos past any ignore-pattern matches.
func (r *run) skip(pos int) int {
	for {
		advanced := false
		for _, ig := range r.p.g.Ignore {
			if next, ok := r.matchTerm(ig, pos); ok && next > pos {
				pos = next
				advanced = true
			}
		}
		if !advanced {
			return pos
		}
	}
}

// fail records a token-level mismatch for farthest-failure diagnostics.
func (r *run) fail(pos int, expected string) {
	if pos > r.farthest {
		r.farthest = pos
		r.expected = r.expected[:0]
	}
	if pos == r.farthest && expected != "" && !contains(r.expected, expected) {
		r.expected = append(r.expected, expected)
	}
}

func (r *run) syntaxError() *types.SyntaxError {
	pos := r.farthest
	if pos < 0 {
		pos = 0
	}
	return &types.SyntaxError{
		Pos:      types.PositionAt(r.src, pos),
		Got:      snippet(r.src, pos),
		Expected: append([]string(nil), r.expected...),
	}
}

// snippet returns a short excerpt of src at pos for diagnostics.
func snippet(src string, pos int) string {
	if pos >= len(src) {
		return ""
	}
	rest := src[pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	const max = 10
	if len(rest) > max {
		rest = rest[:max]
	}
	return rest
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func collectLiterals(g *grammar.Grammar) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(grammar.Expr)
	walk = func(e grammar.Expr) {
		switch e := e.(type) {
		case *grammar.Lit:
			if !seen[e.Value] {
				seen[e.Value] = true
				out = append(out, e.Value)
			}
		case *grammar.Seq:
			for _, item := range e.Items {
				walk(item)
			}
		case *grammar.Alt:
			for _, alt := range e.Alts {
				walk(alt)
			}
		case *grammar.Rep:
			walk(e.Expr)
		}
	}
	for _, name := range g.RuleOrder {
		walk(g.Rules[name].Expr)
	}
	return out
}
