package peg

import (
	"strconv"
	"strings"

	"github.com/spetr/parsekit/pkg/tree"
	"github.com/spetr/parsekit/pkg/types"
)

// Scan tokenizes source using the grammar's named terminals and the
// anonymous literals from rule expansions, skipping ignore patterns.
// Longest match wins; ties go to the earlier terminal definition.
func (p *Parser) Scan(source string) ([]tree.Token, error) {
	r := &run{p: p, src: source, farthest: -1}

	var toks []tree.Token
	pos := r.skip(0)
	for pos < len(source) {
		name, end := p.bestMatch(r, pos)
		if end <= pos {
			expected := append([]string(nil), p.g.TermOrder...)
			for _, lit := range p.literals {
				expected = append(expected, strconv.Quote(lit))
			}
			return nil, &types.SyntaxError{
				Pos:      types.PositionAt(source, pos),
				Got:      snippet(source, pos),
				Expected: expected,
			}
		}
		toks = append(toks, tree.Token{
			Name:  name,
			Value: source[pos:end],
			Pos:   types.PositionAt(source, pos),
		})
		pos = r.skip(end)
	}
	return toks, nil
}

// bestMatch returns the name and end offset of the longest token match
// at pos, or end <= pos when nothing matches.
func (p *Parser) bestMatch(r *run, pos int) (string, int) {
	bestName, bestEnd := "", pos
	for _, name := range p.g.TermOrder {
		if end, ok := r.matchTerm(p.g.Terminals[name].Expr, pos); ok && end > bestEnd {
			bestName, bestEnd = name, end
		}
	}
	for _, lit := range p.literals {
		if end := pos + len(lit); end > bestEnd && strings.HasPrefix(r.src[pos:], lit) {
			bestName, bestEnd = strconv.Quote(lit), end
		}
	}
	return bestName, bestEnd
}
