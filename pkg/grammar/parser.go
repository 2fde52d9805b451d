package grammar

import (
	"fmt"
	"strings"

	"github.com/spetr/parsekit/pkg/types"
)

// Parse compiles grammar text into a Grammar. All failures match
// types.ErrGrammar and carry the offending grammar position.
func Parse(text string) (*Grammar, error) {
	g := &Grammar{
		Rules:     make(map[string]*Rule),
		Terminals: make(map[string]*Terminal),
	}

	defs, err := splitDefinitions(text)
	if err != nil {
		return nil, err
	}

	for _, def := range defs {
		if err := g.addDefinition(def); err != nil {
			return nil, err
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// splitDefinitions groups physical lines into definitions. A line whose
// first token is "|" continues the previous definition.
func splitDefinitions(text string) ([][]token, error) {
	var defs [][]token
	for lineNo, line := range strings.Split(text, "\n") {
		toks, err := scanLine(line, lineNo+1)
		if err != nil {
			return nil, err
		}
		if len(toks) == 0 {
			continue
		}
		if toks[0].kind == tkPipe {
			if len(defs) == 0 {
				return nil, &types.GrammarError{Pos: toks[0].pos, Msg: "continuation line without a preceding definition"}
			}
			defs[len(defs)-1] = append(defs[len(defs)-1], toks...)
			continue
		}
		defs = append(defs, toks)
	}
	return defs, nil
}

func (g *Grammar) addDefinition(toks []token) error {
	p := &defParser{toks: toks}

	if p.peek().kind == tkDirective {
		return g.addDirective(p)
	}

	name := p.next()
	if name.kind != tkName {
		return &types.GrammarError{Pos: name.pos, Msg: fmt.Sprintf("expected rule or terminal name, found %s", name)}
	}
	if sep := p.next(); sep.kind != tkColon {
		return &types.GrammarError{Pos: sep.pos, Msg: fmt.Sprintf("expected \":\" after %s", name.text)}
	}

	expr, err := p.parseAlternation()
	if err != nil {
		return err
	}
	if !p.done() {
		t := p.peek()
		return &types.GrammarError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s after expansion of %s", t, name.text)}
	}

	if isTerminalName(name.text) {
		if _, dup := g.Terminals[name.text]; dup {
			return &types.GrammarError{Pos: name.pos, Msg: fmt.Sprintf("terminal %s defined twice", name.text)}
		}
		g.Terminals[name.text] = &Terminal{Name: name.text, Expr: expr, Pos: name.pos}
		g.TermOrder = append(g.TermOrder, name.text)
		return nil
	}

	if _, dup := g.Rules[name.text]; dup {
		return &types.GrammarError{Pos: name.pos, Msg: fmt.Sprintf("rule %s defined twice", name.text)}
	}
	g.Rules[name.text] = &Rule{Name: name.text, Expr: expr, Pos: name.pos}
	g.RuleOrder = append(g.RuleOrder, name.text)
	return nil
}

func (g *Grammar) addDirective(p *defParser) error {
	dir := p.next()
	switch dir.text {
	case "%ignore":
		expr, err := p.parseItem()
		if err != nil {
			return err
		}
		if !p.done() {
			t := p.peek()
			return &types.GrammarError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s after %%ignore pattern", t)}
		}
		g.Ignore = append(g.Ignore, expr)
		return nil
	default:
		return &types.GrammarError{Pos: dir.pos, Msg: fmt.Sprintf("unknown directive %s", dir.text)}
	}
}

// defParser is a recursive-descent parser over one definition's tokens.
type defParser struct {
	toks []token
	pos  int
}

func (p *defParser) done() bool { return p.pos >= len(p.toks) }

func (p *defParser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *defParser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *defParser) endPos() types.Position {
	if len(p.toks) == 0 {
		return types.Position{}
	}
	last := p.toks[len(p.toks)-1]
	return types.Position{Line: last.pos.Line, Column: last.pos.Column + len(last.text)}
}

// alternation: sequence ("|" sequence)*
func (p *defParser) parseAlternation() (Expr, error) {
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	alts := []Expr{first}
	for !p.done() && p.peek().kind == tkPipe {
		p.next()
		seq, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		alts = append(alts, seq)
	}
	if len(alts) == 1 {
		return first, nil
	}
	return &Alt{Alts: alts}, nil
}

// sequence: item+
func (p *defParser) parseSequence() (Expr, error) {
	var items []Expr
	for !p.done() {
		if k := p.peek().kind; k == tkPipe || k == tkRParen {
			break
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, &types.GrammarError{Pos: p.endPos(), Msg: "empty expansion"}
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &Seq{Items: items}, nil
}

// item: atom ("*" | "+" | "?")?
func (p *defParser) parseItem() (Expr, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	switch p.peek().kind {
	case tkStar:
		p.next()
		return &Rep{Expr: atom, Min: 0, Max: Unbounded}, nil
	case tkPlus:
		p.next()
		return &Rep{Expr: atom, Min: 1, Max: Unbounded}, nil
	case tkQMark:
		p.next()
		return &Rep{Expr: atom, Min: 0, Max: 1}, nil
	}
	return atom, nil
}

// atom: STRING | REGEXP | NAME | "(" alternation ")"
func (p *defParser) parseAtom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tkString:
		if t.text == "" {
			return nil, &types.GrammarError{Pos: t.pos, Msg: "empty string literal"}
		}
		return &Lit{Value: t.text}, nil
	case tkRegexp:
		return compileRx(t.text, t.pos)
	case tkName:
		return &Ref{Name: t.text}, nil
	case tkLParen:
		inner, err := p.parseAlternation()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tkRParen {
			return nil, &types.GrammarError{Pos: t.pos, Msg: "unclosed group"}
		}
		return inner, nil
	default:
		return nil, &types.GrammarError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s in expansion", t)}
	}
}

// validate checks cross-definition consistency: every reference resolves,
// and terminal expansions stay within the terminal layer.
func (g *Grammar) validate() error {
	if len(g.Rules) == 0 {
		return &types.GrammarError{Msg: "grammar defines no rules"}
	}
	for _, name := range g.RuleOrder {
		if err := g.checkRefs(g.Rules[name].Expr, g.Rules[name].Pos, false); err != nil {
			return err
		}
	}
	for _, name := range g.TermOrder {
		if err := g.checkRefs(g.Terminals[name].Expr, g.Terminals[name].Pos, true); err != nil {
			return err
		}
	}
	for _, expr := range g.Ignore {
		if err := g.checkRefs(expr, types.Position{}, true); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grammar) checkRefs(e Expr, pos types.Position, terminalOnly bool) error {
	switch e := e.(type) {
	case *Seq:
		for _, item := range e.Items {
			if err := g.checkRefs(item, pos, terminalOnly); err != nil {
				return err
			}
		}
	case *Alt:
		for _, alt := range e.Alts {
			if err := g.checkRefs(alt, pos, terminalOnly); err != nil {
				return err
			}
		}
	case *Rep:
		return g.checkRefs(e.Expr, pos, terminalOnly)
	case *Ref:
		if e.IsTerminal() {
			if _, ok := g.Terminals[e.Name]; !ok {
				return &types.GrammarError{Pos: pos, Msg: fmt.Sprintf("reference to undefined terminal %s", e.Name)}
			}
			return nil
		}
		if terminalOnly {
			return &types.GrammarError{Pos: pos, Msg: fmt.Sprintf("terminal definitions may not reference rule %s", e.Name)}
		}
		if _, ok := g.Rules[e.Name]; !ok {
			return &types.GrammarError{Pos: pos, Msg: fmt.Sprintf("reference to undefined rule %s", e.Name)}
		}
	}
	return nil
}
