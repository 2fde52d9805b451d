// Package treesitter implements a parsekit backend on top of
// Tree-sitter. It parses a fixed set of built-in languages without a
// grammar file and converts the Tree-sitter CST into parsekit trees.
package treesitter

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/spetr/parsekit/pkg/backend"
	"github.com/spetr/parsekit/pkg/tree"
	"github.com/spetr/parsekit/pkg/types"
)

// Config contains configuration for the Tree-sitter backend.
type Config struct {
	Language string // built-in language to parse
}

// Backend parses one of the built-in languages.
type Backend struct {
	language string
}

// New creates a new Tree-sitter backend.
func New(cfg Config) *Backend {
	return &Backend{language: cfg.Language}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "treesitter"
}

func getLanguage(lang string) *sitter.Language {
	switch lang {
	case "go":
		return golang.GetLanguage()
	case "python", "py":
		return python.GetLanguage()
	case "javascript", "js":
		return javascript.GetLanguage()
	case "bash", "sh", "shell":
		return bash.GetLanguage()
	}
	return nil
}

// Languages returns the built-in language names.
func Languages() []string {
	langs := []string{"go", "python", "javascript", "bash"}
	sort.Strings(langs)
	return langs
}

// Compile returns a parser for the configured language. The grammar
// text is unused: Tree-sitter grammars are compiled into the binary.
// An empty or unknown language is a grammar-class failure.
func (b *Backend) Compile(grammarText string) (backend.Parser, error) {
	lang := getLanguage(b.language)
	if lang == nil {
		return nil, &types.GrammarError{
			Msg: fmt.Sprintf("unknown tree-sitter language %q (built-in: %v)", b.language, Languages()),
		}
	}
	return &Parser{language: lang}, nil
}

// Parser parses source text for one Tree-sitter language.
type Parser struct {
	language *sitter.Language
}

// Parse runs Tree-sitter over source and converts the CST. Inputs the
// language grammar cannot derive yield a syntax error and no tree.
func (p *Parser) Parse(source string) (*tree.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.language)

	st, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer st.Close()

	root := st.RootNode()
	if root.HasError() {
		return nil, syntaxErrorFrom(root, source)
	}

	converted := convert(root, source)
	t, ok := converted.(*tree.Tree)
	if !ok {
		// single-token source: wrap the leaf under the root type
		t = &tree.Tree{Rule: root.Type(), Children: []tree.Node{converted}}
	}
	return t, nil
}

// Scan returns the leaves of the parse tree.
func (p *Parser) Scan(source string) ([]tree.Token, error) {
	t, err := p.Parse(source)
	if err != nil {
		return nil, err
	}
	return t.Tokens(), nil
}

func convert(n *sitter.Node, source string) tree.Node {
	count := int(n.ChildCount())
	if count == 0 {
		start := int(n.StartByte())
		return tree.Token{
			Name:  n.Type(),
			Value: source[start:int(n.EndByte())],
			Pos:   types.PositionAt(source, start),
		}
	}
	out := &tree.Tree{Rule: n.Type(), Children: make([]tree.Node, 0, count)}
	for i := 0; i < count; i++ {
		out.Children = append(out.Children, convert(n.Child(i), source))
	}
	return out
}

// syntaxErrorFrom locates the first error node and reports its position.
func syntaxErrorFrom(root *sitter.Node, source string) *types.SyntaxError {
	node := firstErrorNode(root)
	if node == nil {
		node = root
	}
	start := int(node.StartByte())
	got := ""
	if start < len(source) {
		end := int(node.EndByte())
		if end > start+10 {
			end = start + 10
		}
		got = source[start:end]
	}
	return &types.SyntaxError{
		Pos: types.PositionAt(source, start),
		Got: got,
	}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.HasError() {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}
