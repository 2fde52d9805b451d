// Package tree defines the parse tree produced by parsekit backends.
package tree

import (
	"encoding/json"
	"strings"

	"github.com/spetr/parsekit/pkg/types"
)

// Node is either a *Tree (interior rule node) or a Token (leaf).
type Node interface {
	// Text returns the concatenation of all leaf text under the node,
	// in left-to-right order.
	Text() string
}

// Token is a leaf node holding a literal span of source text.
type Token struct {
	Name  string         `json:"token"`
	Value string         `json:"value"`
	Pos   types.Position `json:"pos"`
}

func (t Token) Text() string { return t.Value }

// Tree is an interior node labeled with a grammar rule name.
type Tree struct {
	Rule     string
	Children []Node
}

func (t *Tree) Text() string {
	var b strings.Builder
	for _, c := range t.Children {
		b.WriteString(c.Text())
	}
	return b.String()
}

// Tokens returns all leaves under the tree in left-to-right order.
func (t *Tree) Tokens() []Token {
	var out []Token
	t.walk(func(n Node) {
		if tok, ok := n.(Token); ok {
			out = append(out, tok)
		}
	})
	return out
}

// NumNodes counts all nodes in the tree, the root included.
func (t *Tree) NumNodes() int {
	n := 0
	t.walk(func(Node) { n++ })
	return n
}

// Depth returns the maximum depth of the tree. A tree with only
// token children has depth 1.
func (t *Tree) Depth() int {
	max := 0
	for _, c := range t.Children {
		d := 0
		if sub, ok := c.(*Tree); ok {
			d = sub.Depth()
		}
		if d > max {
			max = d
		}
	}
	return max + 1
}

func (t *Tree) walk(fn func(Node)) {
	fn(t)
	for _, c := range t.Children {
		if sub, ok := c.(*Tree); ok {
			sub.walk(fn)
		} else {
			fn(c)
		}
	}
}

// MarshalJSON renders the tree as {"rule": ..., "children": [...]}.
// Token leaves marshal with their struct tags.
func (t *Tree) MarshalJSON() ([]byte, error) {
	type node struct {
		Rule     string            `json:"rule"`
		Children []json.RawMessage `json:"children"`
	}
	out := node{Rule: t.Rule, Children: make([]json.RawMessage, 0, len(t.Children))}
	for _, c := range t.Children {
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, raw)
	}
	return json.Marshal(out)
}
