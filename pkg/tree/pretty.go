package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintOptions controls the pretty renderer.
type PrintOptions struct {
	Indent string // per-level indentation, default two spaces
	Color  bool   // colorize rule names and token values
}

var (
	ruleColor  = color.New(color.FgCyan)
	tokenColor = color.New(color.FgGreen)
)

// Pretty renders the tree in the indented one-node-per-line form:
// rule names on their own lines, token values indented beneath them.
func (t *Tree) Pretty() string {
	var b strings.Builder
	Fprint(&b, t, PrintOptions{})
	return b.String()
}

// Fprint writes the pretty rendition of n to w.
func Fprint(w io.Writer, n Node, opts PrintOptions) {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	fprint(w, n, 0, opts)
}

func fprint(w io.Writer, n Node, depth int, opts PrintOptions) {
	prefix := strings.Repeat(opts.Indent, depth)
	switch n := n.(type) {
	case *Tree:
		fmt.Fprintf(w, "%s%s\n", prefix, paint(ruleColor, n.Rule, opts.Color))
		for _, c := range n.Children {
			fprint(w, c, depth+1, opts)
		}
	case Token:
		val := n.Value
		if strings.ContainsAny(val, "\n\t") {
			val = fmt.Sprintf("%q", val)
		}
		fmt.Fprintf(w, "%s%s\n", prefix, paint(tokenColor, val, opts.Color))
	}
}

func paint(c *color.Color, s string, enabled bool) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}
