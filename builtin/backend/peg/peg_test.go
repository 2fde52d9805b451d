package peg

import (
	"errors"
	"strings"
	"testing"

	"github.com/spetr/parsekit/pkg/tree"
	"github.com/spetr/parsekit/pkg/types"
)

func compile(t *testing.T, grammarText string) *Parser {
	t.Helper()
	p, err := New(Config{}).Compile(grammarText)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p.(*Parser)
}

func TestParseRepeatedLiteral(t *testing.T) {
	// grammar: start: "a"+ with ignored blanks; input "a a a"
	// yields a root with exactly three "a" leaves.
	p := compile(t, "start: \"a\"+\n%ignore \" \"\n")

	root, err := p.Parse("a a a")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Rule != "start" {
		t.Errorf("root rule = %q, want %q", root.Rule, "start")
	}
	toks := root.Tokens()
	if len(toks) != 3 {
		t.Fatalf("leaves = %d, want 3", len(toks))
	}
	for i, tok := range toks {
		if tok.Value != "a" {
			t.Errorf("leaf %d = %q, want %q", i, tok.Value, "a")
		}
	}
}

func TestLeafConcatenationReconstructsInput(t *testing.T) {
	src := `start: pair+
pair: WORD "=" NUMBER
WORD: /[a-z]+/
NUMBER: /[0-9]+/
%ignore /\s+/
`
	p := compile(t, src)
	input := "x=1 y=22\nz=333"

	root, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := strings.NewReplacer(" ", "", "\n", "").Replace(input)
	if got := root.Text(); got != want {
		t.Errorf("leaf concatenation = %q, want %q", got, want)
	}
}

func TestRuleNodesNested(t *testing.T) {
	src := `start: pair
pair: WORD "=" WORD
WORD: /[a-z]+/
`
	p := compile(t, src)
	root, err := p.Parse("k=v")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children))
	}
	pair, ok := root.Children[0].(*tree.Tree)
	if !ok || pair.Rule != "pair" {
		t.Fatalf("child = %#v, want pair rule node", root.Children[0])
	}
	if len(pair.Children) != 3 {
		t.Errorf("pair children = %d, want 3", len(pair.Children))
	}
}

func TestArithmeticGrammar(t *testing.T) {
	src := `start: expr
expr: term (("+" | "-") term)*
term: factor (("*" | "/") factor)*
factor: NUMBER | "(" expr ")"
NUMBER: /[0-9]+(\.[0-9]+)?/
%ignore /\s+/
`
	p := compile(t, src)
	input := "1 + 2 * (3.5 - 4) / 5"
	root, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := strings.ReplaceAll(input, " ", "")
	if got := root.Text(); got != want {
		t.Errorf("leaf concatenation = %q, want %q", got, want)
	}
	if _, err := p.Parse("1 +"); err == nil {
		t.Error("Parse(\"1 +\") succeeded, want syntax error")
	}
}

func TestOrderedChoice(t *testing.T) {
	// "ab" must win over "a" because it is listed first.
	p := compile(t, `start: "ab" | "a" "b"`)
	root, err := p.Parse("ab")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(root.Children) != 1 {
		t.Errorf("children = %d, want 1 (first alternative)", len(root.Children))
	}
}

func TestOptionalAndStar(t *testing.T) {
	p := compile(t, `start: "a"? "b"*`)
	for _, input := range []string{"", "a", "bbb", "abb"} {
		if _, err := p.Parse(input); err != nil {
			t.Errorf("Parse(%q): %v", input, err)
		}
	}
	if _, err := p.Parse("c"); err == nil {
		t.Error("Parse(\"c\") succeeded, want syntax error")
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	src := `start: WORD "=" WORD
WORD: /[a-z]+/
`
	p := compile(t, src)
	_, err := p.Parse("key!value")
	if err == nil {
		t.Fatal("Parse succeeded, want syntax error")
	}
	if !errors.Is(err, types.ErrSyntax) {
		t.Errorf("error does not match ErrSyntax: %v", err)
	}
	var serr *types.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error is %T, want *types.SyntaxError", err)
	}
	if serr.Pos.Line != 1 || serr.Pos.Column != 4 {
		t.Errorf("error position = %d:%d, want 1:4", serr.Pos.Line, serr.Pos.Column)
	}
	if !contains(serr.Expected, `"="`) {
		t.Errorf("expected list = %v, want to include %q", serr.Expected, `"="`)
	}
}

func TestSyntaxErrorTrailingInput(t *testing.T) {
	p := compile(t, "start: \"a\"+\n%ignore \" \"\n")
	_, err := p.Parse("a a b")
	var serr *types.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *types.SyntaxError", err)
	}
	if serr.Got != "b" {
		t.Errorf("Got = %q, want %q", serr.Got, "b")
	}
	if !contains(serr.Expected, "end of input") {
		t.Errorf("expected list = %v, want to include end of input", serr.Expected)
	}
}

func TestSyntaxErrorUnexpectedEOF(t *testing.T) {
	p := compile(t, `start: "a" "b"`)
	_, err := p.Parse("a")
	var serr *types.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *types.SyntaxError", err)
	}
	if serr.Got != "" {
		t.Errorf("Got = %q, want empty (end of input)", serr.Got)
	}
	if !strings.Contains(serr.Error(), "end of input") {
		t.Errorf("message = %q, want end-of-input diagnostic", serr.Error())
	}
}

func TestNamedTerminalLeaves(t *testing.T) {
	src := `start: NUMBER+
NUMBER: /[0-9]+/
%ignore /\s+/
`
	p := compile(t, src)
	root, err := p.Parse("12 345")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	toks := root.Tokens()
	if len(toks) != 2 {
		t.Fatalf("leaves = %d, want 2", len(toks))
	}
	if toks[0].Name != "NUMBER" || toks[1].Value != "345" {
		t.Errorf("tokens = %v", toks)
	}
	if toks[1].Pos.Column != 4 {
		t.Errorf("second token column = %d, want 4", toks[1].Pos.Column)
	}
}

func TestParseIdempotent(t *testing.T) {
	src := `start: WORD+
WORD: /[a-z]+/
%ignore /\s+/
`
	p := compile(t, src)
	first, err := p.Parse("one two three")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := p.Parse("one two three")
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if first.Pretty() != second.Pretty() {
		t.Error("repeated Parse produced different trees")
	}
}

func TestLeftRecursionGuard(t *testing.T) {
	src := `start: expr
expr: expr "+" NUM | NUM
NUM: /[0-9]+/
`
	p := compile(t, src)
	// The left-recursive alternative cannot loop; the NUM alternative
	// still matches a plain number.
	root, err := p.Parse("7")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Text() != "7" {
		t.Errorf("Text() = %q, want %q", root.Text(), "7")
	}
	if _, err := p.Parse(""); err == nil {
		t.Error("Parse(\"\") succeeded, want syntax error")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		grammar string
	}{
		{"meta syntax", `start "a"`},
		{"missing start rule", "top: \"a\"\n"},
		{"undefined reference", `start: missing`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{}).Compile(tt.grammar)
			if err == nil {
				t.Fatal("Compile succeeded, want grammar error")
			}
			if !errors.Is(err, types.ErrGrammar) {
				t.Errorf("error does not match ErrGrammar: %v", err)
			}
		})
	}
}

func TestCompileCustomStart(t *testing.T) {
	b := New(Config{Start: "top"})
	p, err := b.Compile("top: \"x\"\n")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	root, err := p.Parse("x")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Rule != "top" {
		t.Errorf("root rule = %q, want %q", root.Rule, "top")
	}
}

func TestScan(t *testing.T) {
	src := `start: (WORD | NUMBER | "=")+
WORD: /[a-z]+/
NUMBER: /[0-9]+/
%ignore /\s+/
`
	p := compile(t, src)
	toks, err := p.Scan("abc = 42")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("tokens = %d, want 3", len(toks))
	}
	wantNames := []string{"WORD", `"="`, "NUMBER"}
	wantValues := []string{"abc", "=", "42"}
	for i := range toks {
		if toks[i].Name != wantNames[i] || toks[i].Value != wantValues[i] {
			t.Errorf("token %d = %s %q, want %s %q", i, toks[i].Name, toks[i].Value, wantNames[i], wantValues[i])
		}
	}
}

func TestScanLongestMatchWins(t *testing.T) {
	src := `start: IDENT+
IDENT: /[a-z_][a-z0-9_]*/
KEYWORD: "if"
%ignore /\s+/
`
	p := compile(t, src)
	toks, err := p.Scan("iffy")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(toks) != 1 || toks[0].Name != "IDENT" || toks[0].Value != "iffy" {
		t.Errorf("tokens = %v, want single IDENT \"iffy\"", toks)
	}
}

func TestScanError(t *testing.T) {
	src := `start: WORD+
WORD: /[a-z]+/
`
	p := compile(t, src)
	_, err := p.Scan("abc!")
	if err == nil {
		t.Fatal("Scan succeeded, want syntax error")
	}
	var serr *types.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *types.SyntaxError", err)
	}
	if serr.Pos.Column != 4 {
		t.Errorf("error column = %d, want 4", serr.Pos.Column)
	}
}
