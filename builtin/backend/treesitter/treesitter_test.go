package treesitter

import (
	"errors"
	"testing"

	"github.com/spetr/parsekit/pkg/types"
)

func TestCompileUnknownLanguage(t *testing.T) {
	_, err := New(Config{Language: "cobol"}).Compile("")
	if err == nil {
		t.Fatal("Compile succeeded, want error")
	}
	if !errors.Is(err, types.ErrGrammar) {
		t.Errorf("error does not match ErrGrammar: %v", err)
	}
}

func TestParseGo(t *testing.T) {
	p, err := New(Config{Language: "go"}).Compile("")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	root, err := p.Parse("package main\n\nfunc main() {}\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Rule != "source_file" {
		t.Errorf("root rule = %q, want %q", root.Rule, "source_file")
	}
	if root.NumNodes() < 5 {
		t.Errorf("NumNodes() = %d, want a populated tree", root.NumNodes())
	}

	toks := root.Tokens()
	if len(toks) == 0 || toks[0].Value != "package" {
		t.Errorf("first token = %v, want the package keyword", toks)
	}
}

func TestParseGoSyntaxError(t *testing.T) {
	p, err := New(Config{Language: "go"}).Compile("")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	_, perr := p.Parse("package main\n\nfunc (\n")
	if perr == nil {
		t.Fatal("Parse succeeded on malformed input, want syntax error")
	}
	if !errors.Is(perr, types.ErrSyntax) {
		t.Errorf("error does not match ErrSyntax: %v", perr)
	}
}

func TestScanBash(t *testing.T) {
	p, err := New(Config{Language: "bash"}).Compile("")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	toks, err := p.Scan("echo hello\n")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(toks) < 2 {
		t.Errorf("tokens = %v, want at least command and argument", toks)
	}
}
