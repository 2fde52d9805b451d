package grammar

import (
	"fmt"
	"strings"

	"github.com/spetr/parsekit/pkg/types"
)

type tokenKind int

const (
	tkEOF tokenKind = iota // zero value, returned past the last token
	tkName
	tkColon
	tkPipe
	tkLParen
	tkRParen
	tkStar
	tkPlus
	tkQMark
	tkString
	tkRegexp
	tkDirective
)

type token struct {
	kind tokenKind
	text string // decoded value for strings, pattern for regexps
	pos  types.Position
}

func (t token) String() string {
	switch t.kind {
	case tkEOF:
		return "end of definition"
	case tkString:
		return fmt.Sprintf("%q", t.text)
	case tkRegexp:
		return "/" + t.text + "/"
	default:
		return t.text
	}
}

// scanLine tokenizes one physical grammar line. Comments and trailing
// whitespace are dropped; an empty slice means the line holds nothing.
func scanLine(line string, lineNo int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(line) {
		c := line[i]
		pos := types.Position{Line: lineNo, Column: i + 1, Offset: i}

		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return toks, nil
		case c == ':':
			toks = append(toks, token{tkColon, ":", pos})
			i++
		case c == '|':
			toks = append(toks, token{tkPipe, "|", pos})
			i++
		case c == '(':
			toks = append(toks, token{tkLParen, "(", pos})
			i++
		case c == ')':
			toks = append(toks, token{tkRParen, ")", pos})
			i++
		case c == '*':
			toks = append(toks, token{tkStar, "*", pos})
			i++
		case c == '+':
			toks = append(toks, token{tkPlus, "+", pos})
			i++
		case c == '?':
			toks = append(toks, token{tkQMark, "?", pos})
			i++
		case c == '"':
			val, next, err := scanString(line, i)
			if err != nil {
				return nil, &types.GrammarError{Pos: pos, Msg: err.Error()}
			}
			toks = append(toks, token{tkString, val, pos})
			i = next
		case c == '/':
			pat, next, err := scanRegexp(line, i)
			if err != nil {
				return nil, &types.GrammarError{Pos: pos, Msg: err.Error()}
			}
			toks = append(toks, token{tkRegexp, pat, pos})
			i = next
		case c == '%':
			j := i + 1
			for j < len(line) && isNameByte(line[j]) {
				j++
			}
			name := line[i:j]
			if name == "%" {
				return nil, &types.GrammarError{Pos: pos, Msg: "bare % without directive name"}
			}
			toks = append(toks, token{tkDirective, name, pos})
			i = j
		case isNameByte(c):
			j := i
			for j < len(line) && isNameByte(line[j]) {
				j++
			}
			toks = append(toks, token{tkName, line[i:j], pos})
			i = j
		default:
			return nil, &types.GrammarError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return toks, nil
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// scanString reads a double-quoted literal starting at line[start],
// decoding the escapes \\ \" \n \t \r. It returns the decoded value
// and the index just past the closing quote.
func scanString(line string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(line) {
		switch c := line[i]; c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(line) {
				return "", 0, fmt.Errorf("unterminated escape in string literal")
			}
			switch esc := line[i+1]; esc {
			case '\\', '"':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				return "", 0, fmt.Errorf("unknown escape \\%c in string literal", esc)
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

// scanRegexp reads a /.../ pattern starting at line[start]. Escaped
// slashes stay in the pattern with the backslash removed; every other
// escape is kept verbatim for the regexp engine.
func scanRegexp(line string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(line) {
		switch c := line[i]; c {
		case '/':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(line) {
				return "", 0, fmt.Errorf("unterminated escape in regular expression")
			}
			if line[i+1] == '/' {
				b.WriteByte('/')
			} else {
				b.WriteByte('\\')
				b.WriteByte(line[i+1])
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated regular expression")
}
