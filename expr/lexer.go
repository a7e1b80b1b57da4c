package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdentifier
	tokenNumber
	tokenString
	tokenPunct
)

type token struct {
	kind tokenKind
	raw  string
	num  float64
	pos  int
}

func (t token) is(punct string) bool {
	return t.kind == tokenPunct && t.raw == punct
}

// punctuators, longest first so the scanner can match greedily
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"(", ")", "[", "]", ".", ",", "?", ":", ";",
	"!", "+", "-", "*", "/", "%", "<", ">", "=",
}

// SyntaxError reports where an expression failed to parse.
type SyntaxError struct {
	Src string
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expr: %s at offset %d in %q", e.Msg, e.Pos, e.Src)
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
			continue

		case ch == '"' || ch == '\'' || ch == '`':
			start := i
			quote := ch
			i++
			var sb strings.Builder
			closed := false
			for i < len(input) {
				c := input[i]
				if c == '\\' && i+1 < len(input) {
					switch esc := input[i+1]; esc {
					case 'n':
						sb.WriteByte('\n')
					case 't':
						sb.WriteByte('\t')
					case 'r':
						sb.WriteByte('\r')
					default:
						sb.WriteByte(esc)
					}
					i += 2
					continue
				}
				i++
				if c == quote {
					closed = true
					break
				}
				sb.WriteByte(c)
			}
			if !closed {
				return nil, &SyntaxError{Src: input, Pos: start, Msg: "unterminated string literal"}
			}
			tokens = append(tokens, token{kind: tokenString, raw: sb.String(), pos: start})
			continue

		case isDigit(ch) || (ch == '.' && i+1 < len(input) && isDigit(input[i+1])):
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.' || input[i] == '_' ||
				input[i] == 'e' || input[i] == 'E' ||
				((input[i] == '+' || input[i] == '-') && (input[i-1] == 'e' || input[i-1] == 'E'))) {
				i++
			}
			raw := input[start:i]
			num, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64)
			if err != nil {
				return nil, &SyntaxError{Src: input, Pos: start, Msg: fmt.Sprintf("invalid number %q", raw)}
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: raw, num: num, pos: start})
			continue

		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdentifier, raw: input[start:i], pos: start})
			continue
		}

		matched := false
		for _, p := range punctuators {
			if strings.HasPrefix(input[i:], p) {
				tokens = append(tokens, token{kind: tokenPunct, raw: p, pos: i})
				i += len(p)
				matched = true
				break
			}
		}
		if !matched {
			return nil, &SyntaxError{Src: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})
	return tokens, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
