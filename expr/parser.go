package expr

import (
	"fmt"
	"math"
)

type tokenStream struct {
	src    string
	tokens []token
	pos    int
}

func (s *tokenStream) peek() token {
	return s.tokens[s.pos]
}

func (s *tokenStream) next() token {
	t := s.tokens[s.pos]
	if t.kind != tokenEOF {
		s.pos++
	}
	return t
}

func (s *tokenStream) match(puncts ...string) (string, bool) {
	t := s.peek()
	for _, p := range puncts {
		if t.is(p) {
			s.pos++
			return p, true
		}
	}
	return "", false
}

func (s *tokenStream) expect(punct string) error {
	if _, ok := s.match(punct); !ok {
		return s.errorf("expected %q", punct)
	}
	return nil
}

func (s *tokenStream) errorf(format string, args ...any) error {
	t := s.peek()
	msg := fmt.Sprintf(format, args...)
	if t.kind == tokenEOF {
		msg += ", found end of input"
	} else {
		msg += fmt.Sprintf(", found %q", t.raw)
	}
	return &SyntaxError{Src: s.src, Pos: t.pos, Msg: msg}
}

func parseExpression(src string, tokens []token) (node, error) {
	stream := &tokenStream{src: src, tokens: tokens}
	n, err := parseTernary(stream)
	if err != nil {
		return nil, err
	}
	if stream.peek().kind != tokenEOF {
		return nil, stream.errorf("unexpected token")
	}
	return n, nil
}

func parseStatements(src string, tokens []token) ([]node, error) {
	stream := &tokenStream{src: src, tokens: tokens}
	var stmts []node
	for {
		for {
			if _, ok := stream.match(";"); !ok {
				break
			}
		}
		if stream.peek().kind == tokenEOF {
			return stmts, nil
		}
		stmt, err := parseStatement(stream)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if stream.peek().kind != tokenEOF && !stream.peek().is(";") {
			return nil, stream.errorf("expected \";\"")
		}
	}
}

func parseStatement(s *tokenStream) (node, error) {
	if op, ok := s.match("++", "--"); ok {
		target, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		if !isAssignable(target) {
			return nil, &SyntaxError{Src: s.src, Pos: s.peek().pos, Msg: "invalid increment target"}
		}
		return &updateNode{op: op, target: target, prefix: true}, nil
	}

	start := s.peek().pos
	lhs, err := parseTernary(s)
	if err != nil {
		return nil, err
	}
	if op, ok := s.match("=", "+=", "-=", "*=", "/="); ok {
		if !isAssignable(lhs) {
			return nil, &SyntaxError{Src: s.src, Pos: start, Msg: "invalid assignment target"}
		}
		rhs, err := parseStatement(s)
		if err != nil {
			return nil, err
		}
		return &assignNode{op: op, target: lhs, value: rhs}, nil
	}
	if op, ok := s.match("++", "--"); ok {
		if !isAssignable(lhs) {
			return nil, &SyntaxError{Src: s.src, Pos: start, Msg: "invalid increment target"}
		}
		return &updateNode{op: op, target: lhs}, nil
	}
	return lhs, nil
}

func isAssignable(n node) bool {
	switch n.(type) {
	case *identNode, *memberNode, *indexNode:
		return true
	default:
		return false
	}
}

func parseTernary(s *tokenStream) (node, error) {
	test, err := parseOr(s)
	if err != nil {
		return nil, err
	}
	if _, ok := s.match("?"); !ok {
		return test, nil
	}
	yes, err := parseTernary(s)
	if err != nil {
		return nil, err
	}
	if err := s.expect(":"); err != nil {
		return nil, err
	}
	no, err := parseTernary(s)
	if err != nil {
		return nil, err
	}
	return &condNode{test: test, yes: yes, no: no}, nil
}

func parseOr(s *tokenStream) (node, error) {
	left, err := parseAnd(s)
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := s.match("||"); !ok {
			return left, nil
		}
		right, err := parseAnd(s)
		if err != nil {
			return nil, err
		}
		left = &logicalNode{or: true, left: left, right: right}
	}
}

func parseAnd(s *tokenStream) (node, error) {
	left, err := parseEquality(s)
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := s.match("&&"); !ok {
			return left, nil
		}
		right, err := parseEquality(s)
		if err != nil {
			return nil, err
		}
		left = &logicalNode{left: left, right: right}
	}
}

// binaryLevel parses one left-associative precedence level.
func binaryLevel(s *tokenStream, next func(*tokenStream) (node, error), ops ...string) (node, error) {
	left, err := next(s)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := s.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := next(s)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func parseEquality(s *tokenStream) (node, error) {
	return binaryLevel(s, parseRelational, "===", "!==", "==", "!=")
}

func parseRelational(s *tokenStream) (node, error) {
	return binaryLevel(s, parseAdditive, "<=", ">=", "<", ">")
}

func parseAdditive(s *tokenStream) (node, error) {
	return binaryLevel(s, parseMultiplicative, "+", "-")
}

func parseMultiplicative(s *tokenStream) (node, error) {
	return binaryLevel(s, parseUnary, "*", "/", "%")
}

func parseUnary(s *tokenStream) (node, error) {
	if op, ok := s.match("!", "-", "+"); ok {
		x, err := parseUnary(s)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, x: x}, nil
	}
	return parsePostfix(s)
}

func parsePostfix(s *tokenStream) (node, error) {
	n, err := parsePrimary(s)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case s.peek().is("."):
			s.next()
			if s.peek().kind != tokenIdentifier {
				return nil, s.errorf("expected property name")
			}
			n = &memberNode{obj: n, name: s.next().raw}
		case s.peek().is("["):
			s.next()
			key, err := parseTernary(s)
			if err != nil {
				return nil, err
			}
			if err := s.expect("]"); err != nil {
				return nil, err
			}
			n = &indexNode{obj: n, key: key}
		case s.peek().is("("):
			s.next()
			var args []node
			if _, ok := s.match(")"); !ok {
				for {
					arg, err := parseTernary(s)
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if _, ok := s.match(","); ok {
						continue
					}
					if err := s.expect(")"); err != nil {
						return nil, err
					}
					break
				}
			}
			n = &callNode{fn: n, args: args}
		default:
			return n, nil
		}
	}
}

func parsePrimary(s *tokenStream) (node, error) {
	t := s.peek()
	switch t.kind {
	case tokenNumber:
		s.next()
		if t.num == math.Trunc(t.num) && math.Abs(t.num) < 1<<53 {
			return &literalNode{value: int(t.num)}, nil
		}
		return &literalNode{value: t.num}, nil
	case tokenString:
		s.next()
		return &literalNode{value: t.raw}, nil
	case tokenIdentifier:
		s.next()
		switch t.raw {
		case "true":
			return &literalNode{value: true}, nil
		case "false":
			return &literalNode{value: false}, nil
		case "null", "nil", "undefined":
			return &literalNode{value: nil}, nil
		}
		return &identNode{name: t.raw}, nil
	case tokenPunct:
		if t.is("(") {
			s.next()
			n, err := parseTernary(s)
			if err != nil {
				return nil, err
			}
			if err := s.expect(")"); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, s.errorf("expected expression")
}
