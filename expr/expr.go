// Package expr compiles and evaluates the restricted expression language used
// inside template bindings.
//
// Expressions support literals, identifiers, member and index access, unary
// ! - +, arithmetic, comparisons, && || and the ternary operator. Calls are
// only allowed on values that are already callable (Func, Callable or a plain
// func). Statement lists, used by event bindings, additionally allow
// assignment (= += -= *= /=), ++ and -- separated by ';'. Nothing is ever
// compiled from a string at runtime.
package expr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotAssignable = errors.New("expr: not assignable")
	ErrNotCallable   = errors.New("expr: not callable")
	ErrUndefined     = errors.New("expr: undefined")
)

// Scope resolves identifiers during evaluation.
type Scope interface {
	Lookup(name string) (any, bool)
	Assign(name string, value any) error
}

// Func is the native callable signature.
type Func func(args ...any) (any, error)

// Callable lets arbitrary values participate in calls.
type Callable interface {
	Call(args ...any) (any, error)
}

// MapScope is a Scope over a plain map.
type MapScope map[string]any

func (m MapScope) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapScope) Assign(name string, value any) error {
	m[name] = value
	return nil
}

// Expr is a compiled single expression.
type Expr struct {
	src  string
	root node
}

func Compile(src string) (*Expr, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, &SyntaxError{Src: src, Msg: "empty expression"}
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parseExpression(trimmed, tokens)
	if err != nil {
		return nil, err
	}
	return &Expr{src: trimmed, root: root}, nil
}

func MustCompile(src string) *Expr {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) String() string {
	return e.src
}

func (e *Expr) Eval(scope Scope) (value any, err error) {
	defer recoverInto(&err)
	return e.root.eval(scope)
}

// Assignable reports whether the expression names a location
// (identifier, member or index).
func (e *Expr) Assignable() bool {
	return isAssignable(e.root)
}

// Assign writes value to the location the expression names.
func (e *Expr) Assign(scope Scope, value any) (err error) {
	defer recoverInto(&err)
	if !e.Assignable() {
		return fmt.Errorf("%w: %s", ErrNotAssignable, e.src)
	}
	return assignTo(scope, e.root, value)
}

// Program is a compiled ';' separated statement list.
type Program struct {
	src   string
	stmts []node
}

func CompileStatements(src string) (*Program, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, &SyntaxError{Src: src, Msg: "empty statement list"}
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	stmts, err := parseStatements(trimmed, tokens)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, &SyntaxError{Src: src, Msg: "empty statement list"}
	}
	return &Program{src: trimmed, stmts: stmts}, nil
}

func (p *Program) String() string {
	return p.src
}

// IsReference reports whether the program is a single identifier or member
// path, e.g. "increment" or "handlers.save". Event bindings call such a
// value with the event instead of discarding it.
func (p *Program) IsReference() bool {
	if len(p.stmts) != 1 {
		return false
	}
	return isAssignable(p.stmts[0])
}

// Exec runs every statement in order and returns the last value.
func (p *Program) Exec(scope Scope) (last any, err error) {
	defer recoverInto(&err)
	for _, stmt := range p.stmts {
		if last, err = stmt.eval(scope); err != nil {
			return nil, err
		}
	}
	return last, nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = fmt.Errorf("expr: panic: %w", e)
			return
		}
		*err = fmt.Errorf("expr: panic: %v", r)
	}
}
