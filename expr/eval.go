package expr

import (
	"fmt"
)

type node interface {
	eval(scope Scope) (any, error)
}

type literalNode struct {
	value any
}

func (n *literalNode) eval(Scope) (any, error) {
	return n.value, nil
}

type identNode struct {
	name string
}

func (n *identNode) eval(scope Scope) (any, error) {
	if scope != nil {
		if v, ok := scope.Lookup(n.name); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUndefined, n.name)
}

type memberNode struct {
	obj  node
	name string
}

func (n *memberNode) eval(scope Scope) (any, error) {
	obj, err := n.obj.eval(scope)
	if err != nil {
		return nil, err
	}
	return getMember(obj, n.name)
}

type indexNode struct {
	obj node
	key node
}

func (n *indexNode) eval(scope Scope) (any, error) {
	obj, err := n.obj.eval(scope)
	if err != nil {
		return nil, err
	}
	key, err := n.key.eval(scope)
	if err != nil {
		return nil, err
	}
	return getMember(obj, key)
}

type callNode struct {
	fn   node
	args []node
}

func (n *callNode) eval(scope Scope) (any, error) {
	fn, err := n.fn.eval(scope)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(n.args))
	for i, a := range n.args {
		if args[i], err = a.eval(scope); err != nil {
			return nil, err
		}
	}
	return Call(fn, args...)
}

type unaryNode struct {
	op string
	x  node
}

func (n *unaryNode) eval(scope Scope) (any, error) {
	x, err := n.x.eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !Truthy(x), nil
	case "-":
		num, ok := toNumber(x)
		if !ok {
			return nil, fmt.Errorf("expr: cannot negate %T", x)
		}
		if num.isInt {
			return -num.i, nil
		}
		return -num.f, nil
	default:
		if s, ok := x.(string); ok {
			if v, ok := ParseNumber(s); ok {
				return v, nil
			}
		}
		num, ok := toNumber(x)
		if !ok {
			return nil, fmt.Errorf("expr: cannot convert %T to number", x)
		}
		return num.value(), nil
	}
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) eval(scope Scope) (any, error) {
	l, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(scope)
	if err != nil {
		return nil, err
	}
	return applyBinary(n.op, l, r)
}

type logicalNode struct {
	or          bool
	left, right node
}

func (n *logicalNode) eval(scope Scope) (any, error) {
	l, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	if Truthy(l) == n.or {
		return l, nil
	}
	return n.right.eval(scope)
}

type condNode struct {
	test, yes, no node
}

func (n *condNode) eval(scope Scope) (any, error) {
	test, err := n.test.eval(scope)
	if err != nil {
		return nil, err
	}
	if Truthy(test) {
		return n.yes.eval(scope)
	}
	return n.no.eval(scope)
}

type assignNode struct {
	op     string
	target node
	value  node
}

func (n *assignNode) eval(scope Scope) (any, error) {
	v, err := n.value.eval(scope)
	if err != nil {
		return nil, err
	}
	if n.op != "=" {
		cur, err := n.target.eval(scope)
		if err != nil {
			return nil, err
		}
		if v, err = applyBinary(n.op[:1], cur, v); err != nil {
			return nil, err
		}
	}
	if err := assignTo(scope, n.target, v); err != nil {
		return nil, err
	}
	return v, nil
}

type updateNode struct {
	op     string
	target node
	prefix bool
}

func (n *updateNode) eval(scope Scope) (any, error) {
	cur, err := n.target.eval(scope)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = 0
	}
	next, err := applyBinary(n.op[:1], cur, 1)
	if err != nil {
		return nil, err
	}
	if err := assignTo(scope, n.target, next); err != nil {
		return nil, err
	}
	if n.prefix {
		return next, nil
	}
	return cur, nil
}

func assignTo(scope Scope, target node, value any) error {
	switch t := target.(type) {
	case *identNode:
		if scope == nil {
			return fmt.Errorf("%w: %s", ErrNotAssignable, t.name)
		}
		return scope.Assign(t.name, value)
	case *memberNode:
		obj, err := t.obj.eval(scope)
		if err != nil {
			return err
		}
		return setMember(obj, t.name, value)
	case *indexNode:
		obj, err := t.obj.eval(scope)
		if err != nil {
			return err
		}
		key, err := t.key.eval(scope)
		if err != nil {
			return err
		}
		return setMember(obj, key, value)
	default:
		return ErrNotAssignable
	}
}
