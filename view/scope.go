package view

import (
	"fmt"

	"github.com/delaneyj/stitch/expr"
	"github.com/delaneyj/stitch/signals"
)

type variable struct {
	get func() any
	// set is nil for read-only names such as a loop index
	set func(any) error
}

// scope resolves names for expressions. Loop blocks and event handlers push
// children; the root falls through to the instance state.
type scope struct {
	parent *scope
	inst   *Instance
	names  map[string]variable
}

var _ expr.Scope = (*scope)(nil)

func (s *scope) child(names map[string]variable) *scope {
	return &scope{parent: s, inst: s.inst, names: names}
}

func (s *scope) with(name string, value any) *scope {
	return s.child(map[string]variable{
		name: {get: func() any { return value }},
	})
}

func (s *scope) Lookup(name string) (any, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.names[name]; ok {
			return v.get(), true
		}
	}

	state := s.inst.state
	if !state.Has(name) {
		return nil, false
	}
	return s.inst.bindHandler(state.Get(name)), true
}

func (s *scope) Assign(name string, value any) error {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.names[name]; ok {
			if v.set == nil {
				return fmt.Errorf("%w: %s", expr.ErrNotAssignable, name)
			}
			return v.set(value)
		}
	}
	s.inst.state.Set(name, value)
	return nil
}

// bindHandler turns state methods into callables bound to the state.
func (inst *Instance) bindHandler(v any) any {
	var h Handler
	switch fn := v.(type) {
	case Handler:
		h = fn
	case func(*signals.Object, ...any) any:
		h = fn
	default:
		return v
	}
	state := inst.state
	return expr.Func(func(args ...any) (any, error) {
		return h(state, args...), nil
	})
}
