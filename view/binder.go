package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/delaneyj/stitch/expr"
	"github.com/delaneyj/stitch/host"
	"github.com/delaneyj/stitch/markup"
	"github.com/delaneyj/stitch/signals"
)

type binder struct {
	inst *Instance
	tree host.Tree
	rs   *signals.ReactiveSystem
}

// slot is a position holding exactly one host node that a conditional may
// swap out.
type slot struct {
	node host.Node
}

// effect installs fn as a binding effect, converting panics into
// diagnostics.
func (b *binder) effect(label string, fn func()) {
	signals.Effect(b.rs, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				b.inst.report(Diagnostic{Directive: label, Err: fmt.Errorf("panic: %v", r)})
			}
		}()
		fn()
		return nil
	})
}

func (b *binder) eval(sc *scope, label string, x *expr.Expr) any {
	v, err := x.Eval(sc)
	if err != nil {
		b.inst.report(Diagnostic{Directive: label, Expr: x.String(), Err: err})
		return nil
	}
	return v
}

// mountChildren inserts nodes before ref under parent, a nil ref appending.
func (b *binder) mountChildren(sc *scope, nodes []markup.Node, parent, ref host.Node) {
	for i := 0; i < len(nodes); i++ {
		switch n := nodes[i].(type) {
		case *markup.Text:
			b.tree.InsertBefore(parent, b.tree.CreateText(n.Value), ref)

		case *markup.Expr:
			b.bindText(sc, parent, ref, []markup.Part{{X: n.X}})

		case *markup.Interp:
			b.bindText(sc, parent, ref, n.Parts)

		case *markup.Element:
			if d := n.Directive(markup.DirectiveFor); d != nil {
				b.mountLoop(sc, n, d, parent, ref)
				continue
			}
			if d := n.Conditional(); d != nil && d.Kind == markup.DirectiveIf {
				chain := []*markup.Element{n}
				for i+1 < len(nodes) {
					next, ok := nodes[i+1].(*markup.Element)
					if !ok {
						break
					}
					nd := next.Conditional()
					if nd == nil || nd.Kind == markup.DirectiveIf || next.Directive(markup.DirectiveFor) != nil {
						break
					}
					chain = append(chain, next)
					i++
					if nd.Kind == markup.DirectiveElse {
						break
					}
				}
				b.mountChain(sc, chain, parent, ref)
				continue
			}
			b.tree.InsertBefore(parent, b.createElement(sc, n), ref)
		}
	}
}

// mountSlot mounts a single element, which may carry a v-if, as one slot.
func (b *binder) mountSlot(sc *scope, el *markup.Element, parent, ref host.Node) *slot {
	if d := el.Conditional(); d != nil && d.Kind == markup.DirectiveIf {
		return b.mountChain(sc, []*markup.Element{el}, parent, ref)
	}
	n := b.createElement(sc, el)
	b.tree.InsertBefore(parent, n, ref)
	return &slot{node: n}
}

// createElement builds el and its subtree, wiring every leaf binding.
// Structural directives are handled by the caller.
func (b *binder) createElement(sc *scope, el *markup.Element) host.Node {
	n := b.tree.CreateElement(el.Tag)
	for _, a := range el.Attrs {
		b.tree.SetAttribute(n, a.Name, a.Value)
	}

	hasText := false
	for _, d := range el.Directives {
		switch d.Kind {
		case markup.DirectiveBind:
			b.bindAttr(sc, n, d)
		case markup.DirectiveText:
			hasText = true
			b.bindContent(sc, n, d)
		case markup.DirectiveOn:
			b.bindEvent(sc, n, d)
		case markup.DirectiveModel:
			b.bindModel(sc, n, el, d)
		case markup.DirectiveFor, markup.DirectiveIf, markup.DirectiveElseIf,
			markup.DirectiveElse, markup.DirectiveKey:
		}
	}

	if !hasText {
		b.mountChildren(sc, el.Children, n, nil)
	}
	return n
}

func (b *binder) bindText(sc *scope, parent, ref host.Node, parts []markup.Part) {
	t := b.tree.CreateText("")
	b.tree.InsertBefore(parent, t, ref)

	last := ""
	b.effect("{{ }}", func() {
		var sb strings.Builder
		for _, p := range parts {
			if p.X == nil {
				sb.WriteString(p.Literal)
				continue
			}
			sb.WriteString(expr.Stringify(b.eval(sc, "{{ }}", p.X)))
		}
		if s := sb.String(); s != last {
			last = s
			b.tree.SetText(t, s)
		}
	})
}

func (b *binder) bindContent(sc *scope, n host.Node, d *markup.Directive) {
	last := ""
	b.effect(d.Name, func() {
		if s := expr.Stringify(b.eval(sc, d.Name, d.X)); s != last {
			last = s
			b.tree.SetText(n, s)
		}
	})
}

func (b *binder) bindAttr(sc *scope, n host.Node, d *markup.Directive) {
	var (
		present bool
		last    string
	)
	b.effect(d.Name, func() {
		v := b.eval(sc, d.Name, d.X)
		if d.Arg == "class" {
			v = classValue(v)
		}

		var s string
		want := true
		switch x := v.(type) {
		case nil:
			want = false
		case bool:
			want = x
		default:
			s = expr.Stringify(x)
		}

		switch {
		case !want && present:
			present = false
			b.tree.RemoveAttribute(n, d.Arg)
		case want && (!present || s != last):
			present, last = true, s
			b.tree.SetAttribute(n, d.Arg, s)
		}
		// the attribute is only the control's default; keep the live value too
		if d.Arg == "value" && want && b.tree.Value(n) != s {
			b.tree.SetValue(n, s)
		}
	})
}

// classValue flattens class objects and lists into a class string.
func classValue(v any) any {
	var names []string
	switch x := v.(type) {
	case *signals.Object:
		for _, k := range x.Keys() {
			if expr.Truthy(x.Get(k)) {
				names = append(names, k)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if expr.Truthy(x[k]) {
				names = append(names, k)
			}
		}
	case *signals.List:
		for i := 0; i < x.Len(); i++ {
			if s := expr.Stringify(classValue(x.At(i))); s != "" {
				names = append(names, s)
			}
		}
	case []any:
		for _, item := range x {
			if s := expr.Stringify(classValue(item)); s != "" {
				names = append(names, s)
			}
		}
	default:
		return v
	}
	return strings.Join(names, " ")
}

func (b *binder) bindEvent(sc *scope, n host.Node, d *markup.Directive) {
	var remove func()
	off := b.tree.AddEventListener(n, d.Arg, func(ev *host.Event) {
		if d.HasModifier("self") && ev.Target != ev.CurrentTarget {
			return
		}
		if d.HasModifier("prevent") {
			ev.PreventDefault()
		}
		if d.HasModifier("stop") {
			ev.StopPropagation()
		}
		if d.HasModifier("once") {
			remove()
		}
		if d.Handler == nil {
			return
		}
		b.rs.Batch(func() {
			b.runHandler(sc.with("$event", ev), d, ev)
		})
	})
	removed := false
	remove = func() {
		if !removed {
			removed = true
			off()
		}
	}
	signals.OnCleanup(b.rs, remove)
}

func (b *binder) runHandler(sc *scope, d *markup.Directive, ev *host.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.inst.report(Diagnostic{Directive: d.Name, Expr: d.Source, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	v, err := d.Handler.Exec(sc)
	if err == nil && d.Handler.IsReference() {
		_, err = expr.Call(v, ev)
	}
	if err != nil {
		b.inst.report(Diagnostic{Directive: d.Name, Expr: d.Source, Err: err})
	}
}

func (b *binder) bindModel(sc *scope, n host.Node, el *markup.Element, d *markup.Directive) {
	b.effect(d.Name, func() {
		s := expr.Stringify(b.eval(sc, d.Name, d.X))
		if b.tree.Value(n) != s {
			b.tree.SetValue(n, s)
		}
	})

	numeric := d.HasModifier("number")
	for _, a := range el.Attrs {
		if a.Name == "type" && a.Value == "number" {
			numeric = true
		}
	}
	eventType := "input"
	if d.HasModifier("lazy") || el.Tag == "select" {
		eventType = "change"
	}

	remove := b.tree.AddEventListener(n, eventType, func(ev *host.Event) {
		raw := ev.Value
		if raw == "" {
			raw = b.tree.Value(n)
		}
		if d.HasModifier("trim") {
			raw = strings.TrimSpace(raw)
		}
		var next any = raw
		if numeric {
			if num, ok := expr.ParseNumber(raw); ok {
				next = num
			}
		}

		var cur any
		b.rs.Untrack(func() {
			cur, _ = d.X.Eval(sc)
		})
		if expr.Equal(cur, next) {
			return
		}
		b.rs.Batch(func() {
			if err := d.X.Assign(sc, next); err != nil {
				b.inst.report(Diagnostic{Directive: d.Name, Expr: d.Source, Err: err})
			}
		})
	})
	signals.OnCleanup(b.rs, remove)
}
