package view

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/delaneyj/stitch/expr"
	"github.com/delaneyj/stitch/host"
	"github.com/delaneyj/stitch/markup"
	"github.com/delaneyj/stitch/signals"
)

// mountChain mounts a v-if / v-else-if / v-else chain. Exactly one member,
// or a placeholder when none matches, occupies the chain's slot.
func (b *binder) mountChain(sc *scope, members []*markup.Element, parent, ref host.Node) *slot {
	placeholder := b.tree.CreatePlaceholder()
	b.tree.InsertBefore(parent, placeholder, ref)
	s := &slot{node: placeholder}

	// branches are owned by holder so a re-run of the chain effect that
	// keeps the same branch leaves it alone
	holder := signals.NewScope(b.rs)
	current := -1
	var branch *signals.Scope

	_ = holder.Run(func() error {
		b.effect("v-if", func() {
			idx := -1
			for i, m := range members {
				d := m.Conditional()
				if d.Kind == markup.DirectiveElse || expr.Truthy(b.eval(sc, d.Name, d.X)) {
					idx = i
					break
				}
			}
			if idx == current {
				return
			}
			current = idx

			if branch != nil {
				branch.Dispose()
				branch = nil
			}
			next := placeholder
			if idx >= 0 {
				_ = holder.Run(func() error {
					branch = signals.NewScope(b.rs)
					return branch.Run(func() error {
						next = b.createElement(sc, members[idx])
						return nil
					})
				})
			}
			if p := b.tree.Parent(s.node); p != nil {
				b.tree.ReplaceChild(p, next, s.node)
			}
			s.node = next
		})
		return nil
	})
	return s
}

type entry struct {
	value any
	index any
}

type block struct {
	key   any
	hash  uint64
	item  *signals.WriteableSignal[any]
	index *signals.WriteableSignal[any]
	scope *signals.Scope
	slot  *slot
}

type loop struct {
	b      *binder
	sc     *scope
	el     *markup.Element
	d      *markup.Directive
	key    *markup.Directive
	parent host.Node
	end    host.Node
	holder *signals.Scope

	src    any
	blocks []*block
}

// mountLoop mounts a v-for element. Blocks live before an end placeholder
// and are reconciled by :key when present, by position otherwise.
func (b *binder) mountLoop(sc *scope, el *markup.Element, d *markup.Directive, parent, ref host.Node) {
	l := &loop{
		b:      b,
		sc:     sc,
		el:     el,
		d:      d,
		key:    el.Directive(markup.DirectiveKey),
		parent: parent,
		end:    b.tree.CreatePlaceholder(),
		holder: signals.NewScope(b.rs),
	}
	b.tree.InsertBefore(parent, l.end, ref)

	_ = l.holder.Run(func() error {
		b.effect(d.Name, l.update)
		return nil
	})
}

func (l *loop) update() {
	l.src = l.b.eval(l.sc, l.d.Name, l.d.X)
	entries := l.entries(l.src)
	if l.key != nil {
		l.reconcileKeyed(entries)
		return
	}
	l.reconcile(entries)
}

// entries lists what to iterate: observed lists and plain slices by
// position, observed objects and maps by key, and an integer n as 1..n.
func (l *loop) entries(src any) []entry {
	var out []entry
	switch x := src.(type) {
	case nil:
		return nil
	case *signals.List:
		n := x.Len()
		out = make([]entry, n)
		for i := range out {
			out[i] = entry{value: x.At(i), index: i}
		}
	case *signals.Object:
		for _, k := range x.Keys() {
			out = append(out, entry{value: x.Get(k), index: k})
		}
	case []any:
		out = make([]entry, len(x))
		for i, v := range x {
			out[i] = entry{value: v, index: i}
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, entry{value: x[k], index: k})
		}
	case int:
		out = rangeEntries(x)
	case float64:
		if x != math.Trunc(x) {
			l.invalid(src)
			return nil
		}
		out = rangeEntries(int(x))
	default:
		rv := reflect.ValueOf(src)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			l.invalid(src)
			return nil
		}
		out = make([]entry, rv.Len())
		for i := range out {
			out[i] = entry{value: rv.Index(i).Interface(), index: i}
		}
	}
	return out
}

func rangeEntries(n int) []entry {
	if n <= 0 {
		return nil
	}
	out := make([]entry, n)
	for i := range out {
		out[i] = entry{value: i + 1, index: i}
	}
	return out
}

func (l *loop) invalid(src any) {
	l.b.inst.report(Diagnostic{
		Directive: l.d.Name,
		Expr:      l.d.X.String(),
		Err:       fmt.Errorf("cannot iterate over %T", src),
	})
}

func (l *loop) reconcile(entries []entry) {
	for i, e := range entries {
		if i < len(l.blocks) {
			blk := l.blocks[i]
			blk.item.SetValue(e.value)
			blk.index.SetValue(e.index)
			continue
		}
		l.blocks = append(l.blocks, l.newBlock(e, l.end))
	}
	for _, blk := range l.blocks[len(entries):] {
		l.removeBlock(blk)
	}
	l.blocks = l.blocks[:len(entries)]
}

func (l *loop) reconcileKeyed(entries []entry) {
	old := make(map[uint64][]*block, len(l.blocks))
	for _, blk := range l.blocks {
		old[blk.hash] = append(old[blk.hash], blk)
	}

	next := make([]*block, len(entries))
	keys := make([]any, len(entries))
	hashes := make([]uint64, len(entries))
	seen := make(map[uint64][]any, len(entries))
	for i, e := range entries {
		k := l.keyOf(e)
		h := hashKey(k)
		keys[i], hashes[i] = k, h

		for _, prev := range seen[h] {
			if expr.Equal(prev, k) {
				l.b.inst.report(Diagnostic{
					Directive: l.key.Name,
					Expr:      l.key.X.String(),
					Err:       fmt.Errorf("duplicate key %s", expr.Stringify(k)),
				})
				break
			}
		}
		seen[h] = append(seen[h], k)

		if blk := take(old, h, k); blk != nil {
			blk.item.SetValue(e.value)
			blk.index.SetValue(e.index)
			next[i] = blk
		}
	}

	for _, bucket := range old {
		for _, blk := range bucket {
			l.removeBlock(blk)
		}
	}

	// place blocks back to front so every block only needs the already
	// positioned one after it
	ref := l.end
	for i := len(entries) - 1; i >= 0; i-- {
		blk := next[i]
		switch {
		case blk == nil:
			blk = l.newBlock(entries[i], ref)
			blk.key, blk.hash = keys[i], hashes[i]
			next[i] = blk
		case l.b.tree.NextSibling(blk.slot.node) != ref:
			l.b.tree.InsertBefore(l.parent, blk.slot.node, ref)
		}
		ref = blk.slot.node
	}
	l.blocks = next
}

func (l *loop) keyOf(e entry) any {
	names := map[string]variable{
		l.d.Item: {get: func() any { return e.value }},
	}
	if l.d.Index != "" {
		names[l.d.Index] = variable{get: func() any { return e.index }}
	}
	return l.b.eval(l.sc.child(names), l.key.Name, l.key.X)
}

// hashKey buckets scalar keys; everything else shares bucket 0 and is told
// apart by expr.Equal. Numbers hash by value so 1 and 1.0 share a bucket.
func hashKey(k any) uint64 {
	if f, ok := expr.AsFloat(k); ok {
		return xxhash.Sum64String("n:" + strconv.FormatFloat(f, 'g', -1, 64))
	}
	switch v := k.(type) {
	case string:
		return xxhash.Sum64String("s:" + v)
	case bool:
		return xxhash.Sum64String("b:" + strconv.FormatBool(v))
	}
	return 0
}

func take(old map[uint64][]*block, h uint64, k any) *block {
	bucket := old[h]
	for j, blk := range bucket {
		if expr.Equal(blk.key, k) {
			old[h] = append(bucket[:j], bucket[j+1:]...)
			return blk
		}
	}
	return nil
}

func (l *loop) newBlock(e entry, ref host.Node) *block {
	rs := l.b.rs
	blk := &block{}
	_ = l.holder.Run(func() error {
		blk.scope = signals.NewScope(rs)
		return blk.scope.Run(func() error {
			blk.item = signals.AnySignal(rs, e.value)
			blk.index = signals.AnySignal(rs, e.index)

			names := map[string]variable{
				l.d.Item: {get: blk.item.Value, set: l.writeBack(blk)},
			}
			if l.d.Index != "" {
				names[l.d.Index] = variable{get: blk.index.Value}
			}
			blk.slot = l.b.mountSlot(l.sc.child(names), l.el, l.parent, ref)
			return nil
		})
	})
	return blk
}

// writeBack assigns through a loop item to the observed source.
func (l *loop) writeBack(blk *block) func(any) error {
	return func(v any) error {
		switch src := l.src.(type) {
		case *signals.List:
			if i, ok := blk.index.Peek().(int); ok {
				src.Set(i, v)
				return nil
			}
		case *signals.Object:
			if k, ok := blk.index.Peek().(string); ok {
				src.Set(k, v)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", expr.ErrNotAssignable, l.d.Item)
	}
}

func (l *loop) removeBlock(blk *block) {
	blk.scope.Dispose()
	l.b.tree.RemoveChild(l.parent, blk.slot.node)
}
