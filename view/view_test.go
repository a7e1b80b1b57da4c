package view_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/stitch/dom"
	"github.com/delaneyj/stitch/expr"
	"github.com/delaneyj/stitch/host"
	"github.com/delaneyj/stitch/markup"
	"github.com/delaneyj/stitch/signals"
	"github.com/delaneyj/stitch/view"
)

func TestCounterScenario(t *testing.T) {
	increment := view.Handler(func(s *signals.Object, args ...any) any {
		s.Set("count", s.Peek("count").(int)+1)
		return nil
	})
	doc, root, _ := mount(t,
		`<div><p>Count: {{ count }}</p><button @click="increment">+</button></div>`,
		map[string]any{"count": 0, "increment": increment},
	)

	p := dom.Find(root, "p")
	assert.Equal(t, "Count: 0", p.TextContent())

	button := dom.Find(root, "button")
	for i := 0; i < 3; i++ {
		doc.Click(button)
	}
	assert.Equal(t, "Count: 3", p.TextContent())
}

func TestInlineStatements(t *testing.T) {
	doc, root, inst := mount(t,
		`<div><button @click="count += step; clicks++">go</button><span>{{ count }}/{{ clicks }}</span></div>`,
		map[string]any{"count": 0, "step": 5, "clicks": 0},
	)

	doc.Click(dom.Find(root, "button"))
	doc.Click(dom.Find(root, "button"))
	assert.Equal(t, "10/2", dom.Find(root, "span").TextContent())
	assert.Equal(t, 10, inst.State().Peek("count"))
}

func TestAppendKeepsExistingNodes(t *testing.T) {
	_, root, inst := mount(t,
		`<ul><li v-for="item in items">{{ item }}</li></ul>`,
		map[string]any{"items": []any{"a", "b"}},
	)

	before := dom.FindAll(root, "li")
	require.Len(t, before, 2)

	inst.State().Get("items").(*signals.List).Append("c")

	after := dom.FindAll(root, "li")
	require.Len(t, after, 3)
	assert.Same(t, before[0], after[0])
	assert.Same(t, before[1], after[1])
	assert.Equal(t, []string{"a", "b", "c"}, texts(after))
}

func TestIfElseSwapsInPlace(t *testing.T) {
	_, root, inst := mount(t,
		`<div><span>before</span><p v-if="ok">yes</p><p v-else>no</p><span>after</span></div>`,
		map[string]any{"ok": true},
	)
	div := dom.Find(root, "div")
	render := func() string { return dom.InnerHTML(div) }

	initial := render()
	assert.Equal(t, `<span>before</span><p>yes</p><span>after</span>`, initial)

	inst.State().Set("ok", false)
	assert.Equal(t, `<span>before</span><p>no</p><span>after</span>`, render())
	assert.Len(t, dom.FindAll(div, "p"), 1)

	inst.State().Set("ok", true)
	assert.Equal(t, initial, render())
}

func TestConditionalChainExclusivity(t *testing.T) {
	_, root, inst := mount(t,
		`<div><p v-if="n == 1">one</p><p v-else-if="n == 2">two</p><p v-else-if="n == 3">three</p></div>`,
		map[string]any{"n": 1},
	)
	div := dom.Find(root, "div")

	for n, want := range map[int]string{1: "one", 2: "two", 3: "three"} {
		inst.State().Set("n", n)
		ps := dom.FindAll(div, "p")
		require.Len(t, ps, 1)
		assert.Equal(t, want, ps[0].TextContent())
	}

	inst.State().Set("n", 4)
	assert.Empty(t, dom.FindAll(div, "p"))
	assert.Equal(t, "<!---->", dom.InnerHTML(div), "a placeholder keeps the position")
}

func TestLoopResizeRoundTrip(t *testing.T) {
	_, root, inst := mount(t,
		`<ul><li v-for="(item, i) in items">{{ i }}:{{ item }}</li></ul>`,
		map[string]any{"items": []any{"a", "b", "c"}},
	)
	ul := dom.Find(root, "ul")
	initial := dom.InnerHTML(ul)
	list := inst.State().Get("items").(*signals.List)

	list.Resize(5)
	assert.Len(t, dom.FindAll(ul, "li"), 5)
	assert.Equal(t, []string{"0:a", "1:b", "2:c", "3:", "4:"}, texts(dom.FindAll(ul, "li")))

	list.Resize(3)
	assert.Equal(t, initial, dom.InnerHTML(ul))

	list.Resize(0)
	assert.Empty(t, dom.FindAll(ul, "li"))
}

func TestDependencyIsolation(t *testing.T) {
	doc, _, inst := mount(t,
		`<div><p>{{ a }}</p><p>{{ b }}</p><p :title="b"></p></div>`,
		map[string]any{"a": 1, "b": 2},
	)

	runs := inst.Stats().EffectRuns
	doc.ResetCounters()

	inst.State().Set("a", 10)
	assert.Equal(t, runs+1, inst.Stats().EffectRuns, "only the binding reading a re-runs")
	assert.Equal(t, dom.Counters{TextWrites: 1}, doc.Counters())

	inst.State().Set("a", 10)
	assert.Equal(t, runs+1, inst.Stats().EffectRuns, "same value is not a change")
}

func TestUpdateBatchesOnePass(t *testing.T) {
	_, root, inst := mount(t, `<p>{{ a + b }}</p>`, map[string]any{"a": 1, "b": 2})

	runs := inst.Stats().EffectRuns
	inst.Update(func(s *signals.Object) {
		s.Set("a", 10)
		s.Set("b", 20)
	})
	assert.Equal(t, runs+1, inst.Stats().EffectRuns)
	assert.Equal(t, "30", dom.Find(root, "p").TextContent())
}

func TestTwoWayBinding(t *testing.T) {
	doc, root, inst := mount(t,
		`<form><input v-model.number="age"><p>{{ age + 1 }}</p><input v-model.trim="name"><input v-model.lazy="note"></form>`,
		map[string]any{"age": 30, "name": "ada", "note": ""},
	)
	inputs := dom.FindAll(root, "input")
	require.Len(t, inputs, 3)
	age, name, note := inputs[0], inputs[1], inputs[2]

	assert.Equal(t, "30", age.Value())
	assert.Equal(t, "ada", name.Value())

	doc.Input(age, "41")
	assert.Equal(t, 41, inst.State().Peek("age"))
	assert.Equal(t, "42", dom.Find(root, "p").TextContent())

	doc.Input(name, "  grace  ")
	assert.Equal(t, "grace", inst.State().Peek("name"))
	assert.Equal(t, "grace", name.Value())

	doc.Input(note, "draft")
	assert.Equal(t, "", inst.State().Peek("note"), "lazy waits for change")
	doc.Change(note, "draft")
	assert.Equal(t, "draft", inst.State().Peek("note"))

	inst.State().Set("age", 7)
	assert.Equal(t, "7", age.Value())

	doc.Input(age, "abc")
	assert.Equal(t, "abc", inst.State().Peek("age"), "non numeric input is kept as text")
}

func TestModelOnLoopItem(t *testing.T) {
	doc, root, inst := mount(t,
		`<div><input v-for="item in items" v-model="item"></div>`,
		map[string]any{"items": []any{"x", "y"}},
	)
	inputs := dom.FindAll(root, "input")
	require.Len(t, inputs, 2)

	doc.Input(inputs[1], "z")
	assert.Equal(t, []any{"x", "z"}, inst.State().Get("items").(*signals.List).Raw())
}

func TestKeyedReorder(t *testing.T) {
	item := func(id int, name string) map[string]any {
		return map[string]any{"id": id, "name": name}
	}
	_, root, inst := mount(t,
		`<ul><li v-for="item in items" :key="item.id">{{ item.name }}</li></ul>`,
		map[string]any{"items": []any{item(1, "a"), item(2, "b"), item(3, "c")}},
	)
	before := dom.FindAll(root, "li")
	list := inst.State().Get("items").(*signals.List)

	list.Replace([]any{item(3, "c"), item(1, "a"), item(2, "B")})

	after := dom.FindAll(root, "li")
	require.Len(t, after, 3)
	assert.Same(t, before[2], after[0])
	assert.Same(t, before[0], after[1])
	assert.Same(t, before[1], after[2])
	if diff := cmp.Diff([]string{"c", "a", "B"}, texts(after)); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}

	list.Splice(1, 1)
	after = dom.FindAll(root, "li")
	assert.Equal(t, []string{"c", "B"}, texts(after))
	assert.Same(t, before[1], after[1])
}

func mountNamedItems(t *testing.T) (*dom.Node, *view.Instance) {
	t.Helper()
	_, root, inst := mount(t,
		`<ul><li v-for="item in items" :key="item.id">{{ item.name }}</li></ul>`,
		map[string]any{"items": []any{
			map[string]any{"id": 1, "name": "a"},
			map[string]any{"id": 2, "name": "b"},
		}},
	)
	return root, inst
}

func TestReorderWithExistingItems(t *testing.T) {
	root, inst := mountNamedItems(t)
	before := dom.FindAll(root, "li")
	list := inst.State().Get("items").(*signals.List)

	items := list.Items()
	slices.Reverse(items)
	list.Replace(items)
	after := dom.FindAll(root, "li")
	assert.Equal(t, []string{"b", "a"}, texts(after))
	assert.Same(t, before[1], after[0])

	items[0].(*signals.Object).Set("name", "B")
	items[1].(*signals.Object).Set("name", "A")
	assert.Equal(t, []string{"B", "A"}, texts(dom.FindAll(root, "li")))

	list.Replace(list.Items())
	list.At(0).(*signals.Object).Set("name", "z")
	assert.Equal(t, []string{"z", "A"}, texts(dom.FindAll(root, "li")))
}

func TestSwapItemsThroughSet(t *testing.T) {
	root, inst := mountNamedItems(t)
	list := inst.State().Get("items").(*signals.List)
	a := list.At(0).(*signals.Object)
	b := list.At(1).(*signals.Object)

	list.Set(0, b)
	list.Set(1, a)
	assert.Equal(t, []string{"b", "a"}, texts(dom.FindAll(root, "li")))

	a.Set("name", "A")
	assert.Equal(t, []string{"b", "A"}, texts(dom.FindAll(root, "li")))

	inst.Update(func(*signals.Object) {
		list.Set(0, a)
		list.Set(1, b)
	})
	b.Set("name", "B")
	assert.Equal(t, []string{"A", "B"}, texts(dom.FindAll(root, "li")))
}

func TestReassignWithExistingItems(t *testing.T) {
	root, inst := mountNamedItems(t)
	before := dom.FindAll(root, "li")
	old := inst.State().Get("items").(*signals.List).Items()

	inst.State().Set("items", append(old, map[string]any{"id": 3, "name": "c"}))
	after := dom.FindAll(root, "li")
	require.Len(t, after, 3)
	assert.Same(t, before[0], after[0])
	assert.Same(t, before[1], after[1])

	old[0].(*signals.Object).Set("name", "z")
	assert.Equal(t, []string{"z", "b", "c"}, texts(dom.FindAll(root, "li")))
}

func TestKeysMatchAcrossNumericTypes(t *testing.T) {
	root, inst := mountNamedItems(t)
	before := dom.FindAll(root, "li")

	inst.State().Set("items", []any{
		map[string]any{"id": 2.0, "name": "b"},
		map[string]any{"id": 1.0, "name": "a"},
	})
	after := dom.FindAll(root, "li")
	require.Len(t, after, 2)
	assert.Same(t, before[1], after[0])
	assert.Same(t, before[0], after[1])
	assert.Empty(t, inst.Diagnostics())
}

func TestStructuralBindingErrors(t *testing.T) {
	_, root, inst := mount(t,
		`<div><i v-for="x in nope.list">{{ x }}</i><p v-if="nope.flag">on</p><p v-else>off</p></div>`,
		map[string]any{},
	)

	assert.Empty(t, dom.FindAll(root, "i"), "a failed list renders no blocks")
	assert.Equal(t, []string{"off"}, texts(dom.FindAll(root, "p")), "a failed condition is false")
	diags := inst.Diagnostics()
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.ErrorIs(t, d, expr.ErrUndefined)
	}

	inst.State().Set("nope", map[string]any{"list": []any{1, 2}, "flag": true})
	assert.Equal(t, []string{"1", "2"}, texts(dom.FindAll(root, "i")))
	assert.Equal(t, []string{"on"}, texts(dom.FindAll(root, "p")))
}

func TestLoopOverObjectsAndRanges(t *testing.T) {
	_, root, inst := mount(t,
		`<div><i v-for="(v, k) in scores">{{ k }}={{ v }}</i><b v-for="n in count">{{ n }}</b></div>`,
		map[string]any{"scores": map[string]any{"b": 2, "a": 1}, "count": 3},
	)

	assert.Equal(t, []string{"a=1", "b=2"}, texts(dom.FindAll(root, "i")))
	assert.Equal(t, []string{"1", "2", "3"}, texts(dom.FindAll(root, "b")))

	inst.State().Get("scores").(*signals.Object).Set("c", 3)
	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, texts(dom.FindAll(root, "i")))

	inst.State().Set("count", 1)
	assert.Equal(t, []string{"1"}, texts(dom.FindAll(root, "b")))
}

func TestLoopWithConditionPerItem(t *testing.T) {
	_, root, inst := mount(t,
		`<ul><li v-for="n in items" v-if="n % 2 == 1">{{ n }}</li></ul>`,
		map[string]any{"items": []any{1, 2, 3, 4, 5}},
	)
	assert.Equal(t, []string{"1", "3", "5"}, texts(dom.FindAll(root, "li")))

	inst.State().Get("items").(*signals.List).Set(1, 7)
	assert.Equal(t, []string{"1", "7", "3", "5"}, texts(dom.FindAll(root, "li")))
}

func TestNestedLoops(t *testing.T) {
	_, root, inst := mount(t,
		`<table><tr v-for="row in rows"><td v-for="cell in row.cells">{{ row.name }}{{ cell }}</td></tr></table>`,
		map[string]any{"rows": []any{
			map[string]any{"name": "a", "cells": []any{1, 2}},
			map[string]any{"name": "b", "cells": []any{3}},
		}},
	)
	assert.Equal(t, []string{"a1", "a2", "b3"}, texts(dom.FindAll(root, "td")))

	rows := inst.State().Get("rows").(*signals.List)
	rows.At(1).(*signals.Object).Get("cells").(*signals.List).Append(4)
	rows.At(0).(*signals.Object).Set("name", "z")
	assert.Equal(t, []string{"z1", "z2", "b3", "b4"}, texts(dom.FindAll(root, "td")))
}

func TestAttributeBindings(t *testing.T) {
	_, root, inst := mount(t,
		`<button :disabled="busy" :title="'n=' + n" :class="classes" v-text="label">ignored</button>`,
		map[string]any{
			"busy":    false,
			"n":       1,
			"classes": map[string]any{"primary": true, "hidden": false},
			"label":   "Save",
		},
	)
	button := dom.Find(root, "button")

	_, ok := button.Attr("disabled")
	assert.False(t, ok)
	title, _ := button.Attr("title")
	assert.Equal(t, "n=1", title)
	class, _ := button.Attr("class")
	assert.Equal(t, "primary", class)
	assert.Equal(t, "Save", button.TextContent())

	inst.Update(func(s *signals.Object) {
		s.Set("busy", true)
		s.Set("n", 2)
		s.Set("label", "Saving")
		s.Get("classes").(*signals.Object).Set("hidden", true)
	})
	disabled, ok := button.Attr("disabled")
	assert.True(t, ok)
	assert.Equal(t, "", disabled)
	title, _ = button.Attr("title")
	assert.Equal(t, "n=2", title)
	class, _ = button.Attr("class")
	assert.Equal(t, "hidden primary", class)
	assert.Equal(t, "Saving", button.TextContent())
}

func TestEventModifiers(t *testing.T) {
	var got []string
	record := func(s *signals.Object, args ...any) any {
		got = append(got, expr.Stringify(args[0]))
		return nil
	}
	doc, root, _ := mount(t,
		`<div @click="record('outer')">
			<a @click.prevent.stop="record('a')">a</a>
			<b @click.once="record('b')">b</b>
			<i @click.self="record('i')"><em>inner</em></i>
			<form @submit.prevent></form>
			<u @click="record($event.type)">u</u>
		</div>`,
		map[string]any{"record": record},
	)

	assert.False(t, doc.Click(dom.Find(root, "a")))
	assert.Equal(t, []string{"a"}, got)

	got = nil
	doc.Click(dom.Find(root, "b"))
	doc.Click(dom.Find(root, "b"))
	assert.Equal(t, []string{"b", "outer", "outer"}, got)

	got = nil
	doc.Click(dom.Find(root, "em"))
	assert.Equal(t, []string{"outer"}, got)
	doc.Click(dom.Find(root, "i"))
	assert.Equal(t, []string{"outer", "i", "outer"}, got)

	form := dom.Find(root, "form")
	assert.False(t, doc.Dispatch(form, &host.Event{Type: "submit"}))

	got = nil
	doc.Click(dom.Find(root, "u"))
	assert.Equal(t, []string{"click", "outer"}, got)
}

func TestDiagnostics(t *testing.T) {
	var handled []view.Diagnostic
	_, root, inst := mount(t,
		`<div><p>{{ missing }}</p><span :title="user.name">x</span><b @click="nope()">b</b></div>`,
		map[string]any{"user": nil},
		view.WithDiagnosticHandler(func(d view.Diagnostic) { handled = append(handled, d) }),
	)

	assert.Equal(t, "", dom.Find(root, "p").TextContent())
	_, ok := dom.Find(root, "span").Attr("title")
	assert.False(t, ok)

	diags := inst.Diagnostics()
	require.Len(t, diags, 2)
	assert.ErrorIs(t, diags[0].Err, expr.ErrUndefined)
	assert.Equal(t, "missing", diags[0].Expr)
	assert.Equal(t, ":title", diags[1].Directive)
	assert.Equal(t, diags, handled)

	inst.State().Set("user", map[string]any{"name": "ada"})
	title, _ := dom.Find(root, "span").Attr("title")
	assert.Equal(t, "ada", title)
}

func TestHandlerPanicsBecomeDiagnostics(t *testing.T) {
	doc, root, inst := mount(t,
		`<button @click="explode">x</button>`,
		map[string]any{"explode": view.Handler(func(*signals.Object, ...any) any { panic("kaboom") })},
	)

	doc.Click(dom.Find(root, "button"))
	diags := inst.Diagnostics()
	require.Len(t, diags, 1)
	assert.ErrorContains(t, diags[0].Err, "kaboom")
}

func TestEffectStormIsReported(t *testing.T) {
	pingX := view.Handler(func(s *signals.Object, args ...any) any {
		s.Set("x", s.Get("y").(int)+1)
		return nil
	})
	pingY := view.Handler(func(s *signals.Object, args ...any) any {
		s.Set("y", s.Get("x").(int)+1)
		return nil
	})
	_, _, inst := mount(t,
		`<div><p>{{ pingX() }}</p><p>{{ pingY() }}</p></div>`,
		map[string]any{"x": 0, "y": 0, "pingX": pingX, "pingY": pingY},
		view.WithMaxEffectRuns(20),
	)

	var storm bool
	for _, d := range inst.Diagnostics() {
		if errors.Is(d.Err, signals.ErrEffectStorm) {
			storm = true
		}
	}
	assert.True(t, storm)
}

func TestUnmountReleasesEverything(t *testing.T) {
	doc, root, inst := mount(t,
		`<div>
			<p v-if="show">{{ title }}</p>
			<ul><li v-for="item in items" :key="item.id" @click="pick(item)">{{ item.name }}</li></ul>
			<input v-model="query">
		</div>`,
		map[string]any{
			"show":  true,
			"title": "t",
			"query": "",
			"items": []any{map[string]any{"id": 1, "name": "a"}, map[string]any{"id": 2, "name": "b"}},
			"pick":  func(*signals.Object, ...any) any { return nil },
		},
	)
	require.Greater(t, inst.Stats().Live(), 0)
	require.Greater(t, doc.ListenerCount(), 0)

	inst.Unmount()
	assert.Equal(t, 0, inst.Stats().Live())
	assert.Equal(t, 0, inst.Stats().Edges)
	assert.Equal(t, 0, doc.ListenerCount())
	assert.Empty(t, root.Children())
	assert.Empty(t, inst.Roots())

	// the state keeps working as a plain record
	inst.State().Set("title", "after")
	assert.Equal(t, "after", inst.State().Peek("title"))
}

func TestMountErrors(t *testing.T) {
	doc := dom.New()
	root := doc.CreateElement("main")

	_, err := view.Mount(doc, root, `<div><p></div>`, nil)
	var perr *markup.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Empty(t, doc.Children(root))
	assert.Equal(t, 1, doc.Counters().Creates)

	_, err = view.Mount(doc, root, "   ", nil)
	assert.ErrorIs(t, err, markup.ErrNoRoot)
}

func TestTemplateMountedTwice(t *testing.T) {
	tmpl := markup.MustParse(`<p>{{ n }}</p>`)
	doc := dom.New()
	a, b := doc.CreateElement("main"), doc.CreateElement("main")

	ia, err := view.MountTemplate(doc, a, tmpl, map[string]any{"n": 1})
	require.NoError(t, err)
	defer ia.Unmount()
	ib, err := view.MountTemplate(doc, b, tmpl, map[string]any{"n": 2})
	require.NoError(t, err)
	defer ib.Unmount()

	ia.State().Set("n", 5)
	assert.Equal(t, "<p>5</p>", dom.InnerHTML(a.(*dom.Node)))
	assert.Equal(t, "<p>2</p>", dom.InnerHTML(b.(*dom.Node)))
	require.Len(t, ia.Roots(), 1)
}
