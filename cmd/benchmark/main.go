package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"slices"
	"time"

	"github.com/delaneyj/stitch/dom"
	"github.com/delaneyj/stitch/signals"
	"github.com/delaneyj/stitch/view"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var profile = flag.String("profile", "default.pgo", "CPU profile output, empty to disable")

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(false)
	benchmarkPatch(false)

	benchmarkPropagate(true)
	benchmarkPatch(true)
}

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100, 1_000}
	rows  = []int{10, 100, 1_000}
	iters = 100
)

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendTimings(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

func benchmarkPropagate(shouldRender bool) {
	tbl := newTable("Signals")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := signals.CreateReactiveSystem(func(from signals.Handle, err error) {
				log.Panic(err)
			})
			src := signals.Signal(rs, 1)
			for i := 0; i < w; i++ {
				var last interface{ Value() int } = src
				for j := 0; j < h; j++ {
					prev := last
					last = signals.Computed(rs, func(oldValue int) int {
						return prev.Value() + 1
					})
				}

				signals.Effect(rs, func() error {
					last.Value()
					return nil
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}

			appendTimings(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

const listTemplate = `<ul><li v-for="row in rows" :key="row.id" :class="row.id === selected ? 'selected' : ''">{{ row.label }}</li></ul>`

func makeRows(n, offset int) []any {
	out := make([]any, n)
	for i := range out {
		id := offset + i
		out[i] = map[string]any{"id": id, "label": fmt.Sprintf("row %d", id)}
	}
	return out
}

// patchOp mutates the mounted list once; i is the iteration number.
type patchOp struct {
	name string
	run  func(state *signals.Object, n, i int)
}

var patchOps = []patchOp{
	{"update label", func(state *signals.Object, n, i int) {
		row := state.Get("rows").(*signals.List).At(i % n).(*signals.Object)
		row.Set("label", fmt.Sprintf("row %d #%d", i%n, i))
	}},
	{"select", func(state *signals.Object, n, i int) {
		state.Set("selected", i%n)
	}},
	{"append + remove", func(state *signals.Object, n, i int) {
		list := state.Get("rows").(*signals.List)
		list.Append(makeRows(1, n+i)...)
		list.Splice(0, 1)
	}},
	{"reverse", func(state *signals.Object, n, i int) {
		list := state.Get("rows").(*signals.List)
		raw := list.Raw()
		slices.Reverse(raw)
		list.Replace(raw)
	}},
}

func benchmarkPatch(shouldRender bool) {
	tbl := newTable("Patch cycle")

	for _, op := range patchOps {
		for _, n := range rows {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			doc := dom.New()
			root := doc.CreateElement("body")
			inst, err := view.Mount(doc, root, listTemplate, map[string]any{
				"rows":     makeRows(n, 0),
				"selected": -1,
			}, view.WithDiagnosticHandler(func(d view.Diagnostic) {
				log.Panic(d)
			}))
			if err != nil {
				log.Fatal(err)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				inst.Update(func(state *signals.Object) {
					op.run(state, n, i)
				})
				tach.AddTime(time.Since(start))
			}
			inst.Unmount()

			appendTimings(tbl, fmt.Sprintf("%s: %d rows", op.name, n), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
