// Command benchmark_layers runs the layered dependency graph workloads from
// the reactively benchmark suite against the signals package.
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/stitch/signals"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

type layerConfig struct {
	name           string
	width          int     // nodes per layer
	layers         int     // graph depth, sources included
	staticFraction float64 // share of nodes that always read every source
	nSources       int     // sources read by each node
	readFraction   float64 // share of leaves read per iteration
	iterations     int64
	expectedSum    float64
	expectedCount  int64
}

var configs = []layerConfig{
	{"simple component", 10, 5, 1, 2, 0.2, 600_000, 19199968, 3480000},
	{"dynamic component", 10, 10, 0.75, 6, 0.2, 15_000, 302310782860, 1155000},
	{"large web app", 1000, 12, 0.95, 4, 1, 7_000, 29355933696000, 1463000},
	{"wide dense", 1000, 5, 1, 25, 1, 3_000, 1171484375000, 732000},
	{"deep", 5, 500, 1, 3, 1, 500, 3.0239642676898464e241, 1246500},
	{"very dynamic", 100, 15, 0.5, 6, 1, 2_000, 15664996402790400, 1078000},
}

const repeats = 5

func main() {
	log.Print("Starting layered graph benchmark, please wait...")
	defer log.Print("Finished layered graph benchmark")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "size", "nSources", "read%", "static%",
		"nTimes", "time", "updateRate", "check", "title",
	})

	for _, cfg := range configs {
		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		g := makeGraph(cfg, counter)

		// warm up
		g.run(cfg)

		best := struct {
			sum      int
			count    int64
			duration time.Duration
		}{duration: time.Hour}

		for i := 0; i < repeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d", cfg.name, i+1, repeats)
			*counter = 0
			start := time.Now()
			sum := g.run(cfg)
			if d := time.Since(start); d < best.duration {
				best.duration, best.sum, best.count = d, sum, *counter
			}
		}

		check := "ok"
		if float64(best.sum) != cfg.expectedSum || best.count != cfg.expectedCount {
			check = fmt.Sprintf("sum %d count %d", best.sum, best.count)
		}
		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		table.Append([]string{
			cfg.name,
			fmt.Sprintf("%dx%d", cfg.width, cfg.layers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			check,
			title(cfg),
		})
	}
	table.Render()
}

func title(cfg layerConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d %d sources", cfg.width, cfg.layers, cfg.nSources)
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		fmt.Fprintf(&sb, " read %0.2f%%", 100*cfg.readFraction)
	}
	return sb.String()
}

type reader interface {
	Value() int
}

type graph struct {
	rs      *signals.ReactiveSystem
	sources []*signals.WriteableSignal[int]
	leaves  []reader
}

func makeGraph(cfg layerConfig, counter *int64) *graph {
	rs := signals.CreateReactiveSystem(func(from signals.Handle, err error) {
		log.Panic(err)
	})
	g := &graph{rs: rs, sources: make([]*signals.WriteableSignal[int], cfg.width)}

	prev := make([]reader, cfg.width)
	for i := range g.sources {
		g.sources[i] = signals.Signal(rs, i)
		prev[i] = g.sources[i]
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.layers-1; l++ {
		prev = makeRow(rs, prev, cfg, counter, random)
	}
	g.leaves = prev
	return g
}

func makeRow(rs *signals.ReactiveSystem, sources []reader, cfg layerConfig, counter *int64, random *rand.Rand) []reader {
	row := make([]reader, len(sources))
	for i := range sources {
		mine := make([]reader, 0, cfg.nSources)
		for s := 0; s < cfg.nSources; s++ {
			mine = append(mine, sources[(i+s)%len(sources)])
		}

		if random.Float64() < cfg.staticFraction {
			row[i] = signals.Computed(rs, func(int) int {
				*counter++
				sum := 0
				for _, src := range mine {
					sum += src.Value()
				}
				return sum
			})
			continue
		}

		first, tail := mine[0], mine[1:]
		row[i] = signals.Computed(rs, func(int) int {
			*counter++
			sum := first.Value()
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)
			for j, src := range tail {
				if shouldDrop && j == dropDex {
					continue
				}
				sum += src.Value()
			}
			return sum
		})
	}
	return row
}

// run writes one source per iteration and reads a fixed random subset of
// the leaves, returning the final sum of that subset.
func (g *graph) run(cfg layerConfig) int {
	random := rand.New(rand.NewSource(0))
	skip := int(math.Round(float64(len(g.leaves)) * (1 - cfg.readFraction)))
	read := removeRandom(g.leaves, skip, random)

	for i := 0; i < int(cfg.iterations); i++ {
		g.rs.Batch(func() {
			s := i % len(g.sources)
			g.sources[s].SetValue(i + s)
		})
		for _, leaf := range read {
			leaf.Value()
		}
	}

	sum := 0
	for _, leaf := range read {
		sum += leaf.Value()
	}
	return sum
}

func removeRandom[T any](src []T, n int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < n; i++ {
		j := random.Intn(len(out))
		out[j] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
