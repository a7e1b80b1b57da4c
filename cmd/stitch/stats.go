package main

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/stitch/markup"
)

type shape struct {
	elements, texts, exprs, interps int
	directives                      map[markup.DirectiveKind]int
}

func templateShape(tmpl *markup.Template) shape {
	sh := shape{directives: map[markup.DirectiveKind]int{}}
	markup.Walk(tmpl.Roots, func(n markup.Node) bool {
		switch n := n.(type) {
		case *markup.Element:
			sh.elements++
			for _, d := range n.Directives {
				sh.directives[d.Kind]++
			}
		case *markup.Text:
			sh.texts++
		case *markup.Expr:
			sh.exprs++
		case *markup.Interp:
			sh.interps++
		}
		return true
	})
	return sh
}

func stats(ctx context.Context, cmd *cli.Command) error {
	in, err := readInput(cmd)
	if err != nil {
		return err
	}
	defer in.logger.Sync()

	sh := templateShape(in.tmpl)
	s, err := in.run()
	if err != nil {
		return err
	}
	defer s.close()
	rs := s.inst.Stats()
	counters := s.doc.Counters()

	rows := []metric{
		{"elements", int64(sh.elements)},
		{"text nodes", int64(sh.texts)},
		{"interpolations", int64(sh.exprs + sh.interps)},
	}
	for k := markup.DirectiveText; k <= markup.DirectiveKey; k++ {
		if n := sh.directives[k]; n > 0 {
			rows = append(rows, metric{k.String(), int64(n)})
		}
	}
	rows = append(rows,
		metric{"sources", int64(rs.Sources)},
		metric{"computeds", int64(rs.Computeds)},
		metric{"effects", int64(rs.Effects)},
		metric{"scopes", int64(rs.Scopes)},
		metric{"edges", int64(rs.Edges)},
		metric{"effect runs", int64(rs.EffectRuns)},
		metric{"events", int64(len(in.events))},
		metric{"host creates", int64(counters.Creates)},
		metric{"host inserts", int64(counters.Inserts)},
		metric{"host removes", int64(counters.Removes)},
		metric{"host replaces", int64(counters.Replaces)},
		metric{"text writes", int64(counters.TextWrites)},
		metric{"attribute writes", int64(counters.AttrWrites)},
		metric{"value writes", int64(counters.ValueWrites)},
		metric{"diagnostics", int64(len(s.inst.Diagnostics()))},
	)

	table := tablewriter.NewWriter(cmd.Root().Writer)
	table.SetHeader([]string{"metric", "count"})
	for _, m := range rows {
		table.Append([]string{m.name, humanize.Comma(m.n)})
	}
	table.Render()
	return nil
}

type metric struct {
	name string
	n    int64
}
