package view_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/delaneyj/stitch/dom"
	"github.com/delaneyj/stitch/view"
)

func mount(t *testing.T, src string, state map[string]any, opts ...view.Option) (*dom.Document, *dom.Node, *view.Instance) {
	t.Helper()
	doc := dom.New()
	root := doc.CreateElement("main").(*dom.Node)
	opts = append([]view.Option{view.WithLogger(zaptest.NewLogger(t))}, opts...)
	inst, err := view.Mount(doc, root, src, state, opts...)
	require.NoError(t, err)
	t.Cleanup(inst.Unmount)
	return doc, root, inst
}

func texts(nodes []*dom.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.TextContent()
	}
	return out
}
