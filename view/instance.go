// Package view binds parsed templates to a reactive state object and keeps a
// host tree in sync with it.
//
// Mounting walks the template once: loops and conditional chains become
// structural effects that add, move and remove host nodes; text, attribute,
// v-text and v-model bindings become leaf effects that patch single nodes.
// Every later state change is applied by the reactive flush, which runs only
// the effects whose dependencies changed, parents before children.
package view

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/delaneyj/stitch/host"
	"github.com/delaneyj/stitch/markup"
	"github.com/delaneyj/stitch/signals"
)

// Instance is one mounted template.
type Instance struct {
	tree      host.Tree
	container host.Node
	rs        *signals.ReactiveSystem
	state     *signals.Object
	scope     *signals.Scope
	logger    *zap.Logger

	onDiagnostic func(Diagnostic)
	diagnostics  []Diagnostic

	// container children that existed before mounting
	preexisting map[host.Node]bool
	unmounted   bool
}

// Mount parses src and mounts it into container. Host nodes must be
// comparable values.
func Mount(tree host.Tree, container host.Node, src string, state map[string]any, opts ...Option) (*Instance, error) {
	tmpl, err := markup.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	return MountTemplate(tree, container, tmpl, state, opts...)
}

// MountTemplate mounts a parsed template. The template can be mounted any
// number of times.
func MountTemplate(tree host.Tree, container host.Node, tmpl *markup.Template, state map[string]any, opts ...Option) (*Instance, error) {
	if tree == nil || container == nil {
		return nil, fmt.Errorf("mount: nil host tree or container")
	}
	if tmpl == nil || len(tmpl.Roots) == 0 {
		return nil, fmt.Errorf("mount: %w", markup.ErrNoRoot)
	}

	cfg := &config{
		logger:  zap.NewNop(),
		maxRuns: signals.DefaultMaxEffectRuns,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	inst := &Instance{
		tree:         tree,
		container:    container,
		logger:       cfg.logger,
		onDiagnostic: cfg.onDiagnostic,
		preexisting:  map[host.Node]bool{},
	}
	for _, c := range tree.Children(container) {
		inst.preexisting[c] = true
	}

	inst.rs = cfg.rs
	if inst.rs == nil {
		inst.rs = signals.CreateReactiveSystem(
			func(from signals.Handle, err error) {
				inst.report(Diagnostic{Directive: "effect", Err: err})
			},
			signals.WithLogger(cfg.logger),
			signals.WithMaxEffectRuns(cfg.maxRuns),
		)
	}
	if state == nil {
		state = map[string]any{}
	}
	inst.state = signals.NewObject(inst.rs, state)

	b := &binder{inst: inst, tree: tree, rs: inst.rs}
	root := &scope{inst: inst}

	inst.scope = signals.NewScope(inst.rs)
	var err error
	inst.rs.Batch(func() {
		err = inst.scope.Run(func() error {
			b.mountChildren(root, tmpl.Roots, container, nil)
			return nil
		})
	})
	if err != nil {
		inst.Unmount()
		return nil, fmt.Errorf("mount: %w", err)
	}

	inst.logger.Debug("mounted",
		zap.Int("roots", len(tmpl.Roots)),
		zap.Int("live", inst.rs.Stats().Live()),
	)
	return inst, nil
}

// Roots returns the mounted top-level host nodes, placeholders included.
func (inst *Instance) Roots() []host.Node {
	var out []host.Node
	for _, c := range inst.tree.Children(inst.container) {
		if !inst.preexisting[c] {
			out = append(out, c)
		}
	}
	return out
}

// State is the observed state object; writes to it patch the tree.
func (inst *Instance) State() *signals.Object {
	return inst.state
}

func (inst *Instance) System() *signals.ReactiveSystem {
	return inst.rs
}

// Update applies fn's mutations in one batch, so the tree is patched once.
func (inst *Instance) Update(fn func(state *signals.Object)) {
	inst.rs.Batch(func() {
		fn(inst.state)
	})
}

// Batch runs fn in one batch.
func (inst *Instance) Batch(fn func()) {
	inst.rs.Batch(fn)
}

func (inst *Instance) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(inst.diagnostics))
	copy(out, inst.diagnostics)
	return out
}

func (inst *Instance) Stats() signals.Stats {
	return inst.rs.Stats()
}

// Unmount stops every binding, removes every listener and mounted node, and
// evicts the state's dependency handles. It is idempotent.
func (inst *Instance) Unmount() {
	if inst.unmounted {
		return
	}
	inst.unmounted = true

	inst.scope.Dispose()
	for _, c := range inst.Roots() {
		inst.tree.RemoveChild(inst.container, c)
	}
	inst.state.Dispose()
	inst.logger.Debug("unmounted", zap.Int("live", inst.rs.Stats().Live()))
}

func (inst *Instance) report(d Diagnostic) {
	inst.diagnostics = append(inst.diagnostics, d)
	inst.logger.Warn("binding failed",
		zap.String("directive", d.Directive),
		zap.String("expr", d.Expr),
		zap.Error(d.Err),
	)
	if inst.onDiagnostic != nil {
		inst.onDiagnostic(d)
	}
}
