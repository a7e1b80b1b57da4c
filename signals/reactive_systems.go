package signals

import (
	"errors"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

var (
	// ErrEffectStorm is reported when a single flush runs more effects than
	// the configured budget, which almost always means two effects keep
	// writing each other's dependencies.
	ErrEffectStorm = errors.New("signals: effect run budget exceeded")
	// ErrDisposed is returned when running a scope that was already disposed.
	ErrDisposed = errors.New("signals: disposed")
)

// DefaultMaxEffectRuns bounds the effects a single flush may run.
const DefaultMaxEffectRuns = 100_000

type OnErrorFunc func(from Handle, err error)

type Option func(*ReactiveSystem)

// WithLogger sets the logger used for effect errors and storms.
func WithLogger(logger *zap.Logger) Option {
	return func(rs *ReactiveSystem) {
		if logger != nil {
			rs.logger = logger
		}
	}
}

// WithMaxEffectRuns overrides DefaultMaxEffectRuns. Zero disables the check.
func WithMaxEffectRuns(n int) Option {
	return func(rs *ReactiveSystem) {
		rs.maxRuns = n
	}
}

type queued struct {
	h   Handle
	gen uint32
}

// ReactiveSystem owns the dependency graph. Every signal, computed, effect and
// scope lives in its arena and is addressed by Handle. It is not safe for
// concurrent use; all work happens on the caller's goroutine.
type ReactiveSystem struct {
	nodes []node
	free  []Handle
	seq   uint64

	activeSub   Handle
	activeOwner Handle
	pauseStack  []Handle

	batchDepth int
	flushing   bool
	queue      []queued
	// observed values no container holds any more
	detached map[trimmer]struct{}

	onError OnErrorFunc
	logger  *zap.Logger
	maxRuns int

	flushes    uint64
	effectRuns uint64
}

func CreateReactiveSystem(onError OnErrorFunc, opts ...Option) *ReactiveSystem {
	rs := &ReactiveSystem{
		// slot 0 is the nil handle
		nodes:   make([]node, 1, 64),
		onError: onError,
		logger:  zap.NewNop(),
		maxRuns: DefaultMaxEffectRuns,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func (rs *ReactiveSystem) StartBatch() {
	rs.batchDepth++
}

func (rs *ReactiveSystem) EndBatch() {
	rs.batchDepth--
	if rs.batchDepth == 0 {
		rs.flush()
	}
}

func (rs *ReactiveSystem) Batch(cb func()) {
	rs.StartBatch()
	defer rs.EndBatch()
	cb()
}

func (rs *ReactiveSystem) PauseTracking() {
	rs.pauseStack = append(rs.pauseStack, rs.activeSub)
	rs.activeSub = 0
}

func (rs *ReactiveSystem) ResumeTracking() {
	lastIdx := len(rs.pauseStack) - 1
	rs.activeSub = rs.pauseStack[lastIdx]
	rs.pauseStack = rs.pauseStack[:lastIdx]
}

// Untrack runs fn without recording any dependency for the active subscriber.
func (rs *ReactiveSystem) Untrack(fn func()) {
	rs.PauseTracking()
	defer rs.ResumeTracking()
	fn()
}

// NewSource allocates a bare dependency node that is not owned by the active
// scope. Pair it with Track/Trigger to make any field reactive, and Release
// it when the field goes away.
func (rs *ReactiveSystem) NewSource() Handle {
	return rs.alloc(kindSource, false)
}

// Track records that the active subscriber read h.
func (rs *ReactiveSystem) Track(h Handle) {
	if h == 0 || int(h) >= len(rs.nodes) {
		return
	}
	rs.track(h, rs.nodes[h].gen)
}

// Trigger marks h as changed and, outside a batch, runs the patch flush.
func (rs *ReactiveSystem) Trigger(h Handle) {
	if h == 0 || int(h) >= len(rs.nodes) {
		return
	}
	rs.trigger(h, rs.nodes[h].gen)
}

// Release evicts h and every node it owns.
func (rs *ReactiveSystem) Release(h Handle) {
	if h == 0 || int(h) >= len(rs.nodes) {
		return
	}
	rs.dispose(h, rs.nodes[h].gen)
}

// Alive reports whether h still addresses a live node.
func (rs *ReactiveSystem) Alive(h Handle) bool {
	return h != 0 && int(h) < len(rs.nodes) && rs.nodes[h].live
}

func (rs *ReactiveSystem) alloc(kind nodeKind, owned bool) Handle {
	var h Handle
	if n := len(rs.free); n > 0 {
		h = rs.free[n-1]
		rs.free = rs.free[:n-1]
	} else {
		rs.nodes = append(rs.nodes, node{})
		h = Handle(len(rs.nodes) - 1)
	}

	rs.seq++
	n := &rs.nodes[h]
	gen := n.gen + 1
	*n = node{
		kind: kind,
		live: true,
		gen:  gen,
		seq:  rs.seq,
		subs: mapset.NewThreadUnsafeSet[Handle](),
	}
	if kind == kindComputed || kind == kindEffect {
		n.deps = map[Handle]uint64{}
	}

	if owned && rs.activeOwner != 0 {
		owner := rs.activeOwner
		n.owner = owner
		n.depth = rs.nodes[owner].depth + 1
		rs.nodes[owner].owned = append(rs.nodes[owner].owned, h)
	}
	return h
}

func (rs *ReactiveSystem) valid(h Handle, gen uint32) bool {
	return h != 0 && int(h) < len(rs.nodes) && rs.nodes[h].live && rs.nodes[h].gen == gen
}

func (rs *ReactiveSystem) track(h Handle, gen uint32) {
	sub := rs.activeSub
	if sub == 0 || sub == h || !rs.valid(h, gen) || !rs.nodes[sub].live {
		return
	}
	s := &rs.nodes[sub]
	if _, ok := s.deps[h]; ok {
		return
	}
	s.deps[h] = rs.nodes[h].version
	rs.nodes[h].subs.Add(sub)
}

func (rs *ReactiveSystem) trigger(h Handle, gen uint32) {
	if !rs.valid(h, gen) {
		return
	}
	rs.nodes[h].version++
	rs.propagate(h)
	if rs.batchDepth == 0 {
		rs.flush()
	}
}

// propagate marks every transitive subscriber of h as possibly stale and
// queues the effects among them. A node that is already stale was reached by
// an earlier walk, so its subtree is skipped.
func (rs *ReactiveSystem) propagate(h Handle) {
	subs := rs.nodes[h].subs.ToSlice()
	sort.Slice(subs, func(i, j int) bool { return rs.nodes[subs[i]].seq < rs.nodes[subs[j]].seq })
	for _, sub := range subs {
		if sub == rs.activeSub {
			// an effect never re-triggers itself
			continue
		}
		s := &rs.nodes[sub]
		if !s.live || s.flags&fStale != 0 {
			continue
		}
		s.flags |= fStale
		switch s.kind {
		case kindComputed:
			rs.propagate(sub)
		case kindEffect:
			if s.flags&fQueued == 0 {
				s.flags |= fQueued
				rs.queue = append(rs.queue, queued{h: sub, gen: s.gen})
			}
		}
	}
}

// flush is the patch cycle: it runs queued effects, shallowest owner first and
// in creation order among equals, each at most once per round, until nothing
// is queued.
func (rs *ReactiveSystem) flush() {
	if rs.flushing {
		return
	}
	if len(rs.queue) > 0 {
		rs.drain()
	}
	rs.sweep()
}

func (rs *ReactiveSystem) drain() {
	rs.flushing = true
	defer func() { rs.flushing = false }()
	rs.flushes++

	runs := 0
	for len(rs.queue) > 0 {
		round := rs.queue
		rs.queue = nil
		sort.SliceStable(round, func(i, j int) bool {
			a, b := &rs.nodes[round[i].h], &rs.nodes[round[j].h]
			if a.depth != b.depth {
				return a.depth < b.depth
			}
			return a.seq < b.seq
		})

		for i, q := range round {
			if !rs.valid(q.h, q.gen) {
				continue
			}
			rs.nodes[q.h].flags &^= fQueued
			if !rs.needsRun(q.h) {
				rs.nodes[q.h].flags &^= fStale
				continue
			}

			runs++
			if rs.maxRuns > 0 && runs > rs.maxRuns {
				rs.nodes[q.h].flags &^= fStale
				rs.abortFlush(round[i+1:])
				rs.reportError(q.h, fmt.Errorf("%w: more than %d runs in one flush", ErrEffectStorm, rs.maxRuns))
				return
			}
			rs.runEffect(q.h)
		}
	}
}

func (rs *ReactiveSystem) abortFlush(rest []queued) {
	for _, q := range append(rest, rs.queue...) {
		if rs.valid(q.h, q.gen) {
			rs.nodes[q.h].flags &^= fQueued | fStale
		}
	}
	rs.queue = nil
}

// needsRun reports whether any dependency of h changed since h last ran,
// refreshing computed dependencies on the way.
func (rs *ReactiveSystem) needsRun(h Handle) bool {
	n := &rs.nodes[h]
	if n.flags&fInitialized == 0 {
		return true
	}
	if n.flags&fStale == 0 {
		return false
	}
	for dep, seen := range n.deps {
		if rs.nodes[dep].kind == kindComputed {
			rs.refresh(dep)
		}
		if rs.nodes[dep].version != seen {
			return true
		}
	}
	return false
}

func (rs *ReactiveSystem) refresh(h Handle) {
	n := &rs.nodes[h]
	if !n.live || n.flags&fRunning != 0 {
		return
	}
	if n.flags&fInitialized != 0 && n.flags&fStale == 0 {
		return
	}
	if rs.needsRun(h) {
		rs.recompute(h)
		return
	}
	rs.nodes[h].flags &^= fStale
}

func (rs *ReactiveSystem) recompute(h Handle) {
	rs.resetRun(h)

	prevSub, prevOwner := rs.activeSub, rs.activeOwner
	rs.activeSub, rs.activeOwner = h, h
	rs.nodes[h].flags &^= fStale
	rs.nodes[h].flags |= fRunning
	compute := rs.nodes[h].compute
	defer func() {
		rs.activeSub, rs.activeOwner = prevSub, prevOwner
		rs.nodes[h].flags &^= fRunning
	}()

	first := rs.nodes[h].flags&fInitialized == 0
	changed := compute()
	rs.nodes[h].flags |= fInitialized
	if changed || first {
		rs.nodes[h].version++
	}
}

func (rs *ReactiveSystem) runEffect(h Handle) {
	rs.resetRun(h)

	prevSub, prevOwner := rs.activeSub, rs.activeOwner
	rs.activeSub, rs.activeOwner = h, h
	gen := rs.nodes[h].gen
	rs.nodes[h].flags &^= fStale
	rs.nodes[h].flags |= fRunning
	run := rs.nodes[h].run
	rs.effectRuns++
	defer func() {
		rs.activeSub, rs.activeOwner = prevSub, prevOwner
		if rs.valid(h, gen) {
			rs.nodes[h].flags &^= fRunning
			rs.nodes[h].flags |= fInitialized
		}
	}()

	if err := run(); err != nil {
		rs.reportError(h, err)
	}
}

// resetRun drops everything a previous run of h registered: owned nodes,
// cleanups and dependency edges.
func (rs *ReactiveSystem) resetRun(h Handle) {
	rs.disposeOwned(h)
	rs.runCleanups(h)
	rs.unlinkDeps(h)
}

func (rs *ReactiveSystem) disposeOwned(h Handle) {
	owned := rs.nodes[h].owned
	rs.nodes[h].owned = nil
	for i := len(owned) - 1; i >= 0; i-- {
		c := owned[i]
		if rs.nodes[c].live && rs.nodes[c].owner == h {
			rs.nodes[c].owner = 0
			rs.dispose(c, rs.nodes[c].gen)
		}
	}
}

func (rs *ReactiveSystem) runCleanups(h Handle) {
	cleanups := rs.nodes[h].cleanups
	rs.nodes[h].cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (rs *ReactiveSystem) unlinkDeps(h Handle) {
	deps := rs.nodes[h].deps
	if len(deps) == 0 {
		return
	}
	for dep := range deps {
		rs.nodes[dep].subs.Remove(h)
	}
	rs.nodes[h].deps = map[Handle]uint64{}
}

func (rs *ReactiveSystem) dispose(h Handle, gen uint32) {
	if !rs.valid(h, gen) {
		return
	}
	rs.disposeOwned(h)
	rs.runCleanups(h)
	rs.unlinkDeps(h)

	n := &rs.nodes[h]
	for _, sub := range n.subs.ToSlice() {
		delete(rs.nodes[sub].deps, h)
	}
	if owner := n.owner; owner != 0 && rs.nodes[owner].live {
		owned := rs.nodes[owner].owned
		for i, c := range owned {
			if c == h {
				rs.nodes[owner].owned = append(owned[:i], owned[i+1:]...)
				break
			}
		}
	}

	n = &rs.nodes[h]
	*n = node{gen: n.gen}
	rs.free = append(rs.free, h)
}

func (rs *ReactiveSystem) reportError(from Handle, err error) {
	fields := []zap.Field{
		zap.Uint32("handle", uint32(from)),
		zap.Stringer("kind", rs.nodes[from].kind),
		zap.Error(err),
	}
	if errors.Is(err, ErrEffectStorm) {
		rs.logger.Error("effect storm", fields...)
	} else {
		rs.logger.Warn("effect failed", fields...)
	}
	if rs.onError != nil {
		rs.onError(from, err)
	}
}

// OnCleanup registers fn to run when the active effect re-runs or the active
// scope is disposed. Outside any owner it is a no-op.
func OnCleanup(rs *ReactiveSystem, fn func()) {
	if rs.activeOwner == 0 {
		return
	}
	rs.nodes[rs.activeOwner].cleanups = append(rs.nodes[rs.activeOwner].cleanups, fn)
}

// Stats is a snapshot of the arena.
type Stats struct {
	Sources    int
	Computeds  int
	Effects    int
	Scopes     int
	Edges      int
	Free       int
	Flushes    uint64
	EffectRuns uint64
}

// Live is the number of allocated nodes.
func (s Stats) Live() int {
	return s.Sources + s.Computeds + s.Effects + s.Scopes
}

func (rs *ReactiveSystem) Stats() Stats {
	st := Stats{
		Free:       len(rs.free),
		Flushes:    rs.flushes,
		EffectRuns: rs.effectRuns,
	}
	for i := 1; i < len(rs.nodes); i++ {
		n := &rs.nodes[i]
		if !n.live {
			continue
		}
		switch n.kind {
		case kindSource:
			st.Sources++
		case kindComputed:
			st.Computeds++
		case kindEffect:
			st.Effects++
		case kindScope:
			st.Scopes++
		}
		st.Edges += len(n.deps)
	}
	return st
}
