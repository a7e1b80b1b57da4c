package signals

type ErrFn func() error

// Effect runs fn immediately and again whenever anything it read changes.
// Each run starts from an empty dependency set, and effects created during a
// run are disposed before the next one. The returned function stops it.
func Effect(rs *ReactiveSystem, fn ErrFn) ErrFn {
	h := rs.alloc(kindEffect, true)
	gen := rs.nodes[h].gen
	rs.nodes[h].run = fn
	rs.runEffect(h)

	return func() error {
		rs.dispose(h, gen)
		return nil
	}
}

// Scope owns effects, computeds, signals and cleanups created while it runs,
// and disposes all of them at once.
type Scope struct {
	rs  *ReactiveSystem
	h   Handle
	gen uint32
}

// NewScope creates a scope owned by the active scope or effect, if any.
func NewScope(rs *ReactiveSystem) *Scope {
	h := rs.alloc(kindScope, true)
	return &Scope{rs: rs, h: h, gen: rs.nodes[h].gen}
}

// Run executes fn with the scope as owner and with tracking paused, so the
// caller's subscriber does not pick up the reads fn makes.
func (s *Scope) Run(fn func() error) error {
	rs := s.rs
	if !rs.valid(s.h, s.gen) {
		return ErrDisposed
	}
	prevSub, prevOwner := rs.activeSub, rs.activeOwner
	rs.activeSub, rs.activeOwner = 0, s.h
	defer func() {
		rs.activeSub, rs.activeOwner = prevSub, prevOwner
	}()
	return fn()
}

// OnDispose registers fn to run when the scope is disposed.
func (s *Scope) OnDispose(fn func()) {
	if !s.rs.valid(s.h, s.gen) {
		return
	}
	s.rs.nodes[s.h].cleanups = append(s.rs.nodes[s.h].cleanups, fn)
}

func (s *Scope) Alive() bool {
	return s.rs.valid(s.h, s.gen)
}

func (s *Scope) Handle() Handle {
	return s.h
}

func (s *Scope) Dispose() {
	s.rs.dispose(s.h, s.gen)
}

// EffectScope runs scopedFn inside a new Scope and returns its stop function.
func EffectScope(rs *ReactiveSystem, scopedFn ErrFn) (stopScope ErrFn) {
	s := NewScope(rs)
	if err := s.Run(scopedFn); err != nil {
		rs.reportError(s.h, err)
	}
	return func() error {
		s.Dispose()
		return nil
	}
}
