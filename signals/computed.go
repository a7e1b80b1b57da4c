package signals

// Readable is the read contract shared by signals and computeds.
type Readable[T any] interface {
	Value() T
	Peek() T
}

type ReadonlySignal[T comparable] struct {
	rs     *ReactiveSystem
	h      Handle
	gen    uint32
	value  T
	getter func(oldValue T) T
}

// Value returns the memoised value, recomputing it first if any of its
// dependencies changed since the last computation.
func (s *ReadonlySignal[T]) Value() T {
	if s.rs.valid(s.h, s.gen) {
		s.rs.refresh(s.h)
		s.rs.track(s.h, s.gen)
	}
	return s.value
}

// Peek returns the memoised value, refreshing it if needed, without tracking.
func (s *ReadonlySignal[T]) Peek() T {
	if s.rs.valid(s.h, s.gen) {
		s.rs.refresh(s.h)
	}
	return s.value
}

func (s *ReadonlySignal[T]) Handle() Handle {
	return s.h
}

func (s *ReadonlySignal[T]) Dispose() {
	s.rs.dispose(s.h, s.gen)
}

func (s *ReadonlySignal[T]) cas() (wasDifferent bool) {
	oldValue := s.value
	newValue := s.getter(oldValue)
	wasDifferent = oldValue != newValue
	s.value = newValue
	return wasDifferent
}

// Computed creates a lazily evaluated derived value. getter receives the
// previous value and runs again only when something it read has changed.
func Computed[T comparable](rs *ReactiveSystem, getter func(oldValue T) T) *ReadonlySignal[T] {
	h := rs.alloc(kindComputed, true)
	c := &ReadonlySignal[T]{
		rs:     rs,
		h:      h,
		gen:    rs.nodes[h].gen,
		getter: getter,
	}
	rs.nodes[h].compute = c.cas
	return c
}
