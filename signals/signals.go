package signals

// WriteableSignal is a single mutable cell with its own arena handle.
type WriteableSignal[T any] struct {
	rs    *ReactiveSystem
	h     Handle
	gen   uint32
	value T
	equal func(a, b T) bool
}

// Value returns the current value and, inside a running effect or computed,
// records a dependency on it.
func (s *WriteableSignal[T]) Value() T {
	s.rs.track(s.h, s.gen)
	return s.value
}

// Peek returns the current value without tracking.
func (s *WriteableSignal[T]) Peek() T {
	return s.value
}

// SetValue stores v and notifies subscribers, unless v equals the current
// value.
func (s *WriteableSignal[T]) SetValue(v T) {
	if s.equal(s.value, v) {
		return
	}
	s.value = v
	s.rs.trigger(s.h, s.gen)
}

func (s *WriteableSignal[T]) Update(fn func(oldValue T) T) {
	s.SetValue(fn(s.value))
}

func (s *WriteableSignal[T]) Handle() Handle {
	return s.h
}

// Dispose releases the signal's handle. The value stays readable but is no
// longer tracked.
func (s *WriteableSignal[T]) Dispose() {
	s.rs.dispose(s.h, s.gen)
}

// Signal creates a cell compared with ==. It is owned by the active scope or
// effect, if any.
func Signal[T comparable](rs *ReactiveSystem, initialValue T) *WriteableSignal[T] {
	return SignalFunc(rs, initialValue, func(a, b T) bool { return a == b })
}

// SignalFunc creates a cell compared with equal.
func SignalFunc[T any](rs *ReactiveSystem, initialValue T, equal func(a, b T) bool) *WriteableSignal[T] {
	h := rs.alloc(kindSource, true)
	return &WriteableSignal[T]{
		rs:    rs,
		h:     h,
		gen:   rs.nodes[h].gen,
		value: initialValue,
		equal: equal,
	}
}

// AnySignal creates a cell holding arbitrary values compared with SameValue.
func AnySignal(rs *ReactiveSystem, initialValue any) *WriteableSignal[any] {
	return SignalFunc(rs, initialValue, SameValue)
}
