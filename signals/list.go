package signals

// List is an observed sequence. Each index has its own dependency handle and
// the synthetic length key changes whenever the length does, so loops that
// only read the length are not re-run by in-place writes.
type List struct {
	rs     *ReactiveSystem
	items  []any
	index  []Handle
	length Handle
	// disposed lists keep their items but track nothing
	disposed bool
}

func NewList(rs *ReactiveSystem, items []any) *List {
	l := &List{
		rs:    rs,
		items: make([]any, len(items)),
	}
	copy(l.items, items)
	for _, v := range items {
		rs.adopt(v)
	}
	return l
}

func (l *List) lengthHandle() Handle {
	if l.disposed {
		return 0
	}
	if l.length == 0 {
		l.length = l.rs.NewSource()
	}
	return l.length
}

func (l *List) indexHandle(i int) Handle {
	if l.disposed {
		return 0
	}
	for len(l.index) <= i {
		l.index = append(l.index, 0)
	}
	if l.index[i] == 0 {
		l.index[i] = l.rs.NewSource()
	}
	return l.index[i]
}

// Len returns the length, tracking the length key.
func (l *List) Len() int {
	l.rs.Track(l.lengthHandle())
	return len(l.items)
}

// At returns item i, tracking that index. Out of range reads return nil and
// still track, so a later write that grows the list is seen.
func (l *List) At(i int) any {
	if i < 0 {
		return nil
	}
	l.rs.Track(l.indexHandle(i))
	if i >= len(l.items) {
		l.rs.Track(l.lengthHandle())
		return nil
	}
	return l.peek(i)
}

func (l *List) Peek(i int) any {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.peek(i)
}

func (l *List) peek(i int) any {
	v := l.items[i]
	if l.disposed {
		return v
	}
	if w, ok := wrap(l.rs, v); ok {
		l.items[i] = w
		return w
	}
	return v
}

// Items returns a copy of every item, tracking the length and each index.
func (l *List) Items() []any {
	n := l.Len()
	out := make([]any, n)
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

// Set writes item i, growing the list with nils when i is past the end.
func (l *List) Set(i int, value any) {
	if i < 0 {
		return
	}
	if i >= len(l.items) {
		grow := make([]any, i+1-len(l.items))
		grow[len(grow)-1] = value
		l.Splice(len(l.items), 0, grow...)
		return
	}
	if SameValue(l.items[i], value) {
		return
	}
	l.rs.detach(l.items[i])
	l.rs.adopt(value)
	l.items[i] = value
	if l.disposed || i >= len(l.index) || l.index[i] == 0 {
		return
	}
	l.rs.Trigger(l.index[i])
}

func (l *List) Append(values ...any) {
	l.Splice(len(l.items), 0, values...)
}

// Splice removes deleteCount items at start, inserts values in their place and
// returns the removed items. Every index whose value changed is notified, and
// the length key when the length changed, all in one batch.
func (l *List) Splice(start, deleteCount int, values ...any) []any {
	n := len(l.items)
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := make([]any, deleteCount)
	for i := 0; i < deleteCount; i++ {
		removed[i] = unwrap(l.items[start+i])
	}

	next := make([]any, 0, n-deleteCount+len(values))
	next = append(next, l.items[:start]...)
	next = append(next, values...)
	next = append(next, l.items[start+deleteCount:]...)

	for _, v := range l.items[start : start+deleteCount] {
		l.rs.detach(v)
	}
	for _, v := range values {
		l.rs.adopt(v)
	}

	old := l.items
	l.items = next
	if l.disposed {
		return removed
	}

	l.rs.Batch(func() {
		limit := max(len(old), len(next))
		for i := start; i < limit; i++ {
			if i < len(old) && i < len(next) && SameValue(old[i], next[i]) {
				continue
			}
			if i < len(l.index) && l.index[i] != 0 {
				l.rs.Trigger(l.index[i])
			}
		}
		if len(old) != len(next) && l.length != 0 {
			l.rs.Trigger(l.length)
		}
	})
	return removed
}

// Resize truncates or pads the list with nils to n items.
func (l *List) Resize(n int) {
	switch {
	case n < len(l.items):
		l.Splice(n, len(l.items)-n)
	case n > len(l.items):
		l.Splice(len(l.items), 0, make([]any, n-len(l.items))...)
	}
}

// Replace swaps the whole content for items.
func (l *List) Replace(items []any) {
	l.Splice(0, len(l.items), items...)
}

// Raw returns an untracked deep copy with nested observed values unwrapped.
func (l *List) Raw() []any {
	out := make([]any, len(l.items))
	for i, v := range l.items {
		out[i] = unwrap(v)
	}
	return out
}

// Dispose releases every handle the list and the observed values it holds
// allocated. The list keeps its items but tracks nothing.
func (l *List) Dispose() {
	l.dispose()
	l.rs.sweep()
}

func (l *List) dispose() {
	if l.disposed {
		return
	}
	l.disposed = true
	for _, v := range l.items {
		disposeWrapped(v)
	}
	for _, h := range l.index {
		if h != 0 {
			l.rs.Release(h)
		}
	}
	l.index = nil
	if l.length != 0 {
		l.rs.Release(l.length)
		l.length = 0
	}
}

// trim releases the idle handles of the list and the values it holds and
// reports whether none are left.
func (l *List) trim() bool {
	if l.disposed {
		return true
	}
	done := true
	for i, h := range l.index {
		if h == 0 {
			continue
		}
		if !l.rs.idle(h) {
			done = false
			continue
		}
		l.rs.Release(h)
		l.index[i] = 0
	}
	if l.length != 0 {
		if l.rs.idle(l.length) {
			l.rs.Release(l.length)
			l.length = 0
		} else {
			done = false
		}
	}
	for _, v := range l.items {
		if t, ok := v.(trimmer); ok && !t.trim() {
			done = false
		}
	}
	return done
}
