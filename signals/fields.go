package signals

// Fields backs generated accessor pairs: one source handle per declared
// reactive field, addressed by the field's position. Embed it in a struct
// and call Init before the first access.
type Fields struct {
	rs      *ReactiveSystem
	handles []Handle
}

func (f *Fields) Init(rs *ReactiveSystem, count int) {
	f.Release()
	f.rs = rs
	f.handles = make([]Handle, count)
	for i := range f.handles {
		f.handles[i] = rs.NewSource()
	}
}

// Track records a read of field i.
func (f *Fields) Track(i int) {
	if f.rs == nil || i >= len(f.handles) {
		return
	}
	f.rs.Track(f.handles[i])
}

// Trigger records a write of field i.
func (f *Fields) Trigger(i int) {
	if f.rs == nil || i >= len(f.handles) {
		return
	}
	f.rs.Trigger(f.handles[i])
}

func (f *Fields) Release() {
	if f.rs == nil {
		return
	}
	for _, h := range f.handles {
		f.rs.Release(h)
	}
	f.handles = nil
}
