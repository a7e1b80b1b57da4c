package signals

import (
	"reflect"
	"sort"
)

// Observe wraps maps with string keys into *Object and slices into *List so
// reads and writes through them are tracked. Other values are returned as is.
func Observe(rs *ReactiveSystem, value any) any {
	w, _ := wrap(rs, value)
	return w
}

func wrap(rs *ReactiveSystem, value any) (any, bool) {
	switch v := value.(type) {
	case nil, *Object, *List, []byte, string:
		return value, false
	case map[string]any:
		return NewObject(rs, v), true
	case []any:
		return NewList(rs, v), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return NewList(rs, items), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return value, false
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return NewObject(rs, m), true
	}
	return value, false
}

func unwrap(value any) any {
	switch v := value.(type) {
	case *Object:
		return v.Raw()
	case *List:
		return v.Raw()
	}
	return value
}

func disposeWrapped(value any) {
	switch v := value.(type) {
	case *Object:
		v.dispose()
	case *List:
		v.dispose()
	}
}

// trimmer is an observed value that can drop the handles nobody depends on.
type trimmer interface {
	trim() bool
}

// detach records that a container stopped holding value. Detached values are
// not disposed: the caller may still hold them or write them back. Instead
// every sweep releases their idle handles, and they are forgotten once none
// are left or a container takes them again.
func (rs *ReactiveSystem) detach(value any) {
	t, ok := value.(trimmer)
	if !ok {
		return
	}
	if rs.detached == nil {
		rs.detached = map[trimmer]struct{}{}
	}
	rs.detached[t] = struct{}{}
}

func (rs *ReactiveSystem) adopt(value any) {
	if t, ok := value.(trimmer); ok && rs.detached != nil {
		delete(rs.detached, t)
	}
}

// sweep trims detached values. A released handle is reallocated on the next
// read, so trimming a value that is still in use only costs a handle.
func (rs *ReactiveSystem) sweep() {
	for t := range rs.detached {
		if t.trim() {
			delete(rs.detached, t)
		}
	}
}

// idle reports whether h can be released without losing a subscriber.
func (rs *ReactiveSystem) idle(h Handle) bool {
	return !rs.nodes[h].live || rs.nodes[h].subs.Cardinality() == 0
}

// Object is an observed record. Every key gets its own dependency handle the
// first time it is read or written, so effects only re-run for the keys they
// actually touched. Nested maps and slices are wrapped on first read.
type Object struct {
	rs     *ReactiveSystem
	fields map[string]any
	order  []string
	keys   map[string]Handle
	// shape changes whenever a key is added or removed
	shape    Handle
	disposed bool
}

// NewObject copies fields into a new observed record. Keys are ordered
// alphabetically; later additions are appended.
func NewObject(rs *ReactiveSystem, fields map[string]any) *Object {
	o := &Object{
		rs:     rs,
		fields: make(map[string]any, len(fields)),
		keys:   map[string]Handle{},
	}
	for k, v := range fields {
		o.fields[k] = v
		o.order = append(o.order, k)
		rs.adopt(v)
	}
	sort.Strings(o.order)
	return o
}

func (o *Object) handle(key string) Handle {
	if o.disposed {
		return 0
	}
	h, ok := o.keys[key]
	if !ok {
		h = o.rs.NewSource()
		o.keys[key] = h
	}
	return h
}

func (o *Object) shapeHandle() Handle {
	if o.disposed {
		return 0
	}
	if o.shape == 0 {
		o.shape = o.rs.NewSource()
	}
	return o.shape
}

// Get returns the value at key and tracks (object, key).
func (o *Object) Get(key string) any {
	o.rs.Track(o.handle(key))
	return o.peek(key)
}

// Peek returns the value at key without tracking.
func (o *Object) Peek(key string) any {
	return o.peek(key)
}

func (o *Object) peek(key string) any {
	v, ok := o.fields[key]
	if !ok || o.disposed {
		return v
	}
	if w, wrapped := wrap(o.rs, v); wrapped {
		o.fields[key] = w
		return w
	}
	return v
}

// Has reports whether key exists, tracking the key.
func (o *Object) Has(key string) bool {
	o.rs.Track(o.handle(key))
	_, ok := o.fields[key]
	return ok
}

// Set stores value at key and notifies the key's subscribers when it changed.
// Adding a new key also notifies Keys readers.
func (o *Object) Set(key string, value any) {
	old, had := o.fields[key]
	if had && SameValue(old, value) {
		return
	}
	if had {
		o.rs.detach(old)
	}
	o.rs.adopt(value)
	o.fields[key] = value
	if !had {
		o.order = append(o.order, key)
	}
	if o.disposed {
		return
	}

	o.rs.Batch(func() {
		if !had {
			o.rs.Trigger(o.shapeHandle())
		}
		o.rs.Trigger(o.handle(key))
	})
}

// Delete removes key, notifying its subscribers and Keys readers.
func (o *Object) Delete(key string) {
	old, had := o.fields[key]
	if !had {
		return
	}
	delete(o.fields, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	o.rs.detach(old)
	if o.disposed {
		return
	}

	o.rs.Batch(func() {
		o.rs.Trigger(o.shapeHandle())
		if h, ok := o.keys[key]; ok {
			o.rs.Trigger(h)
		}
	})
}

// Keys returns the keys in order, tracking additions and removals.
func (o *Object) Keys() []string {
	o.rs.Track(o.shapeHandle())
	keys := make([]string, len(o.order))
	copy(keys, o.order)
	return keys
}

// Raw returns an untracked deep copy with nested observed values unwrapped.
func (o *Object) Raw() map[string]any {
	m := make(map[string]any, len(o.fields))
	for k, v := range o.fields {
		m[k] = unwrap(v)
	}
	return m
}

// Dispose releases every handle the object and the observed values it holds
// allocated. The object keeps working as a plain, untracked record.
func (o *Object) Dispose() {
	o.dispose()
	o.rs.sweep()
}

func (o *Object) dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	for _, v := range o.fields {
		disposeWrapped(v)
	}
	for _, h := range o.keys {
		o.rs.Release(h)
	}
	o.keys = map[string]Handle{}
	if o.shape != 0 {
		o.rs.Release(o.shape)
		o.shape = 0
	}
}

// trim releases the idle handles of the object and the values it holds and
// reports whether none are left.
func (o *Object) trim() bool {
	if o.disposed {
		return true
	}
	done := true
	for k, h := range o.keys {
		if !o.rs.idle(h) {
			done = false
			continue
		}
		o.rs.Release(h)
		delete(o.keys, k)
	}
	if o.shape != 0 {
		if o.rs.idle(o.shape) {
			o.rs.Release(o.shape)
			o.shape = 0
		} else {
			done = false
		}
	}
	for _, v := range o.fields {
		if t, ok := v.(trimmer); ok && !t.trim() {
			done = false
		}
	}
	return done
}
