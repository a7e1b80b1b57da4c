package signals

import "reflect"

// SameValue is the change test used for untyped state. Values of different
// dynamic types are never equal, functions are never equal to each other,
// pointers compare by identity and everything else compares by value.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Func:
		return false
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a == b
	}
	if ta.Comparable() {
		return comparableEqual(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// comparableEqual guards against structs whose interface fields hold
// uncomparable values.
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
