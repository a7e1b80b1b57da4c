package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Observed containers are reached through these method sets so the
// evaluator does not depend on a particular reactive implementation.
type (
	keyGetter interface {
		Get(key string) any
	}
	keySetter interface {
		Set(key string, value any)
	}
	keyLister interface {
		Keys() []string
	}
	indexGetter interface {
		Len() int
		At(i int) any
	}
	indexSetter interface {
		Set(i int, value any)
	}
)

type number struct {
	i     int
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) value() any {
	if n.isInt {
		return n.i
	}
	return n.f
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{i: x, isInt: true}, true
	case int8:
		return number{i: int(x), isInt: true}, true
	case int16:
		return number{i: int(x), isInt: true}, true
	case int32:
		return number{i: int(x), isInt: true}, true
	case int64:
		return number{i: int(x), isInt: true}, true
	case uint:
		return number{i: int(x), isInt: true}, true
	case uint8:
		return number{i: int(x), isInt: true}, true
	case uint16:
		return number{i: int(x), isInt: true}, true
	case uint32:
		return number{i: int(x), isInt: true}, true
	case uint64:
		return number{i: int(x), isInt: true}, true
	case float32:
		return number{f: float64(x)}, true
	case float64:
		return number{f: x}, true
	}
	return number{}, false
}

// AsFloat reports v as a float64 when it is any Go number. Values Equal
// considers equal convert to the same float.
func AsFloat(v any) (float64, bool) {
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return n.float(), true
}

// ParseNumber converts s the way numeric form inputs are read: integral
// values become int, others float64.
func ParseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func applyBinary(op string, l, r any) (any, error) {
	switch op {
	case "==", "===":
		return Equal(l, r), nil
	case "!=", "!==":
		return !Equal(l, r), nil
	}

	if op == "+" {
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return Stringify(l) + Stringify(r), nil
		}
	}

	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if !lok || !rok {
		if op == "<" || op == "<=" || op == ">" || op == ">=" {
			ls, lok := l.(string)
			rs, rok := r.(string)
			if lok && rok {
				return compareOrdered(op, strings.Compare(ls, rs)), nil
			}
		}
		return nil, fmt.Errorf("expr: cannot apply %s to %T and %T", op, l, r)
	}

	bothInt := ln.isInt && rn.isInt
	switch op {
	case "+":
		if bothInt {
			return ln.i + rn.i, nil
		}
		return ln.float() + rn.float(), nil
	case "-":
		if bothInt {
			return ln.i - rn.i, nil
		}
		return ln.float() - rn.float(), nil
	case "*":
		if bothInt {
			return ln.i * rn.i, nil
		}
		return ln.float() * rn.float(), nil
	case "/":
		if rn.float() == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		if bothInt && ln.i%rn.i == 0 {
			return ln.i / rn.i, nil
		}
		return ln.float() / rn.float(), nil
	case "%":
		if rn.float() == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		if bothInt {
			return ln.i % rn.i, nil
		}
		return math.Mod(ln.float(), rn.float()), nil
	case "<", "<=", ">", ">=":
		a, b := ln.float(), rn.float()
		c := 0
		if a < b {
			c = -1
		} else if a > b {
			c = 1
		}
		return compareOrdered(op, c), nil
	}
	return nil, fmt.Errorf("expr: unknown operator %s", op)
}

func compareOrdered(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	default:
		return c >= 0
	}
}

// Equal compares numbers by value across int and float kinds and every other
// value with ==. Uncomparable values are only equal to nothing.
func Equal(a, b any) (eq bool) {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return an.float() == bn.float()
		}
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if n, ok := toNumber(v); ok {
		f := n.float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// Stringify renders v for text output. nil renders as the empty string and
// containers render as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	if n, ok := toNumber(v); ok {
		return Stringify(n.value())
	}
	if plain, ok := toPlain(v); ok {
		b, err := json.Marshal(plain)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toPlain(v any) (any, bool) {
	switch x := v.(type) {
	case indexGetter:
		out := make([]any, x.Len())
		for i := range out {
			out[i], _ = toPlain(x.At(i))
		}
		return out, true
	case keyLister:
		g, ok := v.(keyGetter)
		if !ok {
			return nil, false
		}
		out := map[string]any{}
		for _, k := range x.Keys() {
			out[k], _ = toPlain(g.Get(k))
		}
		return out, true
	case []any, map[string]any:
		return x, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return v, true
	}
	return v, false
}

// Call invokes fn with args when fn is one of the supported callable shapes.
func Call(fn any, args ...any) (any, error) {
	switch f := fn.(type) {
	case Func:
		return f(args...)
	case Callable:
		return f.Call(args...)
	case func(...any) (any, error):
		return f(args...)
	case func(...any) any:
		return f(args...), nil
	case func():
		f()
		return nil, nil
	case func() any:
		return f(), nil
	case func() error:
		return nil, f()
	case func(any):
		f(first(args))
		return nil, nil
	case func(any) any:
		return f(first(args)), nil
	case func(any) error:
		return nil, f(first(args))
	}
	return nil, fmt.Errorf("%w: %T", ErrNotCallable, fn)
}

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func toIndex(key any) (int, bool) {
	switch k := key.(type) {
	case string:
		i, err := strconv.Atoi(k)
		return i, err == nil
	default:
		n, ok := toNumber(key)
		if !ok || (!n.isInt && n.f != math.Trunc(n.f)) {
			return 0, false
		}
		return int(n.float()), true
	}
}

func getMember(obj, key any) (any, error) {
	name := Stringify(key)
	switch o := obj.(type) {
	case nil:
		return nil, fmt.Errorf("expr: cannot read property %q of null", name)
	case indexGetter:
		if name == "length" {
			return o.Len(), nil
		}
		if i, ok := toIndex(key); ok && i >= 0 && i < o.Len() {
			return o.At(i), nil
		}
		return nil, nil
	case keyGetter:
		return o.Get(name), nil
	case map[string]any:
		return o[name], nil
	case []any:
		if name == "length" {
			return len(o), nil
		}
		if i, ok := toIndex(key); ok && i >= 0 && i < len(o) {
			return o[i], nil
		}
		return nil, nil
	case string:
		if name == "length" {
			return utf8.RuneCountInString(o), nil
		}
		runes := []rune(o)
		if i, ok := toIndex(key); ok && i >= 0 && i < len(runes) {
			return string(runes[i]), nil
		}
		return nil, nil
	}
	return reflectMember(obj, key, name)
}

func reflectMember(obj, key any, name string) (any, error) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("expr: cannot read property %q of null", name)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Slice, reflect.Array:
		if name == "length" {
			return rv.Len(), nil
		}
		if i, ok := toIndex(key); ok && i >= 0 && i < rv.Len() {
			return rv.Index(i).Interface(), nil
		}
		return nil, nil
	case reflect.Struct:
		f := rv.FieldByName(exportedName(name))
		if !f.IsValid() || !f.CanInterface() {
			return nil, nil
		}
		return f.Interface(), nil
	}
	return nil, fmt.Errorf("expr: cannot read property %q of %T", name, obj)
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func setMember(obj, key, value any) error {
	name := Stringify(key)
	switch o := obj.(type) {
	case nil:
		return fmt.Errorf("expr: cannot set property %q of null", name)
	case indexSetter:
		i, ok := toIndex(key)
		if !ok || i < 0 {
			return fmt.Errorf("%w: index %q", ErrNotAssignable, name)
		}
		o.Set(i, value)
		return nil
	case keySetter:
		o.Set(name, value)
		return nil
	case map[string]any:
		o[name] = value
		return nil
	case []any:
		i, ok := toIndex(key)
		if !ok || i < 0 || i >= len(o) {
			return fmt.Errorf("%w: index %q", ErrNotAssignable, name)
		}
		o[i] = value
		return nil
	}
	return fmt.Errorf("%w: property %q of %T", ErrNotAssignable, name, obj)
}
