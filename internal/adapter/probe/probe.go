// Package probe resolves platform record fields by name at runtime.
//
// Some technologies change their accessor surface between platform revisions
// faster than adapters can be updated. Instead of binding those accessors at
// compile time, the probe walks a prioritized list of candidate names over
// KeyValuer lookups, map keys, exported struct fields and zero-argument
// methods. The first candidate that resolves without error wins. Every probe
// failure, panics included, is swallowed and reported as an unresolved
// candidate.
package probe

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// ErrNotFound is returned when no candidate name resolves on an object.
var ErrNotFound = errors.New("probe: no candidate resolved")

// KeyValuer is implemented by platform objects that support key-value
// lookups natively. It takes precedence over reflection.
type KeyValuer interface {
	ValueForKey(key string) (any, error)
}

// Lookup resolves a single name on obj.
func Lookup(obj any, name string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("probe %q: panic: %v", name, r)
		}
	}()

	if obj == nil || name == "" {
		return nil, ErrNotFound
	}

	if kv, ok := obj.(KeyValuer); ok {
		v, err := kv.ValueForKey(name)
		if err == nil && v != nil {
			return v, nil
		}
	}

	rv := reflect.ValueOf(obj)
	if v, ok := lookupMethod(rv, name, nil); ok {
		return unpackResult(name, v)
	}

	base := indirect(rv)
	switch base.Kind() {
	case reflect.Map:
		if v, ok := lookupMapKey(base, name); ok {
			return v, nil
		}
	case reflect.Struct:
		if v, ok := lookupField(base, name); ok {
			return v, nil
		}
	}

	return nil, ErrNotFound
}

// Call resolves a method by name and invokes it with string arguments.
// Selector-style names ("signalStrengthForService:") are accepted.
func Call(obj any, name string, args ...string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("probe call %q: panic: %v", name, r)
		}
	}()

	if obj == nil {
		return nil, ErrNotFound
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	if v, ok := lookupMethod(reflect.ValueOf(obj), name, in); ok {
		return unpackResult(name, v)
	}
	return nil, ErrNotFound
}

// First tries candidates in order and returns the first value that resolves
// together with the candidate name that produced it.
func First(obj any, candidates ...string) (any, string, error) {
	for _, name := range candidates {
		v, err := Lookup(obj, name)
		if err == nil && !isNil(v) {
			return v, name, nil
		}
	}
	return nil, "", ErrNotFound
}

// goNames returns the Go identifiers a candidate name may map to.
func goNames(name string) []string {
	trimmed := strings.TrimRight(name, ":")
	trimmed = strings.TrimLeft(trimmed, "_")
	if trimmed == "" {
		return nil
	}
	names := []string{trimmed}
	r := []rune(trimmed)
	if unicode.IsLower(r[0]) {
		r[0] = unicode.ToUpper(r[0])
		names = append(names, string(r))
	}
	return names
}

func lookupMethod(rv reflect.Value, name string, args []reflect.Value) ([]reflect.Value, bool) {
	if !rv.IsValid() {
		return nil, false
	}
	for _, n := range goNames(name) {
		m := rv.MethodByName(n)
		if !m.IsValid() {
			continue
		}
		mt := m.Type()
		if mt.NumIn() != len(args) || mt.NumOut() == 0 || mt.NumOut() > 2 {
			continue
		}
		ok := true
		for i, a := range args {
			if !a.Type().AssignableTo(mt.In(i)) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		return m.Call(args), true
	}
	return nil, false
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func unpackResult(name string, out []reflect.Value) (any, error) {
	if len(out) == 2 {
		second := out[1]
		switch {
		case second.Type().Implements(errorType):
			if !second.IsNil() {
				return nil, fmt.Errorf("probe %q: %w", name, second.Interface().(error))
			}
		case second.Kind() == reflect.Bool:
			if !second.Bool() {
				return nil, ErrNotFound
			}
		}
	}
	v := out[0].Interface()
	if isNil(v) {
		return nil, ErrNotFound
	}
	return v, nil
}

func lookupMapKey(m reflect.Value, name string) (any, bool) {
	if m.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := []string{name, strings.TrimRight(name, ":")}
	for _, k := range keys {
		v := m.MapIndex(reflect.ValueOf(k).Convert(m.Type().Key()))
		if v.IsValid() && !isNil(v.Interface()) {
			return v.Interface(), true
		}
	}
	return nil, false
}

func lookupField(s reflect.Value, name string) (any, bool) {
	for _, n := range goNames(name) {
		f := s.FieldByName(n)
		if !f.IsValid() || !f.CanInterface() {
			continue
		}
		v := f.Interface()
		if isNil(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
