package state

import "reflect"

// EqualFunc compares two values for equality.
type EqualFunc[T any] func(a, b T) bool

// EqualComparable compares comparable values with ==.
func EqualComparable[T comparable](a, b T) bool {
	return a == b
}

// StrictEqual is the default change gate. Comparable values use ==.
// Slices match when they share a backing array and length; maps, channels
// and pointers match by identity. Functions and values that cannot be
// compared always count as changed.
func StrictEqual[T any](a, b T) bool {
	return strictEqual(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
}

func strictEqual(a, b reflect.Value) bool {
	if a.Kind() == reflect.Interface {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		a, b = a.Elem(), b.Elem()
		if a.Type() != b.Type() {
			return false
		}
	}
	switch a.Kind() {
	case reflect.Slice:
		return a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	}
	if a.Comparable() && b.Comparable() {
		return a.Equal(b)
	}
	return false
}
