package meta

import (
	"fmt"
	"reflect"
)

// TryCreate instantiates t as a T. Constructors are tried in order and the
// first one that accepts args and yields a T wins. A type without
// constructors is default-constructed when args is empty.
func TryCreate[T any](t *TypeData, args ...any) (T, bool) {
	var zero T
	if t == nil {
		return zero, false
	}

	ctors := t.Constructors()
	for _, c := range ctors {
		if len(c.Parameters()) != len(args) {
			continue
		}
		v, err := c.Invoke(nil, args...)
		if err != nil {
			continue
		}
		if out, ok := v.(T); ok {
			return out, true
		}
	}
	if len(ctors) > 0 || len(args) > 0 {
		return zero, false
	}

	v, err := t.newDefault()
	if err != nil {
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

func (t *TypeData) newDefault() (v any, err error) {
	defer t.recoverInto(&err)
	return t.raw.New()
}

// InvokeAs invokes m and returns its result as a T. A nil result is the zero
// T when T can hold nil, and an ErrResultType failure otherwise.
func InvokeAs[T any](m Invocable, target any, args ...any) (T, error) {
	var zero T
	v, err := m.Base().Invoke(target, args...)
	if err != nil {
		return zero, err
	}
	if v == nil {
		if nilable(reflect.TypeFor[T]()) {
			return zero, nil
		}
		return zero, &InvokeError{
			Member: m.Path(),
			Err:    fmt.Errorf("%w: nil is not %T", ErrResultType, zero),
		}
	}
	out, ok := v.(T)
	if !ok {
		return zero, &InvokeError{
			Member: m.Path(),
			Err:    fmt.Errorf("%w: %T is not %T", ErrResultType, v, zero),
		}
	}
	return out, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// TryInvokeAs is InvokeAs reporting failure as false.
func TryInvokeAs[T any](m Invocable, target any, args ...any) (T, bool) {
	v, err := InvokeAs[T](m, target, args...)
	return v, err == nil
}

// ValueAccessor is implemented by fields and properties.
type ValueAccessor interface {
	Member
	Value(instance any) (any, error)
	SetValue(instance, value any) error
}

// TryGetValue reads a field or property as a T.
func TryGetValue[T any](a ValueAccessor, instance any) (T, bool) {
	var zero T
	v, err := a.Value(instance)
	if err != nil {
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// TrySetValue writes a field or property, reporting failure as false.
func TrySetValue(a ValueAccessor, instance, value any) bool {
	return a.SetValue(instance, value) == nil
}
