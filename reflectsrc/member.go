package reflectsrc

import (
	"fmt"
	"go/token"
	"reflect"
	"strconv"

	"github.com/skdltmxn/typemeta/raw"
)

// Field describes one struct field.
type Field struct {
	src   *Source
	owner reflect.Type
	index int
}

func (f Field) field() reflect.StructField { return f.owner.Field(f.index) }

func (f Field) Name() string { return f.field().Name }

func (f Field) Access() raw.Access {
	if f.field().IsExported() {
		return raw.AccessPublic
	}
	return raw.AccessAssembly
}

func (f Field) Static() bool  { return false }
func (f Field) Special() bool { return f.field().Name == "_" }

func (f Field) DeclaringType() raw.Type { return f.src.Type(f.owner) }
func (f Field) Type() raw.Type          { return f.src.Type(f.field().Type) }

// Attributes returns the annotations of the field followed by its struct
// tags as raw.Tag values.
func (f Field) Attributes() ([]any, error) {
	out := f.src.annotations(f.owner, f.Name())
	tags, err := raw.ParseTag(string(f.field().Tag))
	if err != nil {
		return nil, fmt.Errorf("reflectsrc: field %s.%s: %w", f.owner, f.Name(), err)
	}
	for _, t := range tags {
		out = append(out, t)
	}
	return out, nil
}

func (f Field) Get(instance any) (any, error) {
	v, ok := locate(reflect.ValueOf(instance), f.owner)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not %s", raw.ErrTargetMismatch, instance, f.owner)
	}
	fv := v.Field(f.index)
	if !fv.CanInterface() {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnexported, f.owner, f.Name())
	}
	return fv.Interface(), nil
}

func (f Field) Set(instance, value any) error {
	v, ok := locate(reflect.ValueOf(instance), f.owner)
	if !ok {
		return fmt.Errorf("%w: %T is not %s", raw.ErrTargetMismatch, instance, f.owner)
	}
	fv := v.Field(f.index)
	switch {
	case !fv.CanInterface():
		return fmt.Errorf("%w: %s.%s", ErrUnexported, f.owner, f.Name())
	case !fv.CanSet():
		return fmt.Errorf("%w: %T", ErrNotAddressable, instance)
	}
	nv, err := convert(value, fv.Type())
	if err != nil {
		return err
	}
	fv.Set(nv)
	return nil
}

func (f Field) String() string { return f.owner.String() + "." + f.Name() }

// Property describes a getter and setter method pair.
type Property struct {
	src            *Source
	owner          reflect.Type
	name           string
	getter, setter string
}

func (p Property) Name() string            { return p.name }
func (p Property) DeclaringType() raw.Type { return p.src.Type(p.owner) }

func (p Property) Type() raw.Type {
	return p.Getter().ReturnType()
}

func (p Property) Getter() raw.Method {
	if p.getter == "" {
		return nil
	}
	return Method{src: p.src, owner: p.owner, name: p.getter}
}

func (p Property) Setter() raw.Method {
	if p.setter == "" {
		return nil
	}
	return Method{src: p.src, owner: p.owner, name: p.setter}
}

func (p Property) Attributes() ([]any, error) {
	return p.src.annotations(p.owner, p.name), nil
}

// Method describes a method, or a registered constructor when ctor is
// non-zero.
type Method struct {
	src   *Source
	owner reflect.Type
	name  string
	ctor  int
}

// signature returns the function type and whether its first input is the
// receiver.
func (m Method) signature() (reflect.Type, bool) {
	if m.ctor > 0 {
		return m.src.constructors(m.owner)[m.ctor-1].Type(), false
	}
	set := methodSet(m.owner)
	if set == nil {
		return nil, false
	}
	rm, ok := set.MethodByName(m.name)
	if !ok {
		return nil, false
	}
	return rm.Type, m.owner.Kind() != reflect.Interface
}

func (m Method) Name() string { return m.name }

func (m Method) Access() raw.Access {
	if m.ctor > 0 || token.IsExported(m.name) {
		return raw.AccessPublic
	}
	return raw.AccessAssembly
}

func (m Method) Static() bool      { return false }
func (m Method) Abstract() bool    { return m.owner.Kind() == reflect.Interface }
func (m Method) Constructor() bool { return m.ctor > 0 }

func (m Method) Special() bool {
	return m.ctor == 0 && m.src.layout(m.owner).special[m.name]
}

func (m Method) DeclaringType() raw.Type { return m.src.Type(m.owner) }

func (m Method) Attributes() ([]any, error) {
	return m.src.annotations(m.owner, m.name), nil
}

func (m Method) Parameters() []raw.Parameter {
	ft, recv := m.signature()
	if ft == nil {
		return nil
	}
	start := 0
	if recv {
		start = 1
	}
	out := make([]raw.Parameter, 0, ft.NumIn()-start)
	for i := start; i < ft.NumIn(); i++ {
		out = append(out, Parameter{m: m, in: i, pos: i - start})
	}
	return out
}

// ReturnType reports the first result. A trailing error result is only the
// return type when it is the sole result.
func (m Method) ReturnType() raw.Type {
	if m.ctor > 0 {
		return nil
	}
	ft, _ := m.signature()
	if ft == nil || ft.NumOut() == 0 {
		return nil
	}
	return m.src.Type(ft.Out(0))
}

// Invoke calls the method on target, dispatching through target's own
// method set. A trailing non-nil error result is returned as the error.
func (m Method) Invoke(target any, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reflectsrc: %s.%s panicked: %v", m.owner, m.name, r)
		}
	}()

	if m.ctor > 0 {
		return call(m.src.constructors(m.owner)[m.ctor-1], args)
	}

	v := reflect.ValueOf(target)
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: nil target for %s.%s", raw.ErrTargetMismatch, m.owner, m.name)
	}
	if m.owner.Kind() == reflect.Interface {
		if !v.Type().Implements(m.owner) {
			return nil, fmt.Errorf("%w: %T does not implement %s", raw.ErrTargetMismatch, target, m.owner)
		}
	} else if _, ok := locate(v, m.owner); !ok {
		return nil, fmt.Errorf("%w: %T is not %s", raw.ErrTargetMismatch, target, m.owner)
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}
	fn := v.MethodByName(m.name)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %s", raw.ErrTargetMismatch, target, m.name)
	}
	return call(fn, args)
}

// Reflect has no view of Go type parameters.
func (m Method) IsGeneric() bool               { return false }
func (m Method) GenericArguments() []raw.Type  { return nil }
func (m Method) GenericDefinition() raw.Method { return nil }

func (m Method) MakeGeneric(args ...raw.Type) (raw.Method, error) {
	return nil, fmt.Errorf("%w: %s.%s", raw.ErrNotGeneric, m.owner, m.name)
}

func (m Method) String() string { return m.owner.String() + "." + m.name }

// Parameter describes one input of a method. Go keeps no parameter names at
// run time, so parameters are named by position.
type Parameter struct {
	m   Method
	in  int
	pos int
}

func (p Parameter) Name() string  { return "arg" + strconv.Itoa(p.pos) }
func (p Parameter) Position() int { return p.pos }
func (p Parameter) Out() bool     { return false }

func (p Parameter) Type() raw.Type {
	ft, _ := p.m.signature()
	return p.m.src.Type(ft.In(p.in))
}

// Optional reports the variadic parameter.
func (p Parameter) Optional() bool {
	ft, _ := p.m.signature()
	return ft.IsVariadic() && p.in == ft.NumIn()-1
}

func (p Parameter) Attributes() ([]any, error) { return nil, nil }

func call(fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	if !ft.IsVariadic() && len(args) != ft.NumIn() {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", raw.ErrValueMismatch, ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := ft.In(min(i, ft.NumIn()-1))
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			pt = pt.Elem()
		}
		v, err := convert(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	out := fn.Call(in)
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
		if n == 1 {
			return nil, nil
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// convert adapts a value to t: assignable values pass through, numbers are
// converted between numeric kinds and nil becomes the zero value of a
// nullable type.
func convert(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", raw.ErrValueMismatch, t)
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case numeric(v.Kind()) && numeric(t.Kind()):
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s for %s", raw.ErrValueMismatch, v.Type(), t)
}

func numeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// locate walks from v through pointers and embedded bases until it reaches a
// struct of type owner.
func locate(v reflect.Value, owner reflect.Type) (reflect.Value, bool) {
	for v.IsValid() {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		if v.Type() == owner {
			return v, true
		}
		i := baseIndex(v.Type())
		if i < 0 {
			return reflect.Value{}, false
		}
		v = v.Field(i)
	}
	return reflect.Value{}, false
}
