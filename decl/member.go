package decl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// Func implements a method. target is nil for statics and, for constructors,
// is the freshly allocated instance.
type Func func(target any, args []any) (any, error)

type member struct {
	name      string
	access    raw.Access
	static    bool
	special   bool
	attrs     []any
	doc       string
	declaring *Type
}

func newMember(t *Type, name string, o options) member {
	return member{
		name:      name,
		access:    o.access,
		static:    o.static,
		special:   o.special,
		attrs:     o.attrs,
		doc:       o.doc,
		declaring: t,
	}
}

func (m *member) Name() string               { return m.name }
func (m *member) Access() raw.Access         { return m.access }
func (m *member) Static() bool               { return m.static }
func (m *member) Special() bool              { return m.special }
func (m *member) Doc() string                { return m.doc }
func (m *member) DeclaringType() raw.Type    { return m.declaring }
func (m *member) Attributes() ([]any, error) { return m.attrs, nil }

// Field is a declared field. Instance fields live in *Instance storage,
// static fields on the declaring type.
type Field struct {
	member
	typ *Type
}

// Field declares a field on t.
func (t *Type) Field(name string, typ *Type, opts ...Option) *Field {
	f := &Field{member: newMember(t, name, apply(opts)), typ: typ}
	t.mu.Lock()
	t.fields = append(t.fields, f)
	t.mu.Unlock()
	return f
}

func (f *Field) Type() raw.Type { return f.typ }

func (f *Field) Get(instance any) (any, error) {
	if f.static {
		return f.declaring.static(f.name, f.typ), nil
	}
	inst, err := f.target(instance)
	if err != nil {
		return nil, err
	}
	return inst.get(f.name, f.typ), nil
}

func (f *Field) Set(instance, value any) error {
	if !assignable(value, f.typ) {
		return fmt.Errorf("%w: %T to %s", raw.ErrValueMismatch, value, typeRef(f.typ))
	}
	if f.static {
		f.declaring.setStatic(f.name, value)
		return nil
	}
	inst, err := f.target(instance)
	if err != nil {
		return err
	}
	inst.Set(f.name, value)
	return nil
}

func (f *Field) target(instance any) (*Instance, error) {
	return targetOf(instance, f.declaring)
}

// Property is a declared property with get_/set_ accessor methods backed by a
// compiler-generated field.
type Property struct {
	name      string
	typ       *Type
	declaring *Type
	getter    *Method
	setter    *Method
	attrs     []any
}

// Property declares a property on t. Accessors take the property's access
// unless GetterAccess or SetterAccess say otherwise.
func (t *Type) Property(name string, typ *Type, opts ...Option) *Property {
	o := apply(opts)
	p := &Property{name: name, typ: typ, declaring: t, attrs: o.attrs}

	accessor := func(prefix string, override *raw.Access) *Method {
		mo := o
		mo.special = true
		mo.attrs = nil
		if override != nil {
			mo.access = *override
		}
		return newMethod(t, prefix+name, mo)
	}
	if !o.writeOnly {
		p.getter = accessor("get_", o.getAccess)
		p.getter.ret = typ
	}
	if !o.readOnly {
		p.setter = accessor("set_", o.setAccess)
		p.setter.params = []*Parameter{{name: "value", typ: typ, method: p.setter}}
	}

	if !o.abstract {
		t.Field("<"+name+">k__BackingField", typ, Private(), Special(), func(fo *options) { fo.static = o.static })
	}
	t.mu.Lock()
	t.props = append(t.props, p)
	for _, m := range []*Method{p.getter, p.setter} {
		if m != nil {
			t.methods = append(t.methods, m)
		}
	}
	t.mu.Unlock()
	return p
}

func (t *Type) backingField(name string) *Field {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, f := range t.fields {
		if f.name == name {
			return f
		}
	}
	// Abstract properties declare no storage of their own.
	return &Field{member: member{name: name, declaring: t}, typ: Object}
}

func (p *Property) Name() string               { return p.name }
func (p *Property) Type() raw.Type             { return p.typ }
func (p *Property) DeclaringType() raw.Type    { return p.declaring }
func (p *Property) Attributes() ([]any, error) { return p.attrs, nil }

func (p *Property) Getter() raw.Method {
	if p.getter == nil {
		return nil
	}
	return p.getter
}

func (p *Property) Setter() raw.Method {
	if p.setter == nil {
		return nil
	}
	return p.setter
}

// Method is a declared method or constructor.
type Method struct {
	member
	abstract bool
	ctor     bool
	params   []*Parameter
	ret      *Type
	impl     Func
	body     []byte

	typeParams []*Type
	definition *Method
	args       []*Type
	instMu     sync.Mutex
	instances  map[string]*Method
}

func newMethod(t *Type, name string, o options) *Method {
	m := &Method{member: newMember(t, name, o), abstract: o.abstract}
	for i, p := range o.typeParams {
		m.typeParams = append(m.typeParams, newParam(t.asm, p, i))
	}
	return m
}

// Method declares a method on t. ret is nil for methods returning nothing.
func (t *Type) Method(name string, ret *Type, opts ...Option) *Method {
	m := newMethod(t, name, apply(opts))
	m.ret = ret
	t.mu.Lock()
	t.methods = append(t.methods, m)
	t.mu.Unlock()
	return m
}

// Constructor declares a constructor on t.
func (t *Type) Constructor(opts ...Option) *Method {
	m := newMethod(t, ".ctor", apply(opts))
	m.ctor = true
	t.mu.Lock()
	t.ctors = append(t.ctors, m)
	t.mu.Unlock()
	return m
}

// Param appends a parameter.
func (m *Method) Param(name string, typ *Type, opts ...Option) *Method {
	o := apply(opts)
	m.params = append(m.params, &Parameter{
		name:     name,
		typ:      typ,
		position: len(m.params),
		out:      o.out,
		optional: o.optional,
		attrs:    o.attrs,
		method:   m,
	})
	return m
}

// Impl sets the implementation.
func (m *Method) Impl(fn Func) *Method {
	m.impl = fn
	return m
}

// WithBody sets the bytecode body.
func (m *Method) WithBody(code []byte) *Method {
	m.body = code
	return m
}

// TypeParam returns the i-th generic parameter of a generic method.
func (m *Method) TypeParam(i int) *Type { return m.typeParams[i] }

func (m *Method) Abstract() bool    { return m.abstract }
func (m *Method) Constructor() bool { return m.ctor }

func (m *Method) Parameters() []raw.Parameter {
	out := make([]raw.Parameter, len(m.params))
	for i, p := range m.params {
		out[i] = p
	}
	return out
}

func (m *Method) ReturnType() raw.Type {
	if m.ret == nil {
		return nil
	}
	return m.ret
}

func (m *Method) IsGeneric() bool { return len(m.typeParams) > 0 || m.definition != nil }

func (m *Method) GenericArguments() []raw.Type {
	if m.definition != nil {
		return rawTypes(m.args)
	}
	return rawTypes(m.typeParams)
}

func (m *Method) GenericDefinition() raw.Method {
	if m.definition == nil {
		return nil
	}
	return m.definition
}

// Body implements raw.Body.
func (m *Method) Body() ([]byte, raw.Module, error) {
	if m.body == nil {
		return nil, nil, fmt.Errorf("%w: %s has no body", raw.ErrNotInvocable, m.name)
	}
	return m.body, m.declaring.asm, nil
}

func (m *Method) Invoke(target any, args []any) (any, error) {
	if len(args) != len(m.params) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, m.name, len(m.params), len(args))
	}
	if m.abstract || len(m.typeParams) > 0 {
		return nil, fmt.Errorf("%w: %s is abstract or open generic", raw.ErrNotInvocable, m.name)
	}
	for i, p := range m.params {
		if !assignable(args[i], p.typ) {
			return nil, fmt.Errorf("%w: argument %d of %s", raw.ErrValueMismatch, i, m.name)
		}
	}

	impl := m.impl
	if m.definition != nil {
		impl = m.definition.impl
	}
	switch {
	case m.ctor:
		return m.construct(impl, args)
	case m.static:
		target = nil
	default:
		if _, err := targetOf(target, m.declaring); err != nil {
			return nil, err
		}
	}
	if impl == nil && m.special {
		return m.accessor(target, args)
	}
	if impl == nil {
		return nil, fmt.Errorf("%w: %s has no implementation", raw.ErrNotInvocable, m.name)
	}
	return impl(target, args)
}

// accessor runs a property accessor against its backing field.
func (m *Method) accessor(target any, args []any) (any, error) {
	prop, get := strings.CutPrefix(m.name, "get_")
	if !get {
		var set bool
		if prop, set = strings.CutPrefix(m.name, "set_"); !set {
			return nil, fmt.Errorf("%w: %s has no implementation", raw.ErrNotInvocable, m.name)
		}
	}
	f := m.declaring.backingField("<" + prop + ">k__BackingField")
	if get {
		return f.Get(target)
	}
	return nil, f.Set(target, args[0])
}

// construct allocates an instance, copies arguments into same-named fields
// and runs the implementation, if any.
func (m *Method) construct(impl Func, args []any) (any, error) {
	t := m.declaring
	if t.abstract {
		return nil, fmt.Errorf("%w: %s is abstract", raw.ErrNoConstructor, t.FullName())
	}
	inst := NewInstance(t)
	for i, p := range m.params {
		if f := t.fieldNamed(p.name); f != nil && !f.static {
			inst.Set(f.name, args[i])
		}
	}
	if impl != nil {
		v, err := impl(inst, args)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return inst, nil
}

func (t *Type) fieldNamed(name string) *Field {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, f := range t.fields {
		if strings.EqualFold(f.name, name) {
			return f
		}
	}
	return nil
}

// Parameter is a declared method parameter.
type Parameter struct {
	name     string
	typ      *Type
	position int
	out      bool
	optional bool
	attrs    []any
	method   *Method
}

func (p *Parameter) Name() string               { return p.name }
func (p *Parameter) Type() raw.Type             { return p.typ }
func (p *Parameter) Position() int              { return p.position }
func (p *Parameter) Out() bool                  { return p.out }
func (p *Parameter) Optional() bool             { return p.optional }
func (p *Parameter) Attributes() ([]any, error) { return p.attrs, nil }
