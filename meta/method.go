package meta

import (
	"fmt"
	"strings"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// Invocable is implemented by methods and constructors.
type Invocable interface {
	Member
	Base() *MethodBaseData
}

// MethodBaseData is the part shared by methods and constructors.
type MethodBaseData struct {
	core
	raw       raw.Method
	kind      MemberKind
	modifier  Modifier
	declaring *TypeData
	reflected *TypeData
	key       string

	paramsOnce sync.Once
	params     []*ParameterData
}

func newMethodBase(reg *Registry, m raw.Method, kind MemberKind, declaring, reflected *TypeData) MethodBaseData {
	name := methodName(reg, m)
	return MethodBaseData{
		core: core{
			reg:     reg,
			name:    name,
			path:    memberPath(declaring, name),
			attrSrc: m.Attributes,
		},
		raw:       m,
		kind:      kind,
		modifier:  methodModifier(m),
		declaring: declaring,
		reflected: reflected,
		key:       signatureKey(m),
	}
}

func (m *MethodBaseData) Kind() MemberKind { return m.kind }

// Base returns m itself.
func (m *MethodBaseData) Base() *MethodBaseData { return m }

// Raw returns the source descriptor.
func (m *MethodBaseData) Raw() raw.Method { return m.raw }

func (m *MethodBaseData) Modifier() Modifier { return m.modifier }

// DeclaringType returns the type the method is attributed to. For an
// override this is the type that introduced the overridden slot.
func (m *MethodBaseData) DeclaringType() *TypeData { return m.declaring }

// ReflectedType returns the type whose member list produced this node.
func (m *MethodBaseData) ReflectedType() *TypeData { return m.reflected }

// Signature returns the key used to match overrides.
func (m *MethodBaseData) Signature() string { return m.key }

// Description returns the documentation of the method, if the source has
// any.
func (m *MethodBaseData) Description() string {
	if d, ok := m.raw.(raw.Documented); ok {
		return d.Doc()
	}
	return ""
}

// Parameters returns the parameters in declaration order.
func (m *MethodBaseData) Parameters() []*ParameterData {
	m.paramsOnce.Do(func() {
		for _, p := range m.raw.Parameters() {
			m.params = append(m.params, newParameterData(p, m))
		}
	})
	return m.params
}

// Invoke calls the method on target with args. target is ignored for
// constructors and static methods.
func (m *MethodBaseData) Invoke(target any, args ...any) (v any, err error) {
	defer m.recoverInto(&err)
	if want := len(m.Parameters()); len(args) != want {
		return nil, &InvokeError{
			Member: m.path,
			Err:    fmt.Errorf("%w: want %d, got %d", ErrArgumentCount, want, len(args)),
		}
	}
	v, err = m.raw.Invoke(target, args)
	if err != nil {
		return nil, &InvokeError{Member: m.path, Err: err}
	}
	return v, nil
}

// TryInvoke is Invoke reporting failure as false.
func (m *MethodBaseData) TryInvoke(target any, args ...any) (any, bool) {
	v, err := m.Invoke(target, args...)
	return v, err == nil
}

func (m *MethodBaseData) hasParams(types []*TypeData) bool {
	params := m.Parameters()
	if len(params) != len(types) {
		return false
	}
	for i, p := range params {
		if !Equal(p.ParameterType(), types[i]) {
			return false
		}
	}
	return true
}

// MethodData is the node of a method.
type MethodData struct {
	MethodBaseData

	retOnce sync.Once
	ret     *TypeData

	genericOnce sync.Once
	genericArgs []*GenericArgumentData
	definition  *MethodData

	instMu    sync.Mutex
	instances map[string]*MethodData
}

func newMethodData(reg *Registry, m raw.Method, declaring, reflected *TypeData) *MethodData {
	md := &MethodData{MethodBaseData: newMethodBase(reg, m, KindMethod, declaring, reflected)}
	md.self = md
	return md
}

// ReturnType returns the result type, or nil for methods returning nothing.
func (m *MethodData) ReturnType() *TypeData {
	m.retOnce.Do(func() {
		m.ret = m.reg.Type(m.raw.ReturnType())
	})
	return m.ret
}

// IsGenericMethod reports whether the method is generic, open or
// constructed.
func (m *MethodData) IsGenericMethod() bool { return m.raw.IsGeneric() }

// IsGenericMethodDefinition reports whether the method is an open generic
// method.
func (m *MethodData) IsGenericMethodDefinition() bool {
	return m.raw.IsGeneric() && m.raw.GenericDefinition() == nil
}

func (m *MethodData) loadGeneric() {
	m.genericOnce.Do(func() {
		if !m.raw.IsGeneric() {
			return
		}
		for i, t := range m.raw.GenericArguments() {
			m.genericArgs = append(m.genericArgs, newGenericArgumentData(m, m.reg.Type(t), i))
		}
		if m.definition == nil && m.raw.GenericDefinition() != nil {
			m.definition = m.reg.method(m.raw.GenericDefinition())
		}
	})
}

// GenericArguments returns the type parameters of an open generic method or
// the type arguments of a constructed one.
func (m *MethodData) GenericArguments() []*GenericArgumentData {
	m.loadGeneric()
	return m.genericArgs
}

// GenericMethodDefinition returns the open method a constructed method was
// made from, or nil.
func (m *MethodData) GenericMethodDefinition() *MethodData {
	m.loadGeneric()
	return m.definition
}

// MakeGenericMethod constructs the method from an open generic method.
// Constructions are memoized per method by type arguments.
func (m *MethodData) MakeGenericMethod(args ...*TypeData) (*MethodData, error) {
	if !m.IsGenericMethodDefinition() {
		return nil, fmt.Errorf("%w: %s", ErrNotGeneric, m.path)
	}
	paths := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			return nil, fmt.Errorf("meta: make %s: nil type argument %d", m.path, i)
		}
		paths[i] = a.path
	}
	key := strings.Join(paths, ",")

	m.instMu.Lock()
	defer m.instMu.Unlock()
	if inst, ok := m.instances[key]; ok {
		return inst, nil
	}
	rm, err := m.raw.MakeGeneric(rawTypes(args)...)
	if err != nil {
		return nil, fmt.Errorf("meta: make %s: %w", m.path, err)
	}
	inst := newMethodData(m.reg, rm, m.declaring, m.reflected)
	inst.definition = m
	if m.instances == nil {
		m.instances = make(map[string]*MethodData)
	}
	m.instances[key] = inst
	return inst, nil
}

// TryMakeGenericMethod is MakeGenericMethod reporting failure as false.
func (m *MethodData) TryMakeGenericMethod(args ...*TypeData) (*MethodData, bool) {
	inst, err := m.MakeGenericMethod(args...)
	return inst, err == nil
}

// ConstructorData is the node of a constructor.
type ConstructorData struct {
	MethodBaseData
}

func newConstructorData(reg *Registry, m raw.Method, declaring *TypeData) *ConstructorData {
	cd := &ConstructorData{MethodBaseData: newMethodBase(reg, m, KindConstructor, declaring, declaring)}
	cd.self = cd
	return cd
}

// IsDefault reports whether the constructor takes no parameters.
func (c *ConstructorData) IsDefault() bool { return len(c.Parameters()) == 0 }

// New invokes the constructor.
func (c *ConstructorData) New(args ...any) (any, error) {
	return c.Invoke(nil, args...)
}

// ParameterData is the node of a method parameter.
type ParameterData struct {
	core
	raw    raw.Parameter
	method *MethodBaseData

	typeOnce sync.Once
	typ      *TypeData
}

func newParameterData(p raw.Parameter, m *MethodBaseData) *ParameterData {
	pd := &ParameterData{
		core: core{
			reg:     m.reg,
			name:    p.Name(),
			path:    m.path + "." + p.Name(),
			attrSrc: p.Attributes,
		},
		raw:    p,
		method: m,
	}
	pd.self = pd
	return pd
}

func (p *ParameterData) Kind() MemberKind { return KindParameter }

// Raw returns the source descriptor.
func (p *ParameterData) Raw() raw.Parameter { return p.raw }

func (p *ParameterData) Position() int    { return p.raw.Position() }
func (p *ParameterData) IsOut() bool      { return p.raw.Out() }
func (p *ParameterData) IsOptional() bool { return p.raw.Optional() }

// DeclaringMethod returns the method or constructor the parameter belongs to.
func (p *ParameterData) DeclaringMethod() *MethodBaseData { return p.method }

// ParameterType returns the type of the parameter.
func (p *ParameterData) ParameterType() *TypeData {
	p.typeOnce.Do(func() {
		p.typ = p.reg.Type(p.raw.Type())
	})
	return p.typ
}

// GenericArgumentData is one type parameter, or type argument, of a generic
// method.
type GenericArgumentData struct {
	core
	typ      *TypeData
	position int
	method   *MethodData
}

func newGenericArgumentData(m *MethodData, t *TypeData, position int) *GenericArgumentData {
	g := &GenericArgumentData{
		core: core{
			reg:  m.reg,
			name: t.name,
			path: m.path + "." + t.name,
		},
		typ:      t,
		position: position,
		method:   m,
	}
	g.attrSrc = t.raw.Attributes
	g.self = g
	return g
}

func (g *GenericArgumentData) Kind() MemberKind { return KindGenericArgument }

// Type returns the parameter or argument type.
func (g *GenericArgumentData) Type() *TypeData { return g.typ }

func (g *GenericArgumentData) Position() int { return g.position }

// DeclaringMethod returns the generic method.
func (g *GenericArgumentData) DeclaringMethod() *MethodData { return g.method }

// Constraints returns the constraints of a type parameter.
func (g *GenericArgumentData) Constraints() []*TypeData {
	return g.typ.GenericParameterConstraints()
}
