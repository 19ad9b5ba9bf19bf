package meta

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/skdltmxn/typemeta/raw"
)

// TypeData is the node of one type.
type TypeData struct {
	core
	raw        raw.Type
	modifier   Modifier
	definition Definition

	asmOnce sync.Once
	asm     *AssemblyData

	baseOnce sync.Once
	base     *TypeData

	declOnce  sync.Once
	declaring *TypeData

	ifacesOnce sync.Once
	ifaces     []*TypeData

	genericOnce sync.Once
	genericArgs []*TypeData
	genericDef  *TypeData
	constraints []*TypeData

	// Member lists
	fieldsOnce  sync.Once
	fields      []*FieldData
	propsOnce   sync.Once
	props       []*PropertyData
	methodsOnce sync.Once
	methods     []*MethodData
	ctorsOnce   sync.Once
	ctors       []*ConstructorData
}

// newTypeData runs under the registry lock and must only consult t.
func newTypeData(reg *Registry, t raw.Type) *TypeData {
	td := &TypeData{
		core: core{
			reg:     reg,
			name:    t.Name(),
			path:    typePath(t),
			attrSrc: t.Attributes,
		},
		raw:        t,
		modifier:   typeModifier(t),
		definition: definitionOf(t),
	}
	td.self = td
	return td
}

func (t *TypeData) Kind() MemberKind { return KindType }

// Raw returns the source descriptor.
func (t *TypeData) Raw() raw.Type { return t.raw }

func (t *TypeData) Modifier() Modifier     { return t.modifier }
func (t *TypeData) Definition() Definition { return t.definition }

func (t *TypeData) IsClass() bool     { return t.definition.Any(Class) }
func (t *TypeData) IsInterface() bool { return t.definition.Any(Interface) }
func (t *TypeData) IsValue() bool     { return t.definition.Any(Value) }
func (t *TypeData) IsNullable() bool  { return t.raw.Nullable() }

func (t *TypeData) IsGenericType() bool           { return t.definition.Any(Generic) }
func (t *TypeData) IsGenericTypeDefinition() bool { return t.definition.Any(GenericDefinition) }
func (t *TypeData) IsGenericParameter() bool      { return t.definition.Any(GenericParameter) }

// Assembly returns the assembly declaring the type.
func (t *TypeData) Assembly() *AssemblyData {
	t.asmOnce.Do(func() {
		t.asm = t.reg.Assembly(t.raw.Assembly())
	})
	return t.asm
}

// BaseType returns the base type, or nil at the root of the hierarchy. A
// base whose own chain leads back to the type is dropped.
func (t *TypeData) BaseType() *TypeData {
	t.baseOnce.Do(func() {
		base := t.raw.Base()
		if cyclic(t.raw, base) {
			t.reg.log.Debug("base type chain is cyclic",
				zap.String("type", t.path), zap.String("base", base.FullName()))
			return
		}
		t.base = t.reg.Type(base)
	})
	return t.base
}

// cyclic reports whether the raw base chain starting at base reaches t.
// Only descriptors are walked; no other node's base is resolved here.
func cyclic(t, base raw.Type) bool {
	seen := make(map[raw.Type]bool)
	for b := base; b != nil && !seen[b]; b = b.Base() {
		if b == t {
			return true
		}
		seen[b] = true
	}
	return false
}

// DeclaringType returns the enclosing type of a nested type, or nil.
func (t *TypeData) DeclaringType() *TypeData {
	t.declOnce.Do(func() {
		t.declaring = t.reg.Type(t.raw.DeclaringType())
	})
	return t.declaring
}

// Interfaces returns the interfaces the type implements.
func (t *TypeData) Interfaces() []*TypeData {
	t.ifacesOnce.Do(func() {
		t.ifaces = t.types(t.raw.Interfaces())
	})
	return t.ifaces
}

func (t *TypeData) loadGeneric() {
	t.genericOnce.Do(func() {
		t.genericArgs = t.types(t.raw.GenericArguments())
		t.genericDef = t.reg.Type(t.raw.GenericDefinition())
		t.constraints = t.types(t.raw.Constraints())
	})
}

// GenericArguments returns the parameters of a generic definition or the
// arguments of a constructed generic type.
func (t *TypeData) GenericArguments() []*TypeData {
	t.loadGeneric()
	return t.genericArgs
}

// GenericTypeDefinition returns the definition a constructed type was made
// from, or nil.
func (t *TypeData) GenericTypeDefinition() *TypeData {
	t.loadGeneric()
	return t.genericDef
}

// GenericParameterConstraints returns the constraints of a generic parameter.
func (t *TypeData) GenericParameterConstraints() []*TypeData {
	t.loadGeneric()
	return t.constraints
}

// MakeGenericType constructs the type from a generic definition. The result
// is the registry's node for the constructed type, so repeated calls with the
// same arguments return the same node.
func (t *TypeData) MakeGenericType(args ...*TypeData) (*TypeData, error) {
	if !t.IsGenericTypeDefinition() {
		return nil, fmt.Errorf("%w: %s", ErrNotGeneric, t.path)
	}
	rt, err := t.raw.MakeGeneric(rawTypes(args)...)
	if err != nil {
		return nil, fmt.Errorf("meta: make %s: %w", t.path, err)
	}
	return t.reg.Type(rt), nil
}

// Implements reports whether the type implements iface. It returns false
// when iface is not an interface.
func (t *TypeData) Implements(iface *TypeData) bool {
	if iface == nil || !iface.IsInterface() {
		t.misuse("Implements", iface)
		return false
	}
	return t.implements(iface)
}

func (t *TypeData) implements(iface *TypeData) bool {
	for _, i := range t.Interfaces() {
		if i.path == iface.path {
			return true
		}
	}
	return false
}

// Extends reports whether base is on the type's base chain. It returns false
// when base is not a class.
func (t *TypeData) Extends(base *TypeData) bool {
	if base == nil || !base.IsClass() {
		t.misuse("Extends", base)
		return false
	}
	return t.extends(base)
}

func (t *TypeData) extends(base *TypeData) bool {
	for b := t.BaseType(); b != nil; b = b.BaseType() {
		if b.path == base.path {
			return true
		}
	}
	return false
}

// IsAssignableTo reports whether a value of this type can be used where
// other is expected.
func (t *TypeData) IsAssignableTo(other *TypeData) bool {
	switch {
	case other == nil:
		return false
	case other.path == t.path:
		return true
	case other.IsInterface():
		return t.implements(other)
	case other.IsClass():
		return t.extends(other)
	}
	return false
}

func (t *TypeData) misuse(op string, arg *TypeData) {
	path := "<nil>"
	if arg != nil {
		path = arg.path + " (" + arg.definition.String() + ")"
	}
	t.reg.log.Debug("type relation called with the wrong kind of type",
		zap.String("op", op), zap.String("type", t.path), zap.String("argument", path))
}

// Fields returns the declared and inherited fields.
func (t *TypeData) Fields() []*FieldData {
	t.fieldsOnce.Do(func() {
		t.fields = merge(t, fieldSet())
	})
	return t.fields
}

// Properties returns the declared and inherited properties.
func (t *TypeData) Properties() []*PropertyData {
	t.propsOnce.Do(func() {
		t.props = merge(t, propertySet())
	})
	return t.props
}

// Methods returns the declared and inherited methods. Property accessors and
// other special methods are not listed.
func (t *TypeData) Methods() []*MethodData {
	t.methodsOnce.Do(func() {
		t.methods = merge(t, methodSet())
	})
	return t.methods
}

// Constructors returns the type's own constructors. Constructors are never
// inherited.
func (t *TypeData) Constructors() []*ConstructorData {
	t.ctorsOnce.Do(func() {
		t.ctors = declaredConstructors(t)
	})
	return t.ctors
}

// Field returns the first field named name.
func (t *TypeData) Field(name string) (*FieldData, bool) {
	for _, f := range t.Fields() {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// Property returns the first property named name.
func (t *TypeData) Property(name string) (*PropertyData, bool) {
	for _, p := range t.Properties() {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// Method returns the first method whose bare or qualified name is name.
func (t *TypeData) Method(name string) (*MethodData, bool) {
	for _, m := range t.Methods() {
		if m.name == name || m.raw.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// TryGetMethod returns the method with the given bare name and exact
// parameter types.
func (t *TypeData) TryGetMethod(name string, params ...*TypeData) (*MethodData, bool) {
	for _, m := range t.Methods() {
		if m.raw.Name() == name && m.hasParams(params) {
			return m, true
		}
	}
	return nil, false
}

// Constructor returns the constructor with exact parameter types.
func (t *TypeData) Constructor(params ...*TypeData) (*ConstructorData, bool) {
	for _, c := range t.Constructors() {
		if c.hasParams(params) {
			return c, true
		}
	}
	return nil, false
}

// Describe renders the type's declaration line, as in
// "public|abstract class N.Shape : N.Base, N.IShape".
func (t *TypeData) Describe() string {
	var b strings.Builder
	b.WriteString(t.modifier.String())
	b.WriteByte(' ')
	b.WriteString(t.definition.String())
	b.WriteByte(' ')
	b.WriteString(t.path)

	var supers []string
	if base := t.BaseType(); base != nil {
		supers = append(supers, base.path)
	}
	for _, i := range t.Interfaces() {
		supers = append(supers, i.path)
	}
	if len(supers) > 0 {
		b.WriteString(" : ")
		b.WriteString(strings.Join(supers, ", "))
	}
	return b.String()
}

func (t *TypeData) types(rs []raw.Type) []*TypeData {
	if len(rs) == 0 {
		return nil
	}
	out := make([]*TypeData, len(rs))
	for i, r := range rs {
		out[i] = t.reg.Type(r)
	}
	return out
}

func rawTypes(ts []*TypeData) []raw.Type {
	out := make([]raw.Type, len(ts))
	for i, t := range ts {
		if t != nil {
			out[i] = t.raw
		}
	}
	return out
}
