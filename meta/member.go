package meta

import (
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// MemberKind identifies the variant of a Member.
type MemberKind uint8

const (
	KindType MemberKind = iota
	KindAssembly
	KindField
	KindProperty
	KindMethod
	KindConstructor
	KindParameter
	KindAttribute
	KindGenericArgument
)

func (k MemberKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindAssembly:
		return "assembly"
	case KindField:
		return "field"
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindParameter:
		return "parameter"
	case KindAttribute:
		return "attribute"
	case KindGenericArgument:
		return "generic argument"
	default:
		return "unknown"
	}
}

// Member is implemented by every node of the graph.
type Member interface {
	// Name is the local identifier. Methods include their parameter types.
	Name() string

	// Path is the fully qualified identity of the member.
	Path() string

	Kind() MemberKind

	// Attributes returns the member's attributes, resolved once.
	Attributes() []*AttributeData
}

// Equal reports whether a and b denote the same entity.
func Equal(a, b Member) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Path() == b.Path()
}

// core is the state every node shares.
type core struct {
	reg  *Registry
	name string
	path string
	self Member

	attrSrc   func() ([]any, error)
	attrsOnce sync.Once
	attrs     []*AttributeData
}

func (c *core) Name() string   { return c.name }
func (c *core) Path() string   { return c.path }
func (c *core) String() string { return c.path }

func (c *core) Attributes() []*AttributeData {
	c.attrsOnce.Do(func() {
		if c.attrSrc == nil {
			return
		}
		values, err := c.attrSrc()
		if err != nil {
			c.reg.log.Debug("attributes unavailable", zap.String("member", c.path), zap.Error(err))
			return
		}
		seen := make(map[*TypeData]int)
		for _, v := range values {
			if v == nil {
				continue
			}
			c.attrs = append(c.attrs, newAttributeData(c.reg, v, c.self, seen))
		}
	})
	return c.attrs
}

// AttributeData is one attribute instance found on a member.
type AttributeData struct {
	core
	value     any
	typ       *TypeData
	declaring Member
}

// newAttributeData names the n-th repeat of an attribute type on one member
// with a "#n" suffix on its Path. seen counts the types met so far.
func newAttributeData(reg *Registry, v any, declaring Member, seen map[*TypeData]int) *AttributeData {
	typ := reg.TypeOfValue(v)
	path := declaring.Path() + "." + typ.name
	if n := seen[typ]; n > 0 {
		path += "#" + strconv.Itoa(n)
	}
	seen[typ]++
	a := &AttributeData{
		core:      core{reg: reg, name: typ.name, path: path},
		value:     v,
		typ:       typ,
		declaring: declaring,
	}
	a.self = a
	return a
}

func (a *AttributeData) Kind() MemberKind { return KindAttribute }

// Value returns the attribute instance.
func (a *AttributeData) Value() any { return a.value }

// Type returns the runtime type of the attribute instance.
func (a *AttributeData) Type() *TypeData { return a.typ }

// DeclaringMember returns the member the attribute was found on.
func (a *AttributeData) DeclaringMember() Member { return a.declaring }

// AttributeValue returns the attribute instance as a T.
func AttributeValue[T any](a *AttributeData) (T, bool) {
	v, ok := a.value.(T)
	return v, ok
}

// GetAttributes returns the attribute instances on m that are a T.
func GetAttributes[T any](m Member) []T {
	var out []T
	for _, a := range m.Attributes() {
		if v, ok := AttributeValue[T](a); ok {
			out = append(out, v)
		}
	}
	return out
}

// TryGetAttribute returns the first attribute instance on m that is a T.
func TryGetAttribute[T any](m Member) (T, bool) {
	for _, a := range m.Attributes() {
		if v, ok := AttributeValue[T](a); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// HasAttribute reports whether m carries an attribute that is a T.
func HasAttribute[T any](m Member) bool {
	_, ok := TryGetAttribute[T](m)
	return ok
}

var (
	_ Member        = (*TypeData)(nil)
	_ Member        = (*AssemblyData)(nil)
	_ Member        = (*AttributeData)(nil)
	_ Member        = (*ParameterData)(nil)
	_ Member        = (*GenericArgumentData)(nil)
	_ Invocable     = (*MethodData)(nil)
	_ Invocable     = (*ConstructorData)(nil)
	_ ValueAccessor = (*FieldData)(nil)
	_ ValueAccessor = (*PropertyData)(nil)
)
