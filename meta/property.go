package meta

import (
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// PropertyData is the node of a property. Reads and writes go through its
// accessor methods.
type PropertyData struct {
	core
	raw       raw.Property
	modifier  Modifier
	declaring *TypeData
	reflected *TypeData

	accOnce sync.Once
	get     *MethodData
	set     *MethodData

	typeOnce sync.Once
	typ      *TypeData
}

func newPropertyData(p raw.Property, declaring, reflected *TypeData) *PropertyData {
	pd := &PropertyData{
		core: core{
			reg:     declaring.reg,
			name:    p.Name(),
			path:    memberPath(declaring, p.Name()),
			attrSrc: p.Attributes,
		},
		raw:       p,
		modifier:  propertyModifier(p),
		declaring: declaring,
		reflected: reflected,
	}
	pd.self = pd
	return pd
}

func (p *PropertyData) Kind() MemberKind { return KindProperty }

// Raw returns the source descriptor.
func (p *PropertyData) Raw() raw.Property { return p.raw }

func (p *PropertyData) Modifier() Modifier       { return p.modifier }
func (p *PropertyData) DeclaringType() *TypeData { return p.declaring }
func (p *PropertyData) ReflectedType() *TypeData { return p.reflected }

// PropertyType returns the type of the property.
func (p *PropertyData) PropertyType() *TypeData {
	p.typeOnce.Do(func() {
		p.typ = p.reg.Type(p.raw.Type())
	})
	return p.typ
}

func (p *PropertyData) accessors() {
	p.accOnce.Do(func() {
		if g := p.raw.Getter(); g != nil {
			p.get = newMethodData(p.reg, g, p.declaring, p.reflected)
		}
		if s := p.raw.Setter(); s != nil {
			p.set = newMethodData(p.reg, s, p.declaring, p.reflected)
		}
	})
}

// Get returns the getter, or nil.
func (p *PropertyData) Get() *MethodData {
	p.accessors()
	return p.get
}

// Set returns the setter, or nil.
func (p *PropertyData) Set() *MethodData {
	p.accessors()
	return p.set
}

// CanRead reports whether the property has a getter.
func (p *PropertyData) CanRead() bool { return p.Get() != nil }

// CanWrite reports whether the property has a setter.
func (p *PropertyData) CanWrite() bool { return p.Set() != nil }

// Value reads the property from instance through its getter.
func (p *PropertyData) Value(instance any) (any, error) {
	get := p.Get()
	if get == nil {
		return nil, &InvokeError{Member: p.path, Err: ErrNoGetter}
	}
	return get.Invoke(instance)
}

// SetValue writes the property on instance through its setter.
func (p *PropertyData) SetValue(instance, value any) error {
	set := p.Set()
	if set == nil {
		return &InvokeError{Member: p.path, Err: ErrNoSetter}
	}
	_, err := set.Invoke(instance, value)
	return err
}
