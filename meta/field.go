package meta

import (
	"fmt"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

// FieldData is the node of a field.
type FieldData struct {
	core
	raw       raw.Field
	modifier  Modifier
	declaring *TypeData
	reflected *TypeData

	typeOnce sync.Once
	typ      *TypeData
}

func newFieldData(f raw.Field, declaring, reflected *TypeData) *FieldData {
	fd := &FieldData{
		core: core{
			reg:     declaring.reg,
			name:    f.Name(),
			path:    memberPath(declaring, f.Name()),
			attrSrc: f.Attributes,
		},
		raw:       f,
		modifier:  fieldModifier(f),
		declaring: declaring,
		reflected: reflected,
	}
	fd.self = fd
	return fd
}

func (f *FieldData) Kind() MemberKind { return KindField }

// Raw returns the source descriptor.
func (f *FieldData) Raw() raw.Field { return f.raw }

func (f *FieldData) Modifier() Modifier { return f.modifier }

// DeclaringType returns the type the field is attributed to.
func (f *FieldData) DeclaringType() *TypeData { return f.declaring }

// ReflectedType returns the type whose member list produced this node.
func (f *FieldData) ReflectedType() *TypeData { return f.reflected }

// FieldType returns the type of the field.
func (f *FieldData) FieldType() *TypeData {
	f.typeOnce.Do(func() {
		f.typ = f.reg.Type(f.raw.Type())
	})
	return f.typ
}

// Value reads the field from instance, which is ignored for static fields.
func (f *FieldData) Value(instance any) (v any, err error) {
	defer f.recoverInto(&err)
	v, err = f.raw.Get(instance)
	if err != nil {
		return nil, &InvokeError{Member: f.path, Err: err}
	}
	return v, nil
}

// SetValue writes the field on instance.
func (f *FieldData) SetValue(instance, value any) (err error) {
	defer f.recoverInto(&err)
	if err := f.raw.Set(instance, value); err != nil {
		return &InvokeError{Member: f.path, Err: err}
	}
	return nil
}

func (c *core) recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = &InvokeError{Member: c.path, Err: fmt.Errorf("panic: %v", r)}
	}
}
