package gosrc

import (
	"fmt"
	"go/types"
	"strconv"

	"github.com/skdltmxn/typemeta/raw"
)

func access(exported bool) raw.Access {
	if exported {
		return raw.AccessPublic
	}
	return raw.AccessAssembly
}

// Field describes a struct field, or one constant of an enum type.
type Field struct {
	src   *Source
	owner *Type
	v     *types.Var
	tag   string
	konst *types.Const
}

func (f *Field) Name() string {
	if f.konst != nil {
		return f.konst.Name()
	}
	return f.v.Name()
}

func (f *Field) Access() raw.Access {
	if f.konst != nil {
		return access(f.konst.Exported())
	}
	return access(f.v.Exported())
}

func (f *Field) Static() bool  { return f.konst != nil }
func (f *Field) Special() bool { return f.Name() == "_" }

func (f *Field) DeclaringType() raw.Type { return f.owner }

func (f *Field) Type() raw.Type {
	if f.konst != nil {
		return f.owner
	}
	return f.src.Type(f.v.Type())
}

// Attributes returns the struct tags of the field as raw.Tag values.
func (f *Field) Attributes() ([]any, error) {
	tags, err := raw.ParseTag(f.tag)
	if err != nil {
		return nil, fmt.Errorf("gosrc: field %s.%s: %w", f.owner, f.Name(), err)
	}
	out := make([]any, len(tags))
	for i, t := range tags {
		out[i] = t
	}
	return out, nil
}

// Get returns the value of an enum constant. Struct fields have no value
// without a running program.
func (f *Field) Get(instance any) (any, error) {
	if f.konst != nil {
		return constValue(f.konst.Val()), nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrStatic, f.owner, f.Name())
}

func (f *Field) Set(instance, value any) error {
	return fmt.Errorf("%w: %s.%s", ErrStatic, f.owner, f.Name())
}

func (f *Field) String() string { return f.owner.String() + "." + f.Name() }

// Method describes a declared method, an interface method or a NewX factory
// acting as a constructor.
type Method struct {
	src     *Source
	owner   *Type
	fn      *types.Func
	ctor    bool
	special bool
	doc     string
}

// Func returns the underlying go/types function.
func (m *Method) Func() *types.Func { return m.fn }

func (m *Method) signature() *types.Signature { return m.fn.Type().(*types.Signature) }

func (m *Method) Name() string {
	if m.ctor {
		return ".ctor"
	}
	return m.fn.Name()
}

func (m *Method) Access() raw.Access      { return access(m.fn.Exported()) }
func (m *Method) Static() bool            { return false }
func (m *Method) Special() bool           { return m.special }
func (m *Method) Abstract() bool          { return m.owner.Abstract() }
func (m *Method) Constructor() bool       { return m.ctor }
func (m *Method) DeclaringType() raw.Type { return m.owner }

func (m *Method) Attributes() ([]any, error) { return deprecation(m.doc), nil }

// Doc returns the method's doc comment.
func (m *Method) Doc() string { return m.doc }

func (m *Method) Parameters() []raw.Parameter {
	sig := m.signature()
	params := sig.Params()
	out := make([]raw.Parameter, params.Len())
	for i := range params.Len() {
		out[i] = Parameter{
			src:      m.src,
			v:        params.At(i),
			pos:      i,
			optional: sig.Variadic() && i == params.Len()-1,
		}
	}
	return out
}

// ReturnType returns the first result. A constructor's *T result describes
// the owner itself.
func (m *Method) ReturnType() raw.Type {
	results := m.signature().Results()
	if results.Len() == 0 {
		return nil
	}
	return m.src.Type(results.At(0).Type())
}

func (m *Method) Invoke(target any, args []any) (any, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrStatic, m, raw.ErrNotInvocable)
}

// Go methods cannot declare type parameters of their own.
func (m *Method) IsGeneric() bool               { return false }
func (m *Method) GenericArguments() []raw.Type  { return nil }
func (m *Method) GenericDefinition() raw.Method { return nil }

func (m *Method) MakeGeneric(args ...raw.Type) (raw.Method, error) {
	return nil, fmt.Errorf("%w: %s", raw.ErrNotGeneric, m)
}

func (m *Method) String() string {
	if m.ctor {
		return m.fn.Pkg().Path() + "." + m.fn.Name()
	}
	return m.owner.String() + "." + m.fn.Name()
}

// Parameter describes one parameter of a function signature.
type Parameter struct {
	src      *Source
	v        *types.Var
	pos      int
	optional bool
}

// Name returns the declared name, or argN for unnamed parameters.
func (p Parameter) Name() string {
	if p.v.Name() == "" || p.v.Name() == "_" {
		return "arg" + strconv.Itoa(p.pos)
	}
	return p.v.Name()
}

func (p Parameter) Type() raw.Type             { return p.src.Type(p.v.Type()) }
func (p Parameter) Position() int              { return p.pos }
func (p Parameter) Out() bool                  { return false }
func (p Parameter) Optional() bool             { return p.optional }
func (p Parameter) Attributes() ([]any, error) { return nil, nil }

// Property describes an X/SetX method pair.
type Property struct {
	src    *Source
	owner  *Type
	name   string
	getter *Method
	setter *Method
}

func (p *Property) Name() string               { return p.name }
func (p *Property) Type() raw.Type             { return p.getter.ReturnType() }
func (p *Property) DeclaringType() raw.Type    { return p.owner }
func (p *Property) Getter() raw.Method         { return p.getter }
func (p *Property) Setter() raw.Method         { return p.setter }
func (p *Property) Attributes() ([]any, error) { return p.getter.Attributes() }
