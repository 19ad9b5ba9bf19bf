package decl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/typemeta/il"
	"github.com/skdltmxn/typemeta/raw"
)

func TestAssembly_FullName(t *testing.T) {
	a := NewAssembly("Horizon.Test", "1.2.0.0")
	assert.Equal(t, "Horizon.Test", a.Name())
	assert.Equal(t, "Horizon.Test, Version=1.2.0.0, Culture=neutral, PublicKeyToken=null", a.FullName())
}

func TestType_Shape(t *testing.T) {
	a := NewAssembly("Shapes", "1.0.0.0")
	shape := a.Interface("Geo.IShape")
	base := a.Class("Geo.Base", Abstract(), Implements(shape))
	circle := a.Class("Geo.Circle", Extends(base))
	inner := a.Class("Inner", NestedIn(circle), Private())
	util := a.Class("Geo.Util", Static())

	assert.Equal(t, "Geo.Circle", circle.FullName())
	assert.Equal(t, "Circle", circle.Name())
	assert.Equal(t, "Geo.Circle+Inner", inner.FullName())
	assert.Equal(t, raw.Type(circle), inner.DeclaringType())
	assert.Equal(t, raw.Type(base), circle.Base())
	assert.Equal(t, raw.Type(Object), base.Base())
	assert.Nil(t, Object.Base())
	assert.Nil(t, shape.Base())
	assert.True(t, shape.Abstract())
	assert.True(t, util.Abstract() && util.Sealed())
	assert.True(t, circle.AssignableTo(shape))
	assert.False(t, base.AssignableTo(circle))

	found, ok := a.Lookup("Geo.Circle+Inner")
	require.True(t, ok)
	assert.Same(t, inner, found)
}

func TestInstance_FieldsAndProperties(t *testing.T) {
	a := NewAssembly("Store", "1.0.0.0")
	item := a.Class("Store.Item")
	count := item.Field("Count", Int32)
	label := item.Property("Label", String, SetterAccess(raw.AccessPrivate))
	other := a.Class("Store.Other")

	obj, err := item.New()
	require.NoError(t, err)

	v, err := count.Get(obj)
	require.NoError(t, err)
	assert.Equal(t, int32(0), v)

	require.NoError(t, count.Set(obj, int32(7)))
	v, err = count.Get(obj)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	assert.ErrorIs(t, count.Set(obj, "seven"), raw.ErrValueMismatch)
	_, err = count.Get(NewInstance(other))
	assert.ErrorIs(t, err, raw.ErrTargetMismatch)

	assert.Equal(t, raw.AccessPrivate, label.Setter().Access())
	assert.Equal(t, raw.AccessPublic, label.Getter().Access())
	_, err = label.Setter().Invoke(obj, []any{"box"})
	require.NoError(t, err)
	got, err := label.Getter().Invoke(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, "box", got)

	fields, err := item.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.True(t, fields[1].Special())
}

func TestMethod_Invoke(t *testing.T) {
	a := NewAssembly("Calc", "1.0.0.0")
	calc := a.Class("Calc.Adder")
	add := calc.Method("Add", Int32, Static()).
		Param("a", Int32).
		Param("b", Int32).
		Impl(func(_ any, args []any) (any, error) {
			return args[0].(int32) + args[1].(int32), nil
		})

	v, err := add.Invoke(nil, []any{int32(2), int32(3)})
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)

	_, err = add.Invoke(nil, []any{int32(2)})
	assert.ErrorIs(t, err, ErrArgumentCount)

	_, err = add.Invoke(nil, []any{int32(2), "3"})
	assert.ErrorIs(t, err, raw.ErrValueMismatch)

	abstract := calc.Method("Run", nil, Abstract())
	_, err = abstract.Invoke(NewInstance(calc), nil)
	assert.ErrorIs(t, err, raw.ErrNotInvocable)
}

func TestConstructor_CopiesNamedArguments(t *testing.T) {
	a := NewAssembly("Msg", "1.0.0.0")
	msg := a.Class("N.Message")
	msg.Field("value", String, Private())
	ctor := msg.Constructor().Param("value", String)

	obj, err := ctor.Invoke(nil, []any{"hi"})
	require.NoError(t, err)
	inst := obj.(*Instance)
	assert.Same(t, msg, inst.Type())
	assert.Equal(t, "hi", inst.Get("value"))
}

func TestGeneric_ConstructIsMemoized(t *testing.T) {
	a := NewAssembly("Gen", "1.0.0.0")
	box := a.Class("Gen.Box", TypeParams("T"))
	box.Field("Value", box.TypeParam(0))
	box.Method("Get", box.TypeParam(0))

	assert.True(t, box.IsGenericDefinition())
	assert.Equal(t, "Box`1", box.Name())

	intBox, err := box.Construct(Int32)
	require.NoError(t, err)
	again, err := box.MakeGeneric(Int32)
	require.NoError(t, err)
	assert.Same(t, intBox, again)
	assert.Equal(t, "Gen.Box`1[System.Int32]", intBox.FullName())
	assert.Equal(t, raw.Type(box), intBox.GenericDefinition())

	fields, err := intBox.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, raw.Type(Int32), fields[0].Type())
	assert.Equal(t, raw.Type(intBox), fields[0].DeclaringType())

	_, err = Int32.Construct(String)
	assert.ErrorIs(t, err, raw.ErrNotGeneric)
}

func TestGeneric_MethodConstraints(t *testing.T) {
	a := NewAssembly("Gen", "1.0.0.0")
	msg := a.Class("N.Message")
	special := a.Class("N.Special", Extends(msg))
	m := msg.Method("AppendMessage", nil, TypeParams("TMessage"))
	m.TypeParam(0).Constrain(msg)
	m.Param("message", m.TypeParam(0))

	closed, err := m.Construct(special)
	require.NoError(t, err)
	assert.Equal(t, raw.Method(m), closed.GenericDefinition())
	assert.Equal(t, raw.Type(special), closed.Parameters()[0].Type())

	_, err = m.Construct(String)
	assert.Error(t, err)
}

func TestAssembly_Tokens(t *testing.T) {
	a := NewAssembly("Tok", "1.0.0.0")
	c := a.Class("Tok.C")
	m := c.Method("M", nil)
	f := c.Field("F", Int32)

	mt := a.Token(m)
	assert.Equal(t, mt, a.Token(m))
	assert.Equal(t, uint32(0x06000001), mt)

	rm, err := a.ResolveMethod(mt)
	require.NoError(t, err)
	assert.Equal(t, raw.Method(m), rm)

	rf, err := a.ResolveField(a.Token(f))
	require.NoError(t, err)
	assert.Equal(t, raw.Field(f), rf)

	s, err := a.ResolveString(a.Token("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = a.ResolveMethod(a.Token(f))
	assert.ErrorIs(t, err, ErrUnknownToken)
	_, err = a.ResolveType(0x02FFFFFF)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

const manifest = `
assembly:
  name: Horizon.Sample
  version: 2.0.0.0
  attributes:
    product: sample
types:
  - name: N.IMessage
    kind: interface
  - name: N.Message
    base: N.Base
    interfaces: [N.IMessage]
    attributes:
      route: /messages
    fields:
      - name: text
        type: System.String
        access: private
    properties:
      - name: Value
        type: System.String
        set: private
    constructors:
      - params:
          - { name: value, type: System.String }
    methods:
      - name: Append
        params:
          - { name: value, type: System.String }
        body:
          - ldarg.0
          - ldstr "suffix"
          - call N.Message.Append(System.String)
          - newobj N.Message.ctor(System.String)
          - ldfld N.Message.text
          - ret
      - name: Echo
        returns: T
        typeParams: [T]
        params:
          - { name: input, type: T }
  - name: N.Base
    abstract: true
`

func TestLoadManifest(t *testing.T) {
	a, err := LoadManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	assert.Equal(t, "Horizon.Sample, Version=2.0.0.0, Culture=neutral, PublicKeyToken=null", a.FullName())

	attrs, err := a.Attributes()
	require.NoError(t, err)
	assert.Equal(t, []any{raw.Tag{Key: "product", Value: "sample"}}, attrs)

	msg, ok := a.Lookup("N.Message")
	require.True(t, ok)
	base, _ := a.Lookup("N.Base")
	assert.Same(t, base, msg.base)
	require.Len(t, msg.Interfaces(), 1)
	assert.Equal(t, "N.IMessage", msg.Interfaces()[0].FullName())

	props, err := msg.Properties()
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, raw.AccessPrivate, props[0].Setter().Access())

	methods, err := msg.Methods()
	require.NoError(t, err)
	var appendM, echo raw.Method
	for _, m := range methods {
		switch m.Name() {
		case "Append":
			appendM = m
		case "Echo":
			echo = m
		}
	}
	require.NotNil(t, appendM)
	require.NotNil(t, echo)
	assert.True(t, echo.IsGeneric())
	assert.Equal(t, "T", echo.ReturnType().Name())

	code, mod, err := appendM.(raw.Body).Body()
	require.NoError(t, err)
	insts, err := il.Decode(code, nil)
	require.NoError(t, err)
	require.Len(t, insts, 6)

	target, err := mod.ResolveMethod(insts[2].Token)
	require.NoError(t, err)
	assert.Equal(t, appendM, target)
	ctor, err := mod.ResolveMethod(insts[3].Token)
	require.NoError(t, err)
	assert.True(t, ctor.Constructor())
	s, err := mod.ResolveString(insts[1].Token)
	require.NoError(t, err)
	assert.Equal(t, "suffix", s)
}

func TestLoadManifest_Errors(t *testing.T) {
	_, err := LoadManifest(strings.NewReader("types: []"))
	assert.Error(t, err)

	_, err = LoadManifest(strings.NewReader(`
assembly: { name: Bad }
types:
  - name: N.A
    base: N.Missing
`))
	assert.ErrorIs(t, err, ErrTypeNotFound)

	_, err = LoadManifest(strings.NewReader(`
assembly: { name: Bad }
types:
  - name: N.A
    methods:
      - name: M
        body: [ "call N.A.Nope" ]
`))
	assert.ErrorIs(t, err, ErrMemberNotFound)
}
