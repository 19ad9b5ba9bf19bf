package meta_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skdltmxn/typemeta/decl"
	"github.com/skdltmxn/typemeta/meta"
	"github.com/skdltmxn/typemeta/raw"
)

type Serializable struct{ Format string }

type Obsolete struct{ Reason string }

type Labeled interface{ Label() string }

func (o Obsolete) Label() string { return o.Reason }

func messageFixture() (*decl.Assembly, *decl.Type) {
	a := decl.NewAssembly("Text", "2.1.0.0")
	msg := a.Class("N.Message", decl.Attributes(Serializable{Format: "json"}))
	msg.Field("value", decl.String, decl.Attributes(Obsolete{Reason: "use Text"}))
	msg.Field("Name", decl.String)
	msg.Method("Append", nil).Param("value", decl.String)
	msg.Method("Append", nil).Param("value", decl.Int32)
	msg.Constructor().Param("name", decl.String)
	return a, msg
}

func TestRegistry_Identity(t *testing.T) {
	a, msg := messageFixture()
	reg := meta.NewRegistry()

	td := reg.Type(msg)
	assert.Same(t, td, reg.Type(msg))
	assert.Nil(t, reg.Type(nil))

	found, ok := reg.Lookup("N.Message")
	require.True(t, ok)
	assert.Same(t, td, found)

	assert.Same(t, reg.Assembly(a), td.Assembly())
	assert.Equal(t, "Text", td.Assembly().Name())
	assert.Same(t, td, td.Assembly().Types()[0])

	// Repeated queries return the cached lists.
	assert.Same(t, td.Fields()[0], td.Fields()[0])
	assert.Same(t, td.Methods()[3], td.Methods()[3])

	// The instance of a declared type maps back to it.
	inst, err := td.Constructors()[0].New("hello")
	require.NoError(t, err)
	assert.Same(t, td, reg.TypeOfValue(inst))
	assert.Nil(t, reg.TypeOfValue(nil))
}

func TestRegistry_ConcurrentFirstRequest(t *testing.T) {
	_, msg := messageFixture()
	reg := meta.NewRegistry()

	const n = 32
	var wg sync.WaitGroup
	types := make([]*meta.TypeData, n)
	methods := make([][]*meta.MethodData, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			types[i] = reg.Type(msg)
			methods[i] = types[i].Methods()
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, types[0], types[i])
		require.Len(t, methods[i], len(methods[0]))
		for j := range methods[i] {
			assert.Same(t, methods[0][j], methods[i][j])
		}
	}
}

func TestNames(t *testing.T) {
	_, msg := messageFixture()
	reg := meta.NewRegistry()
	td := reg.Type(msg)

	assert.Equal(t, "Message", td.Name())
	assert.Equal(t, "N.Message", td.Path())
	assert.Equal(t, meta.KindType, td.Kind())

	m, ok := td.TryGetMethod("Append", reg.Type(decl.String))
	require.True(t, ok)
	assert.Equal(t, "Append(System.String)", m.Name())
	assert.Equal(t, "N.Message.Append(System.String)", m.Path())

	params := m.Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, "N.Message.Append(System.String).value", params[0].Path())
	assert.Equal(t, meta.KindParameter, params[0].Kind())
	assert.Same(t, &m.MethodBaseData, params[0].DeclaringMethod())
	assert.Same(t, reg.Type(decl.String), params[0].ParameterType())

	f, ok := td.Field("value")
	require.True(t, ok)
	assert.Equal(t, "N.Message.value", f.Path())
	assert.Same(t, reg.Type(decl.String), f.FieldType())

	// Bare names find the first overload.
	first, ok := td.Method("Append")
	require.True(t, ok)
	assert.Same(t, m, first)

	ctor, ok := td.Constructor(reg.Type(decl.String))
	require.True(t, ok)
	assert.Equal(t, "ctor(System.String)", ctor.Name())
	_, ok = td.Constructor()
	assert.False(t, ok)

	assert.Equal(t, "System.Private.CoreLib, Version=8.0.0.0, Culture=neutral, PublicKeyToken=7cec85d7bea7798e",
		reg.Type(decl.Object).Assembly().Path())
}

func TestAttributes(t *testing.T) {
	_, msg := messageFixture()
	reg := meta.NewRegistry()
	td := reg.Type(msg)

	attrs := td.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, "Serializable", attrs[0].Name())
	assert.Equal(t, "N.Message.Serializable", attrs[0].Path())
	assert.Equal(t, meta.KindAttribute, attrs[0].Kind())
	assert.Same(t, td, attrs[0].DeclaringMember())
	assert.Same(t, meta.TypeFor[Serializable](reg), attrs[0].Type())
	assert.Same(t, attrs[0], td.Attributes()[0])

	// Repeated attribute types get distinct Paths.
	doc := decl.NewAssembly("Docs", "1.0.0.0").Class("N.Doc",
		decl.Attributes(Serializable{Format: "json"}, Obsolete{}, Serializable{Format: "xml"}))
	repeated := reg.Type(doc).Attributes()
	require.Len(t, repeated, 3)
	assert.Equal(t, []string{"N.Doc.Serializable", "N.Doc.Obsolete", "N.Doc.Serializable#1"},
		[]string{repeated[0].Path(), repeated[1].Path(), repeated[2].Path()})
	assert.Equal(t, "Serializable", repeated[2].Name())
	assert.False(t, meta.Equal(repeated[0], repeated[2]))
	assert.Len(t, meta.GetAttributes[Serializable](reg.Type(doc)), 2)

	s, ok := meta.TryGetAttribute[Serializable](td)
	require.True(t, ok)
	assert.Equal(t, "json", s.Format)
	assert.True(t, meta.HasAttribute[Serializable](td))
	assert.False(t, meta.HasAttribute[Obsolete](td))
	assert.Empty(t, meta.GetAttributes[Obsolete](td))

	f, _ := td.Field("value")
	// Lookups by interface see the same instances as lookups by type.
	labels := meta.GetAttributes[Labeled](f)
	require.Len(t, labels, 1)
	assert.Equal(t, "use Text", labels[0].Label())
	o, ok := meta.TryGetAttribute[Obsolete](f)
	require.True(t, ok)
	assert.Equal(t, labels[0], o)
	assert.Equal(t, len(meta.GetAttributes[Obsolete](f)), len(labels))
}

func TestFieldAndProperty_Values(t *testing.T) {
	a := decl.NewAssembly("Store", "1.0.0.0")
	item := a.Class("N.Item")
	item.Field("Count", decl.Int32)
	item.Property("Label", decl.String, decl.SetterAccess(raw.AccessPrivate))
	item.Property("Id", decl.Int32, decl.ReadOnly())
	other := a.Class("N.Other")

	reg := meta.NewRegistry()
	td := reg.Type(item)
	obj, ok := meta.TryCreate[*decl.Instance](td)
	require.True(t, ok)

	count, ok := td.Field("Count")
	require.True(t, ok)
	require.NoError(t, count.SetValue(obj, int32(3)))
	v, ok := meta.TryGetValue[int32](count, obj)
	require.True(t, ok)
	assert.Equal(t, int32(3), v)
	_, ok = meta.TryGetValue[string](count, obj)
	assert.False(t, ok)
	assert.False(t, meta.TrySetValue(count, obj, "three"))

	_, err := count.Value(decl.NewInstance(other))
	var ie *meta.InvokeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "N.Item.Count", ie.Member)
	assert.ErrorIs(t, err, raw.ErrTargetMismatch)

	label, ok := td.Property("Label")
	require.True(t, ok)
	assert.True(t, label.Modifier().Is(meta.Public|meta.Instance))
	assert.True(t, label.CanRead())
	assert.True(t, label.CanWrite())
	assert.True(t, label.Set().Modifier().Any(meta.Private))
	assert.Same(t, reg.Type(decl.String), label.PropertyType())
	require.NoError(t, label.SetValue(obj, "tag"))
	s, ok := meta.TryGetValue[string](label, obj)
	require.True(t, ok)
	assert.Equal(t, "tag", s)

	id, ok := td.Property("Id")
	require.True(t, ok)
	assert.False(t, id.CanWrite())
	assert.ErrorIs(t, id.SetValue(obj, int32(1)), meta.ErrNoSetter)
	assert.False(t, meta.TrySetValue(id, obj, int32(1)))
	n, ok := meta.TryGetValue[int32](id, obj)
	require.True(t, ok)
	assert.Zero(t, n)
}

func TestInvoke(t *testing.T) {
	a := decl.NewAssembly("Calc", "1.0.0.0")
	calc := a.Class("N.Calc")
	calc.Method("Add", decl.Int32, decl.Static()).
		Param("x", decl.Int32).Param("y", decl.Int32).
		Impl(func(_ any, args []any) (any, error) { return args[0].(int32) + args[1].(int32), nil })
	calc.Method("Reset", nil, decl.Static()).
		Impl(func(any, []any) (any, error) { return nil, nil })
	calc.Method("Fail", nil, decl.Static()).
		Impl(func(any, []any) (any, error) { return nil, errors.New("boom") })
	calc.Method("Panic", nil, decl.Static()).
		Impl(func(any, []any) (any, error) { panic("unreachable state") })

	reg := meta.NewRegistry()
	td := reg.Type(calc)
	add, ok := td.Method("Add")
	require.True(t, ok)
	assert.True(t, add.Modifier().Is(meta.Public|meta.Static))
	assert.Same(t, reg.Type(decl.Int32), add.ReturnType())

	sum, err := meta.InvokeAs[int32](add, nil, int32(2), int32(3))
	require.NoError(t, err)
	assert.Equal(t, int32(5), sum)

	_, err = add.Invoke(nil, int32(1))
	assert.ErrorIs(t, err, meta.ErrArgumentCount)
	_, ok = add.TryInvoke(nil)
	assert.False(t, ok)

	_, err = meta.InvokeAs[string](add, nil, int32(2), int32(3))
	assert.ErrorIs(t, err, meta.ErrResultType)
	_, ok = meta.TryInvokeAs[string](add, nil, int32(2), int32(3))
	assert.False(t, ok)

	// A void result only converts to a type that can hold nil.
	reset, _ := td.Method("Reset")
	_, err = meta.InvokeAs[int32](reset, nil)
	assert.ErrorIs(t, err, meta.ErrResultType)
	_, ok = meta.TryInvokeAs[int32](reset, nil)
	assert.False(t, ok)
	none, err := meta.InvokeAs[*decl.Instance](reset, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	_, err = meta.InvokeAs[any](reset, nil)
	assert.NoError(t, err)

	fail, _ := td.Method("Fail")
	_, err = fail.Invoke(nil)
	assert.EqualError(t, err, "meta: N.Calc.Fail: boom")

	p, _ := td.Method("Panic")
	_, err = p.Invoke(nil)
	var ie *meta.InvokeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "N.Calc.Panic", ie.Member)
	assert.Contains(t, err.Error(), "unreachable state")

	// Inherited methods run against instances of the derived type.
	obj, ok := meta.TryCreate[*decl.Instance](td)
	require.True(t, ok)
	v, err := meta.InvokeAs[string](td.Methods()[0], obj)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v, "N.Calc@"), v)
	_, err = td.Methods()[0].Invoke("receiver")
	assert.ErrorIs(t, err, raw.ErrTargetMismatch)
}

func TestTryCreate(t *testing.T) {
	a := decl.NewAssembly("Create", "1.0.0.0")
	person := a.Class("N.Person")
	person.Field("Name", decl.String)
	person.Constructor().Param("name", decl.String)
	shape := a.Class("N.Shape", decl.Abstract())
	point := a.Struct("N.Point")
	point.Field("X", decl.Int32)

	reg := meta.NewRegistry()
	pt := reg.Type(person)

	p, ok := meta.TryCreate[*decl.Instance](pt, "ada")
	require.True(t, ok)
	name, _ := pt.Field("Name")
	got, err := name.Value(p)
	require.NoError(t, err)
	assert.Equal(t, "ada", got)

	_, ok = meta.TryCreate[*decl.Instance](pt)
	assert.False(t, ok, "no parameterless constructor")
	_, ok = meta.TryCreate[*decl.Instance](pt, 42)
	assert.False(t, ok, "argument of the wrong type")
	_, ok = meta.TryCreate[string](pt, "ada")
	assert.False(t, ok, "result of the wrong type")

	_, ok = meta.TryCreate[*decl.Instance](reg.Type(point))
	assert.True(t, ok, "types without constructors are default-constructed")
	_, ok = meta.TryCreate[*decl.Instance](reg.Type(shape))
	assert.False(t, ok)
	_, ok = meta.TryCreate[*decl.Instance](nil)
	assert.False(t, ok)

	n, ok := meta.TryCreate[int32](reg.Type(decl.Int32))
	require.True(t, ok)
	assert.Zero(t, n)
}

func TestTypeRelations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := meta.NewRegistry(meta.WithLogger(zap.New(core)))

	a := decl.NewAssembly("Shapes", "1.0.0.0")
	iface := a.Interface("N.IShape")
	sub := a.Interface("N.ISolid", decl.Implements(iface))
	base := a.Class("N.Shape", decl.Abstract(), decl.Implements(iface))
	circle := a.Class("N.Circle", decl.Extends(base))
	cube := a.Class("N.Cube", decl.Implements(sub))
	point := a.Struct("N.Point", decl.Implements(iface))

	it, bt, ct := reg.Type(iface), reg.Type(base), reg.Type(circle)

	assert.True(t, ct.Extends(bt))
	assert.True(t, ct.Extends(reg.Type(decl.Object)))
	assert.False(t, bt.Extends(ct))
	assert.True(t, bt.Implements(it))
	assert.True(t, reg.Type(point).Implements(it))
	assert.True(t, reg.Type(cube).Implements(reg.Type(sub)))

	assert.True(t, ct.IsAssignableTo(bt))
	assert.True(t, ct.IsAssignableTo(ct))
	assert.True(t, bt.IsAssignableTo(it))
	assert.False(t, bt.IsAssignableTo(ct))
	assert.False(t, ct.IsAssignableTo(nil))
	assert.Zero(t, logs.Len())

	// Wrong kinds of argument answer false and are logged.
	assert.False(t, ct.Extends(it))
	assert.False(t, bt.Implements(ct))
	assert.False(t, ct.Extends(nil))
	assert.Equal(t, 3, logs.FilterMessage("type relation called with the wrong kind of type").Len())

	assert.True(t, bt.Modifier().Is(meta.Public|meta.Abstract))
	assert.True(t, it.IsInterface())
	assert.True(t, reg.Type(point).IsValue())
	assert.True(t, reg.Type(decl.Int32).Definition().Is(meta.Primitive))
	assert.Equal(t, "public|abstract class N.Shape : System.Object, N.IShape", bt.Describe())

	// Enum refines Value.
	color := reg.Type(a.Enum("N.Color"))
	assert.True(t, color.Definition().Is(meta.Enum))
	assert.True(t, color.Definition().Any(meta.Value))
	assert.False(t, color.Definition().Any(meta.Class))
	assert.False(t, color.Definition().Any(meta.Interface))
	assert.True(t, color.IsValue())
	assert.False(t, color.Definition().Is(meta.Value))
}

func TestTypeRelations_CyclicBase(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := meta.NewRegistry(meta.WithLogger(zap.New(core)))

	a := decl.NewAssembly("Loop", "1.0.0.0")
	x := a.Class("N.X")
	y := a.Class("N.Y", decl.Extends(x))
	x.SetBase(y)
	x.Field("A", decl.Int32)
	y.Field("B", decl.Int32)
	z := a.Class("N.Z", decl.Extends(x))
	z.Field("C", decl.Int32)

	xt, yt, zt := reg.Type(x), reg.Type(y), reg.Type(z)
	assert.Nil(t, xt.BaseType())
	assert.Nil(t, yt.BaseType())
	assert.Equal(t, 2, logs.FilterMessage("base type chain is cyclic").Len())

	assert.Equal(t, []string{"A"}, names(xt.Fields()))
	assert.Equal(t, []string{"B"}, names(yt.Fields()))
	assert.False(t, yt.Extends(xt))

	// A type hanging off the cycle keeps its base.
	assert.Same(t, xt, zt.BaseType())
	assert.True(t, zt.Extends(xt))
	assert.Equal(t, []string{"A", "C"}, names(zt.Fields()))
}

func TestGenerics(t *testing.T) {
	a := decl.NewAssembly("Gen", "1.0.0.0")
	box := a.Class("N.Box", decl.TypeParams("T"))
	box.Field("Item", box.TypeParam(0))
	util := a.Class("N.Util", decl.Static())
	wrap := util.Method("Wrap", nil, decl.Static(), decl.TypeParams("T"))
	wrap.Param("item", wrap.TypeParam(0))

	reg := meta.NewRegistry()
	bt := reg.Type(box)
	assert.True(t, bt.IsGenericTypeDefinition())
	require.Len(t, bt.GenericArguments(), 1)
	assert.True(t, bt.GenericArguments()[0].IsGenericParameter())

	ints, err := bt.MakeGenericType(reg.Type(decl.Int32))
	require.NoError(t, err)
	again, err := bt.MakeGenericType(reg.Type(decl.Int32))
	require.NoError(t, err)
	assert.Same(t, ints, again)
	assert.True(t, ints.IsGenericType())
	assert.False(t, ints.IsGenericTypeDefinition())
	assert.Same(t, bt, ints.GenericTypeDefinition())
	assert.Equal(t, []*meta.TypeData{reg.Type(decl.Int32)}, ints.GenericArguments())
	item, ok := ints.Field("Item")
	require.True(t, ok)
	assert.Same(t, reg.Type(decl.Int32), item.FieldType())

	_, err = ints.MakeGenericType(reg.Type(decl.Int32))
	assert.ErrorIs(t, err, meta.ErrNotGeneric)

	ut := reg.Type(util)
	assert.True(t, ut.Modifier().Is(meta.Public|meta.Static))
	m, ok := ut.Method("Wrap")
	require.True(t, ok)
	assert.True(t, m.IsGenericMethodDefinition())
	require.Len(t, m.GenericArguments(), 1)
	assert.Equal(t, "N.Util.Wrap(T).T", m.GenericArguments()[0].Path())

	ms, err := m.MakeGenericMethod(reg.Type(decl.String))
	require.NoError(t, err)
	ms2, ok := m.TryMakeGenericMethod(reg.Type(decl.String))
	require.True(t, ok)
	assert.Same(t, ms, ms2)
	assert.Same(t, m, ms.GenericMethodDefinition())
	assert.True(t, ms.IsGenericMethod())
	assert.False(t, ms.IsGenericMethodDefinition())
	assert.Same(t, reg.Type(decl.String), ms.GenericArguments()[0].Type())
	assert.Equal(t, "N.Util.Wrap(System.String)", ms.Path())

	_, err = ms.MakeGenericMethod(reg.Type(decl.String))
	assert.ErrorIs(t, err, meta.ErrNotGeneric)
}

func TestWarm(t *testing.T) {
	a := decl.NewAssembly("Warm", "1.0.0.0")
	for i := range 20 {
		c := a.Class(fmt.Sprintf("N.C%d", i))
		c.Field("F", decl.Int32)
		c.Method("M", nil)
	}
	reg := meta.NewRegistry()
	asm := reg.Assembly(a)

	require.NoError(t, asm.Warm(t.Context()))
	for _, td := range asm.Types() {
		assert.Len(t, td.Fields(), 1)
		assert.Len(t, td.Methods(), 4)
	}
	assert.Len(t, reg.Assemblies(), 2, "Warm and Core")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.NoError(t, reg.Assembly(decl.NewAssembly("Empty", "1.0.0.0")).Warm(ctx))
	cold := decl.NewAssembly("Cold", "1.0.0.0")
	cold.Class("N.X")
	assert.ErrorIs(t, reg.Assembly(cold).Warm(ctx), context.Canceled)
}
