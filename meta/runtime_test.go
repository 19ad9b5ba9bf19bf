package meta_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/typemeta/meta"
	"github.com/skdltmxn/typemeta/reflectsrc"
)

type Speaker interface{ Speak() string }

type Animal struct {
	Name string
	age  int
}

func (a *Animal) Speak() string { return a.Name + " makes a sound" }

type Dog struct {
	Animal
	Tricks int
}

func NewDog(name string) *Dog { return &Dog{Animal: Animal{Name: name}} }

func (d *Dog) Speak() string    { return d.Name + " barks" }
func (d *Dog) Fetch(n int) int  { return n * 2 }
func (d *Dog) Rank() int        { return d.Tricks }
func (d *Dog) SetRank(rank int) { d.Tricks = rank }

const pkg = "github.com/skdltmxn/typemeta/meta_test"

func runtimeRegistry(t *testing.T) *meta.Registry {
	src := reflectsrc.New(reflectsrc.WithInterfaces(reflect.TypeFor[Speaker]()))
	require.NoError(t, src.RegisterConstructor(NewDog))
	src.Annotate(reflect.TypeFor[Dog](), Serializable{Format: "yaml"})
	return meta.NewRegistry(meta.WithRuntimeSource(src))
}

func TestRuntime_Members(t *testing.T) {
	reg := runtimeRegistry(t)
	dt := meta.TypeFor[Dog](reg)
	at := meta.TypeFor[Animal](reg)

	assert.Equal(t, pkg+".Dog", dt.Path())
	assert.Same(t, dt, reg.TypeOfValue(&Dog{}))
	assert.Same(t, at, dt.BaseType())
	assert.True(t, dt.Extends(at))
	assert.True(t, dt.Modifier().Is(meta.Public|meta.Instance))
	assert.Equal(t, "meta_test", dt.Assembly().Name())
	assert.Same(t, reg.AssemblyOf(reflect.TypeFor[Dog]()), dt.Assembly())

	// Unexported fields stay visible inside their package.
	assert.Equal(t, []string{"Name", "age", "Tricks"}, names(dt.Fields()))
	assert.Equal(t, []string{"Speak", "Fetch(int)"}, names(dt.Methods()))
	assert.Equal(t, []string{"Rank"}, names(dt.Properties()))

	speak := dt.Methods()[0]
	assert.Same(t, at, speak.DeclaringType())
	assert.Same(t, dt, speak.ReflectedType())
	assert.Equal(t, pkg+".Animal.Speak", speak.Path())

	sp := meta.TypeFor[Speaker](reg)
	assert.True(t, sp.IsInterface())
	assert.True(t, dt.Implements(sp))
	assert.True(t, dt.IsAssignableTo(sp))

	s, ok := meta.TryGetAttribute[Serializable](dt)
	require.True(t, ok)
	assert.Equal(t, "yaml", s.Format)
}

func TestRuntime_Invoke(t *testing.T) {
	reg := runtimeRegistry(t)
	dt := meta.TypeFor[Dog](reg)

	ctors := dt.Constructors()
	require.Len(t, ctors, 1)
	assert.Equal(t, "ctor(string)", ctors[0].Name())

	d, ok := meta.TryCreate[*Dog](dt, "rex")
	require.True(t, ok)
	assert.Equal(t, "rex", d.Name)

	speak := dt.Methods()[0]
	v, err := meta.InvokeAs[string](speak, d)
	require.NoError(t, err)
	assert.Equal(t, "rex barks", v)

	fetch, ok := dt.Method("Fetch")
	require.True(t, ok)
	n, err := meta.InvokeAs[int](fetch, d, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	name, _ := dt.Field("Name")
	require.NoError(t, name.SetValue(d, "max"))
	assert.Equal(t, "max", d.Name)

	age, _ := dt.Field("age")
	_, err = age.Value(d)
	assert.ErrorIs(t, err, reflectsrc.ErrUnexported)

	rank, _ := dt.Property("Rank")
	require.NoError(t, rank.SetValue(d, 3))
	r, ok := meta.TryGetValue[int](rank, d)
	require.True(t, ok)
	assert.Equal(t, 3, r)

	// Animal has no registered constructor and is zero-constructed.
	a, ok := meta.TryCreate[*Animal](meta.TypeFor[Animal](reg))
	require.True(t, ok)
	assert.Empty(t, a.Name)
}

type Node struct {
	*Node
	Val int
}

type Left struct {
	*Right
	L int
}

type Right struct {
	*Left
	R int
}

func TestRuntime_EmbeddingCycles(t *testing.T) {
	reg := meta.NewRegistry()

	node := meta.TypeFor[Node](reg)
	assert.Nil(t, node.BaseType())
	assert.Equal(t, []string{"Node", "Val"}, names(node.Fields()))
	assert.Same(t, node, node.Fields()[0].FieldType())

	left, right := meta.TypeFor[Left](reg), meta.TypeFor[Right](reg)
	assert.Nil(t, left.BaseType())
	assert.Nil(t, right.BaseType())
	assert.False(t, left.Extends(right))
	assert.Equal(t, []string{"Right", "L"}, names(left.Fields()))
	assert.Equal(t, []string{"Left", "R"}, names(right.Fields()))
}

func localPoint() reflect.Type {
	type T struct{ X int }
	return reflect.TypeFor[T]()
}

func localLabel() reflect.Type {
	type T struct {
		Y string
		Z bool
	}
	return reflect.TypeFor[T]()
}

func TestRuntime_LocalTypesKeepTheirOwnNodes(t *testing.T) {
	reg := meta.NewRegistry()
	point, label := reg.TypeOf(localPoint()), reg.TypeOf(localLabel())

	require.NotSame(t, point, label)
	assert.Equal(t, point.Path(), label.Path())
	assert.Same(t, label, reg.TypeOf(localLabel()))
	assert.Equal(t, []string{"X"}, names(point.Fields()))
	assert.Equal(t, []string{"Y", "Z"}, names(label.Fields()))

	v := reflect.New(localLabel())
	v.Elem().Field(0).SetString("tag")
	y, err := label.Fields()[0].Value(v.Interface())
	require.NoError(t, err)
	assert.Equal(t, "tag", y)
}
