package reflectsrc

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/typemeta/raw"
)

type Greeter interface {
	Greet(name string) string
}

type Level int

func (l Level) String() string { return fmt.Sprintf("L%d", int(l)) }

type Animal struct {
	Name  string `json:"name" db:"animal_name"`
	sound string
}

func (a *Animal) Speak() string         { return a.Name + " says " + a.sound }
func (a *Animal) Greet(n string) string { return "hello " + n }
func (a *Animal) Describe() string      { return "animal" }

type Dog struct {
	Animal
	Tricks int
	level  Level
}

func NewDog(name string) *Dog {
	return &Dog{Animal: Animal{Name: name, sound: "woof"}}
}

func (d *Dog) Describe() string   { return "dog " + d.Name }
func (d *Dog) Level() Level       { return d.level }
func (d *Dog) SetLevel(l Level)   { d.level = l }
func (d *Dog) Fetch(n int) int    { return n * 2 }
func (d *Dog) Fail() (int, error) { return 0, errors.New("no") }
func (d *Dog) Boom()              { panic("boom") }

func newSource() *Source {
	return New(
		WithInterfaces(reflect.TypeFor[Greeter]()),
		WithBuildInfo(&debug.BuildInfo{Main: debug.Module{Path: "github.com/skdltmxn/typemeta", Version: "v1.2.3"}}),
	)
}

func methodNames(t *testing.T, typ raw.Type) []string {
	ms, err := typ.Methods()
	require.NoError(t, err)
	var out []string
	for _, m := range ms {
		if !m.Special() {
			out = append(out, m.Name())
		}
	}
	return out
}

func TestType_Shape(t *testing.T) {
	s := newSource()
	dog := s.Type(reflect.TypeFor[*Dog]())

	assert.Equal(t, s.Type(reflect.TypeFor[Dog]()), dog)
	assert.Equal(t, "Dog", dog.Name())
	assert.Equal(t, "github.com/skdltmxn/typemeta/reflectsrc.Dog", dog.FullName())
	assert.Equal(t, raw.KindClass, dog.Kind())
	assert.Equal(t, raw.AccessPublic, dog.Access())
	assert.Equal(t, s.Type(reflect.TypeFor[Animal]()), dog.Base())
	assert.Nil(t, dog.Base().Base())
	assert.Equal(t, []raw.Type{s.Type(reflect.TypeFor[Greeter]())}, dog.Interfaces())

	assert.Equal(t, raw.KindEnum, s.Type(reflect.TypeFor[Level]()).Kind())
	assert.Equal(t, raw.KindPrimitive, s.Type(reflect.TypeFor[int]()).Kind())
	assert.Equal(t, raw.KindInterface, s.Type(reflect.TypeFor[Greeter]()).Kind())
	assert.True(t, s.Type(reflect.TypeFor[[]int]()).Nullable())
	assert.False(t, dog.Nullable())

	asm := dog.Assembly()
	assert.Equal(t, "reflectsrc", asm.Name())
	assert.Equal(t, "github.com/skdltmxn/typemeta/reflectsrc, Version=v1.2.3", asm.FullName())
	types, err := asm.Types()
	require.NoError(t, err)
	assert.Contains(t, types, dog)
}

type Chain struct {
	*Chain
	Next int
}

type Ping struct{ *Pong }

type Pong struct{ *Ping }

type Rally struct {
	Ping
	Score int
}

func TestType_EmbeddingCycles(t *testing.T) {
	s := newSource()

	chain := s.Type(reflect.TypeFor[Chain]())
	assert.Nil(t, chain.Base())
	fields, err := chain.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Chain", fields[0].Name())
	assert.Equal(t, chain, fields[0].Type())

	ping, pong := s.Type(reflect.TypeFor[Ping]()), s.Type(reflect.TypeFor[Pong]())
	assert.Nil(t, ping.Base())
	assert.Nil(t, pong.Base())

	// Embedding a member of a cycle from outside it is still inheritance.
	rally := s.Type(reflect.TypeFor[Rally]())
	assert.Equal(t, ping, rally.Base())
	fields, err = rally.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Score", fields[0].Name())
}

func TestType_Members(t *testing.T) {
	s := newSource()
	dog := s.Type(reflect.TypeFor[Dog]())
	animal := s.Type(reflect.TypeFor[Animal]())

	fields, err := dog.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Tricks", fields[0].Name())
	assert.Equal(t, raw.AccessAssembly, fields[1].Access())

	// Promoted Speak and Greet belong to Animal; Describe is redeclared.
	assert.Equal(t, []string{"Boom", "Describe", "Fail", "Fetch"}, methodNames(t, dog))
	assert.Equal(t, []string{"Describe", "Greet", "Speak"}, methodNames(t, animal))

	props, err := dog.Properties()
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "Level", props[0].Name())
	assert.Equal(t, s.Type(reflect.TypeFor[Level]()), props[0].Type())
	assert.True(t, props[0].Getter().Special())

	afields, err := animal.Fields()
	require.NoError(t, err)
	attrs, err := afields[0].Attributes()
	require.NoError(t, err)
	assert.Equal(t, []any{raw.Tag{Key: "json", Value: "name"}, raw.Tag{Key: "db", Value: "animal_name"}}, attrs)
}

func TestField_GetSet(t *testing.T) {
	s := newSource()
	d := NewDog("rex")
	animal := s.Type(reflect.TypeFor[Animal]())
	fields, err := animal.Fields()
	require.NoError(t, err)

	v, err := fields[0].Get(d)
	require.NoError(t, err)
	assert.Equal(t, "rex", v)

	require.NoError(t, fields[0].Set(d, "max"))
	assert.Equal(t, "max", d.Name)

	_, err = fields[1].Get(d)
	assert.ErrorIs(t, err, ErrUnexported)

	err = fields[0].Set(*d, "x")
	assert.ErrorIs(t, err, ErrNotAddressable)

	err = fields[0].Set(d, 12)
	assert.ErrorIs(t, err, raw.ErrValueMismatch)

	_, err = fields[0].Get("not a dog")
	assert.ErrorIs(t, err, raw.ErrTargetMismatch)
}

func TestMethod_Invoke(t *testing.T) {
	s := newSource()
	require.NoError(t, s.RegisterConstructor(NewDog))
	dog := s.Type(reflect.TypeFor[Dog]())

	ctors, err := dog.Constructors()
	require.NoError(t, err)
	require.Len(t, ctors, 1)
	assert.True(t, ctors[0].Constructor())
	require.Len(t, ctors[0].Parameters(), 1)
	assert.Equal(t, "arg0", ctors[0].Parameters()[0].Name())

	obj, err := ctors[0].Invoke(nil, []any{"rex"})
	require.NoError(t, err)
	d := obj.(*Dog)

	ms, err := dog.Methods()
	require.NoError(t, err)
	byName := make(map[string]raw.Method)
	for _, m := range ms {
		byName[m.Name()] = m
	}

	out, err := byName["Fetch"].Invoke(d, []any{21})
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	out, err = byName["Describe"].Invoke(*d, nil)
	require.NoError(t, err)
	assert.Equal(t, "dog rex", out)

	_, err = byName["Fail"].Invoke(d, nil)
	assert.EqualError(t, err, "no")

	_, err = byName["Boom"].Invoke(d, nil)
	assert.ErrorContains(t, err, "panicked: boom")

	_, err = byName["Fetch"].Invoke(&Animal{}, []any{1})
	assert.ErrorIs(t, err, raw.ErrTargetMismatch)

	_, err = byName["Fetch"].Invoke(d, []any{"x"})
	assert.ErrorIs(t, err, raw.ErrValueMismatch)

	assert.ErrorIs(t, s.RegisterConstructor(42), ErrBadConstructor)
}
