package meta_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skdltmxn/typemeta/decl"
	"github.com/skdltmxn/typemeta/meta"
	"github.com/skdltmxn/typemeta/raw"
)

// visibilityFixture declares Lib.BaseType with one field and one method per
// accessibility, a child in the same assembly and a child in another one.
func visibilityFixture() (base, same, cross *decl.Type) {
	lib := decl.NewAssembly("Lib", "1.0.0.0")
	app := decl.NewAssembly("App", "1.0.0.0")

	base = lib.Class("Lib.BaseType")
	base.Field("PublicField", decl.Int32)
	base.Field("InternalField", decl.Int32, decl.Internal())
	base.Field("ProtectedField", decl.Int32, decl.Protected())
	base.Field("PrivateField", decl.Int32, decl.Private())
	base.Method("PublicMethod", nil)
	base.Method("InternalMethod", nil, decl.Internal())
	base.Method("ProtectedMethod", nil, decl.Protected())
	base.Method("PrivateMethod", nil, decl.Private())

	same = lib.Class("Lib.ChildType", decl.Extends(base))
	cross = app.Class("App.ChildType", decl.Extends(base))
	return base, same, cross
}

func names[M meta.Member](ms []M) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name()
	}
	return out
}

func TestMerge_Visibility(t *testing.T) {
	base, same, cross := visibilityFixture()
	reg := meta.NewRegistry()

	assert.Len(t, reg.Type(base).Fields(), 4)
	// Every class also inherits the three public methods of System.Object.
	assert.Len(t, reg.Type(base).Methods(), 7)

	sameT := reg.Type(same)
	assert.Equal(t, []string{"PublicField", "InternalField", "ProtectedField"}, names(sameT.Fields()))
	assert.Equal(t, []string{
		"ToString", "Equals(System.Object)", "GetHashCode",
		"PublicMethod", "InternalMethod", "ProtectedMethod",
	}, names(sameT.Methods()))

	crossT := reg.Type(cross)
	assert.Equal(t, []string{"PublicField", "ProtectedField"}, names(crossT.Fields()))
	assert.Len(t, crossT.Methods(), 5)
	_, ok := crossT.Method("InternalMethod")
	assert.False(t, ok)
	_, ok = crossT.Method("PrivateMethod")
	assert.False(t, ok)

	// Inherited entries are the base's own nodes.
	assert.Same(t, reg.Type(base).Fields()[0], sameT.Fields()[0])
	assert.Same(t, reg.Type(base), sameT.Fields()[0].DeclaringType())
}

func TestMerge_ProtectedInternalCrossesAssemblies(t *testing.T) {
	lib := decl.NewAssembly("Lib", "1.0.0.0")
	app := decl.NewAssembly("App", "1.0.0.0")
	base := lib.Class("Lib.B")
	base.Field("Shared", decl.Int32, decl.ProtectedInternal())
	base.Field("Hidden", decl.Int32, decl.Access(raw.AccessFamilyAndAssembly))
	same := lib.Class("Lib.D", decl.Extends(base))
	cross := app.Class("App.D", decl.Extends(base))

	reg := meta.NewRegistry()
	assert.Equal(t, []string{"Shared", "Hidden"}, names(reg.Type(same).Fields()))
	assert.Equal(t, []string{"Shared"}, names(reg.Type(cross).Fields()))
}

func TestMerge_Override(t *testing.T) {
	a := decl.NewAssembly("Over", "1.0.0.0")
	b := a.Class("N.B")
	b.Method("M", nil, decl.Protected()).Param("x", decl.Int32)
	d := a.Class("N.D", decl.Extends(b))
	dm := d.Method("M", nil).Param("x", decl.Int32)

	reg := meta.NewRegistry()
	methods := reg.Type(d).Methods()

	var matches []*meta.MethodData
	for _, m := range methods {
		if m.Name() == "M(System.Int32)" {
			matches = append(matches, m)
		}
	}
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Same(t, m, methods[3], "override keeps the inherited slot")
	assert.Same(t, reg.Type(b), m.DeclaringType())
	assert.Same(t, reg.Type(d), m.ReflectedType())
	assert.Equal(t, "N.B.M(System.Int32)", m.Path())
	assert.True(t, m.Modifier().Any(meta.Public))
	assert.False(t, m.Modifier().Any(meta.Protected))
	assert.Equal(t, dm, m.Raw())

	// The base keeps its own protected node.
	bm, ok := reg.Type(b).Method("M")
	require.True(t, ok)
	assert.True(t, bm.Modifier().Is(meta.Protected|meta.Instance))
	assert.NotSame(t, bm, m)
	assert.True(t, meta.Equal(bm, m))
}

func TestMerge_OverloadsAreDistinct(t *testing.T) {
	a := decl.NewAssembly("Text", "1.0.0.0")
	msg := a.Class("N.Message")
	msg.Method("Append", nil).Param("value", decl.String)
	msg.Method("Append", nil).Param("value", decl.Int32)
	rich := a.Class("N.RichMessage", decl.Extends(msg))
	rich.Method("Append", nil).Param("text", decl.String)
	rich.Method("Append", nil).Param("value", decl.Int32).Param("count", decl.Int32)

	reg := meta.NewRegistry()
	base := reg.Type(msg).Methods()
	merged := reg.Type(rich).Methods()

	assert.Equal(t, []string{
		"ToString", "Equals(System.Object)", "GetHashCode",
		"Append(System.String)", "Append(System.Int32)", "Append(System.Int32,System.Int32)",
	}, names(merged))

	// Parameter names do not take part in the signature.
	assert.Same(t, reg.Type(rich), merged[3].ReflectedType())
	assert.Same(t, reg.Type(msg), merged[3].DeclaringType())
	assert.Same(t, base[4], merged[4], "Append(int) stays a pure inherited entry")
	assert.Same(t, reg.Type(rich), merged[5].DeclaringType())
}

func TestMerge_GenericParametersMatchByPosition(t *testing.T) {
	a := decl.NewAssembly("Gen", "1.0.0.0")
	b := a.Class("N.B")
	bm := b.Method("Put", nil, decl.TypeParams("T"))
	bm.Param("item", bm.TypeParam(0))
	d := a.Class("N.D", decl.Extends(b))
	dm := d.Method("Put", nil, decl.TypeParams("U"))
	dm.Param("item", dm.TypeParam(0))

	reg := meta.NewRegistry()
	var puts []*meta.MethodData
	for _, m := range reg.Type(d).Methods() {
		if m.Raw().Name() == "Put" {
			puts = append(puts, m)
		}
	}
	require.Len(t, puts, 1)
	assert.Equal(t, "Put(!!0)", puts[0].Signature())
	assert.Equal(t, dm, puts[0].Raw())
}

func TestMerge_PropertiesAndSpecialMembers(t *testing.T) {
	a := decl.NewAssembly("Props", "1.0.0.0")
	b := a.Class("N.B")
	b.Property("Label", decl.String)
	b.Property("Secret", decl.String, decl.Private())
	d := a.Class("N.D", decl.Extends(b))
	d.Property("Label", decl.String, decl.ReadOnly())
	d.Property("Count", decl.Int32)

	reg := meta.NewRegistry()
	bt := reg.Type(b)
	// Backing fields and accessors are not listed.
	assert.Empty(t, bt.Fields())
	assert.Len(t, bt.Methods(), 3)

	props := reg.Type(d).Properties()
	assert.Equal(t, []string{"Label", "Count"}, names(props))
	assert.Same(t, bt, props[0].DeclaringType())
	assert.Nil(t, props[0].Set(), "the override is read-only")
	assert.Same(t, reg.Type(d), props[1].DeclaringType())
}

func TestMerge_ConstructorsAreNotInherited(t *testing.T) {
	a := decl.NewAssembly("Ctors", "1.0.0.0")
	b := a.Class("N.B")
	b.Constructor()
	b.Constructor().Param("size", decl.Int32)
	d := a.Class("N.D", decl.Extends(b))

	reg := meta.NewRegistry()
	ctors := reg.Type(b).Constructors()
	require.Len(t, ctors, 2)
	assert.Equal(t, "N.B.ctor", ctors[0].Path())
	assert.Equal(t, "N.B.ctor(System.Int32)", ctors[1].Path())
	assert.True(t, ctors[0].IsDefault())
	assert.False(t, ctors[1].IsDefault())
	assert.Equal(t, meta.KindConstructor, ctors[0].Kind())

	assert.Empty(t, reg.Type(d).Constructors())
}

func TestMerge_DegradesToEmpty(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := meta.NewRegistry(meta.WithLogger(zap.New(core)))

	a := decl.NewAssembly("Broken", "1.0.0.0")
	b := a.Class("N.B")
	b.Field("F", decl.Int32)
	b.Constructor()
	b.Fail(errors.New("metadata unavailable"))
	d := a.Class("N.D", decl.Extends(b))
	d.Field("G", decl.Int32)

	bt := reg.Type(b)
	assert.Empty(t, bt.Fields())
	assert.Empty(t, bt.Methods())
	assert.Empty(t, bt.Constructors())
	assert.Equal(t, []string{"G"}, names(reg.Type(d).Fields()))

	entries := logs.FilterMessage("member list degraded to empty").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "N.B", entries[0].ContextMap()["type"])
}

func TestMerge_SamePathAcrossAssemblies(t *testing.T) {
	lib := decl.NewAssembly("Lib", "1.0.0.0")
	app := decl.NewAssembly("App", "1.0.0.0")
	base := lib.Class("Lib.B")
	base.Field("Internal", decl.Int32, decl.Internal())
	base.Field("Protected", decl.Int32, decl.Protected())
	inLib := lib.Class("N.Child", decl.Extends(base))
	inApp := app.Class("N.Child", decl.Extends(base))
	inApp.Field("Extra", decl.String)

	reg := meta.NewRegistry()
	libT, appT := reg.Type(inLib), reg.Type(inApp)
	require.NotSame(t, libT, appT)
	assert.Equal(t, libT.Path(), appT.Path())
	assert.Same(t, libT, reg.Type(inLib))
	assert.Same(t, appT, reg.Type(inApp))

	assert.Equal(t, "Lib", libT.Assembly().Name())
	assert.Equal(t, "App", appT.Assembly().Name())
	assert.Equal(t, []string{"Internal", "Protected"}, names(libT.Fields()))
	assert.Equal(t, []string{"Protected", "Extra"}, names(appT.Fields()))

	// Lookup answers with the first node created for a Path.
	found, ok := reg.Lookup("N.Child")
	require.True(t, ok)
	assert.Same(t, libT, found)

	var children int
	for _, td := range reg.Types() {
		if td.Path() == "N.Child" {
			children++
		}
	}
	assert.Equal(t, 2, children)
}
