package graphexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skdltmxn/typemeta/decl"
	"github.com/skdltmxn/typemeta/il"
	"github.com/skdltmxn/typemeta/meta"
)

func shopTypes() []*meta.TypeData {
	a := decl.NewAssembly("Shop", "1.0.0.0")
	priced := a.Interface("Shop.IPriced")
	item := a.Class("Shop.Item", decl.Implements(priced))
	item.Field("Name", decl.String)
	tax := item.Method("Tax", decl.Int32, decl.Static())
	item.Constructor()

	book := a.Class("Shop.Book", decl.Extends(item))
	body := il.NewBuilder(nil).
		Token("call", a.Token(tax)).
		Op("ret").
		Bytes()
	book.Method("Total", decl.Int32).WithBody(body)

	reg := meta.NewRegistry()
	return []*meta.TypeData{reg.Type(book), reg.Type(item)}
}

func hasEdge(g *Graph, typ, from, to string) bool {
	for _, e := range g.Edges {
		if e == (Edge{Type: typ, From: from, To: to}) {
			return true
		}
	}
	return false
}

func findNode(t *testing.T, g *Graph, key string) Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.Key == key {
			return n
		}
	}
	require.Failf(t, "node missing", "%s", key)
	return Node{}
}

func TestCollect(t *testing.T) {
	g := Collect(shopTypes())

	keys := make(map[string]bool)
	for _, n := range g.Nodes {
		assert.False(t, keys[n.Key], "duplicate node %s", n.Key)
		keys[n.Key] = true
	}

	book := findNode(t, g, "Type:Shop.Book")
	assert.Equal(t, LabelType, book.Label)
	assert.Equal(t, "Book", book.Props["name"])
	assert.Equal(t, "Shop.Book", book.Props["path"])
	assert.Equal(t, "class", book.Props["definition"])

	asm := "Assembly:Shop, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null"
	assert.Equal(t, LabelAssembly, findNode(t, g, asm).Label)
	assert.True(t, hasEdge(g, RelInAssembly, "Type:Shop.Book", asm))

	assert.True(t, hasEdge(g, RelExtends, "Type:Shop.Book", "Type:Shop.Item"))
	assert.True(t, hasEdge(g, RelImplements, "Type:Shop.Item", "Type:Shop.IPriced"))

	// Inherited members are the base's nodes.
	assert.True(t, hasEdge(g, RelHasMember, "Type:Shop.Book", "Field:Shop.Item.Name"))
	assert.True(t, hasEdge(g, RelHasMember, "Type:Shop.Item", "Field:Shop.Item.Name"))
	assert.True(t, hasEdge(g, RelDeclares, "Type:Shop.Item", "Field:Shop.Item.Name"))
	assert.True(t, hasEdge(g, RelOfType, "Field:Shop.Item.Name", "Type:System.String"))
	assert.Equal(t, "field", findNode(t, g, "Field:Shop.Item.Name").Props["kind"])

	assert.True(t, hasEdge(g, RelReturns, "Method:Shop.Book.Total", "Type:System.Int32"))
	assert.True(t, hasEdge(g, RelCalls, "Method:Shop.Book.Total", "Method:Shop.Item.Tax"))
	assert.True(t, hasEdge(g, RelHasMember, "Type:Shop.Item", "Constructor:Shop.Item.ctor"))

	// Referenced types are not expanded.
	for _, e := range g.Edges {
		if e.Type == RelHasMember {
			assert.NotEqual(t, "Type:System.String", e.From)
		}
	}
}

func TestCollect_Empty(t *testing.T) {
	g := Collect(nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}
