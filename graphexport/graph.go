// Package graphexport turns registry nodes into a property graph and loads
// it into Neo4j.
package graphexport

import (
	"github.com/skdltmxn/typemeta/meta"
)

// Node labels. Every node also carries the Meta label.
const (
	LabelAssembly    = "Assembly"
	LabelType        = "Type"
	LabelField       = "Field"
	LabelProperty    = "Property"
	LabelMethod      = "Method"
	LabelConstructor = "Constructor"
)

// Relationship types.
const (
	RelInAssembly = "IN_ASSEMBLY"
	RelExtends    = "EXTENDS"
	RelImplements = "IMPLEMENTS"
	RelGenericOf  = "GENERIC_OF"
	RelHasMember  = "HAS_MEMBER"
	RelDeclares   = "DECLARES"
	RelOfType     = "OF_TYPE"
	RelReturns    = "RETURNS"
	RelCalls      = "CALLS"
)

// Node is one vertex. Key is unique across labels.
type Node struct {
	Label string
	Key   string
	Props map[string]any
}

// Edge is one relationship between two node keys.
type Edge struct {
	Type string
	From string
	To   string
}

// Graph is the property graph of a set of types.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Key returns the node key of a member.
func Key(m meta.Member) string {
	return label(m) + ":" + m.Path()
}

func label(m meta.Member) string {
	switch m.Kind() {
	case meta.KindAssembly:
		return LabelAssembly
	case meta.KindField:
		return LabelField
	case meta.KindProperty:
		return LabelProperty
	case meta.KindMethod:
		return LabelMethod
	case meta.KindConstructor:
		return LabelConstructor
	}
	return LabelType
}

type collector struct {
	g        *Graph
	nodes    map[string]bool
	expanded map[string]bool
	edges    map[Edge]bool
}

// Collect builds the graph of types: each type with its assembly, base,
// interfaces, generic definition and merged members, plus the types those
// members refer to and the methods their bodies call. Types reached only
// through references appear as nodes without their members.
func Collect(types []*meta.TypeData) *Graph {
	c := &collector{
		g:        &Graph{},
		nodes:    make(map[string]bool),
		expanded: make(map[string]bool),
		edges:    make(map[Edge]bool),
	}
	for _, t := range types {
		c.expand(t)
	}
	return c.g
}

func (c *collector) node(m meta.Member, props map[string]any) (string, bool) {
	key := Key(m)
	if c.nodes[key] {
		return key, false
	}
	c.nodes[key] = true
	props["name"] = m.Name()
	props["path"] = m.Path()
	c.g.Nodes = append(c.g.Nodes, Node{Label: label(m), Key: key, Props: props})
	return key, true
}

func (c *collector) edge(typ, from, to string) {
	e := Edge{Type: typ, From: from, To: to}
	if c.edges[e] {
		return
	}
	c.edges[e] = true
	c.g.Edges = append(c.g.Edges, e)
}

func (c *collector) assembly(a *meta.AssemblyData) string {
	key, _ := c.node(a, map[string]any{})
	return key
}

// typ adds the node of t and the edges every type node has.
func (c *collector) typ(t *meta.TypeData) string {
	key, added := c.node(t, map[string]any{
		"definition": t.Definition().String(),
		"modifier":   t.Modifier().String(),
	})
	if !added {
		return key
	}
	if a := t.Assembly(); a != nil {
		c.edge(RelInAssembly, key, c.assembly(a))
	}
	if d := t.GenericTypeDefinition(); d != nil && d != t {
		c.edge(RelGenericOf, key, c.typ(d))
	}
	return key
}

func (c *collector) expand(t *meta.TypeData) {
	key := c.typ(t)
	if c.expanded[key] {
		return
	}
	c.expanded[key] = true

	if b := t.BaseType(); b != nil {
		c.edge(RelExtends, key, c.typ(b))
	}
	for _, i := range t.Interfaces() {
		c.edge(RelImplements, key, c.typ(i))
	}
	for _, f := range t.Fields() {
		fk := c.member(key, f, f.DeclaringType(), f.Modifier())
		if ft := f.FieldType(); ft != nil {
			c.edge(RelOfType, fk, c.typ(ft))
		}
	}
	for _, p := range t.Properties() {
		pk := c.member(key, p, p.DeclaringType(), p.Modifier())
		if pt := p.PropertyType(); pt != nil {
			c.edge(RelOfType, pk, c.typ(pt))
		}
	}
	for _, m := range t.Methods() {
		mk := c.member(key, m, m.DeclaringType(), m.Modifier())
		if rt := m.ReturnType(); rt != nil {
			c.edge(RelReturns, mk, c.typ(rt))
		}
		c.calls(mk, m.Base())
	}
	for _, ctor := range t.Constructors() {
		ck := c.member(key, ctor, ctor.DeclaringType(), ctor.Modifier())
		c.calls(ck, ctor.Base())
	}
}

// member adds a member node owned by the type at owner.
func (c *collector) member(owner string, m meta.Member, declaring *meta.TypeData, mod meta.Modifier) string {
	key, _ := c.node(m, map[string]any{
		"kind":     m.Kind().String(),
		"modifier": mod.String(),
	})
	c.edge(RelHasMember, owner, key)
	if declaring != nil {
		c.edge(RelDeclares, c.typ(declaring), key)
	}
	return key
}

func (c *collector) calls(from string, m *meta.MethodBaseData) {
	for _, callee := range m.Calls() {
		b := callee.Base()
		to, added := c.node(callee, map[string]any{
			"kind":     callee.Kind().String(),
			"modifier": b.Modifier().String(),
		})
		if added && b.DeclaringType() != nil {
			c.edge(RelDeclares, c.typ(b.DeclaringType()), to)
		}
		c.edge(RelCalls, from, to)
	}
}
