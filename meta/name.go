package meta

import (
	"slices"
	"strconv"
	"strings"

	"github.com/skdltmxn/typemeta/raw"
)

// ctorName replaces the source's constructor name in Names and Paths.
const ctorName = "ctor"

// typePath is the full name of t, or its simple name when it has none.
func typePath(t raw.Type) string {
	if t == nil {
		return ""
	}
	if fn := t.FullName(); fn != "" {
		return fn
	}
	return t.Name()
}

func pathOf(t *TypeData) string {
	if t == nil {
		return ""
	}
	return t.path
}

func memberPath(declaring *TypeData, name string) string {
	if declaring == nil {
		return name
	}
	return declaring.path + "." + name
}

func rawMethodName(m raw.Method) string {
	if m.Constructor() {
		return ctorName
	}
	return m.Name()
}

// methodName qualifies a method name with the Paths of its parameter types,
// as in "Append(System.String)". Methods without parameters keep the bare
// name.
func methodName(reg *Registry, m raw.Method) string {
	name := rawMethodName(m)
	params := m.Parameters()
	if len(params) == 0 {
		return name
	}

	paths := make([]string, len(params))
	for i, p := range params {
		if pt := reg.Type(p.Type()); pt != nil {
			paths[i] = pt.path
		}
	}
	return name + "(" + strings.Join(paths, ",") + ")"
}

// signatureKey identifies a method for override matching: its name and the
// identities of its parameter types. Generic parameters are keyed by
// position, !!i for the method's own and !i for the declaring type's, so
// renaming a placeholder does not make a new overload.
func signatureKey(m raw.Method) string {
	var b strings.Builder
	b.WriteString(rawMethodName(m))
	b.WriteByte('(')

	margs := m.GenericArguments()
	var targs []raw.Type
	if dt := m.DeclaringType(); dt != nil {
		targs = dt.GenericArguments()
	}
	for i, p := range m.Parameters() {
		if i > 0 {
			b.WriteByte(',')
		}
		pt := p.Type()
		if pt != nil && pt.IsGenericParameter() {
			if j := slices.Index(margs, pt); j >= 0 {
				b.WriteString("!!" + strconv.Itoa(j))
				continue
			}
			if j := slices.Index(targs, pt); j >= 0 {
				b.WriteString("!" + strconv.Itoa(j))
				continue
			}
		}
		b.WriteString(typePath(pt))
	}
	b.WriteByte(')')
	return b.String()
}
