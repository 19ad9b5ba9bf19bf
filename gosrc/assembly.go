package gosrc

import (
	"go/types"
	"path"

	"github.com/skdltmxn/typemeta/raw"
)

// Assembly describes a Go package.
type Assembly struct {
	src  *Source
	path string
}

// Path returns the import path.
func (a Assembly) Path() string { return a.path }

// Name returns the package name, or "builtin" for predeclared types.
func (a Assembly) Name() string {
	if a.path == "" {
		return "builtin"
	}
	if pkg := a.src.typesPackage(a.path); pkg != nil {
		return pkg.Name()
	}
	return path.Base(a.path)
}

// FullName returns the import path and, when known, the version of the
// module providing it.
func (a Assembly) FullName() string {
	if a.path == "" {
		return "builtin"
	}
	if v := a.src.version(a.path); v != "" {
		return a.path + ", Version=" + v
	}
	return a.path
}

// Types returns every package-level named type, by name. Packages known
// only through references list nothing.
func (a Assembly) Types() ([]raw.Type, error) {
	if a.src.byPath[a.path] == nil {
		return nil, nil
	}
	scope := a.src.typesPackage(a.path).Scope()
	var out []raw.Type
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		out = append(out, a.src.Type(tn.Type()))
	}
	return out, nil
}

// Attributes reports a "Deprecated" tag for deprecated packages.
func (a Assembly) Attributes() ([]any, error) { return deprecation(a.Doc()), nil }

// Doc returns the package doc comment.
func (a Assembly) Doc() string {
	if d := a.src.docs(a.path); d != nil {
		return d.Doc
	}
	return ""
}

func (a Assembly) String() string { return a.FullName() }
