package reflectsrc

import (
	"path"

	"github.com/skdltmxn/typemeta/raw"
)

// Assembly describes a Go package.
type Assembly struct {
	src  *Source
	path string
}

// Name returns the last element of the import path, or "builtin".
func (a Assembly) Name() string {
	if a.path == "" {
		return "builtin"
	}
	return path.Base(a.path)
}

// FullName returns the import path and, when the binary carries build
// information, the version of the module providing it.
func (a Assembly) FullName() string {
	if a.path == "" {
		return "builtin"
	}
	if v := a.src.version(a.path); v != "" {
		return a.path + ", Version=" + v
	}
	return a.path
}

// Types lists the package's types this source has been shown, by name.
func (a Assembly) Types() ([]raw.Type, error) {
	ts := a.src.packageTypes(a.path)
	out := make([]raw.Type, len(ts))
	for i, t := range ts {
		out[i] = Type{src: a.src, t: t}
	}
	return out, nil
}

func (a Assembly) Attributes() ([]any, error) {
	a.src.mu.RLock()
	defer a.src.mu.RUnlock()
	return append([]any(nil), a.src.pkgAttrs[a.path]...), nil
}

func (a Assembly) String() string { return a.FullName() }
