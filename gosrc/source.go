// Package gosrc describes Go source packages statically, through go/types.
//
// It follows the same mapping as reflectsrc: packages are assemblies, a
// named struct is a class whose base is its first embedded struct and
// X/SetX method pairs are properties. Working from source adds what reflect
// cannot see: the complete list of types in a package, implicit interface
// satisfaction against every interface of the loaded packages, generic
// definitions, NewX factory functions as constructors, integer constants as
// enum values, and doc comments.
//
// Nothing is executed, so fields hold no values and methods cannot be
// invoked.
package gosrc

import (
	"context"
	"errors"
	"fmt"
	"go/constant"
	"go/doc"
	"go/types"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/skdltmxn/typemeta/raw"
)

var (
	// ErrNoPackages indicates a load that matched nothing.
	ErrNoPackages = errors.New("gosrc: no packages matched")

	// ErrStatic indicates an operation that needs a running program.
	ErrStatic = errors.New("gosrc: static source has no values")
)

// Config controls how packages are loaded.
type Config struct {
	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string

	// Env is the environment of the underlying go command, or nil to
	// inherit it.
	Env []string

	// Logger receives package errors and load statistics.
	Logger *zap.Logger
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedModule

// Source hands out raw descriptors for the types of loaded packages. It is
// safe for concurrent use.
type Source struct {
	log    *zap.Logger
	ctxt   *types.Context
	roots  []*pkgInfo
	byPath map[string]*pkgInfo
	ifaces []types.Type

	mu      sync.Mutex
	types   map[string]*Type
	params  map[*types.TypeParam]*Type
	pkgs    map[string]*types.Package
	consts  map[*types.TypeName][]*types.Const
	scanned map[*types.Package]bool
}

// pkgInfo is one package matched by the load patterns.
type pkgInfo struct {
	pkg *packages.Package

	docOnce sync.Once
	doc     *doc.Package
}

// Load type-checks the packages matched by patterns. Packages with errors
// are kept and logged; Load fails only when nothing could be loaded.
func Load(ctx context.Context, cfg Config, patterns ...string) (*Source, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     cfg.Dir,
		Env:     cfg.Env,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("gosrc: load %s: %w", strings.Join(patterns, " "), err)
	}

	s := &Source{
		log:     log,
		ctxt:    types.NewContext(),
		byPath:  make(map[string]*pkgInfo),
		types:   make(map[string]*Type),
		params:  make(map[*types.TypeParam]*Type),
		pkgs:    make(map[string]*types.Package),
		consts:  make(map[*types.TypeName][]*types.Const),
		scanned: make(map[*types.Package]bool),
	}
	for _, p := range pkgs {
		for _, e := range p.Errors {
			log.Warn("package error", zap.String("package", p.PkgPath), zap.String("error", e.Error()))
		}
		if p.Types == nil {
			continue
		}
		pi := &pkgInfo{pkg: p}
		s.roots = append(s.roots, pi)
		s.byPath[p.PkgPath] = pi
		s.pkgs[p.PkgPath] = p.Types
	}
	if len(s.roots) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackages, strings.Join(patterns, " "))
	}
	slices.SortFunc(s.roots, func(a, b *pkgInfo) int { return strings.Compare(a.pkg.PkgPath, b.pkg.PkgPath) })

	for _, pi := range s.roots {
		scope := pi.pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			named, ok := tn.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 {
				continue
			}
			if iface, ok := named.Underlying().(*types.Interface); ok && iface.NumMethods() > 0 {
				s.ifaces = append(s.ifaces, named)
			}
		}
	}
	log.Debug("packages loaded", zap.Int("packages", len(s.roots)), zap.Int("interfaces", len(s.ifaces)))
	return s, nil
}

// Packages returns the assemblies of the packages matched by the load
// patterns, ordered by import path.
func (s *Source) Packages() []raw.Assembly {
	out := make([]raw.Assembly, len(s.roots))
	for i, pi := range s.roots {
		out[i] = s.Assembly(pi.pkg.PkgPath)
	}
	return out
}

// Assembly returns the descriptor of the package at path. The empty path
// names the builtin package holding predeclared and unnamed types.
func (s *Source) Assembly(path string) raw.Assembly {
	return Assembly{src: s, path: path}
}

// Lookup finds a package-level type by its full name, as in
// "example.com/shapes.Circle".
func (s *Source) Lookup(fullName string) (raw.Type, bool) {
	i := strings.LastIndexByte(fullName, '.')
	if i <= 0 {
		return nil, false
	}
	pkg := s.typesPackage(fullName[:i])
	if pkg == nil {
		return nil, false
	}
	tn, ok := pkg.Scope().Lookup(fullName[i+1:]).(*types.TypeName)
	if !ok {
		return nil, false
	}
	return s.Type(tn.Type()), true
}

// Type returns the descriptor of t. A pointer to a named struct describes
// the struct itself. Equal types yield the same *Type. It returns nil for
// a nil t.
func (s *Source) Type(t types.Type) raw.Type {
	if t == nil {
		return nil
	}
	return s.intern(t)
}

func (s *Source) intern(t types.Type) *Type {
	t = normalize(types.Unalias(t))

	s.mu.Lock()
	defer s.mu.Unlock()

	if tp, ok := t.(*types.TypeParam); ok {
		if td, ok := s.params[tp]; ok {
			return td
		}
		td := &Type{src: s, t: t}
		s.params[tp] = td
		return td
	}

	key := types.TypeString(t, nil)
	if td, ok := s.types[key]; ok {
		return td
	}
	td := &Type{src: s, t: t}
	s.types[key] = td
	if named, ok := t.(*types.Named); ok && named.Obj().Pkg() != nil {
		pkg := named.Obj().Pkg()
		if _, ok := s.pkgs[pkg.Path()]; !ok {
			s.pkgs[pkg.Path()] = pkg
		}
	}
	return td
}

func (s *Source) typesPackage(path string) *types.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pkgs[path]
}

// interfaces returns the non-generic, non-empty interfaces declared by the
// loaded packages.
func (s *Source) interfaces() []types.Type { return s.ifaces }

// constants returns the package-level constants of a named type in
// declaration order.
func (s *Source) constants(tn *types.TypeName) []*types.Const {
	pkg := tn.Pkg()
	if pkg == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanned[pkg] {
		s.scanned[pkg] = true
		scope := pkg.Scope()
		for _, name := range scope.Names() {
			c, ok := scope.Lookup(name).(*types.Const)
			if !ok {
				continue
			}
			if named, ok := c.Type().(*types.Named); ok && named.Obj().Pkg() == pkg {
				s.consts[named.Obj()] = append(s.consts[named.Obj()], c)
			}
		}
		for _, cs := range s.consts {
			slices.SortStableFunc(cs, func(a, b *types.Const) int { return int(a.Pos() - b.Pos()) })
		}
	}
	return s.consts[tn]
}

// docs returns the documentation of a loaded package, or nil for packages
// only known from their export data.
func (s *Source) docs(path string) *doc.Package {
	pi := s.byPath[path]
	if pi == nil {
		return nil
	}
	pi.docOnce.Do(func() {
		d, err := doc.NewFromFiles(pi.pkg.Fset, pi.pkg.Syntax, path, doc.AllDecls|doc.PreserveAST)
		if err != nil {
			s.log.Debug("package documentation unavailable", zap.String("package", path), zap.Error(err))
			return
		}
		pi.doc = d
	})
	return pi.doc
}

func (s *Source) typeDoc(tn *types.TypeName) *doc.Type {
	if tn.Pkg() == nil {
		return nil
	}
	d := s.docs(tn.Pkg().Path())
	if d == nil {
		return nil
	}
	for _, dt := range d.Types {
		if dt.Name == tn.Name() {
			return dt
		}
	}
	return nil
}

func (s *Source) version(path string) string {
	if pi := s.byPath[path]; pi != nil && pi.pkg.Module != nil {
		return pi.pkg.Module.Version
	}
	return ""
}

// deprecation turns a "Deprecated: " paragraph of a doc comment into a tag.
func deprecation(text string) []any {
	for line := range strings.SplitSeq(text, "\n") {
		if rest, ok := strings.CutPrefix(line, "Deprecated: "); ok {
			return []any{raw.Tag{Key: "Deprecated", Value: strings.TrimSpace(rest)}}
		}
	}
	return nil
}

// constValue converts a constant to the Go value it denotes.
func constValue(v constant.Value) any {
	switch v.Kind() {
	case constant.Bool:
		return constant.BoolVal(v)
	case constant.String:
		return constant.StringVal(v)
	case constant.Int:
		if i, ok := constant.Int64Val(v); ok {
			return i
		}
		if u, ok := constant.Uint64Val(v); ok {
			return u
		}
	case constant.Float:
		f, _ := constant.Float64Val(v)
		return f
	}
	return v.ExactString()
}

// normalize maps a pointer to a named struct onto the struct.
func normalize(t types.Type) types.Type {
	if p, ok := t.(*types.Pointer); ok {
		if named, ok := p.Elem().(*types.Named); ok {
			if _, ok := named.Underlying().(*types.Struct); ok {
				return named
			}
		}
	}
	return t
}
