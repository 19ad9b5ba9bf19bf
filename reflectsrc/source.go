// Package reflectsrc describes live Go types through the reflect package.
//
// Go packages play the part of assemblies. A named struct type is a class
// whose base is its first embedded struct. Methods of the form X() T paired
// with SetX(T) surface as properties. Go has no runtime list of the types a
// package declares, so an assembly lists the types the source has been shown.
package reflectsrc

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/skdltmxn/typemeta/raw"
)

var (
	// ErrUnexported indicates access to an unexported struct field.
	ErrUnexported = errors.New("reflectsrc: unexported member")

	// ErrNotAddressable indicates a write through a value that is not a
	// pointer.
	ErrNotAddressable = errors.New("reflectsrc: instance is not addressable")

	// ErrBadConstructor indicates a registered constructor of the wrong shape.
	ErrBadConstructor = errors.New("reflectsrc: constructor must be a func returning a named type")
)

var (
	errorType    = reflect.TypeFor[error]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
)

type memberKey struct {
	t      reflect.Type
	member string
}

// Option configures a Source.
type Option func(*Source)

// WithInterfaces registers interfaces that types are checked against when
// reporting what they implement. Go interfaces are satisfied implicitly, so
// only registered ones are ever reported.
func WithInterfaces(ifaces ...reflect.Type) Option {
	return func(s *Source) { s.RegisterInterfaces(ifaces...) }
}

// WithBuildInfo overrides the build information used for package versions.
func WithBuildInfo(bi *debug.BuildInfo) Option {
	return func(s *Source) {
		s.buildOnce.Do(func() {})
		s.build = bi
	}
}

// Source hands out raw descriptors for reflect types. It is safe for
// concurrent use.
type Source struct {
	mu       sync.RWMutex
	ifaces   []reflect.Type
	ctors    map[reflect.Type][]reflect.Value
	attrs    map[memberKey][]any
	pkgAttrs map[string][]any
	known    map[string][]reflect.Type
	seen     map[reflect.Type]bool

	layouts sync.Map // reflect.Type -> *layout

	buildOnce sync.Once
	build     *debug.BuildInfo
}

func New(opts ...Option) *Source {
	s := &Source{
		ctors:    make(map[reflect.Type][]reflect.Value),
		attrs:    make(map[memberKey][]any),
		pkgAttrs: make(map[string][]any),
		known:    make(map[string][]reflect.Type),
		seen:     make(map[reflect.Type]bool),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Type returns the descriptor of t. A pointer to a named struct describes
// the struct itself. It returns nil for a nil t.
func (s *Source) Type(t reflect.Type) raw.Type {
	if t == nil {
		return nil
	}
	t = normalize(t)
	s.remember(t)
	return Type{src: s, t: t}
}

// TypeOf returns the descriptor of v's dynamic type.
func (s *Source) TypeOf(v any) raw.Type {
	return s.Type(reflect.TypeOf(v))
}

// Assembly returns the descriptor of the package at path. The empty path
// names the builtin package holding predeclared and unnamed types.
func (s *Source) Assembly(path string) raw.Assembly {
	return Assembly{src: s, path: path}
}

// Register makes types known to their package's listing.
func (s *Source) Register(types ...reflect.Type) {
	for _, t := range types {
		s.Type(t)
	}
}

// RegisterInterfaces adds interfaces to the implementation checks.
func (s *Source) RegisterInterfaces(ifaces ...reflect.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range ifaces {
		if i.Kind() == reflect.Interface && !slices.Contains(s.ifaces, i) {
			s.ifaces = append(s.ifaces, i)
		}
	}
}

// RegisterConstructor records fn as a constructor of the type it returns. fn
// returns T, *T or (T, error).
func (s *Source) RegisterConstructor(fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("%w: got %T", ErrBadConstructor, fn)
	}
	ft := v.Type()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return fmt.Errorf("%w: %s", ErrBadConstructor, ft)
	}
	t := normalize(ft.Out(0))
	if t.Name() == "" {
		return fmt.Errorf("%w: %s", ErrBadConstructor, ft)
	}

	s.mu.Lock()
	s.ctors[t] = append(s.ctors[t], v)
	s.mu.Unlock()
	s.remember(t)
	return nil
}

// Annotate attaches attribute values to a type.
func (s *Source) Annotate(t reflect.Type, attrs ...any) {
	s.AnnotateMember(t, "", attrs...)
}

// AnnotateMember attaches attribute values to a field, method or property
// of t. Constructors are annotated under the name ".ctor".
func (s *Source) AnnotateMember(t reflect.Type, member string, attrs ...any) {
	k := memberKey{normalize(t), member}
	s.mu.Lock()
	s.attrs[k] = append(s.attrs[k], attrs...)
	s.mu.Unlock()
}

// AnnotatePackage attaches attribute values to a package.
func (s *Source) AnnotatePackage(path string, attrs ...any) {
	s.mu.Lock()
	s.pkgAttrs[path] = append(s.pkgAttrs[path], attrs...)
	s.mu.Unlock()
}

func (s *Source) annotations(t reflect.Type, member string) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attrs[memberKey{t, member}])
}

func (s *Source) constructors(t reflect.Type) []reflect.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctors[t]
}

func (s *Source) interfaces() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ifaces)
}

func (s *Source) remember(t reflect.Type) {
	s.mu.RLock()
	ok := s.seen[t]
	s.mu.RUnlock()
	if ok || t.Name() == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[t] {
		return
	}
	s.seen[t] = true
	s.known[t.PkgPath()] = append(s.known[t.PkgPath()], t)
}

func (s *Source) packageTypes(path string) []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.known[path])
	slices.SortFunc(out, func(a, b reflect.Type) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// version finds the module version that provides a package.
func (s *Source) version(pkgPath string) string {
	s.buildOnce.Do(func() {
		s.build, _ = debug.ReadBuildInfo()
	})
	if s.build == nil || pkgPath == "" {
		return ""
	}

	best, version := "", ""
	consider := func(m *debug.Module) {
		if m == nil || len(m.Path) <= len(best) {
			return
		}
		if pkgPath == m.Path || strings.HasPrefix(pkgPath, m.Path+"/") {
			best, version = m.Path, m.Version
		}
	}
	consider(&s.build.Main)
	for _, d := range s.build.Deps {
		consider(d)
	}
	return version
}

func normalize(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Elem().Name() != "" {
		return t.Elem()
	}
	return t
}
