package meta

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/skdltmxn/typemeta/il"
	"github.com/skdltmxn/typemeta/raw"
	"github.com/skdltmxn/typemeta/reflectsrc"
)

// DefaultInstructionCacheSize is the number of decoded method bodies a
// registry keeps unless configured otherwise.
const DefaultInstructionCacheSize = 256

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for degraded metadata and contract misuse.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRuntimeSource sets the source used for Go types and values.
func WithRuntimeSource(s *reflectsrc.Source) Option {
	return func(r *Registry) { r.runtime = s }
}

// WithInstructionCacheSize bounds the number of decoded method bodies kept.
func WithInstructionCacheSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.bodySize = n
		}
	}
}

// Registry is the type and assembly cache. It holds at most one TypeData
// per source type and one AssemblyData per source assembly, for its whole
// lifetime. It is safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	types      map[raw.Type]*TypeData
	nodes      []*TypeData
	byPath     map[string]*TypeData
	assemblies map[raw.Assembly]*AssemblyData

	runtime  *reflectsrc.Source
	log      *zap.Logger
	bodySize int
	bodies   *lru.Cache[string, []il.Instruction]
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:      make(map[raw.Type]*TypeData),
		byPath:     make(map[string]*TypeData),
		assemblies: make(map[raw.Assembly]*AssemblyData),
		log:        zap.NewNop(),
		bodySize:   DefaultInstructionCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runtime == nil {
		r.runtime = reflectsrc.New()
	}
	// lru.New only fails for a non-positive size.
	r.bodies, _ = lru.New[string, []il.Instruction](r.bodySize)
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}

// Logger returns the registry's logger.
func (r *Registry) Logger() *zap.Logger { return r.log }

// Runtime returns the source used for Go types and values.
func (r *Registry) Runtime() *reflectsrc.Source { return r.runtime }

// Type returns the node for t, creating it on first request. Nodes are keyed
// by descriptor: two descriptors with the same Path get distinct nodes, and
// Lookup finds the first one created. It returns nil for a nil t.
func (r *Registry) Type(t raw.Type) *TypeData {
	if t == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if td, ok := r.types[t]; ok {
		return td
	}
	td := newTypeData(r, t)
	// Generic parameters are named by placeholder only, so their Paths are
	// not unique.
	if !t.IsGenericParameter() {
		if _, ok := r.byPath[td.path]; !ok {
			r.byPath[td.path] = td
		}
		r.nodes = append(r.nodes, td)
	}
	r.types[t] = td
	return td
}

// TypeOf returns the node for a Go type.
func (r *Registry) TypeOf(t reflect.Type) *TypeData {
	if t == nil {
		return nil
	}
	return r.Type(r.runtime.Type(t))
}

// TypeOfValue returns the node for the runtime type of v. Values that know
// their own descriptor (raw.Typed) map to it; anything else is described by
// the runtime source. It returns nil for a nil v.
func (r *Registry) TypeOfValue(v any) *TypeData {
	switch x := v.(type) {
	case nil:
		return nil
	case raw.Typed:
		return r.Type(x.RawType())
	}
	return r.Type(r.runtime.TypeOf(v))
}

// TypeFor returns the node for the Go type T.
func TypeFor[T any](r *Registry) *TypeData {
	return r.TypeOf(reflect.TypeFor[T]())
}

// Assembly returns the node for a, creating it on first request.
func (r *Registry) Assembly(a raw.Assembly) *AssemblyData {
	if a == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ad, ok := r.assemblies[a]; ok {
		return ad
	}
	ad := newAssemblyData(r, a)
	r.assemblies[a] = ad
	return ad
}

// AssemblyOf returns the node for the package declaring a Go type.
func (r *Registry) AssemblyOf(t reflect.Type) *AssemblyData {
	if t == nil {
		return nil
	}
	return r.Assembly(r.runtime.Type(t).Assembly())
}

// Lookup finds an already created type by Path.
func (r *Registry) Lookup(path string) (*TypeData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	td, ok := r.byPath[path]
	return td, ok
}

// Types returns every type node created so far except generic parameters,
// ordered by Path and then by creation.
func (r *Registry) Types() []*TypeData {
	r.mu.Lock()
	out := slices.Clone(r.nodes)
	r.mu.Unlock()

	slices.SortStableFunc(out, func(a, b *TypeData) int { return strings.Compare(a.path, b.path) })
	return out
}

// Assemblies returns every assembly node created so far, ordered by Path.
func (r *Registry) Assemblies() []*AssemblyData {
	r.mu.Lock()
	out := make([]*AssemblyData, 0, len(r.assemblies))
	for _, ad := range r.assemblies {
		out = append(out, ad)
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b *AssemblyData) int { return strings.Compare(a.path, b.path) })
	return out
}
