package meta

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skdltmxn/typemeta/raw"
)

// AssemblyData is the node of an assembly.
type AssemblyData struct {
	core
	raw raw.Assembly

	typesOnce sync.Once
	types     []*TypeData
}

// newAssemblyData runs under the registry lock and must only consult a.
func newAssemblyData(reg *Registry, a raw.Assembly) *AssemblyData {
	ad := &AssemblyData{
		core: core{
			reg:     reg,
			name:    a.Name(),
			path:    a.FullName(),
			attrSrc: a.Attributes,
		},
		raw: a,
	}
	ad.self = ad
	return ad
}

func (a *AssemblyData) Kind() MemberKind { return KindAssembly }

// Raw returns the source descriptor.
func (a *AssemblyData) Raw() raw.Assembly { return a.raw }

// Types returns the types declared directly in the assembly. A source that
// fails to list them yields an empty list.
func (a *AssemblyData) Types() []*TypeData {
	a.typesOnce.Do(func() {
		ts, err := a.raw.Types()
		if err != nil {
			a.reg.log.Debug("assembly types unavailable", zap.String("assembly", a.path), zap.Error(err))
			return
		}
		a.types = make([]*TypeData, 0, len(ts))
		for _, t := range ts {
			a.types = append(a.types, a.reg.Type(t))
		}
	})
	return a.types
}

// Warm computes the member lists of every type in the assembly
// concurrently. It stops early when ctx is done.
func (a *AssemblyData) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, t := range a.Types() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.Fields()
			t.Properties()
			t.Methods()
			t.Constructors()
			t.Attributes()
			return nil
		})
	}
	return g.Wait()
}
