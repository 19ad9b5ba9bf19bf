package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skdltmxn/typemeta/decl"
	"github.com/skdltmxn/typemeta/gosrc"
	"github.com/skdltmxn/typemeta/meta"
)

// session is a registry populated from one source.
type session struct {
	reg        *meta.Registry
	assemblies []*meta.AssemblyData
}

func isManifest(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// openSource loads manifests when every argument is one, and Go package
// patterns otherwise.
func openSource(ctx context.Context, args []string) (*session, error) {
	s := &session{
		reg: meta.NewRegistry(
			meta.WithLogger(logger),
			meta.WithInstructionCacheSize(cfg.Cache.Instructions),
		),
	}

	manifests := true
	for _, arg := range args {
		manifests = manifests && isManifest(arg)
	}

	if manifests {
		var refs []*decl.Assembly
		for _, path := range args {
			a, err := decl.LoadManifestFile(path, refs...)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
			refs = append(refs, a)
			s.assemblies = append(s.assemblies, s.reg.Assembly(a))
		}
		return s, nil
	}

	src, err := gosrc.Load(ctx, gosrc.Config{Logger: logger}, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	for _, a := range src.Packages() {
		s.assemblies = append(s.assemblies, s.reg.Assembly(a))
	}
	return s, nil
}

// types returns the types the source's assemblies declare, in assembly
// order.
func (s *session) types() []*meta.TypeData {
	var out []*meta.TypeData
	for _, a := range s.assemblies {
		out = append(out, a.Types()...)
	}
	return out
}

// lookupType finds a declared type by its Path.
func (s *session) lookupType(path string) (*meta.TypeData, error) {
	for _, t := range s.types() {
		if t.Path() == path {
			return t, nil
		}
	}
	if t, ok := s.reg.Lookup(path); ok {
		return t, nil
	}
	return nil, fmt.Errorf("type not found: %s", path)
}

// lookupMethod finds a method or constructor by its Path.
func (s *session) lookupMethod(path string) (*meta.MethodBaseData, error) {
	for _, t := range s.types() {
		if !strings.HasPrefix(path, t.Path()+".") {
			continue
		}
		for _, m := range t.Methods() {
			if m.Path() == path {
				return m.Base(), nil
			}
		}
		for _, c := range t.Constructors() {
			if c.Path() == path {
				return c.Base(), nil
			}
		}
	}
	return nil, fmt.Errorf("method not found: %s", path)
}
