package jtdbind

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/reoring/jtdbind/jtd"
)

// RegistryBuilder collects bindings during setup. Build publishes an
// immutable snapshot; the builder may keep accepting registrations without
// affecting registries built earlier.
type RegistryBuilder struct {
	mu       sync.Mutex
	bindings map[reflect.Type]Binding
	log      Logger
}

// NewRegistryBuilder returns an empty builder. Only WithLogger applies; the
// logger is inherited by decoders and encoders using the built registry.
func NewRegistryBuilder(opts ...Option) *RegistryBuilder {
	o := buildOptions(opts)
	return &RegistryBuilder{bindings: map[reflect.Type]Binding{}, log: loggerOr(o.logger, nil)}
}

// Register adds bindings. If any of them targets a type that is already
// bound (or bound twice in the same call) none is added and a
// *DuplicateBindingError is returned.
func (b *RegistryBuilder) Register(bs ...Binding) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[reflect.Type]struct{}, len(bs))
	for _, x := range bs {
		if x == nil || x.TargetType() == nil {
			return errors.New("jtdbind: Register: nil binding")
		}
		t := x.TargetType()
		if _, ok := b.bindings[t]; ok {
			return &DuplicateBindingError{Type: t}
		}
		if _, ok := seen[t]; ok {
			return &DuplicateBindingError{Type: t}
		}
		seen[t] = struct{}{}
	}
	for _, x := range bs {
		b.bindings[x.TargetType()] = x
		b.log.Debug("jtdbind: binding registered", Fields{
			"type":   x.TargetType().String(),
			"shape":  x.Shape().String(),
			"decode": x.CanDecode(),
			"encode": x.CanEncode(),
		})
	}
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (b *RegistryBuilder) MustRegister(bs ...Binding) *RegistryBuilder {
	if err := b.Register(bs...); err != nil {
		panic(err)
	}
	return b
}

// Build returns a registry holding the bindings registered so far.
func (b *RegistryBuilder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := make(map[reflect.Type]Binding, len(b.bindings))
	for t, x := range b.bindings {
		m[t] = x
	}
	return &Registry{bindings: m, log: b.log}
}

// Registry maps exact wrapper types to bindings. It never changes after
// Build and is safe for concurrent use. A nil *Registry is empty.
type Registry struct {
	bindings map[reflect.Type]Binding
	log      Logger
}

// NewRegistry builds a registry from bs in one step.
func NewRegistry(bs ...Binding) (*Registry, error) {
	b := NewRegistryBuilder()
	if err := b.Register(bs...); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// Resolve returns the binding registered for exactly t. Interfaces a type
// implements, types it embeds and types sharing its layout never match.
func (r *Registry) Resolve(t reflect.Type) (Binding, bool) {
	if r == nil {
		return nil, false
	}
	b, ok := r.bindings[t]
	return b, ok
}

// ResolveFor is Resolve for a static type.
func ResolveFor[W any](r *Registry) (Binding, bool) { return r.Resolve(reflect.TypeFor[W]()) }

// Len reports the number of bound types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.bindings)
}

// Types lists the bound types ordered by their String form.
func (r *Registry) Types() []reflect.Type {
	if r == nil {
		return nil
	}
	out := make([]reflect.Type, 0, len(r.bindings))
	for t := range r.bindings {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b reflect.Type) int { return strings.Compare(a.String(), b.String()) })
	return out
}

// Logger returns the registry logger (NopLogger unless one was configured).
func (r *Registry) Logger() Logger {
	if r == nil {
		return nil
	}
	return r.log
}

// Schema returns the JTD schema of the wrapper type t with every wrapper it
// references, directly or transitively, collected under definitions.
func (r *Registry) Schema(t reflect.Type) (*jtd.Schema, error) {
	b, ok := r.Resolve(t)
	if !ok {
		return nil, fmt.Errorf("jtdbind: no binding for %v", t)
	}
	byName := make(map[string]Binding, r.Len())
	for bt, x := range r.bindings {
		byName[refName(bt)] = x
	}
	root := *b.Schema()
	defs := map[string]*jtd.Schema{}
	var walk func(s *jtd.Schema) error
	walk = func(s *jtd.Schema) error {
		if s == nil {
			return nil
		}
		if s.Ref != "" {
			if _, done := defs[s.Ref]; done {
				return nil
			}
			x, ok := byName[s.Ref]
			if !ok {
				return fmt.Errorf("jtdbind: %v references unbound type %s", t, s.Ref)
			}
			defs[s.Ref] = x.Schema()
			return walk(defs[s.Ref])
		}
		if err := walk(s.Elements); err != nil {
			return err
		}
		return walk(s.Values)
	}
	if err := walk(&root); err != nil {
		return nil, err
	}
	if len(defs) > 0 {
		root.Definitions = defs
	}
	return &root, nil
}
