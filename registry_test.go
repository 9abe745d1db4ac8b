package jtdbind_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/jtdbind"
	"github.com/reoring/jtdbind/jtd"
)

func TestRegister_DuplicateFailsFast(t *testing.T) {
	b := jtdbind.NewRegistryBuilder()
	if err := b.Register(nameBinding()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	upper := jtdbind.Bind(jtdbind.String(),
		func(v string) name { return name{Value: strings.ToUpper(v)} },
		func(w name) string { return w.Value })
	err := b.Register(upper)
	if !errors.Is(err, jtdbind.ErrDuplicateBinding) {
		t.Fatalf("want ErrDuplicateBinding, got %v", err)
	}
	var de *jtdbind.DuplicateBindingError
	if !errors.As(err, &de) || de.Type != reflect.TypeFor[name]() {
		t.Fatalf("unexpected error detail: %v", err)
	}
	// the first binding is still in effect
	n, err := jtdbind.Unmarshal[name](b.Build(), []byte(`"bob"`))
	if err != nil || n.Value != "bob" {
		t.Fatalf("first binding should win: %+v err=%v", n, err)
	}
}

func TestRegister_BatchIsAtomic(t *testing.T) {
	b := jtdbind.NewRegistryBuilder()
	b.MustRegister(nameBinding())
	el := jtdbind.Bind(jtdbind.String(),
		func(v string) element { return element{Value: v} },
		func(w element) string { return w.Value })
	if err := b.Register(el, nameBinding()); err == nil {
		t.Fatalf("expected duplicate error")
	}
	reg := b.Build()
	if reg.Len() != 1 {
		t.Fatalf("failed batch must not register anything, len=%d", reg.Len())
	}
	if _, ok := jtdbind.ResolveFor[element](reg); ok {
		t.Fatalf("element registered despite failed batch")
	}
	if err := b.Register(el, el); !errors.Is(err, jtdbind.ErrDuplicateBinding) {
		t.Fatalf("duplicate within one batch: %v", err)
	}
}

func TestRegister_NilBinding(t *testing.T) {
	if err := jtdbind.NewRegistryBuilder().Register(nil); err == nil {
		t.Fatalf("nil binding should be rejected")
	}
}

func TestMustRegister_Panics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, jtdbind.ErrDuplicateBinding) {
			t.Fatalf("expected DuplicateBindingError panic, got %v", r)
		}
	}()
	jtdbind.NewRegistryBuilder().MustRegister(nameBinding(), nameBinding())
}

func TestBuild_Snapshot(t *testing.T) {
	b := jtdbind.NewRegistryBuilder()
	b.MustRegister(nameBinding())
	first := b.Build()
	b.MustRegister(jtdbind.Bind(jtdbind.String(),
		func(v string) element { return element{Value: v} },
		func(w element) string { return w.Value }))
	if first.Len() != 1 {
		t.Fatalf("built registry changed after later Register: len=%d", first.Len())
	}
	if b.Build().Len() != 2 {
		t.Fatalf("second build should see both bindings")
	}
}

func TestRegistry_NilIsEmpty(t *testing.T) {
	var reg *jtdbind.Registry
	if _, ok := reg.Resolve(reflect.TypeFor[name]()); ok || reg.Len() != 0 || reg.Types() != nil {
		t.Fatalf("nil registry should be empty")
	}
	out, err := jtdbind.Marshal(reg, name{Value: "x"})
	if err != nil || string(out) != `{"Value":"x"}` {
		t.Fatalf("nil registry falls back to reflection: %s %v", out, err)
	}
}

func TestRegistry_TypesSorted(t *testing.T) {
	reg := newRegistry(t)
	ts := reg.Types()
	if len(ts) != reg.Len() {
		t.Fatalf("Types/Len disagree: %d vs %d", len(ts), reg.Len())
	}
	for i := 1; i < len(ts); i++ {
		if ts[i-1].String() > ts[i].String() {
			t.Fatalf("not sorted: %v", ts)
		}
	}
}

func TestRegistry_SchemaCollectsDefinitions(t *testing.T) {
	reg := newRegistry(t)
	s, err := reg.Schema(reflect.TypeFor[elements]())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.Form() != jtd.FormElements || s.Elements.Ref != "element" {
		t.Fatalf("unexpected root schema: %+v", s)
	}
	def, ok := s.Definitions["element"]
	if !ok || def.Type != jtd.TypeString {
		t.Fatalf("missing element definition: %+v", s.Definitions)
	}
	if _, err := reg.Schema(reflect.TypeFor[alias]()); err == nil {
		t.Fatalf("unbound type should have no schema")
	}
}

func TestBinding_SchemaAndDescription(t *testing.T) {
	b := jtdbind.Bind(jtdbind.Nullable(jtdbind.Enum("A", "B")),
		func(v *string) nickname { return nickname{Value: v} },
		func(w nickname) *string { return w.Value },
		jtdbind.WithDescription("state"))
	s := b.Schema()
	if !s.Nullable || len(s.Enum) != 2 || s.Description() != "state" {
		t.Fatalf("unexpected schema: %+v", s)
	}
	if b.Shape() != jtdbind.ShapeScalar || b.TargetType() != reflect.TypeFor[nickname]() {
		t.Fatalf("unexpected binding metadata")
	}
}
