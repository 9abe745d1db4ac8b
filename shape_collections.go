package jtdbind

import (
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/reoring/jtdbind/jtd"
)

// ---- sequence ----

type sequenceShape[E any] struct {
	elem Shape[E]
}

// Sequence is the JTD elements form: a JSON array whose items all have shape
// elem. Order is preserved in both directions.
func Sequence[E any](elem Shape[E]) Shape[[]E] { return sequenceShape[E]{elem: elem} }

func (s sequenceShape[E]) Kind() ShapeKind     { return ShapeSequence }
func (s sequenceShape[E]) Schema() *jtd.Schema { return &jtd.Schema{Elements: s.elem.Schema()} }

// Decode always returns a non-nil slice, so [] survives a round trip as [].
func (s sequenceShape[E]) Decode(d *Decoder) ([]E, error) {
	t, err := d.Next()
	if err != nil {
		return nil, err
	}
	if t.Kind != TokenBeginArray {
		return nil, d.Mismatch("array", t)
	}
	out := make([]E, 0)
	for i := 0; ; i++ {
		// the index is pushed first so stream errors point at the element
		d.Push(strconv.Itoa(i))
		p, err := d.Peek()
		if err != nil {
			d.Pop()
			return nil, err
		}
		if p.Kind == TokenEndArray {
			d.Pop()
			_, _ = d.Next()
			return out, nil
		}
		v, err := s.elem.Decode(d)
		d.Pop()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// Encode writes a nil slice as [].
func (s sequenceShape[E]) Encode(e *Encoder, v []E) error {
	sink := e.Sink()
	if err := sink.BeginArray(); err != nil {
		return err
	}
	for i, x := range v {
		e.Push(strconv.Itoa(i))
		err := s.elem.Encode(e, x)
		e.Pop()
		if err != nil {
			return err
		}
	}
	return sink.EndArray()
}

// ---- mapping ----

type mappingShape[K ~string, V any] struct {
	val Shape[V]
}

// Mapping is the JTD values form: a JSON object with arbitrary keys whose
// values all have shape val.
func Mapping[V any](val Shape[V]) Shape[map[string]V] { return mappingShape[string, V]{val: val} }

// MappingOf is Mapping with a named string key type.
func MappingOf[K ~string, V any](val Shape[V]) Shape[map[K]V] { return mappingShape[K, V]{val: val} }

func (s mappingShape[K, V]) Kind() ShapeKind     { return ShapeMapping }
func (s mappingShape[K, V]) Schema() *jtd.Schema { return &jtd.Schema{Values: s.val.Schema()} }

// Decode returns a non-nil map. Repeated keys only get here when the
// duplicate policy is not Error; the last value wins.
func (s mappingShape[K, V]) Decode(d *Decoder) (map[K]V, error) {
	t, err := d.Next()
	if err != nil {
		return nil, err
	}
	if t.Kind != TokenBeginObject {
		return nil, d.Mismatch("object", t)
	}
	out := make(map[K]V)
	for {
		k, err := d.Next()
		if err != nil {
			return nil, err
		}
		if k.Kind == TokenEndObject {
			return out, nil
		}
		if k.Kind != TokenKey {
			return nil, d.unexpected(k)
		}
		d.Push(k.String)
		v, err := s.val.Decode(d)
		d.Pop()
		if err != nil {
			return nil, err
		}
		out[K(k.String)] = v
	}
}

// Encode writes keys in sorted order and a nil map as {}.
func (s mappingShape[K, V]) Encode(e *Encoder, m map[K]V) error {
	sink := e.Sink()
	if err := sink.BeginObject(); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if err := sink.Key(string(k)); err != nil {
			return err
		}
		e.Push(string(k))
		err := s.val.Encode(e, m[k])
		e.Pop()
		if err != nil {
			return err
		}
	}
	return sink.EndObject()
}

// ---- nullable ----

type nullableShape[V any] struct {
	inner Shape[V]
}

// Nullable admits JSON null in addition to inner; nil stands for null.
func Nullable[V any](inner Shape[V]) Shape[*V] { return nullableShape[V]{inner: inner} }

func (s nullableShape[V]) Kind() ShapeKind { return s.inner.Kind() }

func (s nullableShape[V]) Schema() *jtd.Schema {
	out := &jtd.Schema{}
	if in := s.inner.Schema(); in != nil {
		*out = *in
	}
	out.Nullable = true
	return out
}

func (s nullableShape[V]) Decode(d *Decoder) (*V, error) {
	p, err := d.Peek()
	if err != nil {
		return nil, err
	}
	if p.Kind == TokenNull {
		_, _ = d.Next()
		return nil, nil
	}
	v, err := s.inner.Decode(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s nullableShape[V]) Encode(e *Encoder, v *V) error {
	if v == nil {
		return e.Sink().Null()
	}
	return s.inner.Encode(e, *v)
}

// ---- ref ----

type refShape[W any] struct{}

// Ref is the shape of another wrapper type. Values are decoded and encoded
// through whatever binding the registry holds for exactly W, so nested
// wrappers keep their own transparent form.
func Ref[W any]() Shape[W] { return refShape[W]{} }

func (refShape[W]) Kind() ShapeKind { return ShapeRef }

func (refShape[W]) Schema() *jtd.Schema { return &jtd.Schema{Ref: refName(reflect.TypeFor[W]())} }

func (refShape[W]) Decode(d *Decoder) (W, error) { return DecodeNext[W](d) }

func (refShape[W]) Encode(e *Encoder, v W) error { return EncodeNext(e, v) }

// refName is the definitions key used for t.
func refName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
