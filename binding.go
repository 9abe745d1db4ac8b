package jtdbind

import (
	"fmt"
	"reflect"

	"github.com/reoring/jtdbind/jtd"
)

// Binding connects one wrapper type to the codec of its inner value. The
// engine only ever asks a binding about its own TargetType.
type Binding interface {
	// TargetType is the exact wrapper type this binding serves.
	TargetType() reflect.Type
	CanDecode() bool
	CanEncode() bool
	// Shape is the structural kind of the wrapped value.
	Shape() ShapeKind
	Schema() *jtd.Schema
	// DecodeAny reads one value and returns the wrapper as any.
	DecodeAny(d *Decoder) (any, error)
	// EncodeAny writes the inner value of w, which must be of TargetType.
	EncodeAny(e *Encoder, w any) error
}

// BindOption adjusts a binding created by Bind.
type BindOption func(*bindConfig)

type bindConfig struct {
	decode bool
	encode bool
	desc   string
}

// DecodeOnly yields a binding that refuses to encode.
func DecodeOnly() BindOption {
	return func(c *bindConfig) { c.decode, c.encode = true, false }
}

// EncodeOnly yields a binding that refuses to decode.
func EncodeOnly() BindOption {
	return func(c *bindConfig) { c.decode, c.encode = false, true }
}

// WithDescription sets metadata.description on the binding's schema.
func WithDescription(desc string) BindOption {
	return func(c *bindConfig) { c.desc = desc }
}

// TypedBinding is the binding for wrapper W around a value of shape V. It
// is built by Bind and is immutable.
type TypedBinding[W, V any] struct {
	typ    reflect.Type
	shape  Shape[V]
	wrap   func(V) W
	unwrap func(W) V
	cfg    bindConfig
}

// Bind creates the binding for W. wrap builds a fresh wrapper from a decoded
// value and unwrap returns the value to encode. wrap may be nil for an
// EncodeOnly binding and unwrap for a DecodeOnly one.
func Bind[W, V any](shape Shape[V], wrap func(V) W, unwrap func(W) V, opts ...BindOption) *TypedBinding[W, V] {
	cfg := bindConfig{decode: true, encode: true}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	t := reflect.TypeFor[W]()
	switch {
	case shape == nil:
		panic(fmt.Sprintf("jtdbind: Bind[%v]: nil shape", t))
	case cfg.decode && wrap == nil:
		panic(fmt.Sprintf("jtdbind: Bind[%v]: nil wrap on a decoding binding", t))
	case cfg.encode && unwrap == nil:
		panic(fmt.Sprintf("jtdbind: Bind[%v]: nil unwrap on an encoding binding", t))
	}
	return &TypedBinding[W, V]{typ: t, shape: shape, wrap: wrap, unwrap: unwrap, cfg: cfg}
}

func (b *TypedBinding[W, V]) TargetType() reflect.Type { return b.typ }
func (b *TypedBinding[W, V]) CanDecode() bool          { return b.cfg.decode }
func (b *TypedBinding[W, V]) CanEncode() bool          { return b.cfg.encode }
func (b *TypedBinding[W, V]) Shape() ShapeKind         { return b.shape.Kind() }

func (b *TypedBinding[W, V]) Schema() *jtd.Schema {
	s := b.shape.Schema()
	if b.cfg.desc != "" {
		s = s.WithDescription(b.cfg.desc)
	}
	return s
}

// Decode reads the inner value and wraps it.
func (b *TypedBinding[W, V]) Decode(d *Decoder) (W, error) {
	var zero W
	if !b.cfg.decode {
		return zero, &UnsupportedDirectionError{Type: b.typ, Direction: "decode"}
	}
	v, err := b.shape.Decode(d)
	if err != nil {
		return zero, err
	}
	return b.wrap(v), nil
}

// Encode writes the inner value of w.
func (b *TypedBinding[W, V]) Encode(e *Encoder, w W) error {
	if !b.cfg.encode {
		return &UnsupportedDirectionError{Type: b.typ, Direction: "encode"}
	}
	return b.shape.Encode(e, b.unwrap(w))
}

func (b *TypedBinding[W, V]) DecodeAny(d *Decoder) (any, error) {
	w, err := b.Decode(d)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (b *TypedBinding[W, V]) EncodeAny(e *Encoder, w any) error {
	v, ok := w.(W)
	if !ok {
		return fmt.Errorf("jtdbind: binding for %v cannot encode %T", b.typ, w)
	}
	return b.Encode(e, v)
}
