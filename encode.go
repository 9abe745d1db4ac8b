package jtdbind

import (
	"context"
	"reflect"

	j "github.com/goccy/go-json"
)

// Encoder writes wrapper values into a Sink. It is not safe for concurrent
// use.
type Encoder struct {
	reg  *Registry
	sink Sink
	ctx  context.Context
	log  Logger
	path []string
}

// NewEncoder returns an encoder writing to sink. Only WithLogger and
// WithContext apply.
func NewEncoder(reg *Registry, sink Sink, opts ...Option) *Encoder {
	o := buildOptions(opts)
	return &Encoder{reg: reg, sink: sink, ctx: o.ctx, log: loggerOr(o.logger, reg.Logger())}
}

// Sink returns the sink values are written to.
func (e *Encoder) Sink() Sink { return e.sink }

// Registry returns the registry used to resolve nested wrappers.
func (e *Encoder) Registry() *Registry { return e.reg }

// Push enters a child value for error paths.
func (e *Encoder) Push(seg string) { e.path = append(e.path, seg) }

// Pop leaves the child value entered by the last Push.
func (e *Encoder) Pop() {
	if len(e.path) > 0 {
		e.path = e.path[:len(e.path)-1]
	}
}

// Path returns the JSON Pointer of the value being encoded.
func (e *Encoder) Path() string { return pointer(e.path) }

// invalid reports an inner value the shape cannot represent.
func (e *Encoder) invalid(code, expected, value string, cause error) error {
	return &TypeMismatchError{Path: e.Path(), Code: code, Expected: expected, Value: clip(value), Offset: -1, Cause: cause}
}

type typedEncoder[W any] interface {
	Encode(e *Encoder, w W) error
}

// EncodeNext writes w through the binding registered for exactly W. Types
// without a binding are encoded by go-json's reflective encoder.
func EncodeNext[W any](e *Encoder, w W) error {
	if e.ctx != nil {
		if err := e.ctx.Err(); err != nil {
			return err
		}
	}
	t := reflect.TypeFor[W]()
	b, ok := e.reg.Resolve(t)
	if !ok {
		e.log.Debug("jtdbind: no binding, encoding reflectively", Fields{"type": t.String(), "path": e.Path()})
		data, err := j.Marshal(w)
		if err != nil {
			return err
		}
		return appendJSON(e.sink, data)
	}
	if !b.CanEncode() {
		return &UnsupportedDirectionError{Type: t, Direction: "encode"}
	}
	if tb, ok := b.(typedEncoder[W]); ok {
		return tb.Encode(e, w)
	}
	return b.EncodeAny(e, w)
}

// Marshal returns the JSON encoding of w. For a bound wrapper it is
// byte-identical to MarshalShape of its inner value.
func Marshal[W any](reg *Registry, w W, opts ...Option) ([]byte, error) {
	sink := NewJSONSink(nil)
	if err := EncodeNext(NewEncoder(reg, sink, opts...), w); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

// EncodeTo writes w to sink and flushes it when it buffers. A non-nil ctx
// overrides WithContext.
func EncodeTo[W any](ctx context.Context, reg *Registry, sink Sink, w W, opts ...Option) error {
	if ctx != nil {
		opts = append(opts[:len(opts):len(opts)], WithContext(ctx))
	}
	if err := EncodeNext(NewEncoder(reg, sink, opts...), w); err != nil {
		return err
	}
	if f, ok := sink.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// MarshalShape returns the raw JSON encoding of v under shape s, with no
// wrapper involved.
func MarshalShape[V any](reg *Registry, s Shape[V], v V, opts ...Option) ([]byte, error) {
	sink := NewJSONSink(nil)
	if err := s.Encode(NewEncoder(reg, sink, opts...), v); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}
