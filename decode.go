package jtdbind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/jtdbind/internal/engine"
	"github.com/reoring/jtdbind/internal/stream"
)

// Decoder walks a token stream and hands sub-streams to bindings. It is not
// safe for concurrent use; create one per input.
type Decoder struct {
	reg  *Registry
	r    *Reader
	ctx  context.Context
	log  Logger
	path []string
}

// NewDecoder returns a decoder reading src. Stream limits from opts
// (duplicate keys, depth, size) are enforced while tokens are pulled.
func NewDecoder(reg *Registry, src Source, opts ...Option) *Decoder {
	o := buildOptions(opts)
	d := &Decoder{reg: reg, ctx: o.ctx}
	d.log = loggerOr(o.logger, reg.Logger())
	if eo := o.enforce(d.warnIssue); eo.Enabled() {
		src = eng.WrapWithEnforcement(src, eo)
	}
	d.r = NewReader(src)
	return d
}

func (d *Decoder) warnIssue(is eng.SimpleIssue) {
	d.log.Warn("jtdbind: "+is.Message, Fields{"code": is.Code, "path": is.Path})
}

// Registry returns the registry used to resolve nested wrappers.
func (d *Decoder) Registry() *Registry { return d.reg }

// Peek returns the next token without consuming it.
func (d *Decoder) Peek() (Token, error) {
	if err := d.ctxErr(); err != nil {
		return Token{}, err
	}
	t, err := d.r.Peek()
	if err != nil {
		return Token{}, d.streamError(err)
	}
	return t, nil
}

// Next consumes the next token. Running out of input is a malformed stream,
// since callers only ask for a token when a value is required.
func (d *Decoder) Next() (Token, error) {
	if err := d.ctxErr(); err != nil {
		return Token{}, err
	}
	t, err := d.r.Next()
	if err != nil {
		return Token{}, d.streamError(err)
	}
	return t, nil
}

// End checks that the input holds nothing after the decoded value.
func (d *Decoder) End() error {
	t, err := d.r.Peek()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return d.streamError(err)
	}
	return &MalformedTokenError{Path: "/", Code: CodeMalformedToken, Offset: t.Offset,
		Cause: fmt.Errorf("unexpected %s after top-level value", t.Kind)}
}

func (d *Decoder) ctxErr() error {
	if d.ctx == nil {
		return nil
	}
	return d.ctx.Err()
}

func (d *Decoder) streamError(err error) error {
	var mt *MalformedTokenError
	if errors.As(err, &mt) {
		return err
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return &MalformedTokenError{Path: ie.Path, Code: ie.Code, Offset: ie.Offset, Cause: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	off := d.r.Location()
	var se *eng.SyntaxError
	if errors.As(err, &se) && se.Offset >= 0 {
		off = se.Offset
	}
	return &MalformedTokenError{Path: d.Path(), Code: CodeMalformedToken, Offset: off, Cause: err}
}

// Push enters a child value (array index or object key) for error paths.
func (d *Decoder) Push(seg string) { d.path = append(d.path, seg) }

// Pop leaves the child value entered by the last Push.
func (d *Decoder) Pop() {
	if len(d.path) > 0 {
		d.path = d.path[:len(d.path)-1]
	}
}

// Path returns the JSON Pointer of the value being decoded.
func (d *Decoder) Path() string { return pointer(d.path) }

// Mismatch builds the error for a token that cannot start a value of the
// expected shape.
func (d *Decoder) Mismatch(expected string, got Token) error {
	e := &TypeMismatchError{Path: d.Path(), Code: CodeTypeMismatch, Expected: expected, Got: got.Kind, Offset: got.Offset}
	switch got.Kind {
	case TokenString:
		e.Value = clip(got.String)
	case TokenNumber:
		e.Value = got.Number
	}
	return e
}

// invalid reports a well-typed token whose value falls outside the shape.
func (d *Decoder) invalid(code, expected string, got Token, value string, cause error) error {
	return &TypeMismatchError{Path: d.Path(), Code: code, Expected: expected, Got: got.Kind, Value: clip(value), Offset: got.Offset, Cause: cause}
}

// unexpected reports a token that is not valid where it appears. The
// drivers reject such streams already; hand-built token slices may not.
func (d *Decoder) unexpected(t Token) error {
	return &MalformedTokenError{Path: d.Path(), Code: CodeMalformedToken, Offset: t.Offset,
		Cause: fmt.Errorf("unexpected %s", t.Kind)}
}

// decoderSource lets a sub-stream read through the decoder, so cancellation
// and error mapping still apply.
type decoderSource struct{ d *Decoder }

func (s decoderSource) NextToken() (Token, error) { return s.d.Next() }
func (s decoderSource) Location() int64           { return s.d.r.Location() }

// capture forwards the value starting at first into sink.
func (d *Decoder) capture(sink Sink, first Token) error {
	sub := stream.NewSubtree(decoderSource{d}, first)
	for {
		t, err := sub.NextToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return d.streamError(err)
		}
		if err := writeToken(sink, t); err != nil {
			return d.unexpected(t)
		}
	}
}

// decodeAny builds the generic form of the next value: map[string]any,
// []any, string, j.Number, bool or nil.
func (d *Decoder) decodeAny() (any, error) {
	t, err := d.Next()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case TokenString:
		return t.String, nil
	case TokenNumber:
		return j.Number(t.Number), nil
	case TokenBool:
		return t.Bool, nil
	case TokenNull:
		return nil, nil
	case TokenBeginArray:
		out := []any{}
		for i := 0; ; i++ {
			p, err := d.Peek()
			if err != nil {
				return nil, err
			}
			if p.Kind == TokenEndArray {
				_, _ = d.Next()
				return out, nil
			}
			d.Push(strconv.Itoa(i))
			v, err := d.decodeAny()
			d.Pop()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	case TokenBeginObject:
		out := map[string]any{}
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
			v, err := d.decodeAny()
			d.Pop()
			if err != nil {
				return nil, err
			}
			out[k.String] = v
		}
	}
	return nil, d.unexpected(t)
}

type typedDecoder[W any] interface {
	Decode(d *Decoder) (W, error)
}

// DecodeNext decodes the next value as wrapper type W. A binding registered
// for exactly W is used; nested wrappers resolve the same way. Types without
// a binding decode reflectively through go-json.
func DecodeNext[W any](d *Decoder) (W, error) {
	var zero W
	t := reflect.TypeFor[W]()
	b, ok := d.reg.Resolve(t)
	if !ok {
		return decodeReflect[W](d)
	}
	if !b.CanDecode() {
		return zero, &UnsupportedDirectionError{Type: t, Direction: "decode"}
	}
	if tb, ok := b.(typedDecoder[W]); ok {
		w, err := tb.Decode(d)
		if err != nil {
			return zero, err
		}
		return w, nil
	}
	v, err := b.DecodeAny(d)
	if err != nil {
		return zero, err
	}
	w, ok := v.(W)
	if !ok {
		return zero, fmt.Errorf("jtdbind: binding for %v produced %T", t, v)
	}
	return w, nil
}

func decodeReflect[W any](d *Decoder) (W, error) {
	var w W
	d.log.Debug("jtdbind: no binding, decoding reflectively", Fields{"type": reflect.TypeFor[W]().String(), "path": d.Path()})
	first, err := d.Next()
	if err != nil {
		return w, err
	}
	sink := NewJSONSink(nil)
	if err := d.capture(sink, first); err != nil {
		return w, err
	}
	if err := j.Unmarshal(sink.Bytes(), &w); err != nil {
		var zero W
		return zero, &TypeMismatchError{Path: d.Path(), Code: CodeTypeMismatch, Expected: reflect.TypeFor[W]().String(),
			Got: first.Kind, Offset: first.Offset, Cause: err}
	}
	return w, nil
}

// DecodeValue decodes the next value with shape s. Custom bindings use it to
// delegate their inner value.
func DecodeValue[V any](d *Decoder, s Shape[V]) (V, error) {
	v, err := s.Decode(d)
	if err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// Unmarshal decodes a JSON document into wrapper type W. On error the zero
// W is returned and no partial value escapes.
func Unmarshal[W any](reg *Registry, data []byte, opts ...Option) (W, error) {
	return decodeOne[W](NewDecoder(reg, JSONBytes(data), opts...))
}

// DecodeFrom decodes exactly one value of type W from src. A non-nil ctx
// overrides WithContext.
func DecodeFrom[W any](ctx context.Context, reg *Registry, src Source, opts ...Option) (W, error) {
	if ctx != nil {
		opts = append(opts[:len(opts):len(opts)], WithContext(ctx))
	}
	return decodeOne[W](NewDecoder(reg, src, opts...))
}

func decodeOne[W any](d *Decoder) (W, error) {
	var zero W
	w, err := DecodeNext[W](d)
	if err != nil {
		return zero, err
	}
	if err := d.End(); err != nil {
		return zero, err
	}
	return w, nil
}

// UnmarshalShape decodes a raw value of shape s, without any wrapper.
func UnmarshalShape[V any](reg *Registry, s Shape[V], data []byte, opts ...Option) (V, error) {
	var zero V
	d := NewDecoder(reg, JSONBytes(data), opts...)
	v, err := DecodeValue(d, s)
	if err != nil {
		return zero, err
	}
	if err := d.End(); err != nil {
		return zero, err
	}
	return v, nil
}

func pointer(segs []string) string {
	if len(segs) == 0 {
		return "/"
	}
	p := ""
	for _, s := range segs {
		p = eng.JoinPointer(p, s)
	}
	return p
}

func clip(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "") + "..."
}
