package jtdbind

import (
	"math"
	"slices"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdbind/jtd"
)

// Shape describes the JSON form of a wrapper's inner value and knows how to
// move that value across a token stream. Shapes are stateless; one instance
// may serve any number of decoders at once.
type Shape[V any] interface {
	Kind() ShapeKind
	// Schema is the JTD projection of the shape.
	Schema() *jtd.Schema
	Decode(d *Decoder) (V, error)
	Encode(e *Encoder, v V) error
}

// ---- string / boolean ----

type stringShape struct{}

// String is the JTD "string" type.
func String() Shape[string] { return stringShape{} }

func (stringShape) Kind() ShapeKind     { return ShapeScalar }
func (stringShape) Schema() *jtd.Schema { return &jtd.Schema{Type: jtd.TypeString} }

func (stringShape) Decode(d *Decoder) (string, error) {
	t, err := d.Next()
	if err != nil {
		return "", err
	}
	if t.Kind != TokenString {
		return "", d.Mismatch("string", t)
	}
	return t.String, nil
}

func (stringShape) Encode(e *Encoder, v string) error { return e.Sink().String(v) }

type boolShape struct{}

// Boolean is the JTD "boolean" type.
func Boolean() Shape[bool] { return boolShape{} }

func (boolShape) Kind() ShapeKind     { return ShapeScalar }
func (boolShape) Schema() *jtd.Schema { return &jtd.Schema{Type: jtd.TypeBoolean} }

func (boolShape) Decode(d *Decoder) (bool, error) {
	t, err := d.Next()
	if err != nil {
		return false, err
	}
	if t.Kind != TokenBool {
		return false, d.Mismatch("boolean", t)
	}
	return t.Bool, nil
}

func (boolShape) Encode(e *Encoder, v bool) error { return e.Sink().Bool(v) }

// ---- numbers ----

type floatShape[F float32 | float64] struct {
	typ  jtd.Type
	bits int
}

// Float32 is the JTD "float32" type.
func Float32() Shape[float32] { return floatShape[float32]{typ: jtd.TypeFloat32, bits: 32} }

// Float64 is the JTD "float64" type.
func Float64() Shape[float64] { return floatShape[float64]{typ: jtd.TypeFloat64, bits: 64} }

func (s floatShape[F]) Kind() ShapeKind     { return ShapeScalar }
func (s floatShape[F]) Schema() *jtd.Schema { return &jtd.Schema{Type: s.typ} }

func (s floatShape[F]) Decode(d *Decoder) (F, error) {
	t, err := d.Next()
	if err != nil {
		return 0, err
	}
	if t.Kind != TokenNumber {
		return 0, d.Mismatch(string(s.typ), t)
	}
	f, err := strconv.ParseFloat(t.Number, s.bits)
	if err != nil {
		return 0, d.invalid(CodeOutOfRange, string(s.typ), t, t.Number, err)
	}
	return F(f), nil
}

// Encode uses go-json so the text matches what json.Marshal gives for the
// same float. NaN and infinities have no JSON form and fail there.
func (s floatShape[F]) Encode(e *Encoder, v F) error {
	b, err := j.Marshal(v)
	if err != nil {
		return e.invalid(CodeOutOfRange, string(s.typ), strconv.FormatFloat(float64(v), 'g', -1, s.bits), err)
	}
	return e.Sink().Number(string(b))
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~uint8 | ~uint16 | ~uint32
}

type intShape[N integer] struct {
	typ      jtd.Type
	min, max int64
}

func Int8() Shape[int8]     { return intShape[int8]{jtd.TypeInt8, math.MinInt8, math.MaxInt8} }
func Uint8() Shape[uint8]   { return intShape[uint8]{jtd.TypeUint8, 0, math.MaxUint8} }
func Int16() Shape[int16]   { return intShape[int16]{jtd.TypeInt16, math.MinInt16, math.MaxInt16} }
func Uint16() Shape[uint16] { return intShape[uint16]{jtd.TypeUint16, 0, math.MaxUint16} }
func Int32() Shape[int32]   { return intShape[int32]{jtd.TypeInt32, math.MinInt32, math.MaxInt32} }
func Uint32() Shape[uint32] { return intShape[uint32]{jtd.TypeUint32, 0, math.MaxUint32} }

func (s intShape[N]) Kind() ShapeKind     { return ShapeScalar }
func (s intShape[N]) Schema() *jtd.Schema { return &jtd.Schema{Type: s.typ} }

// Decode accepts any number with a zero fractional part ("3", "3.0", "3e0")
// inside the type's range.
func (s intShape[N]) Decode(d *Decoder) (N, error) {
	t, err := d.Next()
	if err != nil {
		return 0, err
	}
	if t.Kind != TokenNumber {
		return 0, d.Mismatch(string(s.typ), t)
	}
	i, err := strconv.ParseInt(t.Number, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(t.Number, 64)
		if ferr != nil || f != math.Trunc(f) || f < float64(s.min) || f > float64(s.max) {
			return 0, d.invalid(CodeOutOfRange, string(s.typ), t, t.Number, nil)
		}
		i = int64(f)
	}
	if i < s.min || i > s.max {
		return 0, d.invalid(CodeOutOfRange, string(s.typ), t, t.Number, nil)
	}
	return N(i), nil
}

func (s intShape[N]) Encode(e *Encoder, v N) error {
	return e.Sink().Number(strconv.FormatInt(int64(v), 10))
}

type numberShape struct{}

// Number keeps the literal text of a JSON number, for values whose
// precision must survive a round trip untouched.
func Number() Shape[j.Number] { return numberShape{} }

func (numberShape) Kind() ShapeKind     { return ShapeScalar }
func (numberShape) Schema() *jtd.Schema { return &jtd.Schema{Type: jtd.TypeFloat64} }

func (numberShape) Decode(d *Decoder) (j.Number, error) {
	t, err := d.Next()
	if err != nil {
		return "", err
	}
	if t.Kind != TokenNumber {
		return "", d.Mismatch("number", t)
	}
	return j.Number(t.Number), nil
}

func (numberShape) Encode(e *Encoder, v j.Number) error {
	if err := e.Sink().Number(string(v)); err != nil {
		return e.invalid(CodeInvalidFormat, "number", string(v), err)
	}
	return nil
}

// ---- enum ----

type enumShape[S ~string] struct {
	values []string
}

// Enum is the JTD enum form over plain strings.
func Enum(values ...string) Shape[string] { return EnumOf[string](values...) }

// EnumOf is the enum form for a named string type.
func EnumOf[S ~string](values ...string) Shape[S] {
	return enumShape[S]{values: slices.Clone(values)}
}

func (s enumShape[S]) Kind() ShapeKind { return ShapeScalar }

func (s enumShape[S]) Schema() *jtd.Schema { return &jtd.Schema{Enum: slices.Clone(s.values)} }

func (s enumShape[S]) Decode(d *Decoder) (S, error) {
	t, err := d.Next()
	if err != nil {
		return "", err
	}
	if t.Kind != TokenString {
		return "", d.Mismatch("enum", t)
	}
	if !slices.Contains(s.values, t.String) {
		return "", d.invalid(CodeInvalidEnum, "one of "+quoteList(s.values), t, t.String, nil)
	}
	return S(t.String), nil
}

func (s enumShape[S]) Encode(e *Encoder, v S) error {
	if !slices.Contains(s.values, string(v)) {
		return e.invalid(CodeInvalidEnum, "one of "+quoteList(s.values), string(v), nil)
	}
	return e.Sink().String(string(v))
}

func quoteList(vs []string) string {
	b := make([]byte, 0, 16*len(vs))
	for i, v := range vs {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendQuote(b, v)
	}
	return string(b)
}

// ---- empty ----

type emptyShape struct{}

// Empty is the JTD empty form: any JSON value. Decoded values use
// map[string]any, []any, string, json.Number, bool and nil.
func Empty() Shape[any] { return emptyShape{} }

func (emptyShape) Kind() ShapeKind     { return ShapeAny }
func (emptyShape) Schema() *jtd.Schema { return &jtd.Schema{} }

func (emptyShape) Decode(d *Decoder) (any, error) { return d.decodeAny() }

func (emptyShape) Encode(e *Encoder, v any) error {
	b, err := j.Marshal(v)
	if err != nil {
		return e.invalid(CodeInvalidFormat, "any JSON value", "", err)
	}
	return appendJSON(e.Sink(), b)
}
