// Package codec carries wrapper transparency over to wire formats other
// than JSON, and adds shapes and bindings that sit outside the JTD core.
//
// Every wire format goes through the plain data model of JSON: a wrapper is
// first encoded through its binding, the resulting token stream becomes
// map[string]any, []any, string, int64/uint64/float64, bool or nil, and that value
// is handed to the format library. Decoding runs the same steps backwards.
package codec

import (
	"fmt"
	"maps"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"time"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdbind"
	eng "github.com/reoring/jtdbind/internal/engine"
)

// Plain returns the JSON data model form of w as encoded by reg. Numbers
// become int64, uint64 or float64, whichever holds the literal exactly; a
// literal none of them can hold is an out_of_range error, never rounded.
func Plain[W any](reg *jtdbind.Registry, w W) (any, error) {
	rec := &jtdbind.TokenRecorder{}
	if err := jtdbind.EncodeNext(jtdbind.NewEncoder(reg, rec), w); err != nil {
		return nil, err
	}
	v, err := jtdbind.DecodeValue(jtdbind.NewDecoder(reg, jtdbind.Tokens(rec.Tokens()...)), jtdbind.Empty())
	if err != nil {
		return nil, err
	}
	return lower(v, "/")
}

// lower replaces json.Number with the narrowest exact Go number.
func lower(v any, path string) (any, error) {
	switch x := v.(type) {
	case j.Number:
		return lowerNumber(x, path)
	case []any:
		for i := range x {
			e, err := lower(x[i], eng.JoinPointer(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			x[i] = e
		}
		return x, nil
	case map[string]any:
		for k := range x {
			e, err := lower(x[k], eng.JoinPointer(path, k))
			if err != nil {
				return nil, err
			}
			x[k] = e
		}
		return x, nil
	}
	return v, nil
}

func lowerNumber(n j.Number, path string) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err == nil && sameValue(string(n), strconv.FormatFloat(f, 'g', -1, 64)) {
		return f, nil
	}
	return nil, &jtdbind.TypeMismatchError{Path: path, Code: jtdbind.CodeOutOfRange,
		Expected: "number exactly representable as int64, uint64 or float64", Got: jtdbind.TokenNumber,
		Value: string(n), Offset: -1, Cause: err}
}

// sameValue reports whether two decimal literals denote the same number.
func sameValue(a, b string) bool {
	ra, ok := new(big.Rat).SetString(a)
	if !ok {
		return false
	}
	rb, ok := new(big.Rat).SetString(b)
	return ok && ra.Cmp(rb) == 0
}

// FromPlain decodes a value in the plain data model (as produced by a
// format library's generic decoding) into wrapper W.
func FromPlain[W any](reg *jtdbind.Registry, v any, opts ...jtdbind.Option) (W, error) {
	var zero W
	rec := &jtdbind.TokenRecorder{}
	if err := emit(rec, v); err != nil {
		return zero, &jtdbind.MalformedTokenError{Path: "/", Code: jtdbind.CodeMalformedToken, Offset: -1, Cause: err}
	}
	d := jtdbind.NewDecoder(reg, jtdbind.Tokens(rec.Tokens()...), opts...)
	w, err := jtdbind.DecodeNext[W](d)
	if err != nil {
		return zero, err
	}
	if err := d.End(); err != nil {
		return zero, err
	}
	return w, nil
}

func emit(s jtdbind.Sink, v any) error {
	switch x := v.(type) {
	case nil:
		return s.Null()
	case string:
		return s.String(x)
	case bool:
		return s.Bool(x)
	case time.Time:
		return s.String(x.Format(time.RFC3339Nano))
	case j.Number:
		return s.Number(string(x))
	case []any:
		if err := s.BeginArray(); err != nil {
			return err
		}
		for _, e := range x {
			if err := emit(s, e); err != nil {
				return err
			}
		}
		return s.EndArray()
	case map[string]any:
		if err := s.BeginObject(); err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(x)) {
			if err := s.Key(k); err != nil {
				return err
			}
			if err := emit(s, x[k]); err != nil {
				return err
			}
		}
		return s.EndObject()
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			ks, ok := k.(string)
			if !ok {
				return fmt.Errorf("map key %v (%T) is not a string", k, k)
			}
			m[ks] = e
		}
		return emit(s, m)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return s.Number(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return s.Number(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite number %v has no JSON form", f)
		}
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		return s.Number(strconv.FormatFloat(f, 'g', -1, bits))
	}
	return fmt.Errorf("%T has no JSON form", v)
}
