package codec_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	gojson "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/reoring/jtdbind"
	"github.com/reoring/jtdbind/codec"
)

type name struct{ Value string }
type names struct{ Value []name }
type counts struct{ Value map[string]int32 }
type stamp struct{ Value time.Time }
type amount struct{ Value gojson.Number }

func registry(t *testing.T) *jtdbind.Registry {
	t.Helper()
	reg, err := jtdbind.NewRegistry(
		jtdbind.Bind(jtdbind.String(),
			func(v string) name { return name{Value: v} },
			func(w name) string { return w.Value }),
		jtdbind.Bind(jtdbind.Sequence(jtdbind.Ref[name]()),
			func(v []name) names { return names{Value: v} },
			func(w names) []name { return w.Value }),
		jtdbind.Bind(jtdbind.Mapping(jtdbind.Int32()),
			func(v map[string]int32) counts { return counts{Value: v} },
			func(w counts) map[string]int32 { return w.Value }),
		jtdbind.Bind(codec.Timestamp(),
			func(v time.Time) stamp { return stamp{Value: v} },
			func(w stamp) time.Time { return w.Value }),
		jtdbind.Bind(jtdbind.Number(),
			func(v gojson.Number) amount { return amount{Value: v} },
			func(w amount) gojson.Number { return w.Value }),
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestPlain(t *testing.T) {
	reg := registry(t)
	v, err := codec.Plain(reg, names{Value: []name{{"a"}, {"b"}}})
	if err != nil || !reflect.DeepEqual(v, []any{"a", "b"}) {
		t.Fatalf("plain: %#v %v", v, err)
	}
	v, err = codec.Plain(reg, counts{Value: map[string]int32{"x": 3}})
	if err != nil || !reflect.DeepEqual(v, map[string]any{"x": int64(3)}) {
		t.Fatalf("plain numbers lower to int64: %#v %v", v, err)
	}
	back, err := codec.FromPlain[counts](reg, map[any]any{"x": uint64(7)})
	if err != nil || back.Value["x"] != 7 {
		t.Fatalf("from plain: %+v %v", back, err)
	}
	if _, err := codec.FromPlain[counts](reg, map[any]any{1: "x"}); !errors.Is(err, jtdbind.ErrMalformedToken) {
		t.Fatalf("non-string key: %v", err)
	}
	if _, err := codec.FromPlain[names](reg, []any{"a", 1}); !errors.Is(err, jtdbind.ErrTypeMismatch) {
		t.Fatalf("mismatch: %v", err)
	}
}

func TestCBOR_Transparent(t *testing.T) {
	reg := registry(t)
	got, err := codec.MarshalCBOR(reg, name{Value: "Alice"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want, _ := cbor.Marshal("Alice")
	if !bytes.Equal(got, want) {
		t.Fatalf("wrapper CBOR %x differs from raw %x", got, want)
	}
	got, err = codec.MarshalCBOR(reg, names{Value: []name{{"a"}, {"b"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want, _ = cbor.Marshal([]string{"a", "b"})
	if !bytes.Equal(got, want) {
		t.Fatalf("sequence CBOR %x differs from raw %x", got, want)
	}
	back, err := codec.UnmarshalCBOR[names](reg, got)
	if err != nil || len(back.Value) != 2 || back.Value[1].Value != "b" {
		t.Fatalf("round trip: %+v %v", back, err)
	}
}

func TestCBOR_NonDeterministicRoundTrip(t *testing.T) {
	reg := registry(t)
	c := codec.MustCBOR(reg, false)
	in := counts{Value: map[string]int32{"a": -1, "b": 1 << 20}}
	b, err := codec.EncodeCBOR(c, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := codec.DecodeCBOR[counts](c, b)
	if err != nil || !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip: %+v %v", out, err)
	}
	if _, err := codec.DecodeCBOR[counts](c, []byte{0xff}); !errors.Is(err, jtdbind.ErrMalformedToken) {
		t.Fatalf("garbage input: %v", err)
	}
}

func TestMsgpack_Transparent(t *testing.T) {
	reg := registry(t)
	got, err := codec.MarshalMsgpack(reg, name{Value: "Alice"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want, _ := msgpack.Marshal("Alice")
	if !bytes.Equal(got, want) {
		t.Fatalf("wrapper msgpack %x differs from raw %x", got, want)
	}
	in := counts{Value: map[string]int32{"z": 1, "a": 300}}
	b, err := codec.MarshalMsgpack(reg, in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := codec.UnmarshalMsgpack[counts](reg, b)
	if err != nil || !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip: %+v %v", out, err)
	}
	if _, err := codec.UnmarshalMsgpack[counts](reg, nil); !errors.Is(err, jtdbind.ErrMalformedToken) {
		t.Fatalf("empty input: %v", err)
	}
}

func TestTimestamp(t *testing.T) {
	reg := registry(t)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("", 9*3600))
	got, err := jtdbind.Marshal(reg, stamp{Value: ts})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want, _ := json.Marshal(ts)
	if string(got) != string(want) {
		t.Fatalf("got %s want %s", got, want)
	}
	back, err := jtdbind.Unmarshal[stamp](reg, got)
	if err != nil || !back.Value.Equal(ts) {
		t.Fatalf("round trip: %v %v", back.Value, err)
	}
	if _, off := back.Value.Zone(); off != 9*3600 {
		t.Fatalf("offset lost: %d", off)
	}

	_, err = jtdbind.Unmarshal[stamp](reg, []byte(`"yesterday"`))
	if tm, ok := jtdbind.AsTypeMismatch(err); !ok || tm.Code != jtdbind.CodeInvalidFormat {
		t.Fatalf("want invalid_format, got %v", err)
	}
	_, err = jtdbind.Unmarshal[stamp](reg, []byte(`1`))
	if tm, ok := jtdbind.AsTypeMismatch(err); !ok || tm.Expected != "timestamp" {
		t.Fatalf("want timestamp mismatch, got %v", err)
	}
	if _, err := jtdbind.Marshal(reg, stamp{Value: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}); !errors.Is(err, jtdbind.ErrTypeMismatch) {
		t.Fatalf("year 10000 must not encode, got %v", err)
	}
}

func TestIdentity(t *testing.T) {
	reg, err := jtdbind.NewRegistry(codec.Identity(jtdbind.Sequence(jtdbind.String())))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	out, err := jtdbind.Marshal(reg, []string(nil))
	if err != nil || string(out) != `[]` {
		t.Fatalf("bound []string encodes nil as []: %s %v", out, err)
	}
	v, err := jtdbind.Unmarshal[[]string](reg, []byte(`[]`))
	if err != nil || v == nil || len(v) != 0 {
		t.Fatalf("decode: %#v %v", v, err)
	}
	if _, ok := jtdbind.ResolveFor[[]any](reg); ok {
		t.Fatalf("resolution must be exact")
	}
}

func TestNumber_KeepsPrecision(t *testing.T) {
	reg := registry(t)
	for _, lit := range []string{"18446744073709551615", "-9223372036854775808", "0.1", "1.5e300"} {
		in := amount{Value: gojson.Number(lit)}
		cb, err := codec.MarshalCBOR(reg, in)
		if err != nil {
			t.Fatalf("%s: cbor marshal: %v", lit, err)
		}
		mp, err := codec.MarshalMsgpack(reg, in)
		if err != nil {
			t.Fatalf("%s: msgpack marshal: %v", lit, err)
		}
		fromCBOR, err := codec.UnmarshalCBOR[amount](reg, cb)
		if err != nil {
			t.Fatalf("%s: cbor unmarshal: %v", lit, err)
		}
		fromMsgpack, err := codec.UnmarshalMsgpack[amount](reg, mp)
		if err != nil {
			t.Fatalf("%s: msgpack unmarshal: %v", lit, err)
		}
		want, _ := strconv.ParseFloat(lit, 64)
		for _, got := range []gojson.Number{fromCBOR.Value, fromMsgpack.Value} {
			if f, _ := strconv.ParseFloat(string(got), 64); f != want {
				t.Fatalf("%s: came back as %s", lit, got)
			}
		}
	}
	top, err := codec.UnmarshalCBOR[amount](reg, mustCBOR(t, reg, amount{Value: "18446744073709551615"}))
	if err != nil || top.Value != "18446744073709551615" {
		t.Fatalf("uint64 max: %s %v", top.Value, err)
	}
}

func TestNumber_RejectsInexact(t *testing.T) {
	reg := registry(t)
	for _, lit := range []string{"12345678901234567890123", "0.1000000000000000055511151231257827"} {
		_, err := codec.MarshalCBOR(reg, amount{Value: gojson.Number(lit)})
		tm, ok := jtdbind.AsTypeMismatch(err)
		if !ok || tm.Code != jtdbind.CodeOutOfRange || tm.Value != lit {
			t.Fatalf("%s: want out_of_range, got %v", lit, err)
		}
		if _, err := codec.MarshalMsgpack(reg, amount{Value: gojson.Number(lit)}); !errors.Is(err, jtdbind.ErrTypeMismatch) {
			t.Fatalf("%s: msgpack should reject too, got %v", lit, err)
		}
	}
}

func mustCBOR(t *testing.T, reg *jtdbind.Registry, a amount) []byte {
	t.Helper()
	b, err := codec.MarshalCBOR(reg, a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
