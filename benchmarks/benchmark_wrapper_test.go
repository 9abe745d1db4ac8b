package benchmarks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/jtdbind"
	"github.com/reoring/jtdbind/codec"
	demo "github.com/reoring/jtdbind/examples/jtddemo"
)

// ---- Helpers ----

// generateTags returns ["tag_0","tag_1",...] and the matching wrapper.
func generateTags(n int) ([]byte, demo.Elements) {
	var buf bytes.Buffer
	buf.Grow(n * 12)
	es := demo.Elements{Value: make([]demo.Element, n)}
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		v := "tag_" + strconv.Itoa(i)
		es.Value[i] = demo.Element{Value: v}
		buf.WriteString(strconv.Quote(v))
	}
	buf.WriteByte(']')
	return buf.Bytes(), es
}

const hugeTags = 10000

// ---- Micro benchmarks (small inputs) ----

func Benchmark_Unmarshal_Name(b *testing.B) {
	reg := demo.Registry()
	data := []byte(`"Alice"`)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		if _, err := jtdbind.Unmarshal[demo.Name](reg, data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Unmarshal_Name_RawGoJSON(b *testing.B) {
	data := []byte(`"Alice"`)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		var s string
		if err := gojson.Unmarshal(data, &s); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Marshal_Name(b *testing.B) {
	reg := demo.Registry()
	n := demo.Name{Value: "Alice"}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := jtdbind.Marshal(reg, n); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Macro benchmarks (huge arrays) ----

func Benchmark_Unmarshal_Elements_Huge(b *testing.B) {
	reg := demo.Registry()
	data, _ := generateTags(hugeTags)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		if _, err := jtdbind.Unmarshal[demo.Elements](reg, data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Unmarshal_Elements_Huge_GoJSONDriver(b *testing.B) {
	ctx := context.Background()
	reg := demo.Registry()
	data, _ := generateTags(hugeTags)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		src := jtdbind.GoJSONDriver().NewBytes(data)
		if _, err := jtdbind.DecodeFrom[demo.Elements](ctx, reg, src); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Each_Elements_Huge(b *testing.B) {
	ctx := context.Background()
	reg := demo.Registry()
	data, _ := generateTags(hugeTags)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		err := jtdbind.Each(ctx, reg, jtdbind.JSONBytes(data), func(int, demo.Element) error { return nil })
		if err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Unmarshal_Elements_Huge_RawEncodingJSON(b *testing.B) {
	data, _ := generateTags(hugeTags)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Marshal_Elements_Huge(b *testing.B) {
	reg := demo.Registry()
	_, es := generateTags(hugeTags)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := jtdbind.Marshal(reg, es); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Marshal_Elements_Huge_RawGoJSON(b *testing.B) {
	_, es := generateTags(hugeTags)
	raw := make([]string, len(es.Value))
	for i, e := range es.Value {
		raw[i] = e.Value
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := gojson.Marshal(raw); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_MarshalCBOR_Elements_Huge(b *testing.B) {
	reg := demo.Registry()
	_, es := generateTags(hugeTags)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := codec.MarshalCBOR(reg, es); err != nil {
			b.Fatal(err)
		}
	}
}

// The generated fixture must decode to the wrapper it was built with.
func TestFixture(t *testing.T) {
	data, es := generateTags(3)
	got, err := jtdbind.Unmarshal[demo.Elements](demo.Registry(), data)
	if err != nil || len(got.Value) != 3 || got.Value[2] != es.Value[2] {
		t.Fatalf("fixture: %+v %v", got, err)
	}
}
