package jtdbind_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/reoring/jtdbind"
)

func TestJSONSink_Structure(t *testing.T) {
	var buf bytes.Buffer
	s := jtdbind.NewJSONSink(&buf)
	steps := []func() error{
		s.BeginObject,
		func() error { return s.Key("a") },
		s.BeginArray,
		func() error { return s.Number("1") },
		func() error { return s.Bool(false) },
		s.Null,
		s.EndArray,
		func() error { return s.Key("b\"") },
		func() error { return s.String("x") },
		s.EndObject,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("output must stay buffered until Flush")
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := buf.String(); got != `{"a":[1,false,null],"b\"":"x"}` {
		t.Fatalf("got %s", got)
	}
}

func TestJSONSink_RejectsMisuse(t *testing.T) {
	s := jtdbind.NewJSONSink(nil)
	if err := s.Key("k"); err == nil {
		t.Fatalf("key at top level accepted")
	}
	_ = s.BeginObject()
	if err := s.String("v"); err == nil {
		t.Fatalf("value without key accepted")
	}
	if err := s.EndArray(); err == nil {
		t.Fatalf("mismatched close accepted")
	}
	s2 := jtdbind.NewJSONSink(nil)
	_ = s2.String("one")
	if err := s2.String("two"); err == nil {
		t.Fatalf("second top-level value accepted")
	}
	if err := jtdbind.NewJSONSink(nil).Number("01"); err == nil {
		t.Fatalf("invalid number accepted")
	}
}

func TestEncodeTo_Recorder(t *testing.T) {
	reg := newRegistry(t)
	rec := &jtdbind.TokenRecorder{}
	if err := jtdbind.EncodeTo(context.Background(), reg, rec, elements{Value: []element{{"a"}}}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	toks := rec.Tokens()
	if len(toks) != 3 || toks[0].Kind != jtdbind.TokenBeginArray || toks[1].String != "a" || toks[2].Kind != jtdbind.TokenEndArray {
		t.Fatalf("unexpected tokens %+v", toks)
	}
	// replaying the recording decodes to the same value
	back, err := jtdbind.DecodeFrom[elements](context.Background(), reg, jtdbind.Tokens(toks...))
	if err != nil || len(back.Value) != 1 || back.Value[0].Value != "a" {
		t.Fatalf("replay: %+v %v", back, err)
	}
}

func TestEncodeTo_Canceled(t *testing.T) {
	reg := newRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := jtdbind.EncodeTo(ctx, reg, jtdbind.NewJSONSink(&buf), name{Value: "x"})
	if !errors.Is(err, context.Canceled) || buf.Len() != 0 {
		t.Fatalf("want canceled with no output, got %v %q", err, buf.String())
	}
}

func TestEncodeTo_NothingWrittenOnError(t *testing.T) {
	reg, err := jtdbind.NewRegistry(jtdbind.Bind(jtdbind.Sequence(jtdbind.Enum("A")),
		func(v []string) seq[string] { return seq[string]{Value: v} },
		func(w seq[string]) []string { return w.Value }))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	var buf bytes.Buffer
	err = jtdbind.EncodeTo(context.Background(), reg, jtdbind.NewJSONSink(&buf), seq[string]{Value: []string{"A", "B"}})
	tm, ok := jtdbind.AsTypeMismatch(err)
	if !ok || tm.Code != jtdbind.CodeInvalidEnum || tm.Path != "/1" {
		t.Fatalf("want invalid_enum at /1, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial output written: %q", buf.String())
	}
}
