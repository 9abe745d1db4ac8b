package gojson_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	eng "github.com/reoring/jtdbind/internal/engine"
	"github.com/reoring/jtdbind/source/gojson"
	stdjson "github.com/reoring/jtdbind/source/json"
)

func kinds(t *testing.T, src eng.TokenSource) ([]eng.Token, error) {
	t.Helper()
	var out []eng.Token
	for {
		tok, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
}

func TestDrivers_AgreeOnTokens(t *testing.T) {
	in := `{"k":"v","n":[1,2.5,-3e2],"o":{"s":"t"},"b":false,"z":null}`
	a, err := kinds(t, gojson.NewBytes([]byte(in)))
	if err != nil {
		t.Fatalf("go-json: %v", err)
	}
	b, err := kinds(t, stdjson.NewReader(strings.NewReader(in)))
	if err != nil {
		t.Fatalf("encoding/json: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("token counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].String != b[i].String || a[i].Number != b[i].Number || a[i].Bool != b[i].Bool {
			t.Fatalf("token %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if a[1].Kind != eng.KindKey || a[2].Kind != eng.KindString {
		t.Fatalf("keys and values must be told apart: %+v %+v", a[1], a[2])
	}
	if a[6].Number != "2.5" {
		t.Fatalf("number text must be kept: %+v", a[6])
	}
}

func TestDrivers_RejectMalformed(t *testing.T) {
	for _, in := range []string{`[1,`, `["a" "b"]`, `["a",]`, `{"a" "b"}`, `{"a":1,}`, `[01]`, `[1.]`} {
		for name, src := range map[string]eng.TokenSource{
			"go-json":       gojson.NewBytes([]byte(in)),
			"encoding/json": stdjson.NewBytes([]byte(in)),
		} {
			if _, err := kinds(t, src); err == nil {
				t.Fatalf("%s: %s accepted", name, in)
			}
		}
	}
}

func TestGoJSON_SyntaxErrorOffset(t *testing.T) {
	_, err := gojson.NewBytes([]byte(`["a" "b"]`)).NextToken()
	var se *eng.SyntaxError
	if !errors.As(err, &se) || se.Offset != 6 {
		t.Fatalf("want SyntaxError at offset 6, got %v", err)
	}
}

func TestGoJSON_EmptyInput(t *testing.T) {
	_, err := gojson.NewReader(strings.NewReader("  ")).NextToken()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want ErrUnexpectedEOF, got %v", err)
	}
}

func TestStdDriver_Offsets(t *testing.T) {
	src := stdjson.NewBytes([]byte(`["ab", 1]`))
	tok, _ := src.NextToken()
	if tok.Offset != 1 || src.Location() != 1 {
		t.Fatalf("offset after '[': %d / %d", tok.Offset, src.Location())
	}
	tok, _ = src.NextToken()
	if tok.Offset != 5 {
		t.Fatalf("offset after \"ab\": %d", tok.Offset)
	}
}
