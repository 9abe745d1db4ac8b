// Package gojson provides a token source backed by goccy/go-json for callers
// that already hold the whole document in memory.
package gojson

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/jtdbind/internal/engine"
)

type source struct {
	dec    *j.Decoder
	framer eng.Framer
	size   int64
}

// NewReader reads all of r and tokenizes it with go-json. go-json's Token
// skips separators without checking them, so the input is validated as a
// whole first; a malformed document fails on the first NextToken call.
func NewReader(r io.Reader) eng.TokenSource {
	b, err := io.ReadAll(r)
	if err != nil {
		return eng.ErrorSource{Err: err}
	}
	return NewBytes(b)
}

// NewBytes validates b and tokenizes it with go-json.
func NewBytes(b []byte) eng.TokenSource {
	if err := validate(b); err != nil {
		return eng.ErrorSource{Err: err}
	}
	dec := j.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return &source{dec: dec, size: int64(len(b))}
}

// validate reports the first syntax error in b, using the encoding/json
// scanner for its strict separator and number grammar.
func validate(b []byte) error {
	if stdjson.Valid(b) {
		return nil
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return io.ErrUnexpectedEOF
	}
	var v any
	err := stdjson.Unmarshal(b, &v)
	var se *stdjson.SyntaxError
	if errors.As(err, &se) {
		return &eng.SyntaxError{Msg: "go-json: " + se.Error(), Offset: se.Offset}
	}
	if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.ErrUnexpectedEOF
	}
	return &eng.SyntaxError{Msg: "go-json: " + err.Error(), Offset: -1}
}

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) && s.framer.Depth() > 0 {
			return eng.Token{}, io.ErrUnexpectedEOF
		}
		return eng.Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.framer.Open(true)
			return eng.Token{Kind: eng.KindBeginObject, Offset: -1}, nil
		case '[':
			s.framer.Open(false)
			return eng.Token{Kind: eng.KindBeginArray, Offset: -1}, nil
		case '}':
			s.framer.Close()
			return eng.Token{Kind: eng.KindEndObject, Offset: -1}, nil
		case ']':
			s.framer.Close()
			return eng.Token{Kind: eng.KindEndArray, Offset: -1}, nil
		}
	case string:
		return eng.Token{Kind: s.framer.String(), String: v, Offset: -1}, nil
	case bool:
		s.framer.Scalar()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: -1}, nil
	case j.Number:
		s.framer.Scalar()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: -1}, nil
	case float64:
		s.framer.Scalar()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}, nil
	case nil:
		s.framer.Scalar()
		return eng.Token{Kind: eng.KindNull, Offset: -1}, nil
	}
	return eng.Token{}, &eng.SyntaxError{Msg: "go-json: unexpected token", Offset: -1}
}

// Location reports the whole input as consumed, since NewBytes holds all of it.
func (s *source) Location() int64 { return s.size }
