package engine

import (
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

var kindNames = [...]string{
	KindBeginObject: "begin-object",
	KindEndObject:   "end-object",
	KindBeginArray:  "begin-array",
	KindEndArray:    "end-array",
	KindKey:         "key",
	KindString:      "string",
	KindNumber:      "number",
	KindBool:        "boolean",
	KindNull:        "null",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether the token carries a complete scalar value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindNumber, KindBool, KindNull:
		return true
	}
	return false
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// SyntaxError reports a structurally impossible token sequence produced by a
// source (for example a key outside an object).
type SyntaxError struct {
	Msg    string
	Offset int64
}

func (e *SyntaxError) Error() string { return e.Msg }

// SliceSource replays a materialized token slice. It is used by drivers that
// cannot stream (YAML) and by tests.
type SliceSource struct {
	tokens []Token
	idx    int
}

// NewSliceSource returns a TokenSource over tokens.
func NewSliceSource(tokens []Token) *SliceSource { return &SliceSource{tokens: tokens} }

func (s *SliceSource) NextToken() (Token, error) {
	if s.idx >= len(s.tokens) {
		return Token{}, io.EOF
	}
	t := s.tokens[s.idx]
	s.idx++
	return t, nil
}

func (s *SliceSource) Location() int64 {
	if s.idx == 0 || s.idx > len(s.tokens) {
		return -1
	}
	return s.tokens[s.idx-1].Offset
}

// ErrorSource yields err on the first read. Drivers use it to defer
// construction failures to decode time.
type ErrorSource struct{ Err error }

func (s ErrorSource) NextToken() (Token, error) { return Token{}, s.Err }
func (ErrorSource) Location() int64             { return -1 }
