package jtdbind

import (
	"io"

	eng "github.com/reoring/jtdbind/internal/engine"
	"github.com/reoring/jtdbind/source/gojson"
	stdjson "github.com/reoring/jtdbind/source/json"
	yamlsrc "github.com/reoring/jtdbind/source/yaml"
)

// TokenKind enumerates JSON token kinds. Generated code may branch on values
// such as jtdbind.TokenBeginArray.
type TokenKind = eng.Kind

const (
	TokenBeginObject TokenKind = eng.KindBeginObject
	TokenEndObject   TokenKind = eng.KindEndObject
	TokenBeginArray  TokenKind = eng.KindBeginArray
	TokenEndArray    TokenKind = eng.KindEndArray
	TokenKey         TokenKind = eng.KindKey
	TokenString      TokenKind = eng.KindString
	TokenNumber      TokenKind = eng.KindNumber
	TokenBool        TokenKind = eng.KindBool
	TokenNull        TokenKind = eng.KindNull
)

// Token describes a token in the input stream. String holds key and string
// values, Number holds the literal text of numbers. Offset records the byte
// position when known (-1 otherwise).
type Token = eng.Token

// Source is the pull side of the token stream. It returns io.EOF after the
// last token.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts raw input into a Source.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

type goJSONDriver struct{}

func (goJSONDriver) NewReader(r io.Reader) Source { return gojson.NewReader(r) }
func (goJSONDriver) NewBytes(b []byte) Source     { return gojson.NewBytes(b) }
func (goJSONDriver) Name() string                 { return "go-json" }

type stdJSONDriver struct{}

func (stdJSONDriver) NewReader(r io.Reader) Source { return stdjson.NewReader(r) }
func (stdJSONDriver) NewBytes(b []byte) Source     { return stdjson.NewBytes(b) }
func (stdJSONDriver) Name() string                 { return "encoding/json" }

type yamlDriver struct{}

func (yamlDriver) NewReader(r io.Reader) Source { return yamlsrc.NewReader(r) }
func (yamlDriver) NewBytes(b []byte) Source     { return yamlsrc.NewBytes(b) }
func (yamlDriver) Name() string                 { return "yaml" }

// GoJSONDriver is backed by goccy/go-json. It reads the whole input before
// tokenizing, and Location reports the full input size.
func GoJSONDriver() JSONDriver { return goJSONDriver{} }

// StdJSONDriver is the default driver, backed by encoding/json. It streams
// and reports byte offsets.
func StdJSONDriver() JSONDriver { return stdJSONDriver{} }

// YAMLDriver reads the first YAML document of the input.
func YAMLDriver() JSONDriver { return yamlDriver{} }

// JSONBytes wraps a byte slice as a JSON Source using the default driver.
func JSONBytes(b []byte) Source { return stdjson.NewBytes(b) }

// JSONReader wraps an io.Reader as a JSON Source using the default driver.
func JSONReader(r io.Reader) Source { return stdjson.NewReader(r) }

// YAMLBytes wraps a YAML document as a Source.
func YAMLBytes(b []byte) Source { return yamlsrc.NewBytes(b) }

// Tokens replays a fixed token sequence.
func Tokens(tokens ...Token) Source { return eng.NewSliceSource(tokens) }

// Reader adds one token of lookahead to a Source.
type Reader struct {
	src    Source
	peeked bool
	tok    Token
	err    error
}

// NewReader wraps src.
func NewReader(src Source) *Reader { return &Reader{src: src} }

// Peek returns the next token without consuming it.
func (r *Reader) Peek() (Token, error) {
	if !r.peeked {
		r.tok, r.err = r.src.NextToken()
		r.peeked = true
	}
	return r.tok, r.err
}

// Next consumes and returns the next token. Errors are sticky: once the source
// fails every later call returns the same error.
func (r *Reader) Next() (Token, error) {
	tok, err := r.Peek()
	if err == nil {
		r.peeked = false
	}
	return tok, err
}

// Location returns the byte offset of the last consumed token (-1 if unknown).
func (r *Reader) Location() int64 { return r.src.Location() }
