package jtdbind

import (
	"errors"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
)

// Sink is the push side of the token stream.
type Sink interface {
	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error
	Key(k string) error
	String(s string) error
	// Number writes a JSON number literal verbatim.
	Number(text string) error
	Bool(b bool) error
	Null() error
}

// Flusher is implemented by sinks that buffer output.
type Flusher interface {
	Flush() error
}

var errSinkState = errors.New("jtdbind: sink: token not valid at this position")

type sinkFrame struct {
	object     bool
	count      int
	keyPending bool
}

// JSONSink writes compact JSON. String escaping follows go-json (and therefore
// encoding/json), so output matches json.Marshal of the same raw value.
type JSONSink struct {
	w        io.Writer
	buf      []byte
	stack    []sinkFrame
	rootDone bool
	err      error
}

// NewJSONSink returns a sink writing to w. Output is buffered until Flush.
func NewJSONSink(w io.Writer) *JSONSink { return &JSONSink{w: w, buf: make([]byte, 0, 256)} }

// Bytes returns the buffered, unflushed output.
func (s *JSONSink) Bytes() []byte { return s.buf }

// Flush writes buffered output to the underlying writer.
func (s *JSONSink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if s.w == nil || len(s.buf) == 0 {
		return nil
	}
	_, err := s.w.Write(s.buf)
	s.buf = s.buf[:0]
	if err != nil {
		s.err = err
	}
	return err
}

// beforeValue writes the separator a value needs at the current position.
func (s *JSONSink) beforeValue() error {
	if s.err != nil {
		return s.err
	}
	n := len(s.stack)
	if n == 0 {
		if s.rootDone {
			return errSinkState
		}
		return nil
	}
	top := &s.stack[n-1]
	if top.object {
		if !top.keyPending {
			return errSinkState
		}
		top.keyPending = false
	} else if top.count > 0 {
		s.buf = append(s.buf, ',')
	}
	top.count++
	return nil
}

func (s *JSONSink) afterValue() {
	if len(s.stack) == 0 {
		s.rootDone = true
	}
}

func (s *JSONSink) open(object bool, c byte) error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	s.buf = append(s.buf, c)
	s.stack = append(s.stack, sinkFrame{object: object})
	return nil
}

func (s *JSONSink) close(object bool, c byte) error {
	if s.err != nil {
		return s.err
	}
	n := len(s.stack)
	if n == 0 || s.stack[n-1].object != object || s.stack[n-1].keyPending {
		return errSinkState
	}
	s.stack = s.stack[:n-1]
	s.buf = append(s.buf, c)
	s.afterValue()
	return nil
}

func (s *JSONSink) BeginObject() error { return s.open(true, '{') }
func (s *JSONSink) EndObject() error   { return s.close(true, '}') }
func (s *JSONSink) BeginArray() error  { return s.open(false, '[') }
func (s *JSONSink) EndArray() error    { return s.close(false, ']') }

func (s *JSONSink) Key(k string) error {
	if s.err != nil {
		return s.err
	}
	n := len(s.stack)
	if n == 0 || !s.stack[n-1].object || s.stack[n-1].keyPending {
		return errSinkState
	}
	top := &s.stack[n-1]
	if top.count > 0 {
		s.buf = append(s.buf, ',')
	}
	q, err := j.Marshal(k)
	if err != nil {
		return err
	}
	s.buf = append(s.buf, q...)
	s.buf = append(s.buf, ':')
	top.keyPending = true
	return nil
}

func (s *JSONSink) String(v string) error {
	q, err := j.Marshal(v)
	if err != nil {
		return err
	}
	return s.raw(q)
}

func (s *JSONSink) Number(text string) error {
	if !isJSONNumber(text) {
		return errors.New("jtdbind: sink: invalid number literal " + strconv.Quote(text))
	}
	return s.raw([]byte(text))
}

func (s *JSONSink) Bool(b bool) error {
	if b {
		return s.raw([]byte("true"))
	}
	return s.raw([]byte("false"))
}

func (s *JSONSink) Null() error { return s.raw([]byte("null")) }

func (s *JSONSink) raw(b []byte) error {
	if err := s.beforeValue(); err != nil {
		return err
	}
	s.buf = append(s.buf, b...)
	s.afterValue()
	return nil
}

// isJSONNumber reports whether text is a valid JSON number literal.
func isJSONNumber(text string) bool {
	i, n := 0, len(text)
	if n == 0 {
		return false
	}
	if text[i] == '-' {
		i++
	}
	if i == n {
		return false
	}
	switch {
	case text[i] == '0':
		i++
	case text[i] >= '1' && text[i] <= '9':
		for i < n && text[i] >= '0' && text[i] <= '9' {
			i++
		}
	default:
		return false
	}
	if i < n && text[i] == '.' {
		i++
		start := i
		for i < n && text[i] >= '0' && text[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < n && (text[i] == 'e' || text[i] == 'E') {
		i++
		if i < n && (text[i] == '+' || text[i] == '-') {
			i++
		}
		start := i
		for i < n && text[i] >= '0' && text[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == n
}

// TokenRecorder is a Sink that records the tokens written to it. Replay them
// with Tokens(rec.Tokens()...).
type TokenRecorder struct {
	tokens []Token
}

func (r *TokenRecorder) Tokens() []Token { return r.tokens }

func (r *TokenRecorder) add(t Token) error {
	t.Offset = -1
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *TokenRecorder) BeginObject() error       { return r.add(Token{Kind: TokenBeginObject}) }
func (r *TokenRecorder) EndObject() error         { return r.add(Token{Kind: TokenEndObject}) }
func (r *TokenRecorder) BeginArray() error        { return r.add(Token{Kind: TokenBeginArray}) }
func (r *TokenRecorder) EndArray() error          { return r.add(Token{Kind: TokenEndArray}) }
func (r *TokenRecorder) Key(k string) error       { return r.add(Token{Kind: TokenKey, String: k}) }
func (r *TokenRecorder) String(s string) error    { return r.add(Token{Kind: TokenString, String: s}) }
func (r *TokenRecorder) Number(text string) error { return r.add(Token{Kind: TokenNumber, Number: text}) }
func (r *TokenRecorder) Bool(b bool) error        { return r.add(Token{Kind: TokenBool, Bool: b}) }
func (r *TokenRecorder) Null() error              { return r.add(Token{Kind: TokenNull}) }

// writeToken forwards a single token to sink.
func writeToken(sink Sink, t Token) error {
	switch t.Kind {
	case TokenBeginObject:
		return sink.BeginObject()
	case TokenEndObject:
		return sink.EndObject()
	case TokenBeginArray:
		return sink.BeginArray()
	case TokenEndArray:
		return sink.EndArray()
	case TokenKey:
		return sink.Key(t.String)
	case TokenString:
		return sink.String(t.String)
	case TokenNumber:
		return sink.Number(t.Number)
	case TokenBool:
		return sink.Bool(t.Bool)
	case TokenNull:
		return sink.Null()
	}
	return errSinkState
}

// appendJSON re-emits already encoded JSON into sink token by token.
func appendJSON(sink Sink, data []byte) error {
	src := JSONBytes(data)
	for {
		t, err := src.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := writeToken(sink, t); err != nil {
			return err
		}
	}
}
