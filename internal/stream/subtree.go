// Package stream cuts single values out of a longer token stream.
package stream

import (
	"io"

	eng "github.com/reoring/jtdbind/internal/engine"
)

// Subtree exposes exactly one value of inner: the first token, which the
// caller has already consumed, followed by the rest of that value. After the
// value is complete it returns io.EOF and stops reading inner.
type Subtree struct {
	inner eng.TokenSource
	first *eng.Token
	depth int
	done  bool
}

// NewSubtree returns the subtree starting at first.
func NewSubtree(inner eng.TokenSource, first eng.Token) *Subtree {
	return &Subtree{inner: inner, first: &first}
}

func (s *Subtree) NextToken() (eng.Token, error) {
	if s.done {
		return eng.Token{}, io.EOF
	}
	var tok eng.Token
	if s.first != nil {
		tok, s.first = *s.first, nil
	} else {
		var err error
		if tok, err = s.inner.NextToken(); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return eng.Token{}, err
		}
	}
	switch tok.Kind {
	case eng.KindBeginObject, eng.KindBeginArray:
		s.depth++
	case eng.KindEndObject, eng.KindEndArray:
		s.depth--
	case eng.KindKey:
		if s.depth == 0 {
			return eng.Token{}, &eng.SyntaxError{Msg: "key outside of an object", Offset: tok.Offset}
		}
	}
	if s.depth < 0 {
		return eng.Token{}, &eng.SyntaxError{Msg: "unbalanced " + tok.Kind.String(), Offset: tok.Offset}
	}
	if s.depth == 0 {
		s.done = true
	}
	return tok, nil
}

func (s *Subtree) Location() int64 { return s.inner.Location() }
