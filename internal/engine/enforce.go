package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal issues (duplicate keys under DupWarn).
	IssueSink func(SimpleIssue)
}

// Enabled reports whether wrapping a source with these options does anything.
func (o EnforceOptions) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind      containerKind
	keys      map[string]struct{}
	path      string
	nextIndex int
	key       string
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth and maximum consumed bytes, and rejects token
// sequences that cannot form a JSON value.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	path := e.valuePath(tok.Kind)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := frame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f.kind = kindObject
			f.keys = make(map[string]struct{})
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, e.fail("max_depth", path, "max depth exceeded", tok.Offset)
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
	case KindKey:
		n := len(e.stack)
		if n == 0 || e.stack[n-1].kind != kindObject {
			return Token{}, &SyntaxError{Msg: "object key outside of object", Offset: tok.Offset}
		}
		top := &e.stack[n-1]
		if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
			si := SimpleIssue{Code: "duplicate_key", Path: JoinPointer(path, tok.String), Message: "key '" + tok.String + "' duplicated", Offset: tok.Offset}
			if e.opt.OnDuplicate == DupError {
				return Token{}, IssueError{si}
			}
			if e.opt.IssueSink != nil {
				e.opt.IssueSink(si)
			}
		}
		top.keys[tok.String] = struct{}{}
		top.key = tok.String
	}

	if e.opt.MaxBytes > 0 {
		if off := e.inner.Location(); off > e.opt.MaxBytes {
			return Token{}, e.fail("too_large", path, "max bytes exceeded", off)
		}
	}
	return tok, nil
}

func (e *enforcingTokenSource) fail(code, path, msg string, off int64) error {
	return IssueError{SimpleIssue{Code: code, Path: path, Message: msg, Offset: off}}
}

// valuePath computes the JSON Pointer of the value a token belongs to.
func (e *enforcingTokenSource) valuePath(k Kind) string {
	n := len(e.stack)
	if n == 0 {
		return "/"
	}
	top := &e.stack[n-1]
	switch k {
	case KindEndObject, KindEndArray, KindKey:
		return top.path
	}
	if top.kind == kindArray {
		p := JoinPointer(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	return JoinPointer(top.path, top.key)
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPointer appends a reference token to a JSON Pointer. base "/" denotes
// the document root.
func JoinPointer(base, token string) string {
	if base == "/" || base == "" {
		if token == "" {
			return "/"
		}
		return "/" + pointerEscaper.Replace(token)
	}
	if token == "" {
		return base
	}
	return base + "/" + pointerEscaper.Replace(token)
}
