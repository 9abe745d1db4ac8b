package jtdbind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/jtdbind/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeTypeMismatch  = "type_mismatch"
	CodeOutOfRange    = "out_of_range"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	// Stream-level failures, reported as MalformedTokenError.
	CodeMalformedToken = "malformed_token"
	CodeDuplicateKey   = "duplicate_key"
	CodeMaxDepth       = "max_depth"
	CodeTooLarge       = "too_large"
	// Registry and binding failures.
	CodeDuplicateBinding     = "duplicate_binding"
	CodeUnsupportedDirection = "unsupported_direction"
)

var (
	// ErrTypeMismatch matches every *TypeMismatchError via errors.Is.
	ErrTypeMismatch = errors.New("jtdbind: type mismatch")
	// ErrMalformedToken matches every *MalformedTokenError via errors.Is.
	ErrMalformedToken = errors.New("jtdbind: malformed token stream")
	// ErrDuplicateBinding matches every *DuplicateBindingError via errors.Is.
	ErrDuplicateBinding = errors.New("jtdbind: duplicate binding")
	// ErrUnsupportedDirection matches every *UnsupportedDirectionError via errors.Is.
	ErrUnsupportedDirection = errors.New("jtdbind: unsupported binding direction")
)

// TypeMismatchError reports a value whose shape or range does not match the
// declared inner shape of the wrapper being decoded (or encoded).
type TypeMismatchError struct {
	Path     string    // JSON Pointer of the offending value ("/" for the root).
	Code     string    // CodeTypeMismatch, CodeOutOfRange, CodeInvalidEnum or CodeInvalidFormat.
	Expected string    // Expected shape, e.g. "array" or "uint8".
	Got      TokenKind // Token actually found (decode only).
	Value    string    // Offending literal when it is short enough to be useful.
	Offset   int64     // Byte offset in the input (-1 when unknown).
	Cause    error
}

func (e *TypeMismatchError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s at %s: %s", e.Code, e.Path, i18n.T(e.Code, nil))
	if e.Expected != "" {
		fmt.Fprintf(b, " (expected %s", e.Expected)
		if e.Code == CodeTypeMismatch {
			fmt.Fprintf(b, ", got %s", valueKind(e.Got))
		} else if e.Value != "" {
			fmt.Fprintf(b, ", got %q", e.Value)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
func (e *TypeMismatchError) Unwrap() error        { return e.Cause }

// valueKind names the JSON value a token starts.
func valueKind(k TokenKind) string {
	switch k {
	case TokenBeginObject:
		return "object"
	case TokenBeginArray:
		return "array"
	}
	return k.String()
}

// MalformedTokenError reports an input stream that is not a well-formed JSON
// value or that violates a stream limit (duplicate key, depth, size).
type MalformedTokenError struct {
	Path   string
	Code   string // CodeMalformedToken, CodeDuplicateKey, CodeMaxDepth or CodeTooLarge.
	Offset int64
	Cause  error
}

func (e *MalformedTokenError) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Code)
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(b, " (offset %d)", e.Offset)
	}
	fmt.Fprintf(b, ": %s", i18n.T(e.Code, nil))
	if e.Cause != nil {
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *MalformedTokenError) Is(target error) bool { return target == ErrMalformedToken }
func (e *MalformedTokenError) Unwrap() error        { return e.Cause }

// DuplicateBindingError is returned by RegistryBuilder.Register when a binding
// claims a type that is already bound.
type DuplicateBindingError struct {
	Type reflect.Type
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("%s: %s: %v", CodeDuplicateBinding, i18n.T(CodeDuplicateBinding, nil), e.Type)
}

func (e *DuplicateBindingError) Is(target error) bool { return target == ErrDuplicateBinding }

// UnsupportedDirectionError is returned when a decode-only binding is asked to
// encode or vice versa.
type UnsupportedDirectionError struct {
	Type      reflect.Type
	Direction string // "decode" or "encode".
}

func (e *UnsupportedDirectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v cannot %s", CodeUnsupportedDirection, i18n.T(CodeUnsupportedDirection, nil), e.Type, e.Direction)
}

func (e *UnsupportedDirectionError) Is(target error) bool { return target == ErrUnsupportedDirection }

// AsTypeMismatch extracts a *TypeMismatchError using errors.As internally.
func AsTypeMismatch(err error) (*TypeMismatchError, bool) {
	var tm *TypeMismatchError
	if errors.As(err, &tm) {
		return tm, true
	}
	return nil, false
}

// AsMalformedToken extracts a *MalformedTokenError using errors.As internally.
func AsMalformedToken(err error) (*MalformedTokenError, bool) {
	var mt *MalformedTokenError
	if errors.As(err, &mt) {
		return mt, true
	}
	return nil, false
}
