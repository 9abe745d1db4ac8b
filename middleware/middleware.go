// Package middleware decodes HTTP request bodies into wrapper types and
// shapes decode errors for JSON responses.
package middleware

import (
	"context"
	"errors"
	"net/http"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdbind"
)

// ctxKeyDecoded is a typed context key for storing a decoded W.
// Using a generic struct type ensures uniqueness per W.
type ctxKeyDecoded[W any] struct{}

// ContextWithDecoded attaches a decoded W to the context.
func ContextWithDecoded[W any](ctx context.Context, w W) context.Context {
	return context.WithValue(ctx, ctxKeyDecoded[W]{}, w)
}

// DecodedFromContext retrieves a W stored by ContextWithDecoded.
func DecodedFromContext[W any](ctx context.Context) (W, bool) {
	v, ok := ctx.Value(ctxKeyDecoded[W]{}).(W)
	return v, ok
}

// DefaultOptions returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors and nesting is capped at 128.
func DefaultOptions() []jtdbind.Option {
	return []jtdbind.Option{
		jtdbind.WithDuplicateKeys(jtdbind.Error),
		jtdbind.WithMaxDepth(128),
	}
}

// Payload is the JSON body written for a rejected request.
type Payload struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ErrorPayload shapes a decode error for JSON responses.
func ErrorPayload(err error) Payload {
	p := Payload{Code: jtdbind.CodeMalformedToken, Message: err.Error()}
	if tm, ok := jtdbind.AsTypeMismatch(err); ok {
		p.Code, p.Path = tm.Code, tm.Path
	} else if mt, ok := jtdbind.AsMalformedToken(err); ok {
		p.Code, p.Path = mt.Code, mt.Path
	}
	return p
}

// DecodeRequest decodes the body of r into W. A positive maxBytes caps the
// body both at the HTTP layer and in the decoder; either limit reports
// CodeTooLarge.
func DecodeRequest[W any](w http.ResponseWriter, r *http.Request, reg *jtdbind.Registry, maxBytes int64, opts ...jtdbind.Option) (W, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		opts = append(opts[:len(opts):len(opts)], jtdbind.WithMaxBytes(maxBytes))
	}
	v, err := jtdbind.DecodeFrom[W](r.Context(), reg, jtdbind.JSONReader(r.Body), opts...)
	var mbe *http.MaxBytesError
	if mt, ok := jtdbind.AsMalformedToken(err); ok && errors.As(err, &mbe) {
		mt.Code = jtdbind.CodeTooLarge
	}
	return v, err
}

// Decode returns middleware that decodes the request body into W, stores it
// in the request context on success, or answers 400 with an ErrorPayload.
// With no options DefaultOptions apply.
func Decode[W any](reg *jtdbind.Registry, maxBytes int64, opts ...jtdbind.Option) func(http.Handler) http.Handler {
	if len(opts) == 0 {
		opts = DefaultOptions()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			v, err := DecodeRequest[W](rw, r, reg, maxBytes, opts...)
			if err != nil {
				WriteError(rw, http.StatusBadRequest, err)
				return
			}
			next.ServeHTTP(rw, r.WithContext(ContextWithDecoded(r.Context(), v)))
		})
	}
}

// WriteError writes ErrorPayload(err) with the given status.
func WriteError(rw http.ResponseWriter, status int, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = j.NewEncoder(rw).Encode(ErrorPayload(err))
}
