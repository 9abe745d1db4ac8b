package codec

import "github.com/reoring/jtdbind"

// Identity binds a raw payload type to its own shape, so a plain V can be
// registered and resolved like a wrapper, with exactly V as the target type.
func Identity[V any](s jtdbind.Shape[V], opts ...jtdbind.BindOption) *jtdbind.TypedBinding[V, V] {
	id := func(v V) V { return v }
	return jtdbind.Bind(s, id, id, opts...)
}
