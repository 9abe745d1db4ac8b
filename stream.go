package jtdbind

import (
	"context"
	"strconv"
)

// Each decodes a top-level JSON array one element at a time and calls fn
// with every element decoded as W, so arbitrarily long arrays never have to
// be held in memory. Decoding stops at the first error, from the input or
// from fn; elements already passed to fn are not revoked.
func Each[W any](ctx context.Context, reg *Registry, src Source, fn func(i int, w W) error, opts ...Option) error {
	if ctx != nil {
		opts = append(opts[:len(opts):len(opts)], WithContext(ctx))
	}
	d := NewDecoder(reg, src, opts...)
	t, err := d.Next()
	if err != nil {
		return err
	}
	if t.Kind != TokenBeginArray {
		return d.Mismatch("array", t)
	}
	for i := 0; ; i++ {
		d.Push(strconv.Itoa(i))
		p, err := d.Peek()
		if err != nil {
			d.Pop()
			return err
		}
		if p.Kind == TokenEndArray {
			d.Pop()
			_, _ = d.Next()
			return d.End()
		}
		w, err := DecodeNext[W](d)
		d.Pop()
		if err != nil {
			return err
		}
		if err := fn(i, w); err != nil {
			return err
		}
	}
}
