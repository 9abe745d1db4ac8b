package engine

// Framer tracks container nesting for decoders whose token API does not
// distinguish object keys from string values (encoding/json, go-json).
type Framer struct {
	stack []framerState
}

type framerState struct {
	object       bool
	expectingKey bool
}

// Open records the start of an object or array.
func (f *Framer) Open(object bool) {
	f.stack = append(f.stack, framerState{object: object, expectingKey: object})
}

// Close records the end of the innermost container, which completes a value
// in its parent.
func (f *Framer) Close() {
	if n := len(f.stack); n > 0 {
		f.stack = f.stack[:n-1]
	}
	f.valueDone()
}

// String classifies a string token as key or value.
func (f *Framer) String() Kind {
	if n := len(f.stack); n > 0 {
		top := &f.stack[n-1]
		if top.object && top.expectingKey {
			top.expectingKey = false
			return KindKey
		}
	}
	f.valueDone()
	return KindString
}

// Scalar records a complete non-string scalar.
func (f *Framer) Scalar() { f.valueDone() }

// Depth returns the current nesting depth.
func (f *Framer) Depth() int { return len(f.stack) }

func (f *Framer) valueDone() {
	if n := len(f.stack); n > 0 {
		top := &f.stack[n-1]
		if top.object {
			top.expectingKey = true
		}
	}
}
