package codec

import (
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/reoring/jtdbind"
)

// CBOR encodes wrappers as CBOR through a registry. The zero value is NOT
// ready to use; construct with NewCBOR or MustCBOR.
type CBOR struct {
	reg *jtdbind.Registry
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR constructs a CBOR codec over reg. Deterministic selects RFC 8949
// Core Deterministic encoding (sorted keys, shortest forms); otherwise the
// preferred unsorted options are used.
func NewCBOR(reg *jtdbind.Registry, deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{reg: reg, enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR(reg *jtdbind.Registry, deterministic bool) CBOR {
	c, err := NewCBOR(reg, deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

// EncodeCBOR returns the CBOR form of w, which equals the CBOR form of the
// JSON value w stands for.
func EncodeCBOR[W any](c CBOR, w W) ([]byte, error) {
	v, err := Plain(c.reg, w)
	if err != nil {
		return nil, err
	}
	return c.enc.Marshal(v)
}

// DecodeCBOR decodes b into wrapper W.
func DecodeCBOR[W any](c CBOR, b []byte) (W, error) {
	var v any
	if err := c.dec.Unmarshal(b, &v); err != nil {
		var zero W
		return zero, &jtdbind.MalformedTokenError{Path: "/", Code: jtdbind.CodeMalformedToken, Offset: -1, Cause: err}
	}
	return FromPlain[W](c.reg, v)
}

var detModes = sync.OnceValue(func() CBOR { return MustCBOR(nil, true) })

// MarshalCBOR is EncodeCBOR with deterministic encoding over reg.
func MarshalCBOR[W any](reg *jtdbind.Registry, w W) ([]byte, error) {
	c := detModes()
	c.reg = reg
	return EncodeCBOR(c, w)
}

// UnmarshalCBOR is DecodeCBOR over reg.
func UnmarshalCBOR[W any](reg *jtdbind.Registry, b []byte) (W, error) {
	c := detModes()
	c.reg = reg
	return DecodeCBOR[W](c, b)
}
