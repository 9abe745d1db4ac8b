package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/reoring/jtdbind"
)

// MarshalMsgpack returns the MessagePack form of w with map keys sorted.
func MarshalMsgpack[W any](reg *jtdbind.Registry, w W) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := EncodeMsgpack(reg, enc, w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalMsgpack decodes b into wrapper W.
func UnmarshalMsgpack[W any](reg *jtdbind.Registry, b []byte) (W, error) {
	return DecodeMsgpack[W](reg, msgpack.NewDecoder(bytes.NewReader(b)))
}

// EncodeMsgpack writes w to enc. Wrapper types call it from their
// msgpack.CustomEncoder implementation.
func EncodeMsgpack[W any](reg *jtdbind.Registry, enc *msgpack.Encoder, w W) error {
	v, err := Plain(reg, w)
	if err != nil {
		return err
	}
	return enc.Encode(v)
}

// DecodeMsgpack reads one value from dec into wrapper W.
func DecodeMsgpack[W any](reg *jtdbind.Registry, dec *msgpack.Decoder) (W, error) {
	v, err := dec.DecodeInterface()
	if err != nil {
		var zero W
		return zero, &jtdbind.MalformedTokenError{Path: "/", Code: jtdbind.CodeMalformedToken, Offset: -1, Cause: err}
	}
	return FromPlain[W](reg, v)
}
