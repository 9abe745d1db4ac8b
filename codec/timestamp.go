package codec

import (
	"time"

	"github.com/reoring/jtdbind"
	"github.com/reoring/jtdbind/jtd"
)

// Timestamp is the JTD "timestamp" type: an RFC 3339 string on the wire,
// time.Time in Go. The UTC offset is kept as written, so the encoding
// matches what encoding/json produces for the same time.Time.
func Timestamp() jtdbind.Shape[time.Time] { return timestampShape{} }

type timestampShape struct{}

func (timestampShape) Kind() jtdbind.ShapeKind { return jtdbind.ShapeScalar }
func (timestampShape) Schema() *jtd.Schema     { return &jtd.Schema{Type: jtd.TypeTimestamp} }

func (timestampShape) Decode(d *jtdbind.Decoder) (time.Time, error) {
	s, err := jtdbind.DecodeValue(d, jtdbind.String())
	if err != nil {
		if tm, ok := jtdbind.AsTypeMismatch(err); ok {
			tm.Expected = "timestamp"
		}
		return time.Time{}, err
	}
	t, err := parseRFC3339(s)
	if err != nil {
		return time.Time{}, &jtdbind.TypeMismatchError{Path: d.Path(), Code: jtdbind.CodeInvalidFormat,
			Expected: "RFC 3339 timestamp", Got: jtdbind.TokenString, Value: s, Offset: -1, Cause: err}
	}
	return t, nil
}

func (timestampShape) Encode(e *jtdbind.Encoder, t time.Time) error {
	if y := t.Year(); y < 0 || y > 9999 {
		return &jtdbind.TypeMismatchError{Path: e.Path(), Code: jtdbind.CodeOutOfRange,
			Expected: "RFC 3339 timestamp", Value: t.String(), Offset: -1}
	}
	return e.Sink().String(t.Format(time.RFC3339Nano))
}

func parseRFC3339(s string) (time.Time, error) {
	// RFC3339Nano also accepts inputs without fractional seconds.
	return time.Parse(time.RFC3339Nano, s)
}
