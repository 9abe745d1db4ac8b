package jtdbind

import (
	"context"

	eng "github.com/reoring/jtdbind/internal/engine"
)

// ShapeKind is the structural category of a wrapped value.
type ShapeKind int

const (
	ShapeScalar   ShapeKind = iota // string, number, boolean (and timestamps, enums).
	ShapeSequence                  // Ordered list; order is significant.
	ShapeMapping                   // Object with unique string keys; order is not significant.
	ShapeAny                       // Any JSON value (JTD empty form).
	ShapeRef                       // Another wrapper type, resolved through the registry.
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeScalar:
		return "scalar"
	case ShapeSequence:
		return "sequence"
	case ShapeMapping:
		return "mapping"
	case ShapeAny:
		return "any"
	case ShapeRef:
		return "ref"
	}
	return "unknown"
}

// Severity expresses how a non-fatal input condition is treated.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Option configures registry builders, decoders and encoders. Options that do
// not apply to a component are ignored by it.
type Option func(*options)

type options struct {
	duplicateKeys Severity
	maxDepth      int
	maxBytes      int64
	logger        Logger
	ctx           context.Context
}

func defaultOptions() options {
	return options{duplicateKeys: Error}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// WithDuplicateKeys sets the policy for repeated object keys. The default is
// Error because mapping keys are unique; Warn logs and keeps the last value.
func WithDuplicateKeys(s Severity) Option { return func(o *options) { o.duplicateKeys = s } }

// WithMaxDepth limits container nesting while decoding (0 disables).
func WithMaxDepth(n int) Option { return func(o *options) { o.maxDepth = n } }

// WithMaxBytes limits consumed input while decoding. It requires a source that
// reports offsets (source/json); others are not limited.
func WithMaxBytes(n int64) Option { return func(o *options) { o.maxBytes = n } }

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l Logger) Option { return func(o *options) { o.logger = l } }

// WithContext makes decode and encode stop with ctx.Err() once ctx is done.
func WithContext(ctx context.Context) Option { return func(o *options) { o.ctx = ctx } }

func (o options) enforce(sink func(eng.SimpleIssue)) eng.EnforceOptions {
	dup := eng.DupIgnore
	switch o.duplicateKeys {
	case Warn:
		dup = eng.DupWarn
	case Error:
		dup = eng.DupError
	}
	return eng.EnforceOptions{OnDuplicate: dup, MaxDepth: o.maxDepth, MaxBytes: o.maxBytes, IssueSink: sink}
}
