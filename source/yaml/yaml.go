// Package yaml exposes a YAML document as a JSON token stream so that YAML
// input decodes through the same bindings as JSON. Only the JSON-compatible
// subset of YAML is accepted: scalar tags str/int/float/bool/null, mappings
// with string keys, sequences and aliases.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/jtdbind/internal/engine"
)

// NewReader reads the first YAML document from r. Errors surface on the first
// NextToken call.
func NewReader(r io.Reader) eng.TokenSource {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return eng.NewSliceSource(nil)
		}
		return eng.ErrorSource{Err: &eng.SyntaxError{Msg: "yaml: " + err.Error(), Offset: -1}}
	}
	tokens, err := appendNode(make([]eng.Token, 0, 64), &doc, 0)
	if err != nil {
		return eng.ErrorSource{Err: err}
	}
	return eng.NewSliceSource(tokens)
}

// NewBytes reads the first YAML document from b.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

const maxAliasDepth = 64

func appendNode(out []eng.Token, n *yaml.Node, aliasDepth int) ([]eng.Token, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return out, nil
		}
		return appendNode(out, n.Content[0], aliasDepth)
	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth || n.Alias == nil {
			return nil, nodeError(n, "alias nesting too deep")
		}
		return appendNode(out, n.Alias, aliasDepth+1)
	case yaml.MappingNode:
		out = append(out, eng.Token{Kind: eng.KindBeginObject, Offset: -1})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode || (k.Tag != "!!str" && k.Tag != "!!int" && k.Tag != "!!bool") {
				return nil, nodeError(k, "mapping keys must be scalars")
			}
			out = append(out, eng.Token{Kind: eng.KindKey, String: k.Value, Offset: -1})
			var err error
			if out, err = appendNode(out, n.Content[i+1], aliasDepth); err != nil {
				return nil, err
			}
		}
		return append(out, eng.Token{Kind: eng.KindEndObject, Offset: -1}), nil
	case yaml.SequenceNode:
		out = append(out, eng.Token{Kind: eng.KindBeginArray, Offset: -1})
		for _, c := range n.Content {
			var err error
			if out, err = appendNode(out, c, aliasDepth); err != nil {
				return nil, err
			}
		}
		return append(out, eng.Token{Kind: eng.KindEndArray, Offset: -1}), nil
	case yaml.ScalarNode:
		t, err := scalarToken(n)
		if err != nil {
			return nil, err
		}
		return append(out, t), nil
	}
	return nil, nodeError(n, "unsupported node")
}

func scalarToken(n *yaml.Node) (eng.Token, error) {
	switch n.Tag {
	case "!!str", "!!binary", "!!timestamp":
		return eng.Token{Kind: eng.KindString, String: n.Value, Offset: -1}, nil
	case "!!null":
		return eng.Token{Kind: eng.KindNull, Offset: -1}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return eng.Token{}, nodeError(n, err.Error())
		}
		return eng.Token{Kind: eng.KindBool, Bool: b, Offset: -1}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return eng.Token{}, nodeError(n, err.Error())
		}
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(i, 10), Offset: -1}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return eng.Token{}, nodeError(n, err.Error())
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return eng.Token{}, nodeError(n, "non-finite number has no JSON form")
		}
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(f, 'g', -1, 64), Offset: -1}, nil
	}
	return eng.Token{}, nodeError(n, "unsupported tag "+n.Tag)
}

func nodeError(n *yaml.Node, msg string) error {
	return &eng.SyntaxError{Msg: fmt.Sprintf("yaml: line %d column %d: %s", n.Line, n.Column, msg), Offset: -1}
}
