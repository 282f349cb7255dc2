package resource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/seder-i18n/seder/keypath"
)

// JSON reads and writes .json translation files.
//
// Numbers are decoded as json.Number so they are written back exactly as
// they were read. Output uses 2-space indentation, sorted keys, a trailing
// newline, and leaves <, > and & unescaped.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Extensions() []string { return []string{".json"} }

func (JSON) Decode(data []byte) (keypath.Tree, error) {
	data, ok := trimInput(data)
	if !ok {
		return keypath.Tree{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON: unexpected data after top-level value")
	}
	return rootObject(v, "JSON")
}

func (JSON) Encode(tree keypath.Tree) ([]byte, error) {
	if tree == nil {
		tree = keypath.Tree{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// plainNumbers returns a copy of v with json.Number leaves converted to
// int64 or float64, for encoders that do not know json.Number. Nil leaves
// are dropped when dropNil is set.
func plainNumbers(v any, dropNil bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if child == nil && dropNil {
				continue
			}
			out[k] = plainNumbers(child, dropNil)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			if child == nil && dropNil {
				continue
			}
			out = append(out, plainNumbers(child, dropNil))
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
