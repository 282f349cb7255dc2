package resource

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/seder-i18n/seder/keypath"
)

// YAML reads and writes .yaml / .yml translation files.
//
// The root must be a mapping. Output is re-generated from the tree with
// 2-space indentation, so comments and anchors in the source are not kept.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Extensions() []string { return []string{".yaml", ".yml"} }

func (YAML) Decode(data []byte) (keypath.Tree, error) {
	data, ok := trimInput(data)
	if !ok {
		return keypath.Tree{}, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return rootObject(v, "YAML")
}

func (YAML) Encode(tree keypath.Tree) ([]byte, error) {
	if tree == nil {
		tree = keypath.Tree{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plainNumbers(tree, false)); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return buf.Bytes(), nil
}
