package resource

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/seder-i18n/seder/keypath"
)

// TOML reads and writes .toml translation files. TOML has no null, so nil
// leaves are omitted on write.
type TOML struct{}

func (TOML) Name() string { return "toml" }

func (TOML) Extensions() []string { return []string{".toml"} }

func (TOML) Decode(data []byte) (keypath.Tree, error) {
	data, ok := trimInput(data)
	if !ok {
		return keypath.Tree{}, nil
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if m == nil {
		return keypath.Tree{}, nil
	}
	return m, nil
}

func (TOML) Encode(tree keypath.Tree) ([]byte, error) {
	if tree == nil {
		tree = keypath.Tree{}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(plainNumbers(tree, true)); err != nil {
		return nil, fmt.Errorf("marshaling TOML: %w", err)
	}
	return buf.Bytes(), nil
}
