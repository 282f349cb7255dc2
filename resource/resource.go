// Package resource decodes and encodes per-language translation files.
//
// Every supported format maps to the same model: a nested object whose leaves
// are strings (other scalars and arrays are carried through unchanged).
// Decoding is pure data parsing; file content is never evaluated.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seder-i18n/seder/keypath"
)

// ErrUnsupported is returned by Registry.ForFile for unknown extensions.
var ErrUnsupported = errors.New("unsupported file format")

// Codec converts between file bytes and a translation tree.
type Codec interface {
	// Name is a short format label ("json", "yaml", ...).
	Name() string
	// Extensions lists the lower-case file extensions handled, with the dot.
	Extensions() []string
	Decode(data []byte) (keypath.Tree, error)
	Encode(tree keypath.Tree) ([]byte, error)
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry looks codecs up by file extension.
type Registry struct {
	byExt      map[string]Codec
	defaultExt string
}

// NewRegistry builds a registry from codecs. The first codec's first
// extension becomes the default for new files.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{byExt: make(map[string]Codec)}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// DefaultRegistry handles JSON (default), YAML, TOML and .properties.
func DefaultRegistry() *Registry {
	return NewRegistry(JSON{}, YAML{}, TOML{}, Properties{})
}

// Register adds c for all of its extensions, replacing earlier codecs.
func (r *Registry) Register(c Codec) {
	for _, ext := range c.Extensions() {
		ext = strings.ToLower(ext)
		if r.defaultExt == "" {
			r.defaultExt = ext
		}
		r.byExt[ext] = c
	}
}

// SetDefault changes the extension used for languages without a file yet.
func (r *Registry) SetDefault(ext string) error {
	ext = normalizeExt(ext)
	if _, ok := r.byExt[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	r.defaultExt = ext
	return nil
}

// DefaultExt returns the extension used for new files.
func (r *Registry) DefaultExt() string {
	return r.defaultExt
}

// Lookup returns the codec for ext (".json" or "json").
func (r *Registry) Lookup(ext string) (Codec, bool) {
	c, ok := r.byExt[normalizeExt(ext)]
	return c, ok
}

// ForFile returns the codec matching the file name's extension.
func (r *Registry) ForFile(name string) (Codec, error) {
	ext := filepath.Ext(name)
	c, ok := r.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return c, nil
}

// Supported reports whether name has a registered extension.
func (r *Registry) Supported(name string) bool {
	_, ok := r.Lookup(filepath.Ext(name))
	return ok
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// trimInput strips a UTF-8 BOM and reports whether anything but whitespace is left.
func trimInput(data []byte) ([]byte, bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	return data, len(bytes.TrimSpace(data)) > 0
}

// normalize converts map[any]any produced by some decoders into
// map[string]any, recursively, including maps nested in arrays.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}

func rootObject(v any, format string) (keypath.Tree, error) {
	if v == nil {
		return keypath.Tree{}, nil
	}
	m, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s root must be an object, got %T", format, v)
	}
	return m, nil
}
