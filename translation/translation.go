// Package translation holds the in-memory model of all languages: one flat
// key map per language, the union of keys across languages, and the
// operations that apply edits to that model.
package translation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/seder-i18n/seder/keypath"
)

// Set maps a language code to its flattened translations.
type Set map[string]keypath.FlatMap

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports malformed input to a mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidateLang checks that lang can name a file in the translations
// directory: non-empty, no path separators, not "." or "..".
func ValidateLang(lang string) error {
	switch {
	case strings.TrimSpace(lang) == "":
		return &ValidationError{Field: "language", Reason: "must not be empty"}
	case strings.ContainsAny(lang, `/\`) || lang == "." || lang == "..":
		return &ValidationError{Field: "language", Reason: fmt.Sprintf("%q is not a valid language code", lang)}
	}
	return nil
}

// ValidateKey checks a single dot-path.
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Reason: "must not be empty"}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key universe
// ---------------------------------------------------------------------------

// Keys returns every key present in any language, sorted ascending with
// each key listed once.
func Keys(set Set) []string {
	seen := make(map[string]struct{})
	for _, flat := range set {
		for k := range flat {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Missing returns, per language, the sorted keys of the universe that the
// language does not define. Languages with no gaps map to an empty slice.
func Missing(set Set) map[string][]string {
	universe := Keys(set)
	out := make(map[string][]string, len(set))
	for lang, flat := range set {
		gaps := []string{}
		for _, k := range universe {
			if _, ok := flat[k]; !ok {
				gaps = append(gaps, k)
			}
		}
		out[lang] = gaps
	}
	return out
}

// Languages returns the language codes of set sorted, with main moved to
// the front when present.
func Languages(set Set, main string) []string {
	langs := make([]string, 0, len(set))
	for lang := range set {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i] == main {
			return langs[j] != main
		}
		if langs[j] == main {
			return false
		}
		return langs[i] < langs[j]
	})
	return langs
}

// Clone returns a copy of set whose flat maps can be mutated independently.
// Leaf values are shared.
func Clone(set Set) Set {
	out := make(Set, len(set))
	for lang, flat := range set {
		out[lang] = copyFlat(flat)
	}
	return out
}

func copyFlat(m keypath.FlatMap) keypath.FlatMap {
	out := make(keypath.FlatMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
