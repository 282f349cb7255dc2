package translation

import (
	"strings"

	"github.com/seder-i18n/seder/keypath"
)

// Applier applies edits to a Set. Every method validates its whole input
// before touching set, so a rejected call leaves set unchanged, and
// re-applying the same input is a no-op.
type Applier struct {
	// Policy controls key/group collisions. Under keypath.Strict they are
	// rejected; under keypath.Overwrite the older conflicting keys are
	// dropped, matching what Unflatten(…, Overwrite) would write.
	Policy keypath.Policy
}

// SetOne sets key to value in lang, creating the language if absent.
func (a Applier) SetOne(set Set, lang, key string, value any) error {
	return a.SetMany(set, lang, keypath.FlatMap{key: value})
}

// SetMany merges patch into lang. Keys of lang that are not in patch are
// kept as they are.
func (a Applier) SetMany(set Set, lang string, patch keypath.FlatMap) error {
	if err := a.check(set, lang, patch); err != nil {
		return err
	}
	next := copyFlat(set[lang])
	for _, k := range keypath.SortedPaths(patch) {
		if a.Policy == keypath.Overwrite {
			dropConflicts(next, k)
		}
		next[k] = patch[k]
	}
	if a.Policy == keypath.Strict {
		if err := keypath.CheckCollisions(next); err != nil {
			return err
		}
	}
	set[lang] = next
	return nil
}

// ReplaceAll replaces the whole flat map of lang with a copy of full.
func (a Applier) ReplaceAll(set Set, lang string, full keypath.FlatMap) error {
	if err := a.check(set, lang, full); err != nil {
		return err
	}
	next := make(keypath.FlatMap, len(full))
	for _, k := range keypath.SortedPaths(full) {
		if a.Policy == keypath.Overwrite {
			dropConflicts(next, k)
		}
		next[k] = full[k]
	}
	if a.Policy == keypath.Strict {
		if err := keypath.CheckCollisions(next); err != nil {
			return err
		}
	}
	set[lang] = next
	return nil
}

func (a Applier) check(set Set, lang string, m keypath.FlatMap) error {
	if set == nil {
		return &ValidationError{Field: "translations", Reason: "set is nil"}
	}
	if err := ValidateLang(lang); err != nil {
		return err
	}
	for k := range m {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	return nil
}

// dropConflicts removes the leaves that key would displace: any ancestor
// of key stored as a leaf and any key nested under key.
func dropConflicts(m keypath.FlatMap, key string) {
	segs := strings.Split(key, keypath.Separator)
	for i := 1; i < len(segs); i++ {
		delete(m, strings.Join(segs[:i], keypath.Separator))
	}
	prefix := key + keypath.Separator
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			delete(m, k)
		}
	}
}

// SetOne applies Applier{Policy: keypath.Strict}.SetOne.
func SetOne(set Set, lang, key string, value any) error {
	return Applier{}.SetOne(set, lang, key, value)
}

// SetMany applies Applier{Policy: keypath.Strict}.SetMany.
func SetMany(set Set, lang string, patch keypath.FlatMap) error {
	return Applier{}.SetMany(set, lang, patch)
}

// ReplaceAll applies Applier{Policy: keypath.Strict}.ReplaceAll.
func ReplaceAll(set Set, lang string, full keypath.FlatMap) error {
	return Applier{}.ReplaceAll(set, lang, full)
}
