package store

import (
	"path/filepath"
	"sort"
	"strings"
)

// IgnoreList is the set of file names that are never written. An entry
// without an extension ("fr") matches every file of that language.
type IgnoreList struct {
	names map[string]struct{}
}

// NewIgnoreList builds a list from file names; blanks are skipped.
func NewIgnoreList(names ...string) IgnoreList {
	l := IgnoreList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		l.names[n] = struct{}{}
	}
	return l
}

// ParseIgnoreList splits a comma-separated list such as "fr.json, de.json".
func ParseIgnoreList(csv string) IgnoreList {
	return NewIgnoreList(strings.Split(csv, ",")...)
}

// Matches reports whether fileName is protected.
func (l IgnoreList) Matches(fileName string) bool {
	if len(l.names) == 0 {
		return false
	}
	base := filepath.Base(fileName)
	if _, ok := l.names[base]; ok {
		return true
	}
	_, ok := l.names[strings.TrimSuffix(base, filepath.Ext(base))]
	return ok
}

// Names returns the entries sorted.
func (l IgnoreList) Names() []string {
	out := make([]string, 0, len(l.names))
	for n := range l.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries.
func (l IgnoreList) Len() int { return len(l.names) }
