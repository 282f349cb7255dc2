// Package keypath converts between nested translation trees and flat maps
// addressed by dot-joined key paths.
//
// A tree such as
//
//	{"nav": {"home": "Home", "about": "About"}, "title": "Hi"}
//
// flattens to
//
//	{"nav.home": "Home", "nav.about": "About", "title": "Hi"}
//
// Only nested objects are recursed into. Arrays, numbers, booleans and null
// are leaves and are carried verbatim in both directions.
package keypath

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Separator joins path segments.
const Separator = "."

// Tree is one language's nested resource content.
type Tree = map[string]any

// FlatMap maps dot-paths to leaf values.
type FlatMap = map[string]any

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrPathCollision is matched by every *PathCollisionError.
	ErrPathCollision = errors.New("path collision")
	// ErrInvalidPath is returned for an empty key path.
	ErrInvalidPath = errors.New("invalid key path")
)

// PathCollisionError reports a key that would have to be both a value and a
// group of keys at the same time, e.g. "a" and "a.b".
type PathCollisionError struct {
	// Path is the key being written.
	Path string
	// Conflict is the existing key that blocks Path.
	Conflict string
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf("key %q collides with %q: a key cannot hold both a value and nested keys", e.Path, e.Conflict)
}

func (e *PathCollisionError) Unwrap() error { return ErrPathCollision }

// ---------------------------------------------------------------------------
// Collision policy
// ---------------------------------------------------------------------------

// Policy decides what happens when a write meets a path collision.
type Policy int

const (
	// Strict rejects colliding writes with a *PathCollisionError.
	Strict Policy = iota
	// Overwrite silently replaces the blocking value, dropping it.
	Overwrite
)

func (p Policy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	default:
		return "strict"
	}
}

// ParsePolicy parses "strict" or "overwrite". An empty string means Strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "overwrite":
		return Overwrite, nil
	}
	return Strict, fmt.Errorf("unknown collision policy %q (valid: strict, overwrite)", s)
}

// ---------------------------------------------------------------------------
// Flatten / Unflatten
// ---------------------------------------------------------------------------

// Join appends key to prefix with the path separator.
func Join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Separator + key
}

// Split breaks a path into its segments.
func Split(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	return strings.Split(path, Separator), nil
}

// Flatten walks tree depth-first and returns every leaf under its dot-path.
// Empty nested objects have no leaves and produce no entries.
func Flatten(tree Tree) FlatMap {
	out := make(FlatMap)
	flattenInto(out, tree, "")
	return out
}

func flattenInto(out FlatMap, node map[string]any, prefix string) {
	for key, val := range node {
		path := Join(prefix, key)
		if child, ok := val.(map[string]any); ok {
			flattenInto(out, child, path)
			continue
		}
		out[path] = val
	}
}

// Unflatten rebuilds a tree from a flat map. Paths are applied in sorted
// order, so a key is always seen before any key nested under it.
func Unflatten(m FlatMap, policy Policy) (Tree, error) {
	tree := make(Tree)
	for _, path := range SortedPaths(m) {
		if err := Set(tree, path, m[path], policy); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// SortedPaths returns the keys of m in ascending order.
func SortedPaths(m FlatMap) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ---------------------------------------------------------------------------
// Single-path access
// ---------------------------------------------------------------------------

// Set writes value at path inside tree, creating intermediate objects.
//
// Under Strict, an intermediate segment holding a leaf or a final segment
// holding a non-empty object is a collision. Under Overwrite both are
// replaced and the old content is lost.
func Set(tree Tree, path string, value any, policy Policy) error {
	segs, err := Split(path)
	if err != nil {
		return err
	}

	node := tree
	for i, seg := range segs[:len(segs)-1] {
		next, exists := node[seg]
		child, ok := next.(map[string]any)
		if !ok {
			if exists && policy == Strict {
				return &PathCollisionError{Path: path, Conflict: strings.Join(segs[:i+1], Separator)}
			}
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}

	last := segs[len(segs)-1]
	if sub, ok := node[last].(map[string]any); ok && len(sub) > 0 && policy == Strict {
		return &PathCollisionError{Path: path, Conflict: Join(path, firstKey(sub))}
	}
	node[last] = value
	return nil
}

// Get returns the value stored at path.
func Get(tree Tree, path string) (any, bool) {
	segs, err := Split(path)
	if err != nil {
		return nil, false
	}
	var cur any = tree
	for _, seg := range segs {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// CheckCollisions reports the first path of m, in sorted order, that is a
// strict prefix of another path of m.
func CheckCollisions(m FlatMap) error {
	for _, path := range SortedPaths(m) {
		if path == "" {
			return ErrInvalidPath
		}
		segs := strings.Split(path, Separator)
		for i := 1; i < len(segs); i++ {
			prefix := strings.Join(segs[:i], Separator)
			if _, ok := m[prefix]; ok {
				return &PathCollisionError{Path: path, Conflict: prefix}
			}
		}
	}
	return nil
}

func firstKey(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
