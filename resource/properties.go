package resource

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/seder-i18n/seder/keypath"
)

// Properties reads and writes Java-style .properties files.
//
// Format: key=value pairs, one per line, with '=' or ':' as separator.
// Keys are dot-paths and are nested on decode. Lines starting with '#' or
// '!' are comments. Multi-line values (backslash continuation) are not
// supported; each line is treated independently.
//
// Output is one sorted entry per leaf. Comments are not kept, and empty
// objects have no representation, so they are dropped.
type Properties struct{}

func (Properties) Name() string { return "properties" }

func (Properties) Extensions() []string { return []string{".properties"} }

func (Properties) Decode(data []byte) (keypath.Tree, error) {
	data, ok := trimInput(data)
	if !ok {
		return keypath.Tree{}, nil
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	flat := make(keypath.FlatMap)
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		k, v := splitKeyValue(trimmed)
		if k == "" {
			return nil, fmt.Errorf("parsing properties: line %d: missing key", i+1)
		}
		key, err := unescapeProp(k)
		if err != nil {
			return nil, fmt.Errorf("parsing properties: line %d: %w", i+1, err)
		}
		val, err := unescapeProp(v)
		if err != nil {
			return nil, fmt.Errorf("parsing properties: line %d: %w", i+1, err)
		}
		// Later duplicates win.
		flat[key] = val
	}

	tree, err := keypath.Unflatten(flat, keypath.Strict)
	if err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}
	return tree, nil
}

func (Properties) Encode(tree keypath.Tree) ([]byte, error) {
	flat := keypath.Flatten(tree)

	var buf bytes.Buffer
	for _, path := range keypath.SortedPaths(flat) {
		var s string
		switch v := flat[path].(type) {
		case nil:
			continue
		case string:
			s = v
		case []any:
			return nil, fmt.Errorf("marshaling properties: %s: arrays are not supported", path)
		default:
			s = fmt.Sprint(v)
		}
		buf.WriteString(escapeProp(path, true))
		buf.WriteByte('=')
		buf.WriteString(escapeProp(s, false))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// splitKeyValue splits "key = value" or "key=value" into key and value.
// The separator may be '=' or ':' and is ignored when escaped. A line with
// no separator is a key with an empty value.
func splitKeyValue(s string) (key, value string) {
	escaped := false
	for i, ch := range s {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '=' || ch == ':':
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return strings.TrimSpace(s), ""
}

func unescapeProp(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("short \\u escape in %q", s)
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad \\u escape in %q", s)
			}
			b.WriteRune(rune(r))
			i += 4
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func escapeProp(s string, isKey bool) string {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '=', ':':
			if isKey {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case '#', '!':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		case ' ':
			if isKey || i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
