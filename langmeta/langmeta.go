// Package langmeta provides language display metadata (native name,
// English name and emoji flag) for the language codes found in a
// translations directory.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Name is the language's own name for itself, e.g. "Deutsch".
	Name string
	// English is the English name, e.g. "German".
	English string
	// Flag is the emoji flag of the language's region, or empty.
	Flag string
}

// overrides pins flags where the most likely region is a poor fit for a
// language picker.
var overrides = map[string]string{
	"ar": "SA",
	"en": "US",
	"eu": "ES",
	"ca": "ES",
	"gl": "ES",
	"cy": "GB",
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, accepting
// variants like pt_BR and pt-br. Unknown codes resolve to their own code
// as name and no flag.
func Resolve(lang string) Meta {
	tag, err := language.Parse(canonicalize(lang))
	if err != nil {
		return Meta{Name: lang, English: lang}
	}

	m := Meta{
		Name:    display.Self.Name(tag),
		English: display.English.Tags().Name(tag),
		Flag:    flagFor(tag),
	}
	if m.Name == "" {
		m.Name = lang
	}
	if m.English == "" {
		m.English = lang
	}
	return m
}

// Label formats lang for CLI output, e.g. "🇩🇪 de (Deutsch)".
func Label(lang string) string {
	m := Resolve(lang)
	var b strings.Builder
	if m.Flag != "" {
		b.WriteString(m.Flag)
		b.WriteByte(' ')
	}
	b.WriteString(lang)
	if m.Name != lang {
		b.WriteString(" (")
		b.WriteString(m.Name)
		b.WriteByte(')')
	}
	return b.String()
}

func flagFor(tag language.Tag) string {
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.Exact {
		return flagFromRegion(region.String())
	}
	if r, ok := overrides[base.String()]; ok {
		return flagFromRegion(r)
	}
	if conf == language.No {
		return ""
	}
	return flagFromRegion(region.String())
}

// flagFromRegion converts a two-letter region code into its regional
// indicator pair. Anything else yields "".
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}
