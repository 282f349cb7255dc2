// Package i18n translates seder's own CLI messages.
//
// It wraps the gotext library to provide T() and N() for seder's
// user-facing strings. Catalogs are embedded in the binary via //go:embed
// and loaded at startup via Init():
//
//	i18n.Init("")  // SEDER_LANG, then LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("Saved %s", lang))
//	fmt.Println(i18n.N("%d key missing", "%d keys missing", n, n))
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/seder.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for seder.
const domain = "seder"

var (
	po     *gotext.Locale
	active = "en"
)

// Init loads the catalog for lang. If lang is empty, it is detected from
// the environment.
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	active = lang

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Language returns the language passed to or detected by Init.
func Language() string { return active }

// T translates msgid and formats it with vars. Untranslated strings are
// returned unchanged (formatted when vars are given).
func T(msgid string, vars ...any) string {
	if po == nil {
		return sprintf(msgid, vars...)
	}
	return po.Get(msgid, vars...)
}

// N translates a string with plural forms and formats it with vars. The
// plural rule comes from the catalog; without one, n == 1 selects the
// singular.
func N(singular, plural string, n int, vars ...any) string {
	if po == nil {
		if n == 1 {
			return sprintf(singular, vars...)
		}
		return sprintf(plural, vars...)
	}
	return po.GetN(singular, plural, n, vars...)
}

func sprintf(format string, vars ...any) string {
	if len(vars) == 0 {
		return format
	}
	return fmt.Sprintf(format, vars...)
}

// detectLanguage reads environment variables to determine the user's
// preferred language. SEDER_LANG wins, then GNU gettext order.
func detectLanguage() string {
	for _, env := range []string{"SEDER_LANG", "LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// ru_RU.UTF-8 -> ru_RU, sr_RS@latin -> sr_RS
		if idx := strings.IndexAny(val, ".@"); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
