package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/seder-i18n/seder/editor"
	"github.com/seder-i18n/seder/i18n"
	"github.com/seder-i18n/seder/langmeta"
	"github.com/seder-i18n/seder/store"
	"github.com/seder-i18n/seder/translation"
)

// ---------------------------------------------------------------------------
// keys
// ---------------------------------------------------------------------------

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: i18n.T("Print every key used by any language"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := current.editor.Report(cmd.Context())
			if err != nil {
				return err
			}
			printKeys(cmd.OutOrStdout(), rep.AllKeys)
			return nil
		},
	}
}

func printKeys(w io.Writer, keys []string) {
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
}

// ---------------------------------------------------------------------------
// missing
// ---------------------------------------------------------------------------

func newMissingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: i18n.T("List the keys each language lacks"),
		Long: i18n.T(`List, per language, the keys that some other language defines but this
one does not. Exits with status 1 when any key is missing, so it can
guard a CI job.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := current.editor.Snapshot(cmd.Context(), "")
			if err != nil {
				return err
			}
			total := writeMissing(cmd.OutOrStdout(), snap)
			if total == 0 {
				logSuccess("%s", i18n.T("No missing keys"))
				return nil
			}
			return errors.New(i18n.N("%d key missing", "%d keys missing", total, total))
		},
	}
}

// writeMissing prints the gaps of every language, primary language first,
// and returns the number of missing entries.
func writeMissing(w io.Writer, snap *editor.Snapshot) int {
	missing := translation.Missing(snap.Translations)
	total := 0
	for _, lang := range translation.Languages(snap.Translations, snap.MainLang) {
		gaps := missing[lang]
		if len(gaps) == 0 {
			continue
		}
		total += len(gaps)
		fmt.Fprintf(w, "%s: %s\n", langmeta.Label(lang), i18n.N("%d missing", "%d missing", len(gaps), len(gaps)))
		for _, k := range gaps {
			fmt.Fprintf(w, "  - %s\n", k)
		}
	}
	return total
}

// ---------------------------------------------------------------------------
// get
// ---------------------------------------------------------------------------

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: i18n.T("Show a key's value in every language"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := current.editor.Snapshot(cmd.Context(), "")
			if err != nil {
				return err
			}
			if !writeKey(cmd.OutOrStdout(), snap, args[0]) {
				return errors.New(i18n.T("key %q not found in any language", args[0]))
			}
			return nil
		},
	}
}

// writeKey prints key for every language and reports whether any language
// defines it.
func writeKey(w io.Writer, snap *editor.Snapshot, key string) bool {
	found := false
	for _, lang := range translation.Languages(snap.Translations, snap.MainLang) {
		v, ok := snap.Translations[lang][key]
		if !ok {
			fmt.Fprintf(w, "%-8s %s\n", lang, colorYellow+i18n.T("(missing)")+colorReset)
			continue
		}
		found = true
		fmt.Fprintf(w, "%-8s %s\n", lang, formatValue(v))
	}
	return found
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(buf.String())
}

// ---------------------------------------------------------------------------
// set
// ---------------------------------------------------------------------------

func newSetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "set <lang> <key> <value>",
		Short: i18n.T("Set one key in one language file"),
		Long: i18n.T(`Set one key in one language file, creating the file and any nested
objects as needed. Other keys in the file are kept.

With --json the value is parsed as JSON, so numbers, booleans, arrays
and objects can be stored.`),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, key := args[0], args[1]
			value, err := parseValue(args[2], asJSON)
			if err != nil {
				return err
			}

			res, err := current.editor.UpdateKey(cmd.Context(), key, map[string]any{lang: value})
			if err != nil {
				return err
			}
			if len(res.Skipped) > 0 {
				logWarning("%s", i18n.T("%s is on the ignore-list; nothing written", current.store.FileName(lang)))
				return nil
			}
			logSuccess("%s", i18n.T("Set %s in %s", key, current.store.FileName(lang)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, i18n.T("Parse the value as JSON"))
	return cmd
}

func parseValue(raw string, asJSON bool) (any, error) {
	if !asJSON {
		return raw, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%s: %w", i18n.T("invalid JSON value"), err)
	}
	if dec.More() {
		return nil, errors.New(i18n.T("invalid JSON value: trailing data"))
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// fill
// ---------------------------------------------------------------------------

func newFillCmd() *cobra.Command {
	var placeholder string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: i18n.T("Add every missing key to every language"),
		Long: i18n.T(`Add each key that exists in some language but not in another, using a
placeholder value (empty by default). Languages on the ignore-list are
left untouched.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := current.editor.Report(cmd.Context())
			if err != nil {
				return err
			}
			pending := 0
			for lang, gaps := range rep.Missing {
				if len(gaps) > 0 && !current.store.IsIgnored(lang) {
					pending++
				}
			}
			if pending == 0 {
				logSuccess("%s", i18n.T("No missing keys"))
				return nil
			}

			bar := progressbar.NewOptions(pending,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan]"+i18n.T("Filling")+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
			)

			ed := editor.New(current.store,
				editor.WithMainLang(current.cfg.MainLang),
				editor.WithLogger(current.logger.With("component", "editor")),
				editor.WithFlushHook(func(string, store.FlushResult) { _ = bar.Add(1) }),
			)
			res, err := ed.Fill(cmd.Context(), placeholder)
			if err != nil {
				return err
			}

			for _, lang := range res.Written {
				logSuccess("%s", i18n.N("%s: added %d key", "%s: added %d keys", len(rep.Missing[lang]), lang, len(rep.Missing[lang])))
			}
			for _, lang := range res.Skipped {
				logWarning("%s", i18n.T("%s: on the ignore-list, skipped", lang))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&placeholder, "value", "", i18n.T("Value for added keys"))
	return cmd
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "languages",
		Aliases: []string{"status"},
		Short:   i18n.T("Show languages and how complete each one is"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := current.editor.Snapshot(cmd.Context(), "")
			if err != nil {
				return err
			}
			if len(snap.Translations) == 0 {
				logInfo("%s", i18n.T("No language files found in %s", current.store.Dir()))
				return nil
			}
			writeLanguages(cmd.OutOrStdout(), snap, current.store.IsIgnored)
			return nil
		},
	}
}

// languageStats is one row of the languages table.
type languageStats struct {
	Lang    string
	Keys    int
	Missing int
	Percent int
}

func computeLanguageStats(snap *editor.Snapshot) []languageStats {
	total := len(snap.AllKeys)
	missing := translation.Missing(snap.Translations)

	var rows []languageStats
	for _, lang := range translation.Languages(snap.Translations, snap.MainLang) {
		row := languageStats{
			Lang:    lang,
			Keys:    len(snap.Translations[lang]),
			Missing: len(missing[lang]),
			Percent: 100,
		}
		if total > 0 {
			row.Percent = (total - row.Missing) * 100 / total
		}
		rows = append(rows, row)
	}
	return rows
}

func writeLanguages(w io.Writer, snap *editor.Snapshot, ignored func(string) bool) {
	fmt.Fprintf(w, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, row := range computeLanguageStats(snap) {
		label := langmeta.Label(row.Lang)
		if row.Lang == snap.MainLang {
			label += " *"
		}
		if ignored(row.Lang) {
			label += " " + i18n.T("(read-only)")
		}
		fmt.Fprintf(w, "%-30s %6d %s\n", label, row.Keys, progressBar(row.Percent, 20))
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintln(w, i18n.N("%d key in total", "%d keys in total", len(snap.AllKeys), len(snap.AllKeys)))
}
