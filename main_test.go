package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/seder-i18n/seder/config"
	"github.com/seder-i18n/seder/editor"
	"github.com/seder-i18n/seder/keypath"
	"github.com/seder-i18n/seder/langmeta"
	"github.com/seder-i18n/seder/translation"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{
			name:    "clamps below zero",
			percent: -10,
			width:   4,
			want:    colorRed + "░░░░" + colorReset + "   0%",
		},
		{
			name:    "mid range uses yellow",
			percent: 50,
			width:   4,
			want:    colorYellow + "██░░" + colorReset + "  50%",
		},
		{
			name:    "clamps above hundred",
			percent: 120,
			width:   4,
			want:    colorGreen + "████" + colorReset + " 100%",
		},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	if v, err := parseValue("42", false); err != nil || v != "42" {
		t.Fatalf("parseValue(plain) = %#v, %v", v, err)
	}
	v, err := parseValue("42", true)
	if err != nil || v != json.Number("42") {
		t.Fatalf("parseValue(json number) = %#v, %v", v, err)
	}
	v, err = parseValue(`{"a":true}`, true)
	if err != nil || !reflect.DeepEqual(v, map[string]any{"a": true}) {
		t.Fatalf("parseValue(json object) = %#v, %v", v, err)
	}
	if _, err := parseValue(`{"a":`, true); err == nil {
		t.Fatal("parseValue(broken json) should fail")
	}
	if _, err := parseValue(`1 2`, true); err == nil {
		t.Fatal("parseValue(trailing data) should fail")
	}
}

func sampleSnapshot() *editor.Snapshot {
	set := translation.Set{
		"en": keypath.FlatMap{"a": "A", "b": "B", "n": json.Number("3")},
		"fr": keypath.FlatMap{"a": "A-fr"},
	}
	return &editor.Snapshot{Translations: set, AllKeys: translation.Keys(set), MainLang: "en"}
}

func TestWriteMissing(t *testing.T) {
	var buf bytes.Buffer
	total := writeMissing(&buf, sampleSnapshot())
	if total != 2 {
		t.Fatalf("writeMissing() = %d, want 2", total)
	}
	out := buf.String()
	if !strings.Contains(out, "  - b\n") || !strings.Contains(out, "  - n\n") {
		t.Fatalf("missing keys not listed:\n%s", out)
	}
	if strings.Contains(out, langmeta.Label("en")) {
		t.Fatalf("complete language en should not be listed:\n%s", out)
	}
}

func TestWriteKey(t *testing.T) {
	var buf bytes.Buffer
	if !writeKey(&buf, sampleSnapshot(), "a") {
		t.Fatal("writeKey(a) = false, want true")
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "en") || !strings.HasSuffix(lines[1], "A-fr") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	writeKey(&buf, sampleSnapshot(), "n")
	if !strings.Contains(buf.String(), "3") {
		t.Fatalf("number not printed:\n%s", buf.String())
	}

	if writeKey(&bytes.Buffer{}, sampleSnapshot(), "zzz") {
		t.Fatal("writeKey(zzz) = true, want false")
	}
}

func TestComputeLanguageStats(t *testing.T) {
	got := computeLanguageStats(sampleSnapshot())
	want := []languageStats{
		{Lang: "en", Keys: 3, Missing: 0, Percent: 100},
		{Lang: "fr", Keys: 1, Missing: 2, Percent: 33},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("computeLanguageStats() = %+v, want %+v", got, want)
	}
}

// runCLI executes a fresh root command with args.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flags = globalFlags{}
	current = nil

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestCLISetKeysAndGet(t *testing.T) {
	work := chdirTemp(t)
	dir := filepath.Join(work, "locales")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"a":{"b":"hi"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "set", "--dir", dir, "fr", "a.b", "salut"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "fr.json"))
	if err != nil {
		t.Fatalf("fr.json not written: %v", err)
	}
	if got, want := string(data), "{\n  \"a\": {\n    \"b\": \"salut\"\n  }\n}\n"; got != want {
		t.Fatalf("fr.json = %q, want %q", got, want)
	}

	out, err := runCLI(t, "keys", "-d", dir)
	if err != nil {
		t.Fatalf("keys error: %v", err)
	}
	if out != "a.b\n" {
		t.Fatalf("keys output = %q, want %q", out, "a.b\n")
	}

	if _, err := runCLI(t, "get", "-d", dir, "nope"); err == nil {
		t.Fatal("get of unknown key should fail")
	}
}

func TestCLIIgnoreFlag(t *testing.T) {
	work := chdirTemp(t)
	fr := filepath.Join(work, "fr.json")
	if err := os.WriteFile(fr, []byte(`{"a":"x"}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "set", "-d", work, "--ignore", "fr.json", "fr", "a", "y"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	data, _ := os.ReadFile(fr)
	if string(data) != `{"a":"x"}` {
		t.Fatalf("ignored fr.json was modified: %q", data)
	}
}

func TestCLIRequiresDir(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SEDER_DIR", "")

	_, err := runCLI(t, "keys")
	if err == nil || !strings.Contains(err.Error(), "directory is required") {
		t.Fatalf("err = %v, want missing directory error", err)
	}
}

func TestCLIInit(t *testing.T) {
	work := chdirTemp(t)

	if _, err := runCLI(t, "init", "-d", "locales", "--main", "fr"); err != nil {
		t.Fatalf("init error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(work, ".seder.yaml"))
	if err != nil {
		t.Fatalf(".seder.yaml not written: %v", err)
	}
	if !strings.Contains(string(data), "dir: locales") || !strings.Contains(string(data), "main_lang: fr") {
		t.Fatalf("unexpected project file:\n%s", data)
	}

	if _, err := runCLI(t, "init", "-d", "locales"); err == nil {
		t.Fatal("second init without --force should fail")
	}
}

func TestCLILogsKeyWithPercent(t *testing.T) {
	work := chdirTemp(t)
	var logs bytes.Buffer
	old := stderr
	stderr = &logs
	t.Cleanup(func() { stderr = old })

	if _, err := runCLI(t, "set", "-d", work, "fr", "done.100%", "fait"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if !strings.Contains(logs.String(), "Set done.100% in fr.json") {
		t.Fatalf("log = %q, want key printed verbatim", logs.String())
	}
}

func TestApplyServeFlags(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	addServeFlags(fs)
	if err := fs.Parse([]string{"-p", "4000", "--open=false"}); err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	cfg := config.Default()
	cfg.Host = "0.0.0.0"
	applyServeFlags(fs, &cfg)

	if cfg.Port != 4000 || cfg.OpenBrowser {
		t.Fatalf("cfg = port %d open %v, want port 4000 open false", cfg.Port, cfg.OpenBrowser)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q, unset flag must not override", cfg.Host)
	}
}
