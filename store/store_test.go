package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/seder-i18n/seder/keypath"
	"github.com/seder-i18n/seder/translation"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("os.WriteFile(%s) error: %v", name, err)
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("os.ReadFile(%s) error: %v", name, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"a":{"b":"hi"}}`)
	writeFile(t, dir, "fr.json", `{"a":{"b":"salut"}}`)
	writeFile(t, dir, "de.yaml", "a:\n  b: hallo\n")
	writeFile(t, dir, "notes.txt", "not a translation")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	set, err := New(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := translation.Set{
		"en": {"a.b": "hi"},
		"fr": {"a.b": "salut"},
		"de": {"a.b": "hallo"},
	}
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("Load() = %v, want %v", set, want)
	}
}

func TestLoadIsolatesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"a":{"b":"hi"}}`)
	writeFile(t, dir, "fr.json", `{"a": {"b": "salut"`)

	set, err := New(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if set["en"]["a.b"] != "hi" {
		t.Fatalf("en[a.b] = %#v, want hi", set["en"]["a.b"])
	}
	fr, ok := set["fr"]
	if !ok {
		t.Fatal("broken language missing from set, want empty entry")
	}
	if len(fr) != 0 {
		t.Fatalf("fr = %v, want empty", fr)
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope")).Load(context.Background()); err == nil {
		t.Fatal("Load of a missing directory should fail")
	}
}

func TestLoadIgnoreOnLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"k":"v"}`)
	writeFile(t, dir, "fr.json", `{"k":"v"}`)

	s := New(dir, WithIgnore(ParseIgnoreList("fr.json")))
	set, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, ok := set["fr"]; !ok {
		t.Fatal("ignored file should still be readable by default")
	}

	s = New(dir, WithIgnore(ParseIgnoreList("fr.json")), WithIgnoreOnLoad(true))
	langs, err := s.Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages error: %v", err)
	}
	if !reflect.DeepEqual(langs, []string{"en"}) {
		t.Fatalf("Languages() = %v, want [en]", langs)
	}
}

func TestDuplicateLanguagePrefersDefaultExt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.yaml", "k: from yaml\n")
	writeFile(t, dir, "en.json", `{"k":"from json"}`)

	s := New(dir)
	set, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if set["en"]["k"] != "from json" {
		t.Fatalf("en[k] = %#v, want from json", set["en"]["k"])
	}
	if got := s.FileName("en"); got != "en.json" {
		t.Fatalf("FileName(en) = %q, want en.json", got)
	}
}

func TestUpperCaseExtensionIsReadAndWritten(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.JSON", `{"a":"x"}`)
	s := New(dir)
	ctx := context.Background()

	if got := s.FileName("en"); got != "en.JSON" {
		t.Fatalf("FileName(en) = %q, want en.JSON", got)
	}
	tree, err := s.ReadTree(ctx, "en")
	if err != nil {
		t.Fatalf("ReadTree(en) error: %v", err)
	}
	if tree["a"] != "x" {
		t.Fatalf("ReadTree(en) = %v, want existing content", tree)
	}

	tree["b"] = "y"
	if _, err := s.Flush(ctx, "en", tree); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "en.JSON" {
		t.Fatalf("directory = %v, want only en.JSON", entries)
	}

	set, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if want := (keypath.FlatMap{"a": "x", "b": "y"}); !reflect.DeepEqual(set["en"], want) {
		t.Fatalf("en = %v, want %v", set["en"], want)
	}
}

func TestReadTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"a":{"b":"hi"}}`)
	writeFile(t, dir, "fr.json", `{broken`)
	s := New(dir)
	ctx := context.Background()

	tree, err := s.ReadTree(ctx, "en")
	if err != nil {
		t.Fatalf("ReadTree(en) error: %v", err)
	}
	if v, _ := keypath.Get(tree, "a.b"); v != "hi" {
		t.Fatalf("a.b = %#v, want hi", v)
	}

	tree, err = s.ReadTree(ctx, "it")
	if err != nil {
		t.Fatalf("ReadTree(it) error: %v", err)
	}
	if len(tree) != 0 {
		t.Fatalf("ReadTree(it) = %v, want empty", tree)
	}

	_, err = s.ReadTree(ctx, "fr")
	var de *DecodeError
	if !errors.As(err, &de) || de.Lang != "fr" || de.File != "fr.json" {
		t.Fatalf("ReadTree(fr) err = %v, want *DecodeError for fr.json", err)
	}

	if _, err := s.ReadTree(ctx, "../en"); !errors.Is(err, translation.ErrValidation) {
		t.Fatalf("ReadTree(../en) err = %v, want ErrValidation", err)
	}
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

func TestFlushWritesWholeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"old":"gone"}`)
	s := New(dir)

	res, err := s.Flush(context.Background(), "en", keypath.Tree{"a": map[string]any{"b": "hi"}})
	if err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if res != Written {
		t.Fatalf("Flush() = %v, want written", res)
	}
	want := "{\n  \"a\": {\n    \"b\": \"hi\"\n  }\n}\n"
	if got := readFile(t, dir, "en.json"); got != want {
		t.Fatalf("en.json =\n%s\nwant\n%s", got, want)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want only en.json (temp files left?)", len(entries))
	}
}

func TestFlushKeepsFormatAndPermissions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "de.yml", "k: alt\n")
	if err := os.Chmod(filepath.Join(dir, "de.yml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(dir).Flush(context.Background(), "de", keypath.Tree{"k": "neu"}); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if got := readFile(t, dir, "de.yml"); got != "k: neu\n" {
		t.Fatalf("de.yml = %q, want %q", got, "k: neu\n")
	}
	info, err := os.Stat(filepath.Join(dir, "de.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFlushCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new", "locales")
	if _, err := New(dir).Flush(context.Background(), "en", keypath.Tree{"k": "v"}); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if got := readFile(t, dir, "en.json"); got != "{\n  \"k\": \"v\"\n}\n" {
		t.Fatalf("en.json = %q", got)
	}
}

func TestFlushSkipsIgnoredFile(t *testing.T) {
	for _, entry := range []string{"fr.json", "fr"} {
		t.Run(entry, func(t *testing.T) {
			dir := t.TempDir()
			original := `{"a":{"b":"salut"}}`
			writeFile(t, dir, "fr.json", original)
			s := New(dir, WithIgnore(NewIgnoreList(entry)))

			res, err := s.Flush(context.Background(), "fr", keypath.Tree{"a": map[string]any{"b": "changed"}})
			if err != nil {
				t.Fatalf("Flush error: %v", err)
			}
			if res != Skipped {
				t.Fatalf("Flush() = %v, want skipped", res)
			}
			if got := readFile(t, dir, "fr.json"); got != original {
				t.Fatalf("fr.json = %q, want untouched %q", got, original)
			}
			if !s.IsIgnored("fr") {
				t.Fatal("IsIgnored(fr) = false, want true")
			}
		})
	}
}

func TestFlushFlatCollisionWritesNothing(t *testing.T) {
	dir := t.TempDir()
	original := `{"a":"leaf"}`
	writeFile(t, dir, "en.json", original)

	_, err := New(dir).FlushFlat(context.Background(), "en", keypath.FlatMap{"a": "x", "a.b": "y"})
	if !errors.Is(err, keypath.ErrPathCollision) {
		t.Fatalf("err = %v, want ErrPathCollision", err)
	}
	if got := readFile(t, dir, "en.json"); got != original {
		t.Fatalf("en.json = %q, want untouched", got)
	}
}

func TestFlushFlatOverwritePolicy(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, WithPolicy(keypath.Overwrite))
	if _, err := s.FlushFlat(context.Background(), "en", keypath.FlatMap{"a": "x", "a.b": "y"}); err != nil {
		t.Fatalf("FlushFlat error: %v", err)
	}
	if got := readFile(t, dir, "en.json"); got != "{\n  \"a\": {\n    \"b\": \"y\"\n  }\n}\n" {
		t.Fatalf("en.json = %q", got)
	}
}

func TestFlushCanceledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(dir).Flush(ctx, "en", keypath.Tree{"k": "v"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "en.json")); !os.IsNotExist(err) {
		t.Fatal("file written despite canceled context")
	}
}

func TestFlushWriteErrorIsIOError(t *testing.T) {
	dir := t.TempDir()
	// A directory is never taken as a language file.
	if err := os.Mkdir(filepath.Join(dir, "en.json"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "en.yaml", "k: v\n")

	s := New(dir)
	_, err := s.Flush(context.Background(), "en", keypath.Tree{"k": "v2"})
	if err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if got := readFile(t, dir, "en.yaml"); got != "k: v2\n" {
		t.Fatalf("en.yaml = %q, want the existing file to be used", got)
	}

	// A non-empty directory in place of the target makes the rename fail.
	blocked := filepath.Join(dir, "fr.json")
	if err := os.Mkdir(blocked, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, blocked, "child", "x")
	_, err = s.Flush(context.Background(), "fr", keypath.Tree{"k": "v"})
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Lang != "fr" || ioErr.File != "fr.json" {
		t.Fatalf("err = %v, want *IOError for fr.json", err)
	}
}

// ---------------------------------------------------------------------------
// Ignore list
// ---------------------------------------------------------------------------

func TestIgnoreList(t *testing.T) {
	l := ParseIgnoreList(" fr.json, ,de ")
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	tests := []struct {
		name string
		want bool
	}{
		{name: "fr.json", want: true},
		{name: "fr.yaml", want: false},
		{name: "de.json", want: true},
		{name: "de.toml", want: true},
		{name: "en.json", want: false},
		{name: "/abs/path/fr.json", want: true},
	}
	for _, tc := range tests {
		if got := l.Matches(tc.name); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
	if got := l.Names(); !reflect.DeepEqual(got, []string{"de", "fr.json"}) {
		t.Fatalf("Names() = %v", got)
	}
	if NewIgnoreList().Matches("en.json") {
		t.Fatal("empty list matched")
	}
}
