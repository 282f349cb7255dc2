// Package store loads a directory of per-language translation files into a
// translation.Set and writes single languages back.
//
// The language code of a file is its base name without extension:
//
//	locales/en.json  -> "en"
//	locales/pt-BR.yaml -> "pt-BR"
//
// Files whose names are on the ignore-list can always be read but are never
// written.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seder-i18n/seder/keypath"
	"github.com/seder-i18n/seder/resource"
	"github.com/seder-i18n/seder/translation"
)

// FlushResult tells whether Flush touched the file.
type FlushResult int

const (
	// Written means the file content was replaced.
	Written FlushResult = iota + 1
	// Skipped means the file is on the ignore-list and was left alone.
	Skipped
)

func (r FlushResult) String() string {
	switch r {
	case Written:
		return "written"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Store reads and writes the translation files of one directory.
// Its fields are fixed at construction; a Store is safe for concurrent
// use, but callers must serialize read-modify-write cycles on one language.
type Store struct {
	dir          string
	ignore       IgnoreList
	ignoreOnLoad bool
	registry     *resource.Registry
	policy       keypath.Policy
	logger       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIgnore sets the files that must never be written.
func WithIgnore(l IgnoreList) Option {
	return func(s *Store) { s.ignore = l }
}

// WithIgnoreOnLoad hides ignored files from Load and Languages as well.
func WithIgnoreOnLoad(hide bool) Option {
	return func(s *Store) { s.ignoreOnLoad = hide }
}

// WithRegistry replaces the default JSON/YAML/TOML codecs.
func WithRegistry(r *resource.Registry) Option {
	return func(s *Store) { s.registry = r }
}

// WithPolicy sets the collision policy used by FlushFlat.
func WithPolicy(p keypath.Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithLogger sets the logger for skipped and unreadable files.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store for dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		ignore:   NewIgnoreList(),
		registry: resource.DefaultRegistry(),
		policy:   keypath.Strict,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the translations directory.
func (s *Store) Dir() string { return s.dir }

// Policy returns the collision policy.
func (s *Store) Policy() keypath.Policy { return s.policy }

// Ignore returns the ignore-list.
func (s *Store) Ignore() IgnoreList { return s.ignore }

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

type langFile struct {
	lang string
	name string
}

// files lists one file per language, sorted by language.
func (s *Store) files() ([]langFile, error) {
	byLang, err := s.scan(s.ignoreOnLoad)
	if err != nil {
		return nil, err
	}
	out := make([]langFile, 0, len(byLang))
	for lang, name := range byLang {
		out = append(out, langFile{lang: lang, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].lang < out[j].lang })
	return out, nil
}

// scan maps each language to its file. When a language has several files
// (en.json and en.yaml) the one using the default extension wins, then the
// first by name. Extensions match case-insensitively.
func (s *Store) scan(hideIgnored bool) (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading translations directory %s: %w", s.dir, err)
	}

	byLang := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !s.registry.Supported(name) {
			continue
		}
		if hideIgnored && s.ignore.Matches(name) {
			continue
		}
		lang := strings.TrimSuffix(name, filepath.Ext(name))
		if prev, ok := byLang[lang]; ok {
			if s.preferred(prev, name) {
				s.logger.Debug("duplicate language file ignored", "lang", lang, "file", name, "using", prev)
				continue
			}
			s.logger.Debug("duplicate language file ignored", "lang", lang, "file", prev, "using", name)
		}
		byLang[lang] = name
	}
	return byLang, nil
}

// preferred reports whether a should be kept over b for the same language.
func (s *Store) preferred(a, b string) bool {
	def := s.registry.DefaultExt()
	aDef := strings.EqualFold(filepath.Ext(a), def)
	bDef := strings.EqualFold(filepath.Ext(b), def)
	if aDef != bDef {
		return aDef
	}
	return a < b
}

// Languages returns the sorted language codes found in the directory.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	langs := make([]string, len(files))
	for i, f := range files {
		langs[i] = f.lang
	}
	return langs, nil
}

// Load reads every language file into a fresh Set. A file that cannot be
// read or decoded is logged and loaded as an empty language; only a failure
// to list the directory aborts the load.
func (s *Store) Load(ctx context.Context) (translation.Set, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	set := make(translation.Set, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tree, err := s.readFile(f.lang, f.name)
		if err != nil {
			s.logger.WarnContext(ctx, "loading language as empty", "lang", f.lang, "file", f.name, "error", err)
			set[f.lang] = keypath.FlatMap{}
			continue
		}
		set[f.lang] = keypath.Flatten(tree)
	}
	return set, nil
}

// ReadTree returns the current tree of lang, or an empty tree when the
// language has no file yet. Unlike Load, a broken file is an error here so
// that a write never replaces content it could not read.
func (s *Store) ReadTree(ctx context.Context, lang string) (keypath.Tree, error) {
	if err := translation.ValidateLang(lang); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := s.FileName(lang)
	tree, err := s.readFile(lang, name)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) && errors.Is(de.Err, fs.ErrNotExist) {
			return keypath.Tree{}, nil
		}
		return nil, err
	}
	return tree, nil
}

func (s *Store) readFile(lang, name string) (keypath.Tree, error) {
	codec, err := s.registry.ForFile(name)
	if err != nil {
		return nil, &DecodeError{Lang: lang, File: name, Err: err}
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, &DecodeError{Lang: lang, File: name, Err: err}
	}
	tree, err := codec.Decode(data)
	if err != nil {
		return nil, &DecodeError{Lang: lang, File: name, Err: err}
	}
	return tree, nil
}

// FileName returns the file used for lang: the one the loader reads for
// it, or lang plus the default extension when there is none.
func (s *Store) FileName(lang string) string {
	if byLang, err := s.scan(false); err == nil {
		if name, ok := byLang[lang]; ok {
			return name
		}
	}
	return lang + s.registry.DefaultExt()
}

// IsIgnored reports whether writes to lang are suppressed.
func (s *Store) IsIgnored(lang string) bool {
	return s.ignore.Matches(s.FileName(lang))
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Flush replaces the file of lang with tree. Ignored files are left
// untouched and reported as Skipped. The file is replaced as a whole
// through a temporary file and a rename, so readers see either the old or
// the new content.
func (s *Store) Flush(ctx context.Context, lang string, tree keypath.Tree) (FlushResult, error) {
	if err := translation.ValidateLang(lang); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	name := s.FileName(lang)
	if s.ignore.Matches(name) {
		s.logger.DebugContext(ctx, "skipping ignored file", "lang", lang, "file", name)
		return Skipped, nil
	}

	codec, err := s.registry.ForFile(name)
	if err != nil {
		return 0, &IOError{Lang: lang, File: name, Op: "encode", Err: err}
	}
	data, err := codec.Encode(tree)
	if err != nil {
		return 0, &IOError{Lang: lang, File: name, Op: "encode", Err: err}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return 0, &IOError{Lang: lang, File: name, Op: "mkdir", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return 0, &IOError{Lang: lang, File: name, Op: "write", Err: err}
	}

	s.logger.DebugContext(ctx, "wrote translation file", "lang", lang, "file", name, "bytes", len(data))
	return Written, nil
}

// FlushFlat unflattens m with the store's collision policy and flushes it.
// A collision is returned before anything is written.
func (s *Store) FlushFlat(ctx context.Context, lang string, m keypath.FlatMap) (FlushResult, error) {
	tree, err := keypath.Unflatten(m, s.policy)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", lang, err)
	}
	return s.Flush(ctx, lang, tree)
}

func writeFileAtomic(path string, data []byte) error {
	perm := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
