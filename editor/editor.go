// Package editor implements the operations behind the translation editor:
// reading a snapshot of all languages and applying full-sheet saves, bulk
// key merges and single-key updates back to disk.
//
// Every write is a read-modify-write of whole language files. The Editor
// holds one mutex per language for the duration of that cycle, so
// concurrent requests touching the same language are serialized while
// different languages proceed independently.
package editor

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seder-i18n/seder/keypath"
	"github.com/seder-i18n/seder/store"
	"github.com/seder-i18n/seder/translation"
)

// DefaultMainLang is shown first when no primary language is configured.
const DefaultMainLang = "en"

// maxParallelWrites bounds concurrent file writes in one batch.
const maxParallelWrites = 8

// FlushHook is called after each language of a batch has been flushed.
// It may be called from several goroutines.
type FlushHook func(lang string, res store.FlushResult)

// Editor applies edits to the files of one store.
type Editor struct {
	store   *store.Store
	main    string
	applier translation.Applier
	logger  *slog.Logger
	onFlush FlushHook

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Editor.
type Option func(*Editor)

// WithMainLang sets the language returned as mainLang when a request does
// not name one.
func WithMainLang(lang string) Option {
	return func(e *Editor) {
		if lang != "" {
			e.main = lang
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithFlushHook registers a callback for per-language batch progress.
func WithFlushHook(h FlushHook) Option {
	return func(e *Editor) { e.onFlush = h }
}

// New creates an Editor over s. The store's collision policy is used for
// all mutations.
func New(s *store.Store, opts ...Option) *Editor {
	e := &Editor{
		store:   s,
		main:    DefaultMainLang,
		applier: translation.Applier{Policy: s.Policy()},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Editor) Store() *store.Store { return e.store }

// MainLang returns the configured primary language.
func (e *Editor) MainLang() string { return e.main }

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Snapshot is the tabular view of every language.
type Snapshot struct {
	Translations translation.Set `json:"translations"`
	AllKeys      []string        `json:"allKeys"`
	MainLang     string          `json:"mainLang"`
}

// Snapshot loads all languages. main overrides the configured primary
// language in the result; it does not change key order.
func (e *Editor) Snapshot(ctx context.Context, main string) (*Snapshot, error) {
	set, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if main == "" {
		main = e.main
	}
	return &Snapshot{
		Translations: set,
		AllKeys:      translation.Keys(set),
		MainLang:     main,
	}, nil
}

// KeyReport lists the key universe and each language's gaps.
type KeyReport struct {
	AllKeys []string            `json:"allKeys"`
	Missing map[string][]string `json:"missing"`
}

// Report loads all languages and computes missing keys.
func (e *Editor) Report(ctx context.Context) (*KeyReport, error) {
	set, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &KeyReport{
		AllKeys: translation.Keys(set),
		Missing: translation.Missing(set),
	}, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Result lists which languages were written and which were skipped
// because their files are on the ignore-list.
type Result struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
}

// Save replaces each given language with its complete flat map. All
// languages are validated and unflattened before any file is written.
// Languages on the ignore-list are skipped whatever their content.
func (e *Editor) Save(ctx context.Context, sheet translation.Set) (*Result, error) {
	if err := requireLanguages(sheet); err != nil {
		return nil, err
	}

	working := make(translation.Set, len(sheet))
	skipped := []string{}
	for _, lang := range sortedLangs(sheet) {
		if err := translation.ValidateLang(lang); err != nil {
			return nil, err
		}
		if e.store.IsIgnored(lang) {
			skipped = append(skipped, lang)
			continue
		}
		if sheet[lang] == nil {
			return nil, &translation.ValidationError{Field: "translations." + lang, Reason: "must be an object"}
		}
		if err := e.applier.ReplaceAll(working, lang, sheet[lang]); err != nil {
			return nil, err
		}
	}

	trees := make(map[string]keypath.Tree, len(working))
	for lang, flat := range working {
		tree, err := keypath.Unflatten(flat, e.applier.Policy)
		if err != nil {
			return nil, err
		}
		trees[lang] = tree
	}

	unlock := e.lockAll(sortedLangs(working))
	defer unlock()
	res, err := e.flushAll(ctx, trees)
	if err != nil {
		return nil, err
	}
	res.Skipped = append(res.Skipped, skipped...)
	sort.Strings(res.Skipped)
	return res, nil
}

// SaveKeys merges the given keys into each language file. Keys that are
// not mentioned keep their current values, and nested structure already
// on disk is kept.
func (e *Editor) SaveKeys(ctx context.Context, patches translation.Set) (*Result, error) {
	if err := requireLanguages(patches); err != nil {
		return nil, err
	}
	langs := sortedLangs(patches)
	for _, lang := range langs {
		if err := translation.ValidateLang(lang); err != nil {
			return nil, err
		}
	}

	unlock := e.lockAll(langs)
	defer unlock()

	// Read and patch everything first so a bad key in one language leaves
	// every file untouched.
	trees := make(map[string]keypath.Tree, len(langs))
	skipped := []string{}
	for _, lang := range langs {
		if e.store.IsIgnored(lang) {
			skipped = append(skipped, lang)
			continue
		}
		tree, err := e.merge(ctx, lang, patches[lang])
		if err != nil {
			return nil, err
		}
		trees[lang] = tree
	}

	res, err := e.flushAll(ctx, trees)
	if err != nil {
		return nil, err
	}
	res.Skipped = append(res.Skipped, skipped...)
	sort.Strings(res.Skipped)
	return res, nil
}

// UpdateKey sets one key in every language of values.
func (e *Editor) UpdateKey(ctx context.Context, key string, values map[string]any) (*Result, error) {
	if err := translation.ValidateKey(key); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, &translation.ValidationError{Field: "values", Reason: "must name at least one language"}
	}
	patches := make(translation.Set, len(values))
	for lang, v := range values {
		patches[lang] = keypath.FlatMap{key: v}
	}
	return e.SaveKeys(ctx, patches)
}

// Fill adds every key of the universe that a language lacks, with
// placeholder as value. Ignored languages are reported as skipped.
func (e *Editor) Fill(ctx context.Context, placeholder any) (*Result, error) {
	set, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	patches := make(translation.Set)
	for lang, gaps := range translation.Missing(set) {
		if len(gaps) == 0 {
			continue
		}
		patch := make(keypath.FlatMap, len(gaps))
		for _, k := range gaps {
			patch[k] = placeholder
		}
		patches[lang] = patch
	}
	if len(patches) == 0 {
		return &Result{Written: []string{}, Skipped: []string{}}, nil
	}
	return e.SaveKeys(ctx, patches)
}

// merge applies patch to the on-disk tree of lang. The flat projection is
// validated through the Applier first, then the same keys are set on the
// tree so that structure the flat view cannot show, such as empty
// objects, survives.
func (e *Editor) merge(ctx context.Context, lang string, patch keypath.FlatMap) (keypath.Tree, error) {
	tree, err := e.store.ReadTree(ctx, lang)
	if err != nil {
		return nil, err
	}
	working := translation.Set{lang: keypath.Flatten(tree)}
	if err := e.applier.SetMany(working, lang, patch); err != nil {
		return nil, err
	}
	for _, k := range keypath.SortedPaths(patch) {
		if err := keypath.Set(tree, k, patch[k], e.applier.Policy); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// flushAll writes trees concurrently. The first failure cancels the
// writes that have not started yet and is returned.
func (e *Editor) flushAll(ctx context.Context, trees map[string]keypath.Tree) (*Result, error) {
	var (
		mu  sync.Mutex
		res = &Result{Written: []string{}, Skipped: []string{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	for lang, tree := range trees {
		g.Go(func() error {
			r, err := e.store.Flush(gctx, lang, tree)
			if err != nil {
				e.logger.ErrorContext(ctx, "flush failed", "lang", lang, "error", err)
				return err
			}
			mu.Lock()
			if r == store.Skipped {
				res.Skipped = append(res.Skipped, lang)
			} else {
				res.Written = append(res.Written, lang)
			}
			mu.Unlock()
			if e.onFlush != nil {
				e.onFlush(lang, r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(res.Written)
	sort.Strings(res.Skipped)
	e.logger.InfoContext(ctx, "saved translations", "written", res.Written, "skipped", res.Skipped)
	return res, nil
}

// ---------------------------------------------------------------------------
// Locking
// ---------------------------------------------------------------------------

func (e *Editor) lockFor(lang string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[lang]
	if !ok {
		l = &sync.Mutex{}
		e.locks[lang] = l
	}
	return l
}

// lockAll takes the locks of langs in sorted order and returns a function
// releasing them.
func (e *Editor) lockAll(langs []string) func() {
	sorted := append([]string(nil), langs...)
	sort.Strings(sorted)
	held := make([]*sync.Mutex, 0, len(sorted))
	for _, lang := range sorted {
		l := e.lockFor(lang)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func requireLanguages(set translation.Set) error {
	if set == nil {
		return &translation.ValidationError{Field: "translations", Reason: "is required"}
	}
	return nil
}

func sortedLangs(set translation.Set) []string {
	langs := make([]string, 0, len(set))
	for lang := range set {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
