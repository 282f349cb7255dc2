// Command seder edits per-language translation files side by side in the browser.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/seder-i18n/seder/config"
	"github.com/seder-i18n/seder/editor"
	"github.com/seder-i18n/seder/i18n"
	"github.com/seder-i18n/seder/resource"
	"github.com/seder-i18n/seder/store"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// stderr receives the colored log lines.
var stderr io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags and wiring
// ---------------------------------------------------------------------------

type globalFlags struct {
	configPath string
	dir        string
	mainLang   string
	ignore     []string
	collision  string
	verbose    bool
}

var flags globalFlags

// app holds what PersistentPreRunE builds for the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	editor *editor.Editor
}

var current *app

// skipSetup marks commands that run without a translations directory.
const skipSetup = "skip-setup"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seder",
		Short: i18n.T("Edit translation files side by side in the browser"),
		Long: i18n.T(`seder edits a directory of per-language translation files
(en.json, fr.json, he.yaml, ...) as one table: one row per key, one
column per language. Nested keys are shown in dot notation.

Run without a subcommand to start the editor server.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			a, err := setup(cmd.Flags())
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", i18n.T("Project file (default ./.seder.yaml)"))
	pf.StringVarP(&flags.dir, "dir", "d", "", i18n.T("Directory with translation files"))
	pf.StringVarP(&flags.mainLang, "main", "m", "", i18n.T("Primary language shown first (default en)"))
	pf.StringSliceVar(&flags.ignore, "ignore", nil, i18n.T("Files that are never written (comma-separated)"))
	pf.StringVar(&flags.collision, "collision", "", i18n.T("Key collision policy: strict or overwrite"))
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, i18n.T("Verbose logging"))

	addServeFlags(root.Flags())

	root.AddCommand(
		newServeCmd(),
		newKeysCmd(),
		newMissingCmd(),
		newGetCmd(),
		newSetCmd(),
		newFillCmd(),
		newLanguagesCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// loadConfig layers explicit command-line flags over the loaded config.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if fs.Changed("dir") {
		cfg.Dir = flags.dir
	}
	if fs.Changed("main") {
		cfg.MainLang = flags.mainLang
	}
	if fs.Changed("ignore") {
		cfg.Ignore = flags.ignore
	}
	if fs.Changed("collision") {
		cfg.Collision = flags.collision
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}
	applyServeFlags(fs, cfg)
	return cfg, nil
}

func setup(fs *pflag.FlagSet) (*app, error) {
	cfg, err := loadConfig(fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := resource.DefaultRegistry()
	if err := reg.SetDefault(cfg.DefaultExt); err != nil {
		return nil, err
	}

	st := store.New(cfg.Dir,
		store.WithIgnore(store.NewIgnoreList(cfg.Ignore...)),
		store.WithIgnoreOnLoad(cfg.IgnoreOnLoad),
		store.WithPolicy(cfg.Policy()),
		store.WithRegistry(reg),
		store.WithLogger(logger.With("component", "store")),
	)
	ed := editor.New(st,
		editor.WithMainLang(cfg.MainLang),
		editor.WithLogger(logger.With("component", "editor")),
	)
	return &app{cfg: cfg, logger: logger, store: st, editor: ed}, nil
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       i18n.T("Show version information"),
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("seder version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: i18n.T("Write the current settings to .seder.yaml"),
		Long: i18n.T(`Write the effective settings (flags, environment and defaults) to a
project file so later runs need no flags.`),
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if flags.configPath != "" {
				path = flags.configPath
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(i18n.T("%s already exists (use --force to overwrite)", path))
			}

			// path is the file being written; only ./.seder.yaml is read.
			flags.configPath = ""
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.WriteFile(path); err != nil {
				return err
			}
			logSuccess("%s", i18n.T("Wrote %s", path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, i18n.T("Overwrite an existing project file"))
	return cmd
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

// progressBar renders a colored completion bar followed by the percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset +
		fmt.Sprintf(" %3d%%", percent)
}
