package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/seder-i18n/seder/config"
	"github.com/seder-i18n/seder/i18n"
	"github.com/seder-i18n/seder/server"
)

// addServeFlags defines the server flags on fs. Their values are read back
// by applyServeFlags only when set explicitly.
func addServeFlags(fs *pflag.FlagSet) {
	fs.String("host", "localhost", i18n.T("Address to listen on"))
	fs.IntP("port", "p", 3124, i18n.T("Port to listen on"))
	fs.Bool("open", true, i18n.T("Open the editor in a browser"))
	fs.String("ui-dir", "", i18n.T("Directory with the built editor UI"))
}

// applyServeFlags copies explicitly set server flags into cfg.
func applyServeFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("host") {
		cfg.Host, _ = fs.GetString("host")
	}
	if fs.Changed("port") {
		cfg.Port, _ = fs.GetInt("port")
	}
	if fs.Changed("open") {
		cfg.OpenBrowser, _ = fs.GetBool("open")
	}
	if fs.Changed("ui-dir") {
		cfg.UIDir, _ = fs.GetString("ui-dir")
	}
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: i18n.T("Start the editor server (default command)"),
		Long: i18n.T(`Serve the translation editor and its JSON API.

The editor reads every language file in --dir on each page load and
writes back only the languages you change. Files listed in --ignore
are shown but never written.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command) error {
	a := current
	cfg := a.cfg

	if _, err := os.Stat(cfg.Dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return err
		}
		logWarning("%s", i18n.T("Created missing translations directory %s", cfg.Dir))
	}

	langs, err := a.store.Languages(cmd.Context())
	if err != nil {
		return err
	}
	logInfo("%s", i18n.N("Found %d language in %s", "Found %d languages in %s", len(langs), len(langs), cfg.Dir))
	if n := a.store.Ignore().Len(); n > 0 {
		logInfo("%s", i18n.N("%d file is read-only: %v", "%d files are read-only: %v", n, n, a.store.Ignore().Names()))
	}

	handler := server.NewHandler(server.HandlerConfig{
		Editor:       a.editor,
		Logger:       a.logger.With("component", "http"),
		UIDir:        cfg.UIDir,
		IOTimeout:    cfg.IOTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	srv := server.New(cfg.Addr(),
		server.WithLogger(a.logger.With("component", "server")),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, handler))
	g.Go(func() error {
		select {
		case <-srv.Ready():
		case <-gctx.Done():
			return nil
		}
		url := cfg.URL()
		logSuccess("%s", i18n.T("Editor running at %s", url))
		if cfg.OpenBrowser {
			if err := openBrowser(url); err != nil {
				logWarning("%s", i18n.T("Could not open a browser: %v", err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logInfo("%s", i18n.T("Stopped"))
	return nil
}

// openBrowser starts the platform's URL handler without waiting for it.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
