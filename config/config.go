// Package config holds seder's runtime settings.
//
// Settings are layered, each layer overriding the previous one:
//
//  1. built-in defaults (Default)
//  2. the .seder.yaml project file
//  3. SEDER_* environment variables, with a .env file loaded first when present
//  4. command-line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/seder-i18n/seder/keypath"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SEDER_"

// Config is the complete runtime configuration.
type Config struct {
	// Dir is the directory holding one translation file per language.
	Dir string `yaml:"dir,omitempty" env:"DIR"`
	// MainLang is the primary language shown first in the editor.
	MainLang string `yaml:"main_lang,omitempty" env:"MAIN_LANG"`
	// Ignore lists file names (or bare language codes) that are never written.
	Ignore []string `yaml:"ignore,omitempty" env:"IGNORE" envSeparator:","`
	// IgnoreOnLoad also hides ignored files from the editor.
	IgnoreOnLoad bool `yaml:"ignore_on_load,omitempty" env:"IGNORE_ON_LOAD"`
	// Collision is the key collision policy: "strict" or "overwrite".
	Collision string `yaml:"collision,omitempty" env:"COLLISION"`
	// DefaultExt is the extension used for languages that have no file yet.
	DefaultExt string `yaml:"default_ext,omitempty" env:"DEFAULT_EXT"`

	// --- server ---

	Host            string        `yaml:"host,omitempty" env:"HOST"`
	Port            int           `yaml:"port,omitempty" env:"PORT"`
	UIDir           string        `yaml:"ui_dir,omitempty" env:"UI_DIR"`
	OpenBrowser     bool          `yaml:"open_browser" env:"OPEN_BROWSER"`
	IOTimeout       time.Duration `yaml:"io_timeout,omitempty" env:"IO_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes,omitempty" env:"MAX_BODY_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty" env:"LOG_LEVEL"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MainLang:        "en",
		Collision:       keypath.Strict.String(),
		DefaultExt:      ".json",
		Host:            "localhost",
		Port:            3124,
		UIDir:           "client/dist",
		OpenBrowser:     true,
		IOTimeout:       10 * time.Second,
		MaxBodyBytes:    10 << 20,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds a Config from defaults, the project file and the
// environment. path names the project file; when empty, FileName in the
// working directory is used if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	found, err := cfg.mergeFile(path)
	if err != nil {
		return nil, err
	}
	if explicit && !found {
		return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports the variables of a .env file without overriding ones
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation and derived values
// ---------------------------------------------------------------------------

// Validate checks that the configuration can be used to run the editor.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Dir) == "" {
		errs = append(errs, errors.New("translations directory is required (--dir or SEDER_DIR)"))
	} else if info, err := os.Stat(c.Dir); err == nil && !info.IsDir() {
		errs = append(errs, fmt.Errorf("%s is not a directory", c.Dir))
	}
	if strings.TrimSpace(c.MainLang) == "" {
		errs = append(errs, errors.New("main language must not be empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if _, err := keypath.ParsePolicy(c.Collision); err != nil {
		errs = append(errs, err)
	}
	if !strings.HasPrefix(c.DefaultExt, ".") {
		errs = append(errs, fmt.Errorf("default extension %q must start with a dot", c.DefaultExt))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.IOTimeout <= 0 {
		errs = append(errs, fmt.Errorf("io timeout must be positive, got %s", c.IOTimeout))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the address a browser should open.
func (c *Config) URL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Policy returns the parsed collision policy.
func (c *Config) Policy() keypath.Policy {
	p, err := keypath.ParsePolicy(c.Collision)
	if err != nil {
		return keypath.Strict
	}
	return p
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}
