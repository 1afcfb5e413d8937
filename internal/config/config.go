// Package config loads steno-notes settings from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jwulff/steno/notes/internal/db"
)

// SupportedLocales are the transcription languages the daemon accepts.
var SupportedLocales = []string{"en-US", "ru-RU"}

// Config holds all configuration values.
type Config struct {
	// History database
	DBPath        string `toml:"db_path"`
	HistoryWindow string `toml:"history_window"`

	// Speech daemon
	SocketPath string `toml:"socket_path"`
	Locale     string `toml:"locale"`

	// Logging
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	dir := appDir()
	return Config{
		DBPath:        db.DefaultDBPath(),
		HistoryWindow: db.DefaultWindow.String(),
		SocketPath:    filepath.Join(dir, "steno.sock"),
		Locale:        "en-US",
		LogFile:       filepath.Join(dir, "notes.log"),
		LogLevel:      "INFO",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(appDir(), "notes.toml")
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.DBPath = getEnv("STENO_NOTES_DB", cfg.DBPath)
	cfg.SocketPath = getEnv("STENO_NOTES_SOCKET", cfg.SocketPath)
	cfg.Locale = getEnv("STENO_NOTES_LOCALE", cfg.Locale)
	cfg.LogLevel = getEnv("STENO_NOTES_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is empty")
	}
	if !slices.Contains(SupportedLocales, c.Locale) {
		return fmt.Errorf("unsupported locale %q (want one of %s)", c.Locale, strings.Join(SupportedLocales, ", "))
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// Window parses HistoryWindow.
func (c Config) Window() (time.Duration, error) {
	d, err := time.ParseDuration(c.HistoryWindow)
	if err != nil {
		return 0, fmt.Errorf("history_window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("history_window must be positive, got %s", c.HistoryWindow)
	}
	return d, nil
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	return parseLogLevel(c.LogLevel)
}

// DaemonLocale returns the locale in the daemon's underscore form (en_US).
func (c Config) DaemonLocale() string {
	return strings.ReplaceAll(c.Locale, "-", "_")
}

func appDir() string {
	return filepath.Dir(db.DefaultDBPath())
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
