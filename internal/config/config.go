// Package config loads the tracker configuration from YAML with environment
// overrides. Every setting has a default, so the tracker runs with no
// configuration file at all.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
)

// Store backend names accepted in store.backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendNATS   = "nats"
)

// DefaultPath is where init writes the configuration when no path is named.
const DefaultPath = "hardtrack.yaml"

// candidatePaths are probed when no configuration file is named explicitly.
var candidatePaths = []string{DefaultPath, ".hardtrack.yaml"}

// Config is the full tracker configuration.
type Config struct {
	// DataDir anchors every relative storage path.
	DataDir string `yaml:"data_dir"`
	// Catalog optionally points at a YAML reference schedule replacing the
	// built-in one.
	Catalog string        `yaml:"catalog,omitempty"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	File    FileConfig   `yaml:"file"`
	NATS    NATSConfig   `yaml:"nats"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type NATSConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DaemonConfig configures watch mode. An empty ReminderTime disables the
// daily reminder; a file that omits it gets no reminder rather than the
// default one.
type DaemonConfig struct {
	Listen       string `yaml:"listen"`
	ReminderTime string `yaml:"reminder_time,omitempty"`
}

func base() *Config {
	return &Config{
		DataDir: "./hardtrack-data",
		Store:   StoreConfig{Backend: BackendSQLite},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Daemon:  DaemonConfig{Listen: "127.0.0.1:7575", ReminderTime: "20:00"},
	}
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	c := base()
	c.applyFallbacks()
	return c
}

// Load reads the configuration from path. A missing file is an error; use
// LoadOrDefault when the file is optional.
func Load(path string) (*Config, error) {
	loadDotEnv()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, terrors.ConfigNotFound(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, terrors.Wrap(err, terrors.CategoryConfig, terrors.SeverityFatal, "cannot read configuration").
			WithContext("path", path)
	}

	expanded := os.ExpandEnv(string(raw))

	c := &Config{}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, terrors.Wrap(err, terrors.CategoryConfig, terrors.SeverityFatal, "cannot parse configuration").
			WithContext("path", path)
	}

	c.applyEnv()
	c.applyFallbacks()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault loads path when given, otherwise the first candidate file
// that exists, otherwise the defaults. Environment overrides apply in every
// case.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	for _, candidate := range candidatePaths {
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
	}

	loadDotEnv()
	c := base()
	c.applyEnv()
	c.applyFallbacks()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init writes an example configuration to path. An existing file is only
// replaced with force.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return terrors.New(terrors.CategoryConfig, terrors.SeverityFatal, "configuration file already exists").
			WithContext("path", path).
			WithContext("hint", "use --force to overwrite")
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return terrors.InternalError("cannot marshal example configuration", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return terrors.Wrap(err, terrors.CategoryConfig, terrors.SeverityFatal, "cannot write configuration").
			WithContext("path", path)
	}
	return nil
}

// Validate checks the settings that cannot be defaulted into shape.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendFile, BackendNATS:
	default:
		return terrors.ValidationFailed("store.backend", fmt.Sprintf("unknown backend %q", c.Store.Backend))
	}
	if c.Store.Backend == BackendNATS && c.Store.NATS.URL == "" {
		return terrors.ConfigRequired("store.nats.url")
	}
	if c.Daemon.ReminderTime != "" {
		if _, err := time.Parse("15:04", c.Daemon.ReminderTime); err != nil {
			return terrors.ValidationFailed("daemon.reminder_time", "must be HH:MM")
		}
	}
	return nil
}

// SlogLevel maps the configured level onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// JSONLogs reports whether logs should be emitted as JSON.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.Logging.Format, "json")
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.DataDir, "HARDTRACK_DATA_DIR")
	set(&c.Catalog, "HARDTRACK_CATALOG")
	set(&c.Store.Backend, "HARDTRACK_STORE_BACKEND")
	set(&c.Store.SQLite.Path, "HARDTRACK_SQLITE_PATH")
	set(&c.Store.File.Dir, "HARDTRACK_FILE_DIR")
	set(&c.Store.NATS.URL, "HARDTRACK_NATS_URL")
	set(&c.Store.NATS.Bucket, "HARDTRACK_NATS_BUCKET")
	set(&c.Logging.Level, "HARDTRACK_LOG_LEVEL")
	set(&c.Logging.Format, "HARDTRACK_LOG_FORMAT")
	set(&c.Daemon.Listen, "HARDTRACK_LISTEN")
	set(&c.Daemon.ReminderTime, "HARDTRACK_REMINDER")
}

// applyFallbacks fills every unset field with its default. Storage paths
// derive from DataDir, so overriding the data directory moves them along.
func (c *Config) applyFallbacks() {
	if c.DataDir == "" {
		c.DataDir = "./hardtrack-data"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = filepath.Join(c.DataDir, "tracker.db")
	}
	if c.Store.File.Dir == "" {
		c.Store.File.Dir = filepath.Join(c.DataDir, "slots")
	}
	if c.Store.NATS.Bucket == "" {
		c.Store.NATS.Bucket = "hardtrack"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = "127.0.0.1:7575"
	}
}

// loadDotEnv mirrors the usual .env convention: the first file that loads
// wins and existing environment variables are never overridden.
func loadDotEnv() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}
