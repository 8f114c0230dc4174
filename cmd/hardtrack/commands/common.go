package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/hardtrack/internal/catalog"
	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	"git.home.luguber.info/inful/hardtrack/internal/config"
	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
	"git.home.luguber.info/inful/hardtrack/internal/logfields"
	"git.home.luguber.info/inful/hardtrack/internal/store"
	"git.home.luguber.info/inful/hardtrack/internal/workout"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (default: hardtrack.yaml, .hardtrack.yaml)"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format, text or json (default: from config)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init   InitCmd   `cmd:"" help:"Write a starter configuration file"`
	Status StatusCmd `cmd:"" help:"Show challenge progress"`
	Task   TaskCmd   `cmd:"" help:"Work with today's checklist"`
	Day    DayCmd    `cmd:"" help:"Complete days and map them to weekdays"`
	Log    LogCmd    `cmd:"" help:"Work with the exercise log"`
	Report ReportCmd `cmd:"" help:"Render a progress report"`
	Reset  ResetCmd  `cmd:"" help:"Wipe all challenge progress"`
	Watch  WatchCmd  `cmd:"" help:"Follow changes and serve status, report and metrics over HTTP"`

	VersionCmd VersionCmd `cmd:"" name:"version" help:"Show detailed version information"`
}

// AfterApply runs after flag parsing; set up provisional logging from flags
// alone so parse-adjacent output has a handler before the config is read.
func (c *CLI) AfterApply() error {
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return terrors.ValidationFailed("--log-format", "must be text or json")
	}

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// configureLogging reapplies logging once the config is known. Flags win
// over config settings.
func configureLogging(root *CLI, cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if root.Verbose {
		level = slog.LevelDebug
	}
	jsonLogs := cfg.JSONLogs()
	switch root.LogFormat {
	case "json":
		jsonLogs = true
	case "text":
		jsonLogs = false
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// app bundles the opened collaborators a data command works with.
type app struct {
	cfg     *config.Config
	store   *store.Store
	state   *challenge.State
	wlog    *workout.Log
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// openApp loads the configuration, opens the configured backend and binds
// the domain state to it.
func openApp(ctx context.Context, root *CLI) (*app, error) {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return nil, err
	}
	logger := configureLogging(root, cfg)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.New(backend, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   st,
		state:   challenge.New(ctx, st, logger),
		wlog:    workout.New(ctx, st, logger),
		catalog: cat,
		logger:  logger,
	}, nil
}

// Close releases the domain bindings and the backend, in reverse order of
// opening.
func (a *app) Close() {
	a.wlog.Close()
	a.state.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", logfields.Error(err))
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Store.SQLite.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, terrors.StorageError("create data directory", err)
			}
		}
		backend, err := store.NewSQLite(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, terrors.StorageError("open sqlite backend", err)
		}
		return backend, nil

	case config.BackendFile:
		backend, err := store.NewFile(cfg.Store.File.Dir)
		if err != nil {
			return nil, terrors.StorageError("open file backend", err)
		}
		return backend, nil

	case config.BackendNATS:
		backend, err := store.NewNATS(ctx, store.NATSConfig{
			URL:    cfg.Store.NATS.URL,
			Bucket: cfg.Store.NATS.Bucket,
		})
		if err != nil {
			return nil, terrors.StorageError("connect nats backend", err)
		}
		return backend, nil
	}
	return nil, terrors.ValidationFailed("store.backend", "unknown backend "+cfg.Store.Backend)
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.Catalog)
}

// resolveDay turns the optional --day flag into a concrete challenge day.
func resolveDay(a *app, day int) int {
	if day < 1 {
		return a.state.CurrentDay()
	}
	return day
}
