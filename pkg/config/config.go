package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// Backends understood by Store.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

// Config is the pv configuration file (.pedigree/config.yaml)
type Config struct {
	Store  StoreConfig  `yaml:"store,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
	UI     UIConfig     `yaml:"ui,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
	// Root is the project directory holding .pedigree/, or the start
	// directory when none was found.
	Root string `yaml:"-"`
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	// Backend is sqlite, postgres or remote. Empty picks one from whichever
	// of Remote, DSN or Path is set.
	Backend string `yaml:"backend,omitempty"`

	// Path is the sqlite database file (default: .pedigree/pedigree.db)
	Path string `yaml:"path,omitempty"`

	// DSN is the postgres connection string
	DSN string `yaml:"dsn,omitempty"`

	// Remote is the base URL of a pv server
	Remote string `yaml:"remote,omitempty"`

	// DeletePolicy is detach (default) or restrict
	DeletePolicy string `yaml:"delete_policy,omitempty"`
}

// ServerConfig configures pv serve
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// UIConfig tunes the terminal UI
type UIConfig struct {
	DefaultGenerations    int           `yaml:"default_generations,omitempty"`
	MaxGenerations        int           `yaml:"max_generations,omitempty"`
	DateLayout            string        `yaml:"date_layout,omitempty"` // Go layout, overrides the locale
	SearchDebounce        time.Duration `yaml:"search_debounce,omitempty"`
	ToastDuration         time.Duration `yaml:"toast_duration,omitempty"`
	KeepExpansionOnReload bool          `yaml:"keep_expansion_on_reload,omitempty"`
	// Watch reloads the open tree when the sqlite file changes (default: true)
	Watch *bool `yaml:"watch,omitempty"`
}

// WatchEnabled returns whether file watching is on
func (u UIConfig) WatchEnabled() bool {
	return u.Watch == nil || *u.Watch
}

// LogConfig controls where logs go in TUI mode
type LogConfig struct {
	File string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path:         filepath.Join(DirName, "pedigree.db"),
			DeletePolicy: string(store.DeleteDetach),
		},
		Server: ServerConfig{Addr: ":8080"},
		UI: UIConfig{
			DefaultGenerations: 1,
			MaxGenerations:     10,
			SearchDebounce:     250 * time.Millisecond,
			ToastDuration:      4 * time.Second,
		},
		Log: LogConfig{File: filepath.Join(DirName, "pv.log")},
	}
}

// Environment variables overriding file values.
const (
	EnvBackend = "PV_BACKEND"
	EnvDB      = "PV_DB"
	EnvDSN     = "PV_DSN"
	EnvRemote  = "PV_REMOTE"
	EnvAddr    = "PV_ADDR"
)

// Load resolves the configuration for a process started in dir: defaults,
// then the first config file found, then .env, then the environment.
// Relative paths in the result are resolved against Root.
func Load(dir string) (Config, error) {
	cfg := Default()
	cfg.Root = dir
	if root, ok := FindProjectRoot(dir); ok {
		cfg.Root = root
	}

	for _, candidate := range candidatePaths(cfg.Root) {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", candidate, err)
		}
		cfg.Path = candidate
		break
	}

	envFile := filepath.Join(cfg.Root, ".env")
	if _, err := os.Stat(envFile); err == nil {
		// existing environment variables win over .env
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func candidatePaths(root string) []string {
	paths := []string{filepath.Join(root, DirName, FileName)}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "pv", FileName))
	}
	return paths
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvRemote); v != "" {
		c.Store.Remote = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) resolvePaths() {
	resolve := func(p string) string {
		p = expandHome(p)
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Root, p)
	}
	c.Store.Path = resolve(c.Store.Path)
	c.Log.File = resolve(c.Log.File)
}

// EffectiveBackend returns Backend, or infers it from the fields set.
func (s StoreConfig) EffectiveBackend() string {
	if s.Backend != "" {
		return strings.ToLower(s.Backend)
	}
	switch {
	case s.Remote != "":
		return BackendRemote
	case s.DSN != "":
		return BackendPostgres
	default:
		return BackendSQLite
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch b := c.Store.EffectiveBackend(); b {
	case BackendSQLite, BackendPostgres:
	case BackendRemote:
		if c.Store.Remote == "" {
			return fmt.Errorf("store.remote is required for the remote backend")
		}
	default:
		return fmt.Errorf("store.backend: unknown backend %q (want sqlite, postgres or remote)", b)
	}
	if _, err := store.ParseDeletePolicy(c.Store.DeletePolicy); err != nil {
		return fmt.Errorf("store.delete_policy: %w", err)
	}
	if c.UI.DefaultGenerations < 1 {
		return fmt.Errorf("ui.default_generations must be at least 1, got %d", c.UI.DefaultGenerations)
	}
	if c.UI.MaxGenerations < c.UI.DefaultGenerations {
		return fmt.Errorf("ui.max_generations (%d) is below ui.default_generations (%d)",
			c.UI.MaxGenerations, c.UI.DefaultGenerations)
	}
	if c.UI.MaxGenerations > model.MaxGenerations {
		return fmt.Errorf("ui.max_generations must be at most %d, got %d", model.MaxGenerations, c.UI.MaxGenerations)
	}
	if c.UI.SearchDebounce < 0 {
		return fmt.Errorf("ui.search_debounce must not be negative")
	}
	if c.UI.ToastDuration < 0 {
		return fmt.Errorf("ui.toast_duration must not be negative")
	}
	return nil
}
