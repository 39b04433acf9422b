package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points HOME and the user config dir at a temp dir and clears the
// PV_* variables so the developer's environment cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{EnvBackend, EnvDB, EnvDSN, EnvRemote, EnvAddr} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindProjectRoot(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DirName), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := FindProjectRoot(deep)
	if !ok || got != root {
		t.Errorf("FindProjectRoot = %q, %v; want %q", got, ok, root)
	}

	if _, ok := FindProjectRoot(t.TempDir()); ok {
		t.Error("expected no project outside a .pedigree tree")
	}
}

func TestFindProjectRoot_IgnoresPlainFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DirName), "not a dir")
	if _, ok := FindProjectRoot(root); ok {
		t.Error(".pedigree file should not count as a project")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want none", cfg.Path)
	}
	if cfg.Store.EffectiveBackend() != BackendSQLite {
		t.Errorf("backend = %q", cfg.Store.EffectiveBackend())
	}
	if want := filepath.Join(dir, DirName, "pedigree.db"); cfg.Store.Path != want {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, want)
	}
	if cfg.UI.DefaultGenerations != 1 || cfg.UI.MaxGenerations != 10 {
		t.Errorf("generations = %d/%d", cfg.UI.DefaultGenerations, cfg.UI.MaxGenerations)
	}
	if cfg.UI.SearchDebounce != 250*time.Millisecond || cfg.UI.ToastDuration != 4*time.Second {
		t.Errorf("durations = %v/%v", cfg.UI.SearchDebounce, cfg.UI.ToastDuration)
	}
	if !cfg.UI.WatchEnabled() {
		t.Error("watch should default to on")
	}
}

func TestLoad_ProjectFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DirName, FileName), `
store:
  path: data/horses.db
  delete_policy: restrict
ui:
  default_generations: 3
  max_generations: 6
  date_layout: "02 Jan 2006"
  search_debounce: 100ms
  keep_expansion_on_reload: true
  watch: false
log:
  file: /tmp/pv-test.log
`)
	sub := filepath.Join(root, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Root != root {
		t.Errorf("Root = %q, want %q", cfg.Root, root)
	}
	if cfg.Store.Path != filepath.Join(root, "data", "horses.db") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Store.DeletePolicy != "restrict" {
		t.Errorf("DeletePolicy = %q", cfg.Store.DeletePolicy)
	}
	if cfg.UI.DefaultGenerations != 3 || cfg.UI.MaxGenerations != 6 {
		t.Errorf("generations = %d/%d", cfg.UI.DefaultGenerations, cfg.UI.MaxGenerations)
	}
	if cfg.UI.DateLayout != "02 Jan 2006" || cfg.UI.SearchDebounce != 100*time.Millisecond {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if cfg.UI.ToastDuration != 4*time.Second {
		t.Errorf("unset ToastDuration should keep default, got %v", cfg.UI.ToastDuration)
	}
	if !cfg.UI.KeepExpansionOnReload || cfg.UI.WatchEnabled() {
		t.Errorf("ui flags = %+v", cfg.UI)
	}
	if cfg.Log.File != "/tmp/pv-test.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
}

func TestLoad_UserConfigFallback(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "pv", FileName), "server:\n  addr: \":9999\"\n")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DirName, FileName), "store:\n  path: file.db\n")
	writeFile(t, filepath.Join(root, ".env"), "PV_DSN=postgres://dotenv/pedigree\nPV_ADDR=:7000\n")
	t.Setenv(EnvAddr, ":7100")
	// godotenv sets variables for the process; clear them once the test ends
	t.Cleanup(func() { os.Unsetenv(EnvDSN) })
	os.Unsetenv(EnvDSN)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.DSN != "postgres://dotenv/pedigree" {
		t.Errorf("DSN = %q, want value from .env", cfg.Store.DSN)
	}
	if cfg.Store.EffectiveBackend() != BackendPostgres {
		t.Errorf("backend = %q, want postgres inferred from DSN", cfg.Store.EffectiveBackend())
	}
	if cfg.Server.Addr != ":7100" {
		t.Errorf("Addr = %q, process env should win over .env", cfg.Server.Addr)
	}
}

func TestLoad_ParseError(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DirName, FileName), "ui: [not, a, map")
	if _, err := Load(root); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mysql" }, "unknown backend"},
		{"remote without url", func(c *Config) { c.Store.Backend = BackendRemote }, "store.remote"},
		{"bad policy", func(c *Config) { c.Store.DeletePolicy = "cascade" }, "delete_policy"},
		{"zero generations", func(c *Config) { c.UI.DefaultGenerations = 0 }, "default_generations"},
		{"max below default", func(c *Config) { c.UI.DefaultGenerations = 5; c.UI.MaxGenerations = 2 }, "max_generations"},
		{"max above the store limit", func(c *Config) { c.UI.MaxGenerations = 65 }, "max_generations"},
		{"negative debounce", func(c *Config) { c.UI.SearchDebounce = -time.Second }, "search_debounce"},
		{"negative toast", func(c *Config) { c.UI.ToastDuration = -time.Second }, "toast_duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveBackend(t *testing.T) {
	tests := []struct {
		store StoreConfig
		want  string
	}{
		{StoreConfig{}, BackendSQLite},
		{StoreConfig{DSN: "postgres://x"}, BackendPostgres},
		{StoreConfig{Remote: "http://x", DSN: "postgres://x"}, BackendRemote},
		{StoreConfig{Backend: "SQLite", DSN: "postgres://x"}, BackendSQLite},
	}
	for _, tt := range tests {
		if got := tt.store.EffectiveBackend(); got != tt.want {
			t.Errorf("EffectiveBackend(%+v) = %q, want %q", tt.store, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := isolate(t)
	if got := expandHome("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("rel/~"); got != "rel/~" {
		t.Errorf("expandHome changed %q", got)
	}
}
