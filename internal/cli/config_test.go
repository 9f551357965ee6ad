package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/server"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv isolates a test from the user's config and overrides.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envStore, "")
	t.Setenv(envStoreDSN, "")
	t.Setenv(envLibrary, "")
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", `
[store]
backend = "sqlite"
dir = "/srv/fluidcad"

[library]
file = "lab.toml"
set = "Lab"

[server]
addr = ":9000"
metrics = true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Dir != "/srv/fluidcad" {
		t.Errorf("Store = %+v, want sqlite in /srv/fluidcad", cfg.Store)
	}
	if cfg.Library.File != "lab.toml" || cfg.Library.Set != "Lab" {
		t.Errorf("Library = %+v", cfg.Library)
	}
	if cfg.Server.Addr != ":9000" || !cfg.Server.Metrics {
		t.Errorf("Server = %+v, want :9000 with metrics", cfg.Server)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != server.DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, server.DefaultAddr)
	}
	if cfg.Store.Backend != "" || cfg.Library.File != "" {
		t.Errorf("config = %+v, want zero store and library", cfg)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, configFile, "[store]\nbackend = \"memory\"\n")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "[store]\nbackend = \"file\"\n")
	t.Setenv(envStore, "redis")
	t.Setenv(envStoreDSN, "redis://cache:6379/2")
	t.Setenv(envLibrary, "/etc/fluidcad/lab.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("Store.Backend = %q, want redis", cfg.Store.Backend)
	}
	if cfg.Store.DSN != "redis://cache:6379/2" {
		t.Errorf("Store.DSN = %q", cfg.Store.DSN)
	}
	if cfg.Library.File != "/etc/fluidcad/lab.toml" {
		t.Errorf("Library.File = %q", cfg.Library.File)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"missing explicit file", filepath.Join(dir, "nope.toml"), "nope.toml"},
		{"malformed", writeFile(t, dir, "bad.toml", "[store\n"), "bad.toml"},
		{"unknown key", writeFile(t, dir, "extra.toml", "[store]\nbucket = \"x\"\n"), "store.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Fatalf("LoadConfig() error = %v, want INVALID_FORMAT", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestConfigCatalog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lab.toml", `name = "Lab"

[templates.Pillar]
tool = "PositionTool"
tool_params = { position = "position" }
unique = { position = "Point" }
heritable = { radius = "Float" }
defaults = { position = [0.0, 0.0], radius = 50.0 }
`)

	cat, err := (&Config{}).Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if got := cat.Names(); len(got) != 1 || got[0] != "Basic" {
		t.Errorf("default Names() = %v, want [Basic]", got)
	}

	cat, err = (&Config{Library: LibraryConfig{File: path}}).Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if _, err := cat.Template("Lab", "Pillar"); err != nil {
		t.Errorf("Template(Lab, Pillar): %v", err)
	}

	_, err = (&Config{Library: LibraryConfig{File: filepath.Join(t.TempDir(), "missing.toml")}}).Catalog()
	if err == nil {
		t.Error("Catalog() with missing library file succeeded")
	}
}
