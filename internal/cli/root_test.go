package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()

	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, want := range []string{"library", "inspect", "route", "convert", "netlist", "store", "serve", "completion"} {
		if !slices.Contains(got, want) {
			t.Errorf("subcommands = %v, missing %q", got, want)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root command has no --config flag")
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", appName); dir != want {
		t.Errorf("configDir() = %q, want %q", dir, want)
	}
}

func TestConfigDirXDG(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "config")
	t.Setenv("XDG_CONFIG_HOME", custom)

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("configDir() with XDG_CONFIG_HOME = %q, want %q", dir, want)
	}
}
