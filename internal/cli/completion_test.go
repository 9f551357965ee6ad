package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCompletions(t *testing.T) {
	config, dir := testEnv(t)
	path := filepath.Join(dir, "chip.json")
	routeChip(t, config, path)
	if _, err := execute(t, config, "store", "push", path); err != nil {
		t.Fatalf("store push: %v", err)
	}
	if _, err := execute(t, config, "store", "push", path, "--name", "mixer"); err != nil {
		t.Fatalf("store push --name: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"stored devices", []string{"store", "rm", ""}, []string{"chip\t", "mixer\t"}, nil},
		{"stored device prefix", []string{"store", "pull", "mi"}, []string{"mixer\t"}, []string{"chip\t"}},
		{"feature types", []string{"library", "show", "Va"}, []string{"Valve\t", "Valve_control\t"}, []string{"Channel"}},
		{"layers of document", []string{"route", path, "--layer", ""}, []string{"FLOW 0_FLOW", "CONTROL 0_CONTROL"}, nil},
		{"netlist formats", []string{"netlist", path, "--format", ""}, []string{"svg\t", "dot\t", "pdf\t", "png\t"}, nil},
		{"document files", []string{"inspect", ""}, []string{"json", "msgpack"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, config, append([]string{"__complete"}, tt.args...)...)
			if err != nil {
				t.Fatalf("__complete %v: %v", tt.args, err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("completions = %q, want %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("completions = %q, want no %q", out, w)
				}
			}
		})
	}
}

func TestCompletionScripts(t *testing.T) {
	clearEnv(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "", "completion", shell)
			if err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out, appName) {
				t.Errorf("completion %s script does not mention %s", shell, appName)
			}
		})
	}
}
