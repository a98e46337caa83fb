package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudmanic/skyclerk-install/internal/testutil"
)

func TestDetectShell(t *testing.T) {
	tests := []struct {
		name       string
		shellEnv   string
		wantShell  ShellType
		wantMethod string
	}{
		{
			name:       "Bash from SHELL",
			shellEnv:   "/bin/bash",
			wantShell:  ShellBash,
			wantMethod: "$SHELL environment variable",
		},
		{
			name:       "Zsh from SHELL",
			shellEnv:   "/usr/bin/zsh",
			wantShell:  ShellZsh,
			wantMethod: "$SHELL environment variable",
		},
		{
			name:       "Fish from SHELL",
			shellEnv:   "/usr/local/bin/fish",
			wantShell:  ShellFish,
			wantMethod: "$SHELL environment variable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELL", tt.shellEnv)

			result := DetectShell(context.Background())
			if result.Shell != tt.wantShell {
				t.Errorf("Shell = %v, want %v", result.Shell, tt.wantShell)
			}
			if result.Method != tt.wantMethod {
				t.Errorf("Method = %v, want %v", result.Method, tt.wantMethod)
			}
			if result.ShellPath != tt.shellEnv {
				t.Errorf("ShellPath = %v, want %v", result.ShellPath, tt.shellEnv)
			}
		})
	}
}

func TestDetectShellFallback(t *testing.T) {
	t.Setenv("SHELL", "/bin/ksh")

	// The parent is the test runner, so any answer is fine as long as it
	// is consistent.
	result := DetectShell(context.Background())
	if result.Shell.IsValid() && result.Method != "parent process" {
		t.Errorf("valid shell %v reported with method %q", result.Shell, result.Method)
	}
	if !result.Shell.IsValid() && result.Method != "detection failed" {
		t.Errorf("unknown shell reported with method %q", result.Method)
	}
}

func TestParseShellFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ShellType
	}{
		{"/bin/bash", ShellBash},
		{"/usr/local/bin/zsh", ShellZsh},
		{"/opt/homebrew/bin/fish", ShellFish},
		{"-zsh", ShellZsh},
		{"BASH", ShellBash},
		{"/bin/ksh", ShellUnknown},
		{"", ShellUnknown},
	}

	for _, tt := range tests {
		if got := parseShellFromPath(tt.path); got != tt.want {
			t.Errorf("parseShellFromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestOnPath(t *testing.T) {
	sep := string(os.PathListSeparator)
	pathEnv := strings.Join([]string{"/usr/bin", "", "/home/user/.local/bin/", "/bin"}, sep)

	tests := []struct {
		dir  string
		want bool
	}{
		{"/usr/bin", true},
		{"/home/user/.local/bin", true},
		{"/home/user/.local/bin/", true},
		{"/usr/local/bin", false},
		{"/home/user/.local", false},
	}

	for _, tt := range tests {
		if got := OnPath(tt.dir, pathEnv); got != tt.want {
			t.Errorf("OnPath(%q) = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestPathLine(t *testing.T) {
	root := testutil.SetupTestEnv(t)
	home := filepath.Join(root, "home")
	localBin := filepath.Join(home, ".local", "bin")

	tests := []struct {
		name    string
		shell   ShellType
		dir     string
		want    string
		wantErr bool
	}{
		{name: "bash_home", shell: ShellBash, dir: localBin, want: `export PATH="$HOME/.local/bin:$PATH"`},
		{name: "zsh_absolute", shell: ShellZsh, dir: "/opt/skyclerk/bin", want: `export PATH="/opt/skyclerk/bin:$PATH"`},
		{name: "fish", shell: ShellFish, dir: localBin, want: "fish_add_path $HOME/.local/bin"},
		{name: "unknown", shell: ShellUnknown, dir: localBin, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathLine(tt.shell, tt.dir)
			if tt.wantErr {
				var unsupported *UnsupportedShellError
				if !errors.As(err, &unsupported) {
					t.Errorf("expected UnsupportedShellError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PathLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHint(t *testing.T) {
	root := testutil.SetupTestEnv(t)
	home := filepath.Join(root, "home")

	tests := []struct {
		shell  ShellType
		wantRC string
	}{
		{ShellBash, filepath.Join(home, ".bashrc")},
		{ShellZsh, filepath.Join(home, ".zshrc")},
		{ShellFish, filepath.Join(home, ".config", "fish", "config.fish")},
		{ShellUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.shell.String(), func(t *testing.T) {
			hint := Hint(tt.shell, "/opt/bin")
			if hint.RCFile != tt.wantRC {
				t.Errorf("RCFile = %q, want %q", hint.RCFile, tt.wantRC)
			}
			if !strings.Contains(hint.Line, "/opt/bin") {
				t.Errorf("Line = %q does not mention the directory", hint.Line)
			}
		})
	}
}
