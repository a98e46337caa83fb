package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OnPath reports whether dir is an entry of the PATH value pathEnv.
func OnPath(dir, pathEnv string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry == "" {
			continue
		}
		if filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}

// RCFilePath returns the path to the shell's RC file
func RCFilePath(shell ShellType) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	switch shell {
	case ShellBash:
		return filepath.Join(homeDir, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(homeDir, ".zshrc"), nil
	case ShellFish:
		return filepath.Join(homeDir, ".config", "fish", "config.fish"), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// PathLine returns the rc file line that adds dir to PATH. Paths under the
// home directory are written relative to $HOME.
func PathLine(shell ShellType, dir string) (string, error) {
	dir = homeRelative(dir)

	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf(`export PATH="%s:$PATH"`, dir), nil
	case ShellFish:
		return fmt.Sprintf("fish_add_path %s", dir), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// Hint builds PATH advice for dir. For an unknown shell only Line is set,
// in POSIX form.
func Hint(shell ShellType, dir string) *PathHint {
	if !shell.IsValid() {
		line, _ := PathLine(ShellBash, dir)
		return &PathHint{Shell: shell, Line: line}
	}

	line, _ := PathLine(shell, dir)
	rc, err := RCFilePath(shell)
	if err != nil {
		rc = ""
	}
	return &PathHint{Shell: shell, RCFile: rc, Line: line}
}

func homeRelative(dir string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return dir
	}
	rel, err := filepath.Rel(home, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return dir
	}
	return "$HOME/" + filepath.ToSlash(rel)
}
