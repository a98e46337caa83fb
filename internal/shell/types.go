package shell

import "fmt"

// ShellType names a login shell we know how to write a PATH line for.
type ShellType string

const (
	ShellBash    ShellType = "bash"
	ShellZsh     ShellType = "zsh"
	ShellFish    ShellType = "fish"
	ShellUnknown ShellType = "unknown"
)

func (s ShellType) String() string { return string(s) }

// IsValid is true for bash, zsh and fish.
func (s ShellType) IsValid() bool {
	return s == ShellBash || s == ShellZsh || s == ShellFish
}

// DetectionResult records which shell was found and where the answer came
// from, for debug logging.
type DetectionResult struct {
	Shell     ShellType
	Method    string
	ShellPath string
}

// PathHint is what the install command prints when the bin dir is missing
// from PATH. RCFile is empty when the shell is unknown.
type PathHint struct {
	Shell  ShellType
	RCFile string
	Line   string
}

// UnsupportedShellError is returned for shells without an rc file mapping.
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	return fmt.Sprintf("no PATH line for shell %q (known: bash, zsh, fish)", e.Shell)
}
