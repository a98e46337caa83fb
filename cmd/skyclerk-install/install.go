package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudmanic/skyclerk-install/internal/shell"
	"github.com/spf13/cobra"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download and install skyclerk into the bin directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTarget(cmd.Context())
			if err != nil {
				return err
			}

			result, err := t.manager.Install(cmd.Context(), t.key)
			if err != nil {
				return err
			}

			action := "Installed"
			if result.Replaced {
				action = "Replaced"
			}
			fmt.Fprintf(a.stdout, "%s %s (%s) at %s\n", action, t.formula.Name, result.Spec.LocalBinaryName, result.Path)
			fmt.Fprintf(a.stdout, "Verification: %s\n", result.Verified)

			switch {
			case result.SmokeErr != nil:
				fmt.Fprintf(a.stderr, "Warning: could not run %s: %v\n", result.Path, result.SmokeErr)
			case result.Smoke.ExitCode != 0:
				fmt.Fprintf(a.stderr, "Warning: smoke test failed, %s exited with status %d:\n%s\n", result.Path, result.Smoke.ExitCode, result.Smoke.Output)
			case !result.Smoke.Passed:
				fmt.Fprintf(a.stderr, "Warning: smoke test failed, expected %q in output:\n%s\n", t.formula.Test.Expect, result.Smoke.Output)
			case result.Smoke.Version != nil:
				fmt.Fprintf(a.stdout, "Version: %s\n", result.Smoke.Version)
			}

			binDir := filepath.Dir(result.Path)
			if !shell.OnPath(binDir, os.Getenv("PATH")) {
				a.printPathHint(cmd, binDir)
			}
			return nil
		},
	}
}

func (a *app) printPathHint(cmd *cobra.Command, binDir string) {
	detected := shell.DetectShell(cmd.Context())
	a.logger.Debug("shell detected", "shell", detected.Shell.String(), "method", detected.Method)

	hint := shell.Hint(detected.Shell, binDir)
	if hint.RCFile == "" {
		fmt.Fprintf(a.stderr, "Note: %s is not on your PATH. Add it with:\n  %s\n", binDir, hint.Line)
		return
	}
	fmt.Fprintf(a.stderr, "Note: %s is not on your PATH. Add this line to %s:\n  %s\n", binDir, hint.RCFile, hint.Line)
}
