package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the post-install smoke test against the installed binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTarget(cmd.Context())
			if err != nil {
				return err
			}

			res, err := t.manager.Verify(cmd.Context())
			if err != nil {
				return fmt.Errorf("smoke test: %w", err)
			}

			out := strings.TrimSpace(res.Output)
			if res.ExitCode != 0 {
				return fmt.Errorf("smoke test failed: exit status %d, output %q", res.ExitCode, out)
			}
			if !res.Passed {
				return fmt.Errorf("smoke test failed: expected %q in output %q", t.formula.Test.Expect, out)
			}

			fmt.Fprintf(a.stdout, "ok: %s\n", out)
			return nil
		},
	}
}
