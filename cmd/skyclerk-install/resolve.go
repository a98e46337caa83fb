package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var urlOnly bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which release asset would be installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTarget(cmd.Context())
			if err != nil {
				return err
			}

			spec, err := t.manager.Resolve(t.key)
			if err != nil {
				return err
			}

			if urlOnly {
				fmt.Fprintln(a.stdout, spec.SourceURL)
				return nil
			}

			fmt.Fprintf(a.stdout, "platform:   %s\n", t.key)
			fmt.Fprintf(a.stdout, "url:        %s\n", spec.SourceURL)
			fmt.Fprintf(a.stdout, "asset:      %s\n", spec.LocalBinaryName)
			if spec.SHA256 != "" {
				fmt.Fprintf(a.stdout, "sha256:     %s\n", spec.SHA256)
			}
			fmt.Fprintf(a.stdout, "install to: %s\n", t.manager.BinaryPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&urlOnly, "url-only", false, "print only the download URL")
	return cmd
}
