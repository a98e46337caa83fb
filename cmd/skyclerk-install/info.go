package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudmanic/skyclerk-install/internal/formula"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show platform detection, formula and install state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTarget(cmd.Context())
			if err != nil {
				return err
			}

			w := a.stdout
			fmt.Fprintf(w, "OS:           %s\n", t.info.OS)
			fmt.Fprintf(w, "Architecture: %s (%s)\n", t.info.Arch, t.info.ArchRaw)
			if t.info.IsLinux() && t.info.Platform != "" {
				fmt.Fprintf(w, "Distro:       %s %s (%s)\n", t.info.Platform, t.info.Version, t.info.Distro)
			}
			fmt.Fprintf(w, "Platform key: %s\n", t.key)

			supported := "yes"
			if _, err := t.formula.Artifacts.ResolveURL(t.key); formula.IsUnsupportedPlatform(err) {
				supported = "no"
			}
			fmt.Fprintf(w, "Supported:    %s\n", supported)

			keys := make([]string, 0, len(t.formula.Artifacts))
			for _, k := range t.formula.Artifacts.Keys() {
				keys = append(keys, k.String())
			}
			fmt.Fprintf(w, "Formula:      %s %s (%s)\n", t.formula.Name, t.formula.Version, t.formula.License)
			fmt.Fprintf(w, "Platforms:    %s\n", strings.Join(keys, ", "))

			installed, err := t.manager.IsInstalled()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Binary:       %s\n", t.manager.BinaryPath())
			fmt.Fprintf(w, "Installed:    %t\n", installed)

			if a.settings.ConfigFile != "" {
				fmt.Fprintf(w, "Config file:  %s\n", a.settings.ConfigFile)
			}
			return nil
		},
	}
}
