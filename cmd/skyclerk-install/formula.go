package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudmanic/skyclerk-install/internal/formula"
)

func newFormulaCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Print the active formula as Lua or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.platformInfo(cmd.Context())
			if err != nil {
				return err
			}
			f, err := a.loadFormula(cmd.Context(), info)
			if err != nil {
				return err
			}

			switch format {
			case "lua":
				src, err := formula.NewGenerator().Generate(f)
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, src)
			case "yaml", "yml":
				data, err := formula.MarshalYAML(f)
				if err != nil {
					return err
				}
				a.stdout.Write(data)
			default:
				return fmt.Errorf("unknown format %q (want lua or yaml)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "lua", "output format: lua or yaml")
	return cmd
}
