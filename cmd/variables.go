package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the numeric variables available for fitting",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		vars := ds.Variables(cfg.MaxVariables)
		if len(vars) == 0 {
			fmt.Fprintln(out, "(no numeric variables)")
			return nil
		}
		fmt.Fprintf(out, "%s (%d rows)\n", ds.Name, ds.Len())
		for _, v := range vars {
			c, _ := ds.Column(v)
			marker := ""
			switch v {
			case cfg.DefaultX:
				marker = " (default x)"
			case cfg.DefaultY:
				marker = " (default y)"
			}
			unit := ""
			if c.Unit != "" {
				unit = " [" + c.Unit + "]"
			}
			fmt.Fprintf(out, "- %s%s: %d values, %d missing%s\n", v, unit, c.NonNull, c.Missing, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(variablesCmd)
}
