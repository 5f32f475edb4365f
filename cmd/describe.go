package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/regresslab/internal/analysis"
	"github.com/KaramelBytes/regresslab/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descOutputPath string
	descDelimiter  string
	descDecimal    string
	descThousands  string
	descSheetIndex int
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Summarise the dataset: schema, missing values and correlations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.DatasetPath
		if len(args) == 1 {
			path = args[0]
		}
		opt := datasetOptions()
		switch descDelimiter {
		case "":
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", descDelimiter)
		}
		// Locale separators
		switch strings.ToLower(strings.TrimSpace(descDecimal)) {
		case ",", "comma":
			opt.DecimalSeparator = ','
		case ".", "dot":
			opt.DecimalSeparator = '.'
		case "":
		default:
			return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", descDecimal)
		}
		switch strings.ToLower(strings.TrimSpace(descThousands)) {
		case ",":
			opt.ThousandsSeparator = ','
		case ".":
			opt.ThousandsSeparator = '.'
		case "space", " ":
			opt.ThousandsSeparator = ' '
		case "":
		default:
			return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", descThousands)
		}
		if cmd.Flags().Changed("sheet-index") {
			opt.SheetIndex = descSheetIndex
		}

		ds, err := analysis.Load(path, opt)
		if err != nil {
			return err
		}
		md := ds.Describe(cfg.MaxVariables).Markdown()
		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	describeCmd.Flags().StringVar(&descDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	describeCmd.Flags().StringVar(&descThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	describeCmd.Flags().IntVar(&descSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet not provided)")
}
