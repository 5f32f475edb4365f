package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/regresslab/internal/plot"
	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/KaramelBytes/regresslab/internal/server"
	"github.com/KaramelBytes/regresslab/internal/utils"
	"github.com/spf13/cobra"
)

var (
	fitJSON      bool
	fitOutput    string
	fitScatter   string
	fitResiduals string
)

var fitCmd = &cobra.Command{
	Use:   "fit <x> <y>",
	Short: "Fit y on x and print the regression summary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y := args[0], args[1]
		if x == y {
			return errors.New(regression.ValidationMessage)
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		fit, err := engine.Fit(x, y)
		if err != nil {
			return pairError(err)
		}

		var out []byte
		if fitJSON {
			b, err := utils.PrettyJSON(server.NewFitResponse(fit))
			if err != nil {
				return err
			}
			out = append(b, '\n')
		} else {
			out = []byte(fitSummary(fit, cfg.SignedCorrelation))
		}
		if fitOutput != "" {
			if err := utils.SafeWriteFile(fitOutput, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote fit to %s\n", fitOutput)
		} else {
			_, _ = cmd.OutOrStdout().Write(out)
		}

		if fitScatter != "" {
			if err := writePlot(fitScatter, fit, plot.WriteScatter); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote scatter plot to %s\n", fitScatter)
		}
		if fitResiduals != "" {
			if err := writePlot(fitResiduals, fit, plot.WriteResiduals); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote residual plot to %s\n", fitResiduals)
		}
		return nil
	},
}

func fitSummary(fit *regression.FitResult, signed bool) string {
	var b strings.Builder
	label := "Correlation"
	if signed {
		label = "Correlation (r)"
	}
	fmt.Fprintf(&b, "%s versus %s (%d complete rows)\n", fit.Y, fit.X, fit.N)
	fmt.Fprintf(&b, "Regression equation: %s\n", fit.Equation())
	fmt.Fprintf(&b, "%s: %s\n", label, regression.FormatStat(fit.DisplayCorrelation(signed)))
	fmt.Fprintf(&b, "R-squared: %s\n", regression.FormatStat(fit.RSquared))
	return b.String()
}

// writePlot picks the image format from the file extension.
func writePlot(path string, fit *regression.FitResult, write func(w io.Writer, fit *regression.FitResult, f plot.Format) error) error {
	format, err := plot.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := write(&buf, fit, format); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().BoolVar(&fitJSON, "json", false, "print the fit as JSON")
	fitCmd.Flags().StringVarP(&fitOutput, "output", "o", "", "optional path to write the summary")
	fitCmd.Flags().StringVar(&fitScatter, "scatter", "", "write the scatter plot to this .svg/.png file")
	fitCmd.Flags().StringVar(&fitResiduals, "residuals", "", "write the residual plot to this .svg/.png file")
}
