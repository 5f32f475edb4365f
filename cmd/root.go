package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/KaramelBytes/regresslab/internal/analysis"
	cfgpkg "github.com/KaramelBytes/regresslab/internal/config"
	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Dataset flags (override config if set)
	flagDataset      string
	flagSheet        string
	flagMaxVariables int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "regresslab",
	Short: "RegressLab: explore simple linear regression on a student dataset",
	Long: `RegressLab fits a least-squares line between two numeric variables of a
dataset, shows the scatter and residual plots, and quizzes you on predictions
made with the fitted equation. Run "regresslab serve" for the web page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.regresslab/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "CSV/TSV/XLSX dataset (overrides config; default is the built-in student data)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to load (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagMaxVariables, "max-variables", 0, "number of numeric columns offered as variables (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{MaxRows: 100000, MaxVariables: 7, DefaultX: "Height", DefaultY: "Weight", SignedCorrelation: true}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("dataset") {
		cfg.DatasetPath = flagDataset
	}
	if f.Changed("sheet") {
		cfg.DatasetSheet = flagSheet
	}
	if f.Changed("max-variables") && flagMaxVariables > 0 {
		cfg.MaxVariables = flagMaxVariables
	}
}

// datasetOptions builds loader options from the effective configuration.
func datasetOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg.MaxRows > 0 {
		opt.MaxRows = cfg.MaxRows
	}
	opt.SheetName = cfg.DatasetSheet
	return opt
}

// loadDataset opens the configured dataset and reports loader warnings.
func loadDataset() (*analysis.Dataset, error) {
	ds, err := analysis.Load(cfg.DatasetPath, datasetOptions())
	if err != nil {
		return nil, err
	}
	for _, w := range ds.Warnings {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
	}
	if debug {
		fmt.Fprintf(os.Stderr, "[debug] loaded %s: %d rows, %d columns\n", ds.Name, ds.Len(), len(ds.Columns()))
	}
	return ds, nil
}

func newEngine() (*regression.Engine, error) {
	ds, err := loadDataset()
	if err != nil {
		return nil, err
	}
	return regression.NewEngine(ds, cfg.QuizSeed), nil
}

// pairError shows a same-variable selection with the message the page uses.
func pairError(err error) error {
	if errors.Is(err, regression.ErrSameVariable) {
		return errors.New(regression.ValidationMessage)
	}
	return err
}
