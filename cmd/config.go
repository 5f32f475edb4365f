package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/regresslab/internal/config"
	"github.com/KaramelBytes/regresslab/internal/plot"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set RegressLab configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		dataset := cfg.DatasetPath
		if dataset == "" {
			dataset = "(built-in)"
		}
		fmt.Fprintf(out, "dataset_path: %s\n", dataset)
		if cfg.DatasetSheet != "" {
			fmt.Fprintf(out, "dataset_sheet: %s\n", cfg.DatasetSheet)
		}
		fmt.Fprintf(out, "max_rows: %d\n", cfg.MaxRows)
		fmt.Fprintf(out, "max_variables: %d\n", cfg.MaxVariables)
		fmt.Fprintf(out, "default_x: %s\n", cfg.DefaultX)
		fmt.Fprintf(out, "default_y: %s\n", cfg.DefaultY)
		fmt.Fprintf(out, "grade_tolerance: %g\n", cfg.GradeTolerance)
		if cfg.QuizSeed != 0 {
			fmt.Fprintf(out, "quiz_seed: %d\n", cfg.QuizSeed)
		}
		fmt.Fprintf(out, "signed_correlation: %t\n", cfg.SignedCorrelation)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "session_ttl_min: %d\n", cfg.SessionTTLMin)
		fmt.Fprintf(out, "allowed_origins: %s\n", strings.Join(cfg.AllowedOrigins, ","))
		fmt.Fprintf(out, "plot_format: %s\n", cfg.PlotFormat)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := applySetting(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "dataset_path":
		c.DatasetPath = val
	case "dataset_sheet":
		c.DatasetSheet = val
	case "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for max_rows: %v", val)
		}
		c.MaxRows = i
	case "max_variables":
		i, err := strconv.Atoi(val)
		if err != nil || i < 2 {
			return fmt.Errorf("invalid int for max_variables: %v (need at least 2)", val)
		}
		c.MaxVariables = i
	case "default_x":
		c.DefaultX = val
	case "default_y":
		c.DefaultY = val
	case "grade_tolerance":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for grade_tolerance: %v", val)
		}
		c.GradeTolerance = f
	case "quiz_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for quiz_seed: %w", err)
		}
		c.QuizSeed = i
	case "signed_correlation":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for signed_correlation: %w", err)
		}
		c.SignedCorrelation = b
	case "listen_addr":
		c.ListenAddr = val
	case "session_ttl_min":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for session_ttl_min: %v", val)
		}
		c.SessionTTLMin = i
	case "allowed_origins":
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	case "plot_format":
		f, err := plot.ParseFormat(val)
		if err != nil {
			return err
		}
		c.PlotFormat = string(f)
	case "log_level":
		if _, err := zapcore.ParseLevel(val); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
