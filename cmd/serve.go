package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/regresslab/internal/plot"
	"github.com/KaramelBytes/regresslab/internal/quiz"
	"github.com/KaramelBytes/regresslab/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	serveAddr       string
	servePlotFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive regression page and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = serveAddr
		}
		if cmd.Flags().Changed("plot-format") {
			cfg.PlotFormat = servePlotFormat
		}
		format, err := plot.ParseFormat(cfg.PlotFormat)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel, debug)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		engine, err := newEngine()
		if err != nil {
			return err
		}
		ds := engine.Dataset()
		logger.Info("Loaded dataset",
			zap.String("name", ds.Name),
			zap.Int("rows", ds.Len()),
			zap.Strings("variables", ds.Variables(cfg.MaxVariables)),
		)

		srv, err := server.New(server.Config{
			Addr:              cfg.ListenAddr,
			AllowedOrigins:    cfg.AllowedOrigins,
			MaxVariables:      cfg.MaxVariables,
			DefaultX:          cfg.DefaultX,
			DefaultY:          cfg.DefaultY,
			SignedCorrelation: cfg.SignedCorrelation,
			PlotFormat:        format,
			SessionTTL:        cfg.SessionTTL(),
		}, engine, quiz.NewStore(engine, cfg.GradeTolerance), logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on %s\n", ds.Name, cfg.ListenAddr)
		if err := srv.Run(ctx); err != nil {
			return err
		}
		logger.Info("Server stopped")
		return nil
	},
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level: %w", err)
		}
		lvl = parsed
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&servePlotFormat, "plot-format", "svg", "plot image format: svg|png (overrides config)")
}
