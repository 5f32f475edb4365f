// Package server exposes the regression lab over HTTP: an HTML page with
// plots and the prediction quiz, plus a JSON API under /api/v1.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/KaramelBytes/regresslab/internal/plot"
	"github.com/KaramelBytes/regresslab/internal/quiz"
	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Config tunes a Server.
type Config struct {
	Addr              string
	AllowedOrigins    []string
	MaxVariables      int
	DefaultX          string
	DefaultY          string
	SignedCorrelation bool
	PlotFormat        plot.Format
	SessionTTL        time.Duration
	SweepInterval     time.Duration
	ShutdownTimeout   time.Duration
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.PlotFormat == "" {
		c.PlotFormat = plot.SVG
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server wires the regression engine and quiz store to HTTP handlers.
type Server struct {
	cfg     Config
	engine  *regression.Engine
	store   *quiz.Store
	logger  *zap.Logger
	metrics *Metrics
	page    *template.Template
}

// New builds a Server. A nil logger disables logging.
func New(cfg Config, engine *regression.Engine, store *quiz.Store, logger *zap.Logger) (*Server, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		store:   store,
		logger:  logger,
		metrics: NewMetrics("regresslab"),
		page:    page,
	}, nil
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))
	router.Use(s.metrics.Instrument)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(s.cfg.AllowedOrigins),
		MaxAge:           300,
	}))

	router.Get("/health", s.health)
	router.Handle("/metrics", s.metrics.Handler())

	router.Group(func(r chi.Router) {
		r.Use(sessions(s.cfg.SessionTTL))

		r.Get("/", s.showPage)
		r.Post("/answer", s.submitAnswer)
		r.Get("/plots/scatter.{format}", s.scatterPlot)
		r.Get("/plots/residuals.{format}", s.residualPlot)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/variables", s.listVariables)
			r.Get("/fit", s.fit)
			r.Post("/quiz", s.startQuiz)
			r.Post("/quiz/answer", s.answerQuiz)
		})
	})
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully. Expired
// sessions are swept in the background while the server runs.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.store.RunSweeper(sweepCtx, s.cfg.SweepInterval, s.cfg.SessionTTL, func(removed int) {
		s.metrics.Sessions.Set(float64(s.store.Len()))
		if removed > 0 {
			s.logger.Debug("Swept expired sessions", zap.Int("removed", removed))
		}
	})

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.String("address", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ds := s.engine.Dataset()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"dataset":  ds.Name,
		"rows":     ds.Len(),
		"sessions": s.store.Len(),
	})
}

// allowsAnyOrigin reports whether the origin list contains the wildcard.
// go-chi/cors echoes the request origin in that case, so credentials stay off.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
