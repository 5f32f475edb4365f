package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/KaramelBytes/regresslab/internal/plot"
	"github.com/KaramelBytes/regresslab/internal/quiz"
	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePage() (*template.Template, error) {
	t, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return t, nil
}

// QuestionExpired is shown when an answer arrives for a question the session
// no longer holds.
const QuestionExpired = "That question has expired. Try again with the new one below."

type pageView struct {
	Dataset     string
	Rows        int
	Variables   []string
	X, Y        string
	Error       string
	Fit         *fitView
	Prompt      string
	Feedback    string
	Correct     bool
	Answer      string
	AnswerError string
}

type fitView struct {
	N                int
	Equation         string
	ScatterText      string
	ResidualText     string
	CorrelationLabel string
	Correlation      string
	RSquared         string
	ScatterURL       string
	ResidualURL      string
}

func (s *Server) showPage(w http.ResponseWriter, r *http.Request) {
	id := SessionID(r.Context())
	q := r.URL.Query()
	x, y := q.Get("x"), q.Get("y")
	if x == "" || y == "" {
		if sess := s.store.Get(id); sess.X != "" && sess.Y != "" {
			x, y = sess.X, sess.Y
		} else {
			x, y = s.defaultPair()
		}
	}
	s.render(w, s.buildView(id, x, y))
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := SessionID(r.Context())
	x, y := r.PostForm.Get("x"), r.PostForm.Get("y")
	// Only grade against the question the visitor was shown.
	prev := s.store.Get(id)
	asked := prev.Question != nil && prev.HasPair(x, y)

	view := s.buildView(id, x, y)
	raw := strings.TrimSpace(r.PostForm.Get("answer"))
	if view.Error != "" || raw == "" {
		s.render(w, view)
		return
	}
	view.Answer = raw
	if !asked {
		view.AnswerError = QuestionExpired
		s.render(w, view)
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		view.AnswerError = "Please enter a number"
		s.render(w, view)
		return
	}
	sess, err := s.answer(id, v)
	if err != nil {
		_, _, view.AnswerError = classify(err)
	} else {
		view.Feedback = sess.Feedback
		view.Correct = sess.Verdict == regression.Correct
	}
	s.render(w, view)
}

// buildView selects the pair for the session and fills in everything the
// page shows for it.
func (s *Server) buildView(id, x, y string) *pageView {
	ds := s.engine.Dataset()
	view := &pageView{
		Dataset:   ds.Name,
		Rows:      ds.Len(),
		Variables: ds.Variables(s.cfg.MaxVariables),
		X:         x,
		Y:         y,
	}
	sess, err := s.selectPair(id, x, y)
	if err != nil {
		_, _, view.Error = classify(err)
		return view
	}
	s.fillFromSession(view, sess)
	return view
}

func (s *Server) fillFromSession(view *pageView, sess quiz.Session) {
	f := sess.Fit
	if f != nil {
		label := "Correlation"
		if s.cfg.SignedCorrelation {
			label = "Correlation (r)"
		}
		pair := url.Values{"x": {f.X}, "y": {f.Y}}.Encode()
		view.Fit = &fitView{
			N:                f.N,
			Equation:         f.Equation(),
			ScatterText:      f.ScatterText(),
			ResidualText:     f.ResidualText(),
			CorrelationLabel: label,
			Correlation:      regression.FormatStat(f.DisplayCorrelation(s.cfg.SignedCorrelation)),
			RSquared:         regression.FormatStat(f.RSquared),
			ScatterURL:       fmt.Sprintf("/plots/scatter.%s?%s", s.cfg.PlotFormat, pair),
			ResidualURL:      fmt.Sprintf("/plots/residuals.%s?%s", s.cfg.PlotFormat, pair),
		}
	}
	if sess.Question != nil {
		view.Prompt = sess.Question.Prompt()
	}
	view.Feedback = sess.Feedback
	view.Correct = sess.Verdict == regression.Correct
}

func (s *Server) render(w http.ResponseWriter, view *pageView) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, view); err != nil {
		s.logger.Error("Render page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) scatterPlot(w http.ResponseWriter, r *http.Request) {
	s.servePlot(w, r, plot.WriteScatter)
}

func (s *Server) residualPlot(w http.ResponseWriter, r *http.Request) {
	s.servePlot(w, r, plot.WriteResiduals)
}

func (s *Server) servePlot(w http.ResponseWriter, r *http.Request, write func(w io.Writer, fit *regression.FitResult, f plot.Format) error) {
	format, err := plot.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	fit, err := s.fitPair(q.Get("x"), q.Get("y"))
	if err != nil {
		status, _, msg := classify(err)
		http.Error(w, msg, status)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, fit, format); err != nil {
		s.logger.Error("Render plot", zap.Error(err), zap.String("x", fit.X), zap.String("y", fit.Y))
		http.Error(w, "could not render plot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
