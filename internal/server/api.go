package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/regresslab/internal/quiz"
	"github.com/KaramelBytes/regresslab/internal/regression"
)

type pairRequest struct {
	X string `json:"x" validate:"required,max=128"`
	Y string `json:"y" validate:"required,max=128,nefield=X"`
}

type answerRequest struct {
	Answer *float64 `json:"answer" validate:"required"`
}

// FitResponse is the JSON form of a regression fit.
type FitResponse struct {
	X            string    `json:"x"`
	Y            string    `json:"y"`
	N            int       `json:"n"`
	Intercept    float64   `json:"intercept"`
	Slope        float64   `json:"slope"`
	RSquared     float64   `json:"r_squared"`
	Correlation  float64   `json:"correlation"`
	Pearson      float64   `json:"pearson"`
	ConstantY    bool      `json:"constant_y"`
	Equation     string    `json:"equation"`
	ScatterText  string    `json:"scatter_text"`
	ResidualText string    `json:"residual_text"`
	Fitted       []float64 `json:"fitted"`
	Residuals    []float64 `json:"residuals"`
	Rows         []int     `json:"rows"`
}

// NewFitResponse converts a fit for JSON output.
func NewFitResponse(f *regression.FitResult) FitResponse {
	return FitResponse{
		X:            f.X,
		Y:            f.Y,
		N:            f.N,
		Intercept:    f.Intercept,
		Slope:        f.Slope,
		RSquared:     f.RSquared,
		Correlation:  f.Correlation,
		Pearson:      f.Pearson,
		ConstantY:    f.ConstantY,
		Equation:     f.Equation(),
		ScatterText:  f.ScatterText(),
		ResidualText: f.ResidualText(),
		Fitted:       f.Fitted,
		Residuals:    f.Residuals,
		Rows:         f.Subset.Rows,
	}
}

// QuizResponse reports a session's quiz state. The answer key never leaves the server.
type QuizResponse struct {
	X        string  `json:"x"`
	Y        string  `json:"y"`
	State    string  `json:"state"`
	Prompt   string  `json:"prompt,omitempty"`
	Sample   float64 `json:"sample,omitempty"`
	Verdict  string  `json:"verdict,omitempty"`
	Correct  bool    `json:"correct"`
	Feedback string  `json:"feedback,omitempty"`
}

func newQuizResponse(sess quiz.Session) QuizResponse {
	resp := QuizResponse{
		X:        sess.X,
		Y:        sess.Y,
		State:    string(sess.State),
		Verdict:  string(sess.Verdict),
		Correct:  sess.Verdict == regression.Correct,
		Feedback: sess.Feedback,
	}
	if sess.Question != nil {
		resp.Prompt = sess.Question.Prompt()
		resp.Sample = sess.Question.Sample
	}
	return resp
}

func (s *Server) listVariables(w http.ResponseWriter, r *http.Request) {
	ds := s.engine.Dataset()
	x, y := s.defaultPair()
	respondJSON(w, http.StatusOK, map[string]any{
		"dataset":   ds.Name,
		"rows":      ds.Len(),
		"variables": ds.Variables(s.cfg.MaxVariables),
		"default_x": x,
		"default_y": y,
	})
}

func (s *Server) fit(w http.ResponseWriter, r *http.Request) {
	req := pairRequest{X: r.URL.Query().Get("x"), Y: r.URL.Query().Get("y")}
	if err := validateRequest(req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	f, err := s.fitPair(req.X, req.Y)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, NewFitResponse(f))
}

func (s *Server) startQuiz(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	sess, err := s.selectPair(SessionID(r.Context()), req.X, req.Y)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newQuizResponse(sess))
}

func (s *Server) answerQuiz(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	sess, err := s.answer(SessionID(r.Context()), *req.Answer)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newQuizResponse(sess))
}

// fitPair runs a fit and records its outcome.
func (s *Server) fitPair(x, y string) (*regression.FitResult, error) {
	var f *regression.FitResult
	err := s.checkPair(x, y)
	if err == nil {
		f, err = s.engine.Fit(x, y)
	}
	s.metrics.Fits.WithLabelValues(outcome(err)).Inc()
	return f, err
}

// selectPair moves the session to (x, y), counting new questions.
func (s *Server) selectPair(id, x, y string) (quiz.Session, error) {
	before := s.store.Get(id)
	if err := s.checkPair(x, y); err != nil {
		s.metrics.Fits.WithLabelValues(outcome(err)).Inc()
		return before, err
	}
	sess, err := s.store.Select(id, x, y)
	if err != nil || sess.Question != before.Question {
		s.metrics.Fits.WithLabelValues(outcome(err)).Inc()
	}
	if err == nil && sess.Question != before.Question {
		s.metrics.Questions.Inc()
	}
	s.metrics.Sessions.Set(float64(s.store.Len()))
	return sess, err
}

func (s *Server) answer(id string, submitted float64) (quiz.Session, error) {
	sess, err := s.store.Answer(id, submitted)
	if err == nil {
		s.metrics.Answers.WithLabelValues(string(sess.Verdict)).Inc()
	}
	return sess, err
}

func outcome(err error) string {
	var ide *regression.InsufficientDataError
	switch {
	case err == nil:
		return "ok"
	case regression.IsValidation(err):
		return "invalid"
	case errors.As(err, &ide):
		return "insufficient"
	}
	return "error"
}

// checkPair rejects names outside the selectable variables. Equal names
// are left for the engine to report.
func (s *Server) checkPair(x, y string) error {
	if x == y {
		return nil
	}
	for _, name := range []string{x, y} {
		if !s.selectable(name) {
			return fmt.Errorf("%w: %q", regression.ErrUnknownColumn, name)
		}
	}
	return nil
}

func (s *Server) selectable(name string) bool {
	for _, v := range s.engine.Dataset().Variables(s.cfg.MaxVariables) {
		if v == name {
			return true
		}
	}
	return false
}

// defaultPair picks the initial selection: the configured defaults when
// both are selectable and distinct, otherwise the first two variables.
func (s *Server) defaultPair() (string, string) {
	vars := s.engine.Dataset().Variables(s.cfg.MaxVariables)
	x, y := s.cfg.DefaultX, s.cfg.DefaultY
	if x != "" && y != "" && x != y && s.selectable(x) && s.selectable(y) {
		return x, y
	}
	switch len(vars) {
	case 0:
		return "", ""
	case 1:
		return vars[0], vars[0]
	}
	return vars[0], vars[1]
}
