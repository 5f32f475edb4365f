// Package quiz keeps per-visitor prediction quiz state.
package quiz

import (
	"errors"
	"sync"
	"time"

	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/google/uuid"
)

// State is where a session sits in the quiz lifecycle.
type State string

const (
	Idle   State = "idle"
	Fitted State = "fitted"
	Graded State = "graded"
)

// ErrNoQuestion is returned when an answer arrives before any question was asked.
var ErrNoQuestion = errors.New("no question has been asked for this session")

// Predictor fits a pair and draws a question for it.
type Predictor interface {
	Predict(x, y string) (*regression.Question, *regression.FitResult, error)
}

// Session is a snapshot of one visitor's quiz.
type Session struct {
	ID       string
	X, Y     string
	State    State
	Question *regression.Question
	Fit      *regression.FitResult
	Verdict  regression.Verdict
	Feedback string
	LastSeen time.Time
}

// HasPair reports whether the session currently holds the given pair.
func (s Session) HasPair(x, y string) bool { return s.X == x && s.Y == y }

// Store holds sessions in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	predictor Predictor
	tolerance float64
	now       func() time.Time
}

// NewStore creates a store that draws questions from p and grades with
// the given tolerance (0 means exact).
func NewStore(p Predictor, tolerance float64) *Store {
	return &Store{
		sessions:  make(map[string]*Session),
		predictor: p,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// NewID returns a fresh session identifier.
func NewID() string { return uuid.NewString() }

// ValidID reports whether id looks like an identifier issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session for id, creating an idle one if needed.
func (s *Store) Get(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.touch(id)
}

// Select moves the session to the pair (x, y). A new question is drawn only
// when the pair differs from the current one or no question exists yet.
// Any error leaves the session idle with the pair recorded.
func (s *Store) Select(id, x, y string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.touch(id)
	if sess.Question != nil && sess.HasPair(x, y) {
		return *sess, nil
	}

	sess.X, sess.Y = x, y
	sess.Verdict, sess.Feedback = "", ""
	if x == y {
		sess.State, sess.Question, sess.Fit = Idle, nil, nil
		return *sess, regression.ErrSameVariable
	}
	q, fit, err := s.predictor.Predict(x, y)
	if err != nil {
		sess.State, sess.Question, sess.Fit = Idle, nil, nil
		return *sess, err
	}
	sess.State, sess.Question, sess.Fit = Fitted, q, fit
	return *sess, nil
}

// Answer grades submitted against the session's stored key. The question
// stays in place so the visitor can try again.
func (s *Store) Answer(id string, submitted float64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.touch(id)
	if sess.Question == nil {
		return *sess, ErrNoQuestion
	}
	key := sess.Question.Answer
	sess.Verdict = regression.GradeWithin(submitted, key, s.tolerance)
	sess.Feedback = regression.Feedback(sess.Verdict, key)
	sess.State = Graded
	return *sess, nil
}

// Sweep drops sessions not seen within ttl and returns how many were removed.
func (s *Store) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// touch must be called with mu held.
func (s *Store) touch(id string) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, State: Idle}
		s.sessions[id] = sess
	}
	sess.LastSeen = s.now()
	return sess
}
