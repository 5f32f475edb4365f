// Package regression fits simple linear models over pairs of dataset
// columns and builds the prediction quiz on top of them.
package regression

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/KaramelBytes/regresslab/internal/analysis"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Subset holds the rows of a dataset where both selected columns are present.
type Subset struct {
	X, Y string
	// Rows are dataset row indices, aligned with XS and YS.
	Rows []int
	XS   []float64
	YS   []float64
}

// Len returns the number of complete rows.
func (s Subset) Len() int { return len(s.Rows) }

// FitResult is an ordinary-least-squares fit of Y on X.
type FitResult struct {
	X, Y string
	N    int
	// Intercept and Slope are rounded to 2 decimals for display and quizzes.
	Intercept float64
	Slope     float64
	// RawIntercept and RawSlope are the unrounded coefficients; Fitted and
	// Residuals are computed from them.
	RawIntercept float64
	RawSlope     float64
	Fitted       []float64
	Residuals    []float64
	RSquared     float64
	// Correlation is sqrt(RSquared) and therefore never negative.
	Correlation float64
	// Pearson is the signed correlation coefficient.
	Pearson float64
	// ConstantY is set when every Y value is the same. RSquared, Correlation
	// and Pearson are then undefined and held at 0.
	ConstantY bool
	Subset    Subset
}

// Question is one prediction exercise. Answer is the grading key.
type Question struct {
	X, Y   string
	Sample float64
	Answer float64
}

// Engine runs fits against a read-only dataset.
type Engine struct {
	ds *analysis.Dataset

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine wraps ds. A zero seed seeds from the clock.
func NewEngine(ds *analysis.Dataset, seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{ds: ds, rng: rand.New(rand.NewSource(seed))}
}

// Dataset returns the underlying dataset.
func (e *Engine) Dataset() *analysis.Dataset { return e.ds }

// FilterComplete returns the rows where neither x nor y is missing.
// Unknown or non-numeric columns yield an empty subset and ErrUnknownColumn.
// Names are matched as the dataset matches them, so two spellings of one
// column yield ErrSameVariable. The subset carries the dataset's spelling.
func (e *Engine) FilterComplete(x, y string) (Subset, error) {
	sub := Subset{X: x, Y: y}
	cx, err := e.numeric(x)
	if err != nil {
		return sub, err
	}
	cy, err := e.numeric(y)
	if err != nil {
		return sub, err
	}
	if cx == cy {
		return sub, ErrSameVariable
	}
	sub.X, sub.Y = cx.Name, cy.Name
	xs, ys := cx.Values, cy.Values
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		sub.Rows = append(sub.Rows, i)
		sub.XS = append(sub.XS, xs[i])
		sub.YS = append(sub.YS, ys[i])
	}
	return sub, nil
}

func (e *Engine) numeric(name string) (*analysis.Column, error) {
	c, ok := e.ds.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if c.Kind != analysis.KindNumeric {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrUnknownColumn, name)
	}
	return c, nil
}

// Fit regresses y on x over the complete rows of the pair.
func (e *Engine) Fit(x, y string) (*FitResult, error) {
	if x == y {
		return nil, ErrSameVariable
	}
	sub, err := e.FilterComplete(x, y)
	if err != nil {
		return nil, err
	}
	return FitSubset(sub)
}

// FitSubset fits y = slope*x + intercept over sub.
func FitSubset(sub Subset) (*FitResult, error) {
	n := sub.Len()
	if n < 2 {
		return nil, &InsufficientDataError{X: sub.X, Y: sub.Y, Rows: n, Reason: "need at least 2 complete rows"}
	}
	if floats.Min(sub.XS) == floats.Max(sub.XS) {
		return nil, &InsufficientDataError{X: sub.X, Y: sub.Y, Rows: n, Reason: fmt.Sprintf("%s has no variance", sub.X)}
	}

	alpha, beta := stat.LinearRegression(sub.XS, sub.YS, nil, false)
	// A flat Y fits exactly but leaves R² and r as 0/0; they are reported as 0.
	flat := floats.Min(sub.YS) == floats.Max(sub.YS)
	var r2, pearson float64
	if !flat {
		r2 = stat.RSquared(sub.XS, sub.YS, nil, alpha, beta)
		r2 = math.Max(0, math.Min(1, r2))
		pearson = stat.Correlation(sub.XS, sub.YS, nil)
	}

	fit := &FitResult{
		X:            sub.X,
		Y:            sub.Y,
		N:            n,
		Intercept:    Round(alpha, 2),
		Slope:        Round(beta, 2),
		RawIntercept: alpha,
		RawSlope:     beta,
		Fitted:       make([]float64, n),
		Residuals:    make([]float64, n),
		RSquared:     r2,
		Correlation:  math.Sqrt(r2),
		Pearson:      pearson,
		ConstantY:    flat,
		Subset:       sub,
	}
	for i, xv := range sub.XS {
		fit.Fitted[i] = float64(beta*xv) + alpha
		fit.Residuals[i] = sub.YS[i] - fit.Fitted[i]
	}
	return fit, nil
}

// Predict draws a quiz question for the pair: a value of x within the
// observed range, rounded to 1 decimal, and the model's prediction for it
// from the rounded coefficients, rounded to 2 decimals.
func (e *Engine) Predict(x, y string) (*Question, *FitResult, error) {
	fit, err := e.Fit(x, y)
	if err != nil {
		return nil, nil, err
	}
	lo, hi := floats.Min(fit.Subset.XS), floats.Max(fit.Subset.XS)
	e.mu.Lock()
	u := e.rng.Float64()
	e.mu.Unlock()
	sample := sampleIn(lo, hi, u)
	return &Question{
		X:      fit.X,
		Y:      fit.Y,
		Sample: sample,
		Answer: Round(fit.Slope*sample+fit.Intercept, 2),
	}, fit, nil
}

// sampleIn maps u in [0,1) onto [lo,hi] at one decimal, pulling the value
// back inside the range when rounding pushes it out.
func sampleIn(lo, hi, u float64) float64 {
	s := Round(lo+u*(hi-lo), 1)
	if s < lo {
		s = Round(math.Ceil(lo*10)/10, 1)
	}
	if s > hi {
		s = Round(math.Floor(hi*10)/10, 1)
	}
	if s < lo || s > hi {
		// no one-decimal value inside [lo, hi]
		s = lo
	}
	return s
}
