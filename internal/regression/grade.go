package regression

import "math"

// Verdict is the outcome of grading a quiz answer.
type Verdict string

const (
	Correct   Verdict = "correct"
	Incorrect Verdict = "incorrect"
)

// Grade compares a submitted answer with the rounded key. Only an exact
// match is correct.
func Grade(submitted, key float64) Verdict {
	return GradeWithin(submitted, key, 0)
}

// GradeWithin accepts answers within tol of the key. A tol <= 0 is exact.
func GradeWithin(submitted, key, tol float64) Verdict {
	if submitted == key {
		return Correct
	}
	if tol > 0 && math.Abs(submitted-key) <= tol {
		return Correct
	}
	return Incorrect
}
