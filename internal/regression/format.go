package regression

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationMessage is shown when both selections name the same variable.
const ValidationMessage = "Dependent variable must be different to independent variable"

// Round rounds the exact binary value of v to places decimals. 2.675 is
// stored just below itself and gives 2.67; exact ties such as 0.125 go to even.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}

// FormatNumber prints v in its shortest form with at least one decimal
// ("2.5", "30.0").
func FormatNumber(v float64) string {
	if v == 0 {
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// FormatStat prints a summary statistic with three decimals.
func FormatStat(v float64) string { return fmt.Sprintf("%.3f", v) }

// Equation renders the fitted line as "y = slope × x ± |intercept|".
func (f *FitResult) Equation() string {
	if f.Intercept < 0 {
		return fmt.Sprintf("%s = %s × %s - %s", f.Y, FormatNumber(f.Slope), f.X, FormatNumber(math.Abs(f.Intercept)))
	}
	return fmt.Sprintf("%s = %s × %s + %s", f.Y, FormatNumber(f.Slope), f.X, FormatNumber(f.Intercept))
}

// ScatterText describes the scatter plot for screen readers.
func (f *FitResult) ScatterText() string {
	return fmt.Sprintf("Graph of %s versus %s with regression line %s", f.Y, f.X, f.Equation())
}

// ResidualText describes the residual plot for screen readers.
func (f *FitResult) ResidualText() string {
	return fmt.Sprintf("Graph of residuals versus fitted values for %s versus %s", f.Y, f.X)
}

// DisplayCorrelation picks the coefficient shown to users.
func (f *FitResult) DisplayCorrelation(signed bool) float64 {
	if signed {
		return f.Pearson
	}
	return f.Correlation
}

// Prompt is the quiz instruction for q.
func (q *Question) Prompt() string {
	return fmt.Sprintf("Use the regression equation to predict the %s of a student whose %s is %s", q.Y, q.X, FormatNumber(q.Sample))
}

// Feedback is the message shown after grading against key.
func Feedback(v Verdict, key float64) string {
	if v == Correct {
		return "Correct"
	}
	return fmt.Sprintf("Incorrect - the correct answer is %s", FormatNumber(key))
}
