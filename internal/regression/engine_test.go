package regression

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/regresslab/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCSV(t *testing.T, content string) *analysis.Dataset {
	t.Helper()
	ds, err := analysis.ReadCSV("test.csv", strings.NewReader(content), ',', analysis.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func TestFitPerfectLine(t *testing.T) {
	ds := loadCSV(t, "Height,Weight\n60,120\n62,125\n64,130\n")
	e := NewEngine(ds, 1)

	fit, err := e.Fit("Height", "Weight")
	require.NoError(t, err)
	assert.Equal(t, 3, fit.N)
	assert.InDelta(t, 2.5, fit.RawSlope, 1e-9)
	assert.InDelta(t, -30, fit.RawIntercept, 1e-9)
	assert.Equal(t, 2.5, fit.Slope)
	assert.Equal(t, -30.0, fit.Intercept)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-12)
	assert.InDelta(t, 1.0, fit.Correlation, 1e-12)
	assert.InDelta(t, 1.0, fit.Pearson, 1e-12)
	assert.Equal(t, "Weight = 2.5 × Height - 30.0", fit.Equation())
	assert.Equal(t, "Graph of Weight versus Height with regression line Weight = 2.5 × Height - 30.0", fit.ScatterText())
	assert.Equal(t, "Graph of residuals versus fitted values for Weight versus Height", fit.ResidualText())
}

func TestFitWithMissingRows(t *testing.T) {
	ds := loadCSV(t, "A,B,C\n1,2.1,x\n2,,y\nNA,7,z\n3,5.9,w\n4,8.2,v\n5,9.8,u\n")
	e := NewEngine(ds, 1)

	sub, err := e.FilterComplete("A", "B")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4, 5}, sub.Rows)
	for i := range sub.Rows {
		assert.False(t, math.IsNaN(sub.XS[i]))
		assert.False(t, math.IsNaN(sub.YS[i]))
	}

	fit, err := e.Fit("A", "B")
	require.NoError(t, err)
	require.Len(t, fit.Fitted, sub.Len())
	require.Len(t, fit.Residuals, sub.Len())
	for i, xv := range sub.XS {
		assert.Equal(t, float64(fit.RawSlope*xv)+fit.RawIntercept, fit.Fitted[i])
		assert.Equal(t, sub.YS[i]-fit.Fitted[i], fit.Residuals[i])
	}
	assert.InDelta(t, fit.RSquared, fit.Correlation*fit.Correlation, 1e-12)
	assert.GreaterOrEqual(t, fit.Correlation, 0.0)
	assert.Equal(t, Round(fit.RawSlope, 2), fit.Slope)
	assert.Equal(t, Round(fit.RawIntercept, 2), fit.Intercept)
}

func TestFitNegativeSlopeKeepsCorrelationNonNegative(t *testing.T) {
	ds := loadCSV(t, "X,Y\n1,10\n2,8.5\n3,6.2\n4,4.1\n5,1.9\n")
	fit, err := NewEngine(ds, 1).Fit("X", "Y")
	require.NoError(t, err)
	assert.Less(t, fit.Slope, 0.0)
	assert.Greater(t, fit.Correlation, 0.0)
	assert.Less(t, fit.Pearson, 0.0)
	assert.InDelta(t, fit.Correlation, -fit.Pearson, 1e-9)
	assert.Equal(t, fit.Pearson, fit.DisplayCorrelation(true))
	assert.Equal(t, fit.Correlation, fit.DisplayCorrelation(false))
	assert.True(t, strings.HasPrefix(fit.Equation(), "Y = -"))
}

func TestFitValidation(t *testing.T) {
	ds := loadCSV(t, "A,B,Name\n1,2,a\n2,4,b\n3,7,c\n")
	e := NewEngine(ds, 1)

	_, err := e.Fit("A", "A")
	assert.ErrorIs(t, err, ErrSameVariable)
	assert.True(t, IsValidation(err))

	_, err = e.Fit("A", "Nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	sub, err := e.FilterComplete("Name", "B")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, 0, sub.Len())
}

func TestFitRejectsTwoSpellingsOfOneColumn(t *testing.T) {
	ds := loadCSV(t, "Height,Weight\n60,120\n62,125\n64,130\n")
	e := NewEngine(ds, 1)

	for _, pair := range [][2]string{{"Height", "height"}, {"HEIGHT", " height "}} {
		fit, err := e.Fit(pair[0], pair[1])
		assert.ErrorIs(t, err, ErrSameVariable, "pair %q", pair)
		assert.Nil(t, fit)
	}
	_, _, err := e.Predict("weight", "Weight")
	assert.ErrorIs(t, err, ErrSameVariable)

	// A different spelling of distinct columns is reported under the dataset's names.
	fit, err := e.Fit("height", "WEIGHT")
	require.NoError(t, err)
	assert.Equal(t, "Weight = 2.5 × Height - 30.0", fit.Equation())
}

func TestFitInsufficientData(t *testing.T) {
	ds := loadCSV(t, "A,B,C\n1,,5\n2,3,5\n,4,5\n")
	e := NewEngine(ds, 1)

	_, err := e.Fit("A", "B")
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide), "got %v", err)
	assert.Equal(t, 1, ide.Rows)
	assert.False(t, IsValidation(err))

	_, err = e.Fit("C", "A")
	require.True(t, errors.As(err, &ide), "got %v", err)
	assert.Contains(t, err.Error(), "C has no variance")
}

func TestFitConstantY(t *testing.T) {
	ds := loadCSV(t, "Height,Weight\n60,120\n62,120\n64,120\n")
	fit, err := NewEngine(ds, 1).Fit("Height", "Weight")
	require.NoError(t, err)

	assert.True(t, fit.ConstantY)
	assert.Equal(t, 0.0, fit.Slope)
	assert.Equal(t, 120.0, fit.Intercept)
	for i, xv := range fit.Subset.XS {
		assert.Equal(t, float64(fit.RawSlope*xv)+fit.RawIntercept, fit.Fitted[i])
		assert.InDelta(t, 0, fit.Residuals[i], 1e-9)
	}
	assert.Equal(t, 0.0, fit.RSquared)
	assert.Equal(t, 0.0, fit.Correlation)
	assert.Equal(t, 0.0, fit.Pearson)
	assert.False(t, math.IsNaN(fit.DisplayCorrelation(true)))
}

func TestPredictSampleWithinRange(t *testing.T) {
	ds := loadCSV(t, "Height,Weight\n150.3,45\n160,52\n171.25,63\n,70\n180.77,71\n")
	e := NewEngine(ds, 7)
	for i := 0; i < 200; i++ {
		q, fit, err := e.Predict("Height", "Weight")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, q.Sample, 150.3)
		assert.LessOrEqual(t, q.Sample, 180.77)
		assert.Equal(t, Round(q.Sample, 1), q.Sample)
		assert.Equal(t, Round(fit.Slope*q.Sample+fit.Intercept, 2), q.Answer)
		assert.Equal(t, Correct, Grade(q.Answer, q.Answer))
	}
}

func TestPredictPrompt(t *testing.T) {
	q := &Question{X: "Height", Y: "Weight", Sample: 61, Answer: 122.5}
	assert.Equal(t, "Use the regression equation to predict the Weight of a student whose Height is 61.0", q.Prompt())
}

func TestSampleInClamps(t *testing.T) {
	assert.Equal(t, 60.1, sampleIn(60.04, 60.2, 0))
	assert.Equal(t, 60.1, sampleIn(60.0, 60.14, 0.999))
	assert.Equal(t, 60.04, sampleIn(60.04, 60.06, 0.5))
	assert.Equal(t, 5.0, sampleIn(5, 5, 0.3))
}

func TestGrade(t *testing.T) {
	assert.Equal(t, Correct, Grade(120.5, 120.5))
	assert.Equal(t, Incorrect, Grade(120.49, 120.5))
	assert.Equal(t, Incorrect, Grade(120.501, 120.5))
	assert.Equal(t, Correct, GradeWithin(120.49, 120.5, 0.011))
	assert.Equal(t, Incorrect, GradeWithin(120.4, 120.5, 0.05))
	assert.Equal(t, "Correct", Feedback(Correct, 3))
	assert.Equal(t, "Incorrect - the correct answer is 122.57", Feedback(Incorrect, 122.57))
}

func TestRoundAndFormat(t *testing.T) {
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, 2.67, Round(2.675, 2))
	assert.Equal(t, -30.0, Round(-30.000000000000004, 2))
	assert.Equal(t, 0.0, Round(-0.001, 2))
	assert.Equal(t, 61.3, Round(61.25000001, 1))

	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "30.0", FormatNumber(30))
	assert.Equal(t, "0.0", FormatNumber(0))
	assert.Equal(t, "-1.25", FormatNumber(-1.25))
	assert.Equal(t, "0.987", FormatStat(0.98654))
}
