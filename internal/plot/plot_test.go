package plot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KaramelBytes/regresslab/internal/analysis"
	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"
)

func fitFor(t *testing.T, csv, x, y string) *regression.FitResult {
	t.Helper()
	ds, err := analysis.ReadCSV("t.csv", strings.NewReader(csv), ',', analysis.DefaultOptions())
	require.NoError(t, err)
	fit, err := regression.NewEngine(ds, 1).Fit(x, y)
	require.NoError(t, err)
	return fit
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, SVG, f)
	f, err = ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "image/png", f.ContentType())
	assert.Equal(t, "image/svg+xml", SVG.ContentType())
	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestScatterSeries(t *testing.T) {
	fit := fitFor(t, "Height,Weight\n60,121\n62,124\n64,131\n66,134\n", "Height", "Weight")
	ch := Scatter(fit)
	assert.Equal(t, Height, ch.Height)
	assert.Equal(t, "Height", ch.XAxis.Name)
	assert.Equal(t, "Weight", ch.YAxis.Name)
	require.Len(t, ch.Series, 2)

	line, ok := ch.Series[1].(chart.ContinuousSeries)
	require.True(t, ok)
	assert.Equal(t, []float64{60, 66}, line.XValues)
	assert.InDelta(t, fit.RawSlope*60+fit.RawIntercept, line.YValues[0], 1e-9)
	assert.Equal(t, float64(3), line.Style.StrokeWidth)
	assert.Equal(t, lineColor, line.Style.StrokeColor)

	points, ok := ch.Series[0].(chart.ContinuousSeries)
	require.True(t, ok)
	assert.Len(t, points.XValues, 4)
	assert.Equal(t, pointColor, points.Style.DotColor)
}

func TestRenderScatterSVGAndPNG(t *testing.T) {
	fit := fitFor(t, "Height,Weight\n60,121\n62,124\n64,131\n66,134\n", "Height", "Weight")

	var svg bytes.Buffer
	require.NoError(t, WriteScatter(&svg, fit, SVG))
	assert.Contains(t, svg.String(), "<svg")

	var png bytes.Buffer
	require.NoError(t, WriteScatter(&png, fit, PNG))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))
}

func TestResidualsPerfectFitStillRenders(t *testing.T) {
	fit := fitFor(t, "Height,Weight\n60,120\n62,125\n64,130\n", "Height", "Weight")
	ch := Residuals(fit)
	assert.Equal(t, "Fitted values", ch.XAxis.Name)
	assert.Equal(t, "Residuals", ch.YAxis.Name)
	require.NotNil(t, ch.YAxis.Range)

	var buf bytes.Buffer
	require.NoError(t, WriteResiduals(&buf, fit, SVG))
	assert.Contains(t, buf.String(), "</svg>")
}

func TestResidualsZeroLine(t *testing.T) {
	fit := fitFor(t, "Height,Weight\n60,121\n62,124\n64,131\n66,134\n", "Height", "Weight")
	ch := Residuals(fit)
	require.Len(t, ch.Series, 2)

	zero, ok := ch.Series[1].(chart.ContinuousSeries)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0}, zero.YValues)
	assert.Equal(t, lineColor, zero.Style.StrokeColor)
	assert.Equal(t, float64(3), zero.Style.StrokeWidth)
}

func TestConstantYRenders(t *testing.T) {
	fit := fitFor(t, "Height,Weight\n60,120\n62,120\n64,120\n", "Height", "Weight")
	require.True(t, fit.ConstantY)

	var scatter, residuals bytes.Buffer
	require.NoError(t, WriteScatter(&scatter, fit, SVG))
	require.NoError(t, WriteResiduals(&residuals, fit, SVG))
	assert.Contains(t, residuals.String(), "</svg>")
}
