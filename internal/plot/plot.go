// Package plot renders regression charts with go-chart.
package plot

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/regresslab/internal/regression"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
)

// Format selects the image encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat accepts "svg" or "png" (case-insensitive); empty means SVG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return SVG, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("unsupported plot format: %s (use svg|png)", s)
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

const (
	Width  = 600
	Height = 300
)

var (
	pointColor = drawing.ColorFromHex("9eab05")
	lineColor  = drawing.ColorFromHex("d10373")
)

// pointStyle draws markers only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    3,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{StrokeColor: col, StrokeWidth: width}
}

// Scatter plots the observed pairs with the fitted line across the x range.
func Scatter(fit *regression.FitResult) chart.Chart {
	xs, ys := fit.Subset.XS, fit.Subset.YS
	lo, hi := floats.Min(xs), floats.Max(xs)
	line := []float64{
		fit.RawSlope*lo + fit.RawIntercept,
		fit.RawSlope*hi + fit.RawIntercept,
	}
	ch := chart.Chart{
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 12},
		},
		XAxis: chart.XAxis{Name: fit.X},
		YAxis: chart.YAxis{Name: fit.Y},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "observed", XValues: xs, YValues: ys, Style: pointStyle(pointColor)},
			chart.ContinuousSeries{Name: "fit", XValues: []float64{lo, hi}, YValues: line, Style: lineStyle(lineColor, 3)},
		},
	}
	ylo := floats.Min(append([]float64{floats.Min(ys)}, line...))
	yhi := floats.Max(append([]float64{floats.Max(ys)}, line...))
	pad(&ch, lo, hi, ylo, yhi)
	return ch
}

// Residuals plots residuals against fitted values with a reference line at zero.
func Residuals(fit *regression.FitResult) chart.Chart {
	lo, hi := floats.Min(fit.Fitted), floats.Max(fit.Fitted)
	ch := chart.Chart{
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 12},
		},
		XAxis: chart.XAxis{Name: "Fitted values"},
		YAxis: chart.YAxis{Name: "Residuals"},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "residuals", XValues: fit.Fitted, YValues: fit.Residuals, Style: pointStyle(pointColor)},
			chart.ContinuousSeries{Name: "zero", XValues: []float64{lo, hi}, YValues: []float64{0, 0}, Style: lineStyle(lineColor, 3)},
		},
	}
	ylo := floats.Min(append([]float64{0}, fit.Residuals...))
	yhi := floats.Max(append([]float64{0}, fit.Residuals...))
	pad(&ch, lo, hi, ylo, yhi)
	return ch
}

// pad gives flat axes an explicit range; go-chart refuses to render a zero-width one.
func pad(ch *chart.Chart, xlo, xhi, ylo, yhi float64) {
	if r, ok := padRange(xlo, xhi); ok {
		ch.XAxis.Range = r
	}
	if r, ok := padRange(ylo, yhi); ok {
		ch.YAxis.Range = r
	}
}

func padRange(lo, hi float64) (*chart.ContinuousRange, bool) {
	const eps = 1e-9
	if hi-lo > eps {
		return nil, false
	}
	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}, true
}

// Render encodes ch to w.
func Render(w io.Writer, ch chart.Chart, f Format) error {
	provider := chart.SVG
	if f == PNG {
		provider = chart.PNG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", f, err)
	}
	return nil
}

// WriteScatter renders the scatter chart for fit.
func WriteScatter(w io.Writer, fit *regression.FitResult, f Format) error {
	return Render(w, Scatter(fit), f)
}

// WriteResiduals renders the residual chart for fit.
func WriteResiduals(w io.Writer, fit *regression.FitResult, f Format) error {
	return Render(w, Residuals(fit), f)
}
