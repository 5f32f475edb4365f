package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report is a markdown-friendly summary of a loaded dataset.
type Report struct {
	Name     string
	Rows     int
	Skipped  int
	Cols     []ColumnSummary
	Corr     *CorrMatrix
	Warnings []string
}

// ColumnSummary captures kind and statistics per column.
type ColumnSummary struct {
	Name     string
	Kind     string
	Unit     string
	NonNull  int
	Missing  int
	Min      float64
	Max      float64
	Mean     float64
	Std      float64
	Unique   int
	Variable bool
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Each cell uses only rows where both columns are present.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
	N       [][]int
}

// Describe summarises every column. Columns among the first maxVariables
// numeric ones are flagged as selectable variables.
func (d *Dataset) Describe(maxVariables int) *Report {
	rep := &Report{Name: d.Name, Rows: d.Rows, Skipped: d.Skipped, Warnings: d.Warnings}
	selectable := map[string]bool{}
	for _, v := range d.Variables(maxVariables) {
		selectable[v] = true
	}
	var numeric []*Column
	for _, c := range d.cols {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind, Unit: c.Unit, NonNull: c.NonNull, Missing: c.Missing, Variable: selectable[c.Name]}
		if c.Kind == KindNumeric {
			numeric = append(numeric, c)
			vals := present(c.Values)
			if len(vals) > 0 {
				s.Min, s.Max, s.Mean = floats.Min(vals), floats.Max(vals), stat.Mean(vals, nil)
			}
			if len(vals) > 1 {
				_, s.Std = stat.MeanStdDev(vals, nil)
			}
		} else {
			seen := map[string]struct{}{}
			for _, v := range c.Text {
				if v != "" {
					seen[v] = struct{}{}
				}
			}
			s.Unique = len(seen)
		}
		rep.Cols = append(rep.Cols, s)
	}
	if len(numeric) >= 2 {
		rep.Corr = pairwiseCorr(numeric)
	}
	return rep
}

func pairwiseCorr(cols []*Column) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n), N: make([][]int, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		m.N[i] = make([]int, n)
	}
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		m.N[a][a] = cols[a].NonNull
		for b := a + 1; b < n; b++ {
			xs, ys := completePairs(cols[a].Values, cols[b].Values)
			var r float64
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
			}
			// A column without variance has no defined correlation.
			if math.IsNaN(r) {
				r = 0
			}
			r = math.Max(-1, math.Min(1, r))
			m.Values[a][b], m.Values[b][a] = r, r
			m.N[a][b], m.N[b][a] = len(xs), len(xs)
		}
	}
	return m
}

// present drops missing cells.
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// completePairs keeps the rows where both columns have a value.
func completePairs(xs, ys []float64) ([]float64, []float64) {
	var cx, cy []float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		cx = append(cx, xs[i])
		cy = append(cy, ys[i])
	}
	return cx, cy
}

// Markdown renders a compact report for the terminal or a docs page.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Skipped > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (of %d)\n", r.Rows, r.Rows+r.Skipped))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case KindCategorical:
			b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
		}
		if c.Variable {
			b.WriteString(" *")
		}
		b.WriteString("\n")
	}

	if r.Corr != nil {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
			N    int
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j], N: r.Corr.N[i][j]})
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
