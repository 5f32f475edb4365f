package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Options controls how a tabular dataset is read.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for dataset loading.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		SheetIndex: 1,
	}
}

const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
)

// Column is one loaded column. Numeric columns keep their values in Values
// with NaN marking a missing cell; categorical columns keep raw text.
type Column struct {
	Name    string
	Unit    string
	Kind    string
	Values  []float64
	Text    []string
	NonNull int
	Missing int
}

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return math.IsNaN(c.Values[i])
	}
	return c.Text[i] == ""
}

// Dataset is an immutable in-memory table. It is safe for concurrent reads.
type Dataset struct {
	Name     string
	Rows     int
	Skipped  int
	Warnings []string

	cols  []*Column
	index map[string]int
}

// Len returns the number of loaded rows.
func (d *Dataset) Len() int { return d.Rows }

// Columns returns all column names in file order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Variables returns the first limit numeric column names in file order.
// A limit <= 0 returns all numeric columns.
func (d *Dataset) Variables(limit int) []string {
	var out []string
	for _, c := range d.cols {
		if c.Kind != KindNumeric {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, c.Name)
	}
	return out
}

// Column looks up a column by name, falling back to a case-insensitive match.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.cols {
		if c.Name == name {
			return c, true
		}
	}
	idx, ok := d.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return d.cols[idx], true
}

// Numeric returns the values of a numeric column.
func (d *Dataset) Numeric(name string) ([]float64, bool) {
	c, ok := d.Column(name)
	if !ok || c.Kind != KindNumeric {
		return nil, false
	}
	return c.Values, true
}

// ErrNoNumericColumns is returned when a table has no column usable as a variable.
var ErrNoNumericColumns = errors.New("dataset has no numeric columns")

// recordReader is satisfied by *csv.Reader and the XLSX sheet reader.
type recordReader interface {
	Read() ([]string, error)
}

// buildDataset drains r into a Dataset. The first record is the header.
func buildDataset(name string, r recordReader, opt Options) (*Dataset, error) {
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty dataset (no header)", name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	if ncol == 0 {
		return nil, fmt.Errorf("%s: empty header", name)
	}
	ds := &Dataset{Name: name, index: make(map[string]int, ncol)}
	raw := make([][]string, ncol)
	for i := range header {
		clean, unit := splitUnits(strings.TrimSpace(header[i]))
		if clean == "" {
			clean = fmt.Sprintf("column_%d", i+1)
		}
		ds.cols = append(ds.cols, &Column{Name: clean, Unit: unit})
		ds.index[strings.ToLower(clean)] = i
	}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", ds.Rows+ds.Skipped+1, err)
		}
		if ds.Rows >= maxRows {
			ds.Skipped++
			continue
		}
		ds.Rows++
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			if isMissing(v) {
				v = ""
			}
			raw[j] = append(raw[j], v)
		}
	}
	if ds.Skipped > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("loaded only %d/%d rows due to MaxRows", ds.Rows, ds.Rows+ds.Skipped))
	}

	numeric := 0
	for j, c := range ds.cols {
		finishColumn(c, raw[j], opt)
		if c.Kind == KindNumeric {
			numeric++
		}
	}
	if numeric == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoNumericColumns)
	}
	return ds, nil
}

// finishColumn decides the column kind by the predominant parsed type and
// fills in values. Stray text in a numeric column counts as missing.
func finishColumn(c *Column, cells []string, opt Options) {
	parsed := make([]float64, len(cells))
	var numCnt, txtCnt int
	for i, v := range cells {
		if v == "" {
			parsed[i] = math.NaN()
			continue
		}
		if x, ok := parseNumeric(v, opt); ok {
			parsed[i] = x
			numCnt++
			continue
		}
		parsed[i] = math.NaN()
		txtCnt++
	}
	if numCnt > 0 && numCnt >= txtCnt {
		c.Kind = KindNumeric
		c.Values = parsed
		c.NonNull = numCnt
		c.Missing = len(cells) - numCnt
		if c.Unit == "" && strings.Contains(strings.Join(cells, ""), "%") {
			c.Unit = "%"
		}
		return
	}
	c.Kind = KindCategorical
	c.Text = cells
	for _, v := range cells {
		if v == "" {
			c.Missing++
		} else {
			c.NonNull++
		}
	}
}
