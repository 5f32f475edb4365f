package analysis

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatasetName is the name reported for the embedded dataset.
const DefaultDatasetName = "students.csv"

//go:embed data/students.csv
var defaultCSV []byte

// Loader reads one on-disk tabular format into a Dataset.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// Load selects a loader by filename. An empty path loads the embedded dataset.
func Load(path string, opt Options) (*Dataset, error) {
	if strings.TrimSpace(path) == "" {
		return LoadEmbedded(opt)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

// LoadEmbedded loads the dataset compiled into the binary.
func LoadEmbedded(opt Options) (*Dataset, error) {
	return ReadCSV(DefaultDatasetName, bytes.NewReader(defaultCSV), ',', opt)
}

// ReadCSV builds a Dataset from CSV content.
func ReadCSV(name string, r io.Reader, delim rune, opt Options) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	return buildDataset(name, cr, opt)
}

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".ssv")
}

func (csvLoader) Load(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(filepath.Base(path), f, delim, opt)
}

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

func (xlsxLoader) Load(path string, opt Options) (*Dataset, error) {
	rr, err := openSheet(path, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	return buildDataset(filepath.Base(path), rr, opt)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
