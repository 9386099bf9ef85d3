package source

import (
	"context"
	"fmt"
	"os"

	"github.com/spektr-org/carbonlens/helpers"
	"github.com/spektr-org/carbonlens/record"
)

// CSVFile reads raw records from a local CSV export. It carries no
// prediction history.
type CSVFile struct {
	Path string
}

// NewCSVFile creates a file-backed source.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{Path: path}
}

// FetchRecords reads and parses the file on every call.
func (f *CSVFile) FetchRecords(ctx context.Context) ([]record.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	raw, _, err := helpers.ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", f.Path, ErrMalformedPayload, err)
	}
	return raw, nil
}

// FetchPredictions always returns an empty history.
func (f *CSVFile) FetchPredictions(ctx context.Context, limit int) ([]Prediction, error) {
	return []Prediction{}, nil
}
