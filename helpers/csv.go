package helpers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/record"
)

// ============================================================================
// CSV HELPER: Raw building rows in, quoted exports out
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, HTTP, object store).
// Parsing keeps every cell as a string: coercion belongs to the normalizer,
// which accepts both field dialects.
// ============================================================================

// ParseCSV parses CSV bytes into raw records keyed by the original header
// names. Empty cells are left out so the normalizer sees them as missing.
// It also returns the header in column order.
func ParseCSV(data []byte) ([]record.RawRecord, []string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records := []record.RawRecord{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		raw := make(record.RawRecord, len(headers))
		for i, val := range row {
			if i >= len(headers) {
				break
			}
			if val = strings.TrimSpace(val); val != "" {
				raw[headers[i]] = val
			}
		}
		records = append(records, raw)
	}

	return records, headers, nil
}

// ParseCSVView parses and normalizes CSV bytes into a RecordView.
func ParseCSVView(data []byte, opts ...record.Option) (engine.RecordView, error) {
	raw, _, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	return engine.BindRecords(record.Normalize(raw, opts...)), nil
}

// WriteCSV writes a header row of field names and one row per record.
// Every field is double-quoted with embedded quotes doubled, rows end in "\n".
func WriteCSV(w io.Writer, records []record.Record) error {
	bw := bufio.NewWriter(w)
	if err := writeQuotedRow(bw, record.Columns()); err != nil {
		return err
	}
	for _, r := range records {
		if err := writeQuotedRow(bw, r.Values()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportCSV renders records as a CSV document.
func ExportCSV(records []record.Record) []byte {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, records) // bytes.Buffer writes do not fail
	return buf.Bytes()
}

func writeQuotedRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
