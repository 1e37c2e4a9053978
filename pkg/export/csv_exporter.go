package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders tables as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType is the MIME type of Render output.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension is the file suffix for Render output.
func (e *CSVExporter) Extension() string { return "csv" }

// Render writes the header line followed by every row. Title and subtitle are omitted.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
