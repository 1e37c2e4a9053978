package export

import "fmt"

// Table is a titled grid of cells. Every row must have len(Headers) cells.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

// Validate reports tables with no headers or ragged rows.
func (t Table) Validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table requires at least one header")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Headers))
		}
	}
	return nil
}
