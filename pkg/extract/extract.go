// Package extract turns raw bank export bytes into a generic tabular
// structure. All format-specific brittleness (PDF text layout in particular)
// stays behind the Extractor interface so it cannot leak into normalization.
package extract

import (
	"fmt"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// RawTable is the intermediate tabular representation prior to semantic
// normalization: an ordered column list and ordered rows of raw string cells.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the value at row/col, or "" when the row is short.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Len returns the number of data rows.
func (t *RawTable) Len() int { return len(t.Rows) }

// Extractor is a pure transform from file bytes to a RawTable. The name is
// only used for error context.
type Extractor interface {
	Extract(data []byte, name string, cfg config.BankConfig) (*RawTable, error)
}

// ForFormat returns the extractor for a configured source format.
func ForFormat(format string) (Extractor, error) {
	switch format {
	case config.FormatCSV:
		return &CSV{}, nil
	case config.FormatPDF:
		return &PDF{}, nil
	case config.FormatXLS:
		return &XLS{}, nil
	default:
		return nil, fmt.Errorf("no extractor for format %q", format)
	}
}

func extractionErr(name, reason string, err error) error {
	return &models.ExtractionError{Path: name, Reason: reason, Err: err}
}
