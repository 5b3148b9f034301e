package extract

import (
	"bytes"

	"github.com/extrame/xls"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

const maxXLSRows = 10000

// XLS extracts tables from legacy Excel exports, the format several banks
// still ship statements in.
type XLS struct{}

func (e *XLS) Extract(data []byte, name string, cfg config.BankConfig) (*RawTable, error) {
	charset := cfg.Encoding
	if charset == "" {
		charset = "utf-8"
	}
	workbook, err := xls.OpenReader(bytes.NewReader(data), charset)
	if err != nil {
		return nil, extractionErr(name, "unreadable xls workbook", err)
	}

	rows := workbook.ReadAllCells(maxXLSRows)
	if len(rows) == 0 {
		return nil, extractionErr(name, "no data found in sheet", nil)
	}

	// Skip until the configured header row; sheets often carry account
	// summaries above the actual table.
	start := -1
	if len(cfg.Header) > 0 {
		for i, row := range rows {
			if cfg.MatchesHeader(row) {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, extractionErr(name, "header mismatch", models.ErrShapeMismatch)
		}
	} else {
		start = cfg.HeaderRows
	}
	if start > len(rows) {
		return nil, extractionErr(name, "no data rows after header", nil)
	}

	body := rows[start:]
	if cfg.FooterRows > 0 {
		if cfg.FooterRows >= len(body) {
			return nil, extractionErr(name, "no data rows after footer skip", nil)
		}
		body = body[:len(body)-cfg.FooterRows]
	}

	table := &RawTable{Columns: sourceColumns(cfg)}
	for _, row := range body {
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, pad(row, len(cfg.InputColumns)))
	}
	if len(table.Rows) == 0 {
		return nil, extractionErr(name, "no data rows in sheet", nil)
	}
	return table, nil
}
