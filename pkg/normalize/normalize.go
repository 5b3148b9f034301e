// Package normalize maps raw tables onto canonical transactions: column
// remapping, amount and date coercion, sign handling and deduplication.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/extract"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

type Normalizer struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// columns indexes the configured canonical names into source column
// positions. Duplicate canonical names merge their cells space-joined.
type columns map[string][]int

func mapColumns(cfg config.BankConfig) columns {
	cols := make(columns)
	for i, name := range cfg.InputColumns {
		if name == config.ColumnSkip {
			continue
		}
		cols[name] = append(cols[name], i)
	}
	return cols
}

func (c columns) value(row []string, name string) string {
	idxs, ok := c[name]
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(idxs))
	for _, i := range idxs {
		if i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Run produces a deduplicated TransactionBatch from a raw table. Rows with
// unparseable amounts or dates are skipped and recorded on the batch; a
// single malformed row never aborts the rest of the statement.
func (n *Normalizer) Run(table *extract.RawTable, cfg config.BankConfig) (*models.TransactionBatch, error) {
	cols := mapColumns(cfg)
	batch := models.NewBatch(cfg.Name)
	divisor := decimal.NewFromFloat(cfg.CurrencyDivisor)
	if divisor.IsZero() {
		divisor = decimal.NewFromInt(1)
	}

	var lastDate time.Time
	var haveLastDate bool
	for i, row := range table.Rows {
		rowNum := i + 1

		dateStr := cols.value(row, config.ColumnDate)
		var date time.Time
		switch {
		case dateStr != "":
			parsed, err := time.Parse(cfg.DateFormat, dateStr)
			if err != nil {
				n.recordSkip(batch, &models.NormalizationError{Row: rowNum, Field: "date", Value: dateStr, Reason: fmt.Sprintf("does not match layout %s", cfg.DateFormat)})
				continue
			}
			date = parsed
		case cfg.FillDates && haveLastDate:
			date = lastDate
		default:
			// Rows without a date are headers, totals or padding.
			n.logger.Debug("dropping dateless row", "bank", cfg.Name, "row", rowNum)
			continue
		}
		lastDate, haveLastDate = date, true

		inflow, err := parseAmount(cols.value(row, config.ColumnInflow))
		if err != nil {
			n.recordSkip(batch, &models.NormalizationError{Row: rowNum, Field: "inflow", Value: cols.value(row, config.ColumnInflow), Reason: err.Error()})
			continue
		}
		outflow, err := parseAmount(cols.value(row, config.ColumnOutflow))
		if err != nil {
			n.recordSkip(batch, &models.NormalizationError{Row: rowNum, Field: "outflow", Value: cols.value(row, config.ColumnOutflow), Reason: err.Error()})
			continue
		}

		// Banks that use an indicator column report magnitudes only; the
		// flag decides the side.
		if cfg.SignRule.Active() {
			flag := cols.value(row, config.ColumnCDFlag)
			if strings.EqualFold(flag, cfg.SignRule.OutflowFlag) {
				inflow = inflow.Neg()
			}
		}

		amount := inflow.Sub(outflow).Div(divisor).Round(2)
		if amount.IsZero() {
			n.logger.Debug("dropping zero-amount row", "bank", cfg.Name, "row", rowNum)
			continue
		}

		payee := cleanString(cols.value(row, config.ColumnPayee))
		memo := cleanString(cols.value(row, config.ColumnMemo))
		if payee == "" {
			payee = memo
		}
		if memo == "" && cfg.PayeeToMemo {
			memo = payee
		}

		batch.Append(models.Transaction{
			Date:   date,
			Payee:  payee,
			Memo:   memo,
			Amount: amount,
			Bank:   cfg.Name,
		})
	}

	batch.Dedupe()
	n.logger.Info("normalized table", "bank", cfg.Name, "rows", table.Len(), "transactions", batch.Len(), "skipped", len(batch.Skipped))
	return batch, nil
}

func (n *Normalizer) recordSkip(batch *models.TransactionBatch, err *models.NormalizationError) {
	n.logger.Debug("skipping row", "bank", batch.Bank, "error", err)
	batch.Skip(err)
}

// parseAmount cleans a raw monetary string and parses it into a decimal.
// Blank cells are zero. Comma decimal separators, thousands separators and
// currency symbols are tolerated.
func parseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}

	s := strings.ReplaceAll(trimmed, ",", ".")
	// Everything but the last separator is a thousands separator.
	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}
	var b strings.Builder
	for _, r := range s {
		if r == '-' || r == '.' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric content")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a valid amount")
	}
	return d, nil
}

// cleanString collapses runs of whitespace, including newlines left behind by
// table extraction, into single spaces.
func cleanString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
