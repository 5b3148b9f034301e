// Package writer handles the final write-out of normalized transactions and
// the derivation of output file paths.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// FilterFunc selects which transactions get written. Nil means all.
type FilterFunc func(models.Transaction) bool

// WriteCSV writes transactions in the normalized output format.
func WriteCSV(w io.Writer, txs []models.Transaction, filter FilterFunc) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Payee", "Memo", "Amount"}); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	for _, t := range txs {
		if filter != nil && !filter(t) {
			continue
		}
		record := []string{t.ISODate(), t.Payee, t.Memo, t.Amount.StringFixed(2)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("error writing transaction: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes a batch to the given path.
func WriteFile(path string, batch *models.TransactionBatch, filter FilterFunc) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer out.Close()
	return WriteCSV(out, batch.Transactions, filter)
}

// OutputPath derives the destination file path for an input file: prefix plus
// the input stem plus the output extension, in the input's directory. An
// existing file gets a numeric suffix instead of being overwritten.
func OutputPath(inputPath, prefix, ext string) string {
	dir := filepath.Dir(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	path := filepath.Join(dir, prefix+stem+ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s%s_%d%s", prefix, stem, counter, ext))
	}
}
