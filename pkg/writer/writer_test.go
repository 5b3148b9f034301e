package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank2ynab/bank2ynab/pkg/models"
)

func tx(date, payee, amount string) models.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return models.Transaction{
		Date:   d,
		Payee:  payee,
		Amount: decimal.RequireFromString(amount),
		Bank:   "US Bank",
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []models.Transaction{
		tx("2023-02-01", "Coffee", "-3.5"),
		tx("2023-02-02", "Salary", "1200"),
	}, nil)
	require.NoError(t, err)

	want := "Date,Payee,Memo,Amount\n" +
		"2023-02-01,Coffee,,-3.50\n" +
		"2023-02-02,Salary,,1200.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVQuotesCommas(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []models.Transaction{tx("2023-02-01", "Shop, The", "-1")}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"Shop, The"`)
}

func TestWriteCSVFilter(t *testing.T) {
	var buf bytes.Buffer
	onlyOutflows := func(t models.Transaction) bool { return t.Amount.IsNegative() }
	err := WriteCSV(&buf, []models.Transaction{
		tx("2023-02-01", "Coffee", "-3.5"),
		tx("2023-02-02", "Salary", "1200"),
	}, onlyOutflows)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Coffee")
	assert.NotContains(t, buf.String(), "Salary")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixed_usbank.csv")
	batch := models.NewBatch("US Bank")
	batch.Append(tx("2023-02-01", "Coffee", "-3.5"))

	require.NoError(t, WriteFile(path, batch, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2023-02-01,Coffee,,-3.50")
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "usbank_jan.csv")

	got := OutputPath(input, "fixed_", ".csv")
	assert.Equal(t, filepath.Join(dir, "fixed_usbank_jan.csv"), got)
}

func TestOutputPathAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "usbank_jan.csv")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixed_usbank_jan.csv"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixed_usbank_jan_1.csv"), nil, 0644))

	got := OutputPath(input, "fixed_", ".csv")
	assert.Equal(t, filepath.Join(dir, "fixed_usbank_jan_2.csv"), got)
}

func TestOutputPathChangesExtension(t *testing.T) {
	got := OutputPath(filepath.Join("in", "statement.pdf"), "fixed_", ".csv")
	assert.Equal(t, filepath.Join("in", "fixed_statement.csv"), got)
}
