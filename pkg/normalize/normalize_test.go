package normalize

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/extract"
)

func newNormalizer() *Normalizer {
	return New(log.New(io.Discard))
}

func usBank() config.BankConfig {
	return config.BankConfig{
		Name:         "US Bank",
		Format:       config.FormatCSV,
		Header:       []string{"Date", "Description", "Debit", "Credit"},
		InputColumns: []string{config.ColumnDate, config.ColumnPayee, config.ColumnOutflow, config.ColumnInflow},
		DateFormat:   "02/01/2006",
	}
}

func table(rows ...[]string) *extract.RawTable {
	return &extract.RawTable{
		Columns: []string{"Date", "Description", "Debit", "Credit"},
		Rows:    rows,
	}
}

func TestRunMapsDebitToNegativeAmount(t *testing.T) {
	batch, err := newNormalizer().Run(table(
		[]string{"01/02/2023", "Coffee", "3.50", ""},
	), usBank())
	require.NoError(t, err)

	require.Equal(t, 1, batch.Len())
	tx := batch.Transactions[0]
	assert.Equal(t, "2023-02-01", tx.ISODate())
	assert.Equal(t, "Coffee", tx.Payee)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-3.5")), "got %s", tx.Amount)
}

func TestRunSkipsMalformedAmountAndKeepsRest(t *testing.T) {
	batch, err := newNormalizer().Run(table(
		[]string{"01/02/2023", "Coffee", "3.50", ""},
		[]string{"01/03/2023", "Refund", "", "N/A"},
		[]string{"01/04/2023", "Salary", "", "1200.00"},
	), usBank())
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Len())
	require.Len(t, batch.Skipped, 1)
	skip := batch.Skipped[0]
	assert.Equal(t, 2, skip.Row)
	assert.Equal(t, "inflow", skip.Field)
	assert.Equal(t, "N/A", skip.Value)
}

func TestRunSkipsUnparseableDate(t *testing.T) {
	batch, err := newNormalizer().Run(table(
		[]string{"not-a-date", "Coffee", "3.50", ""},
		[]string{"01/02/2023", "Tea", "2.00", ""},
	), usBank())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Len())
	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, "date", batch.Skipped[0].Field)
}

func TestRunCollapsesDuplicateRows(t *testing.T) {
	batch, err := newNormalizer().Run(table(
		[]string{"01/02/2023", "Coffee", "3.50", ""},
		[]string{"01/02/2023", "Coffee", "3.50", ""},
	), usBank())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Len())
}

func TestRunIsIdempotentOnItsOwnOutput(t *testing.T) {
	n := newNormalizer()
	rows := table(
		[]string{"01/02/2023", "Coffee", "3.50", ""},
		[]string{"01/03/2023", "Salary", "", "1200.00"},
	)
	first, err := n.Run(rows, usBank())
	require.NoError(t, err)
	second, err := n.Run(rows, usBank())
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := range first.Transactions {
		assert.True(t, first.Transactions[i].Amount.Equal(second.Transactions[i].Amount))
		assert.Equal(t, first.Transactions[i].ID(), second.Transactions[i].ID())
	}
}

func TestRunFillsDatesDownward(t *testing.T) {
	cfg := usBank()
	cfg.FillDates = true

	batch, err := newNormalizer().Run(table(
		[]string{"01/02/2023", "Coffee", "3.50", ""},
		[]string{"", "Pastry", "2.25", ""},
	), cfg)
	require.NoError(t, err)

	require.Equal(t, 2, batch.Len())
	assert.Equal(t, "2023-02-01", batch.Transactions[1].ISODate())
}

func TestRunDropsDatelessRowsWithoutFill(t *testing.T) {
	batch, err := newNormalizer().Run(table(
		[]string{"", "Opening balance", "", "100.00"},
		[]string{"01/02/2023", "Coffee", "3.50", ""},
	), usBank())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Len())
	assert.Empty(t, batch.Skipped)
}

func TestRunSignRuleNegatesFlaggedRows(t *testing.T) {
	cfg := config.BankConfig{
		Name:         "Flag Bank",
		Format:       config.FormatCSV,
		InputColumns: []string{config.ColumnDate, config.ColumnPayee, config.ColumnInflow, config.ColumnCDFlag},
		DateFormat:   "2006-01-02",
		SignRule:     config.SignRule{OutflowFlag: "D", InflowFlag: "C"},
	}

	batch, err := newNormalizer().Run(&extract.RawTable{
		Columns: []string{"Date", "Desc", "Amount", "DC"},
		Rows: [][]string{
			{"2023-02-01", "Coffee", "3.50", "D"},
			{"2023-02-02", "Salary", "1200.00", "C"},
		},
	}, cfg)
	require.NoError(t, err)

	require.Equal(t, 2, batch.Len())
	assert.True(t, batch.Transactions[0].Amount.Equal(decimal.RequireFromString("-3.5")))
	assert.True(t, batch.Transactions[1].Amount.Equal(decimal.RequireFromString("1200")))
}

func TestRunAppliesCurrencyDivisor(t *testing.T) {
	cfg := usBank()
	cfg.CurrencyDivisor = 100

	batch, err := newNormalizer().Run(table(
		[]string{"01/02/2023", "Coffee", "350", ""},
	), cfg)
	require.NoError(t, err)

	require.Equal(t, 1, batch.Len())
	assert.True(t, batch.Transactions[0].Amount.Equal(decimal.RequireFromString("-3.5")))
}

func TestRunPayeeMemoAutofill(t *testing.T) {
	cfg := config.BankConfig{
		Name:         "Memo Bank",
		Format:       config.FormatCSV,
		InputColumns: []string{config.ColumnDate, config.ColumnMemo, config.ColumnOutflow},
		DateFormat:   "2006-01-02",
		PayeeToMemo:  true,
	}

	batch, err := newNormalizer().Run(&extract.RawTable{
		Columns: []string{"Date", "Details", "Amount"},
		Rows:    [][]string{{"2023-02-01", "CARD  PURCHASE\nCOFFEE", "3.50"}},
	}, cfg)
	require.NoError(t, err)

	require.Equal(t, 1, batch.Len())
	tx := batch.Transactions[0]
	assert.Equal(t, "CARD PURCHASE COFFEE", tx.Payee)
	assert.Equal(t, "CARD PURCHASE COFFEE", tx.Memo)
}

func TestRunDropsZeroAmountRows(t *testing.T) {
	batch, err := newNormalizer().Run(table(
		[]string{"01/02/2023", "Pending hold", "", ""},
		[]string{"01/02/2023", "Coffee", "3.50", ""},
	), usBank())
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Len())
	assert.Empty(t, batch.Skipped)
}

func TestParseAmountFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3.50", "3.5"},
		{"-3.50", "-3.5"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"$1,200.00", "1200"},
		{"€ 99,90", "99.9"},
		{"", "0"},
		{"  ", "0"},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "input %q: got %s want %s", tc.in, got, tc.want)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, in := range []string{"N/A", "pending", "--"} {
		_, err := parseAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestMapColumnsMergesDuplicates(t *testing.T) {
	cols := mapColumns(config.BankConfig{
		InputColumns: []string{config.ColumnDate, config.ColumnMemo, config.ColumnMemo, config.ColumnOutflow},
	})
	row := []string{"2023-02-01", "CARD", "COFFEE SHOP", "3.50"}
	assert.Equal(t, "CARD COFFEE SHOP", cols.value(row, config.ColumnMemo))
	assert.Equal(t, "", cols.value(row, config.ColumnPayee))
}
