package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

func csvConfig() config.BankConfig {
	return config.BankConfig{
		Name:         "US Bank",
		Format:       config.FormatCSV,
		Header:       []string{"Date", "Description", "Debit", "Credit"},
		InputColumns: []string{config.ColumnDate, config.ColumnPayee, config.ColumnOutflow, config.ColumnInflow},
		HeaderRows:   1,
		DateFormat:   "02/01/2006",
	}
}

func TestCSVExtract(t *testing.T) {
	data := []byte("Date,Description,Debit,Credit\n" +
		"01/02/2023,Coffee,3.50,\n" +
		"\n" +
		"01/03/2023,Salary,,1200.00\n")

	table, err := (&CSV{}).Extract(data, "usbank.csv", csvConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Description", "Debit", "Credit"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"01/02/2023", "Coffee", "3.50", ""}, table.Rows[0])
	assert.Equal(t, []string{"01/03/2023", "Salary", "", "1200.00"}, table.Rows[1])
}

func TestCSVExtractHeaderMismatchIsShapeMismatch(t *testing.T) {
	data := []byte("Datum,Beschreibung,Betrag\n01/02/2023,Coffee,3.50\n")

	_, err := (&CSV{}).Extract(data, "usbank.csv", csvConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrShapeMismatch))
	var exErr *models.ExtractionError
	assert.True(t, errors.As(err, &exErr))
}

func TestCSVExtractFooterTrim(t *testing.T) {
	cfg := csvConfig()
	cfg.FooterRows = 1
	data := []byte("Date,Description,Debit,Credit\n" +
		"01/02/2023,Coffee,3.50,\n" +
		"Total,,3.50,\n")

	table, err := (&CSV{}).Extract(data, "usbank.csv", cfg)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Coffee", table.Rows[0][1])
}

func TestCSVExtractSemicolonLatin1(t *testing.T) {
	cfg := config.BankConfig{
		Name:         "Euro Bank",
		Format:       config.FormatCSV,
		Delimiter:    ";",
		Encoding:     "latin-1",
		Header:       []string{"Datum", "Beschreibung", "Betrag"},
		InputColumns: []string{config.ColumnDate, config.ColumnPayee, config.ColumnInflow},
		HeaderRows:   1,
		DateFormat:   "02.01.2006",
	}
	// 0xE9 is é in latin-1; invalid as a standalone UTF-8 byte.
	data := []byte("Datum;Beschreibung;Betrag\n01.02.2023;Caf\xe9 Zentral;-3,50\n")

	table, err := (&CSV{}).Extract(data, "eurobank.csv", cfg)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Café Zentral", table.Rows[0][1])
}

func TestCSVExtractPadsShortRows(t *testing.T) {
	data := []byte("Date,Description,Debit,Credit\n01/02/2023,Coffee\n")

	table, err := (&CSV{}).Extract(data, "usbank.csv", csvConfig())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Len(t, table.Rows[0], 4)
}

func TestCSVExtractEmptyFile(t *testing.T) {
	_, err := (&CSV{}).Extract([]byte("\n\n"), "usbank.csv", csvConfig())
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrShapeMismatch))
}

func TestCSVExtractUnknownEncoding(t *testing.T) {
	cfg := csvConfig()
	cfg.Encoding = "ebcdic"
	_, err := (&CSV{}).Extract([]byte("Date,Description,Debit,Credit\n01/02/2023,Coffee,3.50,\n"), "usbank.csv", cfg)
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{config.FormatCSV, config.FormatPDF, config.FormatXLS} {
		ex, err := ForFormat(format)
		require.NoError(t, err)
		assert.NotNil(t, ex)
	}
	_, err := ForFormat("xlsx")
	assert.Error(t, err)
}
