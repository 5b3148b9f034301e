package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banksYAML = `banks:
  - name: US Bank
    format: csv
    file_pattern: usbank
    header: [Date, Description, Debit, Credit]
    input_columns: [Date, Payee, Outflow, Inflow]
    header_rows: 1
    date_format: "02/01/2006"
  - name: Euro Bank
    format: csv
    file_pattern: eurobank
    delimiter: ";"
    encoding: latin-1
    header: [Datum, Beschreibung, Betrag]
    input_columns: [Date, Payee, Inflow]
    header_rows: 1
    date_format: "02.01.2006"
    output_prefix: euro_
`

func writeBanks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "banks.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBanksPreservesOrder(t *testing.T) {
	store, err := LoadBanks(writeBanks(t, banksYAML))
	require.NoError(t, err)

	require.Equal(t, 2, store.Len())
	all := store.All()
	assert.Equal(t, "US Bank", all[0].Name)
	assert.Equal(t, "Euro Bank", all[1].Name)

	euro, ok := store.Lookup("Euro Bank")
	require.True(t, ok)
	assert.Equal(t, "latin-1", euro.Encoding)
	assert.Equal(t, ';', euro.DelimiterRune())
	assert.Equal(t, "euro_", euro.OutputPrefix)
}

func TestLoadBanksDefaults(t *testing.T) {
	store, err := LoadBanks(writeBanks(t, banksYAML))
	require.NoError(t, err)

	us, ok := store.Lookup("US Bank")
	require.True(t, ok)
	assert.Equal(t, ".csv", us.Ext)
	assert.Equal(t, ".csv", us.OutputExt)
	assert.Equal(t, "fixed_", us.OutputPrefix)
	assert.Equal(t, ',', us.DelimiterRune())
}

func TestLoadBanksRejectsBadConfigs(t *testing.T) {
	cases := map[string]string{
		"unknown column": `banks:
  - name: Bad
    format: csv
    input_columns: [Date, Wat, Inflow]
    date_format: "2006-01-02"
`,
		"no amount column": `banks:
  - name: Bad
    format: csv
    input_columns: [Date, Payee, Memo]
    date_format: "2006-01-02"
`,
		"unsupported format": `banks:
  - name: Bad
    format: xlsx
    input_columns: [Date, Payee, Inflow]
    date_format: "2006-01-02"
`,
		"missing date format": `banks:
  - name: Bad
    format: csv
    input_columns: [Date, Payee, Inflow]
`,
		"duplicate name": `banks:
  - name: Twin
    format: csv
    input_columns: [Date, Payee, Inflow]
    date_format: "2006-01-02"
  - name: Twin
    format: csv
    input_columns: [Date, Payee, Inflow]
    date_format: "2006-01-02"
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBanks(writeBanks(t, content))
			assert.Error(t, err)
		})
	}
}

func TestMatchesHeader(t *testing.T) {
	cfg := BankConfig{Header: []string{"Date", "Description", "Debit", "Credit"}}

	assert.True(t, cfg.MatchesHeader([]string{"Date", "Description", "Debit", "Credit"}))
	assert.True(t, cfg.MatchesHeader([]string{" date ", "DESCRIPTION", "Debit", "Credit", "Balance"}))
	assert.False(t, cfg.MatchesHeader([]string{"Date", "Description", "Debit"}))
	assert.False(t, cfg.MatchesHeader([]string{"Datum", "Description", "Debit", "Credit"}))
}

func TestBuildReadsConfigAndBanks(t *testing.T) {
	dir := t.TempDir()
	banksPath := filepath.Join(dir, "banks.yml")
	require.NoError(t, os.WriteFile(banksPath, []byte(banksYAML), 0644))

	cfgPath := filepath.Join(dir, "bank2ynab.yml")
	cfgYAML := `input_dir: ` + dir + `
banks_file: ` + banksPath + `
ynab:
  budget_id: budget-123
  token_env: YNAB_TOKEN
  accounts:
    US Bank: account-abc
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0644))

	cfg, err := Build(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.InputDir)
	assert.Equal(t, "budget-123", cfg.YNAB.BudgetID)
	assert.Equal(t, "account-abc", cfg.YNAB.Accounts["US Bank"])
	assert.Equal(t, 2, cfg.Banks().Len())

	t.Setenv("YNAB_TOKEN", "secret")
	assert.Equal(t, "secret", cfg.YNAB.Token())
}

func TestBuildFailsOnMissingExplicitConfig(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope.yml"), nil)
	assert.Error(t, err)
}
