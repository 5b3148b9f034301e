package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Canonical column names a source column can be mapped onto. A source column
// mapped to ColumnSkip is dropped during normalization.
const (
	ColumnDate    = "Date"
	ColumnPayee   = "Payee"
	ColumnMemo    = "Memo"
	ColumnInflow  = "Inflow"
	ColumnOutflow = "Outflow"
	ColumnCDFlag  = "CDFlag"
	ColumnSkip    = "skip"
)

// Supported source formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
	FormatXLS = "xls"
)

// SignRule describes how a bank marks inflow versus outflow when it uses a
// separate indicator column instead of signed amounts. The value found in the
// CDFlag column is compared against OutflowFlag; a match negates the inflow.
type SignRule struct {
	OutflowFlag string `yaml:"outflow_flag"`
	InflowFlag  string `yaml:"inflow_flag"`
}

// Active reports whether the bank uses an indicator column at all.
func (r SignRule) Active() bool {
	return r.OutflowFlag != "" || r.InflowFlag != ""
}

// BankConfig describes how to detect, extract and map one bank's export
// format. Loaded once at startup and never mutated.
type BankConfig struct {
	Name        string `yaml:"name"`
	Format      string `yaml:"format"`
	FilePattern string `yaml:"file_pattern"`
	UseRegex    bool   `yaml:"use_regex"`
	Ext         string `yaml:"ext"`
	Delimiter   string `yaml:"delimiter"`
	Encoding    string `yaml:"encoding"`
	HeaderRows  int    `yaml:"header_rows"`
	FooterRows  int    `yaml:"footer_rows"`

	// Header is the column header row as it appears in the source file,
	// used for format detection and for locating tables in PDF text.
	Header []string `yaml:"header"`

	// InputColumns assigns a canonical name to each source column by
	// position: Date, Payee, Memo, Inflow, Outflow, CDFlag or skip.
	InputColumns []string `yaml:"input_columns"`

	DateFormat      string   `yaml:"date_format"`
	SignRule        SignRule `yaml:"sign_rule"`
	FillDates       bool     `yaml:"fill_dates"`
	PayeeToMemo     bool     `yaml:"payee_to_memo"`
	CurrencyDivisor float64  `yaml:"currency_divisor"`
	OutputPrefix    string   `yaml:"output_prefix"`
	OutputExt       string   `yaml:"output_ext"`
}

// DelimiterRune returns the CSV delimiter, defaulting to comma. The literal
// "\t" is accepted for tab-separated sources.
func (c BankConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "", ",":
		return ','
	case "\\t", "\t":
		return '\t'
	default:
		return []rune(c.Delimiter)[0]
	}
}

func (c BankConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("bank config missing name")
	}
	switch c.Format {
	case FormatCSV, FormatPDF, FormatXLS:
	default:
		return fmt.Errorf("%s: unsupported format %q", c.Name, c.Format)
	}
	if len(c.InputColumns) == 0 {
		return fmt.Errorf("%s: no input columns configured", c.Name)
	}
	hasAmount := false
	for _, col := range c.InputColumns {
		switch col {
		case ColumnDate, ColumnPayee, ColumnMemo, ColumnInflow, ColumnOutflow, ColumnCDFlag, ColumnSkip:
			if col == ColumnInflow || col == ColumnOutflow {
				hasAmount = true
			}
		default:
			return fmt.Errorf("%s: unknown canonical column %q", c.Name, col)
		}
	}
	if !hasAmount {
		return fmt.Errorf("%s: input columns map neither Inflow nor Outflow", c.Name)
	}
	if c.DateFormat == "" {
		return fmt.Errorf("%s: missing date format", c.Name)
	}
	return nil
}

// Store is the read-only bank configuration table, safe for concurrent use.
type Store struct {
	banks  []BankConfig
	byName map[string]int
}

// NewStore validates the given configs and builds a store preserving their
// declaration order, which is also the detection order.
func NewStore(banks []BankConfig) (*Store, error) {
	s := &Store{byName: make(map[string]int, len(banks))}
	for _, b := range banks {
		if err := b.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byName[b.Name]; dup {
			return nil, fmt.Errorf("duplicate bank config %q", b.Name)
		}
		if b.CurrencyDivisor == 0 {
			b.CurrencyDivisor = 1
		}
		if b.Ext == "" {
			b.Ext = "." + b.Format
		}
		if b.OutputExt == "" {
			b.OutputExt = ".csv"
		}
		if b.OutputPrefix == "" {
			b.OutputPrefix = "fixed_"
		}
		s.byName[b.Name] = len(s.banks)
		s.banks = append(s.banks, b)
	}
	return s, nil
}

// Lookup returns the config for a bank name.
func (s *Store) Lookup(name string) (BankConfig, bool) {
	i, ok := s.byName[name]
	if !ok {
		return BankConfig{}, false
	}
	return s.banks[i], true
}

// All returns every bank config in declaration order.
func (s *Store) All() []BankConfig {
	out := make([]BankConfig, len(s.banks))
	copy(out, s.banks)
	return out
}

// Len returns the number of configured banks.
func (s *Store) Len() int { return len(s.banks) }

// LoadBanks reads a bank registry YAML file into a Store.
func LoadBanks(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read banks file: %w", err)
	}
	var doc struct {
		Banks []BankConfig `yaml:"banks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse banks yaml: %w", err)
	}
	if len(doc.Banks) == 0 {
		return nil, fmt.Errorf("banks file %s defines no banks", path)
	}
	return NewStore(doc.Banks)
}

// MatchesHeader reports whether a source header row carries this bank's
// column signature. Comparison is case-insensitive and whitespace-tolerant.
func (c BankConfig) MatchesHeader(header []string) bool {
	if len(c.Header) == 0 || len(header) < len(c.Header) {
		return false
	}
	for i, want := range c.Header {
		if !strings.EqualFold(strings.TrimSpace(header[i]), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}
