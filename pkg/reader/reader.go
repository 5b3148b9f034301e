// Package reader dispatches input files to the bank configuration that
// matches them.
package reader

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// headerProbeRows is how deep into a CSV file the signature is searched for.
const headerProbeRows = 10

type Reader struct {
	store  *config.Store
	logger *log.Logger
}

func New(store *config.Store, logger *log.Logger) *Reader {
	return &Reader{store: store, logger: logger}
}

// Detect finds the bank config matching a file, trying each configured
// bank's detection rule in configuration order. First match wins. Returns
// NoMatchingBankError when nothing matches.
func (r *Reader) Detect(name string, data []byte) (config.BankConfig, error) {
	base := filepath.Base(name)
	for _, cfg := range r.store.All() {
		if r.matches(cfg, base, data) {
			r.logger.Debug("detected bank format", "bank", cfg.Name, "file", base)
			return cfg, nil
		}
	}
	return config.BankConfig{}, &models.NoMatchingBankError{Path: name}
}

func (r *Reader) matches(cfg config.BankConfig, base string, data []byte) bool {
	if !strings.HasSuffix(strings.ToLower(base), strings.ToLower(cfg.Ext)) {
		return false
	}
	// Header signature beats filename matching when the format carries one
	// the probe can see.
	if cfg.Format == config.FormatCSV && len(cfg.Header) > 0 {
		return csvHeaderMatches(cfg, data)
	}
	return MatchesName(cfg, base)
}

// MatchesName checks a filename against a bank's configured pattern:
// prefix match by default, regexp when the config asks for it. Files already
// carrying the output prefix are never matched again.
func MatchesName(cfg config.BankConfig, base string) bool {
	if cfg.OutputPrefix != "" && strings.Contains(base, cfg.OutputPrefix) {
		return false
	}
	if cfg.FilePattern == "" {
		return false
	}
	if cfg.UseRegex {
		re, err := regexp.Compile(cfg.FilePattern)
		if err != nil {
			return false
		}
		return re.MatchString(base)
	}
	return strings.HasPrefix(strings.ToLower(base), strings.ToLower(cfg.FilePattern))
}

func csvHeaderMatches(cfg config.BankConfig, data []byte) bool {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = cfg.DelimiterRune()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	for i := 0; i < headerProbeRows; i++ {
		rec, err := r.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			continue
		}
		if cfg.MatchesHeader(rec) {
			return true
		}
	}
	return false
}
