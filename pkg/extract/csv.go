package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// CSV extracts tables from delimiter-separated exports. Delimiter and
// encoding come from the bank config, never from autodetection.
type CSV struct{}

func (e *CSV) Extract(data []byte, name string, cfg config.BankConfig) (*RawTable, error) {
	decoded, err := decode(data, cfg.Encoding)
	if err != nil {
		return nil, extractionErr(name, fmt.Sprintf("cannot decode as %s", cfg.Encoding), err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = cfg.DelimiterRune()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, extractionErr(name, "malformed csv", err)
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, extractionErr(name, "file is empty", nil)
	}
	if len(records) <= cfg.HeaderRows+cfg.FooterRows {
		return nil, extractionErr(name, "no data rows after header/footer skip", nil)
	}

	// The expected column signature must appear within the skipped header
	// rows, otherwise the file is not what this config describes.
	if len(cfg.Header) > 0 && cfg.HeaderRows > 0 {
		found := false
		for _, rec := range records[:cfg.HeaderRows] {
			if cfg.MatchesHeader(rec) {
				found = true
				break
			}
		}
		if !found {
			return nil, extractionErr(name, "header mismatch", models.ErrShapeMismatch)
		}
	}

	rows := records[cfg.HeaderRows : len(records)-cfg.FooterRows]
	table := &RawTable{Columns: sourceColumns(cfg), Rows: make([][]string, 0, len(rows))}
	for _, rec := range rows {
		table.Rows = append(table.Rows, pad(rec, len(cfg.InputColumns)))
	}
	return table, nil
}

// sourceColumns names the table columns after the configured header when
// present, falling back to the canonical positional names.
func sourceColumns(cfg config.BankConfig) []string {
	if len(cfg.Header) >= len(cfg.InputColumns) {
		return cfg.Header[:len(cfg.InputColumns)]
	}
	return cfg.InputColumns
}

func pad(rec []string, n int) []string {
	if len(rec) >= n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func decode(data []byte, name string) ([]byte, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8", "ascii":
		return data, nil
	case "latin-1", "latin1", "iso-8859-1":
		enc = charmap.ISO8859_1
	case "iso-8859-15":
		enc = charmap.ISO8859_15
	case "cp1250", "windows-1250":
		enc = charmap.Windows1250
	case "cp1251", "windows-1251":
		enc = charmap.Windows1251
	case "cp1252", "windows-1252":
		enc = charmap.Windows1252
	case "cp850":
		enc = charmap.CodePage850
	case "utf-16", "utf16":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "utf-16be":
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	return out, err
}
