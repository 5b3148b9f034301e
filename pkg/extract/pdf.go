package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// PDF extracts tables embedded in PDF statements. The table is located by
// matching the configured column-header strings in the extracted text, and
// rows are segmented on the bank's date pattern, which tolerates page breaks
// and inconsistent whitespace splitting a logical table.
type PDF struct{}

var amountRe = regexp.MustCompile(`-?\d{1,3}(?:[.,]\d{3})*[.,]\d{2}|-?\d+[.,]\d{2}|-?\d+`)

func (e *PDF) Extract(data []byte, name string, cfg config.BankConfig) (*RawTable, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractionErr(name, "unreadable pdf", err)
	}
	text, err := r.GetPlainText()
	if err != nil {
		return nil, extractionErr(name, "cannot extract pdf text", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return nil, extractionErr(name, "cannot read pdf text", err)
	}
	return tableFromText(buf.String(), name, cfg)
}

// tableFromText is the pure text-to-table transform. Split out from Extract
// so the fragile layout handling can be exercised without PDF fixtures.
func tableFromText(text, name string, cfg config.BankConfig) (*RawTable, error) {
	if len(cfg.InputColumns) == 0 || cfg.InputColumns[0] != config.ColumnDate {
		return nil, extractionErr(name, "pdf formats must map their first column to Date", nil)
	}

	// The table starts after the header strings, in order. A missing header
	// string means the expected columns are absent from this document.
	start := 0
	for _, h := range cfg.Header {
		idx := strings.Index(text[start:], h)
		if idx < 0 {
			return nil, extractionErr(name, "header mismatch", models.ErrShapeMismatch)
		}
		start += idx + len(h)
	}
	body := text[start:]

	dateRe, err := regexp.Compile(layoutPattern(cfg.DateFormat))
	if err != nil {
		return nil, extractionErr(name, "invalid date format", err)
	}
	locs := dateRe.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return nil, extractionErr(name, "no table rows found", nil)
	}

	numeric := numericColumns(cfg.InputColumns)
	table := &RawTable{Columns: sourceColumns(cfg)}
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		row := splitRow(body[loc[0]:loc[1]], body[loc[1]:end], cfg.InputColumns, numeric)
		if row != nil {
			table.Rows = append(table.Rows, row)
		}
	}
	if len(table.Rows) == 0 {
		return nil, extractionErr(name, "no table rows found", nil)
	}
	return table, nil
}

// splitRow distributes a date-anchored text segment over the configured
// columns: numeric cells take the trailing monetary tokens, everything before
// them becomes the text cells in order.
func splitRow(date, rest string, cols []string, numeric []int) []string {
	rest = strings.Join(strings.Fields(rest), " ")
	row := make([]string, len(cols))
	row[0] = date
	if rest == "" {
		return nil
	}

	// Keep only tokens at the tail of the segment so reference numbers inside
	// the description are not mistaken for amounts.
	amounts := amountRe.FindAllStringIndex(rest, -1)
	tokens := make([][]int, 0, len(numeric))
	endPos := len(rest)
	for i := len(amounts) - 1; i >= 0 && len(tokens) < len(numeric); i-- {
		tok := amounts[i]
		if strings.TrimSpace(rest[tok[1]:endPos]) != "" {
			break
		}
		tokens = append([][]int{tok}, tokens...)
		endPos = tok[0]
	}

	textEnd := len(rest)
	if len(tokens) > 0 {
		textEnd = tokens[0][0]
	}
	desc := strings.TrimSpace(rest[:textEnd])

	ti := 0
	for i, col := range cols {
		if i == 0 {
			continue
		}
		switch col {
		case config.ColumnInflow, config.ColumnOutflow:
			if ti < len(tokens) {
				row[i] = rest[tokens[ti][0]:tokens[ti][1]]
				ti++
			}
		case config.ColumnPayee:
			row[i] = desc
		case config.ColumnMemo:
			if !containsColumn(cols, config.ColumnPayee) {
				row[i] = desc
			}
		}
	}
	return row
}

func numericColumns(cols []string) []int {
	var out []int
	for i, c := range cols {
		if c == config.ColumnInflow || c == config.ColumnOutflow {
			out = append(out, i)
		}
	}
	return out
}

func containsColumn(cols []string, want string) bool {
	for _, c := range cols {
		if c == want {
			return true
		}
	}
	return false
}

// layoutPattern converts a Go date layout into a matching regexp.
func layoutPattern(layout string) string {
	var b strings.Builder
	for i := 0; i < len(layout); {
		rest := layout[i:]
		switch {
		case strings.HasPrefix(rest, "2006"):
			b.WriteString(`\d{4}`)
			i += 4
		case strings.HasPrefix(rest, "January"):
			b.WriteString(`[A-Za-z]+`)
			i += 7
		case strings.HasPrefix(rest, "Jan"):
			b.WriteString(`[A-Za-z]{3}`)
			i += 3
		case strings.HasPrefix(rest, "01"), strings.HasPrefix(rest, "02"):
			b.WriteString(`\d{2}`)
			i += 2
		case rest[0] == '1', rest[0] == '2':
			b.WriteString(`\d{1,2}`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(rest[0])))
			i++
		}
	}
	return b.String()
}
