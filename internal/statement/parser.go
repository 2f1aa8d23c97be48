package statement

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingColumns means the header row has no recognizable date or
	// amount column. The whole upload is rejected, nothing is imported.
	ErrMissingColumns = errors.New("statement is missing a date or amount column")
	// ErrEmptyFile means the input had no header row at all.
	ErrEmptyFile = errors.New("statement file is empty")
)

// Row is one normalized statement line.
type Row struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// ParseResult carries the rows that survived plus the count of rows dropped
// for unparseable dates. Dropped rows are a data-quality policy, not an
// error.
type ParseResult struct {
	Rows    []Row
	Skipped int
}

// columnAliases maps a logical column to the header substrings that
// identify it. Matching is case-insensitive substring; column order and
// count in the source file are irrelevant. New bank formats are added here,
// not in the parsing control flow.
var columnAliases = map[string][]string{
	"date":        {"date"},
	"amount":      {"amount", "value"},
	"description": {"desc", "narration", "reference"},
	"currency":    {"currency", "ccy"},
}

// dateLayouts lists the accepted date forms, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006", // DD/MM/YYYY, common in UK exports
	time.RFC3339,
	"2006-01-02 15:04:05",
}

type columns struct {
	date        int
	amount      int
	description int
	currency    int
}

// Parser turns raw CSV statement text into normalized rows.
type Parser struct {
	// DefaultCurrency is applied when the file carries no currency column.
	DefaultCurrency string
}

func NewParser(defaultCurrency string) *Parser {
	if defaultCurrency == "" {
		defaultCurrency = "GBP"
	}
	return &Parser{DefaultCurrency: defaultCurrency}
}

// Parse reads the whole statement. It is deliberately lenient: an
// unlocatable date/amount column is fatal, a malformed row is not.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}

	cols, err := detectColumns(header)
	if err != nil {
		return nil, err
	}

	res := &ParseResult{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed line, same policy as a bad date
			res.Skipped++
			continue
		}

		row, ok := p.parseRow(rec, cols)
		if !ok {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func detectColumns(header []string) (columns, error) {
	cols := columns{date: -1, amount: -1, description: -1, currency: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.date < 0 && matchesAny(name, columnAliases["date"]):
			cols.date = i
		case cols.amount < 0 && matchesAny(name, columnAliases["amount"]):
			cols.amount = i
		case cols.description < 0 && matchesAny(name, columnAliases["description"]):
			cols.description = i
		case cols.currency < 0 && matchesAny(name, columnAliases["currency"]):
			cols.currency = i
		}
	}
	if cols.date < 0 || cols.amount < 0 {
		return cols, ErrMissingColumns
	}
	return cols, nil
}

func matchesAny(name string, aliases []string) bool {
	for _, a := range aliases {
		if strings.Contains(name, a) {
			return true
		}
	}
	return false
}

func (p *Parser) parseRow(rec []string, cols columns) (Row, bool) {
	date, ok := ParseDate(field(rec, cols.date))
	if !ok {
		return Row{}, false
	}

	row := Row{
		Date:     date,
		Amount:   parseAmount(field(rec, cols.amount)),
		Currency: p.DefaultCurrency,
	}
	if cols.description >= 0 {
		row.Description = strings.TrimSpace(field(rec, cols.description))
	}
	if c := strings.ToUpper(strings.TrimSpace(field(rec, cols.currency))); c != "" {
		row.Currency = c
	}
	return row, true
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// ParseDate tries the accepted statement date layouts in order. The matcher
// reuses it on extracted invoice dates, which are just as unreliable.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount strips everything but digits, sign and dot before converting.
// An amount that still does not parse normalizes to zero; the row is kept.
func parseAmount(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
