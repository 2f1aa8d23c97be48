package statement

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	p := NewParser("GBP")

	t.Run("basic statement with ISO dates", func(t *testing.T) {
		csv := "Date,Amount,Description\n" +
			"2024-01-05,-42.50,\"AMAZON MKTP\"\n" +
			"2024-01-06,100.00,SALARY\n"

		res, err := p.Parse(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, res.Rows, 2)
		assert.Equal(t, 0, res.Skipped)

		row := res.Rows[0]
		assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), row.Date)
		assert.True(t, row.Amount.Equal(decimal.RequireFromString("-42.50")))
		assert.Equal(t, "AMAZON MKTP", row.Description)
		assert.Equal(t, "GBP", row.Currency)
	})

	t.Run("column order and extra columns do not matter", func(t *testing.T) {
		csv := "Balance,Narration,Transaction Date,Value,Currency\n" +
			"900.00,COFFEE,05/01/2024,-3.20,eur\n"

		res, err := p.Parse(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)

		row := res.Rows[0]
		assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), row.Date)
		assert.Equal(t, "COFFEE", row.Description)
		assert.Equal(t, "EUR", row.Currency)
	})

	t.Run("missing amount column is fatal", func(t *testing.T) {
		csv := "Date,Description\n2024-01-05,SOMETHING\n"
		_, err := p.Parse(strings.NewReader(csv))
		assert.ErrorIs(t, err, ErrMissingColumns)
	})

	t.Run("missing date column is fatal", func(t *testing.T) {
		csv := "Amount,Description\n-1.00,SOMETHING\n"
		_, err := p.Parse(strings.NewReader(csv))
		assert.ErrorIs(t, err, ErrMissingColumns)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := p.Parse(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("bad dates are skipped not fatal", func(t *testing.T) {
		csv := "Date,Amount\n" +
			"not-a-date,-1.00\n" +
			"2024-02-01,-2.00\n" +
			",\n"

		res, err := p.Parse(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Len(t, res.Rows, 1)
		assert.Equal(t, 2, res.Skipped)
	})

	t.Run("amount noise is stripped", func(t *testing.T) {
		csv := "Date,Amount\n2024-01-05,\"£1,234.56\"\n"
		res, err := p.Parse(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.True(t, res.Rows[0].Amount.Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("unparseable amount normalizes to zero", func(t *testing.T) {
		csv := "Date,Amount\n2024-01-05,PENDING\n"
		res, err := p.Parse(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.True(t, res.Rows[0].Amount.IsZero())
	})
}

func TestFingerprint(t *testing.T) {
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("-42.50")

	t.Run("deterministic", func(t *testing.T) {
		a := Fingerprint(date, amount, "AMAZON MKTP", "GBP")
		b := Fingerprint(date, amount, "AMAZON MKTP", "GBP")
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})

	t.Run("every field participates", func(t *testing.T) {
		base := Fingerprint(date, amount, "AMAZON MKTP", "GBP")

		assert.NotEqual(t, base, Fingerprint(date.AddDate(0, 0, 1), amount, "AMAZON MKTP", "GBP"))
		assert.NotEqual(t, base, Fingerprint(date, amount.Neg(), "AMAZON MKTP", "GBP"))
		assert.NotEqual(t, base, Fingerprint(date, amount, "AMAZON MKTP.", "GBP"))
		assert.NotEqual(t, base, Fingerprint(date, amount, "AMAZON MKTP", "EUR"))
	})

	t.Run("row helper matches direct call", func(t *testing.T) {
		row := Row{Date: date, Amount: amount, Description: "AMAZON MKTP", Currency: "GBP"}
		assert.Equal(t, Fingerprint(date, amount, "AMAZON MKTP", "GBP"), RowFingerprint(row))
	})
}
