package statement

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fingerprint derives the dedup key for a transaction from its defining
// fields. Identical (date, amount, description, currency) tuples collide on
// purpose; that collision IS the dedup. The flip side is accepted too: if a
// bank reformats its description text, re-imports of old statements will not
// dedup against the previously stored rows.
func Fingerprint(date time.Time, amount decimal.Decimal, description, currency string) string {
	parts := []string{
		date.Format("2006-01-02"),
		amount.String(),
		description,
		currency,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// RowFingerprint is Fingerprint over a parsed row.
func RowFingerprint(r Row) string {
	return Fingerprint(r.Date, r.Amount, r.Description, r.Currency)
}
