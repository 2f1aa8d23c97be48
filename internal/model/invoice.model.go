package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DocumentRole says which side of the invoice we hold.
type DocumentRole string

const (
	// DocumentRoleReceived is an invoice we have to pay: the matching bank
	// movement is outgoing (negative).
	DocumentRoleReceived DocumentRole = "RECEIVED"
	// DocumentRoleEmitted is an invoice we issued: the matching movement is
	// incoming (positive).
	DocumentRoleEmitted DocumentRole = "EMITTED"
)

// ExtractedInvoice is the matcher input. It is never persisted; it comes
// straight out of document extraction and extraction output is unreliable,
// which is why the search windows downstream are deliberately wide.
type ExtractedInvoice struct {
	Issuer       string          `json:"issuer"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"` // as extracted, may be garbage
	Currency     string          `json:"currency"`
	DocumentRole DocumentRole    `json:"document_role"`
}

func (i ExtractedInvoice) Validate() error {
	if i.Amount.IsZero() {
		return errors.New("amount is required")
	}
	if i.DocumentRole != DocumentRoleReceived && i.DocumentRole != DocumentRoleEmitted {
		return errors.New("document_role must be RECEIVED or EMITTED")
	}
	return nil
}

// MatchCandidate is one scored reconciliation candidate.
type MatchCandidate struct {
	Transaction *BankTransaction `json:"transaction"`
	MatchScore  int              `json:"match_score"`
}

// DocumentAnalysis is what the extraction collaborator returns for an
// uploaded file.
type DocumentAnalysis struct {
	IsInvoice bool            `json:"is_invoice"`
	Issuer    string          `json:"issuer"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Currency  string          `json:"currency"`
	Reason    string          `json:"reason"`
}
