package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/statement"
	"github.com/ledgerline/statement-gateway/pkg/prom"
	"github.com/shopspring/decimal"
)

const maxCandidates = 10

// amountTolerance is the hard window: a transaction whose absolute amount is
// more than 10% away from the invoice amount is never a candidate.
var (
	amountLow  = decimal.RequireFromString("0.9")
	amountHigh = decimal.RequireFromString("1.1")
)

// MatchWeights are the additive scoring components. They are hand-tuned
// heuristics surfaced through config; results go to a human for
// confirmation, so false positives are expected and tolerated.
type MatchWeights struct {
	AmountExact   int // diff < 0.1%
	AmountClose   int // diff < 1%
	AmountNear    int // diff < 5%
	AmountInRange int // anywhere else inside the 10% window
	Currency      int
	IssuerFull    int
	IssuerPartial int
}

func DefaultMatchWeights() MatchWeights {
	return MatchWeights{
		AmountExact:   50,
		AmountClose:   40,
		AmountNear:    25,
		AmountInRange: 10,
		Currency:      15,
		IssuerFull:    35,
		IssuerPartial: 20,
	}
}

type MatchTransactionRepository interface {
	ListWindow(ctx context.Context, from, to time.Time, min, max decimal.Decimal) ([]*model.BankTransaction, error)
}

type MatchService struct {
	transactionRepo MatchTransactionRepository
	weights         MatchWeights
	now             func() time.Time
}

func NewMatchService(transactionRepo MatchTransactionRepository, weights MatchWeights) *MatchService {
	return &MatchService{
		transactionRepo: transactionRepo,
		weights:         weights,
		now:             time.Now,
	}
}

// Match returns up to 10 candidates ordered by descending score. The search
// window is the whole calendar year around the extracted date (extraction
// dates are unreliable, so the net is wide on purpose), narrowed by the
// ±10% amount window and the sign implied by the document role.
func (s *MatchService) Match(ctx context.Context, inv model.ExtractedInvoice) ([]model.MatchCandidate, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	defer func(start time.Time) {
		prom.AddMatchDuration(time.Since(start).Seconds(), string(inv.DocumentRole))
	}(time.Now())

	year := s.now().Year()
	if d, ok := statement.ParseDate(inv.Date); ok {
		year = d.Year()
	}
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	amount := inv.Amount.Abs()
	min, max := signedWindow(amount, inv.DocumentRole)

	txns, err := s.transactionRepo.ListWindow(ctx, from, to, min, max)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.MatchCandidate, 0, len(txns))
	for _, txn := range txns {
		candidates = append(candidates, model.MatchCandidate{
			Transaction: txn,
			MatchScore:  s.score(inv, amount, txn),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates, nil
}

// signedWindow maps the document role onto a signed amount range: a RECEIVED
// invoice is settled by an outgoing (negative) movement, an EMITTED one by
// an incoming (positive) movement.
func signedWindow(amount decimal.Decimal, role model.DocumentRole) (decimal.Decimal, decimal.Decimal) {
	low := amount.Mul(amountLow)
	high := amount.Mul(amountHigh)
	if role == model.DocumentRoleReceived {
		return high.Neg(), low.Neg()
	}
	return low, high
}

func (s *MatchService) score(inv model.ExtractedInvoice, amount decimal.Decimal, txn *model.BankTransaction) int {
	score := s.scoreAmount(amount, txn.Amount.Abs())

	if inv.Currency != "" && strings.EqualFold(inv.Currency, txn.Currency) {
		score += s.weights.Currency
	}

	score += s.scoreIssuer(inv.Issuer, txn)
	return score
}

func (s *MatchService) scoreAmount(invoice, txn decimal.Decimal) int {
	if invoice.IsZero() {
		return s.weights.AmountInRange
	}
	diff, _ := txn.Sub(invoice).Abs().Div(invoice).Float64()
	switch {
	case diff < 0.001:
		return s.weights.AmountExact
	case diff < 0.01:
		return s.weights.AmountClose
	case diff < 0.05:
		return s.weights.AmountNear
	default:
		return s.weights.AmountInRange
	}
}

func (s *MatchService) scoreIssuer(issuer string, txn *model.BankTransaction) int {
	issuer = strings.ToLower(strings.TrimSpace(issuer))
	if len(issuer) <= 2 || issuer == "unknown" {
		return 0
	}

	haystacks := []string{
		strings.ToLower(txn.Description),
		strings.ToLower(txn.Counterparty),
		strings.ToLower(txn.Merchant),
	}
	for _, h := range haystacks {
		if h != "" && strings.Contains(h, issuer) {
			return s.weights.IssuerFull
		}
	}

	for _, word := range strings.Fields(issuer) {
		if len(word) <= 3 {
			continue
		}
		for _, h := range haystacks {
			if h != "" && strings.Contains(h, word) {
				return s.weights.IssuerPartial
			}
		}
	}
	return 0
}
