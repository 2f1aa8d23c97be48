package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMatchTransactionRepository struct {
	mock.Mock
}

func (m *MockMatchTransactionRepository) ListWindow(ctx context.Context, from, to time.Time, min, max decimal.Decimal) ([]*model.BankTransaction, error) {
	args := m.Called(ctx, from, to, min, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BankTransaction), args.Error(1)
}

func amazonTransaction(t *testing.T) *model.BankTransaction {
	return &model.BankTransaction{
		ID:          1,
		Date:        mustDate(t, "2024-01-05"),
		Description: "AMAZON MKTP",
		Amount:      mustDecimal(t, "-42.50"),
		Currency:    "GBP",
	}
}

func receivedInvoice(t *testing.T) model.ExtractedInvoice {
	return model.ExtractedInvoice{
		Issuer:       "Amazon",
		Amount:       mustDecimal(t, "42.50"),
		Date:         "2024-01-05",
		Currency:     "GBP",
		DocumentRole: model.DocumentRoleReceived,
	}
}

func TestMatchService_Match_FullScore(t *testing.T) {
	repo := new(MockMatchTransactionRepository)
	ctx := context.Background()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	min := mustDecimal(t, "-46.75")
	max := mustDecimal(t, "-38.25")

	repo.On("ListWindow", ctx, from, to,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(min) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(max) }),
	).Return([]*model.BankTransaction{amazonTransaction(t)}, nil)

	svc := NewMatchService(repo, DefaultMatchWeights())
	candidates, err := svc.Match(ctx, receivedInvoice(t))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	// 50 (exact amount) + 15 (currency) + 35 (issuer substring)
	assert.Equal(t, 100, candidates[0].MatchScore)
	repo.AssertExpectations(t)
}

func TestMatchService_Match_EmittedWindowIsPositive(t *testing.T) {
	repo := new(MockMatchTransactionRepository)
	ctx := context.Background()

	inv := receivedInvoice(t)
	inv.DocumentRole = model.DocumentRoleEmitted

	repo.On("ListWindow", ctx, mock.Anything, mock.Anything,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(mustDecimal(t, "38.25")) }),
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(mustDecimal(t, "46.75")) }),
	).Return([]*model.BankTransaction{}, nil)

	svc := NewMatchService(repo, DefaultMatchWeights())
	_, err := svc.Match(ctx, inv)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMatchService_Match_InvalidDateFallsBackToCurrentYear(t *testing.T) {
	repo := new(MockMatchTransactionRepository)
	ctx := context.Background()

	inv := receivedInvoice(t)
	inv.Date = "soonish"

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.On("ListWindow", ctx, from, to, mock.Anything, mock.Anything).
		Return([]*model.BankTransaction{}, nil)

	svc := NewMatchService(repo, DefaultMatchWeights())
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Match(ctx, inv)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMatchService_Match_ScoringComponents(t *testing.T) {
	ctx := context.Background()
	weights := DefaultMatchWeights()

	run := func(t *testing.T, inv model.ExtractedInvoice, txn *model.BankTransaction) int {
		repo := new(MockMatchTransactionRepository)
		repo.On("ListWindow", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*model.BankTransaction{txn}, nil)
		svc := NewMatchService(repo, weights)
		candidates, err := svc.Match(ctx, inv)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		return candidates[0].MatchScore
	}

	t.Run("currency mismatch drops the currency points", func(t *testing.T) {
		txn := amazonTransaction(t)
		txn.Currency = "EUR"
		assert.Equal(t, 85, run(t, receivedInvoice(t), txn))
	})

	t.Run("issuer word match scores partial", func(t *testing.T) {
		inv := receivedInvoice(t)
		inv.Issuer = "Amazon Web Services EMEA"
		txn := amazonTransaction(t)
		txn.Description = "AWS SERVICES BILL"
		// 50 + 15 + 20 (only the word "services" matches)
		assert.Equal(t, 85, run(t, inv, txn))
	})

	t.Run("unknown issuer scores nothing for issuer", func(t *testing.T) {
		inv := receivedInvoice(t)
		inv.Issuer = "Unknown"
		assert.Equal(t, 65, run(t, inv, amazonTransaction(t)))
	})

	t.Run("short issuer is ignored", func(t *testing.T) {
		inv := receivedInvoice(t)
		inv.Issuer = "AM"
		assert.Equal(t, 65, run(t, inv, amazonTransaction(t)))
	})

	t.Run("near amounts score down the ladder", func(t *testing.T) {
		inv := receivedInvoice(t)
		txn := amazonTransaction(t)
		txn.Amount = mustDecimal(t, "-42.90") // ~0.94% off → close
		txn.Description = "SOMETHING ELSE"
		inv.Issuer = "zzz"
		inv.Currency = "USD"
		assert.Equal(t, weights.AmountClose, run(t, inv, txn))
	})
}

func TestMatchService_Match_TopTenDescending(t *testing.T) {
	repo := new(MockMatchTransactionRepository)
	ctx := context.Background()

	txns := make([]*model.BankTransaction, 0, 12)
	for i := 0; i < 12; i++ {
		txn := amazonTransaction(t)
		txn.ID = int64(i + 1)
		if i%2 == 0 {
			// weaker candidates: no issuer text anywhere
			txn.Description = fmt.Sprintf("MISC PAYMENT %d", i)
		}
		txns = append(txns, txn)
	}
	repo.On("ListWindow", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(txns, nil)

	svc := NewMatchService(repo, DefaultMatchWeights())
	candidates, err := svc.Match(ctx, receivedInvoice(t))
	require.NoError(t, err)
	require.Len(t, candidates, 10)

	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].MatchScore, candidates[i].MatchScore)
	}
	assert.Equal(t, 100, candidates[0].MatchScore)
}

func TestMatchService_Match_InvalidRole(t *testing.T) {
	svc := NewMatchService(new(MockMatchTransactionRepository), DefaultMatchWeights())
	inv := receivedInvoice(t)
	inv.DocumentRole = "SIDEWAYS"
	_, err := svc.Match(context.Background(), inv)
	assert.Error(t, err)
}
