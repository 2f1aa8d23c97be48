package services

import (
	"context"

	"github.com/ledgerline/statement-gateway/internal/model"
)

type TransactionListRepository interface {
	List(ctx context.Context, f model.TransactionFilter) ([]*model.BankTransaction, int64, error) // results, totalCount
}

type TransactionService struct {
	repo TransactionListRepository
}

func NewTransactionService(repo TransactionListRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

func (s *TransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.BankTransaction, int64, error) {
	return s.repo.List(ctx, f)
}
