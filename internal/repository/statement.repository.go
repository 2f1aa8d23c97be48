package repository

import (
	"context"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/pg"
)

type StatementRepository struct {
	*pg.DB
}

func NewStatementRepository(db *pg.DB) *StatementRepository {
	return &StatementRepository{
		db,
	}
}

func (r *StatementRepository) Create(ctx context.Context, st *model.BankStatement) (*model.BankStatement, error) {
	entity := toStatementEntity(st)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toStatementModel(entity), nil
}

// TransactionIDs returns the ids of every transaction imported under the
// statement. The indexer uses it to scope a reindex to one upload.
func (r *StatementRepository) TransactionIDs(ctx context.Context, statementID int64) ([]int64, error) {
	var ids []int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("bank_statement_id = ?", statementID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
