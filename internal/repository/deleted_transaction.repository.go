package repository

import (
	"context"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/pg"
)

// DeletedTransactionRepository writes the append-only audit log. There is
// deliberately no Update or Delete here.
type DeletedTransactionRepository struct {
	*pg.DB
}

func NewDeletedTransactionRepository(db *pg.DB) *DeletedTransactionRepository {
	return &DeletedTransactionRepository{
		db,
	}
}

func (r *DeletedTransactionRepository) Create(ctx context.Context, dt *model.DeletedTransaction) (*model.DeletedTransaction, error) {
	entity := toDeletedTransactionEntity(dt)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDeletedTransactionModel(entity), nil
}

func (r *DeletedTransactionRepository) ListByOriginalID(ctx context.Context, originalID int64) ([]*model.DeletedTransaction, error) {
	var entities []*DeletedTransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("original_id = ?", originalID).
		Order("deleted_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toDeletedTransactionModels(entities), nil
}
