package repository

import (
	"context"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/pg"
)

type AccountRepository struct {
	*pg.DB
}

func NewAccountRepository(db *pg.DB) *AccountRepository {
	return &AccountRepository{
		db,
	}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.BankAccount, error) {
	var entity AccountEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, id).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAccountModel(&entity), nil
}

func (r *AccountRepository) Create(ctx context.Context, acc *model.BankAccount) (*model.BankAccount, error) {
	entity := toAccountEntity(acc)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toAccountModel(entity), nil
}
