package repository

import (
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type DeletedTransactionEntity struct {
	ID              int64           `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	OriginalID      int64           `db:"original_id"       gorm:"column:original_id;not null;index"`
	Amount          decimal.Decimal `db:"amount"            gorm:"column:amount;type:numeric(14,2);not null"`
	Currency        string          `db:"currency"          gorm:"column:currency;not null"`
	Description     string          `db:"description"       gorm:"column:description;not null"`
	Date            time.Time       `db:"date"              gorm:"column:date;not null"`
	BankAccountName string          `db:"bank_account_name" gorm:"column:bank_account_name"`
	BankName        string          `db:"bank_name"         gorm:"column:bank_name"`
	DeletedBy       string          `db:"deleted_by"        gorm:"column:deleted_by"`
	Reason          string          `db:"reason"            gorm:"column:reason"`
	FullSnapshot    string          `db:"full_snapshot"     gorm:"column:full_snapshot;not null"`
	DeletedAt       time.Time       `db:"deleted_at"        gorm:"column:deleted_at;autoCreateTime"`
}

func (DeletedTransactionEntity) TableName() string {
	return "deleted_transactions"
}

func toDeletedTransactionEntity(m *model.DeletedTransaction) *DeletedTransactionEntity {
	if m == nil {
		return nil
	}
	return &DeletedTransactionEntity{
		ID:              m.ID,
		OriginalID:      m.OriginalID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Description:     m.Description,
		Date:            m.Date,
		BankAccountName: m.BankAccountName,
		BankName:        m.BankName,
		DeletedBy:       m.DeletedBy,
		Reason:          m.Reason,
		FullSnapshot:    m.FullSnapshot,
		DeletedAt:       m.DeletedAt,
	}
}

func toDeletedTransactionModel(e *DeletedTransactionEntity) *model.DeletedTransaction {
	if e == nil {
		return nil
	}
	return &model.DeletedTransaction{
		ID:              e.ID,
		OriginalID:      e.OriginalID,
		Amount:          e.Amount,
		Currency:        e.Currency,
		Description:     e.Description,
		Date:            e.Date,
		BankAccountName: e.BankAccountName,
		BankName:        e.BankName,
		DeletedBy:       e.DeletedBy,
		Reason:          e.Reason,
		FullSnapshot:    e.FullSnapshot,
		DeletedAt:       e.DeletedAt,
	}
}

func toDeletedTransactionModels(entities []*DeletedTransactionEntity) []*model.DeletedTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.DeletedTransaction, len(entities))
	for i, e := range entities {
		models[i] = toDeletedTransactionModel(e)
	}
	return models
}
