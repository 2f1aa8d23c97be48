package repository

import (
	"github.com/ledgerline/statement-gateway/internal/model"
)

type AccountEntity struct {
	ID       int64  `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	Name     string `db:"name"      gorm:"column:name;not null"`
	BankName string `db:"bank_name" gorm:"column:bank_name;not null"`
	Currency string `db:"currency"  gorm:"column:currency;not null;default:GBP"`
}

func (AccountEntity) TableName() string {
	return "bank_accounts"
}

func toAccountEntity(m *model.BankAccount) *AccountEntity {
	if m == nil {
		return nil
	}
	return &AccountEntity{
		ID:       m.ID,
		Name:     m.Name,
		BankName: m.BankName,
		Currency: m.Currency,
	}
}

func toAccountModel(e *AccountEntity) *model.BankAccount {
	if e == nil {
		return nil
	}
	return &model.BankAccount{
		ID:       e.ID,
		Name:     e.Name,
		BankName: e.BankName,
		Currency: e.Currency,
	}
}
