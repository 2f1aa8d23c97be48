package repository

import (
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID              int64               `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	Date            time.Time           `db:"date"              gorm:"column:date;not null;index"`
	Description     string              `db:"description"       gorm:"column:description;not null"`
	Amount          decimal.Decimal     `db:"amount"            gorm:"column:amount;type:numeric(14,2);not null"`
	Currency        string              `db:"currency"          gorm:"column:currency;not null"`
	Hash            string              `db:"hash"              gorm:"column:hash;not null;uniqueIndex"`
	BankAccountID   int64               `db:"bank_account_id"   gorm:"column:bank_account_id;not null;index"`
	BankAccount     *AccountEntity      `                        gorm:"foreignKey:BankAccountID;references:ID"`
	BankStatementID *int64              `db:"bank_statement_id" gorm:"column:bank_statement_id;index"`
	Category        string              `db:"category"          gorm:"column:category"`
	Counterparty    string              `db:"counterparty"      gorm:"column:counterparty"`
	Merchant        string              `db:"merchant"          gorm:"column:merchant"`
	Reference       string              `db:"reference"         gorm:"column:reference"`
	Attachments     []*AttachmentEntity `                        gorm:"foreignKey:TransactionID;references:ID"`
	CreatedAt       time.Time           `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "bank_transactions"
}

func toTransactionEntity(m *model.BankTransaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:              m.ID,
		Date:            m.Date,
		Description:     m.Description,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Hash:            m.Hash,
		BankAccountID:   m.BankAccountID,
		BankStatementID: m.BankStatementID,
		Category:        m.Category,
		Counterparty:    m.Counterparty,
		Merchant:        m.Merchant,
		Reference:       m.Reference,
		CreatedAt:       m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.BankTransaction {
	if e == nil {
		return nil
	}
	return &model.BankTransaction{
		ID:              e.ID,
		Date:            e.Date,
		Description:     e.Description,
		Amount:          e.Amount,
		Currency:        e.Currency,
		Hash:            e.Hash,
		BankAccountID:   e.BankAccountID,
		BankAccount:     toAccountModel(e.BankAccount),
		BankStatementID: e.BankStatementID,
		Category:        e.Category,
		Counterparty:    e.Counterparty,
		Merchant:        e.Merchant,
		Reference:       e.Reference,
		Attachments:     toAttachmentModels(e.Attachments),
		CreatedAt:       e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.BankTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.BankTransaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
