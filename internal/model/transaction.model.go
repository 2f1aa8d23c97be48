package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BankTransaction struct {
	ID              int64           `json:"id"                db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	Date            time.Time       `json:"date"              db:"date"              gorm:"column:date;not null;index"`
	Description     string          `json:"description"       db:"description"       gorm:"column:description;not null"`
	Amount          decimal.Decimal `json:"amount"            db:"amount"            gorm:"column:amount;type:numeric(14,2);not null"`
	Currency        string          `json:"currency"          db:"currency"          gorm:"column:currency;not null"`
	Hash            string          `json:"hash"              db:"hash"              gorm:"column:hash;not null;uniqueIndex"`
	BankAccountID   int64           `json:"bank_account_id"   db:"bank_account_id"   gorm:"column:bank_account_id;not null;index"`
	BankAccount     *BankAccount    `json:"bank_account,omitempty"                    gorm:"foreignKey:BankAccountID;references:ID"`
	BankStatementID *int64          `json:"bank_statement_id" db:"bank_statement_id" gorm:"column:bank_statement_id;index"`
	Category        string          `json:"category"          db:"category"          gorm:"column:category"`
	Counterparty    string          `json:"counterparty"      db:"counterparty"      gorm:"column:counterparty"`
	Merchant        string          `json:"merchant"          db:"merchant"          gorm:"column:merchant"`
	Reference       string          `json:"reference"         db:"reference"         gorm:"column:reference"`
	Attachments     []*Attachment   `json:"attachments,omitempty"                     gorm:"foreignKey:TransactionID;references:ID;constraint:OnDelete:SET NULL"`
	CreatedAt       time.Time       `json:"created_at"        db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (BankTransaction) TableName() string { return "bank_transactions" }

// TransactionFilter controls List queries.
type TransactionFilter struct {
	BankAccountID *int64
	Query         *string // case-insensitive substring across text fields
	From          *time.Time
	To            *time.Time
	Limit         int  // default 50
	Offset        int  // for pagination
	Desc          bool // order by date
}
