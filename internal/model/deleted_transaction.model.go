package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DeletedTransaction is the append-only audit record written when a live
// transaction is removed. Normal flows never update or delete these rows.
type DeletedTransaction struct {
	ID              int64           `json:"id"                db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	OriginalID      int64           `json:"original_id"       db:"original_id"       gorm:"column:original_id;not null;index"`
	Amount          decimal.Decimal `json:"amount"            db:"amount"            gorm:"column:amount;type:numeric(14,2);not null"`
	Currency        string          `json:"currency"          db:"currency"          gorm:"column:currency;not null"`
	Description     string          `json:"description"       db:"description"       gorm:"column:description;not null"`
	Date            time.Time       `json:"date"              db:"date"              gorm:"column:date;not null"`
	BankAccountName string          `json:"bank_account_name" db:"bank_account_name" gorm:"column:bank_account_name"`
	BankName        string          `json:"bank_name"         db:"bank_name"         gorm:"column:bank_name"`
	DeletedBy       string          `json:"deleted_by"        db:"deleted_by"        gorm:"column:deleted_by"`
	Reason          string          `json:"reason"            db:"reason"            gorm:"column:reason"`
	FullSnapshot    string          `json:"full_snapshot"     db:"full_snapshot"     gorm:"column:full_snapshot;not null"`
	DeletedAt       time.Time       `json:"deleted_at"        db:"deleted_at"        gorm:"column:deleted_at;autoCreateTime"`
}

func (DeletedTransaction) TableName() string { return "deleted_transactions" }

// DeleteRequest selects transactions to archive, either by explicit IDs or
// by a free-text query against the searchable fields.
type DeleteRequest struct {
	TransactionIDs    []int64 `json:"transaction_ids"`
	Reason            string  `json:"reason"`
	DeletedBy         string  `json:"deleted_by"`
	DeleteAllMatching bool    `json:"delete_all_matching"`
	Query             string  `json:"query"`
}

func (r DeleteRequest) Validate() error {
	if len(r.TransactionIDs) == 0 && !r.DeleteAllMatching {
		return errors.New("transaction_ids or delete_all_matching is required")
	}
	if r.DeleteAllMatching && r.Query == "" {
		return errors.New("query is required when delete_all_matching is set")
	}
	return nil
}
