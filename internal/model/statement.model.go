package model

import "time"

// BankStatement is the batch marker for one upload. It is created once per
// import call, even when every row in the file turns out to be a duplicate.
type BankStatement struct {
	ID            int64     `json:"id"              db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Filename      string    `json:"filename"        db:"filename"        gorm:"column:filename;not null"`
	BankAccountID int64     `json:"bank_account_id" db:"bank_account_id" gorm:"column:bank_account_id;not null;index"`
	UploadedAt    time.Time `json:"uploaded_at"     db:"uploaded_at"     gorm:"column:uploaded_at;autoCreateTime"`
}

func (BankStatement) TableName() string { return "bank_statements" }

// ImportSummary reports the outcome of one statement upload.
type ImportSummary struct {
	StatementID int64 `json:"statement_id"`
	Imported    int   `json:"imported"`
	Duplicates  int   `json:"duplicates"`
	Skipped     int   `json:"skipped"`
}
