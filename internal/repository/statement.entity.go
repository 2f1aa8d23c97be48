package repository

import (
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
)

type StatementEntity struct {
	ID            int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Filename      string    `db:"filename"        gorm:"column:filename;not null"`
	BankAccountID int64     `db:"bank_account_id" gorm:"column:bank_account_id;not null;index"`
	UploadedAt    time.Time `db:"uploaded_at"     gorm:"column:uploaded_at;autoCreateTime"`
}

func (StatementEntity) TableName() string {
	return "bank_statements"
}

func toStatementEntity(m *model.BankStatement) *StatementEntity {
	if m == nil {
		return nil
	}
	return &StatementEntity{
		ID:            m.ID,
		Filename:      m.Filename,
		BankAccountID: m.BankAccountID,
		UploadedAt:    m.UploadedAt,
	}
}

func toStatementModel(e *StatementEntity) *model.BankStatement {
	if e == nil {
		return nil
	}
	return &model.BankStatement{
		ID:            e.ID,
		Filename:      e.Filename,
		BankAccountID: e.BankAccountID,
		UploadedAt:    e.UploadedAt,
	}
}
