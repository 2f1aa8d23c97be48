package model

type BankAccount struct {
	ID       int64  `json:"id"        db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	Name     string `json:"name"      db:"name"      gorm:"column:name;not null"`
	BankName string `json:"bank_name" db:"bank_name" gorm:"column:bank_name;not null"`
	Currency string `json:"currency"  db:"currency"  gorm:"column:currency;not null;default:GBP"`
}

func (BankAccount) TableName() string { return "bank_accounts" }
