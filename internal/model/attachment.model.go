package model

import "time"

// Attachment references a file on disk. Deleting a transaction severs the
// link (transaction_id goes NULL); the record and the file both survive.
type Attachment struct {
	ID            int64     `json:"id"             db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	Path          string    `json:"path"           db:"path"           gorm:"column:path;not null"`
	OriginalName  string    `json:"original_name"  db:"original_name"  gorm:"column:original_name;not null"`
	TransactionID *int64    `json:"transaction_id" db:"transaction_id" gorm:"column:transaction_id;index"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (Attachment) TableName() string { return "attachments" }
