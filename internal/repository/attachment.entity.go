package repository

import (
	"time"

	"github.com/ledgerline/statement-gateway/internal/model"
)

type AttachmentEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	Path          string    `db:"path"           gorm:"column:path;not null"`
	OriginalName  string    `db:"original_name"  gorm:"column:original_name;not null"`
	TransactionID *int64    `db:"transaction_id" gorm:"column:transaction_id;index"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (AttachmentEntity) TableName() string {
	return "attachments"
}

func toAttachmentEntity(m *model.Attachment) *AttachmentEntity {
	if m == nil {
		return nil
	}
	return &AttachmentEntity{
		ID:            m.ID,
		Path:          m.Path,
		OriginalName:  m.OriginalName,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt,
	}
}

func toAttachmentModel(e *AttachmentEntity) *model.Attachment {
	if e == nil {
		return nil
	}
	return &model.Attachment{
		ID:            e.ID,
		Path:          e.Path,
		OriginalName:  e.OriginalName,
		TransactionID: e.TransactionID,
		CreatedAt:     e.CreatedAt,
	}
}

func toAttachmentModels(entities []*AttachmentEntity) []*model.Attachment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Attachment, len(entities))
	for i, e := range entities {
		models[i] = toAttachmentModel(e)
	}
	return models
}
