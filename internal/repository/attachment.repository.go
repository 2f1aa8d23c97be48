package repository

import (
	"context"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/pg"
)

type AttachmentRepository struct {
	*pg.DB
}

func NewAttachmentRepository(db *pg.DB) *AttachmentRepository {
	return &AttachmentRepository{
		db,
	}
}

func (r *AttachmentRepository) Create(ctx context.Context, att *model.Attachment) (*model.Attachment, error) {
	entity := toAttachmentEntity(att)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAttachmentModel(entity), nil
}

func (r *AttachmentRepository) ListByTransactionIDs(ctx context.Context, ids []int64) ([]*model.Attachment, error) {
	var entities []*AttachmentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("transaction_id IN ?", ids).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toAttachmentModels(entities), nil
}

// Unlink severs attachments from their transactions by nulling
// transaction_id. Records and files are preserved; this is the whole point
// of the archive flow.
func (r *AttachmentRepository) Unlink(ctx context.Context, transactionIDs []int64) (int64, error) {
	res := r.Write(ctx).WithContext(ctx).
		Model(&AttachmentEntity{}).
		Where("transaction_id IN ?", transactionIDs).
		Update("transaction_id", nil)
	return res.RowsAffected, res.Error
}
