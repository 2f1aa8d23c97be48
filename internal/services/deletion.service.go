package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/internal/repository"
	"github.com/ledgerline/statement-gateway/pkg/logger"
	"github.com/ledgerline/statement-gateway/pkg/prom"
)

var (
	ErrNotFound        = errors.New("no matching transactions")
	ErrStillReferenced = errors.New("transaction is still referenced by other records")
	ErrAlreadyDeleted  = errors.New("transaction already deleted")
)

type DeletionTransactionRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*model.BankTransaction, error)
	Search(ctx context.Context, query string) ([]*model.BankTransaction, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditRepository interface {
	Create(ctx context.Context, dt *model.DeletedTransaction) (*model.DeletedTransaction, error)
}

type AttachmentUnlinker interface {
	Unlink(ctx context.Context, transactionIDs []int64) (int64, error)
}

// DeleteResult is the caller-facing outcome of one archive call.
type DeleteResult struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

type DeletionService struct {
	transactionRepo DeletionTransactionRepository
	auditRepo       AuditRepository
	attachmentRepo  AttachmentUnlinker
	events          EventPublisher
}

func NewDeletionService(transactionRepo DeletionTransactionRepository, auditRepo AuditRepository, attachmentRepo AttachmentUnlinker, events EventPublisher) *DeletionService {
	return &DeletionService{
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		attachmentRepo:  attachmentRepo,
		events:          events,
	}
}

// Delete archives and removes the selected transactions. Deletion is a move,
// never a bare delete: for every selected row an audit snapshot is written
// and its attachments are unlinked, then the live row goes away. All three
// steps for the whole batch commit or roll back together.
func (s *DeletionService) Delete(ctx context.Context, req model.DeleteRequest) (*DeleteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	selected, err := s.selectTargets(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrNotFound
	}

	ids := make([]int64, len(selected))
	for i, txn := range selected {
		ids[i] = txn.ID
	}

	err = s.transactionRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, txn := range selected {
			snapshot, err := json.Marshal(txn)
			if err != nil {
				return fmt.Errorf("snapshot transaction %d: %w", txn.ID, err)
			}

			audit := &model.DeletedTransaction{
				OriginalID:   txn.ID,
				Amount:       txn.Amount,
				Currency:     txn.Currency,
				Description:  txn.Description,
				Date:         txn.Date,
				DeletedBy:    req.DeletedBy,
				Reason:       req.Reason,
				FullSnapshot: string(snapshot),
			}
			if txn.BankAccount != nil {
				audit.BankAccountName = txn.BankAccount.Name
				audit.BankName = txn.BankAccount.BankName
			}
			if _, err := s.auditRepo.Create(ctx, audit); err != nil {
				return fmt.Errorf("archive transaction %d: %w", txn.ID, err)
			}
		}

		if _, err := s.attachmentRepo.Unlink(ctx, ids); err != nil {
			return fmt.Errorf("unlink attachments: %w", err)
		}

		n, err := s.transactionRepo.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			// someone removed rows between selection and delete; the
			// archive must not outlive its live rows, so roll back
			return ErrAlreadyDeleted
		}
		return nil
	})
	if err != nil {
		return nil, mapDeleteError(err)
	}

	prom.AddCounter(prom.SystemLedger, prom.MetricTransactionsDeleted, float64(len(ids)))
	s.publishDeleted(ctx, ids)

	return &DeleteResult{
		Count:   len(ids),
		Message: fmt.Sprintf("archived and deleted %d transaction(s)", len(ids)),
	}, nil
}

func (s *DeletionService) selectTargets(ctx context.Context, req model.DeleteRequest) ([]*model.BankTransaction, error) {
	if len(req.TransactionIDs) > 0 {
		return s.transactionRepo.GetByIDs(ctx, req.TransactionIDs)
	}
	return s.transactionRepo.Search(ctx, req.Query)
}

// mapDeleteError turns store-level failures into the user-facing taxonomy
// instead of leaking raw database errors.
func mapDeleteError(err error) error {
	switch {
	case repository.IsForeignKeyViolation(err):
		return ErrStillReferenced
	case repository.IsNotFound(err):
		return ErrAlreadyDeleted
	default:
		return err
	}
}

func (s *DeletionService) publishDeleted(ctx context.Context, ids []int64) {
	if s.events == nil {
		return
	}
	ev := model.LedgerEvent{
		EventID:        uuid.NewString(),
		Type:           model.EventTransactionsDeleted,
		TransactionIDs: ids,
	}
	if _, err := s.events.PublishJSON(ctx, ev, nil); err != nil {
		logger.Error("delete: reindex publish failed", "count", len(ids), "error", err)
	}
}
